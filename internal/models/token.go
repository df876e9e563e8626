package models

import "github.com/golang-jwt/jwt/v5"

// TokenKind discriminates access from refresh payloads signed with the same secret.
type TokenKind int

const (
	TokenKindAccess TokenKind = iota
	TokenKindRefresh
)

func (k TokenKind) String() string {
	if k == TokenKindRefresh {
		return "refresh"
	}
	return "access"
}

// TokenClaims is the signed payload shared by both token kinds. Access tokens carry only the
// identity id; refresh tokens additionally set IsRefreshToken.
type TokenClaims struct {
	ID             string `json:"id"`
	IsRefreshToken bool   `json:"isRefreshToken,omitempty"`
	jwt.RegisteredClaims
}

// Kind returns the token kind encoded in the payload.
func (c *TokenClaims) Kind() TokenKind {
	if c.IsRefreshToken {
		return TokenKindRefresh
	}
	return TokenKindAccess
}
