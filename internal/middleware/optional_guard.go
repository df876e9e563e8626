package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/user-auth-api/internal/models"
	"github.com/noah-isme/user-auth-api/internal/service"
)

// OptionalIdentityGuard attaches the caller's identity when either cookie resolves one. It never
// rejects. When both cookies resolve, the refresh-token identity is attached.
type OptionalIdentityGuard struct {
	sessions *service.SessionService
}

// Name implements Guard.
func (g *OptionalIdentityGuard) Name() string { return "optional" }

// Evaluate implements Guard.
func (g *OptionalIdentityGuard) Evaluate(c *gin.Context) Outcome {
	cookies := g.sessions.Cookies()
	tokens := g.sessions.Tokens()
	store := g.sessions.Store()
	ctx := c.Request.Context()

	var (
		user   *models.User
		source string
	)

	if token, ok := cookieValue(c, cookies.AccessName); ok {
		if claims, err := tokens.VerifyKind(token, models.TokenKindAccess); err == nil && claims.ID != "" {
			if found, err := store.FindByID(ctx, claims.ID); err == nil {
				user, source = found, SourceAccessToken
			}
		}
	}

	if token, ok := cookieValue(c, cookies.RefreshName); ok {
		if _, err := tokens.VerifyKind(token, models.TokenKindRefresh); err == nil {
			if found, err := store.FindByRefreshToken(ctx, token); err == nil {
				user = found
				if source == "" {
					source = SourceRefreshToken
				}
			}
		}
	}

	if user == nil {
		return Outcome{Allowed: true, Reason: "anonymous"}
	}
	return allow(user.ID, user, source)
}
