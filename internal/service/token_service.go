package service

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/noah-isme/user-auth-api/internal/models"
	appErrors "github.com/noah-isme/user-auth-api/pkg/errors"
)

// TokenConfig defines the signing secret and default lifetimes of issued tokens.
type TokenConfig struct {
	Secret     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// TokenService signs and verifies HS256 tokens carrying TokenClaims.
type TokenService struct {
	secret []byte
	config TokenConfig
	now    func() time.Time
	parser *jwt.Parser
}

// NewTokenService constructs a TokenService. It fails when no secret is configured.
func NewTokenService(cfg TokenConfig) (*TokenService, error) {
	if cfg.Secret == "" {
		return nil, errors.New("token secret is required")
	}
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = 6 * time.Hour
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = 30 * 24 * time.Hour
	}
	s := &TokenService{secret: []byte(cfg.Secret), config: cfg, now: time.Now}
	s.parser = jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return s.now() }),
	)
	return s, nil
}

// AccessTTL returns the lifetime of access tokens.
func (s *TokenService) AccessTTL() time.Duration { return s.config.AccessTTL }

// RefreshTTL returns the lifetime of refresh tokens.
func (s *TokenService) RefreshTTL() time.Duration { return s.config.RefreshTTL }

// Sign embeds an absolute expiry derived from ttl and signs the claims.
func (s *TokenService) Sign(claims models.TokenClaims, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		return "", errors.New("token ttl must be positive")
	}
	issuedAt := s.now().UTC()
	claims.RegisteredClaims = jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(issuedAt),
		ExpiresAt: jwt.NewNumericDate(issuedAt.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// SignAccess issues an access token for the identity.
func (s *TokenService) SignAccess(id string) (string, error) {
	return s.Sign(models.TokenClaims{ID: id}, s.config.AccessTTL)
}

// SignRefresh issues a refresh token for the identity.
func (s *TokenService) SignRefresh(id string) (string, error) {
	return s.Sign(models.TokenClaims{ID: id, IsRefreshToken: true}, s.config.RefreshTTL)
}

// Verify checks signature, structure and expiry. Every failure is reported as ErrTokenInvalid.
func (s *TokenService) Verify(token string) (*models.TokenClaims, error) {
	claims := &models.TokenClaims{}
	parsed, err := s.parser.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrTokenInvalid.Code, appErrors.ErrTokenInvalid.Status, appErrors.ErrTokenInvalid.Message)
	}
	if !parsed.Valid {
		return nil, appErrors.Clone(appErrors.ErrTokenInvalid, "")
	}
	return claims, nil
}

// VerifyKind verifies the token and additionally requires the given kind.
func (s *TokenService) VerifyKind(token string, kind models.TokenKind) (*models.TokenClaims, error) {
	claims, err := s.Verify(token)
	if err != nil {
		return nil, err
	}
	if claims.Kind() != kind {
		return nil, appErrors.Wrap(errors.New("unexpected token kind "+claims.Kind().String()), appErrors.ErrTokenInvalid.Code, appErrors.ErrTokenInvalid.Status, appErrors.ErrTokenInvalid.Message)
	}
	return claims, nil
}
