package service

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/user-auth-api/internal/models"
	appErrors "github.com/noah-isme/user-auth-api/pkg/errors"
)

// CredentialStore persists one refresh-token slot per identity.
type CredentialStore interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	FindByRefreshToken(ctx context.Context, token string) (*models.User, error)
	SetRefreshToken(ctx context.Context, id string, token *string) (*models.User, error)
}

// CookieWriter is the response side of the cookie jar. *gin.Context satisfies it.
type CookieWriter interface {
	SetSameSite(sameSite http.SameSite)
	SetCookie(name, value string, maxAge int, path, domain string, secure, httpOnly bool)
}

// CookieConfig describes the names and attributes of the session cookies.
type CookieConfig struct {
	AccessName  string
	RefreshName string
	Domain      string
	Path        string
	Secure      bool
	SameSite    http.SameSite
}

// SessionService mints access/refresh token pairs, writes them as cookies and keeps the
// identity's refresh-token slot in step with what the client holds.
type SessionService struct {
	store   CredentialStore
	tokens  *TokenService
	cookies CookieConfig
	audit   *AuditService
	metrics *MetricsService
	logger  *zap.Logger
}

// NewSessionService constructs a SessionService.
func NewSessionService(store CredentialStore, tokens *TokenService, cookies CookieConfig, audit *AuditService, metrics *MetricsService, logger *zap.Logger) *SessionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cookies.AccessName == "" {
		cookies.AccessName = "access-token"
	}
	if cookies.RefreshName == "" {
		cookies.RefreshName = "refresh-token"
	}
	if cookies.Path == "" {
		cookies.Path = "/"
	}
	return &SessionService{store: store, tokens: tokens, cookies: cookies, audit: audit, metrics: metrics, logger: logger}
}

// Cookies returns the cookie configuration shared with the guards.
func (s *SessionService) Cookies() CookieConfig { return s.cookies }

// Tokens returns the codec used by this service.
func (s *SessionService) Tokens() *TokenService { return s.tokens }

// Store returns the credential store used by this service.
func (s *SessionService) Store() CredentialStore { return s.store }

// IssueAccess signs an access token and writes it as a cookie readable by the client.
func (s *SessionService) IssueAccess(w CookieWriter, id string) (string, error) {
	token, err := s.tokens.SignAccess(id)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create access token")
	}
	s.writeCookie(w, s.cookies.AccessName, token, s.tokens.AccessTTL(), false)
	return token, nil
}

// IssueRefresh signs a refresh token, persists it into the identity's slot and only then
// writes the http-only cookie.
func (s *SessionService) IssueRefresh(ctx context.Context, w CookieWriter, id string) (string, error) {
	token, err := s.mintRefresh(ctx, id)
	if err != nil {
		return "", err
	}
	s.writeCookie(w, s.cookies.RefreshName, token, s.tokens.RefreshTTL(), true)
	return token, nil
}

// IssuePair mints the access token and, when withRefresh is set, a persisted refresh token.
// No cookie is written unless every token was minted and persisted.
func (s *SessionService) IssuePair(ctx context.Context, w CookieWriter, id string, withRefresh bool) error {
	access, err := s.tokens.SignAccess(id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create access token")
	}

	var refresh string
	if withRefresh {
		if refresh, err = s.mintRefresh(ctx, id); err != nil {
			return err
		}
	}

	s.writeCookie(w, s.cookies.AccessName, access, s.tokens.AccessTTL(), false)
	if withRefresh {
		s.writeCookie(w, s.cookies.RefreshName, refresh, s.tokens.RefreshTTL(), true)
	}
	return nil
}

// Revoke clears the cookie pair and nulls the identity's refresh-token slot.
func (s *SessionService) Revoke(ctx context.Context, w CookieWriter, id string) error {
	s.ClearCookies(w)
	if _, err := s.store.SetRefreshToken(ctx, id, nil); err != nil {
		return storeError(err, "failed to clear refresh token")
	}
	return nil
}

// Invalidate burns the identity's refresh-token slot without touching cookies. Used when a
// presented refresh token does not match the stored one.
func (s *SessionService) Invalidate(ctx context.Context, id string, meta models.RequestMeta) error {
	if _, err := s.store.SetRefreshToken(ctx, id, nil); err != nil {
		s.logger.Error("failed to invalidate session", zap.String("user_id", id), zap.Error(err))
		return storeError(err, "failed to clear refresh token")
	}
	s.logger.Warn("refresh token mismatch, session invalidated", zap.String("user_id", id))
	s.metrics.RecordSessionInvalidated()
	s.audit.Record(ctx, models.AuditActionSessionInvalidated, id, meta, map[string]interface{}{"reason": "refresh_token_mismatch"})
	return nil
}

// Rotate exchanges a presented refresh token for a fresh pair. The presented token must be a
// live refresh token equal to the identity's stored slot; a mismatch burns the slot.
func (s *SessionService) Rotate(ctx context.Context, w CookieWriter, presented string, meta models.RequestMeta) (*models.User, error) {
	if presented == "" {
		return nil, appErrors.Clone(appErrors.ErrCredentialMissing, "")
	}
	claims, err := s.tokens.VerifyKind(presented, models.TokenKindRefresh)
	if err != nil {
		s.ClearCookies(w)
		return nil, err
	}

	user, err := s.store.FindByID(ctx, claims.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrSessionStale, "")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}

	if !user.HasRefreshToken(presented) {
		if err := s.Invalidate(ctx, user.ID, meta); err != nil {
			return nil, err
		}
		return nil, appErrors.Clone(appErrors.ErrSessionStale, "")
	}

	if err := s.IssuePair(ctx, w, user.ID, true); err != nil {
		return nil, err
	}
	s.audit.Record(ctx, models.AuditActionRefresh, user.ID, meta, map[string]interface{}{"refresh": "rotated"})
	return user, nil
}

// ClearCookies expires both session cookies on the response.
func (s *SessionService) ClearCookies(w CookieWriter) {
	if w == nil {
		return
	}
	s.writeCookie(w, s.cookies.AccessName, "", -1, false)
	s.writeCookie(w, s.cookies.RefreshName, "", -1, true)
}

func (s *SessionService) mintRefresh(ctx context.Context, id string) (string, error) {
	token, err := s.tokens.SignRefresh(id)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create refresh token")
	}
	if _, err := s.store.SetRefreshToken(ctx, id, &token); err != nil {
		return "", storeError(err, "failed to persist refresh token")
	}
	return token, nil
}

// writeCookie writes a cookie; a negative ttl expires it.
func (s *SessionService) writeCookie(w CookieWriter, name, value string, ttl time.Duration, httpOnly bool) {
	maxAge := -1
	if ttl > 0 {
		maxAge = int(ttl / time.Second)
	}
	w.SetSameSite(s.cookies.SameSite)
	w.SetCookie(name, value, maxAge, s.cookies.Path, s.cookies.Domain, s.cookies.Secure, httpOnly)
}

func storeError(err error, message string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrNotFound, "user not found")
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, message)
}
