package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/user-auth-api/internal/models"
	appErrors "github.com/noah-isme/user-auth-api/pkg/errors"
)

// Login results reported to metrics.
const (
	loginSuccess   = "success"
	loginFailure   = "failure"
	loginThrottled = "throttled"
)

// AuthService provides the login, logout and refresh use cases on top of SessionService.
type AuthService struct {
	sessions  *SessionService
	hasher    PasswordHasher
	throttle  *LoginThrottle
	audit     *AuditService
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(sessions *SessionService, hasher PasswordHasher, throttle *LoginThrottle, audit *AuditService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &AuthService{
		sessions:  sessions,
		hasher:    hasher,
		throttle:  throttle,
		audit:     audit,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
	}
}

// Login verifies credentials and issues the access cookie, plus a persisted refresh cookie when
// auto-login was requested. Unknown users and wrong passwords are indistinguishable.
func (s *AuthService) Login(ctx context.Context, w CookieWriter, req models.LoginRequest) (*models.User, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid login payload")
	}
	meta := models.RequestMeta{IP: req.IP, UserAgent: req.UserAgent}

	retryAfter, allowed, err := s.throttle.Allow(ctx, req.Username)
	if err != nil {
		s.logger.Warn("login throttle unavailable", zap.Error(err))
	} else if !allowed {
		s.metrics.RecordLogin(loginThrottled)
		return nil, appErrors.Clone(appErrors.ErrTooManyRequests, fmt.Sprintf("too many attempts, retry in %d seconds", int(retryAfter.Seconds())+1))
	}

	user, err := s.sessions.Store().FindByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.rejectLogin(ctx, req.Username, meta)
			return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch user")
	}

	if !s.hasher.Verify(req.Password, user.PasswordHash) {
		s.rejectLogin(ctx, req.Username, meta)
		return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "")
	}

	if err := s.sessions.IssuePair(ctx, w, user.ID, req.AutoLogin); err != nil {
		return nil, err
	}

	if err := s.throttle.Success(ctx, req.Username); err != nil {
		s.logger.Warn("failed to reset login throttle", zap.Error(err))
	}
	s.metrics.RecordLogin(loginSuccess)
	s.audit.Record(ctx, models.AuditActionLogin, user.ID, meta, map[string]interface{}{"status": "success", "auto": req.AutoLogin})

	return user, nil
}

// Logout clears the cookie pair and the identity's refresh-token slot.
func (s *AuthService) Logout(ctx context.Context, w CookieWriter, user *models.User, meta models.RequestMeta) error {
	if user == nil {
		return appErrors.Clone(appErrors.ErrUnauthorized, "")
	}
	if err := s.sessions.Revoke(ctx, w, user.ID); err != nil {
		return err
	}
	s.audit.Record(ctx, models.AuditActionLogout, user.ID, meta, map[string]interface{}{"status": "logout"})
	return nil
}

// Refresh rotates the caller's session from the presented refresh token.
func (s *AuthService) Refresh(ctx context.Context, w CookieWriter, refreshToken string, meta models.RequestMeta) (*models.User, error) {
	return s.sessions.Rotate(ctx, w, refreshToken, meta)
}

// ResumeAccess issues a new access cookie for an identity resolved from its refresh token.
func (s *AuthService) ResumeAccess(w CookieWriter, user *models.User) error {
	if user == nil {
		return appErrors.Clone(appErrors.ErrUnauthorized, "")
	}
	_, err := s.sessions.IssueAccess(w, user.ID)
	return err
}

func (s *AuthService) rejectLogin(ctx context.Context, username string, meta models.RequestMeta) {
	s.metrics.RecordLogin(loginFailure)
	if err := s.throttle.Failure(ctx, username); err != nil {
		s.logger.Warn("failed to record login failure", zap.Error(err))
	}
	s.audit.Record(ctx, models.AuditActionLoginFailed, "", meta, map[string]interface{}{"username": username})
}
