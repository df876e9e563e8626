package middleware

import (
	"database/sql"
	"errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/user-auth-api/internal/models"
	"github.com/noah-isme/user-auth-api/internal/service"
	appErrors "github.com/noah-isme/user-auth-api/pkg/errors"
)

// SessionGuard checks that the access token's identity still exists and that the presented
// refresh token is the one stored for it. A mismatch burns the stored slot. All rejections
// render identically and leave the client's cookies in place.
type SessionGuard struct {
	sessions *service.SessionService
	logger   *zap.Logger
}

// Name implements Guard.
func (g *SessionGuard) Name() string { return "session" }

// Evaluate implements Guard.
func (g *SessionGuard) Evaluate(c *gin.Context) Outcome {
	cookies := g.sessions.Cookies()
	tokens := g.sessions.Tokens()

	access, ok := cookieValue(c, cookies.AccessName)
	if !ok {
		return stale("access_missing")
	}
	claims, err := tokens.VerifyKind(access, models.TokenKindAccess)
	if err != nil || claims.ID == "" {
		return stale("access_invalid")
	}

	user, err := g.sessions.Store().FindByID(c.Request.Context(), claims.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return stale("identity_not_found")
		}
		g.logger.Error("session guard failed to load user", zap.String("user_id", claims.ID), zap.Error(err))
		return reject(appErrors.ErrInternal, "store_error", false)
	}

	refresh, ok := cookieValue(c, cookies.RefreshName)
	if !ok {
		return stale("refresh_missing")
	}

	if !user.HasRefreshToken(refresh) {
		g.burn(c, user.ID)
		return stale("refresh_mismatch")
	}
	refreshClaims, err := tokens.VerifyKind(refresh, models.TokenKindRefresh)
	if err != nil || refreshClaims.ID != user.ID {
		g.burn(c, user.ID)
		return stale("refresh_invalid")
	}

	return allow(user.ID, user, SourceAccessToken)
}

func (g *SessionGuard) burn(c *gin.Context, id string) {
	if err := g.sessions.Invalidate(c.Request.Context(), id, RequestMeta(c)); err != nil {
		g.logger.Error("failed to burn refresh token", zap.String("user_id", id), zap.Error(err))
	}
}

func stale(reason string) Outcome {
	return reject(appErrors.ErrSessionStale, reason, false)
}
