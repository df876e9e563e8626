package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/user-auth-api/internal/models"
	"github.com/noah-isme/user-auth-api/internal/service"
	appErrors "github.com/noah-isme/user-auth-api/pkg/errors"
)

// AccessGuard proves a live, well-formed access token was presented. It does not consult the
// credential store. Every rejection clears the cookie pair.
type AccessGuard struct {
	sessions     *service.SessionService
	reauthStatus int
}

// Name implements Guard.
func (g *AccessGuard) Name() string { return "access" }

// Evaluate implements Guard.
func (g *AccessGuard) Evaluate(c *gin.Context) Outcome {
	token, ok := cookieValue(c, g.sessions.Cookies().AccessName)
	if !ok {
		return reject(appErrors.WithStatus(appErrors.ErrCredentialMissing, g.reauthStatus), "access_missing", true)
	}

	claims, err := g.sessions.Tokens().VerifyKind(token, models.TokenKindAccess)
	if err != nil {
		return reject(appErrors.WithStatus(appErrors.ErrTokenInvalid, g.reauthStatus), "access_invalid", true)
	}
	if claims.ID == "" {
		return reject(appErrors.WithStatus(appErrors.ErrTokenInvalid, g.reauthStatus), "access_no_subject", true)
	}

	return allow(claims.ID, nil, SourceAccessToken)
}
