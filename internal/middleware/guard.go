package middleware

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/user-auth-api/internal/models"
	"github.com/noah-isme/user-auth-api/internal/service"
	appErrors "github.com/noah-isme/user-auth-api/pkg/errors"
	"github.com/noah-isme/user-auth-api/pkg/response"
)

// Outcome is the result of one guard evaluation. A rejected outcome carries the error kind to
// render; Reason is internal and only reaches logs and metrics.
type Outcome struct {
	Allowed      bool
	UserID       string
	User         *models.User
	Source       string
	Err          *appErrors.Error
	ClearCookies bool
	Reason       string
}

// Guard gates or enriches a request.
type Guard interface {
	Name() string
	Evaluate(c *gin.Context) Outcome
}

// Identity sources recorded on the request context.
const (
	SourceAccessToken  = "access"
	SourceRefreshToken = "refresh"
)

func allow(userID string, user *models.User, source string) Outcome {
	return Outcome{Allowed: true, UserID: userID, User: user, Source: source}
}

func reject(err *appErrors.Error, reason string, clearCookies bool) Outcome {
	return Outcome{Err: err, Reason: reason, ClearCookies: clearCookies}
}

// Guards builds the guard set sharing one SessionService.
type Guards struct {
	sessions     *service.SessionService
	metrics      *service.MetricsService
	logger       *zap.Logger
	reauthStatus int
}

// NewGuards wires guards to sessions. reauthStatus overrides the status of missing or invalid
// access tokens; zero keeps the default.
func NewGuards(sessions *service.SessionService, metrics *service.MetricsService, logger *zap.Logger, reauthStatus int) *Guards {
	if logger == nil {
		logger = zap.NewNop()
	}
	if reauthStatus == 0 {
		reauthStatus = appErrors.StatusReauthenticate
	}
	return &Guards{sessions: sessions, metrics: metrics, logger: logger, reauthStatus: reauthStatus}
}

// Access returns the AccessGuard.
func (g *Guards) Access() Guard {
	return &AccessGuard{sessions: g.sessions, reauthStatus: g.reauthStatus}
}

// Session returns the SessionGuard.
func (g *Guards) Session() Guard {
	return &SessionGuard{sessions: g.sessions, logger: g.logger}
}

// Optional returns the OptionalIdentityGuard.
func (g *Guards) Optional() Guard {
	return &OptionalIdentityGuard{sessions: g.sessions}
}

// Authenticated requires a live access token and a consistent session, in that order.
func (g *Guards) Authenticated() gin.HandlerFunc {
	return g.Chain(g.Access(), g.Session())
}

// OptionalIdentity resolves the caller when possible and never blocks.
func (g *Guards) OptionalIdentity() gin.HandlerFunc {
	return g.Chain(g.Optional())
}

// Chain runs guards in order. The first rejection aborts the request before later guards run.
func (g *Guards) Chain(guards ...Guard) gin.HandlerFunc {
	return func(c *gin.Context) {
		for _, guard := range guards {
			outcome := guard.Evaluate(c)
			if !outcome.Allowed {
				g.metrics.RecordGuardDecision(guard.Name(), service.OutcomeReject, outcome.Reason)
				g.logger.Debug("guard rejected request",
					zap.String("guard", guard.Name()),
					zap.String("reason", outcome.Reason),
					zap.String("path", c.Request.URL.Path),
				)
				if outcome.ClearCookies {
					g.sessions.ClearCookies(c)
				}
				response.Abort(c, outcome.Err)
				return
			}

			if outcome.UserID == "" && outcome.User == nil {
				g.metrics.RecordGuardDecision(guard.Name(), service.OutcomeAnon, outcome.Reason)
				continue
			}
			g.metrics.RecordGuardDecision(guard.Name(), service.OutcomeAllow, outcome.Reason)
			attach(c, outcome)
		}
		c.Next()
	}
}

func attach(c *gin.Context, outcome Outcome) {
	if outcome.UserID != "" {
		c.Set(ContextUserIDKey, outcome.UserID)
	}
	if outcome.User != nil {
		c.Set(ContextUserIDKey, outcome.User.ID)
		c.Set(ContextUserKey, outcome.User)
	}
	if outcome.Source != "" {
		c.Set(ContextIdentitySourceKey, outcome.Source)
	}
}

// cookieValue returns the named cookie, treating an empty value as absent.
func cookieValue(c *gin.Context, name string) (string, bool) {
	value, err := c.Cookie(name)
	if err != nil || value == "" {
		return "", false
	}
	return value, true
}
