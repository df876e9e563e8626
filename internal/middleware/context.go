package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/user-auth-api/internal/models"
)

// Context keys set by the guards.
const (
	ContextUserKey           = "currentUser"
	ContextUserIDKey         = "currentUserID"
	ContextIdentitySourceKey = "identitySource"
)

// CurrentUser returns the identity attached by SessionGuard or OptionalIdentityGuard.
func CurrentUser(c *gin.Context) *models.User {
	value, exists := c.Get(ContextUserKey)
	if !exists {
		return nil
	}
	user, ok := value.(*models.User)
	if !ok {
		return nil
	}
	return user
}

// CurrentUserID returns the id proven by the guards, or "" for anonymous callers.
func CurrentUserID(c *gin.Context) string {
	return c.GetString(ContextUserIDKey)
}

// IdentitySource reports which cookie resolved the caller.
func IdentitySource(c *gin.Context) string {
	return c.GetString(ContextIdentitySourceKey)
}

// RequestMeta extracts client details for audit records.
func RequestMeta(c *gin.Context) models.RequestMeta {
	return models.RequestMeta{IP: c.ClientIP(), UserAgent: c.Request.UserAgent()}
}
