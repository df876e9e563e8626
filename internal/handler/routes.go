package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/user-auth-api/internal/middleware"
)

// Register mounts the user endpoints under group. Full authentication runs AccessGuard then
// SessionGuard; personalised reads only try to resolve the caller.
func Register(group gin.IRouter, guards *middleware.Guards, auth *AuthHandler, users *UserHandler) {
	authenticated := guards.Authenticated()
	optional := guards.OptionalIdentity()

	u := group.Group("/users")
	u.POST("/signup", users.Signup)
	u.POST("/login", auth.Login)
	u.POST("/refresh", auth.Refresh)
	u.POST("/logout", authenticated, auth.Logout)
	u.GET("/me", optional, auth.Me)
	u.PATCH("/me", authenticated, users.UpdateMe)
	u.GET("", authenticated, users.List)
	u.GET("/search", optional, users.Search)
	u.GET("/:id", optional, users.Get)
}
