package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/user-auth-api/internal/middleware"
	"github.com/noah-isme/user-auth-api/internal/models"
	"github.com/noah-isme/user-auth-api/internal/service"
	appErrors "github.com/noah-isme/user-auth-api/pkg/errors"
	"github.com/noah-isme/user-auth-api/pkg/response"
)

type authService interface {
	Login(ctx context.Context, w service.CookieWriter, req models.LoginRequest) (*models.User, error)
	Logout(ctx context.Context, w service.CookieWriter, user *models.User, meta models.RequestMeta) error
	Refresh(ctx context.Context, w service.CookieWriter, refreshToken string, meta models.RequestMeta) (*models.User, error)
	ResumeAccess(w service.CookieWriter, user *models.User) error
}

// AuthHandler wires the cookie session endpoints to the auth service.
type AuthHandler struct {
	service           authService
	refreshCookieName string
}

// NewAuthHandler creates a new handler. refreshCookieName is the cookie read by Refresh.
func NewAuthHandler(svc authService, refreshCookieName string) *AuthHandler {
	return &AuthHandler{service: svc, refreshCookieName: refreshCookieName}
}

// Login godoc
// @Summary Log in
// @Description Authenticate with username and password. Sets the access-token cookie, and with auto=true also the http-only refresh-token cookie.
// @Tags Users
// @Accept json
// @Produce json
// @Param auto query bool false "Keep the session with a refresh token"
// @Param payload body models.LoginRequest true "Login payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 429 {object} response.Envelope
// @Router /users/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid login payload"))
		return
	}
	req.AutoLogin, _ = strconv.ParseBool(c.Query("auto"))
	req.IP = c.ClientIP()
	req.UserAgent = c.GetHeader("User-Agent")

	user, err := h.service.Login(c.Request.Context(), c, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	info := user.Info()
	info.IsMe = true
	response.JSON(c, http.StatusOK, info, nil)
}

// Logout godoc
// @Summary Log out
// @Description Clear both session cookies and revoke the stored refresh token
// @Tags Users
// @Produce json
// @Success 204 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 498 {object} response.Envelope
// @Router /users/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	if err := h.service.Logout(c.Request.Context(), c, user, middleware.RequestMeta(c)); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}

// Refresh godoc
// @Summary Rotate session
// @Description Exchange the refresh-token cookie for a new cookie pair. A refresh token that no longer matches the stored one revokes the session.
// @Tags Users
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 498 {object} response.Envelope
// @Router /users/refresh [post]
func (h *AuthHandler) Refresh(c *gin.Context) {
	token, _ := c.Cookie(h.refreshCookieName)

	user, err := h.service.Refresh(c.Request.Context(), c, token, middleware.RequestMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	info := user.Info()
	info.IsMe = true
	response.JSON(c, http.StatusOK, info, nil)
}

// Me godoc
// @Summary Get current user
// @Description Returns the caller resolved from the session cookies, or null. A caller known only by the refresh token receives a new access-token cookie.
// @Tags Users
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /users/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		response.JSON(c, http.StatusOK, nil, nil)
		return
	}

	if middleware.IdentitySource(c) == middleware.SourceRefreshToken {
		if err := h.service.ResumeAccess(c, user); err != nil {
			response.Error(c, err)
			return
		}
	}

	info := user.Info()
	info.IsMe = true
	response.JSON(c, http.StatusOK, info, nil)
}
