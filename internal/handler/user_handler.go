package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/user-auth-api/internal/middleware"
	"github.com/noah-isme/user-auth-api/internal/models"
	appErrors "github.com/noah-isme/user-auth-api/pkg/errors"
	"github.com/noah-isme/user-auth-api/pkg/response"
)

type userService interface {
	List(ctx context.Context, filter models.UserFilter) ([]models.User, *models.Pagination, error)
	Get(ctx context.Context, id string) (*models.User, error)
	Signup(ctx context.Context, req models.SignupRequest, meta models.RequestMeta) (*models.User, error)
	UpdateContact(ctx context.Context, id string, req models.UpdateUserRequest, meta models.RequestMeta) (*models.User, error)
}

// UserHandler handles user endpoints.
type UserHandler struct {
	service userService
}

// NewUserHandler creates a new user handler.
func NewUserHandler(svc userService) *UserHandler {
	return &UserHandler{service: svc}
}

// Signup godoc
// @Summary Sign up
// @Description Register a new user
// @Tags Users
// @Accept json
// @Produce json
// @Param payload body models.SignupRequest true "Signup payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /users/signup [post]
func (h *UserHandler) Signup(c *gin.Context) {
	var req models.SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	user, err := h.service.Signup(c.Request.Context(), req, middleware.RequestMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, user.Info())
}

// List godoc
// @Summary List users
// @Description List users, newest id first
// @Tags Users
// @Produce json
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 498 {object} response.Envelope
// @Router /users [get]
func (h *UserHandler) List(c *gin.Context) {
	filter := models.UserFilter{
		Page:     queryInt(c, "page", 1),
		PageSize: queryInt(c, "page_size", 20),
	}
	h.list(c, filter)
}

// Search godoc
// @Summary Search users
// @Description Search users by id or username
// @Tags Users
// @Produce json
// @Param pageNo query int false "Page number"
// @Param pageSize query int false "Page size"
// @Param query query string false "Matches id or username"
// @Param orderBy query string false "id, username, created_at or updated_at"
// @Param align query string false "asc or desc"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /users/search [get]
func (h *UserHandler) Search(c *gin.Context) {
	filter := models.UserFilter{
		Query:     c.Query("query"),
		Page:      queryInt(c, "pageNo", 1),
		PageSize:  queryInt(c, "pageSize", 20),
		SortBy:    c.Query("orderBy"),
		SortOrder: c.Query("align"),
	}
	h.list(c, filter)
}

func (h *UserHandler) list(c *gin.Context, filter models.UserFilter) {
	users, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	me := middleware.CurrentUserID(c)
	items := make([]models.UserInfo, 0, len(users))
	for i := range users {
		info := users[i].Info()
		info.IsMe = me != "" && info.ID == me
		items = append(items, info)
	}

	response.JSON(c, http.StatusOK, items, pagination)
}

// Get godoc
// @Summary Get user
// @Description Get a user by id
// @Tags Users
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /users/{id} [get]
func (h *UserHandler) Get(c *gin.Context) {
	user, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	info := user.Info()
	info.IsMe = middleware.CurrentUserID(c) == user.ID
	response.JSON(c, http.StatusOK, info, nil)
}

// UpdateMe godoc
// @Summary Update current user
// @Description Change the caller's contact
// @Tags Users
// @Accept json
// @Produce json
// @Param payload body models.UpdateUserRequest true "Update payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /users/me [patch]
func (h *UserHandler) UpdateMe(c *gin.Context) {
	id := middleware.CurrentUserID(c)
	if id == "" {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req models.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	user, err := h.service.UpdateContact(c.Request.Context(), id, req, middleware.RequestMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	info := user.Info()
	info.IsMe = true
	response.JSON(c, http.StatusOK, info, nil)
}

func queryInt(c *gin.Context, key string, fallback int) int {
	value, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return fallback
	}
	return value
}
