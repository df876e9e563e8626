package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/user-auth-api/internal/models"
	appErrors "github.com/noah-isme/user-auth-api/pkg/errors"
)

type userRepository interface {
	List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	UpdateContact(ctx context.Context, id string, contact *string) (*models.User, error)
}

const userListCachePrefix = "users:list:"

type cachedUserPage struct {
	Users []models.User `json:"users"`
	Total int           `json:"total"`
}

// UserService handles user management workflows.
type UserService struct {
	repo      userRepository
	hasher    PasswordHasher
	audit     *AuditService
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewUserService creates an instance of UserService.
func NewUserService(repo userRepository, hasher PasswordHasher, audit *AuditService, validate *validator.Validate, logger *zap.Logger) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &UserService{repo: repo, hasher: hasher, audit: audit, validator: validate, logger: logger}
}

// AttachCache caches listing pages through cache. Cached users carry no credentials.
func (s *UserService) AttachCache(cache *CacheService) {
	s.cache = cache
}

// List returns paginated users and pagination metadata.
func (s *UserService) List(ctx context.Context, filter models.UserFilter) ([]models.User, *models.Pagination, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 || filter.PageSize > 100 {
		filter.PageSize = 20
	}

	var page cachedUserPage
	key := listCacheKey(filter)
	if !s.cache.Get(ctx, key, &page) {
		users, total, err := s.repo.List(ctx, filter)
		if err != nil {
			return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list users")
		}
		page = cachedUserPage{Users: users, Total: total}
		s.cache.Set(ctx, key, page, 0)
	}
	users, total := page.Users, page.Total

	totalPages := total / filter.PageSize
	if total%filter.PageSize != 0 {
		totalPages++
	}

	return users, &models.Pagination{
		Page:       filter.Page,
		PageSize:   filter.PageSize,
		TotalPages: totalPages,
		TotalCount: total,
		PageItems:  len(users),
	}, nil
}

// Get returns a user by ID.
func (s *UserService) Get(ctx context.Context, id string) (*models.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}
	return user, nil
}

// Signup registers a new identity with a hashed password.
func (s *UserService) Signup(ctx context.Context, req models.SignupRequest, meta models.RequestMeta) (*models.User, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid signup payload")
	}

	contact := strings.TrimSpace(req.Contact)
	user, err := s.create(ctx, strings.TrimSpace(req.Username), req.Password, &contact)
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, models.AuditActionSignup, user.ID, meta, map[string]interface{}{"username": user.Username})
	return user, nil
}

// UpdateContact changes the contact of the given user.
func (s *UserService) UpdateContact(ctx context.Context, id string, req models.UpdateUserRequest, meta models.RequestMeta) (*models.User, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid update payload")
	}

	user, err := s.repo.UpdateContact(ctx, id, req.Contact)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update user")
	}

	s.cache.Invalidate(ctx, userListCachePrefix+"*")
	s.audit.Record(ctx, models.AuditActionUserUpdate, user.ID, meta, map[string]interface{}{"contact": user.Contact != nil})
	return user, nil
}

// EnsureDefaultUser creates the bootstrap account when it does not exist yet.
func (s *UserService) EnsureDefaultUser(ctx context.Context, username, password string) error {
	if username == "" || password == "" {
		return nil
	}
	_, err := s.repo.FindByUsername(ctx, username)
	if err == nil {
		return nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check default user")
	}
	if _, err := s.create(ctx, username, password, nil); err != nil {
		return err
	}
	s.logger.Info("default user created", zap.String("username", username))
	return nil
}

func (s *UserService) create(ctx context.Context, username, password string, contact *string) (*models.User, error) {
	if _, err := s.repo.FindByUsername(ctx, username); err == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "username already in use")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check username uniqueness")
	}

	digest, err := s.hasher.Hash(password)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}

	user := &models.User{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: digest,
		Contact:      contact,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create user")
	}
	s.cache.Invalidate(ctx, userListCachePrefix+"*")
	return user, nil
}

func listCacheKey(filter models.UserFilter) string {
	return fmt.Sprintf("%s%d:%d:%s:%s:%s", userListCachePrefix, filter.Page, filter.PageSize,
		strings.ToLower(filter.SortBy), strings.ToLower(filter.SortOrder), filter.Query)
}
