package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/user-auth-api/internal/models"
)

const userColumns = `id, username, password_hash, contact, refresh_token, created_at, updated_at`

// UserRepository is the credential store backed by the users table.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new instance of UserRepository.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// FindByID returns a user by identifier.
func (r *UserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE id = $1 LIMIT 1`
	return r.getOne(ctx, "find user by id", query, id)
}

// FindByUsername returns a user by unique username.
func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE username = $1 LIMIT 1`
	return r.getOne(ctx, "find user by username", query, username)
}

// FindByRefreshToken returns the user whose refresh-token slot holds the given value.
func (r *UserRepository) FindByRefreshToken(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, sql.ErrNoRows
	}
	const query = `SELECT ` + userColumns + ` FROM users WHERE refresh_token = $1 LIMIT 1`
	return r.getOne(ctx, "find user by refresh token", query, token)
}

// SetRefreshToken overwrites the refresh-token slot. A nil token clears it. Returns
// sql.ErrNoRows when the user does not exist.
func (r *UserRepository) SetRefreshToken(ctx context.Context, id string, token *string) (*models.User, error) {
	const query = `UPDATE users SET refresh_token = $2, updated_at = $3 WHERE id = $1 RETURNING ` + userColumns
	var value interface{}
	if token != nil && *token != "" {
		value = *token
	}
	return r.getOne(ctx, "set refresh token", query, id, value, time.Now().UTC())
}

// List returns users based on filters with total count.
func (r *UserRepository) List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error) {
	baseQuery := `FROM users WHERE 1=1`
	var args []interface{}

	if filter.Query != "" {
		baseQuery += fmt.Sprintf(" AND (id LIKE $%d OR LOWER(username) LIKE $%d)", len(args)+1, len(args)+1)
		args = append(args, "%"+strings.ToLower(filter.Query)+"%")
	}

	sortBy := filter.SortBy
	allowedSorts := map[string]bool{
		"id":         true,
		"username":   true,
		"created_at": true,
		"updated_at": true,
	}
	if !allowedSorts[sortBy] {
		sortBy = "id"
	}

	sortOrder := strings.ToUpper(filter.SortOrder)
	if sortOrder != "ASC" && sortOrder != "DESC" {
		sortOrder = "DESC"
	}

	page, pageSize := NormalizePage(filter.Page, filter.PageSize)
	offset := (page - 1) * pageSize

	listQuery := fmt.Sprintf("SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d", userColumns, baseQuery, sortBy, sortOrder, pageSize, offset)

	var users []models.User
	if err := r.db.SelectContext(ctx, &users, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", baseQuery)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	return users, total, nil
}

// Create inserts a new user.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	const query = `INSERT INTO users (id, username, password_hash, contact, refresh_token, created_at, updated_at) VALUES (:id, :username, :password_hash, :contact, :refresh_token, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, user); err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// UpdateContact changes the contact field of a user.
func (r *UserRepository) UpdateContact(ctx context.Context, id string, contact *string) (*models.User, error) {
	const query = `UPDATE users SET contact = $2, updated_at = $3 WHERE id = $1 RETURNING ` + userColumns
	return r.getOne(ctx, "update contact", query, id, contact, time.Now().UTC())
}

// Ping verifies database connectivity for readiness checks.
func (r *UserRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *UserRepository) getOne(ctx context.Context, op, query string, args ...interface{}) (*models.User, error) {
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &user, nil
}

// NormalizePage clamps pagination input to sane bounds.
func NormalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	return page, pageSize
}
