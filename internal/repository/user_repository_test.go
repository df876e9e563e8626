package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/user-auth-api/internal/models"
)

var userRowColumns = []string{"id", "username", "password_hash", "contact", "refresh_token", "created_at", "updated_at"}

func newMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	sqlxdb := sqlx.NewDb(db, "sqlmock")
	return sqlxdb, mock, func() {
		db.Close()
	}
}

func TestFindByUsername(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows(userRowColumns).
		AddRow("u1", "alice", "hash", "010-1234-5678", nil, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, username, password_hash, contact, refresh_token, created_at, updated_at FROM users WHERE username = $1 LIMIT 1")).
		WithArgs("alice").
		WillReturnRows(rows)

	user, err := repo.FindByUsername(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, "u1", user.ID)
	require.NotNil(t, user.Contact)
	assert.Equal(t, "010-1234-5678", *user.Contact)
	assert.Nil(t, user.RefreshToken)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByIDNotFound(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectQuery("FROM users WHERE id = \\$1").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(userRowColumns))

	user, err := repo.FindByID(context.Background(), "missing")
	assert.Nil(t, user)
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByRefreshTokenEmptySkipsQuery(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	_, err := repo.FindByRefreshToken(context.Background(), "")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSetRefreshTokenStoresValue(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE users SET refresh_token = $2, updated_at = $3 WHERE id = $1 RETURNING")).
		WithArgs("u1", "rt-value", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(userRowColumns).AddRow("u1", "alice", "hash", nil, "rt-value", now, now))

	token := "rt-value"
	user, err := repo.SetRefreshToken(context.Background(), "u1", &token)
	require.NoError(t, err)
	assert.True(t, user.HasRefreshToken("rt-value"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSetRefreshTokenClearsWithNull(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	now := time.Now()
	mock.ExpectQuery("UPDATE users SET refresh_token").
		WithArgs("u1", nil, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(userRowColumns).AddRow("u1", "alice", "hash", nil, nil, now, now))

	user, err := repo.SetRefreshToken(context.Background(), "u1", nil)
	require.NoError(t, err)
	assert.Nil(t, user.RefreshToken)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSetRefreshTokenUnknownUser(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectQuery("UPDATE users SET refresh_token").
		WillReturnRows(sqlmock.NewRows(userRowColumns))

	_, err := repo.SetRefreshToken(context.Background(), "ghost", nil)
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListUsers(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	now := time.Now()
	listRows := sqlmock.NewRows(userRowColumns).
		AddRow("1", "alice", "hash", nil, nil, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, username, password_hash, contact, refresh_token, created_at, updated_at FROM users WHERE 1=1 AND (id LIKE $1 OR LOWER(username) LIKE $1) ORDER BY username ASC LIMIT 10 OFFSET 10")).
		WithArgs("%ali%").
		WillReturnRows(listRows)

	countRows := sqlmock.NewRows([]string{"count"}).AddRow(11)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM users WHERE 1=1 AND (id LIKE $1 OR LOWER(username) LIKE $1)")).
		WithArgs("%ali%").
		WillReturnRows(countRows)

	users, total, err := repo.List(context.Background(), models.UserFilter{Query: "Ali", Page: 2, PageSize: 10, SortBy: "username", SortOrder: "asc"})
	require.NoError(t, err)
	assert.Len(t, users, 1)
	assert.Equal(t, 11, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListUsersFallsBackOnUnknownSort(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE 1=1 ORDER BY id DESC LIMIT 20 OFFSET 0")).
		WillReturnRows(sqlmock.NewRows(userRowColumns))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM users WHERE 1=1")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	_, _, err := repo.List(context.Background(), models.UserFilter{SortBy: "password_hash; DROP TABLE users"})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateUser(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectExec("INSERT INTO users").WillReturnResult(sqlmock.NewResult(1, 1))

	user := &models.User{Username: "alice", PasswordHash: "hash"}
	require.NoError(t, repo.Create(context.Background(), user))
	assert.NotEmpty(t, user.ID)
	assert.False(t, user.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateAuditLog(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAuditRepository(db)

	mock.ExpectExec("INSERT INTO audit_logs").WillReturnResult(sqlmock.NewResult(1, 1))

	log := &models.AuditLog{Action: models.AuditActionLogin, Resource: "auth"}
	require.NoError(t, repo.Create(context.Background(), log))
	assert.NotEmpty(t, log.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
