package database

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/user-auth-api/internal/migrations"
	"github.com/noah-isme/user-auth-api/pkg/config"
)

func TestMigrateRunsFromRoot(t *testing.T) {
	original := gooseUp
	defer func() { gooseUp = original }()

	var gotDir string
	gooseUp = func(ctx context.Context, db *sql.DB, dir string) error {
		gotDir = dir
		return nil
	}

	require.NoError(t, Migrate(context.Background(), nil, fstest.MapFS{}))
	assert.Equal(t, ".", gotDir)

	gooseUp = func(ctx context.Context, db *sql.DB, dir string) error { return errors.New("boom") }
	assert.EqualError(t, Migrate(context.Background(), nil, fstest.MapFS{}), "boom")
}

func TestEmbeddedMigrationsDefineTables(t *testing.T) {
	users, err := migrations.FS.ReadFile("00001_create_users.sql")
	require.NoError(t, err)
	assert.Contains(t, string(users), "refresh_token TEXT")
	assert.Contains(t, string(users), "-- +goose Down")

	audit, err := migrations.FS.ReadFile("00002_create_audit_logs.sql")
	require.NoError(t, err)
	assert.Contains(t, string(audit), "CREATE TABLE IF NOT EXISTS audit_logs")
}

func TestDSN(t *testing.T) {
	dsn := DSN(config.DatabaseConfig{Host: "db", Port: 5432, User: "u", Password: "p", Name: "auth", SSLMode: "disable"})
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=auth sslmode=disable", dsn)
}
