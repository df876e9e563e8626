package config

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "unit-secret")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "unit-secret", cfg.JWT.Secret)
	assert.Equal(t, 6*time.Hour, cfg.JWT.AccessTokenTTL)
	assert.Equal(t, 30*24*time.Hour, cfg.JWT.RefreshTokenTTL)
	assert.Equal(t, "access-token", cfg.Cookie.AccessName)
	assert.Equal(t, "refresh-token", cfg.Cookie.RefreshName)
	assert.Equal(t, 498, cfg.Auth.ReauthStatus)
	assert.Equal(t, http.SameSiteLaxMode, cfg.Cookie.SameSite)
}

func TestLoadRequiresSecretInProduction(t *testing.T) {
	t.Setenv("ENV", EnvProduction)
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			JWT:    JWTConfig{Secret: "s", AccessTokenTTL: time.Hour, RefreshTokenTTL: time.Hour},
			Cookie: CookieConfig{AccessName: "a", RefreshName: "r"},
			Auth:   AuthConfig{ReauthStatus: 498},
		}
	}

	require.NoError(t, valid().Validate())

	cfg := valid()
	cfg.JWT.Secret = "  "
	assert.Error(t, cfg.Validate())

	cfg = valid()
	cfg.JWT.RefreshTokenTTL = 0
	assert.Error(t, cfg.Validate())

	cfg = valid()
	cfg.Auth.ReauthStatus = 200
	assert.Error(t, cfg.Validate())

	cfg = valid()
	cfg.Cookie.RefreshName = "a"
	assert.Error(t, cfg.Validate())
}

func TestParseSameSite(t *testing.T) {
	assert.Equal(t, http.SameSiteStrictMode, parseSameSite("Strict"))
	assert.Equal(t, http.SameSiteNoneMode, parseSameSite("none"))
	assert.Equal(t, http.SameSiteDefaultMode, parseSameSite("bogus"))
}
