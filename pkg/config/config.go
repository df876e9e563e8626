package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database    DatabaseConfig
	Redis       RedisConfig
	JWT         JWTConfig
	Cookie      CookieConfig
	Auth        AuthConfig
	DefaultUser DefaultUserConfig
	CORS        CORSConfig
	Log         LogConfig
	Metrics     MetricsConfig
	Audit       AuditConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	AutoMigrate  bool
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
	CacheTTL time.Duration
}

// JWTConfig holds the signing secret and token lifetimes. The secret is read once at boot.
type JWTConfig struct {
	Secret          string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
}

// CookieConfig describes how session cookies are written.
type CookieConfig struct {
	AccessName  string
	RefreshName string
	Domain      string
	Path        string
	Secure      bool
	SameSite    http.SameSite
}

// AuthConfig tunes guard responses, login throttling and password hashing.
type AuthConfig struct {
	ReauthStatus       int
	LoginMaxAttempts   int
	LoginAttemptWindow time.Duration
	BcryptCost         int
}

// DefaultUserConfig seeds a bootstrap account when both fields are set.
type DefaultUserConfig struct {
	Username string
	Password string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

type MetricsConfig struct {
	Enabled bool
}

// AuditConfig sizes the asynchronous audit writer.
type AuditConfig struct {
	Workers    int
	BufferSize int
	MaxRetries int
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !isMissingFile(err) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
		AutoMigrate:  v.GetBool("DB_AUTO_MIGRATE"),
	}

	cfg.Redis = RedisConfig{
		Enabled:  v.GetBool("REDIS_ENABLED"),
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
		CacheTTL: parseDuration(v.GetString("USER_CACHE_TTL"), 30*time.Second),
	}

	secret := v.GetString("JWT_SECRET")
	if secret == "" && cfg.Env != EnvProduction {
		secret = "dev_secret"
	}
	cfg.JWT = JWTConfig{
		Secret:          secret,
		AccessTokenTTL:  parseDuration(v.GetString("ACCESS_TOKEN_TTL"), 6*time.Hour),
		RefreshTokenTTL: parseDuration(v.GetString("REFRESH_TOKEN_TTL"), 30*24*time.Hour),
	}

	cfg.Cookie = CookieConfig{
		AccessName:  v.GetString("ACCESS_COOKIE_NAME"),
		RefreshName: v.GetString("REFRESH_COOKIE_NAME"),
		Domain:      v.GetString("COOKIE_DOMAIN"),
		Path:        v.GetString("COOKIE_PATH"),
		Secure:      v.GetBool("COOKIE_SECURE"),
		SameSite:    parseSameSite(v.GetString("COOKIE_SAME_SITE")),
	}

	cfg.Auth = AuthConfig{
		ReauthStatus:       v.GetInt("AUTH_REAUTH_STATUS"),
		LoginMaxAttempts:   v.GetInt("LOGIN_MAX_ATTEMPTS"),
		LoginAttemptWindow: parseDuration(v.GetString("LOGIN_ATTEMPT_WINDOW"), 15*time.Minute),
		BcryptCost:         v.GetInt("BCRYPT_COST"),
	}

	cfg.DefaultUser = DefaultUserConfig{
		Username: v.GetString("DEFAULT_USER_USERNAME"),
		Password: v.GetString("DEFAULT_USER_PASSWORD"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Metrics = MetricsConfig{Enabled: v.GetBool("ENABLE_METRICS")}

	cfg.Audit = AuditConfig{
		Workers:    v.GetInt("AUDIT_WORKERS"),
		BufferSize: v.GetInt("AUDIT_BUFFER"),
		MaxRetries: v.GetInt("AUDIT_MAX_RETRIES"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate rejects configurations the auth core cannot run with.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.JWT.Secret) == "" {
		return errors.New("JWT_SECRET is required")
	}
	if c.JWT.AccessTokenTTL <= 0 || c.JWT.RefreshTokenTTL <= 0 {
		return errors.New("token TTLs must be positive")
	}
	if c.Auth.ReauthStatus < 400 || c.Auth.ReauthStatus > 599 {
		return fmt.Errorf("AUTH_REAUTH_STATUS %d is not a client or server error status", c.Auth.ReauthStatus)
	}
	if c.Cookie.AccessName == "" || c.Cookie.RefreshName == "" || c.Cookie.AccessName == c.Cookie.RefreshName {
		return errors.New("access and refresh cookie names must be set and distinct")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "user_auth")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_AUTO_MIGRATE", true)

	v.SetDefault("REDIS_ENABLED", false)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("USER_CACHE_TTL", "30s")

	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("ACCESS_TOKEN_TTL", "6h")
	v.SetDefault("REFRESH_TOKEN_TTL", "720h")

	v.SetDefault("ACCESS_COOKIE_NAME", "access-token")
	v.SetDefault("REFRESH_COOKIE_NAME", "refresh-token")
	v.SetDefault("COOKIE_DOMAIN", "")
	v.SetDefault("COOKIE_PATH", "/")
	v.SetDefault("COOKIE_SECURE", false)
	v.SetDefault("COOKIE_SAME_SITE", "lax")

	v.SetDefault("AUTH_REAUTH_STATUS", 498)
	v.SetDefault("LOGIN_MAX_ATTEMPTS", 5)
	v.SetDefault("LOGIN_ATTEMPT_WINDOW", "15m")
	v.SetDefault("BCRYPT_COST", 10)

	v.SetDefault("DEFAULT_USER_USERNAME", "")
	v.SetDefault("DEFAULT_USER_PASSWORD", "")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("ENABLE_METRICS", false)

	v.SetDefault("AUDIT_WORKERS", 1)
	v.SetDefault("AUDIT_BUFFER", 64)
	v.SetDefault("AUDIT_MAX_RETRIES", 3)
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

// isMissingFile reports the error viper returns when an explicit config file is absent.
func isMissingFile(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}

func parseSameSite(raw string) http.SameSite {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	case "lax":
		return http.SameSiteLaxMode
	default:
		return http.SameSiteDefaultMode
	}
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
