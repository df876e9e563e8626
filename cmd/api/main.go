package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/user-auth-api/api/swagger"
	"github.com/noah-isme/user-auth-api/internal/handler"
	"github.com/noah-isme/user-auth-api/internal/middleware"
	"github.com/noah-isme/user-auth-api/internal/migrations"
	"github.com/noah-isme/user-auth-api/internal/repository"
	"github.com/noah-isme/user-auth-api/internal/service"
	"github.com/noah-isme/user-auth-api/pkg/cache"
	"github.com/noah-isme/user-auth-api/pkg/config"
	"github.com/noah-isme/user-auth-api/pkg/database"
	"github.com/noah-isme/user-auth-api/pkg/jobs"
	"github.com/noah-isme/user-auth-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/user-auth-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/user-auth-api/pkg/middleware/requestid"
)

// @title User Auth API
// @version 1.0.0
// @description Cookie session authentication with refresh-token rotation
// @BasePath /api/v1
// @schemes http https

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if err := run(cfg, logr); err != nil {
		logr.Fatal("server failed", zap.Error(err))
	}
}

func run(cfg *config.Config, logr *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(ctx, db.DB, migrations.FS); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}

	redisClient, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	var metrics *service.MetricsService
	if cfg.Metrics.Enabled {
		metrics = service.NewMetricsService()
	}

	userRepo := repository.NewUserRepository(db)
	audit := service.NewAuditService(repository.NewAuditRepository(db), logr)
	auditQueue := jobs.NewQueue("audit", audit.HandleJob, jobs.QueueConfig{
		Workers:    cfg.Audit.Workers,
		BufferSize: cfg.Audit.BufferSize,
		MaxRetries: cfg.Audit.MaxRetries,
		Logger:     logr,
	})
	auditQueue.Start(context.Background())
	defer auditQueue.Stop()
	audit.AttachQueue(auditQueue)

	tokens, err := service.NewTokenService(service.TokenConfig{
		Secret:     cfg.JWT.Secret,
		AccessTTL:  cfg.JWT.AccessTokenTTL,
		RefreshTTL: cfg.JWT.RefreshTokenTTL,
	})
	if err != nil {
		return err
	}
	sessions := service.NewSessionService(userRepo, tokens, service.CookieConfig{
		AccessName:  cfg.Cookie.AccessName,
		RefreshName: cfg.Cookie.RefreshName,
		Domain:      cfg.Cookie.Domain,
		Path:        cfg.Cookie.Path,
		Secure:      cfg.Cookie.Secure,
		SameSite:    cfg.Cookie.SameSite,
	}, audit, metrics, logr)

	var throttle *service.LoginThrottle
	if redisClient != nil {
		throttle = service.NewLoginThrottle(repository.NewAttemptRepository(redisClient), cfg.Auth.LoginMaxAttempts, cfg.Auth.LoginAttemptWindow)
	}

	hasher := service.NewBcryptHasher(cfg.Auth.BcryptCost)
	validate := validator.New()
	authService := service.NewAuthService(sessions, hasher, throttle, audit, metrics, validate, logr)
	userService := service.NewUserService(userRepo, hasher, audit, validate, logr)
	if redisClient != nil {
		userService.AttachCache(service.NewCacheService(repository.NewCacheRepository(redisClient), metrics, cfg.Redis.CacheTTL, logr))
	}

	if err := userService.EnsureDefaultUser(ctx, cfg.DefaultUser.Username, cfg.DefaultUser.Password); err != nil {
		return fmt.Errorf("seed default user: %w", err)
	}

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr, logger.WithSkipPaths("/health", "/metrics"), logger.WithContextFields(middleware.ContextUserIDKey)))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics, "/metrics"))

	checks := map[string]handler.Pinger{"database": userRepo}
	if redisClient != nil {
		checks["redis"] = cache.Pinger{Client: redisClient}
	}
	ops := handler.NewMetricsHandler(metrics, checks)
	r.GET("/health", ops.Health)
	r.GET("/ready", ops.Ready)
	if metrics != nil {
		r.GET("/metrics", ops.Prometheus)
	}

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	guards := middleware.NewGuards(sessions, metrics, logr, cfg.Auth.ReauthStatus)
	handler.Register(r.Group(cfg.APIPrefix), guards, handler.NewAuthHandler(authService, cfg.Cookie.RefreshName), handler.NewUserHandler(userService))

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logr.Info("server stopped")
	return nil
}
