package logger

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/noah-isme/user-auth-api/pkg/config"
	"github.com/noah-isme/user-auth-api/pkg/middleware/requestid"
)

func New(cfg *config.Config) (*zap.Logger, error) {
	var zapCfg zap.Config
	if cfg.Env == config.EnvProduction {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}

	switch cfg.Log.Format {
	case "console":
		zapCfg.Encoding = "console"
	default:
		zapCfg.Encoding = "json"
	}

	if cfg.Log.Level != "" {
		if err := zapCfg.Level.UnmarshalText([]byte(cfg.Log.Level)); err != nil {
			zapCfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
		}
	}

	zapCfg.EncoderConfig.TimeKey = "timestamp"
	zapCfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return zapCfg.Build(zap.Fields(zap.String("service", "user-auth-api")))
}

// Option customises GinMiddleware.
type Option func(*ginOptions)

type ginOptions struct {
	skip          map[string]struct{}
	contextFields []string
}

// WithSkipPaths suppresses request logs for the given paths, such as probes.
func WithSkipPaths(paths ...string) Option {
	return func(o *ginOptions) {
		for _, p := range paths {
			o.skip[p] = struct{}{}
		}
	}
}

// WithContextFields copies string values stored on the gin context under keys into the log line.
func WithContextFields(keys ...string) Option {
	return func(o *ginOptions) {
		o.contextFields = append(o.contextFields, keys...)
	}
}

// GinMiddleware logs one line per request. Server errors log at Error, client errors at Warn.
func GinMiddleware(l *zap.Logger, opts ...Option) gin.HandlerFunc {
	options := &ginOptions{skip: map[string]struct{}{}}
	for _, opt := range opts {
		opt(options)
	}

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		if _, ok := options.skip[c.Request.URL.Path]; ok {
			return
		}

		status := c.Writer.Status()
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
			zap.String("ip", c.ClientIP()),
		}
		if reqID := requestid.Value(c); reqID != "" {
			fields = append(fields, zap.String("request_id", reqID))
		}
		for _, key := range options.contextFields {
			if value := c.GetString(key); value != "" {
				fields = append(fields, zap.String(key, value))
			}
		}

		switch {
		case status >= 500:
			l.Error("http_request", fields...)
		case status >= 400:
			l.Warn("http_request", fields...)
		default:
			l.Info("http_request", fields...)
		}
	}
}
