package logger

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AccessOption configures GinMiddleware
type AccessOption func(*accessLog)

type accessLog struct {
	quiet map[string]bool
	slow  time.Duration
}

// WithQuietPaths logs successful requests to these paths at debug. Health checks
// and the line terminals' status polling would otherwise flood the log.
func WithQuietPaths(paths ...string) AccessOption {
	return func(a *accessLog) {
		for _, p := range paths {
			a.quiet[p] = true
		}
	}
}

// WithSlowRequest logs successful requests slower than d at warn
func WithSlowRequest(d time.Duration) AccessOption {
	return func(a *accessLog) { a.slow = d }
}

// GinMiddleware logs one line per request. The request logger is put on the
// request's context so services reach it through L(ctx).
func GinMiddleware(logger *zap.Logger, opts ...AccessOption) gin.HandlerFunc {
	cfg := accessLog{quiet: map[string]bool{}}
	for _, opt := range opts {
		opt(&cfg)
	}
	return func(c *gin.Context) {
		start := time.Now()
		requestID := c.GetString("request_id")
		reqLogger := logger.With(
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
		)

		ctx := WithContext(c.Request.Context(), reqLogger)
		if requestID != "" {
			ctx = WithRequestID(ctx, requestID)
		}
		c.Request = c.Request.WithContext(ctx)

		c.Next()

		status := c.Writer.Status()
		latency := time.Since(start)
		fields := []zap.Field{
			zap.Int("status", status),
			zap.Duration("latency", latency),
			zap.String("client_ip", c.ClientIP()),
			zap.Int("body_size", c.Writer.Size()),
		}
		if q := c.Request.URL.RawQuery; q != "" {
			fields = append(fields, zap.String("query", q))
		}
		if route := c.FullPath(); route != "" && route != c.Request.URL.Path {
			fields = append(fields, zap.String("route", route))
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.Strings("errors", c.Errors.Errors()))
		}

		// tenant and user are set by middleware that ran after this one
		log := L(c.Request.Context())
		switch {
		case status >= http.StatusInternalServerError:
			log.Error("HTTP request", fields...)
		case status >= http.StatusBadRequest:
			log.Warn("HTTP request", fields...)
		case cfg.slow > 0 && latency > cfg.slow:
			log.Warn("Slow HTTP request", append(fields, zap.Duration("threshold", cfg.slow))...)
		case cfg.quiet[c.Request.URL.Path] || strings.HasPrefix(c.Request.URL.Path, "/debug/"):
			log.Debug("HTTP request", fields...)
		default:
			log.Info("HTTP request", fields...)
		}
	}
}

// Recovery turns a panic into a 500 in the standard error envelope
func Recovery(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			requestID := c.GetString("request_id")
			logger.Error("Panic recovered",
				zap.String("request_id", requestID),
				zap.String("method", c.Request.Method),
				zap.String("path", c.Request.URL.Path),
				zap.Any("panic", rec),
				zap.Stack("stacktrace"),
			)
			body := gin.H{
				"success":    false,
				"message":    "Internal server error",
				"errorCode":  "ERR_INTERNAL",
				"statusCode": http.StatusInternalServerError,
				"timestamp":  time.Now().UTC().Format(time.RFC3339),
				"path":       c.Request.URL.Path,
			}
			if requestID != "" {
				body["requestId"] = requestID
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError, body)
		}()
		c.Next()
	}
}
