package handler

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mes/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
)

const healthCheckTimeout = 3 * time.Second

// HealthCheck checks one dependency
type HealthCheck func(ctx context.Context) error

// HealthHandler reports whether the server's dependencies are reachable
type HealthHandler struct {
	checks map[string]HealthCheck
	now    func() time.Time
}

// NewHealthHandler creates a new HealthHandler
func NewHealthHandler(checks map[string]HealthCheck) *HealthHandler {
	return &HealthHandler{checks: checks, now: time.Now}
}

// Health runs every check. Any failure turns the response into a 503.
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
	defer cancel()

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	status := http.StatusOK
	body := gin.H{"status": "healthy", "time": h.now().Format(time.RFC3339)}
	for _, name := range names {
		if err := h.checks[name](ctx); err != nil {
			logger.L(ctx).Warn("Health check failed", zap.String("check", name), zap.Error(err))
			body[name] = "error"
			body["status"] = "unhealthy"
			status = http.StatusServiceUnavailable
			continue
		}
		body[name] = "ok"
	}
	c.JSON(status, body)
}

// RegisterRoutes registers /health on rg
func (h *HealthHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/health", h.Health)
}
