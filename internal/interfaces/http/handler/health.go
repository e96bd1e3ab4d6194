package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/bignstrong/RailGuard/internal/infrastructure/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Pinger checks that a backing store is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler reports service health
type HealthHandler struct {
	db      Pinger
	cache   Pinger
	timeout time.Duration
}

// NewHealthHandler creates a new HealthHandler; cache may be nil
func NewHealthHandler(db, cache Pinger) *HealthHandler {
	return &HealthHandler{db: db, cache: cache, timeout: 2 * time.Second}
}

// Check godoc
// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200 {object} map[string]string
// @Failure      503 {object} map[string]string
// @Router       /health [get]
func (h *HealthHandler) Check(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	body := gin.H{
		"status":   "healthy",
		"time":     time.Now().UTC().Format(time.RFC3339),
		"database": "ok",
	}
	status := http.StatusOK

	if err := h.db.Ping(ctx); err != nil {
		logger.GetGinLogger(c).Error("database health check failed", zap.Error(err))
		body["status"] = "unhealthy"
		body["database"] = "error"
		status = http.StatusServiceUnavailable
	}

	if h.cache != nil {
		body["cache"] = "ok"
		if err := h.cache.Ping(ctx); err != nil {
			logger.GetGinLogger(c).Error("cache health check failed", zap.Error(err))
			body["status"] = "unhealthy"
			body["cache"] = "error"
			status = http.StatusServiceUnavailable
		}
	}

	c.JSON(status, body)
}
