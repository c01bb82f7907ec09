package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/schoolerp/backend/internal/infrastructure/logger"
	"github.com/schoolerp/backend/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// healthTimeout bounds the store ping
const healthTimeout = 3 * time.Second

// HealthHandler reports whether the document store answers
type HealthHandler struct {
	BaseHandler
	driver    string
	ping      func(ctx context.Context) error
	renderers []string
}

// NewHealthHandler creates a new HealthHandler
func NewHealthHandler(driver string, ping func(ctx context.Context) error, renderers []string) *HealthHandler {
	return &HealthHandler{driver: driver, ping: ping, renderers: renderers}
}

// Health handles GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
	defer cancel()

	resp := dto.HealthResponse{
		Status:    "ok",
		Store:     h.driver,
		Timestamp: time.Now().UTC(),
		Renderers: h.renderers,
	}
	if h.ping != nil {
		if err := h.ping(ctx); err != nil {
			logger.GetGinLogger(c).Warn("Health check store ping failed", zap.String("driver", h.driver), zap.Error(err))
			resp.Status = "unavailable"
			c.JSON(http.StatusServiceUnavailable, dto.Response{Success: false, Data: resp})
			return
		}
	}
	h.Success(c, resp)
}
