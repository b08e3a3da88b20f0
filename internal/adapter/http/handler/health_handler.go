package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"todoapi/internal/core/model/response"
)

type HealthHandler struct {
	ping    func(ctx context.Context) error
	version string
	timeout time.Duration
}

func NewHealthHandler(ping func(ctx context.Context) error, version string) *HealthHandler {
	return &HealthHandler{
		ping:    ping,
		version: version,
		timeout: 2 * time.Second,
	}
}

// Health reports 503 when the store does not answer a ping.
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	body := response.HealthResponse{
		Status:    "ok",
		Database:  "up",
		Version:   h.version,
		Timestamp: time.Now().UTC(),
	}

	status := http.StatusOK

	if err := h.ping(ctx); err != nil {
		body.Status = "degraded"
		body.Database = "down"
		status = http.StatusServiceUnavailable
	}

	c.JSON(status, response.SuccessResponse{Success: status == http.StatusOK, Data: body})
}
