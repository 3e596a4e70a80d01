package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Pinger is a dependency that can report its reachability
type Pinger interface {
	Ping(ctx context.Context) error
}

// FormatterStatus reports which formatters are installed
type FormatterStatus interface {
	Available() map[string]bool
}

// HealthHandler handles health check endpoints
type HealthHandler struct {
	formatters FormatterStatus
	redis      Pinger
	nats       Pinger
	version    string
}

// NewHealthHandler creates a new health handler. redis and nats may be nil
// when they are not configured.
func NewHealthHandler(formatters FormatterStatus, redis, nats Pinger, version string) *HealthHandler {
	return &HealthHandler{
		formatters: formatters,
		redis:      redis,
		nats:       nats,
		version:    version,
	}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status       string            `json:"status"`
	Service      string            `json:"service"`
	Version      string            `json:"version"`
	Dependencies map[string]string `json:"dependencies,omitempty"`
	Formatters   map[string]bool   `json:"formatters,omitempty"`
}

// Health godoc
// @Summary Liveness check
// @Tags health
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /health [get]
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:  "healthy",
		Service: "codecraft",
		Version: h.version,
	})
}

// DeepHealth godoc
// @Summary Dependency and formatter check
// @Description Missing formatters are reported but do not degrade the service.
// @Tags health
// @Produce json
// @Success 200 {object} HealthResponse
// @Failure 503 {object} HealthResponse
// @Router /health/deep [get]
func (h *HealthHandler) DeepHealth(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	deps := make(map[string]string)
	allHealthy := true

	for name, dep := range map[string]Pinger{"redis": h.redis, "nats": h.nats} {
		if dep == nil {
			deps[name] = "not configured"
			continue
		}
		if err := dep.Ping(ctx); err != nil {
			deps[name] = "unhealthy: " + err.Error()
			allHealthy = false
		} else {
			deps[name] = "healthy"
		}
	}

	var formatters map[string]bool
	if h.formatters != nil {
		formatters = h.formatters.Available()
	}

	status := "healthy"
	httpStatus := http.StatusOK
	if !allHealthy {
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable
	}

	c.JSON(httpStatus, HealthResponse{
		Status:       status,
		Service:      "codecraft",
		Version:      h.version,
		Dependencies: deps,
		Formatters:   formatters,
	})
}
