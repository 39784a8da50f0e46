package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fraudguard/fraudguard/internal/application/dto"
	"github.com/fraudguard/fraudguard/internal/application/service"
	"github.com/fraudguard/fraudguard/pkg/constants"
)

// HealthHandler provides the service info and health endpoints.
type HealthHandler struct {
	scoring service.ScoringAppService
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(scoring service.ScoringAppService) *HealthHandler {
	return &HealthHandler{scoring: scoring}
}

// Root reports the service identity.
func (h *HealthHandler) Root(c *gin.Context) {
	dto.SendSuccess(c, http.StatusOK, &dto.ServiceInfoResponse{
		Service: constants.ServiceName,
		Version: constants.ServiceVersion,
		Status:  "running",
	})
}

// Live is the liveness probe.
func (h *HealthHandler) Live(c *gin.Context) {
	c.Status(http.StatusOK)
}

// Ready is the readiness probe. It reports 503 until a trained ensemble is
// serving, so load balancers keep scoring traffic away from cold instances.
func (h *HealthHandler) Ready(c *gin.Context) {
	if !h.scoring.Ready() {
		c.Status(http.StatusServiceUnavailable)
		return
	}
	c.Status(http.StatusOK)
}

// Health reports liveness plus the model readiness flag. The service is
// healthy even before the first training pass; scoring endpoints signal
// not-ready themselves.
func (h *HealthHandler) Health(c *gin.Context) {
	dto.SendSuccess(c, http.StatusOK, &dto.HealthResponse{
		Status:          "healthy",
		ModelReady:      h.scoring.Ready(),
		TrackedProfiles: h.scoring.ProfileCount(c.Request.Context()),
		Version:         constants.ServiceVersion,
	})
}
