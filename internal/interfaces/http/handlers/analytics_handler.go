package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/fraudguard/fraudguard/internal/application/dto"
	"github.com/fraudguard/fraudguard/internal/application/service"
	"github.com/fraudguard/fraudguard/pkg/errors"
)

// AnalyticsHandler handles the prediction log aggregates.
type AnalyticsHandler struct {
	analytics service.AnalyticsAppService
}

// NewAnalyticsHandler creates a new AnalyticsHandler.
func NewAnalyticsHandler(analytics service.AnalyticsAppService) *AnalyticsHandler {
	return &AnalyticsHandler{analytics: analytics}
}

// Trends reports fraud volume over a trailing window.
func (h *AnalyticsHandler) Trends(c *gin.Context) {
	hours, err := parseTimeRange(c.Query("time_range"))
	if err != nil {
		dto.SendError(c, err)
		return
	}

	result, err := h.analytics.Trends(c.Request.Context(), hours)
	if err != nil {
		dto.SendError(c, err)
		return
	}
	dto.SendSuccess(c, http.StatusOK, result)
}

// Geographic reports predictions broken down by location and risk tier.
func (h *AnalyticsHandler) Geographic(c *gin.Context) {
	hours, err := parseTimeRange(c.Query("time_range"))
	if err != nil {
		dto.SendError(c, err)
		return
	}

	result, err := h.analytics.Geographic(c.Request.Context(), hours)
	if err != nil {
		dto.SendError(c, err)
		return
	}
	dto.SendSuccess(c, http.StatusOK, result)
}

// parseTimeRange converts the time_range query value into whole hours.
// Accepted forms are "24h", "7d" and a bare hour count; empty means the
// service default.
func parseTimeRange(s string) (int, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" {
		return 0, nil
	}

	multiplier := 1
	switch {
	case strings.HasSuffix(s, "h"):
		s = strings.TrimSuffix(s, "h")
	case strings.HasSuffix(s, "d"):
		s = strings.TrimSuffix(s, "d")
		multiplier = 24
	}

	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, errors.ErrInvalidInput.WithMessage("invalid time_range: %q", s)
	}
	return n * multiplier, nil
}
