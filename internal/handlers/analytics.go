package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yukikurage/projectly-api/internal/services"
)

// AnalyticsHandler serves the reporting endpoints
type AnalyticsHandler struct {
	analyticsService *services.AnalyticsService
	log              *zap.Logger
}

// NewAnalyticsHandler creates a new AnalyticsHandler
func NewAnalyticsHandler(analyticsService *services.AnalyticsService, log *zap.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{analyticsService: analyticsService, log: log}
}

// Dashboard handles GET /api/dashboard
func (h *AnalyticsHandler) Dashboard(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}

	resp, err := h.analyticsService.Dashboard(c.Request.Context(), actor)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Analytics handles GET /api/analytics
func (h *AnalyticsHandler) Analytics(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}

	resp, err := h.analyticsService.Analytics(c.Request.Context(), actor)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
