package handlers

import (
	"context"
	"net/http"

	"github.com/movaride/behavior-analytics/internal/domain/entities"
)

// InsightsProvider defines the aggregation operations used by the handler.
type InsightsProvider interface {
	Report(ctx context.Context) *entities.InsightsReport
	Funnel(ctx context.Context) []entities.FunnelStep
}

// InsightsHandler serves the dashboard aggregation views. The service is
// fail-open, so these endpoints always answer 200 with whatever could be
// computed.
type InsightsHandler struct {
	service InsightsProvider
}

// NewInsightsHandler creates a new insights handler
func NewInsightsHandler(service InsightsProvider) *InsightsHandler {
	return &InsightsHandler{
		service: service,
	}
}

// GetReport handles GET /api/insights
func (h *InsightsHandler) GetReport(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, h.service.Report(r.Context()))
}

// GetFunnel handles GET /api/insights/funnel
func (h *InsightsHandler) GetFunnel(w http.ResponseWriter, r *http.Request) {
	steps := h.service.Funnel(r.Context())
	if steps == nil {
		steps = []entities.FunnelStep{}
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"funnel": steps,
	})
}
