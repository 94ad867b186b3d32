package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/movaride/behavior-analytics/internal/domain/entities"
	apperrors "github.com/movaride/behavior-analytics/pkg/errors"
)

// HeatmapProvider defines the heatmap operations used by the handler.
type HeatmapProvider interface {
	ClickMap(ctx context.Context, screenName string, width, height int) ([]entities.HeatmapCell, error)
}

// HeatmapHandler serves spatial click aggregation for one screen.
type HeatmapHandler struct {
	service HeatmapProvider
}

// NewHeatmapHandler creates a new heatmap handler
func NewHeatmapHandler(service HeatmapProvider) *HeatmapHandler {
	return &HeatmapHandler{
		service: service,
	}
}

// GetClickMap handles GET /api/heatmap/{screen}
func (h *HeatmapHandler) GetClickMap(w http.ResponseWriter, r *http.Request) {
	screenName := r.PathValue("screen")
	if screenName == "" {
		respondWithError(w, http.StatusBadRequest, "screen name is required")
		return
	}

	width := parseDimension(r, "width")
	height := parseDimension(r, "height")

	cells, err := h.service.ClickMap(r.Context(), screenName, width, height)
	if err != nil {
		if appErr, ok := err.(*apperrors.AppError); ok && appErr.Type == apperrors.ErrorTypeValidation {
			respondWithError(w, http.StatusBadRequest, appErr.Message)
			return
		}
		respondWithError(w, http.StatusInternalServerError, "failed to compute heatmap")
		return
	}
	if cells == nil {
		cells = []entities.HeatmapCell{}
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"screenName": screenName,
		"cells":      cells,
	})
}

func parseDimension(r *http.Request, name string) int {
	if raw := r.URL.Query().Get(name); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			return parsed
		}
	}
	return 0
}
