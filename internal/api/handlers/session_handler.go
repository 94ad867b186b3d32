package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/movaride/behavior-analytics/internal/domain/entities"
	"github.com/movaride/behavior-analytics/internal/infrastructure/observability"
	apperrors "github.com/movaride/behavior-analytics/pkg/errors"
)

// SessionIngestService defines the session operations used by the handler.
type SessionIngestService interface {
	RecordSnapshot(ctx context.Context, session *entities.Session) error
	GetRecent(ctx context.Context, limit int) ([]*entities.Session, error)
}

// SessionHandler handles snapshot ingest and the recent-session read path.
type SessionHandler struct {
	service SessionIngestService
	metrics *observability.Metrics
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(service SessionIngestService, metrics *observability.Metrics) *SessionHandler {
	return &SessionHandler{
		service: service,
		metrics: metrics,
	}
}

// IngestSnapshot handles POST /api/sessions
func (h *SessionHandler) IngestSnapshot(w http.ResponseWriter, r *http.Request) {
	var session entities.Session
	if err := json.NewDecoder(r.Body).Decode(&session); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	if err := h.service.RecordSnapshot(r.Context(), &session); err != nil {
		if appErr, ok := err.(*apperrors.AppError); ok && appErr.Type == apperrors.ErrorTypeValidation {
			respondWithError(w, http.StatusBadRequest, appErr.Message)
			return
		}
		observability.LoggerFromContext(r.Context()).Error().Err(err).Msg("failed to store session snapshot")
		respondWithError(w, http.StatusInternalServerError, "failed to store session snapshot")
		return
	}

	if h.metrics != nil {
		eventCount := 0
		for i := range session.ScreenFlow {
			eventCount += len(session.ScreenFlow[i].Events)
		}
		observability.RecordIngestMetric(r.Context(), h.metrics, session.Device, eventCount)
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListRecent handles GET /api/sessions/recent
func (h *SessionHandler) ListRecent(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			respondWithError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	sessions, err := h.service.GetRecent(r.Context(), limit)
	if err != nil {
		// Dashboard views degrade to an empty state rather than an error.
		observability.LoggerFromContext(r.Context()).Warn().Err(err).Msg("failed to list sessions")
		sessions = []*entities.Session{}
	}
	if sessions == nil {
		sessions = []*entities.Session{}
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"sessions": sessions,
		"count":    len(sessions),
	})
}

// Helper functions
func respondWithJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(payload)
}

func respondWithError(w http.ResponseWriter, statusCode int, message string) {
	respondWithJSON(w, statusCode, map[string]string{
		"error": message,
	})
}
