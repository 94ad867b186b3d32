package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/movaride/behavior-analytics/internal/domain/entities"
	apperrors "github.com/movaride/behavior-analytics/pkg/errors"
)

// ReplayProvider defines the replay operations used by the handler.
type ReplayProvider interface {
	Frame(ctx context.Context, sessionID string, visitIndex int) (*entities.ReplayFrame, error)
}

// ReplayHandler serves single-visit replay frames.
type ReplayHandler struct {
	service ReplayProvider
}

// NewReplayHandler creates a new replay handler
func NewReplayHandler(service ReplayProvider) *ReplayHandler {
	return &ReplayHandler{
		service: service,
	}
}

// GetFrame handles GET /api/replay/{session}/visits/{index}
func (h *ReplayHandler) GetFrame(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("session")
	if sessionID == "" {
		respondWithError(w, http.StatusBadRequest, "session id is required")
		return
	}
	visitIndex, err := strconv.Atoi(r.PathValue("index"))
	if err != nil || visitIndex < 0 {
		respondWithError(w, http.StatusBadRequest, "visit index must be a non-negative integer")
		return
	}

	frame, err := h.service.Frame(r.Context(), sessionID, visitIndex)
	if err != nil {
		if appErr, ok := err.(*apperrors.AppError); ok {
			switch appErr.Type {
			case apperrors.ErrorTypeNotFound:
				respondWithError(w, http.StatusNotFound, appErr.Message)
			case apperrors.ErrorTypeValidation:
				respondWithError(w, http.StatusBadRequest, appErr.Message)
			default:
				respondWithError(w, http.StatusInternalServerError, "failed to build replay frame")
			}
			return
		}
		respondWithError(w, http.StatusInternalServerError, "failed to build replay frame")
		return
	}

	respondWithJSON(w, http.StatusOK, frame)
}
