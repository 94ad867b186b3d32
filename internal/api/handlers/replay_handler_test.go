package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/movaride/behavior-analytics/internal/api/handlers"
	"github.com/movaride/behavior-analytics/internal/domain/entities"
	apperrors "github.com/movaride/behavior-analytics/pkg/errors"
)

type stubReplayService struct {
	frame     *entities.ReplayFrame
	err       error
	lastID    string
	lastIndex int
}

func (s *stubReplayService) Frame(ctx context.Context, sessionID string, visitIndex int) (*entities.ReplayFrame, error) {
	s.lastID = sessionID
	s.lastIndex = visitIndex
	return s.frame, s.err
}

func replayRequest(session, index string) *http.Request {
	req := httptest.NewRequest("GET", "/api/replay/"+session+"/visits/"+index, nil)
	req.SetPathValue("session", session)
	req.SetPathValue("index", index)
	return req
}

func TestReplayHandler_GetFrame(t *testing.T) {
	service := &stubReplayService{
		frame: &entities.ReplayFrame{
			ScreenName: "confirmPickup",
			Width:      390,
			Height:     844,
			Path:       []entities.ReplayPoint{{X: 100, Y: 200, Timestamp: 1}},
			Clicks:     []entities.ReplayPoint{},
		},
	}
	handler := handlers.NewReplayHandler(service)

	w := httptest.NewRecorder()
	handler.GetFrame(w, replayRequest("sess-1", "2"))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "sess-1", service.lastID)
	assert.Equal(t, 2, service.lastIndex)

	var frame entities.ReplayFrame
	require.NoError(t, json.NewDecoder(w.Body).Decode(&frame))
	assert.Equal(t, "confirmPickup", frame.ScreenName)
	require.Len(t, frame.Path, 1)
}

func TestReplayHandler_GetFrame_NotFound(t *testing.T) {
	service := &stubReplayService{err: apperrors.NewNotFoundError("session sess-1 not found")}
	handler := handlers.NewReplayHandler(service)

	w := httptest.NewRecorder()
	handler.GetFrame(w, replayRequest("sess-1", "0"))

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestReplayHandler_GetFrame_BadIndex(t *testing.T) {
	service := &stubReplayService{}
	handler := handlers.NewReplayHandler(service)

	w := httptest.NewRecorder()
	handler.GetFrame(w, replayRequest("sess-1", "abc"))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = httptest.NewRecorder()
	handler.GetFrame(w, replayRequest("sess-1", "-1"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReplayHandler_GetFrame_InternalError(t *testing.T) {
	service := &stubReplayService{err: apperrors.NewInternalError("boom", nil)}
	handler := handlers.NewReplayHandler(service)

	w := httptest.NewRecorder()
	handler.GetFrame(w, replayRequest("sess-1", "0"))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
