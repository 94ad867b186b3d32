package handlers_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/movaride/behavior-analytics/internal/api/handlers"
	"github.com/movaride/behavior-analytics/internal/domain/entities"
	apperrors "github.com/movaride/behavior-analytics/pkg/errors"
)

type stubSessionService struct {
	stored     []*entities.Session
	recordErr  error
	recent     []*entities.Session
	recentErr  error
	lastLimit  int
}

func (s *stubSessionService) RecordSnapshot(ctx context.Context, session *entities.Session) error {
	if s.recordErr != nil {
		return s.recordErr
	}
	s.stored = append(s.stored, session)
	return nil
}

func (s *stubSessionService) GetRecent(ctx context.Context, limit int) ([]*entities.Session, error) {
	s.lastLimit = limit
	return s.recent, s.recentErr
}

func TestSessionHandler_IngestSnapshot_Success(t *testing.T) {
	service := &stubSessionService{}
	handler := handlers.NewSessionHandler(service, nil)

	body := `{
		"userId": "user-1",
		"startTime": 1700000000000,
		"device": "mobile",
		"screenFlow": [
			{"screenName": "home", "timestamp": 1700000000000, "timeSpent": 4000, "events": [
				{"type": "click", "x": 0.5, "y": 0.5, "target": "whereToField", "timestamp": 1700000001000}
			]}
		]
	}`
	req := httptest.NewRequest("POST", "/api/sessions", strings.NewReader(body))
	w := httptest.NewRecorder()

	handler.IngestSnapshot(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	require.Len(t, service.stored, 1)
	assert.Equal(t, "user-1", service.stored[0].UserID)
	require.Len(t, service.stored[0].ScreenFlow, 1)
	assert.Equal(t, "home", service.stored[0].ScreenFlow[0].ScreenName)
}

func TestSessionHandler_IngestSnapshot_MalformedBody(t *testing.T) {
	service := &stubSessionService{}
	handler := handlers.NewSessionHandler(service, nil)

	req := httptest.NewRequest("POST", "/api/sessions", strings.NewReader("{not json"))
	w := httptest.NewRecorder()

	handler.IngestSnapshot(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, service.stored)
}

func TestSessionHandler_IngestSnapshot_ValidationError(t *testing.T) {
	service := &stubSessionService{recordErr: apperrors.NewValidationError("userId is required")}
	handler := handlers.NewSessionHandler(service, nil)

	req := httptest.NewRequest("POST", "/api/sessions", strings.NewReader(`{"startTime": 1}`))
	w := httptest.NewRecorder()

	handler.IngestSnapshot(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var response map[string]string
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	assert.Equal(t, "userId is required", response["error"])
}

func TestSessionHandler_IngestSnapshot_StoreError(t *testing.T) {
	service := &stubSessionService{recordErr: errors.New("db down")}
	handler := handlers.NewSessionHandler(service, nil)

	req := httptest.NewRequest("POST", "/api/sessions", strings.NewReader(`{"userId":"u","startTime":1,"device":"mobile"}`))
	w := httptest.NewRecorder()

	handler.IngestSnapshot(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestSessionHandler_ListRecent(t *testing.T) {
	service := &stubSessionService{
		recent: []*entities.Session{
			{ID: "sess-1", UserID: "user-1", StartTime: 1, Device: entities.DeviceMobile},
		},
	}
	handler := handlers.NewSessionHandler(service, nil)

	req := httptest.NewRequest("GET", "/api/sessions/recent", nil)
	w := httptest.NewRecorder()

	handler.ListRecent(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0, service.lastLimit)

	var response struct {
		Sessions []*entities.Session `json:"sessions"`
		Count    int                 `json:"count"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	assert.Equal(t, 1, response.Count)
	require.Len(t, response.Sessions, 1)
	assert.Equal(t, "sess-1", response.Sessions[0].ID)
}

func TestSessionHandler_ListRecent_CustomLimit(t *testing.T) {
	service := &stubSessionService{}
	handler := handlers.NewSessionHandler(service, nil)

	req := httptest.NewRequest("GET", "/api/sessions/recent?limit=5", nil)
	w := httptest.NewRecorder()

	handler.ListRecent(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 5, service.lastLimit)
}

func TestSessionHandler_ListRecent_InvalidLimit(t *testing.T) {
	service := &stubSessionService{}
	handler := handlers.NewSessionHandler(service, nil)

	req := httptest.NewRequest("GET", "/api/sessions/recent?limit=abc", nil)
	w := httptest.NewRecorder()

	handler.ListRecent(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSessionHandler_ListRecent_ReadFailureDegradesToEmpty(t *testing.T) {
	service := &stubSessionService{recentErr: errors.New("db down")}
	handler := handlers.NewSessionHandler(service, nil)

	req := httptest.NewRequest("GET", "/api/sessions/recent", nil)
	w := httptest.NewRecorder()

	handler.ListRecent(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response struct {
		Sessions []*entities.Session `json:"sessions"`
		Count    int                 `json:"count"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	assert.Equal(t, 0, response.Count)
	assert.NotNil(t, response.Sessions)
}
