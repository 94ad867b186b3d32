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
)

type stubInsightsService struct {
	report *entities.InsightsReport
	funnel []entities.FunnelStep
}

func (s *stubInsightsService) Report(ctx context.Context) *entities.InsightsReport {
	return s.report
}

func (s *stubInsightsService) Funnel(ctx context.Context) []entities.FunnelStep {
	return s.funnel
}

func TestInsightsHandler_GetReport(t *testing.T) {
	service := &stubInsightsService{
		report: &entities.InsightsReport{
			SessionCount:        3,
			MostConfusingScreen: "confirmPickup",
			TopDwell: []entities.ScreenDwell{
				{ScreenName: "confirmPickup", TotalMs: 9000, VisitCount: 3},
			},
		},
	}
	handler := handlers.NewInsightsHandler(service)

	req := httptest.NewRequest("GET", "/api/insights", nil)
	w := httptest.NewRecorder()

	handler.GetReport(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var report entities.InsightsReport
	require.NoError(t, json.NewDecoder(w.Body).Decode(&report))
	assert.Equal(t, 3, report.SessionCount)
	assert.Equal(t, "confirmPickup", report.MostConfusingScreen)
	require.Len(t, report.TopDwell, 1)
}

func TestInsightsHandler_GetFunnel(t *testing.T) {
	service := &stubInsightsService{
		funnel: []entities.FunnelStep{
			{ScreenName: "home", Sessions: 10, Conversion: 1.0},
			{ScreenName: "selectVehicle", Sessions: 6, Conversion: 0.6},
		},
	}
	handler := handlers.NewInsightsHandler(service)

	req := httptest.NewRequest("GET", "/api/insights/funnel", nil)
	w := httptest.NewRecorder()

	handler.GetFunnel(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response struct {
		Funnel []entities.FunnelStep `json:"funnel"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	require.Len(t, response.Funnel, 2)
	assert.InDelta(t, 0.6, response.Funnel[1].Conversion, 1e-9)
}

func TestInsightsHandler_GetFunnel_NilBecomesEmptyArray(t *testing.T) {
	handler := handlers.NewInsightsHandler(&stubInsightsService{})

	req := httptest.NewRequest("GET", "/api/insights/funnel", nil)
	w := httptest.NewRecorder()

	handler.GetFunnel(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"funnel":[]`)
}
