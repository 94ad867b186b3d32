package routes

import (
	"net/http"

	"github.com/movaride/behavior-analytics/internal/api/handlers"
	"github.com/movaride/behavior-analytics/internal/api/middleware"
	"github.com/movaride/behavior-analytics/internal/infrastructure/observability"
)

// Router holds all route handlers
type Router struct {
	mux *http.ServeMux

	sessionHandler  *handlers.SessionHandler
	insightsHandler *handlers.InsightsHandler
	heatmapHandler  *handlers.HeatmapHandler
	replayHandler   *handlers.ReplayHandler
	sseHandler      *handlers.SSEHandler

	cacheMiddleware *middleware.CacheMiddleware
	metrics         *observability.Metrics
}

// NewRouter creates a new router
func NewRouter(
	sessionHandler *handlers.SessionHandler,
	insightsHandler *handlers.InsightsHandler,
	heatmapHandler *handlers.HeatmapHandler,
	replayHandler *handlers.ReplayHandler,
	sseHandler *handlers.SSEHandler,
	cacheMiddleware *middleware.CacheMiddleware,
	metrics *observability.Metrics,
) *Router {
	return &Router{
		mux: http.NewServeMux(),

		sessionHandler:  sessionHandler,
		insightsHandler: insightsHandler,
		heatmapHandler:  heatmapHandler,
		replayHandler:   replayHandler,
		sseHandler:      sseHandler,

		cacheMiddleware: cacheMiddleware,
		metrics:         metrics,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes() http.Handler {
	// Health check endpoint
	r.mux.HandleFunc("GET /health", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			return
		}
	})

	// Session ingest and recent-window endpoints
	r.mux.HandleFunc("POST /api/sessions", r.sessionHandler.IngestSnapshot)
	r.mux.HandleFunc("GET /api/sessions/recent", r.sessionHandler.ListRecent)

	// Dashboard aggregation endpoints
	r.mux.HandleFunc("GET /api/insights", r.insightsHandler.GetReport)
	r.mux.HandleFunc("GET /api/insights/funnel", r.insightsHandler.GetFunnel)

	// Heatmap endpoint
	r.mux.HandleFunc("GET /api/heatmap/{screen}", r.heatmapHandler.GetClickMap)

	// Session replay endpoint
	r.mux.HandleFunc("GET /api/replay/{session}/visits/{index}", r.replayHandler.GetFrame)

	// Live session feed (SSE)
	if r.sseHandler != nil {
		r.mux.HandleFunc("GET /api/stream/sessions", r.sseHandler.StreamSessionFeed)
	}

	// Apply middleware in reverse order (last middleware wraps first)
	// CORS must be outermost so cached responses also get CORS headers.

	var handler http.Handler = r.mux
	handler = middleware.LoggingMiddleware(handler)

	// Apply cache middleware if available
	if r.cacheMiddleware != nil {
		handler = r.cacheMiddleware.Middleware(handler)
	}

	handler = middleware.ObservabilityMiddleware(r.metrics)(handler)

	// CORS wraps everything so headers are set even on cache HITs
	handler = middleware.CORSMiddleware(handler)

	return handler
}
