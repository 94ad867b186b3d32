package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/movaride/behavior-analytics/internal/adapters/cache"
	"github.com/movaride/behavior-analytics/internal/adapters/database"
	"github.com/movaride/behavior-analytics/internal/adapters/events"
	"github.com/movaride/behavior-analytics/internal/api/handlers"
	"github.com/movaride/behavior-analytics/internal/api/middleware"
	"github.com/movaride/behavior-analytics/internal/api/routes"
	"github.com/movaride/behavior-analytics/internal/application/services"
	"github.com/movaride/behavior-analytics/internal/domain/providers"
	"github.com/movaride/behavior-analytics/internal/domain/repositories"
	"github.com/movaride/behavior-analytics/internal/infrastructure/clients/postgres"
	"github.com/movaride/behavior-analytics/internal/infrastructure/clients/redis"
	"github.com/movaride/behavior-analytics/internal/infrastructure/observability"
	"github.com/movaride/behavior-analytics/pkg/config"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	observability.InitLogger(cfg.OTEL.ServiceName, os.Getenv("APP_ENV"))

	// Set up context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize OpenTelemetry if enabled
	var shutdown func(context.Context) error
	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err = observability.Setup(
			ctx,
			cfg.OTEL.ServiceName,
			cfg.OTEL.ServiceVersion,
			cfg.OTEL.Endpoint,
		)
		if err != nil {
			log.Printf("Warning: Failed to set up OpenTelemetry: %v", err)
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(ctx); err != nil {
					log.Printf("Error shutting down OpenTelemetry: %v", err)
				}
			}()
			log.Println("OpenTelemetry initialized successfully")
		}
	}

	// Initialize metrics
	metrics, err := observability.InitMetrics()
	if err != nil {
		log.Fatalf("Failed to initialize metrics: %v", err)
	}

	// Initialize database client
	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to initialize PostgreSQL client: %v", err)
	}
	defer pgClient.Close()
	log.Println("PostgreSQL client initialized successfully")

	// Initialize Redis client
	redisClient, err := redis.NewClient(&cfg.Redis)
	if err != nil {
		log.Printf("Warning: Failed to initialize Redis client: %v", err)
		// Continue without Redis - the application can work without caching
		redisClient = nil
	} else {
		defer redisClient.Close()
		log.Println("Redis client initialized successfully")
	}

	var cacheProvider providers.CacheProvider
	if redisClient != nil {
		cacheProvider = cache.NewRedisAdapter(redisClient)
	}

	// Initialize event bus for the live session feed
	var eventBus providers.EventBus
	if redisClient != nil {
		eventBus = events.NewRedisEventBus(redisClient)
		log.Println("Event bus initialized successfully")
	} else {
		log.Println("Event bus disabled (Redis not available)")
	}

	// Initialize adapters

	baseSessionAdapter := database.NewSessionAdapter(pgClient)
	if err := baseSessionAdapter.EnsureSchema(ctx); err != nil {
		log.Fatalf("Failed to ensure session schema: %v", err)
	}

	// Wrap with caching if Redis is available (for read performance optimization)
	var sessionRepo repositories.SessionRepository
	if cacheProvider != nil {
		sessionRepo = database.NewCachedSessionAdapter(baseSessionAdapter, cacheProvider, cfg.Tracking.RecentSessionLimit)
		log.Println("Session adapter wrapped with caching layer")
	} else {
		sessionRepo = baseSessionAdapter
		log.Println("Session adapter running without cache (Redis unavailable)")
	}

	// Screen surfaces used to scale heatmap and replay overlays. Screens the
	// UI never registered fall back to the registry default bounds.
	surfaceRegistry := providers.NewStaticRegistry(390, 844)
	for _, screen := range cfg.Tracking.FunnelMilestones {
		surfaceRegistry.Register(providers.StaticSurface{ScreenName: screen, Width: 390, Height: 844})
	}

	// Initialize services

	sessionService := services.NewSessionService(sessionRepo, eventBus)
	insightsService := services.NewInsightsService(sessionRepo, cfg.Tracking)
	heatmapService := services.NewHeatmapService(sessionRepo, surfaceRegistry, cfg.Tracking.HeatmapGridSize, cfg.Tracking.RecentSessionLimit)
	replayService := services.NewReplayService(sessionRepo, surfaceRegistry, cfg.Tracking.RecentSessionLimit)

	// Initialize handlers

	sessionHandler := handlers.NewSessionHandler(sessionService, metrics)
	insightsHandler := handlers.NewInsightsHandler(insightsService)
	heatmapHandler := handlers.NewHeatmapHandler(heatmapService)
	replayHandler := handlers.NewReplayHandler(replayService)

	var sseHandler *handlers.SSEHandler
	if eventBus != nil {
		sseHandler = handlers.NewSSEHandler(eventBus)
	}

	// Initialize cache middleware
	var cacheMiddleware *middleware.CacheMiddleware
	if cacheProvider != nil {
		cacheMiddleware = middleware.NewCacheMiddleware(cacheProvider)
		log.Println("Cache middleware initialized successfully")
	}

	// Set up router
	router := routes.NewRouter(
		sessionHandler,
		insightsHandler,
		heatmapHandler,
		replayHandler,
		sseHandler,
		cacheMiddleware,
		metrics,
	)

	handler := router.SetupRoutes()

	// Create HTTP server
	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // SSE streams stay open indefinitely
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Collector starting on %s", serverAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Collector shutting down...")

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error during server shutdown: %v", err)
	}

	// Close event bus
	if eventBus != nil {
		if err := eventBus.Close(); err != nil {
			log.Printf("Error closing event bus: %v", err)
		}
	}

	log.Println("Collector stopped")
}
