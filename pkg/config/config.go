package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Tracking TrackingConfig
	OTEL     OTELConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host string
	Port int
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// TrackingConfig holds session tracking and dashboard configuration
type TrackingConfig struct {
	// FlushInterval is how often the recorder snapshots the live session
	// to the store.
	FlushInterval time.Duration

	// MoveSampleInterval is the minimum spacing between recorded pointer
	// moves; moves arriving faster are dropped, not queued.
	MoveSampleInterval time.Duration

	// MobileWidthThreshold is the viewport width in logical pixels below
	// which a session is classified as mobile.
	MobileWidthThreshold int

	// DashboardRoute is the screen name of the analytics dashboard itself.
	// Capture is suspended while this screen is active.
	DashboardRoute string

	// RecentSessionLimit is the default number of sessions the dashboard
	// read path fetches.
	RecentSessionLimit int

	// DwellTopK and FlowTopK bound the ranked aggregation outputs.
	DwellTopK int
	FlowTopK  int

	// HeatmapGridSize is the click bucketing cell size in pixels.
	HeatmapGridSize int

	// FunnelMilestones is the ordered list of screen names used for
	// funnel conversion.
	FunnelMilestones []string
}

// OTELConfig holds OpenTelemetry configuration
type OTELConfig struct {
	ServiceName    string
	ServiceVersion string
	Endpoint       string
	Enabled        bool
}

// defaultFunnelMilestones is the ride booking happy path.
var defaultFunnelMilestones = []string{
	"home",
	"selectVehicle",
	"confirmPickup",
	"enRoute",
	"tripComplete",
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	return &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: getEnvAsInt("SERVER_PORT", 8080),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Database: getEnv("DB_NAME", "behavior_analytics"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvAsInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Tracking: TrackingConfig{
			FlushInterval:        time.Duration(getEnvAsInt("TRACKING_FLUSH_INTERVAL_MS", 10000)) * time.Millisecond,
			MoveSampleInterval:   time.Duration(getEnvAsInt("TRACKING_MOVE_SAMPLE_MS", 100)) * time.Millisecond,
			MobileWidthThreshold: getEnvAsInt("TRACKING_MOBILE_WIDTH", 768),
			DashboardRoute:       getEnv("TRACKING_DASHBOARD_ROUTE", "analyticsDashboard"),
			RecentSessionLimit:   getEnvAsInt("TRACKING_RECENT_LIMIT", 50),
			DwellTopK:            getEnvAsInt("TRACKING_DWELL_TOP_K", 10),
			FlowTopK:             getEnvAsInt("TRACKING_FLOW_TOP_K", 15),
			HeatmapGridSize:      getEnvAsInt("TRACKING_HEATMAP_GRID", 8),
			FunnelMilestones:     getEnvAsList("TRACKING_FUNNEL_MILESTONES", defaultFunnelMilestones),
		},
		OTEL: OTELConfig{
			ServiceName:    getEnv("OTEL_SERVICE_NAME", "behavior-analytics"),
			ServiceVersion: getEnv("OTEL_SERVICE_VERSION", "1.0.0"),
			Endpoint:       getEnv("OTEL_ENDPOINT", ""),
			Enabled:        getEnvAsBool("OTEL_ENABLED", false),
		},
	}, nil
}

// DatabaseDSN returns the PostgreSQL connection string
func (c *DatabaseConfig) DatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// RedisAddr returns the Redis address
func (c *RedisConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		out := make([]string, 0, len(parts))
		for _, part := range parts {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				out = append(out, trimmed)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return defaultValue
}
