package main

import (
	"context"
	"flag"
	"log"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/movaride/behavior-analytics/internal/infrastructure/clients/collectorapi"
	"github.com/movaride/behavior-analytics/internal/tracking"
	"github.com/movaride/behavior-analytics/pkg/config"
	"github.com/movaride/behavior-analytics/pkg/retry"
)

// The simulator drives the tracking recorder through synthetic ride bookings
// and flushes the snapshots into a running collector. Useful for exercising
// the dashboard with realistic data.

var screenTargets = map[string][]string{
	"home":          {"whereToField", "recentTrips", "promoBanner"},
	"selectVehicle": {"vehicleEconomy", "vehicleComfort", "vehicleXL", "fareBreakdown"},
	"confirmPickup": {"pickupPin", "confirmButton", "paymentSelector"},
	"enRoute":       {"driverCard", "shareTripButton", "cancelButton"},
	"tripComplete":  {"ratingStars", "tipButton", "doneButton"},
}

func main() {
	collectorURL := flag.String("collector", "http://localhost:8080", "collector base URL")
	sessions := flag.Int("sessions", 20, "number of synthetic sessions")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	store := collectorapi.NewClient(*collectorURL)

	ctx := context.Background()
	waitCfg := retry.DefaultConfig()
	waitCfg.MaxTotalTimeout = 2 * time.Minute
	if err := retry.Do(ctx, waitCfg, func() error {
		return store.Health(ctx)
	}); err != nil {
		log.Fatalf("Collector not reachable at %s: %v", *collectorURL, err)
	}
	log.Printf("Collector is up at %s", *collectorURL)

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	for i := 0; i < *sessions; i++ {
		if err := runSession(ctx, store, cfg.Tracking, rng); err != nil {
			log.Printf("Session %d failed: %v", i+1, err)
			continue
		}
		log.Printf("Session %d/%d flushed", i+1, *sessions)
	}
}

func runSession(ctx context.Context, store tracking.SessionStore, cfg config.TrackingConfig, rng *rand.Rand) error {
	// Bias towards mobile viewports; a minority browse from desktop.
	width, height := 390, 844
	if rng.Float64() < 0.25 {
		width, height = 1440, 900
	}

	// Virtual clock so a whole session takes milliseconds of real time but
	// spans minutes of recorded time.
	now := time.Now().Add(-time.Duration(rng.Intn(3600)) * time.Second)
	clock := func() time.Time { return now }

	rec, err := tracking.NewRecorder(tracking.Options{
		UserID:         uuid.New().String(),
		ViewportWidth:  width,
		ViewportHeight: height,
		Store:          store,
		Config:         cfg,
		Clock:          clock,
	})
	if err != nil {
		return err
	}

	// Walk some prefix of the booking flow; not everyone completes a trip.
	depth := 1 + rng.Intn(len(cfg.FunnelMilestones))
	for _, screen := range cfg.FunnelMilestones[:depth] {
		rec.SetScreen(screen)

		interactions := 2 + rng.Intn(8)
		for j := 0; j < interactions; j++ {
			now = now.Add(time.Duration(500+rng.Intn(4000)) * time.Millisecond)
			switch rng.Intn(3) {
			case 0:
				targets := screenTargets[screen]
				target := ""
				if len(targets) > 0 {
					target = targets[rng.Intn(len(targets))]
				}
				rec.Click(rng.Float64()*float64(width), rng.Float64()*float64(height), target)
			case 1:
				rec.Move(rng.Float64()*float64(width), rng.Float64()*float64(height))
			case 2:
				maxScroll := float64(height * 2)
				rec.Scroll(rng.Float64()*maxScroll, maxScroll)
			}
		}
		now = now.Add(time.Duration(2+rng.Intn(20)) * time.Second)
	}

	return rec.Flush(ctx)
}
