package database

import (
	"context"
	"encoding/json"
	"log"

	"github.com/movaride/behavior-analytics/internal/domain/entities"
	"github.com/movaride/behavior-analytics/internal/domain/providers"
	"github.com/movaride/behavior-analytics/internal/domain/repositories"
)

// recentSessionsTTL keeps the dashboard read path snappy without letting it
// drift far behind live ingest.
const recentSessionsTTL = 30 // seconds

const recentSessionsCacheKey = "sessions:recent"

// CachedSessionAdapter wraps a SessionRepository with a Redis read-through
// cache on the default recent-sessions window. Appends invalidate the cached
// window so a freshly ingested snapshot shows up on the next dashboard load.
// Non-default limits bypass the cache.
type CachedSessionAdapter struct {
	adapter     repositories.SessionRepository
	cache       providers.CacheProvider
	cachedLimit int
}

// NewCachedSessionAdapter creates a new cached session adapter caching the
// given default window size.
func NewCachedSessionAdapter(adapter repositories.SessionRepository, cache providers.CacheProvider, cachedLimit int) repositories.SessionRepository {
	if cachedLimit <= 0 {
		cachedLimit = defaultRecentLimit
	}
	return &CachedSessionAdapter{
		adapter:     adapter,
		cache:       cache,
		cachedLimit: cachedLimit,
	}
}

// Append writes through and drops the cached recent window.
func (a *CachedSessionAdapter) Append(ctx context.Context, session *entities.Session) error {
	if err := a.adapter.Append(ctx, session); err != nil {
		return err
	}

	go func() {
		bgCtx := context.Background()
		if err := a.cache.Delete(bgCtx, recentSessionsCacheKey); err != nil {
			log.Printf("Failed to invalidate recent sessions cache: %v", err)
		}
	}()
	return nil
}

// GetRecent serves the default window from cache when possible.
func (a *CachedSessionAdapter) GetRecent(ctx context.Context, limit int) ([]*entities.Session, error) {
	if limit > 0 && limit != a.cachedLimit {
		return a.adapter.GetRecent(ctx, limit)
	}

	if cached, err := a.cache.Get(ctx, recentSessionsCacheKey); err == nil {
		var sessions []*entities.Session
		if err := json.Unmarshal(cached, &sessions); err == nil {
			return sessions, nil
		}
		log.Printf("Failed to unmarshal cached sessions: %v", err)
	}

	sessions, err := a.adapter.GetRecent(ctx, a.cachedLimit)
	if err != nil {
		return nil, err
	}

	// Update cache off the request path.
	go func() {
		bgCtx := context.Background()
		if data, err := json.Marshal(sessions); err == nil {
			if err := a.cache.Set(bgCtx, recentSessionsCacheKey, data, recentSessionsTTL); err != nil {
				log.Printf("Failed to cache recent sessions: %v", err)
			}
		}
	}()

	return sessions, nil
}
