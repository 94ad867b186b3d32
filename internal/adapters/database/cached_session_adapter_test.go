package database_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/movaride/behavior-analytics/internal/adapters/database"
	"github.com/movaride/behavior-analytics/internal/domain/entities"
)

type fakeRepo struct {
	mu         sync.Mutex
	sessions   []*entities.Session
	appendErr  error
	recentErr  error
	recentHits int
	lastLimit  int
}

func (r *fakeRepo) Append(ctx context.Context, session *entities.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.appendErr != nil {
		return r.appendErr
	}
	r.sessions = append(r.sessions, session)
	return nil
}

func (r *fakeRepo) GetRecent(ctx context.Context, limit int) ([]*entities.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.recentHits++
	r.lastLimit = limit
	return r.sessions, r.recentErr
}

func (r *fakeRepo) hits() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.recentHits
}

type fakeCache struct {
	mu      sync.Mutex
	store   map[string][]byte
	deletes []string
}

func newFakeCache() *fakeCache {
	return &fakeCache{store: make(map[string][]byte)}
}

func (c *fakeCache) Get(ctx context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if value, ok := c.store[key]; ok {
		return value, nil
	}
	return nil, errors.New("cache miss")
}

func (c *fakeCache) Set(ctx context.Context, key string, value []byte, expirationSeconds int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store[key] = value
	return nil
}

func (c *fakeCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.store, key)
	c.deletes = append(c.deletes, key)
	return nil
}

func (c *fakeCache) Exists(ctx context.Context, key string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.store[key]
	return ok, nil
}

func (c *fakeCache) deleted() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.deletes)
}

func snapshot(userID string) *entities.Session {
	return &entities.Session{
		UserID:    userID,
		StartTime: 1_700_000_000_000,
		Device:    entities.DeviceMobile,
	}
}

func TestCachedSessionAdapter_GetRecent_PopulatesCache(t *testing.T) {
	repo := &fakeRepo{sessions: []*entities.Session{snapshot("user-1")}}
	cache := newFakeCache()
	adapter := database.NewCachedSessionAdapter(repo, cache, 50)

	sessions, err := adapter.GetRecent(context.Background(), 50)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, 1, repo.hits())

	// Cache write happens off the request path.
	assert.Eventually(t, func() bool {
		_, err := cache.Get(context.Background(), "sessions:recent")
		return err == nil
	}, time.Second, 10*time.Millisecond)
}

func TestCachedSessionAdapter_GetRecent_ServesFromCache(t *testing.T) {
	repo := &fakeRepo{}
	cache := newFakeCache()
	adapter := database.NewCachedSessionAdapter(repo, cache, 50)

	cached, err := json.Marshal([]*entities.Session{snapshot("cached-user")})
	require.NoError(t, err)
	require.NoError(t, cache.Set(context.Background(), "sessions:recent", cached, 30))

	sessions, err := adapter.GetRecent(context.Background(), 50)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, "cached-user", sessions[0].UserID)
	assert.Equal(t, 0, repo.hits())
}

func TestCachedSessionAdapter_GetRecent_ZeroLimitUsesCachedWindow(t *testing.T) {
	repo := &fakeRepo{}
	cache := newFakeCache()
	adapter := database.NewCachedSessionAdapter(repo, cache, 50)

	_, err := adapter.GetRecent(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, 50, repo.lastLimit)
}

func TestCachedSessionAdapter_GetRecent_NonDefaultLimitBypassesCache(t *testing.T) {
	repo := &fakeRepo{}
	cache := newFakeCache()
	adapter := database.NewCachedSessionAdapter(repo, cache, 50)

	cached, _ := json.Marshal([]*entities.Session{snapshot("cached-user")})
	require.NoError(t, cache.Set(context.Background(), "sessions:recent", cached, 30))

	_, err := adapter.GetRecent(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, 1, repo.hits())
	assert.Equal(t, 5, repo.lastLimit)
}

func TestCachedSessionAdapter_GetRecent_CorruptCacheFallsThrough(t *testing.T) {
	repo := &fakeRepo{sessions: []*entities.Session{snapshot("user-1")}}
	cache := newFakeCache()
	adapter := database.NewCachedSessionAdapter(repo, cache, 50)

	require.NoError(t, cache.Set(context.Background(), "sessions:recent", []byte("{broken"), 30))

	sessions, err := adapter.GetRecent(context.Background(), 50)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, 1, repo.hits())
}

func TestCachedSessionAdapter_Append_InvalidatesCache(t *testing.T) {
	repo := &fakeRepo{}
	cache := newFakeCache()
	adapter := database.NewCachedSessionAdapter(repo, cache, 50)

	cached, _ := json.Marshal([]*entities.Session{snapshot("stale-user")})
	require.NoError(t, cache.Set(context.Background(), "sessions:recent", cached, 30))

	require.NoError(t, adapter.Append(context.Background(), snapshot("user-1")))

	assert.Eventually(t, func() bool {
		return cache.deleted() == 1
	}, time.Second, 10*time.Millisecond)
}

func TestCachedSessionAdapter_Append_ErrorSkipsInvalidation(t *testing.T) {
	repo := &fakeRepo{appendErr: errors.New("db down")}
	cache := newFakeCache()
	adapter := database.NewCachedSessionAdapter(repo, cache, 50)

	assert.Error(t, adapter.Append(context.Background(), snapshot("user-1")))
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 0, cache.deleted())
}
