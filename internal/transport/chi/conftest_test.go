package chi

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	domitem "github.com/mylost-cloud/mylost/internal/domain/item"
	"github.com/mylost-cloud/mylost/internal/domain/query"
	healthuc "github.com/mylost-cloud/mylost/internal/usecase/health"
	ratelimituc "github.com/mylost-cloud/mylost/internal/usecase/ratelimit"
	searchuc "github.com/mylost-cloud/mylost/internal/usecase/search"
	submituc "github.com/mylost-cloud/mylost/internal/usecase/submit"
)

// mockRepo backs the search service.
type mockRepo struct {
	getFn          func(ctx context.Context, id string) (domitem.LostItem, error)
	searchFn       func(ctx context.Context, f query.Filter) ([]domitem.LostItem, error)
	searchNearbyFn func(ctx context.Context, n query.Nearby, limit int) ([]domitem.LostItem, error)
	insertFn       func(ctx context.Context, it domitem.LostItem) error
}

func (m *mockRepo) Get(ctx context.Context, id string) (domitem.LostItem, error) {
	if m.getFn != nil {
		return m.getFn(ctx, id)
	}
	return domitem.LostItem{}, nil
}

func (m *mockRepo) Search(ctx context.Context, f query.Filter) ([]domitem.LostItem, error) {
	if m.searchFn != nil {
		return m.searchFn(ctx, f)
	}
	return []domitem.LostItem{}, nil
}

func (m *mockRepo) SearchNearby(ctx context.Context, n query.Nearby, limit int) ([]domitem.LostItem, error) {
	if m.searchNearbyFn != nil {
		return m.searchNearbyFn(ctx, n, limit)
	}
	return []domitem.LostItem{}, nil
}

func (m *mockRepo) Insert(ctx context.Context, it domitem.LostItem) error {
	if m.insertFn != nil {
		return m.insertFn(ctx, it)
	}
	return nil
}

// mockCounterStore backs the rate-limit service.
type mockCounterStore struct {
	reserveFn func(ctx context.Context, deviceID, day string, max int64) (int64, bool, error)
	releaseFn func(ctx context.Context, deviceID, day string) error
	usedFn    func(ctx context.Context, deviceID, day string) (int64, error)
}

func (m *mockCounterStore) Reserve(ctx context.Context, deviceID, day string, max int64) (int64, bool, error) {
	if m.reserveFn != nil {
		return m.reserveFn(ctx, deviceID, day, max)
	}
	return 1, true, nil
}

func (m *mockCounterStore) Release(ctx context.Context, deviceID, day string) error {
	if m.releaseFn != nil {
		return m.releaseFn(ctx, deviceID, day)
	}
	return nil
}

func (m *mockCounterStore) Used(ctx context.Context, deviceID, day string) (int64, error) {
	if m.usedFn != nil {
		return m.usedFn(ctx, deviceID, day)
	}
	return 0, nil
}

// mockPinger backs the health service.
type mockPinger struct {
	pingFn func(ctx context.Context) error
}

func (m *mockPinger) Ping(ctx context.Context) error {
	if m.pingFn != nil {
		return m.pingFn(ctx)
	}
	return nil
}

// mapCache is a plain map-backed response cache.
type mapCache struct {
	entries map[string][]byte
}

func newMapCache() *mapCache {
	return &mapCache{entries: make(map[string][]byte)}
}

func (c *mapCache) Get(key string) ([]byte, bool) {
	v, ok := c.entries[key]
	return v, ok
}

func (c *mapCache) Set(key string, value []byte) { c.entries[key] = value }

func (c *mapCache) Clear() { c.entries = make(map[string][]byte) }

// fixture bundles the server with the mocks behind it.
type fixture struct {
	server  *Server
	repo    *mockRepo
	counter *mockCounterStore
	pinger  *mockPinger
}

func newTestServer(t *testing.T) *fixture {
	t.Helper()

	repo := &mockRepo{}
	counter := &mockCounterStore{}
	pinger := &mockPinger{}
	cache := newMapCache()

	limiter := ratelimituc.New(counter, 2).
		WithClock(func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) })
	searchSvc := searchuc.New(repo, cache, searchuc.Limits{
		DefaultPageSize: 50,
		MaxPageSize:     100,
		NearbyMaxItems:  50,
		NearbyMaxKm:     100,
	})
	submitSvc := submituc.New(limiter, repo, cache).
		WithIDSource(func() string { return "fixed-id" })
	healthSvc := healthuc.New(pinger)

	return &fixture{
		server:  NewServer(submitSvc, searchSvc, limiter, healthSvc, zap.NewNop()),
		repo:    repo,
		counter: counter,
		pinger:  pinger,
	}
}

func validCreateBody() string {
	return `{
		"latitude": 40.7128,
		"longitude": -74.006,
		"category": "Electronics",
		"description": "Black wireless headphones in a gray case",
		"found_at_address": "5th Avenue, New York",
		"finder_info": {"name": "Jamie Doe", "email": "jamie@example.com"}
	}`
}

func itemAt(id string, lat, lng float64) domitem.LostItem {
	return domitem.LostItem{
		ID:             id,
		Latitude:       lat,
		Longitude:      lng,
		Category:       "electronics",
		Description:    "Black wireless headphones in a gray case",
		FoundAtAddress: "5th Avenue, New York",
		Finder:         domitem.FinderInfo{Name: "Jamie Doe"},
		CreatedAt:      time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}
