package search

import (
	"context"
	"testing"
	"time"

	domitem "github.com/mylost-cloud/mylost/internal/domain/item"
	"github.com/mylost-cloud/mylost/internal/domain/query"
)

type mockRepo struct {
	getFn          func(ctx context.Context, id string) (domitem.LostItem, error)
	searchFn       func(ctx context.Context, f query.Filter) ([]domitem.LostItem, error)
	searchNearbyFn func(ctx context.Context, n query.Nearby, limit int) ([]domitem.LostItem, error)
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

// mapCache is a plain map-backed ResponseCache.
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

func (c *mapCache) Set(key string, value []byte) {
	c.entries[key] = value
}

func testLimits() Limits {
	return Limits{
		DefaultPageSize: 50,
		MaxPageSize:     100,
		NearbyMaxItems:  50,
		NearbyMaxKm:     100,
	}
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

func newTestService(t *testing.T) (*Service, *mockRepo, *mapCache) {
	t.Helper()
	repo := &mockRepo{}
	cache := newMapCache()
	return New(repo, cache, testLimits()), repo, cache
}
