// Package search answers lost-item queries: filtered lists, single lookups,
// and distance-ordered nearby searches, fronted by a response cache.
package search

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/mylost-cloud/mylost/internal/domain/geo"
	domitem "github.com/mylost-cloud/mylost/internal/domain/item"
	"github.com/mylost-cloud/mylost/internal/domain/query"
	"github.com/mylost-cloud/mylost/internal/logger"
)

// Limits bound the page sizes the service hands to the store.
type Limits struct {
	DefaultPageSize int
	MaxPageSize     int
	NearbyMaxItems  int
	NearbyMaxKm     float64
}

// Service executes search queries against the item repository.
type Service struct {
	repo   Repository
	cache  ResponseCache
	limits Limits
}

// New creates a search service.
func New(repo Repository, cache ResponseCache, limits Limits) *Service {
	return &Service{repo: repo, cache: cache, limits: limits}
}

// List returns items matching the filter, most recent first. Results are
// served from the response cache when an identical normalized query was
// answered within the cache TTL.
func (s *Service) List(ctx context.Context, f query.Filter) ([]domitem.LostItem, error) {
	f = f.Normalize(s.limits.DefaultPageSize, s.limits.MaxPageSize)

	// An inverted region bound matches nothing. Skip the store round trip.
	if f.Region != nil && f.Region.Degenerate() {
		return []domitem.LostItem{}, nil
	}

	key := f.CacheKey()
	if items, ok := s.cachedItems(ctx, key); ok {
		return items, nil
	}

	items, err := s.repo.Search(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}

	s.storeItems(ctx, key, items)
	return items, nil
}

// Nearby returns items within the radius, ordered nearest first. The radius
// is in kilometers and must be positive and at most the configured maximum.
func (s *Service) Nearby(ctx context.Context, n query.Nearby) ([]domitem.LostItem, error) {
	if err := n.Validate(s.limits.NearbyMaxKm); err != nil {
		return nil, err
	}

	key := n.CacheKey()
	if items, ok := s.cachedItems(ctx, key); ok {
		return items, nil
	}

	items, err := s.repo.SearchNearby(ctx, n, s.limits.NearbyMaxItems)
	if err != nil {
		return nil, fmt.Errorf("nearby items: %w", err)
	}

	sort.SliceStable(items, func(i, j int) bool {
		di := geo.HaversineKm(n.Latitude, n.Longitude, items[i].Latitude, items[i].Longitude)
		dj := geo.HaversineKm(n.Latitude, n.Longitude, items[j].Latitude, items[j].Longitude)
		return di < dj
	})
	if len(items) > s.limits.NearbyMaxItems {
		items = items[:s.limits.NearbyMaxItems]
	}

	s.storeItems(ctx, key, items)
	return items, nil
}

// Get returns one item by id, or domain.ErrNotFound.
func (s *Service) Get(ctx context.Context, id string) (domitem.LostItem, error) {
	key := query.ItemCacheKey(id)
	if raw, ok := s.cache.Get(key); ok {
		var it domitem.LostItem
		if err := json.Unmarshal(raw, &it); err == nil {
			return it, nil
		}
		logger.FromContext(ctx).Warn("dropping undecodable cache entry", zap.String("key", key))
	}

	it, err := s.repo.Get(ctx, id)
	if err != nil {
		return domitem.LostItem{}, fmt.Errorf("get item %s: %w", id, err)
	}

	if raw, err := json.Marshal(it); err == nil {
		s.cache.Set(key, raw)
	}
	return it, nil
}

func (s *Service) cachedItems(ctx context.Context, key string) ([]domitem.LostItem, bool) {
	raw, ok := s.cache.Get(key)
	if !ok {
		return nil, false
	}
	var items []domitem.LostItem
	if err := json.Unmarshal(raw, &items); err != nil {
		logger.FromContext(ctx).Warn("dropping undecodable cache entry", zap.String("key", key))
		return nil, false
	}
	return items, true
}

func (s *Service) storeItems(ctx context.Context, key string, items []domitem.LostItem) {
	raw, err := json.Marshal(items)
	if err != nil {
		logger.FromContext(ctx).Warn("failed to serialize items for cache", zap.Error(err))
		return
	}
	s.cache.Set(key, raw)
}
