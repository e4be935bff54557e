// Package query models the closed set of search filter dimensions and their
// canonical cache keys.
package query

import (
	"fmt"
	"strings"

	"github.com/mylost-cloud/mylost/internal/domain"
	"github.com/mylost-cloud/mylost/internal/domain/geo"
	"github.com/mylost-cloud/mylost/internal/domain/item"
)

// Region is a closed rectangular coordinate bound.
type Region struct {
	MinLat float64
	MaxLat float64
	MinLng float64
	MaxLng float64
}

// Degenerate reports whether min exceeds max on either axis. A degenerate
// region matches nothing; it is not a client error.
func (r Region) Degenerate() bool {
	return r.MinLat > r.MaxLat || r.MinLng > r.MaxLng
}

// Filter is the normalized list-query input. All dimensions are optional and
// combine with logical AND.
type Filter struct {
	Category string
	Region   *Region
	Text     string
	Skip     int
	Limit    int
}

// Normalize canonicalizes the filter: category lowercased, text trimmed and
// lowercased, skip floored at 0, limit defaulted and clamped to [1, maxLimit].
// Requests above maxLimit are clamped, not rejected.
func (f Filter) Normalize(defaultLimit, maxLimit int) Filter {
	f.Category = item.NormalizeCategory(f.Category)
	f.Text = strings.ToLower(strings.TrimSpace(f.Text))
	if f.Skip < 0 {
		f.Skip = 0
	}
	if f.Limit <= 0 {
		f.Limit = defaultLimit
	}
	if f.Limit > maxLimit {
		f.Limit = maxLimit
	}
	return f
}

// CacheKey returns the canonical encoding of the filter. Two filters that
// normalize to the same parameters share one cache entry.
func (f Filter) CacheKey() string {
	var b strings.Builder
	b.WriteString("list|category=")
	b.WriteString(f.Category)
	b.WriteString("|region=")
	if f.Region != nil {
		fmt.Fprintf(&b, "%.6f,%.6f,%.6f,%.6f", f.Region.MinLat, f.Region.MaxLat, f.Region.MinLng, f.Region.MaxLng)
	}
	b.WriteString("|text=")
	b.WriteString(f.Text)
	fmt.Fprintf(&b, "|skip=%d|limit=%d", f.Skip, f.Limit)
	return b.String()
}

// Nearby is a great-circle distance query around a center point.
type Nearby struct {
	Latitude  float64
	Longitude float64
	RadiusKm  float64
}

// Validate checks the nearby-query arguments. The search engine owns these
// invariants, so violations surface as domain.ErrInvalidArgument.
func (n Nearby) Validate(maxRadiusKm float64) error {
	if !geo.ValidCoordinates(n.Latitude, n.Longitude) {
		return fmt.Errorf("%w: center coordinates out of range", domain.ErrInvalidArgument)
	}
	if n.RadiusKm <= 0 {
		return fmt.Errorf("%w: radius must be positive", domain.ErrInvalidArgument)
	}
	if n.RadiusKm > maxRadiusKm {
		return fmt.Errorf("%w: radius must be at most %g km", domain.ErrInvalidArgument, maxRadiusKm)
	}
	return nil
}

// CacheKey returns the canonical encoding of the nearby parameters.
func (n Nearby) CacheKey() string {
	return fmt.Sprintf("nearby|lat=%.6f|lng=%.6f|radius=%.3f", n.Latitude, n.Longitude, n.RadiusKm)
}

// ItemCacheKey returns the cache key for a single-item lookup.
func ItemCacheKey(id string) string {
	return "item|" + id
}
