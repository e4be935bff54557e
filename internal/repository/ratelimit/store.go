// Package ratelimit persists per-device daily submission counters.
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mylost-cloud/mylost/internal/domain"
)

// recordTTL keeps counter keys alive long enough to cover the whole UTC day
// they belong to plus clock skew, then lets the store reclaim them.
const recordTTL = 48 * time.Hour

// counters is the consumer interface for the rate-limit store.
type counters interface {
	IncrWithLimit(ctx context.Context, key string, limit int64, ttl time.Duration) (int64, bool, error)
	DecrBy(ctx context.Context, key string, n int64) error
	GetInt(ctx context.Context, key string) (int64, error)
}

// Store tracks how many submissions each device made on a given day.
type Store struct {
	store      counters
	keyPrefix  string
	collection string
}

// New creates a rate-limit store. Counters live at
// "<prefix><collection>:<device>:<day>".
func New(s counters, keyPrefix, collection string) *Store {
	return &Store{store: s, keyPrefix: keyPrefix, collection: collection}
}

// Reserve atomically claims one submission slot for the device on the given
// day. It returns the counter value after the call and whether the slot was
// granted. When the counter already sits at max the store leaves it untouched
// and reports ok=false.
func (s *Store) Reserve(ctx context.Context, deviceID, day string, max int64) (int64, bool, error) {
	count, ok, err := s.store.IncrWithLimit(ctx, s.key(deviceID, day), max, recordTTL)
	if err != nil {
		return 0, false, classify(fmt.Errorf("reserve slot for %s: %w", deviceID, err))
	}
	return count, ok, nil
}

// Release returns a previously reserved slot, compensating for a submission
// that failed after admission.
func (s *Store) Release(ctx context.Context, deviceID, day string) error {
	if err := s.store.DecrBy(ctx, s.key(deviceID, day), 1); err != nil {
		return classify(fmt.Errorf("release slot for %s: %w", deviceID, err))
	}
	return nil
}

// Used reports how many submissions the device has made on the given day.
// A missing counter reads as zero.
func (s *Store) Used(ctx context.Context, deviceID, day string) (int64, error) {
	n, err := s.store.GetInt(ctx, s.key(deviceID, day))
	if err != nil {
		return 0, classify(fmt.Errorf("read counter for %s: %w", deviceID, err))
	}
	return n, nil
}

func (s *Store) key(deviceID, day string) string {
	return s.keyPrefix + s.collection + ":" + deviceID + ":" + day
}

func classify(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
}
