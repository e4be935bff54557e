// Package ratelimit enforces the per-device daily submission quota.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mylost-cloud/mylost/internal/domain"
	"github.com/mylost-cloud/mylost/internal/logger"
)

const dayLayout = "2006-01-02"

// anonymousBucket pools requests that carry no identifying headers into one
// shared quota rather than giving each of them a fresh counter.
const anonymousBucket = "anonymous"

// Service admits or rejects submissions against a daily per-device quota.
// Days roll over at UTC midnight.
type Service struct {
	store     CounterStore
	maxPerDay int64
	now       func() time.Time
}

// New creates a rate-limit service. maxPerDay <= 0 disables the limit.
func New(store CounterStore, maxPerDay int) *Service {
	return &Service{store: store, maxPerDay: int64(maxPerDay), now: time.Now}
}

// WithClock overrides the clock, for tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Admit reserves one submission slot for the device on the current UTC day.
// It returns domain.ErrRateLimited when the quota is exhausted. An admitted
// submission that later fails to persist must be handed back via Release.
func (s *Service) Admit(ctx context.Context, deviceID string) error {
	if s.maxPerDay <= 0 {
		return nil
	}

	bucket := s.bucket(ctx, deviceID)
	count, ok, err := s.store.Reserve(ctx, bucket, s.day(), s.maxPerDay)
	if err != nil {
		return fmt.Errorf("admit %s: %w", bucket, err)
	}
	if !ok {
		logger.FromContext(ctx).Info("submission quota exhausted",
			zap.String("device", bucket),
			zap.Int64("count", count),
			zap.Int64("max", s.maxPerDay))
		return fmt.Errorf("%w: %d submissions per day", domain.ErrRateLimited, s.maxPerDay)
	}
	return nil
}

// Release returns a slot reserved by Admit. Failures are logged, not
// propagated: the submission already failed and a stuck counter self-heals
// at the next UTC day. The decrement runs detached from the caller's
// cancellation: a client disconnect mid-submission must still hand the
// slot back.
func (s *Service) Release(ctx context.Context, deviceID string) {
	if s.maxPerDay <= 0 {
		return
	}

	ctx = context.WithoutCancel(ctx)
	bucket := s.bucket(ctx, deviceID)
	if err := s.store.Release(ctx, bucket, s.day()); err != nil {
		logger.FromContext(ctx).Warn("failed to release submission slot",
			zap.String("device", bucket),
			zap.Error(err))
	}
}

// Remaining reports how many submissions the device has left today.
func (s *Service) Remaining(ctx context.Context, deviceID string) (int64, error) {
	if s.maxPerDay <= 0 {
		return -1, nil
	}

	used, err := s.store.Used(ctx, s.bucket(ctx, deviceID), s.day())
	if err != nil {
		return 0, fmt.Errorf("remaining quota: %w", err)
	}
	left := s.maxPerDay - used
	if left < 0 {
		left = 0
	}
	return left, nil
}

// RetryAfter returns how long until the quota resets at UTC midnight.
func (s *Service) RetryAfter() time.Duration {
	now := s.now().UTC()
	midnight := now.Truncate(24 * time.Hour).Add(24 * time.Hour)
	return midnight.Sub(now)
}

func (s *Service) day() string {
	return s.now().UTC().Format(dayLayout)
}

func (s *Service) bucket(ctx context.Context, deviceID string) string {
	if deviceID == "" {
		logger.FromContext(ctx).Warn("submission without device identity, using shared bucket")
		return anonymousBucket
	}
	return deviceID
}
