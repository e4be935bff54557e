package ratelimit

import "context"

// CounterStore reserves and releases daily submission slots.
type CounterStore interface {
	Reserve(ctx context.Context, deviceID, day string, max int64) (int64, bool, error)
	Release(ctx context.Context, deviceID, day string) error
	Used(ctx context.Context, deviceID, day string) (int64, error)
}
