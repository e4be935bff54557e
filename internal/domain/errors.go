// Package domain holds the error taxonomy and core value types shared
// across use cases.
package domain

import "errors"

var (
	// ErrValidation signals a malformed or out-of-range item draft.
	ErrValidation = errors.New("validation failed")
	// ErrInvalidArgument signals an invalid query argument.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrNotFound signals a missing item.
	ErrNotFound = errors.New("item not found")
	// ErrRateLimited signals an exhausted daily submission quota.
	ErrRateLimited = errors.New("daily post limit exceeded")
	// ErrStoreUnavailable signals a transient store failure; the caller may retry.
	ErrStoreUnavailable = errors.New("store unavailable")
)
