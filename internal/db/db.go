// Package db defines the store facade: a document collection reachable via
// hash, key-value, index and search operations.
package db

import (
	"context"
	"time"
)

// Store is the main database facade combining all sub-interfaces.
//
//nolint:interfacebloat // facade by design -- consumers use narrow sub-interfaces (ISP)
type Store interface {
	Pinger
	HashStore
	KVStore
	IndexManager
	Searcher
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HashStore provides hash-based document operations.
type HashStore interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
}

// KVStore provides counter operations.
type KVStore interface {
	GetInt(ctx context.Context, key string) (int64, error)
	// IncrWithLimit atomically increments key, rolls back and reports
	// ok=false when the result would exceed limit, and sets ttl on first
	// increment. It is the single conditional upsert-and-check that the
	// rate limiter's linearizability rests on.
	IncrWithLimit(ctx context.Context, key string, limit int64, ttl time.Duration) (count int64, ok bool, err error)
	DecrBy(ctx context.Context, key string, val int64) error
}

// IndexManager provides FT index lifecycle operations.
type IndexManager interface {
	CreateIndex(ctx context.Context, def *IndexDefinition) error
	IndexExists(ctx context.Context, name string) (bool, error)
}

// Searcher provides search operations over FT indexes.
type Searcher interface {
	SearchList(ctx context.Context, q *ListQuery) (*SearchResult, error)
	SearchCount(ctx context.Context, index, query string) (int, error)
}
