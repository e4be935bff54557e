package search

import (
	"context"

	domitem "github.com/mylost-cloud/mylost/internal/domain/item"
	"github.com/mylost-cloud/mylost/internal/domain/query"
)

// Repository reads lost items from the store.
type Repository interface {
	Get(ctx context.Context, id string) (domitem.LostItem, error)
	Search(ctx context.Context, f query.Filter) ([]domitem.LostItem, error)
	SearchNearby(ctx context.Context, n query.Nearby, limit int) ([]domitem.LostItem, error)
}

// ResponseCache memoizes serialized query results.
type ResponseCache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte)
}
