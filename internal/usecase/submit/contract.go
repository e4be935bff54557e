package submit

import (
	"context"

	domitem "github.com/mylost-cloud/mylost/internal/domain/item"
)

// Limiter admits submissions against the per-device daily quota. A slot
// reserved by Admit must be handed back with Release if persistence fails.
type Limiter interface {
	Admit(ctx context.Context, deviceID string) error
	Release(ctx context.Context, deviceID string)
}

// Writer persists new items.
type Writer interface {
	Insert(ctx context.Context, it domitem.LostItem) error
}

// Invalidator drops memoized query results after a write.
type Invalidator interface {
	Clear()
}
