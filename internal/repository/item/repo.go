// Package item persists lost items as indexed hashes and compiles search
// filters into store queries.
package item

import (
	"context"
	"errors"
	"fmt"

	"github.com/mylost-cloud/mylost/internal/db"
	"github.com/mylost-cloud/mylost/internal/domain"
	domitem "github.com/mylost-cloud/mylost/internal/domain/item"
	"github.com/mylost-cloud/mylost/internal/domain/query"
)

// store is the consumer interface for item persistence (ISP).
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	IndexExists(ctx context.Context, name string) (bool, error)
	SearchList(ctx context.Context, q *db.ListQuery) (*db.SearchResult, error)
	SearchCount(ctx context.Context, index, query string) (int, error)
}

// Repo implements the item repository over a db.Store subset.
type Repo struct {
	store      store
	keyPrefix  string
	collection string
}

// New creates an item repository. keyPrefix and collection shape the key
// space: documents at "<prefix><collection>:<id>", index "<prefix><collection>:idx".
func New(s store, keyPrefix, collection string) *Repo {
	return &Repo{store: s, keyPrefix: keyPrefix, collection: collection}
}

// EnsureIndex creates the item FT index if it does not exist yet. Idempotent;
// called once at startup.
func (r *Repo) EnsureIndex(ctx context.Context) error {
	exists, err := r.store.IndexExists(ctx, r.indexName())
	if err != nil {
		return classify(fmt.Errorf("probe index %s: %w", r.indexName(), err))
	}
	if exists {
		return nil
	}

	def := &db.IndexDefinition{
		Name:        r.indexName(),
		StorageType: db.StorageHash,
		Prefixes:    []string{r.docPrefix()},
		Fields: []db.IndexField{
			{Name: fieldCategory, Type: db.IndexFieldTag},
			{Name: fieldDescription, Type: db.IndexFieldText},
			{Name: fieldNotes, Type: db.IndexFieldText},
			{Name: fieldFoundAtAddress, Type: db.IndexFieldText},
			{Name: fieldLatitude, Type: db.IndexFieldNumeric},
			{Name: fieldLongitude, Type: db.IndexFieldNumeric},
			{Name: fieldLocation, Type: db.IndexFieldGeo},
			{Name: fieldCreatedAt, Type: db.IndexFieldNumeric, Sortable: true},
		},
	}

	if err := r.store.CreateIndex(ctx, def); err != nil {
		if errors.Is(err, db.ErrIndexExists) {
			return nil
		}
		return classify(fmt.Errorf("create index %s: %w", r.indexName(), err))
	}
	return nil
}

// Insert persists a new item.
func (r *Repo) Insert(ctx context.Context, it domitem.LostItem) error {
	if err := r.store.HSet(ctx, r.docKey(it.ID), buildHashFields(&it)); err != nil {
		return classify(fmt.Errorf("hset %s: %w", r.docKey(it.ID), err))
	}
	return nil
}

// Get returns an item by id, or domain.ErrNotFound.
func (r *Repo) Get(ctx context.Context, id string) (domitem.LostItem, error) {
	m, err := r.store.HGetAll(ctx, r.docKey(id))
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return domitem.LostItem{}, domain.ErrNotFound
		}
		return domitem.LostItem{}, classify(fmt.Errorf("hgetall %s: %w", r.docKey(id), err))
	}
	return parseHashFields(id, m), nil
}

// Search runs a normalized list filter against the index, most recent first.
func (r *Repo) Search(ctx context.Context, f query.Filter) ([]domitem.LostItem, error) {
	res, err := r.store.SearchList(ctx, &db.ListQuery{
		IndexName: r.indexName(),
		Query:     compileFilter(f),
		SortBy:    fieldCreatedAt,
		SortDesc:  true,
		Offset:    f.Skip,
		Limit:     f.Limit,
	})
	if err != nil {
		return nil, classify(fmt.Errorf("search items: %w", err))
	}
	return r.itemsFromResult(res), nil
}

// SearchNearby returns up to limit items within the query radius. Order is
// store order; the caller sorts by distance.
func (r *Repo) SearchNearby(ctx context.Context, n query.Nearby, limit int) ([]domitem.LostItem, error) {
	res, err := r.store.SearchList(ctx, &db.ListQuery{
		IndexName: r.indexName(),
		Query:     compileNearby(n),
		Offset:    0,
		Limit:     limit,
	})
	if err != nil {
		return nil, classify(fmt.Errorf("search nearby items: %w", err))
	}
	return r.itemsFromResult(res), nil
}

// Count returns the number of items matching a filter, ignoring pagination.
func (r *Repo) Count(ctx context.Context, f query.Filter) (int, error) {
	n, err := r.store.SearchCount(ctx, r.indexName(), compileFilter(f))
	if err != nil {
		return 0, classify(fmt.Errorf("count items: %w", err))
	}
	return n, nil
}

func (r *Repo) itemsFromResult(res *db.SearchResult) []domitem.LostItem {
	if res == nil || len(res.Entries) == 0 {
		return []domitem.LostItem{}
	}
	items := make([]domitem.LostItem, 0, len(res.Entries))
	for _, entry := range res.Entries {
		id := entry.Fields[fieldID]
		if id == "" {
			id = extractDocID(entry.Key, r.docPrefix())
		}
		items = append(items, parseHashFields(id, entry.Fields))
	}
	return items
}

func (r *Repo) docPrefix() string {
	return r.keyPrefix + r.collection + ":"
}

func (r *Repo) docKey(id string) string {
	return r.docPrefix() + id
}

func (r *Repo) indexName() string {
	return r.keyPrefix + r.collection + ":idx"
}

func extractDocID(key, prefix string) string {
	if len(key) > len(prefix) && key[:len(prefix)] == prefix {
		return key[len(prefix):]
	}
	return key
}

// classify maps store failures into the domain taxonomy. Cancellation
// passes through untouched; everything else is a transient store failure
// that the caller may retry.
func classify(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
}
