// Package index stores and queries search documents in the index store.
package index

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gridwatch/searchsync/internal/db"
	"github.com/gridwatch/searchsync/internal/domain"
	"github.com/gridwatch/searchsync/internal/domain/document"
	"github.com/gridwatch/searchsync/internal/domain/entity"
)

// maxScan caps how many documents one per-type query pulls back. The
// aggregator merges and paginates the full scoped corpus in memory, so this
// must cover the whole tenant-visible set of a type.
const maxScan = 10000

// store is the consumer interface for index operations (ISP).
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	Del(ctx context.Context, key string) error
	Scan(ctx context.Context, pattern string) ([]string, error)
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	IndexExists(ctx context.Context, name string) (bool, error)
	SearchList(ctx context.Context, index, query string, offset, limit int, fields []string) (*db.SearchResult, error)
	SearchCount(ctx context.Context, index, query string) (int, error)
}

// Repo implements usecase/sync.IndexWriter and usecase/search.Repository.
type Repo struct {
	store store
}

// New creates an index repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// EnsureIndexes creates the per-type FT indices backing federated search.
// Existing indices are left untouched.
func (r *Repo) EnsureIndexes(ctx context.Context) error {
	for _, t := range entity.All() {
		name := indexName(t)
		exists, err := r.store.IndexExists(ctx, name)
		if err != nil {
			return fmt.Errorf("probe index %s: %w", name, err)
		}
		if exists {
			continue
		}

		def := &db.IndexDefinition{
			Name:        name,
			StorageType: db.StorageHash,
			Prefixes:    []string{keyPrefix(t)},
			Fields: []db.IndexField{
				{Name: "tenant", Type: db.IndexFieldTag},
				{Name: "status", Type: db.IndexFieldTag},
				{Name: "name", Type: db.IndexFieldText},
			},
		}
		if err := r.store.CreateIndex(ctx, def); err != nil && !errors.Is(err, db.ErrIndexExists) {
			return fmt.Errorf("create index %s: %w", name, err)
		}
	}
	return nil
}

// Upsert writes the document into its type index, replacing any previous
// version under the same entity id.
func (r *Repo) Upsert(ctx context.Context, doc document.Document) error {
	if doc.EntityID == 0 || !doc.EntityType.Valid() {
		return fmt.Errorf("document missing entity id or type")
	}
	key := docKey(doc.EntityType, doc.EntityID)
	if err := r.store.HSet(ctx, key, buildHashFields(&doc)); err != nil {
		return fmt.Errorf("upsert %s: %w", key, err)
	}
	return nil
}

// Delete removes the entity's document from its type index. Deleting an
// absent document is a no-op.
func (r *Repo) Delete(ctx context.Context, t entity.Type, id int64) error {
	key := docKey(t, id)
	if err := r.store.Del(ctx, key); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// SearchTenant returns the tenant's documents of one type whose name
// contains the query, case-insensitively. An empty query matches every
// document in scope.
func (r *Repo) SearchTenant(ctx context.Context, t entity.Type, tenant, query string) ([]document.Document, error) {
	if tenant == "" {
		return nil, fmt.Errorf("tenant is required")
	}
	return r.search(ctx, t, db.TagFilter("tenant", tenant), query)
}

// SearchAll is the cross-tenant variant used by admin search.
func (r *Repo) SearchAll(ctx context.Context, t entity.Type, query string) ([]document.Document, error) {
	return r.search(ctx, t, db.MatchAll, query)
}

func (r *Repo) search(ctx context.Context, t entity.Type, filter, query string) ([]document.Document, error) {
	sr, err := r.store.SearchList(ctx, indexName(t), filter, 0, maxScan, nil)
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", t, err)
	}
	if sr == nil || len(sr.Entries) == 0 {
		return nil, nil
	}

	q := strings.ToLower(strings.TrimSpace(query))
	docs := make([]document.Document, 0, len(sr.Entries))
	for _, e := range sr.Entries {
		doc := parseHashFields(t, e.Key, e.Fields)
		if q != "" && !strings.Contains(strings.ToLower(doc.Name), q) {
			continue
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// Count returns the number of documents in one type's index.
func (r *Repo) Count(ctx context.Context, t entity.Type) (int, error) {
	n, err := r.store.SearchCount(ctx, indexName(t), db.MatchAll)
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", t, err)
	}
	return n, nil
}

// Clear removes every document of one type from the index store.
func (r *Repo) Clear(ctx context.Context, t entity.Type) error {
	keys, err := r.store.Scan(ctx, keyPrefix(t)+"*")
	if err != nil {
		return fmt.Errorf("scan %s: %w", t, err)
	}
	for _, key := range keys {
		if err := r.store.Del(ctx, key); err != nil {
			return fmt.Errorf("clear %s: %w", key, err)
		}
	}
	return nil
}

func keyPrefix(t entity.Type) string {
	return fmt.Sprintf("%s%s:", domain.KeyPrefix, t)
}

func docKey(t entity.Type, id int64) string {
	return fmt.Sprintf("%s%d", keyPrefix(t), id)
}

func indexName(t entity.Type) string {
	return fmt.Sprintf("%s%s:idx", domain.KeyPrefix, t)
}
