// Package document defines the flattened projection stored in the index.
package document

import "github.com/gridwatch/searchsync/internal/domain/entity"

// Document is the denormalized projection of one entity, stored in that
// entity type's search index. The tenant is copied in (not referenced) so
// that queries never join back to the primary store.
type Document struct {
	EntityID    int64
	EntityType  entity.Type
	TenantID    string
	Name        string
	Description string
	Status      string
	Metadata    map[string]string
}
