package result

import "github.com/gridwatch/searchsync/internal/domain/entity"

// Item is a single federated search hit.
type Item struct {
	entityType  entity.Type
	entityID    int64
	tenantID    string
	name        string
	description string
	status      string
	score       float64
	metadata    map[string]string
}

// New creates a search result item.
func New(
	t entity.Type, id int64, tenant, name, description, status string,
	score float64, metadata map[string]string,
) Item {
	return Item{
		entityType: t, entityID: id, tenantID: tenant,
		name: name, description: description, status: status,
		score: score, metadata: metadata,
	}
}

// EntityType returns the hit's entity type.
func (i *Item) EntityType() entity.Type { return i.entityType }

// EntityID returns the hit's entity identifier.
func (i *Item) EntityID() int64 { return i.entityID }

// TenantID returns the tenant owning the hit.
func (i *Item) TenantID() string { return i.tenantID }

// Name returns the display name.
func (i *Item) Name() string { return i.name }

// Description returns the description.
func (i *Item) Description() string { return i.description }

// Status returns the entity status.
func (i *Item) Status() string { return i.status }

// Score returns the relevance score (higher is better).
func (i *Item) Score() float64 { return i.score }

// Metadata returns type-specific metadata.
func (i *Item) Metadata() map[string]string { return i.metadata }

// Page is one page of the merged result set.
type Page struct {
	Items      []Item
	Total      int
	Page       int
	PageSize   int
	PageCount  int
	DurationMS int64
}
