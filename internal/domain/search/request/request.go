// Package request defines the federated search request shape.
package request

import "github.com/gridwatch/searchsync/internal/domain/entity"

// Request describes one federated search. An empty Types slice means all
// supported entity types; an empty Query matches every document in scope.
type Request struct {
	Query    string
	Types    []entity.Type
	Page     int
	PageSize int
	Admin    bool
}

// Normalize clamps paging parameters into the configured bounds.
func (r Request) Normalize(defaultPageSize, maxPageSize int) Request {
	if r.Page < 0 {
		r.Page = 0
	}
	if r.PageSize <= 0 {
		r.PageSize = defaultPageSize
	}
	if r.PageSize > maxPageSize {
		r.PageSize = maxPageSize
	}
	return r
}

// TargetTypes returns the entity types the search fans out to.
func (r Request) TargetTypes() []entity.Type {
	if len(r.Types) == 0 {
		return entity.All()
	}
	return r.Types
}
