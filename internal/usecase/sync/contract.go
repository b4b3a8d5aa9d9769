package sync

import (
	"context"

	"github.com/gridwatch/searchsync/internal/domain/document"
	"github.com/gridwatch/searchsync/internal/domain/entity"
)

// EntityReader enumerates entities from the primary store.
type EntityReader interface {
	FindAll(ctx context.Context, t entity.Type) ([]entity.Entity, error)
}

// IndexWriter writes projected documents into the index store.
type IndexWriter interface {
	Upsert(ctx context.Context, doc document.Document) error
	Delete(ctx context.Context, t entity.Type, id int64) error
}

// Projector builds the search document for an entity.
type Projector interface {
	Project(ctx context.Context, e entity.Entity) document.Document
}
