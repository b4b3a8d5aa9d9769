package project

import (
	"context"

	"github.com/gridwatch/searchsync/internal/domain/entity"
)

// ParentResolver loads ownership-chain parents from the primary store.
type ParentResolver interface {
	FindByID(ctx context.Context, t entity.Type, id int64) (entity.Entity, bool, error)
}
