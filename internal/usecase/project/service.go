// Package project builds search documents from primary-store entities.
package project

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/gridwatch/searchsync/internal/domain/document"
	"github.com/gridwatch/searchsync/internal/domain/entity"
)

// maxChainDepth bounds the ownership walk; the deepest real chain is
// sensor -> zone -> location -> organization.
const maxChainDepth = 6

// Service projects one entity into one flat, tenant-tagged search document.
type Service struct {
	parents ParentResolver
	logger  *zap.Logger
}

// New creates a projector.
func New(parents ParentResolver, logger *zap.Logger) *Service {
	return &Service{parents: parents, logger: logger}
}

// Project builds the search document for e. The tenant field is derived by
// walking the ownership chain up to the tenant-owning root. A broken chain
// (an orphaned entity) yields a document with an empty tenant: the document
// must still be produced so a later delete can remove it from the index.
func (s *Service) Project(ctx context.Context, e entity.Entity) document.Document {
	doc := document.Document{
		EntityID:    e.ID,
		EntityType:  e.Type,
		TenantID:    e.TenantID,
		Name:        e.Name,
		Description: e.Description,
		Status:      e.Status,
		Metadata:    metadataFor(e),
	}

	if doc.TenantID == "" {
		tenant, err := s.resolveTenant(ctx, e)
		if err != nil {
			s.logger.Warn("ownership chain incomplete, projecting without tenant",
				zap.String("entity_type", string(e.Type)),
				zap.Int64("entity_id", e.ID),
				zap.Error(err),
			)
		}
		doc.TenantID = tenant
	}

	return doc
}

// resolveTenant walks parent references until it reaches an entity that
// carries a tenant directly.
func (s *Service) resolveTenant(ctx context.Context, e entity.Entity) (string, error) {
	cur := e
	for depth := 0; depth < maxChainDepth; depth++ {
		if cur.TenantID != "" {
			return cur.TenantID, nil
		}
		if !cur.HasParent() {
			return "", fmt.Errorf("%s %d has no parent and no tenant", cur.Type, cur.ID)
		}
		parent, ok, err := s.parents.FindByID(ctx, cur.ParentType, cur.ParentID)
		if err != nil {
			return "", fmt.Errorf("load %s %d: %w", cur.ParentType, cur.ParentID, err)
		}
		if !ok {
			return "", fmt.Errorf("%s %d references missing %s %d",
				cur.Type, cur.ID, cur.ParentType, cur.ParentID)
		}
		cur = parent
	}
	return "", fmt.Errorf("ownership chain deeper than %d", maxChainDepth)
}

func metadataFor(e entity.Entity) map[string]string {
	m := make(map[string]string)
	if e.Latitude != nil && e.Longitude != nil {
		m["latitude"] = strconv.FormatFloat(*e.Latitude, 'f', -1, 64)
		m["longitude"] = strconv.FormatFloat(*e.Longitude, 'f', -1, 64)
	}
	if e.HasParent() {
		m["parent_type"] = string(e.ParentType)
		m["parent_id"] = strconv.FormatInt(e.ParentID, 10)
	}
	return m
}
