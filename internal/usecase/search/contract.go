package search

import (
	"context"
	"time"

	"github.com/gridwatch/searchsync/internal/domain"
	"github.com/gridwatch/searchsync/internal/domain/document"
	"github.com/gridwatch/searchsync/internal/domain/entity"
)

// Repository queries one entity type's index. An empty query string matches
// every document in scope.
type Repository interface {
	SearchTenant(ctx context.Context, t entity.Type, tenant, query string) ([]document.Document, error)
	SearchAll(ctx context.Context, t entity.Type, query string) ([]document.Document, error)
}

// Recorder collects query latency samples for SLA reporting.
type Recorder interface {
	Record(tenant, queryType string, d time.Duration)
}

// Auditor persists a record of an executed search.
type Auditor interface {
	SearchExecuted(ctx context.Context, caller domain.Identity, query string, hits int) error
}

// Notifier tells the requesting user their search finished.
type Notifier interface {
	SearchCompleted(ctx context.Context, userID, query string, hits int) error
}
