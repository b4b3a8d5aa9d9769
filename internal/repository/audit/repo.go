// Package audit persists search audit records in the primary store.
package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gridwatch/searchsync/internal/domain"
)

// Repo implements usecase/search.Auditor.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates an audit repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// SearchExecuted records one executed search query.
func (r *Repo) SearchExecuted(ctx context.Context, caller domain.Identity, query string, hits int) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO search_audit (id, tenant_id, user_id, query, hits, executed_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		uuid.New(), caller.Tenant, caller.UserID, query, hits, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert search audit: %w", err)
	}
	return nil
}
