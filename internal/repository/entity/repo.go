// Package entity reads source entities from the primary store.
package entity

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	domentity "github.com/gridwatch/searchsync/internal/domain/entity"
)

// tableSpec describes how one entity type maps onto the platform schema.
type tableSpec struct {
	table      string
	parentCol  string
	parentType domentity.Type
	hasTenant  bool
	hasGeo     bool
}

var tables = map[domentity.Type]tableSpec{
	domentity.Organization: {table: "organizations", hasTenant: true},
	domentity.Location:     {table: "locations", parentCol: "organization_id", parentType: domentity.Organization, hasGeo: true},
	domentity.Zone:         {table: "zones", parentCol: "location_id", parentType: domentity.Location},
	domentity.Sensor:       {table: "sensors", parentCol: "zone_id", parentType: domentity.Zone, hasGeo: true},
	domentity.Report:       {table: "reports", parentCol: "organization_id", parentType: domentity.Organization},
	domentity.Dashboard:    {table: "dashboards", parentCol: "organization_id", parentType: domentity.Organization},
}

// Repo implements usecase/sync.EntityReader and usecase/project.ParentResolver.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a primary-store reader.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Ping checks primary-store connectivity.
func (r *Repo) Ping(ctx context.Context) error {
	if err := r.pool.Ping(ctx); err != nil {
		return fmt.Errorf("ping primary store: %w", err)
	}
	return nil
}

// FindAll enumerates every entity of one type.
func (r *Repo) FindAll(ctx context.Context, t domentity.Type) ([]domentity.Entity, error) {
	spec, ok := tables[t]
	if !ok {
		return nil, fmt.Errorf("unknown entity type %q", t)
	}

	rows, err := r.pool.Query(ctx, selectQuery(spec, false))
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", spec.table, err)
	}
	defer rows.Close()

	var entities []domentity.Entity
	for rows.Next() {
		e, err := scanEntity(rows, t, spec)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", spec.table, err)
		}
		entities = append(entities, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", spec.table, err)
	}
	return entities, nil
}

// FindByID loads one entity. The boolean reports whether it exists.
func (r *Repo) FindByID(ctx context.Context, t domentity.Type, id int64) (domentity.Entity, bool, error) {
	spec, ok := tables[t]
	if !ok {
		return domentity.Entity{}, false, fmt.Errorf("unknown entity type %q", t)
	}

	rows, err := r.pool.Query(ctx, selectQuery(spec, true), id)
	if err != nil {
		return domentity.Entity{}, false, fmt.Errorf("query %s %d: %w", spec.table, id, err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return domentity.Entity{}, false, fmt.Errorf("query %s %d: %w", spec.table, id, err)
		}
		return domentity.Entity{}, false, nil
	}

	e, err := scanEntity(rows, t, spec)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domentity.Entity{}, false, nil
		}
		return domentity.Entity{}, false, fmt.Errorf("scan %s %d: %w", spec.table, id, err)
	}
	return e, true, nil
}

func selectQuery(spec tableSpec, byID bool) string {
	cols := []string{"id", "name", "COALESCE(description, '')", "COALESCE(status, '')"}
	if spec.hasTenant {
		cols = append(cols, "tenant_id")
	}
	if spec.parentCol != "" {
		cols = append(cols, spec.parentCol)
	}
	if spec.hasGeo {
		cols = append(cols, "latitude", "longitude")
	}

	q := fmt.Sprintf("SELECT %s FROM %s", strings.Join(cols, ", "), spec.table)
	if byID {
		q += " WHERE id = $1"
	}
	return q
}

func scanEntity(rows pgx.Rows, t domentity.Type, spec tableSpec) (domentity.Entity, error) {
	e := domentity.Entity{Type: t}

	dest := []any{&e.ID, &e.Name, &e.Description, &e.Status}
	if spec.hasTenant {
		dest = append(dest, &e.TenantID)
	}
	var parentID *int64
	if spec.parentCol != "" {
		dest = append(dest, &parentID)
	}
	if spec.hasGeo {
		dest = append(dest, &e.Latitude, &e.Longitude)
	}

	if err := rows.Scan(dest...); err != nil {
		return domentity.Entity{}, err
	}

	if parentID != nil {
		e.ParentType = spec.parentType
		e.ParentID = *parentID
	}
	return e, nil
}
