// Package db abstracts the index store behind backend-neutral interfaces.
package db

import (
	"context"
	"time"
)

// Store is the index-store facade combining all sub-interfaces. Consumers
// depend on narrow sub-interfaces (ISP); the facade exists for wiring.
type Store interface {
	Pinger
	HashStore
	IndexManager
	Searcher
	Publisher
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks index-store connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HashStore provides hash-based document storage operations.
type HashStore interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	Del(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	Scan(ctx context.Context, pattern string) ([]string, error)
}

// IndexManager provides FT index lifecycle operations.
type IndexManager interface {
	CreateIndex(ctx context.Context, def *IndexDefinition) error
	DropIndex(ctx context.Context, name string) error
	IndexExists(ctx context.Context, name string) (bool, error)
}

// Searcher provides query operations over FT indexes.
type Searcher interface {
	SearchList(ctx context.Context, index, query string, offset, limit int, fields []string) (*SearchResult, error)
	SearchCount(ctx context.Context, index, query string) (int, error)
}

// Publisher fans messages out over the store's pub/sub bus.
type Publisher interface {
	Publish(ctx context.Context, channel string, payload []byte) error
}
