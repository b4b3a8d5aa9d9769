package health

import "context"

// IndexPinger checks index-store availability.
type IndexPinger interface {
	Ping(ctx context.Context) error
}

// PrimaryPinger checks primary-store availability.
type PrimaryPinger interface {
	Ping(ctx context.Context) error
}
