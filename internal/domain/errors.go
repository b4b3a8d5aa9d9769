package domain

import "errors"

var (
	// ErrAuthenticationRequired signals a search call without a caller identity.
	ErrAuthenticationRequired = errors.New("authentication required")
	// ErrAuthorizationDenied signals a non-privileged caller attempting a
	// cross-tenant operation.
	ErrAuthorizationDenied = errors.New("authorization denied")
	// ErrUnknownEntityType signals a request naming an unsupported entity type.
	ErrUnknownEntityType = errors.New("unknown entity type")
	// ErrEntityNotFound signals a missing primary-store entity.
	ErrEntityNotFound = errors.New("entity not found")
)

// KeyPrefix namespaces every key the service writes into the index store.
const KeyPrefix = "searchsync:"
