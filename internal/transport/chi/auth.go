package chi

import (
	"context"
	"net/http"
	"strings"

	"github.com/gridwatch/searchsync/internal/config"
	"github.com/gridwatch/searchsync/internal/domain"
)

// exemptPaths are routes that bypass authentication (health, metrics).
var exemptPaths = map[string]struct{}{
	"/health":  {},
	"/metrics": {},
}

type identityKey struct{}

// IdentityFromContext extracts the authenticated caller from the context.
// The zero Identity is returned for unauthenticated requests.
func IdentityFromContext(ctx context.Context) domain.Identity {
	if id, ok := ctx.Value(identityKey{}).(domain.Identity); ok {
		return id
	}
	return domain.Identity{}
}

// ContextWithIdentity stores a caller identity in the context (used by tests).
func ContextWithIdentity(ctx context.Context, id domain.Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// BearerAuthMiddleware returns a middleware that resolves Bearer tokens into
// caller identities. Unknown or missing tokens pass through without an
// identity; the search layer rejects unauthenticated calls itself, so the
// Unauthorized condition has a single owner.
func BearerAuthMiddleware(tokens []config.AuthToken) func(http.Handler) http.Handler {
	identities := make(map[string]domain.Identity, len(tokens))
	for _, t := range tokens {
		if t.Token != "" {
			identities[t.Token] = domain.Identity{UserID: t.UserID, Tenant: t.Tenant, Admin: t.Admin}
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := exemptPaths[r.URL.Path]; ok {
				next.ServeHTTP(w, r)
				return
			}

			auth := r.Header.Get("Authorization")
			const bearerPrefix = "Bearer "
			if !strings.HasPrefix(auth, bearerPrefix) {
				next.ServeHTTP(w, r)
				return
			}

			id, ok := identities[auth[len(bearerPrefix):]]
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(ContextWithIdentity(r.Context(), id)))
		})
	}
}
