package chi

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gridwatch/searchsync/internal/config"
	"github.com/gridwatch/searchsync/internal/domain"
)

func authTestHandler(captured *domain.Identity) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*captured = IdentityFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
}

func TestBearerAuthMiddleware(t *testing.T) {
	tokens := []config.AuthToken{
		{Token: "alice-token", UserID: "alice", Tenant: "t1"},
		{Token: "root-token", UserID: "root", Admin: true},
	}
	mw := BearerAuthMiddleware(tokens)

	run := func(path, header string) domain.Identity {
		var captured domain.Identity
		req := httptest.NewRequest(http.MethodGet, path, nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		mw(authTestHandler(&captured)).ServeHTTP(httptest.NewRecorder(), req)
		return captured
	}

	t.Run("known token resolves identity", func(t *testing.T) {
		id := run("/search", "Bearer alice-token")
		if id.UserID != "alice" || id.Tenant != "t1" || id.Admin {
			t.Errorf("identity = %+v", id)
		}
	})

	t.Run("admin token", func(t *testing.T) {
		id := run("/search", "Bearer root-token")
		if id.UserID != "root" || !id.Admin {
			t.Errorf("identity = %+v", id)
		}
	})

	t.Run("unknown token passes through unauthenticated", func(t *testing.T) {
		id := run("/search", "Bearer forged")
		if id.Authenticated() {
			t.Errorf("forged token produced identity %+v", id)
		}
	})

	t.Run("missing header passes through", func(t *testing.T) {
		if id := run("/search", ""); id.Authenticated() {
			t.Errorf("missing header produced identity %+v", id)
		}
	})

	t.Run("malformed header passes through", func(t *testing.T) {
		if id := run("/search", "Basic abc"); id.Authenticated() {
			t.Error("non-bearer scheme produced an identity")
		}
	})

	t.Run("exempt paths skip token lookup", func(t *testing.T) {
		if id := run("/health", "Bearer alice-token"); id.Authenticated() {
			t.Error("exempt path should not resolve an identity")
		}
	})
}

func TestIdentityFromContextZeroValue(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/search", nil)
	id := IdentityFromContext(req.Context())
	if id.Authenticated() {
		t.Errorf("empty context produced identity %+v", id)
	}
}
