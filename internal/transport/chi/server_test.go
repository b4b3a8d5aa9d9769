package chi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/gridwatch/searchsync/internal/domain"
	"github.com/gridwatch/searchsync/internal/domain/document"
	"github.com/gridwatch/searchsync/internal/domain/entity"
	healthuc "github.com/gridwatch/searchsync/internal/usecase/health"
	monitoruc "github.com/gridwatch/searchsync/internal/usecase/monitor"
	searchuc "github.com/gridwatch/searchsync/internal/usecase/search"
	syncuc "github.com/gridwatch/searchsync/internal/usecase/sync"
)

// --- Mocks ---

type fixedRepo struct {
	docs []document.Document
}

func (r *fixedRepo) SearchTenant(_ context.Context, t entity.Type, tenant, _ string) ([]document.Document, error) {
	var out []document.Document
	for _, d := range r.docs {
		if d.EntityType == t && d.TenantID == tenant {
			out = append(out, d)
		}
	}
	return out, nil
}

func (r *fixedRepo) SearchAll(_ context.Context, t entity.Type, _ string) ([]document.Document, error) {
	var out []document.Document
	for _, d := range r.docs {
		if d.EntityType == t {
			out = append(out, d)
		}
	}
	return out, nil
}

type noopEntities struct{}

func (noopEntities) FindAll(_ context.Context, _ entity.Type) ([]entity.Entity, error) {
	return nil, nil
}

type noopIndex struct{}

func (noopIndex) Upsert(_ context.Context, _ document.Document) error { return nil }

func (noopIndex) Delete(_ context.Context, _ entity.Type, _ int64) error { return nil }

type noopProjector struct{}

func (noopProjector) Project(_ context.Context, e entity.Entity) document.Document {
	return document.Document{EntityID: e.ID, EntityType: e.Type}
}

var (
	testAlice = domain.Identity{UserID: "alice", Tenant: "t1"}
	testAdmin = domain.Identity{UserID: "root", Admin: true}
)

func newTestRouter(t *testing.T, docs []document.Document) (chi.Router, *monitoruc.Service) {
	t.Helper()

	monitorSvc := monitoruc.New(100)
	searchSvc := searchuc.New(&fixedRepo{docs: docs}, monitorSvc, nil, zap.NewNop())
	syncSvc := syncuc.New(noopEntities{}, noopIndex{}, noopProjector{},
		syncuc.Config{Workers: 1, QueueSize: 4}, zap.NewNop())
	t.Cleanup(syncSvc.Close)

	server := NewServer(searchSvc, syncSvc, monitorSvc, healthuc.New(nil, nil), zap.NewNop())

	r := chi.NewRouter()
	server.Routes(r)
	return r, monitorSvc
}

func do(r chi.Router, method, target string, id *domain.Identity) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	if id != nil {
		req = req.WithContext(ContextWithIdentity(req.Context(), *id))
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestSearchEndpoint(t *testing.T) {
	router, _ := newTestRouter(t, []document.Document{
		{EntityID: 1, EntityType: entity.Zone, TenantID: "t1", Name: "Pump Hall", Status: "active"},
		{EntityID: 2, EntityType: entity.Zone, TenantID: "t2", Name: "Pump Annex", Status: "active"},
	})

	rec := do(router, http.MethodGet, "/search?q=pump", &testAlice)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var resp searchResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Total != 1 || len(resp.Items) != 1 {
		t.Fatalf("total = %d, items = %d, want 1/1", resp.Total, len(resp.Items))
	}
	if resp.Items[0].Tenant != "t1" || resp.Items[0].Name != "Pump Hall" {
		t.Errorf("item = %+v", resp.Items[0])
	}
}

func TestSearchRequiresIdentity(t *testing.T) {
	router, _ := newTestRouter(t, nil)

	rec := do(router, http.MethodGet, "/search?q=pump", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}

	var resp errorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Code != "unauthorized" {
		t.Errorf("code = %q", resp.Code)
	}
}

func TestAdminSearchForbiddenForTenantCaller(t *testing.T) {
	router, _ := newTestRouter(t, nil)

	if rec := do(router, http.MethodGet, "/admin/search?q=x", &testAlice); rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rec.Code)
	}
	if rec := do(router, http.MethodGet, "/admin/search?q=x", &testAdmin); rec.Code != http.StatusOK {
		t.Errorf("admin status = %d, want 200", rec.Code)
	}
}

func TestSearchBadParams(t *testing.T) {
	router, _ := newTestRouter(t, nil)

	if rec := do(router, http.MethodGet, "/search?types=tractor", &testAlice); rec.Code != http.StatusBadRequest {
		t.Errorf("unknown type: status = %d, want 400", rec.Code)
	}
	if rec := do(router, http.MethodGet, "/search?page=-1", &testAlice); rec.Code != http.StatusBadRequest {
		t.Errorf("negative page: status = %d, want 400", rec.Code)
	}
	if rec := do(router, http.MethodGet, "/search?page_size=abc", &testAlice); rec.Code != http.StatusBadRequest {
		t.Errorf("non-numeric page size: status = %d, want 400", rec.Code)
	}
}

func TestResyncEndpoints(t *testing.T) {
	router, _ := newTestRouter(t, nil)

	if rec := do(router, http.MethodPost, "/admin/resync", &testAlice); rec.Code != http.StatusForbidden {
		t.Errorf("non-admin resync: status = %d, want 403", rec.Code)
	}
	if rec := do(router, http.MethodPost, "/admin/resync", nil); rec.Code != http.StatusUnauthorized {
		t.Errorf("anonymous resync: status = %d, want 401", rec.Code)
	}

	rec := do(router, http.MethodPost, "/admin/resync", &testAdmin)
	if rec.Code != http.StatusOK {
		t.Fatalf("admin resync: status = %d", rec.Code)
	}
	var resp resyncResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}

	if rec := do(router, http.MethodPost, "/admin/resync/sensor", &testAdmin); rec.Code != http.StatusOK {
		t.Errorf("typed resync: status = %d", rec.Code)
	}
	if rec := do(router, http.MethodPost, "/admin/resync/tractor", &testAdmin); rec.Code != http.StatusBadRequest {
		t.Errorf("unknown type resync: status = %d, want 400", rec.Code)
	}
}

func TestQueryStatsEndpoints(t *testing.T) {
	router, monitorSvc := newTestRouter(t, nil)
	monitorSvc.Record("t1", "federated_search", 80*time.Millisecond)
	monitorSvc.Record("t1", "federated_search", 1700*time.Millisecond)
	monitorSvc.Record("t2", "federated_search", 300*time.Millisecond)

	t.Run("overall requires admin", func(t *testing.T) {
		if rec := do(router, http.MethodGet, "/querystats", &testAlice); rec.Code != http.StatusForbidden {
			t.Errorf("status = %d, want 403", rec.Code)
		}
	})

	t.Run("overall stats", func(t *testing.T) {
		rec := do(router, http.MethodGet, "/querystats", &testAdmin)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		var resp statsResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if resp.Count != 3 || resp.MaxMS != 1700 {
			t.Errorf("stats = %+v", resp)
		}
	})

	t.Run("own tenant stats allowed", func(t *testing.T) {
		rec := do(router, http.MethodGet, "/querystats/tenant/t1", &testAlice)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		var resp statsResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if resp.Count != 2 {
			t.Errorf("count = %d, want 2", resp.Count)
		}
	})

	t.Run("cross-tenant stats forbidden", func(t *testing.T) {
		if rec := do(router, http.MethodGet, "/querystats/tenant/t2", &testAlice); rec.Code != http.StatusForbidden {
			t.Errorf("status = %d, want 403", rec.Code)
		}
		if rec := do(router, http.MethodGet, "/querystats/tenant/t2", &testAdmin); rec.Code != http.StatusOK {
			t.Errorf("admin status = %d, want 200", rec.Code)
		}
	})

	t.Run("slow queries", func(t *testing.T) {
		rec := do(router, http.MethodGet, "/querystats/slow?limit=5", &testAdmin)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		var resp []slowQueryResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if len(resp) != 1 || resp[0].DurationMS != 1700 {
			t.Errorf("slow = %+v", resp)
		}

		if rec := do(router, http.MethodGet, "/querystats/slow?limit=x", &testAdmin); rec.Code != http.StatusBadRequest {
			t.Errorf("bad limit: status = %d, want 400", rec.Code)
		}
	})

	t.Run("distribution and sla", func(t *testing.T) {
		rec := do(router, http.MethodGet, "/querystats/distribution", &testAdmin)
		if rec.Code != http.StatusOK {
			t.Fatalf("distribution status = %d", rec.Code)
		}
		var dist distributionResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &dist); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if dist.Under100MS != 1 || dist.From1000To2000 != 1 {
			t.Errorf("distribution = %+v", dist)
		}

		rec = do(router, http.MethodGet, "/querystats/sla", &testAdmin)
		if rec.Code != http.StatusOK {
			t.Fatalf("sla status = %d", rec.Code)
		}
		var sla slaResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &sla); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if sla.Samples != 3 || sla.SlowCount != 1 {
			t.Errorf("sla = %+v", sla)
		}
	})

	t.Run("clear", func(t *testing.T) {
		if rec := do(router, http.MethodDelete, "/querystats", &testAdmin); rec.Code != http.StatusNoContent {
			t.Fatalf("status = %d, want 204", rec.Code)
		}
		rec := do(router, http.MethodGet, "/querystats", &testAdmin)
		var resp statsResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if resp.Count != 0 {
			t.Errorf("count after clear = %d", resp.Count)
		}
	})
}

func TestHealthEndpoint(t *testing.T) {
	router, _ := newTestRouter(t, nil)

	rec := do(router, http.MethodGet, "/health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp healthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != string(healthuc.Healthy) {
		t.Errorf("status = %q", resp.Status)
	}
}
