package index

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/gridwatch/searchsync/internal/db"
	"github.com/gridwatch/searchsync/internal/domain/document"
	"github.com/gridwatch/searchsync/internal/domain/entity"
)

// --- Mocks ---

type mockStore struct {
	hashes   map[string]map[string]string
	indexes  map[string]bool
	searchBy map[string]*db.SearchResult

	hsetErr   error
	delErr    error
	searchErr error

	deleted       []string
	createdDefs   []*db.IndexDefinition
	lastSearchIdx string
	lastQuery     string
	lastLimit     int
}

func newMockStore() *mockStore {
	return &mockStore{
		hashes:   make(map[string]map[string]string),
		indexes:  make(map[string]bool),
		searchBy: make(map[string]*db.SearchResult),
	}
}

func (m *mockStore) HSet(_ context.Context, key string, fields map[string]string) error {
	if m.hsetErr != nil {
		return m.hsetErr
	}
	m.hashes[key] = fields
	return nil
}

func (m *mockStore) Del(_ context.Context, key string) error {
	if m.delErr != nil {
		return m.delErr
	}
	m.deleted = append(m.deleted, key)
	delete(m.hashes, key)
	return nil
}

func (m *mockStore) Scan(_ context.Context, pattern string) ([]string, error) {
	prefix := strings.TrimSuffix(pattern, "*")
	var keys []string
	for k := range m.hashes {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	return keys, nil
}

func (m *mockStore) CreateIndex(_ context.Context, def *db.IndexDefinition) error {
	if m.indexes[def.Name] {
		return db.ErrIndexExists
	}
	m.indexes[def.Name] = true
	m.createdDefs = append(m.createdDefs, def)
	return nil
}

func (m *mockStore) IndexExists(_ context.Context, name string) (bool, error) {
	return m.indexes[name], nil
}

func (m *mockStore) SearchList(_ context.Context, index, query string, _, limit int, _ []string) (*db.SearchResult, error) {
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	m.lastSearchIdx = index
	m.lastQuery = query
	m.lastLimit = limit
	return m.searchBy[index], nil
}

func (m *mockStore) SearchCount(_ context.Context, index, _ string) (int, error) {
	if sr := m.searchBy[index]; sr != nil {
		return sr.Total, nil
	}
	return 0, nil
}

func TestEnsureIndexes(t *testing.T) {
	store := newMockStore()
	repo := New(store)

	if err := repo.EnsureIndexes(context.Background()); err != nil {
		t.Fatalf("EnsureIndexes: %v", err)
	}
	if len(store.createdDefs) != len(entity.All()) {
		t.Fatalf("created %d indexes, want %d", len(store.createdDefs), len(entity.All()))
	}

	def := store.createdDefs[0]
	if def.Name != "searchsync:organization:idx" {
		t.Errorf("index name = %q", def.Name)
	}
	if len(def.Prefixes) != 1 || def.Prefixes[0] != "searchsync:organization:" {
		t.Errorf("prefixes = %v", def.Prefixes)
	}
	fieldTypes := make(map[string]db.IndexFieldType)
	for _, f := range def.Fields {
		fieldTypes[f.Name] = f.Type
	}
	if fieldTypes["tenant"] != db.IndexFieldTag || fieldTypes["name"] != db.IndexFieldText {
		t.Errorf("schema fields wrong: %v", fieldTypes)
	}

	// Second run must leave existing indexes alone.
	if err := repo.EnsureIndexes(context.Background()); err != nil {
		t.Fatalf("second EnsureIndexes: %v", err)
	}
	if len(store.createdDefs) != len(entity.All()) {
		t.Errorf("existing indexes recreated")
	}
}

func TestUpsert(t *testing.T) {
	store := newMockStore()
	repo := New(store)

	doc := document.Document{
		EntityID:    42,
		EntityType:  entity.Sensor,
		TenantID:    "t1",
		Name:        "Flow meter",
		Description: "inlet pipe",
		Status:      "active",
		Metadata:    map[string]string{"parent_type": "zone", "parent_id": "7"},
	}
	if err := repo.Upsert(context.Background(), doc); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	fields, ok := store.hashes["searchsync:sensor:42"]
	if !ok {
		t.Fatalf("document not written, keys: %v", store.hashes)
	}
	if fields["tenant"] != "t1" || fields["name"] != "Flow meter" {
		t.Errorf("stored fields wrong: %v", fields)
	}
	if fields["meta:parent_id"] != "7" {
		t.Errorf("metadata not namespaced: %v", fields)
	}
}

func TestUpsertRejectsIncompleteDocument(t *testing.T) {
	repo := New(newMockStore())

	if err := repo.Upsert(context.Background(), document.Document{EntityType: entity.Sensor}); err == nil {
		t.Error("expected error for missing entity id")
	}
	if err := repo.Upsert(context.Background(), document.Document{EntityID: 1}); err == nil {
		t.Error("expected error for missing entity type")
	}
}

func TestDeleteIsIdempotent(t *testing.T) {
	store := newMockStore()
	repo := New(store)

	if err := repo.Delete(context.Background(), entity.Zone, 5); err != nil {
		t.Fatalf("Delete of absent document: %v", err)
	}
	if err := repo.Delete(context.Background(), entity.Zone, 5); err != nil {
		t.Fatalf("second Delete: %v", err)
	}
	if len(store.deleted) != 2 || store.deleted[0] != "searchsync:zone:5" {
		t.Errorf("deleted keys = %v", store.deleted)
	}
}

func TestSearchTenant(t *testing.T) {
	store := newMockStore()
	store.searchBy["searchsync:zone:idx"] = &db.SearchResult{
		Total: 3,
		Entries: []db.SearchEntry{
			{Key: "searchsync:zone:1", Fields: map[string]string{
				"id": "1", "tenant": "t1", "name": "Pump Hall", "status": "active",
			}},
			{Key: "searchsync:zone:2", Fields: map[string]string{
				"id": "2", "tenant": "t1", "name": "Control Room", "status": "active",
			}},
			{Key: "searchsync:zone:3", Fields: map[string]string{
				"id": "3", "tenant": "t1", "name": "PUMP annex", "status": "active",
			}},
		},
	}
	repo := New(store)

	docs, err := repo.SearchTenant(context.Background(), entity.Zone, "t1", "pump")
	if err != nil {
		t.Fatalf("SearchTenant: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("len(docs) = %d, want 2 (case-insensitive substring)", len(docs))
	}
	if docs[0].EntityID != 1 || docs[1].EntityID != 3 {
		t.Errorf("matched ids = %d, %d", docs[0].EntityID, docs[1].EntityID)
	}

	// The tenant filter must reach the index query.
	if store.lastQuery != db.TagFilter("tenant", "t1") {
		t.Errorf("query = %q, want tenant tag filter", store.lastQuery)
	}
}

func TestSearchTenantRequiresTenant(t *testing.T) {
	repo := New(newMockStore())

	if _, err := repo.SearchTenant(context.Background(), entity.Zone, "", "pump"); err == nil {
		t.Error("expected error for empty tenant")
	}
}

func TestSearchAllMatchesEverything(t *testing.T) {
	store := newMockStore()
	store.searchBy["searchsync:sensor:idx"] = &db.SearchResult{
		Total: 1,
		Entries: []db.SearchEntry{
			{Key: "searchsync:sensor:9", Fields: map[string]string{
				"tenant": "t2", "name": "Voltmeter",
			}},
		},
	}
	repo := New(store)

	docs, err := repo.SearchAll(context.Background(), entity.Sensor, "")
	if err != nil {
		t.Fatalf("SearchAll: %v", err)
	}
	if store.lastQuery != db.MatchAll {
		t.Errorf("query = %q, want %q", store.lastQuery, db.MatchAll)
	}
	if len(docs) != 1 {
		t.Fatalf("len(docs) = %d, want 1", len(docs))
	}
	// The id field is absent; it must fall back to the key suffix.
	if docs[0].EntityID != 9 {
		t.Errorf("EntityID = %d, want 9 from key suffix", docs[0].EntityID)
	}
	if docs[0].TenantID != "t2" {
		t.Errorf("TenantID = %q", docs[0].TenantID)
	}
}

func TestSearchPropagatesStoreErrors(t *testing.T) {
	store := newMockStore()
	store.searchErr = errors.New("index unavailable")
	repo := New(store)

	if _, err := repo.SearchTenant(context.Background(), entity.Zone, "t1", "x"); err == nil {
		t.Error("expected error from failing store")
	}
}

func TestClear(t *testing.T) {
	store := newMockStore()
	store.hashes["searchsync:zone:1"] = map[string]string{"name": "a"}
	store.hashes["searchsync:zone:2"] = map[string]string{"name": "b"}
	store.hashes["searchsync:sensor:1"] = map[string]string{"name": "c"}
	repo := New(store)

	if err := repo.Clear(context.Background(), entity.Zone); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if len(store.deleted) != 2 {
		t.Errorf("deleted %d keys, want 2", len(store.deleted))
	}
	if _, ok := store.hashes["searchsync:sensor:1"]; !ok {
		t.Error("Clear removed another type's documents")
	}
}
