package health

import (
	"context"
	"errors"
	"testing"
)

// --- Mocks ---

type mockPinger struct {
	err error
}

func (m *mockPinger) Ping(_ context.Context) error { return m.err }

// --- Tests ---

func TestCheck_AllHealthy(t *testing.T) {
	svc := New(&mockPinger{}, &mockPinger{})
	r := svc.Check(context.Background())

	if r.Status != Healthy {
		t.Errorf("expected %q, got %q", Healthy, r.Status)
	}
	if r.Checks["index_store"] != CheckOK {
		t.Errorf("expected index_store %q, got %q", CheckOK, r.Checks["index_store"])
	}
	if r.Checks["primary_store"] != CheckOK {
		t.Errorf("expected primary_store %q, got %q", CheckOK, r.Checks["primary_store"])
	}
}

func TestCheck_IndexStoreError(t *testing.T) {
	svc := New(&mockPinger{err: errors.New("conn refused")}, &mockPinger{})
	r := svc.Check(context.Background())

	if r.Status != Degraded {
		t.Errorf("expected %q, got %q", Degraded, r.Status)
	}
	if r.Checks["index_store"] != CheckError {
		t.Errorf("expected index_store %q, got %q", CheckError, r.Checks["index_store"])
	}
	if r.Checks["primary_store"] != CheckOK {
		t.Errorf("expected primary_store %q, got %q", CheckOK, r.Checks["primary_store"])
	}
}

func TestCheck_NilPrimary(t *testing.T) {
	svc := New(&mockPinger{}, nil)
	r := svc.Check(context.Background())

	if r.Status != Healthy {
		t.Errorf("expected %q, got %q", Healthy, r.Status)
	}
	if _, ok := r.Checks["primary_store"]; ok {
		t.Error("expected no primary_store check when pinger is nil")
	}
}
