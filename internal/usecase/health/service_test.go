package health

import (
	"context"
	"errors"
	"testing"
)

// --- Mocks ---

type mockCollection struct {
	n   int
	err error
}

func (m *mockCollection) Len(_ context.Context) (int, error) { return m.n, m.err }

type mockPinger struct {
	err error
}

func (m *mockPinger) Ping(_ context.Context) error { return m.err }

type mockEmbeddingChecker struct {
	err error
}

func (m *mockEmbeddingChecker) HealthCheck(_ context.Context) error { return m.err }

// --- Tests ---

func TestCheck_AllHealthy(t *testing.T) {
	svc := New(&mockCollection{n: 3}, &mockPinger{}, &mockEmbeddingChecker{})
	r := svc.Check(context.Background())

	if r.Status != Healthy {
		t.Errorf("expected %q, got %q", Healthy, r.Status)
	}
	if r.Checks["collection"] != CheckOK {
		t.Errorf("expected collection %q, got %q", CheckOK, r.Checks["collection"])
	}
	if r.Checks["store"] != CheckOK {
		t.Errorf("expected store %q, got %q", CheckOK, r.Checks["store"])
	}
	if r.Checks["embedding"] != CheckOK {
		t.Errorf("expected embedding %q, got %q", CheckOK, r.Checks["embedding"])
	}
}

func TestCheck_CollectionError(t *testing.T) {
	svc := New(&mockCollection{err: errors.New("content dir missing")}, &mockPinger{}, nil)
	r := svc.Check(context.Background())

	if r.Status != Degraded {
		t.Errorf("expected %q, got %q", Degraded, r.Status)
	}
	if r.Checks["collection"] != CheckError {
		t.Errorf("expected collection %q, got %q", CheckError, r.Checks["collection"])
	}
}

func TestCheck_EmptyCollection(t *testing.T) {
	svc := New(&mockCollection{n: 0}, nil, nil)
	r := svc.Check(context.Background())

	if r.Status != Degraded {
		t.Errorf("expected %q, got %q", Degraded, r.Status)
	}
	if r.Checks["collection"] != CheckError {
		t.Error("expected collection error for empty snapshot")
	}
}

func TestCheck_EmbeddingError(t *testing.T) {
	svc := New(&mockCollection{n: 1}, &mockPinger{}, &mockEmbeddingChecker{err: errors.New("timeout")})
	r := svc.Check(context.Background())

	if r.Status != Degraded {
		t.Errorf("expected %q, got %q", Degraded, r.Status)
	}
	if r.Checks["collection"] != CheckOK {
		t.Errorf("expected collection %q, got %q", CheckOK, r.Checks["collection"])
	}
	if r.Checks["embedding"] != CheckError {
		t.Errorf("expected embedding %q, got %q", CheckError, r.Checks["embedding"])
	}
}

func TestCheck_OptionalChecksAbsent(t *testing.T) {
	svc := New(&mockCollection{n: 1}, nil, nil)
	r := svc.Check(context.Background())

	if r.Status != Healthy {
		t.Errorf("expected %q, got %q", Healthy, r.Status)
	}
	if _, ok := r.Checks["store"]; ok {
		t.Error("store check should be absent when store is nil")
	}
	if _, ok := r.Checks["embedding"]; ok {
		t.Error("embedding check should be absent when embedding is nil")
	}
}

func TestCheck_StoreError(t *testing.T) {
	svc := New(&mockCollection{n: 1}, &mockPinger{err: errors.New("conn refused")}, nil)
	r := svc.Check(context.Background())

	if r.Status != Degraded {
		t.Errorf("expected %q, got %q", Degraded, r.Status)
	}
	if r.Checks["store"] != CheckError {
		t.Error("expected store error")
	}
}
