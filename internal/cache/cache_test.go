package cache

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func openTestStore(t *testing.T, ttl time.Duration) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "cache.db"), ttl)
	if err != nil {
		t.Fatalf("open cache: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestPutGetRoundTrip(t *testing.T) {
	s := openTestStore(t, time.Minute)
	ctx := context.Background()

	url := "https://api.pollbase.example/v1/analytics/overview"
	if err := s.Put(ctx, url, []byte(`{"active_forms":4}`)); err != nil {
		t.Fatalf("put: %v", err)
	}

	got, err := s.Get(ctx, url)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(got) != `{"active_forms":4}` {
		t.Errorf("unexpected data: %s", got)
	}
}

func TestGetMissForUnknownURL(t *testing.T) {
	s := openTestStore(t, time.Minute)
	if _, err := s.Get(context.Background(), "https://api.pollbase.example/nope"); !errors.Is(err, ErrMiss) {
		t.Fatalf("expected ErrMiss, got %v", err)
	}
}

func TestExpiredEntryIsAMiss(t *testing.T) {
	s := openTestStore(t, time.Minute)
	ctx := context.Background()

	url := "https://api.pollbase.example/v1/forms"
	if err := s.Put(ctx, url, []byte(`[]`)); err != nil {
		t.Fatal(err)
	}

	s.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	if _, err := s.Get(ctx, url); !errors.Is(err, ErrMiss) {
		t.Fatalf("expected ErrMiss after TTL, got %v", err)
	}
}

func TestPutOverwritesExisting(t *testing.T) {
	s := openTestStore(t, time.Minute)
	ctx := context.Background()

	url := "https://api.pollbase.example/v1/forms"
	if err := s.Put(ctx, url, []byte(`old`)); err != nil {
		t.Fatal(err)
	}
	if err := s.Put(ctx, url, []byte(`new`)); err != nil {
		t.Fatal(err)
	}

	got, err := s.Get(ctx, url)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "new" {
		t.Errorf("expected new, got %s", got)
	}
}

func TestPruneRemovesOnlyExpired(t *testing.T) {
	s := openTestStore(t, time.Minute)
	ctx := context.Background()

	if err := s.Put(ctx, "https://a.example/stale", []byte(`1`)); err != nil {
		t.Fatal(err)
	}

	// Advance past the first entry's expiry, then write a fresh one.
	base := time.Now()
	s.now = func() time.Time { return base.Add(2 * time.Minute) }
	if err := s.Put(ctx, "https://a.example/fresh", []byte(`2`)); err != nil {
		t.Fatal(err)
	}

	n, err := s.Prune(ctx)
	if err != nil {
		t.Fatalf("prune: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 pruned entry, got %d", n)
	}
	if _, err := s.Get(ctx, "https://a.example/fresh"); err != nil {
		t.Errorf("fresh entry should survive prune: %v", err)
	}
}

func TestClear(t *testing.T) {
	s := openTestStore(t, time.Minute)
	ctx := context.Background()

	if err := s.Put(ctx, "https://a.example/x", []byte(`1`)); err != nil {
		t.Fatal(err)
	}
	if err := s.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if _, err := s.Get(ctx, "https://a.example/x"); !errors.Is(err, ErrMiss) {
		t.Fatalf("expected ErrMiss after clear, got %v", err)
	}
}

func TestOpenRejectsZeroTTL(t *testing.T) {
	if _, err := Open(filepath.Join(t.TempDir(), "cache.db"), 0); err == nil {
		t.Fatal("expected error for zero ttl")
	}
}

func TestPersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")
	ctx := context.Background()

	s, err := Open(path, time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Put(ctx, "https://a.example/x", []byte(`persisted`)); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	s2, err := Open(path, time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	defer s2.Close()

	got, err := s2.Get(ctx, "https://a.example/x")
	if err != nil {
		t.Fatalf("get after reopen: %v", err)
	}
	if string(got) != "persisted" {
		t.Errorf("unexpected data: %s", got)
	}
}
