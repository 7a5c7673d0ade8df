package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"notifyd/internal/domain"
)

// workFixture builds a deferred-work entry for store tests.
func workFixture(category domain.Category, dt int64, attempt int) domain.DeferredWork {
	return domain.DeferredWork{
		Event: domain.Event{
			Category: category,
			Address:  "5551234567",
			Body:     "hi",
			DT:       dt,
		},
		FireAt:  time.Unix(0, dt*int64(time.Millisecond)).Add(5 * time.Minute),
		Attempt: attempt,
		Reason:  domain.DeferReasonQuietTime,
	}
}

// TestMemoryStoreRoundTrip verifies put/get/delete by stable key.
func TestMemoryStoreRoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := NewMemoryStore()
	work := workFixture(domain.CategorySMS, 1700000000000, 1)

	if err := s.Put(ctx, work); err != nil {
		t.Fatalf("put: %v", err)
	}

	got, err := s.Get(ctx, work.Key())
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Event.Category != domain.CategorySMS || got.Attempt != 1 {
		t.Fatalf("round trip mismatch: %+v", got)
	}

	if err := s.Delete(ctx, work.Key()); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.Get(ctx, work.Key()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("get after delete: got %v, want ErrNotFound", err)
	}
}

// TestMemoryStorePutReplacesSameKey verifies duplicate keys keep one entry.
func TestMemoryStorePutReplacesSameKey(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := NewMemoryStore()
	first := workFixture(domain.CategorySMS, 1700000000000, 1)
	second := first
	second.FireAt = first.FireAt.Add(10 * time.Minute)

	if err := s.Put(ctx, first); err != nil {
		t.Fatalf("put first: %v", err)
	}
	if err := s.Put(ctx, second); err != nil {
		t.Fatalf("put second: %v", err)
	}

	all, err := s.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("entries: got %d, want 1", len(all))
	}
	if !all[0].FireAt.Equal(second.FireAt) {
		t.Fatalf("replacement lost: got %v, want %v", all[0].FireAt, second.FireAt)
	}
}

// TestMemoryStoreList verifies the snapshot covers all categories.
func TestMemoryStoreList(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := NewMemoryStore()
	for i, category := range domain.Categories() {
		if err := s.Put(ctx, workFixture(category, int64(1700000000000+i), 1)); err != nil {
			t.Fatalf("put %s: %v", category, err)
		}
	}

	all, err := s.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != len(domain.Categories()) {
		t.Fatalf("entries: got %d, want %d", len(all), len(domain.Categories()))
	}
}
