package cache

import (
	"context"
	"testing"
	"time"
)

func TestMemoryStorePutGetForget(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	if _, ok, err := store.Get(ctx, "missing"); err != nil || ok {
		t.Fatalf("expected clean miss, got ok=%v err=%v", ok, err)
	}

	if err := store.Put(ctx, "k", []byte("v"), time.Minute); err != nil {
		t.Fatal(err)
	}
	val, ok, err := store.Get(ctx, "k")
	if err != nil || !ok {
		t.Fatalf("expected hit, got ok=%v err=%v", ok, err)
	}
	if string(val) != "v" {
		t.Fatalf("unexpected value %q", val)
	}

	if err := store.Forget(ctx, "k"); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := store.Get(ctx, "k"); ok {
		t.Fatal("expected miss after forget")
	}

	// Forgetting an absent key is not an error.
	if err := store.Forget(ctx, "k"); err != nil {
		t.Fatal(err)
	}
}

func TestMemoryStoreExpiry(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	if err := store.Put(ctx, "k", []byte("v"), time.Hour); err != nil {
		t.Fatal(err)
	}

	now = now.Add(59 * time.Minute)
	if _, ok, _ := store.Get(ctx, "k"); !ok {
		t.Fatal("entry must still be live before its TTL")
	}

	now = now.Add(2 * time.Minute)
	if _, ok, _ := store.Get(ctx, "k"); ok {
		t.Fatal("entry must expire after its TTL")
	}
}
