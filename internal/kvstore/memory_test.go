package kvstore

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	if err := s.SetWithTTL(ctx, "k", []byte("v"), 0); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, err := s.Get(ctx, "k")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(got) != "v" {
		t.Errorf("got %q, want %q", got, "v")
	}
}

func TestMemoryStoreNotFound(t *testing.T) {
	s := NewMemoryStore()
	_, err := s.Get(context.Background(), "absent")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryStoreTTL(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	if err := s.SetWithTTL(ctx, "k", []byte("v"), 10*time.Millisecond); err != nil {
		t.Fatalf("set: %v", err)
	}
	time.Sleep(30 * time.Millisecond)
	if _, err := s.Get(ctx, "k"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected expired key to be gone, got %v", err)
	}
	keys, err := s.Keys(ctx, "")
	if err != nil {
		t.Fatalf("keys: %v", err)
	}
	if len(keys) != 0 {
		t.Errorf("expired key still listed: %v", keys)
	}
}

func TestMemoryStoreKeysInsertionOrder(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if err := s.SetWithTTL(ctx, fmt.Sprintf("p:%d", i), []byte("v"), 0); err != nil {
			t.Fatalf("set: %v", err)
		}
	}
	// Overwriting an existing key must not move it to the back.
	if err := s.SetWithTTL(ctx, "p:0", []byte("v2"), 0); err != nil {
		t.Fatalf("set: %v", err)
	}

	keys, err := s.Keys(ctx, "p:")
	if err != nil {
		t.Fatalf("keys: %v", err)
	}
	want := []string{"p:0", "p:1", "p:2", "p:3", "p:4"}
	if len(keys) != len(want) {
		t.Fatalf("got %d keys, want %d", len(keys), len(want))
	}
	for i, k := range keys {
		if k != want[i] {
			t.Errorf("keys[%d] = %s, want %s", i, k, want[i])
		}
	}
}

func TestMemoryStoreKeysPrefixFilter(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	_ = s.SetWithTTL(ctx, "a:1", []byte("v"), 0)
	_ = s.SetWithTTL(ctx, "b:1", []byte("v"), 0)
	_ = s.SetWithTTL(ctx, "a:2", []byte("v"), 0)

	keys, err := s.Keys(ctx, "a:")
	if err != nil {
		t.Fatalf("keys: %v", err)
	}
	if len(keys) != 2 || keys[0] != "a:1" || keys[1] != "a:2" {
		t.Errorf("unexpected keys: %v", keys)
	}
}

func TestMemoryStoreDelete(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	_ = s.SetWithTTL(ctx, "k1", []byte("v"), 0)
	_ = s.SetWithTTL(ctx, "k2", []byte("v"), 0)
	if err := s.Delete(ctx, "k1", "missing"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.Get(ctx, "k1"); !errors.Is(err, ErrNotFound) {
		t.Error("k1 should be deleted")
	}
	if _, err := s.Get(ctx, "k2"); err != nil {
		t.Errorf("k2 should survive: %v", err)
	}
}
