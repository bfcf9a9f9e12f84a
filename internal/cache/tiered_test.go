package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/minato/kizami/internal/config"
	"github.com/minato/kizami/internal/embedding"
	"github.com/minato/kizami/internal/kvstore"
	"github.com/minato/kizami/internal/vector"
)

func testCacheConfig() *config.CacheConfig {
	return &config.CacheConfig{
		Tier1:               config.TierConfig{MaxSize: 100, TTL: time.Hour},
		Tier2:               config.TierConfig{MaxSize: 100, TTL: time.Hour},
		Tier3:               config.TierConfig{MaxSize: 100, TTL: time.Hour},
		SimilarityThreshold: 0.85,
	}
}

func newTestCache(t *testing.T, cfg *config.CacheConfig) *TieredCache {
	t.Helper()
	embedder := embedding.NewMockEmbedder(64)
	index, err := vector.NewMemoryIndex(64)
	if err != nil {
		t.Fatalf("create index: %v", err)
	}
	return NewTieredCache(kvstore.NewMemoryStore(), embedder, index, cfg, nil)
}

func TestExactRoundTrip(t *testing.T) {
	c := newTestCache(t, testCacheConfig())
	ctx := context.Background()

	content := "the lecture covers gradient descent"
	key := DeriveKey(content, "")
	value := json.RawMessage(`{"text":"a summary"}`)

	if err := c.Put(ctx, key, value, 1, content); err != nil {
		t.Fatalf("put: %v", err)
	}
	got, tier := c.Get(ctx, key, content)
	if tier != 1 {
		t.Fatalf("expected tier 1 hit, got tier %d", tier)
	}
	if string(got) != string(value) {
		t.Errorf("value mismatch: got %s, want %s", got, value)
	}
}

func TestMissOnEmptyCache(t *testing.T) {
	c := newTestCache(t, testCacheConfig())
	value, tier := c.Get(context.Background(), DeriveKey("anything", ""), "anything")
	if tier != 0 || value != nil {
		t.Errorf("expected miss on empty cache, got tier %d value %s", tier, value)
	}
}

func TestTierIsolation(t *testing.T) {
	c := newTestCache(t, testCacheConfig())
	ctx := context.Background()
	key := DeriveKey("isolated content", "")
	value := json.RawMessage(`{"text":"x"}`)

	// Stored only in tier 3, so tier 1 probe misses and tier 3 catches it.
	if err := c.Put(ctx, key, value, 3, "isolated content"); err != nil {
		t.Fatalf("put: %v", err)
	}
	_, tier := c.Get(ctx, key, "")
	if tier != 3 {
		t.Fatalf("expected tier 3 hit, got tier %d", tier)
	}
}

func TestSemanticHitOnSimilarContent(t *testing.T) {
	c := newTestCache(t, testCacheConfig())
	ctx := context.Background()

	content := "neural networks are trained with backpropagation"
	key := DeriveKey(content, "q1")
	value := json.RawMessage(`{"text":"answer"}`)
	if err := c.Put(ctx, key, value, 2, content); err != nil {
		t.Fatalf("put: %v", err)
	}

	// Different key (different query), identical content: the mock embedder
	// produces the same vector, so similarity is 1.0 and tier 2 hits.
	otherKey := DeriveKey(content, "q2")
	got, tier := c.Get(ctx, otherKey, content)
	if tier != 2 {
		t.Fatalf("expected tier 2 hit, got tier %d", tier)
	}
	if string(got) != string(value) {
		t.Errorf("value mismatch: got %s", got)
	}
}

func TestSemanticMissBelowThreshold(t *testing.T) {
	c := newTestCache(t, testCacheConfig())
	ctx := context.Background()

	if err := c.Put(ctx, DeriveKey("content about cooking pasta", ""), json.RawMessage(`{}`), 2, "content about cooking pasta"); err != nil {
		t.Fatalf("put: %v", err)
	}
	_, tier := c.Get(ctx, DeriveKey("quantum field theory lecture", ""), "quantum field theory lecture")
	if tier == 2 {
		t.Error("unrelated content should not hit tier 2")
	}
}

func TestSummaryPrefixMatch(t *testing.T) {
	c := newTestCache(t, testCacheConfig())
	ctx := context.Background()

	key := DeriveKey("summary content", "")
	if err := c.Put(ctx, key, json.RawMessage(`{"text":"s"}`), 3, ""); err != nil {
		t.Fatalf("put: %v", err)
	}
	// A probe key sharing the first 8 characters matches the stored key.
	probe := key[:8] + "0000000000000000000000000000000000000000000000000000000000"
	_, tier := c.Get(ctx, probe, "")
	if tier != 3 {
		t.Fatalf("expected tier 3 prefix hit, got tier %d", tier)
	}
}

func TestInvalidTierRejected(t *testing.T) {
	c := newTestCache(t, testCacheConfig())
	err := c.Put(context.Background(), "key", json.RawMessage(`{}`), 4, "")
	if err == nil {
		t.Fatal("expected error for tier 4")
	}
	if err := c.Put(context.Background(), "key", json.RawMessage(`{}`), 0, ""); err == nil {
		t.Fatal("expected error for tier 0")
	}
}

func TestEvictionBoundsTierSize(t *testing.T) {
	cfg := testCacheConfig()
	cfg.Tier1.MaxSize = 100
	c := newTestCache(t, cfg)
	ctx := context.Background()

	keys := make([]string, 150)
	for i := range keys {
		keys[i] = DeriveKey(fmt.Sprintf("content %d", i), "")
		if err := c.Put(ctx, keys[i], json.RawMessage(`{"text":"v"}`), 1, ""); err != nil {
			t.Fatalf("put %d: %v", i, err)
		}
	}

	stats := c.Stats(ctx)
	if stats.Tier1Size != 100 {
		t.Fatalf("expected tier 1 size 100 after eviction, got %d", stats.Tier1Size)
	}
	// Oldest entries are gone, newest remain.
	if _, tier := c.Get(ctx, keys[0], ""); tier != 0 {
		t.Error("oldest entry should have been evicted")
	}
	if _, tier := c.Get(ctx, keys[149], ""); tier != 1 {
		t.Error("newest entry should still be cached")
	}
}

func TestClearTier(t *testing.T) {
	c := newTestCache(t, testCacheConfig())
	ctx := context.Background()

	k1 := DeriveKey("one", "")
	k2 := DeriveKey("two", "")
	if err := c.Put(ctx, k1, json.RawMessage(`{}`), 1, ""); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := c.Put(ctx, k2, json.RawMessage(`{}`), 2, "two"); err != nil {
		t.Fatalf("put: %v", err)
	}

	if err := c.Clear(ctx, 1); err != nil {
		t.Fatalf("clear tier 1: %v", err)
	}
	stats := c.Stats(ctx)
	if stats.Tier1Size != 0 {
		t.Errorf("tier 1 not empty after clear: %d", stats.Tier1Size)
	}
	if stats.Tier2Size != 1 {
		t.Errorf("tier 2 should be untouched: %d", stats.Tier2Size)
	}

	if err := c.Clear(ctx, 0); err != nil {
		t.Fatalf("clear all: %v", err)
	}
	stats = c.Stats(ctx)
	if stats.TotalSize != 0 {
		t.Errorf("cache not empty after clear all: %d", stats.TotalSize)
	}
}

func TestStatsCountersAccumulate(t *testing.T) {
	c := newTestCache(t, testCacheConfig())
	ctx := context.Background()

	content := "stats content"
	key := DeriveKey(content, "")
	if err := c.Put(ctx, key, json.RawMessage(`{}`), 1, content); err != nil {
		t.Fatalf("put: %v", err)
	}

	c.Get(ctx, key, content)                          // tier 1 hit
	c.Get(ctx, key, content)                          // tier 1 hit
	c.Get(ctx, DeriveKey("absent", ""), "absent")     // miss
	c.Get(ctx, DeriveKey("absent 2", ""), "absent 2") // miss

	stats := c.Stats(ctx)
	if stats.Tier1Hits != 2 {
		t.Errorf("tier 1 hits: got %d, want 2", stats.Tier1Hits)
	}
	if stats.Misses != 2 {
		t.Errorf("misses: got %d, want 2", stats.Misses)
	}
	if stats.TotalRequests != 4 {
		t.Errorf("total requests: got %d, want 4", stats.TotalRequests)
	}
	if stats.HitRate != 0.5 {
		t.Errorf("hit rate: got %f, want 0.5", stats.HitRate)
	}
}

func TestTTLExpiry(t *testing.T) {
	cfg := testCacheConfig()
	cfg.Tier1.TTL = 10 * time.Millisecond
	c := newTestCache(t, cfg)
	ctx := context.Background()

	key := DeriveKey("short lived", "")
	if err := c.Put(ctx, key, json.RawMessage(`{}`), 1, ""); err != nil {
		t.Fatalf("put: %v", err)
	}
	time.Sleep(30 * time.Millisecond)
	if _, tier := c.Get(ctx, key, ""); tier != 0 {
		t.Errorf("expected expired entry to miss, got tier %d", tier)
	}
}
