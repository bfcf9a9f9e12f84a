package embedding

import (
	"context"
	"math"
	"testing"
)

func TestMockEmbedderDeterministic(t *testing.T) {
	e := NewMockEmbedder(64)
	a, err := e.Embed(context.Background(), "some text")
	if err != nil {
		t.Fatalf("embed: %v", err)
	}
	b, err := e.Embed(context.Background(), "some text")
	if err != nil {
		t.Fatalf("embed: %v", err)
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("embeddings differ at %d: %f vs %f", i, a[i], b[i])
		}
	}
}

func TestMockEmbedderDistinctTexts(t *testing.T) {
	e := NewMockEmbedder(64)
	a, _ := e.Embed(context.Background(), "alpha")
	b, _ := e.Embed(context.Background(), "beta")
	same := true
	for i := range a {
		if a[i] != b[i] {
			same = false
			break
		}
	}
	if same {
		t.Error("different texts produced identical embeddings")
	}
}

func TestMockEmbedderNormalized(t *testing.T) {
	e := NewMockEmbedder(128)
	emb, _ := e.Embed(context.Background(), "normalize me")
	if len(emb) != 128 {
		t.Fatalf("dimension %d, want 128", len(emb))
	}
	var norm float64
	for _, v := range emb {
		norm += float64(v) * float64(v)
	}
	if math.Abs(math.Sqrt(norm)-1.0) > 1e-5 {
		t.Errorf("vector not unit length: %f", math.Sqrt(norm))
	}
}

func TestLRUCacheEviction(t *testing.T) {
	c := newLRUCache(2)
	c.set("a", []float32{1})
	c.set("b", []float32{2})
	if _, ok := c.get("a"); !ok {
		t.Fatal("a should be cached")
	}
	// a is now most recent; adding c evicts b.
	c.set("c", []float32{3})
	if _, ok := c.get("b"); ok {
		t.Error("b should have been evicted")
	}
	if _, ok := c.get("a"); !ok {
		t.Error("a should survive")
	}
	if _, ok := c.get("c"); !ok {
		t.Error("c should be cached")
	}
}
