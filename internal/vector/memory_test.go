package vector

import (
	"context"
	"testing"
)

func TestMemoryIndexSearchOrder(t *testing.T) {
	idx, err := NewMemoryIndex(2)
	if err != nil {
		t.Fatalf("new index: %v", err)
	}
	ctx := context.Background()
	err = idx.Add(ctx,
		[]string{"x", "y", "z"},
		[][]float32{{1, 0}, {0, 1}, {0.7, 0.7}},
	)
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	results, err := idx.Search(ctx, []float32{1, 0}, 2)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if results[0].ID != "x" {
		t.Errorf("best match = %s, want x", results[0].ID)
	}
	if results[1].ID != "z" {
		t.Errorf("second match = %s, want z", results[1].ID)
	}
}

func TestMemoryIndexDimensionMismatch(t *testing.T) {
	idx, _ := NewMemoryIndex(3)
	ctx := context.Background()
	if err := idx.Add(ctx, []string{"a"}, [][]float32{{1, 0}}); err == nil {
		t.Error("expected dimension mismatch error on add")
	}
	if _, err := idx.Search(ctx, []float32{1, 0}, 1); err == nil {
		t.Error("expected dimension mismatch error on search")
	}
}

func TestMemoryIndexRemove(t *testing.T) {
	idx, _ := NewMemoryIndex(2)
	ctx := context.Background()
	_ = idx.Add(ctx, []string{"a", "b"}, [][]float32{{1, 0}, {0, 1}})
	if err := idx.Remove(ctx, []string{"a"}); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if idx.Size() != 1 {
		t.Fatalf("size = %d, want 1", idx.Size())
	}
	results, _ := idx.Search(ctx, []float32{1, 0}, 5)
	for _, r := range results {
		if r.ID == "a" {
			t.Error("removed id still returned")
		}
	}
}

func TestMemoryIndexReset(t *testing.T) {
	idx, _ := NewMemoryIndex(2)
	ctx := context.Background()
	_ = idx.Add(ctx, []string{"a"}, [][]float32{{1, 0}})
	if err := idx.Reset(); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if idx.Size() != 0 {
		t.Errorf("size after reset = %d", idx.Size())
	}
}

func TestMemoryIndexEmptySearch(t *testing.T) {
	idx, _ := NewMemoryIndex(2)
	results, err := idx.Search(context.Background(), []float32{1, 0}, 3)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("expected no results from empty index, got %d", len(results))
	}
}

func TestCosineSimilarityClamped(t *testing.T) {
	if got := CosineSimilarity([]float32{1, 0}, []float32{-1, 0}); got != 0 {
		t.Errorf("negative inner product should clamp to 0, got %f", got)
	}
	if got := CosineSimilarity([]float32{1, 0}, []float32{1, 0}); got != 1 {
		t.Errorf("identical unit vectors should score 1, got %f", got)
	}
}
