// Package vector provides nearest-neighbor search over fixed-dimension vectors.
package vector

import "context"

// Index is a nearest-neighbor vector index. Implementations keep the vector
// storage and the id side table as one owned structure so that element order
// and id mapping cannot drift.
type Index interface {
	// Add appends vectors under the given ids.
	Add(ctx context.Context, ids []string, vectors [][]float32) error
	// Search returns the top-k entries by inner product (cosine similarity for
	// normalized vectors), best first.
	Search(ctx context.Context, query []float32, k int) ([]*Result, error)
	// Remove drops the entries with the given ids.
	Remove(ctx context.Context, ids []string) error
	// Reset empties the index.
	Reset() error
	// Size returns the number of stored vectors.
	Size() int
	Close() error
}

// Result is a single vector search hit.
type Result struct {
	ID    string
	Score float64
}
