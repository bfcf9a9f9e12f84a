// Package keyword provides keyword search over processed chunk transcripts,
// used to retrieve context for follow-up questions.
package keyword

import "context"

// ChunkDocument is what gets indexed per processed chunk.
type ChunkDocument struct {
	VideoID   string  `json:"video_id"`
	ChunkID   string  `json:"chunk_id"`
	Text      string  `json:"text"`
	Response  string  `json:"response"`
	StartTime float64 `json:"start_time"`
	EndTime   float64 `json:"end_time"`
}

// ChunkIndex defines keyword search operations over chunk documents.
type ChunkIndex interface {
	Index(ctx context.Context, id string, doc *ChunkDocument) error
	Search(ctx context.Context, query string, limit int) ([]*Result, error)
	Delete(ctx context.Context, id string) error
	DocCount() (uint64, error)
	Close() error
}

// Result is a single keyword search hit with the stored document fields.
type Result struct {
	ID    string
	Score float64
	Doc   *ChunkDocument
}
