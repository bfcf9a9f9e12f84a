package models

import "time"

// Run records one pipeline invocation over a signal bundle.
type Run struct {
	RunID     string           `json:"run_id"`
	VideoID   string           `json:"video_id"`
	Query     string           `json:"query,omitempty"`
	Strategy  string           `json:"strategy"`
	NumChunks int              `json:"num_chunks"`
	CreatedAt time.Time        `json:"created_at"`
	Metrics   *PipelineMetrics `json:"metrics,omitempty"`
}
