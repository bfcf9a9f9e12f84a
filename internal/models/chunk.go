package models

import "time"

// Chunk is a contiguous span of a transcript treated as one unit for caching
// and inference. Chunks are built once and read-only afterward.
type Chunk struct {
	ID        string  `json:"chunk_id"`
	StartTime float64 `json:"start_time"`
	EndTime   float64 `json:"end_time"`
	Duration  float64 `json:"duration"`

	// Transcription is the concatenated text of the contained transcript
	// segments in time order.
	Transcription string              `json:"transcription"`
	Transcript    []TranscriptSegment `json:"transcript_segments,omitempty"`
	Speakers      []SpeakerSegment    `json:"speakers,omitempty"`
	Scenes        []SceneSegment      `json:"scenes,omitempty"`
	Topics        []TopicSegment      `json:"topics,omitempty"`

	// CoherenceScore is the [0,1] semantic self-similarity of the chunk's text.
	CoherenceScore float64 `json:"coherence_score"`
	// FragmentationPenalty is the [0,1] measure of time gaps between the
	// chunk's underlying segments.
	FragmentationPenalty float64 `json:"fragmentation_penalty"`
	// Method identifies the strategy that produced this chunk.
	Method string `json:"chunking_method"`
}

// ProcessingResult is the outcome of running one chunk through the inference API,
// or of serving it from the cache.
type ProcessingResult struct {
	ChunkID          string    `json:"chunk_id"`
	ResponseText     string    `json:"response_text"`
	ModelUsed        string    `json:"model_used"`
	TokensUsed       int       `json:"tokens_used"`
	Cost             float64   `json:"cost"`
	ProcessingTimeMS int64     `json:"processing_time_ms"`
	CacheHit         bool      `json:"cache_hit"`
	CacheTier        int       `json:"cache_tier,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

// PipelineMetrics is the roll-up for one pipeline run.
type PipelineMetrics struct {
	TotalDurationMS  int64   `json:"total_duration_ms"`
	TotalTokens      int     `json:"total_tokens"`
	TotalCost        float64 `json:"total_cost"`
	CacheHits        int     `json:"cache_hits"`
	CacheMisses      int     `json:"cache_misses"`
	CacheHitRate     float64 `json:"cache_hit_rate"`
	NumChunks        int     `json:"num_chunks"`
	AvgChunkDuration float64 `json:"avg_chunk_duration"`
	APICalls         int     `json:"api_calls"`
}
