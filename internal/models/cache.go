package models

import (
	"encoding/json"
	"time"
)

// CacheEntry is one stored value in the three-tier cache.
type CacheEntry struct {
	Key         string          `json:"key"`
	Value       json.RawMessage `json:"value"`
	CreatedAt   time.Time       `json:"created_at"`
	AccessCount int             `json:"access_count"`
	SizeBytes   int             `json:"size_bytes"`
	Tier        int             `json:"tier"`
	// Content is the raw text the key was derived from. Tier 2 embeds it for
	// similarity search; other tiers ignore it.
	Content string `json:"content,omitempty"`
}

// CacheStats is a point-in-time snapshot of cache counters and sizes.
// Counters are monotonically non-decreasing for the lifetime of one cache.
type CacheStats struct {
	Tier1Hits     int64   `json:"tier1_hits"`
	Tier2Hits     int64   `json:"tier2_hits"`
	Tier3Hits     int64   `json:"tier3_hits"`
	Misses        int64   `json:"misses"`
	TotalRequests int64   `json:"total_requests"`
	HitRate       float64 `json:"hit_rate"`
	Tier1Size     int     `json:"tier1_size"`
	Tier2Size     int     `json:"tier2_size"`
	Tier3Size     int     `json:"tier3_size"`
	TotalSize     int     `json:"total_size"`
}
