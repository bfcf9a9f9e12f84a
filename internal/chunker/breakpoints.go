// Package chunker partitions a time-ordered transcript into bounded-duration
// chunks using multimodal break-point signals.
package chunker

import (
	"sort"

	"github.com/minato/kizami/internal/config"
	"github.com/minato/kizami/internal/segment"
	"github.com/minato/kizami/pkg/utils"
)

// Strategy produces a strictly increasing sequence of break times to be used
// as a chunk partition.
type Strategy interface {
	BreakPoints(s *segment.Store, duration float64) []float64
}

// RuleBased fuses speaker, scene, topic, and sentence-boundary signals into
// candidate break times, then greedily enforces minimum spacing. It enforces a
// hard lower bound on inter-chunk spacing but no upper bound: long uniform
// stretches can produce chunks well beyond max_chunk_duration.
type RuleBased struct {
	cfg *config.ChunkingConfig
}

// NewRuleBased returns the default rule-based break-point selector.
func NewRuleBased(cfg *config.ChunkingConfig) *RuleBased {
	return &RuleBased{cfg: cfg}
}

// BreakPoints collects candidate cut times from all four signal sources,
// deduplicates and sorts them, and keeps a candidate only if it is at least
// min_chunk_duration past the last kept one (starting from time 0).
func (r *RuleBased) BreakPoints(s *segment.Store, duration float64) []float64 {
	candidates := make(map[float64]struct{})

	for _, seg := range s.Speakers {
		if seg.Confidence >= r.cfg.SpeakerChangeThreshold {
			candidates[seg.StartTime] = struct{}{}
			candidates[seg.EndTime] = struct{}{}
		}
	}
	for _, seg := range s.Scenes {
		if seg.Confidence >= r.cfg.SceneChangeThreshold {
			candidates[seg.StartTime] = struct{}{}
		}
	}
	// Topic boundaries are always treated as meaningful.
	for _, seg := range s.Topics {
		candidates[seg.StartTime] = struct{}{}
		candidates[seg.EndTime] = struct{}{}
	}
	for _, seg := range s.Transcript {
		if utils.EndsSentence(seg.Text) {
			candidates[seg.EndTime] = struct{}{}
		}
	}

	sorted := make([]float64, 0, len(candidates))
	for t := range candidates {
		sorted = append(sorted, t)
	}
	sort.Float64s(sorted)

	points := make([]float64, 0, len(sorted))
	last := 0.0
	for _, t := range sorted {
		if t-last >= r.cfg.MinChunkDuration {
			points = append(points, t)
			last = t
		}
	}
	return points
}
