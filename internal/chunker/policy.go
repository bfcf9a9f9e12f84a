package chunker

import (
	"github.com/minato/kizami/internal/config"
	"github.com/minato/kizami/internal/segment"
)

// Action is a cut-or-continue decision at one timeline position.
type Action int

const (
	// Continue extends the current chunk past this position.
	Continue Action = iota
	// Cut ends the current chunk at this position.
	Cut
)

// PolicyState is the scalar pipeline state a Policy decides on.
type PolicyState struct {
	// Position is the current time normalized by total duration.
	Position float64
	// CurrentSpan is the length in seconds of the chunk being accumulated.
	CurrentSpan float64
	// ChunksCut is the number of cuts already made.
	ChunksCut int
}

// Policy decides whether to cut a chunk at the current position. It is the
// seam for plugging in a trained decision policy; the engine ships only a
// heuristic implementation.
type Policy interface {
	Decide(state PolicyState) Action
}

// DurationPressurePolicy cuts once the accumulated span reaches the soft
// maximum chunk duration. It is deterministic, so the resulting partition is
// reproducible for the same inputs.
type DurationPressurePolicy struct {
	MaxChunkDuration float64
}

// Decide cuts when the current span has reached the maximum chunk duration.
func (p *DurationPressurePolicy) Decide(state PolicyState) Action {
	if state.CurrentSpan >= p.MaxChunkDuration {
		return Cut
	}
	return Continue
}

// StepPolicy walks the timeline in fixed steps and asks a Policy whether to
// cut at each position. Cuts closer than min_chunk_duration to the previous
// cut are rejected regardless of the policy's answer.
type StepPolicy struct {
	cfg    *config.ChunkingConfig
	policy Policy
}

// NewStepPolicy wraps policy as a break-point strategy. A nil policy gets the
// duration-pressure heuristic.
func NewStepPolicy(cfg *config.ChunkingConfig, policy Policy) *StepPolicy {
	if policy == nil {
		policy = &DurationPressurePolicy{MaxChunkDuration: cfg.MaxChunkDuration}
	}
	return &StepPolicy{cfg: cfg, policy: policy}
}

// BreakPoints steps through [0, duration] and records each accepted cut.
func (s *StepPolicy) BreakPoints(store *segment.Store, duration float64) []float64 {
	if duration <= 0 || s.cfg.PolicyStep <= 0 {
		return nil
	}
	points := make([]float64, 0)
	last := 0.0
	for pos := s.cfg.PolicyStep; pos < duration; pos += s.cfg.PolicyStep {
		state := PolicyState{
			Position:    pos / duration,
			CurrentSpan: pos - last,
			ChunksCut:   len(points),
		}
		if s.policy.Decide(state) != Cut {
			continue
		}
		if pos-last < s.cfg.MinChunkDuration {
			continue
		}
		points = append(points, pos)
		last = pos
	}
	return points
}
