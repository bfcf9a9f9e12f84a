package chunker

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/minato/kizami/internal/config"
	"github.com/minato/kizami/internal/models"
	"github.com/minato/kizami/internal/segment"
)

// Builder materializes a break-point partition into immutable chunk records.
type Builder struct {
	cfg      *config.ChunkingConfig
	strategy Strategy
	scorer   Scorer
	logger   *zap.Logger
}

// NewBuilder creates a builder with the given strategy and similarity scorer.
// A nil strategy gets the rule-based selector; a nil scorer makes coherence
// fall back to its fixed defaults.
func NewBuilder(cfg *config.ChunkingConfig, strategy Strategy, scorer Scorer, logger *zap.Logger) *Builder {
	if strategy == nil {
		strategy = NewRuleBased(cfg)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Builder{cfg: cfg, strategy: strategy, scorer: scorer, logger: logger}
}

// methodTag names the strategy in the produced chunks.
func (b *Builder) methodTag() string {
	if _, ok := b.strategy.(*StepPolicy); ok {
		return "policy"
	}
	return "rule_based"
}

// Build partitions the store's signals into time-ordered, non-overlapping
// chunks. Spans shorter than min_chunk_duration are dropped, including the
// whole video when its duration is below the minimum.
func (b *Builder) Build(ctx context.Context, store *segment.Store, duration float64) []*models.Chunk {
	if duration == 0 {
		duration = store.Duration
	}
	points := b.strategy.BreakPoints(store, duration)

	chunks := make([]*models.Chunk, 0, len(points)+1)
	start := 0.0
	for _, end := range points {
		if end-start >= b.cfg.MinChunkDuration {
			chunks = append(chunks, b.buildChunk(ctx, len(chunks), start, end, store))
			start = end
		}
	}
	// Final span up to total duration.
	if duration-start >= b.cfg.MinChunkDuration {
		chunks = append(chunks, b.buildChunk(ctx, len(chunks), start, duration, store))
	}

	if len(chunks) == 0 {
		b.logger.Debug("no chunks produced",
			zap.Float64("duration", duration),
			zap.Float64("min_chunk_duration", b.cfg.MinChunkDuration))
	}
	return chunks
}

func (b *Builder) buildChunk(ctx context.Context, index int, start, end float64, store *segment.Store) *models.Chunk {
	transcript := store.TranscriptIn(start, end)

	texts := make([]string, 0, len(transcript))
	for _, seg := range transcript {
		texts = append(texts, seg.Text)
	}

	return &models.Chunk{
		ID:                   fmt.Sprintf("chunk_%04d", index),
		StartTime:            start,
		EndTime:              end,
		Duration:             end - start,
		Transcription:        strings.Join(texts, " "),
		Transcript:           transcript,
		Speakers:             store.SpeakersIn(start, end),
		Scenes:               store.ScenesIn(start, end),
		Topics:               store.TopicsIn(start, end),
		CoherenceScore:       coherenceScore(ctx, b.scorer, transcript),
		FragmentationPenalty: fragmentationPenalty(start, end, transcript),
		Method:               b.methodTag(),
	}
}
