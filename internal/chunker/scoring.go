package chunker

import (
	"context"

	"github.com/minato/kizami/internal/embedding"
	"github.com/minato/kizami/internal/models"
	"github.com/minato/kizami/internal/vector"
	"github.com/minato/kizami/pkg/utils"
)

const (
	// scoreSingleSentence is the coherence of a chunk with fewer than two sentences.
	scoreSingleSentence = 1.0
	// scoreFallback is used when the similarity scorer fails; scoring failures
	// are never propagated to the caller.
	scoreFallback = 0.8
)

// Scorer measures semantic similarity between two texts in [0,1].
type Scorer interface {
	Similarity(ctx context.Context, a, b string) (float64, error)
}

// EmbeddingScorer scores text pairs by cosine similarity of their embeddings.
type EmbeddingScorer struct {
	embedder embedding.Embedder
}

// NewEmbeddingScorer returns a scorer backed by the given embedder.
func NewEmbeddingScorer(e embedding.Embedder) *EmbeddingScorer {
	return &EmbeddingScorer{embedder: e}
}

// Similarity embeds both texts and returns their cosine similarity.
func (s *EmbeddingScorer) Similarity(ctx context.Context, a, b string) (float64, error) {
	va, err := s.embedder.Embed(ctx, a)
	if err != nil {
		return 0, err
	}
	vb, err := s.embedder.Embed(ctx, b)
	if err != nil {
		return 0, err
	}
	return vector.CosineSimilarity(va, vb), nil
}

// coherenceScore is the mean pairwise similarity of the chunk's sentence list.
// Fewer than two sentences scores 1.0; a scorer failure scores 0.8.
func coherenceScore(ctx context.Context, scorer Scorer, segs []models.TranscriptSegment) float64 {
	if len(segs) < 2 {
		return scoreSingleSentence
	}
	if scorer == nil {
		return scoreFallback
	}
	scores := make([]float64, 0, len(segs)*(len(segs)-1)/2)
	for i := 0; i < len(segs); i++ {
		for j := i + 1; j < len(segs); j++ {
			score, err := scorer.Similarity(ctx, segs[i].Text, segs[j].Text)
			if err != nil {
				return scoreFallback
			}
			scores = append(scores, score)
		}
	}
	return utils.Clamp01(utils.Mean(scores))
}

// fragmentationPenalty is the mean positive gap between consecutive contained
// sentences, normalized by chunk duration and clamped to [0,1]. Fewer than two
// sentences, or no positive gaps, scores 0.
func fragmentationPenalty(start, end float64, segs []models.TranscriptSegment) float64 {
	if len(segs) < 2 {
		return 0.0
	}
	gaps := make([]float64, 0, len(segs)-1)
	for i := 0; i < len(segs)-1; i++ {
		gap := segs[i+1].StartTime - segs[i].EndTime
		if gap > 0 {
			gaps = append(gaps, gap)
		}
	}
	if len(gaps) == 0 {
		return 0.0
	}
	duration := end - start
	if duration <= 0 {
		return 0.0
	}
	return utils.Clamp01(utils.Mean(gaps) / duration)
}
