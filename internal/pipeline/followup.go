package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/minato/kizami/internal/cache"
	"github.com/minato/kizami/internal/inference"
	"github.com/minato/kizami/internal/keyword"
)

// followUpContextChunks is how many retrieved chunks feed a follow-up prompt.
const followUpContextChunks = 5

// Answer is the response to a follow-up question.
type Answer struct {
	Query            string                    `json:"query"`
	Text             string                    `json:"text"`
	ModelUsed        string                    `json:"model_used,omitempty"`
	TokensUsed       int                       `json:"tokens_used"`
	Cost             float64                   `json:"cost"`
	CacheHit         bool                      `json:"cache_hit"`
	CacheTier        int                       `json:"cache_tier,omitempty"`
	ProcessingTimeMS int64                     `json:"processing_time_ms"`
	Sources          []*keyword.ChunkDocument `json:"sources,omitempty"`
}

// FollowUp answers a question about already-processed content: it retrieves
// the most relevant chunk transcripts from the keyword index, builds a context
// prompt, and answers it through the cache and inference client.
func (p *Pipeline) FollowUp(ctx context.Context, query string) (*Answer, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("query must not be empty")
	}
	if p.chunkIndex == nil {
		return nil, fmt.Errorf("follow-up questions require the chunk index")
	}
	started := time.Now()

	hits, err := p.chunkIndex.Search(ctx, query, followUpContextChunks)
	if err != nil {
		return nil, fmt.Errorf("search chunks: %w", err)
	}
	if len(hits) == 0 {
		return &Answer{
			Query:            query,
			Text:             "No processed content matches this question.",
			ProcessingTimeMS: time.Since(started).Milliseconds(),
		}, nil
	}

	var contextText strings.Builder
	sources := make([]*keyword.ChunkDocument, 0, len(hits))
	for _, hit := range hits {
		fmt.Fprintf(&contextText, "[%.1fs-%.1fs] %s\n", hit.Doc.StartTime, hit.Doc.EndTime, hit.Doc.Text)
		sources = append(sources, hit.Doc)
	}

	answer := &Answer{Query: query, Sources: sources}
	key := cache.DeriveKey(contextText.String(), query)
	if value, tier := p.cache.Get(ctx, key, contextText.String()); tier > 0 {
		var cached cachedAnswer
		if err := json.Unmarshal(value, &cached); err == nil {
			answer.Text = cached.Text
			answer.ModelUsed = cached.Model
			answer.CacheHit = true
			answer.CacheTier = tier
			answer.ProcessingTimeMS = time.Since(started).Milliseconds()
			return answer, nil
		}
		p.logger.Warn("discarding unreadable cached answer", zap.String("key", key))
	}

	prompt := fmt.Sprintf("Context from the video:\n%s\nQuestion: %s", contextText.String(), query)
	resp, err := p.client.Answer(ctx, &inference.Request{Prompt: prompt})
	if err != nil {
		return nil, fmt.Errorf("answer follow-up: %w", err)
	}

	answer.Text = resp.Text
	answer.ModelUsed = resp.Model
	answer.TokensUsed = resp.TokensUsed
	answer.Cost = resp.Cost
	answer.ProcessingTimeMS = time.Since(started).Milliseconds()

	p.writeback(ctx, key, contextText.String(), query, resp)
	return answer, nil
}
