// Package pipeline orchestrates segmentation, caching, inference, persistence,
// and indexing for one signal bundle.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/minato/kizami/internal/cache"
	"github.com/minato/kizami/internal/chunker"
	"github.com/minato/kizami/internal/config"
	"github.com/minato/kizami/internal/inference"
	"github.com/minato/kizami/internal/keyword"
	"github.com/minato/kizami/internal/models"
	"github.com/minato/kizami/internal/segment"
	"github.com/minato/kizami/internal/storage"
)

// cachedAnswer is the value stored in the cache for a processed prompt.
type cachedAnswer struct {
	Text  string `json:"text"`
	Model string `json:"model"`
}

// Result is the outcome of processing one bundle.
type Result struct {
	RunID   string                              `json:"run_id"`
	VideoID string                              `json:"video_id"`
	Chunks  []*models.Chunk                     `json:"chunks"`
	Results map[string]*models.ProcessingResult `json:"results"`
	Metrics *models.PipelineMetrics             `json:"metrics"`
}

// Pipeline runs chunks through the cache and inference client with a bounded
// worker pool, persisting results and indexing transcripts for follow-ups.
// Storage and the chunk index are optional; nil disables them.
type Pipeline struct {
	cfg        *config.Config
	builder    *chunker.Builder
	cache      *cache.TieredCache
	client     inference.Client
	store      storage.Storage
	chunkIndex keyword.ChunkIndex
	logger     *zap.Logger
}

// New creates a pipeline from already-constructed components.
func New(cfg *config.Config, builder *chunker.Builder, tiered *cache.TieredCache, client inference.Client, store storage.Storage, chunkIndex keyword.ChunkIndex, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		cfg:        cfg,
		builder:    builder,
		cache:      tiered,
		client:     client,
		store:      store,
		chunkIndex: chunkIndex,
		logger:     logger,
	}
}

// Process segments the bundle into chunks and answers each one, preferring
// cached responses over model calls. Chunks run concurrently up to the
// configured worker count; the result map is keyed by chunk id.
func (p *Pipeline) Process(ctx context.Context, bundle *models.SignalBundle) (*Result, error) {
	start := time.Now()
	store := segment.FromBundle(bundle)
	chunks := p.builder.Build(ctx, store, bundle.Duration)

	runID := uuid.New().String()
	p.logger.Info("processing bundle",
		zap.String("run_id", runID),
		zap.String("video_id", bundle.VideoID),
		zap.Int("chunks", len(chunks)),
	)

	if p.store != nil {
		run := &models.Run{
			RunID:     runID,
			VideoID:   bundle.VideoID,
			Query:     bundle.Query,
			Strategy:  p.cfg.Chunking.Strategy,
			NumChunks: len(chunks),
			CreatedAt: time.Now(),
		}
		if err := p.store.CreateRun(ctx, run); err != nil {
			return nil, fmt.Errorf("create run: %w", err)
		}
	}

	results := make(map[string]*models.ProcessingResult, len(chunks))
	var resultsMu sync.Mutex

	workers := p.cfg.Chunking.Workers
	if workers <= 0 {
		workers = 1
	}
	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup
	for _, chunk := range chunks {
		wg.Add(1)
		sem <- struct{}{}
		go func(c *models.Chunk) {
			defer wg.Done()
			defer func() { <-sem }()
			result := p.processChunk(ctx, c, bundle.Query)
			resultsMu.Lock()
			results[c.ID] = result
			resultsMu.Unlock()
			p.persist(ctx, runID, bundle.VideoID, c, result)
		}(chunk)
	}
	wg.Wait()

	metrics := aggregate(chunks, results, time.Since(start))
	if p.store != nil {
		if err := p.store.UpdateRunMetrics(ctx, runID, metrics); err != nil {
			p.logger.Warn("update run metrics failed", zap.String("run_id", runID), zap.Error(err))
		}
	}

	return &Result{
		RunID:   runID,
		VideoID: bundle.VideoID,
		Chunks:  chunks,
		Results: results,
		Metrics: metrics,
	}, nil
}

// processChunk answers one chunk, consulting the cache before the model. An
// inference failure is recorded in the result text rather than aborting the
// run; other chunks are unaffected.
func (p *Pipeline) processChunk(ctx context.Context, chunk *models.Chunk, query string) *models.ProcessingResult {
	started := time.Now()
	result := &models.ProcessingResult{
		ChunkID:   chunk.ID,
		CreatedAt: started,
	}

	key := cache.DeriveKey(chunk.Transcription, query)
	if value, tier := p.cache.Get(ctx, key, chunk.Transcription); tier > 0 {
		var answer cachedAnswer
		if err := json.Unmarshal(value, &answer); err == nil {
			result.ResponseText = answer.Text
			result.ModelUsed = answer.Model
			result.CacheHit = true
			result.CacheTier = tier
			result.ProcessingTimeMS = time.Since(started).Milliseconds()
			return result
		}
		p.logger.Warn("discarding unreadable cached answer", zap.String("key", key))
	}

	resp, err := p.client.Answer(ctx, &inference.Request{
		Prompt:       buildPrompt(chunk, query),
		VideoSeconds: chunk.Duration,
	})
	if err != nil {
		p.logger.Error("inference failed", zap.String("chunk_id", chunk.ID), zap.Error(err))
		result.ResponseText = fmt.Sprintf("error: %v", err)
		result.ProcessingTimeMS = time.Since(started).Milliseconds()
		return result
	}

	result.ResponseText = resp.Text
	result.ModelUsed = resp.Model
	result.TokensUsed = resp.TokensUsed
	result.Cost = resp.Cost
	result.ProcessingTimeMS = time.Since(started).Milliseconds()

	p.writeback(ctx, key, chunk.Transcription, query, resp)
	return result
}

// writeback stores a fresh answer in the cache: always in tier 1, in tier 2
// when semantic writeback is enabled, and in tier 3 for query-less summary
// responses so overlapping windows can reuse them.
func (p *Pipeline) writeback(ctx context.Context, key, content, query string, resp *inference.Response) {
	value, err := json.Marshal(&cachedAnswer{Text: resp.Text, Model: resp.Model})
	if err != nil {
		p.logger.Warn("marshal answer for cache failed", zap.Error(err))
		return
	}
	if err := p.cache.Put(ctx, key, value, 1, content); err != nil {
		p.logger.Warn("tier 1 writeback failed", zap.Error(err))
	}
	if p.cfg.Cache.SemanticWritebackOrDefault() {
		if err := p.cache.Put(ctx, key, value, 2, content); err != nil {
			p.logger.Warn("tier 2 writeback failed", zap.Error(err))
		}
	}
	if query == "" && p.cfg.Cache.SummaryWritebackOrDefault() {
		if err := p.cache.Put(ctx, key, value, 3, content); err != nil {
			p.logger.Warn("tier 3 writeback failed", zap.Error(err))
		}
	}
}

// persist saves the result row and indexes the chunk transcript. Failures are
// logged; the in-memory result is already complete.
func (p *Pipeline) persist(ctx context.Context, runID, videoID string, chunk *models.Chunk, result *models.ProcessingResult) {
	if p.store != nil {
		if err := p.store.SaveResult(ctx, runID, chunk, result); err != nil {
			p.logger.Warn("save result failed", zap.String("chunk_id", chunk.ID), zap.Error(err))
		}
	}
	if p.chunkIndex != nil && chunk.Transcription != "" {
		doc := &keyword.ChunkDocument{
			VideoID:   videoID,
			ChunkID:   chunk.ID,
			Text:      chunk.Transcription,
			Response:  result.ResponseText,
			StartTime: chunk.StartTime,
			EndTime:   chunk.EndTime,
		}
		if err := p.chunkIndex.Index(ctx, runID+"/"+chunk.ID, doc); err != nil {
			p.logger.Warn("index chunk failed", zap.String("chunk_id", chunk.ID), zap.Error(err))
		}
	}
}

// buildPrompt renders one chunk into a model prompt, with the time window,
// speaker and topic context, and the transcript text.
func buildPrompt(chunk *models.Chunk, query string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Video segment %.1fs-%.1fs.\n", chunk.StartTime, chunk.EndTime)
	if speakers := speakerNames(chunk); len(speakers) > 0 {
		fmt.Fprintf(&b, "Speakers: %s.\n", strings.Join(speakers, ", "))
	}
	if topics := topicNames(chunk); len(topics) > 0 {
		fmt.Fprintf(&b, "Topics: %s.\n", strings.Join(topics, ", "))
	}
	fmt.Fprintf(&b, "Transcript:\n%s\n\n", chunk.Transcription)
	if query != "" {
		fmt.Fprintf(&b, "Question: %s", query)
	} else {
		b.WriteString("Summarize this segment.")
	}
	return b.String()
}

func speakerNames(chunk *models.Chunk) []string {
	seen := make(map[string]struct{})
	var names []string
	for _, s := range chunk.Speakers {
		if _, ok := seen[s.SpeakerID]; !ok {
			seen[s.SpeakerID] = struct{}{}
			names = append(names, s.SpeakerID)
		}
	}
	sort.Strings(names)
	return names
}

func topicNames(chunk *models.Chunk) []string {
	seen := make(map[string]struct{})
	var names []string
	for _, t := range chunk.Topics {
		name := t.TopicName
		if name == "" {
			name = fmt.Sprintf("topic_%d", t.TopicID)
		}
		if _, ok := seen[name]; !ok {
			seen[name] = struct{}{}
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// aggregate rolls per-chunk results into run-level metrics.
func aggregate(chunks []*models.Chunk, results map[string]*models.ProcessingResult, elapsed time.Duration) *models.PipelineMetrics {
	m := &models.PipelineMetrics{
		TotalDurationMS: elapsed.Milliseconds(),
		NumChunks:       len(chunks),
	}
	var chunkSeconds float64
	for _, chunk := range chunks {
		chunkSeconds += chunk.Duration
	}
	if len(chunks) > 0 {
		m.AvgChunkDuration = chunkSeconds / float64(len(chunks))
	}
	for _, r := range results {
		m.TotalTokens += r.TokensUsed
		m.TotalCost += r.Cost
		if r.CacheHit {
			m.CacheHits++
		} else {
			m.CacheMisses++
			m.APICalls++
		}
	}
	if total := m.CacheHits + m.CacheMisses; total > 0 {
		m.CacheHitRate = float64(m.CacheHits) / float64(total)
	}
	return m
}
