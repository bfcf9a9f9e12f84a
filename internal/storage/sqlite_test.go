package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/minato/kizami/internal/models"
)

func newTestStorage(t *testing.T) *SQLiteStorage {
	t.Helper()
	s, err := NewSQLiteStorage(filepath.Join(t.TempDir(), "results.db"))
	if err != nil {
		t.Fatalf("create storage: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func testRun(id string) *models.Run {
	return &models.Run{
		RunID:     id,
		VideoID:   "vid_1",
		Query:     "what happened?",
		Strategy:  "rule",
		NumChunks: 2,
		CreatedAt: time.Now(),
	}
}

func TestCreateAndGetRun(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	if err := s.CreateRun(ctx, testRun("run_1")); err != nil {
		t.Fatalf("create run: %v", err)
	}
	got, err := s.GetRun(ctx, "run_1")
	if err != nil {
		t.Fatalf("get run: %v", err)
	}
	if got.VideoID != "vid_1" || got.Query != "what happened?" || got.NumChunks != 2 {
		t.Errorf("unexpected run: %+v", got)
	}
}

func TestGetRunNotFound(t *testing.T) {
	s := newTestStorage(t)
	if _, err := s.GetRun(context.Background(), "missing"); err == nil {
		t.Error("expected error for missing run")
	}
}

func TestUpdateRunMetrics(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	if err := s.CreateRun(ctx, testRun("run_1")); err != nil {
		t.Fatalf("create run: %v", err)
	}
	metrics := &models.PipelineMetrics{
		TotalTokens: 500,
		TotalCost:   0.01,
		CacheHits:   1,
		CacheMisses: 1,
		NumChunks:   2,
	}
	if err := s.UpdateRunMetrics(ctx, "run_1", metrics); err != nil {
		t.Fatalf("update metrics: %v", err)
	}
	got, err := s.GetRun(ctx, "run_1")
	if err != nil {
		t.Fatalf("get run: %v", err)
	}
	if got.Metrics == nil || got.Metrics.TotalTokens != 500 {
		t.Errorf("metrics not persisted: %+v", got.Metrics)
	}

	if err := s.UpdateRunMetrics(ctx, "missing", metrics); err == nil {
		t.Error("expected error updating missing run")
	}
}

func TestSaveAndGetResults(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	if err := s.CreateRun(ctx, testRun("run_1")); err != nil {
		t.Fatalf("create run: %v", err)
	}
	chunk := &models.Chunk{ID: "chunk_0000", StartTime: 0, EndTime: 60, Transcription: "hello"}
	result := &models.ProcessingResult{
		ChunkID:      "chunk_0000",
		ResponseText: "a summary",
		ModelUsed:    "gemini-2.0-flash",
		TokensUsed:   120,
		Cost:         0.001,
		CacheHit:     true,
		CacheTier:    2,
	}
	if err := s.SaveResult(ctx, "run_1", chunk, result); err != nil {
		t.Fatalf("save result: %v", err)
	}

	results, err := s.GetResults(ctx, "run_1")
	if err != nil {
		t.Fatalf("get results: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
	got := results[0]
	if got.ResponseText != "a summary" || got.TokensUsed != 120 || !got.CacheHit || got.CacheTier != 2 {
		t.Errorf("unexpected result: %+v", got)
	}
}

func TestListRunsNewestFirst(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	old := testRun("run_old")
	old.CreatedAt = time.Now().Add(-time.Hour)
	if err := s.CreateRun(ctx, old); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := s.CreateRun(ctx, testRun("run_new")); err != nil {
		t.Fatalf("create: %v", err)
	}

	runs, err := s.ListRuns(ctx, 0, 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(runs) != 2 || runs[0].RunID != "run_new" {
		t.Errorf("unexpected order: %v, %v", runs[0].RunID, runs[1].RunID)
	}

	count, err := s.CountRuns(ctx)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 2 {
		t.Errorf("count = %d, want 2", count)
	}
}
