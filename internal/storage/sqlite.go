package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/minato/kizami/internal/models"
)

// SQLiteStorage implements Storage using SQLite.
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage opens or creates a SQLite database at dbPath and
// initializes the schema. Parent directories are created if missing.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		run_id TEXT PRIMARY KEY,
		video_id TEXT NOT NULL,
		query TEXT,
		strategy TEXT NOT NULL,
		num_chunks INTEGER NOT NULL DEFAULT 0,
		metrics TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_runs_video_id ON runs(video_id);
	CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at);

	CREATE TABLE IF NOT EXISTS results (
		run_id TEXT NOT NULL,
		chunk_id TEXT NOT NULL,
		start_time REAL NOT NULL,
		end_time REAL NOT NULL,
		transcription TEXT,
		response_text TEXT,
		model_used TEXT,
		tokens_used INTEGER NOT NULL DEFAULT 0,
		cost REAL NOT NULL DEFAULT 0,
		processing_time_ms INTEGER NOT NULL DEFAULT 0,
		cache_hit INTEGER NOT NULL DEFAULT 0,
		cache_tier INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (run_id, chunk_id),
		FOREIGN KEY (run_id) REFERENCES runs(run_id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_results_run_id ON results(run_id);
	`
	_, err := db.Exec(schema)
	return err
}

// CreateRun inserts a run record.
func (s *SQLiteStorage) CreateRun(ctx context.Context, run *models.Run) error {
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now()
	}
	var metricsJSON []byte
	if run.Metrics != nil {
		var err error
		metricsJSON, err = json.Marshal(run.Metrics)
		if err != nil {
			return fmt.Errorf("failed to marshal metrics: %w", err)
		}
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (run_id, video_id, query, strategy, num_chunks, metrics, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.RunID, run.VideoID, run.Query, run.Strategy, run.NumChunks, string(metricsJSON), run.CreatedAt,
	)
	return err
}

// GetRun returns a run by ID.
func (s *SQLiteStorage) GetRun(ctx context.Context, runID string) (*models.Run, error) {
	var run models.Run
	var metricsJSON string
	err := s.db.QueryRowContext(ctx,
		`SELECT run_id, video_id, query, strategy, num_chunks, metrics, created_at
		 FROM runs WHERE run_id = ?`, runID,
	).Scan(&run.RunID, &run.VideoID, &run.Query, &run.Strategy, &run.NumChunks, &metricsJSON, &run.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("run not found: %s", runID)
	}
	if err != nil {
		return nil, err
	}
	if metricsJSON != "" {
		run.Metrics = &models.PipelineMetrics{}
		if err := json.Unmarshal([]byte(metricsJSON), run.Metrics); err != nil {
			return nil, fmt.Errorf("failed to unmarshal metrics: %w", err)
		}
	}
	return &run, nil
}

// ListRuns returns runs newest first with offset and limit.
func (s *SQLiteStorage) ListRuns(ctx context.Context, offset, limit int) ([]*models.Run, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, video_id, query, strategy, num_chunks, metrics, created_at
		 FROM runs ORDER BY created_at DESC LIMIT ? OFFSET ?`,
		limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []*models.Run
	for rows.Next() {
		var run models.Run
		var metricsJSON string
		if err := rows.Scan(&run.RunID, &run.VideoID, &run.Query, &run.Strategy, &run.NumChunks, &metricsJSON, &run.CreatedAt); err != nil {
			return nil, err
		}
		if metricsJSON != "" {
			run.Metrics = &models.PipelineMetrics{}
			_ = json.Unmarshal([]byte(metricsJSON), run.Metrics)
		}
		runs = append(runs, &run)
	}
	return runs, rows.Err()
}

// UpdateRunMetrics stores the final metrics for a completed run.
func (s *SQLiteStorage) UpdateRunMetrics(ctx context.Context, runID string, metrics *models.PipelineMetrics) error {
	metricsJSON, err := json.Marshal(metrics)
	if err != nil {
		return fmt.Errorf("failed to marshal metrics: %w", err)
	}
	result, err := s.db.ExecContext(ctx,
		`UPDATE runs SET metrics = ? WHERE run_id = ?`, string(metricsJSON), runID)
	if err != nil {
		return err
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("run not found: %s", runID)
	}
	return nil
}

// SaveResult inserts one chunk result for a run.
func (s *SQLiteStorage) SaveResult(ctx context.Context, runID string, chunk *models.Chunk, result *models.ProcessingResult) error {
	if result.CreatedAt.IsZero() {
		result.CreatedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO results (run_id, chunk_id, start_time, end_time, transcription,
		 response_text, model_used, tokens_used, cost, processing_time_ms, cache_hit, cache_tier, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, result.ChunkID, chunk.StartTime, chunk.EndTime, chunk.Transcription,
		result.ResponseText, result.ModelUsed, result.TokensUsed, result.Cost,
		result.ProcessingTimeMS, result.CacheHit, result.CacheTier, result.CreatedAt,
	)
	return err
}

// GetResults returns all chunk results for a run ordered by chunk id.
func (s *SQLiteStorage) GetResults(ctx context.Context, runID string) ([]*models.ProcessingResult, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT chunk_id, response_text, model_used, tokens_used, cost,
		 processing_time_ms, cache_hit, cache_tier, created_at
		 FROM results WHERE run_id = ? ORDER BY chunk_id`, runID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []*models.ProcessingResult
	for rows.Next() {
		var r models.ProcessingResult
		if err := rows.Scan(&r.ChunkID, &r.ResponseText, &r.ModelUsed, &r.TokensUsed, &r.Cost,
			&r.ProcessingTimeMS, &r.CacheHit, &r.CacheTier, &r.CreatedAt); err != nil {
			return nil, err
		}
		results = append(results, &r)
	}
	return results, rows.Err()
}

// CountRuns returns the total number of stored runs.
func (s *SQLiteStorage) CountRuns(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM runs`).Scan(&count)
	return count, err
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}
