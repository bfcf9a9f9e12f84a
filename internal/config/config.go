// Package config provides configuration loading and structs for the Kizami engine.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug     bool            `yaml:"debug"`
	Server    ServerConfig    `yaml:"server"`
	Store     StoreConfig     `yaml:"store"`
	Chunking  ChunkingConfig  `yaml:"chunking"`
	Cache     CacheConfig     `yaml:"cache"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Inference InferenceConfig `yaml:"inference"`
	Storage   StorageConfig   `yaml:"storage"`
	Watch     WatchConfig     `yaml:"watch"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// StoreConfig selects and configures the cache backing key-value store.
type StoreConfig struct {
	// Kind is "memory" or "redis".
	Kind          string `yaml:"kind"`
	RedisAddr     string `yaml:"redis_addr"`
	RedisDB       int    `yaml:"redis_db"`
	RedisPassword string `yaml:"redis_password"`
}

// ChunkingConfig holds segmentation thresholds and duration bounds.
type ChunkingConfig struct {
	// MinChunkDuration is a hard lower bound on chunk duration and on the
	// spacing between accepted break points.
	MinChunkDuration float64 `yaml:"min_chunk_duration"`
	// MaxChunkDuration is a soft target only; the rule-based selector does not
	// enforce it. The step-policy strategy uses it for duration pressure.
	MaxChunkDuration       float64 `yaml:"max_chunk_duration"`
	SpeakerChangeThreshold float64 `yaml:"speaker_change_threshold"`
	SceneChangeThreshold   float64 `yaml:"scene_change_threshold"`
	// Strategy is "rule" (default) or "policy".
	Strategy string `yaml:"strategy"`
	// PolicyStep is the timeline step in seconds for the policy strategy.
	PolicyStep float64 `yaml:"policy_step"`
	// Workers bounds concurrent chunk processing in the pipeline.
	Workers int `yaml:"workers"`
}

// TierConfig holds capacity and TTL for one cache tier.
type TierConfig struct {
	MaxSize int           `yaml:"max_size"`
	TTL     time.Duration `yaml:"ttl"`
}

// CacheConfig holds per-tier settings for the three-tier cache.
type CacheConfig struct {
	Tier1 TierConfig `yaml:"tier1"`
	Tier2 TierConfig `yaml:"tier2"`
	Tier3 TierConfig `yaml:"tier3"`
	// SimilarityThreshold is the minimum inner-product score for a tier-2 hit.
	SimilarityThreshold float64 `yaml:"similarity_threshold"`
	// SemanticWriteback also inserts pipeline results into tier 2.
	SemanticWriteback *bool `yaml:"semantic_writeback"`
	// SummaryWriteback inserts query-less (summary) results into tier 3.
	SummaryWriteback *bool `yaml:"summary_writeback"`
}

// SemanticWritebackOrDefault reports whether tier-2 writeback is enabled; defaults to true.
func (c *CacheConfig) SemanticWritebackOrDefault() bool {
	if c.SemanticWriteback != nil {
		return *c.SemanticWriteback
	}
	return true
}

// SummaryWritebackOrDefault reports whether tier-3 writeback is enabled; defaults to true.
func (c *CacheConfig) SummaryWritebackOrDefault() bool {
	if c.SummaryWriteback != nil {
		return *c.SummaryWriteback
	}
	return true
}

// EmbeddingConfig holds embedder settings.
type EmbeddingConfig struct {
	// Provider is "mock", "onnx", or "openai".
	Provider   string `yaml:"provider"`
	ModelPath  string `yaml:"model_path"`
	Model      string `yaml:"model"`
	Dimensions int    `yaml:"dimensions"`
	MaxTokens  int    `yaml:"max_tokens"`
	CacheSize  int    `yaml:"cache_size"`
}

// InferenceConfig holds the billed inference API settings.
type InferenceConfig struct {
	UseMock     bool    `yaml:"use_mock"`
	APIKey      string  `yaml:"api_key"`
	BaseURL     string  `yaml:"base_url"`
	Model       string  `yaml:"model"`
	MaxTokens   int     `yaml:"max_tokens"`
	Temperature float32 `yaml:"temperature"`
}

// StorageConfig holds paths for result persistence and the chunk keyword index.
type StorageConfig struct {
	DatabasePath   string `yaml:"database_path"`
	BleveIndexPath string `yaml:"bleve_index_path"`
}

// WatchConfig holds signal-bundle directory watch settings.
type WatchConfig struct {
	Directories []string `yaml:"directories"`
	Extensions  []string `yaml:"extensions"`
}

// Load reads and parses the config file at path, applies defaults, expands
// paths, and overlays secrets from the environment.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	// Environment overlays run first so defaults can key off them (an API key
	// from the environment keeps mock inference off).
	applyEnv(&cfg)
	ApplyDefaults(&cfg)

	configDir := filepath.Dir(path)
	cfg.Storage.DatabasePath = expandPath(cfg.Storage.DatabasePath, configDir)
	cfg.Storage.BleveIndexPath = expandPath(cfg.Storage.BleveIndexPath, configDir)
	cfg.Embedding.ModelPath = expandPath(cfg.Embedding.ModelPath, configDir)
	for i := range cfg.Watch.Directories {
		cfg.Watch.Directories[i] = expandPath(cfg.Watch.Directories[i], configDir)
	}

	return &cfg, nil
}

// applyEnv overlays secrets and connection strings from the environment so they
// do not have to live in the config file.
func applyEnv(cfg *Config) {
	if v := os.Getenv("KIZAMI_API_KEY"); v != "" {
		cfg.Inference.APIKey = v
	}
	if v := os.Getenv("KIZAMI_BASE_URL"); v != "" {
		cfg.Inference.BaseURL = v
	}
	if v := os.Getenv("KIZAMI_REDIS_ADDR"); v != "" {
		cfg.Store.RedisAddr = v
	}
	if v := os.Getenv("KIZAMI_REDIS_PASSWORD"); v != "" {
		cfg.Store.RedisPassword = v
	}
}

// expandPath converts a path to absolute. Paths starting with "./" are relative
// to configDir; other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
