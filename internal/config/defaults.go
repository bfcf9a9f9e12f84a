package config

import "time"

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8090
	}
	if cfg.Store.Kind == "" {
		cfg.Store.Kind = "memory"
	}
	if cfg.Store.RedisAddr == "" {
		cfg.Store.RedisAddr = "localhost:6379"
	}
	if cfg.Chunking.MinChunkDuration == 0 {
		cfg.Chunking.MinChunkDuration = 30.0
	}
	if cfg.Chunking.MaxChunkDuration == 0 {
		cfg.Chunking.MaxChunkDuration = 300.0
	}
	if cfg.Chunking.SpeakerChangeThreshold == 0 {
		cfg.Chunking.SpeakerChangeThreshold = 0.8
	}
	if cfg.Chunking.SceneChangeThreshold == 0 {
		cfg.Chunking.SceneChangeThreshold = 0.7
	}
	if cfg.Chunking.Strategy == "" {
		cfg.Chunking.Strategy = "rule"
	}
	if cfg.Chunking.PolicyStep == 0 {
		cfg.Chunking.PolicyStep = 30.0
	}
	if cfg.Chunking.Workers == 0 {
		cfg.Chunking.Workers = 4
	}
	if cfg.Cache.Tier1.MaxSize == 0 {
		cfg.Cache.Tier1.MaxSize = 1000
	}
	if cfg.Cache.Tier1.TTL == 0 {
		cfg.Cache.Tier1.TTL = time.Hour
	}
	if cfg.Cache.Tier2.MaxSize == 0 {
		cfg.Cache.Tier2.MaxSize = 500
	}
	if cfg.Cache.Tier2.TTL == 0 {
		cfg.Cache.Tier2.TTL = 2 * time.Hour
	}
	if cfg.Cache.Tier3.MaxSize == 0 {
		cfg.Cache.Tier3.MaxSize = 200
	}
	if cfg.Cache.Tier3.TTL == 0 {
		cfg.Cache.Tier3.TTL = 24 * time.Hour
	}
	if cfg.Cache.SimilarityThreshold == 0 {
		cfg.Cache.SimilarityThreshold = 0.85
	}
	if cfg.Embedding.Provider == "" {
		cfg.Embedding.Provider = "mock"
	}
	if cfg.Embedding.Dimensions == 0 {
		cfg.Embedding.Dimensions = 384
	}
	if cfg.Embedding.MaxTokens == 0 {
		cfg.Embedding.MaxTokens = 256
	}
	if cfg.Embedding.CacheSize == 0 {
		cfg.Embedding.CacheSize = 10000
	}
	if cfg.Embedding.Model == "" {
		cfg.Embedding.Model = "text-embedding-3-small"
	}
	if cfg.Inference.Model == "" {
		cfg.Inference.Model = "gemini-2.0-flash"
	}
	if cfg.Inference.MaxTokens == 0 {
		cfg.Inference.MaxTokens = 8192
	}
	if cfg.Inference.Temperature == 0 {
		cfg.Inference.Temperature = 0.1
	}
	if cfg.Inference.APIKey == "" {
		// No key means no billed calls can succeed; run against the mock.
		cfg.Inference.UseMock = true
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "./data/db/results.db"
	}
	if cfg.Storage.BleveIndexPath == "" {
		cfg.Storage.BleveIndexPath = "./data/indices/chunks.bleve"
	}
	if cfg.Watch.Extensions == nil {
		cfg.Watch.Extensions = []string{".json"}
	}
}
