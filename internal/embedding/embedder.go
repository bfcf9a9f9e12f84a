// Package embedding provides text embedding for the semantic cache tier and
// coherence scoring.
package embedding

import (
	"context"
	"fmt"

	"github.com/minato/kizami/internal/config"
)

// Embedder produces fixed-dimension vector embeddings for text. Embeddings are
// expected to be L2-normalized so inner product equals cosine similarity.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dimensions() int
	Close() error
}

// NewEmbedder creates the embedder selected by cfg.Provider.
// Supported providers: "mock" (default), "onnx", "openai".
func NewEmbedder(cfg *config.EmbeddingConfig, apiKey, baseURL string) (Embedder, error) {
	switch cfg.Provider {
	case "mock", "":
		return NewMockEmbedder(cfg.Dimensions), nil
	case "onnx":
		return NewONNXEmbedder(cfg.ModelPath, cfg.Dimensions, cfg.MaxTokens, cfg.CacheSize)
	case "openai":
		return NewOpenAIEmbedder(apiKey, baseURL, cfg.Model, cfg.Dimensions, cfg.CacheSize)
	default:
		return nil, fmt.Errorf("unknown embedding provider: %s (supported: mock, onnx, openai)", cfg.Provider)
	}
}
