package embedding

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"github.com/minato/kizami/pkg/utils"
)

// OpenAIEmbedder produces embeddings through an OpenAI-compatible API.
type OpenAIEmbedder struct {
	client     *openai.Client
	model      string
	dimensions int
	cache      *lruCache
}

// NewOpenAIEmbedder creates an embedder for the given API. baseURL may be empty
// for the default endpoint.
func NewOpenAIEmbedder(apiKey, baseURL, model string, dimensions, cacheSize int) (*OpenAIEmbedder, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai embedder requires an API key")
	}
	clientConfig := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		clientConfig.BaseURL = baseURL
	}
	return &OpenAIEmbedder{
		client:     openai.NewClientWithConfig(clientConfig),
		model:      model,
		dimensions: dimensions,
		cache:      newLRUCache(cacheSize),
	}, nil
}

// Embed requests an embedding for text, normalizing the result to unit length.
func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if emb, ok := e.cache.get(text); ok {
		return emb, nil
	}
	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Model: openai.EmbeddingModel(e.model),
		Input: []string{text},
	})
	if err != nil {
		return nil, fmt.Errorf("create embeddings: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("no embedding returned")
	}
	emb := resp.Data[0].Embedding
	if e.dimensions > 0 && len(emb) != e.dimensions {
		return nil, fmt.Errorf("embedding dimension mismatch: got %d, expected %d", len(emb), e.dimensions)
	}
	utils.NormalizeL2(emb)
	e.cache.set(text, emb)
	return emb, nil
}

// Dimensions returns the configured embedding dimension.
func (e *OpenAIEmbedder) Dimensions() int {
	return e.dimensions
}

// Close is a no-op for OpenAIEmbedder.
func (e *OpenAIEmbedder) Close() error {
	return nil
}
