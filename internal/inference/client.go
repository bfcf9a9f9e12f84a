// Package inference sends chunk prompts to a language model and reports token
// usage and cost. A mock client stands in when no API key is configured.
package inference

import (
	"context"

	"github.com/minato/kizami/internal/config"
)

// Request is one model invocation. VideoSeconds and AudioSeconds describe
// media attached alongside the prompt; they only affect token accounting.
type Request struct {
	Prompt       string
	VideoSeconds float64
	AudioSeconds float64
}

// Response is the model's answer with usage accounting.
type Response struct {
	Text       string
	Model      string
	TokensUsed int
	Cost       float64
}

// Client produces a model response for a request.
type Client interface {
	Answer(ctx context.Context, req *Request) (*Response, error)
	Close() error
}

// New creates the client selected by cfg: the mock when UseMock is set or no
// API key is present, otherwise the OpenAI-compatible client.
func New(cfg *config.InferenceConfig) (Client, error) {
	if cfg.UseMock || cfg.APIKey == "" {
		return NewMockClient(cfg.Model), nil
	}
	return NewOpenAIClient(cfg)
}
