package inference

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"github.com/minato/kizami/internal/config"
)

// OpenAIClient talks to any OpenAI-compatible chat completion endpoint,
// including Gemini and local servers, selected through base_url.
type OpenAIClient struct {
	client      *openai.Client
	model       string
	maxTokens   int
	temperature float32
}

// NewOpenAIClient creates a client from the inference config. APIKey is
// required; BaseURL is optional and overrides the default endpoint.
func NewOpenAIClient(cfg *config.InferenceConfig) (*OpenAIClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("inference client requires api_key (or KIZAMI_API_KEY)")
	}
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	return &OpenAIClient{
		client:      openai.NewClientWithConfig(clientConfig),
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
	}, nil
}

// Answer sends the prompt as a single user message and returns the first
// choice. Usage comes from the API when reported, otherwise from estimation.
func (o *OpenAIClient) Answer(ctx context.Context, req *Request) (*Response, error) {
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       o.model,
		MaxTokens:   o.maxTokens,
		Temperature: o.temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: req.Prompt},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("chat completion returned no choices")
	}
	tokens := resp.Usage.TotalTokens
	if tokens == 0 {
		tokens = EstimateTokens(req)
	}
	return &Response{
		Text:       resp.Choices[0].Message.Content,
		Model:      o.model,
		TokensUsed: tokens,
		Cost:       EstimateCost(o.model, tokens),
	}, nil
}

// Close is a no-op; the underlying HTTP client needs no teardown.
func (o *OpenAIClient) Close() error {
	return nil
}
