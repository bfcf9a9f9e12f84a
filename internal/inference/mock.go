package inference

import (
	"context"
	"fmt"

	"github.com/minato/kizami/pkg/utils"
)

// MockClient produces deterministic answers without calling any API. Token and
// cost accounting follow the same estimation as the real client's input side,
// so pipeline metrics stay meaningful in offline runs.
type MockClient struct {
	model string
}

// NewMockClient creates a mock client reporting usage under the given model name.
func NewMockClient(model string) *MockClient {
	return &MockClient{model: model}
}

// Answer returns a canned response echoing a snippet of the prompt. The same
// request always yields the same response.
func (m *MockClient) Answer(_ context.Context, req *Request) (*Response, error) {
	tokens := EstimateTokens(req)
	text := fmt.Sprintf("[mock %s] Analyzed %d estimated tokens. Prompt begins: %s",
		m.model, tokens, utils.Truncate(req.Prompt, 120))
	return &Response{
		Text:       text,
		Model:      m.model,
		TokensUsed: tokens,
		Cost:       EstimateCost(m.model, tokens),
	}, nil
}

// Close is a no-op for MockClient.
func (m *MockClient) Close() error {
	return nil
}
