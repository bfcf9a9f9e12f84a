package keyword

import (
	"context"
	"fmt"
	"os"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
)

// BleveIndex implements ChunkIndex using Bleve.
type BleveIndex struct {
	index bleve.Index
}

// NewBleveIndex creates or opens a Bleve index at path. An existing index is
// reused so chunks indexed by earlier runs stay searchable. If the mapping
// changes in code, remove the index directory to force a rebuild.
func NewBleveIndex(path string) (*BleveIndex, error) {
	im := bleve.NewIndexMapping()

	docMapping := bleve.NewDocumentMapping()
	textFieldMapping := bleve.NewTextFieldMapping()
	// Standard analyzer (lowercase + tokenize, no stemming) so query words
	// match transcript words exactly.
	textFieldMapping.Analyzer = standard.Name
	docMapping.AddFieldMappingsAt("text", textFieldMapping)
	docMapping.AddFieldMappingsAt("response", textFieldMapping)
	keywordFieldMapping := bleve.NewKeywordFieldMapping()
	docMapping.AddFieldMappingsAt("video_id", keywordFieldMapping)
	docMapping.AddFieldMappingsAt("chunk_id", keywordFieldMapping)
	im.AddDocumentMapping("chunk", docMapping)
	im.DefaultType = "chunk"
	im.DefaultMapping = docMapping

	if _, err := os.Stat(path); err == nil {
		index, openErr := bleve.Open(path)
		if openErr != nil {
			return nil, fmt.Errorf("open bleve index: %w", openErr)
		}
		return &BleveIndex{index: index}, nil
	}

	index, err := bleve.New(path, im)
	if err != nil {
		return nil, fmt.Errorf("create bleve index: %w", err)
	}
	return &BleveIndex{index: index}, nil
}

// Index stores a chunk document under id.
func (b *BleveIndex) Index(_ context.Context, id string, doc *ChunkDocument) error {
	return b.index.Index(id, doc)
}

// Search runs a match query over the text and response fields and returns up
// to limit hits with their stored fields, best first.
func (b *BleveIndex) Search(_ context.Context, query string, limit int) ([]*Result, error) {
	q := bleve.NewMatchQuery(query)
	req := bleve.NewSearchRequest(q)
	req.Size = limit
	req.Fields = []string{"*"}
	results, err := b.index.Search(req)
	if err != nil {
		return nil, fmt.Errorf("bleve search: %w", err)
	}
	out := make([]*Result, len(results.Hits))
	for i, hit := range results.Hits {
		doc := &ChunkDocument{}
		if v, ok := hit.Fields["video_id"].(string); ok {
			doc.VideoID = v
		}
		if v, ok := hit.Fields["chunk_id"].(string); ok {
			doc.ChunkID = v
		}
		if v, ok := hit.Fields["text"].(string); ok {
			doc.Text = v
		}
		if v, ok := hit.Fields["response"].(string); ok {
			doc.Response = v
		}
		if v, ok := hit.Fields["start_time"].(float64); ok {
			doc.StartTime = v
		}
		if v, ok := hit.Fields["end_time"].(float64); ok {
			doc.EndTime = v
		}
		out[i] = &Result{ID: hit.ID, Score: hit.Score, Doc: doc}
	}
	return out, nil
}

// Delete removes a chunk document from the index.
func (b *BleveIndex) Delete(_ context.Context, id string) error {
	return b.index.Delete(id)
}

// DocCount returns the total number of indexed chunks.
func (b *BleveIndex) DocCount() (uint64, error) {
	return b.index.DocCount()
}

// Close closes the Bleve index.
func (b *BleveIndex) Close() error {
	return b.index.Close()
}
