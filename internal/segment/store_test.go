package segment

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/minato/kizami/internal/models"
)

func TestNewStoreSortsByStartTime(t *testing.T) {
	s := NewStore(
		[]models.TranscriptSegment{
			{StartTime: 50, EndTime: 60, Text: "second"},
			{StartTime: 0, EndTime: 10, Text: "first"},
		},
		nil, nil, nil,
		100,
	)
	if s.Transcript[0].Text != "first" {
		t.Errorf("transcript not sorted: %v", s.Transcript)
	}
}

func TestNewStoreDurationFallback(t *testing.T) {
	s := NewStore(
		[]models.TranscriptSegment{{StartTime: 0, EndTime: 80}},
		[]models.SpeakerSegment{{StartTime: 0, EndTime: 95}},
		nil, nil,
		0,
	)
	if s.Duration != 95 {
		t.Errorf("duration = %f, want 95 (max end time)", s.Duration)
	}
}

func TestContainmentFiltering(t *testing.T) {
	s := NewStore(
		[]models.TranscriptSegment{
			{StartTime: 0, EndTime: 20, Text: "inside"},
			{StartTime: 25, EndTime: 40, Text: "straddles"},
			{StartTime: 40, EndTime: 50, Text: "outside"},
		},
		nil, nil, nil,
		60,
	)
	// Only segments fully inside [0, 30) qualify; straddlers are excluded.
	got := s.TranscriptIn(0, 30)
	if len(got) != 1 || got[0].Text != "inside" {
		t.Errorf("got %v, want only the fully contained segment", got)
	}
}

func TestContainmentBoundaryInclusive(t *testing.T) {
	s := NewStore(
		[]models.TranscriptSegment{{StartTime: 10, EndTime: 30, Text: "edge"}},
		nil, nil, nil,
		60,
	)
	if got := s.TranscriptIn(10, 30); len(got) != 1 {
		t.Errorf("segment matching the window exactly should be included, got %v", got)
	}
}

func TestLoadBundle(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bundle.json")
	data := `{
		"video_id": "vid_1",
		"duration": 120,
		"transcript": [{"start_time": 0, "end_time": 10, "text": "hello."}],
		"query": "what is said?"
	}`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	b, err := LoadBundle(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if b.VideoID != "vid_1" || b.Duration != 120 || len(b.Transcript) != 1 || b.Query != "what is said?" {
		t.Errorf("unexpected bundle: %+v", b)
	}
}

func TestLoadBundleMissingFile(t *testing.T) {
	if _, err := LoadBundle("/nonexistent/bundle.json"); err == nil {
		t.Error("expected error for missing file")
	}
}
