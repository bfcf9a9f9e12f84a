package chunker

import (
	"testing"

	"github.com/minato/kizami/internal/config"
	"github.com/minato/kizami/internal/models"
	"github.com/minato/kizami/internal/segment"
)

func testChunkingConfig() *config.ChunkingConfig {
	return &config.ChunkingConfig{
		MinChunkDuration:       30.0,
		MaxChunkDuration:       300.0,
		SpeakerChangeThreshold: 0.8,
		SceneChangeThreshold:   0.7,
		PolicyStep:             30.0,
	}
}

func TestRuleBasedSpeakerAndSceneSignals(t *testing.T) {
	store := segment.NewStore(
		nil,
		[]models.SpeakerSegment{{StartTime: 0, EndTime: 60, SpeakerID: "spk_0", Confidence: 0.9}},
		[]models.SceneSegment{{StartTime: 30, EndTime: 60, SceneID: 1, Confidence: 0.8}},
		nil,
		120,
	)
	r := NewRuleBased(testChunkingConfig())
	points := r.BreakPoints(store, 120)
	// Speaker end (60) and scene start (30) both qualify; speaker start (0)
	// is filtered by minimum spacing from t=0.
	want := []float64{30, 60}
	if len(points) != len(want) {
		t.Fatalf("got %v, want %v", points, want)
	}
	for i := range want {
		if points[i] != want[i] {
			t.Errorf("points[%d] = %f, want %f", i, points[i], want[i])
		}
	}
}

func TestRuleBasedLowConfidenceFiltered(t *testing.T) {
	store := segment.NewStore(
		nil,
		[]models.SpeakerSegment{{StartTime: 30, EndTime: 70, SpeakerID: "spk_0", Confidence: 0.5}},
		[]models.SceneSegment{{StartTime: 40, EndTime: 80, SceneID: 1, Confidence: 0.6}},
		nil,
		120,
	)
	r := NewRuleBased(testChunkingConfig())
	if points := r.BreakPoints(store, 120); len(points) != 0 {
		t.Errorf("low-confidence signals should yield no break points, got %v", points)
	}
}

func TestRuleBasedTopicsUnconditional(t *testing.T) {
	store := segment.NewStore(
		nil, nil, nil,
		[]models.TopicSegment{{StartTime: 35, EndTime: 90, TopicID: 1, TopicName: "intro", Confidence: 0.1}},
		120,
	)
	r := NewRuleBased(testChunkingConfig())
	points := r.BreakPoints(store, 120)
	// Topic boundaries count regardless of confidence.
	if len(points) != 2 || points[0] != 35 || points[1] != 90 {
		t.Errorf("got %v, want [35 90]", points)
	}
}

func TestRuleBasedSentenceBoundaries(t *testing.T) {
	store := segment.NewStore(
		[]models.TranscriptSegment{
			{StartTime: 0, EndTime: 31, Text: "This sentence ends."},
			{StartTime: 31, EndTime: 62, Text: "this one does not"},
			{StartTime: 62, EndTime: 95, Text: "But does this one end?"},
		},
		nil, nil, nil,
		120,
	)
	r := NewRuleBased(testChunkingConfig())
	points := r.BreakPoints(store, 120)
	if len(points) != 2 || points[0] != 31 || points[1] != 95 {
		t.Errorf("got %v, want [31 95]", points)
	}
}

func TestRuleBasedMinSpacing(t *testing.T) {
	store := segment.NewStore(
		nil, nil, nil,
		[]models.TopicSegment{
			{StartTime: 30, EndTime: 45},
			{StartTime: 45, EndTime: 55},
			{StartTime: 55, EndTime: 100},
		},
		120,
	)
	r := NewRuleBased(testChunkingConfig())
	points := r.BreakPoints(store, 120)
	// Candidates 30, 45, 55, 100: 45 and 55 are within 30s of the previous
	// accepted point and are dropped.
	if len(points) != 2 || points[0] != 30 || points[1] != 100 {
		t.Errorf("got %v, want [30 100]", points)
	}
}

func TestRuleBasedNoSignals(t *testing.T) {
	store := segment.NewStore(nil, nil, nil, nil, 600)
	r := NewRuleBased(testChunkingConfig())
	if points := r.BreakPoints(store, 600); len(points) != 0 {
		t.Errorf("expected no break points without signals, got %v", points)
	}
}
