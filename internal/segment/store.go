// Package segment normalizes the multimodal signal lists consumed by the chunker.
package segment

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/minato/kizami/internal/models"
)

// Store holds the normalized, time-ordered input signals for one video.
// Missing signal lists are treated as empty, never as an error. The store does
// not mutate the segments it is given beyond ordering them.
type Store struct {
	Transcript []models.TranscriptSegment
	Speakers   []models.SpeakerSegment
	Scenes     []models.SceneSegment
	Topics     []models.TopicSegment
	Duration   float64
}

// NewStore builds a store from raw signal lists, sorting each by start time.
// Duration falls back to the latest end time seen when the caller passes 0.
func NewStore(
	transcript []models.TranscriptSegment,
	speakers []models.SpeakerSegment,
	scenes []models.SceneSegment,
	topics []models.TopicSegment,
	duration float64,
) *Store {
	s := &Store{
		Transcript: append([]models.TranscriptSegment(nil), transcript...),
		Speakers:   append([]models.SpeakerSegment(nil), speakers...),
		Scenes:     append([]models.SceneSegment(nil), scenes...),
		Topics:     append([]models.TopicSegment(nil), topics...),
		Duration:   duration,
	}
	sort.SliceStable(s.Transcript, func(i, j int) bool { return s.Transcript[i].StartTime < s.Transcript[j].StartTime })
	sort.SliceStable(s.Speakers, func(i, j int) bool { return s.Speakers[i].StartTime < s.Speakers[j].StartTime })
	sort.SliceStable(s.Scenes, func(i, j int) bool { return s.Scenes[i].StartTime < s.Scenes[j].StartTime })
	sort.SliceStable(s.Topics, func(i, j int) bool { return s.Topics[i].StartTime < s.Topics[j].StartTime })
	if s.Duration == 0 {
		s.Duration = s.maxEndTime()
	}
	return s
}

// FromBundle builds a store from a decoded signal bundle.
func FromBundle(b *models.SignalBundle) *Store {
	return NewStore(b.Transcript, b.Speakers, b.Scenes, b.Topics, b.Duration)
}

// LoadBundle reads and decodes a signal bundle JSON file.
func LoadBundle(path string) (*models.SignalBundle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read bundle: %w", err)
	}
	var b models.SignalBundle
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("parse bundle: %w", err)
	}
	return &b, nil
}

// TranscriptIn returns the transcript segments fully contained in [start, end).
func (s *Store) TranscriptIn(start, end float64) []models.TranscriptSegment {
	out := make([]models.TranscriptSegment, 0)
	for _, seg := range s.Transcript {
		if seg.StartTime >= start && seg.EndTime <= end {
			out = append(out, seg)
		}
	}
	return out
}

// SpeakersIn returns the speaker segments fully contained in [start, end).
func (s *Store) SpeakersIn(start, end float64) []models.SpeakerSegment {
	out := make([]models.SpeakerSegment, 0)
	for _, seg := range s.Speakers {
		if seg.StartTime >= start && seg.EndTime <= end {
			out = append(out, seg)
		}
	}
	return out
}

// ScenesIn returns the scene segments fully contained in [start, end).
func (s *Store) ScenesIn(start, end float64) []models.SceneSegment {
	out := make([]models.SceneSegment, 0)
	for _, seg := range s.Scenes {
		if seg.StartTime >= start && seg.EndTime <= end {
			out = append(out, seg)
		}
	}
	return out
}

// TopicsIn returns the topic segments fully contained in [start, end).
func (s *Store) TopicsIn(start, end float64) []models.TopicSegment {
	out := make([]models.TopicSegment, 0)
	for _, seg := range s.Topics {
		if seg.StartTime >= start && seg.EndTime <= end {
			out = append(out, seg)
		}
	}
	return out
}

func (s *Store) maxEndTime() float64 {
	var max float64
	for _, seg := range s.Transcript {
		if seg.EndTime > max {
			max = seg.EndTime
		}
	}
	for _, seg := range s.Speakers {
		if seg.EndTime > max {
			max = seg.EndTime
		}
	}
	for _, seg := range s.Scenes {
		if seg.EndTime > max {
			max = seg.EndTime
		}
	}
	for _, seg := range s.Topics {
		if seg.EndTime > max {
			max = seg.EndTime
		}
	}
	return max
}
