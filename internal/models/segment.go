// Package models defines core data structures for signals, chunks, and cache entries.
package models

// TranscriptSegment is a time-stamped piece of transcribed speech.
// Segments are immutable once produced by the upstream extractor.
type TranscriptSegment struct {
	StartTime  float64 `json:"start_time"`
	EndTime    float64 `json:"end_time"`
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
	SpeakerID  string  `json:"speaker_id,omitempty"`
}

// SpeakerSegment marks a span attributed to one speaker by diarization.
type SpeakerSegment struct {
	StartTime  float64 `json:"start_time"`
	EndTime    float64 `json:"end_time"`
	SpeakerID  string  `json:"speaker_id"`
	Confidence float64 `json:"confidence"`
}

// SceneSegment marks a visually contiguous span detected by scene-cut analysis.
type SceneSegment struct {
	StartTime  float64 `json:"start_time"`
	EndTime    float64 `json:"end_time"`
	SceneID    int     `json:"scene_id"`
	Confidence float64 `json:"confidence"`
}

// TopicSegment marks a span covering one topic from topic modeling.
type TopicSegment struct {
	StartTime  float64 `json:"start_time"`
	EndTime    float64 `json:"end_time"`
	TopicID    int     `json:"topic_id"`
	TopicName  string  `json:"topic_name"`
	Confidence float64 `json:"confidence"`
}

// SignalBundle is the wire form of the collaborator signals for one video.
type SignalBundle struct {
	VideoID    string              `json:"video_id"`
	Duration   float64             `json:"duration"`
	Transcript []TranscriptSegment `json:"transcript"`
	Speakers   []SpeakerSegment    `json:"speakers"`
	Scenes     []SceneSegment      `json:"scenes"`
	Topics     []TopicSegment      `json:"topics"`
	Query      string              `json:"query,omitempty"`
}
