package domain

import "time"

// Checkpoint is a single timestamped question within a video. Instances are
// built once by the checkpoint package and never mutated afterwards.
type Checkpoint struct {
	ID             string   `json:"id"`
	TriggerSeconds float64  `json:"at"`
	Prompt         string   `json:"prompt"`
	Choices        []string `json:"choices"`
	CorrectAnswer  string   `json:"answer"`
}

// AnswerRecord is the stored outcome of answering one checkpoint question.
// At most one record exists per question; re-answering replaces the record.
type AnswerRecord struct {
	QuestionID string    `json:"questionId"`
	Choice     string    `json:"choice"`
	Correct    bool      `json:"correct"`
	AnsweredAt time.Time `json:"answeredAt"`
}

// PlaybackState is the last known playback position for a viewer session,
// cached so a reload can resume near where it left off.
type PlaybackState struct {
	VideoID         string  `json:"videoId"`
	PositionSeconds float64 `json:"positionSeconds"`
	DurationSeconds float64 `json:"durationSeconds"`
	UpdatedAt       int64   `json:"updatedAt"`
}

// Stats summarizes answer accuracy for a session. AccuracyPercent is nil
// when nothing has been answered yet, so it renders as null/"N/A" instead
// of a divide-by-zero artifact.
type Stats struct {
	Answered        int      `json:"answered"`
	Correct         int      `json:"correct"`
	AccuracyPercent *float64 `json:"accuracyPercent"`
}
