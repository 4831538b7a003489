// Package stats derives answer-accuracy summaries from stored answer records.
package stats

import (
	"fmt"
	"math"

	"elearn-platform/internal/domain"
)

// Compute folds answer records into a Stats summary. Records are already
// one-per-question (upsert semantics), so Answered is the distinct question
// count. Accuracy is rounded to one decimal and left nil when nothing has
// been answered.
func Compute(records []domain.AnswerRecord) domain.Stats {
	s := domain.Stats{Answered: len(records)}
	for _, rec := range records {
		if rec.Correct {
			s.Correct++
		}
	}
	if s.Answered > 0 {
		accuracy := math.Round(float64(s.Correct)/float64(s.Answered)*1000) / 10
		s.AccuracyPercent = &accuracy
	}
	return s
}

// Label renders the accuracy for display, using "N/A" before any answers.
func Label(s domain.Stats) string {
	if s.AccuracyPercent == nil {
		return "N/A"
	}
	return fmt.Sprintf("%.1f%%", *s.AccuracyPercent)
}
