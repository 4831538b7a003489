// Package checkpoint builds validated, time-ordered checkpoint sets from
// configuration input.
package checkpoint

import (
	"fmt"
	"sort"

	"elearn-platform/internal/domain"
	"elearn-platform/internal/timecode"
)

// RawEntry is one unvalidated checkpoint as authored in configuration.
// At accepts "M:SS", "H:MM:SS", or a plain number of seconds.
type RawEntry struct {
	ID      string   `json:"id"`
	At      string   `json:"at"`
	Prompt  string   `json:"prompt"`
	Choices []string `json:"choices"`
	Answer  string   `json:"answer"`
}

// Set is an immutable collection of checkpoints sorted ascending by trigger
// time. Entries with equal times keep their original relative order.
type Set struct {
	ordered []domain.Checkpoint
	byID    map[string]domain.Checkpoint
}

// Build validates raw entries and constructs a Set. Rejected outright:
// unparseable times, empty prompts or choice lists, duplicate IDs, and a
// correct answer that is not one of the choices.
func Build(entries []RawEntry) (*Set, error) {
	ordered := make([]domain.Checkpoint, 0, len(entries))
	byID := make(map[string]domain.Checkpoint, len(entries))

	for i, entry := range entries {
		id := entry.ID
		if id == "" {
			id = fmt.Sprintf("q%d", i+1)
		}
		if _, exists := byID[id]; exists {
			return nil, fmt.Errorf("checkpoint %q: duplicate id", id)
		}
		at, err := timecode.ParseStrict(entry.At)
		if err != nil {
			return nil, fmt.Errorf("checkpoint %q: %w", id, err)
		}
		if entry.Prompt == "" {
			return nil, fmt.Errorf("checkpoint %q: empty prompt", id)
		}
		if len(entry.Choices) == 0 {
			return nil, fmt.Errorf("checkpoint %q: no choices", id)
		}
		if !contains(entry.Choices, entry.Answer) {
			return nil, fmt.Errorf("checkpoint %q: correct answer %q not among choices", id, entry.Answer)
		}

		cp := domain.Checkpoint{
			ID:             id,
			TriggerSeconds: at,
			Prompt:         entry.Prompt,
			Choices:        append([]string(nil), entry.Choices...),
			CorrectAnswer:  entry.Answer,
		}
		ordered = append(ordered, cp)
		byID[id] = cp
	}

	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].TriggerSeconds < ordered[j].TriggerSeconds
	})

	return &Set{ordered: ordered, byID: byID}, nil
}

// Ordered returns the checkpoints ascending by trigger time. The returned
// slice must not be modified.
func (s *Set) Ordered() []domain.Checkpoint {
	return s.ordered
}

// Lookup finds a checkpoint by ID.
func (s *Set) Lookup(id string) (domain.Checkpoint, bool) {
	cp, ok := s.byID[id]
	return cp, ok
}

// Len reports the number of checkpoints in the set.
func (s *Set) Len() int {
	return len(s.ordered)
}

func contains(choices []string, answer string) bool {
	for _, choice := range choices {
		if choice == answer {
			return true
		}
	}
	return false
}
