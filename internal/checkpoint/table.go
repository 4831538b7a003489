package checkpoint

import "strings"

// Column order of the user-editable question table.
const (
	colTime = iota
	colQuestion
	colOptionA
	colOptionB
	colOptionC
	colAnswer
	tableColumns
)

// FromTable converts rows of a "Time, Question, Option A, Option B, Option C,
// Correct Answer" table into raw entries. Fully blank rows are dropped; blank
// option cells are omitted from the choice list. IDs are left blank so Build
// assigns q1..qN by row order. A header row matching the column names is skipped.
func FromTable(rows [][]string) []RawEntry {
	entries := make([]RawEntry, 0, len(rows))
	for _, row := range rows {
		cells := make([]string, tableColumns)
		for i := 0; i < tableColumns && i < len(row); i++ {
			cells[i] = strings.TrimSpace(row[i])
		}
		if isBlank(cells) || isHeader(cells) {
			continue
		}

		choices := make([]string, 0, 3)
		for _, opt := range []string{cells[colOptionA], cells[colOptionB], cells[colOptionC]} {
			if opt != "" {
				choices = append(choices, opt)
			}
		}
		entries = append(entries, RawEntry{
			At:      cells[colTime],
			Prompt:  cells[colQuestion],
			Choices: choices,
			Answer:  cells[colAnswer],
		})
	}
	return entries
}

func isBlank(cells []string) bool {
	for _, c := range cells {
		if c != "" {
			return false
		}
	}
	return true
}

func isHeader(cells []string) bool {
	return strings.EqualFold(cells[colTime], "time") && strings.EqualFold(cells[colQuestion], "question")
}
