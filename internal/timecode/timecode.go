// Package timecode converts between human time strings ("M:SS", "H:MM:SS")
// and playback offsets in seconds.
package timecode

import (
	"fmt"
	"strconv"
	"strings"
)

// Parse resolves a timecode to seconds. Plain numeric input ("25", "25.5")
// passes through as already-seconds. Malformed input yields 0, which callers
// must treat as "unparseable, defaulted" rather than a true zero offset; use
// ParseStrict where that ambiguity is unacceptable.
func Parse(text string) float64 {
	seconds, err := ParseStrict(text)
	if err != nil {
		return 0
	}
	return seconds
}

// ParseStrict is Parse with an error instead of the permissive 0 fallback.
func ParseStrict(text string) (float64, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0, fmt.Errorf("empty timecode")
	}

	if !strings.Contains(text, ":") {
		seconds, err := strconv.ParseFloat(text, 64)
		if err != nil || seconds < 0 {
			return 0, fmt.Errorf("invalid timecode %q", text)
		}
		return seconds, nil
	}

	parts := strings.Split(text, ":")
	if len(parts) != 2 && len(parts) != 3 {
		return 0, fmt.Errorf("invalid timecode %q", text)
	}
	total := 0
	for _, part := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || n < 0 {
			return 0, fmt.Errorf("invalid timecode %q", text)
		}
		total = total*60 + n
	}
	return float64(total), nil
}

// Format renders seconds as "M:SS" (or "H:MM:SS" past an hour): zero-padded
// seconds, no leading zero on the first field, e.g. 125 -> "2:05".
func Format(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	total := int(seconds)
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}
