package tab

import (
	"strings"
	"unicode/utf8"
)

// NormalizeLines right-pads every string line with rests so all six lines
// end on the same column. Only the first and last '|' of a line frame its
// content. Text that is not six lines is returned unchanged.
func NormalizeLines(text string) string {
	if text == "" {
		return text
	}
	lines := splitLines(text)
	if len(lines) != NumStrings {
		return text
	}
	prefixes := make([]string, NumStrings)
	contents := make([]string, NumStrings)
	width := 0
	for i, line := range lines {
		parts := strings.Split(line, "|")
		prefixes[i] = parts[0]
		switch {
		case len(parts) >= 3:
			contents[i] = strings.Join(parts[1:len(parts)-1], "|")
		case len(parts) == 2:
			contents[i] = parts[1]
		}
		if w := utf8.RuneCountInString(contents[i]); w > width {
			width = w
		}
	}
	var b strings.Builder
	for i := range lines {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(prefixes[i])
		b.WriteByte('|')
		b.WriteString(contents[i])
		b.WriteString(strings.Repeat("-", width-utf8.RuneCountInString(contents[i])))
		b.WriteByte('|')
	}
	return b.String()
}

// GenerateEmpty builds a blank diagram with the given number of bars. Lines
// are labelled high string first; an invalid tuning falls back to
// StandardTuning.
func GenerateEmpty(bars int, tuning string) string {
	names, ok := ParseTuning(tuning)
	if !ok {
		names, _ = ParseTuning(StandardTuning)
	}
	if bars < 0 {
		bars = 0
	}
	bar := strings.Repeat("-", EmptyBarWidth) + "|"
	body := strings.Repeat(bar, bars)
	labels := [NumStrings]string{
		strings.ToLower(names[5]),
		names[4],
		names[3],
		names[2],
		names[1],
		strings.ToLower(names[0]),
	}
	var b strings.Builder
	for _, label := range labels {
		b.WriteString(label)
		b.WriteByte('|')
		b.WriteString(body)
		b.WriteByte('\n')
	}
	return b.String()
}

// CountBars is the number of '|' on the first line minus one. It is
// advisory; Parse recomputes bars on its own.
func CountBars(text string) int {
	lines := splitLines(text)
	if len(lines) == 0 {
		return 0
	}
	n := strings.Count(lines[0], "|") - 1
	if n < 0 {
		return 0
	}
	return n
}

// ParseTuning splits a tuning string into six tokens, low string first.
// Only the token count is validated.
func ParseTuning(s string) ([NumStrings]string, bool) {
	var out [NumStrings]string
	fields := strings.Fields(s)
	if len(fields) != NumStrings {
		return out, false
	}
	copy(out[:], fields)
	return out, true
}
