package pitch

import (
	"strconv"
	"strings"
)

const (
	DefaultTempo    = 120
	DefaultFraction = 0.25
	beatsPerWhole   = 4
)

// ParseFraction reads an "N/D" note value. Anything unparseable, including
// a zero denominator, reports false.
func ParseFraction(s string) (float64, bool) {
	num, den, ok := strings.Cut(strings.TrimSpace(s), "/")
	if !ok {
		return 0, false
	}
	n, err := strconv.ParseFloat(strings.TrimSpace(num), 64)
	if err != nil {
		return 0, false
	}
	d, err := strconv.ParseFloat(strings.TrimSpace(den), 64)
	if err != nil || d == 0 {
		return 0, false
	}
	return n / d, true
}

// DurationToTime converts a note value at a tempo into seconds, assuming
// four beats per whole note. A non-positive tempo means DefaultTempo and an
// unparseable fraction means a quarter note.
func DurationToTime(fraction string, bpm float64) float64 {
	if bpm <= 0 {
		bpm = DefaultTempo
	}
	f, ok := ParseFraction(fraction)
	if !ok {
		f = DefaultFraction
	}
	return 60 / bpm * beatsPerWhole * f
}
