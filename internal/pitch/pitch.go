package pitch

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

var sharpNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

var pitchClasses = map[string]int{
	"C": 0, "C#": 1, "Db": 1, "D": 2, "D#": 3, "Eb": 3, "E": 4, "Fb": 4, "E#": 5,
	"F": 5, "F#": 6, "Gb": 6, "G": 7, "G#": 8, "Ab": 8, "A": 9, "A#": 10, "Bb": 10,
	"B": 11, "Cb": -1, "B#": 12,
}

// Pitch is an equal-tempered note identified by its MIDI number.
type Pitch struct {
	MIDI int
}

func FromMIDI(n int) Pitch { return Pitch{MIDI: n} }

// Name spells the pitch with sharps and a scientific octave, e.g. "C#4".
func (p Pitch) Name() string {
	return sharpNames[mod(p.MIDI, 12)] + strconv.Itoa(floorDiv(p.MIDI, 12)-1)
}

func (p Pitch) String() string { return p.Name() }

// Frequency is the A440 equal-tempered frequency in Hz.
func (p Pitch) Frequency() float64 {
	return 440 * math.Pow(2, float64(p.MIDI-69)/12)
}

func (p Pitch) Transpose(semitones int) Pitch {
	return Pitch{MIDI: p.MIDI + semitones}
}

// ParseNote reads names like "E2", "C#4", "Bb-1".
func ParseNote(name string) (Pitch, error) {
	name = strings.TrimSpace(name)
	split := len(name)
	for split > 0 {
		c := name[split-1]
		if (c < '0' || c > '9') && c != '-' {
			break
		}
		split--
	}
	if split == 0 || split == len(name) {
		return Pitch{}, fmt.Errorf("invalid note %q", name)
	}
	letter := strings.ToUpper(name[:1]) + name[1:split]
	pc, ok := pitchClasses[letter]
	if !ok {
		return Pitch{}, fmt.Errorf("invalid pitch class in %q", name)
	}
	octave, err := strconv.Atoi(name[split:])
	if err != nil {
		return Pitch{}, fmt.Errorf("invalid octave in %q: %w", name, err)
	}
	return Pitch{MIDI: (octave+1)*12 + pc}, nil
}

func mustParse(names ...string) []Pitch {
	out := make([]Pitch, len(names))
	for i, n := range names {
		p, err := ParseNote(n)
		if err != nil {
			panic(err)
		}
		out[i] = p
	}
	return out
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func mod(a, b int) int {
	m := a % b
	if m < 0 {
		m += b
	}
	return m
}
