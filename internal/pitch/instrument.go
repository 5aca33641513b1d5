package pitch

import "strings"

type Instrument string

const (
	Acoustic Instrument = "acoustic"
	Electric Instrument = "electric"
	Bass     Instrument = "bass"
	Piano    Instrument = "piano"
)

// Instruments lists every supported instrument in display order.
var Instruments = []Instrument{Acoustic, Electric, Bass, Piano}

const (
	keyboardBase   = 60
	keyboardStride = 5
)

var openStrings = map[Instrument][]Pitch{
	Acoustic: mustParse("E2", "A2", "D3", "G3", "B3", "E4"),
	Electric: mustParse("E2", "A2", "D3", "G3", "B3", "E4"),
	Bass:     mustParse("E1", "A1", "D2", "G2"),
}

// ParseInstrument maps a name to an Instrument. Unknown names report false
// and yield Acoustic.
func ParseInstrument(name string) (Instrument, bool) {
	inst := Instrument(strings.ToLower(strings.TrimSpace(name)))
	for _, known := range Instruments {
		if inst == known {
			return inst, true
		}
	}
	return Acoustic, false
}

// Keyboard reports whether the instrument has no open-string table.
func (i Instrument) Keyboard() bool { return i == Piano }

// OpenStrings returns the open-string pitches low to high, or nil for
// keyboard instruments. Unknown instruments use the acoustic table.
func (i Instrument) OpenStrings() []Pitch {
	if i.Keyboard() {
		return nil
	}
	if open, ok := openStrings[i]; ok {
		return open
	}
	return openStrings[Acoustic]
}

// TableIndex converts a tab Note string number into an index of the
// instrument's open-string table. Note strings count up from the bottom
// (lowest-pitched) diagram line and the tables run low to high, so this is
// the identity; tables shorter than six strings drop the top lines.
func TableIndex(noteString int) int {
	return noteString
}

// FretToNote resolves a string/fret pair to a pitch. It reports false for
// an out-of-range string or a negative fret on fretted instruments; the
// keyboard path always resolves.
func FretToNote(stringIndex, fret int, inst Instrument) (Pitch, bool) {
	if inst.Keyboard() {
		return Pitch{MIDI: keyboardBase + stringIndex*keyboardStride + fret}, true
	}
	open := inst.OpenStrings()
	if stringIndex < 0 || stringIndex >= len(open) || fret < 0 {
		return Pitch{}, false
	}
	return open[stringIndex].Transpose(fret), true
}
