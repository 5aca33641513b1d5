package tab

// NumStrings is the number of string lines a tab diagram must have.
const NumStrings = 6

// EmptyBarWidth is the number of rest dashes in a freshly generated bar.
const EmptyBarWidth = 20

// StandardTuning lists open strings low to high.
const StandardTuning = "E A D G B E"

type Technique string

const (
	TechNone        Technique = ""
	TechHammerOn    Technique = "h"
	TechPullOff     Technique = "p"
	TechBend        Technique = "b"
	TechBendRelease Technique = "br"
	TechSlideUp     Technique = "/"
	TechSlideDown   Technique = "\\"
	TechMute        Technique = "x"
	TechVibrato     Technique = "v"
	TechVibratoWave Technique = "~"
)

// Note is one fretted token of a bar.
//
// String counts up from the bottom text line: the top line of the diagram
// is 5 and the bottom line is 0. Position is the character offset of the
// fret digits within the bar segment and only orders notes in time.
type Note struct {
	String     int
	Fret       int
	Position   int
	Technique  Technique
	TargetFret int
	HasTarget  bool
}

// Target returns the explicit destination fret, if one was written.
func (n Note) Target() (int, bool) {
	return n.TargetFret, n.HasTarget
}

// ParsedTab holds notes grouped by bar, left to right.
type ParsedTab struct {
	Notes [][]Note
	Bars  int
}

// Empty reports whether the text was not tab-shaped.
func (p ParsedTab) Empty() bool {
	return len(p.Notes) == 0
}
