package tab

import "strings"

const maxFret = 1 << 16

// Parse converts a six-line ASCII diagram into notes grouped by bar.
// Text that is not tab-shaped yields an empty ParsedTab.
func Parse(text string) ParsedTab {
	lines := splitLines(text)
	if len(lines) != NumStrings {
		return ParsedTab{}
	}
	segments := make([][]string, NumStrings)
	for i, line := range lines {
		parts := strings.Split(line, "|")
		if len(parts) <= 2 {
			return ParsedTab{}
		}
		segments[i] = parts[1 : len(parts)-1]
	}
	numBars := len(segments[0])
	notes := make([][]Note, 0, numBars)
	for bar := 0; bar < numBars; bar++ {
		barNotes := make([]Note, 0, 8)
		for line := 0; line < NumStrings; line++ {
			if bar >= len(segments[line]) || segments[line][bar] == "" {
				continue
			}
			barNotes = scanSegment(segments[line][bar], NumStrings-1-line, barNotes)
		}
		notes = append(notes, barNotes)
	}
	return ParsedTab{Notes: notes, Bars: numBars}
}

func scanSegment(seg string, str int, out []Note) []Note {
	i := 0
	for i < len(seg) {
		if !isDigit(seg[i]) {
			i++
			continue
		}
		start := i
		fret, next := readNumber(seg, i)
		n := Note{String: str, Fret: fret, Position: start}
		i = parseTechnique(seg, next, &n)
		out = append(out, n)
	}
	return out
}

// parseTechnique consumes at most one technique token after a fret number
// and returns the index scanning resumes from.
func parseTechnique(s string, at int, n *Note) int {
	if at >= len(s) {
		return at
	}
	switch s[at] {
	case 'h', 'p', 'v', '~':
		n.Technique = Technique(s[at : at+1])
		return at + 1
	case 'x', 'X':
		n.Technique = TechMute
		return at + 1
	case '/', '\\':
		n.Technique = Technique(s[at : at+1])
		return readTarget(s, at+1, n)
	case 'b':
		n.Technique = TechBend
		at = readTarget(s, at+1, n)
		if at < len(s) && s[at] == 'r' {
			n.Technique = TechBendRelease
			at++
			// A release fret is accepted but the bend always returns to
			// the origin fret.
			if at < len(s) && isDigit(s[at]) {
				_, at = readNumber(s, at)
			}
		}
		return at
	}
	return at
}

func readTarget(s string, at int, n *Note) int {
	if at >= len(s) || !isDigit(s[at]) {
		return at
	}
	n.TargetFret, at = readNumber(s, at)
	n.HasTarget = true
	return at
}

func readNumber(s string, at int) (int, int) {
	v := 0
	for at < len(s) && isDigit(s[at]) {
		if v < maxFret {
			v = v*10 + int(s[at]-'0')
		}
		at++
	}
	if v > maxFret {
		v = maxFret
	}
	return v, at
}

// splitLines trims surrounding whitespace and splits on newlines, dropping
// carriage returns left by CRLF input.
func splitLines(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }
