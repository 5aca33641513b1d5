package document

import "strings"

func splitTrim(s string) []string {
	return strings.Split(strings.TrimSpace(s), "\n")
}

func joinLines(lines []string) string {
	return strings.Join(lines, "\n") + "\n"
}

// cutPrefix splits a tab line into its label and the bars after the first
// '|'.
func cutPrefix(line string) (label, bars string, ok bool) {
	return strings.Cut(line, "|")
}
