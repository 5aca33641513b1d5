package tab

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeLinesPads(t *testing.T) {
	in := "e|--3|\nB|-|\nG|---5---|--|\nD|\nA|---|\nE|-|"
	got := NormalizeLines(in)
	lines := strings.Split(got, "\n")
	require.Len(t, lines, NumStrings)
	assert.Equal(t, "e|--3-------|", lines[0])
	assert.Equal(t, "G|---5---|--|", lines[2])
	assert.Equal(t, "D|----------|", lines[3])
	for _, l := range lines {
		assert.Equal(t, len(lines[0]), len(l))
	}
}

func TestNormalizeLinesIdempotent(t *testing.T) {
	inputs := []string{
		"e|--3|\nB|-|\nG|---5---|--|\nD|\nA|---|\nE|-|",
		GenerateEmpty(3, StandardTuning),
		"e|0|\nB|1|\nG|0|\nD|2|\nA|3|\nE|x|",
	}
	for _, in := range inputs {
		once := NormalizeLines(in)
		assert.Equal(t, once, NormalizeLines(once))
	}
}

func TestNormalizeLinesPassthrough(t *testing.T) {
	assert.Equal(t, "", NormalizeLines(""))
	assert.Equal(t, "just text", NormalizeLines("just text"))
}

func TestGenerateEmpty(t *testing.T) {
	got := GenerateEmpty(2, "D A D G B E")
	lines := strings.Split(strings.TrimSuffix(got, "\n"), "\n")
	require.Len(t, lines, NumStrings)
	dashes := strings.Repeat("-", EmptyBarWidth)
	assert.Equal(t, "e|"+dashes+"|"+dashes+"|", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "B|"))
	assert.True(t, strings.HasPrefix(lines[4], "A|"))
	assert.True(t, strings.HasPrefix(lines[5], "d|"))
	assert.True(t, strings.HasSuffix(got, "|\n"))
}

func TestGenerateEmptyInvalidTuning(t *testing.T) {
	assert.Equal(t, GenerateEmpty(1, StandardTuning), GenerateEmpty(1, "E A D"))
}

func TestGenerateEmptyRoundTrip(t *testing.T) {
	for bars := 1; bars <= 4; bars++ {
		got := Parse(GenerateEmpty(bars, StandardTuning))
		require.Equal(t, bars, got.Bars)
		require.Len(t, got.Notes, bars)
		for _, bar := range got.Notes {
			assert.Empty(t, bar)
		}
	}
}

func TestCountBarsMatchesParse(t *testing.T) {
	inputs := []string{
		GenerateEmpty(1, StandardTuning),
		GenerateEmpty(5, StandardTuning),
		"e|0-|3-|5-|\nB|--|--|--|\nG|--|--|--|\nD|--|--|--|\nA|--|--|--|\nE|--|--|--|",
	}
	for _, in := range inputs {
		assert.Equal(t, Parse(in).Bars, CountBars(in))
	}
	assert.Equal(t, 0, CountBars(""))
	assert.Equal(t, 0, CountBars("no bars here"))
}

func TestParseTuning(t *testing.T) {
	names, ok := ParseTuning("  E A D G B E ")
	require.True(t, ok)
	assert.Equal(t, "E", names[0])
	_, ok = ParseTuning("E A D G B")
	assert.False(t, ok)
}
