package pitch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseNote(t *testing.T) {
	tests := []struct {
		in   string
		midi int
	}{
		{"E2", 40},
		{"A4", 69},
		{"C#4", 61},
		{"db4", 61},
		{"B#3", 60},
		{"Cb4", 59},
		{"C-1", 0},
	}
	for _, tt := range tests {
		p, err := ParseNote(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.midi, p.MIDI, tt.in)
	}
	for _, bad := range []string{"", "E", "4", "H2", "E#x"} {
		_, err := ParseNote(bad)
		assert.Error(t, err, bad)
	}
}

func TestNameAndFrequency(t *testing.T) {
	assert.Equal(t, "A4", FromMIDI(69).Name())
	assert.Equal(t, "C#4", FromMIDI(61).Name())
	assert.Equal(t, "B-2", FromMIDI(-1).Name())
	assert.InDelta(t, 440.0, FromMIDI(69).Frequency(), 1e-9)
	assert.InDelta(t, 82.4069, FromMIDI(40).Frequency(), 1e-3)
}

func TestFretToNoteGuitar(t *testing.T) {
	open, ok := FretToNote(0, 0, Acoustic)
	require.True(t, ok)
	assert.Equal(t, "E2", open.Name())

	octave, ok := FretToNote(0, 12, Acoustic)
	require.True(t, ok)
	assert.Equal(t, "E3", octave.Name())

	carry, ok := FretToNote(4, 1, Electric)
	require.True(t, ok)
	assert.Equal(t, "C4", carry.Name())

	top, ok := FretToNote(5, 0, Acoustic)
	require.True(t, ok)
	assert.Equal(t, "E4", top.Name())
}

func TestFretToNoteRejects(t *testing.T) {
	_, ok := FretToNote(6, 0, Acoustic)
	assert.False(t, ok)
	_, ok = FretToNote(-1, 0, Acoustic)
	assert.False(t, ok)
	_, ok = FretToNote(0, -1, Acoustic)
	assert.False(t, ok)
	_, ok = FretToNote(4, 0, Bass)
	assert.False(t, ok)
}

func TestFretToNoteBassAndPiano(t *testing.T) {
	p, ok := FretToNote(0, 3, Bass)
	require.True(t, ok)
	assert.Equal(t, "G1", p.Name())

	p, ok = FretToNote(2, 1, Piano)
	require.True(t, ok)
	assert.Equal(t, 71, p.MIDI)

	p, ok = FretToNote(0, -100, Piano)
	require.True(t, ok)
	assert.Equal(t, -40, p.MIDI)
}

func TestUnknownInstrumentUsesAcoustic(t *testing.T) {
	inst, ok := ParseInstrument("Banjo")
	assert.False(t, ok)
	assert.Equal(t, Acoustic, inst)
	inst, ok = ParseInstrument(" BASS ")
	assert.True(t, ok)
	assert.Equal(t, Bass, inst)
	assert.Len(t, Instrument("kazoo").OpenStrings(), 6)
	assert.Nil(t, Piano.OpenStrings())
}

func TestDurationToTime(t *testing.T) {
	assert.InDelta(t, 0.5, DurationToTime("1/4", 120), 1e-12)
	assert.InDelta(t, 2.0, DurationToTime("1/1", 120), 1e-12)
	assert.InDelta(t, 0.25, DurationToTime("1/8", 120), 1e-12)
	assert.InDelta(t, 1.0, DurationToTime("1/4", 60), 1e-12)
	assert.InDelta(t, 0.5, DurationToTime("1/4", 0), 1e-12)
	assert.InDelta(t, 0.5, DurationToTime("quarter", 120), 1e-12)
	assert.InDelta(t, 0.5, DurationToTime("1/0", 120), 1e-12)
	assert.InDelta(t, 3.0, DurationToTime("3/4", 60), 1e-12)
}
