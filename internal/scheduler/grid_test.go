package scheduler_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cbegin/tabplay-go/internal/pitch"
	"github.com/cbegin/tabplay-go/internal/scheduler"
	"github.com/cbegin/tabplay-go/internal/scheduler/schedulertest"
	"github.com/cbegin/tabplay-go/internal/tab"
)

func quietConfig() scheduler.Config {
	cfg := scheduler.DefaultConfig()
	cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	return cfg
}

func bar(notes ...tab.Note) scheduler.Bar {
	return scheduler.Bar{Notes: notes, Duration: "1/4", Tempo: 120, Instrument: pitch.Acoustic}
}

func TestGridChordSharesSlot(t *testing.T) {
	sink := schedulertest.New()
	g := scheduler.NewGrid(sink, quietConfig())
	err := g.PlayBar(context.Background(), bar(
		tab.Note{String: 0, Fret: 3, Position: 2},
		tab.Note{String: 1, Fret: 2, Position: 2},
	))
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0, 2.0}, sink.Registrations())

	voices := sink.Voices()
	require.Len(t, voices, 2)
	assert.Equal(t, voices[0].At, voices[1].At)
	for _, r := range sink.Releases() {
		assert.InDelta(t, 1.6, r.At, 1e-9)
	}
	assert.InDelta(t, 2.0, sink.Now(), 1e-9)
	assert.Equal(t, scheduler.TransportStopped, sink.Transport().State())
}

func TestGridSortsPositionsNumerically(t *testing.T) {
	sink := schedulertest.New()
	g := scheduler.NewGrid(sink, quietConfig())
	require.NoError(t, g.PlayBar(context.Background(), bar(
		tab.Note{String: 0, Fret: 10, Position: 10},
		tab.Note{String: 0, Fret: 2, Position: 2},
	)))
	voices := sink.Voices()
	require.Len(t, voices, 2)
	assert.Equal(t, 42, voices[0].Voice.Pitch.MIDI)
	assert.Equal(t, 0.0, voices[0].At)
	assert.Equal(t, 50, voices[1].Voice.Pitch.MIDI)
	assert.InDelta(t, 1.0, voices[1].At, 1e-9)
	// gate is 80% of a one-second slot
	assert.InDelta(t, 1.8, sink.Releases()[1].At, 1e-9)
}

func TestGridEmptyBarOccupiesWholeNote(t *testing.T) {
	sink := schedulertest.New()
	g := scheduler.NewGrid(sink, quietConfig())
	require.NoError(t, g.PlayBar(context.Background(), scheduler.Bar{Tempo: 60}))
	assert.Equal(t, []float64{4.0}, sink.Registrations())
	assert.Empty(t, sink.Voices())
	assert.InDelta(t, 4.0, sink.Now(), 1e-9)
}

func TestGridBarsRunSequentially(t *testing.T) {
	sink := schedulertest.New()
	g := scheduler.NewGrid(sink, quietConfig())
	ctx := context.Background()
	require.NoError(t, g.PlayBar(ctx, bar(tab.Note{Fret: 0})))
	require.NoError(t, g.PlayBar(ctx, bar(tab.Note{Fret: 1})))
	voices := sink.Voices()
	require.Len(t, voices, 2)
	assert.InDelta(t, 2.0, voices[1].At, 1e-9)
	assert.InDelta(t, 4.0, sink.Now(), 1e-9)
}

func TestGridSuspendedContextSchedulesNothing(t *testing.T) {
	blocked := errors.New("autoplay blocked")
	sink := schedulertest.New()
	sink.ResumeErr = blocked
	g := scheduler.NewGrid(sink, quietConfig())
	err := g.PlayBar(context.Background(), bar(tab.Note{Fret: 0}))
	assert.ErrorIs(t, err, scheduler.ErrContextSuspended)
	assert.ErrorIs(t, err, blocked)
	assert.Empty(t, sink.Registrations())
	assert.Empty(t, sink.Voices())
}

func TestGridSkipsUnresolvableNotes(t *testing.T) {
	sink := schedulertest.New()
	g := scheduler.NewGrid(sink, quietConfig())
	b := bar(tab.Note{String: 5, Fret: 0}, tab.Note{String: 0, Fret: 0, Position: 3})
	b.Instrument = pitch.Bass
	require.NoError(t, g.PlayBar(context.Background(), b))
	assert.Equal(t, []float64{1.0, 2.0}, sink.Registrations())
	assert.Len(t, sink.Voices(), 1)
}

func TestGridFallsBackToPlainTone(t *testing.T) {
	sink := schedulertest.New()
	sink.FailVoice = func(v scheduler.Voice) error {
		if !v.Plain {
			return errors.New("synth unavailable")
		}
		return nil
	}
	g := scheduler.NewGrid(sink, quietConfig())
	require.NoError(t, g.PlayBar(context.Background(), bar(
		tab.Note{Fret: 7, Technique: tab.TechBend},
		tab.Note{String: 1, Fret: 5, Technique: tab.TechHammerOn, Position: 4},
	)))
	voices := sink.Voices()
	// bend: fallback only; hammer: origin, then fallback after the target fails
	require.Len(t, voices, 3)
	for _, v := range voices {
		assert.True(t, v.Voice.Plain)
	}
	assert.Equal(t, 47, voices[0].Voice.Pitch.MIDI)
	assert.Equal(t, []scheduler.VoiceID{voices[1].ID}, sink.Disposed())
	assert.Empty(t, sink.Ramps())
}

func TestGridSwallowsFallbackFailure(t *testing.T) {
	sink := schedulertest.New()
	sink.FailVoice = func(scheduler.Voice) error { return errors.New("dead") }
	g := scheduler.NewGrid(sink, quietConfig())
	require.NoError(t, g.PlayBar(context.Background(), bar(
		tab.Note{Fret: 0},
		tab.Note{Fret: 2, Position: 3},
	)))
	assert.Empty(t, sink.Voices())
	assert.InDelta(t, 2.0, sink.Now(), 1e-9)
}

func TestGridTechniqueCalls(t *testing.T) {
	sink := schedulertest.New()
	g := scheduler.NewGrid(sink, quietConfig())
	require.NoError(t, g.PlayBar(context.Background(), bar(
		tab.Note{Fret: 5, Technique: tab.TechSlideUp, Position: 0},
		tab.Note{Fret: 5, Technique: tab.TechVibrato, Position: 5},
	)))
	ramps := sink.Ramps()
	require.Len(t, ramps, 1)
	assert.InDelta(t, 0.8*0.8, ramps[0].End, 1e-9)
	vib := sink.Vibratos()
	require.Len(t, vib, 1)
	assert.InDelta(t, 1.0, vib[0].Start, 1e-9)
	assert.InDelta(t, 1.8, vib[0].End, 1e-9)
}

func TestGridCancelMidBar(t *testing.T) {
	sink := schedulertest.NewManual()
	g := scheduler.NewGrid(sink, quietConfig())
	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() {
		errc <- g.PlayBar(ctx, bar(tab.Note{Fret: 0}, tab.Note{Fret: 2, Position: 4}))
	}()
	<-sink.TransportStarts()
	sink.Advance(0.5)
	cancel()
	assert.ErrorIs(t, <-errc, context.Canceled)

	sink.Advance(5)
	assert.Len(t, sink.Voices(), 1)
	assert.Equal(t, scheduler.TransportStopped, sink.Transport().State())
}
