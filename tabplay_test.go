package tabplay_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cbegin/tabplay-go"
	"github.com/cbegin/tabplay-go/internal/document"
	"github.com/cbegin/tabplay-go/internal/pitch"
	"github.com/cbegin/tabplay-go/internal/scheduler/schedulertest"
	"github.com/cbegin/tabplay-go/internal/synth"
)

func quiet() tabplay.Option {
	return tabplay.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func tabBlock(tempo int, lines ...string) document.Block {
	b := document.NewTabBlock("E A D G B E")
	b.Tempo = tempo
	content := ""
	for _, l := range lines {
		content += l + "\n"
	}
	b.Content = content
	return b
}

var twoBars = tabBlock(120,
	"e|0---|2---|",
	"B|----|----|",
	"G|----|----|",
	"D|----|----|",
	"A|----|----|",
	"E|----|----|",
)

func drain(ch <-chan tabplay.PlaybackEvent) []tabplay.PlaybackEvent {
	var out []tabplay.PlaybackEvent
	for {
		select {
		case ev := <-ch:
			out = append(out, ev)
		default:
			return out
		}
	}
}

func TestPlayAllTimeline(t *testing.T) {
	sink := schedulertest.New()
	c := tabplay.New(sink, quiet())
	events := c.Watch()

	silent := tabBlock(120, "e|----|", "B|----|", "G|----|", "D|----|", "A|----|", "E|----|")
	last := tabBlock(60, "e|----|", "B|----|", "G|----|", "D|----|", "A|3---|", "E|----|")
	blocks := []document.Block{document.NewTextBlock("intro"), twoBars, silent, last}
	require.NoError(t, c.PlayAll(context.Background(), blocks))

	voices := sink.Voices()
	require.Len(t, voices, 3)
	assert.Equal(t, 64, voices[0].Voice.Pitch.MIDI)
	assert.InDelta(t, 0.0, voices[0].At, 1e-9)
	assert.Equal(t, 66, voices[1].Voice.Pitch.MIDI)
	assert.InDelta(t, 2.1, voices[1].At, 1e-9)
	assert.Equal(t, 48, voices[2].Voice.Pitch.MIDI)
	assert.InDelta(t, 4.4, voices[2].At, 1e-9)
	assert.InDelta(t, 8.4, sink.Now(), 1e-9)

	assert.Equal(t, []tabplay.PlaybackEvent{
		{Kind: tabplay.EventBlockStarted, Block: twoBars.ID},
		{Kind: tabplay.EventBarStarted, Block: twoBars.ID, Bar: 0},
		{Kind: tabplay.EventBarStarted, Block: twoBars.ID, Bar: 1},
		{Kind: tabplay.EventBlockStarted, Block: last.ID},
		{Kind: tabplay.EventBarStarted, Block: last.ID, Bar: 0},
		{Kind: tabplay.EventPlaybackEnded},
	}, drain(events))
	assert.Equal(t, tabplay.State{}, c.State())
}

func TestStopMidBarSchedulesNothingMore(t *testing.T) {
	sink := schedulertest.NewManual()
	c := tabplay.New(sink, quiet())

	errCh := make(chan error, 1)
	go func() {
		errCh <- c.PlayBlock(context.Background(), twoBars)
	}()
	<-sink.TransportStarts()

	st := c.State()
	assert.True(t, st.Playing)
	assert.Equal(t, twoBars.ID, st.Block)
	assert.Equal(t, 0, st.Bar)
	registered := len(sink.Registrations())
	require.Equal(t, 2, registered, "one note and the bar end")

	c.Stop()
	require.NoError(t, <-errCh)
	sink.Advance(10)

	assert.Len(t, sink.Registrations(), registered)
	assert.Empty(t, sink.Voices(), "cancelled triggers never fire")
	assert.GreaterOrEqual(t, sink.ReleaseAllCalls(), 1)
	assert.False(t, c.State().Playing)
	c.Wait()
}

func TestParentCancelIsReported(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c := tabplay.New(schedulertest.New(), quiet())
	err := c.PlayBlock(ctx, twoBars)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSuspendedContextStopsSilently(t *testing.T) {
	sink := schedulertest.New()
	sink.ResumeErr = errors.New("no user gesture")
	c := tabplay.New(sink, quiet())
	require.NoError(t, c.PlayBlock(context.Background(), twoBars))
	assert.Empty(t, sink.Voices())
	assert.False(t, c.State().Playing)
}

func TestDirectEngine(t *testing.T) {
	sink := schedulertest.New()
	c := tabplay.New(sink, quiet(), tabplay.WithEngine(tabplay.EngineDirect), tabplay.WithBarGap(0))
	block := tabBlock(120,
		"e|0-1-|",
		"B|----|",
		"G|----|",
		"D|----|",
		"A|----|",
		"E|----|",
	)
	require.NoError(t, c.PlayBlock(context.Background(), block))
	voices := sink.Voices()
	require.Len(t, voices, 2)
	assert.InDelta(t, 0.0, voices[0].At, 1e-9)
	assert.InDelta(t, 0.25, voices[1].At, 1e-9)
}

func TestSetInstrumentAndPreview(t *testing.T) {
	sink := schedulertest.New()
	c := tabplay.New(sink, quiet())
	c.SetInstrument(pitch.Bass)
	assert.Equal(t, 1, sink.ReleaseAllCalls())
	assert.Equal(t, pitch.Bass, c.Instrument())

	require.NoError(t, c.PlayNote(context.Background(), 0, 0, 1))
	require.NoError(t, c.PlayNote(context.Background(), 5, 0, 1), "bass has no fifth string")
	voices := sink.Voices()
	require.Len(t, voices, 1)
	assert.Equal(t, 28, voices[0].Voice.Pitch.MIDI)
	assert.Equal(t, pitch.Bass, voices[0].Voice.Instrument)
}

func TestMasterVolume(t *testing.T) {
	sink, err := synth.NewSink(8000)
	require.NoError(t, err)
	c := tabplay.New(sink, quiet())
	assert.Equal(t, 1.0, c.MasterVolume())
	c.SetMasterVolume(0.35)
	assert.Equal(t, 0.35, c.MasterVolume())
	c.SetMasterVolume(-2)
	assert.Equal(t, 0.0, c.MasterVolume())
}

func TestParseEngine(t *testing.T) {
	e, ok := tabplay.ParseEngine("direct")
	assert.True(t, ok)
	assert.Equal(t, tabplay.EngineDirect, e)
	e, ok = tabplay.ParseEngine("tape")
	assert.False(t, ok)
	assert.Equal(t, tabplay.EngineTransport, e)
}
