package tabplay

import (
	"context"
	"io"
	"log/slog"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cbegin/tabplay-go/internal/document"
	"github.com/cbegin/tabplay-go/internal/scheduler"
	"github.com/cbegin/tabplay-go/internal/synth"
)

// onsetCapture records the frame each voice is started on.
type onsetCapture struct {
	*synth.Capture
	rate   int
	onsets []int64
}

func (o *onsetCapture) StartVoice(v scheduler.Voice, at float64) (scheduler.VoiceID, error) {
	o.onsets = append(o.onsets, int64(math.Round(o.Now()*float64(o.rate))))
	return o.Capture.StartVoice(v, at)
}

func TestRenderBarsStartOnExactFrames(t *testing.T) {
	const rate = 8000
	newBlock := func() document.Block {
		b := document.NewTabBlock("E A D G B E")
		b.Tempo = 120
		b.Content = "e|0---|2---|\nB|----|----|\nG|----|----|\nD|----|----|\nA|----|----|\nE|----|----|\n"
		return b
	}
	cfg := buildConfig([]Option{
		WithSampleRate(rate),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	})

	sink, err := newSynthSink(cfg)
	require.NoError(t, err)
	rec := &onsetCapture{Capture: synth.NewCapture(sink), rate: rate}

	out, err := render(context.Background(), rec, cfg, []document.Block{newBlock(), newBlock()})
	require.NoError(t, err)

	// 2 s bars, 0.1 s between bars, 0.3 s between blocks, then the tail
	assert.Equal(t, []int64{0, 16800, 35200, 52000}, rec.onsets)
	assert.Equal(t, (68000+int(renderTail*rate))*2, len(out))
}
