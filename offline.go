package tabplay

import (
	"context"
	"errors"
	"io"

	"github.com/faiface/beep"
	"github.com/faiface/beep/wav"

	"github.com/cbegin/tabplay-go/internal/document"
	"github.com/cbegin/tabplay-go/internal/scheduler"
	"github.com/cbegin/tabplay-go/internal/synth"
)

// renderTail lets the last release ring out after playback ends.
const renderTail = 2.0

// capturer is a sink that renders on the playback goroutine.
type capturer interface {
	scheduler.Sink
	scheduler.Pumper
	Drain(seconds float64)
	Samples() []float32
}

// Render plays blocks against an offline synthesizer and returns the
// interleaved stereo samples. Playback drives the sample clock itself, so
// every bar and gap lands on the frame it is due and rendering runs as
// fast as the CPU allows.
func Render(ctx context.Context, blocks []document.Block, opts ...Option) ([]float32, error) {
	cfg := buildConfig(opts)
	if cfg.sampleRate <= 0 {
		return nil, errors.New("sampleRate must be positive")
	}
	sink, err := newSynthSink(cfg)
	if err != nil {
		return nil, err
	}
	return render(ctx, synth.NewCapture(sink), cfg, blocks)
}

func render(ctx context.Context, sink capturer, cfg config, blocks []document.Block) ([]float32, error) {
	c := newController(sink, cfg)
	if err := c.PlayAll(ctx, blocks); err != nil {
		return nil, err
	}
	sink.Drain(renderTail)
	return sink.Samples(), nil
}

// WriteWAV encodes interleaved stereo samples as 16-bit PCM.
func WriteWAV(w io.WriteSeeker, samples []float32, sampleRate int) error {
	if sampleRate <= 0 {
		return errors.New("sampleRate must be positive")
	}
	format := beep.Format{
		SampleRate:  beep.SampleRate(sampleRate),
		NumChannels: 2,
		Precision:   2,
	}
	return wav.Encode(w, &sampleStreamer{samples: samples}, format)
}

// sampleStreamer implements beep.Streamer over interleaved stereo samples.
type sampleStreamer struct {
	samples []float32
	pos     int
}

func (s *sampleStreamer) Stream(buf [][2]float64) (int, bool) {
	n := 0
	for n < len(buf) && s.pos+1 < len(s.samples) {
		buf[n][0] = float64(s.samples[s.pos])
		buf[n][1] = float64(s.samples[s.pos+1])
		s.pos += 2
		n++
	}
	return n, n > 0
}

func (s *sampleStreamer) Err() error { return nil }
