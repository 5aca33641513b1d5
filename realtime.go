package tabplay

import (
	"errors"

	"github.com/cbegin/tabplay-go/internal/audio"
	"github.com/cbegin/tabplay-go/internal/soundfont"
	"github.com/cbegin/tabplay-go/internal/synth"
)

// NewRealtime returns a controller playing through the system audio
// device. Close releases the device.
func NewRealtime(opts ...Option) (*Controller, error) {
	cfg := buildConfig(opts)
	if cfg.sampleRate <= 0 {
		return nil, errors.New("sampleRate must be positive")
	}
	src := &sinkSource{}
	out, err := audio.NewOutput(cfg.sampleRate, src)
	if err != nil {
		return nil, err
	}
	sink, err := newSynthSink(cfg, synth.WithOutput(out))
	if err != nil {
		_ = out.Close()
		return nil, err
	}
	src.sink = sink
	c := newController(sink, cfg)
	c.closer = out.Close
	return c, nil
}

// newSynthSink builds the synthesizer sink, loading the configured
// SoundFont when there is one.
func newSynthSink(cfg config, opts ...synth.Option) (*synth.Sink, error) {
	opts = append(opts, synth.WithLogger(cfg.logger))
	if cfg.soundFont != "" {
		bank, err := soundfont.LoadFile(cfg.soundFont, cfg.sampleRate)
		if err != nil {
			return nil, err
		}
		opts = append(opts, synth.WithSampleBank(bank))
	}
	return synth.NewSink(cfg.sampleRate, opts...)
}

// sinkSource hands the output a sink created after it. The output does not
// pull samples before Resume, by which time sink is set.
type sinkSource struct {
	sink *synth.Sink
}

func (s *sinkSource) Process(dst []float32) {
	if s.sink == nil {
		clear(dst)
		return
	}
	s.sink.Process(dst)
}
