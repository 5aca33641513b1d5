package tabplay

import (
	"log/slog"

	"github.com/cbegin/tabplay-go/internal/pitch"
	"github.com/cbegin/tabplay-go/internal/scheduler"
)

// Engine selects how bars are timed.
type Engine string

const (
	// EngineTransport plays each bar on the sink transport as one whole
	// note split evenly between its positions.
	EngineTransport Engine = "transport"
	// EngineDirect spaces positions by the block's note value on the sink
	// clock.
	EngineDirect Engine = "direct"
)

const (
	DefaultSampleRate = 44100
	DefaultBarGap     = 0.1
	DefaultBlockGap   = 0.3
)

// ParseEngine maps a name to an Engine. Unknown names report false.
func ParseEngine(name string) (Engine, bool) {
	switch Engine(name) {
	case EngineTransport, EngineDirect:
		return Engine(name), true
	}
	return EngineTransport, false
}

type Option func(*config)

type config struct {
	instrument pitch.Instrument
	engine     Engine
	barGap     float64
	blockGap   float64
	timings    scheduler.Timings
	logger     *slog.Logger
	sampleRate int
	soundFont  string
}

func defaultConfig() config {
	return config{
		instrument: pitch.Acoustic,
		engine:     EngineTransport,
		barGap:     DefaultBarGap,
		blockGap:   DefaultBlockGap,
		timings:    scheduler.DefaultTimings(),
		sampleRate: DefaultSampleRate,
	}
}

func WithInstrument(inst pitch.Instrument) Option {
	return func(cfg *config) {
		cfg.instrument = inst
	}
}

func WithEngine(e Engine) Option {
	return func(cfg *config) {
		cfg.engine = e
	}
}

// WithBarGap sets the pause between bars of a block, in seconds.
func WithBarGap(seconds float64) Option {
	return func(cfg *config) {
		cfg.barGap = max(seconds, 0)
	}
}

// WithBlockGap sets the pause between blocks during PlayAll, in seconds.
func WithBlockGap(seconds float64) Option {
	return func(cfg *config) {
		cfg.blockGap = max(seconds, 0)
	}
}

func WithTimings(t scheduler.Timings) Option {
	return func(cfg *config) {
		cfg.timings = t
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(cfg *config) {
		cfg.logger = l
	}
}

// WithSampleRate sets the rate of sinks built by NewRealtime and Render.
func WithSampleRate(rate int) Option {
	return func(cfg *config) {
		cfg.sampleRate = rate
	}
}

// WithSoundFont plays plain tones from an .sf2 file instead of the
// synthesizer. Technique voices are always synthesized.
func WithSoundFont(path string) Option {
	return func(cfg *config) {
		cfg.soundFont = path
	}
}

func buildConfig(opts []Option) config {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = slog.Default()
	}
	return cfg
}
