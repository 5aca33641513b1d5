package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/cbegin/tabplay-go/internal/pitch"
	"github.com/cbegin/tabplay-go/internal/tab"
)

// ErrContextSuspended is returned when the sink clock could not be resumed.
// Nothing was scheduled for the bar.
var ErrContextSuspended = errors.New("audio context suspended")

// Bar is one bar of notes and the values that time it.
type Bar struct {
	Notes      []tab.Note
	Duration   string
	Tempo      float64
	Instrument pitch.Instrument
}

// BarScheduler plays one bar and returns once its timeline has elapsed.
// Strike sounds notes together at once, outside any bar.
type BarScheduler interface {
	PlayBar(ctx context.Context, bar Bar) error
	Strike(ctx context.Context, notes []tab.Note, inst pitch.Instrument, duration float64) error
}

type Timings struct {
	// GateRatio is the sounding share of a grid slot.
	GateRatio float64
	// DirectSpacing scales the note value into the direct-mode slot width.
	DirectSpacing float64
	// DirectTail is extra wait after the last direct-mode slot, in seconds.
	DirectTail   float64
	VibratoRate  float64
	VibratoDepth float64
}

func DefaultTimings() Timings {
	return Timings{
		GateRatio:     0.8,
		DirectSpacing: 0.5,
		DirectTail:    0.5,
		VibratoRate:   6,
		VibratoDepth:  0.02,
	}
}

type Config struct {
	Timings Timings
	Logger  *slog.Logger
}

func DefaultConfig() Config {
	return Config{Timings: DefaultTimings()}
}

// slot is the set of notes sharing one position.
type slot struct {
	position int
	notes    []tab.Note
}

// groupSlots groups notes by position in ascending numeric order.
func groupSlots(notes []tab.Note) []slot {
	byPos := make(map[int][]tab.Note, len(notes))
	for _, n := range notes {
		byPos[n.Position] = append(byPos[n.Position], n)
	}
	positions := make([]int, 0, len(byPos))
	for p := range byPos {
		positions = append(positions, p)
	}
	slices.Sort(positions)
	out := make([]slot, len(positions))
	for i, p := range positions {
		out[i] = slot{position: p, notes: byPos[p]}
	}
	return out
}

// performer turns notes into sink calls. Both bar schedulers share it.
type performer struct {
	sink    Sink
	timings Timings
	logger  *slog.Logger
}

func newPerformer(sink Sink, cfg Config) performer {
	if cfg.Timings == (Timings{}) {
		cfg.Timings = DefaultTimings()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return performer{sink: sink, timings: cfg.Timings, logger: cfg.Logger}
}

func (p performer) resume(ctx context.Context) error {
	if p.sink.Running() {
		return nil
	}
	if err := p.sink.Resume(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrContextSuspended, err)
	}
	return nil
}

// trigger plays one note at absolute time at. A failed plan is retried
// once as a plain tone; a failed fallback is logged and dropped.
func (p performer) trigger(n tab.Note, inst pitch.Instrument, at, duration float64) {
	plan, err := BuildPlan(n, inst, duration, p.timings)
	if errors.Is(err, ErrUnresolvable) {
		return
	}
	if err = p.execute(plan, at); err == nil {
		return
	}
	origin, _ := Resolve(n, inst)
	if ferr := p.execute(PlainPlan(origin, inst, duration), at); ferr != nil {
		p.logger.Warn("note dropped",
			"string", n.String,
			"fret", n.Fret,
			"technique", string(n.Technique),
			"err", errors.Join(err, ferr))
	}
}

func (p performer) execute(plan Plan, at float64) (err error) {
	var started []VoiceID
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("sink panic: %v", r)
		}
		if err != nil {
			for _, id := range started {
				p.sink.Dispose(id)
			}
		}
	}()
	for _, tr := range plan {
		id, serr := p.sink.StartVoice(tr.Voice, at+tr.Start)
		if serr != nil {
			return serr
		}
		started = append(started, id)
		if err = p.shape(id, tr, at); err != nil {
			return err
		}
	}
	return nil
}

func (p performer) shape(id VoiceID, tr Trigger, at float64) error {
	start := at + tr.Start
	for _, r := range tr.Ramps {
		if err := p.sink.RampFrequency(id, r.FromHz, r.ToHz, at+r.Start, at+r.End); err != nil {
			return err
		}
	}
	if v := tr.Vibrato; v != nil {
		if err := p.sink.Vibrato(id, v.RateHz, v.Depth, start, start+tr.Length); err != nil {
			return err
		}
	}
	return p.sink.Release(id, start+tr.Length)
}

func (p performer) Strike(ctx context.Context, notes []tab.Note, inst pitch.Instrument, duration float64) error {
	if err := p.resume(ctx); err != nil {
		return err
	}
	now := p.sink.Now()
	for _, n := range notes {
		p.trigger(n, inst, now, duration)
	}
	return nil
}

// wait blocks until the sink clock reaches at or ctx is done.
func (p performer) wait(ctx context.Context, at float64) error {
	done := make(chan struct{})
	p.sink.AfterFunc(at, func() { close(done) })
	return Await(ctx, p.sink, done)
}
