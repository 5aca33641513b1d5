// Package tabplay plays guitar tab documents block by block, bar by bar.
package tabplay

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/cbegin/tabplay-go/internal/document"
	"github.com/cbegin/tabplay-go/internal/pitch"
	"github.com/cbegin/tabplay-go/internal/scheduler"
	"github.com/cbegin/tabplay-go/internal/tab"
)

// PlaybackEvent carries progress events from Watch().
type PlaybackEvent struct {
	Kind  EventKind
	Block string
	Bar   int
}

type EventKind int

const (
	EventBlockStarted EventKind = iota
	EventBarStarted
	EventPlaybackEnded
)

// State is a snapshot of the controller. Bar is the index of the bar
// being played within Block.
type State struct {
	Playing bool
	Block   string
	Bar     int
	All     bool
}

var errStopped = errors.New("playback stopped")

// Controller owns a playback session: Idle, then Playing(block, bar) for
// each bar in turn, then Idle again. Stop is honored before every bar.
type Controller struct {
	mu         sync.Mutex
	sink       scheduler.Sink
	bars       scheduler.BarScheduler
	instrument pitch.Instrument
	barGap     float64
	blockGap   float64
	logger     *slog.Logger
	state      State
	volume     float64
	cancel     context.CancelCauseFunc
	done       chan struct{}
	eventCh    chan PlaybackEvent
	eventChMu  sync.Mutex
	closer     func() error
}

// New returns a controller scheduling onto sink.
func New(sink scheduler.Sink, opts ...Option) *Controller {
	return newController(sink, buildConfig(opts))
}

func newController(sink scheduler.Sink, cfg config) *Controller {
	sc := scheduler.Config{Timings: cfg.timings, Logger: cfg.logger}
	var bars scheduler.BarScheduler = scheduler.NewGrid(sink, sc)
	if cfg.engine == EngineDirect {
		bars = scheduler.NewDirect(sink, sc)
	}
	return &Controller{
		sink:       sink,
		bars:       bars,
		instrument: cfg.instrument,
		barGap:     cfg.barGap,
		blockGap:   cfg.blockGap,
		logger:     cfg.logger,
		volume:     1,
	}
}

// PlayBlock plays every bar of one tab block and returns when the last bar
// has finished, Stop was called, or ctx is done. Only ctx cancellation is
// reported as an error.
func (c *Controller) PlayBlock(ctx context.Context, block document.Block) error {
	ctx, finish := c.begin(ctx, false)
	parsed, ok := c.playable(block)
	if !ok {
		return finish(nil)
	}
	return finish(c.playBlock(ctx, block, parsed))
}

// PlayAll plays the tab blocks of blocks in order. Text blocks and blocks
// without notes are skipped.
func (c *Controller) PlayAll(ctx context.Context, blocks []document.Block) error {
	ctx, finish := c.begin(ctx, true)
	played := 0
	for _, b := range blocks {
		if !b.IsTab() {
			continue
		}
		parsed, ok := c.playable(b)
		if !ok {
			continue
		}
		if played > 0 && c.blockGap > 0 {
			if err := c.pause(ctx, c.blockGap); err != nil {
				return finish(err)
			}
		}
		if err := c.playBlock(ctx, b, parsed); err != nil {
			return finish(err)
		}
		played++
	}
	return finish(nil)
}

func (c *Controller) playable(block document.Block) (tab.ParsedTab, bool) {
	parsed := block.Parsed()
	if !hasNotes(parsed) {
		c.logger.Info("block has no valid notes", "block", block.ID)
		return parsed, false
	}
	return parsed, true
}

func (c *Controller) playBlock(ctx context.Context, block document.Block, parsed tab.ParsedTab) error {
	tr := c.sink.Transport()
	defer tr.Reset()

	c.setBlock(block.ID)
	c.sendEvent(PlaybackEvent{Kind: EventBlockStarted, Block: block.ID})
	for i, notes := range parsed.Notes {
		if err := ctx.Err(); err != nil {
			return err
		}
		if i > 0 && c.barGap > 0 {
			if err := c.pause(ctx, c.barGap); err != nil {
				return err
			}
		}
		c.setBar(i)
		c.sendEvent(PlaybackEvent{Kind: EventBarStarted, Block: block.ID, Bar: i})
		c.logger.Debug("playing bar", "block", block.ID, "bar", i, "notes", len(notes))
		err := c.bars.PlayBar(ctx, scheduler.Bar{
			Notes:      notes,
			Duration:   block.Duration,
			Tempo:      float64(block.Tempo),
			Instrument: c.Instrument(),
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func hasNotes(p tab.ParsedTab) bool {
	for _, bar := range p.Notes {
		if len(bar) > 0 {
			return true
		}
	}
	return false
}

// pause waits on the sink clock so offline rendering does not sleep.
func (c *Controller) pause(ctx context.Context, seconds float64) error {
	done := make(chan struct{})
	c.sink.AfterFunc(c.sink.Now()+seconds, func() { close(done) })
	return scheduler.Await(ctx, c.sink, done)
}

// begin replaces any running session with a new one. The returned finish
// func moves the controller back to Idle and maps the session error.
func (c *Controller) begin(parent context.Context, all bool) (context.Context, func(error) error) {
	c.mu.Lock()
	prevDone := c.done
	c.mu.Unlock()
	if prevDone != nil {
		c.Stop()
		<-prevDone
	}

	ctx, cancel := context.WithCancelCause(parent)
	done := make(chan struct{})
	c.mu.Lock()
	c.cancel = cancel
	c.done = done
	c.state = State{Playing: true, All: all}
	c.mu.Unlock()

	finish := func(err error) error {
		tr := c.sink.Transport()
		tr.Stop()
		tr.Cancel()
		tr.Reset()
		stopped := errors.Is(context.Cause(ctx), errStopped)
		cancel(nil)

		c.mu.Lock()
		c.state = State{}
		c.cancel = nil
		if c.done == done {
			c.done = nil
		}
		c.mu.Unlock()
		c.sendEvent(PlaybackEvent{Kind: EventPlaybackEnded})
		close(done)

		switch {
		case err == nil:
			return nil
		case errors.Is(err, scheduler.ErrContextSuspended):
			c.logger.Info("audio context suspended, playback stopped", "err", err)
			return nil
		case stopped && errors.Is(err, context.Canceled):
			return nil
		}
		return err
	}
	return ctx, finish
}

// Stop halts scheduling before the next bar, cancels triggers already on
// the transport and releases sustained voices.
func (c *Controller) Stop() {
	c.mu.Lock()
	cancel := c.cancel
	c.mu.Unlock()
	if cancel != nil {
		cancel(errStopped)
	}
	tr := c.sink.Transport()
	tr.Stop()
	tr.Cancel()
	tr.Reset()
	c.sink.ReleaseAll()
}

// Wait blocks until the current session ends. It returns immediately if
// nothing is playing.
func (c *Controller) Wait() {
	c.mu.Lock()
	done := c.done
	c.mu.Unlock()
	if done != nil {
		<-done
	}
}

// Watch returns a channel that receives playback events. The channel is
// buffered (cap 8) and events are dropped when it is full. Only the most
// recent Watch() channel receives events.
func (c *Controller) Watch() <-chan PlaybackEvent {
	ch := make(chan PlaybackEvent, 8)
	c.eventChMu.Lock()
	c.eventCh = ch
	c.eventChMu.Unlock()
	return ch
}

func (c *Controller) sendEvent(ev PlaybackEvent) {
	c.eventChMu.Lock()
	ch := c.eventCh
	c.eventChMu.Unlock()
	if ch != nil {
		select {
		case ch <- ev:
		default:
		}
	}
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller) setBlock(id string) {
	c.mu.Lock()
	c.state.Block = id
	c.state.Bar = 0
	c.mu.Unlock()
}

func (c *Controller) setBar(i int) {
	c.mu.Lock()
	c.state.Bar = i
	c.mu.Unlock()
}

func (c *Controller) Instrument() pitch.Instrument {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.instrument
}

// SetInstrument releases sustained voices, then switches instrument. Bars
// already scheduled keep the instrument they started with.
func (c *Controller) SetInstrument(inst pitch.Instrument) {
	c.sink.ReleaseAll()
	c.mu.Lock()
	c.instrument = inst
	c.mu.Unlock()
}

// PlayNote sounds one fret right away for seconds.
func (c *Controller) PlayNote(ctx context.Context, str, fret int, seconds float64) error {
	return c.PlayChord(ctx, []tab.Note{{String: str, Fret: fret}}, seconds)
}

// PlayChord sounds notes together right away. Unresolvable notes are
// skipped.
func (c *Controller) PlayChord(ctx context.Context, notes []tab.Note, seconds float64) error {
	err := c.bars.Strike(ctx, notes, c.Instrument(), seconds)
	if errors.Is(err, scheduler.ErrContextSuspended) {
		c.logger.Info("audio context suspended, note dropped", "err", err)
		return nil
	}
	return err
}

// SetMasterVolume sets runtime volume scalar. 1.0 is default.
func (c *Controller) SetMasterVolume(volume float64) {
	if volume < 0 {
		volume = 0
	}
	c.mu.Lock()
	c.volume = volume
	c.mu.Unlock()
	if v, ok := c.sink.(interface{ SetVolume(float64) }); ok {
		v.SetVolume(volume)
	}
}

func (c *Controller) MasterVolume() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.volume
}

// Close stops playback and releases the audio device, if the controller
// owns one.
func (c *Controller) Close() error {
	c.Stop()
	c.Wait()
	if c.closer != nil {
		return c.closer()
	}
	return nil
}
