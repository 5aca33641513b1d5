package synth

import (
	"slices"

	"github.com/cbegin/tabplay-go/internal/scheduler"
)

type transportEvent struct {
	at  float64
	seq int
	fn  func(now float64)
}

// Transport is a startable timeline driven by the sink's sample clock.
// Starting a stopped transport puts its origin at the current frame.
type Transport struct {
	s      *Sink
	state  scheduler.TransportState
	origin int64
	seq    int
	events []transportEvent
}

func (t *Transport) Schedule(at float64, fn func(now float64)) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	t.seq++
	t.events = append(t.events, transportEvent{at: at, seq: t.seq, fn: fn})
}

func (t *Transport) Start() {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	if t.state == scheduler.TransportStarted {
		return
	}
	t.state = scheduler.TransportStarted
	t.origin = t.s.frame
}

func (t *Transport) Stop() {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	t.state = scheduler.TransportStopped
}

func (t *Transport) Cancel() {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	t.events = nil
}

func (t *Transport) Reset() {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	t.origin = t.s.frame
}

func (t *Transport) State() scheduler.TransportState {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	return t.state
}

func (t *Transport) Position() float64 {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	return t.position()
}

// Pending is the number of registered events that have not fired.
func (t *Transport) Pending() int {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	return len(t.events)
}

func (t *Transport) position() float64 {
	if t.state != scheduler.TransportStarted {
		return 0
	}
	return float64(t.s.frame-t.origin) / float64(t.s.sampleRate)
}

// due removes events whose time has been reached and returns them in
// time order with their absolute sink times. Callers hold s.mu.
func (t *Transport) due(out []firing) []firing {
	if t.state != scheduler.TransportStarted || len(t.events) == 0 {
		return out
	}
	pos := t.position() + 1e-9
	base := float64(t.origin) / float64(t.s.sampleRate)
	var ready []transportEvent
	t.events = slices.DeleteFunc(t.events, func(ev transportEvent) bool {
		if ev.at <= pos {
			ready = append(ready, ev)
			return true
		}
		return false
	})
	slices.SortFunc(ready, func(a, b transportEvent) int {
		if a.at != b.at {
			if a.at < b.at {
				return -1
			}
			return 1
		}
		return a.seq - b.seq
	})
	for _, ev := range ready {
		fn, at := ev.fn, base+ev.at
		out = append(out, firing{fn: func() { fn(at) }})
	}
	return out
}
