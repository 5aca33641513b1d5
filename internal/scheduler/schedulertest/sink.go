// Package schedulertest provides a recording scheduler.Sink driven by a
// virtual clock.
package schedulertest

import (
	"context"
	"math"
	"slices"
	"sync"

	"github.com/cbegin/tabplay-go/internal/scheduler"
)

type Started struct {
	ID    scheduler.VoiceID
	Voice scheduler.Voice
	At    float64
}

type Ramp struct {
	ID           scheduler.VoiceID
	FromHz, ToHz float64
	Start, End   float64
}

type Vibrato struct {
	ID                        scheduler.VoiceID
	RateHz, Depth, Start, End float64
}

type Released struct {
	ID scheduler.VoiceID
	At float64
}

type event struct {
	at  float64
	seq int
	fn  func(now float64)
}

// Sink records every call made on it. In the default mode the transport
// runs its events synchronously as soon as it starts and AfterFunc fires
// at once, jumping the clock forward. In manual mode nothing fires until
// Advance is called.
type Sink struct {
	// ResumeErr, when set, makes Resume fail.
	ResumeErr error
	// FailVoice, when set, is consulted by StartVoice.
	FailVoice func(v scheduler.Voice) error

	mu         sync.Mutex
	manual     bool
	now        float64
	running    bool
	nextID     scheduler.VoiceID
	seq        int
	started    []Started
	ramps      []Ramp
	vibratos   []Vibrato
	released   []Released
	disposed   []scheduler.VoiceID
	releaseAll int
	timers     []event
	transport  *Transport
	starts     chan struct{}
}

func New() *Sink {
	s := &Sink{starts: make(chan struct{}, 16)}
	s.transport = &Transport{sink: s}
	return s
}

// NewManual returns a Sink whose clock only moves through Advance.
func NewManual() *Sink {
	s := New()
	s.manual = true
	return s
}

func (s *Sink) Now() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now
}

func (s *Sink) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *Sink) Resume(ctx context.Context) error {
	if s.ResumeErr != nil {
		return s.ResumeErr
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	s.running = true
	s.mu.Unlock()
	return nil
}

func (s *Sink) StartVoice(v scheduler.Voice, at float64) (scheduler.VoiceID, error) {
	if s.FailVoice != nil {
		if err := s.FailVoice(v); err != nil {
			return 0, err
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	s.started = append(s.started, Started{ID: s.nextID, Voice: v, At: at})
	return s.nextID, nil
}

func (s *Sink) RampFrequency(id scheduler.VoiceID, fromHz, toHz, start, end float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ramps = append(s.ramps, Ramp{ID: id, FromHz: fromHz, ToHz: toHz, Start: start, End: end})
	return nil
}

func (s *Sink) Vibrato(id scheduler.VoiceID, rateHz, depth, start, end float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vibratos = append(s.vibratos, Vibrato{ID: id, RateHz: rateHz, Depth: depth, Start: start, End: end})
	return nil
}

func (s *Sink) Release(id scheduler.VoiceID, at float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.released = append(s.released, Released{ID: id, At: at})
	return nil
}

func (s *Sink) Dispose(id scheduler.VoiceID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.disposed = append(s.disposed, id)
}

func (s *Sink) ReleaseAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.releaseAll++
}

func (s *Sink) AfterFunc(at float64, fn func()) {
	s.mu.Lock()
	if s.manual {
		s.seq++
		s.timers = append(s.timers, event{at: at, seq: s.seq, fn: func(float64) { fn() }})
		s.mu.Unlock()
		return
	}
	if at > s.now {
		s.now = at
	}
	s.mu.Unlock()
	fn()
}

func (s *Sink) Transport() scheduler.Transport { return s.transport }

// TransportStarts receives once for every Transport.Start call.
func (s *Sink) TransportStarts() <-chan struct{} { return s.starts }

// Advance fires every due event up to t in time order, then sets the clock
// to t.
func (s *Sink) Advance(t float64) {
	s.runUntil(t)
	s.mu.Lock()
	if t > s.now {
		s.now = t
	}
	s.mu.Unlock()
}

func (s *Sink) runUntil(limit float64) {
	for {
		s.mu.Lock()
		ev, ok := s.popNext(limit)
		if !ok {
			s.mu.Unlock()
			return
		}
		if ev.at > s.now {
			s.now = ev.at
		}
		s.mu.Unlock()
		ev.fn(ev.at)
	}
}

// popNext removes the earliest due event across timers and the running
// transport. Callers hold s.mu.
func (s *Sink) popNext(limit float64) (event, bool) {
	best, bestList := -1, 0
	var bestEv event
	consider := func(list []event, which int, offset float64) {
		for i, ev := range list {
			abs := ev.at + offset
			if abs > limit {
				continue
			}
			if best < 0 || abs < bestEv.at || (abs == bestEv.at && ev.seq < bestEv.seq) {
				best, bestList = i, which
				bestEv = event{at: abs, seq: ev.seq, fn: ev.fn}
			}
		}
	}
	consider(s.timers, 0, 0)
	tr := s.transport
	if tr.state == scheduler.TransportStarted {
		consider(tr.events, 1, tr.origin)
	}
	if best < 0 {
		return event{}, false
	}
	if bestList == 0 {
		s.timers = slices.Delete(s.timers, best, best+1)
	} else {
		tr.events = slices.Delete(tr.events, best, best+1)
	}
	return bestEv, true
}

func (s *Sink) Voices() []Started {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.started)
}

func (s *Sink) Ramps() []Ramp {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.ramps)
}

func (s *Sink) Vibratos() []Vibrato {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.vibratos)
}

func (s *Sink) Releases() []Released {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.released)
}

func (s *Sink) Disposed() []scheduler.VoiceID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.disposed)
}

func (s *Sink) ReleaseAllCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.releaseAll
}

// Registrations lists the transport time of every Schedule call.
func (s *Sink) Registrations() []float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.transport.registrations)
}

// Transport is the fake sink's transport.
type Transport struct {
	sink          *Sink
	state         scheduler.TransportState
	origin        float64
	events        []event
	registrations []float64
	cancels       int
}

func (t *Transport) Schedule(at float64, fn func(now float64)) {
	s := t.sink
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	t.events = append(t.events, event{at: at, seq: s.seq, fn: fn})
	t.registrations = append(t.registrations, at)
}

func (t *Transport) Start() {
	s := t.sink
	s.mu.Lock()
	t.state = scheduler.TransportStarted
	manual := s.manual
	s.mu.Unlock()
	select {
	case s.starts <- struct{}{}:
	default:
	}
	if !manual {
		s.runUntil(math.Inf(1))
	}
}

func (t *Transport) Stop() {
	s := t.sink
	s.mu.Lock()
	defer s.mu.Unlock()
	t.state = scheduler.TransportStopped
}

func (t *Transport) Cancel() {
	s := t.sink
	s.mu.Lock()
	defer s.mu.Unlock()
	t.events = nil
	t.cancels++
}

func (t *Transport) Reset() {
	s := t.sink
	s.mu.Lock()
	defer s.mu.Unlock()
	t.origin = s.now
}

func (t *Transport) State() scheduler.TransportState {
	s := t.sink
	s.mu.Lock()
	defer s.mu.Unlock()
	return t.state
}

func (t *Transport) Position() float64 {
	s := t.sink
	s.mu.Lock()
	defer s.mu.Unlock()
	if t.state != scheduler.TransportStarted {
		return 0
	}
	return s.now - t.origin
}

// Cancels counts Cancel calls.
func (t *Transport) Cancels() int {
	s := t.sink
	s.mu.Lock()
	defer s.mu.Unlock()
	return t.cancels
}
