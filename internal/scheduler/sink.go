package scheduler

import (
	"context"

	"github.com/cbegin/tabplay-go/internal/pitch"
)

// VoiceID identifies a voice started on a Sink.
type VoiceID int

// Envelope is an ADSR shape in seconds (Sustain is a level in [0,1]).
type Envelope struct {
	Attack  float64
	Decay   float64
	Sustain float64
	Release float64
}

func (e Envelope) IsZero() bool { return e == Envelope{} }

// Voice describes one pitched sound to start.
type Voice struct {
	Pitch      pitch.Pitch
	Instrument pitch.Instrument
	// Envelope overrides the instrument voicing; technique voices set it.
	Envelope Envelope
	// Plain voices carry no modulation and may be rendered from samples.
	Plain bool
}

// Sink is the audio collaborator a bar scheduler drives. All times are
// absolute seconds on the sink clock.
type Sink interface {
	// Now is the current clock time.
	Now() float64
	// Running reports whether the clock is advancing.
	Running() bool
	// Resume starts a suspended clock. It is idempotent.
	Resume(ctx context.Context) error

	StartVoice(v Voice, at float64) (VoiceID, error)
	RampFrequency(id VoiceID, fromHz, toHz, start, end float64) error
	Vibrato(id VoiceID, rateHz, depth, start, end float64) error
	// Release starts the voice's release stage at the given time. The sink
	// reclaims the voice once its release tail has played.
	Release(id VoiceID, at float64) error
	// Dispose frees a voice immediately.
	Dispose(id VoiceID)
	// ReleaseAll releases every sounding voice now.
	ReleaseAll()

	// AfterFunc runs fn once the clock reaches at.
	AfterFunc(at float64, fn func())
	Transport() Transport
}

type TransportState int

const (
	TransportStopped TransportState = iota
	TransportStarted
)

// Transport is a startable timeline on top of a sink clock. Event times
// are seconds from the transport origin; callbacks receive the absolute
// sink time the event was due.
type Transport interface {
	Schedule(at float64, fn func(now float64))
	Start()
	// Stop halts the timeline. Pending events stay registered.
	Stop()
	// Cancel drops every pending event.
	Cancel()
	// Reset moves the origin to the current clock time.
	Reset()
	State() TransportState
	// Position is seconds since the origin, or 0 while stopped.
	Position() float64
}

// Pumper is implemented by sinks whose clock is advanced by the goroutine
// that waits on it, as in offline rendering. Pump renders until done is
// closed or ctx ends.
type Pumper interface {
	Pump(ctx context.Context, done <-chan struct{}) error
}

// Await blocks until done is closed or ctx ends. A Pumper sink is driven
// while waiting so its clock advances exactly as far as done needs.
func Await(ctx context.Context, sink Sink, done <-chan struct{}) error {
	if p, ok := sink.(Pumper); ok {
		return p.Pump(ctx, done)
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
