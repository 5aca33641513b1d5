package scheduler

import (
	"errors"

	"github.com/cbegin/tabplay-go/internal/pitch"
	"github.com/cbegin/tabplay-go/internal/tab"
)

// Fractions of a note's duration used by the technique triggers.
const (
	muteLength       = 0.2
	legatoSplit      = 0.3
	bendRampEnd      = 0.5
	bendReleaseTop   = 0.4
	bendReleaseEnd   = 0.8
	slideRampEnd     = 0.8
	defaultFretShift = 2
)

var (
	mutedEnvelope   = Envelope{Attack: 0.001, Decay: 0.05, Sustain: 0.01, Release: 0.1}
	hammerEnvelope  = Envelope{Attack: 0.001, Decay: 0.1, Sustain: 0.7, Release: 0.8}
	pullEnvelope    = Envelope{Attack: 0.02, Decay: 0.1, Sustain: 0.7, Release: 0.8}
	glideEnvelope   = Envelope{Attack: 0.005, Decay: 0.1, Sustain: 0.3, Release: 1}
	vibratoEnvelope = Envelope{Attack: 0.01, Decay: 0.1, Sustain: 0.8, Release: 0.8}
)

// ErrUnresolvable means the note's own pitch cannot be played on the
// instrument; the note is skipped.
var ErrUnresolvable = errors.New("note pitch cannot be resolved")

// Ramp is a linear frequency glide. Times are offsets from the trigger
// slot start.
type Ramp struct {
	FromHz, ToHz float64
	Start, End   float64
}

type VibratoSpec struct {
	RateHz float64
	Depth  float64
}

// Trigger is one voice of a plan. Start and Length are seconds relative to
// the slot start.
type Trigger struct {
	Voice   Voice
	Start   float64
	Length  float64
	Ramps   []Ramp
	Vibrato *VibratoSpec
}

type Plan []Trigger

type kind int

const (
	kindPlain kind = iota
	kindMute
	kindLegato
	kindBend
	kindSlide
	kindVibrato
	numKinds
)

func kindOf(t tab.Technique) kind {
	switch t {
	case tab.TechMute:
		return kindMute
	case tab.TechHammerOn, tab.TechPullOff:
		return kindLegato
	case tab.TechBend, tab.TechBendRelease:
		return kindBend
	case tab.TechSlideUp, tab.TechSlideDown:
		return kindSlide
	case tab.TechVibrato, tab.TechVibratoWave:
		return kindVibrato
	}
	return kindPlain
}

type planInput struct {
	note     tab.Note
	origin   pitch.Pitch
	inst     pitch.Instrument
	duration float64
	timings  Timings
}

type planner func(in planInput) Plan

var planners = [numKinds]planner{
	kindPlain:   planPlain,
	kindMute:    planMute,
	kindLegato:  planLegato,
	kindBend:    planBend,
	kindSlide:   planSlide,
	kindVibrato: planVibrato,
}

// Resolve maps a note to its sounding pitch on inst.
func Resolve(n tab.Note, inst pitch.Instrument) (pitch.Pitch, bool) {
	return pitch.FretToNote(pitch.TableIndex(n.String), n.Fret, inst)
}

// BuildPlan expands a note into the voices that render it over duration
// seconds. A technique whose target cannot be resolved degrades to a plain
// tone.
func BuildPlan(n tab.Note, inst pitch.Instrument, duration float64, timings Timings) (Plan, error) {
	origin, ok := Resolve(n, inst)
	if !ok {
		return nil, ErrUnresolvable
	}
	in := planInput{note: n, origin: origin, inst: inst, duration: duration, timings: timings}
	return planners[kindOf(n.Technique)](in), nil
}

// PlainPlan is the fallback: one sustained tone.
func PlainPlan(origin pitch.Pitch, inst pitch.Instrument, duration float64) Plan {
	return Plan{{
		Voice:  Voice{Pitch: origin, Instrument: inst, Plain: true},
		Length: duration,
	}}
}

func planPlain(in planInput) Plan {
	return PlainPlan(in.origin, in.inst, in.duration)
}

func planMute(in planInput) Plan {
	return Plan{{
		Voice:  in.voice(in.origin, mutedEnvelope),
		Length: in.duration * muteLength,
	}}
}

func planLegato(in planInput) Plan {
	shift := defaultFretShift
	env := hammerEnvelope
	if in.note.Technique == tab.TechPullOff {
		shift = -defaultFretShift
		env = pullEnvelope
	}
	target, ok := in.target(shift)
	if !ok {
		return planPlain(in)
	}
	split := in.duration * legatoSplit
	return Plan{
		{
			Voice:  Voice{Pitch: in.origin, Instrument: in.inst, Plain: true},
			Length: split,
		},
		{
			Voice:  in.voice(target, env),
			Start:  split,
			Length: in.duration - split,
		},
	}
}

func planBend(in planInput) Plan {
	target, ok := in.target(defaultFretShift)
	if !ok {
		return planPlain(in)
	}
	from, to := in.origin.Frequency(), target.Frequency()
	d := in.duration
	ramps := []Ramp{{FromHz: from, ToHz: to, End: d * bendRampEnd}}
	if in.note.Technique == tab.TechBendRelease {
		ramps = []Ramp{
			{FromHz: from, ToHz: to, End: d * bendReleaseTop},
			{FromHz: to, ToHz: from, Start: d * bendReleaseTop, End: d * bendReleaseEnd},
		}
	}
	return Plan{{Voice: in.voice(in.origin, glideEnvelope), Length: d, Ramps: ramps}}
}

func planSlide(in planInput) Plan {
	shift := defaultFretShift
	if in.note.Technique == tab.TechSlideDown {
		shift = -defaultFretShift
	}
	target, ok := in.target(shift)
	if !ok {
		return planPlain(in)
	}
	return Plan{{
		Voice:  in.voice(in.origin, glideEnvelope),
		Length: in.duration,
		Ramps: []Ramp{{
			FromHz: in.origin.Frequency(),
			ToHz:   target.Frequency(),
			End:    in.duration * slideRampEnd,
		}},
	}}
}

func planVibrato(in planInput) Plan {
	return Plan{{
		Voice:   in.voice(in.origin, vibratoEnvelope),
		Length:  in.duration,
		Vibrato: &VibratoSpec{RateHz: in.timings.VibratoRate, Depth: in.timings.VibratoDepth},
	}}
}

func (in planInput) voice(p pitch.Pitch, env Envelope) Voice {
	return Voice{Pitch: p, Instrument: in.inst, Envelope: env}
}

// target resolves the explicit target fret, or the note's fret moved by
// shift when none was written.
func (in planInput) target(shift int) (pitch.Pitch, bool) {
	fret, ok := in.note.Target()
	if !ok {
		fret = in.note.Fret + shift
	}
	return pitch.FretToNote(pitch.TableIndex(in.note.String), fret, in.inst)
}
