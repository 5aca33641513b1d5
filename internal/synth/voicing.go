package synth

import (
	"math"

	"github.com/cbegin/tabplay-go/internal/effects"
	"github.com/cbegin/tabplay-go/internal/pitch"
	"github.com/cbegin/tabplay-go/internal/scheduler"
)

// Bus 0 carries technique voices dry; each instrument has its own bus
// after it.
const (
	busDry   = 0
	numBuses = 5
)

type voicing struct {
	wave    waveType
	env     scheduler.Envelope
	gain    float64
	lpfHz   float64
	program int // General MIDI program for SoundFont playback
	effects func(sampleRate int) []effects.Effector
}

var voicings = map[pitch.Instrument]voicing{
	pitch.Acoustic: {
		wave:    waveTriangle,
		env:     scheduler.Envelope{Attack: 0.002, Decay: 0.15, Sustain: 0.2, Release: 1.2},
		gain:    1,
		program: 25,
		effects: func(sr int) []effects.Effector {
			return []effects.Effector{effects.NewReverb(sr, 1.5, 0.2)}
		},
	},
	pitch.Electric: {
		wave:    waveSquareAM,
		env:     scheduler.Envelope{Attack: 0.005, Decay: 0.1, Sustain: 0.3, Release: 0.8},
		gain:    0.6,
		program: 27,
		effects: func(int) []effects.Effector {
			return []effects.Effector{effects.NewDistortion(0.4, 0.3)}
		},
	},
	pitch.Bass: {
		wave:    waveSine,
		env:     scheduler.Envelope{Attack: 0.01, Decay: 0.1, Sustain: 0.9, Release: 1.5},
		gain:    1.2,
		lpfHz:   1100,
		program: 33,
	},
	pitch.Piano: {
		wave:    waveHarmonic,
		env:     scheduler.Envelope{Attack: 0.01, Decay: 0.5, Sustain: 0.3, Release: 2},
		gain:    1,
		program: 0,
	},
}

// helperWave is the oscillator used for technique voices.
const helperWave = waveTriangle

func voicingFor(inst pitch.Instrument) voicing {
	if v, ok := voicings[inst]; ok {
		return v
	}
	return voicings[pitch.Acoustic]
}

// Program is the General MIDI program used for inst.
func Program(inst pitch.Instrument) int { return voicingFor(inst).program }

// Channel is the MIDI channel inst plays on when rendered through a
// SampleBank or exported.
func Channel(inst pitch.Instrument) int { return busFor(inst) - 1 }

func busFor(inst pitch.Instrument) int {
	for i, known := range pitch.Instruments {
		if known == inst {
			return i + 1
		}
	}
	return busFor(pitch.Acoustic)
}

// bus is one instrument's post-voice processing.
type bus struct {
	gain     float64
	lpfAlpha float64
	lpf      float64
	chain    *effects.Chain
}

func newBus(v voicing, sampleRate int) bus {
	b := bus{gain: v.gain, chain: effects.NewChain()}
	if v.effects != nil {
		b.chain = effects.NewChain(v.effects(sampleRate)...)
	}
	if v.lpfHz > 0 && v.lpfHz < float64(sampleRate)/2 {
		rc := 1.0 / (twoPi * v.lpfHz)
		dt := 1.0 / float64(sampleRate)
		b.lpfAlpha = dt / (rc + dt)
	}
	return b
}

func (b *bus) process(x float64) (float32, float32) {
	x *= b.gain
	if b.lpfAlpha > 0 {
		b.lpf += b.lpfAlpha * (x - b.lpf)
		x = b.lpf
	}
	s := float32(x)
	return b.chain.Process(s, s)
}

func (b *bus) reset() {
	b.lpf = 0
	b.chain.Reset()
}

func clampKey(midi int) int {
	return int(math.Max(0, math.Min(127, float64(midi))))
}
