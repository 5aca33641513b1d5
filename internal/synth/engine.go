package synth

import (
	"math"
	"sync/atomic"

	"github.com/cbegin/tabplay-go/internal/lfo"
	"github.com/cbegin/tabplay-go/internal/scheduler"
)

const (
	twoPi         = math.Pi * 2
	amHarmonicity = 3
	harmonics     = 8
)

type Params struct {
	Voices      int
	MasterGain  float64
	Velocity    float64
	VelocityAmp float64
}

func DefaultParams() Params {
	return Params{
		Voices:      48,
		MasterGain:  0.3,
		Velocity:    0.8,
		VelocityAmp: 0.85,
	}
}

type waveType int

const (
	waveTriangle waveType = iota
	waveSquareAM
	waveSine
	waveHarmonic
)

type envState int

const (
	envPending envState = iota
	envAttack
	envDecay
	envSustain
	envRelease
	envOff
)

type glide struct {
	from, to   float64
	start, end int64
}

type vibrato struct {
	lfo        lfo.LFO
	start, end int64
}

type voice struct {
	active       bool
	id           int
	age          int
	bus          int
	wave         waveType
	adsr         scheduler.Envelope
	env          float64
	envState     envState
	releaseStep  float64
	velocity     float64
	freq         float64
	phase        float64
	modPhase     float64
	startFrame   int64
	releaseFrame int64
	glides       []glide
	vib          *vibrato
}

type voiceSpec struct {
	bus  int
	wave waveType
	env  scheduler.Envelope
	freq float64
}

// Engine renders a fixed pool of voices into per-bus mono sums. Voices are
// scheduled in frames: they stay silent until their start frame and enter
// release at their release frame.
type Engine struct {
	sampleRate float64
	params     Params
	voices     []voice
	masterGain uint64
}

func NewEngine(sampleRate int, params Params) *Engine {
	if params.Voices <= 0 {
		params.Voices = DefaultParams().Voices
	}
	return &Engine{
		sampleRate: float64(sampleRate),
		params:     params,
		voices:     make([]voice, params.Voices),
		masterGain: math.Float64bits(params.MasterGain),
	}
}

func (e *Engine) Attack(id int, spec voiceSpec, at int64) {
	v := &e.voices[e.stealVoice()]
	*v = voice{
		active:       true,
		id:           id,
		bus:          spec.bus,
		wave:         spec.wave,
		adsr:         spec.env,
		envState:     envPending,
		velocity:     e.params.Velocity,
		freq:         spec.freq,
		startFrame:   at,
		releaseFrame: -1,
		glides:       v.glides[:0],
	}
}

// Glide adds a linear frequency ramp. Ramps must not overlap.
func (e *Engine) Glide(id int, from, to float64, start, end int64) bool {
	v := e.find(id)
	if v == nil {
		return false
	}
	g := glide{from: from, to: to, start: start, end: end}
	i := len(v.glides)
	for i > 0 && v.glides[i-1].start > start {
		i--
	}
	v.glides = append(v.glides, glide{})
	copy(v.glides[i+1:], v.glides[i:])
	v.glides[i] = g
	return true
}

func (e *Engine) Vibrato(id int, l lfo.LFO, start, end int64) bool {
	v := e.find(id)
	if v == nil {
		return false
	}
	v.vib = &vibrato{lfo: l, start: start, end: end}
	return true
}

func (e *Engine) Release(id int, at int64) bool {
	v := e.find(id)
	if v == nil {
		return false
	}
	v.releaseFrame = at
	return true
}

func (e *Engine) Kill(id int) bool {
	v := e.find(id)
	if v == nil {
		return false
	}
	v.active = false
	v.envState = envOff
	return true
}

// ReleaseAll releases every sounding voice at frame and drops voices that
// have not started yet.
func (e *Engine) ReleaseAll(at int64) {
	for i := range e.voices {
		v := &e.voices[i]
		if !v.active {
			continue
		}
		if v.envState == envPending {
			v.active = false
			v.envState = envOff
			continue
		}
		if v.releaseFrame < 0 || v.releaseFrame > at {
			v.releaseFrame = at
		}
	}
}

func (e *Engine) Active(id int) bool {
	return e.find(id) != nil
}

func (e *Engine) ActiveVoiceCount() int {
	n := 0
	for i := range e.voices {
		if e.voices[i].active {
			n++
		}
	}
	return n
}

func (e *Engine) SetMasterGain(gain float64) {
	if gain < 0 {
		gain = 0
	}
	atomic.StoreUint64(&e.masterGain, math.Float64bits(gain))
}

func (e *Engine) masterGainValue() float64 {
	return math.Float64frombits(atomic.LoadUint64(&e.masterGain))
}

// RenderFrame writes the frame's per-bus sums into out.
func (e *Engine) RenderFrame(frame int64, out []float64) {
	clear(out)
	gain := e.masterGainValue()
	for i := range e.voices {
		v := &e.voices[i]
		if !v.active {
			continue
		}
		if v.envState == envPending {
			if frame < v.startFrame {
				continue
			}
			v.envState = envAttack
		}
		v.age++
		if v.releaseFrame >= 0 && frame >= v.releaseFrame && v.envState < envRelease {
			v.releaseStep = rate(v.env, v.adsr.Release, e.sampleRate)
			v.envState = envRelease
		}
		env := e.advanceEnv(v)
		if !v.active {
			continue
		}
		sample := e.renderWave(v, e.frequencyAt(v, frame))
		out[v.bus] += sample * env * (0.15 + v.velocity*e.params.VelocityAmp) * gain
	}
}

func (e *Engine) frequencyAt(v *voice, frame int64) float64 {
	f := v.freq
	for _, g := range v.glides {
		if frame < g.start {
			break
		}
		if frame >= g.end {
			f = g.to
			continue
		}
		t := float64(frame-g.start) / float64(g.end-g.start)
		f = g.from + (g.to-g.from)*t
	}
	if vib := v.vib; vib != nil && frame >= vib.start && frame < vib.end {
		f *= vib.lfo.Multiplier(float64(frame-vib.start) / e.sampleRate)
	}
	return f
}

// polyBLEP reduces aliasing at waveform discontinuities.
// t is the phase position [0,1), dt is the phase increment per sample.
func polyBLEP(t, dt float64) float64 {
	if t < dt {
		t /= dt
		return t + t - t*t - 1
	}
	if t > 1-dt {
		t = (t - 1) / dt
		return t*t + t + t + 1
	}
	return 0
}

func (e *Engine) renderWave(v *voice, freq float64) float64 {
	dt := freq / e.sampleRate
	v.phase += dt
	if v.phase >= 1 {
		v.phase -= math.Floor(v.phase)
	}
	switch v.wave {
	case waveSquareAM:
		out := -1.0
		if v.phase < 0.5 {
			out = 1
		}
		out += polyBLEP(v.phase, dt)
		out -= polyBLEP(math.Mod(v.phase+0.5, 1), dt)
		v.modPhase += dt * amHarmonicity
		if v.modPhase >= 1 {
			v.modPhase -= math.Floor(v.modPhase)
		}
		return out * (0.5 + 0.5*math.Sin(twoPi*v.modPhase))
	case waveSine:
		return math.Sin(twoPi * v.phase)
	case waveHarmonic:
		// band-limited triangle from its first odd partials
		var out, sign float64 = 0, 1
		for k := 0; k < harmonics; k++ {
			n := float64(2*k + 1)
			out += sign * math.Sin(twoPi*n*v.phase) / (n * n)
			sign = -sign
		}
		return out * 8 / (math.Pi * math.Pi)
	default:
		return 2*math.Abs(2*v.phase-1) - 1
	}
}

func (e *Engine) stealVoice() int {
	// Prefer an inactive slot.
	for i := range e.voices {
		if !e.voices[i].active {
			return i
		}
	}
	// Steal the oldest releasing voice, or failing that the oldest active voice.
	oldestRelease := -1
	oldestReleaseAge := -1
	oldestActive := 0
	oldestActiveAge := -1
	for i := range e.voices {
		v := &e.voices[i]
		if v.envState == envRelease && v.age > oldestReleaseAge {
			oldestRelease = i
			oldestReleaseAge = v.age
		}
		if v.age > oldestActiveAge {
			oldestActive = i
			oldestActiveAge = v.age
		}
	}
	if oldestRelease >= 0 {
		return oldestRelease
	}
	return oldestActive
}

func (e *Engine) advanceEnv(v *voice) float64 {
	a := v.adsr
	switch v.envState {
	case envAttack:
		v.env += rate(1, a.Attack, e.sampleRate)
		if v.env >= 1 {
			v.env = 1
			v.envState = envDecay
		}
	case envDecay:
		v.env -= rate(1-a.Sustain, a.Decay, e.sampleRate)
		if v.env <= a.Sustain {
			v.env = a.Sustain
			v.envState = envSustain
		}
	case envSustain:
	case envRelease:
		v.env -= v.releaseStep
		if v.env <= 0.0001 {
			v.env = 0
			v.envState = envOff
			v.active = false
		}
	case envOff:
		v.active = false
		v.env = 0
	}
	return v.env
}

func (e *Engine) find(id int) *voice {
	for i := range e.voices {
		if v := &e.voices[i]; v.active && v.id == id {
			return v
		}
	}
	return nil
}

// rate is the per-frame step covering span over seconds; stages shorter
// than one frame complete at once.
func rate(span, seconds, sampleRate float64) float64 {
	frames := seconds * sampleRate
	if frames < 1 {
		return math.Inf(1)
	}
	return span / frames
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
