package synth

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"sync"

	"github.com/cbegin/tabplay-go/internal/effects"
	"github.com/cbegin/tabplay-go/internal/lfo"
	"github.com/cbegin/tabplay-go/internal/pitch"
	"github.com/cbegin/tabplay-go/internal/scheduler"
)

var (
	ErrUnknownVoice   = errors.New("unknown voice")
	ErrNotModulatable = errors.New("sampled voices cannot be modulated")
	errBadSampleRate  = errors.New("sampleRate must be positive")
)

const (
	// disposeMargin is kept after a voice's release tail before it is
	// reclaimed.
	disposeMargin   = 0.2
	reclaimInterval = 256
	sampleVelocity  = 100
)

// Output is a real-time device the sink renders into.
type Output interface {
	Resume(ctx context.Context) error
	Running() bool
}

// SampleBank plays plain tones from recorded samples, one MIDI channel per
// instrument.
type SampleBank interface {
	SetProgram(channel, program int)
	NoteOn(channel, key, velocity int)
	NoteOff(channel, key int)
	AllNotesOff()
	RenderFrame() (float32, float32)
}

type Option func(*Sink)

func WithOutput(o Output) Option { return func(s *Sink) { s.output = o } }

func WithSampleBank(b SampleBank) Option { return func(s *Sink) { s.bank = b } }

func WithParams(p Params) Option { return func(s *Sink) { s.params = p } }

func WithLogger(l *slog.Logger) Option { return func(s *Sink) { s.logger = l } }

type entry struct {
	sampled   bool
	channel   int
	key       int
	release   float64
	disposeAt int64
}

type bankEvent struct {
	frame   int64
	on      bool
	channel int
	key     int
}

type timer struct {
	frame int64
	fn    func()
}

type firing struct {
	fn func()
}

// Sink is a sample-clocked audio sink. The clock advances only while
// Process renders, so the same Sink serves real-time output and offline
// rendering.
type Sink struct {
	mu         sync.Mutex
	sampleRate int
	params     Params
	frame      int64
	running    bool
	output     Output
	bank       SampleBank
	engine     *Engine
	buses      [numBuses]bus
	sums       [numBuses]float64
	limiter    *effects.Limiter
	dcPrevIn   [2]float64
	dcPrevOut  [2]float64
	nextID     scheduler.VoiceID
	voices     map[scheduler.VoiceID]*entry
	bankEvents []bankEvent
	timers     []timer
	transport  *Transport
	logger     *slog.Logger
}

var _ scheduler.Sink = (*Sink)(nil)

func NewSink(sampleRate int, opts ...Option) (*Sink, error) {
	if sampleRate <= 0 {
		return nil, errBadSampleRate
	}
	s := &Sink{
		sampleRate: sampleRate,
		params:     DefaultParams(),
		voices:     make(map[scheduler.VoiceID]*entry),
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.engine = NewEngine(sampleRate, s.params)
	s.buses[busDry] = bus{gain: 1, chain: effects.NewChain()}
	for _, inst := range pitch.Instruments {
		v := voicingFor(inst)
		b := busFor(inst)
		s.buses[b] = newBus(v, sampleRate)
		if s.bank != nil {
			s.bank.SetProgram(b-1, v.program)
		}
	}
	s.limiter = effects.NewLimiter(sampleRate, -3, 8, 1, 80)
	s.transport = &Transport{s: s}
	s.logger.Debug("audio sink ready", "sampleRate", sampleRate, "sampled", s.bank != nil)
	return s, nil
}

func (s *Sink) SampleRate() int { return s.sampleRate }

func (s *Sink) Now() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seconds(s.frame)
}

func (s *Sink) Running() bool {
	if s.output != nil {
		return s.output.Running()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *Sink) Resume(ctx context.Context) error {
	if s.output != nil {
		if err := s.output.Resume(ctx); err != nil {
			return err
		}
	}
	s.mu.Lock()
	s.running = true
	s.mu.Unlock()
	return nil
}

func (s *Sink) StartVoice(v scheduler.Voice, at float64) (scheduler.VoiceID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	frame := s.frameAt(at)
	s.nextID++
	id := s.nextID
	vc := voicingFor(v.Instrument)
	b := busFor(v.Instrument)

	if v.Plain && s.bank != nil {
		e := &entry{sampled: true, channel: b - 1, key: clampKey(v.Pitch.MIDI), release: vc.env.Release, disposeAt: -1}
		s.bankEvents = append(s.bankEvents, bankEvent{frame: frame, on: true, channel: e.channel, key: e.key})
		s.voices[id] = e
		return id, nil
	}
	spec := voiceSpec{bus: b, wave: vc.wave, env: vc.env, freq: v.Pitch.Frequency()}
	if !v.Envelope.IsZero() {
		spec.bus, spec.wave, spec.env = busDry, helperWave, v.Envelope
	}
	s.engine.Attack(int(id), spec, frame)
	s.voices[id] = &entry{release: spec.env.Release, disposeAt: -1}
	return id, nil
}

func (s *Sink) RampFrequency(id scheduler.VoiceID, fromHz, toHz, start, end float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.modulatable(id); err != nil {
		return err
	}
	s.engine.Glide(int(id), fromHz, toHz, s.frameAt(start), s.frameAt(end))
	return nil
}

func (s *Sink) Vibrato(id scheduler.VoiceID, rateHz, depth, start, end float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.modulatable(id); err != nil {
		return err
	}
	s.engine.Vibrato(int(id), lfo.New(rateHz, depth), s.frameAt(start), s.frameAt(end))
	return nil
}

func (s *Sink) Release(id scheduler.VoiceID, at float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.voices[id]
	if !ok {
		return ErrUnknownVoice
	}
	frame := s.frameAt(at)
	if e.sampled {
		s.bankEvents = append(s.bankEvents, bankEvent{frame: frame, channel: e.channel, key: e.key})
	} else {
		s.engine.Release(int(id), frame)
	}
	e.disposeAt = frame + s.frames(e.release+disposeMargin)
	return nil
}

func (s *Sink) Dispose(id scheduler.VoiceID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dispose(id)
}

// ReleaseAll releases every sounding voice now and flushes the effect
// tails of every bus.
func (s *Sink) ReleaseAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.engine.ReleaseAll(s.frame)
	for b := range s.buses {
		s.buses[b].reset()
	}
	s.limiter.Reset()
	s.dcPrevIn, s.dcPrevOut = [2]float64{}, [2]float64{}
	if s.bank != nil {
		s.bankEvents = s.bankEvents[:0]
		s.bank.AllNotesOff()
	}
	for id, e := range s.voices {
		if e.sampled || !s.engine.Active(int(id)) {
			delete(s.voices, id)
			continue
		}
		if limit := s.frame + s.frames(e.release+disposeMargin); e.disposeAt < 0 || e.disposeAt > limit {
			e.disposeAt = limit
		}
	}
}

func (s *Sink) AfterFunc(at float64, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.timers = append(s.timers, timer{frame: s.frameAt(at), fn: fn})
}

func (s *Sink) Transport() scheduler.Transport { return s.transport }

// SetVolume scales the engine's master gain. 1 is the configured level.
func (s *Sink) SetVolume(v float64) {
	s.engine.SetMasterGain(s.params.MasterGain * max(v, 0))
}

// Voices is the number of voices not yet reclaimed.
func (s *Sink) Voices() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.voices)
}

// Sounding is the number of synthesized voices currently rendering.
func (s *Sink) Sounding() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.ActiveVoiceCount()
}

// Process renders interleaved stereo frames into dst, firing timers and
// transport events as their frames are reached.
func (s *Sink) Process(dst []float32) {
	frames := len(dst) / 2
	var pending []firing
	for i := 0; i < frames; i++ {
		pending = s.fireDue(pending[:0])
		dst[i*2], dst[i*2+1] = s.renderFrame()
	}
}

// fireDue runs the timers and transport events due at the current frame.
// Callbacks run without s.mu held.
func (s *Sink) fireDue(buf []firing) []firing {
	buf = s.collectDue(buf)
	for _, f := range buf {
		f.fn()
	}
	return buf
}

func (s *Sink) collectDue(out []firing) []firing {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.timers) > 0 {
		kept := s.timers[:0]
		for _, t := range s.timers {
			if t.frame <= s.frame {
				out = append(out, firing{fn: t.fn})
			} else {
				kept = append(kept, t)
			}
		}
		clear(s.timers[len(kept):])
		s.timers = kept
	}
	return s.transport.due(out)
}

func (s *Sink) renderFrame() (float32, float32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.applyBankEvents()
	s.engine.RenderFrame(s.frame, s.sums[:])
	dry := float32(s.sums[busDry])
	l, r := dry, dry
	for b := busDry + 1; b < numBuses; b++ {
		bl, br := s.buses[b].process(s.sums[b])
		l += bl
		r += br
	}
	if s.bank != nil {
		bl, br := s.bank.RenderFrame()
		l += bl
		r += br
	}
	l = float32(s.dcBlock(0, float64(l)))
	r = float32(s.dcBlock(1, float64(r)))
	l, r = s.limiter.Process(l, r)
	s.frame++
	if s.frame%reclaimInterval == 0 {
		s.reclaim()
	}
	return float32(clamp(float64(l), -1, 1)), float32(clamp(float64(r), -1, 1))
}

func (s *Sink) applyBankEvents() {
	if len(s.bankEvents) == 0 {
		return
	}
	kept := s.bankEvents[:0]
	for _, ev := range s.bankEvents {
		switch {
		case ev.frame > s.frame:
			kept = append(kept, ev)
		case ev.on:
			s.bank.NoteOn(ev.channel, ev.key, sampleVelocity)
		default:
			s.bank.NoteOff(ev.channel, ev.key)
		}
	}
	s.bankEvents = kept
}

// reclaim frees voices whose release tail has fully played.
func (s *Sink) reclaim() {
	for id, e := range s.voices {
		if e.disposeAt >= 0 && s.frame >= e.disposeAt {
			s.dispose(id)
		}
	}
}

func (s *Sink) dispose(id scheduler.VoiceID) {
	e, ok := s.voices[id]
	if !ok {
		return
	}
	if e.sampled {
		s.bank.NoteOff(e.channel, e.key)
	} else {
		s.engine.Kill(int(id))
	}
	delete(s.voices, id)
}

func (s *Sink) modulatable(id scheduler.VoiceID) error {
	e, ok := s.voices[id]
	if !ok {
		return ErrUnknownVoice
	}
	if e.sampled {
		return ErrNotModulatable
	}
	return nil
}

func (s *Sink) dcBlock(ch int, x float64) float64 {
	const r = 0.995
	y := x - s.dcPrevIn[ch] + r*s.dcPrevOut[ch]
	s.dcPrevIn[ch] = x
	s.dcPrevOut[ch] = y
	return y
}

// frameAt converts a clock time to a frame, never earlier than now.
func (s *Sink) frameAt(t float64) int64 {
	f := int64(math.Round(t * float64(s.sampleRate)))
	if f < s.frame {
		return s.frame
	}
	return f
}

func (s *Sink) frames(seconds float64) int64 {
	return int64(math.Ceil(seconds * float64(s.sampleRate)))
}

func (s *Sink) seconds(frame int64) float64 {
	return float64(frame) / float64(s.sampleRate)
}
