// Package midifile exports tab blocks as a Standard MIDI File.
package midifile

import (
	"fmt"
	"io"
	"math"
	"os"
	"slices"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"

	"github.com/cbegin/tabplay-go/internal/document"
	"github.com/cbegin/tabplay-go/internal/lfo"
	"github.com/cbegin/tabplay-go/internal/pitch"
	"github.com/cbegin/tabplay-go/internal/scheduler"
	"github.com/cbegin/tabplay-go/internal/synth"
	"github.com/cbegin/tabplay-go/internal/tab"
)

const (
	Resolution = 960
	// BarTicks is one whole note.
	BarTicks = 4 * Resolution

	velocity      = 100
	mutedVelocity = 50

	// BendRange is the pitch wheel range in semitones, set by RPN 0 at the
	// start of the track.
	BendRange = 12
	// bendStep is the tick spacing of pitch wheel updates along ramps and
	// vibrato.
	bendStep = Resolution / 32
)

// Messages on the same tick are written in phase order.
const (
	phaseSetup = iota
	phaseOff
	phaseReset
	phaseBend
	phaseOn
)

type event struct {
	tick  uint32
	phase int
	msg   []byte
}

// Write encodes the tab blocks of blocks, in order, into one track. Each
// bar is a whole note split evenly between its positions, matching
// transport playback. Text blocks are skipped.
func Write(w io.Writer, blocks []document.Block, inst pitch.Instrument) error {
	ch := uint8(synth.Channel(inst))
	timings := scheduler.DefaultTimings()

	var events []event
	add := func(tick uint32, phase int, msg []byte) {
		events = append(events, event{tick: tick, phase: phase, msg: msg})
	}
	add(0, phaseSetup, smf.MetaMeter(4, 4))
	add(0, phaseSetup, midi.ProgramChange(ch, uint8(synth.Program(inst))))
	for _, m := range bendRangeRPN(ch) {
		add(0, phaseSetup, m)
	}

	var cursor uint32
	for _, b := range blocks {
		if !b.IsTab() {
			continue
		}
		parsed := b.Parsed()
		if parsed.Empty() {
			continue
		}
		tempo := float64(b.Tempo)
		if tempo <= 0 {
			tempo = pitch.DefaultTempo
		}
		add(cursor, phaseSetup, smf.MetaTempo(tempo))
		ticksPerSecond := float64(Resolution) * tempo / 60
		for _, notes := range parsed.Notes {
			slots := slotPositions(notes)
			step := float64(BarTicks) / float64(max(len(slots), 1))
			gateSec := step * timings.GateRatio / ticksPerSecond
			for _, n := range notes {
				plan, err := scheduler.BuildPlan(n, inst, gateSec, timings)
				if err != nil {
					continue
				}
				at := float64(cursor) + float64(slices.Index(slots, n.Position))*step
				vel := uint8(velocity)
				if n.Technique == tab.TechMute {
					vel = mutedVelocity
				}
				for _, tr := range plan {
					key := uint8(min(max(tr.Voice.Pitch.MIDI, 0), 127))
					on := at + tr.Start*ticksPerSecond
					off := on + max(tr.Length*ticksPerSecond, 1)
					ref := pitch.FromMIDI(int(key)).Frequency()
					bends := wheel(tr, ref, on, ticksPerSecond)
					for _, bd := range bends {
						add(bd.tick, phaseBend, midi.Pitchbend(ch, bd.value))
					}
					add(uint32(on), phaseOn, midi.NoteOn(ch, key, vel))
					add(uint32(off), phaseOff, midi.NoteOff(ch, key))
					if len(bends) > 0 {
						add(uint32(off), phaseReset, midi.Pitchbend(ch, midi.PitchReset))
					}
				}
			}
			cursor += BarTicks
		}
	}

	// Note-offs sort ahead of note-ons on the same tick so retriggered keys
	// are not cut short, and a wheel reset never undoes the next bend.
	slices.SortStableFunc(events, func(a, b event) int {
		if a.tick != b.tick {
			return int(a.tick) - int(b.tick)
		}
		return a.phase - b.phase
	})

	var track smf.Track
	var last uint32
	for _, e := range events {
		track.Add(e.tick-last, e.msg)
		last = e.tick
	}
	track.Close(max(cursor, last) - last)

	sm := smf.New()
	sm.TimeFormat = smf.MetricTicks(Resolution)
	if err := sm.Add(track); err != nil {
		return fmt.Errorf("error adding track: %w", err)
	}
	if _, err := sm.WriteTo(w); err != nil {
		return fmt.Errorf("error writing MIDI: %w", err)
	}
	return nil
}

// WriteFile writes the export to path.
func WriteFile(path string, blocks []document.Block, inst pitch.Instrument) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Write(f, blocks, inst); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

type bend struct {
	tick  uint32
	value int16
}

// wheel returns the pitch wheel moves that follow a trigger's ramps and
// vibrato, relative to the key it sounds at. on is the trigger's start in
// ticks. The wheel is per channel, so every key held at the same time moves
// with it.
func wheel(tr scheduler.Trigger, ref, on, ticksPerSecond float64) []bend {
	var out []bend
	for _, r := range tr.Ramps {
		from := on + r.Start*ticksPerSecond
		to := on + r.End*ticksPerSecond
		for t := from; ; t += bendStep {
			t = min(t, to)
			frac := 1.0
			if to > from {
				frac = (t - from) / (to - from)
			}
			hz := r.FromHz + (r.ToHz-r.FromHz)*frac
			out = append(out, bend{tick: uint32(t), value: bendValue(hz / ref)})
			if t >= to {
				break
			}
		}
	}
	if v := tr.Vibrato; v != nil {
		osc := lfo.New(v.RateHz, v.Depth)
		end := on + tr.Length*ticksPerSecond
		for t := on; t < end; t += bendStep {
			elapsed := (t - on) / ticksPerSecond
			out = append(out, bend{tick: uint32(t), value: bendValue(osc.Multiplier(elapsed))})
		}
	}
	return out
}

// bendValue is the signed wheel value that scales the key frequency by
// ratio.
func bendValue(ratio float64) int16 {
	v := math.Round(12 * math.Log2(ratio) / BendRange * 8192)
	return int16(min(max(v, midi.PitchLowest), midi.PitchHighest))
}

func bendRangeRPN(ch uint8) [][]byte {
	return [][]byte{
		midi.ControlChange(ch, 101, 0),
		midi.ControlChange(ch, 100, 0),
		midi.ControlChange(ch, 6, BendRange),
		midi.ControlChange(ch, 38, 0),
	}
}

func slotPositions(notes []tab.Note) []int {
	var out []int
	for _, n := range notes {
		if !slices.Contains(out, n.Position) {
			out = append(out, n.Position)
		}
	}
	slices.Sort(out)
	return out
}
