package lfo

import "math"

// LFO is a sine low-frequency oscillator evaluated at an elapsed time
// rather than stepped per sample, so any number of voices can share one
// value.
type LFO struct {
	RateHz float64
	Depth  float64
}

func New(rateHz, depth float64) LFO {
	return LFO{RateHz: rateHz, Depth: depth}
}

// Active returns true if the LFO has non-zero depth and rate.
func (l LFO) Active() bool {
	return l.Depth != 0 && l.RateHz != 0
}

// At returns the modulation value in [-Depth, +Depth] after elapsed
// seconds. It starts at zero and rises.
func (l LFO) At(elapsed float64) float64 {
	if !l.Active() || elapsed < 0 {
		return 0
	}
	_, phase := math.Modf(elapsed * l.RateHz)
	return math.Sin(2*math.Pi*phase) * l.Depth
}

// Multiplier is 1+At(elapsed), for scaling a frequency by a relative depth.
func (l LFO) Multiplier(elapsed float64) float64 {
	return 1 + l.At(elapsed)
}
