package effects

import "math"

// Reverb is a Schroeder reverb: four parallel combs into two allpasses.
// Comb feedback is derived from the requested decay time.
type Reverb struct {
	combs   [4]combFilter
	allpass [2]allpassFilter
	wet     float32
}

type combFilter struct {
	buf []float32
	pos int
	fb  float32
}

type allpassFilter struct {
	buf []float32
	pos int
	fb  float32
}

var combMillis = [4]float64{29.7, 37.1, 41.1, 43.7}
var allpassMillis = [2]float64{5.0, 1.7}

// NewReverb builds a reverb whose tail falls by 60 dB over decaySec.
func NewReverb(sampleRate int, decaySec, wet float32) *Reverb {
	if decaySec <= 0 {
		decaySec = 0.1
	}
	r := &Reverb{wet: clamp(wet, 0, 1)}
	for i, ms := range combMillis {
		n := maxInt(int(float64(sampleRate)*ms/1000), 1)
		// 60 dB down after decaySec: g^(decay/delay) = 0.001
		fb := math.Pow(10, -3*(ms/1000)/float64(decaySec))
		r.combs[i] = combFilter{buf: make([]float32, n), fb: clamp(float32(fb), 0, 0.98)}
	}
	for i, ms := range allpassMillis {
		n := maxInt(int(float64(sampleRate)*ms/1000), 1)
		r.allpass[i] = allpassFilter{buf: make([]float32, n), fb: 0.5}
	}
	return r
}

func (r *Reverb) Process(l, r2 float32) (float32, float32) {
	mono := (l + r2) * 0.5
	var out float32
	for i := range r.combs {
		out += r.combs[i].process(mono)
	}
	out *= 0.25
	for i := range r.allpass {
		out = r.allpass[i].process(out)
	}
	return mix(l, out, r.wet), mix(r2, out, r.wet)
}

func (r *Reverb) Reset() {
	for i := range r.combs {
		clear(r.combs[i].buf)
		r.combs[i].pos = 0
	}
	for i := range r.allpass {
		clear(r.allpass[i].buf)
		r.allpass[i].pos = 0
	}
}

func (c *combFilter) process(in float32) float32 {
	out := c.buf[c.pos]
	c.buf[c.pos] = in + out*c.fb
	c.pos++
	if c.pos >= len(c.buf) {
		c.pos = 0
	}
	return out
}

func (a *allpassFilter) process(in float32) float32 {
	bufOut := a.buf[a.pos]
	out := -in + bufOut
	a.buf[a.pos] = in + bufOut*a.fb
	a.pos++
	if a.pos >= len(a.buf) {
		a.pos = 0
	}
	return out
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
