package effects

import "math"

// Distortion is a static waveshaper with a wet/dry mix.
type Distortion struct {
	k   float64
	wet float32
}

// NewDistortion takes an amount in [0,1]; 0 is nearly linear.
func NewDistortion(amount, wet float32) *Distortion {
	return &Distortion{
		k:   float64(clamp(amount, 0, 1)) * 100,
		wet: clamp(wet, 0, 1),
	}
}

func (d *Distortion) shape(x float32) float32 {
	const deg = math.Pi / 180
	v := float64(x)
	return float32((3 + d.k) * v * 20 * deg / (math.Pi + d.k*math.Abs(v)))
}

func (d *Distortion) Process(l, r float32) (float32, float32) {
	return mix(l, d.shape(l), d.wet), mix(r, d.shape(r), d.wet)
}

func (d *Distortion) Reset() {}
