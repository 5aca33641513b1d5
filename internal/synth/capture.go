package synth

import (
	"context"
	"math"
)

// Capture renders a Sink on the goroutine that waits on it. Playback code
// blocked in scheduler.Await advances the clock frame by frame, so every
// wait ends on exactly the frame it was due and nothing is rendered in
// between. Rendered frames are kept as interleaved stereo.
type Capture struct {
	*Sink
	out     []float32
	pending []firing
}

func NewCapture(s *Sink) *Capture {
	return &Capture{Sink: s}
}

// Pump renders until done is closed or ctx ends. The frame on which done
// closes has its events fired but is left unrendered, so the next wait
// starts from the same clock time the previous one ended at.
func (c *Capture) Pump(ctx context.Context, done <-chan struct{}) error {
	for {
		select {
		case <-done:
			return nil
		default:
		}
		c.pending = c.fireDue(c.pending[:0])
		select {
		case <-done:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		l, r := c.renderFrame()
		c.out = append(c.out, l, r)
	}
}

// Drain renders seconds more audio, firing anything still due.
func (c *Capture) Drain(seconds float64) {
	n := int(math.Round(seconds * float64(c.sampleRate)))
	for i := 0; i < n; i++ {
		c.pending = c.fireDue(c.pending[:0])
		l, r := c.renderFrame()
		c.out = append(c.out, l, r)
	}
}

// Samples returns everything rendered so far.
func (c *Capture) Samples() []float32 { return c.out }
