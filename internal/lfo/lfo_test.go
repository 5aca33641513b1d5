package lfo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSine(t *testing.T) {
	l := New(1, 1)
	assert.InDelta(t, 0, l.At(0), 1e-9)
	assert.InDelta(t, 1, l.At(0.25), 1e-9)
	assert.InDelta(t, 0, l.At(0.5), 1e-9)
	assert.InDelta(t, -1, l.At(0.75), 1e-9)
	assert.InDelta(t, 1, l.At(3.25), 1e-9)
}

func TestRateAndDepthScale(t *testing.T) {
	l := New(2, 0.5)
	assert.InDelta(t, 0.5, l.At(0.125), 1e-9)
	assert.InDelta(t, -0.5, l.At(0.375), 1e-9)
	assert.InDelta(t, 1.5, l.Multiplier(0.125), 1e-9)
}

func TestInactive(t *testing.T) {
	assert.False(t, LFO{}.Active())
	assert.Equal(t, 0.0, New(0, 1).At(0.3))
	assert.Equal(t, 0.0, New(5, 0).At(0.3))
	assert.Equal(t, 0.0, New(5, 1).At(-1))
	assert.Equal(t, 1.0, New(5, 0).Multiplier(0.3))
}

func TestVibratoStaysWithinDepth(t *testing.T) {
	l := New(6, 0.02)
	for i := 0; i < 1000; i++ {
		m := l.Multiplier(float64(i) / 997)
		assert.GreaterOrEqual(t, m, 0.98-1e-12)
		assert.LessOrEqual(t, m, 1.02+1e-12)
	}
}
