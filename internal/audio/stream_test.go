package audio

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type rampSource struct {
	calls int
}

func (s *rampSource) Process(dst []float32) {
	s.calls++
	for i := range dst {
		dst[i] = float32(i) / 10
	}
}

func TestStreamReaderEncodesFloats(t *testing.T) {
	src := &rampSource{}
	r := NewStreamReader(src)
	p := make([]byte, 4*8+3)
	n, err := r.Read(p)
	require.NoError(t, err)
	assert.Equal(t, 32, n)
	assert.Equal(t, 1, src.calls)
	for i := 0; i < 8; i++ {
		got := math.Float32frombits(binary.LittleEndian.Uint32(p[i*4:]))
		assert.Equal(t, float32(i)/10, got)
	}
}

func TestStreamReaderShortBuffer(t *testing.T) {
	src := &rampSource{}
	r := NewStreamReader(src)
	n, err := r.Read(make([]byte, 7))
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Zero(t, src.calls)
	assert.NoError(t, r.Close())
}
