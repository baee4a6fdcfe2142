//go:build !headless

package sink

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	frame []int16 // one stereo frame, repeated to fill dst
}

func (f *fakeSource) FillStereo16(dst []int16) bool {
	for i := range dst {
		dst[i] = f.frame[i%len(f.frame)]
	}
	return false
}

func TestOtoPlayer_ReadWithNoSourceZerosBuffer(t *testing.T) {
	op := &OtoPlayer{}
	buf := make([]byte, 32)
	for i := range buf {
		buf[i] = 0xFF
	}
	n, err := op.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, len(buf), n)
	for _, b := range buf {
		assert.Equal(t, byte(0), b)
	}
}

func TestOtoPlayer_ReadConvertsSourcePCMToFloat32LE(t *testing.T) {
	op := &OtoPlayer{}
	var src Source = &fakeSource{frame: []int16{16384, -16384}}
	op.src.Store(&src)

	buf := make([]byte, 8) // one stereo frame: 2 * 4 bytes
	n, err := op.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, 8, n)

	left := math.Float32frombits(uint32(buf[0]) | uint32(buf[1])<<8 | uint32(buf[2])<<16 | uint32(buf[3])<<24)
	right := math.Float32frombits(uint32(buf[4]) | uint32(buf[5])<<8 | uint32(buf[6])<<16 | uint32(buf[7])<<24)
	assert.InDelta(t, 0.5, left, 1e-6)
	assert.InDelta(t, -0.5, right, 1e-6)
}

func TestOtoPlayer_ReadWithZeroLengthBufferReturnsZero(t *testing.T) {
	op := &OtoPlayer{}
	var src Source = &fakeSource{frame: []int16{0, 0}}
	op.src.Store(&src)

	n, err := op.Read(make([]byte, 4)) // less than one frame's worth of bytes
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestPutFloat32LE_RoundTrips(t *testing.T) {
	b := make([]byte, 4)
	putFloat32LE(b, -0.25)
	got := math.Float32frombits(uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24)
	assert.Equal(t, float32(-0.25), got)
}
