package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWaveTables_BuiltInsPeakAtStAmp(t *testing.T) {
	wt := NewWaveTables()

	sine := wt.Table(WaveSine)
	require.NotNil(t, sine)
	assert.InDelta(t, 0, sine[0], 1)

	square := wt.Table(WaveSquare)
	require.NotNil(t, square)
	assert.Equal(t, int32(StAmp), square[0])
	assert.Equal(t, int32(-StAmp), square[StSize/2])

	tri := wt.Table(WaveTriangle)
	require.NotNil(t, tri)
	assert.Equal(t, int32(StAmp), tri[StSize/4])

	saw := wt.Table(WaveSawtooth)
	require.NotNil(t, saw)
	assert.InDelta(t, -StAmp, saw[0], 1)
}

func TestWaveTables_TableUnknownWaveformIsNil(t *testing.T) {
	wt := NewWaveTables()
	assert.Nil(t, wt.Table(999))
}

func TestWaveTables_UserTableUndefinedSlotIsNil(t *testing.T) {
	wt := NewWaveTables()
	assert.Nil(t, wt.UserTable(0))
}

func TestWaveTables_UserTableOutOfRangeIsNil(t *testing.T) {
	wt := NewWaveTables()
	assert.Nil(t, wt.UserTable(-1))
	assert.Nil(t, wt.UserTable(100))
}

func TestWaveTables_DefineUserWaveRejectsOutOfRangeIndex(t *testing.T) {
	wt := NewWaveTables()
	err := wt.DefineUserWave(100, []float64{0, 1})
	assert.Error(t, err)
	var rangeErr *RangeError
	assert.ErrorAs(t, err, &rangeErr)
}

func TestWaveTables_DefineUserWaveRejectsTooFewSamples(t *testing.T) {
	wt := NewWaveTables()
	err := wt.DefineUserWave(0, []float64{0.5})
	assert.Error(t, err)
}

func TestWaveTables_DefineUserWavePopulatesSlotAndPeaksAtStAmp(t *testing.T) {
	wt := NewWaveTables()
	err := wt.DefineUserWave(3, []float64{0, 0.5, 1, 0.5, 0, -0.5, -1, -0.5})
	require.NoError(t, err)

	table := wt.UserTable(3)
	require.NotNil(t, table)

	var peak int32
	for _, v := range table {
		if v > peak {
			peak = v
		}
		if -v > peak {
			peak = -v
		}
	}
	assert.Equal(t, int32(StAmp), peak)
}

func TestWaveTables_DefineUserWaveAllZeroSamplesDoesNotDivideByZero(t *testing.T) {
	wt := NewWaveTables()
	err := wt.DefineUserWave(0, []float64{0, 0, 0})
	require.NoError(t, err)
	table := wt.UserTable(0)
	require.NotNil(t, table)
	for _, v := range table {
		assert.Equal(t, int32(0), v)
	}
}

func TestPeriodicSincKernel_ZeroOffsetIsOne(t *testing.T) {
	assert.Equal(t, 1.0, periodicSincKernel(0, 8))
}
