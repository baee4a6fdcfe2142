package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFuncCurve_ExponentialEndpoints(t *testing.T) {
	fc := NewExponentialFuncCurve(0, 0, 100, 200, 10, 4, 1, 300)

	carr0, beat0 := fc.Evaluate(0)
	assert.InDelta(t, 100, carr0, 1e-9)
	assert.InDelta(t, 4, beat0, 1e-9)

	carr1, beat1 := fc.Evaluate(300)
	assert.InDelta(t, 1, beat1, 1e-9)
	_ = carr1
}

func TestFuncCurve_ExponentialHoldsPastBeatSpan(t *testing.T) {
	fc := NewExponentialFuncCurve(0, 0, 100, 100, 10, 4, 1, 300)
	_, beat := fc.Evaluate(1000)
	assert.Equal(t, 1.0, beat)
}

func TestFuncCurve_SigmoidEndpointsMatchTargets(t *testing.T) {
	fc, err := NewSigmoidFuncCurve(0, 0, 100, 100, 1800, 10, 1, 1800, 1.0, 0)
	require.NoError(t, err)

	_, beat0 := fc.Evaluate(0)
	assert.InDelta(t, 10, beat0, 1e-6)

	_, beat1 := fc.Evaluate(1800)
	assert.InDelta(t, 1, beat1, 1e-6)
}

func TestFuncCurve_CarrierStopsAtCarrSpan(t *testing.T) {
	fc := NewExponentialFuncCurve(0, 0, 100, 200, 10, 4, 1, 10)
	carrAtSpan, _ := fc.Evaluate(10)
	carrPastSpan, _ := fc.Evaluate(50)
	assert.Equal(t, carrAtSpan, carrPastSpan)
	assert.InDelta(t, 200, carrPastSpan, 1e-9)
}

func TestFuncCurve_AppliesChecksChannelStartEnd(t *testing.T) {
	fc := NewExponentialFuncCurve(2, 1000, 100, 100, 5, 1, 1, 5)

	assert.False(t, fc.Applies(500, 2, KindBinaural), "before StartMs")
	assert.True(t, fc.Applies(1000, 2, KindBinaural), "at StartMs")
	assert.True(t, fc.Applies(fc.EndMs, 2, KindBinaural), "at EndMs")
	assert.False(t, fc.Applies(fc.EndMs+1, 2, KindBinaural), "after EndMs")
	assert.False(t, fc.Applies(1000, 3, KindBinaural), "wrong channel")
}

func TestFuncCurveSet_OverrideUnpaired(t *testing.T) {
	fc := NewExponentialFuncCurve(0, 0, 100, 100, 5, 4, 4, 5)
	set := FuncCurveSet{fc}

	carr, beat, ok := set.Override(0, 0, KindBinaural, 999, 999)
	assert.True(t, ok)
	assert.InDelta(t, 100, carr, 1e-9)
	assert.InDelta(t, 4, beat, 1e-9)
}

func TestFuncCurveSet_OverridePairedChannelSplit(t *testing.T) {
	fc := NewExponentialFuncCurve(0, 0, 200, 200, 5, 10, 10, 5)
	fc.Paired = true
	set := FuncCurveSet{fc}

	carrA, resA, ok := set.Override(0, 0, KindBinaural, 0, 0)
	require.True(t, ok)
	carrB, resB, ok := set.Override(0, 1, KindBinaural, 0, 0)
	require.True(t, ok)

	assert.InDelta(t, 205, carrA, 1e-9)
	assert.InDelta(t, 195, carrB, 1e-9)
	assert.Equal(t, 0.0, resA)
	assert.Equal(t, 0.0, resB)
}

func TestFuncCurveSet_OverrideNoMatchReturnsOriginal(t *testing.T) {
	set := FuncCurveSet{}
	carr, res, ok := set.Override(0, 0, KindBinaural, 42, 7)
	assert.False(t, ok)
	assert.Equal(t, 42.0, carr)
	assert.Equal(t, 7.0, res)
}
