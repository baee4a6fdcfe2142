package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePreProgTimeSpec_Defaults(t *testing.T) {
	len0, len1, len2, rest, err := parsePreProgTimeSpec([]string{"0a"})
	require.NoError(t, err)
	assert.Equal(t, 1800, len0)
	assert.Equal(t, 1800, len1)
	assert.Equal(t, 180, len2)
	assert.Equal(t, []string{"0a"}, rest)
}

func TestParsePreProgTimeSpec_CustomOverridesAndConsumesToken(t *testing.T) {
	len0, len1, len2, rest, err := parsePreProgTimeSpec([]string{"t10,20,3", "0a"})
	require.NoError(t, err)
	assert.Equal(t, 600, len0)
	assert.Equal(t, 1200, len1)
	assert.Equal(t, 180, len2)
	assert.Equal(t, []string{"0a"}, rest)
}

func TestParsePreProgTimeSpec_MissingArgsIsError(t *testing.T) {
	_, _, _, _, err := parsePreProgTimeSpec(nil)
	assert.Error(t, err)
}

func TestParseLevelSpec_ResolvesCarrierAndBeatTarget(t *testing.T) {
	carr, beat, tail, err := parseLevelSpec("0a")
	require.NoError(t, err)
	assert.Equal(t, 200.0, carr)
	assert.Equal(t, dropBeatTargets[0], beat)
	assert.Equal(t, "", tail)
}

func TestParseLevelSpec_PreservesTrailingFlags(t *testing.T) {
	_, _, tail, err := parseLevelSpec("5c+^/50")
	require.NoError(t, err)
	assert.Equal(t, "+^/50", tail)
}

func TestParseLevelSpec_BadLetterIsError(t *testing.T) {
	_, _, _, err := parseLevelSpec("0z")
	assert.Error(t, err)
}

func TestParseLevelSpec_BadFormatIsError(t *testing.T) {
	_, _, _, err := parseLevelSpec("nope")
	assert.Error(t, err)
}

func TestParseDropStyleFlags_Defaults(t *testing.T) {
	f, err := parseDropStyleFlags("", false)
	require.NoError(t, err)
	assert.Equal(t, 180, f.steplen)
	assert.Equal(t, 1.0, f.amp)
	assert.False(t, f.slide)
}

func TestParseDropStyleFlags_AllFlags(t *testing.T) {
	f, err := parseDropStyleFlags("s+^@/50", false)
	require.NoError(t, err)
	assert.True(t, f.slide)
	assert.Equal(t, 60, f.steplen)
	assert.True(t, f.islong)
	assert.True(t, f.wakeup)
	assert.True(t, f.isochronic)
	assert.Equal(t, 50.0, f.amp)
}

func TestParseDropStyleFlags_MonoWithIsochronicIsError(t *testing.T) {
	_, err := parseDropStyleFlags("M@", false)
	assert.Error(t, err)
}

func TestParseDropStyleFlags_SigmoidShapeRequiresAllowSigmoid(t *testing.T) {
	_, err := parseDropStyleFlags(":l=0.2", false)
	assert.Error(t, err)

	f, err := parseDropStyleFlags(":l=0.2:h=1.5", true)
	require.NoError(t, err)
	assert.Equal(t, 0.2, f.sigL)
	assert.Equal(t, 1.5, f.sigH)
}

func TestParseDropStyleFlags_TrailingRubbishIsError(t *testing.T) {
	_, err := parseDropStyleFlags("x", false)
	assert.Error(t, err)
}

func TestGenerateDrop_StepModeProducesPeriodsWithoutFuncCurve(t *testing.T) {
	res, err := GenerateDrop(NewWaveTables(), []string{"0a"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.Periods)
	assert.Nil(t, res.FuncCurve)
}

func TestGenerateDrop_SlideModeRegistersFuncCurve(t *testing.T) {
	res, err := GenerateDrop(NewWaveTables(), []string{"0as"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.Periods)
	require.NotNil(t, res.FuncCurve)
	assert.Equal(t, KindBinaural, res.FuncCurve.KindMask)
}

func TestGenerateDrop_MissingSpecIsError(t *testing.T) {
	_, err := GenerateDrop(NewWaveTables(), nil)
	assert.Error(t, err)
}

func TestGenerateDrop_NegativeCarrierIsError(t *testing.T) {
	_, err := GenerateDrop(NewWaveTables(), []string{"150a"})
	assert.Error(t, err)
}

func TestGenerateSigmoid_StepModeProducesPeriods(t *testing.T) {
	res, err := GenerateSigmoid(NewWaveTables(), []string{"0a"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.Periods)
}

func TestGenerateSigmoid_RejectsShortDropTime(t *testing.T) {
	_, err := GenerateSigmoid(NewWaveTables(), []string{"t0.5,30,3", "0a"})
	assert.Error(t, err)
}

func TestGenerateSlide_ProducesExpectedPeriodCount(t *testing.T) {
	res, err := GenerateSlide(NewWaveTables(), []string{"200+10/50"})
	require.NoError(t, err)
	// off->, ts0->, ts1->, off: four time-lines in the generated sequence.
	assert.Len(t, res.Periods, 4)
	assert.Nil(t, res.FuncCurve)
}

func TestGenerateSlide_MonoSignalProducesBinauralPair(t *testing.T) {
	res, err := GenerateSlide(NewWaveTables(), []string{"200M10/50"})
	require.NoError(t, err)
	// Periods[0] is the leading "off" line; Periods[1] is ts0, whose
	// monaural pair is written as two separate binaural channels.
	require.Greater(t, len(res.Periods), 1)
	assert.Equal(t, KindBinaural, res.Periods[1].Voices[0].Kind)
	assert.Equal(t, KindBinaural, res.Periods[1].Voices[1].Kind)
}

func TestGenerateSlide_BadSpecIsError(t *testing.T) {
	_, err := GenerateSlide(NewWaveTables(), []string{"nonsense"})
	assert.Error(t, err)
}
