package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParser_SimpleBinauralSequence(t *testing.T) {
	p := NewParser(NewWaveTables(), 0)
	text := `
tone: 200.0+10.0/10.0
00:00 tone
00:10:00 tone
`
	periods, err := p.Parse(text)
	require.NoError(t, err)
	require.Len(t, periods, 2)
	assert.Equal(t, 0, periods[0].Time)
	assert.Equal(t, 10*60*1000, periods[1].Time)
	assert.Equal(t, KindBinaural, periods[0].Voices[0].Kind)
	assert.InDelta(t, 200.0, periods[0].Voices[0].Carr, 1e-9)
	assert.InDelta(t, 10.0, periods[0].Voices[0].Res, 1e-9)
}

func TestParser_FadeCodesParsed(t *testing.T) {
	p := NewParser(NewWaveTables(), 0)
	text := `
tone: 200.0/10.0
00:00 <- tone
00:05 => tone
`
	periods, err := p.Parse(text)
	require.NoError(t, err)
	require.Len(t, periods, 2)
	assert.Equal(t, FadeToSilence, periods[0].FadeIn)
	assert.Equal(t, FadeThrough, periods[0].FadeOut)
	assert.Equal(t, FadeSlide, periods[1].FadeIn)
	assert.Equal(t, FadeToSilence, periods[1].FadeOut)
}

func TestParser_ArrowNextMarker(t *testing.T) {
	p := NewParser(NewWaveTables(), 0)
	text := `
tone: 200.0/10.0
00:00 tone ->
00:05 tone
`
	periods, err := p.Parse(text)
	require.NoError(t, err)
	assert.True(t, periods[0].ArrowNext)
	assert.False(t, periods[1].ArrowNext)
}

func TestParser_NowResolvesToProvidedTime(t *testing.T) {
	p := NewParser(NewWaveTables(), 12345)
	text := `
tone: 200.0/10.0
NOW tone
NOW+00:01 tone
`
	periods, err := p.Parse(text)
	require.NoError(t, err)
	assert.Equal(t, 12345, periods[0].Time)
	assert.Equal(t, 12345+60000, periods[1].Time)
}

func TestParser_BlockReplaysLinesWithPrependedTime(t *testing.T) {
	p := NewParser(NewWaveTables(), 0)
	text := `
tone: 200.0/10.0
myblock: {
+00:00 tone
+00:05 tone
}
01:00:00 myblock
`
	periods, err := p.Parse(text)
	require.NoError(t, err)
	require.Len(t, periods, 2)
	assert.Equal(t, 1*60*60*1000, periods[0].Time)
	assert.Equal(t, 1*60*60*1000+5*60*1000, periods[1].Time)
}

func TestParser_UnknownNameIsError(t *testing.T) {
	p := NewParser(NewWaveTables(), 0)
	_, err := p.Parse("00:00 nosuch\n")
	assert.Error(t, err)
}

func TestParser_EmptySequenceIsError(t *testing.T) {
	p := NewParser(NewWaveTables(), 0)
	_, err := p.Parse("# nothing but a comment\n")
	assert.Error(t, err)
}

func TestParser_MixSpinWithoutMixAmpIsError(t *testing.T) {
	p := NewParser(NewWaveTables(), 0)
	_, err := p.Parse("tone: mixspin:200+10/20\n00:00 tone\n")
	assert.Error(t, err)
}

func TestParser_MixSpinWithMixAmpOnSameLineSucceeds(t *testing.T) {
	p := NewParser(NewWaveTables(), 0)
	text := `
tone: mix/10 mixspin:200+10/20
00:00 tone
`
	periods, err := p.Parse(text)
	require.NoError(t, err)
	assert.Equal(t, KindMix, periods[0].Voices[0].Kind)
	assert.Equal(t, KindMixSpin, periods[0].Voices[1].Kind)
}

func TestParser_AmplitudeOverHundredPercentAutoNormalizes(t *testing.T) {
	p := NewParser(NewWaveTables(), 0)
	text := `
tone: 200+10/80 300+10/80
00:00 tone
`
	periods, err := p.Parse(text)
	require.NoError(t, err)
	total := periods[0].Voices[0].Amp/40.96 + periods[0].Voices[1].Amp/40.96
	assert.InDelta(t, 100.0, total, 1e-6)
	assert.NotEmpty(t, p.Warnings())
}

func TestParser_DashPlaceholderLeavesChannelOff(t *testing.T) {
	p := NewParser(NewWaveTables(), 0)
	text := `
tone: 200+10/10 -
00:00 tone
`
	periods, err := p.Parse(text)
	require.NoError(t, err)
	assert.Equal(t, KindOff, periods[0].Voices[1].Kind)
}

func TestParser_WaveformImportAndUse(t *testing.T) {
	p := NewParser(NewWaveTables(), 0)
	// the "-" sign on the second number disambiguates the token into two
	// distinct floating-point fields for the carr/res/amp grammar.
	text := `
wave01: 0 0.5 1 0.5 0 -0.5 -1 -0.5
tone: wave01:200-10.5/3
00:00 tone
`
	periods, err := p.Parse(text)
	require.NoError(t, err)
	assert.Equal(t, VoiceKind(-1-1), periods[0].Voices[0].Kind)
}

func TestParser_OptionLineAfterContentIsError(t *testing.T) {
	p := NewParser(NewWaveTables(), 0)
	text := `
tone: 200+10/10
00:00 tone
-Q
`
	_, err := p.Parse(text)
	assert.Error(t, err)
}

func TestParser_BellAndNoiseVoiceKinds(t *testing.T) {
	p := NewParser(NewWaveTables(), 0)
	text := `
tone: bell400/20 pink/5 white/5 brown/5
00:00 tone
`
	periods, err := p.Parse(text)
	require.NoError(t, err)
	v := periods[0].Voices
	assert.Equal(t, KindBell, v[0].Kind)
	assert.Equal(t, KindPink, v[1].Kind)
	assert.Equal(t, KindWhite, v[2].Kind)
	assert.Equal(t, KindBrown, v[3].Kind)
}
