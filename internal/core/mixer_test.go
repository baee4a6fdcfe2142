package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func newTestMixer() *Mixer {
	return NewMixer(44100, 100, NewWaveTables(), NewNoiseGen(1))
}

func TestMixer_OffChannelContributesNothing(t *testing.T) {
	m := newTestMixer()
	channels := make([]channelState, NumChannels)
	channels[0].kind = KindOff

	left, right := m.MixSample(channels, 0, 0, true, 1.0)
	assert.Equal(t, int16(0), left)
	assert.Equal(t, int16(0), right)
}

func TestMixer_BinauralProducesNonZeroOutput(t *testing.T) {
	m := newTestMixer()
	channels := make([]channelState, NumChannels)
	configureChannel(&channels[0], Voice{Kind: KindBinaural, Amp: 2000, Carr: 200, Res: 10}, 44100, nil, false, false, 50)

	nonZeroSeen := false
	for i := 0; i < 100; i++ {
		l, r := m.MixSample(channels, 0, 0, true, 1.0)
		if l != 0 || r != 0 {
			nonZeroSeen = true
			break
		}
	}
	assert.True(t, nonZeroSeen)
}

func TestMixer_MixFlagFalsePassesMixInputThrough(t *testing.T) {
	m := newTestMixer()
	channels := make([]channelState, NumChannels)
	for i := range channels {
		channels[i].kind = KindOff
	}

	left, _ := m.MixSample(channels, 1000, -1000, false, 1.0)
	assert.NotEqual(t, int16(0), left)
}

func TestMixer_MixFlagTrueSuppressesDefaultPassthrough(t *testing.T) {
	m := newTestMixer()
	channels := make([]channelState, NumChannels)
	for i := range channels {
		channels[i].kind = KindOff
	}

	left, right := m.MixSample(channels, 1000, -1000, true, 1.0)
	assert.Equal(t, int16(0), left)
	assert.Equal(t, int16(0), right)
}

func TestMixer_VolumeScalesOutput(t *testing.T) {
	full := NewMixer(44100, 100, NewWaveTables(), NewNoiseGen(1))
	half := NewMixer(44100, 50, NewWaveTables(), NewNoiseGen(1))

	channels := make([]channelState, NumChannels)
	for i := range channels {
		channels[i].kind = KindOff
	}

	lFull, _ := full.MixSample(channels, 20000, 0, false, 1.0)
	lHalf, _ := half.MixSample(channels, 20000, 0, false, 1.0)

	if lFull > 0 {
		assert.Less(t, int(lHalf), int(lFull))
	}
}

func TestMixer_RefreshMixAmpPicksFirstMixChannel(t *testing.T) {
	m := newTestMixer()
	channels := make([]channelState, NumChannels)
	channels[0].kind = KindOff
	channels[1].kind = KindMix
	channels[1].amp = 777

	m.RefreshMixAmp(channels)
	assert.Equal(t, int32(777), m.mixAmpCurrent)
}

func TestMixer_RefreshMixAmpResetsToFullScaleWhenNoMixChannel(t *testing.T) {
	m := newTestMixer()
	m.mixAmpCurrent = 1
	channels := make([]channelState, NumChannels)
	for i := range channels {
		channels[i].kind = KindOff
	}

	m.RefreshMixAmp(channels)
	assert.Equal(t, int32(maxAmp), m.mixAmpCurrent)
}
