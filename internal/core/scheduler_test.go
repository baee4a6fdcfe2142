package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func binauralUserPeriod(timeMs int, carr, res, amp float64) UserPeriod {
	var p UserPeriod
	p.Time = timeMs
	p.FadeIn = FadeThrough
	p.FadeOut = FadeThrough
	p.Voices[0] = Voice{Kind: KindBinaural, Carr: carr, Res: res, Amp: amp}
	return p
}

func allPeriods(pl *PeriodList) []*Period {
	var out []*Period
	if pl.Head() == noIndex {
		return out
	}
	i := pl.Head()
	for {
		out = append(out, pl.At(i))
		i = pl.Next(i)
		if i == pl.Head() {
			break
		}
	}
	return out
}

func TestScheduler_CompileRejectsEmptyInput(t *testing.T) {
	s := NewScheduler(0)
	_, err := s.Compile(nil)
	assert.Error(t, err)
}

func TestScheduler_CompileKeepsDistinctNeighboursSeparate(t *testing.T) {
	s := NewScheduler(1000)
	user := []UserPeriod{
		binauralUserPeriod(0, 200, 10, 1000),
		binauralUserPeriod(60000, 300, 10, 1000),
	}
	pl, err := s.Compile(user)
	require.NoError(t, err)
	// A differing carrier under the default "through" fade can't slide
	// smoothly, so the compiler inserts a silent midpoint between the two
	// distinct tones — once for the explicit gap, and again for the
	// wraparound gap back to the start of the day, which differs by the
	// same carrier mismatch.
	assert.Equal(t, 4, pl.Len())
}

func TestScheduler_CompileCollapsesIdenticalNeighbours(t *testing.T) {
	s := NewScheduler(1000)
	user := []UserPeriod{
		binauralUserPeriod(0, 200, 10, 1000),
		binauralUserPeriod(60000, 200, 10, 1000),
	}
	pl, err := s.Compile(user)
	require.NoError(t, err)
	assert.Equal(t, 1, pl.Len(), "two periods with an identical voice state collapse into one")
}

func TestScheduler_FadeToSilenceInsertsSurvivingSilentMidpoint(t *testing.T) {
	s := NewScheduler(1000)
	a := binauralUserPeriod(0, 200, 10, 1000)
	a.FadeOut = FadeToSilence
	b := binauralUserPeriod(60000, 200, 10, 1000)
	pl, err := s.Compile([]UserPeriod{a, b})
	require.NoError(t, err)

	var found bool
	for _, p := range allPeriods(pl) {
		if p.transitional {
			found = true
			assert.NotEqual(t, p.V0, p.V1, "a fade-to-silence gap must actually dip silent, not sit flat")
			assert.Equal(t, KindOff, p.V0[0].Kind)
		}
	}
	assert.True(t, found, "fade-to-silence must insert a transitional period even though both sides share the same tone")
}

func TestScheduler_SlideTransitionSplitsIntoTwoInterpolatingHalves(t *testing.T) {
	s := NewScheduler(1000)
	a := binauralUserPeriod(0, 200, 10, 1000)
	a.ArrowNext = true
	b := binauralUserPeriod(60000, 300, 10, 1000)
	pl, err := s.Compile([]UserPeriod{a, b})
	require.NoError(t, err)

	var head, mid *Period
	for _, p := range allPeriods(pl) {
		switch {
		case !p.transitional && p.V0[0].Carr == 200:
			head = p
		case p.transitional && p.V0[0].Carr == 250:
			mid = p
		}
	}
	require.NotNil(t, head, "the original period must survive")
	require.NotNil(t, mid, "a slide must insert a real interpolating midpoint")

	assert.NotEqual(t, head.V0, head.V1, "the first half must slide from 200Hz toward the midpoint")
	assert.Equal(t, 250.0, head.V1[0].Carr)
	assert.NotEqual(t, mid.V0, mid.V1, "the second half must slide from the midpoint to 300Hz")
	assert.Equal(t, 250.0, mid.V0[0].Carr)
	assert.Equal(t, 300.0, mid.V1[0].Carr)
}

func TestScheduler_ArrowNextForcesSlideFadeCodes(t *testing.T) {
	s := NewScheduler(1000)
	a := binauralUserPeriod(0, 200, 10, 1000)
	a.ArrowNext = true
	b := binauralUserPeriod(60000, 300, 10, 1000)
	user := []UserPeriod{a, b}

	pl, err := s.Compile(user)
	require.NoError(t, err)

	var sawFadeOut, sawFadeIn bool
	for _, p := range allPeriods(pl) {
		if p.transitional {
			continue
		}
		if p.V0[0].Carr == 200 {
			assert.Equal(t, FadeSlide, p.FadeOut)
			sawFadeOut = true
		}
		if p.V0[0].Carr == 300 {
			assert.Equal(t, FadeSlide, p.FadeIn)
			sawFadeIn = true
		}
	}
	assert.True(t, sawFadeOut && sawFadeIn)
}

func TestScheduler_CompiledScheduleNeverExceeds24h(t *testing.T) {
	s := NewScheduler(1000)
	user := []UserPeriod{
		binauralUserPeriod(0, 200, 10, 1000),
		binauralUserPeriod(1, 300, 10, 1000),
	}
	pl, err := s.Compile(user)
	require.NoError(t, err)
	assert.Equal(t, H24, pl.TotalSpanMs(), "a circular schedule's total span is always exactly one day")
}

func TestScheduler_BellEndpointDoesNotPanic(t *testing.T) {
	s := NewScheduler(1000)
	var a, b UserPeriod
	a.Time = 0
	a.FadeOut = FadeThrough
	a.Voices[0] = Voice{Kind: KindBell, Carr: 440, Amp: 2000}
	b.Time = 60000
	b.FadeIn = FadeThrough
	b.Voices[0] = Voice{Kind: KindOff}

	pl, err := s.Compile([]UserPeriod{a, b})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, pl.Len(), 1)
}

func TestTPer0_WrapsForwardAcrossMidnight(t *testing.T) {
	assert.Equal(t, 100, tPer0(H24-50, 50))
	assert.Equal(t, 0, tPer0(100, 100))
}
