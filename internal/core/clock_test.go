package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClock_NowMsAdvancesWithScheduleTime(t *testing.T) {
	c := NewClock(1000, 1, -1)
	before := c.NowMs()
	c.AdvanceScheduleMs(500)
	after := c.NowMs()
	assert.Equal(t, before+500, after)
}

func TestClock_NowMsWrapsAt24h(t *testing.T) {
	c := NewClock(H24-100, 1, -1)
	c.AdvanceScheduleMs(200)
	assert.Equal(t, 100, c.NowMs())
}

func TestClock_DoneUnboundedNeverEnds(t *testing.T) {
	c := NewClock(0, 1, -1)
	c.AdvanceScheduleMs(1e9)
	assert.False(t, c.Done())
}

func TestClock_DoneAtEndMs(t *testing.T) {
	c := NewClock(0, 1, 1000)
	assert.False(t, c.Done())
	c.AdvanceScheduleMs(1000)
	assert.True(t, c.Done())
}

func TestClock_FastMultScalesAdvance(t *testing.T) {
	fast := NewClock(0, 2, -1)
	slow := NewClock(0, 1, -1)
	fast.AdvanceScheduleMs(1000)
	slow.AdvanceScheduleMs(1000)
	// Both report the same schedule-ms position regardless of fastMult,
	// since AdvanceScheduleMs is expressed in schedule time already.
	assert.Equal(t, slow.NowMs(), fast.NowMs())
}
