// clock.go - wall-clock <-> 24h-millisecond conversion, fast-forward, and
// end-of-sequence detection.

package core

import "time"

// Clock tracks the engine's view of "now" in 24h-wraparound milliseconds,
// driven either by wall-clock time or a fast-forward multiplier.
type Clock struct {
	startWall time.Time
	startMs   int // sequence-relative ms at startWall
	fastMult  float64
	endMs     int // absolute ms at which the sequence ends; -1 if unbounded
}

// NewClock starts a clock at startMs (ms since midnight) with the given
// fast-forward multiplier (1.0 = real time). endMs < 0 means run forever
// (wrap at 24h indefinitely).
func NewClock(startMs int, fastMult float64, endMs int) *Clock {
	if fastMult <= 0 {
		fastMult = 1
	}
	return &Clock{
		startWall: time.Now(),
		startMs:   startMs,
		fastMult:  fastMult,
		endMs:     endMs,
	}
}

// NowMs returns the current schedule position in ms since midnight,
// wrapped into [0, H24).
func (c *Clock) NowMs() int {
	elapsed := time.Since(c.startWall).Seconds() * 1000 * c.fastMult
	ms := c.startMs + int(elapsed)
	ms %= H24
	if ms < 0 {
		ms += H24
	}
	return ms
}

// Advance moves the clock forward by the given duration of real wall time,
// honouring the fast-forward multiplier; used by offline rendering (e.g.
// WAV export) where there is no real-time wall clock to poll.
func (c *Clock) Advance(realElapsed time.Duration) {
	c.startWall = c.startWall.Add(-realElapsed)
}

// AdvanceScheduleMs moves the clock forward by scheduleMs of schedule
// time (i.e. ms as NowMs/ElapsedMs measure them, already scaled by
// fastMult), converting to the equivalent real wall-clock duration.
// Engine.FillStereo16 uses this once per rendered chunk instead of
// polling a real wall clock, so offline renders (WAV export, tests)
// advance deterministically with the sample count.
func (c *Clock) AdvanceScheduleMs(scheduleMs float64) {
	c.Advance(time.Duration(scheduleMs / c.fastMult * float64(time.Millisecond)))
}

// ElapsedMs returns the total sequence-relative milliseconds elapsed since
// the clock started, unwrapped (may exceed H24 for long-running engines),
// used for end-of-sequence detection against endMs.
func (c *Clock) ElapsedMs() int {
	return int(time.Since(c.startWall).Seconds() * 1000 * c.fastMult)
}

// Done reports whether the configured end time has been reached (always
// false when endMs < 0).
func (c *Clock) Done() bool {
	if c.endMs < 0 {
		return false
	}
	return c.startMs+c.ElapsedMs() >= c.endMs
}
