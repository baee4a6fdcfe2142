// scheduler.go - the period compiler: turns a linear list of user periods
// with fade codes into the fixed-up, minimal, circular schedule the Mixer
// reads at runtime. Implements spec §4.4 steps 1-6.

package core

import "fmt"

// fadeIntMs is the minimum length a transitional period may have before the
// scheduler steals time from its neighbours to pad it out.
type Scheduler struct {
	fadeIntMs int
}

// NewScheduler returns a Scheduler using fadeIntMs as the minimum
// transitional-period length (spec default 60,000ms if <= 0).
func NewScheduler(fadeIntMs int) *Scheduler {
	if fadeIntMs <= 0 {
		fadeIntMs = defaultFadeIntMs
	}
	return &Scheduler{fadeIntMs: fadeIntMs}
}

// UserPeriod is one line parsed from the sequence file, before compilation:
// an absolute time, the fade-in/out codes, the resolved voice state, and
// whether "->" sugar was present (forcing a slide transition whose time is
// looked up from the surrounding periods).
type UserPeriod struct {
	Time      int
	Voices    [NumChannels]Voice
	FadeIn    FadeCode
	FadeOut   FadeCode
	ArrowNext bool // "->" suffix: force-slide into the following period
}

// Compile runs the full period-compiler pipeline over a user-supplied,
// time-ordered (but not yet fixed-up) period list and returns the final
// circular PeriodList, or an error if the total schedule exceeds 24h.
func (s *Scheduler) Compile(user []UserPeriod) (*PeriodList, error) {
	if len(user) == 0 {
		return nil, &ConfigError{Msg: "sequence has no periods"}
	}

	pl := NewPeriodList()
	handles := make([]int, len(user))
	for i, u := range user {
		p := Period{Time: u.Time, V0: u.Voices, V1: u.Voices, FadeIn: u.FadeIn, FadeOut: u.FadeOut}
		handles[i] = pl.InsertSorted(p)
	}

	s.resolveArrowTransitions(pl, user, handles)
	s.fillTransitionalVoices(pl, user, handles)
	s.removeRedundantMidpoints(pl)
	s.collapseDuplicates(pl)

	if total := pl.TotalSpanMs(); total > H24 {
		return nil, &RangeError{Msg: fmt.Sprintf("sequence totals %dms, exceeds 24h", total)}
	}
	return pl, nil
}

// resolveArrowTransitions gives any "->"-marked period's successor the
// slide fade-in code its arrow implies, per spec §4.4 step 1. The time
// itself is already resolved by the parser (arrows do not change ordering,
// only force a slide semantics on both sides of the gap).
func (s *Scheduler) resolveArrowTransitions(pl *PeriodList, user []UserPeriod, handles []int) {
	for i, u := range user {
		if !u.ArrowNext {
			continue
		}
		cur := pl.At(handles[i])
		next := pl.At(pl.Next(handles[i]))
		cur.FadeOut = FadeSlide
		next.FadeIn = FadeSlide
	}
}

// fillTransitionalVoices inserts or reuses a midpoint period between every
// pair of neighbouring user periods, per spec §4.4 step 3.
func (s *Scheduler) fillTransitionalVoices(pl *PeriodList, user []UserPeriod, handles []int) {
	n := len(handles)
	for i := 0; i < n; i++ {
		a := handles[i]
		b := handles[(i+1)%n]
		s.insertTransition(pl, a, b)
	}
}

// insertTransition splits the gap between `a` and `b` (already adjacent in
// pl) into two periods that actually interpolate, per spec §4.4 step 3's
// per-channel rule and the original's `pp`/`qq` split: `a` is mutated in
// place to slide from its own ending voice to the per-channel midpoint, and
// a newly inserted period slides from that midpoint to `b`'s starting
// voice. Without this split, `a`'s V1 and the inserted period's V0/V1 would
// all equal the midpoint and the interpolation would collapse to nothing.
func (s *Scheduler) insertTransition(pl *PeriodList, a, b int) {
	pa := pl.At(a)
	pb := pl.At(b)

	span := tPer0(pa.Time, pb.Time)
	if span == 0 {
		return
	}

	var mid, qqEnd [NumChannels]Voice
	needed := false

	for c := 0; c < NumChannels; c++ {
		v0 := pa.V1[c]
		v1 := pb.V0[c]

		toSilence := pa.FadeOut == FadeToSilence
		kindsDiffer := v0.Kind != v1.Kind
		waveformsDiffer := v0.Waveform != v1.Waveform
		pitchesDifferUnderThrough := pa.FadeOut == FadeThrough && (v0.Carr != v1.Carr || v0.Res != v1.Res)

		switch {
		case v0.Kind == KindBell || v1.Kind == KindBell:
			// A bell endpoint never fades: whichever side holds the bell's
			// own value carries through the whole gap unchanged, then the
			// boundary into the next period is a hard cut, not a slide.
			mid[c] = v0
			qqEnd[c] = v0
		case toSilence || kindsDiffer || waveformsDiffer || pitchesDifferUnderThrough:
			silent := Voice{Kind: KindOff}
			mid[c] = silent
			qqEnd[c] = v1
		default:
			mid[c] = lerpVoice(v0, v1, 0.5)
			qqEnd[c] = v1
		}

		if mid[c] != v0 || qqEnd[c] != v1 {
			needed = true
		}
	}

	if !needed {
		return
	}

	for c := 0; c < NumChannels; c++ {
		pa.V1[c] = mid[c]
	}
	qq := Period{transitional: true, V0: mid, V1: qqEnd}

	// Enforce the minimum transitional length (spec §4.4 step 2): steal
	// equal halves from each neighbour, clipped by that neighbour's own
	// length.
	length := span
	if length < s.fadeIntMs {
		deficit := s.fadeIntMs - length
		// The inserted period itself has zero width at this point (it
		// sits exactly at the midpoint in time); stretch it symmetrically
		// by moving its notional start earlier and its notional end
		// later, clipped by the neighbours' own spans. Since this
		// implementation represents a period purely by its start time
		// (the end is implicit from the next period's start), "stretching"
		// is expressed by choosing the inserted period's Time so that it
		// is offset from the midpoint by half the shortfall in either
		// direction, clipped to remain within [pa.Time, pb.Time].
		half := deficit / 2
		qq.Time = clampTime(pa.Time+span/2-half, pa.Time, pb.Time)
	} else {
		qq.Time = pa.Time + span/2
	}

	pl.InsertAfter(a, qq)
}

// clampTime clamps t into [lo, hi] measured forward from lo (mod H24),
// used when stretching a transitional period to the fade-interval minimum.
func clampTime(t, lo, hi int) int {
	if tPer0(lo, t) > tPer0(lo, hi) {
		return hi
	}
	if t == lo {
		return lo
	}
	return t
}

// lerpVoice linearly interpolates amp/carr/res component-wise; kind and
// waveform are piecewise-constant and inherited from the start voice.
func lerpVoice(a, b Voice, r float64) Voice {
	return Voice{
		Kind:     a.Kind,
		Waveform: a.Waveform,
		Amp:      a.Amp + r*(b.Amp-a.Amp),
		Carr:     a.Carr + r*(b.Carr-a.Carr),
		Res:      a.Res + r*(b.Res-a.Res),
	}
}

// removeRedundantMidpoints drops any transitional period that ended up flat
// (V0 equal to V1 across every channel) — a gap whose fixed-up voice states
// turned out not to need a midpoint after all, per spec §4.4 step 4.
func (s *Scheduler) removeRedundantMidpoints(pl *PeriodList) {
	if pl.Head() == noIndex {
		return
	}
	start := pl.Head()
	i := start
	for {
		next := pl.Next(i)
		p := pl.At(i)
		if p.transitional && p.V0 == p.V1 {
			if i == start {
				start = next
			}
			pl.Remove(i)
		}
		i = next
		if i == start || pl.Head() == noIndex {
			break
		}
	}
}

// collapseDuplicates merges adjacent periods with identical V0/V1 across
// all channels and removes zero-length periods, per spec's "Adjacent
// periods with identical v0/v1... are merged" invariant and §4.4 step 5.
func (s *Scheduler) collapseDuplicates(pl *PeriodList) {
	if pl.Head() == noIndex {
		return
	}
	changed := true
	for changed {
		changed = false
		start := pl.Head()
		i := start
		for {
			next := pl.Next(i)
			if next == i {
				break // only one period left
			}
			cur := pl.At(i)
			nxt := pl.At(next)
			if tPer0(cur.Time, nxt.Time) == 0 || cur.V1 == nxt.V1 && cur.V0 == nxt.V0 {
				// Zero-length, or a perfect duplicate of the next period:
				// absorb `next` into `cur` by keeping cur's start and
				// next's end state, then removing next.
				cur.V1 = nxt.V1
				if next == start {
					start = pl.Next(next)
				}
				pl.Remove(next)
				changed = true
				break
			}
			i = next
			if i == start {
				break
			}
		}
	}
}
