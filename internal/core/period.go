// period.go - the circular, time-sorted period list.
//
// Per the Design Notes (spec §9), this is an arena of periods addressed by
// integer handle rather than a pointer-chased doubly-linked list: Period.next
// and Period.prev are indices into PeriodList.items, removing the aliasing
// hazards spec §9 calls out in the original pointer-based design.

package core

// FadeCode identifies how the scheduler should bridge two user-supplied
// periods: fade to silence, fade through like kinds, or slide (only valid
// when kinds and waveforms match).
type FadeCode byte

const (
	FadeToSilence FadeCode = '<'
	FadeThrough   FadeCode = '-'
	FadeSlide     FadeCode = '='
)

// noIndex marks an absent next/prev link.
const noIndex = -1

// Period is one schedule entry: a start time and the voice state at the
// start and end of the period. The end time is implicitly P.next's Time.
type Period struct {
	next, prev int
	Time       int // ms since midnight, 0..H24
	V0, V1     [NumChannels]Voice
	FadeIn     FadeCode
	FadeOut    FadeCode
	// transitional marks a period inserted by the scheduler to interpolate
	// between two user-supplied periods; it never comes from the parser.
	transitional bool
}

// PeriodList is a circular, time-sorted collection of Periods backed by an
// arena slice. The zero value is not usable; use NewPeriodList.
type PeriodList struct {
	items []Period
	head  int // index of the earliest period, noIndex if empty
	free  []int
}

// NewPeriodList returns an empty period list.
func NewPeriodList() *PeriodList {
	return &PeriodList{head: noIndex}
}

// Len returns the number of periods currently in the list.
func (pl *PeriodList) Len() int {
	n := 0
	if pl.head == noIndex {
		return 0
	}
	i := pl.head
	for {
		n++
		i = pl.items[i].next
		if i == pl.head {
			break
		}
	}
	return n
}

// At returns a pointer to the period at handle i.
func (pl *PeriodList) At(i int) *Period { return &pl.items[i] }

// Head returns the handle of the earliest period, or noIndex if empty.
func (pl *PeriodList) Head() int { return pl.head }

// Next returns the handle following i, wrapping to Head after the last.
func (pl *PeriodList) Next(i int) int { return pl.items[i].next }

// Prev returns the handle preceding i, wrapping to the last before Head.
func (pl *PeriodList) Prev(i int) int { return pl.items[i].prev }

// alloc returns a fresh handle, reusing a freed slot if available.
func (pl *PeriodList) alloc() int {
	if n := len(pl.free); n > 0 {
		h := pl.free[n-1]
		pl.free = pl.free[:n-1]
		return h
	}
	pl.items = append(pl.items, Period{})
	return len(pl.items) - 1
}

// InsertSorted inserts p into the list, keeping it time-sorted, and returns
// its handle. The very first insertion establishes Head arbitrarily.
func (pl *PeriodList) InsertSorted(p Period) int {
	h := pl.alloc()
	pl.items[h] = p

	if pl.head == noIndex {
		pl.items[h].next = h
		pl.items[h].prev = h
		pl.head = h
		return h
	}

	// Find the first period whose time is > p.Time, walking from head;
	// insert immediately before it. If none is greater, insert at the end
	// (immediately before head), i.e. last in the circle.
	i := pl.head
	for {
		if pl.items[i].Time > p.Time {
			pl.insertBefore(h, i)
			if i == pl.head {
				pl.head = h
			}
			return h
		}
		i = pl.items[i].next
		if i == pl.head {
			break
		}
	}
	pl.insertBefore(h, pl.head)
	return h
}

// insertBefore splices h into the ring immediately before at.
func (pl *PeriodList) insertBefore(h, at int) {
	prev := pl.items[at].prev
	pl.items[h].prev = prev
	pl.items[h].next = at
	pl.items[prev].next = h
	pl.items[at].prev = h
}

// InsertAfter splices a new period immediately after handle `at` and
// returns its handle. Used by the scheduler to insert transitional
// periods between two known neighbours.
func (pl *PeriodList) InsertAfter(at int, p Period) int {
	h := pl.alloc()
	pl.items[h] = p
	next := pl.items[at].next
	pl.items[h].prev = at
	pl.items[h].next = next
	pl.items[at].next = h
	pl.items[next].prev = h
	return h
}

// Remove unlinks handle h from the ring and frees its slot. Removing the
// last remaining period empties the list.
func (pl *PeriodList) Remove(h int) {
	next, prev := pl.items[h].next, pl.items[h].prev
	if next == h {
		pl.head = noIndex
	} else {
		pl.items[prev].next = next
		pl.items[next].prev = prev
		if pl.head == h {
			pl.head = next
		}
	}
	pl.free = append(pl.free, h)
}

// TotalSpanMs returns the sum of tPer0(P.Time, P.next.Time) over every
// period in the list, i.e. the total schedule length; it must not exceed
// H24.
func (pl *PeriodList) TotalSpanMs() int {
	if pl.head == noIndex {
		return 0
	}
	total := 0
	i := pl.head
	for {
		total += tPer0(pl.items[i].Time, pl.items[pl.items[i].next].Time)
		i = pl.items[i].next
		if i == pl.head {
			break
		}
	}
	return total
}

// tPer0 returns the elapsed milliseconds walking forward from `from` to
// `to`, wrapping modulo H24 (so the result is always in [0, H24)). Equal
// times yield 0, never H24, except when `from` itself marks a
// whole-period boundary which callers handle by treating 0-length spans
// specially.
func tPer0(from, to int) int {
	d := (to - from) % H24
	if d < 0 {
		d += H24
	}
	return d
}

// tPer24 is tPer0 generalised to also accept an explicit day-length
// reference when `to` has already wrapped past `from`. For this
// implementation the two coincide; tPer24 exists as a distinct name
// because the spec's interpolation-ratio computation is explicitly defined
// in terms of it when a period spans the midnight seam.
func tPer24(from, to int) int {
	return tPer0(from, to)
}
