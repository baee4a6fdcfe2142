// zxrand.go - the crude 16-bit pseudo-random generator borrowed from the
// ZX Spectrum BASIC ROM, used only by the looper's segment scheduler.
// Grounded bit-for-bit on original_source/flacdec.c's flac_zxrand family.

package core

import "math"

// zxRand is the scheduler's private PRNG state.
type zxRand struct {
	seed uint16
}

// newZXRand seeds the generator. The reference implementation seeds from
// wall-clock time truncated to 16 bits; callers here pass an explicit seed
// so playback is reproducible in tests.
func newZXRand(seed int) zxRand {
	return zxRand{seed: uint16(seed)}
}

// next0 advances the generator and returns the new unsigned 16-bit state
// (0..65535): seed = (1+seed)*75 % 65537 - 1.
func (z *zxRand) next0() int {
	z.seed = uint16((1+int32(z.seed))*75%65537 - 1)
	return int(z.seed)
}

// rand0 scales next0's output into [0, mult).
func (z *zxRand) rand0(mult int) int {
	tmp := int64(mult) * int64(z.next0())
	return int(tmp >> 16)
}

// rand returns a value in [lo, hi), or lo if the range is empty/inverted.
func (z *zxRand) rand(lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + z.rand0(hi-lo)
}

// rangeSpec is one candidate range passed to randRanges; when outer is
// true it instead narrows the clamp window applied to subsequent entries,
// mirroring flac_zxrandM's 'o' format character.
type rangeSpec struct {
	lo, hi int
	outer  bool
}

func clampSpec(lo, hi int) rangeSpec            { return rangeSpec{lo: lo, hi: hi} }
func outerSpec(lo, hi int) rangeSpec            { return rangeSpec{lo: lo, hi: hi, outer: true} }

// randRanges picks a uniformly-weighted value across a union of disjoint
// ranges (each scaled by its own width), honoring the most recent outer
// clamp. Returns def if every range is empty. This is flac_zxrandM.
func (z *zxRand) randRanges(def int, specs ...rangeSpec) int {
	olo, ohi := math.MinInt32, math.MaxInt32
	cnt := 0
	for _, s := range specs {
		if s.outer {
			olo, ohi = s.lo, s.hi
			continue
		}
		lo, hi := s.lo, s.hi
		if lo < olo {
			lo = olo
		}
		if hi > ohi {
			hi = ohi
		}
		if hi-lo > 0 {
			cnt += hi - lo
		}
	}
	if cnt == 0 {
		return def
	}
	val := z.rand0(cnt)

	olo, ohi = math.MinInt32, math.MaxInt32
	for _, s := range specs {
		if s.outer {
			olo, ohi = s.lo, s.hi
			continue
		}
		lo, hi := s.lo, s.hi
		if lo < olo {
			lo = olo
		}
		if hi > ohi {
			hi = ohi
		}
		c := hi - lo
		if c > 0 {
			if val < c {
				return lo + val
			}
			val -= c
		}
	}
	return def
}
