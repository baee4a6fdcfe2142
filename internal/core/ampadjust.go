// ampadjust.go - piecewise-linear headphone-rolloff compensation table.

package core

import "sort"

// AmpAdjustPoint is one (frequency Hz, amplitude multiplier) control point
// supplied via the `-c` CLI option.
type AmpAdjustPoint struct {
	FreqHz float64
	Adjust float64
}

// AmpAdjustTable looks up a per-ear amplitude adjustment by linear
// interpolation over a sorted set of (freq, adjust) points.
type AmpAdjustTable struct {
	points []AmpAdjustPoint
}

// NewAmpAdjustTable sorts and stores the given control points. An empty
// table's Lookup always returns 1.0 (no compensation).
func NewAmpAdjustTable(points []AmpAdjustPoint) *AmpAdjustTable {
	pts := append([]AmpAdjustPoint(nil), points...)
	sort.Slice(pts, func(i, j int) bool { return pts[i].FreqHz < pts[j].FreqHz })
	return &AmpAdjustTable{points: pts}
}

// Lookup returns the amplitude multiplier for freqHz, clamping to the
// table's endpoints outside its range.
func (t *AmpAdjustTable) Lookup(freqHz float64) float64 {
	if len(t.points) == 0 {
		return 1.0
	}
	if freqHz <= t.points[0].FreqHz {
		return t.points[0].Adjust
	}
	last := t.points[len(t.points)-1]
	if freqHz >= last.FreqHz {
		return last.Adjust
	}
	for i := 1; i < len(t.points); i++ {
		if freqHz <= t.points[i].FreqHz {
			lo, hi := t.points[i-1], t.points[i]
			span := hi.FreqHz - lo.FreqHz
			if span == 0 {
				return lo.Adjust
			}
			r := (freqHz - lo.FreqHz) / span
			return lo.Adjust + r*(hi.Adjust-lo.Adjust)
		}
	}
	return last.Adjust
}
