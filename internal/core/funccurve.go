// funccurve.go - runtime carrier/beat override that bypasses
// segment-to-segment interpolation, per spec §4.6. Registered by the
// sigmoid/drop/slide pre-programmed generators (§4.5).

package core

import "math"

// FuncCurveMode selects the beat trajectory shape.
type FuncCurveMode int

const (
	FuncExponential FuncCurveMode = iota
	FuncSigmoid
)

// FuncCurve overrides a channel's carrier and beat for the duration of its
// span. Monaural-pair mode is resolved once, at schedule-compile time (see
// Scheduler/PreProgrammed), never by mutating a channel's kind at runtime,
// per the Design Notes' explicit guidance.
type FuncCurve struct {
	Active   bool
	Mode     FuncCurveMode
	Channel  int // owning channel; paired channel is Channel+1 when Paired
	Paired   bool
	KindMask VoiceKind // only applies while the channel's kind matches

	StartMs int
	EndMs   int // StartMs + CarrSpanSec*1000

	Carr0, Carr1 float64
	CarrSpanSec  float64

	Beat0, Beat1 float64
	BeatSpanSec  float64

	// Sigmoid coefficients, precomputed so beat(0)=Beat0 and beat(T)=Beat1.
	// l and h are defined in minutes, matching the reference generator's
	// display-table derivation, even though every other span here is in
	// seconds.
	sigA, sigB, sigL, sigH, sigDMin float64
}

// NewExponentialFuncCurve returns a FuncCurve using beat = beat0 *
// (beat1/beat0)^(t/beatSpanSec).
func NewExponentialFuncCurve(channel int, startMs int, carr0, carr1, carrSpanSec, beat0, beat1, beatSpanSec float64) *FuncCurve {
	return &FuncCurve{
		Active:      true,
		Mode:        FuncExponential,
		Channel:     channel,
		StartMs:     startMs,
		EndMs:       startMs + int(carrSpanSec*1000),
		Carr0:       carr0,
		Carr1:       carr1,
		CarrSpanSec: carrSpanSec,
		Beat0:       beat0,
		Beat1:       beat1,
		BeatSpanSec: beatSpanSec,
	}
}

// NewSigmoidFuncCurve returns a FuncCurve whose beat follows
// beat(t) = a*tanh(l*(t - T/2 - h)) + b, with a,b solved so beat(0)=beat0
// and beat(durationSec)=beat1, per spec §4.5/§4.6 and scenario 4 of §8. Returns
// an error if l/h produce a degenerate (near-zero-denominator) curve.
func NewSigmoidFuncCurve(channel int, startMs int, carr0, carr1, carrSpanSec, beat0, beat1, durationSec, l, h float64) (*FuncCurve, error) {
	fc := &FuncCurve{
		Active:      true,
		Mode:        FuncSigmoid,
		Channel:     channel,
		StartMs:     startMs,
		EndMs:       startMs + int(carrSpanSec*1000),
		Carr0:       carr0,
		Carr1:       carr1,
		CarrSpanSec: carrSpanSec,
		Beat0:       beat0,
		Beat1:       beat1,
		BeatSpanSec: durationSec,
		sigL:        l,
		sigH:        h,
	}
	fc.solveSigmoidCoeffs(durationSec)
	if fc.sigA == 0 && fc.Beat0 != fc.Beat1 {
		return nil, &ConfigError{Msg: "sigmoid parameters produce an invalid curve (try different l/h values)"}
	}
	return fc, nil
}

// solveSigmoidCoeffs picks a,b such that beat(0)=Beat0 and beat(durationSec)=Beat1,
// with the tanh argument expressed in minutes: d_min = durationSec/60,
// u(t_min) = tanh(l*(t_min - d_min/2 - h)).
func (fc *FuncCurve) solveSigmoidCoeffs(durationSec float64) {
	fc.sigDMin = durationSec / 60
	u0 := math.Tanh(fc.sigL * (0 - fc.sigDMin/2 - fc.sigH))
	u1 := math.Tanh(fc.sigL * (fc.sigDMin - fc.sigDMin/2 - fc.sigH))
	den := u1 - u0
	if math.Abs(den) < 1e-9 {
		fc.sigA = 0
		fc.sigB = fc.Beat0
		return
	}
	fc.sigA = (fc.Beat1 - fc.Beat0) / den
	fc.sigB = fc.Beat0 - fc.sigA*u0
}

// Evaluate returns the overridden (carr, beat) for elapsed seconds t since
// StartMs, clamped so the carrier stops changing past CarrSpanSec and the
// beat holds at Beat1 past BeatSpanSec (the drop/hold boundary).
func (fc *FuncCurve) Evaluate(tSec float64) (carr, beat float64) {
	ct := tSec
	if fc.CarrSpanSec > 0 && ct > fc.CarrSpanSec {
		ct = fc.CarrSpanSec
	}
	if fc.CarrSpanSec <= 0 {
		carr = fc.Carr1
	} else {
		carr = fc.Carr0 + (fc.Carr1-fc.Carr0)*ct/fc.CarrSpanSec
	}

	if fc.BeatSpanSec <= 0 || tSec >= fc.BeatSpanSec {
		return carr, fc.Beat1
	}

	switch fc.Mode {
	case FuncExponential:
		if fc.Beat0 == 0 {
			beat = fc.Beat1
		} else {
			beat = fc.Beat0 * math.Pow(fc.Beat1/fc.Beat0, tSec/fc.BeatSpanSec)
		}
	case FuncSigmoid:
		tMin := tSec / 60
		beat = fc.sigA*math.Tanh(fc.sigL*(tMin-fc.sigDMin/2-fc.sigH)) + fc.sigB
	}
	return carr, beat
}

// Applies reports whether this curve is active at absoluteMs for the
// given channel and kind.
func (fc *FuncCurve) Applies(absoluteMs int, channel int, kind VoiceKind) bool {
	if !fc.Active {
		return false
	}
	if channel != fc.Channel && !(fc.Paired && channel == fc.Channel+1) {
		return false
	}
	if fc.KindMask != 0 && kind != fc.KindMask {
		return false
	}
	return absoluteMs >= fc.StartMs && absoluteMs <= fc.EndMs
}

// FuncCurveSet is the set of live FuncCurves an Engine applies on top of
// the scheduler's ordinary segment interpolation. At most one curve is
// normally active at a time, but nothing prevents several independent
// drop/sigmoid sequences from overlapping on different channels.
type FuncCurveSet []*FuncCurve

// Override looks up the curve (if any) that applies to channel/kind at
// absoluteMs and returns its (carr, beat) in place of the caller's
// scheduler-interpolated values. When fc.Paired, the second channel of the
// pair receives the opposite half-beat offset around the shared carrier,
// per apply_func_curve's monaural-pair split: channel gets carr+beat/2,
// channel+1 gets carr-beat/2, with res zeroed so configureChannel treats
// both halves as independent binaural carriers rather than a beat pair.
func (fs FuncCurveSet) Override(absoluteMs int, channel int, kind VoiceKind, carr, res float64) (float64, float64, bool) {
	for _, fc := range fs {
		if !fc.Applies(absoluteMs, channel, kind) {
			continue
		}
		c, b := fc.Evaluate(float64(absoluteMs-fc.StartMs) / 1000)
		if !fc.Paired {
			return c, b, true
		}
		if channel == fc.Channel {
			return c + b/2, 0, true
		}
		return c - b/2, 0, true
	}
	return carr, res, false
}
