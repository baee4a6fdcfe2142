// channel.go - per-channel runtime state: phase accumulators, integer
// amplitudes, and the extra state needed by bell/isochronic/spin voices.
// Configured once per output buffer by configureChannel, then mutated every
// sample by the mixer. Grounded on original_source/sbagenx.c's
// `struct Channel` and its corrVal()/per-buffer channel setup.

package core

import "math"

// IsochronicEdge selects the envelope edge shape for the custom isochronic
// gate (spec §4.3 item 4).
type IsochronicEdge int

const (
	EdgeHard IsochronicEdge = iota
	EdgeLinear
	EdgeSmoothstep
	EdgeSmootherstep
)

// IsochronicGate configures the custom isochronic envelope; the zero value
// selects the legacy threshold-gated envelope instead.
type IsochronicGate struct {
	Custom  bool
	Start   float64 // s ∈ [0,1)
	Duty    float64 // d ∈ (0,1]
	Attack  float64
	Release float64
	Edge    IsochronicEdge
}

// edgeShape applies the chosen attack/release curve to u ∈ [0,1].
func (g IsochronicGate) edgeShape(u float64) float64 {
	if u <= 0 {
		return 0
	}
	if u >= 1 {
		return 1
	}
	switch g.Edge {
	case EdgeHard:
		return 1
	case EdgeLinear:
		return u
	case EdgeSmootherstep:
		return u * u * u * (u*(u*6-15) + 10)
	default:
		return u * u * (3 - 2*u)
	}
}

// modFactor evaluates the custom gate at phase ∈ [0,1).
func (g IsochronicGate) modFactor(phase float64) float64 {
	phase -= math.Floor(phase)
	if g.Duty >= 1 {
		return 1
	}
	end := g.Start + g.Duty
	u := -1.0
	if end <= 1 {
		if phase >= g.Start && phase < end {
			u = (phase - g.Start) / g.Duty
		}
	} else {
		if phase >= g.Start {
			u = (phase - g.Start) / g.Duty
		} else if phase < end-1 {
			u = (phase + (1 - g.Start)) / g.Duty
		}
	}
	if u <= 0 || u >= 1 {
		return 0
	}
	if g.Attack > 0 && u < g.Attack {
		return g.edgeShape(u / g.Attack)
	}
	if u <= 1-g.Release {
		return 1
	}
	if g.Release > 0 {
		return g.edgeShape((1 - u) / g.Release)
	}
	return 0
}

// legacyModFactor is the pre-gate isochronic envelope: the positive lobe of
// the carrier's own waveform, thresholded at 30% and smoothstepped.
func legacyModFactor(phase float64, tables *WaveTables, waveform int) float64 {
	phase -= math.Floor(phase)
	idx := int(phase * StSize)
	if idx >= StSize {
		idx = StSize - 1
	}
	if idx < 0 {
		idx = 0
	}
	sample := float64(tables.Table(waveform)[idx]) / float64(StAmp)
	const threshold = 0.3
	if sample <= threshold {
		return 0
	}
	f := (sample - threshold) / (1 - threshold)
	return f * f * (3 - 2*f)
}

// channelState is the mutable runtime state for one of the 16 mixer
// channels.
type channelState struct {
	kind VoiceKind
	amp  int32
	amp2 int32
	inc1 uint32
	inc2 uint32
	off1 uint32
	off2 uint32

	waveform int
	gate     IsochronicGate // only meaningful for KindIsochronic
}

// kindTransitionReset mirrors corrVal's "if (vv->typ != v0->typ)" branch:
// phase accumulators reset to zero on any kind change. Bell off2 is its
// decaying envelope amplitude, not a phase, so it is handled separately by
// the bell strike logic in configureChannel.
func (c *channelState) kindTransitionReset(newKind VoiceKind) {
	if newKind == c.kind {
		return
	}
	c.off1 = 0
	c.off2 = 0
	c.kind = newKind
}

// freqToIncrement converts a frequency in Hz to a phase increment in the
// (StSize<<16) fixed-point phase space used by off1/off2.
func freqToIncrement(hz float64, sampleRate int) uint32 {
	if sampleRate <= 0 {
		return 0
	}
	inc := hz * float64(StSize) * float64(1<<phaseShift) / float64(sampleRate)
	return uint32(int64(inc))
}

// spinWidthIncrement converts a spin width in microseconds to the 24-bit
// fixed-point increment used by the spin pan oscillator's amplitude ramp
// (ch->inc2 in the reference: carr*1e-6*rate*(1<<24)/ST_AMP).
func spinWidthIncrement(widthUs float64, sampleRate int) uint32 {
	return uint32(int64(widthUs * 1e-6 * float64(sampleRate) * float64(int64(1)<<24) / float64(StAmp)))
}

// configureChannel derives a channel's per-buffer synthesis parameters
// (amp/amp2/inc1/inc2) from its currently-interpolated Voice, mirroring
// corrVal's per-type "Setup ch->* from vv->*" switch. trigger re-strikes a
// bell when the engine has just entered a new period. spinCarrMax clips
// the spin pan oscillator's sweep width, as the reference does per
// sample-rate.
func configureChannel(c *channelState, v Voice, sampleRate int, amps *AmpAdjustTable, headphoneComp bool, trigger bool, spinCarrMax float64) {
	c.kindTransitionReset(v.Kind)
	c.waveform = v.Waveform

	if idx, ok := v.Kind.IsCustomWave(); ok {
		c.waveform = idx
	}

	switch v.Kind {
	case KindBinaural:
		freq1 := v.Carr + v.Res/2
		freq2 := v.Carr - v.Res/2
		if headphoneComp && amps != nil {
			c.amp = int32(v.Amp * amps.Lookup(freq1))
			c.amp2 = int32(v.Amp * amps.Lookup(freq2))
		} else {
			c.amp = int32(v.Amp)
			c.amp2 = int32(v.Amp)
		}
		c.inc1 = freqToIncrement(freq1, sampleRate)
		c.inc2 = freqToIncrement(freq2, sampleRate)

	case KindPink, KindWhite, KindBrown, KindMix:
		c.amp = int32(v.Amp)

	case KindBell:
		c.amp = int32(v.Amp)
		c.inc1 = freqToIncrement(v.Carr, sampleRate)
		if trigger {
			c.off2 = uint32(c.amp)
			c.inc2 = uint32(sampleRate / 20)
		}

	case KindSpin, KindBSpin, KindWSpin:
		carr := v.Carr
		if carr > spinCarrMax {
			carr = spinCarrMax
		}
		if carr < -spinCarrMax {
			carr = -spinCarrMax
		}
		c.amp = int32(v.Amp)
		c.inc1 = freqToIncrement(v.Res, sampleRate)
		c.inc2 = spinWidthIncrement(carr, sampleRate)

	case KindIsochronic:
		c.amp = int32(v.Amp)
		c.inc1 = freqToIncrement(v.Carr, sampleRate)
		c.inc2 = freqToIncrement(v.Res, sampleRate)

	case KindMixSpin:
		carr := v.Carr
		if carr > spinCarrMax {
			carr = spinCarrMax
		}
		if carr < -spinCarrMax {
			carr = -spinCarrMax
		}
		c.amp = int32(v.Amp)
		c.inc1 = freqToIncrement(v.Res, sampleRate)
		c.inc2 = spinWidthIncrement(carr, sampleRate)

	case KindMixPulse:
		c.amp = int32(v.Amp)
		c.inc2 = freqToIncrement(v.Res, sampleRate)

	default: // custom wavetable binaural
		inc1 := int64(freqToIncrement(v.Carr+v.Res/2, sampleRate))
		inc2 := int64(freqToIncrement(v.Carr-v.Res/2, sampleRate))
		if inc1 > inc2 {
			inc2 = -inc2
		} else {
			inc1 = -inc1
		}
		c.amp = int32(v.Amp)
		c.inc1 = uint32(inc1)
		c.inc2 = uint32(inc2)
	}
}
