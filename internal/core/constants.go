// Package core implements the SBaGenX sequence model, mixing engine, and
// mix-input looper: the three subsystems that make up the engine's hard
// real-time audio path. Platform sinks, decoders, and argument parsing are
// deliberately kept out of this package.
package core

import "math"

// Channel count and table sizing, grounded on original_source/sbagenx.c's
// N_CH/ST_AMP/ST_SIZ/NS_ADJ/NS_DITHER constants.
const (
	NumChannels = 16     // N_CH
	StAmp       = 0x7FFFF // ST_AMP: amplitude of a full-scale wave-table entry
	StSize      = 16384   // ST_SIZ: sine/wave table entry count (power of two)
	NsAdj       = 12      // internal headroom shift for pink-noise accumulation
	NsDither    = 16      // final right-shift applied after dither is added

	maxAmp = 4096 // 0..4096 represents 0..100% amplitude

	// H24 is the length of a day in milliseconds; all schedule times are
	// taken modulo this value.
	H24 = 24 * 60 * 60 * 1000

	defaultFadeIntMs = 60_000 // default minimum transitional-period length
)

const twoPi = 2 * math.Pi

// phaseShift is the number of fixed-point fractional bits below the StSize
// table index in the phase accumulators, i.e. phase values are offsets
// into a (StSize << 16) space, matching the "24.16 into a 16384-entry
// table" runtime state from the spec.
const phaseShift = 16
const phaseMask = (StSize << phaseShift) - 1
