// wavetable.go - built-in and user-defined waveform lookup tables.
//
// Grounded on the teacher's audio_lut.go (precomputed float LUTs filled in
// an init-style constructor, linear-interpolated lookup helpers) but
// reworked to the spec's integer ST_AMP-scaled, StSize-entry tables and its
// sinc-interpolated user wavetable import.

package core

import "math"

// WaveTables holds the four built-in waveforms plus up to 100 user-defined
// wavetables, each StSize entries long and normalised to ±StAmp.
type WaveTables struct {
	sine     [StSize]int32
	square   [StSize]int32
	triangle [StSize]int32
	sawtooth [StSize]int32
	user     [100]*[StSize]int32
}

// NewWaveTables builds the four built-in tables. User wavetables are added
// afterwards via DefineUserWave.
func NewWaveTables() *WaveTables {
	wt := &WaveTables{}
	for i := 0; i < StSize; i++ {
		phase := twoPi * float64(i) / float64(StSize)
		wt.sine[i] = int32(math.Round(StAmp * math.Sin(phase)))

		if i < StSize/2 {
			wt.square[i] = StAmp
		} else {
			wt.square[i] = -StAmp
		}

		// Triangle: piecewise-linear ramp peaking at ±StAmp at the
		// quarter/three-quarter points of the cycle.
		t := float64(i) / float64(StSize) // 0..1
		var tri float64
		switch {
		case t < 0.25:
			tri = 4 * t
		case t < 0.75:
			tri = 2 - 4*t
		default:
			tri = 4*t - 4
		}
		wt.triangle[i] = int32(math.Round(StAmp * tri))

		// Sawtooth: ramps -1 -> +1 across the period.
		wt.sawtooth[i] = int32(math.Round(StAmp * (2*t - 1)))
	}
	return wt
}

// Table returns the StSize-entry table for the given built-in waveform id
// or user wavetable index encoded by kind, or nil if undefined.
func (wt *WaveTables) Table(waveform int) *[StSize]int32 {
	switch waveform {
	case WaveSine:
		return &wt.sine
	case WaveSquare:
		return &wt.square
	case WaveTriangle:
		return &wt.triangle
	case WaveSawtooth:
		return &wt.sawtooth
	}
	return nil
}

// UserTable returns the wavetable defined by waveNN (0..99), or nil if that
// slot has not been defined.
func (wt *WaveTables) UserTable(idx int) *[StSize]int32 {
	if idx < 0 || idx >= len(wt.user) {
		return nil
	}
	return wt.user[idx]
}

// DefineUserWave imports a user wavetable ("waveNN:") from >=2 real sample
// points. Samples are normalised to [0,1], duplicated with the second copy
// negated (to make a full period out of a half-period of samples), then
// sinc-interpolated onto the StSize-entry table. This is the only algorithm
// in the core that must match the reference numerically, per spec §4.1.
func (wt *WaveTables) DefineUserWave(idx int, samples []float64) error {
	if idx < 0 || idx >= len(wt.user) {
		return &RangeError{Msg: "wavetable index out of range"}
	}
	if len(samples) < 2 {
		return &RangeError{Msg: "user waveform requires at least 2 samples"}
	}

	// Normalise to [0,1]: shift by the smallest sample and divide by the
	// sample range.
	lo, hi := samples[0], samples[0]
	for _, s := range samples {
		lo = math.Min(lo, s)
		hi = math.Max(hi, s)
	}
	span := hi - lo
	if span == 0 {
		span = 1
	}
	norm := make([]float64, len(samples))
	for i, s := range samples {
		norm[i] = (s - lo) / span
	}

	// Duplicate with the second copy negated: a half-period of n samples
	// becomes a full period of 2n samples, n..2n-1 being -norm[i].
	n := len(norm)
	full := make([]float64, 2*n)
	copy(full, norm)
	for i := 0; i < n; i++ {
		full[n+i] = -norm[i]
	}

	table := sincInterpolate(full, StSize)

	// Rescale so the peak output sample matches ±StAmp exactly.
	outPeak := 0.0
	for _, v := range table {
		if a := math.Abs(v); a > outPeak {
			outPeak = a
		}
	}
	scale := 1.0
	if outPeak != 0 {
		scale = StAmp / outPeak
	}

	out := &[StSize]int32{}
	for i, v := range table {
		out[i] = int32(math.Round(v * scale))
	}
	wt.user[idx] = out
	return nil
}

// sincInterpolate resamples a periodic signal of N anchor samples onto an
// output table of outLen entries using a windowed periodic-sinc kernel,
// (1-4t^2)*sin(2*pi*N*t)/(2*pi*N*t) summed at each output index, per spec
// §4.1.
func sincInterpolate(samples []float64, outLen int) []float64 {
	n := len(samples)
	out := make([]float64, outLen)
	for o := 0; o < outLen; o++ {
		x := float64(o) / float64(outLen) * float64(n) // position in samples-space
		var sum float64
		for k := 0; k < n; k++ {
			t := x - float64(k)
			// Wrap t into the kernel's effective support, taking the
			// periodic image closest to zero.
			for t > float64(n)/2 {
				t -= float64(n)
			}
			for t < -float64(n)/2 {
				t += float64(n)
			}
			sum += samples[k] * periodicSincKernel(t, n)
		}
		out[o] = sum
	}
	return out
}

// periodicSincKernel evaluates (1-4t^2)*sin(2*pi*N*t)/(2*pi*N*t) for a
// period of N samples, with the t==0 singularity resolved to 1.
func periodicSincKernel(t float64, n int) float64 {
	tn := t / float64(n)
	if tn == 0 {
		return 1
	}
	window := 1 - 4*tn*tn
	arg := twoPi * float64(n) * tn
	return window * math.Sin(arg) / arg
}
