package core

// VoiceKind identifies what a Voice synthesises. Values -1..-100 select a
// user-defined wavetable (wave00..wave99); kind is otherwise one of the
// named constants below. Grounded on original_source/sbagenx.c's
// `struct Voice.typ` encoding.
type VoiceKind int

const (
	KindOff VoiceKind = iota
	KindBinaural
	KindPink
	KindBell
	KindSpin
	KindMix
	KindMixSpin
	KindMixPulse
	KindIsochronic
	KindWhite
	KindBrown
	KindBSpin
	KindWSpin
)

// IsCustomWave reports whether k selects a user wavetable (wave00..wave99),
// and returns its index (0..99) when it does.
func (k VoiceKind) IsCustomWave() (idx int, ok bool) {
	if k <= -1 && k >= -100 {
		return int(-k) - 1, true
	}
	return 0, false
}

// Built-in waveform ids referenced by Voice.Waveform.
const (
	WaveSine = iota
	WaveSquare
	WaveTriangle
	WaveSawtooth
)

// Voice is a value type describing one channel's synthesis parameters at a
// point in time. Amplitude is non-negative and runs 0..4096 for 0..100%.
// Unknown kinds are rejected at parse time, never at runtime.
type Voice struct {
	Kind     VoiceKind
	Amp      float64 // 0..4096
	Carr     float64 // carrier Hz (binaural/bell/isochronic), width-us (spin)
	Res      float64 // resonance/beat Hz, possibly negative
	Waveform int     // WaveSine..WaveSawtooth, or a custom wavetable index
}

// Silent reports whether the voice produces no output (kind off, or zero
// amplitude on a kind that has one).
func (v Voice) Silent() bool {
	return v.Kind == KindOff || (v.Amp == 0 && v.Kind != KindBell)
}

// sameKindAndWaveform reports whether two voices would use the same
// generator, which the scheduler needs to decide whether a "slide" or
// "through" transition may interpolate directly versus needing to detour
// through silence.
func sameKindAndWaveform(a, b Voice) bool {
	return a.Kind == b.Kind && a.Waveform == b.Waveform
}
