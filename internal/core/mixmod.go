// mixmod.go - MixModCurve: runtime multiplier applied to mix-input
// contributions only, per spec §4.7.

package core

import "math"

// MixModCurve implements the `d=<δ>:e=<ε>:k=<k>:E=<E>` mix-modulation CLI
// spec: a dip-and-ramp multiplier during the main phase, with an optional
// linear wake-up ramp afterward.
type MixModCurve struct {
	Delta float64 // δ
	Eps   float64 // ε
	KMin  float64 // k, in minutes
	End   float64 // E: end-of-main-phase level

	MainMin float64 // T: main-phase duration, minutes
	WakeMin float64 // U: wake-phase duration, minutes
	WakeOn  bool
}

// Multiplier returns the mix-input gain multiplier at tMin minutes since
// the sequence started, per spec §4.7 and scenario 6 of §8.
func (m *MixModCurve) Multiplier(tMin float64) float64 {
	switch {
	case tMin < m.MainMin:
		period := 2 * m.KMin
		var phase float64
		if period > 0 {
			phase = math.Mod(tMin, period) - m.KMin
		}
		dip := 1 - m.Delta*math.Exp(-m.Eps*phase*phase)
		ramp := 1.0
		if m.MainMin > 0 {
			ramp = 1 - (1-m.End)/m.MainMin*tMin
		}
		g := dip * ramp
		if g < 0 {
			g = 0
		}
		return g
	case m.WakeOn && tMin <= m.MainMin+m.WakeMin:
		if m.WakeMin <= 0 {
			return 1
		}
		return (1 - m.End) + (m.End/m.WakeMin)*(tMin-m.MainMin)
	default:
		return 1
	}
}
