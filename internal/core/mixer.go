// mixer.go - the per-sample inner loop: dispatches on each channel's kind,
// accumulates left/right 32-bit signed totals, and produces dithered
// 16-bit PCM. Grounded directly on original_source/sbagenx.c's outChunk()
// channel-type switch and create_noise_spin_effect().

package core

// Mixer renders one sample at a time from a fixed array of channel states
// plus the shared noise source and an optional mix-input stream. It holds
// no period/scheduling state; the engine is responsible for calling
// configureChannel whenever the interpolated voice changes.
type Mixer struct {
	sampleRate int
	volume     int // percent, 100 = unity; matches opt_V
	tables     *WaveTables
	noise      *NoiseGen
	dither     ditherState

	mixAmpCurrent int32 // tracks the most recent KindMix channel's amplitude
}

// NewMixer builds a Mixer bound to shared wave tables and a noise source.
func NewMixer(sampleRate int, volume int, tables *WaveTables, noise *NoiseGen) *Mixer {
	if volume <= 0 {
		volume = 100
	}
	return &Mixer{sampleRate: sampleRate, volume: volume, tables: tables, noise: noise, mixAmpCurrent: maxAmp}
}

// RefreshMixAmp updates the base volume used by mixspin/mixpulse from the
// first KindMix channel present, or resets to full scale if none is
// active this buffer.
func (m *Mixer) RefreshMixAmp(channels []channelState) {
	m.mixAmpCurrent = maxAmp
	for i := range channels {
		if channels[i].kind == KindMix {
			m.mixAmpCurrent = channels[i].amp
			return
		}
	}
}

// spinEffect implements create_noise_spin_effect: it turns a spin-position
// value into a stereo pan of a noise source chosen by kind.
func (m *Mixer) spinEffect(kind VoiceKind, amp int32, spinPos int32) (left, right int32) {
	amplified := int32(float64(spinPos) * 1.5)
	if amplified > 127 {
		amplified = 127
	}
	if amplified < -128 {
		amplified = -128
	}
	posVal := amplified
	if posVal < 0 {
		posVal = -posVal
	}

	var base int32
	switch kind {
	case KindBSpin:
		base = m.noise.Brown()
	case KindWSpin:
		base = m.noise.White()
	default:
		base = m.noise.History(128)
	}

	var l, r int32
	if amplified >= 0 {
		l = (base * (128 - posVal)) >> 7
		r = base + ((base * posVal) >> 7)
	} else {
		l = base + ((base * posVal) >> 7)
		r = (base * (128 - posVal)) >> 7
	}
	return amp * l, amp * r
}

// phaseIndex extracts the StSize-wide table index from a phase accumulator.
func phaseIndex(off uint32) int {
	return int((off & phaseMask) >> phaseShift)
}

// MixSample advances every active channel by one sample and returns the
// dithered, volume-scaled stereo output. mix1/mix2 is the current
// mix-input frame (zero when no mix-input source is configured); mixFlag
// reports whether any channel consumes it (mix, mixspin, mixpulse); when
// false the mix-input is instead passed straight through at full scale,
// matching outChunk's default-mix behavior. mixModMul is the current
// MixModCurve multiplier (1.0 when no mix-modulation curve is active).
func (m *Mixer) MixSample(channels []channelState, mix1, mix2 int32, mixFlag bool, mixModMul float64) (left16, right16 int16) {
	var tot1, tot2 int64

	if !mixFlag {
		tot1 = int64(float64(int64(mix1)<<12) * mixModMul)
		tot2 = int64(float64(int64(mix2)<<12) * mixModMul)
	}

	noiseSample := m.noise.Pink()

	for i := range channels {
		ch := &channels[i]
		switch ch.kind {
		case KindOff:
			continue

		case KindBinaural:
			ch.off1 += ch.inc1
			tot1 += int64(ch.amp) * int64(m.tables.Table(ch.waveform)[phaseIndex(ch.off1)])
			ch.off2 += ch.inc2
			tot2 += int64(ch.amp2) * int64(m.tables.Table(ch.waveform)[phaseIndex(ch.off2)])

		case KindPink:
			val := int64(noiseSample) * int64(ch.amp)
			tot1 += val
			tot2 += val

		case KindWhite:
			val := int64(m.noise.White()) * int64(ch.amp)
			tot1 += val
			tot2 += val

		case KindBrown:
			val := int64(m.noise.Brown()) * int64(ch.amp)
			tot1 += val
			tot2 += val

		case KindBell:
			if ch.off2 != 0 {
				ch.off1 += ch.inc1
				val := int64(ch.off2) * int64(m.tables.Table(ch.waveform)[phaseIndex(ch.off1)])
				tot1 += val
				tot2 += val
				ch.inc2--
				if int32(ch.inc2) < 0 {
					ch.inc2 = uint32(m.sampleRate / 20)
					ch.off2 -= 1 + ch.off2/10 // 10% decay every 50ms of output
				}
			}

		case KindSpin, KindBSpin, KindWSpin:
			ch.off1 += ch.inc1
			spinPos := (int32(ch.inc2) * m.tables.Table(ch.waveform)[phaseIndex(ch.off1)]) >> 24
			l, r := m.spinEffect(ch.kind, ch.amp, spinPos)
			tot1 += int64(l)
			tot2 += int64(r)

		case KindMix:
			tot1 += int64(float64(mix1) * (float64(ch.amp) * mixModMul))
			tot2 += int64(float64(mix2) * (float64(ch.amp) * mixModMul))

		case KindMixSpin:
			ch.off1 += ch.inc1
			val := (int32(ch.inc2) * m.tables.Table(ch.waveform)[phaseIndex(ch.off1)]) >> 24
			intensity := 0.5 + (float64(ch.amp)/maxAmp)*3.5
			amplified := int32(float64(val) * intensity)
			if amplified > 127 {
				amplified = 127
			}
			if amplified < -128 {
				amplified = -128
			}
			posVal := amplified
			if posVal < 0 {
				posVal = -posVal
			}
			var mixL, mixR int32
			if amplified >= 0 {
				mixL = (mix1 * (128 - posVal)) >> 7
				mixR = mix2 + ((mix1 * posVal) >> 7)
			} else {
				mixL = mix1 + ((mix2 * posVal) >> 7)
				mixR = (mix2 * (128 - posVal)) >> 7
			}
			baseAmp := float64(m.mixAmpCurrent) * 0.7 * mixModMul
			tot1 += int64(baseAmp * float64(mixL))
			tot2 += int64(baseAmp * float64(mixR))

		case KindMixPulse:
			ch.off2 += ch.inc2
			modVal := m.tables.Table(ch.waveform)[phaseIndex(ch.off2)]
			modFactor := 0.0
			if float64(modVal) > StAmp*0.3 {
				modFactor = (float64(modVal) - StAmp*0.3) / (StAmp * 0.7)
				modFactor = modFactor * modFactor * (3 - 2*modFactor)
			}
			baseAmp := float64(m.mixAmpCurrent) * 0.7 * mixModMul
			effectIntensity := (float64(ch.amp) / maxAmp) * 1.5
			gain := (1 - effectIntensity) + effectIntensity*modFactor
			tot1 += int64(baseAmp * float64(mix1) * gain)
			tot2 += int64(baseAmp * float64(mix2) * gain)

		case KindIsochronic:
			ch.off1 += ch.inc1
			ch.off2 += ch.inc2
			phase := float64(ch.off2&phaseMask) / float64(StSize<<phaseShift)
			var mod float64
			if ch.gate.Custom {
				mod = ch.gate.modFactor(phase)
			} else {
				mod = legacyModFactor(phase, m.tables, ch.waveform)
			}
			val := float64(ch.amp) * float64(m.tables.Table(ch.waveform)[phaseIndex(ch.off1)]) * mod
			tot1 += int64(val)
			tot2 += int64(val)

		default: // custom user wavetable, binaural-style
			tab := m.tables.UserTable(ch.waveform)
			ch.off1 += ch.inc1
			tot1 += int64(ch.amp) * int64(tab[phaseIndex(ch.off1)])
			ch.off2 += ch.inc2
			tot2 += int64(ch.amp) * int64(tab[phaseIndex(ch.off2)])
		}
	}

	if m.volume != 100 {
		tot1 = (tot1*int64(m.volume) + 50) / 100
		tot2 = (tot2*int64(m.volume) + 50) / 100
	}

	d := int64(m.dither.next())
	if tot1 <= 0x7FFF0000 {
		tot1 += d
	}
	if tot2 <= 0x7FFF0000 {
		tot2 += d
	}

	return int16(tot1 >> NsDither), int16(tot2 >> NsDither)
}
