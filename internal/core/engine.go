// engine.go - the collected runtime state and the pull-based render entry
// point consumed by an outer sink loop. Grounded on
// original_source/sbagenx.c's main loop ("for (c=0;c<cnt;c++) { corrVal(1);
// outChunk(); ... now += ms_inc; }") and on spec §4.4/§4.9: channel
// configuration (period lookup, interpolation, FuncCurve override,
// headphone-compensation rescale) happens once per rendered chunk, while
// phase accumulators inside the Mixer still advance every sample.
package core

import (
	"io"

	"github.com/charmbracelet/log"
)

// EngineOption configures optional Engine behaviour at construction time.
type EngineOption func(*Engine)

// WithLogger attaches a structured logger; a nil logger (or no option at
// all) falls back to one that discards everything.
func WithLogger(l *log.Logger) EngineOption {
	return func(e *Engine) { e.log = l }
}

// WithInputBuffer wires an externally-fed mix-input ring buffer.
func WithInputBuffer(ib *InputBuffer) EngineOption {
	return func(e *Engine) { e.input = ib }
}

// WithLooper wires a mix-input looper (SBAGEN_LOOPER metadata detected).
func WithLooper(l *Looper) EngineOption {
	return func(e *Engine) { e.looper = l }
}

// WithMixModCurve wires a mix-modulation curve.
func WithMixModCurve(m *MixModCurve) EngineOption {
	return func(e *Engine) { e.mixMod = m }
}

// WithFuncCurves wires the pre-programmed generators' function-driven
// carrier/beat overrides (spec §4.6).
func WithFuncCurves(fs FuncCurveSet) EngineOption {
	return func(e *Engine) { e.voices = fs }
}

// WithAmpAdjust wires a headphone-compensation table (spec §6's "-c").
func WithAmpAdjust(t *AmpAdjustTable) EngineOption {
	return func(e *Engine) { e.ampAdjust = t }
}

// WithMixPreGain sets the REPLAYGAIN-derived integer pre-gain applied to
// the raw mix-input stream before mix-modulation (spec §6).
func WithMixPreGain(gain16 int) EngineOption {
	return func(e *Engine) { e.mixPreGain = gain16 }
}

// WithIsochronicGate overrides every isochronic channel's envelope with a
// custom gate (spec §6's "-I" option) instead of the legacy
// threshold-gated waveform envelope.
func WithIsochronicGate(g IsochronicGate) EngineOption {
	return func(e *Engine) { e.isoGate = g }
}

// Engine is the complete, single-owner runtime state for one sequence
// render: the compiled period schedule, the 16 channel states, the shared
// wave tables and noise source, and the optional mix-input/looper. It
// carries no goroutines of its own; FillStereo16 is called by whatever
// loop (an oto.Player.Read, a WAV-export loop, a test) wants the next
// chunk of audio, mirroring the teacher's ReadSampleFromRing pull model.
type Engine struct {
	cfg      Config
	periods  *PeriodList
	sched    *Scheduler
	curPer   int // handle of the current period; NewEngine starts it at the list head
	voices   FuncCurveSet
	clock    *Clock
	channels [16]channelState
	tables   *WaveTables
	noise    *NoiseGen
	mixer    *Mixer

	mixMod     *MixModCurve
	ampAdjust  *AmpAdjustTable
	mixPreGain int            // 16.x fixed-point REPLAYGAIN multiplier, 16 = unity
	isoGate    IsochronicGate // zero value selects the legacy envelope

	input  *InputBuffer
	looper *Looper

	seqStartMs int // elapsed-ms origin for mix-modulation's own clock

	log *log.Logger
}

// NewEngine compiles periods into a schedule and returns a ready Engine.
// periods must already be the flat list produced by a Parser (plus any
// pre-programmed generator); NewEngine owns compiling it.
func NewEngine(cfg Config, periods []UserPeriod, opts ...EngineOption) (*Engine, error) {
	sched := NewScheduler(cfg.FadeIntMs)
	pl, err := sched.Compile(periods)
	if err != nil {
		return nil, err
	}

	startMs := 0
	if pl.Head() != noIndex {
		startMs = pl.At(pl.Head()).Time
	}
	endMs := -1
	if cfg.EndAtLast {
		endMs = startMs + pl.TotalSpanMs()
	}
	if cfg.SeqLenMs > 0 {
		endMs = startMs + cfg.SeqLenMs
	}
	fastMult := cfg.FastMult
	if cfg.StartNow || cfg.EndAtLast {
		if fastMult <= 0 {
			fastMult = 1
		}
	}

	tables := NewWaveTables()
	noise := NewNoiseGen(cfg.RandomSeed)

	e := &Engine{
		cfg:     cfg,
		periods: pl,
		sched:   sched,
		curPer:  pl.Head(),
		clock:   NewClock(startMs, fastMult, endMs),
		tables:  tables,
		noise:   noise,
		mixer:   NewMixer(cfg.SampleRate, cfg.Volume, tables, noise),
		log:     log.New(io.Discard),
	}
	for _, o := range opts {
		o(e)
	}
	if e.log == nil {
		e.log = log.New(io.Discard)
	}
	e.log.Debug("period list compiled", "periods", pl.Len(), "span_ms", pl.TotalSpanMs())
	return e, nil
}

// Close releases the engine's resources. It is the single teardown point:
// always safe to call more than once.
func (e *Engine) Close() {
	if e.input != nil {
		e.input.SetEOF()
	}
}

// spinCarrMax returns the per-sample-rate clip applied to spin channels'
// carrier (spec §4.4: 127 / (1e-6 * sample_rate)).
func (e *Engine) spinCarrMax() float64 {
	return 127 / (1e-6 * float64(e.cfg.SampleRate))
}

// advance walks the current-period pointer forward while nowMs lies
// outside [P.time, P.next.time) modulo 24h, per spec §4.4's lookup rule.
// Returns whether the pointer moved to a new period (used to trigger bell
// strikes on entry).
func (e *Engine) advance(nowMs int) bool {
	moved := false
	for {
		p := e.periods.At(e.curPer)
		next := e.periods.Next(e.curPer)
		span := tPer24(p.Time, e.periods.At(next).Time)
		if span == 0 || tPer0(p.Time, nowMs) < span {
			break
		}
		e.curPer = next
		moved = true
	}
	return moved
}

// interpolate returns the current Voice for channel c at nowMs, applying
// segment interpolation (spec §4.4) then any matching FuncCurve override
// (spec §4.6).
func (e *Engine) interpolate(c int, nowMs int) Voice {
	p := e.periods.At(e.curPer)
	next := e.periods.At(e.periods.Next(e.curPer))
	span := tPer24(p.Time, next.Time)

	v0, v1 := p.V0[c], p.V1[c]
	var v Voice
	if span == 0 {
		v = v0
	} else {
		r := float64(tPer0(p.Time, nowMs)) / float64(span)
		v = lerpVoice(v0, v1, r)
	}

	if carr, res, ok := e.voices.Override(nowMs, c, v.Kind, v.Carr, v.Res); ok {
		v.Carr, v.Res = carr, res
	}
	return v
}

// rescaleHeadphoneComp implements spec §4.4's last paragraph: if the sum
// of post-adjustment amplitudes exceeds 4096 (100%), binaural channels are
// scaled down first; if that alone isn't enough, every other active kind
// is then scaled down proportionally, so the final sum equals 4096.
func rescaleHeadphoneComp(channels *[16]channelState) {
	var total int64
	for i := range channels {
		switch channels[i].kind {
		case KindOff:
		case KindBinaural:
			total += int64(channels[i].amp) + int64(channels[i].amp2)
		default:
			total += int64(channels[i].amp)
		}
	}
	if total <= maxAmp {
		return
	}

	var binauralTotal int64
	for i := range channels {
		if channels[i].kind == KindBinaural {
			binauralTotal += int64(channels[i].amp) + int64(channels[i].amp2)
		}
	}
	overshoot := total - maxAmp
	if binauralTotal > 0 {
		cut := overshoot
		if cut > binauralTotal {
			cut = binauralTotal
		}
		factor := float64(binauralTotal-cut) / float64(binauralTotal)
		for i := range channels {
			if channels[i].kind == KindBinaural {
				channels[i].amp = int32(float64(channels[i].amp) * factor)
				channels[i].amp2 = int32(float64(channels[i].amp2) * factor)
			}
		}
		total -= cut
	}
	if total <= maxAmp {
		return
	}

	factor := float64(maxAmp) / float64(total)
	for i := range channels {
		switch channels[i].kind {
		case KindOff:
		case KindBinaural:
			channels[i].amp = int32(float64(channels[i].amp) * factor)
			channels[i].amp2 = int32(float64(channels[i].amp2) * factor)
		default:
			channels[i].amp = int32(float64(channels[i].amp) * factor)
		}
	}
}

// configureChunk recomputes every channel's synthesis parameters from the
// schedule at nowMs, mirroring corrVal(1)'s once-per-chunk reconfiguration.
// It returns whether any channel consumes the mix-input stream directly
// (mix/mixspin/mixpulse), which decides whether raw mix-input passes
// through at unity or stays silent outside those channels (spec §4.3
// item 2).
func (e *Engine) configureChunk(nowMs int) bool {
	triggered := e.advance(nowMs)
	mixFlag := false
	for c := 0; c < NumChannels; c++ {
		v := e.interpolate(c, nowMs)
		configureChannel(&e.channels[c], v, e.cfg.SampleRate, e.ampAdjust, e.ampAdjust != nil, triggered, e.spinCarrMax())
		if v.Kind == KindIsochronic && e.isoGate.Custom {
			e.channels[c].gate = e.isoGate
		}
		if v.Kind == KindMix || v.Kind == KindMixSpin || v.Kind == KindMixPulse {
			mixFlag = true
		}
	}
	if e.ampAdjust != nil {
		rescaleHeadphoneComp(&e.channels)
	}
	e.mixer.RefreshMixAmp(e.channels[:])
	return mixFlag
}

// mixModMultiplier returns the current mix-modulation gain, 1.0 if no
// curve is configured (spec §4.7).
func (e *Engine) mixModMultiplier() float64 {
	if e.mixMod == nil {
		return 1.0
	}
	tMin := float64(e.clock.ElapsedMs()-e.seqStartMs) / 60000
	return e.mixMod.Multiplier(tMin)
}

// nextMixFrame returns the next raw mix-input frame, preferring the
// looper when one is configured, falling back to the plain input buffer,
// and to silence when neither is present (spec §4.8/§3).
func (e *Engine) nextMixFrame() (int32, int32, bool) {
	gain := e.mixPreGain
	if gain <= 0 {
		gain = 16
	}
	if e.looper != nil {
		l, r := e.looper.MixFrame()
		return l * int32(gain) / 16, r * int32(gain) / 16, false
	}
	if e.input == nil {
		return 0, 0, false
	}
	var frame [2]int32
	if n := e.input.Read(frame[:]); n < 1 {
		return 0, 0, e.input.EOF() && e.input.Available() == 0
	}
	return frame[0] * int32(gain) / 16, frame[1] * int32(gain) / 16, false
}

// FillStereo16 renders len(dst)/2 interleaved stereo frames into dst and
// reports whether the sequence has finished (end-at-last time reached, or
// the mix-input stream hit EOF with nothing left buffered). The whole
// buffer is treated as one chunk: channels are reconfigured once at the
// chunk's starting time, then every frame in the buffer is rendered
// against that frozen configuration, exactly as outChunk() does between
// two corrVal(1) calls.
func (e *Engine) FillStereo16(dst []int16) (done bool) {
	if len(dst) < 2 {
		return e.clock.Done()
	}
	if e.clock.Done() {
		for i := range dst {
			dst[i] = 0
		}
		return true
	}

	nowMs := e.clock.NowMs()
	mixFlag := e.configureChunk(nowMs)
	mixModMul := e.mixModMultiplier()

	frames := len(dst) / 2
	eof := false
	for i := 0; i < frames; i++ {
		mix1, mix2, hitEOF := e.nextMixFrame()
		if hitEOF {
			eof = true
		}
		l, r := e.mixer.MixSample(e.channels[:], mix1, mix2, mixFlag, mixModMul)
		dst[2*i] = l
		dst[2*i+1] = r
	}

	chunkMs := float64(frames) * 1000 / float64(e.cfg.SampleRate)
	e.clock.AdvanceScheduleMs(chunkMs)

	if eof {
		e.log.Warn("mix input stream ended")
		return true
	}
	return e.clock.Done()
}
