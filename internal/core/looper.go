// looper.go - seamless random-segment looper for a pre-decoded mix-input
// PCM soundtrack, driven by a SBAGEN_LOOPER= metadata tag. Grounded
// directly on original_source/flacdec.c's flac_looper_init/_sched/_sched2
// and the zx-rand segment planner (spec §4.8).

package core

// StreamMode is a segment's lifecycle stage. Values match the reference
// implementation's mode numbering so FLAC_CNT_TO_END ports directly.
type StreamMode int

const (
	ModeIdle    StreamMode = 0
	ModeSilence StreamMode = 1 // waiting out the gap before the fade-in starts
	ModeFadeIn  StreamMode = 2
	ModeHold    StreamMode = 3
	ModeFadeOut StreamMode = 4
)

// Stream is one of up to 3 concurrent crossfading segments.
type Stream struct {
	Off    int // chosen offset within the usable source region
	Src    int // current read cursor into the PCM buffer (datBase + off, advancing)
	Chan   int // 0 or 1, which channel slot this stream occupies (3-stream mode)
	Mode   StreamMode
	Cnt    int // samples remaining in the current mode
	CntAll int // total length of this segment, in samples
	Amp    uint32
	Del    int32 // signed amplitude delta per sample
}

// LooperFlags is the parsed form of a SBAGEN_LOOPER= tag (spec §4.8/§6).
type LooperFlags struct {
	Intro       bool
	SrcBaseSec  float64
	SrcLenSec   float64
	HasSrcLen   bool
	SegMinSec   float64
	SegMaxSec   float64
	FadeSec     float64
	ThreeStream bool
	SwapOnCross bool
}

// Looper drives the 2- or 3-stream segment lifecycle over a fully-decoded
// interleaved stereo 16-bit PCM buffer.
type Looper struct {
	pcm     []int16 // interleaved L,R
	datBase int     // sample-frame offset of the usable region
	datCnt0 int     // total frames available in pcm
	datCnt  int     // length of the usable region, in frames

	seg0, seg1 int // segment length bounds, in samples
	fadeCnt    int
	delAmp     int32
	ch2        bool // 3-stream crossfade mode
	ch2Swap    bool

	introCnt      int
	introPos      int
	introFirstSeg bool

	streams [3]Stream

	rng zxRand
}

// NewLooper builds a Looper from decoded PCM and parsed flags, at the
// given sample rate. pcm is interleaved stereo int16. seed seeds the
// scheduler's PRNG (the reference implementation seeds from wall-clock
// time; tests pass a fixed seed for reproducibility).
func NewLooper(pcm []int16, sampleRate int, flags LooperFlags, seed int) (*Looper, error) {
	frames := len(pcm) / 2
	base := int(flags.SrcBaseSec * float64(sampleRate))
	datCnt := frames - base
	if flags.HasSrcLen {
		datCnt = int(flags.SrcLenSec * float64(sampleRate))
	}
	if datCnt+base > frames {
		datCnt = frames - base
	}
	if datCnt < 0 {
		return nil, &RangeError{Msg: "source data range invalid in SBAGEN_LOOPER settings"}
	}

	fadeCnt := int(flags.FadeSec * float64(sampleRate))
	if fadeCnt <= 0 {
		fadeCnt = 1
	}
	if datCnt <= 3*fadeCnt {
		return nil, &RangeError{Msg: "length of source data too short for the requested fade length in SBAGEN_LOOPER settings"}
	}

	seg0 := int(flags.SegMinSec * float64(sampleRate))
	seg1 := int(flags.SegMaxSec * float64(sampleRate))
	if seg0 > datCnt {
		seg0 = datCnt
	}
	if seg1 > datCnt {
		seg1 = datCnt
	}
	if seg0 > seg1 {
		seg0 = seg1
	}
	if seg0 < 3*fadeCnt {
		seg0 = 3 * fadeCnt
	}
	if seg1 < seg0 {
		seg1 = seg0
	}

	delAmp := int32(uint32(0xFFFFFFFF) / uint32(fadeCnt))
	if flags.ThreeStream {
		delAmp >>= 1
	}

	l := &Looper{
		pcm:     pcm,
		datBase: base,
		datCnt0: frames,
		datCnt:  datCnt,
		seg0:    seg0,
		seg1:    seg1,
		fadeCnt: fadeCnt,
		delAmp:  delAmp,
		ch2:     flags.ThreeStream,
		ch2Swap: flags.SwapOnCross,
		rng:     newZXRand(seed),
	}
	if flags.Intro && base > 0 {
		l.introCnt = base
		l.introFirstSeg = true
	} else {
		l.schedule()
	}
	return l, nil
}

// cntToEnd mirrors FLAC_CNT_TO_END: samples remaining until this stream's
// fade-out completes, regardless of which mode it is currently in.
func (l *Looper) cntToEnd(s *Stream) int {
	switch s.Mode {
	case ModeSilence:
		return s.CntAll + s.Cnt
	case ModeFadeIn:
		return s.CntAll - l.fadeCnt + s.Cnt
	case ModeHold:
		return l.fadeCnt + s.Cnt
	case ModeFadeOut:
		return s.Cnt
	default:
		return 0
	}
}

// schedule dispatches to the 2- or 3-stream planner; each keeps filling
// idle slots until none remain.
func (l *Looper) schedule() {
	if l.ch2 {
		l.schedule2Stream()
		return
	}
	l.schedule1Stream()
}

// schedule1Stream implements flac_looper_sched: a single pair of
// crossfading streams sharing one channel.
func (l *Looper) schedule1Stream() {
	for {
		aa, bb := &l.streams[0], &l.streams[1]
		if aa.Mode != ModeIdle && bb.Mode != ModeIdle {
			break
		}
		if bb.Mode != ModeIdle && aa.Mode == ModeIdle {
			aa, bb = bb, aa
		}
		var active *Stream
		if aa.Mode != ModeIdle {
			active = aa
		}

		bb.Off = -1
		bb.Mode = ModeSilence
		bb.Cnt = 0
		bb.Amp = 0
		bb.Src = l.datBase

		if active != nil {
			bb.Cnt = l.cntToEnd(active) - l.fadeCnt
			if bb.Cnt < 0 {
				bb.Cnt = 0
			}
		}

		cntAll := l.rng.rand(l.seg0, l.seg1+1)
		bb.CntAll = cntAll

		if active == nil && l.introFirstSeg {
			bb.Off = 0
			bb.Mode = ModeHold
			bb.Cnt = cntAll - l.fadeCnt
			bb.Amp = 0xFFFFFFFF
			bb.Del = 0
			l.introFirstSeg = false
		}

		if active != nil {
			bb.Off = l.rng.randRanges(-1,
				clampSpec(0, active.Off-cntAll),
				clampSpec(active.Off+active.CntAll, l.datCnt-cntAll))
		}
		if bb.Off < 0 {
			bb.Off = l.rng.rand(0, l.datCnt-cntAll)
		}
		bb.Src = l.datBase + bb.Off
	}
}

// schedule2Stream implements flac_looper_sched2: three streams, the two
// simultaneously-active ones always on opposite channel slots.
func (l *Looper) schedule2Stream() {
	for {
		aa, bb, cc := &l.streams[0], &l.streams[1], &l.streams[2]
		if aa.Mode != ModeIdle && bb.Mode != ModeIdle && cc.Mode != ModeIdle {
			break
		}
		if aa.Mode == ModeIdle && bb.Mode != ModeIdle {
			aa, bb = bb, aa
		}
		if aa.Mode == ModeIdle && cc.Mode != ModeIdle {
			aa, cc = cc, aa
		}
		if bb.Mode == ModeIdle && cc.Mode != ModeIdle {
			bb, cc = cc, bb
		}

		if bb.Mode == ModeIdle {
			var active *Stream
			if aa.Mode != ModeIdle {
				active = aa
				bb.Chan = 1 - aa.Chan
			} else {
				bb.Chan = 0
			}
			bb.Off = -1
			bb.Mode = ModeSilence
			bb.Amp = 0
			bb.Cnt = 0
			bb.Src = l.datBase

			var cntAll int
			if active == nil {
				cntAll = l.rng.rand(l.seg0, l.seg1+1)
			} else {
				end := l.cntToEnd(active)
				cntAll = l.rng.randRanges(-1,
					outerSpec(l.seg0, l.seg1+1),
					clampSpec(l.seg0, end-l.fadeCnt),
					clampSpec(end+l.fadeCnt, l.seg1+1))
				if cntAll < 0 {
					bb.Cnt = end + l.fadeCnt - l.seg1
					cntAll = l.seg1
				}
			}
			bb.CntAll = cntAll
			if bb.Cnt < 0 {
				bb.Cnt = 0
			}

			if active == nil && l.introFirstSeg {
				bb.Off = 0
				bb.Mode = ModeHold
				bb.Cnt = cntAll - l.fadeCnt
				bb.Amp = 0xFFFFFFFF
				bb.Del = 0
				l.introFirstSeg = false
			}

			if active != nil {
				bb.Off = l.rng.randRanges(-1,
					clampSpec(0, active.Off-cntAll),
					clampSpec(active.Off+active.CntAll, l.datCnt-cntAll))
			}
			if bb.Off < 0 {
				bb.Off = l.rng.rand(0, l.datCnt-cntAll)
			}
			bb.Src = l.datBase + bb.Off
			continue
		}

		if aa.Chan == bb.Chan {
			// The reference planner treats this as an unrecoverable
			// internal inconsistency rather than something to patch
			// around; match that rather than silently continuing with
			// a broken channel assignment.
			panic("core: looper scheduler invariant violated: aa/bb on same channel")
		}
		if l.cntToEnd(aa) > l.cntToEnd(bb) {
			aa, bb = bb, aa
		}

		cc.Chan = aa.Chan
		cc.Cnt = l.cntToEnd(aa) - l.fadeCnt
		cc.Off = -1
		cc.Mode = ModeSilence
		cc.Amp = 0
		cc.Src = l.datBase

		end := l.cntToEnd(bb) - cc.Cnt
		cntAll := l.rng.randRanges(-1,
			outerSpec(l.seg0, l.seg1+1),
			clampSpec(l.seg0, end-l.fadeCnt),
			clampSpec(end+l.fadeCnt, l.seg1+1))
		if cntAll < 0 {
			if end-l.fadeCnt > l.fadeCnt*2 {
				cntAll = end - l.fadeCnt
			} else {
				cntAll = end + l.fadeCnt
			}
		}
		cc.CntAll = cntAll

		r0, r1 := aa.Off, aa.Off+aa.CntAll
		r2, r3 := bb.Off, bb.Off+bb.CntAll
		if r0 > r2 {
			r0, r2 = r2, r0
			r1, r3 = r3, r1
		}
		cc.Off = l.rng.randRanges(-1,
			clampSpec(0, r0-cntAll),
			clampSpec(r1, r2-cntAll),
			clampSpec(r3, l.datCnt-cntAll))
		if cc.Off < 0 {
			cc.Off = l.rng.rand(0, l.datCnt-cntAll)
		}
		cc.Src = l.datBase + cc.Off
	}
}

// segGain converts a stream's logical 32-bit amp ramp into an
// approximately equal-power gain: amp' = ~((~amp>>16)^2) >> 21.
func segGain(amp uint32) uint32 {
	a := (^amp) >> 16
	return (^(a * a)) >> 21
}

// MixFrame advances the looper by one output frame and returns its
// contribution (int16-range PCM; the mixer adds this into its own
// accumulator). It owns the intro passthrough and the 2/3-stream
// crossfade entirely; callers never touch Stream state directly.
func (l *Looper) MixFrame() (left, right int32) {
	if l.introCnt > 0 {
		off := l.introPos * 2
		if off >= 0 && off+1 < len(l.pcm) {
			left = int32(l.pcm[off])
			right = int32(l.pcm[off+1])
		}
		l.introPos++
		l.introCnt--
		if l.introCnt == 0 {
			l.schedule()
		}
		return left, right
	}

	resched := false
	for i := range l.streams {
		s := &l.streams[i]
		switch s.Mode {
		case ModeIdle:
			continue
		case ModeSilence:
			s.Cnt--
			if s.Cnt <= 0 {
				s.Mode = ModeFadeIn
				s.Cnt = l.fadeCnt
				s.Del = l.delAmp
			}
			continue
		}

		var sl, sr int32
		if s.Src >= 0 && s.Src < l.datCnt0 {
			sl = int32(l.pcm[s.Src*2])
			sr = int32(l.pcm[s.Src*2+1])
		}

		gain := int32(segGain(s.Amp))
		if s.Chan == 1 && l.ch2Swap {
			left += (sr * gain) >> 11
			right += (sl * gain) >> 11
		} else {
			left += (sl * gain) >> 11
			right += (sr * gain) >> 11
		}

		s.Amp = uint32(int32(s.Amp) + s.Del)
		s.Cnt--
		s.Src++

		if s.Cnt <= 0 {
			switch s.Mode {
			case ModeFadeIn:
				s.Mode = ModeHold
				s.Cnt = s.CntAll - 2*l.fadeCnt
				s.Del = 0
			case ModeHold:
				s.Mode = ModeFadeOut
				s.Cnt = l.fadeCnt
				s.Del = -l.delAmp
			case ModeFadeOut:
				s.Mode = ModeIdle
				resched = true
			}
		}
	}

	if resched {
		l.schedule()
	}
	return left, right
}
