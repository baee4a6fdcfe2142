// preprog.go - the drop/sigmoid/slide pre-programmed sequence generators.
// Each one synthesizes a textual sequence (name-defs plus time-lines, exactly
// the shape a hand-written file would take) and feeds it straight through
// Parser.Parse, then hands back the periods for the caller to compile with
// Scheduler.Compile. Grounded on original_source/sbagenx.c's
// create_drop/create_sigmoid/create_slide and their formatNameDef/
// formatTimeLine helpers, and on spec.md §4.5.

package core

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var dropBeatTargets = [12]float64{4.4, 3.7, 3.1, 2.5, 2.0, 1.5, 1.2, 0.9, 0.7, 0.5, 0.4, 0.3}

var dropSpecRE = regexp.MustCompile(`^(-?\d+(?:\.\d+)?)([A-La-l])(.*)$`)
var slideSpecRE = regexp.MustCompile(`^(` + fp + `)([+\-@M])(` + fp + `)/(` + fp + `)$`)

// PreProgResult is what a pre-programmed generator hands back: a ready-to-
// compile period list, an optional FuncCurve for slide-mode drop/sigmoid
// (nil otherwise), and any warnings it would otherwise have printed to
// stderr.
type PreProgResult struct {
	Periods   []UserPeriod
	FuncCurve *FuncCurve
	MonoPair  bool
	Warnings  []string
}

// parsePreProgTimeSpec consumes an optional leading "t<d>,<h>,<w>" token
// (all values in minutes), defaulting to 30/30/3 per bad_drop()'s usage
// text, and returns the remaining arguments.
func parsePreProgTimeSpec(args []string) (len0, len1, len2 int, rest []string, err error) {
	len0, len1, len2 = 1800, 1800, 180
	if len(args) == 0 {
		return 0, 0, 0, nil, fmt.Errorf("missing pre-programmed sequence spec")
	}
	if strings.HasPrefix(args[0], "t") {
		parts := strings.Split(args[0][1:], ",")
		if len(parts) != 3 {
			return 0, 0, 0, nil, fmt.Errorf("bad time-spec %q", args[0])
		}
		vals := make([]float64, 3)
		for i, s := range parts {
			v, perr := strconv.ParseFloat(s, 64)
			if perr != nil {
				return 0, 0, 0, nil, fmt.Errorf("bad time-spec %q", args[0])
			}
			vals[i] = v
		}
		len0 = 60 * int(vals[0])
		len1 = 60 * int(vals[1])
		len2 = 60 * int(vals[2])
		return len0, len1, len2, args[1:], nil
	}
	return len0, len1, len2, args, nil
}

// dropStyleFlags holds the flag letters shared by drop and sigmoid specs:
// [s|k][+][^][@|M][/amp], plus sigmoid's optional :l=/:h= shape parameters.
type dropStyleFlags struct {
	slide      bool
	steplen    int
	islong     bool
	wakeup     bool
	isochronic bool
	mono       bool
	amp        float64
	sigL       float64
	sigH       float64
}

// parseDropStyleFlags walks the flag tail one character at a time, mirroring
// create_drop/create_sigmoid's character-at-a-time while loop. allowSigmoid
// enables the ':l='/':h=' shape-parameter extension sigmoid specs carry.
func parseDropStyleFlags(p string, allowSigmoid bool) (dropStyleFlags, error) {
	f := dropStyleFlags{steplen: 180, amp: 1.0, sigL: 0.125, sigH: 0}
	haveStepMode := false

	readFloat := func(s string) (float64, int, error) {
		j := 0
		for j < len(s) && (isDigitByte(s[j]) || s[j] == '.' || s[j] == '-' || s[j] == '+') {
			j++
		}
		if j == 0 {
			return 0, 0, fmt.Errorf("expected a number")
		}
		v, err := strconv.ParseFloat(s[:j], 64)
		if err != nil {
			return 0, 0, fmt.Errorf("bad number %q", s[:j])
		}
		return v, j, nil
	}

	for len(p) > 0 {
		switch p[0] {
		case 's', 'k':
			if haveStepMode {
				return f, fmt.Errorf("duplicate step-mode flag")
			}
			haveStepMode = true
			if p[0] == 's' {
				f.slide = true
			}
			f.steplen = 60
			p = p[1:]
		case '+':
			f.islong = true
			p = p[1:]
		case '^':
			f.wakeup = true
			p = p[1:]
		case '@':
			f.isochronic = true
			p = p[1:]
		case 'M':
			f.mono = true
			p = p[1:]
		case '/':
			v, n, err := readFloat(p[1:])
			if err != nil {
				return f, fmt.Errorf("bad amplitude after '/'")
			}
			f.amp = v
			p = p[1+n:]
		case ':':
			if !allowSigmoid {
				return f, fmt.Errorf("unexpected ':' in spec")
			}
			rest := p[1:]
			switch {
			case strings.HasPrefix(rest, "l="):
				v, n, err := readFloat(rest[2:])
				if err != nil {
					return f, fmt.Errorf("bad l= value")
				}
				f.sigL = v
				p = rest[2+n:]
			case strings.HasPrefix(rest, "h="):
				v, n, err := readFloat(rest[2:])
				if err != nil {
					return f, fmt.Errorf("bad h= value")
				}
				f.sigH = v
				p = rest[2+n:]
			default:
				return f, fmt.Errorf("unknown ':' option in spec")
			}
		default:
			return f, fmt.Errorf("trailing rubbish in spec: %q", p)
		}
	}
	if f.mono && f.isochronic {
		return f, fmt.Errorf("M monaural mode cannot be combined with '@' isochronic spec")
	}
	return f, nil
}

// dropGeometry is the carrier/timing layout shared by drop and sigmoid,
// derived from create_drop's "Sort out carriers" block.
type dropGeometry struct {
	nStep            int
	len0, len1, len2 int
	totalLen         int
	c0, c2           float64
}

func computeDropGeometry(carr float64, flags dropStyleFlags, len0, len1, len2 int) dropGeometry {
	nStep := 1 + (len0-1)/flags.steplen
	if nStep < 2 {
		nStep = 2
	}
	len0 = nStep * flags.steplen
	if !flags.slide {
		len1 = (1 + (len1-1)/flags.steplen) * flags.steplen
	}
	totalLen := len0
	if flags.islong {
		totalLen = len0 + len1
	}
	c0 := carr + 5.0
	c2 := carr
	if flags.islong {
		c2 = carr - (5.0*float64(len1))/float64(len0)
	}
	return dropGeometry{nStep: nStep, len0: len0, len1: len1, len2: len2, totalLen: totalLen, c0: c0, c2: c2}
}

// fmtClock renders whole seconds since midnight as HH:MM:SS, per
// formatTimeLine's sprintf("%02d:%02d:%02d ", tim/3600, tim/60%60, tim%60).
func fmtClock(tim int) string {
	if tim < 0 {
		tim = 0
	}
	return fmt.Sprintf("%02d:%02d:%02d", tim/3600, tim/60%60, tim%60)
}

// emitPreProgSequence builds the off/ts.../off line sequence shared by drop
// and sigmoid, in either continuous-slide or stepped form, plus an optional
// trailing wake-up ramp. beat holds one target per step (len(beat)==nStep).
func emitPreProgSequence(beat []float64, nStep int, flags dropStyleFlags, c0, c2 float64, len0, len2, totalLen int, signal byte, extra string) ([]string, int) {
	var lines []string
	lines = append(lines, "off: -")
	lines = append(lines, fmtClock(86395)+" == off ->")

	appendTone := func(name string, carrT, beatT float64) {
		if flags.mono {
			lines = append(lines, fmt.Sprintf("%s: %g/%g %g/%g%s", name,
				carrT-beatT/2, flags.amp, carrT+beatT/2, flags.amp, extra))
		} else {
			lines = append(lines, fmt.Sprintf("%s: %g%c%g/%g%s", name,
				carrT, signal, beatT, flags.amp, extra))
		}
	}

	var end int
	if flags.slide {
		for i := 0; i < nStep; i++ {
			tim := i * len0 / (nStep - 1)
			carrT := c0 + (c2-c0)*float64(tim)/float64(totalLen)
			name := fmt.Sprintf("ts%02d", i)
			appendTone(name, carrT, beat[i])
			lines = append(lines, fmt.Sprintf("%s == %s ->", fmtClock(tim), name))
		}
		if flags.islong {
			appendTone("tsend", c2, beat[nStep-1])
			lines = append(lines, fmt.Sprintf("%s == tsend ->", fmtClock(totalLen)))
		}
		end = totalLen
	} else {
		stepSlide := 10
		if flags.steplen < 90 {
			stepSlide = 5
		}
		lim := totalLen / flags.steplen
		for i := 0; i < lim; i++ {
			tim0 := i * flags.steplen
			tim1 := (i + 1) * flags.steplen
			carrT := c0 + (c2-c0)*float64(tim1)/float64(totalLen)
			bi := i
			if bi >= nStep {
				bi = nStep - 1
			}
			name := fmt.Sprintf("ts%02d", i)
			appendTone(name, carrT, beat[bi])
			lines = append(lines, fmt.Sprintf("%s == %s ->", fmtClock(tim0), name))
			lines = append(lines, fmt.Sprintf("%s == %s ->", fmtClock(tim1-stepSlide), name))
		}
		end = totalLen - stepSlide
	}

	if flags.wakeup {
		appendTone("tswake", c0, beat[0])
		lines = append(lines, fmt.Sprintf("%s == tswake ->", fmtClock(end+len2)))
		end += len2
	}
	lines = append(lines, fmt.Sprintf("%s == off", fmtClock(end+10)))
	return lines, end
}

// parsePreProgLines feeds a generated sequence back through the ordinary
// sequence-file grammar, exactly as formatNameDef/formatTimeLine route
// through readNameDef2/readTimeLine2 in the reference.
func parsePreProgLines(tables *WaveTables, lines []string) ([]UserPeriod, []string, error) {
	p := NewParser(tables, 0)
	periods, err := p.Parse(strings.Join(lines, "\n"))
	if err != nil {
		return nil, nil, err
	}
	return periods, p.Warnings(), nil
}

// parseLevelSpec splits a drop/sigmoid spec token into its signed-level
// prefix, its a..l beat-target letter, and the remaining flag tail.
func parseLevelSpec(specTok string) (carr float64, beatTarget float64, tail string, err error) {
	m := dropSpecRE.FindStringSubmatch(specTok)
	if m == nil {
		return 0, 0, "", fmt.Errorf("bad spec %q", specTok)
	}
	level, _ := strconv.ParseFloat(m[1], 64)
	carr = 200 - 2*level
	if carr < 0 {
		return 0, 0, "", fmt.Errorf("negative carrier in spec %q", specTok)
	}
	idx := int(m[2][0]|0x20) - 'a'
	if idx < 0 || idx >= len(dropBeatTargets) {
		return 0, 0, "", fmt.Errorf("level letter out of range in spec %q", specTok)
	}
	return carr, dropBeatTargets[idx], m[3], nil
}

// GenerateDrop implements "-p drop [<time-spec>] <drop-spec> [<tone-specs...>]"
// per spec.md §4.5 and original_source/sbagenx.c's create_drop.
func GenerateDrop(tables *WaveTables, args []string) (*PreProgResult, error) {
	len0, len1, len2, rest, err := parsePreProgTimeSpec(args)
	if err != nil {
		return nil, &ConfigError{Msg: err.Error()}
	}
	if len(rest) == 0 {
		return nil, &ConfigError{Msg: "bad drop spec: missing <drop-spec>"}
	}
	specTok, toneSpecs := rest[0], rest[1:]

	carr, beatTarget, tail, perr := parseLevelSpec(specTok)
	if perr != nil {
		return nil, &ConfigError{Msg: "bad drop spec: " + perr.Error()}
	}
	flags, ferr := parseDropStyleFlags(tail, false)
	if ferr != nil {
		return nil, &ConfigError{Msg: fmt.Sprintf("bad drop spec: %v", ferr)}
	}

	geo := computeDropGeometry(carr, flags, len0, len1, len2)

	beat := make([]float64, geo.nStep)
	for i := range beat {
		beat[i] = 10 * math.Exp(math.Log(beatTarget/10)*float64(i)/float64(geo.nStep-1))
	}

	extra := ""
	if len(toneSpecs) > 0 {
		extra = " " + strings.Join(toneSpecs, " ")
	}
	signal := byte('+')
	if flags.isochronic {
		signal = '@'
	}

	lines, _ := emitPreProgSequence(beat, geo.nStep, flags, geo.c0, geo.c2, geo.len0, geo.len2, geo.totalLen, signal, extra)

	periods, warnings, perr2 := parsePreProgLines(tables, lines)
	if perr2 != nil {
		return nil, perr2
	}

	res := &PreProgResult{Periods: periods, Warnings: warnings}

	if flags.slide {
		fc := NewExponentialFuncCurve(0, 0, geo.c0, geo.c2, float64(geo.totalLen), beat[0], beat[geo.nStep-1], float64(geo.len0))
		fc.KindMask = KindBinaural
		if flags.isochronic {
			fc.KindMask = KindIsochronic
		}
		fc.Paired = flags.mono
		res.FuncCurve = fc
		res.MonoPair = flags.mono
		res.Warnings = append(res.Warnings, "using function-driven curve for sliding drop")
	}
	return res, nil
}

// GenerateSigmoid implements "-p sigmoid [<time-spec>] <sigmoid-spec> [<tone-specs...>]"
// per spec.md §4.5 and original_source/sbagenx.c's create_sigmoid.
func GenerateSigmoid(tables *WaveTables, args []string) (*PreProgResult, error) {
	len0, len1, len2, rest, err := parsePreProgTimeSpec(args)
	if err != nil {
		return nil, &ConfigError{Msg: err.Error()}
	}
	if len(rest) == 0 {
		return nil, &ConfigError{Msg: "bad sigmoid spec: missing <sigmoid-spec>"}
	}
	specTok, toneSpecs := rest[0], rest[1:]

	carr, beatTarget, tail, perr := parseLevelSpec(specTok)
	if perr != nil {
		return nil, &ConfigError{Msg: "bad sigmoid spec: " + perr.Error()}
	}
	flags, ferr := parseDropStyleFlags(tail, true)
	if ferr != nil {
		return nil, &ConfigError{Msg: fmt.Sprintf("bad sigmoid spec: %v", ferr)}
	}
	if len0 < 60 {
		return nil, &ConfigError{Msg: "sigmoid drop-time must be at least 1 minute"}
	}

	const beatStart = 10.0
	geo := computeDropGeometry(carr, flags, len0, len1, len2)
	dMin := float64(geo.len0) / 60

	u0 := math.Tanh(flags.sigL * (0 - dMin/2 - flags.sigH))
	u1 := math.Tanh(flags.sigL * (dMin - dMin/2 - flags.sigH))
	den := u1 - u0
	if math.Abs(den) < 1e-9 {
		return nil, &ConfigError{Msg: "sigmoid parameters produce an invalid curve (try different l/h values)"}
	}
	sigA := (beatTarget - beatStart) / den
	sigB := beatStart - sigA*u0

	beat := make([]float64, geo.nStep)
	for i := range beat {
		tim := float64(i) * float64(geo.len0) / float64(geo.nStep-1)
		tMin := tim / 60
		if tMin >= dMin {
			beat[i] = beatTarget
		} else {
			beat[i] = sigA*math.Tanh(flags.sigL*(tMin-dMin/2-flags.sigH)) + sigB
		}
	}

	extra := ""
	if len(toneSpecs) > 0 {
		extra = " " + strings.Join(toneSpecs, " ")
	}
	signal := byte('+')
	if flags.isochronic {
		signal = '@'
	}

	lines, _ := emitPreProgSequence(beat, geo.nStep, flags, geo.c0, geo.c2, geo.len0, geo.len2, geo.totalLen, signal, extra)

	periods, warnings, perr2 := parsePreProgLines(tables, lines)
	if perr2 != nil {
		return nil, perr2
	}

	res := &PreProgResult{Periods: periods, Warnings: warnings}

	if flags.slide {
		kindMask := VoiceKind(KindBinaural)
		if flags.isochronic {
			kindMask = KindIsochronic
		}
		fc, cerr := NewSigmoidFuncCurve(0, 0, geo.c0, geo.c2, float64(geo.totalLen), beatStart, beatTarget, float64(geo.len0), flags.sigL, flags.sigH)
		if cerr != nil {
			return nil, cerr
		}
		fc.KindMask = kindMask
		fc.Paired = flags.mono
		res.FuncCurve = fc
		res.MonoPair = flags.mono
		res.Warnings = append(res.Warnings, "using function-driven curve for sliding sigmoid")
	}
	return res, nil
}

// GenerateSlide implements "-p slide [<time-spec>] <carr><sign><beat>/<amp> [<tone-specs...>]"
// per spec.md §4.5 and original_source/sbagenx.c's create_slide. Unlike
// drop/sigmoid, the reference never registers a FuncCurve here: the
// ordinary slide-fade interpolation already in the period compiler is
// enough to hold the beat constant while the carrier moves.
func GenerateSlide(tables *WaveTables, args []string) (*PreProgResult, error) {
	lenSec := 1800
	rest := args
	if len(args) > 0 && strings.HasPrefix(args[0], "t") {
		v, err := strconv.ParseFloat(args[0][1:], 64)
		if err != nil {
			return nil, &ConfigError{Msg: fmt.Sprintf("bad slide time-spec %q", args[0])}
		}
		lenSec = int(60 * v)
		rest = args[1:]
	}
	if len(rest) == 0 {
		return nil, &ConfigError{Msg: "bad slide spec: missing <slide-spec>"}
	}
	specTok, toneSpecs := rest[0], rest[1:]

	m := slideSpecRE.FindStringSubmatch(specTok)
	if m == nil {
		return nil, &ConfigError{Msg: fmt.Sprintf("bad slide spec %q", specTok)}
	}
	c0, _ := strconv.ParseFloat(m[1], 64)
	signal := m[2][0]
	beat, _ := strconv.ParseFloat(m[3], 64)
	amp, _ := strconv.ParseFloat(m[4], 64)

	mono := signal == 'M'
	beatAbs := math.Abs(beat)
	c1 := beat / 2

	extra := ""
	if len(toneSpecs) > 0 {
		extra = " " + strings.Join(toneSpecs, " ")
	}

	toneLine := func(name string, carr float64) string {
		if mono {
			return fmt.Sprintf("%s: %g/%g %g/%g%s", name, carr-beatAbs/2, amp, carr+beatAbs/2, amp, extra)
		}
		return fmt.Sprintf("%s: %g%c%g/%g%s", name, carr, signal, beat, amp, extra)
	}

	lines := []string{
		"off: -",
		fmtClock(86395) + " == off ->",
		toneLine("ts0", c0),
		fmtClock(0) + " == ts0 ->",
		toneLine("ts1", c1),
		fmt.Sprintf("%s == ts1 ->", fmtClock(lenSec)),
		fmt.Sprintf("%s == off", fmtClock(lenSec+10)),
	}

	periods, warnings, perr := parsePreProgLines(tables, lines)
	if perr != nil {
		return nil, perr
	}
	return &PreProgResult{Periods: periods, Warnings: warnings}, nil
}
