// parser.go - the sequence-file grammar: name-defs (tone-sets, blocks, and
// waveNN: custom wavetable imports), time-lines with fade codes, and the
// "->" slide-transition marker. Grounded directly on
// original_source/sbagenx.c's readNameDef/readTimeLine/readTime/
// normalizeAmplitude/checkMixInSequence, reworked from its chained-sscanf
// dispatch into a table-driven one.

package core

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// fp matches one floating-point literal, the Go equivalent of sscanf's %lf.
const fp = `[+-]?(?:\d+\.?\d*|\.\d+)`

// nameDef is either a tone-set (a resolved [NumChannels]Voice) or a block
// (a list of raw "+<time> ..." lines replayed with the invoking line's time
// token prepended), matching NameDef/BlockDef.
type nameDef struct {
	isBlock bool
	block   []string
	voices  [NumChannels]Voice
}

// Parser turns sequence-file text into a flat, time-ordered list of
// UserPeriods ready for Scheduler.Compile. It is not reentrant across
// files by design: construct one Parser per sequence load, the way the
// reference's global readSeq() state is scoped to one invocation.
type Parser struct {
	tables *WaveTables

	defaultWave int  // opt_w: waveform used by tokens with no sine:/square:/... prefix
	normalize   bool // opt_N: auto-normalize amplitudes over 100%
	quiet       bool // opt_Q: suppress warnings

	now             int // NOW's value, resolved once before parsing begins
	lastAbsTime     int // most recent absolute time resolved, -1 if none yet
	fastTim0        int // first period's time, -1 if none seen yet
	fastTim1        int // most recent period's time

	names    map[string]*nameDef
	periods  []UserPeriod
	warnings []string
}

// NewParser returns a Parser with amplitude normalization enabled (the
// reference's default) and nowMs as the value NOW resolves to.
func NewParser(tables *WaveTables, nowMs int) *Parser {
	return &Parser{
		tables:      tables,
		normalize:   true,
		now:         nowMs,
		lastAbsTime: -1,
		fastTim0:    -1,
		fastTim1:    -1,
		names:       map[string]*nameDef{},
	}
}

// SetDefaultWaveform overrides opt_w (WaveSine..WaveSawtooth).
func (p *Parser) SetDefaultWaveform(w int) { p.defaultWave = w }

// SetNormalize toggles automatic over-100%-amplitude normalization.
func (p *Parser) SetNormalize(v bool) { p.normalize = v }

// SetQuiet suppresses warning collection.
func (p *Parser) SetQuiet(v bool) { p.quiet = v }

// Warnings returns the non-fatal messages accumulated while parsing (the
// reference's warn() calls), in order.
func (p *Parser) Warnings() []string { return p.warnings }

// SequenceSpan returns [first period time, last period time seen], the
// fast_tim0/fast_tim1 pair used for "sequence duration" reporting.
func (p *Parser) SequenceSpan() (first, last int) { return p.fastTim0, p.fastTim1 }

// Parse consumes a complete sequence-file document and returns its
// periods in declaration order, ready for Scheduler.Compile. Leading "-"
// option lines are accepted (and mostly ignored; the CLI layer owns
// global option parsing) as long as they precede the first name-def or
// time-line, mirroring readSeq's "options only at start of file" rule.
func (p *Parser) Parse(text string) ([]UserPeriod, error) {
	dl := newDocLines(text)
	atStart := true

	for {
		line, lineNum, ok := dl.next()
		if !ok {
			break
		}

		if strings.HasPrefix(line, "-") {
			if !atStart {
				return nil, &ConfigError{Msg: fmt.Sprintf("options are only permitted at start of sequence file, line %d", lineNum)}
			}
			p.handleOptionLine(line)
			continue
		}
		atStart = false

		if isNameDefHead(line) {
			if err := p.readNameDef(dl, line, lineNum); err != nil {
				return nil, err
			}
			continue
		}

		if err := p.readTimeLine(line, lineNum); err != nil {
			return nil, err
		}
	}

	if len(p.periods) == 0 {
		return nil, &ConfigError{Msg: "sequence file defines no periods"}
	}
	return p.periods, nil
}

// docLines is a comment-stripped, blank-skipped view over a sequence
// file's physical lines, preserving original line numbers for error
// messages. Grounded on readLine()'s "## echoed to stderr, blank lines
// and trailing comments discarded" behavior.
type docLines struct {
	raw  []string
	nums []int
	i    int
}

func newDocLines(text string) *docLines {
	dl := &docLines{}
	for n, raw := range strings.Split(text, "\n") {
		line := raw
		if idx := strings.IndexByte(line, '#'); idx >= 0 {
			line = line[:idx]
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		dl.raw = append(dl.raw, line)
		dl.nums = append(dl.nums, n+1)
	}
	return dl
}

func (dl *docLines) next() (line string, lineNum int, ok bool) {
	if dl.i >= len(dl.raw) {
		return "", 0, false
	}
	line, lineNum = dl.raw[dl.i], dl.nums[dl.i]
	dl.i++
	return line, lineNum, true
}

// isNameDefHead reports whether line opens with "<name>:" followed by
// whitespace, mirroring readSeq's inline lookahead ahead of the
// readNameDef/readTimeLine dispatch.
func isNameDefHead(line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}
	head := fields[0]
	if len(head) < 2 || head[len(head)-1] != ':' {
		return false
	}
	name := head[:len(head)-1]
	if name == "" || !isAlpha(name[0]) {
		return false
	}
	for i := 1; i < len(name); i++ {
		c := name[i]
		if !isAlnum(c) && c != '_' && c != '-' {
			return false
		}
	}
	return true
}

func isAlpha(c byte) bool { return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' }
func isDigitByte(c byte) bool { return c >= '0' && c <= '9' }
func isAlnum(c byte) bool     { return isAlpha(c) || isDigitByte(c) }

// handleOptionLine applies the small subset of in-sequence-file options
// that affect parsing itself (default waveform, amplitude normalization,
// warning verbosity). Every other option is accepted and ignored: the
// full CLI surface lives in cmd/sbagenx, and a sequence file that
// repeats it here should not fail to load.
func (p *Parser) handleOptionLine(line string) {
	fields := strings.Fields(line)
	for i := 0; i < len(fields); i++ {
		switch fields[i] {
		case "-Q":
			p.quiet = true
		case "-N":
			p.normalize = false
		case "-w":
			if i+1 < len(fields) {
				i++
				switch fields[i] {
				case "sine":
					p.defaultWave = WaveSine
				case "square":
					p.defaultWave = WaveSquare
				case "triangle":
					p.defaultWave = WaveTriangle
				case "sawtooth":
					p.defaultWave = WaveSawtooth
				}
			}
		}
	}
}

// readNameDef parses one name-def: a waveNN: waveform import, a block
// definition (consuming further lines from dl until a bare "}"), or a
// normal tone-set. Grounded on readNameDef().
func (p *Parser) readNameDef(dl *docLines, line string, lineNum int) error {
	fields := strings.Fields(line)
	head := fields[0]
	name := head[:len(head)-1]

	for i := 0; i < len(name); i++ {
		c := name[i]
		if !isAlnum(c) && c != '-' && c != '_' {
			return &ConfigError{Msg: fmt.Sprintf("bad name %q in definition, line %d", name, lineNum)}
		}
	}

	if idx, ok := waveDefIndex(name); ok {
		return p.readWaveDef(idx, fields[1:], lineNum, line)
	}

	nd := &nameDef{}

	if len(fields) >= 2 && fields[1] == "{" {
		if len(fields) != 2 {
			return p.badSeq(lineNum, line)
		}
		for {
			bline, blineNum, ok := dl.next()
			if !ok {
				return &FormatError{Line: lineNum, Msg: "end-of-file within block definition (missing '}')"}
			}
			if bline == "}" {
				if len(nd.block) == 0 {
					return &FormatError{Line: blineNum, Msg: "empty blocks not permitted"}
				}
				nd.isBlock = true
				p.names[name] = nd
				return nil
			}
			if !strings.HasPrefix(bline, "+") {
				return &FormatError{Line: blineNum, Msg: "all lines in the block must have relative time"}
			}
			nd.block = append(nd.block, bline)
		}
	}

	voices, err := p.parseVoices(fields[1:], lineNum, line)
	if err != nil {
		return err
	}
	nd.voices = voices
	p.normalizeAmplitude(&nd.voices, lineNum, line)
	p.names[name] = nd
	return nil
}

// waveDefIndex reports whether name is "waveNN" and, if so, its index.
func waveDefIndex(name string) (int, bool) {
	if len(name) != 6 || !strings.HasPrefix(name, "wave") {
		return 0, false
	}
	if !isDigitByte(name[4]) || !isDigitByte(name[5]) {
		return 0, false
	}
	return int(name[4]-'0')*10 + int(name[5]-'0'), true
}

// readWaveDef imports a custom wavetable from its sample list.
func (p *Parser) readWaveDef(idx int, sampleTokens []string, lineNum int, line string) error {
	if p.tables.UserTable(idx) != nil {
		return &ConfigError{Msg: fmt.Sprintf("waveform %02d already defined, line %d", idx, lineNum)}
	}
	samples := make([]float64, 0, len(sampleTokens))
	for _, tok := range sampleTokens {
		v, err := strconv.ParseFloat(tok, 64)
		if err != nil {
			return &FormatError{Line: lineNum, Msg: "expecting floating-point numbers on this waveform definition line"}
		}
		samples = append(samples, v)
	}
	if len(samples) < 2 {
		return &FormatError{Line: lineNum, Msg: "expecting at least two samples in the waveform"}
	}
	return p.tables.DefineUserWave(idx, samples)
}

// normalizeAmplitude rescales a tone-set's amplitudes down to fit 100%
// total when opt_N is set, or warns when it is not, per
// normalizeAmplitude(). mixspin/mixpulse are excluded from the total (and
// individually bounds-checked), matching the reference.
func (p *Parser) normalizeAmplitude(voices *[NumChannels]Voice, lineNum int, line string) {
	for _, v := range voices {
		if v.Kind == KindMixSpin || v.Kind == KindMixPulse {
			if pct := v.Amp / 40.96; pct > 100.0 && !p.quiet {
				p.warn(fmt.Sprintf("total intensity of mixspin/mixpulse exceeds 100%% (%.2f%%) at line %d", pct, lineNum))
			}
		}
	}

	total := 0.0
	for _, v := range voices {
		if v.Kind != KindOff && v.Kind != KindMixSpin && v.Kind != KindMixPulse {
			total += v.Amp / 40.96
		}
	}
	if total <= 100.0 {
		return
	}

	if p.normalize {
		factor := 100.0 / total
		if !p.quiet {
			p.warn(fmt.Sprintf("total amplitude %.2f%% exceeds 100%% at line %d, auto-normalizing by factor %.3f", total, lineNum, factor))
		}
		for i := range voices {
			if voices[i].Kind != KindOff && voices[i].Kind != KindMixSpin && voices[i].Kind != KindMixPulse {
				voices[i].Amp *= factor
			}
		}
		return
	}
	if !p.quiet {
		p.warn(fmt.Sprintf("total amplitude %.2f%% exceeds 100%% at line %d, distortion may occur", total, lineNum))
	}
}

func (p *Parser) warn(msg string) { p.warnings = append(p.warnings, msg) }

// readTimeLine parses one "<time> [<fadecode>] <name> [->]" line, emitting
// a UserPeriod (or replaying a block name-def's lines with this line's
// time token prepended). Grounded on readTimeLine().
func (p *Parser) readTimeLine(line string, lineNum int) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return p.badSeq(lineNum, line)
	}

	timeTok := fields[0]
	tim, err := p.parseTimeToken(timeTok, lineNum)
	if err != nil {
		return err
	}
	if p.fastTim0 < 0 {
		p.fastTim0 = tim
	}
	p.fastTim1 = tim

	rest := fields[1:]
	if len(rest) == 0 {
		return p.badSeq(lineNum, line)
	}

	fi, fo := FadeThrough, FadeThrough
	idx := 0
	if tok := rest[0]; len(tok) > 0 && !isAlpha(tok[0]) {
		if len(tok) != 2 {
			return p.badSeq(lineNum, line)
		}
		switch tok[0] {
		case '<':
			fi = FadeToSilence
		case '-':
			fi = FadeThrough
		case '=':
			fi = FadeSlide
		default:
			return p.badSeq(lineNum, line)
		}
		switch tok[1] {
		case '>':
			fo = FadeToSilence
		case '-':
			fo = FadeThrough
		case '=':
			fo = FadeSlide
		default:
			return p.badSeq(lineNum, line)
		}
		idx = 1
	}

	if idx >= len(rest) {
		return p.badSeq(lineNum, line)
	}
	name := rest[idx]
	idx++

	nd, found := p.names[name]
	if !found {
		return &ConfigError{Msg: fmt.Sprintf("name %q not defined, line %d", name, lineNum)}
	}

	if nd.isBlock {
		for _, bl := range nd.block {
			if err := p.readTimeLine(timeTok+bl, lineNum); err != nil {
				return err
			}
		}
		return nil
	}

	up := UserPeriod{Time: tim, Voices: nd.voices, FadeIn: fi, FadeOut: fo}

	if idx < len(rest) {
		if idx != len(rest)-1 || rest[idx] != "->" {
			return p.badSeq(lineNum, line)
		}
		up.ArrowNext = true
	}

	p.periods = append(p.periods, up)
	return nil
}

// parseTimeToken resolves a full time expression (NOW, an absolute
// HH:MM[:SS], or a chain of "+HH:MM[:SS]" relative offsets) into
// milliseconds since midnight. Grounded on readTimeLine's time-reading
// loop and readTime().
func (p *Parser) parseTimeToken(tok string, lineNum int) (int, error) {
	tim := -1
	s := tok
	if strings.HasPrefix(s, "NOW") {
		p.lastAbsTime = p.now
		tim = p.now
		s = s[3:]
	}

	for len(s) > 0 {
		if s[0] == '+' {
			if tim < 0 {
				if p.lastAbsTime < 0 {
					return 0, &ConfigError{Msg: fmt.Sprintf("relative time without previous absolute time, line %d", lineNum)}
				}
				tim = p.lastAbsTime
			}
			s = s[1:]
		} else if tim != -1 {
			return 0, p.badTime(lineNum, tok)
		}

		rtim, n, ok := readClockField(s)
		if !ok {
			return 0, p.badTime(lineNum, tok)
		}
		s = s[n:]

		if tim == -1 {
			tim = rtim
			p.lastAbsTime = tim
		} else {
			tim = (tim + rtim) % H24
		}
	}

	if tim < 0 {
		return 0, p.badTime(lineNum, tok)
	}
	return tim, nil
}

// readClockField reads one HH:MM[:SS] field from the front of s, in the
// loose sscanf("%2d:%2d:%2d") / sscanf("%2d:%2d") sense: each component is
// at most two digits, seconds default to zero when absent. Returns the
// time-of-day in milliseconds, chars consumed, and whether it parsed.
func readClockField(s string) (ms, consumed int, ok bool) {
	hh, n1, ok1 := readDigits(s, 2)
	if !ok1 {
		return 0, 0, false
	}
	rest := s[n1:]
	if len(rest) == 0 || rest[0] != ':' {
		return 0, 0, false
	}
	rest = rest[1:]

	mm, n2, ok2 := readDigits(rest, 2)
	if !ok2 {
		return 0, 0, false
	}
	consumed = n1 + 1 + n2
	rest = rest[n2:]

	ss := 0
	if len(rest) > 0 && rest[0] == ':' {
		if ssv, n3, ok3 := readDigits(rest[1:], 2); ok3 {
			ss = ssv
			consumed += 1 + n3
		}
	}

	if hh < 0 || hh >= 24 || mm < 0 || mm >= 60 || ss < 0 || ss >= 60 {
		return 0, 0, false
	}
	return ((hh*60+mm)*60 + ss) * 1000, consumed, true
}

func readDigits(s string, max int) (val, n int, ok bool) {
	for n < max && n < len(s) && isDigitByte(s[n]) {
		val = val*10 + int(s[n]-'0')
		n++
	}
	return val, n, n > 0
}

func (p *Parser) badSeq(lineNum int, line string) error {
	return &FormatError{Line: lineNum, Msg: fmt.Sprintf("bad sequence file content: %q", line)}
}

func (p *Parser) badTime(lineNum int, tok string) error {
	return &FormatError{Line: lineNum, Msg: fmt.Sprintf("bad time specification %q", tok)}
}

// --- voice-spec token grammar -----------------------------------------
//
// Grounded on readNameDef's chained sscanf dispatch: tried in the same
// order, first match wins, and a token matching no rule is badSeq(). The
// reference's "try sscanf, fall through on mismatch" control flow becomes
// an ordered table of anchored regexps; waveform-prefixed variants
// (sine:/square:/triangle:/sawtooth:) are generated from one pattern
// instead of being hand-duplicated four times each.

type voiceRule struct {
	re    *regexp.Regexp
	mix   bool // requires a mix/<amp> token elsewhere on the line
	build func(m []string) (Voice, error)
}

func mustRule(pattern string, mix bool, build func(m []string) (Voice, error)) voiceRule {
	return voiceRule{re: regexp.MustCompile("^" + pattern + "$"), mix: mix, build: build}
}

func plainRule(pattern string, mix bool, build func(m []string) Voice) voiceRule {
	return mustRule(pattern, mix, func(m []string) (Voice, error) { return build(m), nil })
}

// wavePrefixed expands pattern (with a %s placeholder for the literal
// in-between the waveform prefix and the numeric tail, e.g. "spin:") into
// the four sine:/square:/triangle:/sawtooth: variants, each forcing its
// named waveform instead of the default.
func wavePrefixed(literal, tail string, mix bool, build func(wave int, m []string) Voice) []voiceRule {
	variants := []struct {
		prefix string
		wave   int
	}{
		{"sine:", WaveSine},
		{"square:", WaveSquare},
		{"triangle:", WaveTriangle},
		{"sawtooth:", WaveSawtooth},
	}
	rules := make([]voiceRule, 0, 4)
	for _, v := range variants {
		wave := v.wave
		rules = append(rules, plainRule(v.prefix+literal+tail, mix, func(m []string) Voice {
			return build(wave, m)
		}))
	}
	return rules
}

func f(m []string, i int) float64 { v, _ := strconv.ParseFloat(m[i], 64); return v }
func amp(m []string, i int) float64 { return 40.96 * f(m, i) }

func (p *Parser) voiceRules() []voiceRule {
	var rules []voiceRule

	rules = append(rules,
		plainRule(`pink/(`+fp+`)`, false, func(m []string) Voice {
			return Voice{Kind: KindPink, Waveform: p.defaultWave, Amp: amp(m, 1)}
		}),
		plainRule(`white/(`+fp+`)`, false, func(m []string) Voice {
			return Voice{Kind: KindWhite, Waveform: p.defaultWave, Amp: amp(m, 1)}
		}),
		plainRule(`brown/(`+fp+`)`, false, func(m []string) Voice {
			return Voice{Kind: KindBrown, Waveform: p.defaultWave, Amp: amp(m, 1)}
		}),
		plainRule(`bell(`+fp+`)/(`+fp+`)`, false, func(m []string) Voice {
			return Voice{Kind: KindBell, Waveform: p.defaultWave, Carr: f(m, 1), Amp: amp(m, 2)}
		}),
	)
	rules = append(rules, wavePrefixed("bell", `(`+fp+`)/(`+fp+`)`, false, func(wave int, m []string) Voice {
		return Voice{Kind: KindBell, Waveform: wave, Carr: f(m, 1), Amp: amp(m, 2)}
	})...)

	rules = append(rules,
		plainRule(`mix/(`+fp+`)`, false, func(m []string) Voice {
			return Voice{Kind: KindMix, Amp: amp(m, 1)}
		}),
		mustRule(`wave(\d+):(`+fp+`)(`+fp+`)/(`+fp+`)`, false, func(m []string) (Voice, error) {
			idx, _ := strconv.Atoi(m[1])
			if p.tables.UserTable(idx) == nil {
				return Voice{}, &ConfigError{Msg: fmt.Sprintf("waveform %02d has not been defined", idx)}
			}
			return Voice{Kind: VoiceKind(-1 - idx), Carr: f(m, 2), Res: f(m, 3), Amp: amp(m, 4)}, nil
		}),
	)

	rules = append(rules, wavePrefixed("", `(`+fp+`)@(`+fp+`)/(`+fp+`)`, false, func(wave int, m []string) Voice {
		return Voice{Kind: KindIsochronic, Waveform: wave, Carr: f(m, 1), Res: f(m, 2), Amp: amp(m, 3)}
	})...)
	rules = append(rules, plainRule(`(`+fp+`)@(`+fp+`)/(`+fp+`)`, false, func(m []string) Voice {
		return Voice{Kind: KindIsochronic, Waveform: p.defaultWave, Carr: f(m, 1), Res: f(m, 2), Amp: amp(m, 3)}
	}))

	rules = append(rules, wavePrefixed("", `(`+fp+`)(`+fp+`)/(`+fp+`)`, false, func(wave int, m []string) Voice {
		return Voice{Kind: KindBinaural, Waveform: wave, Carr: f(m, 1), Res: f(m, 2), Amp: amp(m, 3)}
	})...)
	rules = append(rules, plainRule(`(`+fp+`)(`+fp+`)/(`+fp+`)`, false, func(m []string) Voice {
		return Voice{Kind: KindBinaural, Waveform: p.defaultWave, Carr: f(m, 1), Res: f(m, 2), Amp: amp(m, 3)}
	}))

	rules = append(rules, wavePrefixed("", `(`+fp+`)/(`+fp+`)`, false, func(wave int, m []string) Voice {
		return Voice{Kind: KindBinaural, Waveform: wave, Carr: f(m, 1), Res: 0, Amp: amp(m, 2)}
	})...)
	rules = append(rules, plainRule(`(`+fp+`)/(`+fp+`)`, false, func(m []string) Voice {
		return Voice{Kind: KindBinaural, Waveform: p.defaultWave, Carr: f(m, 1), Res: 0, Amp: amp(m, 2)}
	}))

	rules = append(rules, wavePrefixed("spin:", `(`+fp+`)(`+fp+`)/(`+fp+`)`, false, func(wave int, m []string) Voice {
		return Voice{Kind: KindSpin, Waveform: wave, Carr: f(m, 1), Res: f(m, 2), Amp: amp(m, 3)}
	})...)
	rules = append(rules, plainRule(`spin:(`+fp+`)(`+fp+`)/(`+fp+`)`, false, func(m []string) Voice {
		return Voice{Kind: KindSpin, Waveform: p.defaultWave, Carr: f(m, 1), Res: f(m, 2), Amp: amp(m, 3)}
	}))

	rules = append(rules, wavePrefixed("mixspin:", `(`+fp+`)(`+fp+`)/(`+fp+`)`, true, func(wave int, m []string) Voice {
		return Voice{Kind: KindMixSpin, Waveform: wave, Carr: f(m, 1), Res: f(m, 2), Amp: amp(m, 3)}
	})...)
	rules = append(rules, plainRule(`mixspin:(`+fp+`)(`+fp+`)/(`+fp+`)`, true, func(m []string) Voice {
		return Voice{Kind: KindMixSpin, Waveform: p.defaultWave, Carr: f(m, 1), Res: f(m, 2), Amp: amp(m, 3)}
	}))

	rules = append(rules, wavePrefixed("mixpulse:", `(`+fp+`)/(`+fp+`)`, true, func(wave int, m []string) Voice {
		return Voice{Kind: KindMixPulse, Waveform: wave, Res: f(m, 1), Amp: amp(m, 2)}
	})...)
	rules = append(rules, plainRule(`mixpulse:(`+fp+`)/(`+fp+`)`, true, func(m []string) Voice {
		return Voice{Kind: KindMixPulse, Waveform: p.defaultWave, Res: f(m, 1), Amp: amp(m, 2)}
	}))

	rules = append(rules, wavePrefixed("bspin:", `(`+fp+`)(`+fp+`)/(`+fp+`)`, false, func(wave int, m []string) Voice {
		return Voice{Kind: KindBSpin, Waveform: wave, Carr: f(m, 1), Res: f(m, 2), Amp: amp(m, 3)}
	})...)
	rules = append(rules, plainRule(`bspin:(`+fp+`)(`+fp+`)/(`+fp+`)`, false, func(m []string) Voice {
		return Voice{Kind: KindBSpin, Waveform: p.defaultWave, Carr: f(m, 1), Res: f(m, 2), Amp: amp(m, 3)}
	}))

	rules = append(rules, wavePrefixed("wspin:", `(`+fp+`)(`+fp+`)/(`+fp+`)`, false, func(wave int, m []string) Voice {
		return Voice{Kind: KindWSpin, Waveform: wave, Carr: f(m, 1), Res: f(m, 2), Amp: amp(m, 3)}
	})...)
	rules = append(rules, plainRule(`wspin:(`+fp+`)(`+fp+`)/(`+fp+`)`, false, func(m []string) Voice {
		return Voice{Kind: KindWSpin, Waveform: p.defaultWave, Carr: f(m, 1), Res: f(m, 2), Amp: amp(m, 3)}
	}))

	return rules
}

// lineHasMixAmp reports whether the raw line contains a "mix/<digit>"
// token elsewhere, the requirement checkMixInSequence() enforces for
// mixspin/mixpulse voices.
func lineHasMixAmp(line string) bool {
	for i := 0; i+5 <= len(line); i++ {
		if line[i:i+4] == "mix/" && isDigitByte(line[i+4]) {
			return true
		}
	}
	return false
}

// parseVoiceToken matches tok against the voice-spec grammar in priority
// order, returning the resolved Voice for the first rule that matches (or
// the error a matching wave%d/mixspin/mixpulse rule raised).
func (p *Parser) parseVoiceToken(tok string, lineNum int, rawLine string) (Voice, error) {
	for _, r := range p.voiceRules() {
		m := r.re.FindStringSubmatch(tok)
		if m == nil {
			continue
		}
		if r.mix && !lineHasMixAmp(rawLine) {
			return Voice{}, &ConfigError{Msg: fmt.Sprintf("mixspin/mixpulse without mix/<amp> specified, line %d", lineNum)}
		}
		v, err := r.build(m)
		if err != nil {
			return Voice{}, &FormatError{Line: lineNum, Msg: err.Error()}
		}
		return v, nil
	}
	return Voice{}, p.badSeq(lineNum, tok)
}

// parseVoices resolves up to NumChannels voice-spec tokens into a tone-set,
// skipping "-" placeholders (an explicitly silent channel).
func (p *Parser) parseVoices(tokens []string, lineNum int, rawLine string) ([NumChannels]Voice, error) {
	var voices [NumChannels]Voice
	if len(tokens) > NumChannels {
		tokens = tokens[:NumChannels]
	}
	for ch, tok := range tokens {
		if tok == "-" {
			continue
		}
		v, err := p.parseVoiceToken(tok, lineNum, rawLine)
		if err != nil {
			return voices, err
		}
		voices[ch] = v
	}
	return voices, nil
}
