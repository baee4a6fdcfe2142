// mixinput.go - wires a mix-input file into the engine. Input decoders
// are an explicit non-goal of internal/core (spec §1: "the core consumes
// a pull-based fill(samples[]) function"), so this file is the one place
// that owns a concrete file format: raw interleaved s16le stereo PCM,
// plus an optional "<path>.tags" sidecar carrying the vorbis-comment-style
// metadata (SBAGEN_LOOPER=, REPLAYGAIN_TRACK_GAIN=) the reference would
// otherwise read from the audio container itself.
package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/sbagenx/sbagenx/internal/core"
)

// readTags loads "<path>.tags", one KEY=VALUE per line, ignoring a
// missing file entirely (most raw PCM sources carry no metadata).
func readTags(path string) (map[string]string, []string) {
	tags := map[string]string{}
	var warnings []string

	f, err := os.Open(path + ".tags")
	if err != nil {
		return tags, nil
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, val, ok := strings.Cut(line, "=")
		if !ok {
			warnings = append(warnings, fmt.Sprintf("malformed tag line %q, ignoring", line))
			continue
		}
		tags[strings.ToUpper(strings.TrimSpace(key))] = strings.TrimSpace(val)
	}
	return tags, warnings
}

// parseLooperFlags parses a SBAGEN_LOOPER= flag string (space-separated
// tokens) per spec §4.8/§6. Unknown tokens are warned and skipped rather
// than treated as fatal, matching the reference's recoverable-at-source
// handling of metadata errors.
func parseLooperFlags(spec string, logger *log.Logger) core.LooperFlags {
	f := core.LooperFlags{SegMinSec: 20, SegMaxSec: 40, FadeSec: 2}
	for _, tok := range strings.Fields(spec) {
		if tok == "" {
			continue
		}
		switch tok[0] {
		case 'i':
			f.Intro = true
		case 'd':
			lo, hi, hasHi := parseRangeToken(tok[1:])
			f.SrcBaseSec = lo
			if hasHi {
				f.SrcLenSec = hi - lo
				f.HasSrcLen = true
			}
		case 's':
			lo, hi, hasHi := parseRangeToken(tok[1:])
			f.SegMinSec = lo
			f.SegMaxSec = lo
			if hasHi {
				f.SegMaxSec = hi
			}
		case 'f':
			v, err := strconv.ParseFloat(tok[1:], 64)
			if err == nil {
				f.FadeSec = v
			}
		case 'c':
			v, err := strconv.ParseFloat(tok[1:], 64)
			if err == nil && v > 1.5 {
				f.ThreeStream = true
			}
		case 'w':
			f.SwapOnCross = tok[1:] == "1"
		case '#':
			// Version-gated tokens: accepted and ignored since this front
			// end does not track a filename-derived mix_cnt.
		default:
			logger.Warn("unknown SBAGEN_LOOPER flag, skipping", "token", tok)
		}
	}
	return f
}

func parseRangeToken(s string) (lo, hi float64, hasHi bool) {
	parts := strings.SplitN(s, "-", 2)
	lo, _ = strconv.ParseFloat(parts[0], 64)
	if len(parts) == 2 {
		hi, _ = strconv.ParseFloat(parts[1], 64)
		hasHi = true
	}
	return lo, hi, hasHi
}

// wireMixInput reads path's sidecar tags and returns the EngineOptions
// needed to wire it in: a Looper when SBAGEN_LOOPER metadata is present,
// otherwise a streamed InputBuffer fed by a background producer
// goroutine (see streamIntoBuffer for its backpressure behaviour).
// REPLAYGAIN_TRACK_GAIN, when present, sets the pre-gain either way.
func wireMixInput(path string, sampleRate int, logger *log.Logger) ([]core.EngineOption, error) {
	tags, warnings := readTags(path)
	for _, w := range warnings {
		logger.Warn(w)
	}

	preGain := 16
	if g, ok := tags["REPLAYGAIN_TRACK_GAIN"]; ok {
		gainStr := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(g), "dB"))
		if v, perr := strconv.ParseFloat(gainStr, 64); perr == nil {
			preGain = core.ReplayGainPreGain(v)
		} else {
			logger.Warn("malformed REPLAYGAIN_TRACK_GAIN tag, ignoring", "value", g)
		}
	}

	pcm, err := readRawPCM16(path)
	if err != nil {
		return nil, fmt.Errorf("reading mix input: %w", err)
	}

	if looperSpec, ok := tags["SBAGEN_LOOPER"]; ok {
		flags := parseLooperFlags(looperSpec, logger)
		looper, err := core.NewLooper(pcm, sampleRate, flags, 1)
		if err != nil {
			return nil, fmt.Errorf("building looper: %w", err)
		}
		return []core.EngineOption{core.WithLooper(looper), core.WithMixPreGain(preGain)}, nil
	}

	ib := core.NewInputBuffer(1 << 16)
	go streamIntoBuffer(pcm, ib)
	return []core.EngineOption{core.WithInputBuffer(ib), core.WithMixPreGain(preGain)}, nil
}

// streamIntoBuffer shifts the 16-bit pcm into the engine's 20-bit working
// range and feeds it into ib in chunks of up to 2048 frames. It sleeps
// 4 ms only when the buffer is completely full (a write accepts no
// frames); it does not back off at any lower fill level.
func streamIntoBuffer(pcm []int16, ib *core.InputBuffer) {
	frames := make([]int32, len(pcm))
	for i, s := range pcm {
		frames[i] = int32(s) << 4 // 16-bit -> 20-bit working range
	}
	pos := 0
	for pos < len(frames) {
		chunk := 4096
		if pos+chunk > len(frames) {
			chunk = len(frames) - pos
		}
		n := ib.Write(frames[pos : pos+chunk])
		pos += n * 2
		if n == 0 {
			time.Sleep(4 * time.Millisecond)
		}
	}
	ib.SetEOF()
}

// readRawPCM16 loads a whole file as interleaved s16le stereo samples.
func readRawPCM16(path string) ([]int16, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	n := len(raw) / 2
	out := make([]int16, n)
	for i := 0; i < n; i++ {
		out[i] = int16(uint16(raw[2*i]) | uint16(raw[2*i+1])<<8)
	}
	return out, nil
}
