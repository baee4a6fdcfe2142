// config.go - the plain data record for the CLI surface described in
// spec §6: sample rate, fades, mix-input/mix-modulation/headphone-comp
// specs, and the pre-programmed command line, plus the small parsers that
// turn their colon/comma-separated spec strings into the structured types
// the rest of internal/core consumes. cmd/sbagenx is the only caller that
// builds a Config from flags; nothing here touches pflag or yaml.

package core

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Config is the data record the core consumes for one run. cmd/sbagenx
// fills it in from flags (and an optional YAML preset); the core never
// re-parses os.Args itself.
type Config struct {
	SampleRate      int
	BitsPerSample   int
	Volume          int // percent, 100 = unity
	DefaultWaveform int
	FadeIntMs       int
	FastMult        float64

	StartNow   bool   // -S: NOW resolves to 00:00 instead of the wall-clock time; playback begins at the first period either way
	StartAt    string // explicit "HH:MM:SS", empty if unset
	EndAtLast  bool   // -E: stop after the last period instead of looping at 24h
	SeqLenMs   int    // -L override, <= 0 means unbounded/natural
	Normalize  bool   // rescale an over-100% mix to fit, vs. warn and pass through
	RandomSeed int64

	SequencePath    string // sequence file, "-" for stdin
	MixInputPath    string // externally mixed audio source, empty if none
	MixModSpec      string // "d=<δ>:e=<ε>:k=<k>:E=<E>[:U=<U>]"
	IsochronicSpec  string // "s=:d=:a=:r=:e="
	HeadphoneSpec   string // "<freq>=<adj>[,<freq>=<adj>]..."
	PreProgCommand  []string // e.g. {"drop", "t30,30,3", "40a"}

	OutputSink string // "oto" (default), "wav", "stdout"
	WavPath    string // used when OutputSink == "wav"
}

// ParseMixModCurve parses the "d=<δ>:e=<ε>:k=<k>:E=<E>[:T=<T>][:U=<U>]"
// mix-modulation spec into a MixModCurve, per spec §4.7/§6. An empty spec
// returns nil, nil (no mix-modulation configured).
func ParseMixModCurve(spec string) (*MixModCurve, error) {
	if strings.TrimSpace(spec) == "" {
		return nil, nil
	}
	m := &MixModCurve{MainMin: 60, KMin: 5}
	for _, field := range strings.Split(spec, ":") {
		if field == "" {
			continue
		}
		key, val, ok := strings.Cut(field, "=")
		if !ok {
			return nil, &ConfigError{Msg: fmt.Sprintf("bad mix-modulation field %q", field)}
		}
		f, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return nil, &ConfigError{Msg: fmt.Sprintf("bad mix-modulation value %q", field)}
		}
		switch key {
		case "d":
			m.Delta = f
		case "e":
			m.Eps = f
		case "k":
			m.KMin = f
		case "E":
			m.End = f
		case "T":
			m.MainMin = f
		case "U":
			m.WakeMin = f
			m.WakeOn = true
		default:
			return nil, &ConfigError{Msg: fmt.Sprintf("unknown mix-modulation key %q", key)}
		}
	}
	return m, nil
}

// ParseIsochronicGate parses the "s=:d=:a=:r=:e=" custom isochronic-gate
// spec into an IsochronicGate, per spec §4.3 item 4/§6. An empty spec
// returns the zero value (legacy threshold-gated envelope).
func ParseIsochronicGate(spec string) (IsochronicGate, error) {
	var g IsochronicGate
	if strings.TrimSpace(spec) == "" {
		return g, nil
	}
	g.Custom = true
	g.Duty = 1
	for _, field := range strings.Split(spec, ":") {
		if field == "" {
			continue
		}
		key, val, ok := strings.Cut(field, "=")
		if !ok {
			return g, &ConfigError{Msg: fmt.Sprintf("bad isochronic-gate field %q", field)}
		}
		switch key {
		case "s":
			f, err := strconv.ParseFloat(val, 64)
			if err != nil {
				return g, &ConfigError{Msg: "bad isochronic-gate s= value"}
			}
			g.Start = f
		case "d":
			f, err := strconv.ParseFloat(val, 64)
			if err != nil {
				return g, &ConfigError{Msg: "bad isochronic-gate d= value"}
			}
			g.Duty = f
		case "a":
			f, err := strconv.ParseFloat(val, 64)
			if err != nil {
				return g, &ConfigError{Msg: "bad isochronic-gate a= value"}
			}
			g.Attack = f
		case "r":
			f, err := strconv.ParseFloat(val, 64)
			if err != nil {
				return g, &ConfigError{Msg: "bad isochronic-gate r= value"}
			}
			g.Release = f
		case "e":
			switch val {
			case "hard":
				g.Edge = EdgeHard
			case "linear":
				g.Edge = EdgeLinear
			case "smoothstep":
				g.Edge = EdgeSmoothstep
			case "smootherstep":
				g.Edge = EdgeSmootherstep
			default:
				return g, &ConfigError{Msg: fmt.Sprintf("unknown isochronic-gate edge %q", val)}
			}
		default:
			return g, &ConfigError{Msg: fmt.Sprintf("unknown isochronic-gate key %q", key)}
		}
	}
	return g, nil
}

// ParseHeadphoneComp parses "<freq>=<adj>[,<freq>=<adj>]..." into an
// AmpAdjustTable, per spec §6's "-c" option. An empty spec returns nil
// (no compensation, Lookup would otherwise default to 1.0 anyway).
func ParseHeadphoneComp(spec string) (*AmpAdjustTable, error) {
	if strings.TrimSpace(spec) == "" {
		return nil, nil
	}
	var points []AmpAdjustPoint
	for _, tok := range strings.Split(spec, ",") {
		freqStr, adjStr, ok := strings.Cut(tok, "=")
		if !ok {
			return nil, &ConfigError{Msg: fmt.Sprintf("bad headphone-compensation point %q", tok)}
		}
		freq, err := strconv.ParseFloat(freqStr, 64)
		if err != nil {
			return nil, &ConfigError{Msg: fmt.Sprintf("bad headphone-compensation frequency %q", freqStr)}
		}
		adj, err := strconv.ParseFloat(adjStr, 64)
		if err != nil {
			return nil, &ConfigError{Msg: fmt.Sprintf("bad headphone-compensation adjustment %q", adjStr)}
		}
		points = append(points, AmpAdjustPoint{FreqHz: freq, Adjust: adj})
	}
	return NewAmpAdjustTable(points), nil
}

// ReplayGainPreGain converts a REPLAYGAIN_TRACK_GAIN dB value into the
// integer pre-gain multiplier (in sixteenths, 16 = unity) applied to a
// mix-input stream,
// per spec §6: round(16 * 10^((g-3)/20)), re-referencing the tag's 89dB
// loudness target down by 3dB.
func ReplayGainPreGain(gainDB float64) int {
	return int(16*math.Pow(10, (gainDB-3)/20) + 0.5)
}
