// main.go - command-line front end for SBaGenX: flag parsing, sequence
// loading, engine wiring, and the final output sink. internal/core never
// touches os.Args, a file, or a speaker directly; this is where those
// concerns live, matching the teacher's own main()-owns-the-world split
// between audio_chip.go's engine and main.go's setup/flag handling.
package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/sbagenx/sbagenx/internal/core"
	"github.com/sbagenx/sbagenx/internal/sink"
)

// preset is the optional YAML file loaded via --preset, supplying
// reusable mix-modulation/headphone-compensation/isochronic-gate specs
// that would otherwise have to be retyped on every invocation.
type preset struct {
	MixMod     string `yaml:"mix_mod"`
	Isochronic string `yaml:"isochronic"`
	Headphones string `yaml:"headphones"`
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "sbagenx:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := pflag.NewFlagSet("sbagenx", pflag.ContinueOnError)

	rate := fs.IntP("rate", "r", 44100, "output sample rate in Hz")
	bits := fs.IntP("bits", "b", 16, "bits per sample (not used: WAV and stdout output are always 16-bit)")
	volume := fs.IntP("volume", "V", 100, "output volume percent")
	waveform := fs.StringP("waveform", "w", "sine", "default waveform: sine|square|triangle|sawtooth")
	fadeMs := fs.IntP("fade", "i", 60000, "minimum transitional fade length, ms")
	fastMult := fs.Float64P("fast", "x", 1, "fast-forward multiplier")
	startNow := fs.BoolP("start-now", "S", false, "resolve NOW to 00:00 instead of the current time (playback always begins at the first period)")
	endAtLast := fs.BoolP("end-at-last", "E", false, "stop after the last period instead of looping forever")
	seqLen := fs.IntP("length", "L", 0, "override sequence length, ms (0 = natural)")
	normalize := fs.BoolP("normalize", "N", true, "auto-rescale an over-100% mix instead of warning")
	quiet := fs.BoolP("quiet", "q", false, "suppress warnings")
	seed := fs.Int64P("seed", "z", 1, "noise/PRNG seed")

	mixInput := fs.StringP("mix-input", "m", "", "raw s16le stereo mix-input file")
	mixMod := fs.StringP("mix-mod", "A", "", "mix-modulation spec d=<δ>:e=<ε>:k=<k>:E=<E>")
	isoGateSpec := fs.StringP("isochronic-gate", "I", "", "custom isochronic gate s=:d=:a=:r=:e=")
	headphoneSpec := fs.StringP("headphones", "c", "", "headphone-compensation points <freq>=<adj>,...")
	preProg := fs.StringP("preprogrammed", "p", "", "pre-programmed command: drop|sigmoid|slide")

	outSink := fs.StringP("sink", "o", "oto", "output sink: oto|wav|stdout")
	wavPath := fs.StringP("out", "O", "out.wav", "WAV output path when --sink=wav")
	presetPath := fs.String("preset", "", "YAML preset file for mix-mod/isochronic/headphone specs")
	logLevel := fs.String("log-level", "info", "debug|info|warn|error")

	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "usage: sbagenx [flags] <sequence-file>")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return err
	}

	logger := log.New(os.Stderr)
	switch strings.ToLower(*logLevel) {
	case "debug":
		logger.SetLevel(log.DebugLevel)
	case "warn":
		logger.SetLevel(log.WarnLevel)
	case "error":
		logger.SetLevel(log.ErrorLevel)
	default:
		logger.SetLevel(log.InfoLevel)
	}

	var pr preset
	if *presetPath != "" {
		data, err := os.ReadFile(*presetPath)
		if err != nil {
			return fmt.Errorf("reading preset: %w", err)
		}
		if err := yaml.Unmarshal(data, &pr); err != nil {
			return fmt.Errorf("parsing preset: %w", err)
		}
		if *mixMod == "" {
			*mixMod = pr.MixMod
		}
		if *isoGateSpec == "" {
			*isoGateSpec = pr.Isochronic
		}
		if *headphoneSpec == "" {
			*headphoneSpec = pr.Headphones
		}
	}

	waveID, err := parseWaveformName(*waveform)
	if err != nil {
		return err
	}

	cfg := core.Config{
		SampleRate:      *rate,
		BitsPerSample:   *bits,
		Volume:          *volume,
		DefaultWaveform: waveID,
		FadeIntMs:       *fadeMs,
		FastMult:        *fastMult,
		StartNow:        *startNow,
		EndAtLast:       *endAtLast,
		SeqLenMs:        *seqLen,
		Normalize:       *normalize,
		RandomSeed:      *seed,
		MixInputPath:    *mixInput,
		MixModSpec:      *mixMod,
		IsochronicSpec:  *isoGateSpec,
		HeadphoneSpec:   *headphoneSpec,
		OutputSink:      *outSink,
		WavPath:         *wavPath,
	}
	if fs.NArg() > 0 {
		cfg.SequencePath = fs.Arg(0)
	}
	if *preProg != "" {
		cfg.PreProgCommand = append([]string{*preProg}, fs.Args()[1:]...)
		cfg.StartNow = true
		cfg.EndAtLast = true
	}

	tables := core.NewWaveTables()
	periods, warnings, fc, err := loadSequence(tables, cfg, waveID, *quiet)
	if err != nil {
		return err
	}
	for _, w := range warnings {
		logger.Warn(w)
	}

	opts := []core.EngineOption{core.WithLogger(logger)}

	mixMod2, err := core.ParseMixModCurve(cfg.MixModSpec)
	if err != nil {
		return err
	}
	if mixMod2 != nil {
		opts = append(opts, core.WithMixModCurve(mixMod2))
	}

	gate, err := core.ParseIsochronicGate(cfg.IsochronicSpec)
	if err != nil {
		return err
	}
	if gate.Custom {
		opts = append(opts, core.WithIsochronicGate(gate))
	}

	ampAdjust, err := core.ParseHeadphoneComp(cfg.HeadphoneSpec)
	if err != nil {
		return err
	}
	if ampAdjust != nil {
		opts = append(opts, core.WithAmpAdjust(ampAdjust))
	}

	if fc != nil {
		opts = append(opts, core.WithFuncCurves(core.FuncCurveSet{fc}))
	}

	if cfg.MixInputPath != "" {
		mixOpts, ferr := wireMixInput(cfg.MixInputPath, cfg.SampleRate, logger)
		if ferr != nil {
			return ferr
		}
		opts = append(opts, mixOpts...)
	}

	engine, err := core.NewEngine(cfg, periods, opts...)
	if err != nil {
		return err
	}
	defer engine.Close()

	switch strings.ToLower(cfg.OutputSink) {
	case "wav":
		return runWav(engine, cfg)
	case "stdout":
		return runStdout(engine)
	default:
		return runOto(engine, cfg)
	}
}

func parseWaveformName(name string) (int, error) {
	switch strings.ToLower(name) {
	case "sine", "":
		return core.WaveSine, nil
	case "square":
		return core.WaveSquare, nil
	case "triangle":
		return core.WaveTriangle, nil
	case "sawtooth":
		return core.WaveSawtooth, nil
	default:
		return 0, &core.ConfigError{Msg: fmt.Sprintf("unknown waveform %q", name)}
	}
}

// loadSequence runs either a pre-programmed generator or the plain file
// parser, depending on cfg.PreProgCommand.
func loadSequence(tables *core.WaveTables, cfg core.Config, waveID int, quiet bool) ([]core.UserPeriod, []string, *core.FuncCurve, error) {
	if len(cfg.PreProgCommand) > 0 {
		var res *core.PreProgResult
		var err error
		switch cfg.PreProgCommand[0] {
		case "drop":
			res, err = core.GenerateDrop(tables, cfg.PreProgCommand[1:])
		case "sigmoid":
			res, err = core.GenerateSigmoid(tables, cfg.PreProgCommand[1:])
		case "slide":
			res, err = core.GenerateSlide(tables, cfg.PreProgCommand[1:])
		default:
			err = &core.ConfigError{Msg: fmt.Sprintf("unknown pre-programmed command %q", cfg.PreProgCommand[0])}
		}
		if err != nil {
			return nil, nil, nil, err
		}
		return res.Periods, res.Warnings, res.FuncCurve, nil
	}

	if cfg.SequencePath == "" {
		return nil, nil, nil, &core.ConfigError{Msg: "no sequence file given"}
	}
	var data []byte
	var err error
	if cfg.SequencePath == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(cfg.SequencePath)
	}
	if err != nil {
		return nil, nil, nil, fmt.Errorf("reading sequence: %w", err)
	}

	nowMs := 0
	if !cfg.StartNow {
		now := time.Now()
		nowMs = (now.Hour()*3600+now.Minute()*60+now.Second())*1000 + now.Nanosecond()/1e6
	}
	p := core.NewParser(tables, nowMs)
	p.SetDefaultWaveform(waveID)
	p.SetNormalize(cfg.Normalize)
	p.SetQuiet(quiet)
	periods, err := p.Parse(string(data))
	if err != nil {
		return nil, nil, nil, err
	}
	return periods, p.Warnings(), nil, nil
}

func runOto(engine *core.Engine, cfg core.Config) error {
	player, err := sink.NewOtoPlayer(cfg.SampleRate)
	if err != nil {
		return err
	}
	player.SetupPlayer(engine)
	player.Start()
	defer player.Close()

	for {
		time.Sleep(200 * time.Millisecond)
	}
}

func runWav(engine *core.Engine, cfg core.Config) error {
	f, err := os.Create(cfg.WavPath)
	if err != nil {
		return err
	}
	defer f.Close()

	ww, err := sink.NewWavWriter(f, cfg.SampleRate, 16, 2)
	if err != nil {
		return err
	}
	buf := make([]int16, 4096)
	for {
		done := engine.FillStereo16(buf)
		if werr := ww.WriteFrames(buf); werr != nil {
			return werr
		}
		if done {
			break
		}
	}
	return ww.Close()
}

func runStdout(engine *core.Engine) error {
	buf := make([]int16, 4096)
	rawBuf := make([]byte, len(buf)*2)
	for {
		done := engine.FillStereo16(buf)
		for i, s := range buf {
			rawBuf[2*i] = byte(s)
			rawBuf[2*i+1] = byte(s >> 8)
		}
		if _, err := os.Stdout.Write(rawBuf); err != nil {
			return err
		}
		if done {
			return nil
		}
	}
}
