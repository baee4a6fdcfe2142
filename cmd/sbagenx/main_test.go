package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sbagenx/sbagenx/internal/core"
)

func TestParseWaveformName_KnownNames(t *testing.T) {
	cases := map[string]int{
		"sine":     core.WaveSine,
		"":         core.WaveSine,
		"square":   core.WaveSquare,
		"Triangle": core.WaveTriangle,
		"SAWTOOTH": core.WaveSawtooth,
	}
	for name, want := range cases {
		got, err := parseWaveformName(name)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestParseWaveformName_UnknownNameIsConfigError(t *testing.T) {
	_, err := parseWaveformName("hexagon")
	require.Error(t, err)
	var cfgErr *core.ConfigError
	assert.ErrorAs(t, err, &cfgErr)
}

func writeSequenceFile(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "seq.sba")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestLoadSequence_ReadsAndParsesFile(t *testing.T) {
	path := writeSequenceFile(t, "tone: 200+10/10\n00:00 tone\n00:05 tone\n")
	cfg := core.Config{SequencePath: path, StartNow: true, Normalize: true}

	periods, warnings, fc, err := loadSequence(core.NewWaveTables(), cfg, core.WaveSine, false)
	require.NoError(t, err)
	assert.Empty(t, warnings)
	assert.Nil(t, fc)
	require.Len(t, periods, 2)
}

func TestLoadSequence_MissingPathIsConfigError(t *testing.T) {
	cfg := core.Config{}
	_, _, _, err := loadSequence(core.NewWaveTables(), cfg, core.WaveSine, false)
	require.Error(t, err)
	var cfgErr *core.ConfigError
	assert.ErrorAs(t, err, &cfgErr)
}

func TestLoadSequence_NonExistentFileIsError(t *testing.T) {
	cfg := core.Config{SequencePath: filepath.Join(t.TempDir(), "ghost.sba")}
	_, _, _, err := loadSequence(core.NewWaveTables(), cfg, core.WaveSine, false)
	assert.Error(t, err)
}

func TestLoadSequence_PreProgDropGeneratesPeriods(t *testing.T) {
	cfg := core.Config{PreProgCommand: []string{"drop", "0a"}}
	periods, _, _, err := loadSequence(core.NewWaveTables(), cfg, core.WaveSine, false)
	require.NoError(t, err)
	assert.NotEmpty(t, periods)
}

func TestLoadSequence_PreProgSlideRegistersNoFuncCurve(t *testing.T) {
	cfg := core.Config{PreProgCommand: []string{"slide", "200+10/50"}}
	periods, _, fc, err := loadSequence(core.NewWaveTables(), cfg, core.WaveSine, false)
	require.NoError(t, err)
	assert.NotEmpty(t, periods)
	assert.Nil(t, fc)
}

func TestLoadSequence_UnknownPreProgCommandIsError(t *testing.T) {
	cfg := core.Config{PreProgCommand: []string{"bogus"}}
	_, _, _, err := loadSequence(core.NewWaveTables(), cfg, core.WaveSine, false)
	assert.Error(t, err)
}
