package config

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/a3tai/mcp-sondage-reader/internal/sondage"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func load(t *testing.T, args ...string) (*Config, error) {
	t.Helper()
	var usage bytes.Buffer
	return Load(args, &usage)
}

func TestLoad_Defaults(t *testing.T) {
	dir := t.TempDir()
	cfg, err := load(t, "--dir="+dir)
	require.NoError(t, err)

	assert.Equal(t, ModeStdio, cfg.Mode)
	assert.Equal(t, dir, cfg.PDFDirectory)
	assert.Equal(t, []string{"Pf*", "Pl*", "Module"}, cfg.Keywords)
	assert.Equal(t, 15.0, cfg.MergeThreshold)
	assert.Nil(t, cfg.Depth, "no depth flags means prompting")
}

func TestLoad_BatchFlags(t *testing.T) {
	cfg, err := load(t,
		"--mode=batch",
		"--output=out.xlsx",
		"--loglevel=debug",
		"--merge-threshold=20",
		"--keywords=Pf*,Pl*",
		"--depth-start=1", "--depth-end=3", "--depth-step=0.5",
		"report.pdf",
	)
	require.NoError(t, err)

	assert.Equal(t, ModeBatch, cfg.Mode)
	assert.Equal(t, "report.pdf", cfg.Input, "positional argument is the input")
	assert.Equal(t, "out.xlsx", cfg.Output)
	assert.True(t, cfg.IsDebug())
	assert.Equal(t, 20.0, cfg.MergeThreshold)
	assert.Equal(t, []string{"Pf*", "Pl*"}, cfg.Keywords)
	require.NotNil(t, cfg.Depth)
	assert.Equal(t, sondage.DepthRange{Start: 1, End: 3, Step: 0.5}, *cfg.Depth)
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("SONDAGE_MODE", "batch")
	t.Setenv("SONDAGE_INPUT", "env.pdf")
	t.Setenv("SONDAGE_MERGE_THRESHOLD", "9")
	t.Setenv("SONDAGE_KEYWORDS", "Pf*,Pl*,Module")
	t.Setenv("SONDAGE_DEPTH_STEP", "1")
	t.Setenv("SONDAGE_DEPTH_END", "4")

	cfg, err := load(t)
	require.NoError(t, err)

	assert.Equal(t, ModeBatch, cfg.Mode)
	assert.Equal(t, "env.pdf", cfg.Input)
	assert.Equal(t, 9.0, cfg.MergeThreshold)
	assert.Equal(t, []string{"Pf*", "Pl*", "Module"}, cfg.Keywords)
	require.NotNil(t, cfg.Depth)
	assert.Equal(t, sondage.DepthRange{Start: 0, End: 4, Step: 1}, *cfg.Depth)
}

func TestLoad_FlagsOverrideEnvironment(t *testing.T) {
	t.Setenv("SONDAGE_LOGLEVEL", "error")
	cfg, err := load(t, "--dir="+t.TempDir(), "--loglevel=warn")
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.LogLevel)
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "sondage.yaml")
	content := `mode: batch
input: site.pdf
name-pattern: '^SC\d+$'
keywords: [Pf*, Pl*, Module]
tolerances:
  Module:
    left: 5
    right: 60
    min_dy: 40
`
	require.NoError(t, os.WriteFile(file, []byte(content), 0o600))

	cfg, err := load(t, "--config="+file)
	require.NoError(t, err)

	assert.Equal(t, ModeBatch, cfg.Mode)
	assert.Equal(t, "site.pdf", cfg.Input)
	assert.Equal(t, `^SC\d+$`, cfg.NamePattern)
	assert.Equal(t, sondage.ToleranceWindow{Left: 5, Right: 60, MinDY: 40}, cfg.Tolerances["Module"])
	assert.Equal(t, sondage.ToleranceWindow{Left: 10, Right: 30, MinDY: 50}, cfg.Tolerances["Pf*"])

	s, err := cfg.Settings()
	require.NoError(t, err)
	assert.Equal(t, 60.0, s.Keywords[2].Tolerance.Right)
}

func TestLoad_Errors(t *testing.T) {
	_, err := load(t, "--version")
	assert.True(t, errors.Is(err, ErrVersionRequested))

	_, err = load(t, "--help")
	assert.ErrorIs(t, err, pflag.ErrHelp)

	_, err = load(t, "--mode=server")
	assert.ErrorContains(t, err, "invalid configuration")

	_, err = load(t, "--config="+filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "failed to read config file")

	_, err = load(t, "--mode=batch", "--depth-start=2", "--depth-end=1", "--depth-step=1", "a.pdf")
	assert.ErrorIs(t, err, sondage.ErrInvalidDepthParameters)
}
