package config_test

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docshelf/pdfdistill/internal/cli/config"
	"github.com/docshelf/pdfdistill/internal/testutil"
	"github.com/docshelf/pdfdistill/pkg/distill"
	"github.com/docshelf/pdfdistill/pkg/distill/language"
)

func newFlagSet(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	fs := pflag.NewFlagSet("pdfdistill", pflag.ContinueOnError)
	config.RegisterFlags(fs)
	require.NoError(t, fs.Parse(args))
	return fs
}

func TestLoadDefaults(t *testing.T) {
	fs := newFlagSet(t, "--input", "data/raw/es")

	s, err := config.Load("", fs)
	require.NoError(t, err)

	assert.Equal(t, "data/raw/es", s.Input)
	assert.Equal(t, distill.DefaultOutputRoot, s.OutputRoot)
	assert.Equal(t, distill.OutputText, s.OutputExt)
	assert.Equal(t, distill.DefaultPattern, s.Pattern)
	assert.Equal(t, distill.DefaultWorkers, s.Workers)
	assert.Equal(t, distill.DefaultMaxFileSizeMB, s.MaxFileSizeMB)
	assert.Equal(t, distill.DefaultMaxPages, s.MaxPages)
	assert.Equal(t, distill.DefaultTimeoutPerFileSec*time.Second, s.TimeoutPerFile)
	assert.Equal(t, "auto", s.Backend)
	assert.Equal(t, "\t", s.Text.TableDelimiter)
	assert.False(t, s.Markdown.AddYAMLHeader)
	assert.Equal(t, slog.LevelInfo, s.LogLevel)
	assert.True(t, s.Progress)
	assert.False(t, s.FailFast)
	assert.Equal(t, config.SummaryText, s.SummaryFormat)
	assert.Empty(t, s.ConfigFileUsed)
}

func TestLoadFromFile(t *testing.T) {
	cfg := filepath.Join(t.TempDir(), "config.yaml")
	testutil.WriteFile(t, cfg, `
limits:
  max_file_size_mb: 25
  max_pages: 50
  timeout_per_file_sec: 30
serialization:
  markdown:
    add_yaml_header: true
  text:
    table_delimiter: "|"
logging:
  level: debug
  log_file: logs/custom.log
  progress: false
  fail_fast: true
  workers: 2
backend: native
`)

	fs := newFlagSet(t, "--input", "in")
	s, err := config.Load(cfg, fs)
	require.NoError(t, err)

	assert.Equal(t, 25, s.MaxFileSizeMB)
	assert.Equal(t, 50, s.MaxPages)
	assert.Equal(t, 30*time.Second, s.TimeoutPerFile)
	assert.True(t, s.Markdown.AddYAMLHeader)
	assert.Equal(t, "|", s.Text.TableDelimiter)
	assert.Equal(t, slog.LevelDebug, s.LogLevel)
	assert.Equal(t, "logs/custom.log", s.LogFile)
	assert.False(t, s.Progress)
	assert.True(t, s.FailFast)
	assert.Equal(t, 2, s.Workers)
	assert.Equal(t, "native", s.Backend)
	assert.Equal(t, cfg, s.ConfigFileUsed)
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	cfg := filepath.Join(t.TempDir(), "config.yaml")
	testutil.WriteFile(t, cfg, "limits:\n  max_pagez: 5\n")

	fs := newFlagSet(t, "--input", "in")
	_, err := config.Load(cfg, fs)
	require.Error(t, err)
	assert.ErrorIs(t, err, distill.ErrInvalidOptions)
}

func TestLoadExplicitConfigMissing(t *testing.T) {
	fs := newFlagSet(t, "--input", "in")
	_, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml"), fs)
	require.Error(t, err)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	cfg := filepath.Join(t.TempDir(), "config.yaml")
	testutil.WriteFile(t, cfg, "logging:\n  workers: 2\n")
	t.Setenv("PDFDISTILL_LOGGING_WORKERS", "9")

	fs := newFlagSet(t, "--input", "in")
	s, err := config.Load(cfg, fs)
	require.NoError(t, err)
	assert.Equal(t, 9, s.Workers)
}

func TestLoadFlagOverridesEnvAndFile(t *testing.T) {
	cfg := filepath.Join(t.TempDir(), "config.yaml")
	testutil.WriteFile(t, cfg, "logging:\n  workers: 2\nbackend: poppler\n")
	t.Setenv("PDFDISTILL_LOGGING_WORKERS", "9")

	fs := newFlagSet(t, "--input", "in", "--workers", "12", "--backend", "native")
	s, err := config.Load(cfg, fs)
	require.NoError(t, err)
	assert.Equal(t, 12, s.Workers)
	assert.Equal(t, "native", s.Backend)
}

func TestLoadSearchPrefersConfigYAML(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteFile(t, filepath.Join(dir, "config.yaml"), "logging:\n  workers: 3\n")
	testutil.WriteFile(t, filepath.Join(dir, "pdfdistill.yaml"), "logging:\n  workers: 5\n")

	wd, err := os.Getwd()
	require.NoError(t, err)
	t.Cleanup(func() { _ = os.Chdir(wd) })
	require.NoError(t, os.Chdir(dir))

	fs := newFlagSet(t, "--input", "in")
	s, err := config.Load("", fs)
	require.NoError(t, err)
	assert.Equal(t, 3, s.Workers)
	assert.Equal(t, "config.yaml", s.ConfigFileUsed)
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{name: "missing input", args: []string{}},
		{name: "workers above bound", args: []string{"--input", "in", "--workers", "17"}},
		{name: "workers zero", args: []string{"--input", "in", "--workers", "0"}},
		{name: "unknown backend", args: []string{"--input", "in", "--backend", "ghostscript"}},
		{name: "unknown extension", args: []string{"--input", "in", "--out-ext", "pdf"}},
		{name: "unknown language", args: []string{"--input", "in", "--lang", "fr"}},
		{name: "unknown summary format", args: []string{"--input", "in", "--summary-format", "xml"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := newFlagSet(t, tt.args...)
			_, err := config.Load("", fs)
			require.Error(t, err)
			assert.ErrorIs(t, err, distill.ErrInvalidOptions)
		})
	}
}

func TestLoadInvalidLevelInFile(t *testing.T) {
	cfg := filepath.Join(t.TempDir(), "config.yaml")
	testutil.WriteFile(t, cfg, "logging:\n  level: loud\n")

	fs := newFlagSet(t, "--input", "in")
	_, err := config.Load(cfg, fs)
	require.Error(t, err)
	assert.ErrorIs(t, err, distill.ErrInvalidOptions)
}

func TestLoadQuietAndProgressFlags(t *testing.T) {
	fs := newFlagSet(t, "--input", "in", "--quiet")
	s, err := config.Load("", fs)
	require.NoError(t, err)
	assert.True(t, s.Quiet)
	assert.False(t, s.Progress, "quiet implies no progress display")

	fs = newFlagSet(t, "--input", "in", "--no-progress")
	s, err = config.Load("", fs)
	require.NoError(t, err)
	assert.False(t, s.Progress)
	assert.False(t, s.Quiet)
}

func TestLoadVerboseForcesDebugLevel(t *testing.T) {
	fs := newFlagSet(t, "--input", "in", "--verbose")
	s, err := config.Load("", fs)
	require.NoError(t, err)
	assert.True(t, s.Verbose)
	assert.Equal(t, slog.LevelDebug, s.LogLevel)
}

func TestLoadLanguageAndExtFlags(t *testing.T) {
	fs := newFlagSet(t, "--input", "in", "--lang", "ES", "--out-ext", ".MD")
	s, err := config.Load("", fs)
	require.NoError(t, err)
	assert.Equal(t, language.Spanish, s.Language)
	assert.Equal(t, distill.OutputMarkdown, s.OutputExt)
}

func TestEngineOptionsMapping(t *testing.T) {
	fs := newFlagSet(t,
		"--input", "corpus",
		"--output-root", "converted",
		"--out-ext", "md",
		"--lang", "en",
		"--pattern", "report-*.pdf",
		"--recursive",
		"--workers", "6",
		"--fail-fast",
		"--backend", "native",
	)
	s, err := config.Load("", fs)
	require.NoError(t, err)

	opts := s.EngineOptions()
	assert.Equal(t, "corpus", opts.InputPath)
	assert.Equal(t, "converted", opts.OutputRoot)
	assert.Equal(t, distill.OutputMarkdown, opts.OutputExt)
	assert.Equal(t, language.English, opts.Language)
	assert.Equal(t, "report-*.pdf", opts.Pattern)
	assert.True(t, opts.Recursive)
	assert.Equal(t, 6, opts.Workers)
	assert.True(t, opts.FailFast)
	assert.Equal(t, "native", opts.Backend)
	assert.Nil(t, opts.Converter, "backend wiring happens in the cli layer")
}
