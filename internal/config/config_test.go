package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askiada/go-curate/internal/config"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "absent.toml")
	cfg, resolved, exists, err := config.Load(path)
	require.NoError(t, err)
	assert.False(t, exists)
	assert.Equal(t, path, resolved)
	assert.Equal(t, config.Default(), *cfg)
}

func TestLoadFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeConfig(t, `
[engine]
workers = 4
track_history = true

[logging]
level = " DEBUG "
format = "JSON"

[output]
report_path = "`+filepath.Join(dir, "report.txt")+`"
results_db = "results/../runs.db"
`)

	cfg, _, exists, err := config.Load(path)
	require.NoError(t, err)
	assert.True(t, exists)
	assert.Equal(t, 4, cfg.Engine.Workers)
	assert.True(t, cfg.Engine.TrackHistory)
	assert.False(t, cfg.Engine.SuppressWarnings)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, filepath.Join(dir, "report.txt"), cfg.Output.ReportPath)
	assert.True(t, filepath.IsAbs(cfg.Output.ResultsDB))
	assert.Equal(t, "runs.db", filepath.Base(cfg.Output.ResultsDB))
	assert.Empty(t, cfg.Output.DrawingPath)
}

func TestLoadRejects(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		body string
		want string
	}{
		"negative workers": {body: "[engine]\nworkers = -1\n", want: "engine.workers"},
		"bad format":       {body: "[logging]\nformat = \"xml\"\n", want: "logging.format"},
		"bad level":        {body: "[logging]\nlevel = \"loud\"\n", want: "logging.level"},
		"unknown key":      {body: "[engine]\nthreads = 3\n", want: "parse config"},
		"not toml":         {body: "[engine\n", want: "parse config"},
	}

	for name, tc := range tcs {
		tc := tc
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			_, _, _, err := config.Load(writeConfig(t, tc.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestApply(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	workers := 3
	history := true
	require.NoError(t, cfg.Apply(config.Overrides{Workers: &workers, History: &history, LogLevel: "WARN", DrawingPath: "run.dot"}))
	assert.Equal(t, 3, cfg.Engine.Workers)
	assert.True(t, cfg.Engine.TrackHistory)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, "console", cfg.Logging.Format)
	assert.True(t, filepath.IsAbs(cfg.Output.DrawingPath))

	require.NoError(t, cfg.Apply(config.Overrides{}))
	assert.Equal(t, 3, cfg.Engine.Workers)

	assert.Error(t, cfg.Apply(config.Overrides{LogFormat: "yaml"}))
}

func TestEncodeRoundTrip(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	cfg.Engine.Workers = 8
	out, err := cfg.Encode()
	require.NoError(t, err)
	assert.True(t, strings.Contains(out, "[engine]"))

	var back config.Config
	require.NoError(t, toml.Unmarshal([]byte(out), &back))
	assert.Equal(t, cfg, back)
}
