package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvOverrides(t *testing.T) {
	t.Run("SLURMBOARD_INTERVAL", func(t *testing.T) {
		t.Setenv("SLURMBOARD_INTERVAL", "15s")
		cfg := &Config{Interval: "5s"}
		cfg.applyEnvOverrides()
		assert.Equal(t, "15s", cfg.Interval)
	})

	t.Run("SLURMBOARD_THEME", func(t *testing.T) {
		t.Setenv("SLURMBOARD_THEME", "light")
		cfg := &Config{Theme: "auto"}
		cfg.applyEnvOverrides()
		assert.Equal(t, "light", cfg.Theme)
	})

	t.Run("SLURMBOARD_DB", func(t *testing.T) {
		t.Setenv("SLURMBOARD_DB", "/scratch/history.db")
		cfg := &Config{}
		cfg.applyEnvOverrides()
		assert.Equal(t, "/scratch/history.db", cfg.History.DatabasePath)
	})

	t.Run("SLURMBOARD_FIXTURES", func(t *testing.T) {
		t.Setenv("SLURMBOARD_FIXTURES", "testdata")
		cfg := &Config{}
		cfg.applyEnvOverrides()
		assert.Equal(t, "testdata", cfg.Commands.Fixtures)
	})

	t.Run("SLURMBOARD_DEBUG", func(t *testing.T) {
		t.Setenv("SLURMBOARD_DEBUG", "true")
		cfg := &Config{}
		cfg.applyEnvOverrides()
		assert.True(t, cfg.Logging.DebugMode)
	})

	t.Run("invalid SLURMBOARD_DEBUG is ignored", func(t *testing.T) {
		t.Setenv("SLURMBOARD_DEBUG", "maybe")
		cfg := &Config{Logging: LoggingConfig{DebugMode: true}}
		cfg.applyEnvOverrides()
		assert.True(t, cfg.Logging.DebugMode)
	})

	t.Run("empty values do not override", func(t *testing.T) {
		t.Setenv("SLURMBOARD_INTERVAL", "")
		t.Setenv("SLURMBOARD_THEME", "")
		cfg := &Config{Interval: "5s", Theme: "dark"}
		cfg.applyEnvOverrides()
		assert.Equal(t, "5s", cfg.Interval)
		assert.Equal(t, "dark", cfg.Theme)
	})
}

func TestEnvOverrides_AppliedByLoad(t *testing.T) {
	t.Setenv("SLURMBOARD_INTERVAL", "1m")

	// Overrides apply even without a config file.
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "1m", cfg.Interval)
}
