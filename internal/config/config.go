package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v3"
)

// Config holds all slurmboard configuration.
type Config struct {
	// Refresh interval; "0" disables automatic refreshes.
	Interval string `yaml:"interval"`

	// DefMemPerCPU overrides the Slurm DefMemPerCPU (MB) when positive.
	DefMemPerCPU int `yaml:"def_mem_per_cpu"`

	HideUnavailable bool   `yaml:"hide_unavailable"`
	Theme           string `yaml:"theme"` // auto, dark, light

	Commands CommandsConfig `yaml:"commands"`
	History  HistoryConfig  `yaml:"history"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// CommandsConfig configures how Slurm is queried.
type CommandsConfig struct {
	Sinfo    string `yaml:"sinfo"`
	Squeue   string `yaml:"squeue"`
	Scontrol string `yaml:"scontrol"`
	Timeout  string `yaml:"timeout"`

	// Fixtures replays captured output from this directory instead of
	// running the commands.
	Fixtures string `yaml:"fixtures,omitempty"`
}

// HistoryConfig configures the utilization history database.
type HistoryConfig struct {
	Enabled      bool   `yaml:"enabled"`
	DatabasePath string `yaml:"database_path"`
	Retention    string `yaml:"retention"`
}

// ValidThemes lists the accepted theme settings.
var ValidThemes = []string{"auto", "dark", "light"}

const (
	// MinInterval is the shortest automatic refresh interval.
	MinInterval = time.Second

	defaultInterval  = 5 * time.Second
	defaultTimeout   = 30 * time.Second
	defaultRetention = 30 * 24 * time.Hour
)

// DefaultConfigPath returns $XDG_CONFIG_HOME/slurmboard/config.yaml,
// falling back to ~/.config.
func DefaultConfigPath() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		dir = filepath.Join(homeDir(), ".config")
	}
	return filepath.Join(dir, "slurmboard", "config.yaml")
}

// DefaultDataDir returns $XDG_DATA_HOME/slurmboard, falling back to
// ~/.local/share/slurmboard.
func DefaultDataDir() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, "slurmboard")
	}
	return filepath.Join(homeDir(), ".local", "share", "slurmboard")
}

func homeDir() string {
	if home, err := os.UserHomeDir(); err == nil {
		return home
	}
	return "."
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	dataDir := DefaultDataDir()
	return &Config{
		Interval: defaultInterval.String(),
		Theme:    "auto",

		Commands: CommandsConfig{
			Sinfo:    "sinfo",
			Squeue:   "squeue",
			Scontrol: "scontrol",
			Timeout:  defaultTimeout.String(),
		},

		History: HistoryConfig{
			Enabled:      false,
			DatabasePath: filepath.Join(dataDir, "history.db"),
			Retention:    defaultRetention.String(),
		},

		Logging: LoggingConfig{
			Level:     "info",
			Format:    "text",
			Dir:       filepath.Join(dataDir, "logs"),
			DebugMode: false,
		},
	}
}

// Load loads configuration from a YAML file. A missing file yields the
// defaults; environment overrides apply in both cases.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("SLURMBOARD_INTERVAL"); v != "" {
		c.Interval = v
	}
	if v := os.Getenv("SLURMBOARD_THEME"); v != "" {
		c.Theme = v
	}
	if v := os.Getenv("SLURMBOARD_DB"); v != "" {
		c.History.DatabasePath = v
	}
	if v := os.Getenv("SLURMBOARD_FIXTURES"); v != "" {
		c.Commands.Fixtures = v
	}
	if v := os.Getenv("SLURMBOARD_DEBUG"); v != "" {
		if debug, err := strconv.ParseBool(v); err == nil {
			c.Logging.DebugMode = debug
		}
	}
}

// GetInterval returns the refresh interval. Zero disables refreshes; other
// values are raised to MinInterval.
func (c *Config) GetInterval() time.Duration {
	d, err := parseDuration(c.Interval)
	if err != nil || d < 0 {
		return defaultInterval
	}
	if d > 0 && d < MinInterval {
		return MinInterval
	}
	return d
}

// GetCommandTimeout returns the per-command timeout.
func (c *Config) GetCommandTimeout() time.Duration {
	d, err := parseDuration(c.Commands.Timeout)
	if err != nil || d <= 0 {
		return defaultTimeout
	}
	return d
}

// GetRetention returns how long history samples are kept.
func (c *Config) GetRetention() time.Duration {
	d, err := parseDuration(c.History.Retention)
	if err != nil || d <= 0 {
		return defaultRetention
	}
	return d
}

// parseDuration accepts Go durations plus a bare "0".
func parseDuration(s string) (time.Duration, error) {
	if s == "0" {
		return 0, nil
	}
	return time.ParseDuration(s)
}

// Validate reports every problem in the configuration at once.
func (c *Config) Validate() error {
	var result *multierror.Error

	if d, err := parseDuration(c.Interval); err != nil {
		result = multierror.Append(result, fmt.Errorf("invalid interval %q: %w", c.Interval, err))
	} else if d < 0 {
		result = multierror.Append(result, fmt.Errorf("interval must not be negative, got %s", d))
	}

	if c.DefMemPerCPU < 0 {
		result = multierror.Append(result, fmt.Errorf("def_mem_per_cpu must not be negative, got %d", c.DefMemPerCPU))
	}

	validTheme := false
	for _, t := range ValidThemes {
		if c.Theme == t {
			validTheme = true
			break
		}
	}
	if !validTheme {
		result = multierror.Append(result, fmt.Errorf("invalid theme %q (valid: %v)", c.Theme, ValidThemes))
	}

	for _, cmd := range []struct{ name, binary string }{
		{"sinfo", c.Commands.Sinfo},
		{"squeue", c.Commands.Squeue},
		{"scontrol", c.Commands.Scontrol},
	} {
		if cmd.binary == "" {
			result = multierror.Append(result, fmt.Errorf("commands.%s must not be empty", cmd.name))
		}
	}

	if d, err := parseDuration(c.Commands.Timeout); err != nil || d <= 0 {
		result = multierror.Append(result, fmt.Errorf("invalid commands.timeout %q", c.Commands.Timeout))
	}

	if c.History.Enabled {
		if c.History.DatabasePath == "" {
			result = multierror.Append(result, fmt.Errorf("history.database_path must be set when history is enabled"))
		}
		if d, err := parseDuration(c.History.Retention); err != nil || d <= 0 {
			result = multierror.Append(result, fmt.Errorf("invalid history.retention %q", c.History.Retention))
		}
	}

	if err := c.Logging.Validate(); err != nil {
		result = multierror.Append(result, err)
	}

	return result.ErrorOrNil()
}
