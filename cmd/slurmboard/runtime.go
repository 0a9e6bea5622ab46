package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"slurmboard/internal/config"
	"slurmboard/internal/logging"
	"slurmboard/internal/runner"
	"slurmboard/internal/slurm"
	"slurmboard/internal/store"
)

func (f *globalFlags) path() string {
	if f.configPath != "" {
		return f.configPath
	}
	return config.DefaultConfigPath()
}

// apply overrides config values with the flags that were given.
func (f *globalFlags) apply(cfg *config.Config) {
	if f.interval != "" {
		cfg.Interval = f.interval
	}
	if f.fixtures != "" {
		cfg.Commands.Fixtures = f.fixtures
	}
}

// loadConfig loads, overrides and validates the configuration, then sets up
// file logging from it.
func loadConfig(f *globalFlags) (*config.Config, error) {
	path := f.path()
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	f.apply(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	if err := logging.Initialize(cfg.Logging.Options()); err != nil {
		return nil, fmt.Errorf("failed to initialize logging: %w", err)
	}
	logging.Boot("Loaded config from %s (interval=%s, fixtures=%q)", path, cfg.GetInterval(), cfg.Commands.Fixtures)
	return cfg, nil
}

// newExecutor replays fixtures when configured and runs the Slurm tools
// otherwise.
func newExecutor(cfg *config.Config) runner.Executor {
	if dir := cfg.Commands.Fixtures; dir != "" {
		return runner.NewFixtureExecutor(dir)
	}
	return runner.NewDirectExecutor(cfg.GetCommandTimeout())
}

func newCollector(cfg *config.Config, exec runner.Executor) *slurm.Collector {
	return slurm.NewCollector(exec, slurm.Binaries{
		Sinfo:    cfg.Commands.Sinfo,
		Squeue:   cfg.Commands.Squeue,
		Scontrol: cfg.Commands.Scontrol,
	}, cfg.GetCommandTimeout())
}

// collectOnce queries the configuration and then the cluster state.
func collectOnce(ctx context.Context, collector *slurm.Collector) (*slurm.Config, *slurm.Cluster, error) {
	slurmCfg, err := collector.Config(ctx)
	if err != nil {
		return nil, nil, err
	}
	cluster, err := collector.Collect(ctx, slurmCfg)
	if err != nil {
		return nil, nil, err
	}
	return slurmCfg, cluster, nil
}

func openHistory(cfg *config.Config, logger *zap.Logger) (*store.History, error) {
	path := cfg.History.DatabasePath
	if path == "" {
		return nil, fmt.Errorf("history.database_path is not set")
	}
	logger.Debug("Opening history", zap.String("path", path))
	h, err := store.OpenHistory(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history %s: %w", path, err)
	}
	return h, nil
}
