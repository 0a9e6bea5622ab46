package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"slurmboard/cmd/slurmboard/ui"
	"slurmboard/internal/config"
	"slurmboard/internal/logging"
)

// runDashboard collects a first snapshot and then hands the terminal to the
// interactive model until the user quits.
func runDashboard(cmd *cobra.Command, flags *globalFlags) error {
	cfg, err := loadConfig(flags)
	if err != nil {
		return err
	}
	defer logging.CloseAll()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	collector := newCollector(cfg, newExecutor(cfg))
	slurmCfg, cluster, err := collectOnce(ctx, collector)
	if err != nil {
		return fmt.Errorf("failed to query slurm: %w", err)
	}

	opts := ui.Options{
		Context:     ctx,
		Source:      collector,
		Config:      cfg,
		SlurmConfig: slurmCfg,
		Cluster:     cluster,
	}
	if cfg.History.Enabled {
		history, err := openHistory(cfg, zap.NewNop())
		if err != nil {
			return err
		}
		defer history.Close()
		opts.Recorder = history
	}

	program := tea.NewProgram(
		ui.NewModel(opts),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithContext(ctx),
	)

	watcher, err := config.NewWatcher(flags.path(), func(reloaded *config.Config) {
		// Flags keep precedence over the file.
		flags.apply(reloaded)
		program.Send(ui.ConfigReloadedMsg{Config: reloaded})
	})
	if err != nil {
		logging.BootWarn("Config watcher unavailable: %v", err)
	} else {
		if err := watcher.Start(ctx); err != nil {
			logging.BootWarn("Not watching %s: %v", flags.path(), err)
		}
		defer watcher.Stop()
	}

	logging.Boot("Starting dashboard with %d partitions", len(cluster.Partitions))
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("dashboard failed: %w", err)
	}
	return nil
}
