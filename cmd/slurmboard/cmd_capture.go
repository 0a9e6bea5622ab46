package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"slurmboard/internal/logging"
	"slurmboard/internal/runner"
)

func newCaptureCmd(flags *globalFlags, log func() *zap.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "capture DIR",
		Short: "Save the raw output of every Slurm query as fixtures",
		Long: `Runs each Slurm query once and writes its output to DIR, one file per
query. Point --fixtures at DIR to run the dashboard from the capture.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			defer logging.CloseAll()
			logger := log()

			dir := args[0]
			exec := &runner.CaptureExecutor{Next: newExecutor(cfg), Dir: dir}
			collector := newCollector(cfg, exec)

			ctx, cancel := context.WithTimeout(cmd.Context(), 2*cfg.GetCommandTimeout())
			defer cancel()
			if err := collector.Capture(ctx); err != nil {
				return fmt.Errorf("capture failed: %w", err)
			}

			out := cmd.OutOrStdout()
			for _, c := range collector.Commands() {
				path := runner.FixturePath(dir, c)
				logger.Debug("Captured", zap.String("command", c.String()), zap.String("path", path))
				fmt.Fprintln(out, path)
			}
			return nil
		},
	}
}
