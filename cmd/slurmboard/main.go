// Command slurmboard is a terminal dashboard for Slurm clusters.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"slurmboard/internal/config"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

// globalFlags are shared by every command.
type globalFlags struct {
	configPath string
	interval   string
	fixtures   string
	verbose    bool
}

// newRootCmd builds the command tree. Each call returns fresh flag state.
func newRootCmd() *cobra.Command {
	flags := &globalFlags{}
	var logger *zap.Logger

	rootCmd := &cobra.Command{
		Use:   "slurmboard",
		Short: "Terminal dashboard for Slurm clusters",
		Long: `slurmboard shows CPU, memory and GPU utilization of a Slurm cluster per
partition and node, together with the jobs running on them.

Run without arguments to start the interactive dashboard.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// The dashboard owns the terminal; it only logs to files.
			if cmd.Parent() == nil || !flags.verbose {
				logger = zap.NewNop()
				return nil
			}

			zapConfig := zap.NewDevelopmentConfig()
			zapConfig.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
			zapConfig.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
			var err error
			logger, err = zapConfig.Build()
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if logger != nil {
				_ = logger.Sync()
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDashboard(cmd, flags)
		},
	}
	rootCmd.SetVersionTemplate("slurmboard v{{.Version}}\n")

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", "", "Config file (default: "+config.DefaultConfigPath()+")")
	pf.StringVar(&flags.interval, "interval", "", "Refresh interval, e.g. 5s (0 disables automatic refresh)")
	pf.StringVar(&flags.fixtures, "fixtures", "", "Replay captured Slurm output from this directory")
	pf.BoolVar(&flags.verbose, "verbose", false, "Log progress of non-interactive commands to stderr")

	log := func() *zap.Logger { return logger }
	rootCmd.AddCommand(newSnapshotCmd(flags, log))
	rootCmd.AddCommand(newRecordCmd(flags, log))
	rootCmd.AddCommand(newHistoryCmd(flags, log))
	rootCmd.AddCommand(newCaptureCmd(flags, log))
	return rootCmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
