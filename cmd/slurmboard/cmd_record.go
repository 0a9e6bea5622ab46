package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"slurmboard/cmd/slurmboard/ui"
	"slurmboard/internal/config"
	"slurmboard/internal/logging"
	"slurmboard/internal/slurm"
	"slurmboard/internal/store"
)

func newRecordCmd(flags *globalFlags, log func() *zap.Logger) *cobra.Command {
	var once bool

	cmd := &cobra.Command{
		Use:   "record",
		Short: "Append utilization samples to the history database",
		Long: `Collects the cluster state every interval and stores one sample per
partition and resource. Samples older than history.retention are pruned
after each collection. Stops on SIGINT or SIGTERM.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			defer logging.CloseAll()
			logger := log()

			interval := cfg.GetInterval()
			if !once && interval <= 0 {
				return fmt.Errorf("record needs a positive interval (got %q); use --once for a single sample", cfg.Interval)
			}

			history, err := openHistory(cfg, logger)
			if err != nil {
				return err
			}
			defer history.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			rec := &recorder{
				cfg:       cfg,
				collector: newCollector(cfg, newExecutor(cfg)),
				history:   history,
				logger:    logger,
			}
			if err := rec.recordOnce(ctx); err != nil || once {
				return unwrapPermanent(err)
			}

			logger.Info("Recording", zap.Duration("interval", interval), zap.String("db", history.Path()))
			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					logger.Info("Received shutdown signal")
					return nil
				case <-ticker.C:
					if err := rec.recordWithRetry(ctx, interval/2); err != nil {
						if ctx.Err() != nil {
							return nil
						}
						// Skip this sample; the next tick tries again.
						logger.Warn("Recording failed", zap.Error(err))
						logging.CollectWarn("Recording failed: %v", err)
					}
				}
			}
		},
	}

	cmd.Flags().BoolVar(&once, "once", false, "Record a single sample and exit")
	return cmd
}

type recorder struct {
	cfg       *config.Config
	collector *slurm.Collector
	slurmCfg  *slurm.Config
	history   *store.History
	logger    *zap.Logger
}

// recordWithRetry retries failed Slurm queries with exponential backoff for
// at most maxElapsed. History errors are not retried.
func (r *recorder) recordWithRetry(ctx context.Context, maxElapsed time.Duration) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 250 * time.Millisecond
	b.MaxElapsedTime = maxElapsed
	return backoff.RetryNotify(func() error {
		return r.recordOnce(ctx)
	}, backoff.WithContext(b, ctx), func(err error, next time.Duration) {
		r.logger.Debug("Collection failed, retrying", zap.Error(err), zap.Duration("in", next))
	})
}

// recordOnce collects, stores and prunes. The Slurm configuration is
// queried on the first call only.
func (r *recorder) recordOnce(ctx context.Context) error {
	if r.slurmCfg == nil {
		cfg, err := r.collector.Config(ctx)
		if err != nil {
			return fmt.Errorf("failed to query slurm: %w", err)
		}
		r.slurmCfg = cfg
	}
	cluster, err := r.collector.Collect(ctx, r.slurmCfg)
	if err != nil {
		return fmt.Errorf("failed to query slurm: %w", err)
	}

	id, err := r.history.Record(ctx, cluster, r.cfg.DefMemPerCPU)
	if err != nil {
		return backoff.Permanent(err)
	}
	r.logger.Debug("Recorded snapshot", zap.String("id", id), zap.Int("partitions", len(cluster.Partitions)))

	cutoff := cluster.CollectedAt.Add(-r.cfg.GetRetention())
	pruned, err := r.history.Prune(ctx, cutoff)
	if err != nil {
		return backoff.Permanent(err)
	}
	if pruned > 0 {
		r.logger.Info("Pruned history", zap.Int64("rows", pruned), zap.Time("before", cutoff))
	}
	return nil
}

func unwrapPermanent(err error) error {
	var permanent *backoff.PermanentError
	if errors.As(err, &permanent) {
		return permanent.Err
	}
	return err
}

func newHistoryCmd(flags *globalFlags, log func() *zap.Logger) *cobra.Command {
	var (
		partition string
		resource  string
		since     time.Duration
		limit     int
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Print recorded utilization samples",
		Long: `Prints samples from the history database, newest first.

Example:
  slurmboard history --partition gpu --resource gpu --since 24h`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if resource != "" && !validResource(resource) {
				return fmt.Errorf("invalid resource %q (valid: %v)", resource, store.ValidResources)
			}
			if since < 0 {
				return fmt.Errorf("--since must not be negative")
			}

			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			defer logging.CloseAll()

			history, err := openHistory(cfg, log())
			if err != nil {
				return err
			}
			defer history.Close()

			filter := store.Filter{Partition: partition, Resource: resource, Limit: limit}
			if since > 0 {
				filter.Since = time.Now().Add(-since)
			}
			samples, err := history.Query(cmd.Context(), filter)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(samples) == 0 {
				fmt.Fprintln(out, "No samples recorded.")
				return nil
			}
			fmt.Fprint(out, historyTable(samples).View(ui.DefaultStyles()))
			return nil
		},
	}

	cmd.Flags().StringVar(&partition, "partition", "", "Only show this partition")
	cmd.Flags().StringVar(&resource, "resource", "", "Only show this resource (cpu, mem, gpu)")
	cmd.Flags().DurationVar(&since, "since", 0, "Only show samples newer than this, e.g. 24h")
	cmd.Flags().IntVar(&limit, "limit", 50, "Maximum number of samples (0 for all)")
	return cmd
}

func validResource(resource string) bool {
	for _, r := range store.ValidResources {
		if r == resource {
			return true
		}
	}
	return false
}

func historyTable(samples []store.Sample) *ui.SimpleTable {
	table := ui.NewSimpleTable("History", []string{
		"Time", "Partition", "Resource", "Utilized", "Allocated", "Blocked", "Unavailable", "Capacity", "Jobs", "Users",
	}).AlignRight(3, 4, 5, 6, 7, 8, 9)

	for _, s := range samples {
		format := formatCount
		if s.Resource == store.ResourceMem {
			format = formatMem
		}
		table.AddRow(
			s.CollectedAt.Local().Format("2006-01-02 15:04:05"),
			s.Partition,
			s.Resource,
			format(s.Utilized),
			format(s.Allocated),
			format(s.Blocked),
			format(s.Unavailable),
			format(s.Capacity),
			strconv.Itoa(s.Jobs),
			strconv.Itoa(s.Users),
		)
	}
	return table
}
