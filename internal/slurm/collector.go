package slurm

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"slurmboard/internal/logging"
	"slurmboard/internal/runner"
)

// Logical command names; they double as fixture file names.
const (
	CommandSinfo             = "sinfo"
	CommandSqueue            = "squeue"
	CommandScontrolConfig    = "scontrol-config"
	CommandScontrolPartition = "scontrol-partition"
)

// Binaries holds the paths of the Slurm tools.
type Binaries struct {
	Sinfo    string
	Squeue   string
	Scontrol string
}

// DefaultBinaries resolves the tools through PATH.
func DefaultBinaries() Binaries {
	return Binaries{Sinfo: "sinfo", Squeue: "squeue", Scontrol: "scontrol"}
}

// Collector queries Slurm through an executor.
type Collector struct {
	Exec     runner.Executor
	Binaries Binaries
	// Timeout applies per command; zero uses the executor default.
	Timeout time.Duration
	now     func() time.Time
}

// NewCollector creates a collector using exec to run commands.
func NewCollector(exec runner.Executor, binaries Binaries, timeout time.Duration) *Collector {
	return &Collector{Exec: exec, Binaries: binaries, Timeout: timeout, now: time.Now}
}

// Commands returns every command the collector runs.
func (c *Collector) Commands() []runner.Command {
	return []runner.Command{
		c.command(CommandSinfo, c.Binaries.Sinfo, "-N", "--Format", formatString(sinfoFields)),
		c.command(CommandSqueue, c.Binaries.Squeue, "--Format", formatString(squeueFields)),
		c.command(CommandScontrolConfig, c.Binaries.Scontrol, "show", "config"),
		c.command(CommandScontrolPartition, c.Binaries.Scontrol, "show", "partition", "--oneline"),
	}
}

func (c *Collector) command(name, binary string, args ...string) runner.Command {
	return runner.Command{Name: name, Binary: binary, Args: args, Timeout: c.Timeout}
}

func (c *Collector) lookup(name string) runner.Command {
	for _, cmd := range c.Commands() {
		if cmd.Name == name {
			return cmd
		}
	}
	panic("unknown command " + name)
}

func (c *Collector) run(ctx context.Context, name string) ([]byte, error) {
	result, err := c.Exec.Execute(ctx, c.lookup(name))
	if err != nil {
		return nil, fmt.Errorf("running %s: %w", name, err)
	}
	return result.Stdout, nil
}

// Config queries the cluster and partition configuration concurrently.
func (c *Collector) Config(ctx context.Context) (*Config, error) {
	timer := logging.StartTimer(logging.CategoryCollect, "Config")
	defer timer.Stop()

	var configOut, partitionOut []byte
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		configOut, err = c.run(gctx, CommandScontrolConfig)
		return err
	})
	g.Go(func() (err error) {
		partitionOut, err = c.run(gctx, CommandScontrolPartition)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	cfg, err := ParseConfig(configOut)
	if err != nil {
		return nil, err
	}
	if err := ParsePartitions(cfg, partitionOut); err != nil {
		return nil, err
	}
	logging.Collect("Slurm config: default memory %s, %d partitions", cfg.DefaultMem, len(cfg.Partitions))
	return cfg, nil
}

// Collect runs sinfo and squeue concurrently and assembles a snapshot.
func (c *Collector) Collect(ctx context.Context, cfg *Config) (*Cluster, error) {
	timer := logging.StartTimer(logging.CategoryCollect, "Collect")
	defer timer.StopWithThreshold(2 * time.Second)

	var nodes []*Node
	var jobs []*Job
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		out, err := c.run(gctx, CommandSinfo)
		if err != nil {
			return err
		}
		if nodes, err = ParseNodes(out); err != nil {
			return fmt.Errorf("parsing %s output: %w", CommandSinfo, err)
		}
		return nil
	})
	g.Go(func() error {
		out, err := c.run(gctx, CommandSqueue)
		if err != nil {
			return err
		}
		if jobs, err = ParseJobs(out); err != nil {
			return fmt.Errorf("parsing %s output: %w", CommandSqueue, err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		logging.CollectWarn("Collection failed: %v", err)
		return nil, err
	}

	now := time.Now
	if c.now != nil {
		now = c.now
	}
	cluster := &Cluster{
		Partitions:  Assemble(nodes, jobs, cfg),
		CollectedAt: now(),
	}
	logging.Collect("Collected %d nodes, %d jobs in %d partitions", len(nodes), len(jobs), len(cluster.Partitions))
	return cluster, nil
}

// Capture runs every command once; used with runner.CaptureExecutor to
// record fixtures.
func (c *Collector) Capture(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, cmd := range c.Commands() {
		name := cmd.Name
		g.Go(func() error {
			_, err := c.run(gctx, name)
			return err
		})
	}
	return g.Wait()
}
