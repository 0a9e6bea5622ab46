package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"slurmboard/cmd/slurmboard/ui"
	"slurmboard/internal/logging"
	"slurmboard/internal/slurm"
)

type utilizationJSON struct {
	Utilized    float64 `json:"utilized"`
	Allocated   float64 `json:"allocated"`
	Blocked     float64 `json:"blocked"`
	Unavailable float64 `json:"unavailable"`
	Capacity    float64 `json:"capacity"`
}

type nodeJSON struct {
	Name      string          `json:"name"`
	State     string          `json:"state"`
	Available bool            `json:"available"`
	Jobs      int             `json:"jobs"`
	Users     int             `json:"users"`
	CPU       utilizationJSON `json:"cpu"`
	Mem       utilizationJSON `json:"mem"`
	GPU       utilizationJSON `json:"gpu"`
}

type partitionJSON struct {
	Name      string          `json:"name"`
	Default   bool            `json:"default"`
	NodeCount int             `json:"node_count"`
	Jobs      int             `json:"jobs"`
	Users     int             `json:"users"`
	CPU       utilizationJSON `json:"cpu"`
	Mem       utilizationJSON `json:"mem"`
	GPU       utilizationJSON `json:"gpu"`
	Nodes     []nodeJSON      `json:"nodes,omitempty"`
}

type snapshotJSON struct {
	CollectedAt time.Time       `json:"collected_at"`
	Partitions  []partitionJSON `json:"partitions"`
}

func toUtilizationJSON(u slurm.Utilization) utilizationJSON {
	return utilizationJSON{
		Utilized:    u.Utilized,
		Allocated:   u.Allocated,
		Blocked:     u.Blocked,
		Unavailable: u.Unavailable,
		Capacity:    u.Capacity,
	}
}

func newSnapshotCmd(flags *globalFlags, log func() *zap.Logger) *cobra.Command {
	var asJSON, withNodes bool

	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Collect once and print a utilization summary",
		Long: `Queries Slurm once and prints one line per partition with its CPU,
memory and GPU allocation. Use --nodes to list every node as well.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			defer logging.CloseAll()
			logger := log()

			ctx, cancel := context.WithTimeout(cmd.Context(), 2*cfg.GetCommandTimeout())
			defer cancel()

			logger.Debug("Collecting snapshot", zap.String("fixtures", cfg.Commands.Fixtures))
			_, cluster, err := collectOnce(ctx, newCollector(cfg, newExecutor(cfg)))
			if err != nil {
				return fmt.Errorf("failed to query slurm: %w", err)
			}
			logger.Debug("Snapshot collected", zap.Int("partitions", len(cluster.Partitions)))

			out := cmd.OutOrStdout()
			if asJSON {
				return writeSnapshotJSON(out, cluster, cfg.DefMemPerCPU, withNodes)
			}
			writeSnapshotTables(out, cluster, cfg.DefMemPerCPU, withNodes)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON instead of tables")
	cmd.Flags().BoolVar(&withNodes, "nodes", false, "Include per-node rows")
	return cmd
}

func writeSnapshotJSON(w io.Writer, cluster *slurm.Cluster, memPerCPU int, withNodes bool) error {
	snap := snapshotJSON{CollectedAt: cluster.CollectedAt, Partitions: []partitionJSON{}}
	for _, p := range cluster.Partitions {
		u := p.Utilization(memPerCPU)
		pj := partitionJSON{
			Name:      p.Name.Label,
			Default:   p.Name.Default,
			NodeCount: len(p.Nodes),
			Jobs:      len(p.Jobs),
			Users:     p.Users(),
			CPU:       toUtilizationJSON(u.CPU),
			Mem:       toUtilizationJSON(u.Mem),
			GPU:       toUtilizationJSON(u.GPU),
		}
		if withNodes {
			for _, n := range p.Nodes {
				perCPU := n.MemPerCPU(memPerCPU)
				pj.Nodes = append(pj.Nodes, nodeJSON{
					Name:      n.Name,
					State:     n.State.String(),
					Available: n.State.IsAvailable(),
					Jobs:      len(n.Jobs),
					Users:     n.Users(),
					CPU:       toUtilizationJSON(n.CPUUtilization(perCPU)),
					Mem:       toUtilizationJSON(n.MemUtilization()),
					GPU:       toUtilizationJSON(n.GPUUtilization(perCPU)),
				})
			}
		}
		snap.Partitions = append(snap.Partitions, pj)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(snap)
}

func writeSnapshotTables(w io.Writer, cluster *slurm.Cluster, memPerCPU int, withNodes bool) {
	styles := ui.DefaultStyles()

	partitions := ui.NewSimpleTable("Partitions", []string{"Partition", "Nodes", "Jobs", "Users", "CPUs", "Memory", "GPUs"}).
		AlignRight(1, 2, 3, 4, 5, 6)
	for _, p := range cluster.Partitions {
		u := p.Utilization(memPerCPU)
		partitions.AddRow(
			p.Name.String(),
			strconv.Itoa(len(p.Nodes)),
			strconv.Itoa(len(p.Jobs)),
			strconv.Itoa(p.Users()),
			formatAllocation(u.CPU, formatCount),
			formatAllocation(u.Mem, formatMem),
			formatAllocation(u.GPU, formatCount),
		)
	}
	fmt.Fprint(w, partitions.View(styles))

	if !withNodes {
		return
	}
	nodes := ui.NewSimpleTable("Nodes", []string{"Node", "Partition", "State", "Jobs", "Users", "CPUs", "Memory", "GPUs"}).
		AlignRight(3, 4, 5, 6, 7)
	for _, p := range cluster.Partitions {
		for _, n := range p.Nodes {
			perCPU := n.MemPerCPU(memPerCPU)
			nodes.AddRow(
				n.Name,
				p.Name.String(),
				n.State.String(),
				strconv.Itoa(len(n.Jobs)),
				strconv.Itoa(n.Users()),
				formatAllocation(n.CPUUtilization(perCPU), formatCount),
				formatAllocation(n.MemUtilization(), formatMem),
				formatAllocation(n.GPUUtilization(perCPU), formatCount),
			)
		}
	}
	fmt.Fprintln(w)
	fmt.Fprint(w, nodes.View(styles))
}

func formatCount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatMem(v float64) string {
	return ui.FormatMB(int(v))
}

// formatAllocation renders "allocated/capacity", or "-" for resources the
// partition does not have.
func formatAllocation(u slurm.Utilization, format func(float64) string) string {
	if u.Capacity <= 0 {
		return "-"
	}
	return format(u.Allocated) + "/" + format(u.Capacity)
}
