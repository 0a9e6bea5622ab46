package slurm

import (
	"sort"
	"strings"
	"time"

	"slurmboard/internal/logging"
)

// Partition groups the node rows and jobs of one Slurm partition.
type Partition struct {
	Name  PartitionName
	Nodes []*Node
	// Jobs are the unique jobs submitted to the partition, including
	// pending jobs without nodes.
	Jobs []*Job
}

// Users returns the number of distinct users with jobs in the partition.
func (p *Partition) Users() int {
	return usersOf(p.Jobs)
}

// Cluster is one consistent snapshot of the cluster.
type Cluster struct {
	Partitions  []*Partition
	CollectedAt time.Time
}

// Partition returns the partition with the given label, or nil.
func (c *Cluster) Partition(label string) *Partition {
	for _, p := range c.Partitions {
		if p.Name.Label == label {
			return p
		}
	}
	return nil
}

// Jobs returns every job in the snapshot once.
func (c *Cluster) Jobs() []*Job {
	seen := make(map[*Job]bool)
	var jobs []*Job
	for _, p := range c.Partitions {
		for _, j := range p.Jobs {
			if !seen[j] {
				seen[j] = true
				jobs = append(jobs, j)
			}
		}
	}
	return jobs
}

// Assemble joins jobs onto nodes and groups nodes into partitions. Every
// row of a node receives all jobs running on it, whatever partition the row
// belongs to. cfg may be nil.
func Assemble(nodes []*Node, jobs []*Job, cfg *Config) []*Partition {
	byNode := make(map[string][]*Job)
	for _, job := range jobs {
		for _, name := range job.Nodelist {
			byNode[name] = append(byNode[name], job)
		}
	}

	byLabel := make(map[string]*Partition)
	var partitions []*Partition
	for _, node := range nodes {
		node.Jobs = byNode[node.Name]
		node.DefMem = cfg.NodeDefaultMem(node.Partition.Label)

		p, ok := byLabel[node.Partition.Label]
		if !ok {
			p = &Partition{Name: node.Partition}
			byLabel[node.Partition.Label] = p
			partitions = append(partitions, p)
		}
		p.Nodes = append(p.Nodes, node)
	}

	unmatched := 0
	for _, job := range jobs {
		matched := false
		// Pending jobs list every partition they were submitted to.
		for _, label := range strings.Split(job.Partition.Label, ",") {
			if p, ok := byLabel[label]; ok {
				p.Jobs = append(p.Jobs, job)
				matched = true
			}
		}
		if !matched {
			unmatched++
			logging.CollectDebug("Job %s in partition %q matches no node partition", job.ID, job.Partition.Label)
		}
	}
	if unmatched > 0 {
		logging.CollectWarn("%d jobs match no known partition", unmatched)
	}

	sort.SliceStable(partitions, func(i, j int) bool {
		a, b := partitions[i], partitions[j]
		if len(a.Nodes) != len(b.Nodes) {
			return len(a.Nodes) > len(b.Nodes)
		}
		return a.Name.Label < b.Name.Label
	})
	return partitions
}
