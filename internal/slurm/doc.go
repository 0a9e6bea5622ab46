// Package slurm collects and parses the state of a Slurm cluster.
//
// Nodes come from `sinfo -N`, jobs from `squeue` and default memory
// allocations from `scontrol show config` and `scontrol show partition`.
// All commands run through a runner.Executor, so captured output can be
// replayed in place of a live cluster.
package slurm
