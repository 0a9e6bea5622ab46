// Package runner is the subprocess layer: it runs the Slurm command line
// tools and hands their raw output to the parsers. Executors are swappable so
// captured output can be replayed without a cluster.
package runner

import (
	"fmt"
	"strings"
	"time"
)

// Command describes one invocation of a Slurm tool.
type Command struct {
	// Name is a stable logical key ("sinfo", "scontrol-config", ...).
	// Fixture files are named after it.
	Name string

	// Binary is the executable to run.
	Binary string

	// Args are the command-line arguments.
	Args []string

	// Timeout bounds the run; zero means the executor default.
	Timeout time.Duration
}

// String returns the full command line for display/logging.
func (c Command) String() string {
	if len(c.Args) == 0 {
		return c.Binary
	}
	return c.Binary + " " + strings.Join(c.Args, " ")
}

// Result holds the captured output of a finished command.
type Result struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
	Duration time.Duration
}

// CommandError reports a command that could not produce usable output.
type CommandError struct {
	Command  Command
	ExitCode int
	Stderr   string
	Err      error
}

func (e *CommandError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s failed", e.Command.Name)
	if e.ExitCode > 0 {
		fmt.Fprintf(&sb, " with exit code %d", e.ExitCode)
	}
	if e.Err != nil {
		fmt.Fprintf(&sb, ": %v", e.Err)
	}
	if e.Stderr != "" {
		fmt.Fprintf(&sb, ": %s", e.Stderr)
	}
	return sb.String()
}

func (e *CommandError) Unwrap() error {
	return e.Err
}
