package runner

import (
	"context"
)

// Executor is the interface for command execution.
type Executor interface {
	// Execute runs a command and returns its output. A non-zero exit is
	// reported as a *CommandError.
	Execute(ctx context.Context, cmd Command) (*Result, error)
}
