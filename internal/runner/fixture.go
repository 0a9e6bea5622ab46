package runner

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"slurmboard/internal/logging"
)

// FixtureSuffix is appended to Command.Name to form fixture file names.
const FixtureSuffix = ".txt"

// FixturePath returns the file a command's output is replayed from.
func FixturePath(dir string, cmd Command) string {
	return filepath.Join(dir, cmd.Name+FixtureSuffix)
}

// FixtureExecutor replays previously captured output instead of running
// anything. It lets the dashboard run away from a cluster.
type FixtureExecutor struct {
	Dir string
}

// NewFixtureExecutor creates an executor reading fixtures from dir.
func NewFixtureExecutor(dir string) *FixtureExecutor {
	return &FixtureExecutor{Dir: dir}
}

// Execute returns the content of <Dir>/<Name>.txt as stdout.
func (e *FixtureExecutor) Execute(ctx context.Context, cmd Command) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, &CommandError{Command: cmd, Err: err}
	}

	path := FixturePath(e.Dir, cmd)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &CommandError{Command: cmd, Err: fmt.Errorf("reading fixture %s: %w", path, err)}
	}
	logging.ExecDebug("Replayed %s from %s (%d bytes)", cmd.Name, path, len(data))
	return &Result{Stdout: data}, nil
}

// CaptureExecutor runs commands through Next and saves each successful stdout
// as a fixture in Dir.
type CaptureExecutor struct {
	Next Executor
	Dir  string
}

// Execute delegates to Next and writes the output to <Dir>/<Name>.txt.
func (e *CaptureExecutor) Execute(ctx context.Context, cmd Command) (*Result, error) {
	result, err := e.Next.Execute(ctx, cmd)
	if err != nil {
		return result, err
	}
	if err := os.MkdirAll(e.Dir, 0755); err != nil {
		return result, fmt.Errorf("failed to create fixture directory: %w", err)
	}
	path := FixturePath(e.Dir, cmd)
	if err := os.WriteFile(path, result.Stdout, 0644); err != nil {
		return result, fmt.Errorf("failed to write fixture %s: %w", path, err)
	}
	logging.Exec("Captured %s to %s", cmd.Name, path)
	return result, nil
}
