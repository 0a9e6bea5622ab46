package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"time"

	"slurmboard/internal/logging"
)

const (
	// DefaultTimeout applies when neither the command nor the executor sets one.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxOutputBytes caps captured stdout/stderr per stream.
	DefaultMaxOutputBytes = 64 << 20
)

// DirectExecutor executes commands directly on the host using os/exec.
type DirectExecutor struct {
	Timeout        time.Duration
	MaxOutputBytes int64
}

// NewDirectExecutor creates a direct executor with the given default timeout.
func NewDirectExecutor(timeout time.Duration) *DirectExecutor {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	logging.ExecDebug("Creating DirectExecutor: timeout=%s", timeout)
	return &DirectExecutor{Timeout: timeout, MaxOutputBytes: DefaultMaxOutputBytes}
}

// Execute runs a command directly on the host.
func (e *DirectExecutor) Execute(ctx context.Context, cmd Command) (*Result, error) {
	timer := logging.StartTimer(logging.CategoryExec, cmd.Name)
	defer timer.Stop()

	if cmd.Binary == "" {
		return nil, &CommandError{Command: cmd, Err: errors.New("binary is required")}
	}

	timeout := e.Timeout
	if cmd.Timeout > 0 {
		timeout = cmd.Timeout
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	maxOutput := e.MaxOutputBytes
	if maxOutput <= 0 {
		maxOutput = DefaultMaxOutputBytes
	}

	execCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	logging.ExecDebug("Executing: %s (timeout=%s)", cmd, timeout)

	execCmd := exec.CommandContext(execCtx, cmd.Binary, cmd.Args...)
	var stdoutBuf, stderrBuf bytes.Buffer
	stdout := &limitedWriter{w: &stdoutBuf, max: maxOutput}
	stderr := &limitedWriter{w: &stderrBuf, max: maxOutput}
	execCmd.Stdout = stdout
	execCmd.Stderr = stderr
	// Children that keep the pipes open must not outlive the deadline.
	execCmd.WaitDelay = time.Second

	start := time.Now()
	err := execCmd.Run()
	result := &Result{
		Stdout:   stdoutBuf.Bytes(),
		Stderr:   stderrBuf.Bytes(),
		Duration: time.Since(start),
	}

	if stdout.truncated || stderr.truncated {
		logging.ExecWarn("Output of %s truncated: %d bytes discarded", cmd.Name, stdout.discarded+stderr.discarded)
	}

	if err != nil {
		cmdErr := &CommandError{
			Command: cmd,
			Stderr:  strings.TrimSpace(string(result.Stderr)),
		}
		var exitErr *exec.ExitError
		switch {
		case ctx.Err() != nil:
			// The caller's deadline or cancellation came first.
			cmdErr.Err = context.Cause(ctx)
		case execCtx.Err() == context.DeadlineExceeded:
			cmdErr.Err = fmt.Errorf("timeout after %s", timeout)
		case errors.As(err, &exitErr):
			result.ExitCode = exitErr.ExitCode()
			cmdErr.ExitCode = result.ExitCode
		default:
			cmdErr.Err = err
		}
		logging.ExecWarn("Command failed: %v", cmdErr)
		return result, cmdErr
	}

	logging.Exec("Command completed: %s -> duration=%s, stdout=%d bytes", cmd.Name, result.Duration, len(result.Stdout))
	return result, nil
}

// limitedWriter is an io.Writer that limits total bytes written.
type limitedWriter struct {
	w         io.Writer
	max       int64
	written   int64
	truncated bool
	discarded int64
}

func (lw *limitedWriter) Write(p []byte) (int, error) {
	remaining := lw.max - lw.written
	if remaining <= 0 {
		lw.truncated = true
		lw.discarded += int64(len(p))
		return len(p), nil
	}
	if int64(len(p)) > remaining {
		n, err := lw.w.Write(p[:remaining])
		lw.written += int64(n)
		lw.truncated = true
		lw.discarded += int64(len(p)) - remaining
		if err != nil {
			return n, err
		}
		return len(p), nil
	}
	n, err := lw.w.Write(p)
	lw.written += int64(n)
	return n, err
}
