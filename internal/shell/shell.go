// Package shell executes external helper commands with a hard timeout,
// buffered combined output, and whole-process-group termination so that no
// orphaned children survive a timed-out command.
package shell

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"syscall"
	"time"

	"github.com/vk/toygrid/internal/ctxlog"
)

// ErrTimeout is returned (wrapped) when a command exceeds its timeout and is
// killed. The captured output up to the kill is still available on the Result.
var ErrTimeout = errors.New("command timed out")

// DefaultTimeout applies when Command.Timeout is zero.
const DefaultTimeout = 1 * time.Hour

// Command configures a single external command invocation.
type Command struct {
	// Binary is the executable path or name (resolved via PATH).
	Binary string
	// Args are the command-line arguments.
	Args []string
	// Dir is the working directory. If empty, uses the current directory.
	Dir string
	// Env is additional environment variables (key=value), merged with os.Environ.
	Env []string
	// Timeout bounds the total runtime. Defaults to DefaultTimeout if zero.
	Timeout time.Duration
	// GracePeriod is how long to wait after SIGTERM before SIGKILL.
	// Defaults to 5 seconds if zero.
	GracePeriod time.Duration
}

// Result holds the outcome of a completed (or killed) command.
type Result struct {
	// Output is the combined stdout and stderr.
	Output []byte
	// ExitCode is the process exit code, -1 if the process was killed.
	ExitCode int
	// Duration is how long the command ran.
	Duration time.Duration
}

// Run starts the command in its own process group and waits for it to finish
// or for the timeout to expire. On expiry the whole group receives SIGTERM,
// then SIGKILL after the grace period, and the process is always reaped
// before Run returns. Exactly one command is in flight per call; Run blocks
// the caller for the command's duration.
func Run(ctx context.Context, cmd Command) (*Result, error) {
	if cmd.Binary == "" {
		return nil, fmt.Errorf("shell: binary is required")
	}
	logger := ctxlog.FromContext(ctx)

	timeout := cmd.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	gracePeriod := cmd.GracePeriod
	if gracePeriod == 0 {
		gracePeriod = 5 * time.Second
	}

	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	c := exec.CommandContext(runCtx, cmd.Binary, cmd.Args...)
	c.Dir = cmd.Dir
	c.Env = mergeEnv(cmd.Env)

	var output bytes.Buffer
	c.Stdout = &output
	c.Stderr = &output

	// Own process group so the whole command tree can be terminated at once.
	c.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	// On cancellation, SIGTERM the group first; WaitDelay escalates to
	// SIGKILL after the grace period and guarantees the child is reaped.
	c.Cancel = func() error {
		if c.Process == nil {
			return nil
		}
		return syscall.Kill(-c.Process.Pid, syscall.SIGTERM)
	}
	c.WaitDelay = gracePeriod

	logger.Debug("Running external command.", "binary", cmd.Binary, "args", cmd.Args, "timeout", timeout)

	start := time.Now()
	err := c.Run()
	duration := time.Since(start)

	result := &Result{
		Output:   output.Bytes(),
		ExitCode: -1,
		Duration: duration,
	}
	if c.ProcessState != nil {
		result.ExitCode = c.ProcessState.ExitCode()
	}

	if err != nil {
		if runCtx.Err() == context.DeadlineExceeded {
			return result, fmt.Errorf("shell: %s after %s: %w\n%s",
				cmd.Binary, timeout, ErrTimeout, output.Bytes())
		}
		if ctx.Err() != nil {
			return result, fmt.Errorf("shell: %s killed by caller: %w", cmd.Binary, ctx.Err())
		}
		return result, fmt.Errorf("shell: %s exited with code %d: %w\n%s",
			cmd.Binary, result.ExitCode, err, output.Bytes())
	}

	logger.Debug("Command finished.", "binary", cmd.Binary, "duration", duration)
	return result, nil
}

// mergeEnv merges additional env vars with the current environment.
func mergeEnv(extra []string) []string {
	if len(extra) == 0 {
		return nil // inherit parent env
	}
	return append(os.Environ(), extra...)
}
