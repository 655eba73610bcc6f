// Package shell runs the external Windows tools (wsl.exe, diskpart.exe,
// powershell.exe) that WSLMole orchestrates and normalises their output.
package shell

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

const (
	// DefaultTimeout bounds every command that does not set its own.
	DefaultTimeout = 2 * time.Minute

	// waitDelay stops Wait from blocking on pipes inherited by grandchildren
	// (wsl.exe keeps a relay process alive after it exits).
	waitDelay = 10 * time.Second
)

// Command describes one external invocation.
type Command struct {
	Name    string
	Args    []string
	Stdin   string
	Timeout time.Duration
}

// String renders the command line for logs and error messages.
func (c Command) String() string {
	if len(c.Args) == 0 {
		return c.Name
	}
	return c.Name + " " + strings.Join(c.Args, " ")
}

// Result holds the decoded output of a finished command.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Combined returns stdout and stderr joined, trimmed.
func (r *Result) Combined() string {
	if r == nil {
		return ""
	}
	return strings.TrimSpace(strings.TrimSpace(r.Stdout) + "\n" + strings.TrimSpace(r.Stderr))
}

// Runner executes commands. Implementations must return a non-nil Result
// whenever the process started, even if it exited non-zero.
type Runner interface {
	Run(ctx context.Context, cmd Command) (*Result, error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct {
	// DefaultTimeout applies to commands without an explicit Timeout.
	DefaultTimeout time.Duration
}

// NewExecRunner returns a Runner backed by os/exec.
func NewExecRunner(timeout time.Duration) *ExecRunner {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &ExecRunner{DefaultTimeout: timeout}
}

// Run executes cmd, decoding stdout and stderr with Decode.
func (r *ExecRunner) Run(ctx context.Context, cmd Command) (*Result, error) {
	timeout := cmd.Timeout
	if timeout <= 0 {
		timeout = r.DefaultTimeout
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	c := exec.CommandContext(ctx, cmd.Name, cmd.Args...)
	c.WaitDelay = waitDelay
	if cmd.Stdin != "" {
		c.Stdin = strings.NewReader(cmd.Stdin)
	}
	var stdout, stderr bytes.Buffer
	c.Stdout = &stdout
	c.Stderr = &stderr

	err := c.Run()
	res := &Result{
		Stdout: Decode(stdout.Bytes()),
		Stderr: Decode(stderr.Bytes()),
	}
	if err != nil && errors.Is(err, exec.ErrWaitDelay) {
		err = nil
	}
	if err == nil {
		return res, nil
	}

	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		res.ExitCode = -1
		return res, &CLIError{Command: cmd.String(), Stdout: res.Stdout, Stderr: res.Stderr, ExitCode: -1,
			Err: fmt.Errorf("timed out after %s: %w", timeout, context.DeadlineExceeded)}
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		res.ExitCode = exitErr.ExitCode()
		return res, &CLIError{Command: cmd.String(), Stdout: res.Stdout, Stderr: res.Stderr, ExitCode: res.ExitCode, Err: err}
	}

	// Never started (binary missing, access denied).
	return nil, &CLIError{Command: cmd.String(), ExitCode: -1, Err: err}
}

// LookPath reports whether a binary is reachable on PATH.
func LookPath(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}
