package wsl

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/hashicorp/go-version"
	"github.com/sirupsen/logrus"

	"github.com/lakshaymaurya-felt/wslmole/internal/shell"
)

const (
	// DefaultBinary is the WSL host control surface.
	DefaultBinary = "wsl.exe"

	defaultSettle       = 10 * time.Second
	defaultPollInterval = 5 * time.Second
	defaultPollAttempts = 1
)

var (
	// ErrShutdownIncomplete means a distribution still reported an active
	// state after the bounded shutdown wait.
	ErrShutdownIncomplete = errors.New("shutdown incomplete")

	// ErrVersionUnknown means wsl.exe did not report a parseable version
	// (inbox WSL builds do not understand --version).
	ErrVersionUnknown = errors.New("wsl version unknown")
)

var versionPattern = regexp.MustCompile(`\d+\.\d+(?:\.\d+){0,2}`)

// ShutdownError lists the distributions that were not confirmed stopped.
type ShutdownError struct {
	Running []string
	// Unconfirmed holds distributions whose state could not be read.
	Unconfirmed []string
	Err         error
}

func (e *ShutdownError) Error() string {
	var parts []string
	if len(e.Running) > 0 {
		parts = append(parts, "still active: "+strings.Join(e.Running, ", "))
	}
	if len(e.Unconfirmed) > 0 {
		parts = append(parts, "state unknown: "+strings.Join(e.Unconfirmed, ", "))
	}
	if len(parts) == 0 {
		return fmt.Sprintf("%s: %v", ErrShutdownIncomplete, e.Err)
	}
	return fmt.Sprintf("%s: %s", ErrShutdownIncomplete, strings.Join(parts, "; "))
}

func (e *ShutdownError) Is(target error) bool {
	return target == ErrShutdownIncomplete
}

func (e *ShutdownError) Unwrap() error {
	return e.Err
}

// Options tunes the client. Zero values pick the defaults.
type Options struct {
	Binary string
	// Settle is the fixed wait after `wsl --shutdown` before the first check.
	Settle time.Duration
	// PollAttempts bounds how many status checks are made after Settle.
	PollAttempts int
	// PollInterval spaces the status checks.
	PollInterval time.Duration
	Logger       logrus.FieldLogger
}

// Client talks to wsl.exe.
type Client struct {
	runner       shell.Runner
	binary       string
	settle       time.Duration
	pollAttempts int
	pollInterval time.Duration
	logger       logrus.FieldLogger

	// sleep is swapped in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewClient returns a Client that runs wsl.exe through r.
func NewClient(r shell.Runner, opts Options) *Client {
	c := &Client{
		runner:       r,
		binary:       opts.Binary,
		settle:       opts.Settle,
		pollAttempts: opts.PollAttempts,
		pollInterval: opts.PollInterval,
		logger:       opts.Logger,
		sleep:        sleepContext,
	}
	if c.binary == "" {
		c.binary = DefaultBinary
	}
	if c.settle <= 0 {
		c.settle = defaultSettle
	}
	if c.pollAttempts <= 0 {
		c.pollAttempts = defaultPollAttempts
	}
	if c.pollInterval <= 0 {
		c.pollInterval = defaultPollInterval
	}
	if c.logger == nil {
		c.logger = logrus.StandardLogger()
	}
	return c
}

// ListDistributions returns the registered distributions in the order
// wsl.exe reports them.
func (c *Client) ListDistributions(ctx context.Context) ([]Distribution, error) {
	res, err := c.run(ctx, "--list", "--verbose")
	if err == nil {
		if dists := parseVerboseList(res.Stdout); len(dists) > 0 {
			return dists, nil
		}
	}

	// Older builds and some locales do not produce a parseable table.
	res, qerr := c.run(ctx, "--list", "--quiet")
	if qerr != nil {
		if err != nil {
			return nil, fmt.Errorf("list distributions: %w", err)
		}
		return nil, fmt.Errorf("list distributions: %w", qerr)
	}
	return parseQuietList(res.Stdout), nil
}

// ShutdownAll stops every distribution and waits for the host to confirm.
// After a fixed settle delay it re-checks the state a bounded number of
// times. Only distributions reported as Stopped count as down; an active or
// unreadable state after the last check returns a *ShutdownError.
func (c *Client) ShutdownAll(ctx context.Context) error {
	c.logger.Info("shutting down all WSL distributions")
	if _, err := c.run(ctx, "--shutdown"); err != nil {
		return &ShutdownError{Err: err}
	}

	c.logger.WithField("settle", c.settle).Debug("waiting for WSL to settle")
	if err := c.sleep(ctx, c.settle); err != nil {
		return err
	}

	var running, unconfirmed []string
	check := func() error {
		dists, err := c.ListDistributions(ctx)
		if err != nil {
			return err
		}
		running, unconfirmed = pendingNames(dists)
		if len(running) > 0 || len(unconfirmed) > 0 {
			c.logger.WithFields(logrus.Fields{
				"active":  running,
				"unknown": unconfirmed,
			}).Debug("distributions not confirmed stopped")
			return fmt.Errorf("%d distribution(s) not confirmed stopped", len(running)+len(unconfirmed))
		}
		return nil
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(c.pollInterval), uint64(c.pollAttempts-1)),
		ctx,
	)
	if err := backoff.Retry(check, policy); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return &ShutdownError{Running: running, Unconfirmed: unconfirmed, Err: err}
	}

	c.logger.Info("all WSL distributions stopped")
	return nil
}

// Terminate stops a single distribution.
func (c *Client) Terminate(ctx context.Context, name string) error {
	if name == "" {
		return fmt.Errorf("distribution name is required")
	}
	_, err := c.run(ctx, "--terminate", name)
	return err
}

// Version returns the WSL package version from `wsl --version`.
func (c *Client) Version(ctx context.Context) (*version.Version, error) {
	res, err := c.run(ctx, "--version")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrVersionUnknown, err)
	}
	return parseVersion(res.Stdout)
}

// SetSparse runs `wsl --manage <name> --set-sparse true` and returns the
// tool's output.
func (c *Client) SetSparse(ctx context.Context, name string) (string, error) {
	res, err := c.run(ctx, "--manage", name, "--set-sparse", "true")
	return res.Combined(), err
}

func (c *Client) run(ctx context.Context, args ...string) (*shell.Result, error) {
	cmd := shell.Command{Name: c.binary, Args: args}
	c.logger.WithField("cmd", cmd.String()).Debug("running wsl command")
	return c.runner.Run(ctx, cmd)
}

// parseVersion extracts the first dotted version on the first line that
// carries one, e.g. "WSL version: 2.0.9.0".
func parseVersion(text string) (*version.Version, error) {
	for _, line := range shell.Lines(text) {
		raw := versionPattern.FindString(line)
		if raw == "" {
			continue
		}
		v, err := version.NewVersion(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrVersionUnknown, err)
		}
		return v, nil
	}
	return nil, ErrVersionUnknown
}

// IsUnsupportedOption reports whether wsl.exe rejected a command line
// option, which is how older builds answer `--manage`.
func IsUnsupportedOption(output string) bool {
	lower := strings.ToLower(output)
	for _, marker := range []string{
		"unknown option",
		"unrecognized option",
		"parameter is incorrect",
		"invalid command line option",
		"invalid command line argument",
	} {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
