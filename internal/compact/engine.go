package compact

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"

	"github.com/lakshaymaurya-felt/wslmole/internal/vhdx"
)

// TargetAll selects every owned disk.
const TargetAll = "all"

// Shutdowner stops WSL and waits for it to settle. *wsl.Client satisfies it.
type Shutdowner interface {
	ShutdownAll(ctx context.Context) error
}

// Finder locates disk files. *vhdx.Locator satisfies it.
type Finder interface {
	FindVirtualDiskFiles(ctx context.Context) ([]vhdx.VirtualDiskFile, error)
}

// Options configures an Engine.
type Options struct {
	WSL        Shutdowner
	Locator    Finder
	Strategies []Strategy
	// Elevated reports whether the process may compact. Required.
	Elevated func() bool
	// Stat returns a file size; nil uses os.Stat.
	Stat   func(path string) (int64, error)
	Logger logrus.FieldLogger
	// NewID returns a run identifier; nil uses a ULID.
	NewID func() string
}

// Engine drives the compaction state machine.
type Engine struct {
	wsl        Shutdowner
	locator    Finder
	strategies []Strategy
	elevated   func() bool
	stat       func(string) (int64, error)
	logger     logrus.FieldLogger
	newID      func() string
	now        func() time.Time
}

// NewEngine returns an Engine for the given options.
func NewEngine(opts Options) *Engine {
	e := &Engine{
		wsl:        opts.WSL,
		locator:    opts.Locator,
		strategies: opts.Strategies,
		elevated:   opts.Elevated,
		stat:       opts.Stat,
		logger:     opts.Logger,
		newID:      opts.NewID,
		now:        time.Now,
	}
	if e.elevated == nil {
		e.elevated = func() bool { return false }
	}
	if e.stat == nil {
		e.stat = statSize
	}
	if e.logger == nil {
		e.logger = logrus.StandardLogger()
	}
	if e.newID == nil {
		e.newID = func() string { return ulid.Make().String() }
	}
	return e
}

// Strategies returns the configured fallback order.
func (e *Engine) Strategies() []Strategy {
	return e.strategies
}

// Compact shuts WSL down and compacts the disks owned by target, or every
// owned disk when target is TargetAll. A non-empty preferred runs only that
// strategy, without fallback.
//
// Per-target failures are recorded in the BatchReport; the returned error
// is reserved for conditions that stop the whole run (missing privileges,
// unknown target or strategy, locator failure, cancellation).
func (e *Engine) Compact(ctx context.Context, target string, preferred StrategyID) (*BatchReport, error) {
	if !e.elevated() {
		return nil, ErrPrivilegeMissing
	}

	strategies, err := e.plan(preferred)
	if err != nil {
		return nil, err
	}

	files, err := e.locator.FindVirtualDiskFiles(ctx)
	if err != nil {
		return nil, fmt.Errorf("locate disks: %w", err)
	}

	batch := &BatchReport{RunID: e.newID()}
	log := e.logger.WithField("run_id", batch.RunID)

	targets, skipped := selectTargets(files, target)
	batch.Skipped = skipped
	if len(targets) == 0 && !strings.EqualFold(target, TargetAll) {
		return nil, fmt.Errorf("%w for %q", vhdx.ErrNotFound, target)
	}
	for _, s := range skipped {
		log.WithField("path", s.Path).Info("skipping disk with no owning distribution")
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if len(targets) > 0 {
		if err := e.wsl.ShutdownAll(ctx); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			if !errors.Is(err, ErrShutdownIncomplete) {
				err = fmt.Errorf("%w: %v", ErrShutdownIncomplete, err)
			}
			log.WithError(err).Error("WSL did not shut down; nothing was compacted")
			for _, f := range targets {
				r := newReport(batch.RunID, f)
				newRun(r, log).fail(stateShuttingDown, err)
				batch.Reports = append(batch.Reports, r)
			}
			batch.summarize()
			return batch, nil
		}
	}

	for _, f := range targets {
		if err := ctx.Err(); err != nil {
			batch.summarize()
			return batch, err
		}
		r := e.compactOne(ctx, batch.RunID, f, strategies, log)
		batch.Reports = append(batch.Reports, r)
		if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(r.Err, ctxErr) {
			batch.summarize()
			return batch, ctxErr
		}
	}

	batch.summarize()
	log.WithFields(logrus.Fields{
		"succeeded": batch.Summary.Succeeded,
		"failed":    batch.Summary.Failed,
		"skipped":   batch.Summary.Skipped,
	}).Info("compaction finished")
	return batch, nil
}

// plan returns the strategies to try in order.
func (e *Engine) plan(preferred StrategyID) ([]Strategy, error) {
	if preferred == "" {
		if len(e.strategies) == 0 {
			return nil, errors.New("no compaction strategies configured")
		}
		return e.strategies, nil
	}
	for _, s := range e.strategies {
		if s.ID() == preferred {
			return []Strategy{s}, nil
		}
	}
	return nil, fmt.Errorf("strategy %q is not available", preferred)
}

// compactOne runs the state machine for a single disk.
func (e *Engine) compactOne(ctx context.Context, runID string, f vhdx.VirtualDiskFile, strategies []Strategy, log logrus.FieldLogger) *Report {
	r := newReport(runID, f)
	log = log.WithFields(logrus.Fields{"target": r.Target, "path": f.Path})
	run := newRun(r, log)

	run.to(stateMeasuring)
	pre, err := e.stat(f.Path)
	if err != nil {
		run.fail(stateMeasuring, fmt.Errorf("%w: read size before compaction: %v", ErrVerificationUnavailable, err))
		return r
	}
	r.PreSize = pre

	var lastErr error
	reached := stateAwaitingStrategy
	for _, s := range strategies {
		if err := ctx.Err(); err != nil {
			run.fail(stateAwaitingStrategy, err)
			return r
		}
		run.to(stateAwaitingStrategy)
		stratLog := log.WithField("strategy", s.ID())

		start := e.now()
		if err := s.CheckSupported(ctx, f); err != nil {
			r.Attempts = append(r.Attempts, e.attempt(s.ID(), OutcomeUnsupported, err, start))
			stratLog.WithError(err).Info("strategy unsupported")
			lastErr = err
			continue
		}

		run.to(stateCompacting)
		reached = stateCompacting
		stratLog.Info("compacting")
		err := s.Attempt(ctx, f)
		switch {
		case err == nil:
			r.Attempts = append(r.Attempts, e.attempt(s.ID(), OutcomeSuccess, nil, start))
			r.Strategy = s.ID()
		case errors.Is(err, ErrStrategyUnsupported):
			r.Attempts = append(r.Attempts, e.attempt(s.ID(), OutcomeUnsupported, err, start))
			stratLog.WithError(err).Info("strategy unsupported")
		default:
			if !errors.Is(err, ErrStrategyFailed) {
				err = fmt.Errorf("%s: %w: %v", s.ID(), ErrStrategyFailed, err)
			}
			r.Attempts = append(r.Attempts, e.attempt(s.ID(), OutcomeFailed, err, start))
			stratLog.WithError(err).Warn("strategy failed")
		}
		if r.Strategy != "" {
			break
		}
		lastErr = err
	}

	if r.Strategy == "" {
		if ctxErr := ctx.Err(); ctxErr != nil {
			run.fail(reached, ctxErr)
			return r
		}
		if len(strategies) == 1 {
			run.fail(reached, lastErr)
		} else {
			run.fail(reached, fmt.Errorf("%w: %s", ErrAllStrategiesExhausted, attemptSummary(r.Attempts)))
		}
		return r
	}

	run.to(stateVerifying)
	post, err := e.stat(f.Path)
	if err != nil {
		run.fail(stateVerifying, fmt.Errorf("%w: read size after compaction: %v", ErrVerificationUnavailable, err))
		return r
	}
	r.PostSize = post
	r.Measurement = Measure(pre, post)
	if r.Anomaly {
		log.WithFields(logrus.Fields{"pre": pre, "post": post}).Warn("disk grew during compaction")
	}

	run.done()
	log.WithFields(logrus.Fields{
		"strategy":  r.Strategy,
		"reclaimed": r.BytesReclaimed,
	}).Info("compaction verified")
	return r
}

func (e *Engine) attempt(id StrategyID, outcome Outcome, err error, start time.Time) CompactionAttempt {
	a := CompactionAttempt{Strategy: id, Outcome: outcome, Duration: e.now().Sub(start)}
	if err != nil {
		a.Reason = err.Error()
	}
	return a
}

func attemptSummary(attempts []CompactionAttempt) string {
	parts := make([]string, 0, len(attempts))
	for _, a := range attempts {
		parts = append(parts, fmt.Sprintf("%s %s", a.Strategy, a.Outcome))
	}
	return strings.Join(parts, ", ")
}

func newReport(runID string, f vhdx.VirtualDiskFile) *Report {
	target := f.Owner
	if target == "" {
		target = filepath.Base(f.Path)
	}
	return &Report{RunID: runID, Target: target, Owner: f.Owner, Path: f.Path}
}

// selectTargets returns the disks to compact and the orphans set aside.
// A path is never selected twice.
func selectTargets(files []vhdx.VirtualDiskFile, target string) (targets, skipped []vhdx.VirtualDiskFile) {
	seen := make(map[string]bool)
	all := strings.EqualFold(target, TargetAll)

	for _, f := range files {
		key := strings.ToLower(filepath.Clean(f.Path))
		if seen[key] {
			continue
		}
		switch {
		case all && f.Orphan():
			seen[key] = true
			skipped = append(skipped, f)
		case all, strings.EqualFold(f.Owner, target):
			seen[key] = true
			targets = append(targets, f)
		}
	}
	return targets, skipped
}

func statSize(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	if info.IsDir() {
		return 0, fmt.Errorf("%s is a directory", path)
	}
	return info.Size(), nil
}
