package compact

import (
	"time"

	"github.com/lakshaymaurya-felt/wslmole/internal/vhdx"
)

// Outcome is the result of one attempt or one target.
type Outcome string

const (
	OutcomeSuccess     Outcome = "success"
	OutcomeUnsupported Outcome = "unsupported"
	OutcomeFailed      Outcome = "failed"
)

// CompactionAttempt records one strategy tried against a target.
type CompactionAttempt struct {
	Strategy StrategyID
	Outcome  Outcome
	Reason   string
	Duration time.Duration
}

// Measurement is the size delta of one compaction.
type Measurement struct {
	// BytesReclaimed is never negative.
	BytesReclaimed   int64
	PercentReclaimed float64
	// Anomaly is set when the disk grew.
	Anomaly bool
}

// Measure compares the sizes before and after compaction.
func Measure(pre, post int64) Measurement {
	m := Measurement{Anomaly: post > pre}
	if pre > post {
		m.BytesReclaimed = pre - post
	}
	if pre > 0 {
		m.PercentReclaimed = float64(m.BytesReclaimed) / float64(pre) * 100
	}
	return m
}

// Report is the outcome for one target.
type Report struct {
	RunID  string
	Target string
	Owner  string
	Path   string

	PreSize  int64
	PostSize int64
	Measurement

	// Strategy is the strategy that succeeded, if any.
	Strategy StrategyID
	Attempts []CompactionAttempt
	Outcome  Outcome
	// FailedAt names the state machine step that failed, if any.
	FailedAt string
	Err      error
}

// Succeeded reports whether the target was compacted and verified.
func (r *Report) Succeeded() bool {
	return r.Outcome == OutcomeSuccess
}

// Summary counts batch outcomes.
type Summary struct {
	Succeeded int
	Failed    int
	Skipped   int
}

// BatchReport collects the reports of one Compact call.
type BatchReport struct {
	RunID   string
	Reports []*Report
	// Skipped lists disks that were not compacted because no distribution
	// owns them.
	Skipped []vhdx.VirtualDiskFile
	Summary Summary
}

// TotalReclaimed sums the bytes reclaimed by successful targets.
func (b *BatchReport) TotalReclaimed() int64 {
	var total int64
	for _, r := range b.Reports {
		if r.Succeeded() {
			total += r.BytesReclaimed
		}
	}
	return total
}

func (b *BatchReport) summarize() {
	b.Summary = Summary{Skipped: len(b.Skipped)}
	for _, r := range b.Reports {
		if r.Succeeded() {
			b.Summary.Succeeded++
		} else {
			b.Summary.Failed++
		}
	}
}
