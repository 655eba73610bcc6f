package compact

import (
	"strings"

	"github.com/sirupsen/logrus"
)

// state is a step of the per-target state machine.
type state int

const (
	stateIdle state = iota
	stateShuttingDown
	stateMeasuring
	stateAwaitingStrategy
	stateCompacting
	stateVerifying
	stateDone
	stateFailed
)

func (s state) String() string {
	switch s {
	case stateIdle:
		return "Idle"
	case stateShuttingDown:
		return "ShuttingDown"
	case stateMeasuring:
		return "Measuring"
	case stateAwaitingStrategy:
		return "AwaitingStrategy"
	case stateCompacting:
		return "Compacting"
	case stateVerifying:
		return "Verifying"
	case stateDone:
		return "Done"
	case stateFailed:
		return "Failed"
	}
	return "Unknown"
}

// run tracks one target through the state machine.
type run struct {
	report *Report
	trace  []state
	logger logrus.FieldLogger
}

func newRun(r *Report, logger logrus.FieldLogger) *run {
	return &run{report: r, trace: []state{stateIdle}, logger: logger}
}

func (r *run) current() state {
	return r.trace[len(r.trace)-1]
}

func (r *run) to(s state) {
	if r.current() == s {
		return
	}
	r.logger.WithFields(logrus.Fields{"from": r.current(), "to": s}).Debug("transition")
	r.trace = append(r.trace, s)
}

// fail records err as the target outcome. at is the state that failed.
func (r *run) fail(at state, err error) {
	r.to(at)
	r.to(stateFailed)
	r.report.Outcome = OutcomeFailed
	r.report.FailedAt = at.String()
	r.report.Err = err
	r.logger.WithError(err).WithField("trace", r.path()).Debug("target failed")
}

func (r *run) done() {
	r.to(stateDone)
	r.report.Outcome = OutcomeSuccess
}

func (r *run) path() string {
	names := make([]string, len(r.trace))
	for i, s := range r.trace {
		names[i] = s.String()
	}
	return strings.Join(names, " -> ")
}
