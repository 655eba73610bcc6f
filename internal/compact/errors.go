package compact

import (
	"errors"
	"fmt"

	"github.com/lakshaymaurya-felt/wslmole/internal/wsl"
)

// ─── Error Taxonomy ──────────────────────────────────────────────────────────

var (
	// ErrPrivilegeMissing means the process is not running as administrator.
	ErrPrivilegeMissing = errors.New("administrator privileges required")

	// ErrShutdownIncomplete means WSL did not confirm every distribution
	// stopped within the bounded wait.
	ErrShutdownIncomplete = wsl.ErrShutdownIncomplete

	// ErrStrategyUnsupported means a strategy cannot run on this host.
	ErrStrategyUnsupported = errors.New("strategy unsupported")

	// ErrStrategyFailed means a strategy ran and reported failure.
	ErrStrategyFailed = errors.New("strategy failed")

	// ErrAllStrategiesExhausted means every strategy was unsupported or
	// failed for a target.
	ErrAllStrategiesExhausted = errors.New("all compaction strategies exhausted")

	// ErrVerificationUnavailable means the disk size could not be read
	// before or after compaction.
	ErrVerificationUnavailable = errors.New("verification unavailable")
)

func unsupported(id StrategyID, format string, args ...any) error {
	return fmt.Errorf("%s: %w: %s", id, ErrStrategyUnsupported, fmt.Sprintf(format, args...))
}

func failed(id StrategyID, format string, args ...any) error {
	return fmt.Errorf("%s: %w: %s", id, ErrStrategyFailed, fmt.Sprintf(format, args...))
}

// Hint returns a corrective action for an engine error, or "" when there is
// nothing specific to suggest.
func Hint(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrPrivilegeMissing):
		return "run the terminal as Administrator (right-click, Run as administrator)"
	case errors.Is(err, ErrShutdownIncomplete):
		return "close WSL terminals and Docker Desktop, then run `wslm shutdown` and retry"
	case errors.Is(err, ErrAllStrategiesExhausted):
		return "update WSL with `wsl --update` or enable the Microsoft-Hyper-V-Management-PowerShell feature"
	case errors.Is(err, ErrStrategyUnsupported):
		return "try another strategy with --strategy, or update WSL with `wsl --update`"
	case errors.Is(err, ErrStrategyFailed):
		return "the disk may be in use; run `wslm shutdown`, wait a few seconds and retry"
	case errors.Is(err, ErrVerificationUnavailable):
		return "check that the disk file still exists with `wslm find`"
	}
	return ""
}
