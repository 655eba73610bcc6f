package shell

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// maxOutputRunes caps how much tool output is embedded in an error message.
const maxOutputRunes = 200

// CLIError represents a failure raised by an external tool.
type CLIError struct {
	Command  string
	Stdout   string
	Stderr   string
	ExitCode int
	Err      error
}

func (e *CLIError) Error() string {
	out := Truncate(e.Output(), maxOutputRunes)
	if out == "" {
		return fmt.Sprintf("%s failed (exit code %d): %v", e.Command, e.ExitCode, e.Err)
	}
	return fmt.Sprintf("%s failed (exit code %d): %s", e.Command, e.ExitCode, out)
}

func (e *CLIError) Unwrap() error {
	return e.Err
}

// Output returns the tool's combined stdout and stderr.
func (e *CLIError) Output() string {
	return strings.TrimSpace(strings.TrimSpace(e.Stdout) + "\n" + strings.TrimSpace(e.Stderr))
}

// OutputOf returns the combined tool output carried by err, if any.
func OutputOf(err error) string {
	var cliErr *CLIError
	if errors.As(err, &cliErr) {
		return cliErr.Output()
	}
	return ""
}

// Truncate shortens s to at most n runes, appending "..." when cut.
func Truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n]) + "..."
}
