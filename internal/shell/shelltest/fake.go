// Package shelltest provides a scripted shell.Runner for tests.
package shelltest

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"

	"github.com/lakshaymaurya-felt/wslmole/internal/shell"
)

// Response is one scripted reply.
type Response struct {
	Stdout   string
	Stderr   string
	ExitCode int
	// Err, if set, is returned as a start failure (no Result).
	Err error
}

// Fake replays scripted responses keyed by command line. A key matches
// exactly or as a prefix; the longest matching key wins. Each key's
// responses are consumed in order and the last one repeats.
type Fake struct {
	mu        sync.Mutex
	responses map[string][]Response
	calls     []shell.Command
}

// New returns an empty Fake.
func New() *Fake {
	return &Fake{responses: make(map[string][]Response)}
}

// On scripts the replies for commands whose line starts with cmdline.
func (f *Fake) On(cmdline string, resp ...Response) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses[cmdline] = append(f.responses[cmdline], resp...)
	return f
}

// Calls returns every command run so far.
func (f *Fake) Calls() []shell.Command {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]shell.Command(nil), f.calls...)
}

// CallCount returns how many calls started with prefix.
func (f *Fake) CallCount(prefix string) int {
	n := 0
	for _, c := range f.Calls() {
		if strings.HasPrefix(c.String(), prefix) {
			n++
		}
	}
	return n
}

// Run implements shell.Runner.
func (f *Fake) Run(ctx context.Context, cmd shell.Command) (*shell.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f.mu.Lock()
	f.calls = append(f.calls, cmd)
	line := cmd.String()
	key := ""
	for k := range f.responses {
		if strings.HasPrefix(line, k) && len(k) > len(key) {
			key = k
		}
	}
	queue, ok := f.responses[key]
	var resp Response
	if !ok || len(queue) == 0 {
		resp = Response{ExitCode: 1, Stderr: "unexpected command: " + line}
	} else {
		resp = queue[0]
		if len(queue) > 1 {
			f.responses[key] = queue[1:]
		}
	}
	f.mu.Unlock()

	if resp.Err != nil {
		return nil, &shell.CLIError{Command: line, ExitCode: -1, Err: resp.Err}
	}
	res := &shell.Result{Stdout: resp.Stdout, Stderr: resp.Stderr, ExitCode: resp.ExitCode}
	if resp.ExitCode != 0 {
		return res, &shell.CLIError{
			Command:  line,
			Stdout:   resp.Stdout,
			Stderr:   resp.Stderr,
			ExitCode: resp.ExitCode,
			Err:      errors.New("exit status " + strconv.Itoa(resp.ExitCode)),
		}
	}
	return res, nil
}
