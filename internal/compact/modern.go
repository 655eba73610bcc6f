package compact

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-version"

	"github.com/lakshaymaurya-felt/wslmole/internal/shell"
	"github.com/lakshaymaurya-felt/wslmole/internal/vhdx"
	"github.com/lakshaymaurya-felt/wslmole/internal/wsl"
)

// DefaultMinWSLVersion is the first WSL package with `--manage --set-sparse`.
const DefaultMinWSLVersion = "2.0.0"

// SparseManager is the slice of *wsl.Client the Modern strategy needs.
type SparseManager interface {
	Version(ctx context.Context) (*version.Version, error)
	SetSparse(ctx context.Context, name string) (string, error)
}

// Modern marks the distribution disk sparse through wsl.exe so WSL returns
// freed blocks to the host.
type Modern struct {
	wsl        SparseManager
	minVersion *version.Version
}

// NewModern returns the Modern strategy. An empty minVersion uses
// DefaultMinWSLVersion.
func NewModern(w SparseManager, minVersion string) (*Modern, error) {
	if minVersion == "" {
		minVersion = DefaultMinWSLVersion
	}
	v, err := version.NewVersion(minVersion)
	if err != nil {
		return nil, fmt.Errorf("modern.min_wsl_version: %w", err)
	}
	return &Modern{wsl: w, minVersion: v}, nil
}

func (m *Modern) ID() StrategyID { return StrategyModern }

func (m *Modern) CheckSupported(ctx context.Context, target vhdx.VirtualDiskFile) error {
	if target.Orphan() {
		return unsupported(m.ID(), "disk has no owning distribution")
	}
	if !target.Primary() {
		return unsupported(m.ID(), "%s is not the system disk of %s", target.Path, target.Owner)
	}
	v, err := m.wsl.Version(ctx)
	if err != nil {
		return unsupported(m.ID(), "cannot determine WSL version: %v", err)
	}
	if v.LessThan(m.minVersion) {
		return unsupported(m.ID(), "WSL %s is older than %s", v, m.minVersion)
	}
	return nil
}

func (m *Modern) Attempt(ctx context.Context, target vhdx.VirtualDiskFile) error {
	out, err := m.wsl.SetSparse(ctx, target.Owner)
	if out == "" {
		out = shell.OutputOf(err)
	}
	// Older builds exit 0 and still print the usage text.
	if wsl.IsUnsupportedOption(out) {
		return unsupported(m.ID(), "wsl.exe rejected --set-sparse: %s", shell.Truncate(out, 200))
	}
	if err != nil {
		return failed(m.ID(), "%v", err)
	}
	return nil
}
