package compact

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/lakshaymaurya-felt/wslmole/internal/shell"
	"github.com/lakshaymaurya-felt/wslmole/internal/vhdx"
)

const (
	// DiskpartBinary is the Windows disk partitioning tool.
	DiskpartBinary = "diskpart.exe"

	// DefaultDiskpartTimeout bounds one compaction; large disks are slow.
	DefaultDiskpartTimeout = 30 * time.Minute
)

// Diskpart attaches the disk read-only and runs `compact vdisk`.
type Diskpart struct {
	runner   shell.Runner
	timeout  time.Duration
	lookPath func(string) bool
}

// NewDiskpart returns the Diskpart strategy.
func NewDiskpart(r shell.Runner, timeout time.Duration) *Diskpart {
	if timeout <= 0 {
		timeout = DefaultDiskpartTimeout
	}
	return &Diskpart{runner: r, timeout: timeout, lookPath: shell.LookPath}
}

func (d *Diskpart) ID() StrategyID { return StrategyDiskpart }

func (d *Diskpart) CheckSupported(ctx context.Context, target vhdx.VirtualDiskFile) error {
	if !d.lookPath(DiskpartBinary) {
		return unsupported(d.ID(), "%s not found on PATH", DiskpartBinary)
	}
	return nil
}

func (d *Diskpart) Attempt(ctx context.Context, target vhdx.VirtualDiskFile) error {
	res, err := d.runner.Run(ctx, shell.Command{
		Name:    DiskpartBinary,
		Stdin:   diskpartScript(target.Path),
		Timeout: d.timeout,
	})
	if err != nil {
		return failed(d.ID(), "%v", err)
	}
	if out := res.Combined(); strings.Contains(strings.ToLower(out), "diskpart has encountered an error") {
		return failed(d.ID(), "%s", shell.Truncate(out, 200))
	}
	return nil
}

// diskpartScript builds the stdin script for one disk.
func diskpartScript(path string) string {
	lines := []string{
		fmt.Sprintf(`select vdisk file="%s"`, path),
		"attach vdisk readonly",
		"compact vdisk",
		"detach vdisk",
		"exit",
	}
	return strings.Join(lines, "\r\n") + "\r\n"
}
