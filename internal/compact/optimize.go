package compact

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/lakshaymaurya-felt/wslmole/internal/core"
	"github.com/lakshaymaurya-felt/wslmole/internal/shell"
	"github.com/lakshaymaurya-felt/wslmole/internal/vhdx"
)

// FeatureCheck reports whether a Windows optional feature is enabled.
type FeatureCheck func(ctx context.Context, name string) (bool, error)

// OptimizeVHD runs the Hyper-V `Optimize-VHD -Mode Full` cmdlet.
type OptimizeVHD struct {
	runner   shell.Runner
	timeout  time.Duration
	features FeatureCheck
}

// NewOptimizeVHD returns the OptimizeVHD strategy. A nil check uses WMI.
func NewOptimizeVHD(r shell.Runner, timeout time.Duration, features FeatureCheck) *OptimizeVHD {
	if timeout <= 0 {
		timeout = DefaultDiskpartTimeout
	}
	if features == nil {
		features = core.OptionalFeatureEnabled
	}
	return &OptimizeVHD{runner: r, timeout: timeout, features: features}
}

func (o *OptimizeVHD) ID() StrategyID { return StrategyOptimizeVHD }

func (o *OptimizeVHD) CheckSupported(ctx context.Context, target vhdx.VirtualDiskFile) error {
	if ok, err := o.features(ctx, core.HyperVPowerShellFeature); err == nil && ok {
		return nil
	}

	out, err := shell.RunPowerShell(ctx, o.runner,
		"Get-Command Optimize-VHD -ErrorAction SilentlyContinue | Select-Object -First 1 -ExpandProperty Name",
		shell.DefaultTimeout)
	if err != nil || !strings.Contains(strings.ToLower(out), "optimize-vhd") {
		return unsupported(o.ID(), "Optimize-VHD cmdlet not found (requires %s)", core.HyperVPowerShellFeature)
	}
	return nil
}

func (o *OptimizeVHD) Attempt(ctx context.Context, target vhdx.VirtualDiskFile) error {
	script := fmt.Sprintf("Optimize-VHD -Path %s -Mode Full -ErrorAction Stop", shell.QuotePS(target.Path))
	if _, err := shell.RunPowerShell(ctx, o.runner, script, o.timeout); err != nil {
		return failed(o.ID(), "%v", err)
	}
	return nil
}
