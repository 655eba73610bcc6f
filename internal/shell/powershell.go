package shell

import (
	"context"
	"strings"
	"time"
)

// PowerShellBinary is the Windows PowerShell host used for cmdlets.
const PowerShellBinary = "powershell.exe"

// PowerShell builds a non-interactive PowerShell invocation of script.
func PowerShell(script string, timeout time.Duration) Command {
	return Command{
		Name:    PowerShellBinary,
		Args:    []string{"-NoProfile", "-NonInteractive", "-Command", script},
		Timeout: timeout,
	}
}

// RunPowerShell runs script through r and returns its combined output.
func RunPowerShell(ctx context.Context, r Runner, script string, timeout time.Duration) (string, error) {
	res, err := r.Run(ctx, PowerShell(script, timeout))
	return res.Combined(), err
}

// QuotePS wraps value in PowerShell double quotes, escaping backticks,
// double quotes and dollar signs so the value is taken literally.
func QuotePS(value string) string {
	r := strings.NewReplacer("`", "``", `"`, "`\"", "$", "`$")
	return `"` + r.Replace(value) + `"`
}
