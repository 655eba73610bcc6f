package cmd

import (
	"bytes"
	"context"
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/lakshaymaurya-felt/wslmole/internal/compact"
	"github.com/lakshaymaurya-felt/wslmole/internal/menu"
	"github.com/lakshaymaurya-felt/wslmole/internal/ui"
)

// runInteractiveMenu launches the full-screen interactive main menu.
func runInteractiveMenu(cmd *cobra.Command) error {
	a, err := loadApp(true)
	if err != nil {
		return err
	}

	elevated := a.elevated()
	if !elevated {
		p := ui.NewPrinter(cmd.ErrOrStderr())
		p.Warning("Not running as Administrator: continuing read-only.")
		p.Hint("compaction and shutdown need an elevated terminal")
	}

	m := menu.New(cmd.Context(), "WSLMole "+appVersion, menuActions(a), elevated, compact.Hint)
	_, err = tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(cmd.Context())).Run()
	return err
}

// captured adapts a writer-based operation to a menu action.
func captured(op func(ctx context.Context, w io.Writer, choice string) error) func(context.Context, string) (string, error) {
	return func(ctx context.Context, choice string) (string, error) {
		var buf bytes.Buffer
		err := op(ctx, &buf, choice)
		return buf.String(), err
	}
}

func menuActions(a *app) []menu.Action {
	compactWith := func(strategy compact.StrategyID) func(ctx context.Context, w io.Writer, choice string) error {
		return func(ctx context.Context, w io.Writer, choice string) error {
			_, err := a.compact(ctx, w, choice, strategy)
			return err
		}
	}
	owned := func(ctx context.Context) ([]string, error) {
		files, err := a.locator.FindVirtualDiskFiles(ctx)
		if err != nil {
			return nil, err
		}
		seen := make(map[string]bool)
		var names []string
		for _, f := range files {
			if f.Orphan() || seen[f.Owner] {
				continue
			}
			seen[f.Owner] = true
			names = append(names, f.Owner)
		}
		return names, nil
	}
	confirmCompact := func(choice string) string {
		return fmt.Sprintf("Shut down WSL and compact %s?", choice)
	}

	return []menu.Action{
		{
			Title:       "Show WSL distributions",
			Description: "Names, states and disk sizes",
			Run: captured(func(ctx context.Context, w io.Writer, _ string) error {
				return a.list(ctx, w, false)
			}),
		},
		{
			Title:       "Show disk usage inside distributions",
			Description: "Runs df in each distribution, starting it if needed",
			Confirm:     func(string) string { return "This starts every stopped distribution. Continue?" },
			Run: captured(func(ctx context.Context, w io.Writer, _ string) error {
				return a.list(ctx, w, true)
			}),
		},
		{
			Title:       "Find VHDX files",
			Description: "Registry, known locations and %LOCALAPPDATA% scan",
			Run: captured(func(ctx context.Context, w io.Writer, _ string) error {
				return a.find(ctx, w)
			}),
		},
		{
			Title:       "Shut down WSL",
			Description: "wsl --shutdown and wait for every distribution to stop",
			NeedsAdmin:  true,
			Confirm:     func(string) string { return "Stop every running distribution?" },
			Run: captured(func(ctx context.Context, w io.Writer, _ string) error {
				return a.shutdown(ctx, w, "")
			}),
		},
		{
			Title:       "Compact a distribution",
			Description: "Modern, then diskpart, then Optimize-VHD",
			NeedsAdmin:  true,
			Choices:     owned,
			Confirm:     confirmCompact,
			Run:         captured(compactWith("")),
		},
		{
			Title:       "Compact with wsl --manage",
			Description: "Sparse VHD through wsl.exe only (WSL 2.0.0 or newer)",
			NeedsAdmin:  true,
			Choices:     owned,
			Confirm:     confirmCompact,
			Run:         captured(compactWith(compact.StrategyModern)),
		},
		{
			Title:       "Compact with diskpart",
			Description: "attach read-only, compact vdisk, detach",
			NeedsAdmin:  true,
			Choices:     owned,
			Confirm:     confirmCompact,
			Run:         captured(compactWith(compact.StrategyDiskpart)),
		},
		{
			Title:       "Compact with Optimize-VHD",
			Description: "Requires the Hyper-V PowerShell module",
			NeedsAdmin:  true,
			Choices:     owned,
			Confirm:     confirmCompact,
			Run:         captured(compactWith(compact.StrategyOptimizeVHD)),
		},
		{
			Title:       "Quick compact all",
			Description: "Every disk with an owning distribution (recommended)",
			NeedsAdmin:  true,
			Confirm:     func(string) string { return confirmCompact("every distribution disk") },
			Run: captured(func(ctx context.Context, w io.Writer, _ string) error {
				return compactWith("")(ctx, w, compact.TargetAll)
			}),
		},
		{
			Title:       "Verify",
			Description: "Current disk sizes and host free space",
			Run: captured(func(ctx context.Context, w io.Writer, _ string) error {
				return a.verify(ctx, w)
			}),
		},
		{
			Title:       "Troubleshooting",
			Description: "Prerequisite checks and common fixes",
			Run: captured(func(ctx context.Context, w io.Writer, _ string) error {
				return a.doctor(ctx, w)
			}),
		},
	}
}
