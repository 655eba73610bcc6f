package cmd

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/lakshaymaurya-felt/wslmole/internal/compact"
	"github.com/lakshaymaurya-felt/wslmole/internal/config"
	"github.com/lakshaymaurya-felt/wslmole/internal/core"
	"github.com/lakshaymaurya-felt/wslmole/internal/ui"
	"github.com/lakshaymaurya-felt/wslmole/internal/vhdx"
	"github.com/lakshaymaurya-felt/wslmole/internal/wsl"
)

// ─── List ────────────────────────────────────────────────────────────────────

func (a *app) list(ctx context.Context, w io.Writer, usage bool) error {
	p := ui.NewPrinter(w)
	dists, err := a.wsl.ListDistributions(ctx)
	if err != nil {
		return err
	}

	p.Header("WSL Distributions")
	if len(dists) == 0 {
		p.Info("No distributions are registered.")
		return nil
	}

	files, err := a.locator.FindVirtualDiskFiles(ctx)
	if err != nil {
		return err
	}
	sizes := make(map[string]int64)
	for _, f := range files {
		if !f.Orphan() {
			sizes[strings.ToLower(f.Owner)] += f.Size
		}
	}

	fmt.Fprintf(w, "  %-28s %-12s %-8s %s\n", "NAME", "STATE", "VERSION", "DISK")
	for _, d := range dists {
		name := d.Name
		if d.Default {
			name += " *"
		}
		disk := ui.MutedStyle.Render("not found")
		if size, ok := sizes[strings.ToLower(d.Name)]; ok {
			disk = core.FormatSize(size)
		}
		version := "-"
		if d.Version > 0 {
			version = fmt.Sprintf("%d", d.Version)
		}
		fmt.Fprintf(w, "  %-28s %-12s %-8s %s\n", name, stateLabel(d.State), version, disk)
	}
	if usage {
		a.renderUsage(ctx, p, dists)
	}
	return nil
}

// renderUsage prints the root filesystem usage reported inside each
// distribution. Asking starts every stopped distribution.
func (a *app) renderUsage(ctx context.Context, p *ui.Printer, dists []wsl.Distribution) {
	p.Header("Disk Usage Inside Distributions")
	w := p.Writer()
	for _, d := range dists {
		if ctx.Err() != nil {
			return
		}
		u, err := a.wsl.RootUsage(ctx, d.Name)
		if err != nil {
			a.log.WithError(err).WithField("distribution", d.Name).Debug("usage unavailable")
			p.Warning("%s: could not read disk usage", d.Name)
			continue
		}
		fmt.Fprintf(w, "  %-28s %s %s used of %s, %s free\n", d.Name, ui.UsageBar(u.UsedPercent(), 20),
			core.FormatSize(u.Used), core.FormatSize(u.Size), core.FormatSize(u.Available))
	}
	p.Hint("distributions started to read usage keep running; compaction shuts them down first")
}

func stateLabel(s wsl.State) string {
	label := fmt.Sprintf("%-12s", s.String())
	switch {
	case s.Active():
		return ui.WarningStyle.Render(label)
	case s == wsl.StateStopped:
		return ui.SuccessStyle.Render(label)
	}
	return ui.MutedStyle.Render(label)
}

// ─── Find ────────────────────────────────────────────────────────────────────

func (a *app) find(ctx context.Context, w io.Writer) error {
	p := ui.NewPrinter(w)
	files, err := a.locator.FindVirtualDiskFiles(ctx)
	if err != nil {
		return err
	}

	p.Header("VHDX Files")
	if len(files) == 0 {
		p.Warning("No virtual disk files were found.")
		p.Hint("add a pattern under locator.extra_paths in the config file")
		return nil
	}
	renderDisks(w, files)
	return nil
}

func renderDisks(w io.Writer, files []vhdx.VirtualDiskFile) {
	var total int64
	for _, f := range files {
		owner := f.Owner
		if f.Orphan() {
			owner = ui.MutedStyle.Render("(orphan)")
		}
		fmt.Fprintf(w, "  %s %-22s %10s  %s\n", ui.IconDisk, owner, core.FormatSize(f.Size), ui.DimStyle.Render(f.Path))
		total += f.Size
	}
	fmt.Fprintf(w, "\n  %d file(s), %s total\n", len(files), core.FormatSize(total))
}

// ─── Shutdown ────────────────────────────────────────────────────────────────

func (a *app) shutdown(ctx context.Context, w io.Writer, distro string) error {
	if err := requireElevation(a); err != nil {
		return err
	}
	p := ui.NewPrinter(w)

	if distro != "" {
		if err := a.wsl.Terminate(ctx, distro); err != nil {
			return fmt.Errorf("terminate %s: %w", distro, err)
		}
		p.Success("Terminated %s", distro)
		return nil
	}

	p.Info("Shutting down WSL (waiting %ds for it to settle)...", a.cfg.Shutdown.SettleSeconds)
	if err := a.wsl.ShutdownAll(ctx); err != nil {
		return err
	}
	p.Success("All WSL distributions stopped")
	return nil
}

// ─── Compact ─────────────────────────────────────────────────────────────────

func (a *app) compact(ctx context.Context, w io.Writer, target string, strategy compact.StrategyID) (*compact.BatchReport, error) {
	p := ui.NewPrinter(w)
	p.Header("Compacting " + target)

	batch, err := a.engine.Compact(ctx, target, strategy)
	if batch != nil {
		renderBatch(p, batch)
	}
	return batch, err
}

// compactQuestion checks that target names a located disk and returns the
// confirmation prompt for it.
func (a *app) compactQuestion(ctx context.Context, target string) (string, error) {
	if strings.EqualFold(target, compact.TargetAll) {
		return "This shuts down all of WSL and compacts every distribution disk. Continue?", nil
	}
	f, err := a.locator.Resolve(ctx, target)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("This shuts down all of WSL and compacts %s (%s). Continue?", f.Owner, f.Path), nil
}

func renderBatch(p *ui.Printer, batch *compact.BatchReport) {
	for _, r := range batch.Reports {
		if r.Succeeded() {
			p.Success("%s: %s → %s, reclaimed %s (%.1f%%) with %s",
				r.Target, core.FormatSize(r.PreSize), core.FormatSize(r.PostSize),
				core.FormatSize(r.BytesReclaimed), r.PercentReclaimed, r.Strategy)
			if r.Anomaly {
				p.Warning("%s grew during compaction; check free space inside the distribution", r.Target)
			}
			continue
		}

		p.Error("%s: %v", r.Target, r.Err)
		for _, at := range r.Attempts {
			if at.Outcome == compact.OutcomeSuccess {
				continue
			}
			p.Hint("%s %s: %s", at.Strategy, at.Outcome, at.Reason)
		}
		if h := compact.Hint(r.Err); h != "" {
			p.Hint("%s", h)
		}
	}
	for _, s := range batch.Skipped {
		p.Warning("skipped %s (no owning distribution)", s.Path)
	}

	p.Println()
	p.KeyValue("Succeeded", fmt.Sprintf("%d", batch.Summary.Succeeded))
	p.KeyValue("Failed", fmt.Sprintf("%d", batch.Summary.Failed))
	p.KeyValue("Skipped", fmt.Sprintf("%d", batch.Summary.Skipped))
	p.KeyValue("Reclaimed", core.FormatSize(batch.TotalReclaimed()))
	p.KeyValue("Run", batch.RunID)
}

// ─── Verify ──────────────────────────────────────────────────────────────────

func (a *app) verify(ctx context.Context, w io.Writer) error {
	p := ui.NewPrinter(w)
	files, err := a.locator.FindVirtualDiskFiles(ctx)
	if err != nil {
		return err
	}

	p.Header("Current VHDX Sizes")
	if len(files) == 0 {
		p.Warning("No virtual disk files were found.")
		return nil
	}
	renderDisks(w, files)

	volumes := make(map[string]bool)
	for _, f := range files {
		volumes[core.VolumeRoot(f.Path)] = true
	}
	roots := make([]string, 0, len(volumes))
	for r := range volumes {
		roots = append(roots, r)
	}
	sort.Strings(roots)

	p.Header("Host Free Space")
	for _, root := range roots {
		stats, err := core.VolumeUsage(ctx, root)
		if err != nil {
			p.Warning("%s: %v", root, err)
			continue
		}
		pct := 0.0
		if stats.Total > 0 {
			pct = float64(stats.Used) / float64(stats.Total) * 100
		}
		fmt.Fprintf(w, "  %-10s %s %s free of %s\n", stats.Mount, ui.UsageBar(pct, 24),
			core.FormatSize(int64(stats.Free)), core.FormatSize(int64(stats.Total)))
	}
	return nil
}

// ─── Doctor ──────────────────────────────────────────────────────────────────

func (a *app) doctor(ctx context.Context, w io.Writer) error {
	p := ui.NewPrinter(w)
	p.Header("Environment")
	p.KeyValue("Host", core.HostDescription(ctx))
	if a.elevated() {
		p.KeyValue("Elevated", ui.SuccessStyle.Render("yes"))
	} else {
		p.KeyValue("Elevated", ui.WarningStyle.Render("no, compaction and shutdown are unavailable"))
	}
	if v, err := a.wsl.Version(ctx); err == nil {
		p.KeyValue("WSL", v.String())
	} else {
		p.KeyValue("WSL", ui.MutedStyle.Render("unknown (inbox WSL or not installed)"))
	}

	p.Header("Strategies")
	sample := vhdx.VirtualDiskFile{Path: config.DiskFileName, Owner: "sample"}
	for _, s := range a.engine.Strategies() {
		if err := s.CheckSupported(ctx, sample); err != nil {
			p.Warning("%s: %v", s.ID(), err)
			continue
		}
		p.Success("%s: available", s.ID())
	}

	p.Header("Common Issues")
	for _, issue := range troubleshooting {
		fmt.Fprintf(w, "  %s\n", ui.InfoStyle.Render(issue.problem))
		for _, fix := range issue.fixes {
			fmt.Fprintf(w, "    %s %s\n", ui.IconBullet, fix)
		}
	}

	p.Header("Recommended Workflow")
	for i, step := range workflow {
		fmt.Fprintf(w, "  %d. %s\n", i+1, step)
	}
	return nil
}

type issue struct {
	problem string
	fixes   []string
}

var troubleshooting = []issue{
	{`"administrator privileges required"`, []string{
		"Press Win+X and choose Terminal (Admin)",
		"Then run wslm again from that window",
	}},
	{`"The parameter is incorrect" from the modern strategy`, []string{
		"This WSL build does not support --set-sparse; update with `wsl --update`",
		"Or run `wslm compact --strategy diskpart`",
	}},
	{`"The process cannot access the file"`, []string{
		"WSL is still running or the disk is in use",
		"Close WSL terminals and quit Docker Desktop completely",
		"Run `wslm shutdown`, wait 30 seconds, then retry",
	}},
	{"Compaction frees little space", []string{
		"Delete files inside the distribution first; compaction only returns blocks that are already free",
		"Inside WSL, `sudo fstrim -av` marks freed blocks for the host",
	}},
	{"No VHDX files found", []string{
		`Common locations: %LOCALAPPDATA%\Packages\*\LocalState\ext4.vhdx and %LOCALAPPDATA%\Docker\wsl\data\ext4.vhdx`,
		"Add custom locations under locator.extra_paths in the config file",
	}},
	{"Optimize-VHD not found", []string{
		"The cmdlet ships with Microsoft-Hyper-V-Management-PowerShell (Windows Pro/Enterprise)",
		"Use the modern or diskpart strategy instead",
	}},
}

var workflow = []string{
	"Clean up files inside each distribution",
	"Run `wslm compact all` from an elevated terminal",
	"Run `wslm verify` to confirm the space was reclaimed",
	"If the modern strategy is unsupported, retry with `--strategy diskpart`",
}
