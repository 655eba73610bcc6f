package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Printer writes styled status lines.
type Printer struct {
	w io.Writer
}

// NewPrinter returns a Printer writing to w.
func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w}
}

// Writer returns the underlying writer.
func (p *Printer) Writer() io.Writer {
	return p.w
}

func (p *Printer) Header(title string) {
	fmt.Fprintln(p.w)
	fmt.Fprintln(p.w, HeaderStyle.Render(IconDiamond+" "+title))
	fmt.Fprintln(p.w, MutedStyle.Render(strings.Repeat("─", lipgloss.Width(title)+2)))
}

func (p *Printer) Success(format string, args ...any) {
	p.line(SuccessStyle, IconSuccess, format, args...)
}

func (p *Printer) Warning(format string, args ...any) {
	p.line(WarningStyle, IconWarning, format, args...)
}

func (p *Printer) Error(format string, args ...any) {
	p.line(ErrorStyle, IconError, format, args...)
}

func (p *Printer) Info(format string, args ...any) {
	p.line(InfoStyle, IconInfo, format, args...)
}

// Hint prints an indented, muted follow-up line.
func (p *Printer) Hint(format string, args ...any) {
	fmt.Fprintln(p.w, "    "+HintBarStyle.Render(IconChevron+" "+fmt.Sprintf(format, args...)))
}

// KeyValue prints an aligned "key  value" pair.
func (p *Printer) KeyValue(key, value string) {
	fmt.Fprintf(p.w, "  %s %s\n", DimStyle.Render(fmt.Sprintf("%-14s", key)), TextStyle.Render(value))
}

// Println writes a plain line.
func (p *Printer) Println(a ...any) {
	fmt.Fprintln(p.w, a...)
}

func (p *Printer) line(style lipgloss.Style, icon, format string, args ...any) {
	fmt.Fprintf(p.w, "  %s %s\n", style.Render(icon), fmt.Sprintf(format, args...))
}

// UsageBar renders a filled bar for a 0-100 percentage.
func UsageBar(pct float64, width int) string {
	if width <= 0 {
		return ""
	}
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	filled := int(pct / 100 * float64(width))

	color := ColorSuccess
	switch {
	case pct >= 90:
		color = ColorError
	case pct >= 75:
		color = ColorWarning
	}
	bar := lipgloss.NewStyle().Foreground(color).Render(strings.Repeat(IconBlock, filled))
	rest := MutedStyle.Render(strings.Repeat(IconShade, width-filled))
	return bar + rest
}
