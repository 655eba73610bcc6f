package menu

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/lakshaymaurya-felt/wslmole/internal/ui"
)

var spinnerStyle = lipgloss.NewStyle().Foreground(ui.ColorPrimary)

// ─── Top-level renderer ─────────────────────────────────────────────────────

func (m Model) renderView() string {
	var s strings.Builder
	s.WriteString(m.renderHeader())
	s.WriteString("\n\n")

	switch m.phase {
	case phaseChoosing:
		s.WriteString(m.renderActions())
	case phaseLoading:
		s.WriteString("  " + m.spinner.View() + " Loading…")
	case phasePicking:
		s.WriteString(m.renderChoices())
	case phaseConfirming:
		s.WriteString(m.renderConfirm())
	case phaseRunning:
		s.WriteString("  " + m.spinner.View() + " " + m.current().Title + "…")
	case phaseResult:
		s.WriteString(m.renderResult())
	}

	s.WriteString("\n\n")
	s.WriteString(m.renderFooter())
	return s.String()
}

func (m Model) renderHeader() string {
	title := ui.HeaderStyle.Render("  " + ui.IconDiamond + " " + m.title)
	if m.elevated {
		return title
	}
	return title + "  " + ui.TagWarningStyle.Render("READ-ONLY")
}

func (m Model) renderActions() string {
	var s strings.Builder
	for i, a := range m.actions {
		cursor := "  "
		label := ui.TextStyle
		if i == m.cursor {
			cursor = ui.HeaderStyle.Render(ui.IconChevron + " ")
			label = label.Bold(true).Foreground(ui.ColorPrimary)
		}
		title := a.Title
		if a.NeedsAdmin && !m.elevated {
			label = ui.MutedStyle
			title += " (admin)"
		}
		fmt.Fprintf(&s, "  %s%s %s\n", cursor, ui.MutedStyle.Render(fmt.Sprintf("%d.", i+1)), label.Render(title))
		if i == m.cursor && a.Description != "" {
			fmt.Fprintf(&s, "       %s\n", ui.DimStyle.Render(a.Description))
		}
	}
	if m.notice != "" {
		s.WriteString("\n  " + ui.WarningStyle.Render(m.notice))
	}
	return strings.TrimRight(s.String(), "\n")
}

func (m Model) renderChoices() string {
	var s strings.Builder
	s.WriteString("  " + ui.DimStyle.Render("Choose a target:") + "\n")
	for i, c := range m.choices {
		if i == m.choiceCursor {
			fmt.Fprintf(&s, "  %s %s\n", ui.HeaderStyle.Render(ui.IconChevron), ui.TextStyle.Bold(true).Render(c))
		} else {
			fmt.Fprintf(&s, "    %s\n", ui.TextStyle.Render(c))
		}
	}
	return strings.TrimRight(s.String(), "\n")
}

func (m Model) renderConfirm() string {
	q := m.current().Confirm(m.choice)
	return "  " + ui.WarningStyle.Render(ui.IconWarning+" "+q) + " " + ui.MutedStyle.Render("[y/N]")
}

func (m Model) renderResult() string {
	var s strings.Builder
	if out := strings.TrimRight(m.output, "\n"); out != "" {
		s.WriteString(out)
		s.WriteString("\n")
	}
	if m.err != nil {
		s.WriteString("\n  " + ui.ErrorStyle.Render(ui.IconError+" "+m.err.Error()))
		if h := m.hint(m.err); h != "" {
			s.WriteString("\n    " + ui.HintBarStyle.Render(ui.IconChevron+" "+h))
		}
	}
	return strings.TrimRight(s.String(), "\n")
}

func (m Model) renderFooter() string {
	var keys string
	switch m.phase {
	case phaseChoosing:
		keys = "↑/↓ move · enter select · 1-9 jump · q quit"
	case phasePicking:
		keys = "↑/↓ move · enter select · esc back"
	case phaseConfirming:
		keys = "y confirm · n cancel"
	case phaseResult:
		keys = "any key back · q quit"
	default:
		keys = "ctrl+c abort"
	}
	return ui.HintBarStyle.Render("  " + keys)
}
