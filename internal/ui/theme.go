// Package ui holds the shared lipgloss palette, icons and print helpers.
package ui

import (
	"github.com/charmbracelet/lipgloss"
)

// ─── Palette ─────────────────────────────────────────────────────────────────

var (
	ColorPrimary   = lipgloss.AdaptiveColor{Light: "#0e7490", Dark: "#22d3ee"}
	ColorSecondary = lipgloss.AdaptiveColor{Light: "#7c3aed", Dark: "#a78bfa"}
	ColorSuccess   = lipgloss.AdaptiveColor{Light: "#16a34a", Dark: "#4ade80"}
	ColorWarning   = lipgloss.AdaptiveColor{Light: "#ca8a04", Dark: "#facc15"}
	ColorError     = lipgloss.AdaptiveColor{Light: "#dc2626", Dark: "#f87171"}
	ColorCoral     = lipgloss.AdaptiveColor{Light: "#ea580c", Dark: "#fb923c"}
	ColorText      = lipgloss.AdaptiveColor{Light: "#1f2937", Dark: "#e5e7eb"}
	ColorTextDim   = lipgloss.AdaptiveColor{Light: "#4b5563", Dark: "#9ca3af"}
	ColorMuted     = lipgloss.AdaptiveColor{Light: "#9ca3af", Dark: "#6b7280"}
)

// ─── Icons ───────────────────────────────────────────────────────────────────

const (
	IconSuccess = "✓"
	IconError   = "✗"
	IconWarning = "!"
	IconInfo    = "i"
	IconBullet  = "•"
	IconChevron = "›"
	IconDiamond = "◆"
	IconDisk    = "▣"
	IconPipe    = "│"
	IconBlock   = "█"
	IconShade   = "░"
)

// ─── Styles ──────────────────────────────────────────────────────────────────

var (
	HeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(ColorPrimary)

	SuccessStyle = lipgloss.NewStyle().Foreground(ColorSuccess)
	WarningStyle = lipgloss.NewStyle().Foreground(ColorWarning)
	ErrorStyle   = lipgloss.NewStyle().Bold(true).Foreground(ColorError)
	InfoStyle    = lipgloss.NewStyle().Foreground(ColorSecondary)
	MutedStyle   = lipgloss.NewStyle().Foreground(ColorMuted)
	TextStyle    = lipgloss.NewStyle().Foreground(ColorText)
	DimStyle     = lipgloss.NewStyle().Foreground(ColorTextDim)

	TagWarningStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#000000")).
			Background(ColorWarning).
			Padding(0, 1)

	HintBarStyle = lipgloss.NewStyle().
			Foreground(ColorMuted).
			Italic(true)
)
