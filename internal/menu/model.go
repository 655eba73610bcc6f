// Package menu is the interactive main menu shown when wslm runs without a
// subcommand.
package menu

import (
	"context"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

// Action is one menu entry.
type Action struct {
	Title       string
	Description string
	// NeedsAdmin disables the entry when the process is not elevated.
	NeedsAdmin bool
	// Choices, if set, is loaded first and the user picks one value that is
	// passed to Run.
	Choices func(ctx context.Context) ([]string, error)
	// Confirm returns the y/n question asked before Run; nil runs at once.
	Confirm func(choice string) string
	// Run performs the action and returns text to show.
	Run func(ctx context.Context, choice string) (string, error)
}

// ─── Phases ──────────────────────────────────────────────────────────────────

type phase int

const (
	phaseChoosing phase = iota
	phaseLoading
	phasePicking
	phaseConfirming
	phaseRunning
	phaseResult
)

// ─── Messages ────────────────────────────────────────────────────────────────

type choicesMsg struct {
	choices []string
	err     error
}

type resultMsg struct {
	output string
	err    error
}

// ─── Model ───────────────────────────────────────────────────────────────────

// Model is the bubbletea Model for the main menu.
type Model struct {
	ctx      context.Context
	title    string
	actions  []Action
	elevated bool
	hint     func(error) string

	phase        phase
	cursor       int
	choices      []string
	choiceCursor int
	choice       string
	spinner      spinner.Model

	output   string
	err      error
	notice   string
	width    int
	quitting bool
}

// New returns a menu over actions. hint may be nil.
func New(ctx context.Context, title string, actions []Action, elevated bool, hint func(error) string) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = spinnerStyle
	if hint == nil {
		hint = func(error) string { return "" }
	}
	return Model{
		ctx:      ctx,
		title:    title,
		actions:  actions,
		elevated: elevated,
		hint:     hint,
		spinner:  s,
		width:    80,
	}
}

// Output returns the text of the last finished action.
func (m Model) Output() string { return m.output }

// Err returns the error of the last finished action.
func (m Model) Err() error { return m.err }

func (m Model) current() Action {
	return m.actions[m.cursor]
}

// ─── tea.Model interface ─────────────────────────────────────────────────────

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case spinner.TickMsg:
		if m.phase != phaseRunning && m.phase != phaseLoading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case choicesMsg:
		if msg.err != nil {
			m.phase, m.output, m.err = phaseResult, "", msg.err
			return m, nil
		}
		if len(msg.choices) == 0 {
			m.phase, m.output, m.err = phaseResult, "Nothing to choose from.", nil
			return m, nil
		}
		m.phase, m.choices, m.choiceCursor = phasePicking, msg.choices, 0
		return m, nil

	case resultMsg:
		m.phase, m.output, m.err = phaseResult, msg.output, msg.err
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.quitting = true
			return m, tea.Quit
		}
		return m.handleKey(msg)
	}

	return m, nil
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}
	return m.renderView()
}

// ─── Key handling ────────────────────────────────────────────────────────────

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	switch m.phase {
	case phaseChoosing:
		switch key {
		case "q", "esc":
			m.quitting = true
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.actions)-1 {
				m.cursor++
			}
		case "enter", " ":
			return m.selectAction()
		default:
			if len(key) == 1 && key[0] >= '1' && key[0] <= '9' {
				if i := int(key[0] - '1'); i < len(m.actions) {
					m.cursor = i
					return m.selectAction()
				}
			}
		}
		return m, nil

	case phasePicking:
		switch key {
		case "esc", "q":
			m.phase = phaseChoosing
		case "up", "k":
			if m.choiceCursor > 0 {
				m.choiceCursor--
			}
		case "down", "j":
			if m.choiceCursor < len(m.choices)-1 {
				m.choiceCursor++
			}
		case "enter", " ":
			m.choice = m.choices[m.choiceCursor]
			return m.afterChoice()
		}
		return m, nil

	case phaseConfirming:
		switch key {
		case "y", "Y":
			return m.start()
		case "n", "N", "esc", "q":
			m.phase = phaseChoosing
			m.notice = "Cancelled."
		}
		return m, nil

	case phaseResult:
		if key == "q" {
			m.quitting = true
			return m, tea.Quit
		}
		m.phase = phaseChoosing
		return m, nil
	}

	return m, nil
}

func (m Model) selectAction() (tea.Model, tea.Cmd) {
	a := m.current()
	m.notice = ""
	m.choice = ""
	if a.NeedsAdmin && !m.elevated {
		m.notice = "\"" + a.Title + "\" requires an elevated terminal (Run as administrator)."
		return m, nil
	}
	if a.Choices != nil {
		m.phase = phaseLoading
		ctx, load := m.ctx, a.Choices
		return m, tea.Batch(m.spinner.Tick, func() tea.Msg {
			choices, err := load(ctx)
			return choicesMsg{choices: choices, err: err}
		})
	}
	return m.afterChoice()
}

func (m Model) afterChoice() (tea.Model, tea.Cmd) {
	if m.current().Confirm != nil {
		m.phase = phaseConfirming
		return m, nil
	}
	return m.start()
}

func (m Model) start() (tea.Model, tea.Cmd) {
	m.phase = phaseRunning
	ctx, run, choice := m.ctx, m.current().Run, m.choice
	return m, tea.Batch(m.spinner.Tick, func() tea.Msg {
		out, err := run(ctx, choice)
		return resultMsg{output: out, err: err}
	})
}
