package menu

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

var keyEnter = tea.KeyMsg{Type: tea.KeyEnter}

// press sends msg and runs the resulting commands until a non-spinner
// message comes back, which is fed to the model too.
func press(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, cmd := m.Update(msg)
	m = next.(Model)
	for _, out := range run(cmd) {
		next, _ = m.Update(out)
		m = next.(Model)
	}
	return m
}

func run(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, run(c)...)
		}
		return out
	}
	if _, ok := msg.(spinner.TickMsg); ok {
		return nil
	}
	return []tea.Msg{msg}
}

func testActions(calls *[]string) []Action {
	return []Action{
		{
			Title: "List distributions",
			Run: func(ctx context.Context, _ string) (string, error) {
				*calls = append(*calls, "list")
				return "Ubuntu  Stopped", nil
			},
		},
		{
			Title:      "Compact a distribution",
			NeedsAdmin: true,
			Choices: func(context.Context) ([]string, error) {
				return []string{"Ubuntu", "Debian"}, nil
			},
			Confirm: func(choice string) string { return "Compact " + choice + "?" },
			Run: func(ctx context.Context, choice string) (string, error) {
				*calls = append(*calls, "compact "+choice)
				return "", errors.New("strategy failed")
			},
		},
	}
}

func TestMenuRunsSimpleAction(t *testing.T) {
	var calls []string
	m := New(context.Background(), "WSLMole", testActions(&calls), true, nil)

	m = press(t, m, keyEnter)
	if m.phase != phaseResult || m.Output() != "Ubuntu  Stopped" {
		t.Fatalf("unexpected state phase=%v output=%q", m.phase, m.Output())
	}
	if !strings.Contains(m.View(), "Ubuntu  Stopped") {
		t.Errorf("result not rendered:\n%s", m.View())
	}

	m = press(t, m, keyEnter)
	if m.phase != phaseChoosing {
		t.Errorf("any key should return to the menu, phase=%v", m.phase)
	}
}

func TestMenuPickConfirmRun(t *testing.T) {
	var calls []string
	hint := func(error) string { return "try diskpart" }
	m := New(context.Background(), "WSLMole", testActions(&calls), true, hint)

	m = press(t, m, keyRunes("2"))
	if m.phase != phasePicking || len(m.choices) != 2 {
		t.Fatalf("expected choice list, phase=%v choices=%v", m.phase, m.choices)
	}

	m = press(t, m, tea.KeyMsg{Type: tea.KeyDown})
	m = press(t, m, keyEnter)
	if m.phase != phaseConfirming || !strings.Contains(m.View(), "Compact Debian?") {
		t.Fatalf("expected confirmation for Debian, phase=%v view:\n%s", m.phase, m.View())
	}

	m = press(t, m, keyRunes("y"))
	if len(calls) != 1 || calls[0] != "compact Debian" {
		t.Fatalf("calls = %v", calls)
	}
	if m.Err() == nil || !strings.Contains(m.View(), "try diskpart") {
		t.Errorf("error and hint should be shown:\n%s", m.View())
	}
}

func TestMenuDeclineConfirmation(t *testing.T) {
	var calls []string
	m := New(context.Background(), "WSLMole", testActions(&calls), true, nil)

	m = press(t, m, keyRunes("2"))
	m = press(t, m, keyEnter)
	m = press(t, m, keyRunes("n"))

	if m.phase != phaseChoosing || len(calls) != 0 {
		t.Fatalf("declining must not run the action: phase=%v calls=%v", m.phase, calls)
	}
}

func TestMenuReadOnlyBlocksAdminActions(t *testing.T) {
	var calls []string
	m := New(context.Background(), "WSLMole", testActions(&calls), false, nil)

	m = press(t, m, keyRunes("2"))
	if m.phase != phaseChoosing || len(calls) != 0 {
		t.Fatalf("admin action must not start when not elevated: phase=%v", m.phase)
	}
	view := m.View()
	if !strings.Contains(view, "Run as administrator") || !strings.Contains(view, "READ-ONLY") {
		t.Errorf("expected elevation notice:\n%s", view)
	}

	m = press(t, m, keyRunes("1"))
	if len(calls) != 1 || calls[0] != "list" {
		t.Errorf("read-only actions should still run, calls=%v", calls)
	}
}

func TestMenuQuit(t *testing.T) {
	m := New(context.Background(), "WSLMole", testActions(new([]string)), true, nil)
	next, cmd := m.Update(keyRunes("q"))
	if cmd == nil {
		t.Fatal("q should quit")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatal("expected tea.QuitMsg")
	}
	if next.View() != "" {
		t.Error("view should be empty after quitting")
	}
}
