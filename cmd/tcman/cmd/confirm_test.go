package cmd

import (
	"bytes"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func TestReadConfirmLine(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"", true},
		{"\n", true},
		{"y\n", true},
		{"YES\n", true},
		{"n\n", false},
		{"no", false},
		{"maybe\n", false},
	}

	for _, tt := range tests {
		var out bytes.Buffer
		got, err := readConfirmLine("Proceed?", strings.NewReader(tt.input), &out)
		if err != nil {
			t.Fatalf("readConfirmLine(%q): %v", tt.input, err)
		}
		if got != tt.want {
			t.Errorf("readConfirmLine(%q) = %v, want %v", tt.input, got, tt.want)
		}
		if !strings.HasPrefix(out.String(), "Proceed? [Y/n] ") {
			t.Errorf("prompt = %q", out.String())
		}
		if !strings.HasSuffix(out.String(), "\n") && !strings.HasSuffix(tt.input, "\n") {
			t.Errorf("output for %q does not end the prompt line: %q", tt.input, out.String())
		}
	}
}

func press(t *testing.T, m confirmModel, msg tea.KeyMsg) (confirmModel, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	return next.(confirmModel), cmd
}

func TestConfirmModel_DefaultsToYes(t *testing.T) {
	m := newConfirmModel("Proceed?")
	if !m.focusYes {
		t.Fatal("focus should start on Yes")
	}

	m, cmd := press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if !m.done || !m.confirmed {
		t.Errorf("enter on Yes: done=%v confirmed=%v", m.done, m.confirmed)
	}
	if cmd == nil {
		t.Error("answering should quit the program")
	}
	if m.View() != "" {
		t.Errorf("view after answer = %q, want empty", m.View())
	}
}

func TestConfirmModel_ToggleThenEnter(t *testing.T) {
	m := newConfirmModel("Proceed?")
	m, cmd := press(t, m, tea.KeyMsg{Type: tea.KeyTab})
	if cmd != nil {
		t.Error("toggling should not quit")
	}
	if m.focusYes {
		t.Fatal("tab should move focus to No")
	}

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if !m.done || m.confirmed {
		t.Errorf("enter on No: done=%v confirmed=%v", m.done, m.confirmed)
	}
}

func TestConfirmModel_Shortcuts(t *testing.T) {
	tests := []struct {
		name string
		msg  tea.KeyMsg
		want bool
	}{
		{"y", tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'y'}}, true},
		{"N", tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'N'}}, false},
		{"esc", tea.KeyMsg{Type: tea.KeyEsc}, false},
		{"ctrl+c", tea.KeyMsg{Type: tea.KeyCtrlC}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, _ := press(t, newConfirmModel("Proceed?"), tt.msg)
			if !m.done {
				t.Fatal("shortcut should answer")
			}
			if m.confirmed != tt.want {
				t.Errorf("confirmed = %v, want %v", m.confirmed, tt.want)
			}
		})
	}
}

func TestConfirmModel_IgnoresOtherKeys(t *testing.T) {
	m, cmd := press(t, newConfirmModel("Proceed?"), tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'x'}})
	if m.done || cmd != nil {
		t.Error("unrelated key should not answer")
	}
	if !strings.Contains(m.View(), "Proceed?") {
		t.Errorf("view = %q, want prompt", m.View())
	}
}
