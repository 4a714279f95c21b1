package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/barysiuk/tcman/internal/core"
)

// confirmFunc asks on the terminal with a Yes/No dialog, or reads a line
// from stdin when it is not a terminal. An empty answer means yes.
func confirmFunc(cmd *cobra.Command) core.ConfirmFunc {
	return func(prompt string) (bool, error) {
		if term.IsTerminal(int(os.Stdin.Fd())) {
			return runConfirmDialog(prompt, os.Stdin, os.Stdout)
		}
		return readConfirmLine(prompt, cmd.InOrStdin(), os.Stdout)
	}
}

func runConfirmDialog(prompt string, in io.Reader, out io.Writer) (bool, error) {
	final, err := tea.NewProgram(newConfirmModel(prompt), tea.WithInput(in), tea.WithOutput(out)).Run()
	if err != nil {
		return false, fmt.Errorf("running confirmation prompt: %w", err)
	}
	m := final.(confirmModel)
	answer := "no"
	if m.confirmed {
		answer = "yes"
	}
	fmt.Fprintf(out, "%s %s\n", prompt, answer)
	return m.confirmed, nil
}

func readConfirmLine(prompt string, in io.Reader, out io.Writer) (bool, error) {
	fmt.Fprintf(out, "%s [Y/n] ", prompt)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, fmt.Errorf("reading confirmation: %w", err)
	}
	if !strings.HasSuffix(line, "\n") {
		fmt.Fprintln(out)
	}

	switch strings.ToLower(strings.TrimSpace(line)) {
	case "", "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

// confirmModel is a one-question Yes/No dialog. Focus starts on Yes.
//
// Navigation: left/right/tab move focus, enter activates the focused
// button, y/n answer directly, esc and ctrl+c answer no.
type confirmModel struct {
	message   string
	focusYes  bool
	done      bool
	confirmed bool
}

func newConfirmModel(message string) confirmModel {
	return confirmModel{message: message, focusYes: true}
}

func (m confirmModel) Init() tea.Cmd {
	return nil
}

func (m confirmModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch {
	case key.Matches(keyMsg, confirmKeys.Yes):
		return m.answer(true)
	case key.Matches(keyMsg, confirmKeys.No), key.Matches(keyMsg, confirmKeys.Cancel):
		return m.answer(false)
	case key.Matches(keyMsg, confirmKeys.Enter):
		return m.answer(m.focusYes)
	case key.Matches(keyMsg, confirmKeys.Toggle):
		m.focusYes = !m.focusYes
	}
	return m, nil
}

func (m confirmModel) answer(yes bool) (tea.Model, tea.Cmd) {
	m.done = true
	m.confirmed = yes
	return m, tea.Quit
}

func (m confirmModel) View() string {
	if m.done {
		return ""
	}

	yesBtn, noBtn := buttonStyle.Render("Yes"), activeButtonStyle.Render("No")
	if m.focusYes {
		yesBtn, noBtn = activeButtonStyle.Render("Yes"), buttonStyle.Render("No")
	}
	buttons := lipgloss.JoinHorizontal(lipgloss.Top, yesBtn, "  ", noBtn)
	return lipgloss.JoinVertical(lipgloss.Left, promptStyle.Render(m.message), buttons) + "\n"
}

var confirmKeys = struct {
	Yes    key.Binding
	No     key.Binding
	Cancel key.Binding
	Enter  key.Binding
	Toggle key.Binding
}{
	Yes:    key.NewBinding(key.WithKeys("y", "Y"), key.WithHelp("y", "yes")),
	No:     key.NewBinding(key.WithKeys("n", "N"), key.WithHelp("n", "no")),
	Cancel: key.NewBinding(key.WithKeys("esc", "ctrl+c")),
	Enter:  key.NewBinding(key.WithKeys("enter")),
	Toggle: key.NewBinding(key.WithKeys("left", "right", "h", "l", "tab", "shift+tab")),
}
