package prompt

import (
	tea "charm.land/bubbletea/v2"

	"github.com/raphi011/vecna/internal/ui/styles"
)

// ConfirmResult holds the result of a confirmation prompt.
type ConfirmResult struct {
	Confirmed bool
	Cancelled bool
}

type confirmModel struct {
	prompt    string
	confirmed bool
	done      bool
	cancelled bool
}

func (m confirmModel) Init() tea.Cmd {
	return nil
}

func (m confirmModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyPressMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "y", "Y":
		m.confirmed = true
	case "n", "N", "enter":
		m.confirmed = false
	case "ctrl+c", "q", "esc":
		m.cancelled = true
	default:
		return m, nil
	}
	m.done = true
	return m, tea.Quit
}

// View keeps the question on screen after answering, followed by the
// answer, so the terminal transcript shows what was decided.
func (m confirmModel) View() tea.View {
	question := styles.Bold.Render(m.prompt)
	if !m.done {
		return tea.NewView(question + " " + styles.MutedStyle.Render("[y/N]") + " ")
	}
	return tea.NewView(question + " " + m.answer() + "\n")
}

func (m confirmModel) answer() string {
	switch {
	case m.cancelled:
		return styles.MutedStyle.Render("cancelled")
	case m.confirmed:
		return styles.WarningStyle.Render("yes")
	default:
		return "no"
	}
}

// Confirm shows a yes/no prompt on stderr. Enter answers "no".
func Confirm(prompt string) (ConfirmResult, error) {
	final, err := run(confirmModel{prompt: prompt})
	if err != nil {
		return ConfirmResult{}, err
	}
	m := final.(confirmModel)
	return ConfirmResult{
		Confirmed: m.confirmed,
		Cancelled: m.cancelled,
	}, nil
}
