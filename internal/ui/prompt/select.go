package prompt

import (
	"strings"
	"unicode/utf8"

	tea "charm.land/bubbletea/v2"
	"github.com/sahilm/fuzzy"

	"github.com/raphi011/vecna/internal/ui/styles"
)

// maxVisible bounds the rows shown at once.
const maxVisible = 10

// Option is one selectable entry.
type Option struct {
	Label       string
	Description string
}

// SelectResult holds the result of a selection prompt.
type SelectResult struct {
	Index     int
	Cancelled bool
}

type optionSource []Option

func (s optionSource) String(i int) string { return s[i].Label }
func (s optionSource) Len() int            { return len(s) }

type selectModel struct {
	prompt   string
	options  []Option
	filter   string
	filtered []fuzzy.Match
	cursor   int

	selected  int
	done      bool
	cancelled bool
}

func newSelectModel(prompt string, options []Option, initial int) selectModel {
	m := selectModel{prompt: prompt, options: options, selected: -1}
	m.applyFilter()
	if initial >= 0 && initial < len(options) {
		m.cursor = initial
	}
	return m
}

// applyFilter ranks options by fuzzy score; an empty filter keeps order.
func (m *selectModel) applyFilter() {
	if m.filter == "" {
		m.filtered = make([]fuzzy.Match, len(m.options))
		for i, o := range m.options {
			m.filtered[i] = fuzzy.Match{Str: o.Label, Index: i}
		}
	} else {
		m.filtered = fuzzy.FindFrom(m.filter, optionSource(m.options))
	}
	m.cursor = min(m.cursor, max(len(m.filtered)-1, 0))
}

func (m selectModel) Init() tea.Cmd {
	return nil
}

func (m selectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyPressMsg)
	if !ok {
		return m, nil
	}

	switch key.String() {
	case "ctrl+c", "esc":
		m.cancelled = true
		m.done = true
		return m, tea.Quit
	case "enter":
		if len(m.filtered) == 0 {
			return m, nil
		}
		m.selected = m.filtered[m.cursor].Index
		m.done = true
		return m, tea.Quit
	case "up", "ctrl+p":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "ctrl+n":
		if m.cursor < len(m.filtered)-1 {
			m.cursor++
		}
	case "backspace":
		if m.filter != "" {
			_, size := utf8.DecodeLastRuneInString(m.filter)
			m.filter = m.filter[:len(m.filter)-size]
			m.applyFilter()
		}
	default:
		if key.Text != "" {
			m.filter += key.Text
			m.cursor = 0
			m.applyFilter()
		}
	}
	return m, nil
}

func (m selectModel) View() tea.View {
	if m.done {
		return tea.NewView("")
	}

	var b strings.Builder
	b.WriteString(styles.Bold.Render(m.prompt) + "\n")
	b.WriteString(styles.MutedStyle.Render("Filter: ") + m.filter + "\n\n")

	start := 0
	if m.cursor >= maxVisible {
		start = m.cursor - maxVisible + 1
	}
	end := min(start+maxVisible, len(m.filtered))

	for i := start; i < end; i++ {
		match := m.filtered[i]
		opt := m.options[match.Index]

		cursor := "  "
		if i == m.cursor {
			cursor = styles.AccentStyle.Render("> ")
		}
		b.WriteString(cursor + highlight(opt.Label, match.MatchedIndexes, i == m.cursor))
		if opt.Description != "" {
			b.WriteString("  " + styles.MutedStyle.Render(opt.Description))
		}
		b.WriteString("\n")
	}
	if len(m.filtered) == 0 {
		b.WriteString(styles.MutedStyle.Render("  No matching worktrees") + "\n")
	}
	b.WriteString("\n" + styles.MutedStyle.Render("↑/↓ select • type to filter • enter confirm • esc cancel"))
	return tea.NewView(b.String())
}

// highlight renders label with the fuzzy-matched bytes emphasized.
func highlight(label string, matched []int, active bool) string {
	if len(matched) == 0 {
		if active {
			return styles.AccentStyle.Render(label)
		}
		return label
	}
	hits := make(map[int]bool, len(matched))
	for _, i := range matched {
		hits[i] = true
	}
	var b strings.Builder
	for i, r := range label {
		s := string(r)
		switch {
		case hits[i]:
			b.WriteString(styles.AccentStyle.Underline(true).Render(s))
		case active:
			b.WriteString(styles.AccentStyle.Render(s))
		default:
			b.WriteString(s)
		}
	}
	return b.String()
}

// Select shows a fuzzy-filtered list and returns the chosen index.
// initial positions the cursor, e.g. on the current worktree.
func Select(prompt string, options []Option, initial int) (SelectResult, error) {
	if len(options) == 0 {
		return SelectResult{Cancelled: true}, nil
	}

	final, err := run(newSelectModel(prompt, options, initial))
	if err != nil {
		return SelectResult{}, err
	}
	m := final.(selectModel)
	if m.cancelled || m.selected < 0 {
		return SelectResult{Cancelled: true}, nil
	}
	return SelectResult{Index: m.selected}, nil
}
