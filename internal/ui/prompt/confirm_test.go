package prompt

import (
	"fmt"
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"
)

func TestConfirmModel_Answers(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		key  tea.KeyPressMsg
		want ConfirmResult
	}{
		{"y", tea.KeyPressMsg{Code: 'y', Text: "y"}, ConfirmResult{Confirmed: true}},
		{"Y", tea.KeyPressMsg{Code: 'Y', Text: "Y"}, ConfirmResult{Confirmed: true}},
		{"n", tea.KeyPressMsg{Code: 'n', Text: "n"}, ConfirmResult{}},
		{"enter answers no", tea.KeyPressMsg{Code: tea.KeyEnter}, ConfirmResult{}},
		{"esc", tea.KeyPressMsg{Code: tea.KeyEscape}, ConfirmResult{Cancelled: true}},
		{"ctrl+c", tea.KeyPressMsg{Code: 'c', Mod: tea.ModCtrl}, ConfirmResult{Cancelled: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			updated, cmd := confirmModel{prompt: "Remove feature-a?"}.Update(tt.key)
			m := updated.(confirmModel)
			if !m.done || cmd == nil {
				t.Fatalf("%s should finish the prompt (done=%v, cmd=%v)", tt.name, m.done, cmd != nil)
			}
			if got := (ConfirmResult{Confirmed: m.confirmed, Cancelled: m.cancelled}); got != tt.want {
				t.Errorf("result = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestConfirmModel_IgnoresOtherInput(t *testing.T) {
	t.Parallel()

	m := confirmModel{prompt: "Remove feature-a?"}
	if m.Init() != nil {
		t.Error("Init() should not start a command")
	}
	for _, msg := range []tea.Msg{
		tea.KeyPressMsg{Code: 'x', Text: "x"},
		tea.WindowSizeMsg{Width: 80, Height: 24},
	} {
		updated, cmd := m.Update(msg)
		if um := updated.(confirmModel); um.done || cmd != nil {
			t.Errorf("Update(%T) should be a no-op", msg)
		}
	}
}

func TestConfirmModel_ViewEchoesAnswer(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		model confirmModel
		want  string
	}{
		{"pending", confirmModel{prompt: "Delete 2 branches?"}, "[y/N]"},
		{"yes", confirmModel{prompt: "Delete 2 branches?", done: true, confirmed: true}, "yes"},
		{"no", confirmModel{prompt: "Delete 2 branches?", done: true}, "no"},
		{"cancelled", confirmModel{prompt: "Delete 2 branches?", done: true, cancelled: true}, "cancelled"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			content := fmt.Sprint(tt.model.View().Content)
			if !strings.Contains(content, "Delete 2 branches?") {
				t.Errorf("View() = %q, want the question", content)
			}
			if !strings.Contains(content, tt.want) {
				t.Errorf("View() = %q, want %q", content, tt.want)
			}
		})
	}
}
