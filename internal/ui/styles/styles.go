// Package styles provides shared lipgloss styles for UI components.
package styles

import "charm.land/lipgloss/v2"

// Palette
var (
	Primary = lipgloss.Color("62")
	Accent  = lipgloss.Color("212")
	Success = lipgloss.Color("82")
	Error   = lipgloss.Color("196")
	Warning = lipgloss.Color("214")
	Muted   = lipgloss.Color("240")
)

var (
	Bold         = lipgloss.NewStyle().Bold(true)
	AccentStyle  = lipgloss.NewStyle().Foreground(Accent).Bold(true)
	SuccessStyle = lipgloss.NewStyle().Foreground(Success)
	ErrorStyle   = lipgloss.NewStyle().Foreground(Error)
	WarningStyle = lipgloss.NewStyle().Foreground(Warning)
	MutedStyle   = lipgloss.NewStyle().Foreground(Muted)
)

// Symbols for list and plan output.
const (
	CurrentMarker = "*"
	CheckMark     = "✓"
	CrossMark     = "✗"
	ResetMarker   = "!"
)
