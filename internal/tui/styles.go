package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/felixgeelhaar/parkspot/internal/notify"
)

// Styles contains lipgloss styles for the TUI
type Styles struct {
	Title       lipgloss.Style
	Subtitle    lipgloss.Style
	Muted       lipgloss.Style
	Border      lipgloss.Style
	Highlighted lipgloss.Style
	Item        lipgloss.Style
	Label       lipgloss.Style
	Value       lipgloss.Style
	Available   lipgloss.Style
	Occupied    lipgloss.Style
	Help        lipgloss.Style
	Toast       lipgloss.Style
	Severity    map[notify.Severity]lipgloss.Color
}

// DefaultStyles returns the default lipgloss styles
func DefaultStyles() Styles {
	return Styles{
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("63")). // Purple
			MarginBottom(1),
		Subtitle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")),
		Muted: lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")),
		Border: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Padding(1, 2),
		Highlighted: lipgloss.NewStyle().
			Foreground(lipgloss.Color("170")).
			Bold(true).
			PaddingLeft(2),
		Item: lipgloss.NewStyle().
			PaddingLeft(4),
		Label: lipgloss.NewStyle().
			Foreground(lipgloss.Color("99")).
			Bold(true),
		Value: lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")),
		Available: lipgloss.NewStyle().
			Foreground(lipgloss.Color("46")),
		Occupied: lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")),
		Help: lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			MarginTop(1),
		Toast: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			Padding(0, 1),
		Severity: map[notify.Severity]lipgloss.Color{
			notify.SeveritySuccess: lipgloss.Color("46"),
			notify.SeverityDanger:  lipgloss.Color("196"),
			notify.SeverityWarning: lipgloss.Color("226"),
			notify.SeverityInfo:    lipgloss.Color("86"),
		},
	}
}

// toast returns the box style for a notification of the given severity
func (s Styles) toast(sev notify.Severity) lipgloss.Style {
	c, ok := s.Severity[sev]
	if !ok {
		c = s.Severity[notify.SeverityInfo]
	}
	return s.Toast.BorderForeground(c)
}
