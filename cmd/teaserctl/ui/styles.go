// Package ui renders the project dashboard for the teaserctl CLI.
package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/kelp-ai/teaserctl/internal/project"
)

var (
	colorAccent  = lipgloss.Color("#8BC34A")
	colorMuted   = lipgloss.Color("#6b7280")
	colorError   = lipgloss.Color("#e53935")
	colorWarning = lipgloss.Color("#FFC107")
	colorInfo    = lipgloss.Color("#2196F3")
)

// Styles holds the lipgloss styles used by the dashboard.
type Styles struct {
	Title    lipgloss.Style
	Header   lipgloss.Style
	Row      lipgloss.Style
	Selected lipgloss.Style
	Muted    lipgloss.Style
	Error    lipgloss.Style
	Help     lipgloss.Style
	Spinner  lipgloss.Style

	statusStyles map[project.Status]lipgloss.Style
}

// DefaultStyles returns the dashboard's default styling.
func DefaultStyles() Styles {
	return Styles{
		Title:    lipgloss.NewStyle().Bold(true).Foreground(colorAccent).Padding(0, 1),
		Header:   lipgloss.NewStyle().Bold(true).Underline(true).Padding(0, 1),
		Row:      lipgloss.NewStyle().Padding(0, 1),
		Selected: lipgloss.NewStyle().Bold(true).Foreground(colorAccent).Padding(0, 1),
		Muted:    lipgloss.NewStyle().Foreground(colorMuted),
		Error:    lipgloss.NewStyle().Foreground(colorError).Bold(true),
		Help:     lipgloss.NewStyle().Foreground(colorMuted).Padding(1, 1, 0, 1),
		Spinner:  lipgloss.NewStyle().Foreground(colorInfo),
		statusStyles: map[project.Status]lipgloss.Style{
			project.StatusPending:    lipgloss.NewStyle().Foreground(colorMuted),
			project.StatusProcessing: lipgloss.NewStyle().Foreground(colorInfo),
			project.StatusCompleted:  lipgloss.NewStyle().Foreground(colorAccent),
			project.StatusFailed:     lipgloss.NewStyle().Foreground(colorWarning),
		},
	}
}

// Status renders a status string in its semantic color.
func (s Styles) Status(st project.Status) string {
	if style, ok := s.statusStyles[st]; ok {
		return style.Render(string(st))
	}
	return string(st)
}
