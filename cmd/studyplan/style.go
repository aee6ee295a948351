package main

import (
	"github.com/charmbracelet/lipgloss"

	"studyplan/internal/urgency"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true)
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))

	levelStyles = map[urgency.Level]lipgloss.Style{
		urgency.Overdue:  lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true),
		urgency.Critical: lipgloss.NewStyle().Foreground(lipgloss.Color("1")),
		urgency.Urgent:   lipgloss.NewStyle().Foreground(lipgloss.Color("208")),
		urgency.Soon:     lipgloss.NewStyle().Foreground(lipgloss.Color("3")),
		urgency.Upcoming: lipgloss.NewStyle().Foreground(lipgloss.Color("4")),
		urgency.Future:   lipgloss.NewStyle().Foreground(lipgloss.Color("244")),
	}
)

// badge renders a classification label in its level colour. Completed tasks
// are muted regardless of level.
func badge(c urgency.Classification) string {
	if c.Completed {
		return mutedStyle.Render(c.Label)
	}
	style, ok := levelStyles[c.Level]
	if !ok {
		return c.Label
	}
	return style.Render(c.Label)
}
