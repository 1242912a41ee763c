package main

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/hupe1980/agentoffice/core"
)

type theme struct {
	banner  lipgloss.Style
	prompt  lipgloss.Style
	human   lipgloss.Style
	system  lipgloss.Style
	muted   lipgloss.Style
	errText lipgloss.Style
	agents  []lipgloss.Style
}

func newTheme() theme {
	pink := lipgloss.Color("#ff71ce")
	blue := lipgloss.Color("#01cdfe")
	mint := lipgloss.Color("#05ffa1")
	amber := lipgloss.Color("#ffb86c")
	violet := lipgloss.Color("#b967ff")
	muted := lipgloss.Color("#9ca3d8")

	return theme{
		banner: lipgloss.NewStyle().
			Foreground(mint).
			Bold(true),
		prompt:  lipgloss.NewStyle().Foreground(blue).Bold(true),
		human:   lipgloss.NewStyle().Foreground(blue).Bold(true),
		system:  lipgloss.NewStyle().Foreground(muted).Italic(true),
		muted:   lipgloss.NewStyle().Foreground(muted),
		errText: lipgloss.NewStyle().Foreground(pink).Bold(true),
		agents: []lipgloss.Style{
			lipgloss.NewStyle().Foreground(mint).Bold(true),
			lipgloss.NewStyle().Foreground(amber).Bold(true),
			lipgloss.NewStyle().Foreground(violet).Bold(true),
			lipgloss.NewStyle().Foreground(pink).Bold(true),
		},
	}
}

// sender styles a sender label. idx is the agent's roster position, -1 for
// non-agents.
func (t theme) sender(name string, idx int) string {
	switch {
	case name == core.HumanSender:
		return t.human.Render("You")
	case name == core.SystemSender:
		return t.system.Render("System")
	case idx >= 0:
		return t.agents[idx%len(t.agents)].Render(name)
	default:
		return t.muted.Render(name)
	}
}
