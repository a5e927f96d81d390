package stream

import "github.com/charmbracelet/lipgloss"

type styles struct {
	header  lipgloss.Style
	node    lipgloss.Style
	failure lipgloss.Style
	detail  lipgloss.Style
}

func newStyles() styles {
	return styles{
		header:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		node:    lipgloss.NewStyle().Bold(true),
		failure: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("203")),
		detail:  lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
	}
}
