package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type pingDoneMsg struct{}

type pingSpinnerModel struct {
	spinner spinner.Model
	label   string
	dial    tea.Cmd
	done    bool
}

func newPingSpinnerModel(label string, dial tea.Cmd) pingSpinnerModel {
	s := spinner.New(
		spinner.WithSpinner(spinner.Dot),
		spinner.WithStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("69"))),
	)

	return pingSpinnerModel{
		spinner: s,
		label:   label,
		dial:    dial,
	}
}

func (m pingSpinnerModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.dial)
}

func (m pingSpinnerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case pingDoneMsg:
		m.done = true
		return m, tea.Quit
	default:
		return m, nil
	}
}

func (m pingSpinnerModel) View() string {
	if m.done {
		return ""
	}

	return fmt.Sprintf("%s %s", m.spinner.View(), m.label)
}

func runPingSpinner(ctx context.Context, output io.Writer, nodeCount int, dial func()) error {
	dialCmd := func() tea.Msg {
		dial()
		return pingDoneMsg{}
	}

	p := tea.NewProgram(
		newPingSpinnerModel(fmt.Sprintf("Dialing %d nodes...", nodeCount), dialCmd),
		tea.WithInput(nil),
		tea.WithOutput(output),
		tea.WithContext(ctx),
	)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run ping spinner: %w", err)
	}

	return nil
}
