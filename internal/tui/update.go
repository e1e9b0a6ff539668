package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
)

// Update handles messages and updates the model
//
//nolint:gocritic // hugeParam: Model must be value receiver to implement tea.Model interface
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		headerHeight := 6 // Title + status + progress
		footerHeight := 3 // Help text
		m.table.SetHeight(msg.Height - headerHeight - footerHeight)
		m.ready = true

	case stepMsg:
		m.snap = msg.snap
		m.table.SetRows(m.renderRows())
		if msg.done {
			m.done = true
		} else {
			m.target += m.step
			cmds = append(cmds, stepCmd(m.sim, m.target))
		}

	case errMsg:
		m.errText = msg.Error()
		m.done = true

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)
	}

	// Handle table updates (scrolling through nodes)
	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

func (m *Model) renderRows() []table.Row {
	rows := make([]table.Row, len(m.snap.Nodes))
	for id, n := range m.snap.Nodes {
		rows[id] = table.Row{
			fmt.Sprintf("%d", id),
			n.State.String(),
			fmt.Sprintf("%d", n.QueueLen),
			fmt.Sprintf("%d", n.Generated),
			fmt.Sprintf("%d", n.Received),
			fmt.Sprintf("%d", n.Corrupted),
			fmt.Sprintf("%d", n.CorruptedByChannel),
			fmt.Sprintf("%d", n.QueueDropped),
		}
	}
	return rows
}
