package tui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/airgap-labs/wiresim/pkg/wiresim"
)

// Run drives sim to completion under the dashboard. Start must not have
// been called yet; the TUI schedules the initial arrivals itself and steps
// the run in chunks so the display refreshes as simulated time advances.
// The caller is responsible for Finish and log teardown after Run returns.
func Run(sim *wiresim.Simulator) error {
	sim.Start()

	model := New(sim)
	program := tea.NewProgram(
		model,
		tea.WithAltScreen(),
	)

	final, err := program.Run()
	if err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	if m, ok := final.(Model); ok && m.errText != "" {
		return fmt.Errorf("simulation aborted: %s", m.errText)
	}
	return nil
}
