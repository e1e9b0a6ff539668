// Package tui provides the live simulation dashboard.
package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/airgap-labs/wiresim/pkg/wiresim"
)

// stepFraction controls how much simulated time one UI step advances: the
// horizon is split into this many chunks.
const stepFraction = 200

// Model represents the TUI state
type Model struct {
	// Simulation being driven
	sim *wiresim.Simulator

	// UI state
	width    int
	height   int
	ready    bool
	quitting bool
	done     bool

	// Components
	spinner spinner.Model
	table   table.Model

	// Data
	snap      snapshot
	step      float64
	target    float64
	startTime time.Time
	errText   string
}

// nodeRow is one node's view in the dashboard table.
type nodeRow struct {
	State              wiresim.NodeState
	QueueLen           int
	Generated          uint64
	Received           uint64
	Corrupted          uint64
	CorruptedByChannel uint64
	QueueDropped       uint64
}

// snapshot is everything one UI refresh needs, captured by the step command
// right after advancing the simulation so Update and View never touch the
// simulator directly.
type snapshot struct {
	Time     float64
	Duration float64
	Nodes    []nodeRow
}

// New creates a new TUI model driving sim.
func New(sim *wiresim.Simulator) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = spinnerStyle

	t := table.New(
		table.WithColumns([]table.Column{
			{Title: "Node", Width: 5},
			{Title: "State", Width: 6},
			{Title: "Queue", Width: 6},
			{Title: "Gen", Width: 8},
			{Title: "Recv", Width: 8},
			{Title: "Coll", Width: 8},
			{Title: "Chan", Width: 8},
			{Title: "Drop", Width: 8},
		}),
		table.WithFocused(true),
	)
	t.SetStyles(tableStyles())

	return Model{
		sim:       sim,
		spinner:   s,
		table:     t,
		step:      sim.Duration() / stepFraction,
		target:    sim.Duration() / stepFraction,
		startTime: time.Now(),
	}
}

// Init initializes the model
//
//nolint:gocritic // hugeParam: Model must be value receiver to implement tea.Model interface
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		stepCmd(m.sim, m.target),
	)
}

// stepMsg carries the snapshot taken after one simulation step.
type stepMsg struct {
	snap snapshot
	done bool
}

// errMsg is sent when the simulation aborts
type errMsg error

// stepCmd advances the simulation to target and captures a snapshot. Only
// one step command is ever outstanding, so the simulator is still driven
// from exactly one goroutine at a time.
func stepCmd(sim *wiresim.Simulator, target float64) tea.Cmd {
	return func() tea.Msg {
		if target > sim.Duration() {
			target = sim.Duration()
		}
		if err := sim.StepUntil(target); err != nil {
			return errMsg(err)
		}
		snap := takeSnapshot(sim)
		snap.Time = target
		return stepMsg{snap: snap, done: target >= sim.Duration()}
	}
}

func takeSnapshot(sim *wiresim.Simulator) snapshot {
	snap := snapshot{
		Time:     sim.Now(),
		Duration: sim.Duration(),
		Nodes:    make([]nodeRow, sim.NumNodes()),
	}
	log := sim.Log()
	for id := 0; id < sim.NumNodes(); id++ {
		c := log.Snapshot(id)
		snap.Nodes[id] = nodeRow{
			State:              sim.NodeState(id),
			QueueLen:           sim.QueueLen(id),
			Generated:          c.Generated,
			Received:           c.Received,
			Corrupted:          c.Corrupted,
			CorruptedByChannel: c.CorruptedByChannel,
			QueueDropped:       c.QueueDropped,
		}
	}
	return snap
}
