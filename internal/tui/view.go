package tui

import (
	"fmt"
	"strings"
	"time"
)

// View renders the UI
func (m Model) View() string {
	if m.quitting {
		return "Goodbye!\n"
	}

	if !m.ready {
		return fmt.Sprintf("%s Initializing...\n", m.spinner.View())
	}

	var b strings.Builder

	// Title
	title := titleStyle.Render("wiresim — shared medium simulation")
	b.WriteString(title)
	b.WriteString("\n")

	// Status bar
	b.WriteString(m.renderStatusBar())
	b.WriteString("\n")

	// Totals
	b.WriteString(m.renderTotals())
	b.WriteString("\n")

	// Per-node table
	b.WriteString(m.table.View())
	b.WriteString("\n")

	// Error message if any
	if m.errText != "" {
		b.WriteString(errorStyle.Render("Error: " + m.errText))
		b.WriteString("\n")
	}

	// Help
	help := helpStyle.Render("q: quit • ↑/↓: scroll nodes")
	b.WriteString(help)

	return b.String()
}

func (m Model) renderStatusBar() string {
	var status string
	if m.errText != "" {
		status = errorStyle.Render("✗ Aborted")
	} else if m.done {
		status = doneStyle.Render("● Finished")
	} else {
		status = runningStyle.Render(m.spinner.View() + "Running")
	}

	progress := ""
	if m.snap.Duration > 0 {
		progress = statLabelStyle.Render(" | Sim time: ") +
			statValueStyle.Render(fmt.Sprintf("%.3fs / %.0fs (%.0f%%)",
				m.snap.Time, m.snap.Duration, m.snap.Time/m.snap.Duration*100))
	}

	elapsed := time.Since(m.startTime).Round(time.Second)
	elapsedInfo := statLabelStyle.Render(" | Elapsed: ") + statValueStyle.Render(elapsed.String())

	return status + progress + elapsedInfo
}

func (m Model) renderTotals() string {
	var gen, recv, coll, chanCorr, drop uint64
	for _, n := range m.snap.Nodes {
		gen += n.Generated
		recv += n.Received
		coll += n.Corrupted
		chanCorr += n.CorruptedByChannel
		drop += n.QueueDropped
	}

	generated := statLabelStyle.Render("Generated: ") + statValueStyle.Render(fmt.Sprintf("%d", gen))
	received := statLabelStyle.Render(" | Received: ") + statValueStyle.Render(fmt.Sprintf("%d", recv))
	collided := statLabelStyle.Render(" | Collided: ")
	if coll > 0 {
		collided += errorStyle.Render(fmt.Sprintf("%d", coll))
	} else {
		collided += statValueStyle.Render("0")
	}
	channel := statLabelStyle.Render(" | Channel: ") + statValueStyle.Render(fmt.Sprintf("%d", chanCorr))
	dropped := statLabelStyle.Render(" | Dropped: ") + statValueStyle.Render(fmt.Sprintf("%d", drop))

	return generated + received + collided + channel + dropped
}
