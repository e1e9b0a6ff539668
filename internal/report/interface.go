// Package report delivers run-completion summaries to configured sinks.
// Reporters are additive conveniences on top of the CSV log, which remains
// the simulation's sole authoritative output.
package report

import (
	"context"

	"github.com/airgap-labs/wiresim/pkg/wiresim"
)

// Summary describes one finished run: its identity and the derived metrics
// for every node the log holds counters for (any node that generated,
// dropped, or heard at least one frame).
type Summary struct {
	Output      string                   `json:"output"`
	Propagation string                   `json:"propagation"`
	Simulator   string                   `json:"simulator"`
	Persistence *float64                 `json:"persistence,omitempty"`
	Seed        int64                    `json:"seed"`
	Lambda      float64                  `json:"lambda"`
	SimTime     float64                  `json:"sim_time"`
	Metrics     []wiresim.DerivedMetrics `json:"metrics"`
}

// Reporter delivers a Summary to one destination.
type Reporter interface {
	// Publish delivers the summary. Returns an error if delivery fails;
	// the caller decides whether that is fatal.
	Publish(ctx context.Context, s Summary) error

	// Close cleanly shuts down the reporter and releases any resources.
	Close() error

	// Name returns a unique identifier for this reporter.
	Name() string
}
