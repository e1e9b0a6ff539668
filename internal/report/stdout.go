package report

import (
	"context"
	"fmt"
	"io"
	"os"
)

// Stdout prints a one-line summary of the derived metrics per destination
// node after a run.
type Stdout struct {
	w io.Writer
}

// NewStdout creates a stdout reporter.
func NewStdout() *Stdout {
	return &Stdout{w: os.Stdout}
}

// Publish prints the summary.
func (s *Stdout) Publish(_ context.Context, sum Summary) error {
	fmt.Fprintf(s.w, "%s %s seed=%d lambda=%g simtime=%gs -> %s\n",
		sum.Propagation, sum.Simulator, sum.Seed, sum.Lambda, sum.SimTime, sum.Output)
	for _, m := range sum.Metrics {
		fmt.Fprintf(s.w, "  node %d: tr=%.4f Mbps cr=%.4f dr=%.4f cc=%.4f\n",
			m.Dst, m.Throughput, m.CollisionRate, m.DropRate, m.ChannelCorruptionRate)
	}
	return nil
}

// Close closes the stdout reporter (no-op).
func (s *Stdout) Close() error {
	return nil
}

// Name returns the reporter identifier.
func (s *Stdout) Name() string {
	return "stdout"
}
