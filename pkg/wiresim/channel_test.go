package wiresim

import "testing"

func TestDefaultProbCorrectZeroAtOrigin(t *testing.T) {
	if got := DefaultProbCorrect(0, 1000, 100); got != 0 {
		t.Fatalf("DefaultProbCorrect(0, ...) = %v, want 0", got)
	}
}

func TestDefaultProbCorrectSaturatesAtRange(t *testing.T) {
	if got := DefaultProbCorrect(100, 1000, 100); got != 1 {
		t.Fatalf("DefaultProbCorrect(range, ...) = %v, want 1", got)
	}
	if got := DefaultProbCorrect(500, 1000, 100); got != 1 {
		t.Fatalf("DefaultProbCorrect(beyond range, ...) = %v, want clamped to 1", got)
	}
}

func TestDefaultProbCorrectUnlimitedRangeIsZero(t *testing.T) {
	if got := DefaultProbCorrect(1000, 1000, 0); got != 0 {
		t.Fatalf("DefaultProbCorrect with range<=0 = %v, want 0 (never channel-corrupted)", got)
	}
}

func TestDefaultProbCorrectMonotonicInDistance(t *testing.T) {
	prev := DefaultProbCorrect(0, 1000, 100)
	for _, d := range []float64{10, 20, 50, 80, 100} {
		cur := DefaultProbCorrect(d, 1000, 100)
		if cur < prev {
			t.Fatalf("prob_correct decreased from %v to %v going from a closer to a farther distance", prev, cur)
		}
		prev = cur
	}
}

func TestChannelNeverTargetsSource(t *testing.T) {
	log := newScenarioLog(t)
	cfg := Config{
		Duration:    1,
		Seed:        1,
		Propagation: PropagationOriginal,
		Variant:     VariantAloha,
		Nodes: []NodeSpec{
			{X: 0, Y: 0, DatarateBPS: scenarioDatarate, MaxSizeBytes: scenarioMaxsize,
				Interarrival: NewConstant(0.01), Size: NewConstant(scenarioSize), Processing: NewConstant(0)},
		},
	}
	sim, err := New(cfg, log)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := sim.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	// A lone node with no peers must never observe a reception of its own
	// traffic: received + corrupted + corrupted-by-channel stays zero.
	c := log.Snapshot(0)
	if c.Received != 0 || c.Corrupted != 0 || c.CorruptedByChannel != 0 {
		t.Fatalf("lone node received its own transmission: %+v", c)
	}
}

func TestChannelRangeExcludesFarNodes(t *testing.T) {
	log := newScenarioLog(t)
	cfg := Config{
		Duration:    10,
		Seed:        1,
		Propagation: PropagationOriginal,
		Range:       10,
		Variant:     VariantAloha,
		Nodes: []NodeSpec{
			{X: 0, Y: 0, DatarateBPS: scenarioDatarate, MaxSizeBytes: scenarioMaxsize,
				Interarrival: NewConstant(0.01), Size: NewConstant(scenarioSize), Processing: NewConstant(0)},
			{X: 1000, Y: 0, DatarateBPS: scenarioDatarate, MaxSizeBytes: scenarioMaxsize,
				Interarrival: NewConstant(1000), Size: NewConstant(scenarioSize), Processing: NewConstant(0)},
		},
	}
	sim, err := New(cfg, log)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := sim.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	c := log.Snapshot(1)
	if c.Received != 0 {
		t.Fatalf("out-of-range node received %d packets, want 0", c.Received)
	}
}
