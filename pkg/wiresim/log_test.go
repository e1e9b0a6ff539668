package wiresim

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLogWritesHeaderAndRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	log, err := NewLog(path)
	if err != nil {
		t.Fatalf("NewLog: %v", err)
	}
	if err := log.Arrival(0, 0, 1460); err != nil {
		t.Fatalf("Arrival: %v", err)
	}
	if err := log.PacketOutcome(0.001, 0, 1, 1460, PacketReceived); err != nil {
		t.Fatalf("PacketOutcome: %v", err)
	}
	if err := log.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	if lines[0] != "time,src,dst,event,size" {
		t.Fatalf("header = %q", lines[0])
	}
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3 (header + 2 rows): %v", len(lines), lines)
	}
}

func TestLogDerivedMetricsThroughput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	log, err := NewLog(path)
	if err != nil {
		t.Fatalf("NewLog: %v", err)
	}
	defer log.Close()

	for i := 0; i < 10; i++ {
		if err := log.PacketOutcome(float64(i), 0, 1, 1000, PacketReceived); err != nil {
			t.Fatalf("PacketOutcome: %v", err)
		}
	}
	m := log.DerivedMetrics(1, 1.0)
	want := 10 * 1000 * 8 / 1.0 / (1024 * 1024)
	if m.Throughput != want {
		t.Fatalf("Throughput = %v, want %v", m.Throughput, want)
	}
}

func TestLogDerivedMetricsRates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	log, err := NewLog(path)
	if err != nil {
		t.Fatalf("NewLog: %v", err)
	}
	defer log.Close()

	log.Arrival(0, 0, 100)
	log.Arrival(0, 0, 100)
	log.Arrival(0, 0, 100)
	log.Arrival(0, 0, 100)
	log.QueueDrop(0, 0, 100)
	log.PacketOutcome(1, 0, 1, 100, PacketReceived)
	log.PacketOutcome(1, 0, 1, 100, PacketCorrupted)
	log.PacketOutcome(1, 0, 1, 100, PacketCorrupted)
	log.PacketOutcome(1, 0, 1, 100, PacketCorruptedByChannel)

	m := log.DerivedMetrics(1, 1.0)
	if m.CollisionRate != 0.5 {
		t.Fatalf("cr = %v, want 0.5", m.CollisionRate)
	}
	if m.ChannelCorruptionRate != 0.25 {
		t.Fatalf("cc = %v, want 0.25", m.ChannelCorruptionRate)
	}

	d := log.DerivedMetrics(0, 1.0)
	if d.DropRate != 0.25 {
		t.Fatalf("dr = %v, want 0.25", d.DropRate)
	}
}

func TestLogDestinationsSorted(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	log, err := NewLog(path)
	if err != nil {
		t.Fatalf("NewLog: %v", err)
	}
	defer log.Close()

	log.Arrival(0, 3, 10)
	log.Arrival(0, 1, 10)
	log.Arrival(0, 2, 10)

	got := log.Destinations()
	want := []int{1, 2, 3}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestLogSnapshotIsACopy(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	log, err := NewLog(path)
	if err != nil {
		t.Fatalf("NewLog: %v", err)
	}
	defer log.Close()

	log.Arrival(0, 0, 10)
	snap := log.Snapshot(0)
	log.Arrival(0, 0, 10)
	if snap.Generated != 1 {
		t.Fatalf("earlier snapshot mutated: Generated = %d, want 1", snap.Generated)
	}
	if log.Snapshot(0).Generated != 2 {
		t.Fatalf("Generated = %d, want 2 after second arrival", log.Snapshot(0).Generated)
	}
}
