package report

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/airgap-labs/wiresim/internal/config"
	"github.com/airgap-labs/wiresim/pkg/wiresim"
)

func sampleSummary() Summary {
	p := 0.5
	return Summary{
		Output:      "output_original.simple.0.5_100_1.csv",
		Propagation: "original",
		Simulator:   "simple",
		Persistence: &p,
		Seed:        1,
		Lambda:      100,
		SimTime:     30,
		Metrics: []wiresim.DerivedMetrics{
			{Dst: 0, Throughput: 1.168, CollisionRate: 0.02, DropRate: 0, ChannelCorruptionRate: 0},
			{Dst: 1, Throughput: 1.142, CollisionRate: 0.05, DropRate: 0.01, ChannelCorruptionRate: 0},
		},
	}
}

func TestStdoutPublish(t *testing.T) {
	var buf bytes.Buffer
	r := &Stdout{w: &buf}

	require.NoError(t, r.Publish(context.Background(), sampleSummary()))
	require.NoError(t, r.Close())

	out := buf.String()
	require.Contains(t, out, "original simple seed=1 lambda=100 simtime=30s")
	require.Contains(t, out, "node 0: tr=1.1680 Mbps")
	require.Contains(t, out, "node 1: tr=1.1420 Mbps")
	require.Contains(t, out, "dr=0.0100")
}

func TestFactoryStdoutOnly(t *testing.T) {
	reporters, err := New(config.Report{})
	require.NoError(t, err)
	require.Len(t, reporters, 1)
	require.Equal(t, "stdout", reporters[0].Name())
}

func TestNodeSummaryWireShape(t *testing.T) {
	sum := sampleSummary()
	payload, err := json.Marshal(nodeSummary{
		Output:      sum.Output,
		Propagation: sum.Propagation,
		Simulator:   sum.Simulator,
		Persistence: sum.Persistence,
		Seed:        sum.Seed,
		Lambda:      sum.Lambda,
		SimTime:     sum.SimTime,
		Node:        sum.Metrics[1],
	})
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(payload, &decoded))
	require.Equal(t, "simple", decoded["simulator"])
	require.Equal(t, 0.5, decoded["persistence"])

	node, ok := decoded["node"].(map[string]interface{})
	require.True(t, ok)
	require.Equal(t, float64(1), node["dst"])
	require.Equal(t, 1.142, node["throughput_mbps"])
	require.Equal(t, 0.05, node["collision_rate"])
}

func TestSummaryOmitsPersistenceWhenAbsent(t *testing.T) {
	sum := sampleSummary()
	sum.Persistence = nil
	payload, err := json.Marshal(sum)
	require.NoError(t, err)
	require.NotContains(t, string(payload), "persistence")
}
