package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/airgap-labs/wiresim/pkg/wiresim"
)

const sampleConfig = `{
    // simulation parameters
    "simulation": {
        "duration": 30, /* seconds */
        "seed": 1,
        "nodes": [[0, 0], [0, 1]],
        "range": 10,
        "propagation": "original",
        "simulator": "simple",
        "persistence": 0.5,
        "output": "output_{propagation}.{simulator}.{persistence}_{lambda}_{seed}.csv",
        "datarate": 8000000,
        "queue": 0,
        "maxsize": 1500,
        "interarrival": {"distribution": "exponential", "mean": 0.01},
        "size": {"distribution": "constant", "value": 1460},
        "processing": {"distribution": "constant", "value": 0}
    }
}`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleConfig))
	require.NoError(t, err)

	s := cfg.Simulation
	require.Equal(t, 30.0, s.Duration)
	require.Equal(t, int64(1), s.Seed)
	require.Equal(t, [][2]float64{{0, 0}, {0, 1}}, s.Nodes)
	require.Equal(t, "original", s.Propagation)
	require.Equal(t, "simple", s.Simulator)
	require.NotNil(t, s.Persistence)
	require.Equal(t, 0.5, *s.Persistence)
	require.Equal(t, 8000000.0, s.Datarate)
	require.Equal(t, uint32(1500), s.Maxsize)
	require.Equal(t, "exponential", s.Interarrival.Kind)
	require.Equal(t, 0.01, s.Interarrival.Mean)
	require.Equal(t, "constant", s.Size.Kind)
	require.Equal(t, 1460.0, s.Size.Value)

	require.NoError(t, cfg.Validate())
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	var ioErr *wiresim.IOError
	require.ErrorAs(t, err, &ioErr)
}

func TestLoadMalformedJSON(t *testing.T) {
	_, err := Load(writeConfig(t, `{"simulation": `))
	var cfgErr *wiresim.ConfigError
	require.ErrorAs(t, err, &cfgErr)
}

func TestStripComments(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"line comment", "{\"a\": 1} // trailing\n", "{\"a\": 1} \n"},
		{"block comment", "{/* x */\"a\": 1}", "{\"a\": 1}"},
		{"multiline block keeps newlines", "{/* one\ntwo */\"a\": 1}", "{\n\"a\": 1}"},
		{"slashes in string", `{"url": "http://example.com"}`, `{"url": "http://example.com"}`},
		{"comment markers in string", `{"a": "/* not a comment */"}`, `{"a": "/* not a comment */"}`},
		{"escaped quote in string", `{"a": "say \"hi\" // ok"}`, `{"a": "say \"hi\" // ok"}`},
		{"no comments", `{"a": 1}`, `{"a": 1}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, string(StripComments([]byte(tc.in))))
		})
	}
}

func TestOutputPath(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleConfig))
	require.NoError(t, err)

	// lambda = 1/mean = 100
	require.Equal(t, "output_original.simple.0.5_100_1.csv", cfg.OutputPath())
}

func TestOutputPathDropsPersistenceSegment(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleConfig))
	require.NoError(t, err)

	cfg.Simulation.Simulator = "aloha"
	cfg.Simulation.Persistence = nil
	require.Equal(t, "output_original.aloha_100_1.csv", cfg.OutputPath())
}

func TestOutputPathWithoutTokens(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleConfig))
	require.NoError(t, err)

	cfg.Simulation.Output = "plain.csv"
	require.Equal(t, "plain.csv", cfg.OutputPath())
}
