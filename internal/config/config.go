// Package config loads and validates the JSON configuration that describes
// one wiresim run: simulation horizon, seed, node positions, MAC variant,
// propagation model, and the shared per-node traffic parameters.
package config

import (
	"fmt"
	"math"

	"github.com/airgap-labs/wiresim/pkg/wiresim"
)

// Simulation is the top-level `simulation` table of a wiresim config file.
type Simulation struct {
	Duration     float64                   `mapstructure:"duration"`
	Seed         int64                     `mapstructure:"seed"`
	Nodes        [][2]float64              `mapstructure:"nodes"`
	Range        float64                   `mapstructure:"range"`
	Propagation  string                    `mapstructure:"propagation"`
	Simulator    string                    `mapstructure:"simulator"`
	Persistence  *float64                  `mapstructure:"persistence"`
	Output       string                    `mapstructure:"output"`
	Datarate     float64                   `mapstructure:"datarate"`
	Queue        int                       `mapstructure:"queue"`
	Maxsize      uint32                    `mapstructure:"maxsize"`
	Interarrival wiresim.DistributionSpec  `mapstructure:"interarrival"`
	Size         wiresim.DistributionSpec  `mapstructure:"size"`
	Processing   wiresim.DistributionSpec  `mapstructure:"processing"`
	Report       Report                    `mapstructure:"report"`
}

// Report configures the optional run-completion reporting sinks
// (internal/report); it is additive to the core and has no effect on
// simulation behavior.
type Report struct {
	MQTT MQTT `mapstructure:"mqtt"`
}

// MQTT configures the optional MQTT run-completion publisher.
type MQTT struct {
	Broker   string `mapstructure:"broker"`
	Topic    string `mapstructure:"topic"`
	ClientID string `mapstructure:"client_id"`
}

// Config is the decoded configuration file.
type Config struct {
	Simulation Simulation `mapstructure:"simulation"`
}

// Validate checks every field's constraints, returning a
// *wiresim.ConfigError naming the first field found invalid.
func (c *Config) Validate() error {
	s := &c.Simulation

	if s.Duration <= 0 {
		return &wiresim.ConfigError{Field: "simulation.duration", Err: fmt.Errorf("must be positive")}
	}
	if len(s.Nodes) == 0 {
		return &wiresim.ConfigError{Field: "simulation.nodes", Err: fmt.Errorf("at least one node is required")}
	}
	if s.Range < 0 {
		return &wiresim.ConfigError{Field: "simulation.range", Err: fmt.Errorf("must not be negative")}
	}
	switch s.Propagation {
	case "original", "realistic":
	default:
		return &wiresim.ConfigError{Field: "simulation.propagation", Err: fmt.Errorf("must be %q or %q, got %q", "original", "realistic", s.Propagation)}
	}
	switch s.Simulator {
	case "aloha", "trivial", "simple":
	default:
		return &wiresim.ConfigError{Field: "simulation.simulator", Err: fmt.Errorf("must be one of aloha, trivial, simple, got %q", s.Simulator)}
	}
	if s.Simulator == "simple" {
		if s.Persistence == nil {
			return &wiresim.ConfigError{Field: "simulation.persistence", Err: fmt.Errorf("required when simulator is \"simple\"")}
		}
		if *s.Persistence < 0 || *s.Persistence > 1 {
			return &wiresim.ConfigError{Field: "simulation.persistence", Err: fmt.Errorf("must be in [0,1], got %v", *s.Persistence)}
		}
	}
	if s.Datarate <= 0 {
		return &wiresim.ConfigError{Field: "simulation.datarate", Err: fmt.Errorf("must be positive")}
	}
	if s.Queue < 0 {
		return &wiresim.ConfigError{Field: "simulation.queue", Err: fmt.Errorf("must not be negative")}
	}
	if s.Maxsize == 0 {
		return &wiresim.ConfigError{Field: "simulation.maxsize", Err: fmt.Errorf("must be positive")}
	}
	if s.Output == "" {
		return &wiresim.ConfigError{Field: "simulation.output", Err: fmt.Errorf("required")}
	}
	return nil
}

// ToSimConfig converts the decoded Config into the wiresim.Config the core
// consumes, building the distributions and resolving the MAC variant and
// propagation model enums.
func (c *Config) ToSimConfig() (wiresim.Config, error) {
	s := c.Simulation

	// Interarrival and size must draw strictly positive values (a zero
	// interarrival would schedule unboundedly many same-time arrivals);
	// processing may legitimately be a constant zero.
	interarrival, err := s.Interarrival.Build("simulation.interarrival")
	if err != nil {
		return wiresim.Config{}, err
	}
	if interarrival.Mean() <= 0 {
		return wiresim.Config{}, &wiresim.ConfigError{Field: "simulation.interarrival", Err: fmt.Errorf("mean must be positive")}
	}
	size, err := s.Size.Build("simulation.size")
	if err != nil {
		return wiresim.Config{}, err
	}
	if size.Mean() <= 0 {
		return wiresim.Config{}, &wiresim.ConfigError{Field: "simulation.size", Err: fmt.Errorf("mean must be positive")}
	}
	processing, err := s.Processing.Build("simulation.processing")
	if err != nil {
		return wiresim.Config{}, err
	}

	nodes := make([]wiresim.NodeSpec, len(s.Nodes))
	for i, xy := range s.Nodes {
		nodes[i] = wiresim.NodeSpec{
			X:             xy[0],
			Y:             xy[1],
			DatarateBPS:   s.Datarate,
			QueueCapacity: s.Queue,
			MaxSizeBytes:  s.Maxsize,
			Interarrival:  interarrival,
			Size:          size,
			Processing:    processing,
		}
	}

	var variant wiresim.MACVariant
	switch s.Simulator {
	case "aloha":
		variant = wiresim.VariantAloha
	case "trivial":
		variant = wiresim.VariantTrivial
	case "simple":
		variant = wiresim.VariantSimple
	}

	var propagation wiresim.PropagationModel
	if s.Propagation == "realistic" {
		propagation = wiresim.PropagationRealistic
	}

	persistence := 0.0
	if s.Persistence != nil {
		persistence = *s.Persistence
	}

	return wiresim.Config{
		Duration:    s.Duration,
		Seed:        s.Seed,
		Nodes:       nodes,
		Range:       s.Range,
		Propagation: propagation,
		Variant:     variant,
		Persistence: persistence,
	}, nil
}

// Lambda reports the per-node offered rate implied by the interarrival
// distribution's mean, used only to name output files and label
// human-readable reports; it has no bearing on simulation behavior.
func (c *Config) Lambda() float64 {
	d, err := c.Simulation.Interarrival.Build("simulation.interarrival")
	if err != nil || d.Mean() <= 0 {
		return 0
	}
	return 1 / d.Mean()
}

// roundPersistence splits a persistence value into the major/minor digits
// the output filename convention uses (e.g. 0.5 -> 0, 5).
func roundPersistence(p float64) (major, minor int) {
	major = int(p)
	minor = int(math.Round((p - float64(major)) * 10))
	return major, minor
}
