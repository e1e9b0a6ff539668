package report

import (
	"github.com/airgap-labs/wiresim/internal/config"
)

// New builds the reporters the configuration asks for. Stdout is always
// enabled; MQTT joins it when a broker is configured.
func New(cfg config.Report) ([]Reporter, error) {
	reporters := []Reporter{NewStdout()}
	if cfg.MQTT.Broker != "" {
		m, err := NewMQTT(cfg.MQTT)
		if err != nil {
			return nil, err
		}
		reporters = append(reporters, m)
	}
	return reporters, nil
}
