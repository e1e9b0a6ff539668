package report

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"

	"github.com/airgap-labs/wiresim/internal/config"
	"github.com/airgap-labs/wiresim/internal/logging"
	"github.com/airgap-labs/wiresim/pkg/wiresim"
)

const (
	connectTimeout = 10 * time.Second
	publishTimeout = 5 * time.Second
)

// MQTT publishes one retained JSON message per destination node under the
// configured topic when a run completes, so a fleet of simulation hosts can
// report into a single broker.
type MQTT struct {
	config config.MQTT
	client mqtt.Client
	logger *zap.Logger
}

// NewMQTT creates an MQTT reporter and connects it to the broker.
func NewMQTT(cfg config.MQTT) (*MQTT, error) {
	m := &MQTT{
		config: cfg,
		logger: logging.With(zap.String("reporter", "mqtt")),
	}

	clientID := cfg.ClientID
	if clientID == "" {
		clientID = fmt.Sprintf("wiresim-%d", time.Now().UnixNano())
	}

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(clientID).
		SetConnectRetry(false)

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return nil, fmt.Errorf("mqtt reporter: connection timeout")
	}
	if token.Error() != nil {
		return nil, fmt.Errorf("mqtt reporter: failed to connect: %w", token.Error())
	}

	m.client = client
	m.logger.Info("Connected to MQTT broker", zap.String("broker", cfg.Broker))
	return m, nil
}

// Publish sends one retained message per destination node under
// <topic>/node/<id>, each carrying the run identity plus that node's
// derived metrics.
func (m *MQTT) Publish(ctx context.Context, sum Summary) error {
	for _, nm := range sum.Metrics {
		payload, err := json.Marshal(nodeSummary{
			Output:      sum.Output,
			Propagation: sum.Propagation,
			Simulator:   sum.Simulator,
			Persistence: sum.Persistence,
			Seed:        sum.Seed,
			Lambda:      sum.Lambda,
			SimTime:     sum.SimTime,
			Node:        nm,
		})
		if err != nil {
			return fmt.Errorf("mqtt reporter: marshal summary: %w", err)
		}

		topic := fmt.Sprintf("%s/node/%d", m.config.Topic, nm.Dst)
		token := m.client.Publish(topic, 1, true, payload)
		if !token.WaitTimeout(publishTimeout) {
			return fmt.Errorf("mqtt reporter: publish timeout on %s", topic)
		}
		if token.Error() != nil {
			return fmt.Errorf("mqtt reporter: publish on %s: %w", topic, token.Error())
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
	}
	return nil
}

// nodeSummary is the wire shape of one per-node MQTT message.
type nodeSummary struct {
	Output      string                 `json:"output"`
	Propagation string                 `json:"propagation"`
	Simulator   string                 `json:"simulator"`
	Persistence *float64               `json:"persistence,omitempty"`
	Seed        int64                  `json:"seed"`
	Lambda      float64                `json:"lambda"`
	SimTime     float64                `json:"sim_time"`
	Node        wiresim.DerivedMetrics `json:"node"`
}

// Close disconnects from the broker.
func (m *MQTT) Close() error {
	if m.client != nil && m.client.IsConnected() {
		m.client.Disconnect(1000)
	}
	return nil
}

// Name returns the reporter identifier.
func (m *MQTT) Name() string {
	return fmt.Sprintf("mqtt:%s", m.config.Broker)
}
