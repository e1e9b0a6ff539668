// Package metrics exposes live Prometheus gauges for a simulation run in
// progress. It is additive instrumentation only: the CSV log stays the sole
// authoritative output of the core.
package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/airgap-labs/wiresim/internal/logging"
	"github.com/airgap-labs/wiresim/pkg/wiresim"
)

// Exporter serves /metrics over HTTP while a run is in progress. The run's
// driving goroutine pushes fresh values via Observe after every simulation
// step; the HTTP side only ever reads the gauges, which are safe to read
// concurrently.
type Exporter struct {
	server *http.Server
	logger *zap.Logger

	generated          *prometheus.GaugeVec
	received           *prometheus.GaugeVec
	corrupted          *prometheus.GaugeVec
	corruptedByChannel *prometheus.GaugeVec
	queueDropped       *prometheus.GaugeVec
	queueLen           *prometheus.GaugeVec
	simTime            prometheus.Gauge
}

// New builds an Exporter and starts its HTTP server on addr.
func New(addr string) *Exporter {
	reg := prometheus.NewRegistry()

	nodeGauge := func(name, help string) *prometheus.GaugeVec {
		g := prometheus.NewGaugeVec(prometheus.GaugeOpts{Name: name, Help: help}, []string{"node"})
		reg.MustRegister(g)
		return g
	}

	e := &Exporter{
		logger:             logging.With(zap.String("component", "metrics")),
		generated:          nodeGauge("wiresim_generated_total", "Packets generated at this node."),
		received:           nodeGauge("wiresim_received_total", "Packets received intact at this node."),
		corrupted:          nodeGauge("wiresim_corrupted_total", "Packets lost to collisions at this node."),
		corruptedByChannel: nodeGauge("wiresim_corrupted_by_channel_total", "Packets lost to channel corruption at this node."),
		queueDropped:       nodeGauge("wiresim_queue_dropped_total", "Packets dropped at this node's full queue."),
		queueLen:           nodeGauge("wiresim_queue_length", "Current queue length at this node."),
	}
	e.simTime = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "wiresim_sim_time_seconds",
		Help: "Current simulated time.",
	})
	reg.MustRegister(e.simTime)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	e.server = &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		e.logger.Info("Serving metrics", zap.String("addr", addr))
		if err := e.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			e.logger.Error("Metrics server failed", zap.Error(err))
		}
	}()

	return e
}

// Observe refreshes every gauge from the simulator's current counters. Must
// be called from the goroutine driving the run.
func (e *Exporter) Observe(sim *wiresim.Simulator) {
	e.simTime.Set(sim.Now())
	log := sim.Log()
	for id := 0; id < sim.NumNodes(); id++ {
		c := log.Snapshot(id)
		node := strconv.Itoa(id)
		e.generated.WithLabelValues(node).Set(float64(c.Generated))
		e.received.WithLabelValues(node).Set(float64(c.Received))
		e.corrupted.WithLabelValues(node).Set(float64(c.Corrupted))
		e.corruptedByChannel.WithLabelValues(node).Set(float64(c.CorruptedByChannel))
		e.queueDropped.WithLabelValues(node).Set(float64(c.QueueDropped))
		e.queueLen.WithLabelValues(node).Set(float64(sim.QueueLen(id)))
	}
}

// Close shuts the HTTP server down.
func (e *Exporter) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return e.server.Shutdown(ctx)
}
