package wiresim

import "fmt"

// Config describes one simulation run: its horizon, its RNG seed, the
// channel's propagation model and range, the MAC variant every node runs,
// and the per-node specs (positions plus the simulation-wide datarate,
// queue, and distribution parameters).
type Config struct {
	Duration    float64
	Seed        int64
	Nodes       []NodeSpec
	Range       float64
	Propagation PropagationModel
	Variant     MACVariant
	Persistence float64
	ProbCorrect ProbCorrectFunc
}

// Simulator composes an RNG, a Scheduler, a Channel, a set of Nodes, and a
// Log into one runnable simulation. It owns nothing externally visible
// beyond Run (and its Start/StepUntil/Finish parts), Now, and the handful of
// read-only accessors a CLI, TUI, or metrics exporter needs to observe a run
// in progress.
type Simulator struct {
	rng       *RNG
	scheduler *Scheduler
	channel   *Channel
	nodes     []*Node
	byID      map[int]*Node
	log       *Log
	duration  float64
	nextPktID uint64
}

// New validates cfg lightly (deeper validation belongs to the config
// package, which has field names to report) and builds a ready-to-run
// Simulator writing to log.
func New(cfg Config, log *Log) (*Simulator, error) {
	if len(cfg.Nodes) == 0 {
		return nil, &ConfigError{Field: "nodes", Err: fmt.Errorf("at least one node is required")}
	}
	if cfg.Duration <= 0 {
		return nil, &ConfigError{Field: "duration", Err: errPositive}
	}

	sim := &Simulator{
		rng:      NewRNG(cfg.Seed),
		log:      log,
		duration: cfg.Duration,
		byID:     make(map[int]*Node, len(cfg.Nodes)),
	}
	sim.scheduler = NewScheduler(sim.dispatch)
	sim.channel = NewChannel(cfg.Propagation, cfg.Range, cfg.ProbCorrect)

	nodes := make([]*Node, len(cfg.Nodes))
	for i, spec := range cfg.Nodes {
		n, err := newNode(i, spec, cfg.Variant, cfg.Persistence, sim)
		if err != nil {
			return nil, err
		}
		nodes[i] = n
		sim.byID[i] = n
	}
	sim.nodes = nodes
	sim.channel.attach(sim, nodes)

	return sim, nil
}

func (s *Simulator) now() float64 { return s.scheduler.Now() }

func (s *Simulator) schedule(ev Event) *EventRef { return s.scheduler.Schedule(ev) }

func (s *Simulator) cancel(ref *EventRef) { s.scheduler.Cancel(ref) }

func (s *Simulator) newPacket(size uint32, duration float64) *Packet {
	p := newPacket(s.nextPktID, size, duration)
	s.nextPktID++
	return p
}

func (s *Simulator) dispatch(ev Event) error {
	n, ok := s.byID[ev.Dst]
	if !ok {
		return fmt.Errorf("wiresim: event %s addressed to unknown node %d", ev.Kind, ev.Dst)
	}
	return n.handleEvent(ev)
}

// Run schedules every node's first arrival, then drains the scheduler up to
// the configured horizon, flushing the log before returning. An
// InvariantViolation or IOError from any node handler aborts the run
// immediately, leaving the log truncated at the last successfully written
// record.
func (s *Simulator) Run() error {
	s.Start()
	if err := s.StepUntil(s.duration); err != nil {
		return err
	}
	return s.Finish()
}

// Start schedules every node's first arrival. Callers that want to observe
// a run in progress (a dashboard, a metrics exporter) call Start once, then
// StepUntil repeatedly with increasing targets, then Finish; Run does all
// three in one shot.
func (s *Simulator) Start() {
	for _, n := range s.nodes {
		n.scheduleNextArrival()
	}
}

// StepUntil advances the simulation to min(t, horizon), dispatching every
// event due by then. Safe to call repeatedly with non-decreasing targets;
// the caller drives the whole run from a single goroutine.
func (s *Simulator) StepUntil(t float64) error {
	if t > s.duration {
		t = s.duration
	}
	return s.scheduler.RunUntil(t)
}

// Finish flushes the log after the final StepUntil.
func (s *Simulator) Finish() error {
	return s.log.Flush()
}

// Now returns the current simulated time.
func (s *Simulator) Now() float64 { return s.scheduler.Now() }

// Duration returns the configured simulation horizon.
func (s *Simulator) Duration() float64 { return s.duration }

// Log returns the simulator's log, for a caller that wants live counters or
// derived metrics mid-run or after completion.
func (s *Simulator) Log() *Log { return s.log }

// NumNodes returns the number of nodes in the simulation.
func (s *Simulator) NumNodes() int { return len(s.nodes) }

// NodeState returns the current MAC state of node id. It panics if id is
// out of range, the same contract a direct slice index would have.
func (s *Simulator) NodeState(id int) NodeState { return s.nodes[id].state }

// QueueLen returns the current queue length of node id.
func (s *Simulator) QueueLen(id int) int { return len(s.nodes[id].queue) }
