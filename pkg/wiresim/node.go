package wiresim

// NodeState is one of the six states a node's MAC can be in at any instant.
type NodeState int

const (
	StateIdle NodeState = iota
	StateTX
	StateRX
	StateProc
	StateWC
	StateWT
)

func (s NodeState) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateTX:
		return "TX"
	case StateRX:
		return "RX"
	case StateProc:
		return "PROC"
	case StateWC:
		return "WC"
	case StateWT:
		return "WT"
	default:
		return "UNKNOWN"
	}
}

// MACVariant selects which of the three channel-access disciplines a Node
// runs.
type MACVariant int

const (
	// VariantAloha never senses the channel: right after processing it
	// transmits from its queue regardless of any reception in progress. An
	// arrival is sent at once only if the node is IDLE; in any other state
	// (RX included) it is queued.
	VariantAloha MACVariant = iota
	// VariantTrivial senses the channel and defers until it judges the
	// channel idle, then transmits unconditionally (p_persistence = 0
	// with the sensing path engaged).
	VariantTrivial
	// VariantSimple is the general p-persistent model: on a sensed-busy
	// channel, back off for an exponential interval and re-check with
	// probability p, or wait for the channel to clear and then transmit,
	// with probability 1-p.
	VariantSimple
)

func (v MACVariant) String() string {
	switch v {
	case VariantAloha:
		return "aloha"
	case VariantTrivial:
		return "trivial"
	case VariantSimple:
		return "simple"
	default:
		return "unknown"
	}
}

// NodeSpec is the construction-time description of one node: its position
// and the parameters shared by every node in a run (the configuration
// treats datarate, queue capacity, and the three distributions as
// simulation-wide, not per-node).
type NodeSpec struct {
	X, Y          float64
	DatarateBPS   float64
	QueueCapacity int // 0 means unbounded
	MaxSizeBytes  uint32
	Interarrival  Distribution
	Size          Distribution
	Processing    Distribution
}

// Node is one station on the shared medium. Its exported surface is
// intentionally small (ID, X, Y); everything else is manipulated
// only through the scheduled-event handlers below.
type Node struct {
	ID int
	X  float64
	Y  float64

	datarateBPS     float64
	queueCapacity   int
	maxsizeBytes    uint32
	pPersistence    float64
	carrierSense    bool
	interarrival    Distribution
	size            Distribution
	procTime        Distribution
	packetMaxTxTime float64
	rxTimeoutTime   float64

	state          NodeState
	queue          []uint32
	currentPkt     *Packet
	receivingCount int
	timeoutRX      *EventRef
	timeoutWT      *EventRef

	sim *Simulator
}

func newNode(id int, spec NodeSpec, variant MACVariant, persistence float64, sim *Simulator) (*Node, error) {
	field := func(name string) string { return nodeField(id, name) }
	if spec.DatarateBPS <= 0 {
		return nil, &ConfigError{Field: field("datarate"), Err: errPositive}
	}
	if spec.MaxSizeBytes == 0 {
		return nil, &ConfigError{Field: field("maxsize"), Err: errPositive}
	}
	if spec.QueueCapacity < 0 {
		return nil, &ConfigError{Field: field("queue"), Err: errNonNegative}
	}

	packetMaxTxTime := float64(spec.MaxSizeBytes) * 8 / spec.DatarateBPS
	n := &Node{
		ID:              id,
		X:               spec.X,
		Y:               spec.Y,
		datarateBPS:     spec.DatarateBPS,
		queueCapacity:   spec.QueueCapacity,
		maxsizeBytes:    spec.MaxSizeBytes,
		carrierSense:    variant != VariantAloha,
		interarrival:    spec.Interarrival,
		size:            spec.Size,
		procTime:        spec.Processing,
		packetMaxTxTime: packetMaxTxTime,
		rxTimeoutTime:   packetMaxTxTime + 10e-6,
		state:           StateIdle,
		sim:             sim,
	}
	if variant == VariantSimple {
		n.pPersistence = persistence
	}
	if err := sim.log.StateChange(0, id, StateIdle); err != nil {
		return nil, err
	}
	return n, nil
}

func nodeField(id int, name string) string {
	return "nodes[" + itoa(id) + "]." + name
}

// scheduleNextArrival draws the next interarrival gap and schedules the
// packet that will arrive after it. Called once at simulation start for
// every node, and again at the end of every handleArrival.
func (n *Node) scheduleNextArrival() {
	iat := n.interarrival.Draw(n.sim.rng)
	n.sim.schedule(Event{Time: n.sim.now() + iat, Kind: EventPacketArrival, Src: n.ID, Dst: n.ID})
}

// handleEvent dispatches ev to the handler for its kind.
func (n *Node) handleEvent(ev Event) error {
	switch ev.Kind {
	case EventPacketArrival:
		return n.handleArrival()
	case EventStartRX:
		return n.handleStartRX(ev)
	case EventEndRX:
		return n.handleEndRX(ev)
	case EventEndTX:
		return n.handleEndTX(ev)
	case EventEndProc:
		return n.handleEndProc()
	case EventRXTimeout:
		return n.handleRXTimeout()
	case EventWTTimeout:
		return n.handleWTTimeout()
	default:
		return n.violation(ev.Kind.String(), "node has no handler for this event kind")
	}
}

func (n *Node) violation(op, detail string) error {
	return &InvariantViolation{NodeID: n.ID, State: n.state, Op: op, Detail: detail}
}

// setState transitions the node to s, logging the change. Any live WT
// timeout must already be cleared before leaving WT; timeoutWT is non-nil
// only in state WT.
func (n *Node) setState(s NodeState) error {
	if s != StateWT && n.timeoutWT != nil {
		return n.violation("STATE_CHANGE", "leaving WT with a live WT timeout still registered")
	}
	n.state = s
	return n.sim.log.StateChange(n.sim.now(), n.ID, s)
}

// handleArrival is PACKET_ARRIVAL: a new frame is ready to send. If idle, it
// starts transmitting immediately; otherwise it queues (or is dropped if the
// queue is full). Either way, the next arrival is scheduled before
// returning.
func (n *Node) handleArrival() error {
	sizeBytes := uint32(n.size.Draw(n.sim.rng))
	if err := n.sim.log.Arrival(n.sim.now(), n.ID, sizeBytes); err != nil {
		return err
	}

	switch n.state {
	case StateIdle:
		if len(n.queue) != 0 {
			return n.violation("PACKET_ARRIVAL", "node is IDLE with a non-empty queue")
		}
		if err := n.beginTransmission(sizeBytes); err != nil {
			return err
		}
		if err := n.setState(StateTX); err != nil {
			return err
		}
	default:
		if n.queueCapacity == 0 || len(n.queue) < n.queueCapacity {
			n.queue = append(n.queue, sizeBytes)
			if err := n.sim.log.QueueLen(n.sim.now(), n.ID, len(n.queue)); err != nil {
				return err
			}
		} else {
			if err := n.sim.log.QueueDrop(n.sim.now(), n.ID, sizeBytes); err != nil {
				return err
			}
		}
	}

	n.scheduleNextArrival()
	return nil
}

// beginTransmission allocates a packet of sizeBytes, hands it to the
// channel for fan-out, and schedules this node's own END_TX.
func (n *Node) beginTransmission(sizeBytes uint32) error {
	if n.currentPkt != nil {
		return n.violation("TX", "beginning a transmission while already holding a current packet")
	}
	duration := float64(sizeBytes) * 8 / n.datarateBPS
	pkt := n.sim.newPacket(sizeBytes, duration)
	n.currentPkt = pkt
	n.sim.channel.StartTransmission(n, pkt)
	n.sim.schedule(Event{Time: n.sim.now() + duration, Kind: EventEndTX, Src: n.ID, Dst: n.ID, Packet: pkt})
	return nil
}

// handleStartRX is START_RX: a peer's transmission has reached this node.
// Under every MAC variant, a node hearing a second, overlapping
// transmission while already in state RX can never decode either one, so
// both views are marked CORRUPTED at this point, before either finishes. A
// frame arriving in any other state the node cannot start receiving from
// is marked CORRUPTED on its own.
func (n *Node) handleStartRX(ev Event) error {
	newPkt := ev.Packet

	switch {
	case n.state == StateIdle:
		// Without carrier sensing (aloha), a node can be IDLE with
		// receivingCount > 0: it never waited on those pending
		// receptions to begin with. With sensing engaged this should
		// never happen.
		if n.carrierSense && n.receivingCount != 0 {
			return n.violation("START_RX", "sensing node is IDLE with receptions already pending")
		}
		if err := n.receivePacket(newPkt); err != nil {
			return err
		}
	case n.state == StateWT && n.receivingCount == 0:
		n.sim.cancel(n.timeoutWT)
		n.timeoutWT = nil
		if err := n.receivePacket(newPkt); err != nil {
			return err
		}
	default:
		if n.state == StateRX && n.currentPkt != nil {
			n.currentPkt.State = PacketCorrupted
		}
		newPkt.State = PacketCorrupted
	}

	n.sim.schedule(Event{Time: n.sim.now() + newPkt.Duration, Kind: EventEndRX, Src: ev.Src, Dst: n.ID, Packet: newPkt})
	n.receivingCount++
	return nil
}

// receivePacket commits to decoding p: it becomes the node's current
// packet, an RX timeout guards against a wedged decode, and the node enters
// RX.
func (n *Node) receivePacket(p *Packet) error {
	if n.currentPkt != nil {
		return n.violation("START_RX", "committing to receive while already holding a current packet")
	}
	if n.timeoutRX != nil {
		return n.violation("START_RX", "committing to receive with an RX timeout already registered")
	}
	p.State = PacketReceiving
	n.currentPkt = p
	n.timeoutRX = n.sim.schedule(Event{Time: n.sim.now() + n.rxTimeoutTime, Kind: EventRXTimeout, Src: n.ID, Dst: n.ID})
	return n.setState(StateRX)
}

// handleEndRX is END_RX: one of the (possibly several, if overlapping)
// receptions this node started has run its full duration. Only in state RX
// does the node actually resolve a decode outcome for its current packet;
// in every other state this retires the bookkeeping for a reception the
// node long since gave up on, and in WC the last one to end also moves the
// node to IDLE or, with a non-empty queue, to TX.
func (n *Node) handleEndRX(ev Event) error {
	if n.receivingCount < 1 {
		return n.violation("END_RX", "receivingCount is already zero")
	}
	pkt := ev.Packet
	if n.state == StateIdle {
		// A sensing node never idles while receptions are pending. A
		// non-sensing node can: it may have corrupted and abandoned a
		// reception in TX or RX, finished its own work, and gone back
		// to IDLE before that frame's airtime ran out. Its END_RX just
		// retires the bookkeeping.
		if n.carrierSense {
			return n.violation("END_RX", "END_RX delivered to an IDLE node")
		}
		n.receivingCount--
		return n.sim.log.PacketOutcome(n.sim.now(), ev.Src, n.ID, pkt.SizeBytes, pkt.State)
	}
	if n.state != StateRX && n.currentPkt != nil && pkt.ID == n.currentPkt.ID {
		return n.violation("END_RX", "current packet is ending but node is not in RX")
	}

	switch n.state {
	case StateRX:
		if pkt.State == PacketReceiving {
			if n.currentPkt == nil || pkt.ID != n.currentPkt.ID {
				return n.violation("END_RX", "decoded packet id does not match the node's current packet")
			}
			if n.sim.channel.propagation == PropagationRealistic && n.sim.rng.Float64() < pkt.ProbCorrect {
				pkt.State = PacketCorruptedByChannel
			} else {
				pkt.State = PacketReceived
			}
		}
		if n.currentPkt != nil && pkt.ID == n.currentPkt.ID {
			n.currentPkt = nil
		}
		if n.receivingCount == 1 {
			if err := n.switchToProc(); err != nil {
				return err
			}
			n.sim.cancel(n.timeoutRX)
			n.timeoutRX = nil
		}
	case StateWC:
		if n.receivingCount == 1 {
			if len(n.queue) == 0 {
				if err := n.setState(StateIdle); err != nil {
					return err
				}
			} else if err := n.dequeueAndTransmit(); err != nil {
				return err
			}
		}
	}

	n.receivingCount--
	return n.sim.log.PacketOutcome(n.sim.now(), ev.Src, n.ID, pkt.SizeBytes, pkt.State)
}

// handleRXTimeout is RX_TIMEOUT: the node has stayed in RX longer than any
// single frame lasts. This happens when the packet it committed to has
// already ended but overlapping receptions are still pending; the node moves
// to PROC, and the remaining END_RX events only retire their bookkeeping.
func (n *Node) handleRXTimeout() error {
	if n.state != StateRX {
		return n.violation("RX_TIMEOUT", "RX timeout fired outside state RX")
	}
	if n.currentPkt != nil {
		return n.violation("RX_TIMEOUT", "RX timeout fired while a current packet is still pending resolution")
	}
	n.timeoutRX = nil
	return n.switchToProc()
}

// handleEndTX is END_TX: this node's own transmission has finished airtime.
func (n *Node) handleEndTX(ev Event) error {
	if n.state != StateTX {
		return n.violation("END_TX", "END_TX delivered outside state TX")
	}
	if n.currentPkt == nil || ev.Packet == nil || n.currentPkt.ID != ev.Packet.ID {
		return n.violation("END_TX", "END_TX does not match the node's current packet")
	}
	n.currentPkt = nil
	return n.switchToProc()
}

// switchToProc draws a processing time and enters PROC, the state every
// node passes through between finishing one packet (sent or received) and
// deciding what to do next.
func (n *Node) switchToProc() error {
	procTime := n.procTime.Draw(n.sim.rng)
	n.sim.schedule(Event{Time: n.sim.now() + procTime, Kind: EventEndProc, Src: n.ID, Dst: n.ID})
	return n.setState(StateProc)
}

// handleEndProc is END_PROC: processing has finished and the node decides
// what comes next. A node without carrier sensing ignores any receptions
// still in flight and acts purely on its own queue; a sensing node defers
// to WC/WT while a reception is in progress.
func (n *Node) handleEndProc() error {
	if n.state != StateProc {
		return n.violation("END_PROC", "END_PROC delivered outside state PROC")
	}

	if n.receivingCount == 0 || !n.carrierSense {
		if len(n.queue) == 0 {
			return n.setState(StateIdle)
		}
		return n.dequeueAndTransmit()
	}

	if len(n.queue) == 0 {
		return n.setState(StateWC)
	}
	return n.schedulePacketTransmission()
}

// handleWTTimeout is WT_TIMEOUT: a p-persistent backoff interval elapsed
// without a new reception starting on an idle channel (which would have
// cancelled it). The node re-evaluates exactly as it did leaving PROC:
// transmit if no reception is pending, otherwise decide again.
func (n *Node) handleWTTimeout() error {
	if n.state != StateWT {
		return n.violation("WT_TIMEOUT", "WT_TIMEOUT delivered outside state WT")
	}
	n.timeoutWT = nil
	if n.receivingCount == 0 {
		return n.dequeueAndTransmit()
	}
	return n.schedulePacketTransmission()
}

// dequeueAndTransmit pops the head of the queue and starts transmitting it.
func (n *Node) dequeueAndTransmit() error {
	if len(n.queue) == 0 {
		return n.violation("TX", "dequeueing from an empty queue")
	}
	size := n.dequeue()
	if err := n.beginTransmission(size); err != nil {
		return err
	}
	if err := n.setState(StateTX); err != nil {
		return err
	}
	return n.sim.log.QueueLen(n.sim.now(), n.ID, len(n.queue))
}

func (n *Node) dequeue() uint32 {
	size := n.queue[0]
	n.queue = n.queue[1:]
	return size
}

// schedulePacketTransmission is the p-persistent decision point: with
// probability pPersistence back off for an exponential interval (mean ten
// max-size frame times) and re-check in WT, otherwise wait in WC for the
// channel to clear and then transmit. Only reachable for carrier-sensing
// nodes with a non-empty queue and a reception in progress.
func (n *Node) schedulePacketTransmission() error {
	if len(n.queue) == 0 {
		return n.violation("TX", "scheduling a transmission with an empty queue")
	}
	if n.sim.rng.Float64() >= n.pPersistence {
		return n.setState(StateWC)
	}
	wait := NewExponential(n.packetMaxTxTime * 10).Draw(n.sim.rng)
	n.timeoutWT = n.sim.schedule(Event{Time: n.sim.now() + wait, Kind: EventWTTimeout, Src: n.ID, Dst: n.ID})
	return n.setState(StateWT)
}
