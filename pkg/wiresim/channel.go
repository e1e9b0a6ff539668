package wiresim

import "math"

// PropagationModel selects how the Channel decides whether a frame reaches a
// given receiver intact, independent of collisions.
type PropagationModel int

const (
	// PropagationOriginal always hands receivers a ProbCorrect of 1;
	// corruption can then only come from overlapping receptions.
	PropagationOriginal PropagationModel = iota
	// PropagationRealistic additionally rolls a distance-dependent
	// Bernoulli check per receiver (see ProbCorrectFunc).
	PropagationRealistic
)

func (m PropagationModel) String() string {
	switch m {
	case PropagationOriginal:
		return "original"
	case PropagationRealistic:
		return "realistic"
	default:
		return "unknown"
	}
}

// ProbCorrectFunc computes the value stored in a receiver's ProbCorrect for
// a frame of sizeBytes at the given distance, for a channel with the given
// range. Only consulted under PropagationRealistic, where the receiver
// corrupts the frame when its Uniform(0,1) draw falls below this value, so
// it acts as the channel-corruption probability (see DefaultProbCorrect).
type ProbCorrectFunc func(distance float64, sizeBytes uint32, rangeM float64) float64

// DefaultProbCorrect is an inverse-square path-loss curve clamped to [0, 1].
// Per the receiver's check at END_RX (a draw r ~ Uniform(0,1) is compared
// against ProbCorrect, and r < ProbCorrect corrupts the frame), ProbCorrect
// is the channel's corruption probability, not its success probability
// despite the name: it must increase with distance so that a node right
// next to the transmitter is corrupted least often. See DESIGN.md.
func DefaultProbCorrect(distance float64, _ uint32, rangeM float64) float64 {
	if rangeM <= 0 {
		return 0
	}
	ratio := distance / rangeM
	p := ratio * ratio
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}

// Channel models the shared medium: it fans a transmitter's frame out to
// every other node within range, giving each one its own decode attempt.
type Channel struct {
	nodes       []*Node
	rangeM      float64
	propagation PropagationModel
	probCorrect ProbCorrectFunc
	sim         *Simulator
}

// NewChannel builds a Channel. A nil probCorrect defaults to
// DefaultProbCorrect; rangeM <= 0 means unlimited range.
func NewChannel(propagation PropagationModel, rangeM float64, probCorrect ProbCorrectFunc) *Channel {
	if probCorrect == nil {
		probCorrect = DefaultProbCorrect
	}
	return &Channel{propagation: propagation, rangeM: rangeM, probCorrect: probCorrect}
}

func (c *Channel) attach(sim *Simulator, nodes []*Node) {
	c.sim = sim
	c.nodes = nodes
}

// StartTransmission fans pkt out from source to every other node within
// range, scheduling a START_RX for each. A node never hears its own
// transmission (see DESIGN.md); nodes beyond range get no
// event scheduled at all, rather than one they're certain to fail decoding,
// so they never enter a receiver's receiving_count bookkeeping for a frame
// they physically could not have heard.
func (c *Channel) StartTransmission(source *Node, pkt *Packet) {
	for _, n := range c.nodes {
		if n.ID == source.ID {
			continue
		}
		dist := distance(source.X, source.Y, n.X, n.Y)
		if c.rangeM > 0 && dist > c.rangeM {
			continue
		}
		view := pkt.clone()
		if c.propagation == PropagationRealistic {
			view.ProbCorrect = c.probCorrect(dist, pkt.SizeBytes, c.rangeM)
		} else {
			view.ProbCorrect = 1
		}
		c.sim.schedule(Event{Time: c.sim.now(), Kind: EventStartRX, Src: source.ID, Dst: n.ID, Packet: view})
	}
}

func distance(x1, y1, x2, y2 float64) float64 {
	dx, dy := x1-x2, y1-y2
	return math.Sqrt(dx*dx + dy*dy)
}
