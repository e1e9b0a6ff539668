package wiresim

import (
	"encoding/csv"
	"os"
	"sort"
	"strconv"
	"sync"
)

// Log event codes. The packet-outcome codes (0-3) match
// PacketState's own ordinal values; the remaining codes are this
// implementation's choice for state changes, queue bookkeeping, and drops.
const (
	LogReceiving          = int(PacketReceiving)
	LogReceived           = int(PacketReceived)
	LogCorrupted          = int(PacketCorrupted)
	LogCorruptedByChannel = int(PacketCorruptedByChannel)
	LogGenerated          = 10
	LogQueueDropped       = 11
	LogQueueLength        = 12
	LogStateChange        = 13
)

// Counters accumulates the per-destination tallies DerivedMetrics needs,
// updated incrementally as records are appended so computing metrics never
// requires re-reading the CSV.
type Counters struct {
	Generated          uint64
	Received           uint64
	ReceivedBytes      uint64
	Corrupted          uint64
	CorruptedByChannel uint64
	QueueDropped       uint64
}

// Log is the simulation's sole authoritative output: an append-only CSV of
// (time, src, dst, event, size) records. Rows pass through the csv.Writer's
// buffer, which reaches the file whenever it fills and on Flush or Close. A
// process that dies mid-run leaves behind the prefix already written out,
// which may end in a partial row; rows still in the buffer are lost.
type Log struct {
	mu   sync.Mutex
	w    *csv.Writer
	f    *os.File
	agg  map[int]*Counters
}

// NewLog creates (or truncates) the CSV file at path and writes its header.
func NewLog(path string) (*Log, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, &IOError{Op: "create log file", Err: err}
	}
	w := csv.NewWriter(f)
	if err := w.Write([]string{"time", "src", "dst", "event", "size"}); err != nil {
		f.Close()
		return nil, &IOError{Op: "write log header", Err: err}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return nil, &IOError{Op: "flush log header", Err: err}
	}
	return &Log{w: w, f: f, agg: make(map[int]*Counters)}, nil
}

// Arrival records a PACKET_ARRIVAL (logged as GENERATED) at node.
func (l *Log) Arrival(t float64, node int, size uint32) error {
	l.counters(node).Generated++
	return l.write(t, node, node, LogGenerated, size)
}

// QueueDrop records a frame discarded because the node's queue was full.
func (l *Log) QueueDrop(t float64, node int, size uint32) error {
	l.counters(node).QueueDropped++
	return l.write(t, node, node, LogQueueDropped, size)
}

// QueueLen records the queue length at node immediately after a change.
func (l *Log) QueueLen(t float64, node int, length int) error {
	return l.write(t, node, node, LogQueueLength, uint32(length))
}

// StateChange records node entering state.
func (l *Log) StateChange(t float64, node int, state NodeState) error {
	return l.write(t, node, node, LogStateChange, uint32(state))
}

// PacketOutcome records the resolution of a reception at dst, originally
// sent by src.
func (l *Log) PacketOutcome(t float64, src, dst int, size uint32, state PacketState) error {
	c := l.counters(dst)
	switch state {
	case PacketReceived:
		c.Received++
		c.ReceivedBytes += uint64(size)
	case PacketCorrupted:
		c.Corrupted++
	case PacketCorruptedByChannel:
		c.CorruptedByChannel++
	}
	return l.write(t, src, dst, int(state), size)
}

func (l *Log) counters(node int) *Counters {
	l.mu.Lock()
	defer l.mu.Unlock()
	c, ok := l.agg[node]
	if !ok {
		c = &Counters{}
		l.agg[node] = c
	}
	return c
}

func (l *Log) write(t float64, src, dst, event int, size uint32) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	row := []string{
		strconv.FormatFloat(t, 'f', -1, 64),
		strconv.Itoa(src),
		strconv.Itoa(dst),
		strconv.Itoa(event),
		strconv.FormatUint(uint64(size), 10),
	}
	if err := l.w.Write(row); err != nil {
		return &IOError{Op: "write log record", Err: err}
	}
	return nil
}

// Flush pushes any buffered rows to disk without closing the file.
func (l *Log) Flush() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.w.Flush()
	if err := l.w.Error(); err != nil {
		return &IOError{Op: "flush log", Err: err}
	}
	return nil
}

// Close flushes and closes the underlying file.
func (l *Log) Close() error {
	if err := l.Flush(); err != nil {
		return err
	}
	if err := l.f.Close(); err != nil {
		return &IOError{Op: "close log file", Err: err}
	}
	return nil
}

// Snapshot returns a copy of the current counters for node, suitable for a
// live dashboard or metrics exporter to read without racing future writes.
func (l *Log) Snapshot(node int) Counters {
	l.mu.Lock()
	defer l.mu.Unlock()
	c, ok := l.agg[node]
	if !ok {
		return Counters{}
	}
	return *c
}

// Destinations returns the sorted set of node ids that have received at
// least one record so far.
func (l *Log) Destinations() []int {
	l.mu.Lock()
	defer l.mu.Unlock()
	ids := make([]int, 0, len(l.agg))
	for id := range l.agg {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// DerivedMetrics computes the four derived figures for one destination
// node from the counters accumulated so far:
//
//   - tr (throughput, Mbps): bits successfully received over simTime
//   - cr (collision rate): corrupted-by-overlap / total incoming
//   - dr (drop rate): queue-dropped / generated at this node
//   - cc (channel-corruption rate): corrupted-by-channel / total incoming
func (l *Log) DerivedMetrics(dst int, simTime float64) DerivedMetrics {
	c := l.Snapshot(dst)
	m := DerivedMetrics{Dst: dst}
	if simTime > 0 {
		m.Throughput = float64(c.ReceivedBytes) * 8 / simTime / (1024 * 1024)
	}
	incoming := c.Received + c.Corrupted + c.CorruptedByChannel
	if incoming > 0 {
		m.CollisionRate = float64(c.Corrupted) / float64(incoming)
		m.ChannelCorruptionRate = float64(c.CorruptedByChannel) / float64(incoming)
	}
	if c.Generated > 0 {
		m.DropRate = float64(c.QueueDropped) / float64(c.Generated)
	}
	return m
}

// DerivedMetrics is the tuple (tr, cr, dr, cc) of derived figures for one
// destination node over one run.
type DerivedMetrics struct {
	Dst                   int     `json:"dst"`
	Throughput            float64 `json:"throughput_mbps"`
	CollisionRate         float64 `json:"collision_rate"`
	DropRate              float64 `json:"drop_rate"`
	ChannelCorruptionRate float64 `json:"channel_corruption_rate"`
}
