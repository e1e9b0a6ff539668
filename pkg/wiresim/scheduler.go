package wiresim

import (
	"container/heap"
	"fmt"
)

// schedItem is the heap's internal wrapper around a scheduled Event. seq
// breaks ties between events carrying the same Time, giving the scheduler
// FIFO ordering on ties the way a plain time-sorted slice couldn't.
type schedItem struct {
	event     Event
	seq       uint64
	cancelled bool
	index     int
}

type eventHeap []*schedItem

func (h eventHeap) Len() int { return len(h) }

func (h eventHeap) Less(i, j int) bool {
	if h[i].event.Time != h[j].event.Time {
		return h[i].event.Time < h[j].event.Time
	}
	return h[i].seq < h[j].seq
}

func (h eventHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *eventHeap) Push(x interface{}) {
	item := x.(*schedItem)
	item.index = len(*h)
	*h = append(*h, item)
}

func (h *eventHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	item.index = -1
	*h = old[:n-1]
	return item
}

// EventRef is an opaque handle to a scheduled Event, returned by
// Scheduler.Schedule and accepted by Scheduler.Cancel. A nil *EventRef is a
// valid no-op argument to Cancel, so callers don't need to guard timeout
// fields that may or may not hold a live reference.
type EventRef struct {
	item *schedItem
}

// Scheduler is a time-ordered, FIFO-stable priority queue of events. It owns
// no knowledge of what an event means; it only orders and dispatches them to
// a caller-supplied function.
type Scheduler struct {
	heap     eventHeap
	seq      uint64
	now      float64
	dispatch func(Event) error
}

// NewScheduler builds a Scheduler that calls dispatch for each event it pops
// in time order.
func NewScheduler(dispatch func(Event) error) *Scheduler {
	s := &Scheduler{dispatch: dispatch}
	heap.Init(&s.heap)
	return s
}

// Now returns the time of the most recently dispatched event (0 before the
// first RunUntil call).
func (s *Scheduler) Now() float64 { return s.now }

// Schedule inserts ev into the queue and returns a handle usable with
// Cancel. ev.Time must not be earlier than Now().
func (s *Scheduler) Schedule(ev Event) *EventRef {
	item := &schedItem{event: ev, seq: s.seq}
	s.seq++
	heap.Push(&s.heap, item)
	return &EventRef{item: item}
}

// Cancel marks the event behind ref so RunUntil skips it instead of
// dispatching it. Cancelling an already-dispatched or already-cancelled
// event, or a nil ref, is a harmless no-op.
func (s *Scheduler) Cancel(ref *EventRef) {
	if ref == nil || ref.item == nil {
		return
	}
	ref.item.cancelled = true
}

// RunUntil pops and dispatches events in (time, insertion order) until the
// queue empties or the next event's time exceeds tEnd, whichever comes
// first. It returns the first error a dispatch call returns, leaving any
// remaining queued events undispatched.
func (s *Scheduler) RunUntil(tEnd float64) error {
	for s.heap.Len() > 0 {
		item := s.heap[0]
		if item.event.Time > tEnd {
			return nil
		}
		heap.Pop(&s.heap)
		if item.cancelled {
			continue
		}
		if item.event.Time < s.now {
			return fmt.Errorf("wiresim: scheduler time moved backwards: now=%g next=%g", s.now, item.event.Time)
		}
		s.now = item.event.Time
		if err := s.dispatch(item.event); err != nil {
			return err
		}
	}
	return nil
}

// Pending reports how many events remain queued, including cancelled ones
// not yet popped. Mainly useful for tests and diagnostics.
func (s *Scheduler) Pending() int { return s.heap.Len() }
