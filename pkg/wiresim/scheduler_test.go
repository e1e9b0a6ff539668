package wiresim

import "testing"

func TestSchedulerOrdersByTime(t *testing.T) {
	var got []float64
	s := NewScheduler(func(ev Event) error {
		got = append(got, ev.Time)
		return nil
	})
	s.Schedule(Event{Time: 3})
	s.Schedule(Event{Time: 1})
	s.Schedule(Event{Time: 2})

	if err := s.RunUntil(10); err != nil {
		t.Fatalf("RunUntil: %v", err)
	}
	want := []float64{1, 2, 3}
	for i, w := range want {
		if got[i] != w {
			t.Fatalf("got[%d] = %v, want %v (full: %v)", i, got[i], w, got)
		}
	}
}

func TestSchedulerStableOnTies(t *testing.T) {
	var got []int
	s := NewScheduler(func(ev Event) error {
		got = append(got, ev.Src)
		return nil
	})
	for i := 0; i < 5; i++ {
		s.Schedule(Event{Time: 1, Src: i})
	}
	if err := s.RunUntil(10); err != nil {
		t.Fatalf("RunUntil: %v", err)
	}
	for i := 0; i < 5; i++ {
		if got[i] != i {
			t.Fatalf("dispatch order %v, want FIFO 0..4", got)
		}
	}
}

func TestSchedulerRunUntilStopsAtHorizon(t *testing.T) {
	count := 0
	s := NewScheduler(func(ev Event) error {
		count++
		return nil
	})
	s.Schedule(Event{Time: 1})
	s.Schedule(Event{Time: 5})
	s.Schedule(Event{Time: 9})
	if err := s.RunUntil(5); err != nil {
		t.Fatalf("RunUntil: %v", err)
	}
	if count != 2 {
		t.Fatalf("count = %d, want 2 (events at t<=5)", count)
	}
	if s.Pending() != 1 {
		t.Fatalf("pending = %d, want 1", s.Pending())
	}
}

func TestSchedulerCancelSkipsEvent(t *testing.T) {
	var got []int
	s := NewScheduler(func(ev Event) error {
		got = append(got, ev.Src)
		return nil
	})
	s.Schedule(Event{Time: 1, Src: 1})
	ref := s.Schedule(Event{Time: 2, Src: 2})
	s.Schedule(Event{Time: 3, Src: 3})
	s.Cancel(ref)

	if err := s.RunUntil(10); err != nil {
		t.Fatalf("RunUntil: %v", err)
	}
	if len(got) != 2 || got[0] != 1 || got[1] != 3 {
		t.Fatalf("got %v, want [1 3]", got)
	}
}

func TestSchedulerCancelNilRefIsNoop(t *testing.T) {
	s := NewScheduler(func(ev Event) error { return nil })
	s.Cancel(nil)
	s.Cancel(&EventRef{})
}

func TestSchedulerNowAdvances(t *testing.T) {
	s := NewScheduler(func(ev Event) error { return nil })
	if s.Now() != 0 {
		t.Fatalf("Now() = %v before any dispatch, want 0", s.Now())
	}
	s.Schedule(Event{Time: 4.5})
	if err := s.RunUntil(10); err != nil {
		t.Fatalf("RunUntil: %v", err)
	}
	if s.Now() != 4.5 {
		t.Fatalf("Now() = %v, want 4.5", s.Now())
	}
}

func TestSchedulerPropagatesDispatchError(t *testing.T) {
	boom := &InvariantViolation{Detail: "boom"}
	s := NewScheduler(func(ev Event) error { return boom })
	s.Schedule(Event{Time: 1})
	if err := s.RunUntil(10); err != boom {
		t.Fatalf("RunUntil error = %v, want %v", err, boom)
	}
}
