package core

import "testing"

func TestSchedulerRunsInOrder(t *testing.T) {
	var s Scheduler
	var fired []uint32

	record := func(tm *Timer) uint8 {
		fired = append(fired, s.Now())
		return SF_DONE
	}
	s.ScheduleTimer(&Timer{WakeTime: 300, Handler: record})
	s.ScheduleTimer(&Timer{WakeTime: 100, Handler: record})
	s.ScheduleTimer(&Timer{WakeTime: 200, Handler: record})

	if next, ok := s.NextWake(); !ok || next != 100 {
		t.Errorf("NextWake() = %d, %v; want 100", next, ok)
	}

	s.AdvanceTo(250)
	if len(fired) != 2 || fired[0] != 100 || fired[1] != 200 {
		t.Errorf("fired at %v, want [100 200]", fired)
	}
	if s.Now() != 250 {
		t.Errorf("Now() = %d, want 250", s.Now())
	}
}

func TestSchedulerReschedule(t *testing.T) {
	var s Scheduler
	count := 0
	s.ScheduleTimer(&Timer{
		WakeTime: 10,
		Handler: func(tm *Timer) uint8 {
			count++
			tm.WakeTime += 10
			return SF_RESCHEDULE
		},
	})

	s.AdvanceTo(55)
	if count != 5 {
		t.Errorf("periodic timer ran %d times, want 5", count)
	}
	if next, _ := s.NextWake(); next != 60 {
		t.Errorf("next wake = %d, want 60", next)
	}
}

func TestEventRing(t *testing.T) {
	ClearEvents()
	for i := 0; i < EventRingSize+3; i++ {
		RecordEvent(EvtSignalLost, uint32(i), 0)
	}
	events := Events()
	if len(events) != EventRingSize {
		t.Fatalf("kept %d events, want %d", len(events), EventRingSize)
	}
	if events[0].Tick != 3 {
		t.Errorf("oldest event tick = %d, want 3", events[0].Tick)
	}

	var lines []string
	SetDebugWriter(func(s string) { lines = append(lines, s) })
	defer SetDebugWriter(func(string) {})
	DumpEvents()
	if len(lines) != EventRingSize+2 {
		t.Errorf("dump wrote %d lines, want %d", len(lines), EventRingSize+2)
	}
	t.Logf("%s", lines[1])
}
