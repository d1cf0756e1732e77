package core

// Timer represents a scheduled event
type Timer struct {
	WakeTime uint32
	Handler  func(*Timer) uint8
	Next     *Timer
}

const (
	SF_DONE       = 0
	SF_RESCHEDULE = 1
)

// Scheduler is a sorted list of timers on a 32-bit clock. The simulator
// uses it to play interrupt sources against the control loop.
type Scheduler struct {
	timerList   *Timer
	currentTime uint32
}

// Now returns the time of the last dispatch.
func (s *Scheduler) Now() uint32 {
	return s.currentTime
}

// ScheduleTimer adds a timer to the schedule
func (s *Scheduler) ScheduleTimer(t *Timer) {
	state := disableInterrupts()
	defer restoreInterrupts(state)

	s.insertTimer(t)
}

// insertTimer inserts a timer in sorted order by WakeTime. Timers with
// equal wake times run in insertion order.
func (s *Scheduler) insertTimer(t *Timer) {
	if s.timerList == nil || t.WakeTime < s.timerList.WakeTime {
		t.Next = s.timerList
		s.timerList = t
		return
	}

	current := s.timerList
	for current.Next != nil && current.Next.WakeTime <= t.WakeTime {
		current = current.Next
	}

	t.Next = current.Next
	current.Next = t
}

// NextWake returns the wake time of the earliest timer.
func (s *Scheduler) NextWake() (uint32, bool) {
	if s.timerList == nil {
		return 0, false
	}
	return s.timerList.WakeTime, true
}

// AdvanceTo runs every timer due up to and including now, in wake order,
// with the clock set to each timer's wake time while its handler runs.
func (s *Scheduler) AdvanceTo(now uint32) {
	state := disableInterrupts()
	defer restoreInterrupts(state)

	for s.timerList != nil && s.timerList.WakeTime <= now {
		timer := s.timerList
		s.timerList = timer.Next
		timer.Next = nil // Clear Next pointer to avoid circular references

		s.currentTime = timer.WakeTime
		result := timer.Handler(timer)

		// Reschedule if requested
		if result == SF_RESCHEDULE {
			s.insertTimer(timer)
		}
	}
	s.currentTime = now
}
