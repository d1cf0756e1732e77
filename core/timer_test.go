package core

import "testing"

// fakeCounter is a hand-driven 8-bit counter
type fakeCounter struct {
	value   uint8
	pending bool
}

func (c *fakeCounter) Counter() uint8        { return c.value }
func (c *fakeCounter) OverflowPending() bool { return c.pending }

func TestWidthAcrossWrap(t *testing.T) {
	widths := []Tick{0, 1, 255, 256, 375, 30000, 65535}
	for start := 0; start < 1<<16; start += 251 {
		for _, w := range widths {
			rise := Tick(start)
			fall := rise + w // wraps naturally
			if got := Width(rise, fall); got != w {
				t.Fatalf("Width(%d, %d) = %d, want %d", rise, fall, got, w)
			}
		}
	}
}

func TestEdgeTimerNow(t *testing.T) {
	hw := &fakeCounter{}
	timer := NewEdgeTimer(hw, nil)

	hw.value = 0x40
	if got := timer.Now(); got != 0x0040 {
		t.Errorf("Now() = %#04x, want 0x0040", got)
	}

	timer.Overflow()
	timer.Overflow()
	hw.value = 0x10
	if got := timer.Now(); got != 0x0210 {
		t.Errorf("Now() = %#04x, want 0x0210", got)
	}
}

func TestEdgeTimerFoldsPendingOverflow(t *testing.T) {
	hw := &fakeCounter{}
	timer := NewEdgeTimer(hw, nil)
	timer.Overflow()

	// Counter wrapped, interrupt not yet served.
	hw.value = 0x02
	hw.pending = true
	if got := timer.Now(); got != 0x0202 {
		t.Errorf("Now() with fresh pending wrap = %#04x, want 0x0202", got)
	}

	// A high counter value was read before the wrap; do not fold.
	hw.value = 0xFE
	if got := timer.Now(); got != 0x01FE {
		t.Errorf("Now() with stale pending flag = %#04x, want 0x01FE", got)
	}
}

func TestEdgeTimerRaisesEncoderFrame(t *testing.T) {
	var flags Flags
	timer := NewEdgeTimer(&fakeCounter{}, nil)
	timer.SetFrameFlags(&flags)

	for i := 0; i < FrameOverflows-1; i++ {
		timer.Overflow()
	}
	if flags.Pending() != 0 {
		t.Fatalf("frame raised after %d overflows", FrameOverflows-1)
	}
	timer.Overflow()
	if flags.Take() != FlagEncoderFrame {
		t.Errorf("no encoder frame after %d overflows", FrameOverflows)
	}
}

func TestPacer(t *testing.T) {
	clock := &fakeClock{now: 65480}
	var flags Flags
	p := NewPacer(clock, 100)

	clock.now += 99
	p.Poll(&flags)
	if flags.Take() != 0 {
		t.Error("pacer fired early")
	}

	// Crosses the 16-bit wrap.
	clock.now += 1
	p.Poll(&flags)
	if flags.Take() != FlagEncoderFrame {
		t.Error("pacer did not fire after one period")
	}

	// A long stall yields a single frame.
	clock.now += 1000
	p.Poll(&flags)
	p.Poll(&flags)
	if flags.Take() != FlagEncoderFrame {
		t.Error("pacer did not fire after a stall")
	}
	p.Poll(&flags)
	if flags.Take() != 0 {
		t.Error("pacer replayed missed frames")
	}
}

func TestTickConversions(t *testing.T) {
	if TicksFromMicros(1500) != 375 {
		t.Errorf("TicksFromMicros(1500) = %d, want 375", TicksFromMicros(1500))
	}
	if TicksToMicros(375) != 1500 {
		t.Errorf("TicksToMicros(375) = %d, want 1500", TicksToMicros(375))
	}
	if m := MicrosTimer(func() uint32 { return 4000 }); m.Now() != 1000 {
		t.Errorf("MicrosTimer.Now() = %d, want 1000", m.Now())
	}
}

func TestFlagsTakeClears(t *testing.T) {
	var flags Flags
	flags.Signal(FlagReceiverFrame)
	flags.Signal(FlagEncoderFrame)
	flags.Signal(FlagReceiverFrame)

	if got := flags.Take(); got != FlagEncoderFrame|FlagReceiverFrame {
		t.Errorf("Take() = %b, want both flags", got)
	}
	if got := flags.Take(); got != 0 {
		t.Errorf("second Take() = %b, want 0", got)
	}
}
