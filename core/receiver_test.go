package core

import "testing"

// pulse drives one high pulse on bit through the pin-change handler.
func pulse(r *Receiver, port *uint8, bit uint8, rise, fall Tick) {
	*port |= 1 << bit
	r.OnPinChange(*port, rise)
	*port &^= 1 << bit
	r.OnPinChange(*port, fall)
}

func TestReceiverSequential(t *testing.T) {
	var flags Flags
	cfg := ReceiverConfig{Mode: ReceiverSequential, Channels: 3, FirstBit: 2}
	r := NewReceiver(cfg, 1, &flags)

	var port uint8
	pulse(r, &port, 2, 1000, 1375)
	if flags.Take() != FlagReceiverFrame {
		t.Fatal("falling edge did not raise a receiver frame")
	}

	// Edges on channel 0's bit are ignored while channel 1 is timed.
	pulse(r, &port, 2, 1400, 1500)
	pulse(r, &port, 3, 1600, 1900)
	pulse(r, &port, 4, 65500, 120) // wraps

	if n := r.Drain(); n != 3 {
		t.Fatalf("Drain() = %d, want 3", n)
	}
	want := []uint16{375, 300, 156}
	for ch, w := range want {
		if got := r.Ring(ch).Median(); got != w {
			t.Errorf("channel %d width = %d, want %d", ch, got, w)
		}
	}

	if n := r.Drain(); n != 0 {
		t.Errorf("second Drain() = %d, pulses consumed twice", n)
	}
}

func TestReceiverPerPin(t *testing.T) {
	var flags Flags
	cfg := ReceiverConfig{Mode: ReceiverPerPin, Channels: 3, FirstBit: 0}
	r := NewReceiver(cfg, 1, &flags)

	// Channels 0 and 2 rise together, fall apart.
	r.OnPinChange(0b101, 100)
	r.OnPinChange(0b100, 400)
	r.OnPinChange(0b000, 500)
	// A bit above the configured channels is ignored.
	r.OnPinChange(0b1000, 600)
	r.OnPinChange(0b0000, 700)

	if flags.Take()&FlagReceiverFrame == 0 {
		t.Fatal("no receiver frame raised")
	}
	if n := r.Drain(); n != 2 {
		t.Fatalf("Drain() = %d, want 2", n)
	}
	if r.Ring(0).Median() != 300 || r.Ring(1).Median() != 0 || r.Ring(2).Median() != 400 {
		t.Errorf("widths = %d %d %d, want 300 0 400",
			r.Ring(0).Median(), r.Ring(1).Median(), r.Ring(2).Median())
	}
}

func TestReceiverFallAtTickZero(t *testing.T) {
	var flags Flags
	r := NewReceiver(ReceiverConfig{Mode: ReceiverPerPin, Channels: 1}, 1, &flags)

	r.OnPinChange(1, 65136)
	r.OnPinChange(0, 0)
	if r.records[0].Fall != 1 {
		t.Fatalf("fall at tick 0 stored as %d, want 1", r.records[0].Fall)
	}
	if r.Drain() != 1 {
		t.Fatal("pulse ending at tick 0 was lost")
	}
	if got := r.Ring(0).Median(); got != 401 {
		t.Errorf("width = %d, want 401", got)
	}
}

func TestReceiverReset(t *testing.T) {
	var flags Flags
	r := NewReceiver(ReceiverConfig{Mode: ReceiverPerPin, Channels: 2}, 3, &flags)
	for i := Tick(0); i < 3; i++ {
		r.OnPinChange(1, 1000*i)
		r.OnPinChange(0, 1000*i+350)
		r.Drain()
	}
	r.OnPinChange(1, 5000)
	r.OnPinChange(0, 5350)

	r.Reset()
	if r.Drain() != 0 {
		t.Error("Reset kept a waiting pulse")
	}
	if r.Ring(0).Median() != 0 {
		t.Error("Reset kept ring contents")
	}
}
