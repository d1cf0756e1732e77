package core

import "testing"

func TestCalibrationMap(t *testing.T) {
	cal := Calibration{Min: 1120, Max: 1920}

	testCases := []struct {
		width uint16
		want  int16
	}{
		{0, 0},       // no signal
		{1520, 0},    // midpoint
		{1500, -5},   // (1500-1520) * 200 / 800
		{1920, 100},  // top
		{2500, 100},  // clamped
		{1000, -100}, // clamped
		{1720, 50},
	}
	for _, tc := range testCases {
		if got := cal.Map(tc.width, 100); got != tc.want {
			t.Errorf("Map(%d) = %d, want %d", tc.width, got, tc.want)
		}
	}

	if DefaultCalibration.Mid() != 375 {
		t.Errorf("default neutral = %d, want 375", DefaultCalibration.Mid())
	}
	if got := DefaultCalibration.Map(469, CommandMax); got != CommandMax {
		t.Errorf("full stick = %d, want %d", got, CommandMax)
	}
}

func TestEndToEndMedianCommand(t *testing.T) {
	var flags Flags
	r := NewReceiver(ReceiverConfig{Mode: ReceiverPerPin, Channels: 1}, 7, &flags)
	c := NewConditioner(r, Calibration{Min: 1120, Max: 1920}, 10000, 10000)

	now := Tick(0)
	for _, w := range []Tick{1500, 1500, 1500, 1490, 1510, 1500, 1500} {
		r.OnPinChange(1, now)
		r.OnPinChange(0, now+w)
		now += 5000
		r.Drain()
	}
	c.Refresh(now)

	if m := r.Ring(0).Median(); m != 1500 {
		t.Fatalf("median = %d, want 1500", m)
	}
	// Output range here is ±CommandMax, so scale the ±100 expectation.
	got := c.Cal[0].Map(r.Ring(0).Median(), 100)
	if got != -5 {
		t.Errorf("mapped command = %d, want -5", got)
	}
	if c.Channel(0) != c.Cal[0].Map(1500, CommandMax) {
		t.Errorf("Channel(0) = %d, want %d", c.Channel(0), c.Cal[0].Map(1500, CommandMax))
	}
}

func TestSignalLossFade(t *testing.T) {
	var flags Flags
	r := NewReceiver(ReceiverConfig{Mode: ReceiverPerPin, Channels: 1}, 1, &flags)
	const timeout, fade = 1000, 1000
	c := NewConditioner(r, DefaultCalibration, timeout, fade)

	if !c.Lost() || c.Channel(0) != 0 {
		t.Fatal("conditioner should start lost")
	}

	start := Tick(64000) // the loss window crosses the tick wrap
	r.OnPinChange(1, start-469)
	r.OnPinChange(0, start)
	r.Drain()
	c.Refresh(start)

	if c.Channel(0) != CommandMax {
		t.Fatalf("Channel(0) = %d, want %d", c.Channel(0), CommandMax)
	}

	c.Update(start + timeout)
	if got := c.Channel(0); got != CommandMax {
		t.Errorf("at timeout: %d, want unchanged %d", got, CommandMax)
	}

	c.Update(start + timeout + fade/2)
	if got := c.Channel(0); got != CommandMax/2 {
		t.Errorf("at timeout+fade/2: %d, want %d", got, CommandMax/2)
	}
	if !c.Fading() {
		t.Error("Fading() = false during fade")
	}

	c.Update(start + timeout + fade)
	if got := c.Channel(0); got != 0 || !c.Lost() {
		t.Errorf("after fade: %d lost=%v, want 0 and lost", got, c.Lost())
	}
	ring := r.Ring(0)
	for k := 0; k < ring.Len(); k++ {
		if ring.order[k] != uint8(k) || ring.readings[k] != 0 {
			t.Fatal("ring not reset after signal loss")
		}
	}

	// Lost is latched: the tick wrap must not revive the signal.
	c.Update(start)
	if !c.Lost() {
		t.Error("signal revived without a pulse")
	}
}

func TestCalibrationModeWidens(t *testing.T) {
	var flags Flags
	r := NewReceiver(ReceiverConfig{Mode: ReceiverPerPin, Channels: 1}, 1, &flags)
	c := NewConditioner(r, DefaultCalibration, 1000, 1000)
	c.Calibrating = true

	for _, w := range []Tick{250, 500} {
		r.OnPinChange(1, 1000)
		r.OnPinChange(0, 1000+w)
		r.Drain()
		c.Refresh(1000 + w)
	}
	if c.Cal[0].Min != 250 || c.Cal[0].Max != 500 {
		t.Errorf("calibration = %+v, want {250 500}", c.Cal[0])
	}
}
