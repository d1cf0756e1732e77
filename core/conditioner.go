package core

// Calibration is the pulse-width interval of a channel, in ticks. The
// neutral point is its midpoint.
type Calibration struct {
	Min uint16
	Max uint16
}

// DefaultCalibration is 1124..1876 µs, centred on 1500 µs.
var DefaultCalibration = Calibration{Min: 281, Max: 469}

// Mid returns the neutral width.
func (c Calibration) Mid() uint16 {
	return uint16((uint32(c.Min) + uint32(c.Max)) / 2)
}

// Map clamps width into the interval and maps it linearly onto
// [-full, full]. A zero width means no signal and maps to zero.
func (c Calibration) Map(width uint16, full int16) int16 {
	if width == 0 || c.Max <= c.Min {
		return 0
	}
	if width < c.Min {
		width = c.Min
	}
	if width > c.Max {
		width = c.Max
	}
	v := (2*int32(width) - int32(c.Min) - int32(c.Max)) * int32(full) / int32(c.Max-c.Min)
	return int16(Clamp(v, int32(full)))
}

// Widen stretches the interval to include width.
func (c *Calibration) Widen(width uint16) {
	if width == 0 {
		return
	}
	if width < c.Min {
		c.Min = width
	}
	if width > c.Max {
		c.Max = width
	}
}

// Conditioner turns ring medians into commands and fades them out when
// the receiver goes quiet.
type Conditioner struct {
	rx  *Receiver
	Cal [MaxChannels]Calibration

	// Calibrating widens Cal with every observed median.
	Calibrating bool

	LossTimeout  Tick
	FadeDuration Tick

	lastPulse Tick
	remaining Tick
	lost      bool
}

// NewConditioner creates a conditioner over rx. It starts out lost until
// the first pulse arrives.
func NewConditioner(rx *Receiver, cal Calibration, timeout, fade Tick) *Conditioner {
	c := &Conditioner{
		rx:           rx,
		LossTimeout:  timeout,
		FadeDuration: fade,
		lost:         true,
	}
	for i := range c.Cal {
		c.Cal[i] = cal
	}
	return c
}

// Refresh records that pulses were drained at now.
func (c *Conditioner) Refresh(now Tick) {
	if c.lost {
		RecordEvent(EvtSignalRestored, uint32(now), 0)
	}
	c.lastPulse = now
	c.remaining = c.FadeDuration
	c.lost = false

	if c.Calibrating {
		for i := 0; i < c.rx.Channels(); i++ {
			c.Cal[i].Widen(c.rx.Ring(i).Median())
		}
	}
}

// Update advances the loss state to now. It must run more often than the
// tick wrap period, which the encoder frame guarantees.
func (c *Conditioner) Update(now Tick) {
	if c.lost {
		return
	}
	elapsed := now - c.lastPulse
	end := uint32(c.LossTimeout) + uint32(c.FadeDuration)
	switch {
	case elapsed <= c.LossTimeout:
		c.remaining = c.FadeDuration
	case uint32(elapsed) < end:
		c.remaining = Tick(end - uint32(elapsed))
	default:
		c.remaining = 0
		c.lost = true
		c.rx.Reset()
		RecordEvent(EvtSignalLost, uint32(now), uint32(elapsed))
	}
}

// Lost reports whether the signal has been gone longer than the timeout
// plus the fade.
func (c *Conditioner) Lost() bool {
	return c.lost
}

// Fading reports whether the output is currently attenuated.
func (c *Conditioner) Fading() bool {
	return !c.lost && c.remaining < c.FadeDuration
}

// Channel returns the conditioned command of channel id in
// [-CommandMax, CommandMax].
func (c *Conditioner) Channel(id int) int16 {
	if c.lost || id >= c.rx.Channels() {
		return 0
	}
	v := c.Cal[id].Map(c.rx.Ring(id).Median(), CommandMax)
	if c.FadeDuration == 0 || c.remaining == c.FadeDuration {
		return v
	}
	return int16(int32(v) * int32(c.remaining) / int32(c.FadeDuration))
}
