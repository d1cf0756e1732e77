package core

import (
	"errors"

	"sanhaco/config"
	"sanhaco/protocol"
)

// ErrConfigRequested is returned by Step when the handshake byte arrives.
var ErrConfigRequested = errors.New("configuration mode requested")

// BlinkFrames is the LED half period in encoder frames.
const BlinkFrames = 8

// Receiver channel roles of the tank personality.
const (
	ChannelSteer    = 0
	ChannelThrottle = 1
	ChannelReverse  = 2
)

// Mix turns steering and throttle into wheel commands. A positive reverse
// channel mirrors the steering for driving backwards.
func Mix(steer, throttle, reverse int16, reversed [config.NumAxes]bool) [config.NumAxes]int16 {
	if reverse > 0 {
		steer = -steer
	}
	var out [config.NumAxes]int16
	out[config.Left] = int16(Clamp(int32(throttle)-int32(steer), CommandMax))
	out[config.Right] = int16(Clamp(int32(throttle)+int32(steer), CommandMax))
	for a := range out {
		if reversed[a] {
			out[a] = -out[a]
		}
	}
	return out
}

// Status is a snapshot of the loop for diagnostics.
type Status struct {
	Targets  [config.NumAxes]int16
	Measured [config.NumAxes]int16
	Power    [config.NumAxes]int16
	Lost     bool
	Frames   uint32
}

// Loop is the main control loop. It owns all state below the interrupt
// handlers and runs one frame per Step.
type Loop struct {
	hw    HardwareIO
	link  protocol.Link
	clock TickSource
	flags *Flags
	pacer *Pacer

	rx       *Receiver
	cond     *Conditioner
	encMode  EncoderMode
	encoders [config.NumAxes]Encoder
	acc      [config.NumAxes]Accumulator
	pid      [config.NumAxes]PID
	encScale int32
	reversed [config.NumAxes]bool

	status Status
	blink  uint8
}

// NewLoop builds a loop from the record and board configuration.
func NewLoop(hw HardwareIO, link protocol.Link, clock TickSource, flags *Flags, rec *config.Record, board BoardConfig) *Loop {
	l := &Loop{
		hw:       hw,
		link:     link,
		clock:    clock,
		flags:    flags,
		encMode:  board.Encoder,
		encScale: int32(rec.EncoderScale()),
	}

	l.rx = NewReceiver(board.Receiver, rec.ReceiverSamples(), flags)
	l.cond = NewConditioner(l.rx, board.Calibration, board.LossTimeout, board.FadeDuration)
	l.cond.Calibrating = rec.CalibrationMode()

	for a := config.Axis(0); a < config.NumAxes; a++ {
		l.acc[a].Resize(rec.EncoderFrames())
		l.pid[a] = *NewPID(Gains{
			Kp:    rec.Kp(a),
			Ki:    rec.Ki(a),
			Kd:    rec.Kd(a),
			Blend: rec.Blend(a),
		})
		l.reversed[a] = rec.Reversed(a)
	}

	if fs, ok := clock.(FrameSource); ok {
		fs.SetFrameFlags(flags)
	} else if board.FramePeriod != 0 {
		l.pacer = NewPacer(clock, board.FramePeriod)
	}
	return l
}

// Receiver returns the decoder whose OnPinChange the board wires to its
// port interrupt.
func (l *Loop) Receiver() *Receiver {
	return l.rx
}

// Encoder returns the edge counter of an axis for the board's interrupts.
func (l *Loop) Encoder(a config.Axis) *Encoder {
	return &l.encoders[a]
}

// Conditioner returns the signal conditioner.
func (l *Loop) Conditioner() *Conditioner {
	return l.cond
}

// Status returns the latest frame snapshot.
func (l *Loop) Status() Status {
	return l.status
}

// Step services pending frames, or idles when there are none.
func (l *Loop) Step() error {
	l.hw.KickWatchdog()

	if l.pacer != nil {
		l.pacer.Poll(l.flags)
	}
	pending := l.flags.Take()

	if pending&FlagEncoderFrame != 0 {
		if err := l.encoderFrame(); err != nil {
			return err
		}
	}
	if pending&FlagReceiverFrame != 0 {
		l.receiverFrame()
	}
	if pending == 0 {
		l.hw.Idle()
	}
	return nil
}

// Run steps until configuration mode is requested.
func (l *Loop) Run() error {
	for {
		if err := l.Step(); err != nil {
			return err
		}
	}
}

func (l *Loop) encoderFrame() error {
	l.status.Frames++

	for a := range l.acc {
		l.acc[a].Push(l.encoders[a].Take())
	}

	wasLost := l.cond.Lost()
	l.cond.Update(l.clock.Now())
	if l.cond.Fading() || l.cond.Lost() != wasLost {
		l.updateTargets()
	}

	for a := config.Axis(0); a < config.NumAxes; a++ {
		measured := l.MeasuredSpeed(a)
		power := l.pid[a].Update(l.status.Targets[a], measured)
		l.status.Measured[a] = measured
		l.status.Power[a] = power
		l.hw.SetMotorPower(a, power)
	}

	l.updateLED()
	return l.pollHandshake()
}

func (l *Loop) receiverFrame() {
	if l.rx.Drain() > 0 {
		l.cond.Refresh(l.clock.Now())
	}
	l.updateTargets()
}

func (l *Loop) updateTargets() {
	l.status.Targets = Mix(
		l.cond.Channel(ChannelSteer),
		l.cond.Channel(ChannelThrottle),
		l.cond.Channel(ChannelReverse),
		l.reversed,
	)
	l.status.Lost = l.cond.Lost()
}

// MeasuredSpeed returns the windowed encoder count of an axis scaled to
// command units. Pulse encoders have no direction, so the sign of the
// target is used.
func (l *Loop) MeasuredSpeed(a config.Axis) int16 {
	speed := (l.acc[a].Sum() * l.encScale) >> FracBits
	if l.encMode == EncoderPulse && l.status.Targets[a] < 0 {
		speed = -speed
	}
	return int16(Clamp(speed, 2*CommandMax))
}

// updateLED blinks BlinkFrames on, BlinkFrames off; four times faster
// while the signal is lost.
func (l *Loop) updateLED() {
	period := uint8(2 * BlinkFrames)
	if l.cond.Lost() {
		period = BlinkFrames / 2
	}
	l.blink++
	if l.blink >= period {
		l.blink = 0
	}
	l.hw.SetLED(l.blink < period/2)
}

// pollHandshake consumes at most one byte from the link. Anything other
// than the handshake is ignored.
func (l *Loop) pollHandshake() error {
	if l.link == nil || l.link.Available() == 0 {
		return nil
	}
	var b [1]byte
	if l.link.Receive(b[:]) && b[0] == protocol.HandshakeByte {
		return ErrConfigRequested
	}
	return nil
}
