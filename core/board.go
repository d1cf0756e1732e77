package core

// BoardConfig is the build-time personality of a board: how the receiver
// and encoders are wired and how the signal is judged.
type BoardConfig struct {
	Receiver    ReceiverConfig
	Encoder     EncoderMode
	Calibration Calibration

	// LossTimeout is how long the receiver may stay quiet before the
	// commands start fading; FadeDuration is how long the fade lasts.
	LossTimeout  Tick
	FadeDuration Tick

	// FramePeriod paces encoder frames on clocks that are not a
	// FrameSource. Ignored otherwise.
	FramePeriod Tick

	// ReceiveTimeout bounds the wait for a configuration request body, in
	// link clock ticks.
	ReceiveTimeout uint32
}

// DefaultBoardConfig is the reference wiring: three sequential receiver
// channels on port bits 2..4 and single-channel wheel encoders.
func DefaultBoardConfig() BoardConfig {
	return BoardConfig{
		Receiver: ReceiverConfig{
			Mode:     ReceiverSequential,
			Channels: 3,
			FirstBit: 2,
		},
		Encoder:        EncoderPulse,
		Calibration:    DefaultCalibration,
		LossTimeout:    TicksFromMicros(27000),
		FadeDuration:   TicksFromMicros(100000),
		FramePeriod:    FrameOverflows * ticksPerWrap,
		ReceiveTimeout: 500000, // 500 ms of a 1 MHz link clock
	}
}
