package core

// MaxChannels is the number of receiver channels a decoder can time.
const MaxChannels = 8

// ReceiverMode selects how channel pulses reach the port.
type ReceiverMode uint8

const (
	// ReceiverSequential watches one channel bit at a time. Channels
	// pulse one after another, so after a falling edge the decoder moves
	// on to the next bit.
	ReceiverSequential ReceiverMode = iota
	// ReceiverPerPin gives every channel its own bit, all watched at once.
	ReceiverPerPin
)

// ReceiverConfig is the build-time wiring of the receiver port.
type ReceiverConfig struct {
	Mode     ReceiverMode
	Channels int
	FirstBit uint8 // port bit of channel 0; channel i is FirstBit+i
}

// EdgeRecord holds the edges of the latest pulse of a channel. Fall is
// zero while no new pulse is waiting.
type EdgeRecord struct {
	Rise Tick
	Fall Tick
}

// Receiver decodes RC pulse widths from port pin-change interrupts and
// keeps a median ring per channel.
type Receiver struct {
	cfg     ReceiverConfig
	flags   *Flags
	records [MaxChannels]EdgeRecord
	rings   [MaxChannels]SampleRing

	// interrupt state
	current uint8 // sequential: channel being timed
	level   bool  // sequential: last level of its bit
	last    uint8 // per-pin: previous port snapshot
}

// NewReceiver creates a decoder with rings of samples readings.
func NewReceiver(cfg ReceiverConfig, samples int, flags *Flags) *Receiver {
	if cfg.Channels < 1 {
		cfg.Channels = 1
	}
	if cfg.Channels > MaxChannels {
		cfg.Channels = MaxChannels
	}
	r := &Receiver{cfg: cfg, flags: flags}
	r.Resize(samples)
	return r
}

// Channels returns the number of decoded channels.
func (r *Receiver) Channels() int {
	return r.cfg.Channels
}

// Ring returns the sample ring of channel ch.
func (r *Receiver) Ring(ch int) *SampleRing {
	return &r.rings[ch]
}

func (r *Receiver) bit(ch uint8) uint8 {
	return 1 << (r.cfg.FirstBit + ch)
}

// OnPinChange is the port pin-change interrupt handler. port is the port
// input snapshot and now the edge time.
func (r *Receiver) OnPinChange(port uint8, now Tick) {
	// Zero marks "no pulse", so a fall at tick 0 is stored one tick late.
	fall := now
	if fall == 0 {
		fall = 1
	}

	if r.cfg.Mode == ReceiverPerPin {
		changed := port ^ r.last
		r.last = port
		done := false
		for i := 0; i < r.cfg.Channels; i++ {
			mask := r.bit(uint8(i))
			if changed&mask == 0 {
				continue
			}
			if port&mask != 0 {
				r.records[i].Rise = now
			} else {
				r.records[i].Fall = fall
				done = true
			}
		}
		if done {
			r.flags.Signal(FlagReceiverFrame)
		}
		return
	}

	high := port&r.bit(r.current) != 0
	switch {
	case high && !r.level:
		r.records[r.current].Rise = now
	case !high && r.level:
		r.records[r.current].Fall = fall
		r.flags.Signal(FlagReceiverFrame)
		r.current++
		if int(r.current) == r.cfg.Channels {
			r.current = 0
		}
	}
	r.level = high
}

// Drain moves every waiting pulse into its channel ring and returns how
// many there were. Interrupts are off only while the records are copied.
func (r *Receiver) Drain() int {
	var pending [MaxChannels]EdgeRecord

	state := disableInterrupts()
	for i := 0; i < r.cfg.Channels; i++ {
		if r.records[i].Fall != 0 {
			pending[i] = r.records[i]
			r.records[i].Fall = 0
		}
	}
	restoreInterrupts(state)

	n := 0
	for i := 0; i < r.cfg.Channels; i++ {
		if pending[i].Fall == 0 {
			continue
		}
		r.rings[i].Insert(uint16(Width(pending[i].Rise, pending[i].Fall)))
		n++
	}
	return n
}

// Reset clears all rings and drops any waiting pulse.
func (r *Receiver) Reset() {
	state := disableInterrupts()
	for i := range r.records {
		r.records[i].Fall = 0
	}
	restoreInterrupts(state)

	for i := range r.rings {
		r.rings[i].Reset()
	}
}

// Resize sets the ring length of every channel and clears them.
func (r *Receiver) Resize(samples int) {
	for i := range r.rings {
		r.rings[i].Resize(samples)
	}
}
