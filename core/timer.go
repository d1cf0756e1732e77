package core

// Tick is the 16-bit edge timestamp. It wraps every 65536 ticks; intervals
// are taken with unsigned subtraction and are correct across one wrap.
type Tick uint16

// Timer constants for the reference board: an 8-bit counter at 16 MHz/64.
const (
	TickMicros     = 4
	FrameOverflows = 16 // overflows per encoder frame, about 16.4 ms
	ticksPerWrap   = 256
)

// TicksFromMicros converts microseconds to ticks.
func TicksFromMicros(us uint32) Tick {
	return Tick(us / TickMicros)
}

// TicksToMicros converts ticks to microseconds.
func TicksToMicros(t Tick) uint32 {
	return uint32(t) * TickMicros
}

// Width returns the ticks between rise and fall.
func Width(rise, fall Tick) Tick {
	return fall - rise
}

// TickSource is anything that can timestamp an edge.
type TickSource interface {
	Now() Tick
}

// FrameSource is implemented by clocks that raise FlagEncoderFrame from
// their own interrupt.
type FrameSource interface {
	SetFrameFlags(f *Flags)
}

// CounterHW is the free-running 8-bit hardware counter behind an EdgeTimer.
type CounterHW interface {
	Counter() uint8
	// OverflowPending reports a wrap whose interrupt has not run yet.
	OverflowPending() bool
}

// EdgeTimer extends an 8-bit hardware counter with an 8-bit overflow count
// kept by the overflow interrupt.
type EdgeTimer struct {
	hw       CounterHW
	overflow uint8
	frames   uint8
	flags    *Flags
}

// NewEdgeTimer creates a timer over hw. flags may be nil until
// SetFrameFlags is called.
func NewEdgeTimer(hw CounterHW, flags *Flags) *EdgeTimer {
	return &EdgeTimer{hw: hw, flags: flags}
}

// SetFrameFlags selects where Overflow raises FlagEncoderFrame.
func (e *EdgeTimer) SetFrameFlags(f *Flags) {
	e.flags = f
}

// Overflow is the counter overflow interrupt handler.
func (e *EdgeTimer) Overflow() {
	e.overflow++
	e.frames++
	if e.frames >= FrameOverflows {
		e.frames = 0
		if e.flags != nil {
			e.flags.Signal(FlagEncoderFrame)
		}
	}
}

// Now returns the current tick from the main loop.
func (e *EdgeTimer) Now() Tick {
	state := disableInterrupts()
	t := e.NowFromISR()
	restoreInterrupts(state)
	return t
}

// NowFromISR returns the current tick. Interrupts must already be off.
// A wrap that happened after the overflow count was last bumped shows up
// as a pending flag with a small counter value; it is folded in here.
func (e *EdgeTimer) NowFromISR() Tick {
	ov := e.overflow
	c := e.hw.Counter()
	if e.hw.OverflowPending() && c < ticksPerWrap/2 {
		ov++
	}
	return Tick(ov)<<8 | Tick(c)
}

// Since returns the ticks elapsed from t to now.
func (e *EdgeTimer) Since(t Tick) Tick {
	return e.Now() - t
}

// MicrosTimer adapts a wide microsecond counter (rp2040 TIMERAWL, or the
// simulator clock) to a TickSource.
type MicrosTimer func() uint32

func (m MicrosTimer) Now() Tick {
	return Tick(m() / TickMicros)
}

// Pacer raises FlagEncoderFrame every Period ticks of a TickSource. Boards
// whose clock has no overflow interrupt poll it from the main loop.
type Pacer struct {
	src    TickSource
	last   Tick
	Period Tick
}

// NewPacer creates a pacer starting at the current tick.
func NewPacer(src TickSource, period Tick) *Pacer {
	return &Pacer{src: src, last: src.Now(), Period: period}
}

// Poll signals one frame if a period has passed. Missed frames are dropped
// rather than replayed.
func (p *Pacer) Poll(flags *Flags) {
	now := p.src.Now()
	if now-p.last < p.Period {
		return
	}
	p.last += p.Period
	if now-p.last >= p.Period {
		p.last = now
	}
	flags.Signal(FlagEncoderFrame)
}
