package core

import "sync/atomic"

// EncoderMode selects how encoder edges are counted. It is a board
// property fixed at build time.
type EncoderMode uint8

const (
	// EncoderPulse counts every edge of a single channel. Direction is
	// taken from the sign of the command.
	EncoderPulse EncoderMode = iota
	// EncoderQuadrature decodes both channels into signed counts.
	EncoderQuadrature
)

// quadratureTable maps (previous<<2 | current) 2-bit states to a step.
// Double transitions are invalid and count as no movement.
var quadratureTable = [16]int8{
	0, -1, +1, 0,
	+1, 0, 0, -1,
	-1, 0, 0, +1,
	0, +1, -1, 0,
}

// QuadratureDelta returns the step between two 2-bit AB states.
func QuadratureDelta(prev, cur uint8) int8 {
	return quadratureTable[(prev&3)<<2|cur&3]
}

// Encoder is the interrupt-side edge counter of one wheel.
type Encoder struct {
	count int32
	state uint8
}

// Pulse is the edge interrupt handler for EncoderPulse boards.
func (e *Encoder) Pulse() {
	atomic.AddInt32(&e.count, 1)
}

// Quadrature is the pin-change handler for EncoderQuadrature boards;
// state is the current AB level pair.
func (e *Encoder) Quadrature(state uint8) {
	d := QuadratureDelta(e.state, state)
	e.state = state & 3
	if d != 0 {
		atomic.AddInt32(&e.count, int32(d))
	}
}

// Take returns the edges counted since the last call and restarts the
// count.
func (e *Encoder) Take() int32 {
	return atomic.SwapInt32(&e.count, 0)
}

// MaxFrames is the largest moving-average window.
const MaxFrames = 32

// Accumulator is a moving sum over the last Window frames.
type Accumulator struct {
	counts [MaxFrames]int32
	sum    int32
	index  int
	window int
}

// NewAccumulator creates an accumulator with the given window.
func NewAccumulator(window int) *Accumulator {
	a := &Accumulator{}
	a.Resize(window)
	return a
}

// Push replaces the oldest frame with count.
func (a *Accumulator) Push(count int32) {
	a.sum += count - a.counts[a.index]
	a.counts[a.index] = count
	a.index++
	if a.index == a.window {
		a.index = 0
	}
}

// Sum returns the total count over the window.
func (a *Accumulator) Sum() int32 {
	return a.sum
}

// Average returns the mean count per frame.
func (a *Accumulator) Average() int32 {
	return a.sum / int32(a.window)
}

// Window returns the number of frames summed.
func (a *Accumulator) Window() int {
	return a.window
}

// Resize changes the window, clamped to [1, MaxFrames], and clears it.
func (a *Accumulator) Resize(window int) {
	if window < 1 {
		window = 1
	}
	if window > MaxFrames {
		window = MaxFrames
	}
	a.window = window
	a.Reset()
}

// Reset clears all frames.
func (a *Accumulator) Reset() {
	a.counts = [MaxFrames]int32{}
	a.sum = 0
	a.index = 0
}
