package core

import "sync/atomic"

// Flag is a frame request raised from interrupt context.
type Flag uint32

const (
	FlagEncoderFrame Flag = 1 << iota
	FlagReceiverFrame
)

// Flags is a set of latched frame requests. Interrupts Signal, the main
// loop Takes; a flag set while Take runs is never lost.
type Flags struct {
	bits uint32
}

// Signal sets f.
func (fs *Flags) Signal(f Flag) {
	for {
		old := atomic.LoadUint32(&fs.bits)
		if atomic.CompareAndSwapUint32(&fs.bits, old, old|uint32(f)) {
			return
		}
	}
}

// Take returns and clears all pending flags.
func (fs *Flags) Take() Flag {
	return Flag(atomic.SwapUint32(&fs.bits, 0))
}

// Pending returns the pending flags without clearing them.
func (fs *Flags) Pending() Flag {
	return Flag(atomic.LoadUint32(&fs.bits))
}
