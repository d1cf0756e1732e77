//go:build tinygo

package core

import "runtime/interrupt"

// disableInterrupts masks interrupts for a read-and-clear of data shared
// with pin and timer handlers, returning the previous state.
func disableInterrupts() interrupt.State {
	return interrupt.Disable()
}

// restoreInterrupts restores the interrupt state
func restoreInterrupts(state interrupt.State) {
	interrupt.Restore(state)
}
