//go:build !tinygo

package core

// State stands in for the saved interrupt mask on hosts, where interrupt
// handlers are plain function calls from the simulator or tests.
type State uintptr

// disableInterrupts is a no-op on regular Go
func disableInterrupts() State {
	return 0
}

// restoreInterrupts is a no-op on regular Go
func restoreInterrupts(state State) {}
