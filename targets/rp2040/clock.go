//go:build rp2040

package main

import (
	"runtime/volatile"
	"unsafe"

	"sanhaco/core"
)

// RP2040 Timer peripheral memory map
const (
	timerBase     = 0x40054000
	timerTIMERAWL = timerBase + 0x0C // Raw timer low word
)

var timerRAWL = (*volatile.Register32)(unsafe.Pointer(uintptr(timerTIMERAWL)))

// GetHardwareTime reads the low 32 bits of the 1 MHz microsecond counter.
func GetHardwareTime() uint32 {
	return timerRAWL.Get()
}

// edgeClock timestamps edges in core ticks. The counter has no overflow
// interrupt to hang frames on, so the loop paces them with BoardConfig's
// FramePeriod.
var edgeClock = core.MicrosTimer(GetHardwareTime)
