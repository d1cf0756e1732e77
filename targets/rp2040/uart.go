//go:build rp2040

package main

import (
	"machine"

	"sanhaco/protocol"
)

// linkBaud is the configuration console rate.
const linkBaud = 19200

var (
	uart = machine.UART0
	link *protocol.Port
)

// initLink configures UART0 and the FIFOs the firmware talks through.
// Receive timeouts run on the microsecond counter.
func initLink() error {
	err := uart.Configure(machine.UARTConfig{
		BaudRate: linkBaud,
		TX:       pinUARTTX,
		RX:       pinUARTRX,
	})
	if err != nil {
		return err
	}

	link = protocol.NewPort(64, 64, GetHardwareTime)
	link.Flush = flushUART
	link.Wait = func() {
		machine.Watchdog.Update()
		pumpUART()
	}
	return nil
}

// pumpUART moves bytes from the driver's interrupt buffer into the link.
func pumpUART() {
	for uart.Buffered() > 0 {
		b, err := uart.ReadByte()
		if err != nil {
			return
		}
		if link.RX.WriteByte(b) != nil {
			rxOverruns++
		}
	}
}

var rxOverruns uint32

// flushUART writes everything queued in TX.
func flushUART() {
	for data := link.TX.Data(); len(data) > 0; data = link.TX.Data() {
		n, err := uart.Write(data)
		if err != nil {
			return
		}
		link.TX.Pop(n)
	}
}
