//go:build rp2040

package main

import (
	"device/rp"
	"machine"

	"sanhaco/config"
	"sanhaco/core"
)

// Board wiring.
const (
	pinUARTTX = machine.GPIO0
	pinUARTRX = machine.GPIO1

	// Receiver channels on GP2..GP4, matching BoardConfig.Receiver.FirstBit.
	pinReceiverFirst = machine.GPIO2

	// Encoders: A/B pairs on adjacent pins so the AB state is a shift away.
	pinLeftEncA  = machine.GPIO6
	pinLeftEncB  = machine.GPIO7
	pinRightEncA = machine.GPIO8
	pinRightEncB = machine.GPIO9

	// H-bridge inputs, one PWM slice per motor.
	pinLeftIN1  = machine.GPIO10
	pinLeftIN2  = machine.GPIO11
	pinRightIN1 = machine.GPIO12
	pinRightIN2 = machine.GPIO13

	pinINASDA = machine.GPIO14
	pinINASCL = machine.GPIO15

	pinLCDD4 = machine.GPIO16
	pinLCDE  = machine.GPIO20
	pinLCDRS = machine.GPIO21
)

var encoderPins = [config.NumAxes]machine.Pin{pinLeftEncA, pinRightEncA}

// readPort returns the receiver port snapshot: GPIO levels 0..7.
func readPort() uint8 {
	return uint8(rp.SIO.GPIO_IN.Get())
}

// encoderState returns the AB level pair of an encoder.
func encoderState(a config.Axis) uint8 {
	return uint8(rp.SIO.GPIO_IN.Get()>>uint(encoderPins[a])) & 3
}

// wireInterrupts connects the receiver and encoder pins to the loop.
func wireInterrupts(loop *core.Loop, board core.BoardConfig) error {
	rx := loop.Receiver()
	onReceiver := func(machine.Pin) {
		rx.OnPinChange(readPort(), edgeClock.Now())
	}
	for i := 0; i < board.Receiver.Channels; i++ {
		pin := pinReceiverFirst + machine.Pin(i)
		pin.Configure(machine.PinConfig{Mode: machine.PinInputPulldown})
		if err := pin.SetInterrupt(machine.PinRising|machine.PinFalling, onReceiver); err != nil {
			return err
		}
	}

	for a := config.Axis(0); a < config.NumAxes; a++ {
		enc := loop.Encoder(a)
		axis := a
		pinA := encoderPins[a]
		pinB := pinA + 1
		pinA.Configure(machine.PinConfig{Mode: machine.PinInputPullup})
		pinB.Configure(machine.PinConfig{Mode: machine.PinInputPullup})

		if board.Encoder == core.EncoderPulse {
			err := pinA.SetInterrupt(machine.PinRising|machine.PinFalling, func(machine.Pin) {
				enc.Pulse()
			})
			if err != nil {
				return err
			}
			continue
		}

		onEdge := func(machine.Pin) {
			enc.Quadrature(encoderState(axis))
		}
		for _, pin := range []machine.Pin{pinA, pinB} {
			if err := pin.SetInterrupt(machine.PinRising|machine.PinFalling, onEdge); err != nil {
				return err
			}
		}
	}
	return nil
}
