//go:build rp2040

package main

import (
	"machine"
	"time"

	"sanhaco/config"
	"sanhaco/core"
)

// motorPWMPeriod is 20 kHz, above hearing.
const motorPWMPeriod = 1e9 / 20000

// idleSlice is the longest low-power wait of one idle call.
const idleSlice = 250 * time.Microsecond

// pwmPeripheral is an interface for PWM hardware peripherals
// This abstracts over TinyGo's unexported *pwmGroup type
type pwmPeripheral interface {
	Configure(config machine.PWMConfig) error
	Channel(pin machine.Pin) (uint8, error)
	Top() uint32
	Set(channel uint8, value uint32)
}

// hBridge drives one motor through the two inputs of an H-bridge. Both
// inputs sit on one PWM slice: forward drives IN1, reverse drives IN2.
type hBridge struct {
	pwm      pwmPeripheral
	in1, in2 uint8
}

func newHBridge(in1, in2 machine.Pin) (*hBridge, error) {
	pwm := getPWMPeripheral(uint8(in1>>1) & 0x7)
	if err := pwm.Configure(machine.PWMConfig{Period: motorPWMPeriod}); err != nil {
		return nil, err
	}
	a, err := pwm.Channel(in1)
	if err != nil {
		return nil, err
	}
	b, err := pwm.Channel(in2)
	if err != nil {
		return nil, err
	}
	h := &hBridge{pwm: pwm, in1: a, in2: b}
	h.set(0)
	return h, nil
}

// set applies power in [-CommandMax, CommandMax].
func (h *hBridge) set(power int16) {
	top := h.pwm.Top()
	duty := func(p int16) uint32 {
		return uint32(p) * top / core.CommandMax
	}
	switch {
	case power > 0:
		h.pwm.Set(h.in2, 0)
		h.pwm.Set(h.in1, duty(power))
	case power < 0:
		h.pwm.Set(h.in1, 0)
		h.pwm.Set(h.in2, duty(-power))
	default:
		h.pwm.Set(h.in1, 0)
		h.pwm.Set(h.in2, 0)
	}
}

// Board is the rp2040 implementation of core.HardwareIO.
type Board struct {
	motors [config.NumAxes]*hBridge
	led    machine.Pin
	diag   *Diagnostics
}

// NewBoard configures the motor outputs and the status LED.
func NewBoard() (*Board, error) {
	b := &Board{led: machine.LED}
	b.led.Configure(machine.PinConfig{Mode: machine.PinOutput})

	var err error
	if b.motors[config.Left], err = newHBridge(pinLeftIN1, pinLeftIN2); err != nil {
		return nil, err
	}
	if b.motors[config.Right], err = newHBridge(pinRightIN1, pinRightIN2); err != nil {
		return nil, err
	}
	return b, nil
}

// SetMotorPower implements core.MotorDriver.
func (b *Board) SetMotorPower(axis config.Axis, power int16) {
	b.motors[axis].set(core.DeadZone(power))
}

// SetLED implements core.LEDDriver.
func (b *Board) SetLED(on bool) {
	b.led.Set(on)
}

// KickWatchdog also services the UART. The configuration session kicks
// once per poll, so requests keep flowing while it idles.
func (b *Board) KickWatchdog() {
	machine.Watchdog.Update()
	pumpUART()
}

// Idle refreshes the diagnostics page and sleeps for idleSlice. The TinyGo
// runtime arms a timer alarm and waits for an interrupt, so the core sleeps
// until the alarm or the next pin edge. The encoder frame Pacer has no
// interrupt of its own; idleSlice bounds how late it sees a frame.
func (b *Board) Idle() {
	if b.diag != nil {
		b.diag.Poll()
	}
	time.Sleep(idleSlice)
}

// Restart uses a watchdog reset instead of ARM SYSRESETREQ.
func (b *Board) Restart() {
	for a := range b.motors {
		b.motors[a].set(0)
	}
	machine.Watchdog.Configure(machine.WatchdogConfig{TimeoutMillis: 1})
	machine.Watchdog.Start()
	for {
	}
}

// getPWMPeripheral returns the PWM peripheral for a given slice number
// RP2040 has 8 PWM slices: PWM0-PWM7
func getPWMPeripheral(sliceNum uint8) pwmPeripheral {
	switch sliceNum {
	case 0:
		return machine.PWM0
	case 1:
		return machine.PWM1
	case 2:
		return machine.PWM2
	case 3:
		return machine.PWM3
	case 4:
		return machine.PWM4
	case 5:
		return machine.PWM5
	case 6:
		return machine.PWM6
	default:
		return machine.PWM7
	}
}
