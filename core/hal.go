package core

import "sanhaco/config"

// MotorDriver drives the H-bridges. power is in [-CommandMax, CommandMax];
// implementations apply DeadZone before touching the outputs.
type MotorDriver interface {
	SetMotorPower(axis config.Axis, power int16)
}

// LEDDriver switches the status LED.
type LEDDriver interface {
	SetLED(on bool)
}

// HardwareIO is everything the control loop needs from the board.
// Platform-specific implementations handle actual hardware control, tests
// bind it to an in-memory fake.
type HardwareIO interface {
	MotorDriver
	LEDDriver

	// KickWatchdog resets the watchdog countdown.
	KickWatchdog()

	// Idle waits for the next interrupt (or returns at once).
	Idle()

	// Restart stops kicking the watchdog and waits for the reset. Host
	// implementations return instead.
	Restart()
}

// Global singleton used by core code.
var hardware HardwareIO

// SetHardware is called by target-specific code to register its board.
func SetHardware(hw HardwareIO) {
	hardware = hw
}

// MustHardware returns the configured board or panics if missing.
func MustHardware() HardwareIO {
	if hardware == nil {
		panic("hardware not configured")
	}
	return hardware
}

// Motor output limits.
const (
	CommandMax   = 250 // full scale of every command and motor power
	MotorMinimum = 8   // smaller magnitudes leave the bridge off
)

// DeadZone clamps power to ±CommandMax and zeroes magnitudes below
// MotorMinimum, where the motor only hums.
func DeadZone(power int16) int16 {
	power = int16(Clamp(int32(power), CommandMax))
	if power < MotorMinimum && power > -MotorMinimum {
		return 0
	}
	return power
}
