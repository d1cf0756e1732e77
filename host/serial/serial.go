package serial

import (
	"io"
)

// Port represents a serial port interface.
// Implementations are the native tarm/serial port and in-memory pipes in
// tests.
type Port interface {
	io.ReadWriteCloser

	// Flush discards any stale buffered data
	Flush() error
}

// Config holds serial port configuration
type Config struct {
	// Device path (e.g., "/dev/ttyUSB0", "COM3")
	Device string

	// Baud rate of the board's configuration console
	Baud int

	// Read timeout in milliseconds (0 = blocking)
	ReadTimeout int
}

// DefaultBaud is the UART rate the firmware listens on for the handshake.
const DefaultBaud = 19200

// DefaultConfig returns the configuration used by the config console
func DefaultConfig(device string) *Config {
	return &Config{
		Device:      device,
		Baud:        DefaultBaud,
		ReadTimeout: 100,
	}
}
