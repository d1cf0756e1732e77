//go:build !wasm

package serial

import (
	"errors"
	"fmt"
	"time"

	"github.com/tarm/serial"
)

var errNilConfig = errors.New("serial: nil config")

// NativePort is a UART device opened through tarm/serial. Read, Write,
// Close and Flush come straight from the embedded port.
type NativePort struct {
	*serial.Port
	Device string
}

// Open opens the device named in cfg, or a TCP connection for devices of
// the form tcp://host:port.
func Open(cfg *Config) (Port, error) {
	switch {
	case cfg == nil:
		return nil, errNilConfig
	case isTCP(cfg.Device):
		return openTCP(cfg)
	case cfg.Baud <= 0:
		return nil, fmt.Errorf("serial: invalid baud rate %d", cfg.Baud)
	}

	p, err := serial.OpenPort(&serial.Config{
		Name:        cfg.Device,
		Baud:        cfg.Baud,
		ReadTimeout: time.Duration(cfg.ReadTimeout) * time.Millisecond,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", cfg.Device, err)
	}
	return &NativePort{Port: p, Device: cfg.Device}, nil
}
