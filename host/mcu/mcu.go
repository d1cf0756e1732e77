package mcu

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"sanhaco/config"
	"sanhaco/host/serial"
	"sanhaco/protocol"
)

var (
	ErrNotConnected   = errors.New("not connected to board")
	ErrNotConfiguring = errors.New("board is not in configuration mode")
	ErrUnknownParam   = errors.New("unknown parameter")
)

// MCU is a connection to a board's configuration console.
type MCU struct {
	client *protocol.Client
	log    zerolog.Logger

	// Connection state
	connected   bool
	configuring bool
}

// NewMCU creates a new MCU instance (not yet connected)
func NewMCU(logger zerolog.Logger) *MCU {
	return &MCU{log: logger}
}

// Connect connects to a board via serial port
func (m *MCU) Connect(device string) error {
	return m.ConnectWithConfig(serial.DefaultConfig(device))
}

// ConnectWithConfig connects to a board with a custom serial config
func (m *MCU) ConnectWithConfig(cfg *serial.Config) error {
	port, err := serial.Open(cfg)
	if err != nil {
		return fmt.Errorf("failed to open serial port: %w", err)
	}
	if err := port.Flush(); err != nil {
		m.log.Debug().Err(err).Msg("flush failed")
	}

	m.log.Info().Str("device", cfg.Device).Int("baud", cfg.Baud).Msg("serial port open")
	m.Attach(port)
	return nil
}

// Attach uses an already open stream, such as a simulator pipe.
func (m *MCU) Attach(port io.ReadWriteCloser) {
	m.client = protocol.NewClient(port)
	m.connected = true
	m.configuring = false
}

// SetTimeout sets the per-reply timeout.
func (m *MCU) SetTimeout(d time.Duration) {
	if m.client != nil {
		m.client.Timeout = d
	}
}

// Close closes the connection to the board
func (m *MCU) Close() error {
	if m.client == nil {
		return nil
	}
	err := m.client.Close()
	m.client = nil
	m.connected = false
	m.configuring = false
	return err
}

// IsConnected returns whether a board is connected
func (m *MCU) IsConnected() bool {
	return m.connected
}

// IsConfiguring reports whether the handshake has been answered.
func (m *MCU) IsConfiguring() bool {
	return m.configuring
}

// EnterConfigMode sends the handshake. The board stops its motors and
// serves configuration requests until Finish.
func (m *MCU) EnterConfigMode() error {
	if !m.connected {
		return ErrNotConnected
	}
	if err := m.client.Handshake(); err != nil {
		return err
	}
	m.configuring = true
	m.log.Info().Msg("board in configuration mode")
	return nil
}

func (m *MCU) ready() error {
	switch {
	case !m.connected:
		return ErrNotConnected
	case !m.configuring:
		return ErrNotConfiguring
	}
	return nil
}

func lookup(name string) (config.Param, error) {
	p, ok := config.ParamByName(name)
	if !ok {
		return p, fmt.Errorf("%w: %s", ErrUnknownParam, name)
	}
	return p, nil
}

// ReadParam returns a parameter in display units.
func (m *MCU) ReadParam(name string) (float64, error) {
	if err := m.ready(); err != nil {
		return 0, err
	}
	p, err := lookup(name)
	if err != nil {
		return 0, err
	}

	raw, err := m.client.Read(uint8(p.ID))
	if err != nil {
		return 0, err
	}
	m.log.Debug().Str("param", p.Name).Int16("raw", raw).Msg("read")
	return config.ToDisplay(p, raw), nil
}

// WriteParam scales a display value and writes it. Values outside the
// parameter's range are refused before anything is sent; the board still
// validates the raw value and answers E3 for what it rejects.
func (m *MCU) WriteParam(name string, value float64) error {
	if err := m.ready(); err != nil {
		return err
	}
	p, err := lookup(name)
	if err != nil {
		return err
	}

	raw, err := config.ToRaw(p, value)
	if err != nil {
		lo, hi := config.ToDisplay(p, p.Min), config.ToDisplay(p, p.Max)
		return fmt.Errorf("%s = %g: %w (%g..%g)", p.Name, value, err, lo, hi)
	}
	if shown := config.ToDisplay(p, raw); shown != value {
		m.log.Warn().
			Str("param", p.Name).
			Float64("requested", value).
			Float64("stored", shown).
			Msg("value rounded to the nearest step")
	}
	if err := m.client.Write(uint8(p.ID), raw); err != nil {
		return err
	}
	m.log.Debug().Str("param", p.Name).Int16("raw", raw).Msg("written")
	return nil
}

// RetrieveRecord reads every parameter from the board.
func (m *MCU) RetrieveRecord() (config.Record, error) {
	var rec config.Record
	if err := m.ready(); err != nil {
		return rec, err
	}
	for _, p := range config.Params {
		raw, err := m.client.Read(uint8(p.ID))
		if err != nil {
			return rec, fmt.Errorf("%s: %w", p.Name, err)
		}
		rec[p.ID] = raw
	}
	return rec, nil
}

// LoadProfile reads a JSON profile, validates it and writes every
// parameter to the board.
func (m *MCU) LoadProfile(path string) error {
	if err := m.ready(); err != nil {
		return err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read profile: %w", err)
	}
	profile, err := config.LoadProfile(data)
	if err != nil {
		return fmt.Errorf("failed to parse profile: %w", err)
	}
	return m.WriteRecord(profile)
}

// WriteRecord validates a profile and writes it parameter by parameter.
func (m *MCU) WriteRecord(profile *config.Profile) error {
	rec, err := profile.Record()
	if err != nil {
		return fmt.Errorf("invalid profile: %w", err)
	}
	for _, p := range config.Params {
		if err := m.client.Write(uint8(p.ID), rec[p.ID]); err != nil {
			return fmt.Errorf("%s: %w", p.Name, err)
		}
	}
	m.log.Info().Int("params", len(config.Params)).Msg("profile written")
	return nil
}

// Finish makes the board save its record and restart.
func (m *MCU) Finish() error {
	if err := m.ready(); err != nil {
		return err
	}
	if err := m.client.Finish(); err != nil {
		return err
	}
	m.configuring = false
	m.log.Info().Msg("record saved, board restarting")
	return nil
}

// Raw sends hex bytes unchanged and returns the reply.
func (m *MCU) Raw(hex []string) ([]byte, error) {
	if !m.connected {
		return nil, ErrNotConnected
	}
	data, err := ParseHex(hex)
	if err != nil {
		return nil, err
	}
	return m.client.Raw(data)
}

// ParseHex parses byte values such as "02", "0x3D" or "ff".
func ParseHex(fields []string) ([]byte, error) {
	data := make([]byte, 0, len(fields))
	for _, f := range fields {
		v, err := strconv.ParseUint(strings.TrimPrefix(strings.ToLower(f), "0x"), 16, 8)
		if err != nil {
			return nil, fmt.Errorf("bad byte %q: %w", f, err)
		}
		data = append(data, byte(v))
	}
	return data, nil
}

// PrintRecord prints every parameter in display units.
func PrintRecord(w io.Writer, rec config.Record) {
	fmt.Fprintln(w, "\n=== Board Configuration ===")
	for _, p := range config.Params {
		fmt.Fprintf(w, "  %-14s %10g  (raw %d)\n", p.Name, config.ToDisplay(p, rec[p.ID]), rec[p.ID])
	}
	fmt.Fprintln(w, "===========================")
}
