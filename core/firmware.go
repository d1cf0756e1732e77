package core

import (
	"errors"

	"sanhaco/config"
	"sanhaco/protocol"
)

var (
	// ErrRestart is returned by Run on hosts where Restart returns.
	ErrRestart = errors.New("restart requested")
	ErrNoClock = errors.New("no tick source")
)

// Firmware ties the control loop to its configuration record and the
// configuration session.
type Firmware struct {
	Board  BoardConfig
	Record config.Record
	// ValidCopies is how many stored copies passed their checksum at boot.
	ValidCopies int

	hw    HardwareIO
	link  protocol.Link
	store *config.Store
	clock TickSource
	flags Flags
	loop  *Loop
}

// Boot loads the record and builds the control loop. A nil hw uses the
// registered hardware; a nil store or a failing one boots with defaults.
func Boot(board BoardConfig, hw HardwareIO, link protocol.Link, store *config.Store, clock TickSource) (*Firmware, error) {
	if clock == nil {
		return nil, ErrNoClock
	}
	if hw == nil {
		hw = MustHardware()
	}

	f := &Firmware{
		Board:  board,
		Record: config.Defaults(),
		hw:     hw,
		link:   link,
		store:  store,
		clock:  clock,
	}

	hw.KickWatchdog()
	if store != nil {
		store.Kick = hw.KickWatchdog
		rec, valid, err := store.Load()
		if err != nil {
			DebugPrintln("[BOOT] config load failed: " + err.Error())
		} else {
			f.Record = rec
			f.ValidCopies = valid
		}
	}

	f.loop = NewLoop(hw, link, clock, &f.flags, &f.Record, board)

	RecordEvent(EvtBoot, uint32(clock.Now()), uint32(f.ValidCopies))
	DebugPrintln("[BOOT] valid config copies: " + itoa(f.ValidCopies))
	return f, nil
}

// Loop returns the control loop, for wiring interrupts and diagnostics.
func (f *Firmware) Loop() *Loop {
	return f.loop
}

// Flags returns the frame flags the interrupt handlers signal.
func (f *Firmware) Flags() *Flags {
	return &f.flags
}

// Run drives the control loop until the host asks for configuration mode,
// then serves the session and restarts.
func (f *Firmware) Run() error {
	if err := f.loop.Run(); err != ErrConfigRequested {
		return err
	}
	return f.EnterConfigMode()
}

// EnterConfigMode stops the motors, serves configuration requests until
// FINISH and then restarts the board. It only returns on hosts.
func (f *Firmware) EnterConfigMode() error {
	c := f.BeginConfig()
	c.session.Wait = f.hw.Idle
	for {
		if err := c.Step(); err != nil {
			return err
		}
	}
}

// ConfigMode is a configuration session in progress. Hosts that must stay
// responsive drive it one Step at a time.
type ConfigMode struct {
	f       *Firmware
	session *protocol.Session
}

// BeginConfig stops the motors and acknowledges the handshake.
func (f *Firmware) BeginConfig() *ConfigMode {
	RecordEvent(EvtConfigMode, uint32(f.clock.Now()), 0)
	DebugPrintln("[CONFIG] entering configuration mode")

	for a := config.Axis(0); a < config.NumAxes; a++ {
		f.hw.SetMotorPower(a, 0)
	}
	f.hw.SetLED(true)

	s := protocol.NewSession(f.link, &f.Record, f.store, f.Board.ReceiveTimeout)
	s.Kick = f.hw.KickWatchdog
	s.Begin()
	return &ConfigMode{f: f, session: s}
}

// Step serves at most one request and idles through Session.Wait when
// none is waiting. It returns nil while the session goes on. After FINISH
// it restarts the board and returns ErrRestart, or the save error.
func (c *ConfigMode) Step() error {
	idle := c.f.link.Available() == 0
	done, err := c.session.Poll()
	if !done && err == nil {
		if idle && c.session.Wait != nil {
			c.session.Wait()
		}
		return nil
	}

	f := c.f
	if err != nil {
		DebugPrintln("[CONFIG] save failed: " + err.Error())
	} else {
		RecordEvent(EvtConfigSaved, uint32(f.clock.Now()), 0)
	}

	RecordEvent(EvtRestart, uint32(f.clock.Now()), 0)
	f.hw.Restart()
	if err != nil {
		return err
	}
	return ErrRestart
}
