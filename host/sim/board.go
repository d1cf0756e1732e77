// Package sim plays the firmware against a simulated robot on the host.
//
// Simulated time is kept in microseconds by a core.Scheduler. Timers on it
// model the 8-bit counter overflow, the RC receiver pulse train and the
// wheel encoders, and call the same interrupt handlers the board wires to
// its pins. The control loop idles by advancing the schedule to its next
// event, so a simulated second runs in a few milliseconds unless Realtime
// is set.
package sim

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"sanhaco/config"
	"sanhaco/core"
	"sanhaco/protocol"
)

// Receiver timing.
const (
	RCFramePeriod = 20000 // µs between pulse trains
	RCNeutral     = 1500  // µs
	overflowEvery = 256 * core.TickMicros
	physicsEvery  = 1000 // µs between wheel model updates

	// configPoll is the wall-clock pause between configuration polls that
	// found nothing to read.
	configPoll = time.Millisecond
)

// Board is a simulated robot: the 8-bit edge timer, the receiver, two
// wheels with encoders and the configuration EEPROM.
type Board struct {
	Config core.BoardConfig
	NV     *config.MemoryNV
	Port   *protocol.Port

	// Realtime paces simulated time against the wall clock.
	Realtime bool

	log   zerolog.Logger
	sched core.Scheduler
	timer *core.EdgeTimer

	mu     sync.Mutex
	fw     *core.Firmware
	cfg    *core.ConfigMode
	boots  int
	wheels [config.NumAxes]Wheel
	radio  bool
	sticks [core.MaxChannels]uint32

	// receiver pulse train
	rcTimer   core.Timer
	rcStart   uint32
	rcChannel int
	rcHigh    bool
	pins      uint8

	overflowTimer core.Timer
	wraps         uint32
	physicsTimer  core.Timer

	led        bool
	ledChanges int
	kicks      int
	idle       uint32
	waiting    bool
	restarting bool

	conn   *serialBridge
	connMu sync.Mutex
}

// New creates a board with the radio on and every stick centred.
func New(board core.BoardConfig, logger zerolog.Logger) *Board {
	b := &Board{
		Config: board,
		NV:     config.NewMemoryNV(config.StoreSize),
		log:    logger,
		radio:  true,
	}
	for i := range b.sticks {
		b.sticks[i] = RCNeutral
	}
	for a := range b.wheels {
		b.wheels[a] = DefaultWheel()
	}
	b.timer = core.NewEdgeTimer(b, nil)

	start := time.Now()
	b.Port = protocol.NewPort(64, 64, func() uint32 {
		return uint32(time.Since(start).Microseconds())
	})
	b.Port.Flush = b.flushSerial
	b.Port.Wait = func() { time.Sleep(100 * time.Microsecond) }

	b.overflowTimer = core.Timer{WakeTime: overflowEvery, Handler: b.onOverflow}
	b.rcStart = RCFramePeriod
	b.rcTimer = core.Timer{WakeTime: b.rcStart, Handler: b.onRCEdge}
	b.physicsTimer = core.Timer{WakeTime: physicsEvery, Handler: b.onPhysics}
	b.sched.ScheduleTimer(&b.overflowTimer)
	b.sched.ScheduleTimer(&b.rcTimer)
	b.sched.ScheduleTimer(&b.physicsTimer)
	return b
}

// Boot powers the board up (again), loading the record from NV memory.
func (b *Board) Boot() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.boot()
}

func (b *Board) boot() error {
	store := config.NewStore(b.NV, 0)
	fw, err := core.Boot(b.Config, b, b.Port, store, b.timer)
	if err != nil {
		return err
	}
	b.fw = fw
	b.boots++
	b.restarting = false
	b.log.Info().
		Int("boot", b.boots).
		Int("valid_copies", fw.ValidCopies).
		Msg("firmware booted")
	return nil
}

// Step runs one iteration of the firmware main loop, or one poll of the
// configuration session once the host has asked for it. A finished session
// reboots the board.
func (b *Board) Step() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.step()
}

func (b *Board) step() error {
	if b.fw == nil {
		if err := b.boot(); err != nil {
			return err
		}
	}
	if b.cfg != nil {
		return b.stepConfig()
	}

	err := b.fw.Loop().Step()
	if err == nil {
		return nil
	}
	if !errors.Is(err, core.ErrConfigRequested) {
		return err
	}

	b.log.Info().Msg("configuration mode")
	b.cfg = b.fw.BeginConfig()
	return nil
}

// stepConfig serves one configuration poll. While the host is silent the
// simulated board keeps ticking and the caller backs off for configPoll.
func (b *Board) stepConfig() error {
	idle := b.Port.Available() == 0
	err := b.cfg.Step()
	if err == nil {
		if idle {
			b.Idle()
			b.waiting = true
		}
		return nil
	}

	b.cfg = nil
	if !errors.Is(err, core.ErrRestart) {
		b.log.Error().Err(err).Msg("configuration session failed")
	}
	return b.boot()
}

// runStep is one step under the lock. idle is the simulated time the
// firmware slept through; waiting is set when a configuration poll found
// nothing to read.
func (b *Board) runStep() (idle uint32, waiting bool, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	err = b.step()
	idle, waiting = b.idle, b.waiting
	b.idle, b.waiting = 0, false
	return idle, waiting, err
}

// RunFor steps the firmware until d of simulated time has passed.
func (b *Board) RunFor(d time.Duration) error {
	end := b.Now() + uint32(d.Microseconds())
	for int32(b.Now()-end) < 0 {
		_, waiting, err := b.runStep()
		if err != nil {
			return err
		}
		if waiting {
			time.Sleep(configPoll)
		}
	}
	return nil
}

// Run steps the firmware until ctx is cancelled.
func (b *Board) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		idle, waiting, err := b.runStep()
		if err != nil {
			return err
		}
		var pause time.Duration
		if b.Realtime {
			pause = time.Duration(idle) * time.Microsecond
		}
		if waiting {
			pause = max(pause, configPoll)
		}
		if pause > 0 {
			time.Sleep(pause)
		}
	}
}

// Now returns the simulated time in microseconds.
func (b *Board) Now() uint32 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.sched.Now()
}

// SetStick sets the pulse width of a receiver channel in microseconds.
func (b *Board) SetStick(ch int, us uint32) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if ch >= 0 && ch < len(b.sticks) {
		b.sticks[ch] = us
	}
}

// SetRadio switches the transmitter on or off.
func (b *Board) SetRadio(on bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if on != b.radio {
		b.log.Info().Bool("on", on).Msg("radio")
	}
	b.radio = on
}

// Snapshot is the observable state of the simulated robot.
type Snapshot struct {
	Time       uint32
	Boots      int
	Status     core.Status
	Speed      [config.NumAxes]float64
	LED        bool
	LEDChanges int
	Kicks      int
	Record     config.Record
	// Configuring is set while a configuration session is open.
	Configuring bool
}

// Snapshot returns the current state.
func (b *Board) Snapshot() Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()

	s := Snapshot{
		Time:       b.sched.Now(),
		Boots:      b.boots,
		LED:        b.led,
		LEDChanges: b.ledChanges,
		Kicks:      b.kicks,

		Configuring: b.cfg != nil,
	}
	for a := range b.wheels {
		s.Speed[a] = b.wheels[a].Speed
	}
	if b.fw != nil {
		s.Status = b.fw.Loop().Status()
		s.Record = b.fw.Record
	}
	return s
}

// SetMotorPower implements core.MotorDriver.
func (b *Board) SetMotorPower(axis config.Axis, power int16) {
	b.wheels[axis].Power = core.DeadZone(power)
}

// SetLED implements core.LEDDriver.
func (b *Board) SetLED(on bool) {
	if on != b.led {
		b.ledChanges++
	}
	b.led = on
}

func (b *Board) KickWatchdog() {
	b.kicks++
}

// Idle advances simulated time to the next scheduled event.
func (b *Board) Idle() {
	next, ok := b.sched.NextWake()
	if !ok {
		return
	}
	b.idle += next - b.sched.Now()
	b.sched.AdvanceTo(next)
}

// Restart marks the board for a reboot. The caller boots it again.
func (b *Board) Restart() {
	b.restarting = true
	b.log.Info().Msg("watchdog restart")
}

// Counter implements core.CounterHW over the simulated clock.
func (b *Board) Counter() uint8 {
	return uint8(b.sched.Now() / core.TickMicros)
}

// OverflowPending reports a counter wrap whose overflow timer has not run.
func (b *Board) OverflowPending() bool {
	return b.sched.Now()/overflowEvery != b.wraps
}

func (b *Board) onOverflow(t *core.Timer) uint8 {
	b.wraps++
	b.timer.Overflow()
	t.WakeTime += overflowEvery
	return core.SF_RESCHEDULE
}

// onRCEdge produces the receiver's pulse train: channels back to back,
// one train per RCFramePeriod.
func (b *Board) onRCEdge(t *core.Timer) uint8 {
	rx := b.receiver()
	if !b.radio || rx == nil {
		b.pins, b.rcChannel, b.rcHigh = 0, 0, false
		t.WakeTime += RCFramePeriod
		b.rcStart = t.WakeTime
		return core.SF_RESCHEDULE
	}

	bit := uint8(1) << (b.Config.Receiver.FirstBit + uint8(b.rcChannel))
	if !b.rcHigh {
		b.pins |= bit
		b.rcHigh = true
		rx.OnPinChange(b.pins, b.timer.NowFromISR())
		t.WakeTime += b.sticks[b.rcChannel]
		return core.SF_RESCHEDULE
	}

	b.pins &^= bit
	b.rcHigh = false
	rx.OnPinChange(b.pins, b.timer.NowFromISR())
	b.rcChannel++
	if b.rcChannel < b.Config.Receiver.Channels {
		t.WakeTime++
		return core.SF_RESCHEDULE
	}

	b.rcChannel = 0
	b.rcStart += RCFramePeriod
	t.WakeTime = b.rcStart
	return core.SF_RESCHEDULE
}

func (b *Board) onPhysics(t *core.Timer) uint8 {
	quadrature := b.Config.Encoder == core.EncoderQuadrature
	for a := range b.wheels {
		steps := b.wheels[a].Advance(physicsEvery)
		if b.fw == nil {
			continue
		}
		enc := b.fw.Loop().Encoder(config.Axis(a))
		for ; steps != 0; steps = towardZero(steps) {
			if !quadrature {
				enc.Pulse()
				continue
			}
			enc.Quadrature(b.wheels[a].Phase(steps > 0))
		}
	}
	t.WakeTime += physicsEvery
	return core.SF_RESCHEDULE
}

func (b *Board) receiver() *core.Receiver {
	if b.fw == nil || b.restarting {
		return nil
	}
	return b.fw.Loop().Receiver()
}

func towardZero(n int) int {
	if n > 0 {
		return n - 1
	}
	return n + 1
}
