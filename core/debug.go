package core

// DebugWriter is a function type for writing debug messages
type DebugWriter func(string)

// Event captures a state change for post-mortem analysis
type Event struct {
	Type   uint8  // Event type code
	Tick   uint32 // Clock at event
	Value1 uint32 // Context-dependent value
	Value2 uint32 // Context-dependent value
}

// Event type codes
const (
	EvtBoot           = 1 // Boot finished, v1 = valid config copies
	EvtSignalLost     = 2 // Receiver faded out, v1 = ticks since last pulse
	EvtSignalRestored = 3 // First pulse after loss
	EvtConfigMode     = 4 // Handshake received
	EvtConfigSaved    = 5 // FINISH persisted the record
	EvtRestart        = 6 // Waiting for the watchdog
)

const (
	EventRingSize = 32 // Keep last 32 events for post-mortem
)

var (
	// debugPrintln is the global debug print function (can be set by platform code)
	debugPrintln DebugWriter = func(s string) {} // No-op by default

	// debugEnabled controls whether debug output is active
	debugEnabled bool = false

	eventRing     [EventRingSize]Event
	eventRingHead uint8 // Next write position
)

// SetDebugWriter sets the platform-specific debug output function
// This allows platforms to redirect debug output to UART, USB, etc.
func SetDebugWriter(writer DebugWriter) {
	debugPrintln = writer
}

// SetDebugEnabled enables or disables debug output
func SetDebugEnabled(enabled bool) {
	debugEnabled = enabled
}

// IsDebugEnabled returns whether debug output is enabled
func IsDebugEnabled() bool {
	return debugEnabled
}

// DebugPrintln writes a debug message using the platform-specific writer
func DebugPrintln(msg string) {
	if debugEnabled && debugPrintln != nil {
		debugPrintln(msg)
	}
}

// RecordEvent captures an event in the ring buffer. It never blocks and
// may be called with interrupts off.
func RecordEvent(eventType uint8, tick, value uint32) {
	RecordEvent2(eventType, tick, value, 0)
}

// RecordEvent2 is RecordEvent with a second context value.
func RecordEvent2(eventType uint8, tick, value1, value2 uint32) {
	idx := eventRingHead
	eventRing[idx] = Event{
		Type:   eventType,
		Tick:   tick,
		Value1: value1,
		Value2: value2,
	}
	eventRingHead = (idx + 1) % EventRingSize
}

// Events returns the recorded events, oldest first.
func Events() []Event {
	var out []Event
	start := eventRingHead
	for i := uint8(0); i < EventRingSize; i++ {
		evt := eventRing[(start+i)%EventRingSize]
		if evt.Type != 0 {
			out = append(out, evt)
		}
	}
	return out
}

// EventName returns the log name of an event type.
func EventName(eventType uint8) string {
	switch eventType {
	case EvtBoot:
		return "BOOT"
	case EvtSignalLost:
		return "SIGNAL_LOST"
	case EvtSignalRestored:
		return "SIGNAL_OK"
	case EvtConfigMode:
		return "CONFIG_MODE"
	case EvtConfigSaved:
		return "CONFIG_SAVED"
	case EvtRestart:
		return "RESTART"
	}
	return "UNKNOWN"
}

// DumpEvents outputs the event ring through the debug writer
func DumpEvents() {
	if debugPrintln == nil {
		return
	}

	debugPrintln("[EVENT] === Event Ring Dump ===")
	for _, evt := range Events() {
		debugPrintln("[EVENT] " + EventName(evt.Type) +
			" tick=" + utoa(evt.Tick) +
			" v1=" + utoa(evt.Value1) +
			" v2=" + utoa(evt.Value2))
	}
	debugPrintln("[EVENT] === End Dump ===")
}

// ClearEvents clears the event ring
func ClearEvents() {
	for i := range eventRing {
		eventRing[i] = Event{}
	}
	eventRingHead = 0
}
