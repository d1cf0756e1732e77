package sim

import "sanhaco/core"

// quadratureForward is the AB sequence of a wheel turning forward.
var quadratureForward = [4]uint8{0, 2, 3, 1}

// Wheel is a first-order model of a geared motor with an encoder.
type Wheel struct {
	// Power is the last motor command after the dead zone.
	Power int16
	// Speed in encoder edges per second.
	Speed float64
	// MaxSpeed is the steady speed at full power.
	MaxSpeed float64
	// TimeConstant of the motor and load, in seconds.
	TimeConstant float64

	travel float64
	step   int
}

// DefaultWheel reaches about full command scale on the encoder window of
// the default record at full power.
func DefaultWheel() Wheel {
	return Wheel{MaxSpeed: 2000, TimeConstant: 0.1}
}

// Advance integrates the model over us microseconds and returns the
// encoder edges produced, negative when turning backwards.
func (w *Wheel) Advance(us uint32) int {
	dt := float64(us) / 1e6
	target := float64(w.Power) * w.MaxSpeed / core.CommandMax
	if w.TimeConstant <= dt {
		w.Speed = target
	} else {
		w.Speed += (target - w.Speed) * dt / w.TimeConstant
	}

	w.travel += w.Speed * dt
	edges := int(w.travel)
	w.travel -= float64(edges)
	return edges
}

// Phase steps the quadrature output one edge and returns the new AB state.
func (w *Wheel) Phase(forward bool) uint8 {
	if forward {
		w.step = (w.step + 1) & 3
	} else {
		w.step = (w.step + 3) & 3
	}
	return quadratureForward[w.step]
}
