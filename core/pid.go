package core

// FracBits is the fractional width of the controller state and the gains.
const FracBits = 8

// Gains are the Q8.8 coefficients of one axis plus its blend ratio.
type Gains struct {
	Kp, Ki, Kd int16
	// Blend weighs the PID output against the raw target, out of 256:
	// 0 passes the target through, 255 is almost pure PID.
	Blend int16
}

// PID is the controller state of one axis. Output, Integral and LastError
// are Q.8 command units.
type PID struct {
	Gains
	Output    int32
	Integral  int32
	LastError int32
	// Limit bounds Output and Integral.
	Limit int32
}

// NewPID creates a controller limited to the motor range.
func NewPID(g Gains) *PID {
	return &PID{Gains: g, Limit: CommandMax << FracBits}
}

// Reset zeroes the state. Gains are kept.
func (p *PID) Reset() {
	p.Output = 0
	p.Integral = 0
	p.LastError = 0
}

// Update runs one frame and returns the motor power. A zero target stops
// the wheel and discards the accumulated state.
func (p *PID) Update(target, measured int16) int16 {
	if target == 0 {
		p.Reset()
		return 0
	}

	err := (int64(target) - int64(measured)) << FracBits
	derivative := err - int64(p.LastError)

	integral := int64(p.Integral) + (int64(p.Ki)*err)>>FracBits
	p.Integral = clamp64(integral, p.Limit)

	out := int64(p.Output)
	out += (int64(p.Kp) * err) >> FracBits
	out += int64(p.Integral)
	out += (int64(p.Kd) * derivative) >> FracBits
	p.Output = clamp64(out, p.Limit)
	p.LastError = int32(err)

	result := Blend(p.Output>>FracBits, int32(target), p.Blend)
	return int16(Clamp(result, p.Limit>>FracBits))
}

// Blend mixes the PID output with the target by b/256.
func Blend(pid, target int32, b int16) int32 {
	return (pid*int32(b) + target*(256-int32(b))) >> 8
}

// Clamp limits v to [-limit, limit].
func Clamp(v, limit int32) int32 {
	if v > limit {
		return limit
	}
	if v < -limit {
		return -limit
	}
	return v
}

func clamp64(v int64, limit int32) int32 {
	if v > int64(limit) {
		return limit
	}
	if v < -int64(limit) {
		return -limit
	}
	return int32(v)
}
