package config

import "encoding/binary"

// RecordSize is the encoded size of a Record in bytes.
const RecordSize = int(NumParams) * 2

// Record is the full set of tunable parameters. It is built once at boot and
// only changed by the configuration session.
type Record [NumParams]int16

// Defaults returns the factory record.
func Defaults() Record {
	var r Record
	for i, p := range Params {
		r[i] = p.Default
	}
	return r
}

// Get returns the raw value of a parameter.
func (r *Record) Get(id ParamID) (int16, error) {
	if id >= NumParams {
		return 0, ErrInvalidParam
	}
	return r[id], nil
}

// Set validates v and stores it. On error the record is unchanged.
func (r *Record) Set(id ParamID, v int16) error {
	p, err := Lookup(id)
	if err != nil {
		return err
	}
	if !p.Valid(v) {
		return ErrOutOfRange
	}
	r[id] = v
	return nil
}

// Sanitize replaces every invalid field with its default and returns how
// many fields were replaced.
func (r *Record) Sanitize() int {
	n := 0
	for i, p := range Params {
		if !p.Valid(r[i]) {
			r[i] = p.Default
			n++
		}
	}
	return n
}

func axisParam(a Axis, left, right ParamID) ParamID {
	if a == Right {
		return right
	}
	return left
}

// Kp returns the Q8.8 proportional gain of an axis.
func (r *Record) Kp(a Axis) int16 { return r[axisParam(a, LeftKp, RightKp)] }

// Ki returns the Q8.8 integral gain of an axis.
func (r *Record) Ki(a Axis) int16 { return r[axisParam(a, LeftKi, RightKi)] }

// Kd returns the Q8.8 derivative gain of an axis.
func (r *Record) Kd(a Axis) int16 { return r[axisParam(a, LeftKd, RightKd)] }

// Blend returns the PID blend ratio of an axis in [0, BlendOne).
func (r *Record) Blend(a Axis) int16 { return r[axisParam(a, LeftBlend, RightBlend)] }

// Reversed reports whether the motor of an axis is mounted reversed.
func (r *Record) Reversed(a Axis) bool { return r[axisParam(a, ReverseLeft, ReverseRight)] != 0 }

// EncoderFrames returns the moving-average window length in frames.
func (r *Record) EncoderFrames() int { return int(r[EncoderFrames]) }

// ReceiverSamples returns the median window length, always odd.
func (r *Record) ReceiverSamples() int { return int(r[ReceiverSamples]) }

func (r *Record) CalibrationMode() bool { return r[CalibrationMode] != 0 }

// EncoderScale returns the Q8.8 factor from encoder window sum to command units.
func (r *Record) EncoderScale() int16 { return r[EncoderScale] }

// MarshalBinary encodes the record as little-endian int16 words.
func (r *Record) MarshalBinary() ([]byte, error) {
	buf := make([]byte, RecordSize)
	r.encode(buf)
	return buf, nil
}

// UnmarshalBinary decodes a record produced by MarshalBinary.
func (r *Record) UnmarshalBinary(data []byte) error {
	if len(data) < RecordSize {
		return ErrShortRecord
	}
	r.decode(data)
	return nil
}

func (r *Record) encode(buf []byte) {
	for i, v := range r {
		binary.LittleEndian.PutUint16(buf[2*i:], uint16(v))
	}
}

func (r *Record) decode(buf []byte) {
	for i := range r {
		r[i] = int16(binary.LittleEndian.Uint16(buf[2*i:]))
	}
}
