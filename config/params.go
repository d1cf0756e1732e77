// Package config holds the tunable parameter record of the firmware, its
// validation table, and the triple-redundant non-volatile store.
package config

import "errors"

var (
	ErrInvalidParam = errors.New("invalid parameter id")
	ErrOutOfRange   = errors.New("parameter value out of range")
)

// ParamID indexes a tunable parameter. The id travels in the low nibble of a
// configuration request, so there can never be more than 16.
type ParamID uint8

const (
	LeftKp ParamID = iota
	LeftKi
	LeftKd
	LeftBlend
	RightKp
	RightKi
	RightKd
	RightBlend
	EncoderFrames
	ReceiverSamples
	ReverseLeft
	ReverseRight
	CalibrationMode
	EncoderScale
	NumParams
)

// Axis selects one of the two driven wheels.
type Axis uint8

const (
	Left Axis = iota
	Right
	NumAxes
)

// Limits shared with the signal pipeline. Buffers are sized from these at
// build time.
const (
	MaxEncoderFrames   = 32
	MaxReceiverSamples = 31
	BlendOne           = 256 // blend values live in [0, BlendOne)
	GainOne            = 256 // Q8.8 unity gain
)

// Param describes one parameter: its wire id, console name, display scale
// and the accepted range.
type Param struct {
	ID      ParamID
	Name    string
	Scale   float64 // raw = display * Scale
	Min     int16
	Max     int16
	OddOnly bool
	Default int16
}

// Valid reports whether v is acceptable for the parameter.
func (p Param) Valid(v int16) bool {
	if v < p.Min || v > p.Max {
		return false
	}
	if p.OddOnly && v%2 == 0 {
		return false
	}
	return true
}

// Params is the parameter table, indexed by ParamID.
var Params = [NumParams]Param{
	{ID: LeftKp, Name: "left-kp", Scale: GainOne, Min: -32768, Max: 32767, Default: 256},
	{ID: LeftKi, Name: "left-ki", Scale: GainOne, Min: -32768, Max: 32767, Default: 16},
	{ID: LeftKd, Name: "left-kd", Scale: GainOne, Min: -32768, Max: 32767, Default: 0},
	{ID: LeftBlend, Name: "left-blend", Scale: BlendOne - 1, Min: 0, Max: BlendOne - 1, Default: 128},
	{ID: RightKp, Name: "right-kp", Scale: GainOne, Min: -32768, Max: 32767, Default: 256},
	{ID: RightKi, Name: "right-ki", Scale: GainOne, Min: -32768, Max: 32767, Default: 16},
	{ID: RightKd, Name: "right-kd", Scale: GainOne, Min: -32768, Max: 32767, Default: 0},
	{ID: RightBlend, Name: "right-blend", Scale: BlendOne - 1, Min: 0, Max: BlendOne - 1, Default: 128},
	{ID: EncoderFrames, Name: "enc-frames", Scale: 1, Min: 1, Max: MaxEncoderFrames, Default: 8},
	{ID: ReceiverSamples, Name: "recv-samples", Scale: 1, Min: 1, Max: MaxReceiverSamples, OddOnly: true, Default: 7},
	{ID: ReverseLeft, Name: "reverse-left", Scale: 1, Min: 0, Max: 1, Default: 0},
	{ID: ReverseRight, Name: "reverse-right", Scale: 1, Min: 0, Max: 1, Default: 0},
	{ID: CalibrationMode, Name: "calibration", Scale: 1, Min: 0, Max: 1, Default: 0},
	{ID: EncoderScale, Name: "enc-scale", Scale: GainOne, Min: 1, Max: 32767, Default: 256},
}

// ParamByName looks a parameter up by its console name.
func ParamByName(name string) (Param, bool) {
	for _, p := range Params {
		if p.Name == name {
			return p, true
		}
	}
	return Param{}, false
}

// Lookup returns the descriptor for id.
func Lookup(id ParamID) (Param, error) {
	if id >= NumParams {
		return Param{}, ErrInvalidParam
	}
	return Params[id], nil
}
