package config

import (
	"encoding/json"
	"math"
)

// AxisProfile holds the human-scale controller settings of one wheel.
type AxisProfile struct {
	Kp      float64 `json:"kp"`
	Ki      float64 `json:"ki"`
	Kd      float64 `json:"kd"`
	Blend   float64 `json:"blend"` // 0 = open loop, 1 = full PID
	Reverse bool    `json:"reverse"`
}

// Profile is a JSON document describing a complete record in display units.
// The host console writes it parameter by parameter.
type Profile struct {
	Left            AxisProfile `json:"left"`
	Right           AxisProfile `json:"right"`
	EncoderFrames   int         `json:"enc_frames"`
	ReceiverSamples int         `json:"recv_samples"`
	EncoderScale    float64     `json:"enc_scale"`
	Calibration     bool        `json:"calibration"`
}

// LoadProfile parses a JSON profile and applies defaults to missing fields.
func LoadProfile(jsonData []byte) (*Profile, error) {
	var p Profile
	if err := json.Unmarshal(jsonData, &p); err != nil {
		return nil, err
	}
	applyDefaults(&p)
	return &p, nil
}

// applyDefaults fills zero-valued window and scale settings
func applyDefaults(p *Profile) {
	if p.EncoderFrames == 0 {
		p.EncoderFrames = int(Params[EncoderFrames].Default)
	}
	if p.ReceiverSamples == 0 {
		p.ReceiverSamples = int(Params[ReceiverSamples].Default)
	}
	if p.EncoderScale == 0 {
		p.EncoderScale = float64(Params[EncoderScale].Default) / Params[EncoderScale].Scale
	}
}

// DefaultProfile returns the factory settings in display units.
func DefaultProfile() *Profile {
	return ProfileFromRecord(Defaults())
}

// ProfileFromRecord converts a raw record to display units.
func ProfileFromRecord(r Record) *Profile {
	axis := func(a Axis) AxisProfile {
		return AxisProfile{
			Kp:      float64(r.Kp(a)) / GainOne,
			Ki:      float64(r.Ki(a)) / GainOne,
			Kd:      float64(r.Kd(a)) / GainOne,
			Blend:   float64(r.Blend(a)) / (BlendOne - 1),
			Reverse: r.Reversed(a),
		}
	}
	return &Profile{
		Left:            axis(Left),
		Right:           axis(Right),
		EncoderFrames:   r.EncoderFrames(),
		ReceiverSamples: r.ReceiverSamples(),
		EncoderScale:    float64(r.EncoderScale()) / GainOne,
		Calibration:     r.CalibrationMode(),
	}
}

// Record converts the profile to raw values, validating every field.
func (p *Profile) Record() (Record, error) {
	var r Record
	set := func(id ParamID, display float64) error {
		raw, err := ToRaw(Params[id], display)
		if err != nil {
			return err
		}
		return r.Set(id, raw)
	}
	flag := func(b bool) float64 {
		if b {
			return 1
		}
		return 0
	}

	fields := []struct {
		id ParamID
		v  float64
	}{
		{LeftKp, p.Left.Kp}, {LeftKi, p.Left.Ki}, {LeftKd, p.Left.Kd}, {LeftBlend, p.Left.Blend},
		{RightKp, p.Right.Kp}, {RightKi, p.Right.Ki}, {RightKd, p.Right.Kd}, {RightBlend, p.Right.Blend},
		{EncoderFrames, float64(p.EncoderFrames)},
		{ReceiverSamples, float64(p.ReceiverSamples)},
		{ReverseLeft, flag(p.Left.Reverse)},
		{ReverseRight, flag(p.Right.Reverse)},
		{CalibrationMode, flag(p.Calibration)},
		{EncoderScale, p.EncoderScale},
	}
	for _, f := range fields {
		if err := set(f.id, f.v); err != nil {
			return r, err
		}
	}
	return r, nil
}

// ToRaw scales a display value to the raw int16 stored for p. Values that
// round outside the parameter's range are rejected with ErrOutOfRange
// rather than clamped. Odd-only parameters are left to Record.Set.
func ToRaw(p Param, display float64) (int16, error) {
	v := math.Round(display * p.Scale)
	if !(v >= float64(p.Min) && v <= float64(p.Max)) {
		return 0, ErrOutOfRange
	}
	return int16(v), nil
}

// ToDisplay scales a raw value back to display units.
func ToDisplay(p Param, raw int16) float64 {
	return float64(raw) / p.Scale
}
