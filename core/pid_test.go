package core

import "testing"

func TestPIDZeroTargetResets(t *testing.T) {
	p := NewPID(Gains{Kp: 300, Ki: 40, Kd: 20, Blend: 200})
	for i := 0; i < 10; i++ {
		p.Update(180, int16(i*10))
	}
	if p.Integral == 0 || p.Output == 0 {
		t.Fatalf("state did not build up: %+v", p)
	}

	for i := 0; i < 2; i++ {
		if got := p.Update(0, 120); got != 0 {
			t.Errorf("zero target returned %d", got)
		}
	}
	if p.Output != 0 || p.Integral != 0 || p.LastError != 0 {
		t.Errorf("state after stop: output=%d integral=%d last=%d", p.Output, p.Integral, p.LastError)
	}
}

func TestPIDBlend(t *testing.T) {
	testCases := []struct {
		name   string
		blend  int16
		target int16
		want   int16
	}{
		{"open loop passes target", 0, 120, 120},
		{"open loop negative", 0, -77, -77},
		{"half blend", 128, 100, 100}, // pid output equals target on the first frame below
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// kp = 1.0 with zero measurement makes the first output equal the target.
			p := NewPID(Gains{Kp: 256, Blend: tc.blend})
			if got := p.Update(tc.target, 0); got != tc.want {
				t.Errorf("Update = %d, want %d", got, tc.want)
			}
		})
	}

	if got := Blend(200, 0, 128); got != 100 {
		t.Errorf("Blend(200, 0, 128) = %d, want 100", got)
	}
}

func TestPIDClamps(t *testing.T) {
	p := NewPID(Gains{Kp: 32767, Ki: 32767, Kd: 32767, Blend: 255})
	for i := 0; i < 5; i++ {
		got := p.Update(CommandMax, -CommandMax)
		if got > CommandMax || got < -CommandMax {
			t.Fatalf("output %d outside ±%d", got, CommandMax)
		}
	}
	if p.Integral != p.Limit || p.Output != p.Limit {
		t.Errorf("state not clamped: integral=%d output=%d limit=%d", p.Integral, p.Output, p.Limit)
	}

	n := NewPID(Gains{Kp: -32768, Ki: -32768, Blend: 255})
	n.Update(CommandMax, 0)
	if n.Output != -n.Limit || n.Integral != -n.Limit {
		t.Errorf("negative state not clamped: integral=%d output=%d", n.Integral, n.Output)
	}
}

func TestPIDIntegralAccumulates(t *testing.T) {
	p := NewPID(Gains{Ki: 128, Blend: 255}) // ki = 0.5
	p.Update(10, 0)
	p.Update(10, 0)
	// integral: 5, then 10 (Q.8); output sums integral each frame: 5 + 10
	if p.Integral != 10<<FracBits {
		t.Errorf("Integral = %d, want %d", p.Integral, 10<<FracBits)
	}
	if p.Output != 15<<FracBits {
		t.Errorf("Output = %d, want %d", p.Output, 15<<FracBits)
	}
}
