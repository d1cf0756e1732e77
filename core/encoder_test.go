package core

import "testing"

func TestQuadratureDelta(t *testing.T) {
	// Gray sequence 00 -> 10 -> 11 -> 01 -> 00 is one direction,
	// the reverse sequence the other.
	forward := []uint8{0, 2, 3, 1, 0}
	for i := 1; i < len(forward); i++ {
		if d := QuadratureDelta(forward[i-1], forward[i]); d != 1 {
			t.Errorf("QuadratureDelta(%02b, %02b) = %d, want 1", forward[i-1], forward[i], d)
		}
		if d := QuadratureDelta(forward[i], forward[i-1]); d != -1 {
			t.Errorf("QuadratureDelta(%02b, %02b) = %d, want -1", forward[i], forward[i-1], d)
		}
	}

	for s := uint8(0); s < 4; s++ {
		if d := QuadratureDelta(s, s); d != 0 {
			t.Errorf("no change from %02b gave %d", s, d)
		}
		if d := QuadratureDelta(s, s^3); d != 0 {
			t.Errorf("double transition from %02b gave %d", s, d)
		}
	}
}

func TestEncoderCounts(t *testing.T) {
	var e Encoder
	for i := 0; i < 5; i++ {
		e.Pulse()
	}
	if got := e.Take(); got != 5 {
		t.Errorf("Take() = %d, want 5", got)
	}
	if got := e.Take(); got != 0 {
		t.Errorf("Take() after take = %d, want 0", got)
	}

	// Two full cycles backwards.
	for _, s := range []uint8{1, 3, 2, 0, 1, 3, 2, 0} {
		e.Quadrature(s)
	}
	if got := e.Take(); got != -8 {
		t.Errorf("quadrature count = %d, want -8", got)
	}
}

func TestAccumulatorSumMatchesWindow(t *testing.T) {
	for _, window := range []int{1, 5, 8, MaxFrames} {
		a := NewAccumulator(window)
		var history []int32

		for n := 1; n <= 3*window; n++ {
			v := int32((n*37)%23) - 5 // includes negative counts
			a.Push(v)
			history = append(history, v)

			if n != window && n != 3*window {
				continue
			}
			var want int32
			start := len(history) - window
			for _, h := range history[start:] {
				want += h
			}
			if a.Sum() != want {
				t.Errorf("window %d after %d pushes: Sum() = %d, want %d", window, n, a.Sum(), want)
			}
			if a.Average() != want/int32(window) {
				t.Errorf("window %d: Average() = %d, want %d", window, a.Average(), want/int32(window))
			}
		}
	}
}

func TestAccumulatorResize(t *testing.T) {
	a := NewAccumulator(0)
	if a.Window() != 1 {
		t.Errorf("window 0 clamped to %d, want 1", a.Window())
	}
	a.Push(7)
	a.Resize(100)
	if a.Window() != MaxFrames || a.Sum() != 0 {
		t.Errorf("Resize(100): window=%d sum=%d", a.Window(), a.Sum())
	}
}
