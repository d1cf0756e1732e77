package config

import (
	"math"
	"testing"
)

func TestVote3(t *testing.T) {
	testCases := []struct {
		name    string
		a, b, c int16
		want    int16
	}{
		{"all agree", 5, 5, 5, 5},
		{"first two", 5, 5, 9, 5},
		{"outer two", 5, 9, 5, 5},
		{"last two", 9, 5, 5, 5},
		{"no majority", 1, 2, 3, -1},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Vote3(tc.a, tc.b, tc.c, -1); got != tc.want {
				t.Errorf("Vote3(%d, %d, %d) = %d, want %d", tc.a, tc.b, tc.c, got, tc.want)
			}
		})
	}
}

func TestChecksumDetectsSwapAndFlip(t *testing.T) {
	data := []byte{0x10, 0x20, 0x30, 0x40}
	base := Checksum(data)

	swapped := []byte{0x20, 0x10, 0x30, 0x40}
	if Checksum(swapped) == base {
		t.Error("Checksum did not change when two bytes were swapped")
	}

	flipped := []byte{0x10, 0x21, 0x30, 0x40}
	if Checksum(flipped) == base {
		t.Error("Checksum did not change when a bit was flipped")
	}
}

func TestRecordSetValidation(t *testing.T) {
	r := Defaults()

	if err := r.Set(LeftBlend, 200); err != nil {
		t.Fatalf("Set(LeftBlend, 200) failed: %v", err)
	}
	if v, _ := r.Get(LeftBlend); v != 200 {
		t.Errorf("Get(LeftBlend) = %d, want 200", v)
	}

	if err := r.Set(LeftBlend, 256); err != ErrOutOfRange {
		t.Errorf("Set(LeftBlend, 256) = %v, want ErrOutOfRange", err)
	}
	if v, _ := r.Get(LeftBlend); v != 200 {
		t.Errorf("rejected write changed LeftBlend to %d", v)
	}

	if err := r.Set(ReceiverSamples, 8); err != ErrOutOfRange {
		t.Errorf("even sample count accepted: %v", err)
	}
	if err := r.Set(EncoderFrames, 33); err != ErrOutOfRange {
		t.Errorf("oversized window accepted: %v", err)
	}
	if err := r.Set(NumParams, 1); err != ErrInvalidParam {
		t.Errorf("Set(NumParams) = %v, want ErrInvalidParam", err)
	}
}

func TestRecordAxisGetters(t *testing.T) {
	r := Defaults()
	_ = r.Set(RightKp, 512)
	_ = r.Set(ReverseRight, 1)

	if r.Kp(Right) != 512 || r.Kp(Left) != Params[LeftKp].Default {
		t.Errorf("Kp getters wrong: left=%d right=%d", r.Kp(Left), r.Kp(Right))
	}
	if !r.Reversed(Right) || r.Reversed(Left) {
		t.Error("Reversed getters wrong")
	}
}

func TestStoreRoundTrip(t *testing.T) {
	mem := NewMemoryNV(StoreSize + 16)
	store := NewStore(mem, 16)

	kicks := 0
	store.Kick = func() { kicks++ }

	rec := Defaults()
	_ = rec.Set(LeftKp, 300)
	_ = rec.Set(EncoderFrames, 16)

	if err := store.Save(rec); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, valid, err := store.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if valid != Copies {
		t.Errorf("expected %d valid copies, got %d", Copies, valid)
	}
	if got != rec {
		t.Errorf("Load returned %v, want %v", got, rec)
	}
	if kicks < 2*Copies {
		t.Errorf("watchdog kicked %d times, want at least %d", kicks, 2*Copies)
	}
}

func TestStoreSurvivesOneCorruptCopy(t *testing.T) {
	mem := NewMemoryNV(StoreSize)
	store := NewStore(mem, 0)

	rec := Defaults()
	_ = rec.Set(RightKi, 99)
	if err := store.Save(rec); err != nil {
		t.Fatal(err)
	}

	// Corrupt the middle copy.
	mem.Data[slotSize+3] ^= 0x5A

	got, valid, err := store.Load()
	if err != nil {
		t.Fatal(err)
	}
	if valid != 2 {
		t.Errorf("expected 2 valid copies, got %d", valid)
	}
	if got != rec {
		t.Errorf("vote did not recover record: got %v", got)
	}
}

func TestStoreBlankMemoryLoadsDefaults(t *testing.T) {
	store := NewStore(NewMemoryNV(StoreSize), 0)

	got, valid, err := store.Load()
	if err != nil {
		t.Fatal(err)
	}
	if valid != 0 {
		t.Errorf("blank memory reported %d valid copies", valid)
	}
	if got != Defaults() {
		t.Errorf("blank memory loaded %v, want defaults", got)
	}
}

func TestProfileRoundTrip(t *testing.T) {
	doc := []byte(`{
		"left":  {"kp": 1.5, "ki": 0.25, "kd": 0, "blend": 1.0},
		"right": {"kp": 2, "ki": 0.5, "kd": 0.125, "blend": 0, "reverse": true},
		"recv_samples": 9
	}`)

	p, err := LoadProfile(doc)
	if err != nil {
		t.Fatalf("LoadProfile failed: %v", err)
	}
	if p.EncoderFrames != int(Params[EncoderFrames].Default) {
		t.Errorf("default enc_frames not applied: %d", p.EncoderFrames)
	}

	r, err := p.Record()
	if err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if r.Kp(Left) != 384 || r.Ki(Left) != 64 || r.Blend(Left) != 255 {
		t.Errorf("left axis scaled wrong: kp=%d ki=%d blend=%d", r.Kp(Left), r.Ki(Left), r.Blend(Left))
	}
	if r.Kd(Right) != 32 || !r.Reversed(Right) {
		t.Errorf("right axis scaled wrong: kd=%d reversed=%v", r.Kd(Right), r.Reversed(Right))
	}
	if r.ReceiverSamples() != 9 || r.EncoderScale() != 256 {
		t.Errorf("window settings wrong: samples=%d scale=%d", r.ReceiverSamples(), r.EncoderScale())
	}

	back := ProfileFromRecord(r)
	if back.Left.Kp != 1.5 || back.Right.Kd != 0.125 {
		t.Errorf("ProfileFromRecord lost precision: %+v", back)
	}
}

func TestProfileRejectsEvenSamples(t *testing.T) {
	p := DefaultProfile()
	p.ReceiverSamples = 4
	if _, err := p.Record(); err != ErrOutOfRange {
		t.Errorf("expected ErrOutOfRange, got %v", err)
	}
}

func TestToRawRejectsInsteadOfClamping(t *testing.T) {
	kp := Params[LeftKp]
	blend := Params[LeftBlend]

	testCases := []struct {
		name    string
		p       Param
		display float64
		want    int16
		wantErr bool
	}{
		{"kp in range", kp, 1.5, 384, false},
		{"kp at the top", kp, 127.99, 32765, false},
		{"kp too large", kp, 200, 0, true},
		{"kp too negative", kp, -129, 0, true},
		{"blend full", blend, 1.0, 255, false},
		{"blend above one", blend, 1.01, 0, true},
		{"not a number", kp, math.NaN(), 0, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ToRaw(tc.p, tc.display)
			if tc.wantErr {
				if err != ErrOutOfRange {
					t.Errorf("ToRaw(%g) = %d, %v; want ErrOutOfRange", tc.display, got, err)
				}
				return
			}
			if err != nil || got != tc.want {
				t.Errorf("ToRaw(%g) = %d, %v; want %d", tc.display, got, err, tc.want)
			}
		})
	}
}

func TestProfileRejectsOversizedGain(t *testing.T) {
	p := DefaultProfile()
	p.Right.Kp = 300
	if _, err := p.Record(); err != ErrOutOfRange {
		t.Errorf("Record() with kp 300 = %v, want ErrOutOfRange", err)
	}
}
