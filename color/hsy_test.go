package color

import "testing"

func TestHSYRoundTripGray(t *testing.T) {
	for _, v := range []float32{0.0, 0.1, 0.5, 0.9} {
		in := [3]float32{v, v, v}
		hsy := rgbToHSY(in)
		out := hsyToRGB(hsy)
		if !approxVec(out, in, 1e-4) {
			t.Errorf("gray round-trip(%v): hsy=%v out=%v", in, hsy, out)
		}
	}
}

func TestHSYRoundTripColor(t *testing.T) {
	colors := [][3]float32{
		{0.8, 0.2, 0.1},
		{0.1, 0.7, 0.3},
		{0.2, 0.3, 0.9},
	}
	for _, in := range colors {
		out := hsyToRGB(rgbToHSY(in))
		if !approxVec(out, in, 1e-4) {
			t.Errorf("round-trip(%v) = %v", in, out)
		}
	}
}

func TestHSYBlackIsZeroSaturation(t *testing.T) {
	hsy := rgbToHSY([3]float32{0, 0, 0})
	if hsy[1] != 0 {
		t.Errorf("saturation of black = %v, want 0", hsy[1])
	}
	if hsy[2] != 0 {
		t.Errorf("luma of black = %v, want 0", hsy[2])
	}
}
