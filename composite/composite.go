// Package composite implements Porter-Duff alpha compositing and
// Photoshop-style blend modes over RGBA f32 pixel buffers, plus the
// premultiply/unpremultiply conversions compositing depends on.
package composite

import (
	"fmt"
	"math"
)

// alphaEpsilon is the cutoff below which an output alpha is treated as
// fully transparent, avoiding a division blow-up in the un-premultiply.
const alphaEpsilon = 1e-8

// Pixel is a straight-alpha or premultiplied RGBA value, depending on
// the calling convention of the function that produced it.
type Pixel [4]float32

// Over composites fg over bg (Porter-Duff "A over B"):
// outA = fgA + bgA*(1-fgA), straight-alpha RGB unpremultiplied by outA.
func Over(fg, bg Pixel) Pixel {
	fgA, bgA := fg[3], bg[3]
	outA := fgA + bgA*(1-fgA)
	if outA < alphaEpsilon {
		return Pixel{}
	}
	invOutA := 1 / outA
	return Pixel{
		(fg[0]*fgA + bg[0]*bgA*(1-fgA)) * invOutA,
		(fg[1]*fgA + bg[1]*bgA*(1-fgA)) * invOutA,
		(fg[2]*fgA + bg[2]*bgA*(1-fgA)) * invOutA,
		outA,
	}
}

// Under composites fg under bg; equivalent to Over(bg, fg).
func Under(fg, bg Pixel) Pixel {
	return Over(bg, fg)
}

// Atop places fg only where bg is visible: fg*bgA + bg*(1-fgA),
// keeping bg's alpha.
func Atop(fg, bg Pixel) Pixel {
	fgA, bgA := fg[3], bg[3]
	return Pixel{
		fg[0]*bgA + bg[0]*(1-fgA),
		fg[1]*bgA + bg[1]*(1-fgA),
		fg[2]*bgA + bg[2]*(1-fgA),
		bgA,
	}
}

// Inside shows fg only where bg is visible: fg*bgA.
func Inside(fg, bg Pixel) Pixel {
	bgA := bg[3]
	return Pixel{fg[0] * bgA, fg[1] * bgA, fg[2] * bgA, fg[3] * bgA}
}

// Outside shows fg only where bg is transparent: fg*(1-bgA).
func Outside(fg, bg Pixel) Pixel {
	inv := 1 - bg[3]
	return Pixel{fg[0] * inv, fg[1] * inv, fg[2] * inv, fg[3] * inv}
}

// BlendMode selects a Photoshop-style RGB blend function for Blend.
type BlendMode int

const (
	Normal BlendMode = iota
	Multiply
	Screen
	Add
	Subtract
	Overlay
	SoftLight
	HardLight
	Difference
	Exclusion
)

func (m BlendMode) String() string {
	switch m {
	case Normal:
		return "Normal"
	case Multiply:
		return "Multiply"
	case Screen:
		return "Screen"
	case Add:
		return "Add"
	case Subtract:
		return "Subtract"
	case Overlay:
		return "Overlay"
	case SoftLight:
		return "SoftLight"
	case HardLight:
		return "HardLight"
	case Difference:
		return "Difference"
	case Exclusion:
		return "Exclusion"
	default:
		return "Unknown"
	}
}

// Blend applies mode per RGB channel between a and b, keeping a's
// alpha untouched — mirrors each blend mode's standard two-operand
// formula (a is the top/foreground layer).
func Blend(a, b Pixel, mode BlendMode) Pixel {
	f := blendFunc(mode)
	return Pixel{f(a[0], b[0]), f(a[1], b[1]), f(a[2], b[2]), a[3]}
}

func blendFunc(mode BlendMode) func(av, bv float32) float32 {
	switch mode {
	case Multiply:
		return func(av, bv float32) float32 { return av * bv }
	case Screen:
		return func(av, bv float32) float32 { return 1 - (1-av)*(1-bv) }
	case Add:
		return func(av, bv float32) float32 {
			s := av + bv
			if s > 1 {
				return 1
			}
			return s
		}
	case Subtract:
		return func(av, bv float32) float32 {
			d := bv - av
			if d < 0 {
				return 0
			}
			return d
		}
	case Overlay:
		return hardOrOverlay
	case HardLight:
		return func(av, bv float32) float32 { return hardOrOverlay(bv, av) }
	case SoftLight:
		return softLight
	case Difference:
		return func(av, bv float32) float32 {
			d := av - bv
			if d < 0 {
				return -d
			}
			return d
		}
	case Exclusion:
		return func(av, bv float32) float32 { return av + bv - 2*av*bv }
	default: // Normal
		return func(av, bv float32) float32 { return av }
	}
}

func hardOrOverlay(av, bv float32) float32 {
	if bv < 0.5 {
		return 2 * av * bv
	}
	return 1 - 2*(1-av)*(1-bv)
}

func softLight(av, bv float32) float32 {
	if av < 0.5 {
		return bv - (1-2*av)*bv*(1-bv)
	}
	var d float32
	if bv < 0.25 {
		d = ((16*bv-12)*bv + 4) * bv
	} else {
		d = float32(math.Sqrt(float64(bv)))
	}
	return bv + (2*av-1)*(d-bv)
}

// Premultiply converts straight-alpha RGB to premultiplied: RGB *= A.
func Premultiply(p Pixel) Pixel {
	a := p[3]
	return Pixel{p[0] * a, p[1] * a, p[2] * a, a}
}

// Unpremultiply converts premultiplied RGB back to straight alpha:
// RGB /= A, or transparent black when A is below alphaEpsilon.
func Unpremultiply(p Pixel) Pixel {
	a := p[3]
	if a < alphaEpsilon {
		return Pixel{}
	}
	inv := 1 / a
	return Pixel{p[0] * inv, p[1] * inv, p[2] * inv, a}
}

func checkSize(name string, data []float32, width, height int) error {
	expected := width * height * 4
	if len(data) != expected {
		return fmt.Errorf("composite: %s expected %d values for %dx%d RGBA, got %d", name, expected, width, height, len(data))
	}
	return nil
}

// OverImage composites fg over bg across a whole RGBA f32 buffer.
func OverImage(fg, bg []float32, width, height int) ([]float32, error) {
	if err := checkSize("fg", fg, width, height); err != nil {
		return nil, err
	}
	if err := checkSize("bg", bg, width, height); err != nil {
		return nil, err
	}
	out := make([]float32, len(fg))
	for i := 0; i < width*height; i++ {
		idx := i * 4
		r := Over(Pixel{fg[idx], fg[idx+1], fg[idx+2], fg[idx+3]}, Pixel{bg[idx], bg[idx+1], bg[idx+2], bg[idx+3]})
		copy(out[idx:idx+4], r[:])
	}
	return out, nil
}

// BlendImage blends a and b across a whole RGBA f32 buffer using mode.
func BlendImage(a, b []float32, width, height int, mode BlendMode) ([]float32, error) {
	if err := checkSize("a", a, width, height); err != nil {
		return nil, err
	}
	if err := checkSize("b", b, width, height); err != nil {
		return nil, err
	}
	out := make([]float32, len(a))
	for i := 0; i < width*height; i++ {
		idx := i * 4
		r := Blend(Pixel{a[idx], a[idx+1], a[idx+2], a[idx+3]}, Pixel{b[idx], b[idx+1], b[idx+2], b[idx+3]}, mode)
		copy(out[idx:idx+4], r[:])
	}
	return out, nil
}

// PremultiplyInPlace premultiplies alpha for an entire RGBA buffer.
func PremultiplyInPlace(data []float32) {
	for i := 0; i+3 < len(data); i += 4 {
		a := data[i+3]
		data[i] *= a
		data[i+1] *= a
		data[i+2] *= a
	}
}

// UnpremultiplyInPlace unpremultiplies alpha for an entire RGBA buffer.
func UnpremultiplyInPlace(data []float32) {
	for i := 0; i+3 < len(data); i += 4 {
		a := data[i+3]
		if a > alphaEpsilon {
			inv := 1 / a
			data[i] *= inv
			data[i+1] *= inv
			data[i+2] *= inv
		} else {
			data[i] = 0
			data[i+1] = 0
			data[i+2] = 0
		}
	}
}
