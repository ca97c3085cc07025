package color

// HSY is an invertible hue/saturation/luminance space used by
// HueCurves: hue and saturation behave like HSV's (so curve knots at
// saturation 0/1 keep their usual meaning), while Y is a Rec.709 luma
// so grading against luminance tracks how bright a pixel reads on a
// display. Saturation is recovered as chroma relative to the maximum
// channel (HSV-style) rather than OCIO's own HSY derivation, which
// keeps the forward/inverse pair exact without needing the reference
// library's per-style basis change.
func rgbToHSY(rgb [3]float32) [3]float32 {
	r, g, b := rgb[0], rgb[1], rgb[2]
	maxc := maxf(r, maxf(g, b))
	minc := minf(r, minf(g, b))
	chroma := maxc - minc

	var hue float32
	switch {
	case chroma < 1e-8:
		hue = 0
	case maxc == r:
		hue = wrap01((g - b) / chroma / 6)
	case maxc == g:
		hue = (b-r)/chroma/6 + 1.0/3.0
	default:
		hue = (r-g)/chroma/6 + 2.0/3.0
	}
	hue = wrap01(hue)

	var sat float32
	if maxc > 1e-8 {
		sat = chroma / maxc
	}

	y := 0.2126*r + 0.7152*g + 0.0722*b
	return [3]float32{hue, sat, y}
}

// hsyToRGB inverts rgbToHSY: it reconstructs a base color with the
// given hue/saturation at unit maximum (HSV-style), then scales it
// uniformly so its Rec.709 luma matches the target Y — a uniform
// scale changes luma linearly while leaving hue and the chroma/max
// ratio (saturation) unchanged.
func hsyToRGB(hsy [3]float32) [3]float32 {
	hue, sat, y := wrap01(hsy[0]), hsy[1], hsy[2]
	base := hsvBase(hue, sat)
	baseY := 0.2126*base[0] + 0.7152*base[1] + 0.0722*base[2]
	if abs32(baseY) < 1e-8 {
		return [3]float32{y, y, y}
	}
	k := y / baseY
	return [3]float32{base[0] * k, base[1] * k, base[2] * k}
}

// hsvBase returns an RGB triple with max component 1 and the given
// hue/saturation, per the standard HSV sector construction.
func hsvBase(hue, sat float32) [3]float32 {
	h6 := hue * 6
	sector := int(h6) % 6
	f := h6 - float32(int(h6))

	p := 1 - sat
	q := 1 - sat*f
	t := 1 - sat*(1-f)

	switch sector {
	case 0:
		return [3]float32{1, t, p}
	case 1:
		return [3]float32{q, 1, p}
	case 2:
		return [3]float32{p, 1, t}
	case 3:
		return [3]float32{p, q, 1}
	case 4:
		return [3]float32{t, p, 1}
	default:
		return [3]float32{1, p, q}
	}
}

func maxf(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}

func minf(a, b float32) float32 {
	if a < b {
		return a
	}
	return b
}
