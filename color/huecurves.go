package color

import "math"

// HueCurveType selects one of the eight curves that make up a
// HueCurves grade.
type HueCurveType int

const (
	HueHue HueCurveType = iota
	HueSat
	HueLum
	LumSat
	SatSat
	LumLum
	SatLum
	HueFx
)

// HueCurveCount is the number of distinct curve slots in HueCurves.
const HueCurveCount = 8

// GradingStyle selects how HueCurves treats its luminance channel:
// Log runs the curves directly against rgbToHSY's Y (the default, and
// the only one this package's single HSY derivation models exactly),
// Linear pre/post-transforms Y through lin_to_log/log_to_lin since the
// curves are authored against log-encoded values and applies the
// final luminance gain multiplicatively, and Video applies that same
// gain additively for display-referred footage.
type GradingStyle int

const (
	GradingStyleLog GradingStyle = iota
	GradingStyleLinear
	GradingStyleVideo
)

// Lin-Log constants for GradingStyleLinear, matching OCIO's
// LogLinConstants: below xbrk luminance maps linearly, above it
// logarithmically, so the curves (authored in log space) see a
// perceptually even input regardless of scene-linear exposure.
const (
	linLogXBrk  = 0.0041318374739483946
	linLogShift = -0.000157849851665374
	linLogM     = 1.0 / (0.18 + linLogShift)
	linLogGain  = 363.034608563
	linLogOffs  = -7.0
	linLogYBrk  = -5.5
	linLogBase2 = 1.4426950408889634 // 1/ln(2)
)

func linToLog(lum float32) float32 {
	if lum < linLogXBrk {
		return lum*linLogGain + linLogOffs
	}
	return linLogBase2 * float32(math.Log(float64((lum+linLogShift)*linLogM)))
}

func logToLin(lum float32) float32 {
	if lum < linLogYBrk {
		return (lum - linLogOffs) / linLogGain
	}
	return float32(math.Pow(2, float64(lum)))*(0.18+linLogShift) - linLogShift
}

// HueControlPoint is one knot of a HueCurve: X is the input position,
// Y is the output adjustment, with meaning depending on the curve's
// HueCurveType.
type HueControlPoint struct {
	X, Y float32
}

// HueCurve is a piecewise-linear curve over control points sorted by
// X. HueHue/HueSat/HueLum/HueFx wrap around (X==1.0 connects to
// X==0.0); the rest are plain open curves.
type HueCurve struct {
	Points []HueControlPoint
	Wraps  bool
}

// IdentityHueCurve returns a flat curve holding value at every point
// over [0,1], wrapping if wraps is true.
func IdentityHueCurve(value float32, wraps bool) HueCurve {
	return HueCurve{Points: []HueControlPoint{{0, value}, {1, value}}, Wraps: wraps}
}

// DiagonalHueCurve returns a wrap-around curve whose value equals its
// input at six evenly spaced hue positions (the HUE_HUE identity).
func DiagonalHueCurve() HueCurve {
	pts := make([]HueControlPoint, 0, 6)
	for i := 0; i < 6; i++ {
		h := float32(i) / 6
		pts = append(pts, HueControlPoint{h, h})
	}
	return HueCurve{Points: pts, Wraps: true}
}

// IsIdentity reports whether every control point's Y is within 1e-6
// of zero.
func (c HueCurve) IsIdentity() bool {
	for _, p := range c.Points {
		if abs32(p.Y) >= 1e-6 {
			return false
		}
	}
	return true
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}

func wrap01(x float32) float32 {
	y := float32(math.Mod(float64(x), 1.0))
	if y < 0 {
		y++
	}
	return y
}

// Evaluate interpolates the curve at x using piecewise-linear
// interpolation, wrapping x into [0,1) first when Wraps is set.
func (c HueCurve) Evaluate(x float32) float32 {
	n := len(c.Points)
	if n == 0 {
		return 0
	}
	if n == 1 {
		return c.Points[0].Y
	}

	h := x
	if c.Wraps {
		h = wrap01(x)
	}

	i1 := 0
	for i, p := range c.Points {
		if p.X > h {
			break
		}
		i1 = i
	}
	i2 := (i1 + 1) % n
	p1, p2 := c.Points[i1], c.Points[i2]

	x1, x2, target := p1.X, p2.X, h
	if c.Wraps && x2 < x1 {
		x2 += 1
		if target < x1 {
			target += 1
		}
	}
	span := x2 - x1
	if abs32(span) < 1e-6 {
		return p1.Y
	}
	t := (target - x1) / span
	return p1.Y + t*(p2.Y-p1.Y)
}

// evalRev inverts a non-periodic curve at target via damped
// Newton-Raphson, matching the pipeline's 8-iteration/finite-diff
// convention used elsewhere for curve inverses.
func evalRev(c HueCurve, target float32) float32 {
	x := target
	for i := 0; i < 8; i++ {
		y := c.Evaluate(x)
		errv := y - target
		if abs32(errv) < 1e-5 {
			break
		}
		const dx = 0.001
		deriv := (c.Evaluate(x+dx) - y) / dx
		if abs32(deriv) > 1e-6 {
			x -= errv / deriv
		} else {
			x -= errv * 0.5
		}
	}
	return x
}

// evalRevHue inverts a wrap-around curve at target, resolving the
// 1.0-periodic ambiguity by iterating on the shortest angular error.
func evalRevHue(c HueCurve, target float32) float32 {
	h := target
	for i := 0; i < 8; i++ {
		mapped := c.Evaluate(h)
		errv := wrap01(mapped - target)
		if errv > 0.5 {
			errv -= 1
		}
		if abs32(errv) < 1e-5 {
			break
		}
		h = wrap01(h - errv*0.5)
	}
	return h
}

// HueCurves is the full set of eight grading curves applied in HSY
// space: HueHue/HueSat/HueLum act on input hue, LumSat/LumLum on
// luminance, SatSat/SatLum on saturation, and HueFx shifts hue as a
// final pass.
type HueCurves struct {
	Style  GradingStyle
	HueHue HueCurve
	HueSat HueCurve
	HueLum HueCurve
	LumSat HueCurve
	SatSat HueCurve
	LumLum HueCurve
	SatLum HueCurve
	HueFx  HueCurve
}

// IdentityHueCurves returns a HueCurves where every curve is a no-op,
// using GradingStyleLog.
func IdentityHueCurves() *HueCurves {
	return IdentityHueCurvesStyle(GradingStyleLog)
}

// IdentityHueCurvesStyle is IdentityHueCurves with an explicit style.
func IdentityHueCurvesStyle(style GradingStyle) *HueCurves {
	return &HueCurves{
		Style:  style,
		HueHue: DiagonalHueCurve(),
		HueSat: IdentityHueCurve(1, true),
		HueLum: IdentityHueCurve(1, true),
		LumSat: HueCurve{Points: []HueControlPoint{{0, 1}, {0.5, 1}, {1, 1}}},
		SatSat: HueCurve{Points: []HueControlPoint{{0, 0}, {0.5, 0.5}, {1, 1}}},
		LumLum: HueCurve{Points: []HueControlPoint{{0, 0}, {0.5, 0.5}, {1, 1}}},
		SatLum: HueCurve{Points: []HueControlPoint{{0, 1}, {0.5, 1}, {1, 1}}},
		HueFx:  IdentityHueCurve(0, true),
	}
}

// IsIdentity reports whether every curve in the set is a no-op.
func (h *HueCurves) IsIdentity() bool {
	return isHueSatDiag(h.HueHue) &&
		isHorizontal(h.HueSat, 1) &&
		isHorizontal(h.HueLum, 1) &&
		isHorizontal(h.LumSat, 1) &&
		isHueSatDiag(h.SatSat) &&
		isHueSatDiag(h.LumLum) &&
		isHorizontal(h.SatLum, 1) &&
		isHorizontal(h.HueFx, 0)
}

func isHueSatDiag(c HueCurve) bool {
	for _, p := range c.Points {
		if abs32(p.Y-p.X) >= 1e-6 {
			return false
		}
	}
	return true
}

func isHorizontal(c HueCurve, target float32) bool {
	for _, p := range c.Points {
		if abs32(p.Y-target) >= 1e-6 {
			return false
		}
	}
	return true
}

func max0(v float32) float32 {
	if v < 0 {
		return 0
	}
	return v
}

func min1(v float32) float32 {
	if v > 1 {
		return 1
	}
	return v
}

// Apply grades an RGB triple by converting to HSY, running each curve
// in the forward order (hue map, then saturation map, then
// hue/lum-driven saturation gain, then luminance map followed by the
// saturation-driven luminance gain, then final hue-fx shift), and
// converting back.
func (h *HueCurves) Apply(rgb [3]float32) [3]float32 {
	if h.IsIdentity() {
		return rgb
	}

	hsy := rgbToHSY(rgb)
	isLinear := h.Style == GradingStyleLinear
	if isLinear {
		hsy[2] = linToLog(hsy[2])
	}

	hueSatGain := max0(h.HueSat.Evaluate(hsy[0]))
	hueLumGainRaw := max0(h.HueLum.Evaluate(hsy[0]))

	hsy[0] = h.HueHue.Evaluate(hsy[0])
	hsy[1] = max0(h.SatSat.Evaluate(hsy[1]))

	lumSatGain := max0(h.LumSat.Evaluate(hsy[2]))
	satGain := lumSatGain * hueSatGain
	hsy[1] *= satGain

	satLumGain := max0(h.SatLum.Evaluate(hsy[1]))
	hsy[2] = h.LumLum.Evaluate(hsy[2])

	if isLinear {
		hsy[2] = logToLin(hsy[2])
	}

	hueLumGain := 1 - (1-hueLumGainRaw)*min1(hsy[1])
	if isLinear {
		hsy[2] *= hueLumGain * satLumGain
	} else {
		hsy[2] += (hueLumGain + satLumGain - 2) * 0.1
	}

	hsy[0] = wrap01(hsy[0])
	hsy[0] += h.HueFx.Evaluate(hsy[0])

	return hsyToRGB(hsy)
}

// ApplyInverse approximately undoes Apply, inverting each monotone
// stage via Newton-Raphson where a closed form isn't available.
func (h *HueCurves) ApplyInverse(rgb [3]float32) [3]float32 {
	if h.IsIdentity() {
		return rgb
	}

	hsy := rgbToHSY(rgb)
	isLinear := h.Style == GradingStyleLinear

	hsy[0] = evalRevHue(h.HueFx, hsy[0])
	hsy[0] = evalRevHue(h.HueHue, hsy[0])
	hsy[0] = wrap01(hsy[0])

	hueSatGain := max0(h.HueSat.Evaluate(hsy[0]))
	hueLumGainRaw := max0(h.HueLum.Evaluate(hsy[0]))

	hsy[1] = max0(hsy[1])
	satLumGain := max0(h.SatLum.Evaluate(hsy[1]))
	hueLumGain := 1 - (1-hueLumGainRaw)*min1(hsy[1])

	lumGain := hueLumGain * satLumGain
	if isLinear {
		if abs32(lumGain) > 0.01 {
			hsy[2] /= lumGain
		} else {
			hsy[2] /= 0.01
		}
		hsy[2] = linToLog(hsy[2])
	} else {
		hsy[2] -= (hueLumGain + satLumGain - 2) * 0.1
	}

	hsy[2] = evalRev(h.LumLum, hsy[2])
	lumSatGain := max0(h.LumSat.Evaluate(hsy[2]))

	if isLinear {
		hsy[2] = logToLin(hsy[2])
	}

	satGain := lumSatGain * hueSatGain
	if abs32(satGain) > 0.01 {
		hsy[1] /= satGain
	} else {
		hsy[1] /= 0.01
	}
	hsy[1] = max0(evalRev(h.SatSat, hsy[1]))

	return hsyToRGB(hsy)
}
