package color

import "math"

// ToneZone is one RGBM (red/green/blue/master) control point of a
// ToneCurves grade, plus the Start/Width that places Shadows and
// Highlights along the pivot-centered tone axis (Blacks, Midtones and
// Whites sit at fixed positions: 0, Pivot, 1). A zone's effective gain
// on a channel is Master*channel; leaving a channel at 1 makes Master
// the only control, matching the common single-knob workflow.
type ToneZone struct {
	Red, Green, Blue, Master float32
	Start, Width             float32
}

// IdentityZone returns a zone that contributes no gain.
func IdentityZone() ToneZone { return ToneZone{Red: 1, Green: 1, Blue: 1, Master: 1} }

func (z ToneZone) channelGain(ch int) float32 {
	switch ch {
	case 0:
		return z.Master * z.Red
	case 1:
		return z.Master * z.Green
	default:
		return z.Master * z.Blue
	}
}

// ToneCurves is a five-zone tonal grade (blacks/shadows/midtones/
// highlights/whites) plus an overall contrast pivot, evaluated in
// normalized [0,1]-ish working space. The five zones become six
// control points of a quadratic spline (Midtones is entered twice, at
// Pivot, which pins the spline there — a midtone-only adjustment
// reshapes its own neighborhood without tilting the curve's area on
// either side) and S-Contrast reshapes around Pivot with a quadratic
// segment on each side rather than a single linear slope.
type ToneCurves struct {
	Blacks     ToneZone
	Shadows    ToneZone
	Midtones   ToneZone
	Highlights ToneZone
	Whites     ToneZone
	SContrast  float32
	Pivot      float32
}

// IdentityToneCurves returns a ToneCurves grade that leaves pixels
// unchanged.
func IdentityToneCurves() *ToneCurves {
	return &ToneCurves{
		Blacks:     IdentityZone(),
		Shadows:    ToneZone{Red: 1, Green: 1, Blue: 1, Master: 1, Width: 0.25},
		Midtones:   IdentityZone(),
		Highlights: ToneZone{Red: 1, Green: 1, Blue: 1, Master: 1, Width: 0.25},
		Whites:     IdentityZone(),
		SContrast:  1,
		Pivot:      0.5,
	}
}

func log2f(v float32) float32 {
	if v <= 0 {
		v = 1e-6
	}
	return float32(math.Log2(float64(v)))
}

func pow2f(v float32) float32 {
	return float32(math.Pow(2, float64(v)))
}

func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// bezier2 evaluates a quadratic Bezier segment with control points
// p0/p1/p2 at parameter t in [0,1].
func bezier2(t, p0, p1, p2 float32) float32 {
	u := 1 - t
	return u*u*p0 + 2*u*t*p1 + t*t*p2
}

// zoneKnots returns the six control-point x positions and channel-ch
// log2-gain values that zoneGain's spline blends between: Blacks at
// 0, Shadows pulled in from Pivot by its Start+Width, Midtones
// duplicated at Pivot itself, Highlights pushed out from Pivot, and
// Whites at 1.
func (t *ToneCurves) zoneKnots(ch int) (x, g [6]float32) {
	pivot := t.Pivot
	x[0] = 0
	x[1] = clamp01(pivot - (t.Shadows.Start + t.Shadows.Width))
	x[2] = pivot
	x[3] = pivot
	x[4] = clamp01(pivot + t.Highlights.Start + t.Highlights.Width)
	x[5] = 1

	g[0] = log2f(t.Blacks.channelGain(ch))
	g[1] = log2f(t.Shadows.channelGain(ch))
	g[2] = log2f(t.Midtones.channelGain(ch))
	g[3] = g[2]
	g[4] = log2f(t.Highlights.channelGain(ch))
	g[5] = log2f(t.Whites.channelGain(ch))
	return x, g
}

// zoneGain evaluates the five-zone log2-gain spline for channel ch at
// tone value v. The six zoneKnots control points are turned into a
// quadratic B-spline the way an on-curve/off-curve outline spline is
// built (as in TrueType glyph contours): each control point that
// isn't an endpoint becomes the off-curve point of a Bezier segment
// between the midpoints of its neighbors, giving a curve that passes
// through those midpoints with matching slope either side — C1
// continuous, unlike a weighted average of independent windows.
func (t *ToneCurves) zoneGain(v float32, ch int) float32 {
	x, g := t.zoneKnots(ch)

	ax := [5]float32{x[0], (x[1] + x[2]) / 2, (x[2] + x[3]) / 2, (x[3] + x[4]) / 2, x[5]}
	ay := [5]float32{g[0], (g[1] + g[2]) / 2, (g[2] + g[3]) / 2, (g[3] + g[4]) / 2, g[5]}
	ctrl := [4]float32{g[1], g[2], g[3], g[4]}

	if v <= ax[0] {
		return pow2f(ay[0])
	}
	if v >= ax[4] {
		return pow2f(ay[4])
	}
	for i := 0; i < 4; i++ {
		x0, x1 := ax[i], ax[i+1]
		if v < x0 || v > x1 {
			continue
		}
		if x1-x0 < 1e-6 {
			return pow2f(ay[i])
		}
		frac := clamp01((v - x0) / (x1 - x0))
		return pow2f(bezier2(frac, ay[i], ctrl[i], ay[i+1]))
	}
	return pow2f(ay[4])
}

// applyContrast reshapes v around Pivot with a quadratic Bezier
// segment on each side of the pivot (matching slope SContrast at the
// pivot, easing toward 0/1 past it) instead of a single linear slope,
// so strong settings curve into black/white rather than clipping hard.
func (t *ToneCurves) applyContrast(v float32) float32 {
	pivot, s := t.Pivot, t.SContrast
	if v >= pivot {
		span := 1 - pivot
		if span <= 0 {
			return v
		}
		frac := clamp01((v - pivot) / span)
		ctrl := pivot + 0.5*span*s
		end := float32(1)
		return bezier2(frac, pivot, ctrl, end)
	}
	span := pivot
	if span <= 0 {
		return v
	}
	frac := clamp01((pivot - v) / span)
	ctrl := pivot - 0.5*span*s
	end := float32(0)
	return bezier2(frac, pivot, ctrl, end)
}

func (t *ToneCurves) forwardChannel(v float32, ch int) float32 {
	gain := t.zoneGain(v, ch)
	return t.applyContrast(v * gain)
}

// Apply grades an RGB triple: a per-channel zone-spline gain followed
// by the overall contrast pivot.
func (t *ToneCurves) Apply(rgb [3]float32) [3]float32 {
	var out [3]float32
	for ch := 0; ch < 3; ch++ {
		out[ch] = t.forwardChannel(rgb[ch], ch)
	}
	return out
}

// ApplyInverse undoes Apply. Because the zone gain is itself a
// function of the (pre-grade) input, it has no closed-form inverse
// once composed with the contrast stage, so each channel is inverted
// by damped Newton-Raphson against the forward function — the same
// 8-iteration convention used for the hue curve inverses.
func (t *ToneCurves) ApplyInverse(rgb [3]float32) [3]float32 {
	var out [3]float32
	for ch := 0; ch < 3; ch++ {
		target := rgb[ch]
		x := target
		for i := 0; i < 8; i++ {
			y := t.forwardChannel(x, ch)
			errv := y - target
			if abs32(errv) < 1e-6 {
				break
			}
			const dx = 0.001
			deriv := (t.forwardChannel(x+dx, ch) - y) / dx
			if abs32(deriv) > 1e-6 {
				x -= errv / deriv
			} else {
				x -= errv * 0.5
			}
		}
		out[ch] = x
	}
	return out
}
