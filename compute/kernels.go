package compute

import "math"

// Buffer is a row-major, channel-interleaved f32 pixel buffer together
// with its shape. It is the CPU reference representation the engine's
// other backends are measured against.
type Buffer struct {
	Data     []float32
	Width    uint32
	Height   uint32
	Channels uint32
}

// NewBuffer allocates a zeroed buffer of the given shape.
func NewBuffer(width, height, channels uint32) Buffer {
	return Buffer{
		Data:     make([]float32, uint64(width)*uint64(height)*uint64(channels)),
		Width:    width,
		Height:   height,
		Channels: channels,
	}
}

func at(b Buffer, x, y, ch uint32) float32 {
	return b.Data[(uint64(y)*uint64(b.Width)+uint64(x))*uint64(b.Channels)+uint64(ch)]
}

// ExecMatrix applies a row-major 4x4 matrix to src, writing into dst.
// Alpha is read as 1.0 when the source has fewer than 4 channels and
// passed through unmodified when dst has 4 channels and only the 3x3
// block (indices 0,1,2,4,5,6,8,9,10) is non-identity on the last row.
func ExecMatrix(src Buffer, dst *Buffer, matrix [16]float32) {
	c := int(src.Channels)
	w := int(src.Width)
	parallelRows(int(src.Height), func(y0, y1 int) {
		for i := y0 * w; i < y1*w; i++ {
			base := i * c
			r, g, b, a := float32(0), float32(0), float32(0), float32(1)
			if c > 0 {
				r = src.Data[base]
			}
			if c > 1 {
				g = src.Data[base+1]
			}
			if c > 2 {
				b = src.Data[base+2]
			}
			if c > 3 {
				a = src.Data[base+3]
			}

			dst.Data[base] = matrix[0]*r + matrix[1]*g + matrix[2]*b + matrix[3]*a
			if c > 1 {
				dst.Data[base+1] = matrix[4]*r + matrix[5]*g + matrix[6]*b + matrix[7]*a
			}
			if c > 2 {
				dst.Data[base+2] = matrix[8]*r + matrix[9]*g + matrix[10]*b + matrix[11]*a
			}
			if c > 3 {
				dst.Data[base+3] = matrix[12]*r + matrix[13]*g + matrix[14]*b + matrix[15]*a
			}
		}
	})
}

// Matrix3x3To4x4 embeds a 3x3 row-major matrix into the top-left of a
// 4x4 matrix, leaving alpha as an identity pass-through.
func Matrix3x3To4x4(m [9]float32) [16]float32 {
	return [16]float32{
		m[0], m[1], m[2], 0,
		m[3], m[4], m[5], 0,
		m[6], m[7], m[8], 0,
		0, 0, 0, 1,
	}
}

// ExecCDL applies an ASC-CDL transform: out = max(0, in*slope+offset)^power
// per channel, then saturation around Rec.709 luma when sat != 1. The
// positive-before-power clamp is mandatory — without it, a negative base
// raised to a non-integer power is not a real number.
func ExecCDL(src Buffer, dst *Buffer, slope, offset, power [3]float32, sat float32) {
	c := int(src.Channels)
	w := int(src.Width)
	parallelRows(int(src.Height), func(y0, y1 int) {
		for i := y0 * w; i < y1*w; i++ {
			base := i * c
			r := clampPow(src.Data[base]*slope[0]+offset[0], power[0])
			g, b := float32(0), float32(0)
			if c > 1 {
				g = clampPow(src.Data[base+1]*slope[1]+offset[1], power[1])
			}
			if c > 2 {
				b = clampPow(src.Data[base+2]*slope[2]+offset[2], power[2])
			}

			if sat != 1.0 {
				luma := 0.2126*r + 0.7152*g + 0.0722*b
				r = luma + sat*(r-luma)
				g = luma + sat*(g-luma)
				b = luma + sat*(b-luma)
			}

			dst.Data[base] = r
			if c > 1 {
				dst.Data[base+1] = g
			}
			if c > 2 {
				dst.Data[base+2] = b
			}
			if c > 3 {
				dst.Data[base+3] = src.Data[base+3]
			}
		}
	})
}

func clampPow(x float32, power float32) float32 {
	if x < 0 {
		x = 0
	}
	return float32(math.Pow(float64(x), float64(power)))
}

// ExecLUT1D evaluates a 1D lookup table by linear interpolation. lut is
// flat, laid out [entry][lutChannels]; lutChannels of 1 means a mono LUT
// shared across R/G/B, 3 means a per-channel RGB LUT.
func ExecLUT1D(src Buffer, dst *Buffer, lut []float32, lutChannels uint32) {
	c := int(src.Channels)
	w := int(src.Width)
	size := len(lut) / int(lutChannels)
	scale := float32(size - 1)

	limit := c
	if int(lutChannels) < limit {
		limit = int(lutChannels)
	}

	parallelRows(int(src.Height), func(y0, y1 int) {
		for i := y0 * w; i < y1*w; i++ {
			base := i * c
			for ch := 0; ch < limit; ch++ {
				v := clamp01(src.Data[base+ch]) * scale
				i0 := int(v)
				if i0 > size-1 {
					i0 = size - 1
				}
				i1 := i0 + 1
				if i1 > size-1 {
					i1 = size - 1
				}
				f := v - float32(i0)
				v0 := lut[i0*int(lutChannels)+ch]
				v1 := lut[i1*int(lutChannels)+ch]
				dst.Data[base+ch] = v0 + f*(v1-v0)
			}
			if c > 3 && int(lutChannels) < 4 {
				dst.Data[base+3] = src.Data[base+3]
			}
		}
	})
}

func clamp01(x float32) float32 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}

// LUT3DInterp selects trilinear (default) or tetrahedral interpolation
// for ExecLUT3D.
type LUT3DInterp int

const (
	LUT3DTrilinear LUT3DInterp = iota
	LUT3DTetrahedral
)

// lut3DIndex returns channel ch of entry (r,g,b) in a blue-major cube
// of the given size, read at index (b*size*size + g*size + r)*3 + ch.
func lut3DIndex(lut []float32, size, r, g, b, ch int) float32 {
	return lut[(b*size*size+g*size+r)*3+ch]
}

// ExecLUT3D evaluates a cube LUT. domainMin/domainMax shift and scale
// the input into [0,1] before lookup; pass {0,0,0},{1,1,1} for no
// remapping.
func ExecLUT3D(src Buffer, dst *Buffer, lut []float32, size uint32, interp LUT3DInterp, domainMin, domainMax [3]float32) {
	c := int(src.Channels)
	w := int(src.Width)
	s := int(size)
	scale := float32(s - 1)

	parallelRows(int(src.Height), func(y0, y1 int) {
		for i := y0 * w; i < y1*w; i++ {
			base := i * c
			r := normalizeDomain(src.Data[base], domainMin[0], domainMax[0])
			g := normalizeDomain(src.Data[base+1], domainMin[1], domainMax[1])
			b := normalizeDomain(src.Data[base+2], domainMin[2], domainMax[2])

			var out [3]float32
			switch interp {
			case LUT3DTetrahedral:
				out = tetrahedralLookup(lut, s, r, g, b, scale)
			default:
				out = trilinearLookup(lut, s, r, g, b, scale)
			}
			dst.Data[base] = out[0]
			dst.Data[base+1] = out[1]
			dst.Data[base+2] = out[2]
			if c > 3 {
				dst.Data[base+3] = src.Data[base+3]
			}
		}
	})
}

func normalizeDomain(v, lo, hi float32) float32 {
	if hi == lo {
		return clamp01(v)
	}
	return clamp01((v - lo) / (hi - lo))
}

func trilinearLookup(lut []float32, s int, r, g, b, scale float32) [3]float32 {
	rf := r * scale
	gf := g * scale
	bf := b * scale

	r0, g0, b0 := clampIdx(int(rf), s), clampIdx(int(gf), s), clampIdx(int(bf), s)
	r1, g1, b1 := clampIdx(r0+1, s), clampIdx(g0+1, s), clampIdx(b0+1, s)

	fr := rf - float32(r0)
	fg := gf - float32(g0)
	fb := bf - float32(b0)

	var out [3]float32
	for ch := 0; ch < 3; ch++ {
		c000 := lut3DIndex(lut, s, r0, g0, b0, ch)
		c100 := lut3DIndex(lut, s, r1, g0, b0, ch)
		c010 := lut3DIndex(lut, s, r0, g1, b0, ch)
		c110 := lut3DIndex(lut, s, r1, g1, b0, ch)
		c001 := lut3DIndex(lut, s, r0, g0, b1, ch)
		c101 := lut3DIndex(lut, s, r1, g0, b1, ch)
		c011 := lut3DIndex(lut, s, r0, g1, b1, ch)
		c111 := lut3DIndex(lut, s, r1, g1, b1, ch)

		c00 := c000 + fr*(c100-c000)
		c10 := c010 + fr*(c110-c010)
		c01 := c001 + fr*(c101-c001)
		c11 := c011 + fr*(c111-c011)

		c0 := c00 + fg*(c10-c00)
		c1 := c01 + fg*(c11-c01)

		out[ch] = c0 + fb*(c1-c0)
	}
	return out
}

// tetrahedralLookup picks one of six simplices spanning the unit cube
// based on the ordering of the fractional coordinates, giving a higher
// quality (C1-continuous across cube faces) interpolation than
// trilinear at the same LUT resolution.
func tetrahedralLookup(lut []float32, s int, r, g, b, scale float32) [3]float32 {
	rf := r * scale
	gf := g * scale
	bf := b * scale

	r0, g0, b0 := clampIdx(int(rf), s), clampIdx(int(gf), s), clampIdx(int(bf), s)
	r1, g1, b1 := clampIdx(r0+1, s), clampIdx(g0+1, s), clampIdx(b0+1, s)

	fr := rf - float32(r0)
	fg := gf - float32(g0)
	fb := bf - float32(b0)

	var out [3]float32
	for ch := 0; ch < 3; ch++ {
		c000 := lut3DIndex(lut, s, r0, g0, b0, ch)
		c100 := lut3DIndex(lut, s, r1, g0, b0, ch)
		c010 := lut3DIndex(lut, s, r0, g1, b0, ch)
		c110 := lut3DIndex(lut, s, r1, g1, b0, ch)
		c001 := lut3DIndex(lut, s, r0, g0, b1, ch)
		c101 := lut3DIndex(lut, s, r1, g0, b1, ch)
		c011 := lut3DIndex(lut, s, r0, g1, b1, ch)
		c111 := lut3DIndex(lut, s, r1, g1, b1, ch)

		switch {
		case fr > fg && fg > fb:
			out[ch] = c000 + fr*(c100-c000) + fg*(c110-c100) + fb*(c111-c110)
		case fr > fg && fr > fb:
			out[ch] = c000 + fr*(c100-c000) + fb*(c101-c100) + fg*(c111-c101)
		case fr > fg:
			out[ch] = c000 + fb*(c001-c000) + fr*(c101-c001) + fg*(c111-c101)
		case fg > fb && fr > fb:
			out[ch] = c000 + fg*(c010-c000) + fr*(c110-c010) + fb*(c111-c110)
		case fg > fb:
			out[ch] = c000 + fg*(c010-c000) + fb*(c011-c010) + fr*(c111-c011)
		default:
			out[ch] = c000 + fb*(c001-c000) + fg*(c011-c001) + fr*(c111-c011)
		}
	}
	return out
}

func clampIdx(i, size int) int {
	if i < 0 {
		return 0
	}
	if i > size-1 {
		return size - 1
	}
	return i
}
