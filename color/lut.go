package color

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// LUT1D is a 1D lookup table over [DomainMin,DomainMax], either a
// single shared curve (mono) or one curve per RGB channel.
type LUT1D struct {
	R, G, B    []float32 // G, B are nil for a mono LUT
	DomainMin  [3]float32
	DomainMax  [3]float32
}

// IsMono reports whether the LUT shares one curve across channels.
func (l *LUT1D) IsMono() bool { return l.G == nil }

// Size returns the number of entries in the R curve.
func (l *LUT1D) Size() int { return len(l.R) }

// NewLUT1DMono builds a mono 1D LUT from a single curve.
func NewLUT1DMono(data []float32, domainMin, domainMax float32) *LUT1D {
	return &LUT1D{
		R:         data,
		DomainMin: [3]float32{domainMin, domainMin, domainMin},
		DomainMax: [3]float32{domainMax, domainMax, domainMax},
	}
}

// NewLUT1DRGB builds a per-channel 1D LUT from three curves.
func NewLUT1DRGB(r, g, b []float32, domainMin, domainMax float32) *LUT1D {
	return &LUT1D{
		R: r, G: g, B: b,
		DomainMin: [3]float32{domainMin, domainMin, domainMin},
		DomainMax: [3]float32{domainMax, domainMax, domainMax},
	}
}

// GammaLUT1D builds a mono 1D LUT approximating a pure power-law gamma
// curve over [0,1] with the given number of entries.
func GammaLUT1D(size int, gamma float32) *LUT1D {
	data := make([]float32, size)
	for i := range data {
		t := float32(i) / float32(size-1)
		data[i] = Gamma(gamma).Eval(t)
	}
	return NewLUT1DMono(data, 0, 1)
}

func interp1D(curve []float32, v, domainMin, domainMax float32) float32 {
	size := len(curve)
	if size == 0 {
		return v
	}
	if size == 1 {
		return curve[0]
	}
	span := domainMax - domainMin
	var t float32
	if span != 0 {
		t = (v - domainMin) / span
	}
	t = clampf(t, 0, 1)
	pos := t * float32(size-1)
	i0 := int(pos)
	if i0 > size-2 {
		i0 = size - 2
	}
	if i0 < 0 {
		i0 = 0
	}
	i1 := i0 + 1
	frac := pos - float32(i0)
	return curve[i0] + frac*(curve[i1]-curve[i0])
}

// Apply evaluates the LUT against an RGB triple by linear
// interpolation, sharing the R curve across all channels when mono.
func (l *LUT1D) Apply(rgb [3]float32) [3]float32 {
	if l.IsMono() {
		return [3]float32{
			interp1D(l.R, rgb[0], l.DomainMin[0], l.DomainMax[0]),
			interp1D(l.R, rgb[1], l.DomainMin[1], l.DomainMax[1]),
			interp1D(l.R, rgb[2], l.DomainMin[2], l.DomainMax[2]),
		}
	}
	return [3]float32{
		interp1D(l.R, rgb[0], l.DomainMin[0], l.DomainMax[0]),
		interp1D(l.G, rgb[1], l.DomainMin[1], l.DomainMax[1]),
		interp1D(l.B, rgb[2], l.DomainMin[2], l.DomainMax[2]),
	}
}

// LUT3D is a cube lookup table stored blue-major: index =
// (b*Size*Size + g*Size + r).
type LUT3D struct {
	Data      [][3]float32
	Size      int
	DomainMin [3]float32
	DomainMax [3]float32
	Interp    LUT3DInterpMode
}

// LUT3DInterpMode selects the interpolation strategy used by Apply.
type LUT3DInterpMode int

const (
	LUT3DTrilinear LUT3DInterpMode = iota
	LUT3DTetrahedral
)

// IdentityLUT3D builds an identity cube LUT of the given grid size.
func IdentityLUT3D(size int) *LUT3D {
	data := make([][3]float32, size*size*size)
	scale := float32(size - 1)
	for b := 0; b < size; b++ {
		for g := 0; g < size; g++ {
			for r := 0; r < size; r++ {
				idx := b*size*size + g*size + r
				data[idx] = [3]float32{float32(r) / scale, float32(g) / scale, float32(b) / scale}
			}
		}
	}
	return &LUT3D{Data: data, Size: size, DomainMax: [3]float32{1, 1, 1}}
}

func (l *LUT3D) at(r, g, b int) [3]float32 {
	return l.Data[b*l.Size*l.Size+g*l.Size+r]
}

// Apply evaluates the cube LUT against an RGB triple.
func (l *LUT3D) Apply(rgb [3]float32) [3]float32 {
	s := l.Size
	scale := float32(s - 1)

	nr := normalize(rgb[0], l.DomainMin[0], l.DomainMax[0])
	ng := normalize(rgb[1], l.DomainMin[1], l.DomainMax[1])
	nb := normalize(rgb[2], l.DomainMin[2], l.DomainMax[2])

	rf, gf, bf := nr*scale, ng*scale, nb*scale
	r0, g0, b0 := clampIdx3(int(rf), s), clampIdx3(int(gf), s), clampIdx3(int(bf), s)
	r1, g1, b1 := clampIdx3(r0+1, s), clampIdx3(g0+1, s), clampIdx3(b0+1, s)
	fr, fg, fb := rf-float32(r0), gf-float32(g0), bf-float32(b0)

	if l.Interp == LUT3DTetrahedral {
		return l.tetrahedral(r0, g0, b0, r1, g1, b1, fr, fg, fb)
	}
	return l.trilinear(r0, g0, b0, r1, g1, b1, fr, fg, fb)
}

func normalize(v, lo, hi float32) float32 {
	if hi == lo {
		return clampf(v, 0, 1)
	}
	return clampf((v-lo)/(hi-lo), 0, 1)
}

func clampIdx3(i, size int) int {
	if i < 0 {
		return 0
	}
	if i > size-1 {
		return size - 1
	}
	return i
}

func lerp3(a, b [3]float32, t float32) [3]float32 {
	return [3]float32{a[0] + t*(b[0]-a[0]), a[1] + t*(b[1]-a[1]), a[2] + t*(b[2]-a[2])}
}

func (l *LUT3D) trilinear(r0, g0, b0, r1, g1, b1 int, fr, fg, fb float32) [3]float32 {
	c000, c100 := l.at(r0, g0, b0), l.at(r1, g0, b0)
	c010, c110 := l.at(r0, g1, b0), l.at(r1, g1, b0)
	c001, c101 := l.at(r0, g0, b1), l.at(r1, g0, b1)
	c011, c111 := l.at(r0, g1, b1), l.at(r1, g1, b1)

	c00 := lerp3(c000, c100, fr)
	c10 := lerp3(c010, c110, fr)
	c01 := lerp3(c001, c101, fr)
	c11 := lerp3(c011, c111, fr)

	c0 := lerp3(c00, c10, fg)
	c1 := lerp3(c01, c11, fg)

	return lerp3(c0, c1, fb)
}

func (l *LUT3D) tetrahedral(r0, g0, b0, r1, g1, b1 int, fr, fg, fb float32) [3]float32 {
	c000 := l.at(r0, g0, b0)
	c100 := l.at(r1, g0, b0)
	c010 := l.at(r0, g1, b0)
	c110 := l.at(r1, g1, b0)
	c001 := l.at(r0, g0, b1)
	c101 := l.at(r1, g0, b1)
	c011 := l.at(r0, g1, b1)
	c111 := l.at(r1, g1, b1)

	var out [3]float32
	for ch := 0; ch < 3; ch++ {
		switch {
		case fr > fg && fg > fb:
			out[ch] = c000[ch] + fr*(c100[ch]-c000[ch]) + fg*(c110[ch]-c100[ch]) + fb*(c111[ch]-c110[ch])
		case fr > fg && fr > fb:
			out[ch] = c000[ch] + fr*(c100[ch]-c000[ch]) + fb*(c101[ch]-c100[ch]) + fg*(c111[ch]-c101[ch])
		case fr > fg:
			out[ch] = c000[ch] + fb*(c001[ch]-c000[ch]) + fr*(c101[ch]-c001[ch]) + fg*(c111[ch]-c101[ch])
		case fg > fb && fr > fb:
			out[ch] = c000[ch] + fg*(c010[ch]-c000[ch]) + fr*(c110[ch]-c010[ch]) + fb*(c111[ch]-c110[ch])
		case fg > fb:
			out[ch] = c000[ch] + fg*(c010[ch]-c000[ch]) + fb*(c011[ch]-c010[ch]) + fr*(c111[ch]-c011[ch])
		default:
			out[ch] = c000[ch] + fb*(c001[ch]-c000[ch]) + fg*(c011[ch]-c001[ch]) + fr*(c111[ch]-c011[ch])
		}
	}
	return out
}

// --- SPI1D / SPI3D / SPIMTX text formats ---
//
// These are the Sony Pictures Imageworks LUT formats used throughout
// OCIO pipelines: simple, human-readable, line-oriented text.

// ParseSPI1D parses an SPI1D 1D LUT from r.
func ParseSPI1D(r io.Reader) (*LUT1D, error) {
	scanner := bufio.NewScanner(r)
	version := 1
	fromMin, fromMax := float32(0), float32(1)
	length := 0
	components := 1
	inData := false
	var rData, gData, bData []float32

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if line == "{" {
			inData = true
			continue
		}
		if line == "}" {
			inData = false
			continue
		}

		if inData {
			fields := strings.Fields(line)
			values := make([]float32, 0, len(fields))
			for _, f := range fields {
				if v, err := strconv.ParseFloat(f, 32); err == nil {
					values = append(values, float32(v))
				}
			}
			if components == 1 {
				if len(values) > 0 {
					rData = append(rData, values[0])
				}
			} else if components >= 3 && len(values) >= 3 {
				rData = append(rData, values[0])
				gData = append(gData, values[1])
				bData = append(bData, values[2])
			}
			continue
		}

		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		switch strings.ToLower(parts[0]) {
		case "version":
			if len(parts) >= 2 {
				if v, err := strconv.Atoi(parts[1]); err == nil {
					version = v
				}
			}
		case "from":
			if len(parts) >= 3 {
				if v, err := strconv.ParseFloat(parts[1], 32); err == nil {
					fromMin = float32(v)
				}
				if v, err := strconv.ParseFloat(parts[2], 32); err == nil {
					fromMax = float32(v)
				}
			}
		case "length":
			if len(parts) >= 2 {
				if v, err := strconv.Atoi(parts[1]); err == nil {
					length = v
				}
			}
		case "components":
			if len(parts) >= 2 {
				if v, err := strconv.Atoi(parts[1]); err == nil {
					components = v
				}
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	_ = version
	_ = length

	if len(rData) == 0 {
		return nil, fmt.Errorf("color: spi1d contains no LUT data")
	}
	if components == 1 || len(gData) == 0 {
		return NewLUT1DMono(rData, fromMin, fromMax), nil
	}
	return NewLUT1DRGB(rData, gData, bData, fromMin, fromMax), nil
}

// WriteSPI1D writes an SPI1D 1D LUT to w.
func WriteSPI1D(w io.Writer, lut *LUT1D) error {
	isRGB := !lut.IsMono()
	components := 1
	if isRGB {
		components = 3
	}
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "Version 1\n")
	fmt.Fprintf(bw, "From %v %v\n", lut.DomainMin[0], lut.DomainMax[0])
	fmt.Fprintf(bw, "Length %d\n", lut.Size())
	fmt.Fprintf(bw, "Components %d\n", components)
	fmt.Fprintf(bw, "{\n")
	if isRGB {
		for i := range lut.R {
			fmt.Fprintf(bw, "  %.6f %.6f %.6f\n", lut.R[i], lut.G[i], lut.B[i])
		}
	} else {
		for _, v := range lut.R {
			fmt.Fprintf(bw, "  %.6f\n", v)
		}
	}
	fmt.Fprintf(bw, "}\n")
	return bw.Flush()
}

// ParseSPI3D parses an SPI3D cube LUT from r.
func ParseSPI3D(r io.Reader) (*LUT3D, error) {
	scanner := bufio.NewScanner(r)
	size := 0
	var data [][3]float32
	headerLines := 0

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.Fields(line)

		if headerLines < 3 {
			headerLines++
			if strings.HasPrefix(strings.ToUpper(line), "SPILUT") {
				continue
			}
			if len(parts) == 2 {
				if a, errA := strconv.Atoi(parts[0]); errA == nil {
					if b, errB := strconv.Atoi(parts[1]); errB == nil && a == 3 && b == 3 {
						continue
					}
				}
			}
			if len(parts) >= 1 && len(parts) <= 3 {
				if s, err := strconv.Atoi(parts[0]); err == nil && s > 0 && s <= 256 {
					size = s
					continue
				}
			}
		}

		if len(parts) >= 3 {
			rgbStart := 0
			if len(parts) >= 6 {
				rgbStart = 3
			}
			if rgbStart+2 < len(parts) || len(parts) == 3 {
				r64, _ := strconv.ParseFloat(parts[rgbStart], 32)
				g64, _ := strconv.ParseFloat(parts[rgbStart+1], 32)
				b64, _ := strconv.ParseFloat(parts[rgbStart+2], 32)
				data = append(data, [3]float32{float32(r64), float32(g64), float32(b64)})
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	if size == 0 {
		total := len(data)
		for s := 2; s <= 128; s++ {
			if s*s*s == total {
				size = s
				break
			}
		}
	}
	if size == 0 || len(data) == 0 {
		return nil, fmt.Errorf("color: invalid spi3d format")
	}
	return &LUT3D{Data: data, Size: size, DomainMax: [3]float32{1, 1, 1}}, nil
}

// WriteSPI3D writes an SPI3D cube LUT to w.
func WriteSPI3D(w io.Writer, lut *LUT3D) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "SPILUT 1.0\n")
	fmt.Fprintf(bw, "3 3\n")
	fmt.Fprintf(bw, "%d %d %d\n", lut.Size, lut.Size, lut.Size)
	s := lut.Size
	for b := 0; b < s; b++ {
		for g := 0; g < s; g++ {
			for r := 0; r < s; r++ {
				rgb := lut.at(r, g, b)
				fmt.Fprintf(bw, "%d %d %d %.6f %.6f %.6f\n", r, g, b, rgb[0], rgb[1], rgb[2])
			}
		}
	}
	return bw.Flush()
}

// spiMtxOffsetScale is the 16-bit integer range that .spimtx offsets
// are quantized to on disk. A .spimtx file holds a 3x3 matrix plus RGB
// offset in OCIO's 12-float layout: [m00 m01 m02 offR m10 m11 m12 offG
// m20 m21 m22 offB].
const spiMtxOffsetScale = 65535.0

// ParseSPIMtx parses a .spimtx matrix from r.
func ParseSPIMtx(r io.Reader) (Mat3, [3]float32, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return Mat3{}, [3]float32{}, err
	}
	var values []float64
	for _, line := range strings.Split(string(raw), "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "#") {
			continue
		}
		for _, tok := range strings.Fields(line) {
			v, err := strconv.ParseFloat(tok, 64)
			if err != nil {
				return Mat3{}, [3]float32{}, fmt.Errorf("color: invalid float %q in spimtx: %w", tok, err)
			}
			values = append(values, v)
		}
	}
	if len(values) != 12 {
		return Mat3{}, [3]float32{}, fmt.Errorf("color: spimtx requires 12 values, found %d", len(values))
	}
	m := Mat3{
		float32(values[0]), float32(values[1]), float32(values[2]),
		float32(values[4]), float32(values[5]), float32(values[6]),
		float32(values[8]), float32(values[9]), float32(values[10]),
	}
	offset := [3]float32{
		float32(values[3] / spiMtxOffsetScale),
		float32(values[7] / spiMtxOffsetScale),
		float32(values[11] / spiMtxOffsetScale),
	}
	return m, offset, nil
}

// WriteSPIMtx writes a .spimtx matrix+offset to w.
func WriteSPIMtx(w io.Writer, m Mat3, offset [3]float32) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "%.10f %.10f %.10f %.10f\n", m[0], m[1], m[2], offset[0]*spiMtxOffsetScale)
	fmt.Fprintf(bw, "%.10f %.10f %.10f %.10f\n", m[3], m[4], m[5], offset[1]*spiMtxOffsetScale)
	fmt.Fprintf(bw, "%.10f %.10f %.10f %.10f\n", m[6], m[7], m[8], offset[2]*spiMtxOffsetScale)
	return bw.Flush()
}

// --- Adobe/Iridas .cube format ---

// ParseCube parses a 1D or 3D Adobe .cube LUT from r. A LUT_1D_SIZE
// header produces a LUT1D result (lut3d == nil); a LUT_3D_SIZE header
// produces a LUT3D result (lut1d == nil).
func ParseCube(r io.Reader) (lut1d *LUT1D, lut3d *LUT3D, err error) {
	scanner := bufio.NewScanner(r)
	size1D, size3D := 0, 0
	domainMin := [3]float32{0, 0, 0}
	domainMax := [3]float32{1, 1, 1}
	var rows [][3]float32

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		switch strings.ToUpper(fields[0]) {
		case "TITLE":
			continue
		case "LUT_1D_SIZE":
			if len(fields) >= 2 {
				size1D, _ = strconv.Atoi(fields[1])
			}
		case "LUT_3D_SIZE":
			if len(fields) >= 2 {
				size3D, _ = strconv.Atoi(fields[1])
			}
		case "DOMAIN_MIN":
			domainMin = parseVec3(fields[1:])
		case "DOMAIN_MAX":
			domainMax = parseVec3(fields[1:])
		default:
			if len(fields) >= 3 {
				rows = append(rows, parseVec3(fields))
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, err
	}

	switch {
	case size1D > 0:
		if len(rows) != size1D {
			return nil, nil, fmt.Errorf("color: cube LUT_1D_SIZE %d but %d data rows", size1D, len(rows))
		}
		r := make([]float32, size1D)
		g := make([]float32, size1D)
		b := make([]float32, size1D)
		for i, row := range rows {
			r[i], g[i], b[i] = row[0], row[1], row[2]
		}
		lut := NewLUT1DRGB(r, g, b, domainMin[0], domainMax[0])
		lut.DomainMin, lut.DomainMax = domainMin, domainMax
		return lut, nil, nil
	case size3D > 0:
		expected := size3D * size3D * size3D
		if len(rows) != expected {
			return nil, nil, fmt.Errorf("color: cube LUT_3D_SIZE %d but %d data rows (want %d)", size3D, len(rows), expected)
		}
		// .cube data is red-fastest (r increments fastest), matching
		// this package's blue-major [b*s*s + g*s + r] layout directly
		// only when iterated in that same order, so remap explicitly.
		data := make([][3]float32, expected)
		idx := 0
		for b := 0; b < size3D; b++ {
			for g := 0; g < size3D; g++ {
				for rr := 0; rr < size3D; rr++ {
					data[b*size3D*size3D+g*size3D+rr] = rows[idx]
					idx++
				}
			}
		}
		return nil, &LUT3D{Data: data, Size: size3D, DomainMin: domainMin, DomainMax: domainMax}, nil
	default:
		return nil, nil, fmt.Errorf("color: cube file has neither LUT_1D_SIZE nor LUT_3D_SIZE")
	}
}

func parseVec3(fields []string) [3]float32 {
	var out [3]float32
	for i := 0; i < 3 && i < len(fields); i++ {
		v, _ := strconv.ParseFloat(fields[i], 32)
		out[i] = float32(v)
	}
	return out
}

// WriteCube3D writes a 3D LUT in Adobe .cube format to w.
func WriteCube3D(w io.Writer, lut *LUT3D) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "LUT_3D_SIZE %d\n", lut.Size)
	fmt.Fprintf(bw, "DOMAIN_MIN %v %v %v\n", lut.DomainMin[0], lut.DomainMin[1], lut.DomainMin[2])
	fmt.Fprintf(bw, "DOMAIN_MAX %v %v %v\n", lut.DomainMax[0], lut.DomainMax[1], lut.DomainMax[2])
	s := lut.Size
	for b := 0; b < s; b++ {
		for g := 0; g < s; g++ {
			for r := 0; r < s; r++ {
				rgb := lut.at(r, g, b)
				fmt.Fprintf(bw, "%.6f %.6f %.6f\n", rgb[0], rgb[1], rgb[2])
			}
		}
	}
	return bw.Flush()
}
