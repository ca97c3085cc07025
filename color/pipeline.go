// Package color implements the color pipeline: an ordered, cheaply
// cloneable sequence of color operators, a pure optimizer that folds
// consecutive matrix/scale/offset runs, and a stand-alone CPU
// evaluator over RGB triples for tests and low-volume callers. It is
// agnostic to the compute backend that ultimately executes the
// equivalent kernel calls over whole images.
package color

// OpKind tags which operator a TransformOp carries, replacing the
// source's function-pointer-valued ops with a closed tagged union so
// pipelines stay comparable, serializable, and free of lifetime
// concerns.
type OpKind int

const (
	OpMatrix OpKind = iota
	OpScale
	OpOffset
	OpTransferIn
	OpTransferOut
	OpLut1D
	OpLut3D
	OpCDL
	OpHueCurves
	OpToneCurves
	OpClamp
)

// Mat3 is a row-major 3x3 matrix.
type Mat3 [9]float32

// Identity3 returns the 3x3 identity matrix.
func Identity3() Mat3 {
	return Mat3{1, 0, 0, 0, 1, 0, 0, 0, 1}
}

// Mul returns m applied after n, i.e. the matrix product m*n in the
// sense that (m.Mul(n)).Apply(v) == m.Apply(n.Apply(v)).
func (m Mat3) Mul(n Mat3) Mat3 {
	var out Mat3
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			var sum float32
			for k := 0; k < 3; k++ {
				sum += m[r*3+k] * n[k*3+c]
			}
			out[r*3+c] = sum
		}
	}
	return out
}

// Apply evaluates the matrix against an RGB triple.
func (m Mat3) Apply(rgb [3]float32) [3]float32 {
	return [3]float32{
		m[0]*rgb[0] + m[1]*rgb[1] + m[2]*rgb[2],
		m[3]*rgb[0] + m[4]*rgb[1] + m[5]*rgb[2],
		m[6]*rgb[0] + m[7]*rgb[1] + m[8]*rgb[2],
	}
}

// TransformOp is one step of a Pipeline. Only the fields relevant to
// Kind are populated.
type TransformOp struct {
	Kind OpKind

	Matrix Mat3
	Scale  [3]float32
	Offset [3]float32

	Transfer TransferFunction

	LUT1D *LUT1D
	LUT3D *LUT3D

	CDL CDLParams

	HueCurves  *HueCurves
	ToneCurves *ToneCurves

	ClampLo, ClampHi float32
}

// Pipeline is an ordered, cheaply cloneable sequence of color
// operators. The zero value is an empty (identity) pipeline.
type Pipeline struct {
	ops []TransformOp
}

// NewPipeline returns an empty pipeline.
func NewPipeline() Pipeline {
	return Pipeline{}
}

// Len reports the number of ops in the pipeline.
func (p Pipeline) Len() int { return len(p.ops) }

// IsEmpty reports whether the pipeline has no ops.
func (p Pipeline) IsEmpty() bool { return len(p.ops) == 0 }

// Ops returns the pipeline's op list. Callers must not mutate it.
func (p Pipeline) Ops() []TransformOp { return p.ops }

// Clone returns an independent copy of the pipeline.
func (p Pipeline) Clone() Pipeline {
	ops := make([]TransformOp, len(p.ops))
	copy(ops, p.ops)
	return Pipeline{ops: ops}
}

func (p Pipeline) push(op TransformOp) Pipeline {
	ops := make([]TransformOp, len(p.ops), len(p.ops)+1)
	copy(ops, p.ops)
	ops = append(ops, op)
	return Pipeline{ops: ops}
}

// Matrix appends a 3x3 matrix op.
func (p Pipeline) Matrix(m Mat3) Pipeline { return p.push(TransformOp{Kind: OpMatrix, Matrix: m}) }

// Scale appends a per-channel scale op.
func (p Pipeline) Scale(s [3]float32) Pipeline { return p.push(TransformOp{Kind: OpScale, Scale: s}) }

// Offset appends a per-channel offset op.
func (p Pipeline) Offset(o [3]float32) Pipeline {
	return p.push(TransformOp{Kind: OpOffset, Offset: o})
}

// TransferIn appends an input transfer-function (EOTF-style) op.
func (p Pipeline) TransferIn(fn TransferFunction) Pipeline {
	return p.push(TransformOp{Kind: OpTransferIn, Transfer: fn})
}

// TransferOut appends an output transfer-function (OETF-style) op.
func (p Pipeline) TransferOut(fn TransferFunction) Pipeline {
	return p.push(TransformOp{Kind: OpTransferOut, Transfer: fn})
}

// Lut1D appends a 1D LUT op.
func (p Pipeline) Lut1D(lut *LUT1D) Pipeline { return p.push(TransformOp{Kind: OpLut1D, LUT1D: lut}) }

// Lut3D appends a 3D LUT op.
func (p Pipeline) Lut3D(lut *LUT3D) Pipeline { return p.push(TransformOp{Kind: OpLut3D, LUT3D: lut}) }

// CDLOp appends an ASC-CDL op.
func (p Pipeline) CDLOp(params CDLParams) Pipeline {
	return p.push(TransformOp{Kind: OpCDL, CDL: params})
}

// HueCurvesOp appends an HSY hue-curve grading op.
func (p Pipeline) HueCurvesOp(hc *HueCurves) Pipeline {
	return p.push(TransformOp{Kind: OpHueCurves, HueCurves: hc})
}

// ToneCurvesOp appends a five-zone tone-curve grading op.
func (p Pipeline) ToneCurvesOp(tc *ToneCurves) Pipeline {
	return p.push(TransformOp{Kind: OpToneCurves, ToneCurves: tc})
}

// Clamp01 appends a [0,1] clamp op.
func (p Pipeline) Clamp01() Pipeline {
	return p.push(TransformOp{Kind: OpClamp, ClampLo: 0, ClampHi: 1})
}

// Clamp appends a [lo,hi] clamp op.
func (p Pipeline) Clamp(lo, hi float32) Pipeline {
	return p.push(TransformOp{Kind: OpClamp, ClampLo: lo, ClampHi: hi})
}

// Apply evaluates the pipeline against a single RGB triple, in order.
func (p Pipeline) Apply(rgb [3]float32) [3]float32 {
	for _, op := range p.ops {
		rgb = applyOp(op, rgb)
	}
	return rgb
}

func applyOp(op TransformOp, rgb [3]float32) [3]float32 {
	switch op.Kind {
	case OpMatrix:
		return op.Matrix.Apply(rgb)
	case OpScale:
		return [3]float32{rgb[0] * op.Scale[0], rgb[1] * op.Scale[1], rgb[2] * op.Scale[2]}
	case OpOffset:
		return [3]float32{rgb[0] + op.Offset[0], rgb[1] + op.Offset[1], rgb[2] + op.Offset[2]}
	case OpTransferIn:
		return [3]float32{op.Transfer.EvalInverse(rgb[0]), op.Transfer.EvalInverse(rgb[1]), op.Transfer.EvalInverse(rgb[2])}
	case OpTransferOut:
		return [3]float32{op.Transfer.Eval(rgb[0]), op.Transfer.Eval(rgb[1]), op.Transfer.Eval(rgb[2])}
	case OpLut1D:
		return op.LUT1D.Apply(rgb)
	case OpLut3D:
		return op.LUT3D.Apply(rgb)
	case OpCDL:
		return op.CDL.Apply(rgb)
	case OpHueCurves:
		return op.HueCurves.Apply(rgb)
	case OpToneCurves:
		return op.ToneCurves.Apply(rgb)
	case OpClamp:
		return [3]float32{clampf(rgb[0], op.ClampLo, op.ClampHi), clampf(rgb[1], op.ClampLo, op.ClampHi), clampf(rgb[2], op.ClampLo, op.ClampHi)}
	default:
		return rgb
	}
}

func clampf(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ApplyBatch evaluates the pipeline over every triple in rgbs,
// returning a new slice.
func (p Pipeline) ApplyBatch(rgbs [][3]float32) [][3]float32 {
	out := make([][3]float32, len(rgbs))
	for i, rgb := range rgbs {
		out[i] = p.Apply(rgb)
	}
	return out
}

// ApplyInPlace evaluates the pipeline over every triple in rgbs,
// overwriting each in place.
func (p Pipeline) ApplyInPlace(rgbs [][3]float32) {
	for i := range rgbs {
		rgbs[i] = p.Apply(rgbs[i])
	}
}

// Optimize performs a single linear pass folding runs of trivially
// composable ops, preserving semantics exactly:
//   - consecutive Matrix ops fold into their product, M2 after M1 -> M2*M1
//   - consecutive Scale ops fold into an elementwise product
//   - consecutive Offset ops fold into an elementwise sum
//   - a pending Matrix flushes before Scale/Offset accumulate, a
//     pending Scale flushes before Offset accumulates (ASC-CDL order),
//     and a pending Offset flushes before Scale accumulates
//   - any non-foldable op flushes all pending accumulators in
//     matrix -> scale -> offset order, then is emitted unchanged
func Optimize(p Pipeline) Pipeline {
	if p.IsEmpty() {
		return p.Clone()
	}

	result := NewPipeline()
	var pendingMatrix *Mat3
	var pendingScale *[3]float32
	var pendingOffset *[3]float32

	flushMatrix := func() {
		if pendingMatrix != nil {
			result = result.Matrix(*pendingMatrix)
			pendingMatrix = nil
		}
	}
	flushScale := func() {
		if pendingScale != nil {
			result = result.Scale(*pendingScale)
			pendingScale = nil
		}
	}
	flushOffset := func() {
		if pendingOffset != nil {
			result = result.Offset(*pendingOffset)
			pendingOffset = nil
		}
	}
	flushAll := func() {
		flushMatrix()
		flushScale()
		flushOffset()
	}

	for _, op := range p.ops {
		switch op.Kind {
		case OpMatrix:
			flushScale()
			flushOffset()
			if pendingMatrix != nil {
				m := op.Matrix.Mul(*pendingMatrix)
				pendingMatrix = &m
			} else {
				m := op.Matrix
				pendingMatrix = &m
			}
		case OpScale:
			flushMatrix()
			flushOffset()
			if pendingScale != nil {
				s := [3]float32{pendingScale[0] * op.Scale[0], pendingScale[1] * op.Scale[1], pendingScale[2] * op.Scale[2]}
				pendingScale = &s
			} else {
				s := op.Scale
				pendingScale = &s
			}
		case OpOffset:
			flushMatrix()
			flushScale()
			if pendingOffset != nil {
				o := [3]float32{pendingOffset[0] + op.Offset[0], pendingOffset[1] + op.Offset[1], pendingOffset[2] + op.Offset[2]}
				pendingOffset = &o
			} else {
				o := op.Offset
				pendingOffset = &o
			}
		default:
			flushAll()
			result = result.push(op)
		}
	}
	flushAll()
	return result
}
