package color

import "testing"

func approxEq(a, b, tol float32) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d <= tol
}

func approxVec(a, b [3]float32, tol float32) bool {
	return approxEq(a[0], b[0], tol) && approxEq(a[1], b[1], tol) && approxEq(a[2], b[2], tol)
}

// S1: three consecutive matrices fold into a single matrix op whose
// product matches applying them in sequence.
func TestOptimizeThreeMatrixFold(t *testing.T) {
	m1 := Mat3{2, 0, 0, 0, 2, 0, 0, 0, 2}
	m2 := Mat3{1, 0.1, 0, 0, 1, 0, 0, 0, 1}
	m3 := Mat3{1, 0, 0, 0, 1, 0, 0.2, 0, 1}

	p := NewPipeline().Matrix(m1).Matrix(m2).Matrix(m3)
	opt := Optimize(p)

	if opt.Len() != 1 {
		t.Fatalf("Optimize() produced %d ops, want 1", opt.Len())
	}
	if opt.Ops()[0].Kind != OpMatrix {
		t.Fatalf("folded op kind = %v, want OpMatrix", opt.Ops()[0].Kind)
	}

	in := [3]float32{0.3, 0.5, 0.7}
	want := p.Apply(in)
	got := opt.Apply(in)
	if !approxVec(got, want, 1e-5) {
		t.Errorf("folded Apply() = %v, want %v", got, want)
	}
}

// Invariant 7: Optimize never changes the pipeline's observable
// output for arbitrary op sequences, including ones that mix
// foldable and non-foldable ops.
func TestOptimizeEquivalence(t *testing.T) {
	lut := GammaLUT1D(64, 2.2)
	p := NewPipeline().
		Scale([3]float32{1.1, 0.9, 1.0}).
		Scale([3]float32{1.0, 1.0, 1.2}).
		Offset([3]float32{0.01, 0, -0.01}).
		Matrix(Mat3{1, 0, 0, 0, 1, 0, 0, 0, 1}).
		Matrix(Mat3{0.9, 0, 0, 0, 0.9, 0, 0, 0, 0.9}).
		Lut1D(lut).
		Offset([3]float32{0, 0.02, 0}).
		Offset([3]float32{0.03, 0, 0}).
		Clamp01()

	opt := Optimize(p)

	inputs := [][3]float32{
		{0.1, 0.2, 0.3},
		{0.5, 0.5, 0.5},
		{0.9, 0.1, 0.6},
		{0, 0, 0},
		{1, 1, 1},
	}
	for _, in := range inputs {
		want := p.Apply(in)
		got := opt.Apply(in)
		if !approxVec(got, want, 1e-5) {
			t.Errorf("Optimize(%v) output mismatch for input %v: got %v, want %v", p, in, got, want)
		}
	}
}

func TestOptimizeEmptyPipeline(t *testing.T) {
	p := NewPipeline()
	opt := Optimize(p)
	if !opt.IsEmpty() {
		t.Errorf("Optimize(empty) has %d ops, want 0", opt.Len())
	}
}

func TestOptimizeFlushesPendingAtEnd(t *testing.T) {
	p := NewPipeline().Matrix(Identity3()).Scale([3]float32{2, 2, 2})
	opt := Optimize(p)
	if opt.Len() != 2 {
		t.Fatalf("Optimize() produced %d ops, want 2 (matrix, scale)", opt.Len())
	}
}

func TestPipelineApplyBatch(t *testing.T) {
	p := NewPipeline().Scale([3]float32{2, 2, 2})
	in := [][3]float32{{0.1, 0.1, 0.1}, {0.2, 0.2, 0.2}}
	out := p.ApplyBatch(in)
	if !approxVec(out[0], [3]float32{0.2, 0.2, 0.2}, 1e-6) {
		t.Errorf("ApplyBatch()[0] = %v", out[0])
	}
	if !approxVec(out[1], [3]float32{0.4, 0.4, 0.4}, 1e-6) {
		t.Errorf("ApplyBatch()[1] = %v", out[1])
	}
}

func TestPipelineCloneIsIndependent(t *testing.T) {
	p := NewPipeline().Matrix(Identity3())
	clone := p.Clone()
	p2 := p.Scale([3]float32{1, 1, 1})
	if clone.Len() != 1 {
		t.Errorf("clone mutated by further builder calls on original: len = %d", clone.Len())
	}
	if p2.Len() != 2 {
		t.Errorf("p2.Len() = %d, want 2", p2.Len())
	}
}
