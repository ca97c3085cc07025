package compute

import "testing"

func TestEngineRunSinglePassMatrix(t *testing.T) {
	engine := NewEngine(DefaultLimits())
	src := Buffer{Data: []float32{0.5, 0.25, 0.1, 1.0}, Width: 1, Height: 1, Channels: 4}
	identity := [16]float32{1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1}

	dst, err := engine.Run(src, Request{Op: OpMatrix, Matrix: identity})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	for i := range src.Data {
		if !approxEq(dst.Data[i], src.Data[i], 1e-6) {
			t.Errorf("channel %d: got %v, want %v", i, dst.Data[i], src.Data[i])
		}
	}

	strategy := engine.PlanStrategy(src.Width, src.Height, src.Channels)
	if strategy.Kind != SinglePass {
		t.Errorf("strategy = %v, want SinglePass for a 1x1 image", strategy.Kind)
	}
}

func TestEngineRunTiledBlurPreservesConstant(t *testing.T) {
	limits := LimitsWithMemory(4 * 1024 * 1024)
	limits.MaxTileDim = 64
	engine := NewEngine(limits)

	const w, h = 300, 200
	src := NewBuffer(w, h, 1)
	for i := range src.Data {
		src.Data[i] = 0.6
	}

	strategy := engine.PlanStrategy(w, h, 1)
	if strategy.Kind == SinglePass {
		t.Fatalf("expected tiled/streaming strategy for a %dx%d image with MaxTileDim=%d", w, h, limits.MaxTileDim)
	}

	dst, err := engine.Run(src, Request{Op: OpBlur, BlurRadius: 2})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(dst.Data) != len(src.Data) {
		t.Fatalf("output length = %d, want %d", len(dst.Data), len(src.Data))
	}
	for i, v := range dst.Data {
		if !approxEq(v, 0.6, 1e-3) {
			t.Errorf("pixel %d = %v, want ~0.6", i, v)
			break
		}
	}
}

func TestEngineRunResizeSinglePass(t *testing.T) {
	engine := NewEngine(DefaultLimits())
	const sw, sh = 4, 4
	src := NewBuffer(sw, sh, 1)
	for i := range src.Data {
		src.Data[i] = 0.4
	}

	dst, err := engine.Run(src, Request{
		Op:           OpResize,
		ResizeFilter: FilterBilinear,
		TargetWidth:  2,
		TargetHeight: 2,
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if dst.Width != 2 || dst.Height != 2 {
		t.Fatalf("dst shape = %dx%d, want 2x2", dst.Width, dst.Height)
	}
	for i, v := range dst.Data {
		if !approxEq(v, 0.4, 1e-3) {
			t.Errorf("pixel %d = %v, want ~0.4", i, v)
		}
	}
}

func TestEngineRunResizeTiledStrategyUpscale(t *testing.T) {
	limits := LimitsWithMemory(4 * 1024 * 1024)
	limits.MaxTileDim = 64
	engine := NewEngine(limits)

	const sw, sh = 300, 200
	src := NewBuffer(sw, sh, 1)
	for i := range src.Data {
		src.Data[i] = 0.7
	}

	strategy := engine.PlanStrategy(sw, sh, 1)
	if strategy.Kind == SinglePass {
		t.Fatalf("expected tiled/streaming strategy for a %dx%d image with MaxTileDim=%d", sw, sh, limits.MaxTileDim)
	}

	dst, err := engine.Run(src, Request{
		Op:           OpResize,
		ResizeFilter: FilterBilinear,
		TargetWidth:  100,
		TargetHeight: 50,
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if dst.Width != 100 || dst.Height != 50 {
		t.Fatalf("dst shape = %dx%d, want 100x50", dst.Width, dst.Height)
	}
	for i, v := range dst.Data {
		if !approxEq(v, 0.7, 1e-3) {
			t.Errorf("pixel %d = %v, want ~0.7", i, v)
			break
		}
	}
}

func TestEngineRunResizeRejectsZeroTarget(t *testing.T) {
	engine := NewEngine(DefaultLimits())
	src := NewBuffer(4, 4, 1)
	if _, err := engine.Run(src, Request{Op: OpResize, ResizeFilter: FilterBilinear}); err == nil {
		t.Error("Run() with zero TargetWidth/TargetHeight should error")
	}
}

func TestEngineCacheReuse(t *testing.T) {
	limits := LimitsWithMemory(4 * 1024 * 1024)
	limits.MaxTileDim = 64
	engine := NewEngine(limits)

	const w, h = 256, 256
	src := NewBuffer(w, h, 1)
	for i := range src.Data {
		src.Data[i] = 0.3
	}

	req := Request{Op: OpBlur, BlurRadius: 1}
	if _, err := engine.Run(src, req); err != nil {
		t.Fatalf("first Run() error = %v", err)
	}
	if _, err := engine.Run(src, req); err != nil {
		t.Fatalf("second Run() error = %v", err)
	}

	hits, _, _ := engine.CacheStats()
	if hits == 0 {
		t.Error("expected at least one cache hit after repeating an identical tiled request")
	}
}
