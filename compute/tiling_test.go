package compute

import "testing"

func TestGenerateTiles(t *testing.T) {
	tiles := GenerateTiles(1000, 1000, 512)
	if len(tiles) != 4 {
		t.Fatalf("len(tiles) = %d, want 4", len(tiles))
	}
	if tiles[0].X != 0 || tiles[0].Width != 512 {
		t.Errorf("tiles[0] = %+v", tiles[0])
	}
	if tiles[1].X != 512 || tiles[1].Width != 488 {
		t.Errorf("tiles[1] = %+v", tiles[1])
	}
}

func TestGenerateTilesSingle(t *testing.T) {
	tiles := GenerateTiles(256, 256, 512)
	if len(tiles) != 1 || tiles[0].Width != 256 {
		t.Fatalf("tiles = %+v", tiles)
	}
}

func TestRoundDownPow2(t *testing.T) {
	cases := map[uint32]uint32{1000: 512, 512: 512, 1024: 1024, 2000: 1024, 4096: 4096, 0: 0}
	for in, want := range cases {
		if got := roundDownPow2(in); got != want {
			t.Errorf("roundDownPow2(%d) = %d, want %d", in, got, want)
		}
	}
}

func TestDefaultLimits(t *testing.T) {
	l := DefaultLimits()
	if l.Detected {
		t.Error("default limits should not be marked detected")
	}
	if l.AvailableMemory >= l.TotalMemory {
		t.Error("available memory should be less than total")
	}
}

func TestLimitsWithMemory(t *testing.T) {
	l := LimitsWithMemory(8 * 1024 * 1024 * 1024)
	if !l.Detected {
		t.Error("expected detected = true")
	}
	if l.AvailableMemory >= l.TotalMemory {
		t.Error("available memory should be less than total")
	}
}

func TestOptimalTileSize(t *testing.T) {
	l := LimitsWithMemory(4 * 1024 * 1024 * 1024)

	if tile := l.OptimalTileSize(256, 256, 4); tile != 256 {
		t.Errorf("small image tile = %d, want 256", tile)
	}

	tile := l.OptimalTileSize(8192, 8192, 4)
	if tile&(tile-1) != 0 {
		t.Errorf("tile %d is not a power of two", tile)
	}
	if tile < 256 {
		t.Errorf("tile %d below floor", tile)
	}
}

func TestEstimateMemory(t *testing.T) {
	l := DefaultLimits()
	mem := l.EstimateMemory(1024, 1024, 4)
	want := uint64(1024) * 1024 * 4 * 4 * 3
	if mem != want {
		t.Errorf("EstimateMemory = %d, want %d", mem, want)
	}
}

// S6: strategy selection boundaries.
func TestRecommendStrategyBoundaries(t *testing.T) {
	limits := Limits{
		MaxTileDim:      16384,
		MaxBufferBytes:  DefaultMaxBufferBytes,
		TotalMemory:     2 * 1024 * 1024 * 1024,
		AvailableMemory: uint64(12 * 1024 * 1024 * 1024 / 10),
		Detected:        true,
	}

	s := RecommendStrategy(512, 512, 4, limits)
	if s.Kind != SinglePass {
		t.Errorf("512x512: kind = %v, want SinglePass", s.Kind)
	}

	s = RecommendStrategy(16384, 16384, 4, limits)
	if s.Kind != Tiled {
		t.Fatalf("16384x16384: kind = %v, want Tiled", s.Kind)
	}
	if s.TileSize&(s.TileSize-1) != 0 || s.TileSize < 256 {
		t.Errorf("tile size %d not a valid power of two >= 256", s.TileSize)
	}
	if s.NumTiles <= 1 {
		t.Errorf("num tiles = %d, want > 1", s.NumTiles)
	}

	s = RecommendStrategy(65536, 65536, 4, limits)
	if s.Kind != Streaming {
		t.Fatalf("65536x65536: kind = %v, want Streaming", s.Kind)
	}
	if s.TileSize < 256 {
		t.Errorf("streaming tile size %d below floor", s.TileSize)
	}
}

func TestTileSizeForWorkflowConvolution(t *testing.T) {
	l := LimitsWithMemory(4 * 1024 * 1024 * 1024)
	base := l.OptimalTileSize(8192, 8192, 4)
	tile := l.TileSizeForWorkflow(8192, 8192, 4, WorkflowConvolution, 8)
	if tile != base-16 && tile != minTileDim {
		t.Errorf("convolution tile = %d, want %d or floor", tile, base-16)
	}
}
