package compute

import "testing"

func TestSourceRegionUnion(t *testing.T) {
	a := SourceRegion{X: 0, Y: 0, W: 100, H: 100}
	b := SourceRegion{X: 50, Y: 50, W: 100, H: 100}
	u := a.Union(b)
	if u.X != 0 || u.Y != 0 || u.W != 150 || u.H != 150 {
		t.Errorf("union = %+v", u)
	}
}

func TestSourceRegionOverlap(t *testing.T) {
	a := SourceRegion{X: 0, Y: 0, W: 100, H: 100}
	b := SourceRegion{X: 50, Y: 50, W: 100, H: 100}
	c := SourceRegion{X: 200, Y: 200, W: 100, H: 100}

	if !a.Overlaps(b) {
		t.Error("a should overlap b")
	}
	if a.Overlaps(c) {
		t.Error("a should not overlap c")
	}
	if a.OverlapRatio(b) <= 0 {
		t.Error("overlap ratio a/b should be > 0")
	}
	if a.OverlapRatio(c) != 0 {
		t.Error("overlap ratio a/c should be 0")
	}
}

func TestAnalyzeSourceRegion(t *testing.T) {
	tile := Tile{X: 100, Y: 100, Width: 256, Height: 256}
	region := AnalyzeSourceRegion(tile, 5, 1024, 1024)
	if region.X != 95 || region.Y != 95 || region.W != 266 || region.H != 266 || region.Border != 5 {
		t.Errorf("region = %+v", region)
	}
}

func TestAnalyzeSourceRegionClamped(t *testing.T) {
	tile := Tile{X: 0, Y: 0, Width: 256, Height: 256}
	region := AnalyzeSourceRegion(tile, 5, 1024, 1024)
	if region.X != 0 || region.Y != 0 || region.W != 261 || region.H != 261 {
		t.Errorf("region = %+v", region)
	}
}

// S3: tile clustering savings.
func TestClusterTilesSavings(t *testing.T) {
	config := DefaultClusterConfig()

	triples := []TileTriple{
		NewTileTriple(Tile{X: 0, Y: 0, Width: 256, Height: 256}, SourceRegion{X: 0, Y: 0, W: 270, H: 270}),
		NewTileTriple(Tile{X: 256, Y: 0, Width: 256, Height: 256}, SourceRegion{X: 240, Y: 0, W: 270, H: 270}),
		NewTileTriple(Tile{X: 0, Y: 256, Width: 256, Height: 256}, SourceRegion{X: 0, Y: 240, W: 270, H: 270}),
		NewTileTriple(Tile{X: 256, Y: 256, Width: 256, Height: 256}, SourceRegion{X: 240, Y: 240, W: 270, H: 270}),
	}

	clusters := ClusterTiles(triples, config)
	if len(clusters) == 0 || len(clusters) > len(triples) {
		t.Fatalf("len(clusters) = %d, want in [1, %d]", len(clusters), len(triples))
	}
	if len(clusters) > 3 {
		t.Errorf("len(clusters) = %d, want <= 3 for S3", len(clusters))
	}

	without, with := ComputeSavings(triples, clusters)
	if with > without {
		t.Errorf("clustered bytes %d > unclustered bytes %d", with, without)
	}

	// Invariant 5: every source pixel covered by some cluster region.
	var coveredTiles int
	for _, c := range clusters {
		coveredTiles += len(c.Tiles)
	}
	if coveredTiles != len(triples) {
		t.Errorf("clusters cover %d tiles, want %d", coveredTiles, len(triples))
	}
}

func TestMortonCode(t *testing.T) {
	if mortonCode(0, 0) != 0 {
		t.Error("morton(0,0) != 0")
	}
	if mortonCode(1, 0) != 1 {
		t.Error("morton(1,0) != 1")
	}
	if mortonCode(0, 1) != 2 {
		t.Error("morton(0,1) != 2")
	}
	if mortonCode(1, 1) != 3 {
		t.Error("morton(1,1) != 3")
	}

	c1 := int64(mortonCode(100, 100))
	c2 := int64(mortonCode(101, 100))
	c3 := int64(mortonCode(1000, 1000))

	if abs64(c1-c2) >= 10 {
		t.Errorf("nearby tiles should have close morton codes: %d vs %d", c1, c2)
	}
	if abs64(c1-c3) <= 1000 {
		t.Errorf("far tiles should have distant morton codes: %d vs %d", c1, c3)
	}
}

func abs64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
