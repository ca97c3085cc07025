package compute

import "sort"

// SourceRegion is the pixel region needed to compute a tile, expanded by
// a kernel border. Its memory footprint is always computed as RGBA f32,
// matching the engine's internal upload format regardless of the source
// image's actual channel count.
type SourceRegion struct {
	X, Y, W, H, Border uint32
}

// Bytes returns the region's memory footprint assuming 4-channel f32.
func (s SourceRegion) Bytes() uint64 {
	return uint64(s.W) * uint64(s.H) * 16
}

// Union returns the smallest SourceRegion containing both s and other.
func (s SourceRegion) Union(other SourceRegion) SourceRegion {
	x := minU32(s.X, other.X)
	y := minU32(s.Y, other.Y)
	x2 := maxU32(s.X+s.W, other.X+other.W)
	y2 := maxU32(s.Y+s.H, other.Y+other.H)
	border := s.Border
	if other.Border > border {
		border = other.Border
	}
	return SourceRegion{X: x, Y: y, W: x2 - x, H: y2 - y, Border: border}
}

// Overlaps reports whether s and other share at least one pixel.
func (s SourceRegion) Overlaps(other SourceRegion) bool {
	return !(s.X+s.W <= other.X || other.X+other.W <= s.X ||
		s.Y+s.H <= other.Y || other.Y+other.H <= s.Y)
}

// OverlapRatio is intersection-area / min(area(s), area(other)) — NOT
// intersection-over-union. Clustering cares whether the smaller region
// is mostly subsumed by the merge, which a union-based ratio would
// understate for very differently sized regions.
func (s SourceRegion) OverlapRatio(other SourceRegion) float64 {
	if !s.Overlaps(other) {
		return 0
	}
	ix := maxU32(s.X, other.X)
	iy := maxU32(s.Y, other.Y)
	ix2 := minU32(s.X+s.W, other.X+other.W)
	iy2 := minU32(s.Y+s.H, other.Y+other.H)

	intersection := float64(ix2-ix) * float64(iy2-iy)
	a1 := float64(s.W) * float64(s.H)
	a2 := float64(other.W) * float64(other.H)
	smaller := a1
	if a2 < smaller {
		smaller = a2
	}
	if smaller == 0 {
		return 0
	}
	return intersection / smaller
}

func minU32(a, b uint32) uint32 {
	if a < b {
		return a
	}
	return b
}

func maxU32(a, b uint32) uint32 {
	if a > b {
		return a
	}
	return b
}

// AnalyzeSourceRegion expands tile by kernelRadius and clamps to the
// image bounds, producing the SourceRegion the engine must have resident
// to compute that tile.
func AnalyzeSourceRegion(tile Tile, kernelRadius, imgWidth, imgHeight uint32) SourceRegion {
	border := kernelRadius
	x := subU32(tile.X, border)
	y := subU32(tile.Y, border)
	x2 := minU32(tile.X+tile.Width+border, imgWidth)
	y2 := minU32(tile.Y+tile.Height+border, imgHeight)
	return SourceRegion{X: x, Y: y, W: x2 - x, H: y2 - y, Border: border}
}

func subU32(a, b uint32) uint32 {
	if b > a {
		return 0
	}
	return a - b
}

// TileTriple pairs an output tile with the source region it needs.
type TileTriple struct {
	Tile         Tile
	Source       SourceRegion
	MemoryBytes  uint64
}

// NewTileTriple computes the combined memory estimate for a tile plus
// its source region.
func NewTileTriple(tile Tile, source SourceRegion) TileTriple {
	return TileTriple{Tile: tile, Source: source, MemoryBytes: source.Bytes() + tile.Bytes(4)}
}

// Cluster is a set of output tiles sharing one unified source upload.
type Cluster struct {
	Tiles        []Tile
	SourceRegion SourceRegion
	MemoryBytes  uint64
}

func newCluster(tile Tile, source SourceRegion) *Cluster {
	return &Cluster{Tiles: []Tile{tile}, SourceRegion: source, MemoryBytes: source.Bytes()}
}

// tryMerge attempts to fold tile/source into the cluster. Returns true
// on success, leaving the cluster's SourceRegion as the union.
func (c *Cluster) tryMerge(tile Tile, source SourceRegion, config ClusterConfig) bool {
	overlap := c.SourceRegion.OverlapRatio(source)
	if overlap < config.MergeOverlapThreshold {
		return false
	}

	merged := c.SourceRegion.Union(source)
	if merged.W > config.MaxTextureSize || merged.H > config.MaxTextureSize {
		return false
	}
	if merged.Bytes() > config.MaxClusterBytes {
		return false
	}

	c.Tiles = append(c.Tiles, tile)
	c.SourceRegion = merged
	c.MemoryBytes = merged.Bytes()
	return true
}

// ClusterConfig tunes the merge predicate used by ClusterTiles.
type ClusterConfig struct {
	MaxClusterBytes       uint64
	MergeOverlapThreshold float64
	MaxTextureSize        uint32
}

// DefaultClusterConfig matches the engine's production defaults: 512 MiB
// per cluster, 20% overlap to merge, 16384px texture ceiling.
func DefaultClusterConfig() ClusterConfig {
	return ClusterConfig{
		MaxClusterBytes:       512 * 1024 * 1024,
		MergeOverlapThreshold: 0.2,
		MaxTextureSize:        16384,
	}
}

// recentWindow bounds how many of the most-recently-created clusters a
// new triple is tested against before a fresh cluster is started. Wider
// windows catch more merges at higher scan cost; 5 was chosen upstream
// as the throughput/quality knob (see open question in the design notes).
const recentWindow = 5

// ClusterTiles groups triples whose source regions mostly overlap so a
// single upload can serve many output tiles. Triples are first sorted by
// the Morton code of their tile origin for spatial locality, then each
// is merged into one of the most-recently-created clusters if possible,
// else it starts a new cluster.
func ClusterTiles(triples []TileTriple, config ClusterConfig) []*Cluster {
	if len(triples) == 0 {
		return nil
	}

	sorted := make([]TileTriple, len(triples))
	copy(sorted, triples)
	sort.SliceStable(sorted, func(i, j int) bool {
		return mortonCode(sorted[i].Tile.X, sorted[i].Tile.Y) < mortonCode(sorted[j].Tile.X, sorted[j].Tile.Y)
	})

	var clusters []*Cluster
	for _, triple := range sorted {
		merged := false
		start := len(clusters) - recentWindow
		if start < 0 {
			start = 0
		}
		for i := len(clusters) - 1; i >= start; i-- {
			if clusters[i].tryMerge(triple.Tile, triple.Source, config) {
				merged = true
				break
			}
		}
		if !merged {
			clusters = append(clusters, newCluster(triple.Tile, triple.Source))
		}
	}
	return clusters
}

// ComputeSavings returns (bytesWithoutClustering, bytesWithClustering).
func ComputeSavings(triples []TileTriple, clusters []*Cluster) (uint64, uint64) {
	var without, with uint64
	for _, t := range triples {
		without += t.Source.Bytes()
	}
	for _, c := range clusters {
		with += c.SourceRegion.Bytes()
	}
	return without, with
}

// mortonCode interleaves the bits of x and y (Z-order curve) to give a
// single key whose ordering preserves 2D spatial locality.
func mortonCode(x, y uint32) uint64 {
	mx := spreadBits(uint64(x))
	my := spreadBits(uint64(y))
	return mx | (my << 1)
}

func spreadBits(v uint64) uint64 {
	v = (v | (v << 16)) & 0x0000FFFF0000FFFF
	v = (v | (v << 8)) & 0x00FF00FF00FF00FF
	v = (v | (v << 4)) & 0x0F0F0F0F0F0F0F0F
	v = (v | (v << 2)) & 0x3333333333333333
	v = (v | (v << 1)) & 0x5555555555555555
	return v
}
