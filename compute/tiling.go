// Package compute implements the VRAM-aware tiling scheduler, the
// Morton-order tile clustering pass, the LRU region cache, and the CPU
// reference kernels that back color and filter operators over images of
// arbitrary size.
package compute

import (
	"math"
	"math/bits"
)

// Memory safety margins. We reserve headroom for intermediate buffers
// during processing, driver overhead, and other concurrent GPU work.
const (
	vramSafetyMargin = 0.4 // use at most 60% of VRAM
	vramTileOverhead = 3.0 // src + dst + intermediate = 3x tile footprint
)

// Defaults used when no real backend has reported its limits yet.
const (
	DefaultVRAMBytes       uint64 = 2 * 1024 * 1024 * 1024
	DefaultMaxTileDim      uint32 = 16384
	DefaultMaxBufferBytes  uint64 = 256 * 1024 * 1024
	minTileDim             uint32 = 256
	streamingRAMThreshold  uint64 = 8 * 1024 * 1024 * 1024
)

// Limits describes a backend's resource envelope: maximum texture
// dimension, maximum single-buffer size, and total/available memory
// after the safety margin has been subtracted.
type Limits struct {
	MaxTileDim      uint32
	MaxBufferBytes  uint64
	TotalMemory     uint64
	AvailableMemory uint64
	Detected        bool
}

// DefaultLimits returns conservative limits used when a backend cannot
// report real device capacity.
func DefaultLimits() Limits {
	return Limits{
		MaxTileDim:      DefaultMaxTileDim,
		MaxBufferBytes:  DefaultMaxBufferBytes,
		TotalMemory:     DefaultVRAMBytes,
		AvailableMemory: LimitsWithMemory(DefaultVRAMBytes).AvailableMemory,
		Detected:        false,
	}
}

// LimitsWithMemory builds Limits from a reported total memory size,
// applying the standard safety margin.
func LimitsWithMemory(totalBytes uint64) Limits {
	return Limits{
		MaxTileDim:      DefaultMaxTileDim,
		MaxBufferBytes:  DefaultMaxBufferBytes,
		TotalMemory:     totalBytes,
		AvailableMemory: uint64(float64(totalBytes) * (1 - vramSafetyMargin)),
		Detected:        true,
	}
}

// NeedsTiling reports whether width or height exceeds the max texture
// dimension.
func (l Limits) NeedsTiling(width, height uint32) bool {
	return width > l.MaxTileDim || height > l.MaxTileDim
}

// EstimateMemory estimates bytes required to process an image of the
// given shape, including source, destination, and intermediate buffers.
func (l Limits) EstimateMemory(width, height, channels uint32) uint64 {
	bytesPerPixel := uint64(channels) * 4
	imageBytes := uint64(width) * uint64(height) * bytesPerPixel
	return uint64(float64(imageBytes) * vramTileOverhead)
}

// FitsMemory reports whether an image fits within available memory with
// the standard processing overhead.
func (l Limits) FitsMemory(width, height, channels uint32) bool {
	return l.EstimateMemory(width, height, channels) <= l.AvailableMemory
}

// OptimalTileSize computes a tile dimension that fits within available
// memory and the texture dimension limit, rounded down to a power of two
// and floored at 256, then capped at the image's width and height.
func (l Limits) OptimalTileSize(width, height, channels uint32) uint32 {
	bytesPerPixel := uint64(channels) * 4

	maxTileBytes := uint64(float64(l.AvailableMemory) / vramTileOverhead)
	maxTileFromMem := uint32(math.Sqrt(float64(maxTileBytes) / float64(bytesPerPixel)))

	maxTile := maxTileFromMem
	if l.MaxTileDim < maxTile {
		maxTile = l.MaxTileDim
	}

	tile := roundDownPow2(maxTile)
	if tile < minTileDim {
		tile = minTileDim
	}

	if tile > width {
		tile = width
	}
	if tile > height {
		tile = height
	}
	return tile
}

// Workflow selects a tile-size adjustment for a particular kind of
// operator: convolutions need overlap, warps sample irregularly.
type Workflow int

const (
	WorkflowColorTransform Workflow = iota
	WorkflowConvolution
	WorkflowWarp
	WorkflowComposite
)

// TileSizeForWorkflow adjusts OptimalTileSize for the given workflow;
// kernelRadius is only consulted for WorkflowConvolution.
func (l Limits) TileSizeForWorkflow(width, height, channels uint32, wf Workflow, kernelRadius uint32) uint32 {
	base := l.OptimalTileSize(width, height, channels)
	switch wf {
	case WorkflowConvolution:
		overlap := kernelRadius * 2
		if base <= overlap || base-overlap < minTileDim {
			return minTileDim
		}
		return base - overlap
	case WorkflowWarp:
		half := base / 2
		if half < 512 {
			return 512
		}
		return half
	default:
		return base
	}
}

func roundDownPow2(n uint32) uint32 {
	if n == 0 {
		return 0
	}
	return 1 << (31 - bits.LeadingZeros32(n))
}

// Strategy is the engine's chosen execution plan for an image of a given
// shape against a set of backend Limits.
type Strategy struct {
	Kind     StrategyKind
	TileSize uint32
	NumTiles uint32
}

type StrategyKind int

const (
	SinglePass StrategyKind = iota
	Tiled
	Streaming
)

func (s StrategyKind) String() string {
	switch s {
	case SinglePass:
		return "SinglePass"
	case Tiled:
		return "Tiled"
	case Streaming:
		return "Streaming"
	default:
		return "Unknown"
	}
}

// RecommendStrategy implements the decision tree: fits VRAM with headroom
// -> SinglePass; exceeds VRAM but fits a conservative RAM threshold ->
// Tiled; otherwise -> Streaming.
func RecommendStrategy(width, height, channels uint32, limits Limits) Strategy {
	return recommendWithRAMThreshold(width, height, channels, limits, streamingRAMThreshold, 2)
}

// RecommendStrategyWithRAM is RecommendStrategy parameterized by an
// explicit available-RAM budget, using 70% of it as the streaming
// threshold and a 3x (src+dst+working) RAM estimate.
func RecommendStrategyWithRAM(width, height, channels uint32, limits Limits, availableRAM uint64) Strategy {
	threshold := uint64(float64(availableRAM) * 0.7)
	return recommendWithRAMThreshold(width, height, channels, limits, threshold, 3)
}

func recommendWithRAMThreshold(width, height, channels uint32, limits Limits, ramThreshold uint64, ramMultiplier uint64) Strategy {
	required := limits.EstimateMemory(width, height, channels)
	if required <= limits.AvailableMemory && !limits.NeedsTiling(width, height) {
		return Strategy{Kind: SinglePass}
	}

	tileSize := limits.OptimalTileSize(width, height, channels)
	numTilesX := (width + tileSize - 1) / tileSize
	numTilesY := (height + tileSize - 1) / tileSize
	numTiles := numTilesX * numTilesY

	bytesPerPixel := uint64(channels) * 4
	ramBytes := uint64(width) * uint64(height) * bytesPerPixel * ramMultiplier

	if ramBytes > ramThreshold {
		return Strategy{Kind: Streaming, TileSize: tileSize}
	}
	return Strategy{Kind: Tiled, TileSize: tileSize, NumTiles: numTiles}
}

// Tile is an output region within an image, sized to an implementation-
// chosen tile size; the last row/column of a tile grid may be truncated.
type Tile struct {
	X, Y, Width, Height uint32
}

// FullTile returns a single tile covering the entire image.
func FullTile(width, height uint32) Tile {
	return Tile{Width: width, Height: height}
}

// Bytes returns the tile's memory footprint for the given channel count.
func (t Tile) Bytes(channels uint32) uint64 {
	return uint64(t.Width) * uint64(t.Height) * uint64(channels) * 4
}

// GenerateTiles partitions a width x height image into a grid of tiles
// no larger than tileSize on a side, scanning rows top to bottom and
// columns left to right within each row.
func GenerateTiles(width, height, tileSize uint32) []Tile {
	var tiles []Tile
	for y := uint32(0); y < height; y += tileSize {
		th := tileSize
		if height-y < th {
			th = height - y
		}
		for x := uint32(0); x < width; x += tileSize {
			tw := tileSize
			if width-x < tw {
				tw = width - x
			}
			tiles = append(tiles, Tile{X: x, Y: y, Width: tw, Height: th})
		}
	}
	return tiles
}
