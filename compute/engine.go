package compute

import (
	"fmt"
	"sync"

	"github.com/deepteams/vfxcore/internal/pool"
)

// Op identifies a CPU reference kernel the Engine can dispatch to.
type Op int

const (
	OpMatrix Op = iota
	OpCDL
	OpLUT1D
	OpLUT3D
	OpResize
	OpBlur
)

// Request describes one unit of work submitted to the Engine: an
// operator plus its parameters, applied to a single tile's worth of
// pixels. Only the fields relevant to Op are read.
type Request struct {
	Op Op

	Matrix [16]float32

	CDLSlope, CDLOffset, CDLPower [3]float32
	CDLSat                        float32

	LUT         []float32
	LUTChannels uint32
	LUTSize     uint32
	LUT3DInterp LUT3DInterp
	DomainMin   [3]float32
	DomainMax   [3]float32

	ResizeFilter Filter
	// TargetWidth/TargetHeight are consulted only for OpResize, where
	// the destination has a different shape than the source; every
	// other op's destination matches the source's width/height.
	TargetWidth, TargetHeight uint32

	BlurRadius float32
}

// Engine ties tile-size selection, clustering, and the region cache
// around the CPU kernels so a caller never has to think about VRAM
// budgets directly: Run decides whether the image fits in one
// pass, tiles it if not, and reuses cached tile results when the same
// region is requested again.
type Engine struct {
	limits Limits
	mu     sync.Mutex
	cache  *RegionCache[Buffer]
}

// NewEngine builds an Engine from the given memory limits and a
// region cache sized to a quarter of the available budget, leaving
// headroom for in-flight tile buffers.
func NewEngine(limits Limits) *Engine {
	cacheBudget := limits.AvailableMemory / 4
	if cacheBudget == 0 {
		cacheBudget = DefaultMaxBufferBytes
	}
	return &Engine{
		limits: limits,
		cache:  NewRegionCache[Buffer](cacheBudget),
	}
}

// PlanStrategy reports how the engine would execute an operation over
// an image of the given size, without running it.
func (e *Engine) PlanStrategy(width, height, channels uint32) Strategy {
	return RecommendStrategy(width, height, channels, e.limits)
}

// Run executes req over the full src buffer, selecting a single-pass,
// tiled, or streaming strategy as dictated by the engine's memory
// limits. Tiled and streaming strategies cluster adjacent tiles
// before dispatch and cache each cluster's result, keyed by its
// source region, so repeated requests over the same area skip
// re-computation.
func (e *Engine) Run(src Buffer, req Request) (Buffer, error) {
	dstWidth, dstHeight := src.Width, src.Height
	if req.Op == OpResize {
		if req.TargetWidth == 0 || req.TargetHeight == 0 {
			return Buffer{}, fmt.Errorf("compute: OpResize requires non-zero TargetWidth/TargetHeight")
		}
		dstWidth, dstHeight = req.TargetWidth, req.TargetHeight
	}
	dst := NewBuffer(dstWidth, dstHeight, outputChannels(req, src.Channels))

	strategy := e.PlanStrategy(src.Width, src.Height, src.Channels)

	switch strategy.Kind {
	case SinglePass:
		if err := e.execOp(src, &dst, req); err != nil {
			return Buffer{}, err
		}
		return dst, nil
	default:
		return e.runTiled(src, dst, req, strategy)
	}
}

func (e *Engine) runTiled(src Buffer, dst Buffer, req Request, strategy Strategy) (Buffer, error) {
	// Resize changes the destination's coordinate space relative to the
	// source, which the tile/cluster model below assumes never happens
	// (every other op writes a tile back to the same image-space
	// location it read from). There's no per-tile decomposition of a
	// global resample that fits that model, so resize always runs as
	// one direct pass over the full buffers regardless of the strategy
	// the source's size would otherwise dictate.
	if req.Op == OpResize {
		if err := e.execOp(src, &dst, req); err != nil {
			return Buffer{}, err
		}
		return dst, nil
	}

	tiles := GenerateTiles(src.Width, src.Height, strategy.TileSize)

	kernelRadius := uint32(0)
	if req.Op == OpBlur {
		kernelRadius = uint32(req.BlurRadius) + 1
	}

	triples := make([]TileTriple, 0, len(tiles))
	for _, tile := range tiles {
		source := AnalyzeSourceRegion(tile, kernelRadius, src.Width, src.Height)
		triples = append(triples, NewTileTriple(tile, source))
	}

	config := DefaultClusterConfig()
	clusters := ClusterTiles(triples, config)

	// Clusters execute in Morton order per-cluster (ClusterTiles already
	// sorted triples that way), but clusters are otherwise independent:
	// each writes disjoint tile regions of dst, so they run concurrently
	// across the configured worker pool. The region cache is guarded by
	// e.mu, held only during map updates, never across kernel execution.
	var wg sync.WaitGroup
	var firstErr error
	var errMu sync.Mutex
	sem := make(chan struct{}, numWorkers())

	for _, cluster := range clusters {
		cluster := cluster
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()

			key := RegionKey{X: cluster.SourceRegion.X, Y: cluster.SourceRegion.Y, W: cluster.SourceRegion.W, H: cluster.SourceRegion.H}

			e.mu.Lock()
			cached, hit := e.cache.Get(key)
			e.mu.Unlock()

			var out Buffer
			if hit {
				out = cached
			} else {
				region := extractRegion(src, cluster.SourceRegion)
				out = NewBuffer(region.Width, region.Height, outputChannels(req, region.Channels))
				err := e.execOp(region, &out, req)
				pool.PutFloat32(region.Data)
				if err != nil {
					errMu.Lock()
					if firstErr == nil {
						firstErr = err
					}
					errMu.Unlock()
					return
				}
				e.mu.Lock()
				e.cache.Insert(key, out, uint64(len(out.Data))*4)
				e.mu.Unlock()
			}

			for _, t := range cluster.Tiles {
				blitTile(out, &dst, cluster.SourceRegion, t)
			}
		}()
	}
	wg.Wait()

	if firstErr != nil {
		return Buffer{}, firstErr
	}
	return dst, nil
}

func outputChannels(req Request, srcChannels uint32) uint32 {
	switch req.Op {
	case OpCDL:
		if srcChannels < 3 {
			return 3
		}
	}
	return srcChannels
}

// extractRegion copies the given source region into its own buffer,
// pulled from the float32 scratch pool since the region is consumed
// entirely by a single execOp call and discarded by its caller.
func extractRegion(src Buffer, region SourceRegion) Buffer {
	n := int(region.W) * int(region.H) * int(src.Channels)
	data := pool.GetFloat32(n)[:n]
	for i := range data {
		data[i] = 0
	}
	out := Buffer{Data: data, Width: region.W, Height: region.H, Channels: src.Channels}
	c := int(src.Channels)
	for y := uint32(0); y < region.H; y++ {
		srcY := region.Y + y
		if srcY >= src.Height {
			continue
		}
		for x := uint32(0); x < region.W; x++ {
			srcX := region.X + x
			if srcX >= src.Width {
				continue
			}
			srcBase := (int(srcY)*int(src.Width) + int(srcX)) * c
			dstBase := (int(y)*int(region.W) + int(x)) * c
			copy(out.Data[dstBase:dstBase+c], src.Data[srcBase:srcBase+c])
		}
	}
	return out
}

// blitTile copies the portion of a computed source-region buffer that
// corresponds to tile back into dst at the tile's image-space
// coordinates.
func blitTile(region Buffer, dst *Buffer, regionBounds SourceRegion, tile Tile) {
	c := int(region.Channels)
	for y := uint32(0); y < tile.Height; y++ {
		imgY := tile.Y + y
		regY := imgY - regionBounds.Y
		if imgY >= dst.Height || regY >= region.Height {
			continue
		}
		for x := uint32(0); x < tile.Width; x++ {
			imgX := tile.X + x
			regX := imgX - regionBounds.X
			if imgX >= dst.Width || regX >= region.Width {
				continue
			}
			srcBase := (int(regY)*int(region.Width) + int(regX)) * c
			dstBase := (int(imgY)*int(dst.Width) + int(imgX)) * c
			copy(dst.Data[dstBase:dstBase+c], region.Data[srcBase:srcBase+c])
		}
	}
}

func (e *Engine) execOp(src Buffer, dst *Buffer, req Request) error {
	switch req.Op {
	case OpMatrix:
		ExecMatrix(src, dst, req.Matrix)
	case OpCDL:
		ExecCDL(src, dst, req.CDLSlope, req.CDLOffset, req.CDLPower, req.CDLSat)
	case OpLUT1D:
		ExecLUT1D(src, dst, req.LUT, req.LUTChannels)
	case OpLUT3D:
		ExecLUT3D(src, dst, req.LUT, req.LUTSize, req.LUT3DInterp, req.DomainMin, req.DomainMax)
	case OpResize:
		ExecResize(src, dst, req.ResizeFilter)
	case OpBlur:
		ExecBlur(src, dst, req.BlurRadius)
	default:
		return fmt.Errorf("compute: unknown op %d", req.Op)
	}
	return nil
}

// CacheStats reports the engine's region cache hit/miss counters.
func (e *Engine) CacheStats() (hits, misses uint64, ratio float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cache.Hits(), e.cache.Misses(), e.cache.HitRatio()
}
