package vfxcore

import "fmt"

// Rect is a half-open axis-aligned rectangle over unsigned pixel
// coordinates, origin top-left: it covers x in [X, X+W) and y in [Y, Y+H).
type Rect struct {
	X, Y, W, H uint32
}

// NewRect constructs a Rect from origin and size.
func NewRect(x, y, w, h uint32) Rect {
	return Rect{X: x, Y: y, W: w, H: h}
}

// RectFromSize constructs a Rect at the origin with the given size.
func RectFromSize(w, h uint32) Rect {
	return Rect{W: w, H: h}
}

// RectFromCorners builds a Rect from two inclusive-exclusive corners.
// If x1 <= x0 or y1 <= y0 the result is empty at (x0, y0).
func RectFromCorners(x0, y0, x1, y1 uint32) Rect {
	if x1 <= x0 || y1 <= y0 {
		return Rect{X: x0, Y: y0}
	}
	return Rect{X: x0, Y: y0, W: x1 - x0, H: y1 - y0}
}

// Right returns the exclusive right edge, X+W.
func (r Rect) Right() uint32 { return r.X + r.W }

// Bottom returns the exclusive bottom edge, Y+H.
func (r Rect) Bottom() uint32 { return r.Y + r.H }

// Area returns W*H as a 64-bit value to avoid overflow on large images.
func (r Rect) Area() uint64 { return uint64(r.W) * uint64(r.H) }

// IsEmpty reports whether the rectangle covers zero pixels.
func (r Rect) IsEmpty() bool { return r.W == 0 || r.H == 0 }

// Contains reports whether point (x, y) lies within the rectangle.
func (r Rect) Contains(x, y uint32) bool {
	return x >= r.X && y >= r.Y && x < r.Right() && y < r.Bottom()
}

// ContainsRect reports whether r fully contains other.
func (r Rect) ContainsRect(other Rect) bool {
	if other.IsEmpty() {
		return true
	}
	return other.X >= r.X && other.Y >= r.Y &&
		other.Right() <= r.Right() && other.Bottom() <= r.Bottom()
}

// Overlaps reports whether r and other share at least one pixel.
func (r Rect) Overlaps(other Rect) bool {
	if r.IsEmpty() || other.IsEmpty() {
		return false
	}
	return !(r.Right() <= other.X || other.Right() <= r.X ||
		r.Bottom() <= other.Y || other.Bottom() <= r.Y)
}

// Intersect returns the overlapping region of r and other, or the empty
// rect at (0,0) if they do not overlap. Intersect is commutative and
// associative.
func (r Rect) Intersect(other Rect) Rect {
	if !r.Overlaps(other) {
		return Rect{}
	}
	x0 := max32(r.X, other.X)
	y0 := max32(r.Y, other.Y)
	x1 := min32(r.Right(), other.Right())
	y1 := min32(r.Bottom(), other.Bottom())
	return RectFromCorners(x0, y0, x1, y1)
}

// Union returns the smallest rectangle containing both r and other.
// Union(r) always contains r.
func (r Rect) Union(other Rect) Rect {
	if r.IsEmpty() {
		return other
	}
	if other.IsEmpty() {
		return r
	}
	x0 := min32(r.X, other.X)
	y0 := min32(r.Y, other.Y)
	x1 := max32(r.Right(), other.Right())
	y1 := max32(r.Bottom(), other.Bottom())
	return RectFromCorners(x0, y0, x1, y1)
}

// OverlapRatio is the intersection-over-union of r and other, in [0,1].
func (r Rect) OverlapRatio(other Rect) float64 {
	if !r.Overlaps(other) {
		return 0
	}
	inter := r.Intersect(other).Area()
	union := r.Area() + other.Area() - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

// Translate shifts r by (dx, dy). Returns an error if the shift would
// move a coordinate outside the uint32 domain.
func (r Rect) Translate(dx, dy int64) (Rect, error) {
	nx := int64(r.X) + dx
	ny := int64(r.Y) + dy
	if nx < 0 || ny < 0 || nx > 0xFFFFFFFF || ny > 0xFFFFFFFF {
		return Rect{}, fmt.Errorf("vfxcore: translate out of range: (%d,%d) + (%d,%d)", r.X, r.Y, dx, dy)
	}
	return Rect{X: uint32(nx), Y: uint32(ny), W: r.W, H: r.H}, nil
}

// Inset shrinks r by n pixels on every side. If the inset would collapse
// the rectangle, an empty rect at the (would-be) center is returned.
func (r Rect) Inset(n uint32) Rect {
	if 2*n >= r.W || 2*n >= r.H {
		return Rect{X: r.X + r.W/2, Y: r.Y + r.H/2}
	}
	return Rect{X: r.X + n, Y: r.Y + n, W: r.W - 2*n, H: r.H - 2*n}
}

// ClampTo intersects r with bounds; equivalent to Intersect but named for
// the common "clamp a computed region to the image" use.
func (r Rect) ClampTo(bounds Rect) Rect {
	return r.Intersect(bounds)
}

func max32(a, b uint32) uint32 {
	if a > b {
		return a
	}
	return b
}

func min32(a, b uint32) uint32 {
	if a < b {
		return a
	}
	return b
}

// ROI is a region of interest: either the full extent of some image, or a
// bounded Rect. It is resolved against concrete dimensions with Resolve.
type ROI struct {
	full   bool
	region Rect
}

// FullROI returns the ROI denoting the entire image.
func FullROI() ROI { return ROI{full: true} }

// RegionROI returns the ROI bounded to the given rect.
func RegionROI(r Rect) ROI { return ROI{region: r} }

// IsFull reports whether the ROI denotes the whole image.
func (roi ROI) IsFull() bool { return roi.full }

// Resolve returns the concrete Rect for this ROI given image dimensions.
func (roi ROI) Resolve(w, h uint32) Rect {
	if roi.full {
		return RectFromSize(w, h)
	}
	return roi.region
}

// SourceRegion is a Rect extended by a border of pixels needed around a
// tile for kernels that sample neighbors (resize, blur, warp).
type SourceRegion struct {
	Rect   Rect
	Border uint32
}

// NewSourceRegion expands tile by border pixels on every side and clamps
// the result to bounds.
func NewSourceRegion(tile Rect, border uint32, bounds Rect) SourceRegion {
	expanded := Rect{
		X: subClampU32(tile.X, border),
		Y: subClampU32(tile.Y, border),
		W: tile.W + 2*border,
		H: tile.H + 2*border,
	}
	// Re-derive W/H after clamping X/Y so the region still reaches the
	// original far edge plus border, then clamp to bounds.
	x1 := tile.Right() + border
	y1 := tile.Bottom() + border
	expanded = RectFromCorners(expanded.X, expanded.Y, x1, y1).ClampTo(bounds)
	return SourceRegion{Rect: expanded, Border: border}
}

func subClampU32(a, b uint32) uint32 {
	if b > a {
		return 0
	}
	return a - b
}

// Bytes returns the memory footprint of the source region for a given
// channel count, at 4 bytes per f32 element.
func (s SourceRegion) Bytes(channels uint32) uint64 {
	return s.Rect.Area() * uint64(channels) * 4
}
