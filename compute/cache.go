package compute

import (
	"container/list"
	"sync"
	"time"
)

// RegionKey identifies a cached region of an image by its bounds.
type RegionKey struct {
	X, Y, W, H uint32
}

// FullRegionKey returns the key for an entire w x h image.
func FullRegionKey(w, h uint32) RegionKey {
	return RegionKey{W: w, H: h}
}

// Contains reports whether the key fully contains other.
func (k RegionKey) Contains(other RegionKey) bool {
	return other.X >= k.X && other.Y >= k.Y &&
		other.X+other.W <= k.X+k.W && other.Y+other.H <= k.Y+k.H
}

// Overlaps reports whether k and other share at least one pixel.
func (k RegionKey) Overlaps(other RegionKey) bool {
	return !(k.X+k.W <= other.X || other.X+other.W <= k.X ||
		k.Y+k.H <= other.Y || other.Y+other.H <= k.Y)
}

// OverlapRatio is intersection-over-union, distinct from the
// intersection-over-min-area ratio used by the clustering pass: the
// cache asks "how much of the combined footprint do these share",
// clustering asks "is the smaller region almost entirely absorbed".
func (k RegionKey) OverlapRatio(other RegionKey) float64 {
	if !k.Overlaps(other) {
		return 0
	}
	ix := maxU32(k.X, other.X)
	iy := maxU32(k.Y, other.Y)
	ix2 := minU32(k.X+k.W, other.X+other.W)
	iy2 := minU32(k.Y+k.H, other.Y+other.H)

	intersection := float64(ix2-ix) * float64(iy2-iy)
	union := float64(k.W)*float64(k.H) + float64(other.W)*float64(other.H) - intersection
	if union == 0 {
		return 0
	}
	return intersection / union
}

type cachedRegion[T any] struct {
	handle     T
	key        RegionKey
	sizeBytes  uint64
	lastAccess time.Time
	element    *list.Element
}

// RegionCache is an LRU cache of backend handles keyed by RegionKey. It
// is the engine's sole defense against redundant uploads across
// viewer pan/zoom, animation playback, and multi-pass pipelines.
type RegionCache[T any] struct {
	mu          sync.Mutex
	entries     map[RegionKey]*cachedRegion[T]
	accessOrder *list.List // front = oldest
	totalBytes  uint64
	maxBytes    uint64
	hits        uint64
	misses      uint64
}

// NewRegionCache creates a cache with the given byte budget.
func NewRegionCache[T any](maxBytes uint64) *RegionCache[T] {
	return &RegionCache[T]{
		entries:     make(map[RegionKey]*cachedRegion[T]),
		accessOrder: list.New(),
		maxBytes:    maxBytes,
	}
}

// Get returns the cached handle for key, updating recency on a hit.
func (c *RegionCache[T]) Get(key RegionKey) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		c.misses++
		var zero T
		return zero, false
	}
	c.hits++
	c.touch(e)
	return e.handle, true
}

// Insert stores handle under key, evicting LRU entries until the new
// entry fits the byte budget. An existing entry under key is replaced.
func (c *RegionCache[T]) Insert(key RegionKey, handle T, sizeBytes uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for c.totalBytes+sizeBytes > c.maxBytes && len(c.entries) > 0 {
		c.evictLRULocked()
	}

	if old, ok := c.entries[key]; ok {
		c.accessOrder.Remove(old.element)
		c.totalBytes -= old.sizeBytes
		delete(c.entries, key)
	}

	e := &cachedRegion[T]{handle: handle, key: key, sizeBytes: sizeBytes, lastAccess: now()}
	e.element = c.accessOrder.PushBack(key)
	c.entries[key] = e
	c.totalBytes += sizeBytes
}

// Remove deletes key from the cache, returning its handle if present.
func (c *RegionCache[T]) Remove(key RegionKey) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		var zero T
		return zero, false
	}
	c.accessOrder.Remove(e.element)
	c.totalBytes -= e.sizeBytes
	delete(c.entries, key)
	return e.handle, true
}

// Clear empties the cache.
func (c *RegionCache[T]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[RegionKey]*cachedRegion[T])
	c.accessOrder.Init()
	c.totalBytes = 0
}

// EvictLRU pops the oldest entry, if any.
func (c *RegionCache[T]) EvictLRU() (RegionKey, T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.evictLRULocked()
}

func (c *RegionCache[T]) evictLRULocked() (RegionKey, T, bool) {
	front := c.accessOrder.Front()
	if front == nil {
		var zero T
		return RegionKey{}, zero, false
	}
	key := front.Value.(RegionKey)
	e := c.entries[key]
	c.accessOrder.Remove(front)
	delete(c.entries, key)
	c.totalBytes -= e.sizeBytes
	return key, e.handle, true
}

// FindContaining returns a cached key that spatially contains key, if
// any. Counts as a hit/miss on the lookup but does not update recency
// for the found entry (callers that also want LRU tracking should
// follow up with Get).
func (c *RegionCache[T]) FindContaining(key RegionKey) (RegionKey, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for cachedKey := range c.entries {
		if cachedKey.Contains(key) {
			c.hits++
			return cachedKey, true
		}
	}
	c.misses++
	return RegionKey{}, false
}

// FindOverlapping returns all cached keys overlapping key.
func (c *RegionCache[T]) FindOverlapping(key RegionKey) []RegionKey {
	c.mu.Lock()
	defer c.mu.Unlock()

	var out []RegionKey
	for cachedKey := range c.entries {
		if cachedKey.Overlaps(key) {
			out = append(out, cachedKey)
		}
	}
	return out
}

// SizeBytes returns the current total bytes resident in the cache.
func (c *RegionCache[T]) SizeBytes() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.totalBytes
}

// MaxBytes returns the cache's byte budget.
func (c *RegionCache[T]) MaxBytes() uint64 { return c.maxBytes }

// Len returns the number of cached entries.
func (c *RegionCache[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Hits returns the cumulative hit count.
func (c *RegionCache[T]) Hits() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits
}

// Misses returns the cumulative miss count.
func (c *RegionCache[T]) Misses() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.misses
}

// HitRatio returns hits / (hits + misses), or 0 if there have been no
// lookups yet.
func (c *RegionCache[T]) HitRatio() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	total := c.hits + c.misses
	if total == 0 {
		return 0
	}
	return float64(c.hits) / float64(total)
}

// ResetStats zeroes the hit/miss counters.
func (c *RegionCache[T]) ResetStats() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hits, c.misses = 0, 0
}

func (c *RegionCache[T]) touch(e *cachedRegion[T]) {
	c.accessOrder.MoveToBack(e.element)
	e.lastAccess = now()
}

// now is a seam so tests can avoid depending on wall-clock time if ever
// needed; production code just wants monotonic ordering for LRU.
func now() time.Time { return time.Now() }
