package vfxcore

import (
	"fmt"
	"sync/atomic"
)

// Image is a rectangular, channel-interleaved f32 pixel buffer: pixel
// (x,y) channel c lives at index (y*W+x)*C+c. It is the canonical
// in-core representation; callers decode on-disk formats into an
// Image on load and re-encode on save.
//
// The underlying buffer is held by a refcounted, copy-on-write
// container. Clone is O(1) and shares the buffer; any write first
// uniquifies it via MakeMut, so a cloned image never observes a
// sibling's mutation.
type Image struct {
	buf      *sharedBuffer
	width    uint32
	height   uint32
	channels uint32
}

// sharedBuffer is the refcounted backing store shared by COW clones.
// It plays the role of the source's reference-counted Shared<Vec<f32>>,
// expressed with an atomic counter instead of a GC-tracked Arc since Go
// slices do not carry ownership information of their own.
type sharedBuffer struct {
	data []float32
	refs atomic.Int32
}

func newSharedBuffer(data []float32) *sharedBuffer {
	b := &sharedBuffer{data: data}
	b.refs.Store(1)
	return b
}

// NewImage allocates a zeroed image of the given shape. channels must
// be in {1,2,3,4}.
func NewImage(width, height, channels uint32) (*Image, error) {
	if err := validateShape(width, height, channels); err != nil {
		return nil, err
	}
	size := uint64(width) * uint64(height) * uint64(channels)
	return &Image{
		buf:      newSharedBuffer(make([]float32, size)),
		width:    width,
		height:   height,
		channels: channels,
	}, nil
}

// NewImageFromData wraps pre-populated pixel data. It returns an error
// if len(data) != width*height*channels.
func NewImageFromData(data []float32, width, height, channels uint32) (*Image, error) {
	if err := validateShape(width, height, channels); err != nil {
		return nil, err
	}
	expected := uint64(width) * uint64(height) * uint64(channels)
	if uint64(len(data)) != expected {
		return nil, fmt.Errorf("vfxcore: buffer size mismatch: expected %d, got %d", expected, len(data))
	}
	return &Image{
		buf:      newSharedBuffer(data),
		width:    width,
		height:   height,
		channels: channels,
	}, nil
}

func validateShape(width, height, channels uint32) error {
	if width == 0 || height == 0 {
		return fmt.Errorf("vfxcore: image dimensions must be non-zero, got %dx%d", width, height)
	}
	if channels < 1 || channels > 4 {
		return fmt.Errorf("vfxcore: channel count must be in [1,4], got %d", channels)
	}
	return nil
}

// Width, Height, Channels report the image's shape.
func (img *Image) Width() uint32    { return img.width }
func (img *Image) Height() uint32   { return img.height }
func (img *Image) Channels() uint32 { return img.channels }

// Dimensions returns (width, height, channels) together.
func (img *Image) Dimensions() (uint32, uint32, uint32) {
	return img.width, img.height, img.channels
}

// SizeBytes reports the pixel buffer's size in bytes.
func (img *Image) SizeBytes() uint64 {
	return uint64(len(img.buf.data)) * 4
}

// Data returns a read-only view of the pixel buffer. Callers must not
// retain the slice across a call that mutates img, since MakeMut may
// swap img's buffer out from under a previously observed slice.
func (img *Image) Data() []float32 {
	return img.buf.data
}

// IsUnique reports whether this image is the sole owner of its pixel
// buffer — i.e. no clone shares it.
func (img *Image) IsUnique() bool {
	return img.buf.refs.Load() == 1
}

// Clone returns a new Image sharing the same pixel buffer (O(1), no
// allocation). The two images diverge on the first mutation to either.
func (img *Image) Clone() *Image {
	img.buf.refs.Add(1)
	return &Image{buf: img.buf, width: img.width, height: img.height, channels: img.channels}
}

// MakeMut ensures exclusive ownership of the pixel buffer, copying it
// first if it is currently shared. Call this before a run of in-place
// mutations to avoid paying the copy cost more than once.
func (img *Image) MakeMut() []float32 {
	if img.buf.refs.Load() > 1 {
		owned := make([]float32, len(img.buf.data))
		copy(owned, img.buf.data)
		img.buf.refs.Add(-1)
		img.buf = newSharedBuffer(owned)
	}
	return img.buf.data
}

// Duplicate always allocates a fresh buffer, unlike Clone which shares.
func (img *Image) Duplicate() *Image {
	owned := make([]float32, len(img.buf.data))
	copy(owned, img.buf.data)
	return &Image{buf: newSharedBuffer(owned), width: img.width, height: img.height, channels: img.channels}
}

// SetData replaces the pixel buffer outright. It panics if the new
// data's length does not match width*height*channels, mirroring the
// source container's invariant that buffer length is never silently
// reinterpreted.
func (img *Image) SetData(data []float32) {
	expected := uint64(img.width) * uint64(img.height) * uint64(img.channels)
	if uint64(len(data)) != expected {
		panic(fmt.Sprintf("vfxcore: SetData size mismatch: expected %d, got %d", expected, len(data)))
	}
	img.buf = newSharedBuffer(data)
}

// At returns the value of channel ch at pixel (x,y).
func (img *Image) At(x, y, ch uint32) float32 {
	return img.buf.data[(uint64(y)*uint64(img.width)+uint64(x))*uint64(img.channels)+uint64(ch)]
}

// SetAt writes channel ch at pixel (x,y), uniquifying the buffer first
// if it is shared.
func (img *Image) SetAt(x, y, ch uint32, v float32) {
	data := img.MakeMut()
	data[(uint64(y)*uint64(img.width)+uint64(x))*uint64(img.channels)+uint64(ch)] = v
}
