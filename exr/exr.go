// Package exr implements the OpenEXR block codec: translating between
// compressed on-disk scanline/tile/deep-scanline/deep-tile blocks and
// in-memory typed pixel and deep-sample arrays. Header machinery
// (attribute maps, version headers, chunk indices) is out of scope —
// callers hand the codec a raw block plus the compression method and
// channel layout that governs it.
package exr

import "fmt"

// ChannelType is the on-disk sample type of an EXR channel.
type ChannelType int

const (
	ChannelHalf ChannelType = iota
	ChannelFloat
	ChannelUint
)

// BytesPerSample returns the on-disk size of one sample of t.
func (t ChannelType) BytesPerSample() int {
	switch t {
	case ChannelHalf:
		return 2
	case ChannelFloat, ChannelUint:
		return 4
	default:
		return 0
	}
}

func (t ChannelType) String() string {
	switch t {
	case ChannelHalf:
		return "half"
	case ChannelFloat:
		return "float"
	case ChannelUint:
		return "uint"
	default:
		return "unknown"
	}
}

// Channel describes one declared channel of a block: its name (the key
// of its typed array in PixelRows/DeepSamples, also used in error
// messages) and storage type.
type Channel struct {
	Name string
	Type ChannelType
}

// Compression identifies one of the ten EXR block compression methods.
type Compression int

const (
	CompressionNone Compression = iota
	CompressionRLE
	CompressionZIPS
	CompressionZIP
	CompressionPIZ
	CompressionPXR24
	CompressionB44
	CompressionB44A
	CompressionDWAA
	CompressionDWAB
)

func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionRLE:
		return "rle"
	case CompressionZIPS:
		return "zips"
	case CompressionZIP:
		return "zip"
	case CompressionPIZ:
		return "piz"
	case CompressionPXR24:
		return "pxr24"
	case CompressionB44:
		return "b44"
	case CompressionB44A:
		return "b44a"
	case CompressionDWAA:
		return "dwaa"
	case CompressionDWAB:
		return "dwab"
	default:
		return "unknown"
	}
}

// LineCount is the number of scanlines a single compressed block of
// this method covers. Tile-based blocks ignore it.
func (c Compression) LineCount() int {
	switch c {
	case CompressionNone, CompressionRLE, CompressionZIPS:
		return 1
	case CompressionZIP, CompressionPXR24:
		return 16
	case CompressionPIZ, CompressionB44, CompressionB44A, CompressionDWAA:
		return 32
	case CompressionDWAB:
		return 256
	default:
		return -1
	}
}

// Error is a typed decode/encode failure. Kind distinguishes the
// failure classes pedantic mode cares about from best-effort-only
// anomalies.
type Error struct {
	Kind string
	Msg  string
}

func (e *Error) Error() string {
	return fmt.Sprintf("exr: %s: %s", e.Kind, e.Msg)
}

func newError(kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// PixelRows holds decoded flat (non-deep) pixel data for a contiguous
// run of scanlines (or a tile), one typed array per declared channel,
// each of length width*lines.
type PixelRows struct {
	Channels []Channel
	Width    int
	Lines    int
	Half     map[string][]uint16
	Float    map[string][]float32
	Uint     map[string][]uint32
}

func newPixelRows(channels []Channel, width, lines int) *PixelRows {
	rows := &PixelRows{
		Channels: channels,
		Width:    width,
		Lines:    lines,
		Half:     make(map[string][]uint16),
		Float:    make(map[string][]float32),
		Uint:     make(map[string][]uint32),
	}
	n := width * lines
	for _, ch := range channels {
		switch ch.Type {
		case ChannelHalf:
			rows.Half[ch.Name] = make([]uint16, n)
		case ChannelFloat:
			rows.Float[ch.Name] = make([]float32, n)
		case ChannelUint:
			rows.Uint[ch.Name] = make([]uint32, n)
		}
	}
	return rows
}

// FloatChannel returns name's samples as float32 regardless of the
// channel's on-disk storage type: Float channels are returned as-is,
// Half channels are widened through float16, and Uint channels are
// converted directly. This is the normalization point a caller
// building an all-f32 buffer from mixed-type EXR channels needs.
func (r *PixelRows) FloatChannel(name string) ([]float32, error) {
	if v, ok := r.Float[name]; ok {
		return v, nil
	}
	if v, ok := r.Half[name]; ok {
		out := make([]float32, len(v))
		for i, h := range v {
			out[i] = halfToFloat32(h)
		}
		return out, nil
	}
	if v, ok := r.Uint[name]; ok {
		out := make([]float32, len(v))
		for i, u := range v {
			out[i] = float32(u)
		}
		return out, nil
	}
	return nil, newError("invalid_input", "channel %q not present in block", name)
}

// Block is a compressed on-disk byte payload for one scanline/tile
// unit, plus the coordinate metadata needed to place it.
type Block struct {
	Data []byte
	Y    int // scanline blocks: starting y coordinate
	TileX, TileY int
}
