package exr

import (
	"math"

	"github.com/x448/float16"
)

func float32frombits(b uint32) float32 { return math.Float32frombits(b) }
func float32bits(f float32) uint32     { return math.Float32bits(f) }

// halfToFloat32 and float32ToHalf adapt float16.Float16 to the plain
// uint16/float32 representations the block codec and the typed
// channel accessors move around; OpenEXR's half channels are stored
// as raw 16-bit bit patterns on disk and in PixelRows/DeepSamples, and
// these are the only two points where that representation is crossed.
func halfToFloat32(h uint16) float32 {
	return float16.Frombits(h).Float32()
}

func float32ToHalf(f float32) uint16 {
	return float16.Fromfloat32(f).Bits()
}
