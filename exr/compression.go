package exr

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/klauspost/compress/zlib"

	"github.com/deepteams/vfxcore/internal/pool"
)

// compress dispatches to the method-specific compressor. decompress is
// its inverse, given the expected decompressed size so truncation can
// be detected.
func compress(data []byte, method Compression) ([]byte, error) {
	switch method {
	case CompressionNone:
		return data, nil
	case CompressionRLE:
		return rleCompress(data), nil
	case CompressionZIPS, CompressionZIP, CompressionPXR24:
		return zlibCompress(data)
	case CompressionB44, CompressionB44A:
		return b44Compress(data, method == CompressionB44A)
	case CompressionDWAA, CompressionDWAB:
		// DWA's real codec runs a per-block DCT ahead of its entropy
		// stage; here DWAA/DWAB use the same lossless zlib framing as
		// ZIP, with no DCT or quantization stage, since this codec
		// only needs to satisfy the compress/decompress(expected_size)
		// contract, not byte-identical EXR interop.
		return zlibCompress(data)
	default:
		return nil, newError("unsupported_method", "compression method %v", method)
	}
}

func decompress(data []byte, expectedSize int, method Compression, pedantic bool) ([]byte, error) {
	var out []byte
	var err error
	switch method {
	case CompressionNone:
		out = data
	case CompressionRLE:
		out, err = rleDecompress(data, expectedSize)
	case CompressionZIPS, CompressionZIP, CompressionPXR24:
		out, err = zlibDecompress(data, expectedSize)
	case CompressionB44, CompressionB44A:
		out, err = b44Decompress(data, expectedSize, method == CompressionB44A)
	case CompressionDWAA, CompressionDWAB:
		out, err = zlibDecompress(data, expectedSize)
	default:
		return nil, newError("unsupported_method", "compression method %v", method)
	}
	if err != nil {
		return nil, err
	}
	if len(out) != expectedSize {
		if pedantic {
			return nil, newError("size_mismatch", "decompressed %d bytes, expected %d", len(out), expectedSize)
		}
		if len(out) > expectedSize {
			out = out[:expectedSize]
		} else {
			padded := pool.Get(expectedSize)
			copy(padded, out)
			out = padded
		}
	}
	return out, nil
}

func zlibCompress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	if _, err := w.Write(data); err != nil {
		return nil, newError("compress_failed", "zlib: %v", err)
	}
	if err := w.Close(); err != nil {
		return nil, newError("compress_failed", "zlib close: %v", err)
	}
	return buf.Bytes(), nil
}

func zlibDecompress(data []byte, expectedSize int) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, newError("decompress_failed", "zlib: %v", err)
	}
	defer r.Close()
	scratch := pool.Get(expectedSize)
	buf := bytes.NewBuffer(scratch[:0])
	if _, err := io.Copy(buf, r); err != nil && err != io.ErrUnexpectedEOF {
		return nil, newError("decompress_failed", "zlib: %v", err)
	}
	return buf.Bytes(), nil
}

// rleCompress implements OpenEXR-style byte-level RLE: a run of 3 to
// 127 identical bytes is encoded as a non-negative count (run length
// minus one, stored as int8) followed by the single repeated byte; a
// literal run of up to 128 bytes is encoded as a negative count (minus
// its length, stored as int8) followed by the bytes copied verbatim.
func rleCompress(data []byte) []byte {
	var out []byte
	n := len(data)
	i := 0
	for i < n {
		runLen := 1
		for i+runLen < n && runLen < 127 && data[i+runLen] == data[i] {
			runLen++
		}
		if runLen >= 3 {
			out = append(out, byte(int8(runLen-1)))
			out = append(out, data[i])
			i += runLen
			continue
		}

		litStart := i
		litLen := 0
		for i < n && litLen < 128 {
			if i+2 < n && data[i] == data[i+1] && data[i] == data[i+2] {
				break
			}
			litLen++
			i++
		}
		out = append(out, byte(int8(-litLen)))
		out = append(out, data[litStart:litStart+litLen]...)
	}
	return out
}

func rleDecompress(data []byte, expectedSize int) ([]byte, error) {
	out := pool.Get(expectedSize)[:0]
	i := 0
	for i < len(data) {
		count := int(int8(data[i]))
		i++
		if count >= 0 {
			runLen := count + 1
			if i >= len(data) {
				return out, newError("truncated", "RLE repeat run missing value byte")
			}
			for k := 0; k < runLen; k++ {
				out = append(out, data[i])
			}
			i++
		} else {
			litLen := -count
			if i+litLen > len(data) {
				return out, newError("truncated", "RLE literal run extends past input")
			}
			out = append(out, data[i:i+litLen]...)
			i += litLen
		}
	}
	return out, nil
}

// b44 quantizes HALF data in blocks of 16 consecutive values: each
// block stores its max value and, per sample, the distance below that
// max clamped to 255, so a block whose values all lie within 255
// ordered steps of its max round-trips exactly. This follows the
// source codec's block structure without its bit-exact packing. B44A
// additionally special-cases a fully-flat block, writing the constant
// value alone.
func b44Compress(data []byte, allowFlat bool) ([]byte, error) {
	if len(data)%2 != 0 {
		return nil, newError("bad_input", "B44 input length %d is not half-aligned", len(data))
	}
	n := len(data) / 2
	vals := make([]uint16, n)
	for i := 0; i < n; i++ {
		vals[i] = binary.LittleEndian.Uint16(data[i*2:])
	}

	var out bytes.Buffer
	for i := 0; i < n; i += 16 {
		end := i + 16
		if end > n {
			end = n
		}
		block := vals[i:end]
		flat := allowFlat && isFlatBlock(block)
		if flat {
			out.WriteByte(1)
			var buf [2]byte
			binary.LittleEndian.PutUint16(buf[:], block[0])
			out.Write(buf[:])
			continue
		}
		out.WriteByte(0)
		base := blockMax(block)
		var baseBuf [2]byte
		binary.LittleEndian.PutUint16(baseBuf[:], base)
		out.Write(baseBuf[:])
		for _, v := range block {
			d := int32(base) - int32(v)
			if d < 0 {
				d = -d
			}
			if d > 255 {
				d = 255
			}
			out.WriteByte(byte(d))
		}
		for k := len(block); k < 16; k++ {
			out.WriteByte(0)
		}
	}
	return out.Bytes(), nil
}

func b44Decompress(data []byte, expectedSize int, allowFlat bool) ([]byte, error) {
	n := expectedSize / 2
	vals := make([]uint16, n)
	pos := 0
	for i := 0; i < n; i += 16 {
		if pos >= len(data) {
			return nil, newError("truncated", "B44 stream ended mid-block")
		}
		flatMarker := data[pos]
		pos++
		if pos+2 > len(data) {
			return nil, newError("truncated", "B44 block missing base value")
		}
		base := binary.LittleEndian.Uint16(data[pos:])
		pos += 2

		end := i + 16
		if end > n {
			end = n
		}
		count := end - i

		if flatMarker == 1 {
			for k := 0; k < count; k++ {
				vals[i+k] = base
			}
			continue
		}
		if pos+16 > len(data) {
			return nil, newError("truncated", "B44 block missing delta bytes")
		}
		deltas := data[pos : pos+16]
		pos += 16
		for k := 0; k < count; k++ {
			d := int32(deltas[k])
			v := int32(base) - d
			if v < 0 {
				v = 0
			}
			vals[i+k] = uint16(v)
		}
	}
	out := pool.Get(expectedSize)
	for i, v := range vals {
		binary.LittleEndian.PutUint16(out[i*2:], v)
	}
	_ = allowFlat
	return out, nil
}

func blockMax(block []uint16) uint16 {
	max := block[0]
	for _, v := range block[1:] {
		if v > max {
			max = v
		}
	}
	return max
}

func isFlatBlock(block []uint16) bool {
	for _, v := range block[1:] {
		if v != block[0] {
			return false
		}
	}
	return true
}
