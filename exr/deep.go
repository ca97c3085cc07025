package exr

import (
	"encoding/binary"

	"github.com/deepteams/vfxcore/internal/pool"
)

// DeepSamples is the decoded representation of one deep-scanline or
// deep-tile block: a per-pixel cumulative sample-count prefix sum,
// plus one typed array per channel holding every pixel's samples back
// to back. Channel ch's samples for pixel p occupy
// Offsets[p]..Offsets[p+1] of that channel's array.
type DeepSamples struct {
	Channels     []Channel
	Width        int
	Height       int
	Offsets      []uint32 // length Width*Height + 1
	TotalSamples uint32
	Half         map[string][]uint16
	Float        map[string][]float32
	Uint         map[string][]uint32
}

func newDeepSamples(channels []Channel, width, height int, offsets []uint32) *DeepSamples {
	total := offsets[len(offsets)-1]
	ds := &DeepSamples{
		Channels:     channels,
		Width:        width,
		Height:       height,
		Offsets:      offsets,
		TotalSamples: total,
		Half:         make(map[string][]uint16),
		Float:        make(map[string][]float32),
		Uint:         make(map[string][]uint32),
	}
	for _, ch := range channels {
		switch ch.Type {
		case ChannelHalf:
			ds.Half[ch.Name] = make([]uint16, total)
		case ChannelFloat:
			ds.Float[ch.Name] = make([]float32, total)
		case ChannelUint:
			ds.Uint[ch.Name] = make([]uint32, total)
		}
	}
	return ds
}

// FloatChannel returns channel name's deep samples as float32,
// widening Half samples through float16 and converting Uint samples
// directly; Float samples are returned as-is.
func (d *DeepSamples) FloatChannel(name string) ([]float32, error) {
	if v, ok := d.Float[name]; ok {
		return v, nil
	}
	if v, ok := d.Half[name]; ok {
		out := make([]float32, len(v))
		for i, h := range v {
			out[i] = halfToFloat32(h)
		}
		return out, nil
	}
	if v, ok := d.Uint[name]; ok {
		out := make([]float32, len(v))
		for i, u := range v {
			out[i] = float32(u)
		}
		return out, nil
	}
	return nil, newError("invalid_input", "channel %q not present in deep samples", name)
}

// decodeOffsetTable decompresses the per-line cumulative-count table
// (restarting at zero each line) and converts it to one monotonic
// per-pixel prefix sum spanning the whole block, per the documented
// deep-decode algorithm: step 1 decompresses and validates line
// restarts, step 2 folds per-line cumulative counts into a single
// block-wide prefix sum.
func decodeOffsetTable(data []byte, compression Compression, width, lines int, pedantic bool) ([]uint32, error) {
	expected := width * lines * 4
	raw, err := decompress(data, expected, compression, pedantic)
	if err != nil {
		return nil, err
	}
	if compression != CompressionNone {
		defer pool.Put(raw)
	}

	offsets := make([]uint32, width*lines+1)
	var running uint32
	for line := 0; line < lines; line++ {
		prevCum := int32(0)
		for x := 0; x < width; x++ {
			idx := line*width + x
			cum := int32(binary.LittleEndian.Uint32(raw[idx*4:]))
			if pedantic && cum < prevCum {
				return nil, newError("non_monotonic", "offset table line %d regresses at pixel %d", line, x)
			}
			count := cum - prevCum
			if count < 0 {
				count = 0
			}
			prevCum = cum
			running += uint32(count)
			offsets[idx+1] = running
		}
	}
	return offsets, nil
}

// encodeOffsetTable is the inverse of decodeOffsetTable: derive each
// line's own zero-based cumulative counts from the block-wide prefix
// sum by subtracting the line's starting offset, then compress.
func encodeOffsetTable(offsets []uint32, compression Compression, width, lines int) ([]byte, error) {
	raw := make([]byte, width*lines*4)
	for line := 0; line < lines; line++ {
		lineStart := offsets[line*width]
		for x := 0; x < width; x++ {
			idx := line*width + x
			cum := offsets[idx+1] - lineStart
			binary.LittleEndian.PutUint32(raw[idx*4:], cum)
		}
	}
	return compress(raw, compression)
}

func deepSampleBytesPerPixel(channels []Channel) int {
	total := 0
	for _, ch := range channels {
		total += ch.Type.BytesPerSample()
	}
	return total
}

// decodeSampleData reads sample bytes ordered by (pixel, sample,
// channel) in declared channel order, as specified for deep blocks,
// and scatters them into each channel's typed array at the offsets
// given by the per-pixel prefix sum.
func decodeSampleData(raw []byte, channels []Channel, offsets []uint32, numPixels int, pedantic bool) (map[string][]uint16, map[string][]float32, map[string][]uint32, error) {
	total := offsets[numPixels]
	half := make(map[string][]uint16)
	flt := make(map[string][]float32)
	uintArr := make(map[string][]uint32)
	for _, ch := range channels {
		switch ch.Type {
		case ChannelHalf:
			half[ch.Name] = make([]uint16, total)
		case ChannelFloat:
			flt[ch.Name] = make([]float32, total)
		case ChannelUint:
			uintArr[ch.Name] = make([]uint32, total)
		}
	}

	pos := 0
	for p := 0; p < numPixels; p++ {
		for s := offsets[p]; s < offsets[p+1]; s++ {
			for _, ch := range channels {
				bps := ch.Type.BytesPerSample()
				if pos+bps > len(raw) {
					if pedantic {
						return nil, nil, nil, newError("truncated", "deep sample data ends mid-sample at pixel %d", p)
					}
					return half, flt, uintArr, nil
				}
				switch ch.Type {
				case ChannelHalf:
					half[ch.Name][s] = binary.LittleEndian.Uint16(raw[pos:])
				case ChannelFloat:
					flt[ch.Name][s] = float32frombits(binary.LittleEndian.Uint32(raw[pos:]))
				case ChannelUint:
					uintArr[ch.Name][s] = binary.LittleEndian.Uint32(raw[pos:])
				default:
					return nil, nil, nil, newError("unknown_type", "channel %q has unknown sample type", ch.Name)
				}
				pos += bps
			}
		}
	}
	return half, flt, uintArr, nil
}

func encodeSampleData(ds *DeepSamples) []byte {
	numPixels := ds.Width * ds.Height
	bpp := deepSampleBytesPerPixel(ds.Channels)
	raw := make([]byte, 0, int(ds.TotalSamples)*bpp)
	var tmp [4]byte
	for p := 0; p < numPixels; p++ {
		for s := ds.Offsets[p]; s < ds.Offsets[p+1]; s++ {
			for _, ch := range ds.Channels {
				switch ch.Type {
				case ChannelHalf:
					binary.LittleEndian.PutUint16(tmp[:2], ds.Half[ch.Name][s])
					raw = append(raw, tmp[:2]...)
				case ChannelFloat:
					binary.LittleEndian.PutUint32(tmp[:4], float32bits(ds.Float[ch.Name][s]))
					raw = append(raw, tmp[:4]...)
				case ChannelUint:
					binary.LittleEndian.PutUint32(tmp[:4], ds.Uint[ch.Name][s])
					raw = append(raw, tmp[:4]...)
				}
			}
		}
	}
	return raw
}

// deepBlockPayload is the three-part wire layout shared by scanline
// and tile deep blocks: a compressed offset table, compressed sample
// data, and the decompressed sample-data size used to validate it.
type deepBlockPayload struct {
	OffsetTable      []byte
	SampleData       []byte
	DecompressedSize uint32
}

func parseDeepBlock(data []byte) (deepBlockPayload, error) {
	if len(data) < 16 {
		return deepBlockPayload{}, newError("truncated", "deep block header shorter than 16 bytes")
	}
	offsetLen := binary.LittleEndian.Uint64(data[0:8])
	sampleLen := binary.LittleEndian.Uint64(data[8:16])
	pos := uint64(16)
	if pos+offsetLen+sampleLen+4 > uint64(len(data)) {
		return deepBlockPayload{}, newError("truncated", "deep block shorter than declared section lengths")
	}
	offsetTable := data[pos : pos+offsetLen]
	pos += offsetLen
	sampleData := data[pos : pos+sampleLen]
	pos += sampleLen
	decompressedSize := binary.LittleEndian.Uint32(data[pos : pos+4])
	return deepBlockPayload{OffsetTable: offsetTable, SampleData: sampleData, DecompressedSize: decompressedSize}, nil
}

func buildDeepBlock(offsetTable, sampleData []byte, decompressedSize uint32) []byte {
	out := make([]byte, 16+len(offsetTable)+len(sampleData)+4)
	binary.LittleEndian.PutUint64(out[0:8], uint64(len(offsetTable)))
	binary.LittleEndian.PutUint64(out[8:16], uint64(len(sampleData)))
	pos := 16
	copy(out[pos:], offsetTable)
	pos += len(offsetTable)
	copy(out[pos:], sampleData)
	pos += len(sampleData)
	binary.LittleEndian.PutUint32(out[pos:], decompressedSize)
	return out
}

// DecompressDeepScanline decodes a deep-scanline block covering
// `lines` scanlines of `width` pixels each.
func DecompressDeepScanline(block Block, compression Compression, channels []Channel, width, lines int, pedantic bool) (*DeepSamples, error) {
	return decodeDeepBlock(block, compression, channels, width, lines, pedantic)
}

// DecompressDeepTile decodes a deep-tile block of tileW x tileH
// pixels; tiles are addressed identically to scanline blocks once the
// header has located them, so the wire format is shared.
func DecompressDeepTile(block Block, compression Compression, channels []Channel, tileW, tileH int, pedantic bool) (*DeepSamples, error) {
	return decodeDeepBlock(block, compression, channels, tileW, tileH, pedantic)
}

func decodeDeepBlock(block Block, compression Compression, channels []Channel, width, lines int, pedantic bool) (*DeepSamples, error) {
	payload, err := parseDeepBlock(block.Data)
	if err != nil {
		return nil, err
	}

	offsets, err := decodeOffsetTable(payload.OffsetTable, compression, width, lines, pedantic)
	if err != nil {
		return nil, err
	}
	numPixels := width * lines
	total := offsets[numPixels]

	expectedSampleBytes := int(total) * deepSampleBytesPerPixel(channels)
	rawSamples, err := decompress(payload.SampleData, expectedSampleBytes, compression, pedantic)
	if err != nil {
		return nil, err
	}
	if compression != CompressionNone {
		defer pool.Put(rawSamples)
	}
	if pedantic && uint32(expectedSampleBytes) != payload.DecompressedSize {
		return nil, newError("size_mismatch", "declared decompressed size %d does not match total_samples*bytes_per_sample %d", payload.DecompressedSize, expectedSampleBytes)
	}

	half, flt, uintArr, err := decodeSampleData(rawSamples, channels, offsets, numPixels, pedantic)
	if err != nil {
		return nil, err
	}

	ds := newDeepSamples(channels, width, lines, offsets)
	ds.Half = half
	ds.Float = flt
	ds.Uint = uintArr
	return ds, nil
}

// CompressDeepScanline is the reverse of DecompressDeepScanline.
func CompressDeepScanline(samples *DeepSamples, compression Compression, y int) (Block, error) {
	block, err := encodeDeepBlock(samples, compression)
	if err != nil {
		return Block{}, err
	}
	block.Y = y
	return block, nil
}

// CompressDeepTile is the reverse of DecompressDeepTile.
func CompressDeepTile(samples *DeepSamples, compression Compression, tileX, tileY int) (Block, error) {
	block, err := encodeDeepBlock(samples, compression)
	if err != nil {
		return Block{}, err
	}
	block.TileX, block.TileY = tileX, tileY
	return block, nil
}

func encodeDeepBlock(samples *DeepSamples, compression Compression) (Block, error) {
	offsetTable, err := encodeOffsetTable(samples.Offsets, compression, samples.Width, samples.Height)
	if err != nil {
		return Block{}, err
	}

	rawSamples := encodeSampleData(samples)
	compressedSamples, err := compress(rawSamples, compression)
	if err != nil {
		return Block{}, err
	}

	data := buildDeepBlock(offsetTable, compressedSamples, uint32(len(rawSamples)))
	return Block{Data: data}, nil
}
