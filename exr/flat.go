package exr

import (
	"encoding/binary"

	"github.com/deepteams/vfxcore/internal/pool"
)

// bytesPerLine is the interleaved-channel-order byte width of one
// scanline of the given channels.
func bytesPerLine(channels []Channel, width int) int {
	total := 0
	for _, ch := range channels {
		total += ch.Type.BytesPerSample() * width
	}
	return total
}

// DecompressFlatBlock decompresses a scanline or tile block into typed
// per-channel pixel rows. Channel data on disk is organized channel-
// by-channel within the block (all of channel 0's samples for every
// line, then channel 1's, ...), matching OpenEXR's per-scanline
// channel-major layout.
func DecompressFlatBlock(block Block, compression Compression, channels []Channel, width, linesPerBlock int, pedantic bool) (*PixelRows, error) {
	expected := bytesPerLine(channels, width) * linesPerBlock
	raw, err := decompress(block.Data, expected, compression, pedantic)
	if err != nil {
		return nil, err
	}
	if compression != CompressionNone {
		defer pool.Put(raw)
	}

	rows := newPixelRows(channels, width, linesPerBlock)
	pos := 0
	for _, ch := range channels {
		n := width * linesPerBlock
		bps := ch.Type.BytesPerSample()
		if pos+n*bps > len(raw) {
			if pedantic {
				return nil, newError("size_mismatch", "channel %q truncated in flat block", ch.Name)
			}
			n = (len(raw) - pos) / bps
		}
		switch ch.Type {
		case ChannelHalf:
			out := rows.Half[ch.Name]
			for i := 0; i < n; i++ {
				out[i] = binary.LittleEndian.Uint16(raw[pos:])
				pos += 2
			}
		case ChannelFloat:
			out := rows.Float[ch.Name]
			for i := 0; i < n; i++ {
				bits := binary.LittleEndian.Uint32(raw[pos:])
				out[i] = float32frombits(bits)
				pos += 4
			}
		case ChannelUint:
			out := rows.Uint[ch.Name]
			for i := 0; i < n; i++ {
				out[i] = binary.LittleEndian.Uint32(raw[pos:])
				pos += 4
			}
		default:
			return nil, newError("unknown_type", "channel %q has unknown sample type", ch.Name)
		}
	}
	return rows, nil
}

// CompressFlatBlock is the reverse of DecompressFlatBlock: pack typed
// channel rows into the channel-major interleaved layout, then
// compress as one block.
func CompressFlatBlock(rows *PixelRows, compression Compression, yCoordinate int) (Block, error) {
	n := rows.Width * rows.Lines
	raw := make([]byte, 0, bytesPerLine(rows.Channels, rows.Width)*rows.Lines)
	var tmp [4]byte
	for _, ch := range rows.Channels {
		switch ch.Type {
		case ChannelHalf:
			data := rows.Half[ch.Name]
			for i := 0; i < n; i++ {
				binary.LittleEndian.PutUint16(tmp[:2], data[i])
				raw = append(raw, tmp[:2]...)
			}
		case ChannelFloat:
			data := rows.Float[ch.Name]
			for i := 0; i < n; i++ {
				binary.LittleEndian.PutUint32(tmp[:4], float32bits(data[i]))
				raw = append(raw, tmp[:4]...)
			}
		case ChannelUint:
			data := rows.Uint[ch.Name]
			for i := 0; i < n; i++ {
				binary.LittleEndian.PutUint32(tmp[:4], data[i])
				raw = append(raw, tmp[:4]...)
			}
		default:
			return Block{}, newError("unknown_type", "channel %q has unknown sample type", ch.Name)
		}
	}

	compressed, err := compress(raw, compression)
	if err != nil {
		return Block{}, err
	}
	return Block{Data: compressed, Y: yCoordinate}, nil
}
