package exr

import "testing"

func buildDeepFixture(width, height int) *DeepSamples {
	channels := []Channel{{Name: "Z", Type: ChannelFloat}, {Name: "A", Type: ChannelHalf}}
	numPixels := width * height
	offsets := make([]uint32, numPixels+1)
	var running uint32
	counts := []int{0, 1, 2, 3, 1, 0, 4, 2, 1}
	for p := 0; p < numPixels; p++ {
		running += uint32(counts[p%len(counts)])
		offsets[p+1] = running
	}
	ds := newDeepSamples(channels, width, height, offsets)
	for i := range ds.Float["Z"] {
		ds.Float["Z"][i] = float32(i) * 0.5
	}
	for i := range ds.Half["A"] {
		ds.Half["A"][i] = uint16(i % 1024)
	}
	return ds
}

// S4: deep round-trip with ZIPS.
func TestDeepRoundTripZIPS(t *testing.T) {
	const w, h = 3, 3
	original := buildDeepFixture(w, h)

	block, err := CompressDeepScanline(original, CompressionZIPS, 0)
	if err != nil {
		t.Fatalf("CompressDeepScanline() error = %v", err)
	}

	decoded, err := DecompressDeepScanline(block, CompressionZIPS, original.Channels, w, h, true)
	if err != nil {
		t.Fatalf("DecompressDeepScanline() error = %v", err)
	}

	if decoded.TotalSamples != original.TotalSamples {
		t.Fatalf("TotalSamples = %d, want %d", decoded.TotalSamples, original.TotalSamples)
	}
	for i := range original.Offsets {
		if decoded.Offsets[i] != original.Offsets[i] {
			t.Fatalf("offsets[%d] = %d, want %d", i, decoded.Offsets[i], original.Offsets[i])
		}
	}
	for i := range original.Float["Z"] {
		if decoded.Float["Z"][i] != original.Float["Z"][i] {
			t.Errorf("Z[%d] = %v, want %v", i, decoded.Float["Z"][i], original.Float["Z"][i])
		}
	}
	for i := range original.Half["A"] {
		if decoded.Half["A"][i] != original.Half["A"][i] {
			t.Errorf("A[%d] = %v, want %v", i, decoded.Half["A"][i], original.Half["A"][i])
		}
	}
}

func TestDeepRoundTripNone(t *testing.T) {
	const w, h = 4, 2
	original := buildDeepFixture(w, h)
	block, err := CompressDeepTile(original, CompressionNone, 0, 0)
	if err != nil {
		t.Fatalf("CompressDeepTile() error = %v", err)
	}
	decoded, err := DecompressDeepTile(block, CompressionNone, original.Channels, w, h, true)
	if err != nil {
		t.Fatalf("DecompressDeepTile() error = %v", err)
	}
	if decoded.TotalSamples != original.TotalSamples {
		t.Errorf("TotalSamples = %d, want %d", decoded.TotalSamples, original.TotalSamples)
	}
}

// Invariant 6: offsets are monotonically non-decreasing and the final
// offset equals each channel's array length.
func TestDeepOffsetsMonotoneAndConsistent(t *testing.T) {
	ds := buildDeepFixture(5, 4)
	for i := 1; i < len(ds.Offsets); i++ {
		if ds.Offsets[i] < ds.Offsets[i-1] {
			t.Fatalf("offsets not monotone at %d: %d < %d", i, ds.Offsets[i], ds.Offsets[i-1])
		}
	}
	last := ds.Offsets[len(ds.Offsets)-1]
	if last != ds.TotalSamples {
		t.Errorf("last offset = %d, want TotalSamples %d", last, ds.TotalSamples)
	}
	if uint32(len(ds.Float["Z"])) != last {
		t.Errorf("len(Float[Z]) = %d, want %d", len(ds.Float["Z"]), last)
	}
	if uint32(len(ds.Half["A"])) != last {
		t.Errorf("len(Half[A]) = %d, want %d", len(ds.Half["A"]), last)
	}
}

func TestFlatBlockRoundTripZIP(t *testing.T) {
	channels := []Channel{{Name: "R", Type: ChannelFloat}, {Name: "G", Type: ChannelFloat}}
	const width, lines = 8, 4
	rows := newPixelRows(channels, width, lines)
	for i := range rows.Float["R"] {
		rows.Float["R"][i] = float32(i) * 0.1
		rows.Float["G"][i] = float32(i) * 0.2
	}

	block, err := CompressFlatBlock(rows, CompressionZIP, 0)
	if err != nil {
		t.Fatalf("CompressFlatBlock() error = %v", err)
	}
	decoded, err := DecompressFlatBlock(block, CompressionZIP, channels, width, lines, true)
	if err != nil {
		t.Fatalf("DecompressFlatBlock() error = %v", err)
	}
	for i := range rows.Float["R"] {
		if decoded.Float["R"][i] != rows.Float["R"][i] {
			t.Errorf("R[%d] = %v, want %v", i, decoded.Float["R"][i], rows.Float["R"][i])
		}
	}
}

// B44's per-block quantization is exact whenever every value in the
// block lies within 255 ordered steps of the block's max (the clamp
// never engages), so a narrow-range block round-trips bit-for-bit.
func TestB44RoundTripExactWithinClampRange(t *testing.T) {
	channels := []Channel{{Name: "Y", Type: ChannelHalf}}
	const width, lines = 4, 4
	base := float32ToHalf(0.5)
	rows := newPixelRows(channels, width, lines)
	for i := range rows.Half["Y"] {
		rows.Half["Y"][i] = base - uint16(i)
	}

	block, err := CompressFlatBlock(rows, CompressionB44, 0)
	if err != nil {
		t.Fatalf("CompressFlatBlock() error = %v", err)
	}
	decoded, err := DecompressFlatBlock(block, CompressionB44, channels, width, lines, true)
	if err != nil {
		t.Fatalf("DecompressFlatBlock() error = %v", err)
	}
	for i := range rows.Half["Y"] {
		if decoded.Half["Y"][i] != rows.Half["Y"][i] {
			t.Errorf("Y[%d] = %v, want %v", i, decoded.Half["Y"][i], rows.Half["Y"][i])
		}
	}
}

func TestDeepSamplesFloatChannelWidensHalf(t *testing.T) {
	ds := buildDeepFixture(3, 3)
	got, err := ds.FloatChannel("A")
	if err != nil {
		t.Fatalf("FloatChannel(A) error = %v", err)
	}
	for i, h := range ds.Half["A"] {
		want := halfToFloat32(h)
		if got[i] != want {
			t.Errorf("A[%d] = %v, want %v", i, got[i], want)
		}
	}
	if _, err := ds.FloatChannel("Z"); err != nil {
		t.Errorf("FloatChannel(Z) error = %v, want nil", err)
	}
	if _, err := ds.FloatChannel("missing"); err == nil {
		t.Error("FloatChannel(missing) should error")
	}
}

func TestPixelRowsFloatChannelWidensHalf(t *testing.T) {
	channels := []Channel{{Name: "Y", Type: ChannelHalf}, {Name: "Z", Type: ChannelFloat}}
	const width, lines = 4, 2
	rows := newPixelRows(channels, width, lines)
	for i := range rows.Half["Y"] {
		rows.Half["Y"][i] = float32ToHalf(float32(i) * 0.25)
	}

	got, err := rows.FloatChannel("Y")
	if err != nil {
		t.Fatalf("FloatChannel(Y) error = %v", err)
	}
	for i, h := range rows.Half["Y"] {
		want := halfToFloat32(h)
		if got[i] != want {
			t.Errorf("Y[%d] = %v, want %v", i, got[i], want)
		}
	}
}

func FuzzDeepOffsetTableRoundTrip(f *testing.F) {
	f.Add(uint32(0), uint32(0), uint32(0), uint32(3), uint32(2))
	f.Add(uint32(5), uint32(1), uint32(0), uint32(4), uint32(1))
	f.Fuzz(func(t *testing.T, a, b, c, d, e uint32) {
		const width, lines = 4, 3
		counts := [4]uint32{a % 8, b % 8, c % 8, d % 8}
		_ = e
		numPixels := width * lines
		offsets := make([]uint32, numPixels+1)
		var running uint32
		for p := 0; p < numPixels; p++ {
			running += counts[p%len(counts)]
			offsets[p+1] = running
		}

		encoded, err := encodeOffsetTable(offsets, CompressionZIPS, width, lines)
		if err != nil {
			t.Fatalf("encodeOffsetTable() error = %v", err)
		}
		decoded, err := decodeOffsetTable(encoded, CompressionZIPS, width, lines, true)
		if err != nil {
			t.Fatalf("decodeOffsetTable() error = %v", err)
		}
		for i := range offsets {
			if decoded[i] != offsets[i] {
				t.Fatalf("offsets[%d] = %d, want %d", i, decoded[i], offsets[i])
			}
		}
	})
}

func TestRLERoundTrip(t *testing.T) {
	data := []byte{1, 1, 1, 1, 1, 2, 3, 4, 5, 5, 5, 5, 0, 0, 0}
	compressed := rleCompress(data)
	decompressed, err := rleDecompress(compressed, len(data))
	if err != nil {
		t.Fatalf("rleDecompress() error = %v", err)
	}
	if len(decompressed) != len(data) {
		t.Fatalf("len = %d, want %d", len(decompressed), len(data))
	}
	for i := range data {
		if decompressed[i] != data[i] {
			t.Errorf("byte %d = %d, want %d", i, decompressed[i], data[i])
		}
	}
}
