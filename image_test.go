package vfxcore

import "testing"

func TestNewImageShape(t *testing.T) {
	img, err := NewImage(4, 3, 3)
	if err != nil {
		t.Fatalf("NewImage() error = %v", err)
	}
	if uint64(len(img.Data())) != 4*3*3 {
		t.Errorf("len(Data()) = %d, want %d", len(img.Data()), 4*3*3)
	}
	if w, h, c := img.Dimensions(); w != 4 || h != 3 || c != 3 {
		t.Errorf("Dimensions() = (%d,%d,%d), want (4,3,3)", w, h, c)
	}
}

func TestNewImageRejectsBadShape(t *testing.T) {
	if _, err := NewImage(0, 3, 3); err == nil {
		t.Error("expected error for zero width")
	}
	if _, err := NewImage(4, 3, 5); err == nil {
		t.Error("expected error for channel count 5")
	}
}

func TestNewImageFromDataSizeMismatch(t *testing.T) {
	if _, err := NewImageFromData(make([]float32, 10), 4, 4, 4); err == nil {
		t.Error("expected buffer size mismatch error")
	}
}

// Invariant 2: COW isolation.
func TestImageCOWIsolation(t *testing.T) {
	img1, _ := NewImage(2, 2, 3)
	img2 := img1.Clone()

	if img1.IsUnique() {
		t.Error("img1 should be shared after Clone")
	}
	if img2.IsUnique() {
		t.Error("img2 should be shared after Clone")
	}

	img2.SetAt(0, 0, 0, 1.0)

	if img1.IsUnique() != true {
		t.Error("img1 should become unique after img2 uniquifies its own copy")
	}
	if img1.At(0, 0, 0) != 0.0 {
		t.Errorf("img1 pixel changed after mutating img2: %v", img1.At(0, 0, 0))
	}
	if img2.At(0, 0, 0) != 1.0 {
		t.Errorf("img2 pixel not set: %v", img2.At(0, 0, 0))
	}
}

func TestImageMakeMutNoCopyWhenUnique(t *testing.T) {
	img, _ := NewImage(2, 2, 1)
	before := img.buf
	img.MakeMut()
	if img.buf != before {
		t.Error("MakeMut reallocated a uniquely-owned buffer")
	}
}

func TestImageDuplicateIsIndependent(t *testing.T) {
	img1, _ := NewImage(2, 2, 1)
	img2 := img1.Duplicate()
	img2.SetAt(0, 0, 0, 5.0)
	if img1.At(0, 0, 0) != 0.0 {
		t.Error("Duplicate should not share storage with the original")
	}
}
