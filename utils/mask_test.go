package utils

import (
	"bytes"
	"image"
	"image/png"
	"testing"
)

func TestRectangleMask_TwoTone(t *testing.T) {
	data, err := RectangleMask(100, 80, image.Rect(20, 10, 60, 50))
	if err != nil {
		t.Fatalf("RectangleMask failed: %v", err)
	}

	mask, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Mask should decode as PNG: %v", err)
	}
	if mask.Bounds().Dx() != 100 || mask.Bounds().Dy() != 80 {
		t.Errorf("Mask should match the image size, got: %v", mask.Bounds())
	}

	r, g, b, _ := mask.At(30, 30).RGBA()
	if r != 0 || g != 0 || b != 0 {
		t.Errorf("Selected region should be black, got RGB(%d,%d,%d)", r, g, b)
	}
	r, g, b, _ = mask.At(5, 5).RGBA()
	if r == 0 || g == 0 || b == 0 {
		t.Errorf("Unselected region should be white, got RGB(%d,%d,%d)", r, g, b)
	}
}

func TestRectangleMask_ClipsSelectionToBounds(t *testing.T) {
	data, err := RectangleMask(50, 50, image.Rect(40, 40, 200, 200))
	if err != nil {
		t.Fatalf("Partially outside selection should be clipped, got error: %v", err)
	}

	mask, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Mask should decode as PNG: %v", err)
	}
	r, g, b, _ := mask.At(45, 45).RGBA()
	if r != 0 || g != 0 || b != 0 {
		t.Errorf("Clipped selection should still be painted, got RGB(%d,%d,%d)", r, g, b)
	}
}

func TestRectangleMask_RejectsBadInput(t *testing.T) {
	if _, err := RectangleMask(0, 100, image.Rect(0, 0, 10, 10)); err == nil {
		t.Error("Zero width should be rejected")
	}
	if _, err := RectangleMask(50, 50, image.Rect(60, 60, 80, 80)); err == nil {
		t.Error("A selection fully outside the image should be rejected")
	}
}
