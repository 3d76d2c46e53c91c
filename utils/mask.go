package utils

import (
	"bytes"
	"fmt"
	"image"

	"github.com/fogleman/gg"
)

// RectangleMask builds the two-tone inpainting mask for an image of the
// given size: white everywhere, black over the selected rectangle. The
// black region is the one the edit call repaints.
func RectangleMask(width, height int, selection image.Rectangle) ([]byte, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid mask dimensions %dx%d", width, height)
	}
	selection = selection.Intersect(image.Rect(0, 0, width, height))
	if selection.Empty() {
		return nil, fmt.Errorf("selection is outside the image bounds")
	}

	dc := gg.NewContext(width, height)
	dc.SetRGB(1, 1, 1)
	dc.Clear()
	dc.SetRGB(0, 0, 0)
	dc.DrawRectangle(
		float64(selection.Min.X),
		float64(selection.Min.Y),
		float64(selection.Dx()),
		float64(selection.Dy()),
	)
	dc.Fill()

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("failed to encode mask: %w", err)
	}
	return buf.Bytes(), nil
}
