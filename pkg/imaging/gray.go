// Package imaging provides the pixel-level primitives behind overlap
// detection and stitching: intensity correlation, fixed-band detection,
// vertical template search, and crop/paste composition.
package imaging

import (
	"bytes"
	"image"
	_ "image/jpeg" // JPEG decoder
	"image/png"
)

// grayPlane converts an image to a row-major float64 intensity plane.
func grayPlane(img image.Image) ([]float64, int, int) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	plane := make([]float64, w*h)

	i := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, _ := img.At(x, y).RGBA()
			// ITU-R BT.601 luma, 16-bit channels scaled to 0..255.
			plane[i] = (0.299*float64(r) + 0.587*float64(g) + 0.114*float64(bl)) / 257.0
			i++
		}
	}
	return plane, w, h
}

// DecodePNG decodes raw screenshot bytes into an image.
func DecodePNG(data []byte) (image.Image, error) {
	return png.Decode(bytes.NewReader(data))
}

// EncodePNG encodes an image as PNG bytes.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
