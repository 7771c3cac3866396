package imaging

import (
	"image"

	"golang.org/x/image/draw"
)

// CropVertical returns a copy of the horizontal band [top, bottom) of the
// image. Out-of-range boundaries are clamped to [0, height]; an inverted
// range yields a zero-height image rather than an error.
func CropVertical(img image.Image, top, bottom int) *image.RGBA {
	b := img.Bounds()
	h := b.Dy()

	top = clamp(top, 0, h)
	bottom = clamp(bottom, 0, h)
	if bottom < top {
		bottom = top
	}

	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), bottom-top))
	draw.Draw(out, out.Bounds(), img, image.Pt(b.Min.X, b.Min.Y+top), draw.Src)
	return out
}

// NewCanvas allocates a stitch canvas of the given size.
func NewCanvas(width, height int) *image.RGBA {
	return image.NewRGBA(image.Rect(0, 0, width, height))
}

// Paste draws src onto dst with its top-left corner at (0, y).
func Paste(dst *image.RGBA, src image.Image, y int) {
	sb := src.Bounds()
	r := image.Rect(0, y, sb.Dx(), y+sb.Dy())
	draw.Draw(dst, r, src, sb.Min, draw.Src)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
