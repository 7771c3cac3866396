package imaging

import (
	"image"
)

// Band growth parameters for fixed-region detection. Status bars and app
// headers are at least minBand tall; growth stops once the band stops
// matching or hits the edge-specific cap.
const (
	minBand       = 50
	bandStep      = 25
	maxTopBand    = 400
	maxBottomBand = 300
)

// FixedTopHeight finds the height of the screen-top region that is
// pixel-identical across two captures (status bar, sticky header).
// Returns 0 when no band of at least minBand matches above threshold.
func FixedTopHeight(a, b image.Image, threshold float64) int {
	return fixedBand(a, b, threshold, maxTopBand, func(h, _ int) image.Rectangle {
		return image.Rect(0, 0, a.Bounds().Dx(), h)
	})
}

// FixedBottomHeight is the mirrored search from the bottom edge
// (navigation bar, sticky footer).
func FixedBottomHeight(a, b image.Image, threshold float64) int {
	return fixedBand(a, b, threshold, maxBottomBand, func(h, imgH int) image.Rectangle {
		return image.Rect(0, imgH-h, a.Bounds().Dx(), imgH)
	})
}

func fixedBand(a, b image.Image, threshold float64, maxBand int, rect func(h, imgH int) image.Rectangle) int {
	if a == nil || b == nil {
		return 0
	}
	if a.Bounds().Dx() != b.Bounds().Dx() || a.Bounds().Dy() != b.Bounds().Dy() {
		return 0
	}

	imgH := a.Bounds().Dy()
	if maxBand > imgH {
		maxBand = imgH
	}

	best := 0
	for h := minBand; h <= maxBand; h += bandStep {
		if bandSimilarity(a, b, rect(h, imgH)) < threshold {
			break
		}
		best = h
	}
	return best
}
