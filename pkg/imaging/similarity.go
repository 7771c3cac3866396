package imaging

import (
	"image"
	"math"

	"github.com/corona10/goimagehash"
)

// hashDistanceCutoff is the perceptual-hash distance above which two
// frames are definitely different and the correlation pass is skipped.
const hashDistanceCutoff = 10

// Similarity computes a normalized correlation score between two
// same-sized images. 1.0 means identical, 0.0 maximally different.
// A size mismatch is a precondition failure and returns 0.0 directly.
func Similarity(a, b image.Image) float64 {
	if a == nil || b == nil {
		return 0
	}
	if a.Bounds().Dx() != b.Bounds().Dx() || a.Bounds().Dy() != b.Bounds().Dy() {
		return 0
	}

	pa, _, _ := grayPlane(a)
	pb, _, _ := grayPlane(b)
	return correlate(pa, pb)
}

// correlate maps the zero-mean cross-correlation coefficient of two
// equal-length intensity planes from [-1,1] to [0,1].
func correlate(pa, pb []float64) float64 {
	n := float64(len(pa))
	if n == 0 {
		return 0
	}

	var meanA, meanB float64
	for i := range pa {
		meanA += pa[i]
		meanB += pb[i]
	}
	meanA /= n
	meanB /= n

	var num, varA, varB float64
	for i := range pa {
		da := pa[i] - meanA
		db := pb[i] - meanB
		num += da * db
		varA += da * da
		varB += db * db
	}

	denom := math.Sqrt(varA * varB)
	if denom == 0 {
		// Flat images: identical means correlate perfectly, anything
		// else has no signal to correlate on.
		if meanA == meanB && equalPlanes(pa, pb) {
			return 1
		}
		return 0
	}

	corr := num / denom
	if corr > 1 {
		corr = 1
	} else if corr < -1 {
		corr = -1
	}
	return (corr + 1) / 2
}

func equalPlanes(pa, pb []float64) bool {
	for i := range pa {
		if pa[i] != pb[i] {
			return false
		}
	}
	return true
}

// RegionSimilarity computes a raw per-pixel absolute-difference ratio,
// used for fixed-region boundary search where a different sensitivity
// profile than correlation is wanted. Size mismatch returns 0.0.
func RegionSimilarity(a, b image.Image) float64 {
	if a == nil || b == nil {
		return 0
	}
	if a.Bounds().Dx() != b.Bounds().Dx() || a.Bounds().Dy() != b.Bounds().Dy() {
		return 0
	}
	return bandSimilarity(a, b, a.Bounds().Sub(a.Bounds().Min))
}

// bandSimilarity compares the rectangle r (zero-based coordinates) of
// image a against the same rectangle of b, returning the mean
// 1-|da-db|/255 over the band.
func bandSimilarity(a, b image.Image, r image.Rectangle) float64 {
	if r.Empty() {
		return 0
	}

	aMin := a.Bounds().Min
	bMin := b.Bounds().Min

	var total float64
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			ra, ga, ba, _ := a.At(aMin.X+x, aMin.Y+y).RGBA()
			rb, gb, bb, _ := b.At(bMin.X+x, bMin.Y+y).RGBA()
			la := (0.299*float64(ra) + 0.587*float64(ga) + 0.114*float64(ba)) / 257.0
			lb := (0.299*float64(rb) + 0.587*float64(gb) + 0.114*float64(bb)) / 257.0
			total += 1 - math.Abs(la-lb)/255.0
		}
	}
	return total / float64(r.Dx()*r.Dy())
}

// SameFrame reports whether two captures show the same screen content,
// used to detect "scrolling stopped". A cheap perceptual-hash gate
// filters out clearly different frames before the correlation pass.
func SameFrame(a, b image.Image, threshold float64) bool {
	if a == nil || b == nil {
		return false
	}
	if a.Bounds().Dx() != b.Bounds().Dx() || a.Bounds().Dy() != b.Bounds().Dy() {
		return false
	}

	ha, errA := goimagehash.PerceptionHash(a)
	hb, errB := goimagehash.PerceptionHash(b)
	if errA == nil && errB == nil {
		if dist, err := ha.Distance(hb); err == nil && dist > hashDistanceCutoff {
			return false
		}
	}

	return Similarity(a, b) >= threshold
}
