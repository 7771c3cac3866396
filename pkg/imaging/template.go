package imaging

import (
	"image"
	"math"
)

// xSampleStep subsamples columns during template search. Vertical overlap
// detection needs row precision, not column precision, and full-width
// correlation at every candidate row is wasteful.
const xSampleStep = 2

// MatchTemplate searches for a full-width horizontal band (the template)
// within the vertical range [searchTop, searchBottom) of img, using
// zero-mean normalized cross-correlation at each candidate row.
//
// Returns the best-matching y position in img and the match score in
// [0,1]. Returns (-1, 0) when the search is not possible (width mismatch
// or no candidate rows).
func MatchTemplate(img, tmpl image.Image, searchTop, searchBottom int) (int, float64) {
	if img == nil || tmpl == nil {
		return -1, 0
	}
	w := img.Bounds().Dx()
	if tmpl.Bounds().Dx() != w {
		return -1, 0
	}

	imgH := img.Bounds().Dy()
	tmplH := tmpl.Bounds().Dy()
	if tmplH == 0 || tmplH > imgH {
		return -1, 0
	}

	if searchTop < 0 {
		searchTop = 0
	}
	if searchBottom > imgH {
		searchBottom = imgH
	}
	lastY := searchBottom - tmplH
	if lastY < searchTop {
		return -1, 0
	}

	pi, _, _ := grayPlane(img)
	pt, _, _ := grayPlane(tmpl)

	sample := sampleRows(pt, w, 0, tmplH)
	bestY, bestScore := -1, math.Inf(-1)
	for y := searchTop; y <= lastY; y++ {
		score := correlate(sampleRows(pi, w, y, tmplH), sample)
		if score > bestScore {
			bestScore = score
			bestY = y
		}
	}

	if bestY < 0 {
		return -1, 0
	}
	return bestY, bestScore
}

// sampleRows extracts a column-subsampled band of rows [top, top+h) from
// a row-major intensity plane of width w.
func sampleRows(plane []float64, w, top, h int) []float64 {
	out := make([]float64, 0, (h*w)/xSampleStep+h)
	for y := top; y < top+h; y++ {
		row := y * w
		for x := 0; x < w; x += xSampleStep {
			out = append(out, plane[row+x])
		}
	}
	return out
}
