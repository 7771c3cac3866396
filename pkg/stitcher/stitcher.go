// Package stitcher composes the final image from an ordered capture list,
// cropping each capture to its unique contribution and pasting at the
// computed vertical offsets.
package stitcher

import (
	"image"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/botts7/visual-mapper-sub000/pkg/config"
	"github.com/botts7/visual-mapper-sub000/pkg/core"
	"github.com/botts7/visual-mapper-sub000/pkg/fingerprint"
	"github.com/botts7/visual-mapper-sub000/pkg/imaging"
	"github.com/botts7/visual-mapper-sub000/pkg/logger"
	"github.com/botts7/visual-mapper-sub000/pkg/overlap"
)

const (
	// Bands treated as fixed chrome when pairing elements between two
	// free-standing captures: top 15% (status bar, app bar) and bottom
	// 20% (nav bar, sticky footer) of the screen.
	headerBandRatio = 0.15
	footerBandRatio = 0.20

	// minElementOffset filters trivial position deltas that come from
	// non-moving duplicates rather than actual scrolling.
	minElementOffset = 100

	// headerProbeY: a shared element starting this close to the top edge
	// is taken as the sticky header.
	headerProbeY = 10

	// heightGuardFactor: a stitched image taller than this many screens
	// points at a duplicate-content loop and is logged, not rejected.
	heightGuardFactor = 10
)

// Stitcher composes captures into one tall image.
type Stitcher struct {
	calc                 *overlap.Calculator
	fixedRegionThreshold float64
	headerFloor          int
}

// New creates a Stitcher from config.
func New(cfg *config.Config) *Stitcher {
	return &Stitcher{
		calc:                 overlap.New(cfg),
		fixedRegionThreshold: cfg.FixedRegionThreshold,
		headerFloor:          cfg.HeaderFloor,
	}
}

// Stitch composes the ordered capture list into a single image. A single
// capture is returned unchanged. Captures of differing widths are a fatal
// precondition violation.
func (s *Stitcher) Stitch(captures []core.Capture) (image.Image, error) {
	if len(captures) == 0 {
		return nil, core.ErrNoCaptures
	}
	if len(captures) == 1 {
		return captures[0].Image, nil
	}

	width := captures[0].Width()
	for _, c := range captures[1:] {
		if c.Width() != width {
			return nil, core.ErrWidthMismatch
		}
	}

	// Two free-standing captures without crop hints get the full
	// header-aware alignment treatment.
	if len(captures) == 2 && captures[1].CropTop <= 0 {
		return s.stitchPair(captures[0], captures[1]), nil
	}

	return s.stitchChain(captures), nil
}

// stitchPair aligns two captures of the same page: the scroll distance
// comes from shared-element deltas, the second capture loses its own
// fixed header, and the paste offset is inflated by the header height to
// keep vertical continuity (the header is physically present in the full
// page even though it is cropped from the second capture).
func (s *Stitcher) stitchPair(a, b core.Capture) image.Image {
	screenH := a.Height()

	offset := s.pairOffset(a, b, screenH)
	header := s.headerHeight(a, b, screenH)

	top := imaging.CropVertical(a.Image, 0, offset+header)
	rest := imaging.CropVertical(b.Image, header, screenH)

	totalH := top.Bounds().Dy() + rest.Bounds().Dy()
	s.guardHeight(totalH, screenH)

	canvas := imaging.NewCanvas(a.Width(), totalH)
	imaging.Paste(canvas, top, 0)
	imaging.Paste(canvas, rest, top.Bounds().Dy())

	logger.Info("stitched pair: offset=%d header=%d height=%d", offset, header, totalH)
	return canvas
}

// pairOffset computes the scroll distance between two captures from the
// median non-trivial delta of shared elements outside the chrome bands,
// falling back to the pixel/default chain when no element qualifies.
func (s *Stitcher) pairOffset(a, b core.Capture, screenH int) int {
	minY := int(headerBandRatio * float64(screenH))
	maxY := screenH - int(footerBandRatio*float64(screenH))

	aCenters := fingerprint.CenterMap(a.Elements, minY, maxY)
	bCenters := fingerprint.CenterMap(b.Elements, minY, maxY)

	var offsets []float64
	for k, ay := range aCenters {
		by, ok := bCenters[k]
		if !ok {
			continue
		}
		if d := ay - by; d > minElementOffset {
			offsets = append(offsets, float64(d))
		}
	}
	if len(offsets) == 0 {
		res := s.calc.Resolve(a, b)
		logger.Debug("pair offset via %s: %d", res.Method, res.Pixels)
		return res.Pixels
	}

	sort.Float64s(offsets)
	return int(stat.Quantile(0.5, stat.Empirical, offsets, nil))
}

// headerHeight finds the sticky header in capture b: a shared element
// pinned to the top edge wins, then pixel comparison, with a floor for
// the Android status/app bar that is always present.
func (s *Stitcher) headerHeight(a, b core.Capture, screenH int) int {
	header := 0

	aKeys := fingerprint.Keys(a.Elements)
	bandLimit := int(headerBandRatio * float64(screenH))
	for k, e := range fingerprint.ElementMap(b.Elements) {
		if _, shared := aKeys[k]; !shared {
			continue
		}
		if e.Bounds.Y < headerProbeY && e.Bounds.Bottom() < bandLimit {
			if e.Bounds.Bottom() > header {
				header = e.Bounds.Bottom()
			}
		}
	}

	if header == 0 {
		header = imaging.FixedTopHeight(a.Image, b.Image, s.fixedRegionThreshold)
	}
	if header < s.headerFloor {
		header = s.headerFloor
	}
	return header
}

// stitchChain composes an incremental capture sequence: each capture
// after the first contributes the band from its crop boundary (first
// newly-seen content) down to its bottom crop, pasted below the running
// total.
func (s *Stitcher) stitchChain(captures []core.Capture) image.Image {
	screenH := captures[0].Height()

	type segment struct {
		img image.Image
		top int
		bot int
	}

	segments := make([]segment, 0, len(captures))
	totalH := 0
	for i, c := range captures {
		top := c.CropTop
		bot := c.CropBottom
		if bot <= 0 || bot > c.Height() {
			bot = c.Height()
		}
		if i > 0 && top <= 0 {
			// Missing boundary hint: derive it from the offset chain.
			res := s.calc.Resolve(captures[i-1], c)
			top = clamp(c.Height()-res.Pixels, 0, c.Height())
			logger.Debug("capture %d: derived crop boundary %d via %s", i, top, res.Method)
		}
		if top > bot {
			top = bot
		}
		segments = append(segments, segment{img: c.Image, top: top, bot: bot})
		totalH += bot - top
	}

	s.guardHeight(totalH, screenH)

	canvas := imaging.NewCanvas(captures[0].Width(), totalH)
	y := 0
	for _, seg := range segments {
		band := imaging.CropVertical(seg.img, seg.top, seg.bot)
		imaging.Paste(canvas, band, y)
		y += band.Bounds().Dy()
	}

	logger.Info("stitched chain: captures=%d height=%d", len(captures), totalH)
	return canvas
}

// guardHeight flags implausibly tall results. The best-effort image is
// still returned; the caller judges plausibility from metadata and logs.
func (s *Stitcher) guardHeight(totalH, screenH int) {
	if screenH > 0 && totalH > heightGuardFactor*screenH {
		logger.Warn("stitched height %d exceeds %dx screen height, possible duplicate-content loop", totalH, heightGuardFactor)
	}
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
