// Package overlap determines how far content has scrolled between two
// captures, and where one capture's duplicate content ends in the next.
//
// Strategies are ordered by reliability: shared-element positions first,
// pixel template matching second, a fixed overlap ratio last. The chain
// never fails; an approximate stitch beats no stitch.
package overlap

import (
	"image"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/botts7/visual-mapper-sub000/pkg/config"
	"github.com/botts7/visual-mapper-sub000/pkg/core"
	"github.com/botts7/visual-mapper-sub000/pkg/fingerprint"
	"github.com/botts7/visual-mapper-sub000/pkg/imaging"
	"github.com/botts7/visual-mapper-sub000/pkg/logger"
)

// Method identifies which strategy produced an offset.
type Method string

// Offset resolution methods, highest reliability first.
const (
	MethodElements Method = "elements"
	MethodTemplate Method = "template"
	MethodDefault  Method = "default"
)

// Result is a resolved vertical offset between two consecutive captures.
// Pixels is positive when content scrolled down (finger swiped up).
type Result struct {
	Pixels     int
	Confidence float64
	Method     Method
}

const (
	// bookendMinShared is the number of shared fingerprints required to
	// call a page "short" (top and bottom captures already overlap).
	bookendMinShared = 3

	// navBarExclusionRatio excludes the bottom band of the screen when
	// anchoring the overlap end, so a fixed nav bar is never mistaken
	// for page content.
	navBarExclusionRatio = 0.15

	// overlapEndBuffer is added below the anchoring element's bottom edge.
	overlapEndBuffer = 5

	// Band excluded from element-offset computation: fixed chrome lives
	// in the top 10% and bottom 10% of the screen.
	offsetBandTopRatio    = 0.10
	offsetBandBottomRatio = 0.90

	// offsetConsistencyPx is the window around the median used for the
	// confidence score.
	offsetConsistencyPx = 20

	// nearZeroOffset marks a median too small to be a real scroll; the
	// maximum offset is preferred then, since most matched elements were
	// probably non-moving duplicates.
	nearZeroOffset = 10
)

// Calculator resolves overlaps and offsets between captures.
type Calculator struct {
	overlapRatio float64
	matchQuality float64
}

// New creates a Calculator from config.
func New(cfg *config.Config) *Calculator {
	return &Calculator{
		overlapRatio: cfg.OverlapRatio,
		matchQuality: cfg.MatchQualityThreshold,
	}
}

// Bookend checks whether the top and bottom captures of a page already
// overlap. When at least bookendMinShared fingerprints are shared, the
// page is short: the returned boundary is the y pixel in the bottom
// capture where the duplicated content ends.
func (c *Calculator) Bookend(top, bottom core.Capture) (int, bool) {
	shared := fingerprint.Common(
		fingerprint.Keys(top.Elements),
		fingerprint.Keys(bottom.Elements),
	)
	if len(shared) < bookendMinShared {
		return 0, false
	}
	return c.OverlapEnd(top, bottom), true
}

// OverlapEnd finds the y pixel in curr below which content has not been
// seen in prev. The anchor is the lowest shared element outside the
// nav-bar exclusion zone; without one, a fixed overlap ratio applies.
func (c *Calculator) OverlapEnd(prev, curr core.Capture) int {
	screenH := curr.Height()
	navZoneTop := screenH - int(navBarExclusionRatio*float64(screenH))

	prevKeys := fingerprint.Keys(prev.Elements)
	currByKey := fingerprint.ElementMap(curr.Elements)

	var anchors []core.Element
	for k, e := range currByKey {
		if _, ok := prevKeys[k]; ok {
			anchors = append(anchors, e)
		}
	}

	// Lowest first; skip anything anchored inside the nav-bar zone.
	sort.Slice(anchors, func(i, j int) bool {
		return anchors[i].Bounds.CenterY() > anchors[j].Bounds.CenterY()
	})
	for _, e := range anchors {
		if e.Bounds.CenterY() >= navZoneTop {
			continue
		}
		return clampY(e.Bounds.Bottom()+overlapEndBuffer, screenH)
	}

	logger.Debug("overlap end: no usable shared element, using default ratio")
	return int(c.overlapRatio * float64(screenH))
}

// MedianOffset computes the scroll distance between two consecutive
// captures from the per-element position deltas of shared fingerprints,
// restricted to the mid-screen band. The median is used for robustness
// against a single mismatched element.
func (c *Calculator) MedianOffset(prevEls, currEls []core.Element, screenH int) (Result, bool) {
	minY := int(offsetBandTopRatio * float64(screenH))
	maxY := int(offsetBandBottomRatio * float64(screenH))

	prevCenters := fingerprint.CenterMap(prevEls, minY, maxY)
	currCenters := fingerprint.CenterMap(currEls, minY, maxY)

	var offsets []float64
	maxOffset := 0
	for k, py := range prevCenters {
		cy, ok := currCenters[k]
		if !ok {
			continue
		}
		off := py - cy
		offsets = append(offsets, float64(off))
		if off > maxOffset {
			maxOffset = off
		}
	}
	if len(offsets) == 0 {
		return Result{}, false
	}

	sort.Float64s(offsets)
	median := stat.Quantile(0.5, stat.Empirical, offsets, nil)

	consistent := 0
	for _, off := range offsets {
		if off >= median-offsetConsistencyPx && off <= median+offsetConsistencyPx {
			consistent++
		}
	}
	confidence := float64(consistent) / float64(len(offsets))

	pixels := int(median)
	if pixels < nearZeroOffset && maxOffset > pixels {
		logger.Debug("median offset %d near zero, preferring max offset %d", pixels, maxOffset)
		pixels = maxOffset
	}

	return Result{Pixels: pixels, Confidence: confidence, Method: MethodElements}, true
}

// TemplateOffset finds the scroll distance by locating the bottom band of
// the previous capture within the top portion of the current one. Used
// when no shared elements exist or element dumps are unreliable. A low
// match score is logged but still used; slight misalignment is tolerated
// over hard failure.
func (c *Calculator) TemplateOffset(prevImg, currImg image.Image) (Result, bool) {
	if prevImg == nil || currImg == nil {
		return Result{}, false
	}
	h := prevImg.Bounds().Dy()
	if currImg.Bounds().Dy() != h || currImg.Bounds().Dx() != prevImg.Bounds().Dx() {
		return Result{}, false
	}

	overlapH := int(c.overlapRatio * float64(h))
	if overlapH <= 0 {
		return Result{}, false
	}

	tmpl := imaging.CropVertical(prevImg, h-overlapH, h)
	matchY, score := imaging.MatchTemplate(currImg, tmpl, 0, 2*overlapH)
	if matchY < 0 {
		return Result{}, false
	}
	if score < c.matchQuality {
		logger.Warn("template match score %.2f below threshold %.2f, using anyway", score, c.matchQuality)
	}

	pixels := (h - overlapH) - matchY
	if pixels < 0 {
		pixels = 0
	}
	return Result{Pixels: pixels, Confidence: score, Method: MethodTemplate}, true
}

// Resolve runs the fallback chain for a consecutive capture pair:
// element median offset, then pixel template match, then the configured
// fixed ratio. It never fails.
func (c *Calculator) Resolve(prev, curr core.Capture) Result {
	screenH := curr.Height()

	if res, ok := c.MedianOffset(prev.Elements, curr.Elements, screenH); ok {
		return res
	}
	if res, ok := c.TemplateOffset(prev.Image, curr.Image); ok {
		return res
	}

	logger.Debug("offset resolution fell through to default ratio")
	return Result{
		Pixels: int(c.overlapRatio * float64(screenH)),
		Method: MethodDefault,
	}
}

func clampY(y, h int) int {
	if y < 0 {
		return 0
	}
	if y > h {
		return h
	}
	return y
}
