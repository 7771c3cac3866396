// Package capture drives the device transport through the bookend and
// incremental scrolling strategies, producing the ordered capture list
// the stitcher composes.
package capture

import (
	"context"
	"errors"
	"image"
	"time"

	"github.com/botts7/visual-mapper-sub000/pkg/config"
	"github.com/botts7/visual-mapper-sub000/pkg/core"
	"github.com/botts7/visual-mapper-sub000/pkg/fingerprint"
	"github.com/botts7/visual-mapper-sub000/pkg/imaging"
	"github.com/botts7/visual-mapper-sub000/pkg/logger"
	"github.com/botts7/visual-mapper-sub000/pkg/overlap"
	"github.com/botts7/visual-mapper-sub000/pkg/retry"
	"github.com/botts7/visual-mapper-sub000/pkg/stitcher"
)

const (
	// maxEdgeAttempts caps the swipe loop used to settle at the top or
	// bottom edge of the page.
	maxEdgeAttempts = 15

	// swipeDuration is the gesture duration passed to the transport.
	swipeDuration = 300 * time.Millisecond
)

var errEmptyDump = errors.New("element dump returned no elements")

// Session runs one scrolling capture against a single device. Sessions
// are single-use and must not be shared across goroutines; per-device
// serialization is the caller's responsibility (see pkg/devicelock).
type Session struct {
	transport core.Transport
	cfg       *config.Config
	calc      *overlap.Calculator
	stitch    *stitcher.Stitcher

	width  int
	height int
	first  bool
}

// NewSession creates a session for one capture run.
func NewSession(t core.Transport, cfg *config.Config) *Session {
	return &Session{
		transport: t,
		cfg:       cfg,
		calc:      overlap.New(cfg),
		stitch:    stitcher.New(cfg),
		first:     true,
	}
}

// CaptureScrollingScreenshot is the single operation this engine exposes:
// it scrolls the current page on the device and returns the stitched
// image with metadata and the raw per-step captures.
func CaptureScrollingScreenshot(ctx context.Context, t core.Transport, cfg *config.Config) (*core.StitchResult, error) {
	return NewSession(t, cfg).Run(ctx)
}

// Run executes the full capture state machine:
// REFRESH -> TOP -> BOTTOM -> bookend check -> short page, or
// incremental scrolling until the bottom region is recognized.
func (s *Session) Run(ctx context.Context) (*core.StitchResult, error) {
	start := time.Now()

	if err := s.refresh(ctx); err != nil {
		return nil, err
	}

	top, err := s.scrollToEdge(ctx, true)
	if err != nil {
		return nil, err
	}
	bottom, err := s.scrollToEdge(ctx, false)
	if err != nil {
		return nil, err
	}

	var (
		captures []core.Capture
		meta     core.Metadata
	)

	if boundary, ok := s.calc.Bookend(top, bottom); ok {
		logger.Info("bookend overlap found, short page: boundary=%d", boundary)
		bottom.CropTop = boundary
		captures = []core.Capture{top, bottom}
		meta.Strategy = core.StrategyBookend
		meta.ScrollCount = 1
	} else {
		logger.Info("no bookend overlap, falling back to incremental scrolling")
		captures, meta, err = s.incremental(ctx, bottom)
		if err != nil {
			return nil, err
		}
	}

	img, err := s.stitch.Stitch(captures)
	if err != nil {
		return nil, err
	}

	meta.CaptureCount = len(captures)
	meta.Duration = time.Since(start)

	debug := make([]image.Image, 0, len(captures))
	for _, c := range captures {
		debug = append(debug, c.Image)
	}

	return &core.StitchResult{Image: img, Metadata: meta, DebugCaptures: debug}, nil
}

// incremental re-seeds at the top of the page and scrolls down one step
// at a time. Each step's capture contributes from its first newly-seen
// element; the loop ends when an element from the bottom capture shows
// up, when two consecutive frames stop changing, or at the scroll cap
// (partial but valid result).
func (s *Session) incremental(ctx context.Context, bottom core.Capture) ([]core.Capture, core.Metadata, error) {
	seed, err := s.scrollToEdge(ctx, true)
	if err != nil {
		return nil, core.Metadata{}, err
	}

	meta := core.Metadata{Strategy: core.StrategyIncremental}
	captures := []core.Capture{seed}
	seen := fingerprint.Keys(seed.Elements)
	bottomKeys := fingerprint.Keys(bottom.Elements)
	prev := seed

	for i := 0; i < s.cfg.MaxScrolls; i++ {
		if err := s.scrollStep(ctx); err != nil {
			return nil, core.Metadata{}, err
		}
		meta.ScrollCount++

		img, err := s.screenshot(ctx)
		if err != nil {
			// A dimension change mid-run (rotation, resolution switch)
			// invalidates every offset computed so far.
			if errors.Is(err, core.ErrWidthMismatch) {
				return nil, core.Metadata{}, err
			}
			logger.Error("screenshot failed mid-scroll, keeping partial result: %v", err)
			meta.Partial = true
			break
		}

		// Backup stop: identical frames mean the page stopped moving,
		// regardless of what the element dumps claim.
		if imaging.SameFrame(prev.Image, img, s.cfg.DuplicateThreshold) {
			logger.Info("frame unchanged after scroll %d, reached page end", i+1)
			break
		}

		elements := s.dumpElements(ctx)
		cap := core.Capture{Image: img, Elements: elements}

		if len(elements) > 0 {
			newKeys, minNewY := s.unseenElements(elements, seen)

			if s.anyKeyIn(newKeys, bottomKeys) {
				bottom.CropTop = s.calc.OverlapEnd(cap, bottom)
				captures = append(captures, bottom)
				logger.Info("bottom region reached after %d scrolls, boundary=%d", meta.ScrollCount, bottom.CropTop)
				return captures, meta, nil
			}

			if len(newKeys) > 0 && minNewY > 0 {
				cap.CropTop = minNewY
			} else {
				cap.CropTop = s.boundaryFromOffset(prev, cap)
			}
			for k := range newKeys {
				seen[k] = struct{}{}
			}
		} else {
			cap.CropTop = s.boundaryFromOffset(prev, cap)
		}

		if footer := imaging.FixedBottomHeight(prev.Image, img, s.cfg.FixedRegionThreshold); footer > 0 {
			cap.CropBottom = s.height - footer
		}

		captures = append(captures, cap)
		prev = cap

		if i == s.cfg.MaxScrolls-1 {
			logger.Warn("scroll cap %d reached, returning partial result", s.cfg.MaxScrolls)
			meta.Partial = true
		}
	}

	return captures, meta, nil
}

// unseenElements returns the keys not yet in seen and the top edge of
// the topmost newly-seen element.
func (s *Session) unseenElements(elements []core.Element, seen map[string]struct{}) (map[string]struct{}, int) {
	newKeys := make(map[string]struct{})
	minY := -1
	for _, e := range elements {
		k, ok := fingerprint.Key(e)
		if !ok {
			continue
		}
		if _, old := seen[k]; old {
			continue
		}
		newKeys[k] = struct{}{}
		if minY < 0 || e.Bounds.Y < minY {
			minY = e.Bounds.Y
		}
	}
	if minY < 0 {
		minY = 0
	}
	if minY > s.height {
		minY = s.height
	}
	return newKeys, minY
}

func (s *Session) anyKeyIn(keys map[string]struct{}, set map[string]struct{}) bool {
	for k := range keys {
		if _, ok := set[k]; ok {
			return true
		}
	}
	return false
}

// boundaryFromOffset derives a crop boundary when no new element marks
// it: new content begins where the resolved scroll offset says the
// previous capture's coverage ends.
func (s *Session) boundaryFromOffset(prev, curr core.Capture) int {
	res := s.calc.Resolve(prev, curr)
	boundary := s.height - res.Pixels
	if boundary < 0 {
		boundary = 0
	}
	if boundary > s.height {
		boundary = s.height
	}
	logger.Debug("crop boundary %d derived via %s (confidence %.2f)", boundary, res.Method, res.Confidence)
	return boundary
}

// refresh performs the configured pull-to-refresh gestures so dynamic
// content settles before measurement begins.
func (s *Session) refresh(ctx context.Context) error {
	// The first screenshot both validates the device and fixes the
	// screen dimensions used by every gesture.
	if _, err := s.screenshot(ctx); err != nil {
		return err
	}

	for i := 0; i < s.cfg.RefreshCount; i++ {
		if err := s.swipeTowardTop(ctx); err != nil {
			return err
		}
		if err := s.settle(ctx); err != nil {
			return err
		}
	}
	return nil
}

// scrollToEdge swipes repeatedly toward one edge until two consecutive
// captures stop changing (or attempts run out), then captures the final
// image and element list there.
func (s *Session) scrollToEdge(ctx context.Context, top bool) (core.Capture, error) {
	var prev image.Image

	var img image.Image
	settled := false
	for attempt := 0; attempt < maxEdgeAttempts; attempt++ {
		var err error
		img, err = s.screenshot(ctx)
		if err != nil {
			return core.Capture{}, err
		}
		if prev != nil && imaging.SameFrame(prev, img, s.cfg.DuplicateThreshold) {
			settled = true
			break
		}
		prev = img

		if top {
			err = s.swipeTowardTop(ctx)
		} else {
			err = s.swipeTowardBottom(ctx)
		}
		if err != nil {
			return core.Capture{}, err
		}
		if err := s.settle(ctx); err != nil {
			return core.Capture{}, err
		}
	}

	if !settled {
		// Attempts ran out right after a swipe: the last screenshot shows
		// the scroll position before that swipe. Re-capture so the image
		// and the element dump below describe the same screen.
		logger.Warn("edge not reached after %d attempts, capturing current position", maxEdgeAttempts)
		var err error
		img, err = s.screenshot(ctx)
		if err != nil {
			return core.Capture{}, err
		}
	}

	return core.Capture{Image: img, Elements: s.dumpElements(ctx)}, nil
}

// scrollStep performs one incremental scroll of the configured ratio.
func (s *Session) scrollStep(ctx context.Context) error {
	dist := int(s.cfg.ScrollRatio * float64(s.height))
	x := s.width / 2
	y1 := s.height * 3 / 4
	y2 := y1 - dist
	if y2 < s.height/20 {
		y2 = s.height / 20
	}
	if err := s.transport.Swipe(ctx, x, y1, x, y2, swipeDuration); err != nil {
		return core.ErrDeviceUnavailable.WithCause(err)
	}
	return s.settle(ctx)
}

func (s *Session) swipeTowardTop(ctx context.Context) error {
	x := s.width / 2
	if err := s.transport.Swipe(ctx, x, s.height/4, x, s.height*3/4, swipeDuration); err != nil {
		return core.ErrDeviceUnavailable.WithCause(err)
	}
	return nil
}

func (s *Session) swipeTowardBottom(ctx context.Context) error {
	x := s.width / 2
	if err := s.transport.Swipe(ctx, x, s.height*3/4, x, s.height/4, swipeDuration); err != nil {
		return core.ErrDeviceUnavailable.WithCause(err)
	}
	return nil
}

// screenshot captures with retries. The very first screenshot of the run
// is fatal on failure (nothing to build on); later ones surface their
// error to the caller for partial-result handling. Every capture must
// match the first capture's width.
func (s *Session) screenshot(ctx context.Context) (image.Image, error) {
	var img image.Image
	err := retry.Do(ctx, s.cfg.DumpRetries, s.cfg.RetryWait(), func() error {
		shot, err := s.transport.Screenshot(ctx)
		if err != nil {
			return err
		}
		if !s.first && (shot.Bounds().Dx() != s.width || shot.Bounds().Dy() != s.height) {
			// Retrying cannot undo a rotation or resolution switch.
			return retry.Permanent(core.ErrWidthMismatch)
		}
		img = shot
		return nil
	})
	if err != nil {
		if errors.Is(err, core.ErrWidthMismatch) {
			return nil, core.ErrWidthMismatch
		}
		if s.first {
			return nil, core.ErrFirstCapture.WithCause(err)
		}
		return nil, core.ErrDeviceUnavailable.WithCause(err)
	}

	if s.first {
		s.width = img.Bounds().Dx()
		s.height = img.Bounds().Dy()
		s.first = false
	}
	return img, nil
}

// dumpElements retries flaky accessibility dumps, then degrades to an
// empty list so the step falls back to pixel-only comparison.
func (s *Session) dumpElements(ctx context.Context) []core.Element {
	var elements []core.Element
	err := retry.Do(ctx, s.cfg.DumpRetries, s.cfg.RetryWait(), func() error {
		var err error
		elements, err = s.transport.UIElements(ctx)
		if err != nil {
			return err
		}
		if len(elements) == 0 {
			return errEmptyDump
		}
		return nil
	})
	if err != nil {
		logger.Warn("element dump unavailable, degrading to pixel-only: %v", err)
		return nil
	}
	return elements
}

// settle waits the fixed post-gesture delay. There is no reliable
// device-side "animation complete" signal to poll for.
func (s *Session) settle(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(s.cfg.SettleWait()):
		return nil
	}
}
