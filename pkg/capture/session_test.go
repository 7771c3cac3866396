package capture

import (
	"context"
	"errors"
	"image"
	"testing"

	"github.com/botts7/visual-mapper-sub000/pkg/config"
	"github.com/botts7/visual-mapper-sub000/pkg/core"
	"github.com/botts7/visual-mapper-sub000/pkg/driver/scripted"
)

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.SettleDelay = 1
	cfg.RetryDelay = 1
	return cfg
}

func listPage(contentHeight int) scripted.Page {
	return scripted.Page{
		Width:         120,
		Height:        1920,
		ContentHeight: contentHeight,
		HeaderHeight:  100,
		FooterHeight:  150,
		ItemHeight:    200,
	}
}

func intensityAt(img image.Image, y int) uint8 {
	r, _, _, _ := img.At(10, y).RGBA()
	return uint8(r >> 8)
}

func TestRunShortPageUsesBookend(t *testing.T) {
	dev := scripted.New(listPage(3000))

	res, err := CaptureScrollingScreenshot(context.Background(), dev, testConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if res.Metadata.Strategy != core.StrategyBookend {
		t.Errorf("expected bookend strategy, got %s", res.Metadata.Strategy)
	}
	if res.Metadata.ScrollCount != 1 {
		t.Errorf("expected scroll count 1, got %d", res.Metadata.ScrollCount)
	}
	if res.Metadata.CaptureCount != 2 {
		t.Errorf("expected 2 captures, got %d", res.Metadata.CaptureCount)
	}
	if res.Metadata.Partial {
		t.Error("short page must not be partial")
	}
	if len(res.DebugCaptures) != 2 {
		t.Errorf("expected 2 debug captures, got %d", len(res.DebugCaptures))
	}

	// Top capture is full height; the bottom capture (scrolled to 1080)
	// contributes below the lowest shared item's bottom edge plus buffer.
	if got := res.Image.Bounds().Dy(); got != 3115 {
		t.Errorf("expected stitched height 3115, got %d", got)
	}
	if got := res.Image.Bounds().Dx(); got != 120 {
		t.Errorf("expected width 120, got %d", got)
	}
}

func TestRunShortPageRetriesFlakyDumps(t *testing.T) {
	dev := scripted.New(listPage(3000))
	dev.FailDumps = 2

	res, err := CaptureScrollingScreenshot(context.Background(), dev, testConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Metadata.Strategy != core.StrategyBookend {
		t.Errorf("expected bookend strategy despite flaky dumps, got %s", res.Metadata.Strategy)
	}
}

func TestRunLongPageIncremental(t *testing.T) {
	dev := scripted.New(listPage(9600))

	res, err := CaptureScrollingScreenshot(context.Background(), dev, testConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if res.Metadata.Strategy != core.StrategyIncremental {
		t.Errorf("expected incremental strategy, got %s", res.Metadata.Strategy)
	}
	if res.Metadata.Partial {
		t.Error("expected complete (non-partial) result")
	}
	if res.Metadata.ScrollCount != 8 {
		t.Errorf("expected 8 scrolls, got %d", res.Metadata.ScrollCount)
	}
	if res.Metadata.CaptureCount != 9 {
		t.Errorf("expected 9 captures, got %d", res.Metadata.CaptureCount)
	}

	h := res.Image.Bounds().Dy()
	if h < 7900 || h > 8400 {
		t.Errorf("expected stitched height near 8150, got %d", h)
	}

	// Every list item has a unique intensity and a height of 200 rows:
	// if any item's rows span more than that in the output, its content
	// was stitched in twice.
	firstRow := map[uint8]int{}
	lastRow := map[uint8]int{}
	for y := 0; y < h; y++ {
		v := intensityAt(res.Image, y)
		if v == 250 || v == 5 {
			continue // sticky header / footer bands
		}
		if _, ok := firstRow[v]; !ok {
			firstRow[v] = y
		}
		lastRow[v] = y
	}
	for v, first := range firstRow {
		if span := lastRow[v] - first + 1; span > 200 {
			t.Errorf("item intensity %d spans %d rows, content duplicated", v, span)
		}
	}
}

func TestRunPixelOnlyDegrade(t *testing.T) {
	// No accessibility data at all and no sticky footer: every boundary
	// must come from pixel template matching, which on this page recovers
	// the exact scroll distance.
	page := listPage(5760)
	page.FooterHeight = 0
	dev := scripted.New(page)
	dev.NoElements = true

	res, err := CaptureScrollingScreenshot(context.Background(), dev, testConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if res.Metadata.Strategy != core.StrategyIncremental {
		t.Errorf("expected incremental strategy, got %s", res.Metadata.Strategy)
	}
	if res.Metadata.Partial {
		t.Error("expected complete result")
	}
	if res.Metadata.ScrollCount != 6 {
		t.Errorf("expected 6 scrolls, got %d", res.Metadata.ScrollCount)
	}
	if res.Metadata.CaptureCount != 6 {
		t.Errorf("expected 6 captures, got %d", res.Metadata.CaptureCount)
	}

	// Exact reconstruction: 1920 seed + 5 x 768 scroll steps.
	if got := res.Image.Bounds().Dy(); got != 5760 {
		t.Fatalf("expected stitched height 5760, got %d", got)
	}

	// Continuity probe: output row 1920 is the first row past the seed,
	// page row 1920 belongs to item 9.
	want := uint8(30 + (9*139)%199)
	if got := intensityAt(res.Image, 1920); got != want {
		t.Errorf("row 1920: expected item intensity %d, got %d", want, got)
	}
}

func TestRunEndlessPageHitsScrollCap(t *testing.T) {
	page := listPage(0)
	dev := scripted.New(page)
	dev.Endless = true

	cfg := testConfig()
	cfg.MaxScrolls = 6

	res, err := CaptureScrollingScreenshot(context.Background(), dev, cfg)
	if err != nil {
		t.Fatalf("expected partial result, not an error: %v", err)
	}

	if !res.Metadata.Partial {
		t.Error("expected partial result at the scroll cap")
	}
	if res.Metadata.ScrollCount != 6 {
		t.Errorf("expected exactly 6 scrolls, got %d", res.Metadata.ScrollCount)
	}
	if res.Metadata.Strategy != core.StrategyIncremental {
		t.Errorf("expected incremental strategy, got %s", res.Metadata.Strategy)
	}
	if res.Metadata.CaptureCount != 7 {
		t.Errorf("expected 7 captures (seed + 6 scrolls), got %d", res.Metadata.CaptureCount)
	}
}

func TestScrollToEdgeExhaustionKeepsFrameSynchronized(t *testing.T) {
	// An endless feed never settles at the bottom edge; the attempt cap
	// ends the loop right after a swipe. The returned capture must still
	// show the screen the element dump describes, not the frame from
	// before that last swipe.
	dev := scripted.New(listPage(0))
	dev.Endless = true

	s := NewSession(dev, testConfig())
	got, err := s.scrollToEdge(context.Background(), false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want, err := dev.Screenshot(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	for _, y := range []int{150, 500, 1000, 1500} {
		if a, b := intensityAt(got.Image, y), intensityAt(want, y); a != b {
			t.Errorf("row %d: capture intensity %d differs from current screen %d", y, a, b)
		}
	}
}

func TestRunWidthChangeMidRunFatal(t *testing.T) {
	dev := scripted.New(listPage(9600))
	dev.NarrowAfter = 3 // display narrows partway through the run

	_, err := CaptureScrollingScreenshot(context.Background(), dev, testConfig())
	if !errors.Is(err, core.ErrWidthMismatch) {
		t.Fatalf("expected ErrWidthMismatch, got %v", err)
	}
	// The mismatch must not be retried: exactly one screenshot call past
	// the narrowing point.
	if got := dev.ShotCalls(); got != 4 {
		t.Errorf("expected 4 screenshot calls, got %d", got)
	}
}

func TestRunFirstScreenshotFatal(t *testing.T) {
	dev := scripted.New(listPage(3000))
	dev.FailShots = 10 // outlasts the retries

	_, err := CaptureScrollingScreenshot(context.Background(), dev, testConfig())
	if !errors.Is(err, core.ErrFirstCapture) {
		t.Errorf("expected ErrFirstCapture, got %v", err)
	}
}

func TestRunContextCanceled(t *testing.T) {
	dev := scripted.New(listPage(3000))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := CaptureScrollingScreenshot(ctx, dev, testConfig())
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
