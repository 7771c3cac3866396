// Package scripted provides an in-memory Transport that renders a virtual
// scrollable page, for exercising the capture loop without a device.
package scripted

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"sync"
	"time"

	"github.com/botts7/visual-mapper-sub000/pkg/core"
)

// Page describes the virtual page the transport renders. Content is a
// vertical list of fixed-height items under a sticky header, above a
// sticky footer. Item rows get a distinct intensity per item so stitched
// output can be verified pixel by pixel.
type Page struct {
	Width         int
	Height        int
	ContentHeight int
	HeaderHeight  int
	FooterHeight  int
	ItemHeight    int
}

// Gesture records one Swipe call.
type Gesture struct {
	X1, Y1, X2, Y2 int
}

const (
	headerIntensity = 250
	footerIntensity = 5
)

// itemIntensity assigns each item a distinct intensity. The multiplier is
// coprime to the prime modulus, so values are unique for any window of
// fewer than 199 items and consecutive items do not form an intensity
// gradient that would fool correlation checks.
func itemIntensity(idx int) uint8 {
	return uint8(30 + (idx*139)%199)
}

// Transport simulates a device showing the configured page. The scroll
// position moves by the vertical delta of each swipe, clamped to the
// content bounds.
type Transport struct {
	page Page

	// FailShots makes the first N Screenshot calls fail.
	FailShots int
	// NarrowAfter makes every screenshot after the first N render at half
	// width, simulating a mid-run display change.
	NarrowAfter int
	// FailDumps makes the first N UIElements calls fail.
	FailDumps int
	// NoElements makes every dump return an empty list.
	NoElements bool
	// Endless removes the lower content bound, as if the page loaded
	// more content forever.
	Endless bool

	mu        sync.Mutex
	pos       int
	shotCalls int
	dumpCalls int
	swipes    []Gesture
}

// New creates a transport positioned at the top of the page.
func New(page Page) *Transport {
	return &Transport{page: page}
}

// Position returns the current scroll offset.
func (t *Transport) Position() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.pos
}

// Swipes returns all gestures received so far.
func (t *Transport) Swipes() []Gesture {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Gesture, len(t.swipes))
	copy(out, t.swipes)
	return out
}

// Screenshot renders the viewport at the current scroll position.
func (t *Transport) Screenshot(ctx context.Context) (image.Image, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.shotCalls++
	if t.shotCalls <= t.FailShots {
		return nil, fmt.Errorf("screencap failed (simulated, call %d)", t.shotCalls)
	}

	width := t.page.Width
	if t.NarrowAfter > 0 && t.shotCalls > t.NarrowAfter {
		width /= 2
	}

	img := image.NewRGBA(image.Rect(0, 0, width, t.page.Height))
	for y := 0; y < t.page.Height; y++ {
		v := t.rowIntensity(y)
		for x := 0; x < width; x++ {
			img.SetRGBA(x, y, color.RGBA{v, v, v, 255})
		}
	}
	return img, nil
}

// ShotCalls returns how many Screenshot calls were made.
func (t *Transport) ShotCalls() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.shotCalls
}

func (t *Transport) rowIntensity(y int) uint8 {
	if y < t.page.HeaderHeight {
		return headerIntensity
	}
	if t.page.FooterHeight > 0 && y >= t.page.Height-t.page.FooterHeight {
		return footerIntensity
	}
	return itemIntensity((t.pos + y) / t.page.ItemHeight)
}

// UIElements reports the header, footer and every item intersecting the
// visible content band, with bounds clipped to the viewport the way a
// real accessibility dump clips partially visible nodes.
func (t *Transport) UIElements(ctx context.Context) ([]core.Element, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.dumpCalls++
	if t.dumpCalls <= t.FailDumps {
		return nil, fmt.Errorf("uiautomator dump failed (simulated, call %d)", t.dumpCalls)
	}
	if t.NoElements {
		return nil, nil
	}

	var out []core.Element
	if t.page.HeaderHeight > 0 {
		out = append(out, t.element("header", "Header", 0, t.page.HeaderHeight))
	}

	bandTop := t.pos + t.page.HeaderHeight
	bandBottom := t.pos + t.page.Height - t.page.FooterHeight

	first := bandTop / t.page.ItemHeight
	for i := first; i*t.page.ItemHeight < bandBottom; i++ {
		if !t.Endless && i*t.page.ItemHeight >= t.page.ContentHeight {
			break
		}
		top := i * t.page.ItemHeight
		bottom := top + t.page.ItemHeight
		if top < bandTop {
			top = bandTop
		}
		if bottom > bandBottom {
			bottom = bandBottom
		}
		if bottom <= top {
			continue
		}
		out = append(out, t.element(
			fmt.Sprintf("item_%d", i),
			fmt.Sprintf("Row %d", i),
			top-t.pos, bottom-top,
		))
	}

	if t.page.FooterHeight > 0 {
		out = append(out, t.element("nav_bar", "Navigation", t.page.Height-t.page.FooterHeight, t.page.FooterHeight))
	}
	return out, nil
}

func (t *Transport) element(id, text string, y, h int) core.Element {
	return core.Element{
		Text:       text,
		ResourceID: id,
		ClassName:  "android.widget.TextView",
		Bounds:     core.Bounds{X: 0, Y: y, Width: t.page.Width, Height: h},
		Visible:    true,
		Enabled:    true,
	}
}

// Swipe moves the scroll position by the gesture's vertical delta.
// Swiping up (y1 > y2) scrolls content down.
func (t *Transport) Swipe(ctx context.Context, x1, y1, x2, y2 int, duration time.Duration) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.swipes = append(t.swipes, Gesture{X1: x1, Y1: y1, X2: x2, Y2: y2})
	t.pos += y1 - y2
	if t.pos < 0 {
		t.pos = 0
	}
	if !t.Endless {
		maxPos := t.page.ContentHeight - t.page.Height
		if maxPos < 0 {
			maxPos = 0
		}
		if t.pos > maxPos {
			t.pos = maxPos
		}
	}
	return nil
}
