package core

import (
	"context"
	"image"
	"time"
)

// Transport is the narrow device contract the capture loop depends on.
// Implementations: ADB, scripted (tests).
//
// Every call is I/O against a single device. Calls against the same device
// must not be interleaved: a swipe changes device-side scroll state that
// the next screenshot depends on.
type Transport interface {
	// Screenshot captures the current screen.
	Screenshot(ctx context.Context) (image.Image, error)

	// UIElements dumps the accessibility hierarchy as a flat element list.
	// A nil/empty list on transient failure is legitimate; callers degrade
	// to pixel-only comparison.
	UIElements(ctx context.Context) ([]Element, error)

	// Swipe performs a touch gesture from (x1,y1) to (x2,y2). Fire and
	// forget: nothing beyond the error is inspected.
	Swipe(ctx context.Context, x1, y1, x2, y2 int, duration time.Duration) error
}
