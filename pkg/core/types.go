// Package core defines the shared types for the scrolling-screenshot
// engine: UI elements, captures, stitch results, and the device transport
// contract implemented by drivers.
package core

import (
	"image"
	"time"
)

// Element is one leaf node of an accessibility hierarchy dump at a single
// point in time. Elements are produced fresh on every dump and never
// mutated afterwards.
type Element struct {
	Text        string `json:"text,omitempty"`
	ResourceID  string `json:"resourceId,omitempty"`
	ContentDesc string `json:"contentDesc,omitempty"`
	ClassName   string `json:"class,omitempty"`
	Bounds      Bounds `json:"bounds"`
	Clickable   bool   `json:"clickable,omitempty"`
	Visible     bool   `json:"visible,omitempty"`
	Enabled     bool   `json:"enabled,omitempty"`
	Focused     bool   `json:"focused,omitempty"`
	Scrollable  bool   `json:"scrollable,omitempty"`
}

// Bounds represents element position and size.
type Bounds struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Center returns the center point of the bounds.
func (b Bounds) Center() (int, int) {
	return b.X + b.Width/2, b.Y + b.Height/2
}

// CenterY returns the vertical center of the bounds.
func (b Bounds) CenterY() int {
	return b.Y + b.Height/2
}

// Bottom returns the y coordinate of the bottom edge.
func (b Bounds) Bottom() int {
	return b.Y + b.Height
}

// Contains checks if a point is within the bounds.
func (b Bounds) Contains(x, y int) bool {
	return x >= b.X && x < b.X+b.Width && y >= b.Y && y < b.Y+b.Height
}

// Capture is one screenshot plus its synchronized element list at one
// scroll position. CropTop/CropBottom mark the vertical band this capture
// contributes to the stitched image; they are computed by the capture
// loop, not observed on the device.
type Capture struct {
	Image    image.Image
	Elements []Element

	// CropTop is the y pixel where this capture's previously-unseen
	// content begins. 0 means the whole capture is new.
	CropTop int

	// CropBottom is the y pixel where this capture's contribution ends.
	// 0 means the full image height.
	CropBottom int
}

// Width returns the capture image width in pixels.
func (c Capture) Width() int {
	if c.Image == nil {
		return 0
	}
	return c.Image.Bounds().Dx()
}

// Height returns the capture image height in pixels.
func (c Capture) Height() int {
	if c.Image == nil {
		return 0
	}
	return c.Image.Bounds().Dy()
}

// Stitch strategies.
const (
	StrategyBookend     = "bookend"
	StrategyIncremental = "incremental"
)

// Metadata describes how a stitched image was produced.
type Metadata struct {
	Strategy     string        `json:"strategy"`
	ScrollCount  int           `json:"scrollCount"`
	CaptureCount int           `json:"captureCount"`
	Partial      bool          `json:"partial,omitempty"`
	Duration     time.Duration `json:"duration"`
}

// StitchResult is the final output of a scrolling capture.
type StitchResult struct {
	Image    image.Image
	Metadata Metadata

	// DebugCaptures holds the raw per-step images for inspection.
	DebugCaptures []image.Image
}
