package core

import (
	"errors"
	"image"
	"testing"
)

func TestBoundsCenter(t *testing.T) {
	b := Bounds{X: 100, Y: 200, Width: 200, Height: 50}
	x, y := b.Center()
	if x != 200 || y != 225 {
		t.Errorf("expected (200, 225), got (%d, %d)", x, y)
	}
	if b.CenterY() != 225 {
		t.Errorf("expected CenterY 225, got %d", b.CenterY())
	}
	if b.Bottom() != 250 {
		t.Errorf("expected Bottom 250, got %d", b.Bottom())
	}
}

func TestBoundsContains(t *testing.T) {
	b := Bounds{X: 10, Y: 10, Width: 20, Height: 20}

	tests := []struct {
		x, y int
		want bool
	}{
		{10, 10, true},
		{29, 29, true},
		{30, 30, false},
		{9, 15, false},
		{15, 9, false},
	}

	for _, tt := range tests {
		if got := b.Contains(tt.x, tt.y); got != tt.want {
			t.Errorf("Contains(%d, %d) = %v, want %v", tt.x, tt.y, got, tt.want)
		}
	}
}

func TestCaptureDimensions(t *testing.T) {
	c := Capture{Image: image.NewRGBA(image.Rect(0, 0, 1080, 1920))}
	if c.Width() != 1080 {
		t.Errorf("expected width 1080, got %d", c.Width())
	}
	if c.Height() != 1920 {
		t.Errorf("expected height 1920, got %d", c.Height())
	}

	var empty Capture
	if empty.Width() != 0 || empty.Height() != 0 {
		t.Error("expected zero dimensions for nil image")
	}
}

func TestStitchErrorUnwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := ErrDeviceUnavailable.WithCause(cause)

	if !errors.Is(err, cause) {
		t.Error("expected errors.Is to find the cause")
	}

	var se *StitchError
	if !errors.As(err, &se) {
		t.Fatal("expected errors.As to match StitchError")
	}
	if se.Code != "device_unavailable" {
		t.Errorf("expected device_unavailable code, got %s", se.Code)
	}
	if se.Category != ErrCategoryTransport {
		t.Errorf("expected transport category, got %s", se.Category)
	}
}

func TestStitchErrorMessage(t *testing.T) {
	if ErrWidthMismatch.Error() != "capture widths differ" {
		t.Errorf("unexpected message: %s", ErrWidthMismatch.Error())
	}

	wrapped := ErrFirstCapture.WithCause(errors.New("adb: no devices"))
	want := "could not obtain initial screenshot: adb: no devices"
	if wrapped.Error() != want {
		t.Errorf("expected %q, got %q", want, wrapped.Error())
	}
}
