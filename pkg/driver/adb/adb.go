// Package adb implements the device transport over the Android Debug
// Bridge: screenshots via screencap, element dumps via uiautomator, and
// swipe gestures via input.
package adb

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"os/exec"
	"strings"
	"time"

	"github.com/botts7/visual-mapper-sub000/pkg/core"
	"github.com/botts7/visual-mapper-sub000/pkg/imaging"
	"github.com/botts7/visual-mapper-sub000/pkg/logger"
)

// Device is a core.Transport backed by a single Android device.
type Device struct {
	serial  string
	adbPath string
}

// Find resolves the adb binary and the target device. An empty adbPath
// falls back to PATH lookup; an empty serial auto-detects the first
// connected device.
func Find(adbPath, serial string) (*Device, error) {
	path, err := resolveADB(adbPath)
	if err != nil {
		return nil, err
	}

	if serial == "" {
		serials, err := ListDevices(path)
		if err != nil {
			return nil, err
		}
		if len(serials) == 0 {
			return nil, core.ErrDeviceUnavailable.WithCause(fmt.Errorf("no connected devices found"))
		}
		serial = serials[0]
		logger.Info("auto-detected device %s", serial)
	}

	return &Device{serial: serial, adbPath: path}, nil
}

func resolveADB(adbPath string) (string, error) {
	if adbPath != "" {
		return adbPath, nil
	}
	path, err := exec.LookPath("adb")
	if err != nil {
		return "", fmt.Errorf("adb not found in PATH; ensure Android SDK is installed")
	}
	return path, nil
}

// ListDevices returns the serials of all devices in "device" state.
func ListDevices(adbPath string) ([]string, error) {
	path, err := resolveADB(adbPath)
	if err != nil {
		return nil, err
	}
	out, err := exec.Command(path, "devices").Output()
	if err != nil {
		return nil, fmt.Errorf("adb devices: %w", err)
	}
	return parseDevices(string(out)), nil
}

// parseDevices extracts ready serials from `adb devices` output.
func parseDevices(out string) []string {
	var serials []string
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "List of") {
			continue
		}
		parts := strings.Fields(line)
		if len(parts) >= 2 && parts[1] == "device" {
			serials = append(serials, parts[0])
		}
	}
	return serials
}

// Serial returns the device serial number.
func (d *Device) Serial() string {
	return d.serial
}

// Screenshot captures the screen as a PNG via screencap. exec-out keeps
// the stream binary-clean, unlike shell which mangles line endings.
func (d *Device) Screenshot(ctx context.Context) (image.Image, error) {
	out, err := d.execOut(ctx, "exec-out", "screencap", "-p")
	if err != nil {
		return nil, err
	}
	img, err := imaging.DecodePNG(out)
	if err != nil {
		return nil, fmt.Errorf("decode screenshot from %s: %w", d.serial, err)
	}
	return img, nil
}

// UIElements dumps the accessibility hierarchy and flattens it into an
// element list. The dump is written to /dev/tty so no device-side file
// needs to be pulled and cleaned up.
func (d *Device) UIElements(ctx context.Context) ([]core.Element, error) {
	out, err := d.execOut(ctx, "exec-out", "uiautomator", "dump", "/dev/tty")
	if err != nil {
		return nil, err
	}
	xmlData, err := extractHierarchyXML(string(out))
	if err != nil {
		return nil, err
	}
	return ParseHierarchy(xmlData)
}

// Swipe performs an input swipe gesture.
func (d *Device) Swipe(ctx context.Context, x1, y1, x2, y2 int, duration time.Duration) error {
	_, err := d.execOut(ctx, "shell", "input", "swipe",
		fmt.Sprint(x1), fmt.Sprint(y1), fmt.Sprint(x2), fmt.Sprint(y2),
		fmt.Sprint(duration.Milliseconds()))
	return err
}

// extractHierarchyXML isolates the XML document from uiautomator dump
// output, which wraps it in status text.
func extractHierarchyXML(out string) (string, error) {
	start := strings.Index(out, "<?xml")
	if start < 0 {
		start = strings.Index(out, "<hierarchy")
	}
	if start < 0 {
		return "", fmt.Errorf("no hierarchy XML in uiautomator output")
	}
	end := strings.LastIndex(out, "</hierarchy>")
	if end < 0 {
		return "", fmt.Errorf("truncated hierarchy XML in uiautomator output")
	}
	return out[start : end+len("</hierarchy>")], nil
}

// execOut runs an adb subcommand against this device and returns stdout.
func (d *Device) execOut(ctx context.Context, args ...string) ([]byte, error) {
	cmdArgs := append([]string{"-s", d.serial}, args...)

	cmd := exec.CommandContext(ctx, d.adbPath, cmdArgs...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = strings.TrimSpace(stdout.String())
		}
		return nil, core.ErrDeviceUnavailable.WithCause(
			fmt.Errorf("adb %s: %w: %s", strings.Join(args, " "), err, msg))
	}
	return stdout.Bytes(), nil
}
