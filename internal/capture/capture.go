// Package capture grabs the base image an annotation session starts from.
package capture

import (
	"errors"
	"fmt"
	"image"
	"strconv"
	"strings"

	"github.com/anthonynsimon/bild/clone"
)

// ErrUnsupported is returned on platforms without a capture backend.
var ErrUnsupported = errors.New("screen capture is not supported on this platform")

var (
	errNoMonitors = errors.New("no monitors available")
	errNoWindows  = errors.New("no windows available")
)

// Monitor describes one output in the desktop layout.
type Monitor struct {
	Index   int
	Name    string
	Rect    image.Rectangle
	Primary bool
}

// Window is a top-level window in desktop coordinates. Outer includes the
// frame the window manager draws around Content; the two are equal when the
// frame is unknown or the window is fullscreen.
type Window struct {
	ID      uint32
	Title   string
	Content image.Rectangle
	Outer   image.Rectangle
}

// Rect returns Outer with decorations and Content without.
func (w Window) Rect(decorations bool) image.Rectangle {
	if decorations {
		return w.Outer
	}
	return w.Content
}

// Platform hooks, replaced in tests.
var (
	screenshot   = platformScreenshot
	listMonitors = platformMonitors
	listWindows  = platformWindows
)

// Screen captures the whole desktop. A non-empty display selector crops the
// result to the matching monitor.
func Screen(display string) (*image.RGBA, error) {
	img, err := screenshot(false)
	if err != nil {
		return nil, fmt.Errorf("capture screen: %w", err)
	}
	if display == "" {
		return img, nil
	}
	monitors, err := listMonitors()
	if err != nil {
		return nil, fmt.Errorf("capture screen %q: %w", display, err)
	}
	mon, err := FindMonitor(monitors, display)
	if err != nil {
		return nil, err
	}
	return crop(img, mon.Rect)
}

// Region asks the desktop to let the user pick an area interactively.
func Region() (*image.RGBA, error) {
	img, err := screenshot(true)
	if err != nil {
		return nil, fmt.Errorf("capture region: %w", err)
	}
	return img, nil
}

// RegionRect captures rect, given in desktop coordinates.
func RegionRect(rect image.Rectangle) (*image.RGBA, error) {
	if rect.Empty() {
		return nil, fmt.Errorf("region is empty")
	}
	img, err := screenshot(false)
	if err != nil {
		return nil, fmt.Errorf("capture region %v: %w", rect, err)
	}
	return crop(img, rect)
}

// Monitors lists the outputs of the current desktop.
func Monitors() ([]Monitor, error) {
	return listMonitors()
}

// Windows lists the desktop's top-level windows, topmost first.
func Windows() ([]Window, error) {
	windows, err := listWindows()
	if err != nil {
		return nil, fmt.Errorf("list windows: %w", err)
	}
	return windows, nil
}

// WindowAt returns the topmost window whose outer rectangle contains p.
func WindowAt(windows []Window, p image.Point) (Window, bool) {
	for _, w := range windows {
		if p.In(w.Outer) {
			return w, true
		}
	}
	return Window{}, false
}

// FindMonitor resolves a selector: "primary", an index (optionally prefixed
// with '#') or a case-insensitive fragment of the output name.
func FindMonitor(monitors []Monitor, selector string) (Monitor, error) {
	if len(monitors) == 0 {
		return Monitor{}, errNoMonitors
	}
	sel := strings.ToLower(strings.TrimSpace(selector))
	switch sel {
	case "":
		return monitors[0], nil
	case "primary":
		for _, m := range monitors {
			if m.Primary {
				return m, nil
			}
		}
		return monitors[0], nil
	}
	if idx, err := strconv.Atoi(strings.TrimPrefix(sel, "#")); err == nil {
		if idx < 0 || idx >= len(monitors) {
			return Monitor{}, fmt.Errorf("monitor index %d out of range", idx)
		}
		return monitors[idx], nil
	}
	for _, m := range monitors {
		if strings.Contains(strings.ToLower(m.Name), sel) {
			return m, nil
		}
	}
	return Monitor{}, fmt.Errorf("monitor %q not found", selector)
}

// crop copies rect out of src into a zero-origin image.
func crop(src *image.RGBA, rect image.Rectangle) (*image.RGBA, error) {
	rect = rect.Intersect(src.Bounds())
	if rect.Empty() {
		return nil, fmt.Errorf("requested region outside captured image")
	}
	out := clone.AsRGBA(src.SubImage(rect))
	out.Rect = out.Rect.Sub(out.Rect.Min)
	return out, nil
}
