// Package clipboard moves rendered frames to and from the desktop clipboard.
package clipboard

import (
	"errors"
	"os"
)

var (
	errNoDisplay = errors.New("clipboard needs DISPLAY or WAYLAND_DISPLAY")
	// ErrNoImage means the clipboard holds no image data.
	ErrNoImage = errors.New("clipboard does not contain image data")
)

func hasDisplay() bool {
	return os.Getenv("DISPLAY") != "" || os.Getenv("WAYLAND_DISPLAY") != ""
}
