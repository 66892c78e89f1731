//go:build !(linux || freebsd || openbsd || netbsd || dragonfly)

package capture

import "image"

func platformScreenshot(bool) (*image.RGBA, error) { return nil, ErrUnsupported }

func platformMonitors() ([]Monitor, error) { return nil, ErrUnsupported }

func platformWindows() ([]Window, error) { return nil, ErrUnsupported }
