package main

import (
	"errors"
	"image"
	"strings"
	"testing"

	"github.com/example/markshot/internal/capture"
	"github.com/example/markshot/internal/geom"
	"github.com/example/markshot/internal/viewer"
)

func stubCapture(t *testing.T, err error) {
	t.Helper()
	prevScreen, prevRegion := captureScreen, captureRegion
	captureScreen = func(string) (*image.RGBA, error) { return nil, err }
	captureRegion = func() (*image.RGBA, error) { return nil, err }
	t.Cleanup(func() { captureScreen, captureRegion = prevScreen, prevRegion })
}

func TestCaptureRunCaptureError(t *testing.T) {
	sentinel := errors.New("portal offline")
	stubCapture(t, sentinel)

	cmd := &captureCmd{mode: "screen", output: t.TempDir() + "/out.png"}
	err := cmd.Run()
	if err == nil {
		t.Fatalf("expected error")
	}
	if !errors.Is(err, sentinel) {
		t.Fatalf("expected wrapped error, got %v", err)
	}
	if want := "capture screen"; !strings.Contains(err.Error(), want) {
		t.Fatalf("expected error to contain %q, got %v", want, err)
	}
}

func TestAnnotateCaptureError(t *testing.T) {
	stubCapture(t, errors.New("dbus busy"))
	prev := runViewer
	runViewer = func(*viewer.Viewer) { t.Fatalf("viewer started without a base image") }
	t.Cleanup(func() { runViewer = prev })

	cmd := &annotateCmd{capture: "region", root: &root{}}
	if err := cmd.Run(); err == nil || !strings.Contains(err.Error(), "annotate capture region: dbus busy") {
		t.Fatalf("expected annotate capture error, got %v", err)
	}
}

func TestAnnotateOpenError(t *testing.T) {
	cmd := &annotateCmd{file: "missing.png", root: &root{}}
	if err := cmd.Run(); err == nil || !strings.Contains(err.Error(), "annotate open missing.png") {
		t.Fatalf("expected open error context, got %v", err)
	}
}

func TestParseAnnotateNeedsOneSource(t *testing.T) {
	for _, args := range [][]string{
		nil,
		{"-file", "a.png", "-capture", "screen"},
	} {
		_, err := parseAnnotateCmd(args, nil)
		var uerr *UsageError
		if !errors.As(err, &uerr) {
			t.Errorf("%v: expected usage error, got %v", args, err)
		}
	}
	if _, err := parseAnnotateCmd([]string{"-capture", "window"}, nil); err == nil {
		t.Fatalf("expected unknown capture mode error")
	}
}

func TestParseCaptureRect(t *testing.T) {
	c, err := parseCaptureCmd([]string{"-mode", "region", "-rect", "1,2,30,40"}, nil)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if c.region != image.Rect(1, 2, 30, 40) {
		t.Fatalf("region = %v", c.region)
	}
	if _, err := parseCaptureCmd([]string{"-rect", "1,2,30,40"}, nil); err == nil {
		t.Fatalf("-rect without region mode should fail")
	}
	if _, err := parseCaptureCmd([]string{"-mode", "region", "-rect", "5,5,5,9"}, nil); err == nil {
		t.Fatalf("empty rectangle should fail")
	}
}

func TestParseApplyRequiresArguments(t *testing.T) {
	_, err := parseApplyCmd([]string{"-file", "in.png"}, nil)
	var uerr *UsageError
	if !errors.As(err, &uerr) {
		t.Fatalf("expected usage error, got %v", err)
	}
	if _, err := parseApplyCmd([]string{"-file", "in.png", "-ops", "d.json", "-output", "out.webp"}, nil); err == nil {
		t.Fatalf("expected unsupported format error")
	}
}

func TestRootUsageListsFlags(t *testing.T) {
	help := (&UsageError{of: newRoot()}).Error()
	for _, want := range []string{"markshot [flags] <command>", "-notify-save", "-theme", "annotate"} {
		if !strings.Contains(help, want) {
			t.Errorf("help missing %q:\n%s", want, help)
		}
	}
}

func TestSubcommandUsageRenders(t *testing.T) {
	_, err := parseAnnotateCmd(nil, &root{program: "markshot"})
	var uerr *UsageError
	if !errors.As(err, &uerr) {
		t.Fatalf("expected usage error, got %v", err)
	}
	if help := uerr.Error(); !strings.Contains(help, "markshot annotate") || !strings.Contains(help, "-archive") {
		t.Fatalf("annotate help = %s", help)
	}
}

func TestAnnotateClipboardError(t *testing.T) {
	prev := readClipboard
	readClipboard = func() (image.Image, error) { return nil, errors.New("empty") }
	t.Cleanup(func() { readClipboard = prev })

	cmd, err := parseAnnotateCmd([]string{"-from-clipboard"}, &root{})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if err := cmd.Run(); err == nil || !strings.Contains(err.Error(), "annotate read clipboard: empty") {
		t.Fatalf("expected clipboard error, got %v", err)
	}
}

func TestAnnotateOpensViewer(t *testing.T) {
	base := writeBase(t, 16, 16)
	prev := runViewer
	var ran bool
	runViewer = func(v *viewer.Viewer) { ran = v != nil }
	t.Cleanup(func() { runViewer = prev })

	cmd, err := parseAnnotateCmd([]string{"-file", base}, &root{})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if err := cmd.Run(); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !ran {
		t.Fatalf("viewer not started")
	}
}

func TestCaptureListMonitors(t *testing.T) {
	prev := listMonitors
	called := false
	listMonitors = func() ([]capture.Monitor, error) {
		called = true
		return []capture.Monitor{{Index: 0, Name: "DP-1", Rect: image.Rect(0, 0, 1920, 1080), Primary: true}}, nil
	}
	t.Cleanup(func() { listMonitors = prev })
	stubCapture(t, errors.New("should not capture"))

	cmd, err := parseCaptureCmd([]string{"-list-monitors"}, nil)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if err := cmd.Run(); err != nil || !called {
		t.Fatalf("run: %v (called %v)", err, called)
	}
}

func TestAnnotateWindowRectsFollowMonitor(t *testing.T) {
	prevWin, prevMon := listWindows, listMonitors
	t.Cleanup(func() { listWindows, listMonitors = prevWin, prevMon })
	listWindows = func() ([]capture.Window, error) {
		return []capture.Window{{
			Content: image.Rect(2000, 120, 2400, 400),
			Outer:   image.Rect(1990, 90, 2410, 410),
		}}, nil
	}
	listMonitors = func() ([]capture.Monitor, error) {
		return []capture.Monitor{
			{Index: 0, Name: "DP-1", Rect: image.Rect(0, 0, 1920, 1080)},
			{Index: 1, Name: "HDMI-1", Rect: image.Rect(1920, 0, 3840, 1080)},
		}, nil
	}

	cmd := &annotateCmd{capture: "screen", display: "HDMI", root: &root{}}
	rects := cmd.windowRects(true)
	if len(rects) != 1 || rects[0] != geom.RectXYWH(70, 90, 420, 320) {
		t.Fatalf("outer rects = %v", rects)
	}
	if rects := cmd.windowRects(false); rects[0] != geom.RectXYWH(80, 120, 400, 280) {
		t.Fatalf("content rects = %v", rects)
	}
	if rects := (&annotateCmd{file: "x.png", root: &root{}}).windowRects(true); rects != nil {
		t.Fatalf("file source listed windows: %v", rects)
	}
}

func TestCaptureListWindows(t *testing.T) {
	prev := listWindows
	called := false
	listWindows = func() ([]capture.Window, error) {
		called = true
		return []capture.Window{{ID: 0x1a, Title: "term", Outer: image.Rect(0, 0, 10, 10)}}, nil
	}
	t.Cleanup(func() { listWindows = prev })
	stubCapture(t, errors.New("should not capture"))

	cmd, err := parseCaptureCmd([]string{"-list-windows"}, nil)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if err := cmd.Run(); err != nil || !called {
		t.Fatalf("run: %v (called %v)", err, called)
	}
}
