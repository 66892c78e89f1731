package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"image"
	"log"
	"path/filepath"
	"time"

	"github.com/example/markshot/internal/capture"
	"github.com/example/markshot/internal/clipboard"
	"github.com/example/markshot/internal/codec"
	"github.com/example/markshot/internal/editor"
	"github.com/example/markshot/internal/export"
	"github.com/example/markshot/internal/geom"
	"github.com/example/markshot/internal/notify"
	"github.com/example/markshot/internal/viewer"
)

var (
	captureScreen = capture.Screen
	captureRegion = capture.Region
	readClipboard = clipboard.ReadImage
	listWindows   = capture.Windows
	runViewer     = func(v *viewer.Viewer) { v.Run() }
)

// annotateCmd opens the viewer on a file, a fresh capture or an archived
// session.
type annotateCmd struct {
	file      string
	fromClip  bool
	capture   string
	display   string
	archiveID string
	ops       string
	output    string
	*root
	fs *flag.FlagSet
}

func (a *annotateCmd) FlagSet() *flag.FlagSet {
	return a.fs
}

func (a *annotateCmd) Program() string {
	return a.root.subProgram("annotate")
}

func parseAnnotateCmd(args []string, r *root) (*annotateCmd, error) {
	fs := flag.NewFlagSet("annotate", flag.ExitOnError)
	a := &annotateCmd{root: r, fs: fs}
	fs.Usage = usageFunc(a)
	fs.StringVar(&a.file, "file", "", "image file to annotate")
	fs.BoolVar(&a.fromClip, "from-clipboard", false, "annotate the image on the clipboard")
	fs.StringVar(&a.capture, "capture", "", "capture the base image first: screen or region")
	fs.StringVar(&a.display, "display", "", "monitor to crop screen captures to")
	fs.StringVar(&a.archiveID, "archive", "", "reopen the archived session with this id")
	fs.StringVar(&a.ops, "ops", "", "operation document to load over the image")
	fs.StringVar(&a.output, "output", "", "file Ctrl+S writes (default <save_dir>/screenshot_<time>.png)")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	sources := 0
	if a.fromClip {
		sources++
	}
	for _, s := range []string{a.file, a.capture, a.archiveID} {
		if s != "" {
			sources++
		}
	}
	if sources != 1 {
		return nil, &UsageError{of: a}
	}
	switch a.capture {
	case "", "screen", "region":
	default:
		return nil, fmt.Errorf("unknown capture mode %q", a.capture)
	}
	if a.archiveID != "" && a.ops != "" {
		return nil, fmt.Errorf("-ops cannot be used with -archive")
	}
	return a, nil
}

func (a *annotateCmd) Run() error {
	cfg := a.settings()
	opts := sessionOptions(cfg)
	pool, stop := startPool(context.Background(), cfg)
	defer stop()
	if pool != nil {
		opts = append(opts, editor.WithPool(pool))
	}
	archive := export.Archive{Dir: archiveDir(cfg)}

	var (
		s   *editor.Session
		err error
	)
	if a.archiveID != "" {
		s, err = archive.Open(a.archiveID, opts...)
		var skipped *codec.SkippedError
		if errors.As(err, &skipped) {
			warnSkipped(a.archiveID, skipped)
			err = nil
		}
		if err != nil {
			return fmt.Errorf("annotate archive %s: %w", a.archiveID, err)
		}
	} else {
		base, err := a.loadBase()
		if err != nil {
			return err
		}
		if rects := a.windowRects(cfg.Editor.WindowDecorations); len(rects) > 0 {
			opts = append(opts, editor.WithWindows(rects))
		}
		if a.ops != "" {
			doc, derr := readDocument(a.ops)
			if derr != nil {
				return fmt.Errorf("annotate: %w", derr)
			}
			s, err = editor.Open(base, doc, opts...)
		} else {
			s, err = editor.New(base, opts...)
		}
		if err != nil {
			return fmt.Errorf("annotate: %w", err)
		}
	}

	output := a.output
	if output == "" {
		output = filepath.Join(cfg.SaveDir, export.DefaultName(time.Now()))
	}
	v := viewer.New(s,
		viewer.WithPool(pool),
		viewer.WithTheme(a.viewerTheme()),
		viewer.WithTextRenderer(textRenderer(cfg)),
		viewer.WithOutput(output, exportOptions(cfg, false)...),
		viewer.WithArchive(archive),
		viewer.WithNotifier(a.notifications()),
	)
	runViewer(v)
	return nil
}

func (a *annotateCmd) loadBase() (image.Image, error) {
	switch a.capture {
	case "screen":
		img, err := captureScreen(a.display)
		if err != nil {
			return nil, fmt.Errorf("annotate capture screen: %w", err)
		}
		a.notifyCapture("screen", img)
		return img, nil
	case "region":
		img, err := captureRegion()
		if err != nil {
			return nil, fmt.Errorf("annotate capture region: %w", err)
		}
		a.notifyCapture("region", img)
		return img, nil
	}
	if a.fromClip {
		img, err := readClipboard()
		if err != nil {
			return nil, fmt.Errorf("annotate read clipboard: %w", err)
		}
		return img, nil
	}
	img, err := export.Load(a.file)
	if err != nil {
		return nil, fmt.Errorf("annotate open %s: %w", a.file, err)
	}
	return img, nil
}

// windowRects lists the desktop's windows in the coordinates of a screen
// capture, so a crop click can snap to them. Other sources have no windows.
func (a *annotateCmd) windowRects(decorations bool) []geom.Rect {
	if a.capture != "screen" {
		return nil
	}
	windows, err := listWindows()
	if err != nil {
		log.Printf("annotate: %v", err)
		return nil
	}
	var origin image.Point
	if a.display != "" {
		monitors, err := listMonitors()
		if err != nil {
			log.Printf("annotate: %v", err)
			return nil
		}
		mon, err := capture.FindMonitor(monitors, a.display)
		if err != nil {
			log.Printf("annotate: %v", err)
			return nil
		}
		origin = mon.Rect.Min
	}
	rects := make([]geom.Rect, 0, len(windows))
	for _, w := range windows {
		rects = append(rects, geom.FromImage(w.Rect(decorations).Sub(origin)))
	}
	return rects
}

func (r *root) notifications() *notify.Notifier {
	if r == nil {
		return nil
	}
	return r.notifier
}
