package main

import (
	"flag"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/example/markshot/internal/capture"
	"github.com/example/markshot/internal/clipboard"
	"github.com/example/markshot/internal/export"
)

var (
	captureRect    = capture.RegionRect
	listMonitors   = capture.Monitors
	writeClipboard = clipboard.WriteImage
)

type captureCmd struct {
	mode        string
	display     string
	rect        string
	region      image.Rectangle
	output      string
	shadow      bool
	toClipboard bool
	monitors    bool
	windows     bool
	*root
	fs *flag.FlagSet
}

func (c *captureCmd) FlagSet() *flag.FlagSet {
	return c.fs
}

func (c *captureCmd) Program() string {
	return c.root.subProgram("capture")
}

func parseCaptureCmd(args []string, r *root) (*captureCmd, error) {
	fs := flag.NewFlagSet("capture", flag.ExitOnError)
	c := &captureCmd{root: r, fs: fs}
	fs.Usage = usageFunc(c)
	fs.StringVar(&c.mode, "mode", "screen", "capture mode: screen or region")
	fs.StringVar(&c.display, "display", "", "monitor to crop screen captures to")
	fs.StringVar(&c.rect, "rect", "", "capture rectangle x0,y0,x1,y1 instead of asking interactively")
	fs.StringVar(&c.output, "output", "", "write the capture here (default <save_dir>/screenshot_<time>.png)")
	fs.BoolVar(&c.shadow, "shadow", false, "add a drop shadow")
	fs.BoolVar(&c.toClipboard, "to-clipboard", false, "copy the capture to the clipboard")
	fs.BoolVar(&c.toClipboard, "to-clip", false, "copy the capture to the clipboard (alias)")
	fs.BoolVar(&c.monitors, "list-monitors", false, "print the monitors -display can select and exit")
	fs.BoolVar(&c.windows, "list-windows", false, "print the windows a crop click can snap to and exit")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	c.mode = strings.ToLower(c.mode)
	switch c.mode {
	case "screen", "region":
	default:
		return nil, fmt.Errorf("unknown capture mode %q", c.mode)
	}
	if c.rect != "" {
		if c.mode != "region" {
			return nil, fmt.Errorf("-rect requires -mode region")
		}
		rect, err := parseRect(c.rect)
		if err != nil {
			return nil, err
		}
		c.region = rect
	}
	return c, nil
}

func (c *captureCmd) Run() error {
	if c.monitors {
		return c.printMonitors()
	}
	if c.windows {
		return c.printWindows()
	}
	img, err := c.grab()
	if err != nil {
		return fmt.Errorf("capture %s: %w", c.mode, err)
	}
	c.notifyCapture(c.mode, img)

	cfg := c.settings()
	output := c.output
	if output == "" {
		output = filepath.Join(cfg.SaveDir, export.DefaultName(time.Now()))
	}
	if err := export.Write(output, img, exportOptions(cfg, c.shadow)...); err != nil {
		return fmt.Errorf("capture %s: %w", c.mode, err)
	}
	saved := output
	if abs, err := filepath.Abs(output); err == nil {
		saved = abs
	}
	fmt.Fprintf(os.Stderr, "saved %s\n", saved)
	c.notifySave(saved)

	if c.toClipboard {
		if err := writeClipboard(img); err != nil {
			return fmt.Errorf("copy capture to clipboard: %w", err)
		}
		fmt.Fprintln(os.Stderr, "copied capture to clipboard")
		c.notifyCopy("capture")
	}
	return nil
}

func (c *captureCmd) printMonitors() error {
	monitors, err := listMonitors()
	if err != nil {
		return fmt.Errorf("list monitors: %w", err)
	}
	for _, m := range monitors {
		primary := ""
		if m.Primary {
			primary = " (primary)"
		}
		fmt.Printf("%d\t%s\t%dx%d+%d+%d%s\n", m.Index, m.Name, m.Rect.Dx(), m.Rect.Dy(), m.Rect.Min.X, m.Rect.Min.Y, primary)
	}
	return nil
}

func (c *captureCmd) printWindows() error {
	windows, err := listWindows()
	if err != nil {
		return err
	}
	for i, w := range windows {
		r := w.Outer
		fmt.Printf("%d\t0x%x\t%dx%d+%d+%d\t%s\n", i, w.ID, r.Dx(), r.Dy(), r.Min.X, r.Min.Y, w.Title)
	}
	return nil
}

func (c *captureCmd) grab() (*image.RGBA, error) {
	switch {
	case c.mode == "screen":
		return captureScreen(c.display)
	case !c.region.Empty():
		return captureRect(c.region)
	}
	return captureRegion()
}

// parseRect reads "x0,y0,x1,y1".
func parseRect(s string) (image.Rectangle, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return image.Rectangle{}, fmt.Errorf("rectangle %q: want x0,y0,x1,y1", s)
	}
	var v [4]int
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return image.Rectangle{}, fmt.Errorf("rectangle %q: %w", s, err)
		}
		v[i] = n
	}
	r := image.Rect(v[0], v[1], v[2], v[3])
	if r.Empty() {
		return image.Rectangle{}, fmt.Errorf("rectangle %q is empty", s)
	}
	return r, nil
}
