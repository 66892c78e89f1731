package main

import (
	"errors"
	"flag"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/example/markshot/internal/editor"
	"github.com/example/markshot/internal/export"
	"github.com/example/markshot/internal/geom"
	"github.com/example/markshot/internal/tool"
)

// drawCmd adds one operation to a document through a session, so the same
// gesture rules apply as in the window.
type drawCmd struct {
	file      string
	ops       string
	output    string
	stroke    string
	fill      string
	secondary string
	width     float64
	textSize  float64

	tool   tool.Tool
	points []geom.Point
	text   string
	*root
	fs *flag.FlagSet
}

func (d *drawCmd) FlagSet() *flag.FlagSet {
	return d.fs
}

func (d *drawCmd) Program() string {
	return d.root.subProgram("draw")
}

var drawFlagNames = map[string]struct{}{
	"file":      {},
	"ops":       {},
	"output":    {},
	"color":     {},
	"colour":    {},
	"fill":      {},
	"secondary": {},
	"width":     {},
	"text-size": {},
	"h":         {},
	"help":      {},
}

var drawBoolFlags = map[string]struct{}{
	"h":    {},
	"help": {},
}

// shapeAliases maps command line names onto tools.
var shapeAliases = map[string]tool.Tool{
	"rect":   tool.Rectangle,
	"circle": tool.Ellipse,
	"number": tool.Bubble,
	"mask":   tool.Pixelate,
}

func parseDrawCmd(args []string, r *root) (*drawCmd, error) {
	fs := flag.NewFlagSet("draw", flag.ExitOnError)
	d := &drawCmd{root: r, fs: fs}
	fs.Usage = usageFunc(d)
	fs.StringVar(&d.file, "file", "", "base image")
	fs.StringVar(&d.ops, "ops", "", "document to extend (default <file>.json); created when missing")
	fs.StringVar(&d.output, "output", "", "rendered image (default <file>.annotated.png)")
	fs.StringVar(&d.stroke, "color", "", "stroke colour name or hex value")
	fs.StringVar(&d.stroke, "colour", "", "stroke colour (alias)")
	fs.StringVar(&d.fill, "fill", "", "fill colour for rectangles and ellipses")
	fs.StringVar(&d.secondary, "secondary", "", "bubble label colour")
	fs.Float64Var(&d.width, "width", 0, "stroke width in pixels")
	fs.Float64Var(&d.textSize, "text-size", 0, "text size in points")

	flagArgs, positionals, err := splitDrawArgs(args)
	if err != nil {
		return nil, err
	}
	if err := fs.Parse(flagArgs); err != nil {
		return nil, err
	}
	if len(positionals) < 1 {
		return nil, &UsageError{of: d}
	}
	if d.file == "" {
		return nil, fmt.Errorf("input file is required")
	}
	name := strings.ToLower(positionals[0])
	t, ok := shapeAliases[name]
	if !ok {
		if t, err = tool.Parse(name); err != nil || t == tool.Select {
			return nil, fmt.Errorf("unsupported operation %q", name)
		}
	}
	d.tool = t
	rest := positionals[1:]
	switch t {
	case tool.Bubble:
		d.points, err = expectPoints(rest, 1, 1, name)
	case tool.Text:
		if len(rest) < 3 {
			return nil, fmt.Errorf("text requires x y and content")
		}
		d.points, err = expectPoints(rest[:2], 1, 1, name)
		d.text = strings.Join(rest[2:], " ")
		if strings.TrimSpace(d.text) == "" {
			return nil, fmt.Errorf("text content cannot be empty")
		}
	case tool.Freehand:
		d.points, err = expectPoints(rest, 2, 0, name)
	default:
		d.points, err = expectPoints(rest, 2, 2, name)
	}
	if err != nil {
		return nil, err
	}

	stem := strings.TrimSuffix(d.file, filepath.Ext(d.file))
	if d.ops == "" {
		d.ops = stem + ".json"
	}
	if d.output == "" {
		d.output = stem + ".annotated.png"
	}
	if d.output == d.file {
		return nil, fmt.Errorf("output would overwrite the base image %s", d.file)
	}
	return d, nil
}

func (d *drawCmd) Run() error {
	cfg := d.settings()
	base, err := export.Load(d.file)
	if err != nil {
		return fmt.Errorf("draw: %w", err)
	}
	opts := sessionOptions(cfg)
	style, secondary, err := d.style(cfg.Editor.Style(), cfg.Editor.Secondary)
	if err != nil {
		return err
	}
	opts = append(opts, editor.WithStyle(style), editor.WithSecondary(secondary), editor.WithTool(d.tool))

	var s *editor.Session
	if _, statErr := os.Stat(d.ops); statErr == nil {
		doc, derr := readDocument(d.ops)
		if derr != nil {
			return fmt.Errorf("draw: %w", derr)
		}
		s, err = editor.Open(base, doc, opts...)
	} else if errors.Is(statErr, os.ErrNotExist) {
		s, err = editor.New(base, opts...)
	} else {
		return fmt.Errorf("draw: %w", statErr)
	}
	if err != nil {
		return fmt.Errorf("draw: %w", err)
	}

	before := len(s.Operations())
	if err := d.apply(s); err != nil {
		return err
	}
	if len(s.Operations()) == before {
		return fmt.Errorf("draw %s: gesture too small to make an operation", d.tool)
	}
	if err := writeDocument(d.ops, s.Document()); err != nil {
		return fmt.Errorf("draw: %w", err)
	}
	if err := export.Write(d.output, s.Render(), exportOptions(cfg, false)...); err != nil {
		return fmt.Errorf("draw: %w", err)
	}
	fmt.Fprintf(os.Stderr, "added %s, saved %s and %s\n", d.tool, d.ops, d.output)
	d.notifySave(d.output)
	return nil
}

// apply replays the operation as the events the window would send.
func (d *drawCmd) apply(s *editor.Session) error {
	if d.tool == tool.Text {
		r := textRenderer(d.settings())
		if d.textSize > 0 {
			r.Size = d.textSize
		}
		r.Colour = s.Style().Stroke
		bm, err := r.Render(d.text)
		if err != nil {
			return fmt.Errorf("draw text: %w", err)
		}
		var img image.Image
		if bm != nil {
			img = bm
		}
		s.Handle(editor.Text(d.points[0], d.text, img))
		return nil
	}
	pts := d.points
	s.Handle(editor.Down(pts[0]))
	for i := 1; i < len(pts)-1; i++ {
		s.Handle(editor.Drag(pts[i]))
	}
	s.Handle(editor.Up(pts[len(pts)-1]))
	return nil
}

func (d *drawCmd) style(st geom.Style, secondary geom.Colour) (geom.Style, geom.Colour, error) {
	var err error
	if d.stroke != "" {
		if st.Stroke, err = geom.ParseColour(d.stroke); err != nil {
			return st, secondary, err
		}
	}
	if d.fill != "" {
		if st.Fill, err = geom.ParseColour(d.fill); err != nil {
			return st, secondary, err
		}
	}
	if d.secondary != "" {
		if secondary, err = geom.ParseColour(d.secondary); err != nil {
			return st, secondary, err
		}
	}
	if d.width < 0 {
		return st, secondary, fmt.Errorf("width must not be negative")
	}
	if d.width > 0 {
		st.Width = d.width
	}
	return st, secondary, nil
}

// expectPoints reads x y pairs. max of zero means no upper bound.
func expectPoints(args []string, minPts, maxPts int, shape string) ([]geom.Point, error) {
	if len(args)%2 != 0 {
		return nil, fmt.Errorf("%s takes x y pairs", shape)
	}
	n := len(args) / 2
	if n < minPts || (maxPts > 0 && n > maxPts) {
		if minPts == maxPts {
			return nil, fmt.Errorf("%s requires %d coordinate(s)", shape, 2*minPts)
		}
		return nil, fmt.Errorf("%s requires at least %d coordinates", shape, 2*minPts)
	}
	pts := make([]geom.Point, n)
	for i := range pts {
		x, err := strconv.ParseFloat(args[2*i], 64)
		if err != nil {
			return nil, fmt.Errorf("invalid number %q", args[2*i])
		}
		y, err := strconv.ParseFloat(args[2*i+1], 64)
		if err != nil {
			return nil, fmt.Errorf("invalid number %q", args[2*i+1])
		}
		pts[i] = geom.Pt(x, y)
	}
	return pts, nil
}

// splitDrawArgs separates known flags from positionals so flags may follow
// the operation and negative coordinates are not read as flags.
func splitDrawArgs(args []string) ([]string, []string, error) {
	var flags []string
	var positionals []string
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--" {
			positionals = append(positionals, args[i+1:]...)
			break
		}
		if !strings.HasPrefix(arg, "-") || arg == "-" {
			positionals = append(positionals, arg)
			continue
		}
		name := strings.TrimLeft(arg, "-")
		parts := strings.SplitN(name, "=", 2)
		base := strings.ToLower(parts[0])
		if _, ok := drawFlagNames[base]; !ok {
			positionals = append(positionals, arg)
			continue
		}
		norm := "-" + base
		if len(parts) == 2 {
			flags = append(flags, norm+"="+parts[1])
			continue
		}
		if _, ok := drawBoolFlags[base]; ok {
			flags = append(flags, norm)
			continue
		}
		if i+1 >= len(args) {
			return nil, nil, fmt.Errorf("flag %s requires a value", arg)
		}
		flags = append(flags, norm, args[i+1])
		i++
	}
	return flags, positionals, nil
}
