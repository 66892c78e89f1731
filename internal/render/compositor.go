// Package render composites operation lists over a base image.
package render

import (
	"fmt"
	"image"
	"image/draw"
	"log"
	"math"

	"github.com/anthonynsimon/bild/clone"

	"github.com/example/markshot/internal/effects"
	"github.com/example/markshot/internal/geom"
	"github.com/example/markshot/internal/ops"
)

// Effects maps an operation index to a precomputed effect result. Results
// must have been computed from the composite of the operations before that
// index; callers are responsible for discarding results from an older list.
type Effects map[int]*image.RGBA

// Compositor applies operations to a running buffer, oldest first. It holds
// no state between calls.
type Compositor struct {
	Engine effects.Engine
}

// New returns a compositor using engine for blur and pixelate.
func New(engine effects.Engine) Compositor {
	return Compositor{Engine: engine}
}

// Render returns the composite of active over base. base is never modified.
// When a Crop is active the result is cut to its region and rebased to a
// zero origin.
func (c Compositor) Render(base *image.RGBA, active []ops.Operation, fx Effects) *image.RGBA {
	buf := clone.AsRGBA(base)
	c.Apply(buf, active, 0, fx)
	return Frame(buf, active)
}

// Apply draws active[from:] onto buf in place. Indices in fx are absolute
// positions in active.
func (c Compositor) Apply(buf *image.RGBA, active []ops.Operation, from int, fx Effects) {
	for i := from; i < len(active); i++ {
		c.apply(buf, active[i], fx[i])
	}
}

func (c Compositor) apply(buf *image.RGBA, op ops.Operation, pre *image.RGBA) {
	clip := buf.Bounds()
	switch op := op.(type) {
	case ops.Line:
		area := maskBounds(op.Bounds(), clip)
		paint(buf, capsuleMask([]segment{{op.From, op.To}}, op.Style.HalfWidth(), area), op.Style.Stroke)
	case ops.Arrow:
		h1, h2 := op.Head()
		segs := []segment{{op.From, op.To}, {op.To, h1}, {op.To, h2}}
		area := maskBounds(op.Bounds(), clip)
		paint(buf, capsuleMask(segs, op.Style.HalfWidth(), area), op.Style.Stroke)
	case ops.Rectangle:
		r := op.Rect
		c.drawShape(buf, func(p geom.Point) float64 { return geom.RectDistance(p, r) }, op.Bounds(), op.Style)
	case ops.Ellipse:
		r := op.Rect
		c.drawShape(buf, func(p geom.Point) float64 { return geom.EllipseDistance(p, r) }, op.Bounds(), op.Style)
	case ops.Freehand:
		segs := freehandSegments(op)
		area := maskBounds(op.Bounds(), clip)
		paint(buf, capsuleMask(segs, op.Style.HalfWidth(), area), op.Style.Stroke.Scale(op.Opacity))
	case ops.Highlight:
		area := op.Rect.Image().Intersect(clip)
		if !area.Empty() {
			draw.Draw(buf, area, image.NewUniform(op.Colour), image.Point{}, draw.Over)
		}
	case ops.Pixelate, ops.Blur:
		c.applyEffect(buf, op, pre)
	case ops.Text:
		bm := op.Bitmap()
		if bm == nil {
			return
		}
		at := image.Pt(int(math.Round(op.Anchor.X)), int(math.Round(op.Anchor.Y)))
		draw.Draw(buf, bm.Bounds().Add(at), bm, image.Point{}, draw.Over)
	case ops.Bubble:
		area := maskBounds(op.Bounds(), clip)
		paint(buf, discMask(op.Centre, op.Radius, area), op.Fill)
		if err := drawLabel(buf, op.Centre, op.Radius, op.Label, op.LabelColour()); err != nil {
			log.Printf("bubble %d label: %v", op.Label, err)
		}
	case ops.Crop:
		// Applied by Frame once every operation has been drawn.
	default:
		panic(fmt.Sprintf("render: unknown operation %T", op))
	}
}

func (c Compositor) drawShape(buf *image.RGBA, sd func(geom.Point) float64, bounds geom.Rect, s geom.Style) {
	area := maskBounds(bounds, buf.Bounds())
	if area.Empty() {
		return
	}
	fill, stroke := shapeMasks(sd, s.HalfWidth(), area, s.Filled())
	if fill != nil {
		paint(buf, fill, s.Fill)
	}
	paint(buf, stroke, s.Stroke)
}

func (c Compositor) applyEffect(buf *image.RGBA, op ops.Operation, pre *image.RGBA) {
	area := op.Bounds().Image().Intersect(buf.Bounds())
	if area.Empty() {
		return
	}
	out := pre
	if out == nil || out.Bounds() != area {
		var err error
		out, err = c.Engine.Apply(op, effects.Snapshot(buf, area))
		if err != nil {
			log.Printf("effect %T: %v", op, err)
			return
		}
	}
	draw.Draw(buf, area, out, area.Min, draw.Src)
}

func freehandSegments(f ops.Freehand) []segment {
	pts := f.Points()
	if len(pts) == 1 {
		return []segment{{pts[0], pts[0]}}
	}
	segs := make([]segment, 0, len(pts))
	f.Segments(func(a, b geom.Point) { segs = append(segs, segment{a, b}) })
	return segs
}

// FrameArea is the part of bounds kept by the last Crop in active, or
// bounds itself when no crop applies.
func FrameArea(bounds image.Rectangle, active []ops.Operation) image.Rectangle {
	for i := len(active) - 1; i >= 0; i-- {
		if c, ok := active[i].(ops.Crop); ok {
			if r := c.Region.Image().Intersect(bounds); !r.Empty() {
				return r
			}
			break
		}
	}
	return bounds
}

// Frame cuts buf to FrameArea. It always returns a new zero-origin image.
func Frame(buf *image.RGBA, active []ops.Operation) *image.RGBA {
	area := FrameArea(buf.Bounds(), active)
	out := image.NewRGBA(image.Rect(0, 0, area.Dx(), area.Dy()))
	draw.Draw(out, out.Bounds(), buf, area.Min, draw.Src)
	return out
}
