package tool

import (
	"github.com/example/markshot/internal/effects"
	"github.com/example/markshot/internal/geom"
	"github.com/example/markshot/internal/ops"
)

// DefaultEpsilon is the minimum press-to-release distance for shape tools.
const DefaultEpsilon = 2.0

// Gesture is one completed press, drag, release sequence in image space.
type Gesture struct {
	Press   geom.Point
	Drags   []geom.Point
	Release geom.Point
}

// Points returns press, every drag point and release in order.
func (g Gesture) Points() []geom.Point {
	out := make([]geom.Point, 0, len(g.Drags)+2)
	out = append(out, g.Press)
	out = append(out, g.Drags...)
	return append(out, g.Release)
}

// Bounds is the rectangle spanned by press and release.
func (g Gesture) Bounds() geom.Rect { return geom.NewRect(g.Press, g.Release) }

// Context is the session state a gesture is interpreted against.
type Context struct {
	Tool      Tool
	Style     geom.Style
	Secondary geom.Colour
	Counter   *BubbleCounter
	// Windows are the desktop's top-level windows in image space, topmost
	// first. A crop click snaps to the one under the pointer.
	Windows []geom.Rect
}

// WindowAt returns the topmost window containing p.
func (ctx Context) WindowAt(p geom.Point) (geom.Rect, bool) {
	for _, w := range ctx.Windows {
		if !w.Empty() && w.Contains(p) {
			return w, true
		}
	}
	return geom.Rect{}, false
}

// Controller builds operations from gestures. The zero value is not useful;
// use NewController.
type Controller struct {
	Epsilon         float64
	BlurRadius      int
	PixelateBlock   int
	BubbleRadius    float64
	HighlightColour geom.Colour
	FreehandOpacity float64
}

// NewController returns a controller with the default settings.
func NewController() Controller {
	return Controller{
		Epsilon:         DefaultEpsilon,
		BlurRadius:      effects.DefaultBlurRadius,
		PixelateBlock:   effects.DefaultPixelateBlock,
		BubbleRadius:    ops.DefaultBubbleRadius,
		HighlightColour: geom.DefaultHighlight,
		FreehandOpacity: 1,
	}
}

// Build interprets g for ctx.Tool. The boolean is false when the gesture is
// too small to mean anything, or the tool does not build from gestures.
func (c Controller) Build(ctx Context, g Gesture) (ops.Operation, bool) {
	if !g.Press.Finite() || !g.Release.Finite() {
		return nil, false
	}
	moved := g.Press.Dist(g.Release) > c.Epsilon
	switch ctx.Tool {
	case Line:
		if !moved {
			return nil, false
		}
		return ops.NewLine(g.Press, g.Release, ctx.Style), true
	case Arrow:
		if !moved {
			return nil, false
		}
		return ops.NewArrow(g.Press, g.Release, ctx.Style), true
	case Rectangle:
		if !moved {
			return nil, false
		}
		return ops.NewRectangle(g.Bounds(), ctx.Style), true
	case Ellipse:
		if !moved {
			return nil, false
		}
		return ops.NewEllipse(g.Bounds(), ctx.Style), true
	case Freehand:
		pts := dedupe(g.Points())
		if len(pts) < 2 {
			return nil, false
		}
		return ops.NewFreehand(pts, ctx.Style, c.FreehandOpacity), true
	case Highlight:
		if r := g.Bounds(); !r.Empty() {
			return ops.NewHighlight(r, c.HighlightColour), true
		}
	case Pixelate:
		if r := g.Bounds(); !r.Empty() {
			return ops.NewPixelate(r, c.PixelateBlock), true
		}
	case Blur:
		if r := g.Bounds(); !r.Empty() {
			return ops.NewBlur(r, c.BlurRadius), true
		}
	case Crop:
		if r := g.Bounds(); moved && !r.Empty() {
			return ops.NewCrop(r), true
		}
		if w, ok := ctx.WindowAt(g.Press); ok {
			return ops.NewCrop(w), true
		}
	case Bubble:
		if ctx.Counter == nil {
			return nil, false
		}
		return ops.NewBubble(g.Release, ctx.Counter.Next(), c.BubbleRadius, ctx.Style.Stroke, ctx.Secondary), true
	}
	return nil, false
}

// dedupe drops consecutive repeats and non-finite points.
func dedupe(pts []geom.Point) []geom.Point {
	out := pts[:0]
	for _, p := range pts {
		if !p.Finite() {
			continue
		}
		if n := len(out); n > 0 && out[n-1] == p {
			continue
		}
		out = append(out, p)
	}
	return out
}
