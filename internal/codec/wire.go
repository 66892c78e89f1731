package codec

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	"math"

	"github.com/disintegration/imaging"

	"github.com/example/markshot/internal/geom"
	"github.com/example/markshot/internal/ops"
)

// maxCoord bounds every coordinate, size and count read from a document so
// they convert to int without overflowing.
const maxCoord = 1 << 24

func inRange(f float64) bool { return finite(f) && math.Abs(f) <= maxCoord }

type wirePoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type wireRect struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// wireColour is decoded as floats so out of range components are reported
// per operation instead of failing the whole document.
type wireColour []float64

type wireOp struct {
	Type    string      `json:"type"`
	From    *wirePoint  `json:"from,omitempty"`
	To      *wirePoint  `json:"to,omitempty"`
	Heading *float64    `json:"heading,omitempty"`
	Rect    *wireRect   `json:"rect,omitempty"`
	Points  []wirePoint `json:"points,omitempty"`
	Anchor  *wirePoint  `json:"anchor,omitempty"`
	Stroke  wireColour  `json:"stroke,omitempty"`
	Fill    wireColour  `json:"fill,omitempty"`
	Colour  wireColour  `json:"colour,omitempty"`
	Label   wireColour  `json:"label_colour,omitempty"`
	Width   *float64    `json:"width,omitempty"`
	Opacity *float64    `json:"opacity,omitempty"`
	Block   *float64    `json:"block,omitempty"`
	Radius  *float64    `json:"radius,omitempty"`
	Number  *float64    `json:"number,omitempty"`
	Markup  string      `json:"markup,omitempty"`
	Bitmap  string      `json:"bitmap,omitempty"`
}

func pointOut(p geom.Point) *wirePoint { return &wirePoint{X: p.X, Y: p.Y} }

func rectOut(r geom.Rect) *wireRect {
	return &wireRect{X: r.Min.X, Y: r.Min.Y, W: r.Dx(), H: r.Dy()}
}

func colourOut(c geom.Colour) wireColour {
	t := c.Tuple()
	return wireColour{float64(t[0]), float64(t[1]), float64(t[2]), float64(t[3])}
}

func float(f float64) *float64 { return &f }

func styleOut(w *wireOp, s geom.Style) {
	w.Stroke = colourOut(s.Stroke)
	if s.Filled() {
		w.Fill = colourOut(s.Fill)
	}
	w.Width = float(s.Width)
}

func encodeOp(op ops.Operation) (wireOp, error) {
	w := wireOp{Type: op.Kind().String()}
	switch op := op.(type) {
	case ops.Line:
		w.From, w.To = pointOut(op.From), pointOut(op.To)
		styleOut(&w, op.Style)
	case ops.Arrow:
		w.From, w.To = pointOut(op.From), pointOut(op.To)
		w.Heading = float(op.Heading)
		styleOut(&w, op.Style)
	case ops.Rectangle:
		w.Rect = rectOut(op.Rect)
		styleOut(&w, op.Style)
	case ops.Ellipse:
		w.Rect = rectOut(op.Rect)
		styleOut(&w, op.Style)
	case ops.Freehand:
		for _, p := range op.Points() {
			w.Points = append(w.Points, wirePoint{X: p.X, Y: p.Y})
		}
		w.Opacity = float(op.Opacity)
		styleOut(&w, op.Style)
	case ops.Pixelate:
		w.Rect = rectOut(op.Region)
		w.Block = float(float64(op.Block))
	case ops.Blur:
		w.Rect = rectOut(op.Region)
		w.Radius = float(float64(op.Radius))
	case ops.Text:
		w.Anchor = pointOut(op.Anchor)
		w.Markup = op.Markup
		if bm := op.Bitmap(); bm != nil {
			var buf bytes.Buffer
			if err := imaging.Encode(&buf, bm, imaging.PNG); err != nil {
				return w, fmt.Errorf("encode text bitmap: %w", err)
			}
			w.Bitmap = base64.StdEncoding.EncodeToString(buf.Bytes())
		}
	case ops.Bubble:
		w.Anchor = pointOut(op.Centre)
		w.Number = float(float64(op.Label))
		w.Radius = float(op.Radius)
		w.Fill = colourOut(op.Fill)
		if op.TextColour.A > 0 {
			w.Label = colourOut(op.TextColour)
		}
	case ops.Highlight:
		w.Rect = rectOut(op.Rect)
		w.Colour = colourOut(op.Colour)
	case ops.Crop:
		w.Rect = rectOut(op.Region)
	default:
		return w, fmt.Errorf("%w: %T", ErrUnknownKind, op)
	}
	return w, nil
}

func decodeOp(raw json.RawMessage) (ops.Operation, string, error) {
	var w wireOp
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	kind, ok := ops.ParseKind(w.Type)
	if !ok {
		return nil, w.Type, fmt.Errorf("%w %q", ErrUnknownKind, w.Type)
	}
	op, err := w.build(kind)
	return op, w.Type, err
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))
}

func (w wireOp) build(kind ops.Kind) (ops.Operation, error) {
	switch kind {
	case ops.KindLine, ops.KindArrow:
		from, err := w.From.point("from")
		if err != nil {
			return nil, err
		}
		to, err := w.To.point("to")
		if err != nil {
			return nil, err
		}
		s, err := w.style()
		if err != nil {
			return nil, err
		}
		if kind == ops.KindLine {
			return ops.NewLine(from, to, s), nil
		}
		a := ops.NewArrow(from, to, s)
		if w.Heading != nil {
			if !finite(*w.Heading) {
				return nil, invalid("heading is not finite")
			}
			a.Heading = *w.Heading
		}
		return a, nil
	case ops.KindRectangle, ops.KindEllipse:
		r, err := w.Rect.rect()
		if err != nil {
			return nil, err
		}
		s, err := w.style()
		if err != nil {
			return nil, err
		}
		if kind == ops.KindRectangle {
			return ops.NewRectangle(r, s), nil
		}
		return ops.NewEllipse(r, s), nil
	case ops.KindFreehand:
		if len(w.Points) < 2 {
			return nil, invalid("freehand needs at least 2 points, got %d", len(w.Points))
		}
		pts := make([]geom.Point, len(w.Points))
		for i := range w.Points {
			p, err := w.Points[i].point("points")
			if err != nil {
				return nil, err
			}
			pts[i] = p
		}
		s, err := w.style()
		if err != nil {
			return nil, err
		}
		opacity := 1.0
		if w.Opacity != nil {
			if !finite(*w.Opacity) || *w.Opacity < 0 || *w.Opacity > 1 {
				return nil, invalid("opacity %v outside 0..1", *w.Opacity)
			}
			opacity = *w.Opacity
		}
		return ops.NewFreehand(pts, s, opacity), nil
	case ops.KindPixelate:
		r, err := w.Rect.rect()
		if err != nil {
			return nil, err
		}
		block, err := positiveInt("block", w.Block)
		if err != nil {
			return nil, err
		}
		return ops.NewPixelate(r, block), nil
	case ops.KindBlur:
		r, err := w.Rect.rect()
		if err != nil {
			return nil, err
		}
		radius, err := positiveInt("radius", w.Radius)
		if err != nil {
			return nil, err
		}
		return ops.NewBlur(r, radius), nil
	case ops.KindText:
		anchor, err := w.Anchor.point("anchor")
		if err != nil {
			return nil, err
		}
		var bm image.Image
		if w.Bitmap != "" {
			data, err := base64.StdEncoding.DecodeString(w.Bitmap)
			if err != nil {
				return nil, invalid("bitmap: %v", err)
			}
			bm, err = imaging.Decode(bytes.NewReader(data))
			if err != nil {
				return nil, invalid("bitmap: %v", err)
			}
		}
		return ops.NewText(anchor, w.Markup, bm), nil
	case ops.KindBubble:
		centre, err := w.Anchor.point("anchor")
		if err != nil {
			return nil, err
		}
		label, err := positiveInt("number", w.Number)
		if err != nil {
			return nil, err
		}
		radius := 0.0
		if w.Radius != nil {
			if !inRange(*w.Radius) || *w.Radius < 0 {
				return nil, invalid("radius %v", *w.Radius)
			}
			radius = *w.Radius
		}
		fill, err := w.Fill.colour("fill", geom.DefaultStroke)
		if err != nil {
			return nil, err
		}
		text, err := w.Label.colour("label_colour", geom.Colour{})
		if err != nil {
			return nil, err
		}
		return ops.NewBubble(centre, label, radius, fill, text), nil
	case ops.KindHighlight:
		r, err := w.Rect.rect()
		if err != nil {
			return nil, err
		}
		c, err := w.Colour.colour("colour", geom.DefaultHighlight)
		if err != nil {
			return nil, err
		}
		return ops.NewHighlight(r, c), nil
	case ops.KindCrop:
		r, err := w.Rect.rect()
		if err != nil {
			return nil, err
		}
		return ops.NewCrop(r), nil
	}
	return nil, fmt.Errorf("%w %q", ErrUnknownKind, w.Type)
}

func finite(f float64) bool { return !math.IsNaN(f) && !math.IsInf(f, 0) }

func (p *wirePoint) point(field string) (geom.Point, error) {
	if p == nil {
		return geom.Point{}, invalid("missing %s", field)
	}
	pt := geom.Pt(p.X, p.Y)
	if !pt.Finite() {
		return geom.Point{}, invalid("%s is not finite", field)
	}
	if !inRange(p.X) || !inRange(p.Y) {
		return geom.Point{}, invalid("%s %v,%v out of range", field, p.X, p.Y)
	}
	return pt, nil
}

func (r *wireRect) rect() (geom.Rect, error) {
	if r == nil {
		return geom.Rect{}, invalid("missing rect")
	}
	for _, f := range []float64{r.X, r.Y, r.W, r.H} {
		if !finite(f) {
			return geom.Rect{}, invalid("rect is not finite")
		}
	}
	if r.W < 0 || r.H < 0 {
		return geom.Rect{}, invalid("rect has negative size %vx%v", r.W, r.H)
	}
	if !inRange(r.X) || !inRange(r.Y) || !inRange(r.X+r.W) || !inRange(r.Y+r.H) {
		return geom.Rect{}, invalid("rect %v,%v %vx%v out of range", r.X, r.Y, r.W, r.H)
	}
	return geom.RectXYWH(r.X, r.Y, r.W, r.H), nil
}

func (c wireColour) colour(field string, def geom.Colour) (geom.Colour, error) {
	if c == nil {
		return def, nil
	}
	if len(c) != 4 {
		return geom.Colour{}, invalid("%s needs 4 components, got %d", field, len(c))
	}
	var t [4]uint8
	for i, v := range c {
		if !finite(v) || v < 0 || v > 255 || v != math.Trunc(v) {
			return geom.Colour{}, invalid("%s component %v outside 0..255", field, v)
		}
		t[i] = uint8(v)
	}
	return geom.FromTuple(t), nil
}

func (w wireOp) style() (geom.Style, error) {
	s := geom.DefaultStyle()
	var err error
	if s.Stroke, err = w.Stroke.colour("stroke", s.Stroke); err != nil {
		return s, err
	}
	if s.Fill, err = w.Fill.colour("fill", geom.Colour{}); err != nil {
		return s, err
	}
	if w.Width != nil {
		if !inRange(*w.Width) || *w.Width <= 0 {
			return s, invalid("width %v", *w.Width)
		}
		s.Width = *w.Width
	}
	return s, nil
}

func positiveInt(field string, v *float64) (int, error) {
	if v == nil {
		return 0, invalid("missing %s", field)
	}
	if !finite(*v) || *v < 1 || *v != math.Trunc(*v) {
		return 0, invalid("%s %v must be a whole number >= 1", field, *v)
	}
	if *v > maxCoord {
		return 0, invalid("%s %v out of range", field, *v)
	}
	return int(*v), nil
}
