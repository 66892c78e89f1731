// Package ops defines the closed set of annotation operations.
//
// An Operation is an immutable record of one committed action. Only this
// package can add variants, so every consumer (compositor, hit tester,
// codec) handles the full set with a single type switch.
package ops

import (
	"fmt"
	"image"
	"image/draw"
	"math"

	"github.com/example/markshot/internal/geom"
)

// Kind is the stable discriminator of an operation variant.
type Kind uint8

const (
	KindLine Kind = iota + 1
	KindArrow
	KindRectangle
	KindEllipse
	KindFreehand
	KindPixelate
	KindBlur
	KindText
	KindBubble
	KindHighlight
	KindCrop
)

var kindTags = [...]string{
	KindLine:      "line",
	KindArrow:     "arrow",
	KindRectangle: "rectangle",
	KindEllipse:   "ellipse",
	KindFreehand:  "freehand",
	KindPixelate:  "pixelate",
	KindBlur:      "blur",
	KindText:      "text",
	KindBubble:    "bubble",
	KindHighlight: "highlight",
	KindCrop:      "crop",
}

// String returns the persisted tag of k.
func (k Kind) String() string {
	if int(k) < len(kindTags) && kindTags[k] != "" {
		return kindTags[k]
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// ParseKind maps a persisted tag back to its Kind.
func ParseKind(tag string) (Kind, bool) {
	for k, t := range kindTags {
		if t != "" && t == tag {
			return Kind(k), true
		}
	}
	return 0, false
}

// Operation is one committed annotation. Implementations are value types;
// slices and bitmaps they hold are private copies and must be treated as
// read-only.
type Operation interface {
	Kind() Kind
	// Bounds is the area the operation can touch, stroke included.
	Bounds() geom.Rect
	operation()
}

// Arrow head geometry.
const (
	ArrowAperture     = math.Pi / 6
	DefaultArrowAngle = 0.0
)

// Line is a straight stroke.
type Line struct {
	From, To geom.Point
	Style    geom.Style
}

func NewLine(from, to geom.Point, s geom.Style) Line {
	return Line{From: from, To: to, Style: s}
}

func (Line) Kind() Kind { return KindLine }
func (l Line) Bounds() geom.Rect {
	return geom.BoundsOf(l.From, l.To).Inset(-l.Style.HalfWidth())
}
func (Line) operation() {}

// Arrow is a line with a two-stroke head at To.
type Arrow struct {
	From, To geom.Point
	// Heading is the direction of travel in radians.
	Heading float64
	Style   geom.Style
}

// NewArrow computes the heading from the from->to vector. A zero-length
// vector points the head right.
func NewArrow(from, to geom.Point, s geom.Style) Arrow {
	heading := DefaultArrowAngle
	if d := to.Sub(from); d.X != 0 || d.Y != 0 {
		heading = math.Atan2(d.Y, d.X)
	}
	return Arrow{From: from, To: to, Heading: heading, Style: s}
}

// HeadLength is the length of each head stroke.
func (a Arrow) HeadLength() float64 { return 6 + 2*a.Style.Width }

// Head returns the two outer points of the arrow head.
func (a Arrow) Head() (geom.Point, geom.Point) {
	size := a.HeadLength()
	left := a.Heading + ArrowAperture
	right := a.Heading - ArrowAperture
	p1 := geom.Pt(a.To.X-math.Cos(left)*size, a.To.Y-math.Sin(left)*size)
	p2 := geom.Pt(a.To.X-math.Cos(right)*size, a.To.Y-math.Sin(right)*size)
	return p1, p2
}

func (Arrow) Kind() Kind { return KindArrow }
func (a Arrow) Bounds() geom.Rect {
	h1, h2 := a.Head()
	return geom.BoundsOf(a.From, a.To, h1, h2).Inset(-a.Style.HalfWidth())
}
func (Arrow) operation() {}

// Rectangle is an outlined, optionally filled box.
type Rectangle struct {
	Rect  geom.Rect
	Style geom.Style
}

func NewRectangle(r geom.Rect, s geom.Style) Rectangle {
	return Rectangle{Rect: geom.NewRect(r.Min, r.Max), Style: s}
}

func (Rectangle) Kind() Kind          { return KindRectangle }
func (r Rectangle) Bounds() geom.Rect { return r.Rect.Inset(-r.Style.HalfWidth()) }
func (Rectangle) operation()          {}

// Ellipse is inscribed in Rect.
type Ellipse struct {
	Rect  geom.Rect
	Style geom.Style
}

func NewEllipse(r geom.Rect, s geom.Style) Ellipse {
	return Ellipse{Rect: geom.NewRect(r.Min, r.Max), Style: s}
}

func (Ellipse) Kind() Kind          { return KindEllipse }
func (e Ellipse) Bounds() geom.Rect { return e.Rect.Inset(-e.Style.HalfWidth()) }
func (Ellipse) operation()          {}

// Freehand is a polyline drawn with a uniform opacity.
type Freehand struct {
	points  []geom.Point
	Style   geom.Style
	Opacity float64
}

// NewFreehand copies pts. Opacity is clamped to [0, 1].
func NewFreehand(pts []geom.Point, s geom.Style, opacity float64) Freehand {
	cp := make([]geom.Point, len(pts))
	copy(cp, pts)
	return Freehand{points: cp, Style: s, Opacity: math.Max(0, math.Min(1, opacity))}
}

// Points returns a copy of the polyline.
func (f Freehand) Points() []geom.Point {
	cp := make([]geom.Point, len(f.points))
	copy(cp, f.points)
	return cp
}

// Len returns the number of points.
func (f Freehand) Len() int { return len(f.points) }

// Segments calls fn for every consecutive pair of points.
func (f Freehand) Segments(fn func(a, b geom.Point)) {
	for i := 1; i < len(f.points); i++ {
		fn(f.points[i-1], f.points[i])
	}
}

func (Freehand) Kind() Kind { return KindFreehand }
func (f Freehand) Bounds() geom.Rect {
	return geom.BoundsOf(f.points...).Inset(-f.Style.HalfWidth())
}
func (Freehand) operation() {}

// Pixelate replaces Region with block averages.
type Pixelate struct {
	Region geom.Rect
	Block  int
}

func NewPixelate(region geom.Rect, block int) Pixelate {
	return Pixelate{Region: geom.NewRect(region.Min, region.Max), Block: block}
}

func (Pixelate) Kind() Kind          { return KindPixelate }
func (p Pixelate) Bounds() geom.Rect { return p.Region }
func (Pixelate) operation()          {}

// Blur smooths Region with an iterated box blur of the given radius.
type Blur struct {
	Region geom.Rect
	Radius int
}

func NewBlur(region geom.Rect, radius int) Blur {
	return Blur{Region: geom.NewRect(region.Min, region.Max), Radius: radius}
}

func (Blur) Kind() Kind          { return KindBlur }
func (b Blur) Bounds() geom.Rect { return b.Region }
func (Blur) operation()          {}

// Text is a pre-rendered bitmap placed with its top-left corner at Anchor.
// Markup keeps the source so the text can be re-edited.
type Text struct {
	Anchor geom.Point
	Markup string
	bitmap *image.RGBA
}

// NewText copies bitmap into a zero-origin RGBA image.
func NewText(anchor geom.Point, markup string, bitmap image.Image) Text {
	var cp *image.RGBA
	if bitmap != nil {
		b := bitmap.Bounds()
		cp = image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		draw.Draw(cp, cp.Bounds(), bitmap, b.Min, draw.Src)
	}
	return Text{Anchor: anchor, Markup: markup, bitmap: cp}
}

// Bitmap returns the rendered text. Callers must not modify it.
func (t Text) Bitmap() *image.RGBA { return t.bitmap }

func (Text) Kind() Kind { return KindText }
func (t Text) Bounds() geom.Rect {
	if t.bitmap == nil {
		return geom.Rect{Min: t.Anchor, Max: t.Anchor}
	}
	b := t.bitmap.Bounds()
	return geom.RectXYWH(t.Anchor.X, t.Anchor.Y, float64(b.Dx()), float64(b.Dy()))
}
func (Text) operation() {}

// DefaultBubbleRadius is the radius of numbered bubbles.
const DefaultBubbleRadius = 10.0

// Bubble is a filled disc carrying a sequence number.
type Bubble struct {
	Centre geom.Point
	Label  int
	Radius float64
	Fill   geom.Colour
	// TextColour is used for the label; zero alpha picks black or white by
	// the fill's lightness.
	TextColour geom.Colour
}

func NewBubble(centre geom.Point, label int, radius float64, fill, text geom.Colour) Bubble {
	if radius <= 0 {
		radius = DefaultBubbleRadius
	}
	return Bubble{Centre: centre, Label: label, Radius: radius, Fill: fill, TextColour: text}
}

// LabelColour resolves the colour the number is drawn in.
func (b Bubble) LabelColour() geom.Colour {
	if b.TextColour.A > 0 {
		return b.TextColour
	}
	return b.Fill.Contrast()
}

func (Bubble) Kind() Kind { return KindBubble }
func (b Bubble) Bounds() geom.Rect {
	return geom.Rect{Min: b.Centre, Max: b.Centre}.Inset(-b.Radius)
}
func (Bubble) operation() {}

// Highlight is a translucent marker over a rectangle.
type Highlight struct {
	Rect   geom.Rect
	Colour geom.Colour
}

func NewHighlight(r geom.Rect, c geom.Colour) Highlight {
	return Highlight{Rect: geom.NewRect(r.Min, r.Max), Colour: c}
}

func (Highlight) Kind() Kind          { return KindHighlight }
func (h Highlight) Bounds() geom.Rect { return h.Rect }
func (Highlight) operation()          {}

// Crop frames the final composite. It draws nothing itself; the last active
// Crop decides the output bounds.
type Crop struct {
	Region geom.Rect
}

func NewCrop(region geom.Rect) Crop {
	return Crop{Region: geom.NewRect(region.Min, region.Max)}
}

func (Crop) Kind() Kind          { return KindCrop }
func (c Crop) Bounds() geom.Rect { return c.Region }
func (Crop) operation()          {}

// IsEffect reports whether op reads back the composite beneath it.
func IsEffect(op Operation) bool {
	switch op.(type) {
	case Blur, Pixelate:
		return true
	}
	return false
}
