// Package geom holds the points, rectangles, colours and stroke styles the
// annotation engine is built from.
package geom

import (
	"image"
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Point is a position in image space, relative to the top-left corner of the
// captured image.
type Point struct {
	X, Y float64
}

// Pt is shorthand for Point{X: x, Y: y}.
func Pt(x, y float64) Point { return Point{X: x, Y: y} }

// Vec returns p as a gonum vector.
func (p Point) Vec() r2.Vec { return r2.Vec{X: p.X, Y: p.Y} }

// FromVec converts a gonum vector back to a Point.
func FromVec(v r2.Vec) Point { return Point{X: v.X, Y: v.Y} }

// Add returns p translated by q.
func (p Point) Add(q Point) Point { return Point{p.X + q.X, p.Y + q.Y} }

// Sub returns p - q.
func (p Point) Sub(q Point) Point { return Point{p.X - q.X, p.Y - q.Y} }

// Dist returns the Euclidean distance between p and q.
func (p Point) Dist(q Point) float64 { return r2.Norm(r2.Sub(p.Vec(), q.Vec())) }

// Finite reports whether both coordinates are finite numbers.
func (p Point) Finite() bool {
	return !math.IsNaN(p.X) && !math.IsInf(p.X, 0) && !math.IsNaN(p.Y) && !math.IsInf(p.Y, 0)
}

// Rect is an axis-aligned rectangle. Rects built with NewRect are normalised
// so Min is never greater than Max on either axis.
type Rect struct {
	Min, Max Point
}

// NewRect returns the rectangle spanned by two corners given in any order.
func NewRect(a, b Point) Rect {
	return Rect{
		Min: Point{math.Min(a.X, b.X), math.Min(a.Y, b.Y)},
		Max: Point{math.Max(a.X, b.X), math.Max(a.Y, b.Y)},
	}
}

// RectXYWH builds a rectangle from an origin and a size.
func RectXYWH(x, y, w, h float64) Rect {
	return NewRect(Pt(x, y), Pt(x+w, y+h))
}

// BoundsOf returns the smallest rectangle containing every point.
func BoundsOf(pts ...Point) Rect {
	if len(pts) == 0 {
		return Rect{}
	}
	r := Rect{Min: pts[0], Max: pts[0]}
	for _, p := range pts[1:] {
		r.Min.X = math.Min(r.Min.X, p.X)
		r.Min.Y = math.Min(r.Min.Y, p.Y)
		r.Max.X = math.Max(r.Max.X, p.X)
		r.Max.Y = math.Max(r.Max.Y, p.Y)
	}
	return r
}

// Dx returns the width of r.
func (r Rect) Dx() float64 { return r.Max.X - r.Min.X }

// Dy returns the height of r.
func (r Rect) Dy() float64 { return r.Max.Y - r.Min.Y }

// Empty reports whether r has zero area.
func (r Rect) Empty() bool { return r.Dx() <= 0 || r.Dy() <= 0 }

// Centre returns the midpoint of r.
func (r Rect) Centre() Point {
	return Point{(r.Min.X + r.Max.X) / 2, (r.Min.Y + r.Max.Y) / 2}
}

// Contains reports whether p lies inside r, edges included.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.Min.X && p.X <= r.Max.X && p.Y >= r.Min.Y && p.Y <= r.Max.Y
}

// Inset shrinks r by d on every side. A negative d grows it.
func (r Rect) Inset(d float64) Rect {
	out := Rect{
		Min: Point{r.Min.X + d, r.Min.Y + d},
		Max: Point{r.Max.X - d, r.Max.Y - d},
	}
	if out.Min.X > out.Max.X {
		mid := (r.Min.X + r.Max.X) / 2
		out.Min.X, out.Max.X = mid, mid
	}
	if out.Min.Y > out.Max.Y {
		mid := (r.Min.Y + r.Max.Y) / 2
		out.Min.Y, out.Max.Y = mid, mid
	}
	return out
}

// Union returns the smallest rectangle containing r and s.
func (r Rect) Union(s Rect) Rect {
	return BoundsOf(r.Min, r.Max, s.Min, s.Max)
}

// Translate moves r by d.
func (r Rect) Translate(d Point) Rect {
	return Rect{Min: r.Min.Add(d), Max: r.Max.Add(d)}
}

// Image returns the pixel rectangle covering r. Min is floored and Max is
// ceiled so every partially covered pixel is included.
func (r Rect) Image() image.Rectangle {
	return image.Rect(
		int(math.Floor(r.Min.X)), int(math.Floor(r.Min.Y)),
		int(math.Ceil(r.Max.X)), int(math.Ceil(r.Max.Y)),
	)
}

// FromImage converts a pixel rectangle to a Rect.
func FromImage(r image.Rectangle) Rect {
	return NewRect(Pt(float64(r.Min.X), float64(r.Min.Y)), Pt(float64(r.Max.X), float64(r.Max.Y)))
}

// DistanceToSegment returns the distance from p to the segment a-b. A
// zero-length segment degrades to the distance to a.
func DistanceToSegment(p, a, b Point) float64 {
	ab := r2.Sub(b.Vec(), a.Vec())
	ap := r2.Sub(p.Vec(), a.Vec())
	l2 := r2.Norm2(ab)
	if l2 == 0 {
		return r2.Norm(ap)
	}
	t := r2.Dot(ap, ab) / l2
	t = math.Max(0, math.Min(1, t))
	closest := r2.Add(a.Vec(), r2.Scale(t, ab))
	return r2.Norm(r2.Sub(p.Vec(), closest))
}

// RectDistance returns the signed distance from p to the outline of r:
// negative inside, positive outside.
func RectDistance(p Point, r Rect) float64 {
	dx := math.Max(r.Min.X-p.X, p.X-r.Max.X)
	dy := math.Max(r.Min.Y-p.Y, p.Y-r.Max.Y)
	if dx <= 0 && dy <= 0 {
		return math.Max(dx, dy)
	}
	return math.Hypot(math.Max(dx, 0), math.Max(dy, 0))
}

// EllipseDistance approximates the signed distance from p to the ellipse
// inscribed in r, measured along the ray from the centre. Negative inside.
// A flat ellipse degrades to its diameter segment.
func EllipseDistance(p Point, r Rect) float64 {
	a, b := r.Dx()/2, r.Dy()/2
	if a <= 0 || b <= 0 {
		return DistanceToSegment(p, r.Min, r.Max)
	}
	c := r.Centre()
	d := p.Sub(c)
	f := math.Hypot(d.X/a, d.Y/b)
	if f == 0 {
		return -math.Min(a, b)
	}
	return math.Hypot(d.X, d.Y) * (1 - 1/f)
}

// Rotate rotates p around centre by angle radians.
func Rotate(p, centre Point, angle float64) Point {
	return FromVec(r2.Rotate(p.Vec(), angle, centre.Vec()))
}
