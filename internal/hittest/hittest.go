// Package hittest finds the operation under a point.
package hittest

import (
	"math"

	"github.com/example/markshot/internal/geom"
	"github.com/example/markshot/internal/ops"
)

// DefaultTolerance is the minimum pick distance for thin strokes, in pixels.
const DefaultTolerance = 4.0

// Tester picks the topmost operation containing a point.
type Tester struct {
	Tolerance float64
}

// New returns a tester with the default tolerance.
func New() Tester { return Tester{Tolerance: DefaultTolerance} }

// Test scans active from the newest operation down and returns the index of
// the first one that contains p.
func (t Tester) Test(active []ops.Operation, p geom.Point) (int, bool) {
	for i := len(active) - 1; i >= 0; i-- {
		if t.Hit(active[i], p) {
			return i, true
		}
	}
	return -1, false
}

// Hit reports whether p lies on op.
func (t Tester) Hit(op ops.Operation, p geom.Point) bool {
	switch op := op.(type) {
	case ops.Line:
		return geom.DistanceToSegment(p, op.From, op.To) <= t.reach(op.Style)
	case ops.Arrow:
		h1, h2 := op.Head()
		r := t.reach(op.Style)
		return geom.DistanceToSegment(p, op.From, op.To) <= r ||
			geom.DistanceToSegment(p, op.To, h1) <= r ||
			geom.DistanceToSegment(p, op.To, h2) <= r
	case ops.Freehand:
		r := t.reach(op.Style)
		pts := op.Points()
		if len(pts) == 1 {
			return p.Dist(pts[0]) <= r
		}
		hit := false
		op.Segments(func(a, b geom.Point) {
			if !hit && geom.DistanceToSegment(p, a, b) <= r {
				hit = true
			}
		})
		return hit
	case ops.Rectangle:
		return geom.RectDistance(p, op.Rect) <= op.Style.HalfWidth()
	case ops.Ellipse:
		return geom.EllipseDistance(p, op.Rect) <= op.Style.HalfWidth()
	case ops.Highlight, ops.Pixelate, ops.Blur, ops.Text:
		return op.Bounds().Contains(p)
	case ops.Bubble:
		return p.Dist(op.Centre) <= op.Radius
	case ops.Crop:
		return false
	default:
		return false
	}
}

func (t Tester) reach(s geom.Style) float64 {
	return math.Max(s.HalfWidth(), t.Tolerance)
}
