package render

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/example/markshot/internal/geom"
)

type segment struct{ a, b geom.Point }

// coverage maps a distance outside a shape edge to an antialiased alpha.
func coverage(d float64) uint8 {
	c := 0.5 - d
	if c <= 0 {
		return 0
	}
	if c >= 1 {
		return 255
	}
	return uint8(c*255 + 0.5)
}

func centre(x, y int) geom.Point { return geom.Pt(float64(x)+0.5, float64(y)+0.5) }

// maskBounds is the pixel area a mask for r needs, clipped to clip.
func maskBounds(r geom.Rect, clip image.Rectangle) image.Rectangle {
	return r.Image().Inset(-1).Intersect(clip)
}

// segmentDistance is replaceable in tests that count distance evaluations.
var segmentDistance = geom.DistanceToSegment

// capsuleMask covers every pixel within hw of any segment. Each segment is
// only evaluated over its own padded bounds and coverage is max-combined, so
// overlapping segments still blend once.
func capsuleMask(segs []segment, hw float64, area image.Rectangle) *image.Alpha {
	m := image.NewAlpha(area)
	for _, s := range segs {
		r := maskBounds(geom.BoundsOf(s.a, s.b).Inset(-hw), area)
		for y := r.Min.Y; y < r.Max.Y; y++ {
			for x := r.Min.X; x < r.Max.X; x++ {
				a := coverage(segmentDistance(centre(x, y), s.a, s.b) - hw)
				if i := m.PixOffset(x, y); a > m.Pix[i] {
					m.Pix[i] = a
				}
			}
		}
	}
	return m
}

// shapeMasks evaluates a signed distance function over area and returns the
// fill mask (inside the outline) and the stroke mask (within hw of it).
func shapeMasks(sd func(geom.Point) float64, hw float64, area image.Rectangle, fill bool) (*image.Alpha, *image.Alpha) {
	stroke := image.NewAlpha(area)
	var inner *image.Alpha
	if fill {
		inner = image.NewAlpha(area)
	}
	for y := area.Min.Y; y < area.Max.Y; y++ {
		for x := area.Min.X; x < area.Max.X; x++ {
			d := sd(centre(x, y))
			if a := coverage(math.Abs(d) - hw); a > 0 {
				stroke.SetAlpha(x, y, color.Alpha{A: a})
			}
			if inner != nil {
				if a := coverage(d); a > 0 {
					inner.SetAlpha(x, y, color.Alpha{A: a})
				}
			}
		}
	}
	return inner, stroke
}

// discMask covers a filled circle.
func discMask(c geom.Point, r float64, area image.Rectangle) *image.Alpha {
	m := image.NewAlpha(area)
	for y := area.Min.Y; y < area.Max.Y; y++ {
		for x := area.Min.X; x < area.Max.X; x++ {
			if a := coverage(centre(x, y).Dist(c) - r); a > 0 {
				m.SetAlpha(x, y, color.Alpha{A: a})
			}
		}
	}
	return m
}

// paint composites col through m onto dst once, so overlapping parts of the
// mask never blend twice.
func paint(dst *image.RGBA, m *image.Alpha, col color.Color) {
	if m == nil || m.Rect.Empty() {
		return
	}
	draw.DrawMask(dst, m.Rect, image.NewUniform(col), image.Point{}, m, m.Rect.Min, draw.Over)
}
