package effects

import (
	"image"

	"github.com/anthonynsimon/bild/clone"
)

// Blur returns a copy of src with region smoothed by passes iterations of a
// separable box blur. Each pass runs horizontally then vertically with the
// window clamped to the region, so pixels outside it never contribute. A flat
// region stays exactly flat.
func Blur(src *image.RGBA, region image.Rectangle, radius, passes int) *image.RGBA {
	out := clone.AsRGBA(src)
	r := region.Intersect(src.Bounds())
	if radius <= 0 || passes <= 0 || r.Empty() {
		return out
	}
	w, h := r.Dx(), r.Dy()
	n := w
	if h > n {
		n = h
	}
	prefix := make([][4]int, n+1)
	line := make([][4]uint8, n)

	for p := 0; p < passes; p++ {
		for y := r.Min.Y; y < r.Max.Y; y++ {
			off := out.PixOffset(r.Min.X, y)
			boxLine(out.Pix, off, 4, w, radius, prefix, line)
		}
		for x := r.Min.X; x < r.Max.X; x++ {
			off := out.PixOffset(x, r.Min.Y)
			boxLine(out.Pix, off, out.Stride, h, radius, prefix, line)
		}
	}
	return out
}

// boxLine averages n pixels starting at pix[off], step bytes apart, in place.
func boxLine(pix []uint8, off, step, n, radius int, prefix [][4]int, line [][4]uint8) {
	for i := 0; i < n; i++ {
		o := off + i*step
		for c := 0; c < 4; c++ {
			prefix[i+1][c] = prefix[i][c] + int(pix[o+c])
		}
	}
	for i := 0; i < n; i++ {
		i0 := i - radius
		if i0 < 0 {
			i0 = 0
		}
		i1 := i + radius
		if i1 >= n {
			i1 = n - 1
		}
		count := i1 - i0 + 1
		for c := 0; c < 4; c++ {
			line[i][c] = uint8((prefix[i1+1][c] - prefix[i0][c]) / count)
		}
	}
	for i := 0; i < n; i++ {
		o := off + i*step
		copy(pix[o:o+4], line[i][:])
	}
}
