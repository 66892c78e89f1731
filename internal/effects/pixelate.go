package effects

import (
	"image"
	"runtime"

	"github.com/anthonynsimon/bild/clone"
	"golang.org/x/sync/errgroup"
)

// Pixelate returns a copy of src with region replaced by a grid of
// block x block cells, each filled with the integer average of the pixels it
// covers. The grid is anchored at the region's top-left corner; cells on the
// right and bottom edges may be smaller. Rows of cells are averaged in
// parallel; each worker writes a disjoint band so the result does not depend
// on scheduling.
func Pixelate(src *image.RGBA, region image.Rectangle, block int) *image.RGBA {
	out := clone.AsRGBA(src)
	r := region.Intersect(src.Bounds())
	if block <= 1 || r.Empty() {
		return out
	}
	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for y0 := r.Min.Y; y0 < r.Max.Y; y0 += block {
		y1 := min(y0+block, r.Max.Y)
		g.Go(func() error {
			for x0 := r.Min.X; x0 < r.Max.X; x0 += block {
				x1 := min(x0+block, r.Max.X)
				fillAverage(out, image.Rect(x0, y0, x1, y1))
			}
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func fillAverage(img *image.RGBA, cell image.Rectangle) {
	var sum [4]int
	for y := cell.Min.Y; y < cell.Max.Y; y++ {
		o := img.PixOffset(cell.Min.X, y)
		for x := cell.Min.X; x < cell.Max.X; x++ {
			for c := 0; c < 4; c++ {
				sum[c] += int(img.Pix[o+c])
			}
			o += 4
		}
	}
	count := cell.Dx() * cell.Dy()
	var avg [4]uint8
	for c := range avg {
		avg[c] = uint8(sum[c] / count)
	}
	for y := cell.Min.Y; y < cell.Max.Y; y++ {
		o := img.PixOffset(cell.Min.X, y)
		for x := cell.Min.X; x < cell.Max.X; x++ {
			copy(img.Pix[o:o+4], avg[:])
			o += 4
		}
	}
}
