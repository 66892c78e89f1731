package render

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/anthonynsimon/bild/blur"
)

// ShadowOptions configures the drop shadow added to exported images.
type ShadowOptions struct {
	Radius  int
	Offset  image.Point
	Opacity float64
}

// ShadowResult is the output of ApplyShadow.
type ShadowResult struct {
	Image *image.RGBA
	// Offset is where the original top-left corner ended up on the expanded
	// canvas.
	Offset image.Point
}

// DefaultShadowOptions returns the shadow used by `export -shadow`.
func DefaultShadowOptions() ShadowOptions {
	return ShadowOptions{Radius: 24, Offset: image.Pt(16, 16), Opacity: 0.55}
}

// ApplyShadow places img over a Gaussian blurred silhouette of itself. The
// canvas grows to fit the shadow and always has a zero origin.
func ApplyShadow(img *image.RGBA, opts ShadowOptions) ShadowResult {
	if img == nil {
		return ShadowResult{}
	}
	src := img.Bounds()
	if src.Empty() || opts.Opacity <= 0 {
		return ShadowResult{Image: img}
	}
	opacity := min(opts.Opacity, 1)
	radius := max(opts.Radius, 0)

	silhouette := src.Inset(-radius)
	shadow := silhouette.Add(opts.Offset)
	canvas := src.Union(shadow)

	mask := image.NewRGBA(silhouette)
	for y := src.Min.Y; y < src.Max.Y; y++ {
		for x := src.Min.X; x < src.Max.X; x++ {
			if a := img.RGBAAt(x, y).A; a > 0 {
				mask.SetRGBA(x, y, color.RGBA{A: a})
			}
		}
	}
	soft := mask
	if radius > 0 {
		soft = blur.Gaussian(mask, float64(radius))
	}

	dst := image.NewRGBA(canvas.Sub(canvas.Min))
	strength := image.NewUniform(color.Alpha{A: uint8(opacity*255 + 0.5)})
	draw.DrawMask(dst, shadow.Sub(canvas.Min), soft, silhouette.Min, strength, image.Point{}, draw.Over)
	draw.Draw(dst, src.Sub(canvas.Min), img, src.Min, draw.Over)
	return ShadowResult{Image: dst, Offset: src.Min.Sub(canvas.Min)}
}
