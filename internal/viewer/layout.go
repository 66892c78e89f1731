package viewer

import (
	"fmt"
	"image"
	"math"

	"github.com/example/markshot/internal/geom"
	"github.com/example/markshot/internal/tool"
)

const (
	toolbarWidth = 96
	statusHeight = 22
	buttonHeight = 18
	swatchSize   = 18
	gap          = 4
)

var palette = []geom.Colour{
	geom.Black,
	geom.White,
	{R: 255, A: 255},
	{G: 200, A: 255},
	{B: 255, A: 255},
	{R: 255, G: 255, A: 255},
	{R: 255, G: 128, A: 255},
	geom.DefaultStroke,
	geom.DefaultSecondary,
	{R: 128, G: 128, B: 128, A: 255},
	{}, // no fill
	{R: 255, G: 255, A: 63},
}

var widths = []float64{1, 2, 4, 6, 10}

type control int

const (
	controlTool control = iota
	controlColour
	controlWidth
)

type button struct {
	rect  image.Rectangle
	kind  control
	index int
	label string
}

// layout maps between window pixels and image coordinates.
type layout struct {
	width, height int
	// canvas is where the frame is drawn in the window.
	canvas image.Rectangle
	zoom   float64
	// origin is the image position of the frame's top-left pixel.
	origin  geom.Point
	buttons []button
}

func newLayout(width, height int, frame image.Point, origin geom.Point) layout {
	l := layout{width: width, height: height, origin: origin}
	l.zoom = fitZoom(frame, width, height)
	w := int(math.Round(float64(frame.X) * l.zoom))
	h := int(math.Round(float64(frame.Y) * l.zoom))
	l.canvas = image.Rect(toolbarWidth, 0, toolbarWidth+w, h)
	l.buttons = toolbarButtons()
	return l
}

// fitZoom scales the frame down to the space beside the toolbar. It never
// enlarges.
func fitZoom(frame image.Point, winW, winH int) float64 {
	if frame.X <= 0 || frame.Y <= 0 {
		return 1
	}
	availW := float64(winW - toolbarWidth)
	availH := float64(winH - statusHeight)
	z := math.Min(availW/float64(frame.X), availH/float64(frame.Y))
	if z <= 0 {
		return 1
	}
	return math.Min(z, 1)
}

func toolbarButtons() []button {
	var bs []button
	y := gap
	for i, t := range tool.All() {
		bs = append(bs, button{
			rect:  image.Rect(gap, y, toolbarWidth-gap, y+buttonHeight),
			kind:  controlTool,
			index: i,
			label: fmt.Sprintf("%c:%s", t.Key(), t),
		})
		y += buttonHeight + 2
	}
	y += gap
	perRow := (toolbarWidth - gap) / (swatchSize + 2)
	for i := range palette {
		x := gap + (i%perRow)*(swatchSize+2)
		row := y + (i/perRow)*(swatchSize+2)
		bs = append(bs, button{
			rect:  image.Rect(x, row, x+swatchSize, row+swatchSize),
			kind:  controlColour,
			index: i,
		})
	}
	y += ((len(palette)+perRow-1)/perRow)*(swatchSize+2) + gap
	for i, w := range widths {
		bs = append(bs, button{
			rect:  image.Rect(gap, y, toolbarWidth-gap, y+buttonHeight),
			kind:  controlWidth,
			index: i,
			label: fmt.Sprintf("%gpx", w),
		})
		y += buttonHeight + 2
	}
	return bs
}

func (l layout) buttonAt(p image.Point) (button, bool) {
	if p.X >= toolbarWidth {
		return button{}, false
	}
	for _, b := range l.buttons {
		if p.In(b.rect) {
			return b, true
		}
	}
	return button{}, false
}

func (l layout) inCanvas(p image.Point) bool {
	return p.In(l.canvas)
}

// toImage converts a window position to image coordinates.
func (l layout) toImage(x, y float64) geom.Point {
	return geom.Pt(
		(x-float64(l.canvas.Min.X))/l.zoom+l.origin.X,
		(y-float64(l.canvas.Min.Y))/l.zoom+l.origin.Y,
	)
}

// toWindow converts an image rectangle to window pixels.
func (l layout) toWindow(r geom.Rect) image.Rectangle {
	x0 := (r.Min.X-l.origin.X)*l.zoom + float64(l.canvas.Min.X)
	y0 := (r.Min.Y-l.origin.Y)*l.zoom + float64(l.canvas.Min.Y)
	x1 := (r.Max.X-l.origin.X)*l.zoom + float64(l.canvas.Min.X)
	y1 := (r.Max.Y-l.origin.Y)*l.zoom + float64(l.canvas.Min.Y)
	return image.Rect(int(math.Floor(x0)), int(math.Floor(y0)), int(math.Ceil(x1)), int(math.Ceil(y1)))
}

func (l layout) statusRect() image.Rectangle {
	return image.Rect(0, l.height-statusHeight, l.width, l.height)
}
