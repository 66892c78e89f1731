package viewer

import (
	"context"
	"image"
	"image/color"
	"image/draw"
	"log"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"golang.org/x/exp/shiny/screen"

	"github.com/example/markshot/internal/geom"
	"github.com/example/markshot/internal/ops"
	"github.com/example/markshot/internal/render"
	"github.com/example/markshot/internal/theme"
	"github.com/example/markshot/internal/tool"
)

// paintState is an immutable snapshot handed to the paint goroutine.
type paintState struct {
	layout layout
	theme  *theme.Theme
	frame  *image.RGBA
	// preview is the operation the current gesture would commit.
	preview  ops.Operation
	selected *geom.Rect
	tool     tool.Tool
	style    geom.Style
	text     *textEntry
	textImg  *image.RGBA
	status   string
}

func drawFrame(ctx context.Context, s screen.Screen, w screen.Window, st paintState) {
	b, err := s.NewBuffer(image.Point{st.layout.width, st.layout.height})
	if err != nil {
		log.Printf("new buffer: %v", err)
		return
	}
	defer b.Release()

	compose(ctx, b.RGBA(), st)
	if ctx.Err() != nil {
		return
	}
	w.Upload(image.Point{}, b, b.Bounds())
	w.Publish()
}

// compose draws st into dst. It stops early when ctx is cancelled.
func compose(ctx context.Context, dst *image.RGBA, st paintState) {
	th := st.theme
	l := st.layout
	fill(dst, dst.Bounds(), th.Background)

	frame := st.frame
	if st.preview != nil && !ops.IsEffect(st.preview) && st.preview.Kind() != ops.KindCrop {
		frame = withPreview(frame, l.origin, st.preview)
	}
	if ctx.Err() != nil {
		return
	}
	checkerboard(dst, l.canvas, 8, th.CheckerLight, th.CheckerDark)
	scaler := xdraw.Interpolator(xdraw.NearestNeighbor)
	if l.zoom < 1 {
		scaler = xdraw.ApproxBiLinear
	}
	scaler.Scale(dst, l.canvas, frame, frame.Bounds(), draw.Over, nil)
	if ctx.Err() != nil {
		return
	}

	if st.preview != nil && (ops.IsEffect(st.preview) || st.preview.Kind() == ops.KindCrop) {
		dashedRect(dst, l.toWindow(st.preview.Bounds()), 4, th.Foreground, th.Background)
	}
	if st.selected != nil {
		dashedRect(dst, l.toWindow(st.selected.Inset(-2)), 3, th.Selection, th.Background)
	}
	if st.text != nil && st.textImg != nil {
		at := l.toWindow(geom.Rect{Min: st.text.anchor, Max: st.text.anchor}).Min
		draw.Draw(dst, st.textImg.Bounds().Add(at), st.textImg, image.Point{}, draw.Over)
	}
	if ctx.Err() != nil {
		return
	}
	drawToolbar(dst, st)
	drawStatus(dst, st)
}

// withPreview draws op over a copy of frame, whose top-left pixel sits at
// origin in image coordinates.
func withPreview(frame *image.RGBA, origin geom.Point, op ops.Operation) *image.RGBA {
	off := image.Pt(int(origin.X), int(origin.Y))
	buf := image.NewRGBA(frame.Bounds().Add(off))
	copy(buf.Pix, frame.Pix)
	render.Compositor{}.Apply(buf, []ops.Operation{op}, 0, nil)
	buf.Rect = frame.Bounds()
	return buf
}

func drawToolbar(dst *image.RGBA, st paintState) {
	th := st.theme
	fill(dst, image.Rect(0, 0, toolbarWidth, st.layout.height-statusHeight), th.ToolbarBackground)
	for _, b := range st.layout.buttons {
		switch b.kind {
		case controlTool:
			bg := th.ButtonBackground
			if tool.All()[b.index] == st.tool {
				bg = th.ButtonActive
			}
			fill(dst, b.rect, bg)
			outline(dst, b.rect, th.ButtonBorder)
			label(dst, b.rect.Min.Add(image.Pt(3, 13)), b.label, th.ButtonText)
		case controlColour:
			c := palette[b.index]
			checkerboard(dst, b.rect, 4, th.CheckerLight, th.CheckerDark)
			fill(dst, b.rect, c)
			border := th.ButtonBorder
			if c == st.style.Stroke {
				border = th.Selection
			}
			outline(dst, b.rect, border)
			if c == st.style.Fill && c.A > 0 {
				outline(dst, b.rect.Inset(3), c.Contrast())
			}
		case controlWidth:
			bg := th.ButtonBackground
			if widths[b.index] == st.style.Width {
				bg = th.ButtonActive
			}
			fill(dst, b.rect, bg)
			outline(dst, b.rect, th.ButtonBorder)
			h := max(int(widths[b.index]), 1)
			y := b.rect.Min.Y + (b.rect.Dy()-h)/2
			fill(dst, image.Rect(b.rect.Min.X+36, y, b.rect.Max.X-4, y+h), th.ButtonText)
			label(dst, b.rect.Min.Add(image.Pt(3, 13)), b.label, th.ButtonText)
		}
	}
}

func drawStatus(dst *image.RGBA, st paintState) {
	r := st.layout.statusRect()
	fill(dst, r, st.theme.StatusBackground)
	label(dst, image.Pt(r.Min.X+4, r.Min.Y+15), st.status, st.theme.StatusText)
}

func label(dst *image.RGBA, at image.Point, s string, c geom.Colour) {
	d := &font.Drawer{Dst: dst, Src: image.NewUniform(c), Face: basicfont.Face7x13, Dot: fixed.P(at.X, at.Y)}
	d.DrawString(s)
}

func fill(dst *image.RGBA, r image.Rectangle, c geom.Colour) {
	draw.Draw(dst, r, image.NewUniform(c), image.Point{}, draw.Over)
}

func outline(dst *image.RGBA, r image.Rectangle, c geom.Colour) {
	if r.Empty() {
		return
	}
	u := image.NewUniform(c)
	for _, e := range []image.Rectangle{
		{r.Min, image.Pt(r.Max.X, r.Min.Y+1)},
		{image.Pt(r.Min.X, r.Max.Y-1), r.Max},
		{r.Min, image.Pt(r.Min.X+1, r.Max.Y)},
		{image.Pt(r.Max.X-1, r.Min.Y), r.Max},
	} {
		draw.Draw(dst, e, u, image.Point{}, draw.Src)
	}
}

// dashedRect outlines r with alternating dashes of a and b.
func dashedRect(dst *image.RGBA, r image.Rectangle, dash int, a, b geom.Colour) {
	if r.Empty() || dash <= 0 {
		return
	}
	pick := func(i int) color.Color {
		if (i/dash)%2 == 0 {
			return a
		}
		return b
	}
	for x := r.Min.X; x < r.Max.X; x++ {
		dst.Set(x, r.Min.Y, pick(x))
		dst.Set(x, r.Max.Y-1, pick(x))
	}
	for y := r.Min.Y; y < r.Max.Y; y++ {
		dst.Set(r.Min.X, y, pick(y))
		dst.Set(r.Max.X-1, y, pick(y))
	}
}

func checkerboard(dst *image.RGBA, r image.Rectangle, size int, light, dark geom.Colour) {
	r = r.Intersect(dst.Bounds())
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			c := light
			if ((x/size)+(y/size))%2 != 0 {
				c = dark
			}
			i := dst.PixOffset(x, y)
			dst.Pix[i], dst.Pix[i+1], dst.Pix[i+2], dst.Pix[i+3] = c.R, c.G, c.B, c.A
		}
	}
}
