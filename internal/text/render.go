package text

import (
	"fmt"
	"image"
	"image/draw"
	"math"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"github.com/example/markshot/internal/geom"
)

// DefaultSize is the point size used when a Renderer has none.
const DefaultSize = 18.0

type variant int

const (
	regular variant = iota
	bold
	italic
	boldItalic
	mono
)

var fontData = [...][]byte{
	regular:    goregular.TTF,
	bold:       gobold.TTF,
	italic:     goitalic.TTF,
	boldItalic: gobolditalic.TTF,
	mono:       gomono.TTF,
}

type faceKey struct {
	v    variant
	size float64
}

var (
	fontsOnce sync.Once
	fonts     [len(fontData)]*opentype.Font
	fontsErr  error
	faces     sync.Map // map[faceKey]font.Face
	// Faces cache glyphs and are not safe for concurrent drawing.
	drawMu sync.Mutex
)

func faceFor(v variant, size float64) (font.Face, error) {
	fontsOnce.Do(func() {
		for i, data := range fontData {
			f, err := opentype.Parse(data)
			if err != nil {
				fontsErr = fmt.Errorf("parse font %d: %w", i, err)
				return
			}
			fonts[i] = f
		}
	})
	if fontsErr != nil {
		return nil, fontsErr
	}
	key := faceKey{v, size}
	if face, ok := faces.Load(key); ok {
		return face.(font.Face), nil
	}
	face, err := opentype.NewFace(fonts[v], &opentype.FaceOptions{Size: size, DPI: 72, Hinting: font.HintingFull})
	if err != nil {
		return nil, err
	}
	actual, _ := faces.LoadOrStore(key, face)
	return actual.(font.Face), nil
}

func (r Run) variant() variant {
	switch {
	case r.Code:
		return mono
	case r.Bold && r.Italic:
		return boldItalic
	case r.Bold:
		return bold
	case r.Italic:
		return italic
	}
	return regular
}

// Renderer rasterises markup.
type Renderer struct {
	Size float64
	// Colour is the glyph colour.
	Colour geom.Colour
	// Background fills the bitmap behind the text; zero alpha leaves it
	// transparent.
	Background geom.Colour
	Padding    int
}

// Option configures a Renderer.
type Option func(*Renderer)

func WithSize(size float64) Option {
	return func(r *Renderer) {
		if size > 0 {
			r.Size = size
		}
	}
}

func WithColour(c geom.Colour) Option     { return func(r *Renderer) { r.Colour = c } }
func WithBackground(c geom.Colour) Option { return func(r *Renderer) { r.Background = c } }
func WithPadding(p int) Option            { return func(r *Renderer) { r.Padding = max(p, 0) } }

// NewRenderer returns a renderer drawing black text at DefaultSize.
func NewRenderer(opts ...Option) Renderer {
	r := Renderer{Size: DefaultSize, Colour: geom.Black, Padding: 2}
	for _, o := range opts {
		o(&r)
	}
	return r
}

// Render draws markup into a zero-origin bitmap sized to fit it. Empty
// markup yields a nil image and no error.
func (r Renderer) Render(markup string) (*image.RGBA, error) {
	lines := Parse(markup)
	if len(lines) == 0 {
		return nil, nil
	}
	size := r.Size
	if size <= 0 {
		size = DefaultSize
	}
	base, err := faceFor(regular, size)
	if err != nil {
		return nil, err
	}
	drawMu.Lock()
	defer drawMu.Unlock()

	m := base.Metrics()
	lineHeight := m.Height.Ceil()
	if lineHeight <= 0 {
		lineHeight = int(math.Ceil(size * 1.2))
	}
	width := 0
	for _, l := range lines {
		w, err := r.measure(l, size)
		if err != nil {
			return nil, err
		}
		width = max(width, w.Ceil())
	}
	if width == 0 {
		width = 1
	}
	pad := r.Padding
	img := image.NewRGBA(image.Rect(0, 0, width+2*pad, lineHeight*len(lines)+2*pad))
	if r.Background.A > 0 {
		draw.Draw(img, img.Bounds(), image.NewUniform(r.Background), image.Point{}, draw.Src)
	}
	src := image.NewUniform(r.Colour)
	for i, l := range lines {
		dot := fixed.P(pad, pad+i*lineHeight+m.Ascent.Ceil())
		for _, run := range l {
			face, err := faceFor(run.variant(), size)
			if err != nil {
				return nil, err
			}
			d := &font.Drawer{Dst: img, Src: src, Face: face, Dot: dot}
			d.DrawString(run.Text)
			dot = d.Dot
		}
	}
	return img, nil
}

// Measure returns the size of the bitmap Render would produce.
func (r Renderer) Measure(markup string) (image.Point, error) {
	img, err := r.Render(markup)
	if err != nil || img == nil {
		return image.Point{}, err
	}
	return img.Bounds().Size(), nil
}

func (r Renderer) measure(l Line, size float64) (fixed.Int26_6, error) {
	var w fixed.Int26_6
	for _, run := range l {
		face, err := faceFor(run.variant(), size)
		if err != nil {
			return 0, err
		}
		w += font.MeasureString(face, run.Text)
	}
	return w, nil
}
