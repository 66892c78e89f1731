package render

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"strconv"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"github.com/example/markshot/internal/geom"
)

var (
	labelFontOnce sync.Once
	labelFont     *opentype.Font
	labelFontErr  error
	labelFaces    sync.Map // map[float64]font.Face
	// opentype faces cache glyphs internally and are not safe for concurrent use.
	labelMu sync.Mutex

	// faceFor resolves label faces; tests replace it to simulate font failures.
	faceFor = labelFace
)

func labelFace(size float64) (font.Face, error) {
	labelFontOnce.Do(func() {
		labelFont, labelFontErr = opentype.Parse(goregular.TTF)
	})
	if labelFontErr != nil {
		return nil, fmt.Errorf("parse label font: %w", labelFontErr)
	}
	size = math.Round(size*2) / 2
	if face, ok := labelFaces.Load(size); ok {
		return face.(font.Face), nil
	}
	face, err := opentype.NewFace(labelFont, &opentype.FaceOptions{Size: size, DPI: 72, Hinting: font.HintingFull})
	if err != nil {
		return nil, err
	}
	actual, _ := labelFaces.LoadOrStore(size, face)
	return actual.(font.Face), nil
}

// drawLabel centres the decimal form of n on c.
func drawLabel(dst *image.RGBA, c geom.Point, radius float64, n int, col color.Color) error {
	face, err := faceFor(math.Max(6, radius*1.2))
	if err != nil {
		return err
	}
	labelMu.Lock()
	defer labelMu.Unlock()
	s := strconv.Itoa(n)
	d := &font.Drawer{Dst: dst, Src: image.NewUniform(col), Face: face}
	w := d.MeasureString(s)
	m := face.Metrics()
	x := fixed.Int26_6(c.X*64) - w/2
	y := fixed.Int26_6(c.Y*64) + (m.Ascent-m.Descent)/2
	d.Dot = fixed.Point26_6{X: x, Y: y}
	d.DrawString(s)
	return nil
}
