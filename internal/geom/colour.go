package geom

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/colornames"
)

// Colour is an immutable, non-premultiplied RGBA value.
type Colour struct {
	R, G, B, A uint8
}

var (
	// DefaultStroke is the primary colour a fresh session starts with.
	DefaultStroke = Colour{127, 0, 127, 255}
	// DefaultSecondary is the secondary colour used for bubble labels.
	DefaultSecondary = Colour{0, 127, 127, 255}
	// DefaultHighlight is the translucent marker colour.
	DefaultHighlight = Colour{255, 255, 0, 63}

	Black = Colour{0, 0, 0, 255}
	White = Colour{255, 255, 255, 255}
)

// RGBA implements color.Color.
func (c Colour) RGBA() (r, g, b, a uint32) {
	return c.NRGBA().RGBA()
}

// NRGBA returns c as a color.NRGBA.
func (c Colour) NRGBA() color.NRGBA {
	return color.NRGBA{R: c.R, G: c.G, B: c.B, A: c.A}
}

// WithAlpha returns c with its alpha replaced.
func (c Colour) WithAlpha(a uint8) Colour {
	c.A = a
	return c
}

// Scale multiplies the alpha of c by f, clamped to [0, 1].
func (c Colour) Scale(f float64) Colour {
	if f < 0 {
		f = 0
	}
	if f > 1 {
		f = 1
	}
	c.A = uint8(float64(c.A)*f + 0.5)
	return c
}

// Tuple returns the colour as the four-byte RGBA tuple used on disk.
func (c Colour) Tuple() [4]uint8 { return [4]uint8{c.R, c.G, c.B, c.A} }

// FromTuple is the inverse of Tuple.
func FromTuple(t [4]uint8) Colour { return Colour{t[0], t[1], t[2], t[3]} }

// FromColor converts any color.Color.
func FromColor(c color.Color) Colour {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return Colour{n.R, n.G, n.B, n.A}
}

// Hex formats c as #RRGGBB, or #RRGGBBAA when it is not opaque.
func (c Colour) Hex() string {
	if c.A == 255 {
		return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
	}
	return fmt.Sprintf("#%02X%02X%02X%02X", c.R, c.G, c.B, c.A)
}

func (c Colour) String() string { return c.Hex() }

// Luminance returns the perceptual lightness of c in [0, 1] (CIE L*),
// ignoring alpha.
func (c Colour) Luminance() float64 {
	cf := colorful.Color{R: float64(c.R) / 255, G: float64(c.G) / 255, B: float64(c.B) / 255}
	l, _, _ := cf.Lab()
	return l
}

// Contrast returns black or white, whichever reads better on top of c.
func (c Colour) Contrast() Colour {
	if c.Luminance() < 0.6 {
		return White
	}
	return Black
}

// ParseColour accepts an x/image colour name, #RGB, #RRGGBB or #RRGGBBAA.
func ParseColour(s string) (Colour, error) {
	spec := strings.ToLower(strings.TrimSpace(s))
	if spec == "" {
		return Colour{}, fmt.Errorf("colour cannot be empty")
	}
	if c, ok := colornames.Map[spec]; ok {
		return FromColor(c), nil
	}
	if !strings.HasPrefix(spec, "#") {
		return Colour{}, fmt.Errorf("invalid colour %q", s)
	}
	alpha := uint8(255)
	switch len(spec) {
	case 4, 7:
	case 9:
		a, err := strconv.ParseUint(spec[7:9], 16, 8)
		if err != nil {
			return Colour{}, fmt.Errorf("invalid colour %q: %w", s, err)
		}
		alpha = uint8(a)
		spec = spec[:7]
	default:
		return Colour{}, fmt.Errorf("invalid colour %q", s)
	}
	cf, err := colorful.Hex(spec)
	if err != nil {
		return Colour{}, fmt.Errorf("invalid colour %q: %w", s, err)
	}
	r, g, b := cf.RGB255()
	return Colour{r, g, b, alpha}, nil
}

// Style is the stroke and fill an operation is drawn with. It is copied into
// each operation when the operation is created. A Fill with zero alpha means
// the shape is not filled.
type Style struct {
	Stroke Colour
	Fill   Colour
	Width  float64
}

// DefaultStyle returns the style a new session starts with.
func DefaultStyle() Style {
	return Style{Stroke: DefaultStroke, Width: 4}
}

// Filled reports whether s paints an interior.
func (s Style) Filled() bool { return s.Fill.A > 0 }

// HalfWidth returns half the stroke width, never less than half a pixel.
func (s Style) HalfWidth() float64 {
	if s.Width <= 1 {
		return 0.5
	}
	return s.Width / 2
}

// WithFill returns a copy of s filled with c.
func (s Style) WithFill(c Colour) Style {
	s.Fill = c
	return s
}
