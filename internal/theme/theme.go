// Package theme holds the colours of the viewer's chrome: toolbar, buttons,
// status line and the checkerboard shown behind transparent pixels.
package theme

import "github.com/example/markshot/internal/geom"

// Theme is a named palette for the viewer.
type Theme struct {
	Name string

	Background geom.Colour // behind the canvas
	Foreground geom.Colour

	ToolbarBackground geom.Colour
	ButtonBackground  geom.Colour
	ButtonActive      geom.Colour // selected tool or colour
	ButtonHover       geom.Colour
	ButtonText        geom.Colour
	ButtonBorder      geom.Colour

	StatusBackground geom.Colour
	StatusText       geom.Colour

	// Selection outlines the operation picked by the select tool.
	Selection geom.Colour

	CheckerLight geom.Colour
	CheckerDark  geom.Colour
}

// Default returns the built-in light palette.
func Default() *Theme {
	return &Theme{
		Name:              "Default",
		Background:        geom.Colour{R: 220, G: 220, B: 220, A: 255},
		Foreground:        geom.Black,
		ToolbarBackground: geom.Colour{R: 220, G: 220, B: 220, A: 255},
		ButtonBackground:  geom.Colour{R: 200, G: 200, B: 200, A: 255},
		ButtonActive:      geom.Colour{R: 150, G: 150, B: 150, A: 255},
		ButtonHover:       geom.Colour{R: 180, G: 180, B: 180, A: 255},
		ButtonText:        geom.Black,
		ButtonBorder:      geom.Black,
		StatusBackground:  geom.Colour{R: 235, G: 235, B: 235, A: 255},
		StatusText:        geom.Black,
		Selection:         geom.Colour{R: 0, G: 120, B: 215, A: 255},
		CheckerLight:      geom.Colour{R: 220, G: 220, B: 220, A: 255},
		CheckerDark:       geom.Colour{R: 192, G: 192, B: 192, A: 255},
	}
}
