// Package config reads and writes markshot's RC file.
package config

import (
	"fmt"
	"sort"
	"strings"

	"github.com/example/markshot/internal/effects"
	"github.com/example/markshot/internal/geom"
	"github.com/example/markshot/internal/hittest"
	"github.com/example/markshot/internal/ops"
	"github.com/example/markshot/internal/text"
	"github.com/example/markshot/internal/theme"
	"github.com/example/markshot/internal/tool"
)

// Editor holds the drawing defaults and tuning knobs of a session.
type Editor struct {
	Stroke          geom.Colour
	Fill            geom.Colour
	Secondary       geom.Colour
	Width           float64
	BlurRadius      int
	BlurPasses      int
	PixelateBlock   int
	HitTolerance    float64
	Epsilon         float64
	BubbleRadius    float64
	TextSize        float64
	FreehandOpacity float64
	// Workers sizes the effect pool; zero runs effects inline.
	Workers int
	// WindowDecorations makes crop clicks include window frames.
	WindowDecorations bool
}

// Export holds output settings.
type Export struct {
	Format     string
	Shadow     bool
	ArchiveDir string
}

// Notify holds notification toggles.
type Notify struct {
	Capture bool
	Save    bool
	Copy    bool
	Archive bool
}

// Config holds the application configuration.
type Config struct {
	Theme   string
	SaveDir string
	Editor  Editor
	Export  Export
	Notify  Notify
	Themes  map[string]*theme.Theme
}

// New creates a Config holding the built-in defaults.
func New() *Config {
	st := geom.DefaultStyle()
	return &Config{
		Editor: Editor{
			Stroke:            st.Stroke,
			Fill:              st.Fill,
			Secondary:         geom.DefaultSecondary,
			Width:             st.Width,
			BlurRadius:        effects.DefaultBlurRadius,
			BlurPasses:        effects.DefaultBlurPasses,
			PixelateBlock:     effects.DefaultPixelateBlock,
			HitTolerance:      hittest.DefaultTolerance,
			Epsilon:           tool.DefaultEpsilon,
			BubbleRadius:      ops.DefaultBubbleRadius,
			TextSize:          text.DefaultSize,
			FreehandOpacity:   1,
			WindowDecorations: true,
		},
		Export: Export{Format: "png"},
		Themes: make(map[string]*theme.Theme),
	}
}

// Style is the stroke style new operations start with.
func (e Editor) Style() geom.Style {
	return geom.Style{Stroke: e.Stroke, Fill: e.Fill, Width: e.Width}
}

// Controller returns a gesture controller tuned by e.
func (e Editor) Controller() tool.Controller {
	c := tool.NewController()
	c.Epsilon = e.Epsilon
	c.BlurRadius = e.BlurRadius
	c.PixelateBlock = e.PixelateBlock
	c.BubbleRadius = e.BubbleRadius
	c.FreehandOpacity = e.FreehandOpacity
	return c
}

// Tester returns a hit tester using e's tolerance.
func (e Editor) Tester() hittest.Tester {
	return hittest.Tester{Tolerance: e.HitTolerance}
}

// Engine returns the effect engine configured by e.
func (e Editor) Engine() effects.Engine {
	return effects.NewEngine(effects.WithBlurPasses(e.BlurPasses))
}

// String returns the configuration in RC format.
func (c *Config) String() string {
	var sb strings.Builder

	if c.Theme != "" {
		fmt.Fprintf(&sb, "theme = %s\n", c.Theme)
	}
	if c.SaveDir != "" {
		fmt.Fprintf(&sb, "save_dir = %s\n", c.SaveDir)
	}
	sb.WriteString("\n")

	e := c.Editor
	sb.WriteString("[editor]\n")
	fmt.Fprintf(&sb, "stroke = %s\n", e.Stroke.Hex())
	fmt.Fprintf(&sb, "fill = %s\n", e.Fill.Hex())
	fmt.Fprintf(&sb, "secondary = %s\n", e.Secondary.Hex())
	fmt.Fprintf(&sb, "width = %g\n", e.Width)
	fmt.Fprintf(&sb, "blur_radius = %d\n", e.BlurRadius)
	fmt.Fprintf(&sb, "blur_passes = %d\n", e.BlurPasses)
	fmt.Fprintf(&sb, "pixelate_block = %d\n", e.PixelateBlock)
	fmt.Fprintf(&sb, "hit_tolerance = %g\n", e.HitTolerance)
	fmt.Fprintf(&sb, "epsilon = %g\n", e.Epsilon)
	fmt.Fprintf(&sb, "bubble_radius = %g\n", e.BubbleRadius)
	fmt.Fprintf(&sb, "text_size = %g\n", e.TextSize)
	fmt.Fprintf(&sb, "freehand_opacity = %g\n", e.FreehandOpacity)
	fmt.Fprintf(&sb, "workers = %d\n", e.Workers)
	fmt.Fprintf(&sb, "window_decorations = %v\n", e.WindowDecorations)
	sb.WriteString("\n")

	sb.WriteString("[export]\n")
	fmt.Fprintf(&sb, "format = %s\n", c.Export.Format)
	fmt.Fprintf(&sb, "shadow = %v\n", c.Export.Shadow)
	if c.Export.ArchiveDir != "" {
		fmt.Fprintf(&sb, "archive_dir = %s\n", c.Export.ArchiveDir)
	}
	sb.WriteString("\n")

	sb.WriteString("[notify]\n")
	fmt.Fprintf(&sb, "capture = %v\n", c.Notify.Capture)
	fmt.Fprintf(&sb, "save = %v\n", c.Notify.Save)
	fmt.Fprintf(&sb, "copy = %v\n", c.Notify.Copy)
	fmt.Fprintf(&sb, "archive = %v\n", c.Notify.Archive)
	sb.WriteString("\n")

	names := make([]string, 0, len(c.Themes))
	for name := range c.Themes {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		t := c.Themes[name]
		fmt.Fprintf(&sb, "[theme.%s]\n", name)
		fmt.Fprintf(&sb, "Name: %s\n", t.Name)
		t.Fields(func(field string, col geom.Colour) {
			fmt.Fprintf(&sb, "%s: %s\n", field, col.Hex())
		})
		sb.WriteString("\n")
	}
	return sb.String()
}
