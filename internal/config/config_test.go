package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/example/markshot/internal/geom"
)

func TestParse(t *testing.T) {
	input := `
theme = my_custom_theme
save_dir = /tmp/screens

[editor]
stroke = red
fill = #00FF0080
width: 6
blur_radius = 9
epsilon = 3.5
workers = 2

[export]
format = .PDF
shadow = true

[notify]
capture = true
save = false
copy = true

[theme.my_custom_theme]
Background = #111111
Foreground = #FFFFFF
`
	cfg, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if cfg.Theme != "my_custom_theme" {
		t.Errorf("theme = %q", cfg.Theme)
	}
	if cfg.SaveDir != "/tmp/screens" {
		t.Errorf("save_dir = %q", cfg.SaveDir)
	}
	e := cfg.Editor
	if e.Stroke != (geom.Colour{R: 255, A: 255}) || e.Fill != (geom.Colour{G: 255, A: 0x80}) {
		t.Errorf("colours = %v %v", e.Stroke, e.Fill)
	}
	if e.Width != 6 || e.BlurRadius != 9 || e.Epsilon != 3.5 || e.Workers != 2 {
		t.Errorf("editor = %+v", e)
	}
	if e.PixelateBlock != New().Editor.PixelateBlock || !e.WindowDecorations {
		t.Errorf("unset key lost its default")
	}
	if cfg.Export.Format != "pdf" || !cfg.Export.Shadow {
		t.Errorf("export = %+v", cfg.Export)
	}
	if !cfg.Notify.Capture || cfg.Notify.Save || !cfg.Notify.Copy {
		t.Errorf("notify = %+v", cfg.Notify)
	}
	th, ok := cfg.Themes["my_custom_theme"]
	if !ok {
		t.Fatal("theme section not loaded")
	}
	if th.Background.R != 0x11 || th.Background.G != 0x11 || th.Background.B != 0x11 {
		t.Errorf("background = %+v", th.Background)
	}
}

func TestParseErrors(t *testing.T) {
	cases := []string{
		"[editor]\nwidth = -1\n",
		"[editor]\nstroke = #12\n",
		"[editor]\nfreehand_opacity = 2\n",
		"[notify]\nsave = maybe\n",
		"[theme.x]\nBackground = nope\n",
	}
	for _, in := range cases {
		if _, err := Parse(strings.NewReader(in)); err == nil {
			t.Errorf("%q: expected error", in)
		}
	}
}

func TestCircular(t *testing.T) {
	input := `theme = dark
save_dir = /home/user/shots

[editor]
secondary = #123456
hit_tolerance = 6
freehand_opacity = 0.5
window_decorations = false

[export]
archive_dir = /home/user/sessions

[notify]
capture = true
save = true
copy = false
archive = true

[theme.custom]
Name = custom
Background = #000000
Selection = #FF000080
`
	cfg, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("initial parse: %v", err)
	}
	cfg2, err := Parse(strings.NewReader(cfg.String()))
	if err != nil {
		t.Fatalf("circular parse: %v\n%s", err, cfg.String())
	}
	if cfg.Theme != cfg2.Theme || cfg.SaveDir != cfg2.SaveDir {
		t.Errorf("root mismatch: %q/%q vs %q/%q", cfg.Theme, cfg.SaveDir, cfg2.Theme, cfg2.SaveDir)
	}
	if cfg.Editor.WindowDecorations {
		t.Errorf("window_decorations = false was ignored")
	}
	if cfg.Editor != cfg2.Editor {
		t.Errorf("editor mismatch: %+v vs %+v", cfg.Editor, cfg2.Editor)
	}
	if cfg.Export != cfg2.Export {
		t.Errorf("export mismatch: %+v vs %+v", cfg.Export, cfg2.Export)
	}
	if cfg.Notify != cfg2.Notify {
		t.Errorf("notify mismatch: %+v vs %+v", cfg.Notify, cfg2.Notify)
	}
	t1, t2 := cfg.Themes["custom"], cfg2.Themes["custom"]
	if t1 == nil || t2 == nil {
		t.Fatalf("custom theme missing")
	}
	if *t1 != *t2 {
		t.Errorf("theme mismatch: %+v vs %+v", t1, t2)
	}
}

func TestEditorDerivedSettings(t *testing.T) {
	e := New().Editor
	e.Epsilon = 5
	e.HitTolerance = 7
	e.BlurPasses = 1
	if c := e.Controller(); c.Epsilon != 5 {
		t.Errorf("controller epsilon = %g", c.Epsilon)
	}
	if tt := e.Tester(); tt.Tolerance != 7 {
		t.Errorf("tolerance = %g", tt.Tolerance)
	}
	if eng := e.Engine(); eng.BlurPasses != 1 {
		t.Errorf("passes = %d", eng.BlurPasses)
	}
	if st := e.Style(); st.Width != e.Width || st.Stroke != e.Stroke {
		t.Errorf("style = %+v", st)
	}
}

func TestLoaderOverride(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	path := filepath.Join(dir, "custom.rc")
	if err := os.WriteFile(path, []byte("theme = dark\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	l := NewLoader("v1", path)
	cfg, err := l.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Theme != "dark" {
		t.Fatalf("theme = %q", cfg.Theme)
	}

	none := NewLoader("v1", filepath.Join(dir, "missing.rc"))
	if none.Path() != "" {
		t.Fatalf("path = %q", none.Path())
	}
	if cfg, err := none.Load(); err != nil || cfg.Editor != New().Editor {
		t.Fatalf("defaults not returned: %v", err)
	}
}

func TestSaveCreatesDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a", "b", "config.rc")
	cfg := New()
	cfg.Theme = "light"
	if err := Save(cfg, path); err != nil {
		t.Fatalf("save: %v", err)
	}
	back, err := NewLoader("", path).Load()
	if err != nil || back.Theme != "light" {
		t.Fatalf("reload = %+v, %v", back, err)
	}
}
