package text

import (
	"testing"

	"github.com/example/markshot/internal/geom"
)

func TestParseRuns(t *testing.T) {
	lines := Parse("plain **bold** *it* `x`")
	if len(lines) != 1 {
		t.Fatalf("lines = %d: %#v", len(lines), lines)
	}
	want := []Run{
		{Text: "plain "},
		{Text: "bold", Bold: true},
		{Text: " "},
		{Text: "it", Italic: true},
		{Text: " "},
		{Text: "x", Code: true},
	}
	got := lines[0]
	if len(got) != len(want) {
		t.Fatalf("runs = %#v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("run %d = %#v, want %#v", i, got[i], want[i])
		}
	}
}

func TestParseLineBreaks(t *testing.T) {
	lines := Parse("one\ntwo\n\nthree")
	if got := Plain(lines); got != "one\ntwo\nthree" {
		t.Fatalf("plain = %q", got)
	}
}

func TestParseEmpty(t *testing.T) {
	if lines := Parse("   \n"); lines != nil {
		t.Fatalf("expected nil, got %#v", lines)
	}
}

func TestRenderSizesBitmap(t *testing.T) {
	r := NewRenderer(WithSize(16), WithColour(geom.Black), WithPadding(3))
	one, err := r.Render("hello")
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	two, err := r.Render("hello\nhello")
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if one.Bounds().Min != (two.Bounds().Min) || one.Bounds().Min.X != 0 {
		t.Fatalf("bitmaps should be zero-origin")
	}
	if two.Bounds().Dy() <= one.Bounds().Dy() {
		t.Fatalf("two lines (%d) not taller than one (%d)", two.Bounds().Dy(), one.Bounds().Dy())
	}
	if one.Bounds().Dx() != two.Bounds().Dx() {
		t.Fatalf("same text should have the same width")
	}
	var ink bool
	for i := 3; i < len(one.Pix); i += 4 {
		if one.Pix[i] > 0 {
			ink = true
			break
		}
	}
	if !ink {
		t.Fatalf("rendered bitmap is empty")
	}
}

func TestRunVariant(t *testing.T) {
	cases := map[Run]variant{
		{Text: "a"}:                            regular,
		{Text: "a", Bold: true}:                bold,
		{Text: "a", Italic: true}:              italic,
		{Text: "a", Bold: true, Italic: true}:  boldItalic,
		{Text: "a", Bold: true, Code: true}:    mono,
	}
	for run, want := range cases {
		if got := run.variant(); got != want {
			t.Errorf("%+v variant = %d, want %d", run, got, want)
		}
	}
}

func TestRenderEmpty(t *testing.T) {
	img, err := NewRenderer().Render("")
	if err != nil || img != nil {
		t.Fatalf("Render(\"\") = %v, %v", img, err)
	}
}
