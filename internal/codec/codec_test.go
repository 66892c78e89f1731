package codec

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"strings"
	"testing"

	"github.com/example/markshot/internal/geom"
	"github.com/example/markshot/internal/ops"
)

func sampleDoc() Document {
	bm := image.NewRGBA(image.Rect(0, 0, 3, 2))
	bm.SetRGBA(1, 1, color.RGBA{R: 200, A: 255})
	style := geom.Style{Stroke: geom.Colour{R: 1, G: 2, B: 3, A: 255}, Fill: geom.Colour{R: 4, G: 5, B: 6, A: 128}, Width: 2.5}
	return Document{
		Session: "abc",
		Width:   64,
		Height:  48,
		Cursor:  9,
		Operations: []ops.Operation{
			ops.NewLine(geom.Pt(1, 2), geom.Pt(3, 4), style),
			ops.NewArrow(geom.Pt(0, 0), geom.Pt(10, 0), style),
			ops.NewRectangle(geom.RectXYWH(1, 1, 5, 5), style),
			ops.NewEllipse(geom.RectXYWH(2, 2, 6, 4), style),
			ops.NewFreehand([]geom.Point{geom.Pt(0, 0), geom.Pt(1, 1.5)}, style, 0.25),
			ops.NewPixelate(geom.RectXYWH(0, 0, 16, 16), 4),
			ops.NewBlur(geom.RectXYWH(0, 0, 8, 8), 3),
			ops.NewText(geom.Pt(5, 6), "**hi**", bm),
			ops.NewBubble(geom.Pt(7, 7), 3, 12, geom.DefaultStroke, geom.Colour{}),
			ops.NewHighlight(geom.RectXYWH(1, 1, 2, 2), geom.DefaultHighlight),
			ops.NewCrop(geom.RectXYWH(0, 0, 32, 32)),
		},
	}
}

func TestRoundTripPreservesOperations(t *testing.T) {
	doc := sampleDoc()
	var buf bytes.Buffer
	if err := Encode(&buf, doc); err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := Decode(&buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Session != "abc" || got.Width != 64 || got.Height != 48 || got.Cursor != 9 {
		t.Fatalf("header = %+v", got)
	}
	if len(got.Operations) != len(doc.Operations) {
		t.Fatalf("got %d operations, want %d", len(got.Operations), len(doc.Operations))
	}
	for i, op := range doc.Operations {
		g := got.Operations[i]
		if g.Kind() != op.Kind() {
			t.Fatalf("op %d kind %v, want %v", i, g.Kind(), op.Kind())
		}
		if g.Bounds() != op.Bounds() {
			t.Errorf("op %d bounds %+v, want %+v", i, g.Bounds(), op.Bounds())
		}
	}
	txt := got.Operations[7].(ops.Text)
	if txt.Markup != "**hi**" || txt.Bitmap().RGBAAt(1, 1) != (color.RGBA{R: 200, A: 255}) {
		t.Fatalf("text did not survive: %q %v", txt.Markup, txt.Bitmap().RGBAAt(1, 1))
	}
	fh := got.Operations[4].(ops.Freehand)
	if fh.Opacity != 0.25 || fh.Style.Fill != (geom.Colour{R: 4, G: 5, B: 6, A: 128}) {
		t.Fatalf("freehand = %+v", fh)
	}
	if got.Operations[8].(ops.Bubble).Label != 3 {
		t.Fatalf("bubble label lost")
	}
}

func TestColoursAreByteArrays(t *testing.T) {
	b, err := Marshal(Document{Operations: []ops.Operation{
		ops.NewHighlight(geom.RectXYWH(0, 0, 1, 1), geom.Colour{R: 255, G: 255, B: 0, A: 63}),
	}})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	compact := strings.Join(strings.Fields(string(b)), "")
	if !strings.Contains(compact, `"colour":[255,255,0,63]`) {
		t.Fatalf("colour not encoded as an RGBA array: %s", b)
	}
	if !strings.Contains(compact, `"type":"highlight"`) {
		t.Fatalf("missing type tag: %s", b)
	}
}

func TestMalformedOperationsAreSkipped(t *testing.T) {
	data := `{
	  "format": 1,
	  "cursor": 6,
	  "operations": [
	    {"type": "line", "from": {"x": 0, "y": 0}, "to": {"x": 5, "y": 5}},
	    {"type": "sparkle"},
	    {"type": "highlight", "rect": {"x": 0, "y": 0, "w": 1, "h": 1}, "colour": [300, 0, 0, 255]},
	    {"type": "freehand", "points": [{"x": 1, "y": 1}]},
	    {"type": "blur", "rect": {"x": 0, "y": 0, "w": 4, "h": 4}, "radius": 0},
	    {"type": "rectangle", "rect": {"x": 0, "y": 0, "w": 4, "h": 4}, "width": "wide"},
	    {"type": "crop", "rect": {"x": 0, "y": 0, "w": 4, "h": 4}}
	  ]
	}`
	doc, err := Unmarshal([]byte(data))
	var skipped *SkippedError
	if !errors.As(err, &skipped) {
		t.Fatalf("expected *SkippedError, got %v", err)
	}
	if len(skipped.Errs) != 5 {
		t.Fatalf("skipped %d, want 5: %v", len(skipped.Errs), err)
	}
	if !errors.Is(err, ErrUnknownKind) || !errors.Is(err, ErrInvalid) {
		t.Fatalf("skipped errors should wrap their causes: %v", err)
	}
	if len(doc.Operations) != 2 {
		t.Fatalf("kept %d operations, want 2", len(doc.Operations))
	}
	if doc.Cursor != 1 {
		t.Fatalf("cursor = %d, want 1 (only the line was active)", doc.Cursor)
	}
	var first *OpError
	if !errors.As(skipped.Errs[0], &first) || first.Index != 1 || first.Type != "sparkle" {
		t.Fatalf("first skipped = %v", skipped.Errs[0])
	}
}

func TestOutOfRangeValuesAreSkipped(t *testing.T) {
	data := `{
	  "format": 1,
	  "cursor": 5,
	  "operations": [
	    {"type": "blur", "rect": {"x": 0, "y": 0, "w": 4, "h": 4}, "radius": 1e19},
	    {"type": "pixelate", "rect": {"x": 0, "y": 0, "w": 4, "h": 4}, "block": 1e19},
	    {"type": "crop", "rect": {"x": 0, "y": 0, "w": 1e300, "h": 4}},
	    {"type": "line", "from": {"x": -1e19, "y": 0}, "to": {"x": 5, "y": 5}},
	    {"type": "blur", "rect": {"x": 0, "y": 0, "w": 4, "h": 4}, "radius": 3}
	  ]
	}`
	doc, err := Unmarshal([]byte(data))
	var skipped *SkippedError
	if !errors.As(err, &skipped) {
		t.Fatalf("expected *SkippedError, got %v", err)
	}
	if len(skipped.Errs) != 4 || !errors.Is(err, ErrInvalid) {
		t.Fatalf("skipped %d, want 4 invalid: %v", len(skipped.Errs), err)
	}
	if len(doc.Operations) != 1 {
		t.Fatalf("kept %d operations, want 1", len(doc.Operations))
	}
	if b, ok := doc.Operations[0].(ops.Blur); !ok || b.Radius != 3 {
		t.Fatalf("kept %#v, want the radius 3 blur", doc.Operations[0])
	}
}

func TestNotJSONIsFatal(t *testing.T) {
	_, err := Unmarshal([]byte("not a document"))
	if err == nil {
		t.Fatalf("expected error")
	}
	var skipped *SkippedError
	if errors.As(err, &skipped) {
		t.Fatalf("a broken document is not a skip: %v", err)
	}
}

func TestNewerFormatRejected(t *testing.T) {
	if _, err := Unmarshal([]byte(`{"format": 9, "operations": []}`)); !errors.Is(err, ErrFormat) {
		t.Fatalf("expected ErrFormat, got %v", err)
	}
}

func TestActiveHonoursCursor(t *testing.T) {
	doc := sampleDoc()
	doc.Cursor = 2
	if got := doc.Active(); len(got) != 2 {
		t.Fatalf("active = %d", len(got))
	}
	doc.Cursor = 99
	if got := doc.Active(); len(got) != len(doc.Operations) {
		t.Fatalf("cursor not clamped")
	}
}
