package tool

import (
	"testing"

	"github.com/example/markshot/internal/geom"
	"github.com/example/markshot/internal/ops"
)

func ctxFor(t Tool) Context {
	return Context{Tool: t, Style: geom.DefaultStyle(), Secondary: geom.DefaultSecondary, Counter: NewBubbleCounter()}
}

func TestShapeToolsRespectEpsilon(t *testing.T) {
	c := NewController()
	tiny := Gesture{Press: geom.Pt(10, 10), Release: geom.Pt(11, 11)}
	drag := Gesture{Press: geom.Pt(10, 10), Release: geom.Pt(30, 25)}
	for _, tl := range []Tool{Line, Arrow, Rectangle, Ellipse} {
		if _, ok := c.Build(ctxFor(tl), tiny); ok {
			t.Errorf("%v: gesture below epsilon produced an operation", tl)
		}
		op, ok := c.Build(ctxFor(tl), drag)
		if !ok {
			t.Errorf("%v: gesture above epsilon dropped", tl)
			continue
		}
		if op.Kind().String() != tl.String() {
			t.Errorf("%v built %v", tl, op.Kind())
		}
	}
}

func TestReverseDragNormalises(t *testing.T) {
	c := NewController()
	op, ok := c.Build(ctxFor(Rectangle), Gesture{Press: geom.Pt(40, 40), Release: geom.Pt(10, 5)})
	if !ok {
		t.Fatalf("expected rectangle")
	}
	r := op.(ops.Rectangle).Rect
	if r.Min != geom.Pt(10, 5) || r.Max != geom.Pt(40, 40) {
		t.Fatalf("rect not normalised: %+v", r)
	}
}

func TestFreehandNeedsTwoPoints(t *testing.T) {
	c := NewController()
	if _, ok := c.Build(ctxFor(Freehand), Gesture{Press: geom.Pt(3, 3), Release: geom.Pt(3, 3)}); ok {
		t.Fatalf("single point freehand accepted")
	}
	g := Gesture{Press: geom.Pt(0, 0), Drags: []geom.Point{geom.Pt(1, 0), geom.Pt(1, 0), geom.Pt(2, 1)}, Release: geom.Pt(3, 3)}
	op, ok := c.Build(ctxFor(Freehand), g)
	if !ok {
		t.Fatalf("freehand dropped")
	}
	if n := op.(ops.Freehand).Len(); n != 4 {
		t.Fatalf("freehand points = %d, want 4", n)
	}
	if g.Drags[1] != geom.Pt(1, 0) {
		t.Fatalf("Build modified the gesture")
	}
}

func TestRegionToolsDropZeroArea(t *testing.T) {
	c := NewController()
	flat := Gesture{Press: geom.Pt(0, 5), Release: geom.Pt(50, 5)}
	for _, tl := range []Tool{Highlight, Pixelate, Blur, Crop} {
		if _, ok := c.Build(ctxFor(tl), flat); ok {
			t.Errorf("%v: zero-area region accepted", tl)
		}
	}
	op, ok := c.Build(ctxFor(Blur), Gesture{Press: geom.Pt(0, 0), Release: geom.Pt(5, 5)})
	if !ok || op.(ops.Blur).Radius != c.BlurRadius {
		t.Fatalf("blur = %+v, %v", op, ok)
	}
}

func TestCropClickSnapsToTopmostWindow(t *testing.T) {
	c := NewController()
	ctx := ctxFor(Crop)
	ctx.Windows = []geom.Rect{
		geom.RectXYWH(40, 40, 20, 20),
		geom.RectXYWH(0, 0, 100, 80),
	}
	cases := []struct {
		at   geom.Point
		want geom.Rect
	}{
		{geom.Pt(50, 50), ctx.Windows[0]},
		{geom.Pt(10, 10), ctx.Windows[1]},
	}
	for _, tc := range cases {
		op, ok := c.Build(ctx, Gesture{Press: tc.at, Release: tc.at})
		if !ok {
			t.Fatalf("click at %v built nothing", tc.at)
		}
		if got := op.(ops.Crop).Region; got != tc.want {
			t.Fatalf("click at %v cropped to %v, want %v", tc.at, got, tc.want)
		}
	}
	if _, ok := c.Build(ctx, Gesture{Press: geom.Pt(150, 150), Release: geom.Pt(150, 150)}); ok {
		t.Fatalf("click outside every window built a crop")
	}
	drag := Gesture{Press: geom.Pt(45, 45), Release: geom.Pt(90, 70)}
	op, ok := c.Build(ctx, drag)
	if !ok || op.(ops.Crop).Region != drag.Bounds() {
		t.Fatalf("dragged crop = %+v, %v", op, ok)
	}
}

func TestBubbleLabelsIncrease(t *testing.T) {
	c := NewController()
	ctx := ctxFor(Bubble)
	click := Gesture{Press: geom.Pt(5, 5), Release: geom.Pt(5, 5)}
	for want := 1; want <= 3; want++ {
		op, ok := c.Build(ctx, click)
		if !ok {
			t.Fatalf("bubble dropped")
		}
		if got := op.(ops.Bubble).Label; got != want {
			t.Fatalf("label = %d, want %d", got, want)
		}
	}
	if ctx.Counter.Peek() != 4 {
		t.Fatalf("peek = %d", ctx.Counter.Peek())
	}
}

func TestSelectAndTextBuildNothing(t *testing.T) {
	c := NewController()
	g := Gesture{Press: geom.Pt(0, 0), Release: geom.Pt(50, 50)}
	for _, tl := range []Tool{Select, Text} {
		if _, ok := c.Build(ctxFor(tl), g); ok {
			t.Errorf("%v built an operation", tl)
		}
	}
}

func TestCounterAdvance(t *testing.T) {
	c := NewBubbleCounter()
	c.Advance(7)
	if c.Next() != 8 {
		t.Fatalf("advance did not skip used labels")
	}
	c.Advance(2)
	if c.Peek() != 9 {
		t.Fatalf("advance went backwards")
	}
}

func TestParseTool(t *testing.T) {
	for _, tl := range All() {
		got, err := Parse(tl.String())
		if err != nil || got != tl {
			t.Errorf("Parse(%q) = %v, %v", tl.String(), got, err)
		}
		byKey, ok := ForKey(tl.Key())
		if !ok || byKey != tl {
			t.Errorf("ForKey(%q) = %v", tl.Key(), byKey)
		}
	}
	if _, err := Parse("lasso"); err == nil {
		t.Fatalf("unknown tool parsed")
	}
}
