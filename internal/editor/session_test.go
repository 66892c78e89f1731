package editor

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/draw"
	"testing"
	"time"

	"github.com/example/markshot/internal/codec"
	"github.com/example/markshot/internal/effects"
	"github.com/example/markshot/internal/geom"
	"github.com/example/markshot/internal/ops"
	"github.com/example/markshot/internal/render"
	"github.com/example/markshot/internal/tool"
)

func newBase(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)
	return img
}

func newSession(t *testing.T, opts ...Option) *Session {
	t.Helper()
	s, err := New(newBase(64, 64), opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

func drag(s *Session, from, to geom.Point) Status {
	s.Handle(Down(from))
	s.Handle(Drag(geom.Pt((from.X+to.X)/2, (from.Y+to.Y)/2)))
	return s.Handle(Up(to))
}

func click(s *Session, p geom.Point) Status {
	s.Handle(Down(p))
	return s.Handle(Up(p))
}

func TestMissingBaseImageIsFatal(t *testing.T) {
	if _, err := New(nil); !errors.Is(err, ErrNoBaseImage) {
		t.Fatalf("nil base: %v", err)
	}
	if _, err := New(image.NewRGBA(image.Rectangle{})); !errors.Is(err, ErrNoBaseImage) {
		t.Fatalf("empty base: %v", err)
	}
}

func TestGestureCommitsOperation(t *testing.T) {
	s := newSession(t, WithTool(tool.Rectangle))
	st := drag(s, geom.Pt(5, 5), geom.Pt(30, 20))
	if !st.Changed {
		t.Fatalf("status = %+v", st)
	}
	got := s.Operations()
	if len(got) != 1 || got[0].Kind() != ops.KindRectangle {
		t.Fatalf("operations = %v", got)
	}
	if s.Gesturing() {
		t.Fatalf("session should be idle after release")
	}
}

func TestTinyGestureIsDropped(t *testing.T) {
	s := newSession(t, WithTool(tool.Line))
	drag(s, geom.Pt(5, 5), geom.Pt(6, 5))
	if n := len(s.Operations()); n != 0 {
		t.Fatalf("expected no operation, got %d", n)
	}
}

func TestUndoRedoMessages(t *testing.T) {
	s := newSession(t)
	if st := s.Handle(Undo()); st.Changed || st.Message != "nothing to undo" {
		t.Fatalf("undo on empty = %+v", st)
	}
	drag(s, geom.Pt(0, 0), geom.Pt(20, 20))
	if st := s.Handle(Redo()); st.Changed || st.Message != "nothing to redo" {
		t.Fatalf("redo at end = %+v", st)
	}
	if st := s.Handle(Undo()); !st.Changed {
		t.Fatalf("undo = %+v", st)
	}
	if len(s.Operations()) != 0 {
		t.Fatalf("undo left operations active")
	}
}

func TestUndoDuringGestureCancelsFirst(t *testing.T) {
	s := newSession(t)
	drag(s, geom.Pt(0, 0), geom.Pt(20, 20))
	s.Handle(Down(geom.Pt(30, 30)))
	s.Handle(Drag(geom.Pt(40, 40)))
	s.Handle(Undo())
	if s.Gesturing() {
		t.Fatalf("gesture still active after undo")
	}
	if st := s.Handle(Up(geom.Pt(50, 50))); st.Changed {
		t.Fatalf("release after cancel committed something: %+v", st)
	}
	if len(s.Operations()) != 0 {
		t.Fatalf("undo should also retire the first line")
	}
}

func TestBubbleLabelsNotReusedAfterUndo(t *testing.T) {
	s := newSession(t, WithTool(tool.Bubble))
	click(s, geom.Pt(10, 10))
	click(s, geom.Pt(20, 10))
	s.Handle(Undo())
	click(s, geom.Pt(30, 10))

	active := s.Operations()
	if len(active) != 2 {
		t.Fatalf("active = %d", len(active))
	}
	if a, b := active[0].(ops.Bubble).Label, active[1].(ops.Bubble).Label; a != 1 || b != 3 {
		t.Fatalf("labels = %d, %d; want 1, 3", a, b)
	}
}

func TestSelectPicksTopmost(t *testing.T) {
	s := newSession(t, WithTool(tool.Rectangle))
	drag(s, geom.Pt(0, 0), geom.Pt(40, 40))
	drag(s, geom.Pt(10, 10), geom.Pt(30, 30))
	s.Handle(UseTool(tool.Select))
	st := s.Handle(Down(geom.Pt(20, 20)))
	if s.Selected() != 1 || !st.Changed {
		t.Fatalf("selected = %d, status %+v", s.Selected(), st)
	}
	if len(s.Operations()) != 2 {
		t.Fatalf("hit testing changed the list")
	}
	s.Handle(Undo())
	if s.Selected() != -1 {
		t.Fatalf("selection should not point at a retired operation")
	}
}

func TestRestyleSelectedCommitsCopy(t *testing.T) {
	s := newSession(t, WithTool(tool.Rectangle))
	drag(s, geom.Pt(5, 5), geom.Pt(40, 40))
	drag(s, geom.Pt(45, 45), geom.Pt(60, 60))
	s.Handle(UseTool(tool.Select))
	s.Handle(Down(geom.Pt(5, 20)))
	if s.Selected() != 0 {
		t.Fatalf("selected = %d", s.Selected())
	}

	red := geom.Colour{R: 255, G: 0, B: 0, A: 255}
	st := s.Handle(Colour(TargetStroke, red))
	if !st.Changed || st.Message != "restyled rectangle" {
		t.Fatalf("status = %+v", st)
	}
	got := s.Operations()
	if len(got) != 3 || s.Selected() != 2 {
		t.Fatalf("%d operations, selected %d", len(got), s.Selected())
	}
	orig, copied := got[0].(ops.Rectangle), got[2].(ops.Rectangle)
	if copied.Rect != orig.Rect || copied.Style.Stroke != red || orig.Style.Stroke == red {
		t.Fatalf("copy = %+v, original = %+v", copied, orig)
	}

	s.Handle(Width(9))
	if w := s.Operations()[3].(ops.Rectangle).Style.Width; w != 9 {
		t.Fatalf("width restyle = %v", w)
	}
	s.Handle(Undo())
	s.Handle(Undo())
	if len(s.Operations()) != 2 {
		t.Fatalf("undo left %d operations", len(s.Operations()))
	}

	s.Handle(UseTool(tool.Line))
	s.Handle(Colour(TargetStroke, geom.Black))
	if len(s.Operations()) != 2 {
		t.Fatalf("colour change outside select mode committed an operation")
	}
}

func TestSetColourAndWidthApplyToNewOps(t *testing.T) {
	s := newSession(t, WithTool(tool.Line))
	red := geom.Colour{R: 255, G: 0, B: 0, A: 255}
	s.Handle(Colour(TargetStroke, red))
	s.Handle(Width(7))
	drag(s, geom.Pt(0, 0), geom.Pt(20, 0))
	s.Handle(Colour(TargetStroke, geom.Black))
	l := s.Operations()[0].(ops.Line)
	if l.Style.Stroke != red || l.Style.Width != 7 {
		t.Fatalf("line style = %+v", l.Style)
	}
	if st := s.Handle(Width(-1)); st.Message == "" {
		t.Fatalf("negative width should be reported")
	}
}

func TestTextCommitted(t *testing.T) {
	s := newSession(t, WithTool(tool.Text))
	bm := image.NewRGBA(image.Rect(0, 0, 4, 4))
	if st := s.Handle(Text(geom.Pt(2, 2), "", nil)); st.Changed {
		t.Fatalf("nil bitmap committed")
	}
	if st := s.Handle(Text(geom.Pt(2, 2), "hi", bm)); !st.Changed {
		t.Fatalf("text not committed")
	}
	if k := s.Operations()[0].Kind(); k != ops.KindText {
		t.Fatalf("kind = %v", k)
	}
}

func TestRenderMatchesCompositor(t *testing.T) {
	s := newSession(t, WithTool(tool.Rectangle))
	drag(s, geom.Pt(5, 5), geom.Pt(50, 50))
	s.Handle(UseTool(tool.Blur))
	drag(s, geom.Pt(0, 0), geom.Pt(60, 60))
	want := render.New(effects.NewEngine()).Render(s.Base(), s.Operations(), nil)
	if got := s.Render(); !bytes.Equal(got.Pix, want.Pix) {
		t.Fatalf("session render differs from direct composite")
	}
}

func TestCropClickFramesWindowUnderPointer(t *testing.T) {
	win := geom.RectXYWH(8, 12, 30, 20)
	s := newSession(t, WithTool(tool.Crop), WithWindows([]geom.Rect{win}))
	if st := click(s, geom.Pt(20, 20)); !st.Changed {
		t.Fatalf("status = %+v", st)
	}
	if got := s.Render().Bounds(); got != image.Rect(0, 0, 30, 20) {
		t.Fatalf("frame = %v, want the window size", got)
	}
	if o := s.Origin(); o != win.Min {
		t.Fatalf("origin = %v, want %v", o, win.Min)
	}
}

func TestPinnedCropFramesAndSurvivesUndo(t *testing.T) {
	s := newSession(t, WithPinnedCrop(geom.RectXYWH(10, 10, 20, 15)))
	if got := s.Render().Bounds(); got != image.Rect(0, 0, 20, 15) {
		t.Fatalf("bounds = %v", got)
	}
	if o := s.Origin(); o != geom.Pt(10, 10) {
		t.Fatalf("origin = %v", o)
	}
	if st := s.Handle(Undo()); st.Message != "nothing to undo" {
		t.Fatalf("pinned crop was undoable: %+v", st)
	}
	if doc := s.Document(); len(doc.Operations) != 0 || doc.Cursor != 0 {
		t.Fatalf("pinned crop leaked into the document: %+v", doc)
	}
}

func startPool(t *testing.T) *effects.Pool {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	p := effects.NewPool(2)
	p.Start(ctx)
	t.Cleanup(func() {
		p.Close()
		cancel()
	})
	return p
}

func waitResult(t *testing.T, p *effects.Pool) effects.Result {
	t.Helper()
	select {
	case res := <-p.Results():
		return res
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting for effect result")
	}
	return effects.Result{}
}

func TestPoolResultAccepted(t *testing.T) {
	p := startPool(t)
	s := newSession(t, WithPool(p), WithTool(tool.Line))
	drag(s, geom.Pt(0, 30), geom.Pt(60, 30))
	inline := render.New(effects.NewEngine())

	s.Handle(UseTool(tool.Pixelate))
	drag(s, geom.Pt(0, 0), geom.Pt(64, 64))
	if s.Pending() != 1 {
		t.Fatalf("pending = %d", s.Pending())
	}
	res := waitResult(t, p)
	if !s.Reconcile(res) {
		t.Fatalf("fresh result rejected")
	}
	want := inline.Render(s.Base(), s.Operations(), nil)
	if got := s.Render(); !bytes.Equal(got.Pix, want.Pix) {
		t.Fatalf("render with pool result differs from inline")
	}
}

func TestStalePoolResultDiscarded(t *testing.T) {
	p := startPool(t)
	s := newSession(t, WithPool(p), WithTool(tool.Blur))
	drag(s, geom.Pt(0, 0), geom.Pt(30, 30))
	res := waitResult(t, p)

	// Undo retires the blur, so its result no longer applies.
	s.Handle(Undo())
	if s.Reconcile(res) {
		t.Fatalf("result for a retired operation accepted")
	}

	s.Handle(Redo())
	drag(s, geom.Pt(0, 0), geom.Pt(10, 10))
	res2 := waitResult(t, p)
	s.Handle(UseTool(tool.Line))
	drag(s, geom.Pt(0, 40), geom.Pt(40, 40))
	s.Handle(Undo())
	s.Handle(Undo())
	s.Handle(UseTool(tool.Rectangle))
	drag(s, geom.Pt(5, 5), geom.Pt(25, 25))
	if s.Reconcile(res2) {
		t.Fatalf("result from an older list version accepted")
	}
	if s.Reconcile(effects.Result{ID: 999}) {
		t.Fatalf("unknown request accepted")
	}
}

func TestPendingEffectIsNotComputedInline(t *testing.T) {
	// Workers exit at once, so requests stay queued.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p := effects.NewPool(1)
	p.Start(ctx)
	defer p.Close()
	for range p.Results() {
	}

	s := newSession(t, WithPool(p), WithTool(tool.Line))
	drag(s, geom.Pt(0, 30), geom.Pt(60, 30))
	before := append([]byte(nil), s.Render().Pix...)

	s.Handle(UseTool(tool.Blur))
	drag(s, geom.Pt(0, 0), geom.Pt(64, 64))
	if s.Pending() != 1 {
		t.Fatalf("pending = %d", s.Pending())
	}
	if got := s.Render(); !bytes.Equal(got.Pix, before) {
		t.Fatalf("blur was applied before its result arrived")
	}

	inline := render.New(effects.NewEngine())
	want := inline.Render(s.Base(), s.Operations(), nil)
	if bytes.Equal(want.Pix, before) {
		t.Fatalf("blur left the line untouched")
	}
	if got := s.Flatten(); !bytes.Equal(got.Pix, want.Pix) {
		t.Fatalf("flatten differs from inline composite")
	}

	blur := s.Operations()[1]
	snap := effects.Snapshot(inline.Render(s.Base(), s.Operations()[:1], nil), blur.Bounds().Image())
	img, err := effects.NewEngine().Apply(blur, snap)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	var id uint64
	for k := range s.pending {
		id = k
	}
	if !s.Reconcile(effects.Result{ID: id, Index: 1, Version: s.list.Version(), Image: img}) {
		t.Fatalf("result rejected")
	}
	if got := s.Render(); !bytes.Equal(got.Pix, want.Pix) {
		t.Fatalf("render after reconcile differs from inline composite")
	}
}

func TestRedoResubmitsDiscardedEffect(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p := effects.NewPool(1)
	p.Start(ctx)
	defer p.Close()
	for range p.Results() {
	}

	s := newSession(t, WithPool(p), WithTool(tool.Pixelate))
	drag(s, geom.Pt(0, 0), geom.Pt(32, 32))
	s.Handle(Undo())
	if s.Reconcile(effects.Result{ID: 1, Index: 0, Version: s.list.Version()}) {
		t.Fatalf("result for an undone effect accepted")
	}
	if s.Pending() != 0 {
		t.Fatalf("pending = %d after discard", s.Pending())
	}
	s.Handle(Redo())
	s.Render()
	if s.Pending() != 1 {
		t.Fatalf("redone effect was not submitted again: pending = %d", s.Pending())
	}
}

func TestDocumentRoundTripThroughOpen(t *testing.T) {
	s := newSession(t, WithTool(tool.Bubble))
	click(s, geom.Pt(10, 10))
	click(s, geom.Pt(20, 20))
	s.Handle(Undo())
	doc := s.Document()
	if doc.Cursor != 1 || len(doc.Operations) != 2 {
		t.Fatalf("document cursor=%d len=%d", doc.Cursor, len(doc.Operations))
	}

	data, err := codec.Marshal(doc)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	back, err := codec.Unmarshal(data)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	r, err := Open(s.Base(), back, WithTool(tool.Bubble))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if r.ID() != s.ID() {
		t.Fatalf("session id not restored")
	}
	if len(r.Operations()) != 1 || !r.CanRedo() {
		t.Fatalf("cursor not restored")
	}
	if r.NextBubble() != 3 {
		t.Fatalf("next bubble = %d, want 3", r.NextBubble())
	}
	if !bytes.Equal(r.Render().Pix, s.Render().Pix) {
		t.Fatalf("restored session renders differently")
	}
}

func TestPreviewDoesNotConsumeBubble(t *testing.T) {
	s := newSession(t, WithTool(tool.Bubble))
	s.Handle(Down(geom.Pt(5, 5)))
	if _, ok := s.Preview(geom.Pt(5, 5)); !ok {
		t.Fatalf("expected a bubble preview")
	}
	s.Handle(Up(geom.Pt(5, 5)))
	if got := s.Operations()[0].(ops.Bubble).Label; got != 1 {
		t.Fatalf("label = %d, preview consumed a number", got)
	}
}

func TestCopiesBase(t *testing.T) {
	base := newBase(8, 8)
	s, err := New(base)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	base.SetRGBA(0, 0, color.RGBA{A: 255})
	if s.Base().RGBAAt(0, 0) != (color.RGBA{255, 255, 255, 255}) {
		t.Fatalf("session aliases the caller's base image")
	}
}
