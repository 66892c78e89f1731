// Package editor ties the operation list, tools, renderer and effect pool
// into one editing session driven by toolkit-independent events.
//
// A Session is not safe for concurrent use. Surfaces call it from their UI
// goroutine and forward pool results through Reconcile.
package editor

import (
	"errors"
	"fmt"
	"image"
	"log"

	"github.com/anthonynsimon/bild/clone"
	"github.com/google/uuid"

	"github.com/example/markshot/internal/codec"
	"github.com/example/markshot/internal/effects"
	"github.com/example/markshot/internal/geom"
	"github.com/example/markshot/internal/history"
	"github.com/example/markshot/internal/hittest"
	"github.com/example/markshot/internal/ops"
	"github.com/example/markshot/internal/render"
	"github.com/example/markshot/internal/tool"
)

// ErrNoBaseImage is returned when a session is created without a capture.
var ErrNoBaseImage = errors.New("editor: no base image")

type state int

const (
	idle state = iota
	gesturing
)

// Session is one annotation session over an immutable base image.
type Session struct {
	id        uuid.UUID
	base      *image.RGBA
	list      *history.List
	style     geom.Style
	secondary geom.Colour
	tool      tool.Tool
	counter   *tool.BubbleCounter

	controller tool.Controller
	tester     hittest.Tester
	engine     effects.Engine
	cache      *render.Cache
	listOpts   []history.Option
	cacheOpts  []render.CacheOption

	pool      *effects.Pool
	nextReq   uint64
	pending   map[uint64]int
	fx        render.Effects
	held      render.Effects
	fxVersion uint64

	state    state
	gesture  tool.Gesture
	selected int
	windows  []geom.Rect
}

// Option configures a Session.
type Option func(*Session)

// WithID sets the session identifier instead of generating one.
func WithID(id uuid.UUID) Option { return func(s *Session) { s.id = id } }

// WithStyle sets the initial stroke style.
func WithStyle(st geom.Style) Option { return func(s *Session) { s.style = st } }

// WithSecondary sets the secondary colour used for bubble labels.
func WithSecondary(c geom.Colour) Option { return func(s *Session) { s.secondary = c } }

// WithTool sets the initially selected tool.
func WithTool(t tool.Tool) Option { return func(s *Session) { s.tool = t } }

// WithController replaces the gesture interpreter.
func WithController(c tool.Controller) Option { return func(s *Session) { s.controller = c } }

// WithTester replaces the hit tester.
func WithTester(t hittest.Tester) Option { return func(s *Session) { s.tester = t } }

// WithEngine replaces the effect engine used for inline rendering.
func WithEngine(e effects.Engine) Option { return func(s *Session) { s.engine = e } }

// WithPool offloads blur and pixelate to a started pool. Results must be
// passed back through Reconcile.
func WithPool(p *effects.Pool) Option { return func(s *Session) { s.pool = p } }

// WithWindows sets the window rectangles, in base image coordinates and
// topmost first, that a crop click snaps to.
func WithWindows(rects []geom.Rect) Option {
	return func(s *Session) { s.windows = append([]geom.Rect(nil), rects...) }
}

// WithPinnedCrop starts the session framed to r. Undo never removes it.
func WithPinnedCrop(r geom.Rect) Option {
	return func(s *Session) {
		s.listOpts = append(s.listOpts, history.WithPinned(ops.NewCrop(r)))
	}
}

// WithCacheOptions tunes the render cache.
func WithCacheOptions(opts ...render.CacheOption) Option {
	return func(s *Session) { s.cacheOpts = append(s.cacheOpts, opts...) }
}

// New starts a session over base. base is copied; the caller may reuse it.
func New(base image.Image, opts ...Option) (*Session, error) {
	if base == nil || base.Bounds().Empty() {
		return nil, ErrNoBaseImage
	}
	s := &Session{
		id:         uuid.New(),
		base:       clone.AsRGBA(base),
		style:      geom.DefaultStyle(),
		secondary:  geom.DefaultSecondary,
		tool:       tool.Line,
		counter:    tool.NewBubbleCounter(),
		controller: tool.NewController(),
		tester:     hittest.New(),
		engine:     effects.NewEngine(),
		pending:    map[uint64]int{},
		fx:         render.Effects{},
		held:       render.Effects{},
		selected:   -1,
	}
	for _, o := range opts {
		o(s)
	}
	s.list = history.New(s.listOpts...)
	s.cache = render.NewCache(render.New(s.engine), s.base, s.cacheOpts...)
	return s, nil
}

// Open restores a session from a persisted document. Bubble numbering
// continues after the highest label in the document.
func Open(base image.Image, doc codec.Document, opts ...Option) (*Session, error) {
	if doc.Session != "" {
		if id, err := uuid.Parse(doc.Session); err == nil {
			opts = append([]Option{WithID(id)}, opts...)
		}
	}
	s, err := New(base, opts...)
	if err != nil {
		return nil, err
	}
	all := append(s.list.All(), doc.Operations...)
	s.list.Restore(all, s.list.Cursor()+doc.Cursor)
	for _, op := range doc.Operations {
		if b, ok := op.(ops.Bubble); ok {
			s.counter.Advance(b.Label)
		}
	}
	return s, nil
}

// ID returns the session identifier.
func (s *Session) ID() uuid.UUID { return s.id }

// Base returns the captured image. Callers must not modify it.
func (s *Session) Base() *image.RGBA { return s.base }

// Tool returns the selected tool.
func (s *Session) Tool() tool.Tool { return s.tool }

// Style returns the current stroke style.
func (s *Session) Style() geom.Style { return s.style }

// Secondary returns the secondary colour.
func (s *Session) Secondary() geom.Colour { return s.secondary }

// NextBubble returns the label the next bubble will get.
func (s *Session) NextBubble() int { return s.counter.Peek() }

// Selected returns the index of the selected operation, or -1.
func (s *Session) Selected() int {
	if !s.list.IsActive(s.selected) {
		return -1
	}
	return s.selected
}

// Gesturing reports whether a pointer gesture is in progress.
func (s *Session) Gesturing() bool { return s.state == gesturing }

// CanUndo and CanRedo report whether the matching key would do anything.
func (s *Session) CanUndo() bool { return s.list.CanUndo() }
func (s *Session) CanRedo() bool { return s.list.CanRedo() }

// Operations returns the active operations in drawing order.
func (s *Session) Operations() []ops.Operation { return s.list.Active() }

// Document returns the serialisable form of the session, redo tail included.
// A pinned crop is part of the session options, not the document.
func (s *Session) Document() codec.Document {
	pinned := 0
	if len(s.listOpts) > 0 {
		pinned = 1
	}
	all := s.list.All()
	b := s.base.Bounds()
	return codec.Document{
		Format:     codec.FormatVersion,
		Session:    s.id.String(),
		Width:      b.Dx(),
		Height:     b.Dy(),
		Cursor:     s.list.Cursor() - pinned,
		Operations: all[pinned:],
	}
}

// Render returns the composite of the active operations for display. With
// a pool, an effect whose result has not been reconciled yet is shown as the
// unmodified region underneath it and is never computed on the caller's
// goroutine. Without a pool every effect is computed inline.
func (s *Session) Render() *image.RGBA {
	fx := s.effects()
	if s.pool == nil {
		return s.cache.Render(s.list, fx)
	}
	s.schedule()
	if len(s.held) == 0 {
		return s.cache.Render(s.list, fx)
	}
	return s.cache.Preview(s.list, fx, s.held)
}

// Flatten returns the finished composite, computing any effect still
// waiting on the pool inline. Saving and copying use it.
func (s *Session) Flatten() *image.RGBA {
	return s.cache.Render(s.list, s.effects())
}

// Origin is the image position of the rendered frame's top-left pixel. It
// moves when a crop is active.
func (s *Session) Origin() geom.Point {
	o := render.FrameArea(s.base.Bounds(), s.list.Active()).Min
	return geom.Pt(float64(o.X), float64(o.Y))
}

// Pending returns how many effect requests are still out.
func (s *Session) Pending() int { return len(s.pending) }

// Commit appends op as if a gesture had produced it.
func (s *Session) Commit(op ops.Operation) int {
	idx := s.list.Commit(op)
	s.selected = -1
	if b, ok := op.(ops.Bubble); ok {
		s.counter.Advance(b.Label)
	}
	if s.pool != nil && ops.IsEffect(op) {
		s.schedule()
	}
	return idx
}

// schedule submits every active effect that has neither a result nor a
// request in flight for the current list version.
func (s *Session) schedule() {
	fx := s.effects()
	for i, op := range s.list.Active() {
		if !ops.IsEffect(op) {
			continue
		}
		if _, ok := fx[i]; ok {
			continue
		}
		if _, ok := s.held[i]; ok {
			continue
		}
		s.submit(i, op)
	}
}

func (s *Session) submit(idx int, op ops.Operation) {
	snap := s.cache.PreviewSnapshot(s.list, idx, op.Bounds().Image(), s.effects(), s.held)
	if snap == nil {
		return
	}
	s.nextReq++
	req := effects.Request{ID: s.nextReq, Index: idx, Version: s.list.Version(), Op: op, Snapshot: snap}
	if s.pool.Submit(req) {
		s.pending[req.ID] = idx
		s.held[idx] = snap
	}
}

// Reconcile offers a pool result to the session. It is accepted only when it
// was computed for the current list and its operation is still active;
// anything else is discarded. It reports whether a redraw is needed.
func (s *Session) Reconcile(res effects.Result) bool {
	_, ours := s.pending[res.ID]
	delete(s.pending, res.ID)
	switch {
	case !ours:
		return false
	case res.Err != nil:
		log.Printf("effect %d: %v", res.Index, res.Err)
		s.dropHeld(res)
		return false
	case res.Version != s.list.Version() || !s.list.IsActive(res.Index):
		log.Printf("discarding stale effect result for operation %d", res.Index)
		s.dropHeld(res)
		return false
	}
	fx := s.effects()
	fx[res.Index] = res.Image
	delete(s.held, res.Index)
	// Later effects were computed over the stand-in; ask for them again.
	for i := range fx {
		if i > res.Index {
			delete(fx, i)
		}
	}
	for i := range s.held {
		if i > res.Index {
			delete(s.held, i)
		}
	}
	for id, i := range s.pending {
		if i > res.Index {
			delete(s.pending, id)
		}
	}
	return true
}

// dropHeld forgets the stand-in of a request that produced nothing usable,
// so the effect is submitted again if it is active at the next render.
func (s *Session) dropHeld(res effects.Result) {
	if res.Version == s.fxVersion {
		delete(s.held, res.Index)
	}
}

func (s *Session) effects() render.Effects {
	if v := s.list.Version(); v != s.fxVersion {
		s.fxVersion = v
		s.fx = render.Effects{}
		s.held = render.Effects{}
	}
	return s.fx
}

// Handle applies one event.
func (s *Session) Handle(ev Event) Status {
	switch ev.Kind {
	case PointerDown:
		return s.pointerDown(ev.Point)
	case PointerDrag:
		if s.state == gesturing && ev.Point.Finite() {
			s.gesture.Drags = append(s.gesture.Drags, ev.Point)
		}
		return Status{}
	case PointerUp:
		return s.pointerUp(ev.Point)
	case KeyPress:
		return s.key(ev.Key)
	case SelectTool:
		s.cancelGesture()
		s.tool = ev.Tool
		return Status{Message: fmt.Sprintf("%s tool", ev.Tool)}
	case SetColour:
		switch ev.Target {
		case TargetStroke:
			s.style.Stroke = ev.Colour
		case TargetFill:
			s.style.Fill = ev.Colour
		case TargetSecondary:
			s.secondary = ev.Colour
		}
		return s.restyleSelected(Status{Message: fmt.Sprintf("colour %s", ev.Colour)})
	case SetWidth:
		if ev.Width <= 0 {
			return Status{Message: "width must be positive"}
		}
		s.style.Width = ev.Width
		return s.restyleSelected(Status{Message: fmt.Sprintf("width %g", ev.Width)})
	case TextCommitted:
		s.cancelGesture()
		if ev.Bitmap == nil || ev.Bitmap.Bounds().Empty() || !ev.Point.Finite() {
			return Status{Message: "empty text discarded"}
		}
		s.Commit(ops.NewText(ev.Point, ev.Markup, ev.Bitmap))
		return Status{Changed: true, Message: "added text"}
	case Cancel:
		if s.cancelGesture() {
			return Status{Changed: true}
		}
		return Status{}
	}
	return Status{Message: fmt.Sprintf("unhandled %v", ev.Kind)}
}

// restyleSelected commits a copy of the selected operation drawn with the
// current style and selects the copy. It lands on top of the original, so
// undo restores the old look.
func (s *Session) restyleSelected(st Status) Status {
	i := s.Selected()
	if s.tool != tool.Select || i < 0 {
		return st
	}
	op, ok := restyle(s.list.At(i), s.style, s.secondary)
	if !ok {
		return st
	}
	s.selected = s.Commit(op)
	return Status{Changed: true, Message: fmt.Sprintf("restyled %s", op.Kind())}
}

// restyle reports false for operations without a stroke style.
func restyle(op ops.Operation, st geom.Style, secondary geom.Colour) (ops.Operation, bool) {
	switch op := op.(type) {
	case ops.Line:
		op.Style = st
		return op, true
	case ops.Arrow:
		op.Style = st
		return op, true
	case ops.Rectangle:
		op.Style = st
		return op, true
	case ops.Ellipse:
		op.Style = st
		return op, true
	case ops.Freehand:
		op.Style = st
		return op, true
	case ops.Bubble:
		op.Fill, op.TextColour = st.Stroke, secondary
		return op, true
	}
	return nil, false
}

func (s *Session) pointerDown(p geom.Point) Status {
	if !p.Finite() {
		return Status{}
	}
	if s.tool == tool.Select {
		prev := s.Selected()
		i, ok := s.tester.Test(s.list.Active(), p)
		if !ok {
			s.selected = -1
			return Status{Changed: prev != -1, Message: "nothing selected"}
		}
		s.selected = i
		return Status{Changed: prev != i, Message: fmt.Sprintf("selected %s", s.list.At(i).Kind())}
	}
	if !s.tool.Drags() {
		return Status{}
	}
	s.state = gesturing
	s.gesture = tool.Gesture{Press: p}
	return Status{}
}

func (s *Session) pointerUp(p geom.Point) Status {
	if s.state != gesturing {
		return Status{}
	}
	g := s.gesture
	if p.Finite() {
		g.Release = p
	} else if n := len(g.Drags); n > 0 {
		g.Release = g.Drags[n-1]
	} else {
		g.Release = g.Press
	}
	s.cancelGesture()
	op, ok := s.controller.Build(s.toolContext(), g)
	if !ok {
		return Status{Changed: true}
	}
	s.Commit(op)
	return Status{Changed: true, Message: fmt.Sprintf("added %s", op.Kind())}
}

func (s *Session) key(k Key) Status {
	cancelled := s.cancelGesture()
	switch k {
	case KeyUndo:
		if !s.list.Undo() {
			return Status{Changed: cancelled, Message: "nothing to undo"}
		}
		return Status{Changed: true, Message: "undo"}
	case KeyRedo:
		if !s.list.Redo() {
			return Status{Changed: cancelled, Message: "nothing to redo"}
		}
		return Status{Changed: true, Message: "redo"}
	}
	return Status{Changed: cancelled}
}

func (s *Session) cancelGesture() bool {
	if s.state != gesturing {
		return false
	}
	s.state = idle
	s.gesture = tool.Gesture{}
	return true
}

func (s *Session) toolContext() tool.Context {
	return tool.Context{Tool: s.tool, Style: s.style, Secondary: s.secondary, Counter: s.counter, Windows: s.windows}
}

// Preview returns the operation the gesture in progress would commit if the
// pointer were released at p. It never advances the bubble counter.
func (s *Session) Preview(p geom.Point) (ops.Operation, bool) {
	if s.state != gesturing {
		return nil, false
	}
	g := s.gesture
	g.Drags = append([]geom.Point(nil), g.Drags...)
	g.Release = p
	ctx := s.toolContext()
	peek := *s.counter
	ctx.Counter = &peek
	return s.controller.Build(ctx, g)
}
