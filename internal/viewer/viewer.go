// Package viewer is the interactive window around an editor session. It
// shows the rendered frame, a toolbar and a status line, and turns pointer
// and keyboard input into editor events.
package viewer

import (
	"context"
	"fmt"
	"log"
	"sync"

	"golang.org/x/exp/shiny/driver"
	"golang.org/x/exp/shiny/screen"
	"golang.org/x/mobile/event/key"
	"golang.org/x/mobile/event/lifecycle"
	"golang.org/x/mobile/event/mouse"
	"golang.org/x/mobile/event/paint"
	"golang.org/x/mobile/event/size"

	"github.com/example/markshot/internal/clipboard"
	"github.com/example/markshot/internal/editor"
	"github.com/example/markshot/internal/effects"
	"github.com/example/markshot/internal/export"
	"github.com/example/markshot/internal/notify"
	"github.com/example/markshot/internal/text"
	"github.com/example/markshot/internal/theme"
)

// frameDropThreshold caps how many in-flight frames may be cancelled in a row
// before one is allowed to finish.
const frameDropThreshold = 10

const (
	minWidth  = 640
	minHeight = 480
)

// resultEvent carries a finished effect back to the UI goroutine.
type resultEvent struct{ res effects.Result }

// Viewer owns the window for one session.
type Viewer struct {
	session  *editor.Session
	pool     *effects.Pool
	theme    *theme.Theme
	renderer text.Renderer
	output   string
	archive  *export.Archive
	exportOp []export.Option
	notifier *notify.Notifier
	onClose  func()
}

// Option configures a Viewer.
type Option func(*Viewer)

// WithPool forwards finished effects from p into the session.
func WithPool(p *effects.Pool) Option { return func(v *Viewer) { v.pool = p } }

func WithTheme(t *theme.Theme) Option { return func(v *Viewer) { v.theme = t } }

// WithTextRenderer sets the renderer used to place text.
func WithTextRenderer(r text.Renderer) Option { return func(v *Viewer) { v.renderer = r } }

// WithOutput sets the file Ctrl+S writes.
func WithOutput(path string, opts ...export.Option) Option {
	return func(v *Viewer) {
		v.output = path
		v.exportOp = opts
	}
}

// WithArchive enables Ctrl+Shift+S.
func WithArchive(a export.Archive) Option { return func(v *Viewer) { v.archive = &a } }

func WithNotifier(n *notify.Notifier) Option { return func(v *Viewer) { v.notifier = n } }

// WithOnClose runs fn after the window is gone.
func WithOnClose(fn func()) Option { return func(v *Viewer) { v.onClose = fn } }

// New creates a viewer for s.
func New(s *editor.Session, opts ...Option) *Viewer {
	v := &Viewer{session: s, theme: theme.Default(), renderer: text.NewRenderer()}
	for _, o := range opts {
		o(v)
	}
	return v
}

// Run executes the UI loop using shiny's driver. It returns when the window
// closes.
func (v *Viewer) Run() { driver.Main(v.Main) }

// Main runs the window on an existing screen.
func (v *Viewer) Main(s screen.Screen) {
	if v.onClose != nil {
		defer v.onClose()
	}
	fb := v.session.Render().Bounds()
	width := max(fb.Dx()+toolbarWidth, minWidth)
	height := max(fb.Dy()+statusHeight, minHeight)
	w, err := s.NewWindow(&screen.NewWindowOptions{Width: width, Height: height, Title: "markshot"})
	if err != nil {
		log.Printf("new window: %v", err)
		return
	}
	defer w.Release()

	done := make(chan struct{})
	defer close(done)
	if v.pool != nil {
		go func() {
			for {
				select {
				case res, ok := <-v.pool.Results():
					if !ok {
						return
					}
					w.Send(resultEvent{res})
				case <-done:
					return
				}
			}
		}()
	}

	var (
		paintMu     sync.Mutex
		paintCancel context.CancelFunc
		dropCount   int
	)
	paintCh := make(chan paintState, 1)
	defer close(paintCh)
	go func() {
		for st := range paintCh {
			ctx, cancel := context.WithCancel(context.Background())
			paintMu.Lock()
			paintCancel = cancel
			paintMu.Unlock()
			drawFrame(ctx, s, w, st)
			paintMu.Lock()
			paintCancel = nil
			if ctx.Err() == nil {
				dropCount = 0
			}
			paintMu.Unlock()
			cancel()
		}
	}()

	in := &input{session: v.session, renderer: v.renderer, status: "ready"}
	in.layout = newLayout(width, height, fb.Size(), v.session.Origin())
	quit := false
	in.run = func(c command) {
		switch c {
		case cmdSave:
			in.status = v.save()
		case cmdCopy:
			in.status = v.copy()
		case cmdArchive:
			in.status = v.saveArchive()
		case cmdQuit:
			quit = true
		}
	}

	for !quit {
		switch e := w.NextEvent().(type) {
		case lifecycle.Event:
			if e.To == lifecycle.StageDead {
				paintMu.Lock()
				if paintCancel != nil {
					paintCancel()
				}
				paintMu.Unlock()
				return
			}
		case size.Event:
			width, height = e.WidthPx, e.HeightPx
			w.Send(paint.Event{})
		case resultEvent:
			if v.session.Reconcile(e.res) {
				w.Send(paint.Event{})
			}
		case mouse.Event:
			if in.mouse(e) {
				w.Send(paint.Event{})
			}
		case key.Event:
			if in.key(e) {
				w.Send(paint.Event{})
			}
		case paint.Event:
			paintMu.Lock()
			if paintCancel != nil && dropCount < frameDropThreshold {
				paintCancel()
				dropCount++
			}
			paintMu.Unlock()
			st := v.snapshot(in, width, height)
			select {
			case paintCh <- st:
			default:
				<-paintCh
				paintCh <- st
			}
		case error:
			log.Printf("window: %v", e)
		}
	}
}

// snapshot captures everything the paint goroutine needs and refreshes the
// input layout to match.
func (v *Viewer) snapshot(in *input, width, height int) paintState {
	frame := v.session.Render()
	in.layout = newLayout(width, height, frame.Bounds().Size(), v.session.Origin())
	st := paintState{
		layout: in.layout,
		theme:  v.theme,
		frame:  frame,
		tool:   v.session.Tool(),
		style:  v.session.Style(),
		status: in.status,
	}
	if in.pressed {
		if op, ok := v.session.Preview(in.last); ok {
			st.preview = op
		}
	}
	if i := v.session.Selected(); i >= 0 {
		r := v.session.Operations()[i].Bounds()
		st.selected = &r
	}
	if in.text.active {
		entry := in.text
		entry.buf = append([]rune(nil), entry.buf...)
		st.text = &entry
		r := in.renderer
		r.Colour = v.session.Style().Stroke
		if img, err := r.Render(entry.String() + "|"); err == nil {
			st.textImg = img
		}
	}
	return st
}

func (v *Viewer) save() string {
	if v.output == "" {
		return "no output file set"
	}
	if err := export.Write(v.output, v.session.Flatten(), v.exportOp...); err != nil {
		log.Printf("save: %v", err)
		return fmt.Sprintf("save failed: %v", err)
	}
	v.notifier.Save(v.output)
	return "saved " + v.output
}

func (v *Viewer) copy() string {
	if err := clipboard.WriteImage(v.session.Flatten()); err != nil {
		log.Printf("copy: %v", err)
		return fmt.Sprintf("copy failed: %v", err)
	}
	v.notifier.Copy("image")
	return "image copied to clipboard"
}

func (v *Viewer) saveArchive() string {
	if v.archive == nil {
		return "no archive directory set"
	}
	e, err := v.archive.Save(v.session)
	if err != nil {
		log.Printf("archive: %v", err)
		return fmt.Sprintf("archive failed: %v", err)
	}
	v.notifier.Archive(e.ID.String())
	return "archived " + e.Document
}
