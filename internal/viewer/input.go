package viewer

import (
	"image"
	"strings"

	"golang.org/x/mobile/event/key"
	"golang.org/x/mobile/event/mouse"

	"github.com/example/markshot/internal/editor"
	"github.com/example/markshot/internal/geom"
	"github.com/example/markshot/internal/text"
	"github.com/example/markshot/internal/tool"
)

// command is a window-level action that is not an editor event.
type command int

const (
	cmdNone command = iota
	cmdSave
	cmdCopy
	cmdArchive
	cmdQuit
)

// textEntry is the in-progress text tool input.
type textEntry struct {
	active bool
	anchor geom.Point
	buf    []rune
}

func (t *textEntry) String() string { return string(t.buf) }

// input turns mouse and key events into editor events for one session. It
// runs on the UI goroutine only.
type input struct {
	session  *editor.Session
	renderer text.Renderer
	layout   layout

	pressed bool
	// last is the latest pointer position in image coordinates.
	last   geom.Point
	text   textEntry
	status string
	// run performs a command; it is set by the window.
	run func(command)
}

func (in *input) setStatus(st editor.Status) bool {
	if st.Message != "" {
		in.status = st.Message
	}
	return st.Changed || st.Message != ""
}

// mouse handles e and reports whether the window needs repainting.
func (in *input) mouse(e mouse.Event) bool {
	p := image.Pt(int(e.X), int(e.Y))
	pt := in.layout.toImage(float64(e.X), float64(e.Y))
	in.last = pt

	switch e.Direction {
	case mouse.DirPress:
		if e.Button != mouse.ButtonLeft && e.Button != mouse.ButtonRight {
			return false
		}
		if b, ok := in.layout.buttonAt(p); ok {
			return in.pressButton(b, e)
		}
		if e.Button != mouse.ButtonLeft || !in.layout.inCanvas(p) {
			return false
		}
		if in.session.Tool() == tool.Text {
			return in.startText(pt)
		}
		in.pressed = true
		return in.setStatus(in.session.Handle(editor.Down(pt)))
	case mouse.DirRelease:
		if !in.pressed || e.Button != mouse.ButtonLeft {
			return false
		}
		in.pressed = false
		in.setStatus(in.session.Handle(editor.Up(pt)))
		return true
	case mouse.DirNone:
		if !in.pressed {
			return false
		}
		in.session.Handle(editor.Drag(pt))
		return true
	}
	return false
}

func (in *input) pressButton(b button, e mouse.Event) bool {
	switch b.kind {
	case controlTool:
		in.commitText()
		return in.setStatus(in.session.Handle(editor.UseTool(tool.All()[b.index])))
	case controlColour:
		target := editor.TargetStroke
		switch {
		case e.Button == mouse.ButtonRight:
			target = editor.TargetFill
		case e.Modifiers&key.ModShift != 0:
			target = editor.TargetSecondary
		}
		return in.setStatus(in.session.Handle(editor.Colour(target, palette[b.index])))
	case controlWidth:
		return in.setStatus(in.session.Handle(editor.Width(widths[b.index])))
	}
	return false
}

// key handles e and reports whether the window needs repainting.
func (in *input) key(e key.Event) bool {
	if e.Direction == key.DirRelease {
		return false
	}
	ctrl := e.Modifiers&key.ModControl != 0
	shift := e.Modifiers&key.ModShift != 0

	if in.text.active && !ctrl {
		return in.typeText(e, shift)
	}
	if ctrl {
		switch {
		case e.Code == key.CodeZ && shift, e.Code == key.CodeY:
			in.cancelPointer()
			return in.setStatus(in.session.Handle(editor.Redo()))
		case e.Code == key.CodeZ:
			in.cancelPointer()
			return in.setStatus(in.session.Handle(editor.Undo()))
		case e.Code == key.CodeS && shift:
			in.do(cmdArchive)
		case e.Code == key.CodeS:
			in.do(cmdSave)
		case e.Code == key.CodeC:
			in.do(cmdCopy)
		case e.Code == key.CodeQ:
			in.do(cmdQuit)
		default:
			return false
		}
		return true
	}
	if e.Code == key.CodeEscape {
		in.cancelPointer()
		return in.setStatus(in.session.Handle(editor.Event{Kind: editor.Cancel}))
	}
	if e.Rune >= '1' && e.Rune <= '9' {
		if i := int(e.Rune - '1'); i < len(widths) {
			return in.setStatus(in.session.Handle(editor.Width(widths[i])))
		}
		return false
	}
	if t, ok := tool.ForKey(e.Rune); ok && !shift {
		in.cancelPointer()
		return in.setStatus(in.session.Handle(editor.UseTool(t)))
	}
	return false
}

func (in *input) cancelPointer() { in.pressed = false }

func (in *input) do(c command) {
	if in.run != nil {
		in.run(c)
	}
}

func (in *input) startText(at geom.Point) bool {
	in.commitText()
	in.text = textEntry{active: true, anchor: at}
	in.status = "typing: Enter to place, Shift+Enter for a new line, Esc to cancel"
	return true
}

func (in *input) typeText(e key.Event, shift bool) bool {
	switch e.Code {
	case key.CodeEscape:
		in.text = textEntry{}
		in.status = "text cancelled"
		return true
	case key.CodeReturnEnter:
		if shift {
			in.text.buf = append(in.text.buf, '\n')
			return true
		}
		in.commitText()
		return true
	case key.CodeDeleteBackspace:
		if n := len(in.text.buf); n > 0 {
			in.text.buf = in.text.buf[:n-1]
		}
		return true
	}
	if e.Rune >= ' ' {
		in.text.buf = append(in.text.buf, e.Rune)
		return true
	}
	return false
}

// commitText rasterises pending text into a Text operation.
func (in *input) commitText() {
	if !in.text.active {
		return
	}
	entry := in.text
	in.text = textEntry{}
	markup := strings.TrimRight(entry.String(), "\n")
	if strings.TrimSpace(markup) == "" {
		return
	}
	r := in.renderer
	r.Colour = in.session.Style().Stroke
	bm, err := r.Render(markup)
	if err != nil {
		in.status = "text: " + err.Error()
		return
	}
	if bm == nil {
		return
	}
	in.setStatus(in.session.Handle(editor.Text(entry.anchor, markup, bm)))
}
