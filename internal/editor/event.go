package editor

import (
	"fmt"
	"image"

	"github.com/example/markshot/internal/geom"
	"github.com/example/markshot/internal/tool"
)

// EventKind enumerates the inputs a Session understands. Surfaces translate
// their own toolkit events into these.
type EventKind int

const (
	PointerDown EventKind = iota + 1
	PointerDrag
	PointerUp
	KeyPress
	SelectTool
	SetColour
	SetWidth
	TextCommitted
	Cancel
)

func (k EventKind) String() string {
	switch k {
	case PointerDown:
		return "pointer-down"
	case PointerDrag:
		return "pointer-drag"
	case PointerUp:
		return "pointer-up"
	case KeyPress:
		return "key"
	case SelectTool:
		return "select-tool"
	case SetColour:
		return "set-colour"
	case SetWidth:
		return "set-width"
	case TextCommitted:
		return "text"
	case Cancel:
		return "cancel"
	}
	return fmt.Sprintf("event(%d)", int(k))
}

// Key is a command key.
type Key int

const (
	KeyUndo Key = iota + 1
	KeyRedo
)

// ColourTarget selects which colour SetColour changes.
type ColourTarget int

const (
	TargetStroke ColourTarget = iota
	TargetFill
	TargetSecondary
)

// Event is one input. Only the fields relevant to Kind are read.
type Event struct {
	Kind   EventKind
	Point  geom.Point
	Key    Key
	Tool   tool.Tool
	Colour geom.Colour
	Target ColourTarget
	Width  float64

	// TextCommitted payload: a bitmap rendered from Markup, placed with its
	// top-left corner at Point.
	Markup string
	Bitmap image.Image
}

func Down(p geom.Point) Event { return Event{Kind: PointerDown, Point: p} }
func Drag(p geom.Point) Event { return Event{Kind: PointerDrag, Point: p} }
func Up(p geom.Point) Event   { return Event{Kind: PointerUp, Point: p} }
func Undo() Event             { return Event{Kind: KeyPress, Key: KeyUndo} }
func Redo() Event             { return Event{Kind: KeyPress, Key: KeyRedo} }

// UseTool selects t.
func UseTool(t tool.Tool) Event { return Event{Kind: SelectTool, Tool: t} }

// Colour sets the colour for target. A fill colour with zero alpha turns
// filling off.
func Colour(target ColourTarget, c geom.Colour) Event {
	return Event{Kind: SetColour, Target: target, Colour: c}
}

// Width sets the stroke width.
func Width(w float64) Event { return Event{Kind: SetWidth, Width: w} }

// Text commits pre-rendered text at anchor.
func Text(anchor geom.Point, markup string, bitmap image.Image) Event {
	return Event{Kind: TextCommitted, Point: anchor, Markup: markup, Bitmap: bitmap}
}

// Status reports the outcome of Handle. Changed means the composite must be
// redrawn.
type Status struct {
	Changed bool
	Message string
}
