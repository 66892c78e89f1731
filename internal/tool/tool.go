// Package tool turns completed pointer gestures into operations.
package tool

import (
	"fmt"
	"strings"
)

// Tool is the active drawing tool.
type Tool int

const (
	Select Tool = iota
	Line
	Arrow
	Rectangle
	Ellipse
	Freehand
	Highlight
	Pixelate
	Blur
	Text
	Bubble
	Crop
)

type toolInfo struct {
	name string
	key  rune
}

var tools = [...]toolInfo{
	Select:    {"select", 's'},
	Line:      {"line", 'l'},
	Arrow:     {"arrow", 'a'},
	Rectangle: {"rectangle", 'r'},
	Ellipse:   {"ellipse", 'e'},
	Freehand:  {"freehand", 'p'},
	Highlight: {"highlight", 'h'},
	Pixelate:  {"pixelate", 'x'},
	Blur:      {"blur", 'b'},
	Text:      {"text", 't'},
	Bubble:    {"bubble", 'i'},
	Crop:      {"crop", 'c'},
}

// All returns every tool in toolbar order.
func All() []Tool {
	out := make([]Tool, len(tools))
	for i := range tools {
		out[i] = Tool(i)
	}
	return out
}

func (t Tool) String() string {
	if t >= 0 && int(t) < len(tools) {
		return tools[t].name
	}
	return fmt.Sprintf("tool(%d)", int(t))
}

// Key is the keyboard letter that selects t.
func (t Tool) Key() rune {
	if t >= 0 && int(t) < len(tools) {
		return tools[t].key
	}
	return 0
}

// ForKey returns the tool bound to r.
func ForKey(r rune) (Tool, bool) {
	for i, info := range tools {
		if info.key == r {
			return Tool(i), true
		}
	}
	return Select, false
}

// Parse accepts a tool name or its key letter.
func Parse(s string) (Tool, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, info := range tools {
		if info.name == s {
			return Tool(i), nil
		}
	}
	if r := []rune(s); len(r) == 1 {
		if t, ok := ForKey(r[0]); ok {
			return t, nil
		}
	}
	return Select, fmt.Errorf("unknown tool %q", s)
}

// Drags reports whether t is driven by a press-drag-release gesture.
func (t Tool) Drags() bool {
	switch t {
	case Select, Text:
		return false
	}
	return true
}
