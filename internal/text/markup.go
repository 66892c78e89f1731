// Package text renders the markdown-light markup typed into the text tool
// into a bitmap the editor can place as a Text operation.
package text

import (
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/ast"
	"github.com/gomarkdown/markdown/parser"
)

// Run is a span of text drawn in one face.
type Run struct {
	Text   string
	Bold   bool
	Italic bool
	Code   bool
}

// Line is one row of runs.
type Line []Run

// Parse splits markup into lines of styled runs. It understands **bold**,
// *italic*, `code`, headings (bold), list items (bulleted), fenced code
// blocks and line breaks. Everything else is kept as plain text.
func Parse(markup string) []Line {
	if strings.TrimSpace(markup) == "" {
		return nil
	}
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.HardLineBreak)
	doc := markdown.Parse([]byte(markup), p)

	b := &lineBuilder{}
	var bold, italic int
	ast.WalkFunc(doc, func(node ast.Node, entering bool) ast.WalkStatus {
		switch n := node.(type) {
		case *ast.Strong:
			bold += delta(entering)
		case *ast.Emph:
			italic += delta(entering)
		case *ast.Heading:
			bold += delta(entering)
			if !entering {
				b.breakLine()
			}
		case *ast.Paragraph:
			if !entering {
				b.breakLine()
			}
		case *ast.ListItem:
			if entering {
				b.add(Run{Text: "• "})
			}
		case *ast.Hardbreak, *ast.Softbreak:
			b.breakLine()
		case *ast.Code:
			b.add(Run{Text: string(n.Literal), Code: true})
		case *ast.CodeBlock:
			for _, l := range strings.Split(strings.TrimRight(string(n.Literal), "\n"), "\n") {
				b.add(Run{Text: l, Code: true})
				b.breakLine()
			}
		case *ast.Text:
			parts := strings.Split(string(n.Literal), "\n")
			for i, part := range parts {
				if i > 0 {
					b.breakLine()
				}
				b.add(Run{Text: part, Bold: bold > 0, Italic: italic > 0})
			}
		}
		return ast.GoToNext
	})
	return b.finish()
}

func delta(entering bool) int {
	if entering {
		return 1
	}
	return -1
}

type lineBuilder struct {
	lines []Line
	cur   Line
	open  bool
}

func (b *lineBuilder) add(r Run) {
	b.open = true
	if r.Text == "" {
		return
	}
	if n := len(b.cur); n > 0 {
		last := &b.cur[n-1]
		if last.Bold == r.Bold && last.Italic == r.Italic && last.Code == r.Code {
			last.Text += r.Text
			return
		}
	}
	b.cur = append(b.cur, r)
}

func (b *lineBuilder) breakLine() {
	if !b.open {
		return
	}
	b.lines = append(b.lines, b.cur)
	b.cur = nil
	b.open = false
}

func (b *lineBuilder) finish() []Line {
	b.breakLine()
	for len(b.lines) > 0 && len(b.lines[len(b.lines)-1]) == 0 {
		b.lines = b.lines[:len(b.lines)-1]
	}
	return b.lines
}

// Plain joins the runs of every line, dropping formatting.
func Plain(lines []Line) string {
	var sb strings.Builder
	for i, l := range lines {
		if i > 0 {
			sb.WriteByte('\n')
		}
		for _, r := range l {
			sb.WriteString(r.Text)
		}
	}
	return sb.String()
}
