package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/example/markshot/internal/editor"
	"github.com/example/markshot/internal/export"
)

// applyCmd replays a document over an image without a window.
type applyCmd struct {
	file        string
	ops         string
	output      string
	shadow      bool
	toClipboard bool
	*root
	fs *flag.FlagSet
}

func (a *applyCmd) FlagSet() *flag.FlagSet {
	return a.fs
}

func (a *applyCmd) Program() string {
	return a.root.subProgram("apply")
}

func parseApplyCmd(args []string, r *root) (*applyCmd, error) {
	fs := flag.NewFlagSet("apply", flag.ExitOnError)
	a := &applyCmd{root: r, fs: fs}
	fs.Usage = usageFunc(a)
	fs.StringVar(&a.file, "file", "", "base image")
	fs.StringVar(&a.ops, "ops", "", "operation document to replay")
	fs.StringVar(&a.output, "output", "", "output image; the extension picks the format")
	fs.BoolVar(&a.shadow, "shadow", false, "add a drop shadow")
	fs.BoolVar(&a.toClipboard, "to-clipboard", false, "also copy the result to the clipboard")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if a.file == "" || a.ops == "" || a.output == "" {
		return nil, &UsageError{of: a}
	}
	if _, err := export.FormatOf(a.output); err != nil {
		return nil, err
	}
	return a, nil
}

func (a *applyCmd) Run() error {
	cfg := a.settings()
	base, err := export.Load(a.file)
	if err != nil {
		return fmt.Errorf("apply: %w", err)
	}
	doc, err := readDocument(a.ops)
	if err != nil {
		return fmt.Errorf("apply: %w", err)
	}
	s, err := editor.Open(base, doc, sessionOptions(cfg)...)
	if err != nil {
		return fmt.Errorf("apply: %w", err)
	}
	frame := s.Render()
	if err := export.Write(a.output, frame, exportOptions(cfg, a.shadow)...); err != nil {
		return fmt.Errorf("apply: %w", err)
	}
	fmt.Fprintf(os.Stderr, "applied %d operation(s), saved %s\n", len(s.Operations()), a.output)
	a.notifySave(a.output)
	if a.toClipboard {
		if err := writeClipboard(frame); err != nil {
			return fmt.Errorf("copy result to clipboard: %w", err)
		}
		a.notifyCopy(a.output)
	}
	return nil
}
