package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/example/markshot/internal/codec"
	"github.com/example/markshot/internal/config"
	"github.com/example/markshot/internal/editor"
	"github.com/example/markshot/internal/effects"
	"github.com/example/markshot/internal/export"
	"github.com/example/markshot/internal/render"
	"github.com/example/markshot/internal/text"
)

func (r *root) name() string {
	if r == nil || r.program == "" {
		return "markshot"
	}
	return r.program
}

func (r *root) subProgram(cmd string) string {
	return r.name() + " " + cmd
}

// sessionOptions turns the [editor] section into session options.
func sessionOptions(cfg *config.Config) []editor.Option {
	e := cfg.Editor
	return []editor.Option{
		editor.WithStyle(e.Style()),
		editor.WithSecondary(e.Secondary),
		editor.WithController(e.Controller()),
		editor.WithTester(e.Tester()),
		editor.WithEngine(e.Engine()),
	}
}

// archiveDir is the archive_dir setting, or ~/.local/share/markshot/archive.
func archiveDir(cfg *config.Config) string {
	if cfg.Export.ArchiveDir != "" {
		return cfg.Export.ArchiveDir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".markshot", "archive")
	}
	return filepath.Join(home, ".local", "share", "markshot", "archive")
}

func textRenderer(cfg *config.Config) text.Renderer {
	return text.NewRenderer(text.WithSize(cfg.Editor.TextSize))
}

// startPool returns a running effect pool when the config asks for workers.
// The returned stop function is always safe to call.
func startPool(ctx context.Context, cfg *config.Config) (*effects.Pool, func()) {
	if cfg.Editor.Workers <= 0 {
		return nil, func() {}
	}
	p := effects.NewPool(cfg.Editor.Workers, effects.WithEngine(cfg.Editor.Engine()))
	ctx, cancel := context.WithCancel(ctx)
	p.Start(ctx)
	return p, func() {
		cancel()
		p.Close()
	}
}

// readDocument loads an operation document. A document with malformed
// operations is still returned; each skipped operation is printed as a
// warning.
func readDocument(path string) (codec.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return codec.Document{}, err
	}
	defer f.Close()
	doc, err := codec.Decode(f)
	var skipped *codec.SkippedError
	switch {
	case errors.As(err, &skipped):
		warnSkipped(path, skipped)
	case err != nil:
		return codec.Document{}, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

func warnSkipped(path string, skipped *codec.SkippedError) {
	for _, e := range skipped.Errs {
		fmt.Fprintf(os.Stderr, "warning: %s: %v\n", path, e)
	}
}

func writeDocument(path string, doc codec.Document) error {
	data, err := codec.Marshal(doc)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func exportOptions(cfg *config.Config, shadow bool) []export.Option {
	if shadow || cfg.Export.Shadow {
		return []export.Option{export.WithShadow(render.DefaultShadowOptions())}
	}
	return nil
}
