package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/example/markshot/internal/export"
)

const applyDoc = `{
  "format": 1,
  "cursor": 2,
  "operations": [
    {"type": "rectangle", "rect": {"x": 0, "y": 0, "w": 20, "h": 20},
     "stroke": [0, 0, 0, 255], "fill": [255, 0, 0, 255], "width": 2},
    {"type": "sparkle"}
  ]
}`

func TestApplyReplaysDocument(t *testing.T) {
	base := writeBase(t, 40, 40)
	dir := filepath.Dir(base)
	docPath := filepath.Join(dir, "doc.json")
	if err := os.WriteFile(docPath, []byte(applyDoc), 0o644); err != nil {
		t.Fatalf("write doc: %v", err)
	}
	out := filepath.Join(dir, "out.png")
	cmd, err := parseApplyCmd([]string{"-file", base, "-ops", docPath, "-output", out}, &root{})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if err := cmd.Run(); err != nil {
		t.Fatalf("apply with a skipped op should succeed, got %v", err)
	}
	img, err := export.Load(out)
	if err != nil {
		t.Fatalf("load output: %v", err)
	}
	if c := img.RGBAAt(10, 10); c.R != 255 || c.G != 0 || c.B != 0 {
		t.Fatalf("fill not applied, got %v", c)
	}
	if c := img.RGBAAt(30, 30); c.R != 255 || c.G != 255 {
		t.Fatalf("outside the rectangle changed: %v", c)
	}
}

func TestApplyMissingBaseIsFatal(t *testing.T) {
	dir := t.TempDir()
	docPath := filepath.Join(dir, "doc.json")
	if err := os.WriteFile(docPath, []byte(applyDoc), 0o644); err != nil {
		t.Fatalf("write doc: %v", err)
	}
	cmd := &applyCmd{file: filepath.Join(dir, "nope.png"), ops: docPath, output: filepath.Join(dir, "out.png")}
	if err := cmd.Run(); err == nil {
		t.Fatalf("expected error for a missing base image")
	}
	if _, err := os.Stat(filepath.Join(dir, "out.png")); !os.IsNotExist(err) {
		t.Fatalf("output written without a base image")
	}
}

func TestApplyBrokenDocument(t *testing.T) {
	base := writeBase(t, 10, 10)
	docPath := filepath.Join(filepath.Dir(base), "doc.json")
	if err := os.WriteFile(docPath, []byte("not json"), 0o644); err != nil {
		t.Fatalf("write doc: %v", err)
	}
	cmd := &applyCmd{file: base, ops: docPath, output: filepath.Join(filepath.Dir(base), "out.png")}
	if err := cmd.Run(); err == nil {
		t.Fatalf("expected error for a document that is not JSON")
	}
}
