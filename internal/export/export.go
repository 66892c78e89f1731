// Package export writes rendered frames to disk and reads base images back.
package export

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/anthonynsimon/bild/clone"
	"github.com/disintegration/imaging"
	"github.com/jung-kurt/gofpdf"

	"github.com/example/markshot/internal/render"
)

// ErrFormat is returned for an output extension markshot cannot write.
var ErrFormat = errors.New("unsupported image format")

// Formats lists the extensions Write understands.
var Formats = []string{"png", "jpg", "jpeg", "gif", "bmp", "tif", "tiff", "pdf"}

// Options controls how a frame is written.
type Options struct {
	// Shadow adds a drop shadow around the frame.
	Shadow        bool
	ShadowOptions render.ShadowOptions
	// JPEGQuality is used for jpg output.
	JPEGQuality int
}

// Option configures Options.
type Option func(*Options)

// WithShadow enables the drop shadow.
func WithShadow(opts render.ShadowOptions) Option {
	return func(o *Options) {
		o.Shadow = true
		o.ShadowOptions = opts
	}
}

// WithJPEGQuality sets the jpg quality, clamped to 1..100.
func WithJPEGQuality(q int) Option {
	return func(o *Options) { o.JPEGQuality = min(max(q, 1), 100) }
}

func defaultOptions() Options {
	return Options{ShadowOptions: render.DefaultShadowOptions(), JPEGQuality: 95}
}

// DefaultName returns the file name for a frame exported at now.
func DefaultName(now time.Time) string {
	return "screenshot_" + now.Format(time.RFC3339) + ".png"
}

// FormatOf returns the lower-case format of path's extension.
func FormatOf(path string) (string, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	for _, f := range Formats {
		if f == ext {
			return ext, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrFormat, filepath.Ext(path))
}

// Write encodes img to path in the format named by its extension.
func Write(path string, img image.Image, opts ...Option) error {
	format, err := FormatOf(path)
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := Encode(f, format, img, opts...); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}

// Encode writes img to w as format.
func Encode(w io.Writer, format string, img image.Image, opts ...Option) error {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if img == nil || img.Bounds().Empty() {
		return errors.New("export: empty image")
	}
	if o.Shadow {
		img = render.ApplyShadow(clone.AsRGBA(img), o.ShadowOptions).Image
	}
	if format == "pdf" {
		return encodePDF(w, img)
	}
	f, err := imaging.FormatFromExtension(format)
	if err != nil {
		return fmt.Errorf("%w: %q", ErrFormat, format)
	}
	var encOpts []imaging.EncodeOption
	if f == imaging.JPEG {
		encOpts = append(encOpts, imaging.JPEGQuality(o.JPEGQuality))
	}
	if err := imaging.Encode(w, img, f, encOpts...); err != nil {
		return fmt.Errorf("encode %s: %w", format, err)
	}
	return nil
}

// encodePDF writes a single page sized to the image at 72 dpi.
func encodePDF(w io.Writer, img image.Image) error {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return fmt.Errorf("encode pdf image: %w", err)
	}
	wd, ht := float64(img.Bounds().Dx()), float64(img.Bounds().Dy())
	pdf := gofpdf.New("P", "pt", "", "")
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPageFormat("P", gofpdf.SizeType{Wd: wd, Ht: ht})
	opt := gofpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("frame", opt, &buf)
	pdf.ImageOptions("frame", 0, 0, wd, ht, false, opt, 0, "")
	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("encode pdf: %w", err)
	}
	return nil
}

// Load decodes a raster image, honouring EXIF orientation.
func Load(path string) (*image.RGBA, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return clone.AsRGBA(img), nil
}

// Decode reads a raster image from r.
func Decode(r io.Reader) (*image.RGBA, error) {
	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return clone.AsRGBA(img), nil
}
