// Package effects implements the region effects that read back the running
// composite: pixelation and blur. Engines are pure: they take a snapshot and
// return a new image with the same bounds, never touching their input.
package effects

import (
	"fmt"
	"image"

	"github.com/anthonynsimon/bild/clone"

	"github.com/example/markshot/internal/ops"
)

// Defaults used when an engine is built without explicit settings.
const (
	DefaultBlurRadius    = 5
	DefaultBlurPasses    = 3
	DefaultPixelateBlock = 8
)

// Snapshot copies the part of buf covered by region. The copy keeps buf's
// coordinates. It returns nil when region does not overlap buf.
func Snapshot(buf *image.RGBA, region image.Rectangle) *image.RGBA {
	if buf == nil {
		return nil
	}
	clip := region.Intersect(buf.Bounds())
	if clip.Empty() {
		return nil
	}
	return clone.AsRGBA(buf.SubImage(clip))
}

// Engine runs effect operations.
type Engine struct {
	// BlurPasses is how many box passes approximate the Gaussian.
	BlurPasses int
}

// Option configures an Engine.
type Option func(*Engine)

// WithBlurPasses overrides the number of box blur passes.
func WithBlurPasses(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.BlurPasses = n
		}
	}
}

// NewEngine returns an engine with default settings.
func NewEngine(opts ...Option) Engine {
	e := Engine{BlurPasses: DefaultBlurPasses}
	for _, o := range opts {
		o(&e)
	}
	return e
}

// Apply runs op on snap. snap is typically the output of Snapshot for the
// op's region. The returned image has snap's bounds.
func (e Engine) Apply(op ops.Operation, snap *image.RGBA) (*image.RGBA, error) {
	if snap == nil {
		return nil, fmt.Errorf("apply %v: empty snapshot", op.Kind())
	}
	switch op := op.(type) {
	case ops.Blur:
		passes := e.BlurPasses
		if passes <= 0 {
			passes = DefaultBlurPasses
		}
		return Blur(snap, op.Region.Image(), op.Radius, passes), nil
	case ops.Pixelate:
		return Pixelate(snap, op.Region.Image(), op.Block), nil
	default:
		return nil, fmt.Errorf("apply: %v is not an effect", op.Kind())
	}
}
