package render

import (
	"image"

	"github.com/anthonynsimon/bild/clone"

	"github.com/example/markshot/internal/effects"
	"github.com/example/markshot/internal/history"
	"github.com/example/markshot/internal/ops"
)

// DefaultCheckpoints is how many intermediate composites a Cache keeps.
const DefaultCheckpoints = 8

// Cache remembers composites of list prefixes so undo, redo and appends
// only redraw the operations past the nearest checkpoint. Checkpoints are
// valid for a single list version and are dropped when it changes.
type Cache struct {
	comp  Compositor
	base  *image.RGBA
	limit int

	version     uint64
	checkpoints map[int]*image.RGBA
}

// CacheOption configures a Cache.
type CacheOption func(*Cache)

// WithCheckpoints limits how many prefixes are kept. Zero disables caching.
func WithCheckpoints(n int) CacheOption {
	return func(c *Cache) {
		if n >= 0 {
			c.limit = n
		}
	}
}

// NewCache returns a cache rendering over base with comp.
func NewCache(comp Compositor, base *image.RGBA, opts ...CacheOption) *Cache {
	c := &Cache{
		comp:        comp,
		base:        base,
		limit:       DefaultCheckpoints,
		checkpoints: map[int]*image.RGBA{},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Render returns the framed composite of the list's active prefix. The
// result equals Compositor.Render over the same operations.
func (c *Cache) Render(list *history.List, fx Effects) *image.RGBA {
	active := list.Active()
	return Frame(c.prefix(list.Version(), active, fx), active)
}

// Snapshot returns a copy of region from the unframed composite of the first
// n active operations. It is what an effect at index n reads.
func (c *Cache) Snapshot(list *history.List, n int, region image.Rectangle, fx Effects) *image.RGBA {
	active := list.Active()
	if n > len(active) {
		n = len(active)
	}
	return effects.Snapshot(c.prefix(list.Version(), active[:n], fx), region)
}

// Preview renders like Render while some effects are still being computed
// elsewhere. held supplies stand-ins for those indices, usually the
// unmodified region. Composites past the first stand-in are not cached, so a
// later Render with the real results never sees them.
func (c *Cache) Preview(list *history.List, fx, held Effects) *image.RGBA {
	active := list.Active()
	return Frame(c.composite(list.Version(), active, fx, held), active)
}

// PreviewSnapshot is Snapshot over the same composite Preview draws.
func (c *Cache) PreviewSnapshot(list *history.List, n int, region image.Rectangle, fx, held Effects) *image.RGBA {
	active := list.Active()
	if n > len(active) {
		n = len(active)
	}
	return effects.Snapshot(c.composite(list.Version(), active[:n], fx, held), region)
}

// composite returns the composite of active with held standing in for
// missing results. The image is shared with the cache when no stand-in was
// needed and must not be modified.
func (c *Cache) composite(version uint64, active []ops.Operation, fx, held Effects) *image.RGBA {
	first := len(active)
	for i := range held {
		if i >= 0 && i < first {
			if _, done := fx[i]; !done {
				first = i
			}
		}
	}
	if first == len(active) {
		return c.prefix(version, active, fx)
	}
	merged := make(Effects, len(fx)+len(held))
	for i, img := range held {
		merged[i] = img
	}
	for i, img := range fx {
		merged[i] = img
	}
	buf := clone.AsRGBA(c.prefix(version, active[:first], fx))
	c.comp.Apply(buf, active, first, merged)
	return buf
}

// Reset drops every checkpoint.
func (c *Cache) Reset() {
	c.checkpoints = map[int]*image.RGBA{}
}

// prefix returns the composite of active. The returned image is owned by the
// cache and must not be modified.
func (c *Cache) prefix(version uint64, active []ops.Operation, fx Effects) *image.RGBA {
	if version != c.version {
		c.version = version
		c.Reset()
	}
	k := len(active)
	if img, ok := c.checkpoints[k]; ok {
		return img
	}
	start, from := 0, c.base
	for j, img := range c.checkpoints {
		if j < k && j > start {
			start, from = j, img
		}
	}
	buf := clone.AsRGBA(from)
	c.comp.Apply(buf, active, start, fx)
	c.store(k, buf)
	return buf
}

func (c *Cache) store(k int, img *image.RGBA) {
	if c.limit == 0 {
		return
	}
	c.checkpoints[k] = img
	for len(c.checkpoints) > c.limit {
		lowest := -1
		for j := range c.checkpoints {
			if j != k && (lowest < 0 || j < lowest) {
				lowest = j
			}
		}
		if lowest < 0 {
			return
		}
		delete(c.checkpoints, lowest)
	}
}
