// Package resize implements pointer-driven resizing of the render
// surface. A drag moves the bottom-right handle; the delta from the
// press point is added to the size at press time and clamped to the
// configured bounds.
package resize

import "sync"

const (
	DefaultMinWidth  = 320
	DefaultMinHeight = 180
	DefaultMaxWidth  = 3840
	DefaultMaxHeight = 2160
)

type Option struct {
	// MinWidth/MinHeight bound the smallest committable surface.
	//
	// default: 320 x 180
	MinWidth  int
	MinHeight int

	// MaxWidth/MaxHeight bound the largest committable surface.
	//
	// default: 3840 x 2160
	MaxWidth  int
	MaxHeight int

	// OnPreview is invoked on every pointer move during a drag with
	// the clamped candidate size. optional.
	OnPreview func(width, height int)

	// OnCommit is invoked once when a drag ends with a size different
	// from the one it started at. optional.
	OnCommit func(width, height int)
}

func (opt *Option) init() {
	if opt.MinWidth <= 0 {
		opt.MinWidth = DefaultMinWidth
	}

	if opt.MinHeight <= 0 {
		opt.MinHeight = DefaultMinHeight
	}

	if opt.MaxWidth <= 0 {
		opt.MaxWidth = DefaultMaxWidth
	}

	if opt.MaxHeight <= 0 {
		opt.MaxHeight = DefaultMaxHeight
	}
}

// Controller tracks one drag gesture at a time.
type Controller struct {
	opt Option

	mu       sync.Mutex
	dragging bool
	startX   int
	startY   int
	baseW    int
	baseH    int
	width    int
	height   int
}

// New creates a Controller with the given starting surface size.
func New(width, height int, option ...Option) *Controller {
	opt := Option{}
	if len(option) != 0 {
		opt = option[0]
	}

	opt.init()

	c := &Controller{opt: opt}
	c.width, c.height = c.clamp(width, height)

	return c
}

// PointerDown begins a drag anchored at the given pointer position.
func (c *Controller) PointerDown(x, y int) {
	if c == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.dragging = true
	c.startX, c.startY = x, y
	c.baseW, c.baseH = c.width, c.height
}

// PointerMove updates the candidate size from the pointer delta. It is
// a no-op when no drag is active.
func (c *Controller) PointerMove(x, y int) {
	if c == nil {
		return
	}

	c.mu.Lock()
	if !c.dragging {
		c.mu.Unlock()
		return
	}

	c.width, c.height = c.clamp(c.baseW+(x-c.startX), c.baseH+(y-c.startY))
	w, h := c.width, c.height
	preview := c.opt.OnPreview
	c.mu.Unlock()

	if preview != nil {
		preview(w, h)
	}
}

// PointerUp ends the drag and commits the final size if it changed.
func (c *Controller) PointerUp(x, y int) {
	if c == nil {
		return
	}

	c.mu.Lock()
	if !c.dragging {
		c.mu.Unlock()
		return
	}

	c.dragging = false
	c.width, c.height = c.clamp(c.baseW+(x-c.startX), c.baseH+(y-c.startY))
	changed := c.width != c.baseW || c.height != c.baseH
	w, h := c.width, c.height
	commit := c.opt.OnCommit
	c.mu.Unlock()

	if changed && commit != nil {
		commit(w, h)
	}
}

// Dragging reports whether a drag gesture is in progress.
func (c *Controller) Dragging() bool {
	if c == nil {
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	return c.dragging
}

// Size returns the current (possibly mid-drag) surface size.
func (c *Controller) Size() (int, int) {
	if c == nil {
		return 0, 0
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	return c.width, c.height
}

func (c *Controller) clamp(w, h int) (int, int) {
	return min(max(w, c.opt.MinWidth), c.opt.MaxWidth),
		min(max(h, c.opt.MinHeight), c.opt.MaxHeight)
}
