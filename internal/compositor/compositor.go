package compositor

import (
	"bytes"
	"image"
	"image/color"
	"sync"

	"github.com/disintegration/imaging"
	"github.com/yanun0323/errors"
	"github.com/yanun0323/logs"
	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"

	"main/internal/model"
	"main/internal/model/enum"
	"main/internal/obs"
	"main/internal/transform"
	"main/internal/wire"
	"main/pkg/exception"
)

type Option struct {
	// Width is the initial surface width in pixels.
	//
	// default: 1280
	Width int

	// Height is the initial surface height in pixels.
	//
	// default: 720
	Height int

	// Mode selects the overlay palette.
	//
	// default: enum.ModeCattle
	Mode enum.Mode

	// Params is the initial view transform.
	//
	// default: transform.Identity()
	Params transform.Params

	// Metrics receives render counters. optional.
	Metrics *obs.Metrics

	// OnRender is invoked after each completed render pass with the
	// surface. It runs on the caller's goroutine and must not call
	// back into the Compositor. optional.
	OnRender func(img *image.NRGBA)
}

func (opt *Option) init() {
	if opt.Width <= 0 {
		opt.Width = 1280
	}

	if opt.Height <= 0 {
		opt.Height = 720
	}

	if !opt.Mode.IsAvailable() {
		opt.Mode = enum.ModeCattle
	}

	opt.Params = opt.Params.Normalize()
}

// Compositor owns the render surface and composites the two stream
// caches onto it. Frame and detection updates land in independent
// latest-value cells so neither stream ever waits on the other; only
// the render pass itself is serialized.
type Compositor struct {
	opt Option

	frames     LatestCell[*image.NRGBA]
	detections LatestCell[model.DetectionSet]

	mu      sync.Mutex
	surface *image.NRGBA
	params  transform.Params
	mode    enum.Mode
}

func New(option ...Option) *Compositor {
	opt := Option{}
	if len(option) != 0 {
		opt = option[0]
	}

	opt.init()

	return &Compositor{
		opt:     opt,
		surface: image.NewNRGBA(image.Rect(0, 0, opt.Width, opt.Height)),
		params:  opt.Params,
		mode:    opt.Mode,
	}
}

// OnFrame decodes one video frame and runs a render pass. A frame that
// fails to decode is dropped and the surface keeps its previous
// content.
func (c *Compositor) OnFrame(frame model.Frame) error {
	if c == nil {
		return nil
	}

	img, err := imaging.Decode(bytes.NewReader(frame.Payload))
	if err != nil {
		c.count(func(m *obs.Metrics) { m.FramesDropped.Add(1) })
		return errors.Wrap(exception.ErrImageDecode, err.Error())
	}

	bounds := img.Bounds()
	if !wire.ValidImageDims(bounds.Dx(), bounds.Dy()) {
		c.count(func(m *obs.Metrics) { m.FramesDropped.Add(1) })
		return errors.Wrap(exception.ErrBadDimensions, "frame rejected").
			With("width", bounds.Dx()).
			With("height", bounds.Dy())
	}

	c.frames.Store(imaging.Clone(img))
	c.count(func(m *obs.Metrics) { m.FramesDecoded.Add(1) })

	c.Render()

	return nil
}

// OnDetections replaces the cached detection set wholesale. The new
// set becomes visible at the next render pass.
func (c *Compositor) OnDetections(set model.DetectionSet) {
	if c == nil {
		return
	}

	c.detections.Store(set)
}

// SetParams updates the view transform and re-renders from the cached
// frame.
func (c *Compositor) SetParams(p transform.Params) {
	if c == nil {
		return
	}

	c.mu.Lock()
	c.params = p.Normalize()
	c.mu.Unlock()

	c.Render()
}

// Params returns the current view transform.
func (c *Compositor) Params() transform.Params {
	if c == nil {
		return transform.Identity()
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	return c.params
}

// SetMode switches the overlay palette and re-renders.
func (c *Compositor) SetMode(mode enum.Mode) {
	if c == nil || !mode.IsAvailable() {
		return
	}

	c.mu.Lock()
	c.mode = mode
	c.mu.Unlock()

	c.Render()
}

// Resize replaces the surface with one of the given size and
// re-renders the cached content onto it.
func (c *Compositor) Resize(width, height int) error {
	if c == nil {
		return nil
	}

	if width <= 0 || height <= 0 || !wire.ValidImageDims(width, height) {
		return errors.Wrap(exception.ErrBadDimensions, "surface resize rejected").
			With("width", width).
			With("height", height)
	}

	c.mu.Lock()
	c.surface = image.NewNRGBA(image.Rect(0, 0, width, height))
	c.mu.Unlock()

	c.Render()

	return nil
}

// Size returns the current surface dimensions.
func (c *Compositor) Size() (int, int) {
	if c == nil {
		return 0, 0
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	b := c.surface.Bounds()

	return b.Dx(), b.Dy()
}

// Render runs one full render pass: clear, draw the cached frame
// through the view transform, apply the color pipeline, then draw the
// cached detection overlays. It is a no-op until a frame has arrived.
func (c *Compositor) Render() {
	if c == nil {
		return
	}

	frame, ok := c.frames.Load()
	if !ok {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.clearLocked()
	c.drawFrameLocked(frame)

	if !c.params.IdentityColor() {
		c.params.ApplyColor(c.surface)
	}

	if set, ok := c.detections.Load(); ok {
		drawDetections(c.surface, set, c.mode)
	}

	c.count(func(m *obs.Metrics) { m.RendersCompleted.Add(1) })

	if c.opt.OnRender != nil {
		c.opt.OnRender(c.surface)
	}
}

// Snapshot returns a deep copy of the current surface.
func (c *Compositor) Snapshot() *image.NRGBA {
	if c == nil {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	dup := image.NewNRGBA(c.surface.Bounds())
	copy(dup.Pix, c.surface.Pix)

	return dup
}

// Reset drops the cached frame and detections so their buffers can be
// collected, and blanks the surface.
func (c *Compositor) Reset() {
	if c == nil {
		return
	}

	c.frames.Clear()
	c.detections.Clear()

	c.mu.Lock()
	defer c.mu.Unlock()

	c.clearLocked()
}

func (c *Compositor) clearLocked() {
	draw.Draw(c.surface, c.surface.Bounds(), image.NewUniform(color.NRGBA{A: 0xff}), image.Point{}, draw.Src)
}

func (c *Compositor) drawFrameLocked(frame *image.NRGBA) {
	sb := c.surface.Bounds()
	fb := frame.Bounds()
	if fb.Dx() == 0 || fb.Dy() == 0 {
		logs.Warn("skip render of empty frame")
		return
	}

	// Fit the frame inside the surface, then apply zoom on top.
	fit := min(float64(sb.Dx())/float64(fb.Dx()), float64(sb.Dy())/float64(fb.Dy()))
	scale := fit * transform.ClampZoom(c.params.Zoom)

	drawW := float64(fb.Dx()) * scale
	drawH := float64(fb.Dy()) * scale
	offsetX := (float64(sb.Dx()) - drawW) / 2
	offsetY := (float64(sb.Dy()) - drawH) / 2

	placement := f64.Aff3{
		scale, 0, offsetX,
		0, scale, offsetY,
	}

	m := placement
	if !c.params.IsIdentityAffine() {
		view := c.params.Affine(float64(sb.Dx())/2, float64(sb.Dy())/2)
		m = mulAff(view, placement)
	}

	draw.ApproxBiLinear.Transform(c.surface, m, frame, fb, draw.Over, nil)
}

func (c *Compositor) count(fn func(m *obs.Metrics)) {
	if c.opt.Metrics != nil {
		fn(c.opt.Metrics)
	}
}

func mulAff(a, b f64.Aff3) f64.Aff3 {
	return f64.Aff3{
		a[0]*b[0] + a[1]*b[3], a[0]*b[1] + a[1]*b[4], a[0]*b[2] + a[1]*b[5] + a[2],
		a[3]*b[0] + a[4]*b[3], a[3]*b[1] + a[4]*b[4], a[3]*b[2] + a[4]*b[5] + a[5],
	}
}
