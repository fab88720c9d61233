package ggline

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/gogpu/ggline/render"
)

// contexts tracks open contexts so that SetLogger reaches their devices.
var (
	contextsMu sync.RWMutex
	contexts   = make(map[uint64]*Context)

	nextContextID atomic.Uint64
)

// Context is the explicit rendering context passed to every Engine call.
// It pairs a device with the view used for model-space primitives.
//
// Primitives drawn through one context must not be drawn through another
// until they are released from the Engine. Context is not safe for
// concurrent use.
type Context struct {
	id     uint64
	dev    render.Device
	view   View
	clear  RGBA
	closed bool
}

// NewContext creates a context drawing to dev. Without WithView the view
// is WindowView of the device size.
func NewContext(dev render.Device, opts ...ContextOption) *Context {
	o := defaultContextOptions()
	for _, opt := range opts {
		opt(&o)
	}

	c := &Context{
		id:    nextContextID.Add(1),
		dev:   dev,
		clear: o.clearColor,
	}
	if dev != nil {
		w, h := dev.Size()
		c.view = WindowView(w, h)

		contextsMu.Lock()
		contexts[c.id] = c
		contextsMu.Unlock()
		propagateLogger(dev, Logger())
	}
	if o.view != nil {
		c.view = *o.view
	}

	Logger().Debug("ggline: context created", "id", c.id, "viewport", c.view.Viewport)
	return c
}

// ID returns the context's unique identifier.
func (c *Context) ID() uint64 { return c.id }

// Device returns the device the context draws to.
func (c *Context) Device() render.Device { return c.dev }

// View returns the current view.
func (c *Context) View() View { return c.view }

// SetView replaces the view used for model-space primitives.
// Line and point primitives are re-tessellated on their next draw.
func (c *Context) SetView(v View) { c.view = v }

// SetClearColor sets the color used by Clear.
func (c *Context) SetClearColor(col RGBA) { c.clear = col }

// Size returns the device framebuffer size.
func (c *Context) Size() (width, height int) {
	if c == nil || c.dev == nil {
		return 0, 0
	}
	return c.dev.Size()
}

// Clear fills the framebuffer with the clear color and resets depth.
func (c *Context) Clear() error {
	if err := c.check(); err != nil {
		return err
	}
	return c.dev.Clear(c.clear.float64s())
}

// Close detaches the context from logger propagation. Further draws
// through it fail with ErrContextClosed. Close does not close the device.
func (c *Context) Close() {
	if c == nil || c.closed {
		return
	}
	c.closed = true
	contextsMu.Lock()
	delete(contexts, c.id)
	contextsMu.Unlock()
}

// check validates the handle at the API boundary.
func (c *Context) check() error {
	switch {
	case c == nil || c.dev == nil:
		return ErrNilContext
	case c.closed:
		return ErrContextClosed
	case !c.view.valid():
		return fmt.Errorf("%w: empty viewport %v", ErrNoViewport, c.view.Viewport)
	}
	return nil
}
