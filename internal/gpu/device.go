//go:build !nogpu

package gpu

import (
	"errors"
	"fmt"
	"image"
	"log/slog"
	"sync"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/ggline/render"
)

// Device errors.
var (
	// ErrNoDevice is returned when a Device is created without a HAL device
	// or queue.
	ErrNoDevice = errors.New("gpu: nil hal device or queue")

	// ErrClosed is returned for operations on a closed Device.
	ErrClosed = errors.New("gpu: device closed")
)

// halBuffer is a vertex buffer in device memory.
type halBuffer struct {
	buf      hal.Buffer
	kind     render.BufferKind
	format   gputypes.VertexFormat
	size     int    // bytes of valid data
	capacity uint64 // bytes allocated
}

// halTexture is a sampled texture with its bind group.
type halTexture struct {
	tex   hal.Texture
	view  hal.TextureView
	group hal.BindGroup
}

// Device is a render.Device that rasterizes on a GPU through wgpu/hal.
//
// The framebuffer consists of an RGBA8 color target, an R32Float target
// that records the window depth of the last fragment written, and a
// Depth24PlusStencil8 attachment used for the depth test. The R32Float
// target exists because depth attachments cannot be copied to buffers on
// all backends.
//
// Every Clear and Draw is submitted and waited for before returning, so
// ReadPixel always observes completed work. Device is safe for concurrent
// use; calls are serialized.
//
// The HAL device and queue are borrowed: Close releases the resources the
// Device created but never the device itself.
type Device struct {
	mu sync.Mutex

	device hal.Device
	queue  hal.Queue

	width, height int
	fb            *framebuffer
	pipes         *pipelineSet

	buffers  map[render.BufferID]*halBuffer
	textures map[render.TextureID]*halTexture
	nextID   uint64

	closed bool
}

// NewDevice creates a Device drawing into a width x height offscreen
// framebuffer on the given HAL device. The framebuffer starts cleared to
// transparent black.
func NewDevice(device hal.Device, queue hal.Queue, width, height int) (*Device, error) {
	if device == nil || queue == nil {
		return nil, ErrNoDevice
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("gpu: invalid framebuffer size %dx%d", width, height)
	}

	d := &Device{
		device:   device,
		queue:    queue,
		width:    width,
		height:   height,
		pipes:    newPipelineSet(device),
		buffers:  make(map[render.BufferID]*halBuffer),
		textures: make(map[render.TextureID]*halTexture),
	}
	fb, err := newFramebuffer(device, uint32(width), uint32(height))
	if err != nil {
		return nil, err
	}
	d.fb = fb
	if err := d.pipes.init(); err != nil {
		d.fb.destroy(device)
		return nil, err
	}
	if err := d.clear([4]float64{}); err != nil {
		d.pipes.destroy()
		d.fb.destroy(device)
		return nil, err
	}

	slogger().Debug("gpu: device created", "width", width, "height", height)
	return d, nil
}

// SetLogger sets the logger for GPU diagnostics. Nil disables logging.
func (d *Device) SetLogger(l *slog.Logger) {
	setLogger(l)
}

// Size returns the framebuffer size.
func (d *Device) Size() (width, height int) {
	return d.width, d.height
}

// Close releases all buffers, textures, pipelines and framebuffer targets.
// The HAL device and queue remain usable by their owner.
func (d *Device) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	d.closed = true

	_ = d.device.WaitIdle()
	for id := range d.buffers {
		d.destroyBuffer(id)
	}
	for id := range d.textures {
		d.destroyTexture(id)
	}
	d.pipes.destroy()
	d.fb.destroy(d.device)
	slogger().Debug("gpu: device closed")
}

func (d *Device) allocID() uint64 {
	d.nextID++
	return d.nextID
}

// CreateBuffer allocates a vertex buffer and uploads desc.Data.
func (d *Device) CreateBuffer(desc *render.BufferDescriptor) (render.BufferID, error) {
	if desc == nil || len(desc.Data) == 0 {
		return render.InvalidID, render.ErrEmptyBuffer
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return render.InvalidID, ErrClosed
	}

	b := &halBuffer{kind: desc.Kind, format: desc.Format}
	if err := d.allocate(b, desc.Label, desc.Data); err != nil {
		return render.InvalidID, err
	}
	id := render.BufferID(d.allocID())
	d.buffers[id] = b
	slogger().Debug("gpu: buffer created",
		"id", id, "kind", desc.Kind, "bytes", len(desc.Data), "usage", desc.Usage)
	return id, nil
}

// allocate replaces b's device memory with a buffer holding data.
func (d *Device) allocate(b *halBuffer, label string, data []byte) error {
	capacity := alignCopy(uint64(len(data)))
	buf, err := d.device.CreateBuffer(&hal.BufferDescriptor{
		Label: label,
		Size:  capacity,
		Usage: gputypes.BufferUsageVertex | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("create vertex buffer: %w", err)
	}
	if err := d.queue.WriteBuffer(buf, 0, padCopy(data)); err != nil {
		d.device.DestroyBuffer(buf)
		return fmt.Errorf("upload vertex buffer: %w", err)
	}
	if b.buf != nil {
		d.device.DestroyBuffer(b.buf)
	}
	b.buf = buf
	b.size = len(data)
	b.capacity = capacity
	return nil
}

// WriteBuffer replaces the contents of buffer id, growing the allocation
// when data does not fit.
func (d *Device) WriteBuffer(id render.BufferID, data []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrClosed
	}
	b, ok := d.buffers[id]
	if !ok {
		return fmt.Errorf("%w: %d", render.ErrUnknownBuffer, id)
	}
	if len(data) == 0 {
		return render.ErrEmptyBuffer
	}
	if uint64(len(data)) > b.capacity {
		slogger().Debug("gpu: buffer grown", "id", id, "from", b.capacity, "to", len(data))
		return d.allocate(b, "", data)
	}
	if err := d.queue.WriteBuffer(b.buf, 0, padCopy(data)); err != nil {
		return fmt.Errorf("write buffer %d: %w", id, err)
	}
	b.size = len(data)
	return nil
}

// DestroyBuffer releases buffer id.
func (d *Device) DestroyBuffer(id render.BufferID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.destroyBuffer(id)
}

func (d *Device) destroyBuffer(id render.BufferID) {
	b, ok := d.buffers[id]
	if !ok {
		return
	}
	delete(d.buffers, id)
	if b.buf != nil {
		d.device.DestroyBuffer(b.buf)
	}
}

// CreateTexture uploads img as an RGBA8 texture sampled bilinearly.
func (d *Device) CreateTexture(img *image.RGBA) (render.TextureID, error) {
	if img == nil || img.Bounds().Empty() {
		return render.InvalidID, fmt.Errorf("gpu: empty texture image")
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return render.InvalidID, ErrClosed
	}

	w, h := uint32(img.Bounds().Dx()), uint32(img.Bounds().Dy())
	tex, err := d.device.CreateTexture(&hal.TextureDescriptor{
		Label:         "line_texture",
		Size:          hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        gputypes.TextureFormatRGBA8Unorm,
		Usage:         gputypes.TextureUsageTextureBinding | gputypes.TextureUsageCopyDst,
	})
	if err != nil {
		return render.InvalidID, fmt.Errorf("create texture: %w", err)
	}
	t := &halTexture{tex: tex}

	if err := d.queue.WriteTexture(
		&hal.ImageCopyTexture{Texture: tex, Aspect: gputypes.TextureAspectAll},
		tightRGBA(img),
		&hal.ImageDataLayout{BytesPerRow: w * 4, RowsPerImage: h},
		&hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
	); err != nil {
		d.releaseTexture(t)
		return render.InvalidID, fmt.Errorf("upload texture: %w", err)
	}

	view, err := d.device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label:         "line_texture_view",
		Format:        gputypes.TextureFormatRGBA8Unorm,
		Dimension:     gputypes.TextureViewDimension2D,
		Aspect:        gputypes.TextureAspectAll,
		MipLevelCount: 1,
	})
	if err != nil {
		d.releaseTexture(t)
		return render.InvalidID, fmt.Errorf("create texture view: %w", err)
	}
	t.view = view

	group, err := d.pipes.textureGroup(view)
	if err != nil {
		d.releaseTexture(t)
		return render.InvalidID, err
	}
	t.group = group

	id := render.TextureID(d.allocID())
	d.textures[id] = t
	slogger().Debug("gpu: texture created", "id", id, "width", w, "height", h)
	return id, nil
}

// DestroyTexture releases texture id.
func (d *Device) DestroyTexture(id render.TextureID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.destroyTexture(id)
}

func (d *Device) destroyTexture(id render.TextureID) {
	t, ok := d.textures[id]
	if !ok {
		return
	}
	delete(d.textures, id)
	d.releaseTexture(t)
}

func (d *Device) releaseTexture(t *halTexture) {
	if t.group != nil {
		d.device.DestroyBindGroup(t.group)
	}
	if t.view != nil {
		d.device.DestroyTextureView(t.view)
	}
	if t.tex != nil {
		d.device.DestroyTexture(t.tex)
	}
}

// copyAlignment is the WebGPU COPY_BUFFER_ALIGNMENT.
const copyAlignment = 4

func alignCopy(n uint64) uint64 {
	return (n + copyAlignment - 1) &^ (copyAlignment - 1)
}

// padCopy returns data extended with zeros to a multiple of copyAlignment.
func padCopy(data []byte) []byte {
	if n := alignCopy(uint64(len(data))); n != uint64(len(data)) {
		padded := make([]byte, n)
		copy(padded, data)
		return padded
	}
	return data
}

// tightRGBA returns img's pixels without row padding.
func tightRGBA(img *image.RGBA) []byte {
	b := img.Bounds()
	row := b.Dx() * 4
	if img.Stride == row && b.Min == (image.Point{}) {
		return img.Pix[:row*b.Dy()]
	}
	out := make([]byte, 0, row*b.Dy())
	for y := b.Min.Y; y < b.Max.Y; y++ {
		off := img.PixOffset(b.Min.X, y)
		out = append(out, img.Pix[off:off+row]...)
	}
	return out
}

var _ render.Device = (*Device)(nil)
