// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"math"
	"sync/atomic"

	"github.com/fogleman/fauxgl"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/gogpu/gputypes"
)

// depthInset pulls clip-space depth slightly inside the unit cube so that
// geometry lying exactly on the near or far plane survives clipping.
const depthInset = 1 - 1e-7

// softBuffer is the CPU copy of a vertex buffer.
type softBuffer struct {
	kind   BufferKind
	format gputypes.VertexFormat
	data   []byte
}

// SoftwareDevice is a CPU Device backed by the fauxgl rasterizer.
//
// It keeps a color buffer and a float64 depth buffer. Triangles are
// rasterized without culling; depth testing and alpha blending follow each
// DrawCommand. SoftwareDevice is not safe for concurrent use.
//
// Example:
//
//	dev, _ := render.NewSoftwareDevice(640, 480)
//	_ = dev.Clear([4]float64{1, 1, 1, 1})
//	// ... draw ...
//	img := dev.Image()
type SoftwareDevice struct {
	ctx *fauxgl.Context

	buffers  map[BufferID]*softBuffer
	textures map[TextureID]fauxgl.Texture
	nextID   uint64

	logger atomic.Pointer[slog.Logger]
}

// NewSoftwareDevice creates a software device with a width x height
// framebuffer cleared to transparent black.
func NewSoftwareDevice(width, height int) (*SoftwareDevice, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("render: invalid framebuffer size %dx%d", width, height)
	}
	ctx := fauxgl.NewContext(width, height)
	ctx.Cull = fauxgl.CullNone
	ctx.ClearColorBufferWith(fauxgl.Color{})
	ctx.ClearDepthBuffer()

	return &SoftwareDevice{
		ctx:      ctx,
		buffers:  make(map[BufferID]*softBuffer),
		textures: make(map[TextureID]fauxgl.Texture),
	}, nil
}

// SetLogger sets the logger used for device diagnostics. Nil disables logging.
func (d *SoftwareDevice) SetLogger(l *slog.Logger) {
	d.logger.Store(l)
}

func (d *SoftwareDevice) log() *slog.Logger {
	if l := d.logger.Load(); l != nil {
		return l
	}
	return nopLogger
}

// Size returns the framebuffer size.
func (d *SoftwareDevice) Size() (width, height int) {
	return d.ctx.Width, d.ctx.Height
}

// Image returns the color buffer. The image is owned by the device and
// changes with subsequent draws.
func (d *SoftwareDevice) Image() image.Image {
	return d.ctx.Image()
}

func (d *SoftwareDevice) allocID() uint64 {
	d.nextID++
	return d.nextID
}

// CreateBuffer stores a copy of desc.Data.
func (d *SoftwareDevice) CreateBuffer(desc *BufferDescriptor) (BufferID, error) {
	if desc == nil || len(desc.Data) == 0 {
		return InvalidID, ErrEmptyBuffer
	}
	id := BufferID(d.allocID())
	d.buffers[id] = &softBuffer{
		kind:   desc.Kind,
		format: desc.Format,
		data:   append([]byte(nil), desc.Data...),
	}
	d.log().Debug("render: software buffer created",
		"id", id, "kind", desc.Kind, "bytes", len(desc.Data), "usage", desc.Usage)
	return id, nil
}

// WriteBuffer replaces the contents of buffer id.
func (d *SoftwareDevice) WriteBuffer(id BufferID, data []byte) error {
	b, ok := d.buffers[id]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownBuffer, id)
	}
	b.data = append(b.data[:0], data...)
	return nil
}

// DestroyBuffer releases buffer id.
func (d *SoftwareDevice) DestroyBuffer(id BufferID) {
	delete(d.buffers, id)
}

// CreateTexture wraps img for bilinear sampling.
func (d *SoftwareDevice) CreateTexture(img *image.RGBA) (TextureID, error) {
	if img == nil || img.Bounds().Empty() {
		return InvalidID, fmt.Errorf("render: empty texture image")
	}
	id := TextureID(d.allocID())
	d.textures[id] = fauxgl.NewImageTexture(img)
	return id, nil
}

// DestroyTexture releases texture id.
func (d *SoftwareDevice) DestroyTexture(id TextureID) {
	delete(d.textures, id)
}

// Clear fills the color buffer with c (straight RGBA in [0, 1]) and resets
// the depth buffer.
func (d *SoftwareDevice) Clear(c [4]float64) error {
	d.ctx.ClearColorBufferWith(fauxgl.Color{R: c[0], G: c[1], B: c[2], A: c[3]})
	d.ctx.ClearDepthBuffer()
	return nil
}

// Draw rasterizes cmd.
func (d *SoftwareDevice) Draw(cmd *DrawCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}
	n := cmd.VertexCount

	pos, err := d.floats(cmd.Positions, gputypes.VertexFormatFloat32x3, n)
	if err != nil {
		return err
	}
	colors, err := d.colors(cmd.Colors, cmd.ColorFormat, n)
	if err != nil {
		return err
	}
	var normals, uvs []float32
	if cmd.Normals != InvalidID {
		if normals, err = d.floats(cmd.Normals, gputypes.VertexFormatFloat32x3, n); err != nil {
			return err
		}
	}
	var tex fauxgl.Texture
	if cmd.Texture != InvalidID && cmd.TexCoords != InvalidID {
		var ok bool
		if tex, ok = d.textures[cmd.Texture]; !ok {
			return fmt.Errorf("%w: %d", ErrUnknownTexture, cmd.Texture)
		}
		if uvs, err = d.floats(cmd.TexCoords, gputypes.VertexFormatFloat32x2, n); err != nil {
			return err
		}
	}

	vertex := func(i int) fauxgl.Vertex {
		v := fauxgl.Vertex{
			Position: fauxgl.Vector{X: float64(pos[i*3]), Y: float64(pos[i*3+1]), Z: float64(pos[i*3+2])},
			Color:    colors[i],
		}
		if normals != nil {
			v.Normal = fauxgl.Vector{X: float64(normals[i*3]), Y: float64(normals[i*3+1]), Z: float64(normals[i*3+2])}
		}
		if uvs != nil {
			v.Texture = fauxgl.Vector{X: float64(uvs[i*2]), Y: float64(uvs[i*2+1])}
		}
		return v
	}

	triangles := make([]*fauxgl.Triangle, 0, n/3)
	for i := 0; i+2 < n; i += 3 {
		t := &fauxgl.Triangle{V1: vertex(i), V2: vertex(i + 1), V3: vertex(i + 2)}
		if clockwise(cmd.Transform, t) {
			t.V2, t.V3 = t.V3, t.V2
		}
		triangles = append(triangles, t)
	}

	d.ctx.Shader = &softShader{matrix: fauxglMatrix(cmd.Transform), texture: tex}
	d.ctx.ReadDepth = cmd.DepthTest
	d.ctx.WriteDepth = cmd.DepthTest
	d.ctx.AlphaBlend = cmd.Blend
	d.ctx.DrawMesh(fauxgl.NewTriangleMesh(triangles))
	return nil
}

// ReadPixel returns the pixel at window (x, y), origin bottom-left.
func (d *SoftwareDevice) ReadPixel(x, y int) (Pixel, error) {
	w, h := d.Size()
	if x < 0 || y < 0 || x >= w || y >= h {
		return Pixel{}, fmt.Errorf("%w: (%d, %d) outside %dx%d", ErrOutOfBounds, x, y, w, h)
	}
	row := h - 1 - y
	c := color.NRGBAModel.Convert(d.ctx.Image().At(x, row)).(color.NRGBA)

	depth := d.ctx.DepthBuffer[row*w+x]
	if depth > 1 || math.IsNaN(depth) {
		depth = 1
	}
	return Pixel{Color: [4]uint8{c.R, c.G, c.B, c.A}, Depth: depth}, nil
}

// floats returns at least n elements of format f from buffer id.
func (d *SoftwareDevice) floats(id BufferID, f gputypes.VertexFormat, n int) ([]float32, error) {
	b, ok := d.buffers[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownBuffer, id)
	}
	if b.format != f {
		return nil, fmt.Errorf("%w: buffer %d has format %v, want %v", ErrInvalidDraw, id, b.format, f)
	}
	if len(b.data) < n*ElementSize(f) {
		return nil, fmt.Errorf("%w: buffer %d holds %d bytes, draw needs %d",
			ErrInvalidDraw, id, len(b.data), n*ElementSize(f))
	}
	return BytesFloat32(b.data), nil
}

func (d *SoftwareDevice) colors(id BufferID, f gputypes.VertexFormat, n int) ([]fauxgl.Color, error) {
	out := make([]fauxgl.Color, n)
	if f == gputypes.VertexFormatUnorm8x4 {
		b, ok := d.buffers[id]
		if !ok {
			return nil, fmt.Errorf("%w: %d", ErrUnknownBuffer, id)
		}
		if b.format != f || len(b.data) < n*4 {
			return nil, fmt.Errorf("%w: color buffer %d does not hold %d Unorm8x4 values", ErrInvalidDraw, id, n)
		}
		for i := range out {
			c := b.data[i*4 : i*4+4]
			out[i] = fauxgl.Color{
				R: float64(c[0]) / 255,
				G: float64(c[1]) / 255,
				B: float64(c[2]) / 255,
				A: float64(c[3]) / 255,
			}
		}
		return out, nil
	}

	v, err := d.floats(id, f, n)
	if err != nil {
		return nil, err
	}
	for i := range out {
		out[i] = fauxgl.Color{
			R: float64(v[i*4]),
			G: float64(v[i*4+1]),
			B: float64(v[i*4+2]),
			A: float64(v[i*4+3]),
		}
	}
	return out, nil
}

// clockwise reports whether t winds clockwise in normalized device
// coordinates. Triangles crossing w <= 0 are left as they are.
func clockwise(m mgl64.Mat4, t *fauxgl.Triangle) bool {
	var ndc [3]mgl64.Vec2
	for i, v := range [3]fauxgl.Vertex{t.V1, t.V2, t.V3} {
		c := m.Mul4x1(mgl64.Vec4{v.Position.X, v.Position.Y, v.Position.Z, 1})
		if c.W() <= 0 {
			return false
		}
		ndc[i] = mgl64.Vec2{c.X() / c.W(), c.Y() / c.W()}
	}
	e1 := ndc[1].Sub(ndc[0])
	e2 := ndc[2].Sub(ndc[0])
	return e1.X()*e2.Y()-e1.Y()*e2.X() < 0
}

// fauxglMatrix converts a column-major mgl64 matrix to fauxgl's row-major form.
func fauxglMatrix(m mgl64.Mat4) fauxgl.Matrix {
	return fauxgl.Matrix{
		X00: m.At(0, 0), X01: m.At(0, 1), X02: m.At(0, 2), X03: m.At(0, 3),
		X10: m.At(1, 0), X11: m.At(1, 1), X12: m.At(1, 2), X13: m.At(1, 3),
		X20: m.At(2, 0), X21: m.At(2, 1), X22: m.At(2, 2), X23: m.At(2, 3),
		X30: m.At(3, 0), X31: m.At(3, 1), X32: m.At(3, 2), X33: m.At(3, 3),
	}
}

// softShader transforms positions to clip space and modulates vertex color
// by an optional texture.
type softShader struct {
	matrix  fauxgl.Matrix
	texture fauxgl.Texture
}

func (s *softShader) Vertex(v fauxgl.Vertex) fauxgl.Vertex {
	v.Output = s.matrix.MulPositionW(v.Position)
	v.Output.Z *= depthInset
	return v
}

func (s *softShader) Fragment(v fauxgl.Vertex) fauxgl.Color {
	c := v.Color
	if s.texture == nil {
		return c
	}
	t := s.texture.BilinearSample(v.Texture.X, v.Texture.Y)
	return fauxgl.Color{R: c.R * t.R, G: c.G * t.G, B: c.B * t.B, A: c.A * t.A}
}

var _ Device = (*SoftwareDevice)(nil)
