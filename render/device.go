// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"errors"
	"fmt"
	"image"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
)

// Device errors.
var (
	// ErrUnknownBuffer is returned when a BufferID does not name a live buffer.
	ErrUnknownBuffer = errors.New("render: unknown buffer")

	// ErrUnknownTexture is returned when a TextureID does not name a live texture.
	ErrUnknownTexture = errors.New("render: unknown texture")

	// ErrUnsupported is returned by devices for operations they cannot perform.
	ErrUnsupported = errors.New("render: operation not supported by device")

	// ErrOutOfBounds is returned when a pixel query falls outside the framebuffer.
	ErrOutOfBounds = errors.New("render: pixel out of bounds")

	// ErrInvalidDraw is returned for a malformed DrawCommand.
	ErrInvalidDraw = errors.New("render: invalid draw command")
)

// DeviceHandle provides GPU device access from the host application.
//
// The host (for example a gogpu window) owns the device and passes it in;
// this module never creates a GPU instance on its own. See gpu.NewDevice.
//
// DeviceHandle is an alias for gpucontext.DeviceProvider.
type DeviceHandle = gpucontext.DeviceProvider

// NullDeviceHandle is a DeviceHandle without a GPU.
// gpu.NewDevice rejects it; use NewSoftwareDevice instead.
type NullDeviceHandle struct{}

// Device returns nil for the null device.
func (NullDeviceHandle) Device() gpucontext.Device { return nil }

// Queue returns nil for the null device.
func (NullDeviceHandle) Queue() gpucontext.Queue { return nil }

// Adapter returns nil for the null device.
func (NullDeviceHandle) Adapter() gpucontext.Adapter { return nil }

// SurfaceFormat returns undefined format for the null device.
func (NullDeviceHandle) SurfaceFormat() gputypes.TextureFormat {
	return gputypes.TextureFormatUndefined
}

// AdapterInfo reports an unknown adapter.
func (NullDeviceHandle) AdapterInfo() gpucontext.AdapterInfo {
	return gpucontext.AdapterInfo{Name: "null", Type: gpucontext.AdapterTypeUnknown}
}

// Ensure NullDeviceHandle implements DeviceHandle.
var _ DeviceHandle = NullDeviceHandle{}

// BufferID is an opaque device buffer handle. Zero is never a valid ID.
type BufferID uint64

// TextureID is an opaque device texture handle. Zero is never a valid ID.
type TextureID uint64

// InvalidID is the zero handle.
const InvalidID = 0

// BufferKind names the vertex attribute a buffer holds.
type BufferKind int

const (
	// BufferPositions holds Float32x3 positions.
	BufferPositions BufferKind = iota
	// BufferColors holds Float32x4 or Unorm8x4 colors.
	BufferColors
	// BufferNormals holds Float32x3 normals.
	BufferNormals
	// BufferTexCoords holds Float32x2 texture coordinates.
	BufferTexCoords
)

// String returns the string representation of BufferKind.
func (k BufferKind) String() string {
	switch k {
	case BufferPositions:
		return "Positions"
	case BufferColors:
		return "Colors"
	case BufferNormals:
		return "Normals"
	case BufferTexCoords:
		return "TexCoords"
	default:
		return fmt.Sprintf("Unknown(%d)", int(k))
	}
}

// Usage classifies how often a buffer's contents change.
type Usage int

const (
	// UsageStatic data is written once and drawn many times.
	UsageStatic Usage = iota
	// UsageDynamicCoords buffers are rewritten when geometry moves.
	UsageDynamicCoords
	// UsageDynamicColors buffers are rewritten when coloring changes.
	UsageDynamicColors
	// UsageStream data is rewritten every frame.
	UsageStream
)

// String returns the string representation of Usage.
func (u Usage) String() string {
	switch u {
	case UsageStatic:
		return "Static"
	case UsageDynamicCoords:
		return "DynamicCoords"
	case UsageDynamicColors:
		return "DynamicColors"
	case UsageStream:
		return "Stream"
	default:
		return fmt.Sprintf("Unknown(%d)", int(u))
	}
}

// BufferDescriptor describes a vertex buffer to create.
type BufferDescriptor struct {
	// Label is an optional debug name.
	Label string

	// Kind is the attribute stored in the buffer.
	Kind BufferKind

	// Format is the per-vertex element format.
	Format gputypes.VertexFormat

	// Usage guides the allocation strategy.
	Usage Usage

	// Data is the initial contents. Its length fixes the buffer size.
	Data []byte
}

// ElementSize returns the byte size of one element of format f, or 0 for
// formats devices do not accept.
func ElementSize(f gputypes.VertexFormat) int {
	switch f {
	case gputypes.VertexFormatFloat32x2:
		return 8
	case gputypes.VertexFormatFloat32x3:
		return 12
	case gputypes.VertexFormatFloat32x4:
		return 16
	case gputypes.VertexFormatUnorm8x4:
		return 4
	default:
		return 0
	}
}

// DrawCommand is one non-indexed triangle-list draw.
type DrawCommand struct {
	// Transform maps positions to OpenGL-style clip space of the whole
	// framebuffer (z in [-1, 1], y up).
	Transform mgl64.Mat4

	// VertexCount is the number of vertices; a multiple of 3.
	VertexCount int

	// Positions is required. Colors is required and uses ColorFormat.
	Positions   BufferID
	Colors      BufferID
	ColorFormat gputypes.VertexFormat

	// Normals, TexCoords and Texture are optional (InvalidID when absent).
	Normals   BufferID
	TexCoords BufferID
	Texture   TextureID

	// DepthTest enables less-equal depth testing and depth writes.
	DepthTest bool

	// Blend enables source-over alpha blending.
	Blend bool
}

// Validate reports whether the command can be executed.
func (c *DrawCommand) Validate() error {
	switch {
	case c == nil:
		return fmt.Errorf("%w: nil command", ErrInvalidDraw)
	case c.VertexCount <= 0 || c.VertexCount%3 != 0:
		return fmt.Errorf("%w: vertex count %d", ErrInvalidDraw, c.VertexCount)
	case c.Positions == InvalidID || c.Colors == InvalidID:
		return fmt.Errorf("%w: missing positions or colors", ErrInvalidDraw)
	case c.ColorFormat != gputypes.VertexFormatFloat32x4 && c.ColorFormat != gputypes.VertexFormatUnorm8x4:
		return fmt.Errorf("%w: color format %v", ErrInvalidDraw, c.ColorFormat)
	}
	return nil
}

// Pixel is a single framebuffer sample.
type Pixel struct {
	// Color is straight RGBA8.
	Color [4]uint8

	// Depth is the window depth in [0, 1]; 1 where nothing was drawn.
	Depth float64
}

// Device is the drawing surface used by the line engine.
//
// Devices only rasterize triangle lists; strips, loops and thick lines are
// converted by the caller. Window pixel coordinates have their origin at
// the bottom-left corner. All methods are synchronous.
type Device interface {
	// Size returns the framebuffer size in pixels.
	Size() (width, height int)

	// CreateBuffer allocates a vertex buffer holding desc.Data.
	CreateBuffer(desc *BufferDescriptor) (BufferID, error)

	// WriteBuffer replaces the contents of a buffer. The device may
	// reallocate when data is larger than the current allocation.
	WriteBuffer(id BufferID, data []byte) error

	// DestroyBuffer releases a buffer. Unknown IDs are ignored.
	DestroyBuffer(id BufferID)

	// CreateTexture uploads an image for sampling.
	CreateTexture(img *image.RGBA) (TextureID, error)

	// DestroyTexture releases a texture. Unknown IDs are ignored.
	DestroyTexture(id TextureID)

	// Clear fills the color buffer with c and resets depth to the far plane.
	Clear(c [4]float64) error

	// Draw rasterizes cmd into the framebuffer.
	Draw(cmd *DrawCommand) error

	// ReadPixel returns the color and depth at window pixel (x, y) after all
	// previously issued draws have completed.
	ReadPixel(x, y int) (Pixel, error)
}
