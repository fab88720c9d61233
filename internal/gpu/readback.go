//go:build !nogpu

package gpu

import (
	"encoding/binary"
	"fmt"
	"math"
	"unsafe"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/ggline/render"
)

// WebGPU (and DX12) requires BytesPerRow aligned to 256 bytes.
const copyPitchAlignment = 256

// ReadPixel returns the color and depth at window (x, y), origin
// bottom-left. Color is converted back from premultiplied alpha.
func (d *Device) ReadPixel(x, y int) (render.Pixel, error) {
	if x < 0 || y < 0 || x >= d.width || y >= d.height {
		return render.Pixel{}, fmt.Errorf("%w: (%d, %d) outside %dx%d",
			render.ErrOutOfBounds, x, y, d.width, d.height)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return render.Pixel{}, ErrClosed
	}

	// Texture rows run top-down.
	origin := hal.Origin3D{X: uint32(x), Y: uint32(d.height - 1 - y)}

	staging, err := d.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "line_pick_staging",
		Size:  2 * copyPitchAlignment,
		Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return render.Pixel{}, fmt.Errorf("create staging buffer: %w", err)
	}
	defer d.device.DestroyBuffer(staging)

	err = d.submit("line_readback", func(encoder hal.CommandEncoder) error {
		targets := []hal.Texture{d.fb.colorTex, d.fb.depthTex}
		transition(encoder, targets, gputypes.TextureUsageRenderAttachment, gputypes.TextureUsageCopySrc)
		for i, tex := range targets {
			encoder.CopyTextureToBuffer(tex, staging, []hal.BufferTextureCopy{{
				BufferLayout: hal.ImageDataLayout{
					Offset:       uint64(i * copyPitchAlignment),
					BytesPerRow:  copyPitchAlignment,
					RowsPerImage: 1,
				},
				TextureBase: hal.ImageCopyTexture{Texture: tex, Origin: origin, Aspect: gputypes.TextureAspectAll},
				Size:        hal.Extent3D{Width: 1, Height: 1, DepthOrArrayLayers: 1},
			}})
		}
		transition(encoder, targets, gputypes.TextureUsageCopySrc, gputypes.TextureUsageRenderAttachment)
		return nil
	})
	if err != nil {
		return render.Pixel{}, err
	}

	mapping, err := d.device.MapBuffer(staging, 0, 2*copyPitchAlignment)
	if err != nil {
		return render.Pixel{}, fmt.Errorf("map staging buffer: %w", err)
	}
	raw := make([]byte, 2*copyPitchAlignment)
	copy(raw, unsafe.Slice((*byte)(mapping.Ptr), len(raw)))
	if err := d.device.UnmapBuffer(staging); err != nil {
		return render.Pixel{}, fmt.Errorf("unmap staging buffer: %w", err)
	}

	depth := float64(math.Float32frombits(binary.LittleEndian.Uint32(raw[copyPitchAlignment:])))
	if depth > 1 || math.IsNaN(depth) {
		depth = 1
	}
	return render.Pixel{Color: unpremultiply([4]uint8(raw[:4])), Depth: depth}, nil
}

func transition(encoder hal.CommandEncoder, textures []hal.Texture, from, to gputypes.TextureUsage) {
	barriers := make([]hal.TextureBarrier, len(textures))
	for i, tex := range textures {
		barriers[i] = hal.TextureBarrier{
			Texture: tex,
			Usage:   hal.TextureUsageTransition{OldUsage: from, NewUsage: to},
		}
	}
	encoder.TransitionTextures(barriers)
}

// unpremultiply converts a premultiplied RGBA8 sample to straight alpha.
func unpremultiply(c [4]uint8) [4]uint8 {
	a := uint32(c[3])
	switch a {
	case 0:
		return [4]uint8{}
	case 255:
		return c
	}
	var out [4]uint8
	for i := range 3 {
		out[i] = uint8(min((uint32(c[i])*255+a/2)/a, 255))
	}
	out[3] = c[3]
	return out
}
