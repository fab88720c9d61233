//go:build !nogpu

package gpu

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// Framebuffer target formats.
const (
	colorFormat        = gputypes.TextureFormatRGBA8Unorm
	depthCopyFormat    = gputypes.TextureFormatR32Float
	depthStencilFormat = gputypes.TextureFormatDepth24PlusStencil8
)

// framebuffer holds the offscreen render targets of a Device.
type framebuffer struct {
	width, height uint32

	colorTex  hal.Texture
	colorView hal.TextureView

	// depthTex mirrors the depth buffer in a copyable format.
	depthTex  hal.Texture
	depthView hal.TextureView

	stencilTex  hal.Texture
	stencilView hal.TextureView
}

func newFramebuffer(device hal.Device, w, h uint32) (*framebuffer, error) {
	fb := &framebuffer{width: w, height: h}

	var err error
	fb.colorTex, fb.colorView, err = createTarget(device, "line_color", w, h, colorFormat,
		gputypes.TextureUsageRenderAttachment|gputypes.TextureUsageCopySrc)
	if err != nil {
		fb.destroy(device)
		return nil, err
	}
	fb.depthTex, fb.depthView, err = createTarget(device, "line_depth", w, h, depthCopyFormat,
		gputypes.TextureUsageRenderAttachment|gputypes.TextureUsageCopySrc)
	if err != nil {
		fb.destroy(device)
		return nil, err
	}
	fb.stencilTex, fb.stencilView, err = createTarget(device, "line_depth_stencil", w, h, depthStencilFormat,
		gputypes.TextureUsageRenderAttachment)
	if err != nil {
		fb.destroy(device)
		return nil, err
	}
	return fb, nil
}

func createTarget(
	device hal.Device, label string, w, h uint32,
	format gputypes.TextureFormat, usage gputypes.TextureUsage,
) (hal.Texture, hal.TextureView, error) {
	tex, err := device.CreateTexture(&hal.TextureDescriptor{
		Label:         label,
		Size:          hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        format,
		Usage:         usage,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("create %s texture: %w", label, err)
	}
	view, err := device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label:         label + "_view",
		Format:        format,
		Dimension:     gputypes.TextureViewDimension2D,
		Aspect:        gputypes.TextureAspectAll,
		MipLevelCount: 1,
	})
	if err != nil {
		device.DestroyTexture(tex)
		return nil, nil, fmt.Errorf("create %s view: %w", label, err)
	}
	return tex, view, nil
}

// pass returns a render pass descriptor over all targets. With load set the
// previous contents are kept; otherwise color is cleared to clearColor and
// depth to the far plane.
func (fb *framebuffer) pass(load bool, clearColor gputypes.Color) *hal.RenderPassDescriptor {
	op := gputypes.LoadOpClear
	if load {
		op = gputypes.LoadOpLoad
	}
	return &hal.RenderPassDescriptor{
		Label: "line_pass",
		ColorAttachments: []hal.RenderPassColorAttachment{
			{
				View:       fb.colorView,
				LoadOp:     op,
				StoreOp:    gputypes.StoreOpStore,
				ClearValue: clearColor,
			},
			{
				View:       fb.depthView,
				LoadOp:     op,
				StoreOp:    gputypes.StoreOpStore,
				ClearValue: gputypes.Color{R: 1, A: 1},
			},
		},
		DepthStencilAttachment: &hal.RenderPassDepthStencilAttachment{
			View:              fb.stencilView,
			DepthLoadOp:       op,
			DepthStoreOp:      gputypes.StoreOpStore,
			DepthClearValue:   1.0,
			StencilLoadOp:     gputypes.LoadOpClear,
			StencilStoreOp:    gputypes.StoreOpDiscard,
			StencilClearValue: 0,
		},
	}
}

// destroy releases all targets in reverse creation order.
func (fb *framebuffer) destroy(device hal.Device) {
	if fb == nil {
		return
	}
	for _, t := range []struct {
		tex  *hal.Texture
		view *hal.TextureView
	}{
		{&fb.stencilTex, &fb.stencilView},
		{&fb.depthTex, &fb.depthView},
		{&fb.colorTex, &fb.colorView},
	} {
		if *t.view != nil {
			device.DestroyTextureView(*t.view)
			*t.view = nil
		}
		if *t.tex != nil {
			device.DestroyTexture(*t.tex)
			*t.tex = nil
		}
	}
}
