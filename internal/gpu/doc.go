//go:build !nogpu

// Package gpu implements the line engine's render.Device on a GPU through
// the gogpu/wgpu HAL (Vulkan, Metal, DX12 or GLES, zero CGO).
//
// The device borrows a hal.Device and hal.Queue from the host and renders
// into an offscreen framebuffer. Vertex buffers map one-to-one to
// render.BufferID handles; each attribute lives in its own buffer and is
// bound to its own vertex slot:
//
//	slot 0  position  Float32x3
//	slot 1  color     Float32x4 or Unorm8x4
//	slot 2  uv        Float32x2 (textured draws only)
//
// Render pipelines are built lazily per color format, depth test, blending
// and texturing. WGSL sources are embedded and checked with naga before
// they reach the driver.
//
// Every submission is waited for, so ReadPixel observes all previous
// draws. Picking reads back a single texel of the color target and of an
// R32Float copy of the depth buffer.
package gpu
