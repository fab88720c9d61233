// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package render defines the drawing device used by the line engine and
// provides a CPU implementation of it.
//
// # Key Principle
//
// The line engine RECEIVES a device, it does NOT create GPU resources of its
// own. A host application that already owns a GPU passes it in through a
// DeviceHandle (see the gpu package); everything else draws into a
// SoftwareDevice.
//
// # Core Types
//
//   - Device: triangle-list rasterizer with vertex buffers, textures and
//     single-pixel readback
//   - DrawCommand: one draw with its transform, buffers and raster state
//   - Buffer: owned handle to one device vertex buffer with size tracking
//   - SoftwareDevice: Device backed by the fauxgl rasterizer
//
// # Coordinates
//
// DrawCommand.Transform produces OpenGL-style clip coordinates (z in
// [-1, 1]). Window pixels have their origin at the bottom-left corner and
// depth 0 is nearest. ReadPixel returns straight RGBA8 color and the depth
// of the last fragment written, or 1 where nothing was drawn.
//
// # Usage
//
//	dev, _ := render.NewSoftwareDevice(640, 480)
//	buf, _ := render.NewBuffer(dev, &render.BufferDescriptor{
//	    Kind:   render.BufferPositions,
//	    Format: gputypes.VertexFormatFloat32x3,
//	    Data:   render.Float32Bytes(positions),
//	})
//	defer buf.Destroy()
//
// Buffers keep their size: Buffer.Write with data of another length fails
// with ErrSizeMismatch and the owner rebuilds the buffer instead.
package render
