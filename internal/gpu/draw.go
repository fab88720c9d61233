//go:build !nogpu

package gpu

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/ggline/render"
)

// Clear fills the color target with c (straight RGBA in [0, 1]) and resets
// depth to the far plane.
func (d *Device) Clear(c [4]float64) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrClosed
	}
	return d.clear(c)
}

func (d *Device) clear(c [4]float64) error {
	// Targets hold premultiplied color.
	clearColor := gputypes.Color{R: c[0] * c[3], G: c[1] * c[3], B: c[2] * c[3], A: c[3]}
	return d.submit("line_clear", func(encoder hal.CommandEncoder) error {
		rp := encoder.BeginRenderPass(d.fb.pass(false, clearColor))
		rp.End()
		return nil
	})
}

// Draw rasterizes cmd.
func (d *Device) Draw(cmd *render.DrawCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrClosed
	}
	n := cmd.VertexCount

	pos, err := d.lookup(cmd.Positions, gputypes.VertexFormatFloat32x3, n)
	if err != nil {
		return err
	}
	colors, err := d.lookup(cmd.Colors, cmd.ColorFormat, n)
	if err != nil {
		return err
	}
	var (
		uvs *halBuffer
		tex *halTexture
	)
	if cmd.Texture != render.InvalidID && cmd.TexCoords != render.InvalidID {
		var ok bool
		if tex, ok = d.textures[cmd.Texture]; !ok {
			return fmt.Errorf("%w: %d", render.ErrUnknownTexture, cmd.Texture)
		}
		if uvs, err = d.lookup(cmd.TexCoords, gputypes.VertexFormatFloat32x2, n); err != nil {
			return err
		}
	}

	pipeline, err := d.pipes.pipeline(pipelineKey{
		colors:    cmd.ColorFormat,
		depthTest: cmd.DepthTest,
		blend:     cmd.Blend,
		textured:  tex != nil,
	})
	if err != nil {
		return err
	}
	if err := d.queue.WriteBuffer(d.pipes.uniformBuf, 0, encodeTransform(cmd.Transform)); err != nil {
		return fmt.Errorf("write line uniforms: %w", err)
	}

	return d.submit("line_draw", func(encoder hal.CommandEncoder) error {
		rp := encoder.BeginRenderPass(d.fb.pass(true, gputypes.Color{}))
		rp.SetPipeline(pipeline)
		rp.SetBindGroup(0, d.pipes.uniformGroup, nil)
		rp.SetVertexBuffer(0, pos.buf, 0)
		rp.SetVertexBuffer(1, colors.buf, 0)
		if tex != nil {
			rp.SetBindGroup(1, tex.group, nil)
			rp.SetVertexBuffer(2, uvs.buf, 0)
		}
		rp.Draw(uint32(n), 1, 0, 0)
		rp.End()
		return nil
	})
}

// lookup returns buffer id after checking that it holds at least n elements
// of format f.
func (d *Device) lookup(id render.BufferID, f gputypes.VertexFormat, n int) (*halBuffer, error) {
	b, ok := d.buffers[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", render.ErrUnknownBuffer, id)
	}
	if b.format != f {
		return nil, fmt.Errorf("%w: buffer %d has format %v, want %v", render.ErrInvalidDraw, id, b.format, f)
	}
	if need := n * render.ElementSize(f); b.size < need {
		return nil, fmt.Errorf("%w: buffer %d holds %d bytes, draw needs %d",
			render.ErrInvalidDraw, id, b.size, need)
	}
	return b, nil
}

// submit records one command buffer with record, submits it and waits for
// the queue to drain.
func (d *Device) submit(label string, record func(hal.CommandEncoder) error) error {
	encoder, err := d.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: label})
	if err != nil {
		return fmt.Errorf("create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding(label); err != nil {
		return fmt.Errorf("begin encoding: %w", err)
	}
	if err := record(encoder); err != nil {
		encoder.DiscardEncoding()
		return err
	}
	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return fmt.Errorf("end encoding: %w", err)
	}
	defer d.device.FreeCommandBuffer(cmdBuf)

	if _, err := d.queue.Submit([]hal.CommandBuffer{cmdBuf}); err != nil {
		return fmt.Errorf("submit: %w", err)
	}
	if err := d.device.WaitIdle(); err != nil {
		return fmt.Errorf("wait for GPU: %w", err)
	}
	return nil
}
