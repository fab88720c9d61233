// Package ggline draws thick lines, points and meshes through a device
// abstraction and identifies drawn geometry with color-encoded picking.
//
// # Overview
//
// Devices rasterize triangles only, so lines are converted to triangles in
// window space where their width is uniform in pixels. Tessellate performs
// that conversion explicitly; the Engine does it on demand for primitives
// with a line or point topology.
//
//	dev, _ := render.NewSoftwareDevice(640, 480)
//	ctx := ggline.NewContext(dev, ggline.WithClearColor(ggline.White))
//	engine := ggline.NewEngine()
//	defer engine.Close()
//
//	line, err := ggline.Tessellate(ggline.LineRequest{
//	    Points:    []float32{10, 10, 0, 200, 40, 0, 300, 300, 0},
//	    Topology:  ggline.LineStrip,
//	    Coloring:  ggline.SolidColor{Color: ggline.Blue},
//	    Thickness: ggline.Pixels(6),
//	}, nil)
//	if err != nil {
//	    return err
//	}
//	_ = ctx.Clear()
//	_ = engine.Draw(ctx, line)
//
// # Drawing modes
//
//   - Draw uses the primitive's primary coloring and texture.
//   - DrawWithOverrideColor uses a single color for every vertex.
//   - DrawWithAlternativeColor uses a coloring registered with
//     Primitive.SetAlternativeColoring.
//   - DrawWithSelection encodes pick groups as colors and reads back the
//     group and depth under one pixel.
//
// # Resources
//
// A Primitive holds only data. The Engine keeps the device buffers of each
// primitive, keyed by its Handle, and reuses them across frames. Call
// InvalidateCoordinates or InvalidateColors after editing a primitive and
// Release when it is no longer drawn.
//
// # Devices
//
// render.SoftwareDevice rasterizes on the CPU. The gpu package provides a
// device on top of a host-supplied wgpu HAL device.
//
// # Thread safety
//
// Context, Engine and Primitive are not safe for concurrent use. Draw from
// the goroutine that owns the device.
package ggline
