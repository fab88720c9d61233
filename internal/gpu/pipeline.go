//go:build !nogpu

package gpu

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/ggline/render"
)

// uniformSize is one column-major mat4x4<f32>.
const uniformSize = 64

// pipelineKey selects a render pipeline variant.
type pipelineKey struct {
	colors    gputypes.VertexFormat
	depthTest bool
	blend     bool
	textured  bool
}

// pipelineSet owns the shader modules, layouts and the lazily built render
// pipelines shared by all draws of a Device.
type pipelineSet struct {
	device hal.Device

	shader         hal.ShaderModule
	texturedShader hal.ShaderModule

	uniformLayout      hal.BindGroupLayout
	textureLayout      hal.BindGroupLayout
	pipeLayout         hal.PipelineLayout
	texturedPipeLayout hal.PipelineLayout

	uniformBuf   hal.Buffer
	uniformGroup hal.BindGroup
	sampler      hal.Sampler

	pipelines map[pipelineKey]hal.RenderPipeline
}

func newPipelineSet(device hal.Device) *pipelineSet {
	return &pipelineSet{
		device:    device,
		pipelines: make(map[pipelineKey]hal.RenderPipeline),
	}
}

// init validates and compiles both shaders and creates every object that
// does not depend on the pipeline variant.
func (p *pipelineSet) init() error { //nolint:funlen // GPU object setup is a single cohesive sequence
	if err := checkShader("line", lineShaderSource); err != nil {
		return err
	}
	if err := checkShader("line_textured", texturedShaderSource); err != nil {
		return err
	}

	var err error
	p.shader, err = p.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  "line_shader",
		Source: hal.ShaderSource{WGSL: lineShaderSource},
	})
	if err != nil {
		p.destroy()
		return fmt.Errorf("compile line shader: %w", err)
	}
	p.texturedShader, err = p.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  "line_textured_shader",
		Source: hal.ShaderSource{WGSL: texturedShaderSource},
	})
	if err != nil {
		p.destroy()
		return fmt.Errorf("compile textured line shader: %w", err)
	}

	p.uniformLayout, err = p.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "line_uniform_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: gputypes.ShaderStageVertex,
				Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
			},
		},
	})
	if err != nil {
		p.destroy()
		return fmt.Errorf("create line uniform layout: %w", err)
	}
	p.textureLayout, err = p.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "line_texture_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: gputypes.ShaderStageFragment,
				Texture: &gputypes.TextureBindingLayout{
					SampleType:    gputypes.TextureSampleTypeFloat,
					ViewDimension: gputypes.TextureViewDimension2D,
				},
			},
			{
				Binding:    1,
				Visibility: gputypes.ShaderStageFragment,
				Sampler:    &gputypes.SamplerBindingLayout{Type: gputypes.SamplerBindingTypeFiltering},
			},
		},
	})
	if err != nil {
		p.destroy()
		return fmt.Errorf("create line texture layout: %w", err)
	}

	p.pipeLayout, err = p.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            "line_pipe_layout",
		BindGroupLayouts: []hal.BindGroupLayout{p.uniformLayout},
	})
	if err != nil {
		p.destroy()
		return fmt.Errorf("create line pipeline layout: %w", err)
	}
	p.texturedPipeLayout, err = p.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            "line_textured_pipe_layout",
		BindGroupLayouts: []hal.BindGroupLayout{p.uniformLayout, p.textureLayout},
	})
	if err != nil {
		p.destroy()
		return fmt.Errorf("create textured line pipeline layout: %w", err)
	}

	p.uniformBuf, err = p.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "line_uniforms",
		Size:  uniformSize,
		Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		p.destroy()
		return fmt.Errorf("create line uniform buffer: %w", err)
	}
	p.uniformGroup, err = p.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  "line_uniform_group",
		Layout: p.uniformLayout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.BufferBinding{Buffer: p.uniformBuf.NativeHandle(), Size: uniformSize}},
		},
	})
	if err != nil {
		p.destroy()
		return fmt.Errorf("create line uniform group: %w", err)
	}

	p.sampler, err = p.device.CreateSampler(&hal.SamplerDescriptor{
		Label:        "line_sampler",
		AddressModeU: gputypes.AddressModeClampToEdge,
		AddressModeV: gputypes.AddressModeClampToEdge,
		AddressModeW: gputypes.AddressModeClampToEdge,
		MagFilter:    gputypes.FilterModeLinear,
		MinFilter:    gputypes.FilterModeLinear,
	})
	if err != nil {
		p.destroy()
		return fmt.Errorf("create line sampler: %w", err)
	}
	return nil
}

// textureGroup binds view with the shared sampler.
func (p *pipelineSet) textureGroup(view hal.TextureView) (hal.BindGroup, error) {
	group, err := p.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  "line_texture_group",
		Layout: p.textureLayout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.TextureViewBinding{TextureView: view.NativeHandle()}},
			{Binding: 1, Resource: gputypes.SamplerBinding{Sampler: p.sampler.NativeHandle()}},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create line texture group: %w", err)
	}
	return group, nil
}

// pipeline returns the render pipeline for key, creating it on first use.
func (p *pipelineSet) pipeline(key pipelineKey) (hal.RenderPipeline, error) {
	if rp, ok := p.pipelines[key]; ok {
		return rp, nil
	}

	shader, layout := p.shader, p.pipeLayout
	if key.textured {
		shader, layout = p.texturedShader, p.texturedPipeLayout
	}

	colorTarget := gputypes.ColorTargetState{
		Format:    colorFormat,
		WriteMask: gputypes.ColorWriteMaskAll,
	}
	if key.blend {
		premulBlend := gputypes.BlendStatePremultiplied()
		colorTarget.Blend = &premulBlend
	}
	// Depth is only recorded by draws that take part in the depth test.
	depthTarget := gputypes.ColorTargetState{
		Format:    depthCopyFormat,
		WriteMask: gputypes.ColorWriteMaskNone,
	}
	compare := gputypes.CompareFunctionAlways
	if key.depthTest {
		depthTarget.WriteMask = gputypes.ColorWriteMaskAll
		compare = gputypes.CompareFunctionLessEqual
	}
	keep := hal.StencilFaceState{
		Compare:     gputypes.CompareFunctionAlways,
		FailOp:      hal.StencilOperationKeep,
		DepthFailOp: hal.StencilOperationKeep,
		PassOp:      hal.StencilOperationKeep,
	}

	rp, err := p.device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  fmt.Sprintf("line_pipeline_%v_depth=%t_blend=%t_tex=%t", key.colors, key.depthTest, key.blend, key.textured),
		Layout: layout,
		Vertex: hal.VertexState{
			Module:     shader,
			EntryPoint: vertexEntryPoint,
			Buffers:    lineVertexLayout(key.colors, key.textured),
		},
		Fragment: &hal.FragmentState{
			Module:     shader,
			EntryPoint: fragmentEntryPoint,
			Targets:    []gputypes.ColorTargetState{colorTarget, depthTarget},
		},
		DepthStencil: &hal.DepthStencilState{
			Format:            depthStencilFormat,
			DepthWriteEnabled: key.depthTest,
			DepthCompare:      compare,
			StencilFront:      keep,
			StencilBack:       keep,
			StencilReadMask:   0x00,
			StencilWriteMask:  0x00,
		},
		Primitive: gputypes.PrimitiveState{
			Topology: gputypes.PrimitiveTopologyTriangleList,
			CullMode: gputypes.CullModeNone,
		},
		Multisample: gputypes.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create line pipeline: %w", err)
	}
	p.pipelines[key] = rp
	slogger().Debug("gpu: pipeline created", "colors", key.colors,
		"depthTest", key.depthTest, "blend", key.blend, "textured", key.textured)
	return rp, nil
}

// destroy releases all pipeline resources in reverse creation order.
func (p *pipelineSet) destroy() {
	if p.device == nil {
		return
	}
	for key, rp := range p.pipelines {
		p.device.DestroyRenderPipeline(rp)
		delete(p.pipelines, key)
	}
	if p.sampler != nil {
		p.device.DestroySampler(p.sampler)
		p.sampler = nil
	}
	if p.uniformGroup != nil {
		p.device.DestroyBindGroup(p.uniformGroup)
		p.uniformGroup = nil
	}
	if p.uniformBuf != nil {
		p.device.DestroyBuffer(p.uniformBuf)
		p.uniformBuf = nil
	}
	if p.texturedPipeLayout != nil {
		p.device.DestroyPipelineLayout(p.texturedPipeLayout)
		p.texturedPipeLayout = nil
	}
	if p.pipeLayout != nil {
		p.device.DestroyPipelineLayout(p.pipeLayout)
		p.pipeLayout = nil
	}
	if p.textureLayout != nil {
		p.device.DestroyBindGroupLayout(p.textureLayout)
		p.textureLayout = nil
	}
	if p.uniformLayout != nil {
		p.device.DestroyBindGroupLayout(p.uniformLayout)
		p.uniformLayout = nil
	}
	if p.texturedShader != nil {
		p.device.DestroyShaderModule(p.texturedShader)
		p.texturedShader = nil
	}
	if p.shader != nil {
		p.device.DestroyShaderModule(p.shader)
		p.shader = nil
	}
}

// lineVertexLayout returns one buffer per attribute: positions at slot 0,
// colors at slot 1 and, for textured draws, texture coordinates at slot 2.
func lineVertexLayout(colors gputypes.VertexFormat, textured bool) []gputypes.VertexBufferLayout {
	layout := []gputypes.VertexBufferLayout{
		{
			ArrayStride: uint64(render.ElementSize(gputypes.VertexFormatFloat32x3)),
			StepMode:    gputypes.VertexStepModeVertex,
			Attributes: []gputypes.VertexAttribute{
				{Format: gputypes.VertexFormatFloat32x3, Offset: 0, ShaderLocation: 0}, // position
			},
		},
		{
			ArrayStride: uint64(render.ElementSize(colors)),
			StepMode:    gputypes.VertexStepModeVertex,
			Attributes: []gputypes.VertexAttribute{
				{Format: colors, Offset: 0, ShaderLocation: 1}, // color
			},
		},
	}
	if textured {
		layout = append(layout, gputypes.VertexBufferLayout{
			ArrayStride: uint64(render.ElementSize(gputypes.VertexFormatFloat32x2)),
			StepMode:    gputypes.VertexStepModeVertex,
			Attributes: []gputypes.VertexAttribute{
				{Format: gputypes.VertexFormatFloat32x2, Offset: 0, ShaderLocation: 2}, // uv
			},
		})
	}
	return layout
}

// clipDepth maps OpenGL clip depth [-w, w] to WebGPU's [0, w].
var clipDepth = mgl64.Mat4{
	1, 0, 0, 0,
	0, 1, 0, 0,
	0, 0, 0.5, 0,
	0, 0, 0.5, 1,
}

// encodeTransform returns the uniform block for an OpenGL-style clip
// transform as column-major float32.
func encodeTransform(m mgl64.Mat4) []byte {
	m = clipDepth.Mul4(m)
	buf := make([]byte, uniformSize)
	for i, v := range m {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(float32(v)))
	}
	return buf
}
