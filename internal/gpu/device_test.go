//go:build !nogpu

package gpu

import (
	"encoding/binary"
	"errors"
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"

	"github.com/gogpu/ggline/render"
)

// countingDevice records resource traffic on top of the noop backend.
type countingDevice struct {
	hal.Device
	pipelines int
	buffers   int
	destroyed int
}

func (c *countingDevice) CreateRenderPipeline(desc *hal.RenderPipelineDescriptor) (hal.RenderPipeline, error) {
	c.pipelines++
	return c.Device.CreateRenderPipeline(desc)
}

func (c *countingDevice) CreateBuffer(desc *hal.BufferDescriptor) (hal.Buffer, error) {
	c.buffers++
	return c.Device.CreateBuffer(desc)
}

func (c *countingDevice) DestroyBuffer(b hal.Buffer) {
	c.destroyed++
	c.Device.DestroyBuffer(b)
}

func openNoop(t *testing.T) (*countingDevice, hal.Queue) {
	t.Helper()
	instance, err := noop.API{}.CreateInstance(nil)
	if err != nil {
		t.Fatalf("CreateInstance: %v", err)
	}
	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		t.Fatal("noop backend exposes no adapter")
	}
	open, err := adapters[0].Adapter.Open(0, gputypes.DefaultLimits())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return &countingDevice{Device: open.Device}, open.Queue
}

func newTestDevice(t *testing.T) (*Device, *countingDevice) {
	t.Helper()
	hd, q := openNoop(t)
	d, err := NewDevice(hd, q, 32, 16)
	if err != nil {
		t.Fatalf("NewDevice: %v", err)
	}
	t.Cleanup(d.Close)
	return d, hd
}

func floatBytes(v ...float32) []byte {
	return render.Float32Bytes(v)
}

// triangle creates position and color buffers for one triangle.
func triangle(t *testing.T, d *Device) (pos, col render.BufferID) {
	t.Helper()
	pos, err := d.CreateBuffer(&render.BufferDescriptor{
		Kind:   render.BufferPositions,
		Format: gputypes.VertexFormatFloat32x3,
		Data:   floatBytes(0, 0, 0, 10, 0, 0, 0, 10, 0),
	})
	if err != nil {
		t.Fatal(err)
	}
	col, err = d.CreateBuffer(&render.BufferDescriptor{
		Kind:   render.BufferColors,
		Format: gputypes.VertexFormatUnorm8x4,
		Data:   []byte{255, 0, 0, 255, 255, 0, 0, 255, 255, 0, 0, 255},
	})
	if err != nil {
		t.Fatal(err)
	}
	return pos, col
}

func TestNewDevice_Errors(t *testing.T) {
	if _, err := NewDevice(nil, nil, 8, 8); !errors.Is(err, ErrNoDevice) {
		t.Errorf("NewDevice(nil) err = %v, want ErrNoDevice", err)
	}
	hd, q := openNoop(t)
	if _, err := NewDevice(hd, q, 0, 8); err == nil {
		t.Error("NewDevice with zero width should fail")
	}
}

func TestDevice_Size(t *testing.T) {
	d, _ := newTestDevice(t)
	if w, h := d.Size(); w != 32 || h != 16 {
		t.Errorf("Size() = %dx%d, want 32x16", w, h)
	}
}

func TestDevice_Buffers(t *testing.T) {
	d, hd := newTestDevice(t)
	base := hd.buffers

	if _, err := d.CreateBuffer(&render.BufferDescriptor{}); !errors.Is(err, render.ErrEmptyBuffer) {
		t.Errorf("CreateBuffer(empty) err = %v, want ErrEmptyBuffer", err)
	}
	pos, _ := triangle(t, d)
	if got := hd.buffers - base; got != 2 {
		t.Errorf("buffers created = %d, want 2", got)
	}

	// Same size reuses the allocation.
	if err := d.WriteBuffer(pos, floatBytes(1, 1, 0, 9, 1, 0, 1, 9, 0)); err != nil {
		t.Fatal(err)
	}
	if got := hd.buffers - base; got != 2 {
		t.Errorf("buffers after same-size write = %d, want 2", got)
	}

	// Larger data reallocates and releases the old buffer.
	destroyed := hd.destroyed
	if err := d.WriteBuffer(pos, floatBytes(make([]float32, 18)...)); err != nil {
		t.Fatal(err)
	}
	if got := hd.buffers - base; got != 3 {
		t.Errorf("buffers after growing write = %d, want 3", got)
	}
	if hd.destroyed != destroyed+1 {
		t.Errorf("destroyed = %d, want %d", hd.destroyed, destroyed+1)
	}

	if err := d.WriteBuffer(999, []byte{1, 2, 3, 4}); !errors.Is(err, render.ErrUnknownBuffer) {
		t.Errorf("WriteBuffer(unknown) err = %v, want ErrUnknownBuffer", err)
	}
	d.DestroyBuffer(pos)
	d.DestroyBuffer(pos)
	if err := d.WriteBuffer(pos, []byte{1, 2, 3, 4}); !errors.Is(err, render.ErrUnknownBuffer) {
		t.Errorf("WriteBuffer(destroyed) err = %v, want ErrUnknownBuffer", err)
	}
}

func TestDevice_DrawValidation(t *testing.T) {
	d, _ := newTestDevice(t)
	pos, col := triangle(t, d)

	tests := []struct {
		name string
		cmd  render.DrawCommand
		want error
	}{
		{"ok", render.DrawCommand{VertexCount: 3, Positions: pos, Colors: col, ColorFormat: gputypes.VertexFormatUnorm8x4}, nil},
		{"not triangles", render.DrawCommand{VertexCount: 2, Positions: pos, Colors: col, ColorFormat: gputypes.VertexFormatUnorm8x4}, render.ErrInvalidDraw},
		{"unknown positions", render.DrawCommand{VertexCount: 3, Positions: 999, Colors: col, ColorFormat: gputypes.VertexFormatUnorm8x4}, render.ErrUnknownBuffer},
		{"wrong color format", render.DrawCommand{VertexCount: 3, Positions: pos, Colors: col, ColorFormat: gputypes.VertexFormatFloat32x4}, render.ErrInvalidDraw},
		{"too few vertices", render.DrawCommand{VertexCount: 6, Positions: pos, Colors: col, ColorFormat: gputypes.VertexFormatUnorm8x4}, render.ErrInvalidDraw},
		{"unknown texture", render.DrawCommand{VertexCount: 3, Positions: pos, Colors: col, ColorFormat: gputypes.VertexFormatUnorm8x4, TexCoords: pos, Texture: 999}, render.ErrUnknownTexture},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.cmd.Transform = mgl64.Ident4()
			if err := d.Draw(&tt.cmd); !errors.Is(err, tt.want) {
				t.Errorf("Draw() err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestDevice_PipelineCache(t *testing.T) {
	d, hd := newTestDevice(t)
	pos, col := triangle(t, d)
	cmd := render.DrawCommand{
		Transform:   mgl64.Ident4(),
		VertexCount: 3,
		Positions:   pos,
		Colors:      col,
		ColorFormat: gputypes.VertexFormatUnorm8x4,
		DepthTest:   true,
	}
	for range 3 {
		if err := d.Draw(&cmd); err != nil {
			t.Fatal(err)
		}
	}
	if hd.pipelines != 1 {
		t.Errorf("pipelines = %d after identical draws, want 1", hd.pipelines)
	}
	cmd.Blend = true
	if err := d.Draw(&cmd); err != nil {
		t.Fatal(err)
	}
	if hd.pipelines != 2 {
		t.Errorf("pipelines = %d after blend change, want 2", hd.pipelines)
	}
}

func TestDevice_Texture(t *testing.T) {
	d, _ := newTestDevice(t)
	if _, err := d.CreateTexture(nil); err == nil {
		t.Error("CreateTexture(nil) should fail")
	}

	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	for i := range 4 {
		img.Set(i%2, i/2, color.RGBA{0, 255, 0, 255})
	}
	tex, err := d.CreateTexture(img)
	if err != nil {
		t.Fatal(err)
	}
	pos, col := triangle(t, d)
	uvs, err := d.CreateBuffer(&render.BufferDescriptor{
		Kind:   render.BufferTexCoords,
		Format: gputypes.VertexFormatFloat32x2,
		Data:   floatBytes(0, 0, 1, 0, 0, 1),
	})
	if err != nil {
		t.Fatal(err)
	}
	err = d.Draw(&render.DrawCommand{
		Transform:   mgl64.Ident4(),
		VertexCount: 3,
		Positions:   pos,
		Colors:      col,
		ColorFormat: gputypes.VertexFormatUnorm8x4,
		TexCoords:   uvs,
		Texture:     tex,
	})
	if err != nil {
		t.Errorf("textured Draw() = %v", err)
	}
	d.DestroyTexture(tex)
	d.DestroyTexture(tex)
}

func TestDevice_ReadPixel(t *testing.T) {
	d, _ := newTestDevice(t)
	for _, p := range [][2]int{{-1, 0}, {0, -1}, {32, 0}, {0, 16}} {
		if _, err := d.ReadPixel(p[0], p[1]); !errors.Is(err, render.ErrOutOfBounds) {
			t.Errorf("ReadPixel(%d, %d) err = %v, want ErrOutOfBounds", p[0], p[1], err)
		}
	}
	// The noop backend never rasterizes; the staging buffer reads back zero.
	px, err := d.ReadPixel(31, 15)
	if err != nil {
		t.Fatal(err)
	}
	if px.Color != ([4]uint8{}) {
		t.Errorf("ReadPixel color = %v, want zero", px.Color)
	}
}

func TestDevice_Closed(t *testing.T) {
	d, hd := newTestDevice(t)
	triangle(t, d)
	d.Close()
	d.Close()

	if err := d.Clear([4]float64{1, 1, 1, 1}); !errors.Is(err, ErrClosed) {
		t.Errorf("Clear() after Close = %v, want ErrClosed", err)
	}
	if _, err := d.CreateBuffer(&render.BufferDescriptor{Data: []byte{1, 2, 3, 4}}); !errors.Is(err, ErrClosed) {
		t.Errorf("CreateBuffer() after Close = %v, want ErrClosed", err)
	}
	if _, err := d.ReadPixel(0, 0); !errors.Is(err, ErrClosed) {
		t.Errorf("ReadPixel() after Close = %v, want ErrClosed", err)
	}
	// Vertex buffers, the uniform buffer and nothing else.
	if hd.destroyed != 3 {
		t.Errorf("destroyed buffers = %d, want 3", hd.destroyed)
	}
}

func TestEncodeTransform(t *testing.T) {
	buf := encodeTransform(mgl64.Ident4())
	if len(buf) != uniformSize {
		t.Fatalf("len = %d, want %d", len(buf), uniformSize)
	}
	at := func(i int) float32 { return math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:])) }

	// GL depth -1..1 maps to 0..1: z' = 0.5z + 0.5w.
	want := map[int]float32{0: 1, 5: 1, 10: 0.5, 14: 0.5, 15: 1, 3: 0, 11: 0}
	for i, w := range want {
		if got := at(i); got != w {
			t.Errorf("element %d = %v, want %v", i, got, w)
		}
	}
}

func TestUnpremultiply(t *testing.T) {
	tests := []struct {
		in, want [4]uint8
	}{
		{[4]uint8{0, 0, 0, 0}, [4]uint8{0, 0, 0, 0}},
		{[4]uint8{10, 20, 30, 0}, [4]uint8{0, 0, 0, 0}},
		{[4]uint8{255, 1, 3, 255}, [4]uint8{255, 1, 3, 255}},
		{[4]uint8{64, 0, 128, 128}, [4]uint8{128, 0, 255, 128}},
	}
	for _, tt := range tests {
		if got := unpremultiply(tt.in); got != tt.want {
			t.Errorf("unpremultiply(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestPadCopy(t *testing.T) {
	if got := alignCopy(5); got != 8 {
		t.Errorf("alignCopy(5) = %d, want 8", got)
	}
	data := []byte{1, 2, 3, 4}
	if got := padCopy(data); &got[0] != &data[0] {
		t.Error("padCopy copied aligned data")
	}
	if got := padCopy([]byte{1, 2, 3, 4, 5}); len(got) != 8 || got[4] != 5 || got[7] != 0 {
		t.Errorf("padCopy = %v", got)
	}
}

func TestTightRGBA(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for i := range img.Pix {
		img.Pix[i] = uint8(i)
	}
	sub := img.SubImage(image.Rect(1, 1, 3, 3)).(*image.RGBA)
	got := tightRGBA(sub)
	if len(got) != 2*2*4 {
		t.Fatalf("len = %d, want 16", len(got))
	}
	// Row 1, column 1 of a 4-wide image starts at byte 20.
	if got[0] != 20 || got[8] != 36 {
		t.Errorf("tightRGBA rows start with %d and %d, want 20 and 36", got[0], got[8])
	}
}
