package ggline

import (
	"errors"
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/gogpu/ggline/render"
)

const fbSize = 64

// countingDevice records buffer traffic of a SoftwareDevice and can refuse
// textures.
type countingDevice struct {
	*render.SoftwareDevice

	creates, writes, destroys int
	noTextures                bool
}

func (d *countingDevice) CreateBuffer(desc *render.BufferDescriptor) (render.BufferID, error) {
	d.creates++
	return d.SoftwareDevice.CreateBuffer(desc)
}

func (d *countingDevice) WriteBuffer(id render.BufferID, data []byte) error {
	d.writes++
	return d.SoftwareDevice.WriteBuffer(id, data)
}

func (d *countingDevice) DestroyBuffer(id render.BufferID) {
	d.destroys++
	d.SoftwareDevice.DestroyBuffer(id)
}

func (d *countingDevice) CreateTexture(img *image.RGBA) (render.TextureID, error) {
	if d.noTextures {
		return render.InvalidID, render.ErrUnsupported
	}
	return d.SoftwareDevice.CreateTexture(img)
}

func newTestDevice(t *testing.T) *countingDevice {
	t.Helper()
	sw, err := render.NewSoftwareDevice(fbSize, fbSize)
	if err != nil {
		t.Fatal(err)
	}
	return &countingDevice{SoftwareDevice: sw}
}

func newTestContext(t *testing.T, opts ...ContextOption) (*Context, *countingDevice) {
	t.Helper()
	dev := newTestDevice(t)
	ctx := NewContext(dev, opts...)
	t.Cleanup(ctx.Close)
	return ctx, dev
}

// quad returns two counter-clockwise window-space triangles covering
// [x0,x1]x[y0,y1] at depth z.
func quad(x0, y0, x1, y1, z float32) []float32 {
	return []float32{
		x0, y0, z, x1, y0, z, x1, y1, z,
		x0, y0, z, x1, y1, z, x0, y1, z,
	}
}

func windowQuad(z float32, c Coloring) *Primitive {
	p := NewPrimitive(Triangles, quad(16, 16, 48, 48, z), c)
	p.Space = SpaceWindow
	return p
}

func fill(n int, g int32) []int32 {
	out := make([]int32, n)
	for i := range out {
		out[i] = g
	}
	return out
}

func closeTo(a, b uint8) bool {
	d := int(a) - int(b)
	return d >= -2 && d <= 2
}

func pixelIs(t *testing.T, dev render.Device, x, y int, want [4]uint8) {
	t.Helper()
	px, err := dev.ReadPixel(x, y)
	if err != nil {
		t.Fatalf("ReadPixel(%d, %d): %v", x, y, err)
	}
	for i := range want {
		if !closeTo(px.Color[i], want[i]) {
			t.Errorf("pixel (%d, %d) = %v, want %v", x, y, px.Color, want)
			return
		}
	}
}

func TestEngine_SelectQuad(t *testing.T) {
	ctx, _ := newTestContext(t)
	e := NewEngine()
	defer e.Close()

	p := windowQuad(0.5, SolidColor{Color: Red})
	p.Groups = fill(p.VertexCount(), 7)

	r, err := e.DrawWithSelection(ctx, p, 32, 32)
	if err != nil {
		t.Fatal(err)
	}
	if r.Index != 7 {
		t.Errorf("Index = %d, want 7", r.Index)
	}
	if math.Abs(r.Depth-0.5) > 1e-3 {
		t.Errorf("Depth = %v, want 0.5", r.Depth)
	}

	r, err = e.DrawWithSelection(ctx, p, 5, 5)
	if err != nil {
		t.Fatal(err)
	}
	if r.Hit() || r.Depth != 1 {
		t.Errorf("pick outside = %+v, want miss at depth 1", r)
	}
}

func TestEngine_SelectLineStrip(t *testing.T) {
	ctx, _ := newTestContext(t)
	e := NewEngine()
	defer e.Close()

	p := NewPrimitive(LineStrip, []float32{10, 10, 0.25, 50, 10, 0.25, 50, 50, 0.25}, SolidColor{Color: Black})
	p.Space = SpaceWindow
	p.LineWidth = 6

	tests := []struct {
		x, y int
		want int
	}{
		{30, 10, 0},
		{50, 30, 1},
		{30, 30, NoHit},
		{5, 10, NoHit},
	}
	for _, tt := range tests {
		r, err := e.DrawWithSelection(ctx, p, tt.x, tt.y)
		if err != nil {
			t.Fatal(err)
		}
		if r.Index != tt.want {
			t.Errorf("pick (%d, %d) = %d, want %d", tt.x, tt.y, r.Index, tt.want)
		}
	}
}

func TestEngine_SelectPoints(t *testing.T) {
	ctx, _ := newTestContext(t)
	e := NewEngine(WithDefaultPointSize(8))
	defer e.Close()

	p := NewPrimitive(Points, []float32{20, 20, 0.5, 40, 40, 0.5}, SolidColor{Color: Green})
	p.Space = SpaceWindow

	for _, tt := range []struct{ x, y, want int }{
		{20, 20, 0},
		{40, 40, 1},
		{30, 30, NoHit},
	} {
		r, err := e.DrawWithSelection(ctx, p, tt.x, tt.y)
		if err != nil {
			t.Fatal(err)
		}
		if r.Index != tt.want {
			t.Errorf("pick (%d, %d) = %d, want %d", tt.x, tt.y, r.Index, tt.want)
		}
	}
}

func TestEngine_SelectionResolvesDepth(t *testing.T) {
	ctx, _ := newTestContext(t)
	e := NewEngine()
	defer e.Close()

	var sel Selection[string]
	far := windowQuad(0.7, SolidColor{Color: Red})
	far.Groups = fill(far.VertexCount(), sel.Add("far"))
	near := windowQuad(0.2, SolidColor{Color: Blue})
	near.Groups = fill(near.VertexCount(), sel.Add("near"))

	for _, p := range []*Primitive{far, near} {
		r, err := e.DrawWithSelection(ctx, p, 32, 32)
		if err != nil {
			t.Fatal(err)
		}
		sel.Offer(r)
	}
	obj, r, ok := sel.Best()
	if !ok || obj != "near" {
		t.Errorf("Best() = %q, %+v, %v; want near", obj, r, ok)
	}
}

func TestEngine_DrawModes(t *testing.T) {
	ctx, dev := newTestContext(t, WithClearColor(White))
	e := NewEngine()
	defer e.Close()

	p := windowQuad(0.5, SolidColor{Color: Red})
	green := make(ByteColors, 0, 4*p.VertexCount())
	for range p.VertexCount() {
		green = append(green, 0, 255, 0, 255)
	}
	p.SetAlternativeColoring("ok", green)

	if err := ctx.Clear(); err != nil {
		t.Fatal(err)
	}
	pixelIs(t, dev, 32, 32, [4]uint8{255, 255, 255, 255})

	if err := e.Draw(ctx, p); err != nil {
		t.Fatalf("Draw: %v", err)
	}
	pixelIs(t, dev, 32, 32, [4]uint8{255, 0, 0, 255})
	pixelIs(t, dev, 5, 5, [4]uint8{255, 255, 255, 255})

	if err := e.DrawWithOverrideColor(ctx, p, Blue); err != nil {
		t.Fatalf("DrawWithOverrideColor: %v", err)
	}
	pixelIs(t, dev, 32, 32, [4]uint8{0, 0, 255, 255})

	if err := e.DrawWithAlternativeColor(ctx, p, "ok"); err != nil {
		t.Fatalf("DrawWithAlternativeColor: %v", err)
	}
	pixelIs(t, dev, 32, 32, [4]uint8{0, 255, 0, 255})
}

func TestEngine_DrawErrors(t *testing.T) {
	ctx, _ := newTestContext(t)
	e := NewEngine()
	defer e.Close()

	p := windowQuad(0.5, SolidColor{Color: Red})
	p.SetAlternativeColoring("short", FloatColors{1, 0, 0, 1})

	if err := e.DrawWithAlternativeColor(ctx, p, "missing"); !errors.Is(err, ErrUnknownColorSet) {
		t.Errorf("unknown set: err = %v, want ErrUnknownColorSet", err)
	}
	if err := e.DrawWithAlternativeColor(ctx, p, "short"); !errors.Is(err, ErrColorCount) {
		t.Errorf("short set: err = %v, want ErrColorCount", err)
	}

	bare := windowQuad(0.5, NoColor{})
	if err := e.Draw(ctx, bare); !errors.Is(err, ErrNoColoring) {
		t.Errorf("Draw without coloring: err = %v, want ErrNoColoring", err)
	}
	if err := e.DrawWithOverrideColor(ctx, bare, Red); err != nil {
		t.Errorf("override without coloring: %v", err)
	}
	// (40, 24) lies in the first triangle of the quad.
	if r, err := e.DrawWithSelection(ctx, bare, 40, 24); err != nil || r.Index != 0 {
		t.Errorf("select without coloring = %+v, %v; want index 0", r, err)
	}

	if _, err := e.DrawWithSelection(ctx, p, fbSize, 0); !errors.Is(err, render.ErrOutOfBounds) {
		t.Errorf("pick outside framebuffer: err = %v, want ErrOutOfBounds", err)
	}
	if _, err := e.DrawWithSelection(ctx, p, 0, -1); !errors.Is(err, render.ErrOutOfBounds) {
		t.Errorf("pick below framebuffer: err = %v, want ErrOutOfBounds", err)
	}
}

func TestEngine_ContextChecks(t *testing.T) {
	e := NewEngine()
	defer e.Close()
	p := windowQuad(0.5, SolidColor{Color: Red})

	if err := e.Draw(nil, p); !errors.Is(err, ErrNilContext) {
		t.Errorf("nil context: err = %v", err)
	}
	if err := e.Draw(NewContext(nil), p); !errors.Is(err, ErrNilContext) {
		t.Errorf("context without device: err = %v", err)
	}

	closed, _ := newTestContext(t)
	closed.Close()
	if err := e.Draw(closed, p); !errors.Is(err, ErrContextClosed) {
		t.Errorf("closed context: err = %v", err)
	}

	empty, _ := newTestContext(t, WithView(View{}))
	if _, err := e.DrawWithSelection(empty, p, 1, 1); !errors.Is(err, ErrNoViewport) {
		t.Errorf("empty viewport: err = %v", err)
	}
}

func TestEngine_ContextMismatch(t *testing.T) {
	ctx1, _ := newTestContext(t)
	ctx2, dev2 := newTestContext(t)
	e := NewEngine()
	defer e.Close()

	p := windowQuad(0.5, SolidColor{Color: Red})
	if err := e.Draw(ctx1, p); err != nil {
		t.Fatal(err)
	}
	if err := e.Draw(ctx2, p); !errors.Is(err, ErrContextMismatch) {
		t.Fatalf("draw through second context: err = %v, want ErrContextMismatch", err)
	}

	e.Release(p)
	if err := e.Draw(ctx2, p); err != nil {
		t.Fatalf("draw after Release: %v", err)
	}
	pixelIs(t, dev2, 32, 32, [4]uint8{255, 0, 0, 255})
}

func TestEngine_SkippedPrimitiveNotBoundToContext(t *testing.T) {
	ctx1, dev1 := newTestContext(t)
	ctx2, dev2 := newTestContext(t)
	e := NewEngine()
	defer e.Close()

	p := NewPrimitive(LineStrip, []float32{5, 5, 0, 5, 5, 0}, SolidColor{Color: Red})
	p.Space = SpaceWindow
	if err := e.Draw(ctx1, p); err != nil {
		t.Fatalf("degenerate draw through first context = %v, want silent skip", err)
	}
	if err := e.Draw(ctx2, p); err != nil {
		t.Fatalf("degenerate draw through second context = %v, want silent skip", err)
	}
	if dev1.creates != 0 || dev2.creates != 0 {
		t.Errorf("creates = %d, %d; want 0, 0", dev1.creates, dev2.creates)
	}

	p.Positions = []float32{5, 5, 0, 40, 5, 0}
	if err := e.Draw(ctx2, p); err != nil {
		t.Fatalf("draw through second context after skip: %v", err)
	}
	if dev2.creates == 0 {
		t.Error("second context created no buffers")
	}
	if err := e.Draw(ctx1, p); !errors.Is(err, ErrContextMismatch) {
		t.Errorf("draw through first context after bind: err = %v, want ErrContextMismatch", err)
	}
}

func TestEngine_SkipsUnusablePrimitives(t *testing.T) {
	ctx, dev := newTestContext(t)
	e := NewEngine()
	defer e.Close()

	partial := &Primitive{Topology: Triangles, Positions: []float32{1, 2, 3, 4}, Coloring: SolidColor{Color: Red}}
	twoVerts := NewPrimitive(Triangles, []float32{0, 0, 0, 1, 1, 0}, SolidColor{Color: Red})
	coincident := NewPrimitive(LineStrip, []float32{5, 5, 0, 5, 5, 0}, SolidColor{Color: Red})
	coincident.Space = SpaceWindow
	badGroups := windowQuad(0.5, SolidColor{Color: Red})
	badGroups.Groups = fill(badGroups.VertexCount(), -1)

	for _, p := range []*Primitive{partial, twoVerts, coincident, badGroups} {
		if err := e.Draw(ctx, p); err != nil {
			t.Errorf("Draw(%v) = %v, want silent skip", p.Topology, err)
		}
		r, err := e.DrawWithSelection(ctx, p, 5, 5)
		if err != nil || r.Hit() {
			t.Errorf("DrawWithSelection(%v) = %+v, %v; want miss", p.Topology, r, err)
		}
	}
	if dev.creates != 0 {
		t.Errorf("created %d buffers for skipped primitives", dev.creates)
	}
}

func TestEngine_BufferReuse(t *testing.T) {
	ctx, dev := newTestContext(t)
	e := NewEngine()

	p := windowQuad(0.5, SolidColor{Color: Red})
	if err := e.Draw(ctx, p); err != nil {
		t.Fatal(err)
	}
	if dev.creates != 2 {
		t.Fatalf("first draw created %d buffers, want 2 (positions, colors)", dev.creates)
	}
	if err := e.Draw(ctx, p); err != nil {
		t.Fatal(err)
	}
	if dev.creates != 2 || dev.writes != 0 {
		t.Errorf("second draw: creates=%d writes=%d, want no traffic", dev.creates, dev.writes)
	}

	// Same layout: positions are rewritten in place.
	p.Positions = quad(0, 0, 16, 16, 0.5)
	e.InvalidateCoordinates(p)
	if err := ctx.Clear(); err != nil {
		t.Fatal(err)
	}
	if err := e.Draw(ctx, p); err != nil {
		t.Fatal(err)
	}
	if dev.creates != 2 || dev.writes != 1 {
		t.Errorf("after InvalidateCoordinates: creates=%d writes=%d, want 2 and 1", dev.creates, dev.writes)
	}
	pixelIs(t, dev, 8, 8, [4]uint8{255, 0, 0, 255})
	pixelIs(t, dev, 32, 32, [4]uint8{})

	// New colors go into the existing color buffer.
	p.Coloring = SolidColor{Color: Green}
	e.InvalidateColors(p)
	if err := e.Draw(ctx, p); err != nil {
		t.Fatal(err)
	}
	if dev.creates != 2 || dev.writes != 2 {
		t.Errorf("after InvalidateColors: creates=%d writes=%d, want 2 and 2", dev.creates, dev.writes)
	}
	pixelIs(t, dev, 8, 8, [4]uint8{0, 255, 0, 255})

	// A third triangle changes the layout: both buffers are replaced.
	p.Positions = append(p.Positions, 40, 40, 0.5, 60, 40, 0.5, 60, 60, 0.5)
	e.InvalidateCoordinates(p)
	if err := e.Draw(ctx, p); err != nil {
		t.Fatal(err)
	}
	if dev.creates != 4 || dev.destroys != 2 {
		t.Errorf("after layout change: creates=%d destroys=%d, want 4 and 2", dev.creates, dev.destroys)
	}

	e.Close()
	if live := dev.creates - dev.destroys; live != 0 {
		t.Errorf("%d buffers alive after Close", live)
	}
}

func TestEngine_AlternativeColoringCached(t *testing.T) {
	ctx, dev := newTestContext(t)
	e := NewEngine()
	defer e.Close()

	p := windowQuad(0.5, SolidColor{Color: Red})
	p.SetAlternativeColoring("alt", encodeTestColors(p.VertexCount(), Blue))

	for range 3 {
		if err := e.DrawWithAlternativeColor(ctx, p, "alt"); err != nil {
			t.Fatal(err)
		}
	}
	if dev.creates != 2 {
		t.Errorf("creates = %d, want 2 (positions, alternative)", dev.creates)
	}

	p.SetAlternativeColoring("alt", encodeTestColors(p.VertexCount(), Green))
	e.InvalidateColors(p)
	if err := e.DrawWithAlternativeColor(ctx, p, "alt"); err != nil {
		t.Fatal(err)
	}
	pixelIs(t, dev, 32, 32, [4]uint8{0, 255, 0, 255})
}

func encodeTestColors(n int, c RGBA) FloatColors {
	out := make(FloatColors, 0, 4*n)
	f := c.float32s()
	for range n {
		out = append(out, f[:]...)
	}
	return out
}

func TestEngine_Texture(t *testing.T) {
	texture := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for y := range 4 {
		for x := range 4 {
			texture.Set(x, y, color.RGBA{G: 255, A: 255})
		}
	}
	uvs := []float32{0, 0, 1, 0, 1, 1, 0, 0, 1, 1, 0, 1}

	tests := []struct {
		name       string
		noTextures bool
		want       [4]uint8
	}{
		{"sampled", false, [4]uint8{0, 255, 0, 255}},
		{"unsupported falls back", true, [4]uint8{255, 255, 255, 255}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, dev := newTestContext(t)
			dev.noTextures = tt.noTextures
			e := NewEngine()
			defer e.Close()

			p := windowQuad(0.5, SolidColor{Color: White})
			p.TexCoords = uvs
			p.Texture = texture
			if err := e.Draw(ctx, p); err != nil {
				t.Fatal(err)
			}
			pixelIs(t, dev, 32, 32, tt.want)
		})
	}
}

func TestEngine_ModelSpace(t *testing.T) {
	view := View{
		ModelView:  mgl64.Ident4(),
		Projection: mgl64.Ortho(-1, 1, -1, 1, -1, 1),
		Viewport:   Viewport{Width: fbSize, Height: fbSize},
	}
	ctx, dev := newTestContext(t, WithView(view))
	e := NewEngine()
	defer e.Close()

	p := NewPrimitive(Triangles, quad(-0.5, -0.5, 0.5, 0.5, 0), SolidColor{Color: Red})
	p.Groups = fill(p.VertexCount(), 3)
	if err := e.Draw(ctx, p); err != nil {
		t.Fatal(err)
	}
	pixelIs(t, dev, 32, 32, [4]uint8{255, 0, 0, 255})
	pixelIs(t, dev, 5, 5, [4]uint8{})

	// Moving the viewport to the left half moves the quad with it.
	half := view
	half.Viewport = Viewport{Width: fbSize / 2, Height: fbSize}
	ctx.SetView(half)
	r, err := e.DrawWithSelection(ctx, p, 16, 32)
	if err != nil {
		t.Fatal(err)
	}
	if r.Index != 3 {
		t.Errorf("pick inside moved quad = %d, want 3", r.Index)
	}
	if r, _ := e.DrawWithSelection(ctx, p, 44, 32); r.Hit() {
		t.Errorf("pick right of moved quad = %d, want NoHit", r.Index)
	}
}

func TestEngine_ModelSpaceLineFollowsView(t *testing.T) {
	view := View{
		ModelView:  mgl64.Ident4(),
		Projection: mgl64.Ortho(-1, 1, -1, 1, -1, 1),
		Viewport:   Viewport{Width: fbSize, Height: fbSize},
	}
	ctx, dev := newTestContext(t, WithView(view))
	e := NewEngine()
	defer e.Close()

	p := NewPrimitive(Lines, []float32{-0.5, 0, 0, 0.5, 0, 0}, SolidColor{Color: Red})
	p.LineWidth = 4

	if r, err := e.DrawWithSelection(ctx, p, 32, 32); err != nil || r.Index != 0 {
		t.Fatalf("pick on line = %+v, %v", r, err)
	}
	creates := dev.creates

	moved := view
	moved.ModelView = mgl64.Translate3D(0, 0.5, 0)
	ctx.SetView(moved)
	if r, _ := e.DrawWithSelection(ctx, p, 32, 32); r.Hit() {
		t.Errorf("pick at old line position = %d, want NoHit", r.Index)
	}
	if r, _ := e.DrawWithSelection(ctx, p, 32, 48); r.Index != 0 {
		t.Errorf("pick at moved line = %d, want 0", r.Index)
	}
	if dev.creates != creates {
		t.Errorf("view change created %d buffers, want rewrite in place", dev.creates-creates)
	}
}
