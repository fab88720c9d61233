package ggline

import (
	"errors"
	"fmt"
	"slices"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/ggline/render"
)

type drawMode int

const (
	modeNormal drawMode = iota
	modeOverride
	modeAlternative
	modeSelection
)

// String returns the string representation of drawMode.
func (m drawMode) String() string {
	switch m {
	case modeNormal:
		return "normal"
	case modeOverride:
		return "override"
	case modeAlternative:
		return "alternative"
	case modeSelection:
		return "selection"
	default:
		return fmt.Sprintf("Unknown(%d)", int(m))
	}
}

type bindState int

const (
	stateUnbound bindState = iota
	stateBound
	stateDestroyed
)

// String returns the string representation of bindState.
func (s bindState) String() string {
	switch s {
	case stateUnbound:
		return "Unbound"
	case stateBound:
		return "Bound"
	case stateDestroyed:
		return "Destroyed"
	default:
		return fmt.Sprintf("Unknown(%d)", int(s))
	}
}

// primitiveState holds the device resources of one primitive.
type primitiveState struct {
	handle Handle
	ctxID  uint64
	dev    render.Device
	status bindState

	mesh *meshData
	key  geometryKey

	positions *render.Buffer
	colors    *render.Buffer
	normals   *render.Buffer
	texcoords *render.Buffer
	pick      *render.Buffer

	alternatives map[ColorSetID]*render.Buffer

	texture      render.TextureID
	textureTried bool

	coordsDirty bool
	colorsDirty bool
}

// dropDerived releases every buffer whose contents follow the expanded
// vertex layout, except positions.
func (s *primitiveState) dropDerived() {
	for _, b := range []*render.Buffer{s.colors, s.normals, s.texcoords, s.pick} {
		b.Destroy()
	}
	s.colors, s.normals, s.texcoords, s.pick = nil, nil, nil, nil
	s.dropAlternatives()
}

func (s *primitiveState) dropAlternatives() {
	for id, b := range s.alternatives {
		b.Destroy()
		delete(s.alternatives, id)
	}
}

func (s *primitiveState) release() {
	s.dropDerived()
	s.positions.Destroy()
	s.positions = nil
	if s.texture != render.InvalidID {
		s.dev.DestroyTexture(s.texture)
		s.texture = render.InvalidID
	}
	s.mesh = nil
	s.status = stateDestroyed
}

// Engine uploads primitives to device buffers and draws them in normal,
// override-color, alternative-color and selection modes.
//
// Buffers are created lazily on the first draw of a primitive and reused
// until the primitive is invalidated or released. Engine is not safe for
// concurrent use.
type Engine struct {
	opts   engineOptions
	states map[Handle]*primitiveState
}

// NewEngine creates an Engine.
func NewEngine(opts ...EngineOption) *Engine {
	o := defaultEngineOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Engine{
		opts:   o,
		states: make(map[Handle]*primitiveState),
	}
}

// Draw draws p with its primary coloring and, when present, its texture.
// An invalid primitive is skipped without error. A primitive with NoColor
// fails with ErrNoColoring.
func (e *Engine) Draw(ctx *Context, p *Primitive) error {
	st, err := e.prepare(ctx, p, modeNormal)
	if st == nil || err != nil {
		return err
	}

	if st.colors == nil || st.colorsDirty {
		data, format, err := encodeColoring(coloringOf(p), st.mesh.src)
		if err != nil {
			return e.fail(modeNormal, p, err)
		}
		st.colors, err = upload(ctx.dev, st.colors, &render.BufferDescriptor{
			Label:  "colors",
			Kind:   render.BufferColors,
			Format: format,
			Usage:  p.Usage.renderUsage(),
			Data:   data,
		})
		if err != nil {
			return e.fail(modeNormal, p, err)
		}
		st.colorsDirty = false
	}

	return e.submit(ctx, st, st.colors, e.texture(ctx, p, st), true)
}

// DrawWithOverrideColor draws every vertex of p with c, ignoring its
// colorings and texture. The color buffer lives for this call only.
func (e *Engine) DrawWithOverrideColor(ctx *Context, p *Primitive, c RGBA) error {
	st, err := e.prepare(ctx, p, modeOverride)
	if st == nil || err != nil {
		return err
	}

	buf, err := render.NewBuffer(ctx.dev, &render.BufferDescriptor{
		Label:  "override colors",
		Kind:   render.BufferColors,
		Format: gputypes.VertexFormatFloat32x4,
		Usage:  render.UsageStream,
		Data:   encodeSolid(c, st.mesh.vertexCount()),
	})
	if err != nil {
		return e.fail(modeOverride, p, err)
	}
	defer buf.Destroy()

	return e.submit(ctx, st, buf, render.InvalidID, true)
}

// DrawWithAlternativeColor draws p with the coloring registered under id
// by SetAlternativeColoring. The coloring is uploaded on first use.
func (e *Engine) DrawWithAlternativeColor(ctx *Context, p *Primitive, id ColorSetID) error {
	st, err := e.prepare(ctx, p, modeAlternative)
	if st == nil || err != nil {
		return err
	}

	c, ok := p.AlternativeColoring(id)
	if !ok {
		return e.fail(modeAlternative, p, fmt.Errorf("%w: %q", ErrUnknownColorSet, id))
	}
	if err := checkColoring(c, p.VertexCount()); err != nil {
		return e.fail(modeAlternative, p, fmt.Errorf("color set %q: %w", id, err))
	}

	buf := st.alternatives[id]
	if buf == nil {
		data, format, err := encodeColoring(c, st.mesh.src)
		if err != nil {
			return e.fail(modeAlternative, p, fmt.Errorf("color set %q: %w", id, err))
		}
		buf, err = render.NewBuffer(ctx.dev, &render.BufferDescriptor{
			Label:  "colors " + string(id),
			Kind:   render.BufferColors,
			Format: format,
			Usage:  p.Usage.renderUsage(),
			Data:   data,
		})
		if err != nil {
			return e.fail(modeAlternative, p, err)
		}
		if st.alternatives == nil {
			st.alternatives = make(map[ColorSetID]*render.Buffer)
		}
		st.alternatives[id] = buf
	}

	return e.submit(ctx, st, buf, render.InvalidID, true)
}

// DrawWithSelection clears the framebuffer, draws p with each drawable
// unit colored by its pick group, and decodes the pixel at window (x, y),
// origin bottom-left. The result's Index is NoHit when nothing covers the
// pixel.
//
// Overlapping primitives are resolved across calls by comparing
// PickResult.Depth; see Selection.
func (e *Engine) DrawWithSelection(ctx *Context, p *Primitive, x, y int) (PickResult, error) {
	miss := PickResult{Index: NoHit, Depth: 1}

	st, err := e.prepare(ctx, p, modeSelection)
	if st == nil || err != nil {
		return miss, err
	}
	if w, h := ctx.dev.Size(); x < 0 || y < 0 || x >= w || y >= h {
		return miss, fmt.Errorf("ggline: pick at (%d, %d): %w", x, y, render.ErrOutOfBounds)
	}

	if st.pick == nil {
		st.pick, err = render.NewBuffer(ctx.dev, &render.BufferDescriptor{
			Label:  "pick colors",
			Kind:   render.BufferColors,
			Format: gputypes.VertexFormatUnorm8x4,
			Usage:  p.Usage.renderUsage(),
			Data:   encodeGroups(st.mesh.groups),
		})
		if err != nil {
			return miss, e.fail(modeSelection, p, err)
		}
	}

	if err := ctx.dev.Clear([4]float64{}); err != nil {
		return miss, e.fail(modeSelection, p, err)
	}
	if err := e.submit(ctx, st, st.pick, render.InvalidID, false); err != nil {
		return miss, err
	}
	px, err := ctx.dev.ReadPixel(x, y)
	if err != nil {
		return miss, e.fail(modeSelection, p, err)
	}

	idx := decodePick(px.Color)
	if idx == NoHit {
		return miss, nil
	}
	return PickResult{Index: idx, Depth: px.Depth}, nil
}

// InvalidateCoordinates marks p's positions as changed. Only the position
// buffer is re-uploaded on the next draw, unless the vertex layout changes.
func (e *Engine) InvalidateCoordinates(p *Primitive) {
	if st, ok := e.states[p.Handle()]; ok {
		st.coordsDirty = true
	}
}

// InvalidateColors marks p's primary and alternative colorings as changed.
func (e *Engine) InvalidateColors(p *Primitive) {
	if st, ok := e.states[p.Handle()]; ok {
		st.colorsDirty = true
		st.dropAlternatives()
	}
}

// Release destroys p's device resources. A later draw uploads them again,
// possibly through a different context.
func (e *Engine) Release(p *Primitive) {
	h := p.Handle()
	if st, ok := e.states[h]; ok {
		st.release()
		delete(e.states, h)
	}
}

// Close releases the resources of every primitive.
func (e *Engine) Close() {
	for h, st := range e.states {
		st.release()
		delete(e.states, h)
	}
}

// prepare validates the call and brings p's position buffer up to date.
// A nil state with a nil error means the draw is skipped.
func (e *Engine) prepare(ctx *Context, p *Primitive, mode drawMode) (*primitiveState, error) {
	if err := ctx.check(); err != nil {
		Logger().Error("ggline: draw rejected", "mode", mode, "err", err)
		return nil, err
	}
	if err := p.Validate(); err != nil {
		Logger().Debug("ggline: skipping invalid primitive", "mode", mode, "err", err)
		return nil, nil
	}

	h := p.Handle()
	st, ok := e.states[h]
	if !ok {
		st = &primitiveState{handle: h, ctxID: ctx.id, dev: ctx.dev}
		e.states[h] = st
	} else if st.ctxID != ctx.id {
		return nil, e.fail(mode, p, fmt.Errorf("%w: bound to context %d, drawn through %d",
			ErrContextMismatch, st.ctxID, ctx.id))
	}

	if err := e.bind(ctx, p, st); err != nil {
		// A primitive that never bound is not tied to ctx.
		if !ok {
			st.release()
			delete(e.states, h)
		}
		var te *TessellationError
		if errors.As(err, &te) || errors.Is(err, errEmptyMesh) {
			Logger().Debug("ggline: skipping degenerate primitive", "mode", mode, "handle", h, "err", err)
			return nil, nil
		}
		return nil, e.fail(mode, p, err)
	}
	return st, nil
}

// bind expands p when its geometry is stale and uploads positions. The
// first bind also uploads normals and texture coordinates.
func (e *Engine) bind(ctx *Context, p *Primitive, st *primitiveState) error {
	key := e.geometryKey(p, ctx.view)
	if st.status == stateBound && !st.coordsDirty && key == st.key {
		return nil
	}

	m, err := e.expand(p, ctx.view)
	if err != nil {
		return err
	}
	layoutChanged := st.mesh == nil ||
		!slices.Equal(st.mesh.src, m.src) ||
		!slices.Equal(st.mesh.groups, m.groups)

	st.positions, err = upload(ctx.dev, st.positions, &render.BufferDescriptor{
		Label:  "positions",
		Kind:   render.BufferPositions,
		Format: gputypes.VertexFormatFloat32x3,
		Usage:  p.Usage.renderUsage(),
		Data:   render.Float32Bytes(m.positions),
	})
	if err != nil {
		return err
	}
	st.mesh, st.key, st.coordsDirty = m, key, false
	if layoutChanged {
		st.dropDerived()
	}

	if p.Normals != nil && st.normals == nil && !m.window {
		st.normals, err = render.NewBuffer(ctx.dev, &render.BufferDescriptor{
			Label:  "normals",
			Kind:   render.BufferNormals,
			Format: gputypes.VertexFormatFloat32x3,
			Usage:  p.Usage.renderUsage(),
			Data:   render.Float32Bytes(selectFloats(p.Normals, 3, m.src)),
		})
		if err != nil {
			return err
		}
	}
	if p.TexCoords != nil && st.texcoords == nil {
		st.texcoords, err = render.NewBuffer(ctx.dev, &render.BufferDescriptor{
			Label:  "texcoords",
			Kind:   render.BufferTexCoords,
			Format: gputypes.VertexFormatFloat32x2,
			Usage:  p.Usage.renderUsage(),
			Data:   render.Float32Bytes(selectFloats(p.TexCoords, 2, m.src)),
		})
		if err != nil {
			return err
		}
	}

	Logger().Debug("ggline: primitive bound",
		"handle", st.handle,
		"topology", p.Topology,
		"vertices", m.vertexCount(),
		"layoutChanged", layoutChanged)
	st.status = stateBound
	return nil
}

// texture uploads p's texture on first use. Devices without texture
// support draw the primitive untextured.
func (e *Engine) texture(ctx *Context, p *Primitive, st *primitiveState) render.TextureID {
	if p.Texture == nil || st.texcoords == nil || st.textureTried {
		return st.texture
	}
	st.textureTried = true

	img := render.ConvertImage(p.Texture, e.opts.textureMaxSize)
	if img == nil {
		return render.InvalidID
	}
	id, err := ctx.dev.CreateTexture(img)
	if err != nil {
		Logger().Warn("ggline: texture unavailable, drawing untextured", "handle", st.handle, "err", err)
		return render.InvalidID
	}
	st.texture = id
	return id
}

func (e *Engine) submit(ctx *Context, st *primitiveState, colors *render.Buffer, tex render.TextureID, blend bool) error {
	w, h := ctx.dev.Size()
	cmd := &render.DrawCommand{
		Transform:   st.mesh.transform(ctx.view, w, h),
		VertexCount: st.mesh.vertexCount(),
		Positions:   st.positions.ID(),
		Colors:      colors.ID(),
		ColorFormat: colors.Format(),
		Normals:     st.normals.ID(),
		DepthTest:   true,
		Blend:       blend,
	}
	if tex != render.InvalidID && st.texcoords.Valid() {
		cmd.TexCoords = st.texcoords.ID()
		cmd.Texture = tex
	}
	if err := ctx.dev.Draw(cmd); err != nil {
		return fmt.Errorf("ggline: draw primitive %d: %w", st.handle, err)
	}
	return nil
}

// fail logs a draw-time error and returns it.
func (e *Engine) fail(mode drawMode, p *Primitive, err error) error {
	Logger().Error("ggline: draw failed", "mode", mode, "handle", p.Handle(), "err", err)
	return err
}

// upload writes data into b, replacing it when the size or format changed.
func upload(dev render.Device, b *render.Buffer, desc *render.BufferDescriptor) (*render.Buffer, error) {
	if b.Valid() && b.Format() == desc.Format {
		err := b.Write(desc.Data)
		if err == nil {
			return b, nil
		}
		if !errors.Is(err, render.ErrSizeMismatch) {
			return b, err
		}
	}
	b.Destroy()
	return render.NewBuffer(dev, desc)
}

func coloringOf(p *Primitive) Coloring {
	if p.Coloring == nil {
		return NoColor{}
	}
	return p.Coloring
}
