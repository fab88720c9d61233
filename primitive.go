package ggline

import (
	"errors"
	"fmt"
	"image"
	"math"
	"sync/atomic"

	"github.com/gogpu/ggline/render"
)

// ErrInvalidPrimitive is wrapped by every Primitive.Validate failure.
var ErrInvalidPrimitive = errors.New("ggline: invalid primitive")

// Handle identifies a primitive in an Engine's cache.
type Handle uint64

var nextHandle atomic.Uint64

// Space tells whether positions are model coordinates or window pixels.
type Space int

const (
	// SpaceModel positions are transformed by the context's View.
	SpaceModel Space = iota
	// SpaceWindow positions are framebuffer pixels with depth in [0, 1].
	SpaceWindow
)

// String returns the string representation of Space.
func (s Space) String() string {
	switch s {
	case SpaceModel:
		return "Model"
	case SpaceWindow:
		return "Window"
	default:
		return fmt.Sprintf("Unknown(%d)", int(s))
	}
}

// UsageHint tells the engine how often a primitive's data changes.
type UsageHint int

const (
	// UsageStatic primitives are built once and drawn many times.
	UsageStatic UsageHint = iota
	// UsageDynamicCoords primitives move; colors stay.
	UsageDynamicCoords
	// UsageDynamicColors primitives are recolored; positions stay.
	UsageDynamicColors
	// UsageStream primitives change every frame.
	UsageStream
)

// String returns the string representation of UsageHint.
func (u UsageHint) String() string {
	return u.renderUsage().String()
}

func (u UsageHint) renderUsage() render.Usage {
	switch u {
	case UsageStatic:
		return render.UsageStatic
	case UsageDynamicCoords:
		return render.UsageDynamicCoords
	case UsageDynamicColors:
		return render.UsageDynamicColors
	case UsageStream:
		return render.UsageStream
	default:
		return render.Usage(u)
	}
}

// ColorSetID names an alternative coloring of a primitive.
type ColorSetID string

// Primitive is a drawable mesh, line set or point set.
//
// Primitive holds only data. Device buffers live in an Engine, keyed by
// Handle. After changing Positions call Engine.InvalidateCoordinates; after
// changing colors call Engine.InvalidateColors.
type Primitive struct {
	// Positions holds x, y, z per vertex.
	Positions []float32

	// Coloring is the primary color source.
	Coloring Coloring

	// Normals holds x, y, z per vertex, or nil.
	Normals []float32

	// TexCoords holds u, v per vertex, or nil.
	TexCoords []float32

	// Texture is sampled with TexCoords when both are set.
	Texture image.Image

	Topology Topology

	// Restarts lists vertex indices at which strips, loops and fans break
	// instead of connecting to the previous vertex.
	Restarts []int

	Usage UsageHint
	Space Space

	// LineWidth is the width in pixels of line topologies; zero selects
	// the engine default.
	LineWidth float64

	// MiterLimit is the join miter limit in line widths; zero means 1.
	MiterLimit float64

	// PointSize is the edge length in pixels of Points; zero selects the
	// engine default.
	PointSize float64

	// Groups assigns a pick index to each vertex, or nil for the default
	// of one index per drawable unit. A drawable unit takes the group of
	// its first vertex.
	Groups []int32

	handle       Handle
	alternatives map[ColorSetID]Coloring
}

// NewPrimitive creates a primitive with a fresh Handle.
func NewPrimitive(topo Topology, positions []float32, coloring Coloring) *Primitive {
	p := &Primitive{
		Positions: positions,
		Coloring:  coloring,
		Topology:  topo,
	}
	p.Handle()
	return p
}

// Handle returns the primitive's identity, assigning one on first use.
func (p *Primitive) Handle() Handle {
	if p.handle == 0 {
		p.handle = Handle(nextHandle.Add(1))
	}
	return p.handle
}

// VertexCount returns the number of vertices.
func (p *Primitive) VertexCount() int {
	return len(p.Positions) / 3
}

// SetAlternativeColoring registers c under id. Passing nil removes it.
func (p *Primitive) SetAlternativeColoring(id ColorSetID, c Coloring) {
	if c == nil {
		delete(p.alternatives, id)
		return
	}
	if p.alternatives == nil {
		p.alternatives = make(map[ColorSetID]Coloring)
	}
	p.alternatives[id] = c
}

// AlternativeColoring returns the coloring registered under id.
func (p *Primitive) AlternativeColoring(id ColorSetID) (Coloring, bool) {
	c, ok := p.alternatives[id]
	return c, ok
}

// Validate checks that all per-vertex arrays agree with the vertex count.
// A primitive without coloring is valid; it can only be drawn with an
// override color.
func (p *Primitive) Validate() error {
	if p == nil {
		return fmt.Errorf("%w: nil", ErrInvalidPrimitive)
	}
	if !p.Topology.valid() {
		return fmt.Errorf("%w: topology %v", ErrInvalidPrimitive, p.Topology)
	}
	if len(p.Positions) == 0 || len(p.Positions)%3 != 0 {
		return fmt.Errorf("%w: %d position components", ErrInvalidPrimitive, len(p.Positions))
	}
	n := p.VertexCount()

	c := p.Coloring
	if c == nil {
		c = NoColor{}
	}
	if err := checkColoring(c, n); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidPrimitive, err)
	}
	if p.Normals != nil && len(p.Normals) != 3*n {
		return fmt.Errorf("%w: %d normal components for %d vertices", ErrInvalidPrimitive, len(p.Normals), n)
	}
	if p.TexCoords != nil && len(p.TexCoords) != 2*n {
		return fmt.Errorf("%w: %d texture coordinates for %d vertices", ErrInvalidPrimitive, len(p.TexCoords), n)
	}
	if p.Groups != nil {
		if len(p.Groups) != n {
			return fmt.Errorf("%w: %d groups for %d vertices", ErrInvalidPrimitive, len(p.Groups), n)
		}
		for i, g := range p.Groups {
			if g < 0 || int(g) > MaxPickIndex {
				return fmt.Errorf("%w: %w: group %d of vertex %d", ErrInvalidPrimitive, ErrPickRange, g, i)
			}
		}
	}
	for _, r := range p.Restarts {
		if r < 0 || r >= n {
			return fmt.Errorf("%w: restart index %d outside [0, %d)", ErrInvalidPrimitive, r, n)
		}
	}
	for _, v := range p.Positions {
		if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
			return fmt.Errorf("%w: non-finite position", ErrInvalidPrimitive)
		}
	}
	if p.LineWidth < 0 || p.PointSize < 0 || p.MiterLimit < 0 {
		return fmt.Errorf("%w: negative size", ErrInvalidPrimitive)
	}
	return nil
}
