package ggline

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/gogpu/ggline/internal/stroke"
)

// errEmptyMesh is returned when a primitive expands to no triangles.
var errEmptyMesh = errors.New("ggline: primitive has no drawable triangles")

// meshData is a primitive expanded to a device triangle list.
type meshData struct {
	positions []float32
	src       []int   // source vertex of each output vertex
	groups    []int32 // pick group of each output vertex
	window    bool    // positions are framebuffer pixels
}

func (m *meshData) vertexCount() int { return len(m.src) }

// transform returns the matrix taking the mesh positions to clip space.
func (m *meshData) transform(view View, fbWidth, fbHeight int) mgl64.Mat4 {
	if m.window {
		return windowProjection(fbWidth, fbHeight)
	}
	return view.clipTransform(fbWidth, fbHeight)
}

// geometryKey captures everything besides the positions that a primitive's
// expanded geometry depends on.
type geometryKey struct {
	view      View
	width     float64
	pointSize float64
	miter     float64
}

func (e *Engine) geometryKey(p *Primitive, view View) geometryKey {
	var k geometryKey
	switch p.Topology {
	case Lines, LineStrip, LineLoop:
		k.width = e.lineWidth(p)
		k.miter = p.MiterLimit
	case Points:
		k.pointSize = e.pointSize(p)
	default:
		return k
	}
	if p.Space == SpaceModel {
		k.view = view
	}
	return k
}

func (e *Engine) lineWidth(p *Primitive) float64 {
	if p.LineWidth > 0 {
		return p.LineWidth
	}
	return e.opts.defaultLineWidth
}

func (e *Engine) pointSize(p *Primitive) float64 {
	if p.PointSize > 0 {
		return p.PointSize
	}
	return e.opts.defaultPointSize
}

// expand converts p into a triangle list. Line and point topologies are
// built in window space; triangle topologies keep p's space.
func (e *Engine) expand(p *Primitive, view View) (*meshData, error) {
	var vp *View
	if p.Space == SpaceModel {
		vp = &view
	}

	switch p.Topology {
	case Points:
		positions, src := pointQuads(p.Positions, e.pointSize(p), vp)
		groups := make([]int32, len(src))
		for i, s := range src {
			groups[i] = unitGroup(p, s, int32(s))
		}
		return &meshData{positions: positions, src: src, groups: groups, window: true}, nil

	case Lines, LineStrip, LineLoop:
		m, err := lineMesh(p.Positions, p.Topology, p.Restarts, e.lineWidth(p), p.MiterLimit, vp)
		if err != nil {
			return nil, err
		}
		return lineMeshData(p, m), nil

	case Triangles, TriangleStrip, TriangleFan, Polygon:
		tris := triangleIndices(p.Topology, p.VertexCount(), p.Restarts)
		if len(tris) == 0 {
			return nil, fmt.Errorf("%w: %d vertices as %v", errEmptyMesh, p.VertexCount(), p.Topology)
		}
		md := &meshData{
			positions: make([]float32, 0, len(tris)*9),
			src:       make([]int, 0, len(tris)*3),
			groups:    make([]int32, 0, len(tris)*3),
			window:    p.Space == SpaceWindow,
		}
		for t, tri := range tris {
			g := unitGroup(p, tri[0], int32(t))
			for _, s := range tri {
				md.positions = append(md.positions, p.Positions[s*3:s*3+3]...)
				md.src = append(md.src, s)
				md.groups = append(md.groups, g)
			}
		}
		return md, nil

	default:
		return nil, fmt.Errorf("%w: topology %v", ErrInvalidPrimitive, p.Topology)
	}
}

func lineMeshData(p *Primitive, m *stroke.Mesh) *meshData {
	md := &meshData{
		positions: make([]float32, 0, len(m.Vertices)*3),
		src:       make([]int, len(m.Vertices)),
		groups:    make([]int32, len(m.Vertices)),
		window:    true,
	}
	for i, v := range m.Vertices {
		md.positions = append(md.positions, float32(v.Pos.X()), float32(v.Pos.Y()), float32(v.Pos.Z()))
		md.src[i] = v.Source
		first := v.Group
		if p.Topology == Lines {
			first = v.Group * 2
		}
		md.groups[i] = unitGroup(p, first, int32(v.Group))
	}
	return md
}

// unitGroup returns the pick group of a drawable unit whose first source
// vertex is first.
func unitGroup(p *Primitive, first int, def int32) int32 {
	if p.Groups != nil {
		return p.Groups[first]
	}
	return def
}

// triangleIndices lists the source vertices of each triangle, counter-
// clockwise when the input is. Strips alternate winding like OpenGL.
func triangleIndices(topo Topology, n int, restarts []int) [][3]int {
	var out [][3]int
	if topo == Triangles {
		for i := 0; i+2 < n; i += 3 {
			out = append(out, [3]int{i, i + 1, i + 2})
		}
		return out
	}

	for _, r := range stroke.SplitRuns(n, restarts) {
		lo, hi := r[0], r[1]
		switch topo {
		case TriangleStrip:
			for k := lo; k+2 < hi; k++ {
				if (k-lo)%2 == 0 {
					out = append(out, [3]int{k, k + 1, k + 2})
				} else {
					out = append(out, [3]int{k + 1, k, k + 2})
				}
			}
		case TriangleFan, Polygon:
			for k := lo + 1; k+1 < hi; k++ {
				out = append(out, [3]int{lo, k, k + 1})
			}
		}
	}
	return out
}

// selectFloats picks stride-sized tuples of v by source index.
func selectFloats(v []float32, stride int, src []int) []float32 {
	out := make([]float32, 0, len(src)*stride)
	for _, s := range src {
		out = append(out, v[s*stride:s*stride+stride]...)
	}
	return out
}
