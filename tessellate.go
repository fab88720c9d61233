package ggline

import (
	"errors"
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/gogpu/ggline/internal/stroke"
)

// LineRequest describes a polyline to tessellate.
type LineRequest struct {
	// Points holds x, y, z per point.
	Points []float32

	// Topology is Lines, LineStrip or LineLoop.
	Topology Topology

	// Coloring is SolidColor, FloatColors or ByteColors.
	Coloring Coloring

	Thickness Thickness

	// Restarts lists point indices at which a strip or loop breaks.
	Restarts []int

	// MiterLimit bounds join corners, in line widths from the shared
	// point. Zero means 1.
	MiterLimit float64
}

// Tessellate converts a polyline into a triangle-list Primitive in window
// space so that its width is uniform in pixels.
//
// When view is nil the points are already window coordinates (x right,
// y up) and z is kept as depth. Otherwise every point is projected through
// view first. Output vertices take the color of the input point they were
// built from, and Groups holds each vertex's segment index: the pair index
// for Lines, the start point index for LineStrip and LineLoop.
//
// Failures are *TessellationError values.
func Tessellate(req LineRequest, view *View) (*Primitive, error) {
	if !req.Topology.IsLine() {
		return nil, tessErr(ReasonTopology, "%v", req.Topology)
	}
	if len(req.Points)%3 != 0 {
		return nil, tessErr(ReasonPositions, "%d components", len(req.Points))
	}
	n := len(req.Points) / 3
	if n < 2 {
		return nil, tessErr(ReasonTooFewPoints, "%d points", n)
	}

	switch req.Coloring.(type) {
	case nil, NoColor:
		return nil, tessErr(ReasonColoring, "%T cannot color lines", req.Coloring)
	}
	if err := checkColoring(req.Coloring, n); err != nil {
		if errors.Is(err, ErrColorCount) {
			return nil, &TessellationError{Reason: ReasonColorCount, Detail: err.Error()}
		}
		return nil, &TessellationError{Reason: ReasonColoring, Detail: err.Error()}
	}

	if view != nil && !view.valid() {
		return nil, tessErr(ReasonNoViewport, "empty viewport %v", view.Viewport)
	}
	width, err := req.Thickness.Resolve(view)
	if err != nil {
		if errors.Is(err, ErrNoViewport) {
			return nil, tessErr(ReasonNoViewport, "%v", req.Thickness)
		}
		return nil, tessErr(ReasonThickness, "%v", req.Thickness)
	}
	if req.MiterLimit < 0 || math.IsNaN(req.MiterLimit) {
		return nil, tessErr(ReasonThickness, "miter limit %v", req.MiterLimit)
	}

	m, err := lineMesh(req.Points, req.Topology, req.Restarts, width, req.MiterLimit, view)
	if err != nil {
		return nil, err
	}

	src := make([]int, len(m.Vertices))
	groups := make([]int32, len(m.Vertices))
	positions := make([]float32, 0, len(m.Vertices)*3)
	for i, v := range m.Vertices {
		src[i] = v.Source
		groups[i] = int32(v.Group)
		positions = append(positions, float32(v.Pos.X()), float32(v.Pos.Y()), float32(v.Pos.Z()))
	}

	p := NewPrimitive(Triangles, positions, selectColoring(req.Coloring, src))
	p.Space = SpaceWindow
	p.LineWidth = width
	p.Groups = groups
	return p, nil
}

// lineMesh projects points to window space and tessellates them with the
// given pixel width. miter is in line widths; zero means 1.
func lineMesh(points []float32, topo Topology, restarts []int, width, miter float64, view *View) (*stroke.Mesh, error) {
	var st stroke.Topology
	switch topo {
	case Lines:
		st = stroke.Lines
	case LineStrip:
		st = stroke.Strip
	case LineLoop:
		st = stroke.Loop
	default:
		return nil, tessErr(ReasonTopology, "%v", topo)
	}
	if miter == 0 {
		miter = 1
	}

	t := stroke.NewTessellator(stroke.Style{Width: width, MiterLimit: miter * width})
	m, err := t.Tessellate(windowPoints(points, view), st, restarts)
	switch {
	case err == nil:
		return m, nil
	case errors.Is(err, stroke.ErrTooFewPoints):
		return nil, tessErr(ReasonTooFewPoints, "%d points", len(points)/3)
	case errors.Is(err, stroke.ErrNoSegments):
		return nil, tessErr(ReasonNoSegments, "all %d points coincide", len(points)/3)
	case errors.Is(err, stroke.ErrWidth):
		return nil, tessErr(ReasonThickness, "%v pixels", width)
	default:
		return nil, tessErr(ReasonTopology, "%v", err)
	}
}

// windowPoints converts flat xyz triples to window coordinates.
func windowPoints(points []float32, view *View) []mgl64.Vec3 {
	out := make([]mgl64.Vec3, len(points)/3)
	for i := range out {
		p := mgl64.Vec3{float64(points[i*3]), float64(points[i*3+1]), float64(points[i*3+2])}
		if view != nil {
			p = view.Project(p)
		}
		out[i] = p
	}
	return out
}

// pointQuads expands each point into a window-aligned square of edge size
// pixels, two counter-clockwise triangles per point.
func pointQuads(points []float32, size float64, view *View) ([]float32, []int) {
	centers := windowPoints(points, view)
	h := size / 2
	positions := make([]float32, 0, len(centers)*18)
	src := make([]int, 0, len(centers)*6)
	corners := [6][2]float64{{-h, -h}, {h, -h}, {h, h}, {-h, -h}, {h, h}, {-h, h}}
	for i, c := range centers {
		for _, d := range corners {
			positions = append(positions, float32(c.X()+d[0]), float32(c.Y()+d[1]), float32(c.Z()))
			src = append(src, i)
		}
	}
	return positions, src
}
