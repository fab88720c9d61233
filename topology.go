package ggline

import "fmt"

// Topology describes how a primitive's vertices form drawable units.
type Topology int

const (
	// Points draws each vertex as a screen-aligned square.
	Points Topology = iota
	// Lines pairs vertices (0,1), (2,3), ... into independent segments.
	Lines
	// LineStrip connects each vertex to the next.
	LineStrip
	// LineLoop is a LineStrip that also connects the last vertex to the first.
	LineLoop
	// Triangles takes vertices three at a time.
	Triangles
	// TriangleStrip forms a triangle from each vertex and the two before it.
	TriangleStrip
	// TriangleFan forms triangles around the first vertex.
	TriangleFan
	// Polygon is a convex polygon, drawn as a fan.
	Polygon
)

// String returns the string representation of Topology.
func (t Topology) String() string {
	switch t {
	case Points:
		return "Points"
	case Lines:
		return "Lines"
	case LineStrip:
		return "LineStrip"
	case LineLoop:
		return "LineLoop"
	case Triangles:
		return "Triangles"
	case TriangleStrip:
		return "TriangleStrip"
	case TriangleFan:
		return "TriangleFan"
	case Polygon:
		return "Polygon"
	default:
		return fmt.Sprintf("Unknown(%d)", int(t))
	}
}

// IsLine reports whether t is Lines, LineStrip or LineLoop.
func (t Topology) IsLine() bool {
	switch t {
	case Lines, LineStrip, LineLoop:
		return true
	default:
		return false
	}
}

func (t Topology) valid() bool {
	return t >= Points && t <= Polygon
}
