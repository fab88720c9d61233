package stroke

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/gogpu/ggline/geom"
)

// CoincidentEpsilon is the squared window-space distance below which two
// consecutive points are treated as the same point.
const CoincidentEpsilon = 1e-4

// fillerEpsilon is the signed area below which a filler triangle is
// considered degenerate and oriented by the turn direction instead.
const fillerEpsilon = 1e-9

// Tessellation errors.
var (
	// ErrTooFewPoints is returned when fewer than two points are supplied.
	ErrTooFewPoints = errors.New("stroke: fewer than two points")

	// ErrNoSegments is returned when coincident-point filtering leaves
	// nothing to draw.
	ErrNoSegments = errors.New("stroke: no usable segments")

	// ErrTopology is returned for a topology other than Lines, Strip or Loop.
	ErrTopology = errors.New("stroke: unsupported topology")

	// ErrWidth is returned for a non-positive or non-finite width.
	ErrWidth = errors.New("stroke: invalid line width")
)

// Topology selects how input points form segments.
type Topology int

const (
	// Lines pairs points (0,1), (2,3), ... into independent segments.
	Lines Topology = iota
	// Strip connects each point to the next.
	Strip
	// Loop is a Strip that also connects the last point to the first.
	Loop
)

// String returns the string representation of Topology.
func (t Topology) String() string {
	switch t {
	case Lines:
		return "Lines"
	case Strip:
		return "Strip"
	case Loop:
		return "Loop"
	default:
		return fmt.Sprintf("Unknown(%d)", int(t))
	}
}

// Style configures a Tessellator.
type Style struct {
	// Width is the full line width in pixels.
	Width float64

	// MiterLimit is the maximum distance in pixels from a shared point to
	// any corner of its join. Zero means one line width.
	MiterLimit float64
}

// Vertex is one corner of an output triangle.
type Vertex struct {
	// Pos is the window position; Z carries the source depth.
	Pos mgl64.Vec3

	// Source is the index of the input point whose attributes (color)
	// this vertex inherits.
	Source int

	// Group is the index of the drawable unit the vertex belongs to:
	// the pair index for Lines, the start point index for Strip and Loop.
	Group int
}

// Stats counts what a tessellation run did.
type Stats struct {
	Segments int
	Joins    int
	Fillers  int
	Dropped  int
}

// Mesh is a triangle list; every three consecutive vertices form one
// counter-clockwise triangle.
type Mesh struct {
	Vertices []Vertex
	Stats    Stats
}

// TriangleCount returns the number of triangles in m.
func (m *Mesh) TriangleCount() int {
	return len(m.Vertices) / 3
}

// Triangle returns the positions of triangle i.
func (m *Mesh) Triangle(i int) [3]mgl64.Vec3 {
	v := m.Vertices[i*3 : i*3+3]
	return [3]mgl64.Vec3{v[0].Pos, v[1].Pos, v[2].Pos}
}

// Corner identifiers of a segment rectangle. R is the right side of the
// travel direction, L the left side; 1 is the start, 2 the end.
const (
	cornerR1 = iota
	cornerR2
	cornerL2
	cornerL1
)

// segment records one tessellated segment for the join pass.
type segment struct {
	start, end int // source point indices
	group      int
	dir        mgl64.Vec2

	tri    [2]int   // triangle indices in the mesh
	refs   [4][]int // mesh vertex indices holding each corner
	corner [4]mgl64.Vec2
}

// Tessellator expands polylines into triangles.
type Tessellator struct {
	style      Style
	halfWidth  float64
	miterLimit float64
}

// NewTessellator creates a Tessellator for style.
func NewTessellator(style Style) *Tessellator {
	limit := style.MiterLimit
	if limit <= 0 {
		limit = style.Width
	}
	return &Tessellator{
		style:      style,
		halfWidth:  style.Width / 2,
		miterLimit: limit,
	}
}

// Style returns the style the tessellator was created with.
func (t *Tessellator) Style() Style {
	return t.style
}

// Tessellate converts points into a triangle mesh.
//
// restarts lists point indices at which a Strip or Loop breaks instead of
// connecting to the previous point; it is ignored for Lines. points is not
// modified.
func (t *Tessellator) Tessellate(points []mgl64.Vec3, topo Topology, restarts []int) (*Mesh, error) {
	if !(t.style.Width > 0) || math.IsInf(t.style.Width, 0) {
		return nil, fmt.Errorf("%w: %v", ErrWidth, t.style.Width)
	}
	if len(points) < 2 {
		return nil, ErrTooFewPoints
	}

	m := &Mesh{Vertices: make([]Vertex, 0, len(points)*6)}
	switch topo {
	case Lines:
		t.lines(m, points)
	case Strip, Loop:
		for _, r := range SplitRuns(len(points), restarts) {
			t.run(m, points, r[0], r[1], topo == Loop)
		}
	default:
		return nil, fmt.Errorf("%w: %v", ErrTopology, topo)
	}

	if m.Stats.Segments == 0 {
		return nil, ErrNoSegments
	}
	return m, nil
}

// SplitRuns returns the [lo, hi) ranges of n points separated by restart
// indices. Out-of-range and duplicate restarts are ignored.
func SplitRuns(n int, restarts []int) [][2]int {
	cuts := make([]int, 0, len(restarts))
	for _, r := range restarts {
		if r > 0 && r < n {
			cuts = append(cuts, r)
		}
	}
	slices.Sort(cuts)
	cuts = slices.Compact(cuts)

	runs := make([][2]int, 0, len(cuts)+1)
	lo := 0
	for _, c := range cuts {
		runs = append(runs, [2]int{lo, c})
		lo = c
	}
	return append(runs, [2]int{lo, n})
}

func coincident(a, b mgl64.Vec3) bool {
	return geom.DistanceSquared(a.Vec2(), b.Vec2()) < CoincidentEpsilon
}

func (t *Tessellator) lines(m *Mesh, points []mgl64.Vec3) {
	for i := 0; i+1 < len(points); i += 2 {
		if coincident(points[i], points[i+1]) {
			m.Stats.Dropped += 2
			continue
		}
		t.quad(m, points, i, i+1, i/2)
	}
}

func (t *Tessellator) run(m *Mesh, points []mgl64.Vec3, lo, hi int, closed bool) {
	kept := make([]int, 0, hi-lo)
	for i := lo; i < hi; i++ {
		if len(kept) > 0 && coincident(points[kept[len(kept)-1]], points[i]) {
			m.Stats.Dropped++
			continue
		}
		kept = append(kept, i)
	}
	if closed && len(kept) > 2 && coincident(points[kept[len(kept)-1]], points[kept[0]]) {
		kept = kept[:len(kept)-1]
		m.Stats.Dropped++
	}
	if len(kept) < 2 {
		return
	}

	closed = closed && len(kept) > 2
	n := len(kept) - 1
	if closed {
		n++
	}
	segs := make([]segment, 0, n)
	for i := 0; i+1 < len(kept); i++ {
		segs = append(segs, t.quad(m, points, kept[i], kept[i+1], kept[i]))
	}
	if closed {
		last := kept[len(kept)-1]
		segs = append(segs, t.quad(m, points, last, kept[0], last))
	}

	for i := 0; i+1 < len(segs); i++ {
		t.join(m, points, &segs[i], &segs[i+1])
	}
	if closed {
		t.join(m, points, &segs[len(segs)-1], &segs[0])
	}
}

// quad emits the two triangles of segment a->b.
func (t *Tessellator) quad(m *Mesh, points []mgl64.Vec3, a, b, group int) segment {
	p1 := points[a].Vec2()
	p2 := points[b].Vec2()
	dir := geom.Normalize2(p2.Sub(p1))
	off := geom.Perp(dir).Mul(t.halfWidth)

	s := segment{start: a, end: b, group: group, dir: dir}
	s.corner[cornerR1] = p1.Sub(off)
	s.corner[cornerR2] = p2.Sub(off)
	s.corner[cornerL2] = p2.Add(off)
	s.corner[cornerL1] = p1.Add(off)

	order := [2][3]int{
		{cornerR1, cornerR2, cornerL2},
		{cornerR1, cornerL2, cornerL1},
	}
	if geom.Cross2(dir, off) <= 0 {
		order = [2][3]int{
			{cornerR1, cornerL2, cornerR2},
			{cornerR1, cornerL1, cornerL2},
		}
	}

	for k, tri := range order {
		s.tri[k] = m.TriangleCount()
		for _, c := range tri {
			src, z := a, points[a].Z()
			if c == cornerR2 || c == cornerL2 {
				src, z = b, points[b].Z()
			}
			s.refs[c] = append(s.refs[c], len(m.Vertices))
			m.Vertices = append(m.Vertices, Vertex{
				Pos:    s.corner[c].Vec3(z),
				Source: src,
				Group:  group,
			})
		}
	}
	m.Stats.Segments++
	return s
}

// move relocates corner c of s, keeping each vertex's depth.
func (s *segment) move(m *Mesh, c int, p mgl64.Vec2) {
	s.corner[c] = p
	for _, vi := range s.refs[c] {
		z := m.Vertices[vi].Pos.Z()
		m.Vertices[vi].Pos = p.Vec3(z)
	}
}

// join reconciles the outer edges of si and sj around their shared point.
func (t *Tessellator) join(m *Mesh, points []mgl64.Vec3, si, sj *segment) {
	m.Stats.Joins++
	if math.Abs(geom.Cross2(si.dir, sj.dir)) <= geom.ParallelEpsilon {
		return
	}

	a := points[si.start].Vec2()
	p := points[si.end].Vec2()
	c := points[sj.end].Vec2()
	left := geom.SignedArea(a, p, c) > 0

	// Outer side: right of travel for a left turn, left for a right turn.
	endI, startI, startJ, endJ := cornerR2, cornerR1, cornerR1, cornerR2
	if !left {
		endI, startI, startJ, endJ = cornerL2, cornerL1, cornerL1, cornerL2
	}

	x, ok := geom.LineIntersection(si.corner[endI], si.corner[startI], sj.corner[startJ], sj.corner[endJ])
	if !ok {
		return
	}
	if geom.DistanceSquared(x, p) <= t.miterLimit*t.miterLimit {
		si.move(m, endI, x)
		sj.move(m, startJ, x)
		return
	}

	ext := math.Sqrt(math.Max(t.miterLimit*t.miterLimit-t.halfWidth*t.halfWidth, 0))
	ni := si.corner[endI].Add(si.dir.Mul(ext))
	nj := sj.corner[startJ].Sub(sj.dir.Mul(ext))
	si.move(m, endI, ni)
	sj.move(m, startJ, nj)
	t.filler(m, points[si.end], ni, nj, si, left)
}

// filler closes the wedge between two clamped miter corners. The triangle
// is counter-clockwise like the rest of the mesh; a degenerate one takes
// the order implied by the turn direction.
func (t *Tessellator) filler(m *Mesh, shared mgl64.Vec3, ni, nj mgl64.Vec2, si *segment, left bool) {
	p := shared.Vec2()
	area := geom.SignedArea(p, ni, nj)
	first, second := ni, nj
	switch {
	case area > fillerEpsilon:
	case area < -fillerEpsilon:
		first, second = nj, ni
	case left:
		first, second = nj, ni
	}

	z := shared.Z()
	for _, q := range [3]mgl64.Vec2{p, first, second} {
		m.Vertices = append(m.Vertices, Vertex{Pos: q.Vec3(z), Source: si.end, Group: si.group})
	}
	m.Stats.Fillers++
}
