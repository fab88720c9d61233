// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package geom

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// ParallelEpsilon is the threshold below which the cross product of two unit
// directions is treated as zero.
const ParallelEpsilon = 1e-9

// Sub3 returns a - b.
func Sub3(a, b mgl64.Vec3) mgl64.Vec3 {
	return a.Sub(b)
}

// Normalize3 returns v scaled to unit length.
// A zero-length vector yields the zero vector, which callers treat as
// degenerate input.
func Normalize3(v mgl64.Vec3) mgl64.Vec3 {
	l := v.Len()
	if l == 0 || math.IsNaN(l) {
		return mgl64.Vec3{}
	}
	return v.Mul(1 / l)
}

// Normalize2 is the 2D form of Normalize3.
func Normalize2(v mgl64.Vec2) mgl64.Vec2 {
	l := v.Len()
	if l == 0 || math.IsNaN(l) {
		return mgl64.Vec2{}
	}
	return v.Mul(1 / l)
}

// Cross3 returns the 3D cross product a x b.
func Cross3(a, b mgl64.Vec3) mgl64.Vec3 {
	return a.Cross(b)
}

// Cross2 returns the z component of the cross product of a and b.
// Positive when b is counter-clockwise from a.
func Cross2(a, b mgl64.Vec2) float64 {
	return a[0]*b[1] - a[1]*b[0]
}

// Perp returns v rotated 90 degrees counter-clockwise.
func Perp(v mgl64.Vec2) mgl64.Vec2 {
	return mgl64.Vec2{-v[1], v[0]}
}

// SignedArea returns the signed area of triangle abc.
func SignedArea(a, b, c mgl64.Vec2) float64 {
	return 0.5 * Cross2(b.Sub(a), c.Sub(a))
}

// DistanceSquared returns |a - b|^2.
func DistanceSquared(a, b mgl64.Vec2) float64 {
	dx := a[0] - b[0]
	dy := a[1] - b[1]
	return dx*dx + dy*dy
}

// LineIntersection intersects the infinite line through p1, p2 with the
// infinite line through q1, q2. ok is false when the lines are parallel or
// either line is degenerate.
func LineIntersection(p1, p2, q1, q2 mgl64.Vec2) (pt mgl64.Vec2, ok bool) {
	pt, _, _, ok = lineParams(p1, p2, q1, q2)
	return pt, ok
}

// SegmentIntersection is LineIntersection restricted to the closed segments
// p1p2 and q1q2.
func SegmentIntersection(p1, p2, q1, q2 mgl64.Vec2) (pt mgl64.Vec2, ok bool) {
	pt, t, u, ok := lineParams(p1, p2, q1, q2)
	if !ok {
		return mgl64.Vec2{}, false
	}
	const eps = 1e-12
	if t < -eps || t > 1+eps || u < -eps || u > 1+eps {
		return mgl64.Vec2{}, false
	}
	return pt, true
}

// lineParams returns the intersection point and its parameters along
// p1p2 (t) and q1q2 (u).
func lineParams(p1, p2, q1, q2 mgl64.Vec2) (mgl64.Vec2, float64, float64, bool) {
	r := p2.Sub(p1)
	s := q2.Sub(q1)
	denom := Cross2(r, s)
	scale := r.Len() * s.Len()
	if scale == 0 || math.Abs(denom) <= ParallelEpsilon*scale {
		return mgl64.Vec2{}, 0, 0, false
	}
	qp := q1.Sub(p1)
	t := Cross2(qp, s) / denom
	u := Cross2(qp, r) / denom
	return p1.Add(r.Mul(t)), t, u, true
}

// Rect is an axis-aligned 2D box.
type Rect struct {
	Min, Max mgl64.Vec2
}

// Bounds returns the bounding box of points. The zero Rect is returned for
// an empty slice.
func Bounds(points []mgl64.Vec2) Rect {
	if len(points) == 0 {
		return Rect{}
	}
	r := Rect{Min: points[0], Max: points[0]}
	for _, p := range points[1:] {
		r.Min[0] = math.Min(r.Min[0], p[0])
		r.Min[1] = math.Min(r.Min[1], p[1])
		r.Max[0] = math.Max(r.Max[0], p[0])
		r.Max[1] = math.Max(r.Max[1], p[1])
	}
	return r
}

// Width returns the horizontal extent of r.
func (r Rect) Width() float64 { return r.Max[0] - r.Min[0] }

// Height returns the vertical extent of r.
func (r Rect) Height() float64 { return r.Max[1] - r.Min[1] }
