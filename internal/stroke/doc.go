// Package stroke converts window-space polylines into triangle meshes.
//
// Thick lines are not rendered natively by the drawing surface, so every
// segment is expanded into a rectangle of two triangles whose width is
// measured in pixels. Consecutive segments of a strip or loop are then
// joined with a clamped miter.
//
// # Algorithm Overview
//
//  1. Coincident consecutive points (squared distance below
//     CoincidentEpsilon) are dropped.
//  2. Each remaining segment p1->p2 becomes four corners offset by half the
//     line width along the counter-clockwise perpendicular. The two
//     triangles are always emitted counter-clockwise.
//  3. For strips and loops the outer edges of two consecutive segments are
//     intersected. Within the miter limit both outer corners snap to the
//     intersection. Beyond it each corner is pulled back to the miter limit
//     and a filler triangle closes the wedge.
//
// Segment records live in a slice owned by a single Tessellate call and are
// discarded when it returns.
//
// # Usage
//
//	t := stroke.NewTessellator(stroke.Style{Width: 10})
//	mesh, err := t.Tessellate(points, stroke.Strip, nil)
package stroke
