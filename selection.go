package ggline

// Selection maps pick indices to application objects and keeps the
// closest hit offered across several selection draws.
//
// Assign the index returned by Add to the Groups of the vertices that
// draw obj, then Offer every PickResult:
//
//	var sel ggline.Selection[*Annotation]
//	for _, a := range annotations {
//	    a.Prim.Groups = fill(a.Prim.VertexCount(), sel.Add(a))
//	}
//	for _, a := range annotations {
//	    r, _ := engine.DrawWithSelection(ctx, a.Prim, x, y)
//	    sel.Offer(r)
//	}
//	if a, _, ok := sel.Best(); ok { ... }
type Selection[T any] struct {
	objects []T
	best    PickResult
	hit     bool
}

// Add registers obj and returns its pick index.
func (s *Selection[T]) Add(obj T) int32 {
	s.objects = append(s.objects, obj)
	return int32(len(s.objects) - 1)
}

// Len returns the number of registered objects.
func (s *Selection[T]) Len() int {
	return len(s.objects)
}

// Lookup returns the object registered under index i.
func (s *Selection[T]) Lookup(i int) (T, bool) {
	if i < 0 || i >= len(s.objects) {
		var zero T
		return zero, false
	}
	return s.objects[i], true
}

// Offer records r if it is a hit on a registered object that is closer
// than the current best. Ties keep the earlier hit. It reports whether r
// became the best hit.
func (s *Selection[T]) Offer(r PickResult) bool {
	if !r.Hit() || r.Index >= len(s.objects) {
		return false
	}
	if s.hit && r.Depth >= s.best.Depth {
		return false
	}
	s.best, s.hit = r, true
	return true
}

// Best returns the closest offered hit and its object.
func (s *Selection[T]) Best() (T, PickResult, bool) {
	if !s.hit {
		var zero T
		return zero, PickResult{Index: NoHit, Depth: 1}, false
	}
	return s.objects[s.best.Index], s.best, true
}

// Reset forgets all objects and hits.
func (s *Selection[T]) Reset() {
	clear(s.objects)
	s.objects = s.objects[:0]
	s.best, s.hit = PickResult{}, false
}
