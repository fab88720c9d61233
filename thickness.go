package ggline

import (
	"fmt"
	"math"
)

type thicknessUnit int

const (
	unitPixels thicknessUnit = iota
	unitViewportPercent
)

// Thickness is an on-screen line width.
type Thickness struct {
	value float64
	unit  thicknessUnit
}

// Pixels returns a thickness of v window pixels.
func Pixels(v float64) Thickness {
	return Thickness{value: v, unit: unitPixels}
}

// PercentOfViewportHeight returns a thickness of v percent of the view's
// viewport height.
func PercentOfViewportHeight(v float64) Thickness {
	return Thickness{value: v, unit: unitViewportPercent}
}

// String returns the string representation of Thickness.
func (t Thickness) String() string {
	if t.unit == unitViewportPercent {
		return fmt.Sprintf("%g%%vh", t.value)
	}
	return fmt.Sprintf("%gpx", t.value)
}

// Resolve returns the thickness in pixels under view. A percentage
// thickness needs a view with a non-empty viewport.
func (t Thickness) Resolve(view *View) (float64, error) {
	px := t.value
	if t.unit == unitViewportPercent {
		if view == nil || view.Viewport.Height <= 0 {
			return 0, ErrNoViewport
		}
		px = t.value * float64(view.Viewport.Height) / 100
	}
	if !(px > 0) || math.IsInf(px, 0) {
		return 0, fmt.Errorf("%w: %v", ErrInvalidThickness, t)
	}
	return px, nil
}
