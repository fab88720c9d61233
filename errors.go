package ggline

import (
	"errors"
	"fmt"
)

// Tessellation errors. A *TessellationError unwraps to one of these.
var (
	ErrInvalidTopology  = errors.New("ggline: topology cannot be tessellated")
	ErrInvalidColoring  = errors.New("ggline: invalid coloring")
	ErrColorCount       = errors.New("ggline: color count does not match vertex count")
	ErrInvalidThickness = errors.New("ggline: invalid line thickness")
	ErrInvalidPositions = errors.New("ggline: positions are not xyz triples")
	ErrTooFewPoints     = errors.New("ggline: fewer than two points")
	ErrNoSegments       = errors.New("ggline: no usable segments")
	ErrNoViewport       = errors.New("ggline: thickness relative to viewport without a view")
)

// Draw errors.
var (
	// ErrNilContext is returned when a draw is issued without a context.
	ErrNilContext = errors.New("ggline: nil context")

	// ErrContextClosed is returned for draws on a closed context.
	ErrContextClosed = errors.New("ggline: context closed")

	// ErrContextMismatch is returned when a primitive's buffers were created
	// under a different context than the one passed to the draw call.
	ErrContextMismatch = errors.New("ggline: primitive bound to a different context")

	// ErrUnknownColorSet is returned when an alternative coloring was never
	// registered on the primitive.
	ErrUnknownColorSet = errors.New("ggline: unknown alternative color set")

	// ErrNoColoring is returned for a normal draw of a primitive without colors.
	ErrNoColoring = errors.New("ggline: primitive has no coloring")

	// ErrPickRange is returned when a pick group does not fit the color encoding.
	ErrPickRange = errors.New("ggline: pick index out of range")
)

// Reason classifies a tessellation failure.
type Reason int

const (
	ReasonTopology Reason = iota
	ReasonColoring
	ReasonColorCount
	ReasonThickness
	ReasonPositions
	ReasonTooFewPoints
	ReasonNoSegments
	ReasonNoViewport
)

// String returns the string representation of Reason.
func (r Reason) String() string {
	switch r {
	case ReasonTopology:
		return "Topology"
	case ReasonColoring:
		return "Coloring"
	case ReasonColorCount:
		return "ColorCount"
	case ReasonThickness:
		return "Thickness"
	case ReasonPositions:
		return "Positions"
	case ReasonTooFewPoints:
		return "TooFewPoints"
	case ReasonNoSegments:
		return "NoSegments"
	case ReasonNoViewport:
		return "NoViewport"
	default:
		return fmt.Sprintf("Unknown(%d)", int(r))
	}
}

func (r Reason) sentinel() error {
	switch r {
	case ReasonTopology:
		return ErrInvalidTopology
	case ReasonColoring:
		return ErrInvalidColoring
	case ReasonColorCount:
		return ErrColorCount
	case ReasonThickness:
		return ErrInvalidThickness
	case ReasonPositions:
		return ErrInvalidPositions
	case ReasonTooFewPoints:
		return ErrTooFewPoints
	case ReasonNoSegments:
		return ErrNoSegments
	case ReasonNoViewport:
		return ErrNoViewport
	default:
		return nil
	}
}

// TessellationError describes why a line request could not be tessellated.
type TessellationError struct {
	Reason Reason
	Detail string
}

func (e *TessellationError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("ggline: tessellation failed: %v", e.Reason.sentinel())
	}
	return fmt.Sprintf("ggline: tessellation failed: %v: %s", e.Reason.sentinel(), e.Detail)
}

// Unwrap returns the sentinel error for e.Reason.
func (e *TessellationError) Unwrap() error {
	return e.Reason.sentinel()
}

func tessErr(r Reason, format string, args ...any) *TessellationError {
	return &TessellationError{Reason: r, Detail: fmt.Sprintf(format, args...)}
}
