package ggline

import (
	"fmt"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/ggline/render"
)

// Coloring is the color source of a primitive. It is one of NoColor,
// SolidColor, FloatColors or ByteColors.
type Coloring interface {
	isColoring()
}

// NoColor marks a primitive that can only be drawn with an override color.
type NoColor struct{}

// SolidColor colors every vertex the same.
type SolidColor struct {
	Color RGBA
}

// FloatColors holds one straight RGBA quadruple in [0, 1] per vertex.
type FloatColors []float32

// ByteColors holds one straight RGBA8 quadruple per vertex.
type ByteColors []uint8

func (NoColor) isColoring()     {}
func (SolidColor) isColoring()  {}
func (FloatColors) isColoring() {}
func (ByteColors) isColoring()  {}

// checkColoring verifies that c can color n vertices. NoColor is accepted.
func checkColoring(c Coloring, n int) error {
	switch c := c.(type) {
	case nil:
		return fmt.Errorf("%w: nil", ErrInvalidColoring)
	case NoColor, SolidColor:
		return nil
	case FloatColors:
		if len(c) != 4*n {
			return fmt.Errorf("%w: %d float components for %d vertices", ErrColorCount, len(c), n)
		}
		return nil
	case ByteColors:
		if len(c) != 4*n {
			return fmt.Errorf("%w: %d byte components for %d vertices", ErrColorCount, len(c), n)
		}
		return nil
	default:
		return fmt.Errorf("%w: %T", ErrInvalidColoring, c)
	}
}

// selectColoring returns a coloring of the same variant whose i-th color is
// the src[i]-th color of c.
func selectColoring(c Coloring, src []int) Coloring {
	switch c := c.(type) {
	case FloatColors:
		out := make(FloatColors, 0, len(src)*4)
		for _, s := range src {
			out = append(out, c[s*4:s*4+4]...)
		}
		return out
	case ByteColors:
		out := make(ByteColors, 0, len(src)*4)
		for _, s := range src {
			out = append(out, c[s*4:s*4+4]...)
		}
		return out
	default:
		return c
	}
}

// encodeColoring packs the colors of the vertices listed in src into a
// vertex buffer payload.
func encodeColoring(c Coloring, src []int) ([]byte, gputypes.VertexFormat, error) {
	switch c := c.(type) {
	case NoColor:
		return nil, gputypes.VertexFormatUndefined, ErrNoColoring
	case SolidColor:
		return encodeSolid(c.Color, len(src)), gputypes.VertexFormatFloat32x4, nil
	case FloatColors:
		return render.Float32Bytes(selectColoring(c, src).(FloatColors)), gputypes.VertexFormatFloat32x4, nil
	case ByteColors:
		return []byte(selectColoring(c, src).(ByteColors)), gputypes.VertexFormatUnorm8x4, nil
	default:
		return nil, gputypes.VertexFormatUndefined, fmt.Errorf("%w: %T", ErrInvalidColoring, c)
	}
}

func encodeSolid(c RGBA, n int) []byte {
	f := c.float32s()
	v := make([]float32, 0, n*4)
	for range n {
		v = append(v, f[:]...)
	}
	return render.Float32Bytes(v)
}
