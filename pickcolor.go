package ggline

// Pick colors carry group+1 in 7 bits per RGB channel, each channel stored
// as the odd byte 2k+1 so that both truncating and rounding rasterizers
// decode the same k. Alpha is opaque. The cleared background (all zero)
// decodes to no hit.

const (
	pickBits = 7
	pickMask = 1<<pickBits - 1
)

// MaxPickIndex is the largest group index the selection encoding carries.
const MaxPickIndex = 1<<(3*pickBits) - 2

// NoHit is the PickResult index reported when no drawable unit covers the
// queried pixel.
const NoHit = -1

// PickResult is the outcome of a selection draw.
type PickResult struct {
	// Index is the pick group under the pixel, or NoHit.
	Index int

	// Depth is the window depth of the hit in [0, 1]; smaller is closer.
	// It is 1 when Index is NoHit.
	Depth float64
}

// Hit reports whether r names a drawable unit.
func (r PickResult) Hit() bool {
	return r.Index != NoHit
}

func encodePick(group int32) [4]uint8 {
	id := uint32(group) + 1
	ch := func(shift uint) uint8 {
		return uint8((id>>shift)&pickMask)<<1 | 1
	}
	return [4]uint8{ch(2 * pickBits), ch(pickBits), ch(0), 255}
}

func decodePick(c [4]uint8) int {
	if c[3] < 128 {
		return NoHit
	}
	id := int(c[0]>>1)<<(2*pickBits) | int(c[1]>>1)<<pickBits | int(c[2]>>1)
	if id == 0 {
		return NoHit
	}
	return id - 1
}

// encodeGroups packs one pick color per vertex.
func encodeGroups(groups []int32) []byte {
	out := make([]byte, 0, len(groups)*4)
	for _, g := range groups {
		c := encodePick(g)
		out = append(out, c[:]...)
	}
	return out
}
