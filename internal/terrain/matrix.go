package terrain

import (
	"math"

	rmath "github.com/Faultbox/relief/pkg/math"
	"github.com/Faultbox/relief/pkg/tile"
)

// CrossZoomMatrix maps tile-local coordinates of id into the clip space of
// the render target drawn for matched. ok is false when the two tiles are
// unrelated.
func CrossZoomMatrix(id, matched tile.ID) (m rmath.Mat4, ok bool) {
	switch {
	case id == matched:
		return rmath.Ortho(0, Extent, Extent, 0, 0, 1), true

	case matched.IsChildOf(id):
		// The finer target only covers a sub-rectangle of id.
		dz, dx, dy, _ := matched.OffsetIn(id)
		size := cellSize(dz)
		return rmath.Ortho(0, size, size, 0, 0, 1).
			Translate(-float64(dx)*size, -float64(dy)*size, 0), true

	case id.IsChildOf(matched):
		// The coarser target is stretched over id's footprint.
		dz, dx, dy, _ := id.OffsetIn(matched)
		size := cellSize(dz)
		scale := 1 / math.Exp2(float64(dz))
		return rmath.Ortho(0, Extent, Extent, 0, 0, 1).
			Translate(float64(dx)*size, float64(dy)*size, 0).
			Scale(scale, scale, 0), true
	}
	return rmath.Mat4{}, false
}

// cellSize is the edge of one descendant cell dz levels down, in Extent units.
func cellSize(dz uint8) float64 {
	return Extent / math.Exp2(float64(dz))
}
