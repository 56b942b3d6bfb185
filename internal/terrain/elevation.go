package terrain

import (
	"math"

	"github.com/Faultbox/relief/pkg/tile"
)

// Elevation returns the ground height in meters at tile-local coordinates
// (x, y) in [0, Extent] of id. The DEM tile for id is used when it is
// loaded, otherwise the nearest loaded ancestor. Without data the result
// is 0.
func (r *RenderTerrain) Elevation(id tile.ID, x, y float64) float64 {
	if r.source == nil {
		return 0
	}
	for cur := id; ; cur = cur.Parent() {
		if t, ok := r.source.Tile(cur); ok && t.Ready() {
			u, v := ancestorUV(id, cur, x, y)
			return t.Data.Sample(u, v)
		}
		if cur.Z == 0 {
			return 0
		}
	}
}

// ElevationWithExaggeration returns Elevation scaled by the configured
// exaggeration.
func (r *RenderTerrain) ElevationWithExaggeration(id tile.ID, x, y float64) float64 {
	return r.Elevation(id, x, y) * float64(r.Exaggeration())
}

// ancestorUV converts (x, y) inside id to normalized coordinates inside
// ancestor.
func ancestorUV(id, ancestor tile.ID, x, y float64) (u, v float64) {
	dz, dx, dy, _ := id.OffsetIn(ancestor)
	scale := math.Exp2(float64(dz))
	u = (float64(dx) + x/Extent) / scale
	v = (float64(dy) + y/Extent) / scale
	return u, v
}
