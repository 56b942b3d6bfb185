// Package transform holds the view state and turns tile ids into the
// matrices drawables are positioned with.
package transform

import (
	gomath "math"

	"github.com/Faultbox/relief/internal/terrain"
	"github.com/Faultbox/relief/pkg/math"
	"github.com/Faultbox/relief/pkg/tile"
)

const (
	// worldTileSize is the world-space edge of a tile at the reference
	// zoom. It matches the tile-local extent so that reference-zoom tiles
	// need no horizontal scaling.
	worldTileSize = terrain.Extent

	// earthCircumference is the Web Mercator equator length in meters.
	earthCircumference = 40075016.686

	defaultFovY = 45 * gomath.Pi / 180
)

// State is the camera and viewport the current frame is rendered with.
// World space is Z-up with north along +Y; the origin is the view center.
type State struct {
	// Zoom is the reference zoom whose tiles span worldTileSize units.
	Zoom uint8
	// CenterX and CenterY are fractional tile coordinates at Zoom.
	CenterX, CenterY float64

	Width, Height int
	FovY          float64
	Camera        *OrbitCamera
}

// NewState creates a view of size width x height centered on (centerX,
// centerY) in tile coordinates at zoom.
func NewState(width, height int, zoom uint8, centerX, centerY float64) *State {
	return &State{
		Zoom:    zoom,
		CenterX: centerX,
		CenterY: centerY,
		Width:   width,
		Height:  height,
		FovY:    defaultFovY,
		Camera:  NewOrbitCamera(),
	}
}

// SetSize updates the viewport size.
func (s *State) SetSize(width, height int) {
	s.Width, s.Height = width, height
}

// Aspect returns width / height.
func (s *State) Aspect() float64 {
	if s.Height <= 0 {
		return 1
	}
	return float64(s.Width) / float64(s.Height)
}

// ProjectionMatrix returns the perspective projection. Clip planes follow
// the camera distance to keep depth precision usable at every zoom.
func (s *State) ProjectionMatrix() math.Mat4 {
	d := s.Camera.Distance
	return math.Perspective(s.FovY, s.Aspect(), d/100, d*100)
}

// ViewProjection returns projection * view.
func (s *State) ViewProjection() math.Mat4 {
	return s.ProjectionMatrix().Mul(s.Camera.ViewMatrix())
}

// UnitsPerMeter converts elevation meters to world units at the
// reference zoom.
func (s *State) UnitsPerMeter() float64 {
	return worldTileSize / (earthCircumference / gomath.Exp2(float64(s.Zoom)))
}

// TileModelMatrix maps tile-local coordinates of id ([0, 8192] in x and y,
// meters in z) into world space.
func (s *State) TileModelMatrix(id tile.ID) math.Mat4 {
	scale := gomath.Exp2(float64(s.Zoom) - float64(id.Z))
	originX := (float64(id.X)*scale - s.CenterX) * worldTileSize
	originY := (float64(id.Y)*scale - s.CenterY) * worldTileSize
	// Tile rows grow southward; world Y points north.
	return math.Translation(originX, -originY, 0).
		Scale(scale*worldTileSize/terrain.Extent, -scale*worldTileSize/terrain.Extent, s.UnitsPerMeter())
}

// MatrixForTile returns projection * view * model for id.
func (s *State) MatrixForTile(id tile.ID) math.Mat4 {
	return s.ViewProjection().Mul(s.TileModelMatrix(id))
}

// TileToWorld converts a tile-local point to world space.
func (s *State) TileToWorld(id tile.ID, x, y, meters float64) math.Vec3 {
	p := s.TileModelMatrix(id).TransformPoint([3]float64{x, y, meters})
	return math.Vec3{X: p[0], Y: p[1], Z: p[2]}
}

// WorldToTile returns the tile at zoom containing the world point and the
// point's tile-local coordinates.
func (s *State) WorldToTile(p math.Vec3, zoom uint8) (tile.ID, float64, float64) {
	scale := gomath.Exp2(float64(zoom) - float64(s.Zoom))
	tx := (p.X/worldTileSize + s.CenterX) * scale
	ty := (-p.Y/worldTileSize + s.CenterY) * scale

	n := gomath.Exp2(float64(zoom))
	tx = clamp(tx, 0, gomath.Nextafter(n, 0))
	ty = clamp(ty, 0, gomath.Nextafter(n, 0))

	id := tile.New(zoom, uint32(tx), uint32(ty))
	return id, (tx - float64(id.X)) * terrain.Extent, (ty - float64(id.Y)) * terrain.Extent
}
