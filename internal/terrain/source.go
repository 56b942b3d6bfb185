package terrain

import (
	"github.com/Faultbox/relief/internal/gfx"
	"github.com/Faultbox/relief/pkg/dem"
	"github.com/Faultbox/relief/pkg/tile"
)

// DEMTile is one elevation tile as exposed by a source. Data is nil until
// the tile has been decoded.
type DEMTile struct {
	ID     tile.ID
	Data   *dem.Data
	Loaded bool
}

// Ready reports whether the tile carries decoded elevation data.
func (t DEMTile) Ready() bool { return t.Loaded && t.Data != nil }

// DEMSource produces DEM tiles. Implementations may load tiles in the
// background but must return consistent snapshots.
type DEMSource interface {
	ID() string
	Tiles() []DEMTile
	Tile(id tile.ID) (DEMTile, bool)
}

// Sources looks up render sources by id.
type Sources interface {
	RenderSource(id string) (DEMSource, bool)
}

// RenderTargets resolves the colour target a tile should be draped with.
type RenderTargets interface {
	AncestorOrDescendantID(id tile.ID) (gfx.RenderTarget, tile.ID, bool)
}

// UpdateParameters is the per-frame input to RenderTerrain.Update.
type UpdateParameters struct {
	Context       gfx.Context
	Sources       Sources
	RenderTargets RenderTargets
}
