package terrain

import (
	"go.uber.org/zap"

	"github.com/Faultbox/relief/internal/gfx"
	"github.com/Faultbox/relief/internal/logger"
	rmath "github.com/Faultbox/relief/pkg/math"
	"github.com/Faultbox/relief/pkg/tile"
)

// TileTransform computes the projection of a tile onto the screen.
type TileTransform interface {
	MatrixForTile(id tile.ID) rmath.Mat4
}

// PaintParameters is the per-frame input to LayerTweaker.Execute.
type PaintParameters struct {
	Transform TileTransform
}

// LayerTweaker writes the terrain parameter blocks before each frame's
// draws.
type LayerTweaker struct {
	terrain    *RenderTerrain
	logged     bool
	loggedBase float32
	log        *zap.Logger
}

// NewLayerTweaker creates a tweaker reading from terrain.
func NewLayerTweaker(terrain *RenderTerrain) *LayerTweaker {
	return &LayerTweaker{terrain: terrain, log: logger.Named("terrain")}
}

// Execute uploads the evaluated properties to group and a DrawableUBO to
// every drawable with a tile id. It does nothing for an empty group or a
// disabled terrain.
func (lt *LayerTweaker) Execute(group *gfx.LayerGroup, params PaintParameters) {
	if group == nil || group.Empty() || lt.terrain == nil || !lt.terrain.Enabled() {
		return
	}

	base := lt.terrain.Exaggeration()
	props := EvaluatedPropsUBO{
		Exaggeration:    base * ExaggerationMultiplier,
		ElevationOffset: 0,
	}
	if !lt.logged || base != lt.loggedBase {
		lt.log.Info("terrain exaggeration",
			zap.Float32("base", base),
			zap.Float32("effective", props.Exaggeration))
		lt.logged, lt.loggedBase = true, base
	}
	group.UniformBuffers().CreateOrUpdate(EvaluatedPropsUBOIndex, props.Bytes())

	group.Visit(func(d gfx.Drawable) {
		id, ok := d.TileID()
		if !ok {
			return
		}

		matrix := rmath.Identity()
		if params.Transform != nil {
			matrix = params.Transform.MatrixForTile(id)
		}

		targetID, ok := lt.terrain.RenderTargetTileFor(id)
		if !ok {
			targetID = id
		}
		rtt, ok := CrossZoomMatrix(id, targetID)
		if !ok {
			// Tracked targets are always related, so this is a registry bug.
			lt.log.Debug("render target unrelated to tile, sampling as same tile",
				zap.Stringer("tile", id),
				zap.Stringer("target", targetID))
			rtt, _ = CrossZoomMatrix(id, id)
		}

		ubo := DrawableUBO{Matrix: matrix.Float32(), RTTMatrix: rtt.Float32()}
		d.UniformBuffers().CreateOrUpdate(DrawableUBOIndex, ubo.Bytes())
	})
}
