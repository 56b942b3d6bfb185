package terrain

import (
	_ "embed"

	"github.com/Faultbox/relief/internal/gfx"
)

//go:embed shaders/terrain.vert
var vertexSource string

//go:embed shaders/terrain.frag
var fragmentSource string

// Program returns the terrain shader program with its block and sampler
// bindings.
func Program() gfx.ProgramDesc {
	return gfx.ProgramDesc{
		Name:     ShaderName,
		Vertex:   vertexSource,
		Fragment: fragmentSource,
		Blocks: map[int]string{
			DrawableUBOIndex:       "TerrainDrawableUBO",
			TilePropsUBOIndex:      "TerrainTilePropsUBO",
			EvaluatedPropsUBOIndex: "TerrainEvaluatedPropsUBO",
		},
		Samplers: map[int]string{
			DEMTextureSlot: "u_dem",
			MapTextureSlot: "u_map",
		},
	}
}
