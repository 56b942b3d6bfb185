package terrain

import "encoding/binary"

// Parameter block slots shared with the terrain shader.
const (
	DrawableUBOIndex = iota
	TilePropsUBOIndex
	EvaluatedPropsUBOIndex
)

// Texture slots shared with the terrain shader.
const (
	DEMTextureSlot = iota
	MapTextureSlot
)

// ExaggerationMultiplier scales the configured exaggeration so that relief
// at the default setting is visible.
const ExaggerationMultiplier = 3.0

// Block sizes in bytes.
const (
	DrawableUBOSize       = 128
	TilePropsUBOSize      = 16
	EvaluatedPropsUBOSize = 16
)

// DrawableUBO holds the per-tile matrices. Matrix positions the tile on
// screen; RTTMatrix maps tile coordinates into the clip space of the
// render target sampled for colour.
type DrawableUBO struct {
	Matrix    [16]float32
	RTTMatrix [16]float32
}

// Bytes encodes the block in std140 layout.
func (u DrawableUBO) Bytes() []byte {
	buf, _ := binary.Append(make([]byte, 0, DrawableUBOSize), binary.LittleEndian, u)
	return buf
}

// TilePropsUBO locates the tile inside its DEM texture.
type TilePropsUBO struct {
	DEMTopLeft [2]float32
	DEMScale   float32
	_          float32
}

// Bytes encodes the block in std140 layout.
func (u TilePropsUBO) Bytes() []byte {
	buf, _ := binary.Append(make([]byte, 0, TilePropsUBOSize), binary.LittleEndian, u)
	return buf
}

// EvaluatedPropsUBO carries the tile-independent terrain properties.
type EvaluatedPropsUBO struct {
	Exaggeration    float32
	ElevationOffset float32
	_               [2]float32
}

// Bytes encodes the block in std140 layout.
func (u EvaluatedPropsUBO) Bytes() []byte {
	buf, _ := binary.Append(make([]byte, 0, EvaluatedPropsUBOSize), binary.LittleEndian, u)
	return buf
}
