// Package terrain drapes map render targets over DEM tiles: it owns the
// shared grid mesh, the per-tile drawables and the per-frame parameter
// blocks the terrain shader reads.
package terrain

import (
	"encoding/binary"
	"fmt"

	"github.com/Faultbox/relief/internal/gfx"
)

const (
	// Extent is the tile-local coordinate range [0, Extent].
	Extent = 8192
	// MeshSize is the number of grid cells per mesh side.
	MeshSize = 128
	// maxGridSize keeps the vertex count addressable by uint16 indices.
	maxGridSize = 255
)

// Layout selects the per-vertex attributes of a mesh.
type Layout int

const (
	// LayoutPosition stores (x, y) per vertex.
	LayoutPosition Layout = iota
	// LayoutPositionTexCoord stores (x, y, u, v) per vertex with (u, v)
	// equal to the position.
	LayoutPositionTexCoord
)

func (l Layout) String() string {
	switch l {
	case LayoutPosition:
		return "position"
	case LayoutPositionTexCoord:
		return "position+texcoord"
	default:
		return fmt.Sprintf("Layout(%d)", int(l))
	}
}

// Components returns the int16 values stored per vertex.
func (l Layout) Components() int {
	if l == LayoutPositionTexCoord {
		return 4
	}
	return 2
}

// Mesh is a regular grid covering one tile.
type Mesh struct {
	GridSize int
	Layout   Layout
	Vertices []int16
	Indices  []uint16
}

// CheckGridSize reports whether a mesh with gridSize cells per side can be
// indexed with 16-bit indices.
func CheckGridSize(gridSize int) error {
	if gridSize <= 0 || gridSize > maxGridSize {
		return fmt.Errorf("terrain mesh: grid size %d out of range [1, %d]", gridSize, maxGridSize)
	}
	return nil
}

// GenerateMesh builds a gridSize x gridSize grid over [0, Extent]. The
// result depends only on its arguments, so callers generate it once and
// share it.
func GenerateMesh(gridSize int, layout Layout) (*Mesh, error) {
	if err := CheckGridSize(gridSize); err != nil {
		return nil, err
	}

	perSide := gridSize + 1
	comps := layout.Components()
	vertices := make([]int16, 0, perSide*perSide*comps)
	for y := 0; y < perSide; y++ {
		for x := 0; x < perSide; x++ {
			// Integer division keeps the last row and column exactly on Extent.
			px := int16(x * Extent / gridSize)
			py := int16(y * Extent / gridSize)
			vertices = append(vertices, px, py)
			if layout == LayoutPositionTexCoord {
				vertices = append(vertices, px, py)
			}
		}
	}

	indices := make([]uint16, 0, gridSize*gridSize*6)
	for y := 0; y < gridSize; y++ {
		for x := 0; x < gridSize; x++ {
			topLeft := uint16(y*perSide + x)
			topRight := topLeft + 1
			bottomLeft := uint16((y+1)*perSide + x)
			bottomRight := bottomLeft + 1

			indices = append(indices,
				topLeft, bottomLeft, topRight,
				topRight, bottomLeft, bottomRight,
			)
		}
	}

	return &Mesh{GridSize: gridSize, Layout: layout, Vertices: vertices, Indices: indices}, nil
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int { return len(m.Vertices) / m.Layout.Components() }

// IndexCount returns the number of indices.
func (m *Mesh) IndexCount() int { return len(m.Indices) }

// Stride returns the byte size of one vertex.
func (m *Mesh) Stride() int { return m.Layout.Components() * 2 }

// Attributes describes the vertex layout for drawable creation.
func (m *Mesh) Attributes() []gfx.VertexAttribute {
	attrs := []gfx.VertexAttribute{
		{Name: "a_pos", Location: 0, Components: 2, Type: gfx.AttributeShort, Offset: 0},
	}
	if m.Layout == LayoutPositionTexCoord {
		attrs = append(attrs, gfx.VertexAttribute{
			Name: "a_texture_pos", Location: 1, Components: 2, Type: gfx.AttributeShort, Offset: 4,
		})
	}
	return attrs
}

// VertexBytes returns the vertices as little-endian bytes.
func (m *Mesh) VertexBytes() []byte {
	buf := make([]byte, 0, len(m.Vertices)*2)
	for _, v := range m.Vertices {
		buf = binary.LittleEndian.AppendUint16(buf, uint16(v))
	}
	return buf
}

// IndexBytes returns the indices as little-endian bytes.
func (m *Mesh) IndexBytes() []byte {
	buf := make([]byte, 0, len(m.Indices)*2)
	for _, i := range m.Indices {
		buf = binary.LittleEndian.AppendUint16(buf, i)
	}
	return buf
}
