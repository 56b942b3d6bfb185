// Package tile provides the quad-tree tile key used to address DEM tiles,
// render targets and drawables.
package tile

import "fmt"

// MaxZoom is the deepest zoom level an ID can address.
const MaxZoom = 31

// ID represents tile coordinates in the XYZ scheme (Tiled web map).
type ID struct {
	Z uint8
	X uint32
	Y uint32
}

// New returns the tile at zoom z and position (x, y).
func New(z uint8, x, y uint32) ID {
	return ID{Z: z, X: x, Y: y}
}

// Valid reports whether x and y lie inside the zoom level's grid.
func (t ID) Valid() bool {
	return t.Z <= MaxZoom && uint64(t.X) < 1<<t.Z && uint64(t.Y) < 1<<t.Z
}

func (t ID) String() string {
	return fmt.Sprintf("%d/%d/%d", t.Z, t.X, t.Y)
}

// IsChildOf reports whether t is a strict descendant of parent at any depth.
func (t ID) IsChildOf(parent ID) bool {
	if t.Z <= parent.Z {
		return false
	}
	dz := t.Z - parent.Z
	return t.X>>dz == parent.X && t.Y>>dz == parent.Y
}

// Related reports whether a and b are equal or one contains the other.
func Related(a, b ID) bool {
	return a == b || a.IsChildOf(b) || b.IsChildOf(a)
}

// Parent returns the tile one zoom level up. The root is its own parent.
func (t ID) Parent() ID {
	if t.Z == 0 {
		return t
	}
	return ID{Z: t.Z - 1, X: t.X >> 1, Y: t.Y >> 1}
}

// ScaledTo returns the ancestor of t at zoom z. Zooms at or above t.Z
// return t unchanged.
func (t ID) ScaledTo(z uint8) ID {
	if z >= t.Z {
		return t
	}
	dz := t.Z - z
	return ID{Z: z, X: t.X >> dz, Y: t.Y >> dz}
}

// Children returns the four tiles one zoom level down, row-major.
func (t ID) Children() [4]ID {
	z := t.Z + 1
	x, y := t.X<<1, t.Y<<1
	return [4]ID{
		{Z: z, X: x, Y: y},
		{Z: z, X: x + 1, Y: y},
		{Z: z, X: x, Y: y + 1},
		{Z: z, X: x + 1, Y: y + 1},
	}
}

// OffsetIn returns the zoom delta between t and ancestor and t's cell
// position inside the ancestor at that delta. ok is false when ancestor is
// neither t nor one of its ancestors.
func (t ID) OffsetIn(ancestor ID) (dz uint8, dx, dy uint32, ok bool) {
	if t == ancestor {
		return 0, 0, 0, true
	}
	if !t.IsChildOf(ancestor) {
		return 0, 0, 0, false
	}
	dz = t.Z - ancestor.Z
	dx = t.X - (t.X >> dz << dz)
	dy = t.Y - (t.Y >> dz << dz)
	return dz, dx, dy, true
}

// FromOffset rebuilds the descendant of ancestor located dz levels down at
// cell (dx, dy). It is the inverse of OffsetIn.
func FromOffset(ancestor ID, dz uint8, dx, dy uint32) ID {
	return ID{
		Z: ancestor.Z + dz,
		X: ancestor.X<<dz + dx,
		Y: ancestor.Y<<dz + dy,
	}
}
