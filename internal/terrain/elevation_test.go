package terrain

import (
	"math"
	"testing"

	"github.com/Faultbox/relief/internal/style"
	"github.com/Faultbox/relief/pkg/tile"
)

func TestElevationWithoutSource(t *testing.T) {
	r := New(style.NewTerrainConfig("dem", 2))
	if got := r.Elevation(tile.New(1, 0, 0), 10, 10); got != 0 {
		t.Errorf("Elevation without data = %v, want 0", got)
	}
}

func TestElevationSamplesTile(t *testing.T) {
	id := tile.New(4, 2, 3)
	f := newFixture(t, DEMTile{ID: id, Data: flatDEM(t, 4, 1234.5), Loaded: true})

	r := New(style.NewTerrainConfig("dem", 2))
	r.Update(f.params())

	if got := r.Elevation(id, Extent/2, Extent/2); math.Abs(got-1234.5) > 0.05 {
		t.Errorf("Elevation = %v, want 1234.5", got)
	}
	if got := r.ElevationWithExaggeration(id, 0, 0); math.Abs(got-2469) > 0.1 {
		t.Errorf("ElevationWithExaggeration = %v, want 2469", got)
	}
}

func TestElevationBilinear(t *testing.T) {
	id := tile.New(2, 0, 0)
	// Columns at 0, 10, 20, 30 m; texel centers at u = 1/8, 3/8, 5/8, 7/8.
	f := newFixture(t, DEMTile{ID: id, Data: rampDEM(t, 4, 10), Loaded: true})
	r := New(style.NewTerrainConfig("dem", 1))
	r.Update(f.params())

	if got := r.Elevation(id, Extent/2, Extent/2); math.Abs(got-15) > 0.05 {
		t.Errorf("center elevation = %v, want 15", got)
	}
}

func TestElevationFallsBackToAncestor(t *testing.T) {
	parent := tile.New(2, 0, 0)
	child := tile.New(3, 1, 0) // top-right quarter of parent
	f := newFixture(t,
		DEMTile{ID: parent, Data: rampDEM(t, 4, 10), Loaded: true},
		DEMTile{ID: child},
	)
	r := New(style.NewTerrainConfig("dem", 1))
	r.Update(f.params())

	// Child origin is parent u = 0.5, which lies between columns 1 and 2.
	if got := r.Elevation(child, 0, 0); math.Abs(got-15) > 0.05 {
		t.Errorf("ancestor elevation = %v, want 15", got)
	}

	if got := r.ElevationWithExaggeration(child, 0, 0); math.Abs(got-15) > 0.05 {
		t.Errorf("exaggeration 1 should not change elevation, got %v", got)
	}
}

func TestElevationZeroExaggeration(t *testing.T) {
	id := tile.New(1, 1, 1)
	f := newFixture(t, DEMTile{ID: id, Data: flatDEM(t, 2, 800), Loaded: true})
	r := New(style.NewTerrainConfig("dem", 0))
	r.Update(f.params())

	if got := r.ElevationWithExaggeration(id, 100, 100); got != 0 {
		t.Errorf("exaggeration 0 should yield 0, got %v", got)
	}
}
