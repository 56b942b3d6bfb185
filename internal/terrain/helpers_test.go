package terrain

import (
	"fmt"
	"strings"
	"testing"

	"github.com/Faultbox/relief/internal/gfx"
	"github.com/Faultbox/relief/internal/gfx/headless"
	"github.com/Faultbox/relief/internal/texpool"
	"github.com/Faultbox/relief/pkg/dem"
	"github.com/Faultbox/relief/pkg/tile"
)

type fakeSource struct {
	id    string
	tiles []DEMTile
}

func (s *fakeSource) ID() string       { return s.id }
func (s *fakeSource) Tiles() []DEMTile { return s.tiles }

func (s *fakeSource) Tile(id tile.ID) (DEMTile, bool) {
	for _, t := range s.tiles {
		if t.ID == id {
			return t, true
		}
	}
	return DEMTile{}, false
}

type fakeSources map[string]DEMSource

func (f fakeSources) RenderSource(id string) (DEMSource, bool) {
	s, ok := f[id]
	return s, ok
}

// failingContext fails drawable creation for names containing failOn.
type failingContext struct {
	*headless.Context
	failOn string
}

func (c *failingContext) CreateDrawable(desc gfx.DrawableDesc) (gfx.Drawable, error) {
	if c.failOn != "" && strings.Contains(desc.Name, c.failOn) {
		return nil, fmt.Errorf("injected failure for %s", desc.Name)
	}
	return c.Context.CreateDrawable(desc)
}

// flatDEM returns a size x size Mapbox raster at a constant elevation.
func flatDEM(t *testing.T, size int, meters float64) *dem.Data {
	t.Helper()
	r, g, b := dem.Encode(meters)
	px := make([]byte, size*size*4)
	for i := 0; i < len(px); i += 4 {
		px[i], px[i+1], px[i+2], px[i+3] = r, g, b, 255
	}
	d, err := dem.NewData(size, size, px, dem.EncodingMapbox)
	if err != nil {
		t.Fatalf("NewData failed: %v", err)
	}
	return d
}

// rampDEM returns a raster whose elevation grows by step meters per column.
func rampDEM(t *testing.T, size int, step float64) *dem.Data {
	t.Helper()
	px := make([]byte, size*size*4)
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			i := (y*size + x) * 4
			px[i], px[i+1], px[i+2] = dem.Encode(float64(x) * step)
			px[i+3] = 255
		}
	}
	d, err := dem.NewData(size, size, px, dem.EncodingMapbox)
	if err != nil {
		t.Fatalf("NewData failed: %v", err)
	}
	return d
}

type fixture struct {
	ctx     *headless.Context
	pool    *texpool.Pool
	source  *fakeSource
	sources fakeSources
}

func newFixture(t *testing.T, tiles ...DEMTile) *fixture {
	t.Helper()
	ctx := headless.New()
	src := &fakeSource{id: "dem", tiles: tiles}
	return &fixture{
		ctx:     ctx,
		pool:    texpool.New(ctx, 16),
		source:  src,
		sources: fakeSources{"dem": src},
	}
}

func (f *fixture) params() UpdateParameters {
	return UpdateParameters{Context: f.ctx, Sources: f.sources, RenderTargets: f.pool}
}
