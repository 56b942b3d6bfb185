package terrain

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Faultbox/relief/internal/gfx"
	"github.com/Faultbox/relief/internal/style"
	rmath "github.com/Faultbox/relief/pkg/math"
	"github.com/Faultbox/relief/pkg/tile"
)

// offsetTransform places each tile at (x, y) to make matrices distinguishable.
type offsetTransform struct{}

func (offsetTransform) MatrixForTile(id tile.ID) rmath.Mat4 {
	return rmath.Translation(float64(id.X), float64(id.Y), float64(id.Z))
}

func TestTweakerWritesBlocks(t *testing.T) {
	id := tile.New(6, 7, 6)
	parent := tile.New(5, 3, 3)
	f := newFixture(t, DEMTile{ID: id, Data: flatDEM(t, 2, 0), Loaded: true})
	f.pool.CreateRenderTarget(parent)

	r := New(style.NewTerrainConfig("dem", 2.0))
	r.Update(f.params())

	group := r.LayerGroup()
	NewLayerTweaker(r).Execute(group, PaintParameters{Transform: offsetTransform{}})

	props, ok := group.UniformBuffers().Get(EvaluatedPropsUBOIndex)
	if !ok {
		t.Fatal("evaluated props not written")
	}
	if got := float32At(props, 0); got != 6 {
		t.Errorf("exaggeration = %v, want 2 x %v", got, ExaggerationMultiplier)
	}
	if got := float32At(props, 1); got != 0 {
		t.Errorf("elevation offset = %v, want 0", got)
	}

	wantRTT, _ := CrossZoomMatrix(id, parent)
	wantMatrix := offsetTransform{}.MatrixForTile(id).Float32()
	wantRTT32 := wantRTT.Float32()

	group.Visit(func(d gfx.Drawable) {
		block, ok := d.UniformBuffers().Get(DrawableUBOIndex)
		if !ok {
			t.Fatal("drawable block not written")
		}
		for i := 0; i < 16; i++ {
			if float32At(block, i) != wantMatrix[i] {
				t.Fatalf("matrix[%d] = %v, want %v", i, float32At(block, i), wantMatrix[i])
			}
			if float32At(block, 16+i) != wantRTT32[i] {
				t.Fatalf("rtt_matrix[%d] = %v, want %v", i, float32At(block, 16+i), wantRTT32[i])
			}
		}
	})
}

func TestTweakerUploadsEveryFrame(t *testing.T) {
	id := tile.New(2, 1, 1)
	f := newFixture(t, DEMTile{ID: id, Data: flatDEM(t, 2, 0), Loaded: true})
	f.pool.CreateRenderTarget(id)

	r := New(style.NewTerrainConfig("dem", 1))
	r.Update(f.params())
	tw := NewLayerTweaker(r)

	for i := 0; i < 3; i++ {
		tw.Execute(r.LayerGroup(), PaintParameters{Transform: offsetTransform{}})
	}
	if v := r.LayerGroup().UniformBuffers().Version(EvaluatedPropsUBOIndex); v != 3 {
		t.Errorf("evaluated props written %d times, want 3", v)
	}
}

func TestTweakerNoOps(t *testing.T) {
	id := tile.New(2, 1, 1)
	f := newFixture(t, DEMTile{ID: id, Data: flatDEM(t, 2, 0), Loaded: true})
	f.pool.CreateRenderTarget(id)

	r := New(style.NewTerrainConfig("dem", 1))
	r.Update(f.params())
	group := r.LayerGroup()

	empty := gfx.NewLayerGroup(0, "empty")
	NewLayerTweaker(r).Execute(empty, PaintParameters{})
	if empty.UniformBuffers().Len() != 0 {
		t.Error("empty group should not receive blocks")
	}

	disabled := New(style.DefaultTerrainConfig())
	NewLayerTweaker(disabled).Execute(group, PaintParameters{})
	if group.UniformBuffers().Len() != 0 {
		t.Error("disabled terrain should not write blocks")
	}
}

func TestTweakerSkipsDrawablesWithoutTile(t *testing.T) {
	id := tile.New(2, 1, 1)
	f := newFixture(t, DEMTile{ID: id, Data: flatDEM(t, 2, 0), Loaded: true})
	f.pool.CreateRenderTarget(id)

	r := New(style.NewTerrainConfig("dem", 1))
	r.Update(f.params())

	vb, _ := f.ctx.CreateVertexBuffer([]byte{0})
	ib, _ := f.ctx.CreateIndexBuffer([]byte{0})
	orphan, err := f.ctx.CreateDrawable(gfx.DrawableDesc{Name: "orphan", Vertices: vb, Indices: ib})
	if err != nil {
		t.Fatalf("CreateDrawable failed: %v", err)
	}
	r.LayerGroup().AddDrawable(orphan)

	NewLayerTweaker(r).Execute(r.LayerGroup(), PaintParameters{Transform: offsetTransform{}})

	if orphan.UniformBuffers().Len() != 0 {
		t.Error("drawable without tile id should be skipped")
	}
}

func TestTweakerLogsUnrelatedTarget(t *testing.T) {
	id := tile.New(6, 7, 6)
	f := newFixture(t, DEMTile{ID: id, Data: flatDEM(t, 2, 0), Loaded: true})
	f.pool.CreateRenderTarget(id)

	r := New(style.NewTerrainConfig("dem", 1.0))
	r.Update(f.params())
	tracked, ok := r.tracked[id]
	if !ok {
		t.Fatal("tile not tracked")
	}
	stray := tile.New(6, 40, 40)
	tracked.targetID = stray

	core, logs := observer.New(zapcore.DebugLevel)
	lt := NewLayerTweaker(r)
	lt.log = zap.New(core)
	lt.Execute(r.LayerGroup(), PaintParameters{})

	entries := logs.FilterMessage("render target unrelated to tile, sampling as same tile").All()
	if len(entries) != 1 {
		t.Fatalf("got %d unrelated-target log entries, want 1", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["tile"] != id.String() || fields["target"] != stray.String() {
		t.Errorf("log fields = %v, want tile %v target %v", fields, id, stray)
	}

	want, _ := CrossZoomMatrix(id, id)
	want32 := want.Float32()
	r.LayerGroup().Visit(func(d gfx.Drawable) {
		block, ok := d.UniformBuffers().Get(DrawableUBOIndex)
		if !ok {
			t.Fatal("drawable block not written")
		}
		for i := 0; i < 16; i++ {
			if float32At(block, 16+i) != want32[i] {
				t.Fatalf("rtt_matrix[%d] = %v, want same-tile %v", i, float32At(block, 16+i), want32[i])
			}
		}
	})
}
