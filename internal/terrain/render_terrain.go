package terrain

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/relief/internal/gfx"
	"github.com/Faultbox/relief/internal/logger"
	"github.com/Faultbox/relief/internal/style"
	"github.com/Faultbox/relief/pkg/tile"
)

// ShaderName identifies the terrain program in drawable descriptions.
const ShaderName = "terrain"

// LayerName is the name of the terrain layer group.
const LayerName = "terrain"

// State is the lifecycle stage of a RenderTerrain.
type State int

const (
	// StateUninitialized has no source configured; terrain is disabled.
	StateUninitialized State = iota
	// StateConfigured has a source id that has not been found yet.
	StateConfigured
	// StateSourceResolved has a DEM source but no drawables.
	StateSourceResolved
	// StateActive has at least one drawable.
	StateActive
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateConfigured:
		return "configured"
	case StateSourceResolved:
		return "source-resolved"
	case StateActive:
		return "active"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// trackedTile is the render state kept per DEM tile.
type trackedTile struct {
	drawable gfx.Drawable
	dem      gfx.Texture
	target   gfx.RenderTarget
	targetID tile.ID
}

// RenderTerrain turns DEM tiles into draped drawables. All methods must be
// called from the rendering thread.
type RenderTerrain struct {
	config     style.TerrainConfig
	state      State
	source     DEMSource
	layerIndex int

	gridSize int
	mesh     *Mesh
	meshCtx  gfx.Context
	vertices gfx.Buffer
	indices  gfx.Buffer

	group   *gfx.LayerGroup
	tracked map[tile.ID]*trackedTile

	log *zap.Logger
}

// New creates a terrain for cfg. The terrain stays disabled while cfg has
// no source id.
func New(cfg style.TerrainConfig) *RenderTerrain {
	r := &RenderTerrain{
		gridSize: MeshSize,
		tracked:  make(map[tile.ID]*trackedTile),
		log:      logger.Named("terrain"),
	}
	r.applyConfig(cfg)
	return r
}

// SetLayerIndex sets the index the layer group is created with.
func (r *RenderTerrain) SetLayerIndex(index int) { r.layerIndex = index }

// SetMeshGridSize sets the cells per side of the shared mesh. It only
// takes effect before the mesh is first generated.
func (r *RenderTerrain) SetMeshGridSize(n int) {
	if r.mesh == nil {
		r.gridSize = n
	}
}

// Config returns the current configuration.
func (r *RenderTerrain) Config() style.TerrainConfig { return r.config }

// State returns the lifecycle stage.
func (r *RenderTerrain) State() State { return r.state }

// Enabled reports whether a source id is configured.
func (r *RenderTerrain) Enabled() bool { return r.config.SourceID() != "" }

// Exaggeration returns the configured exaggeration.
func (r *RenderTerrain) Exaggeration() float32 { return r.config.Exaggeration() }

// SourceID returns the configured DEM source id.
func (r *RenderTerrain) SourceID() string { return r.config.SourceID() }

// LayerGroup returns the terrain layer group, or nil before the first
// update that resolved a source.
func (r *RenderTerrain) LayerGroup() *gfx.LayerGroup { return r.group }

// TrackedCount returns the number of tiles with a drawable.
func (r *RenderTerrain) TrackedCount() int { return len(r.tracked) }

// IsTracked reports whether id has a drawable.
func (r *RenderTerrain) IsTracked(id tile.ID) bool {
	_, ok := r.tracked[id]
	return ok
}

// RenderTargetTileFor returns the tile whose render target the drawable
// for id currently samples.
func (r *RenderTerrain) RenderTargetTileFor(id tile.ID) (tile.ID, bool) {
	t, ok := r.tracked[id]
	if !ok {
		return tile.ID{}, false
	}
	return t.targetID, true
}

// SetConfig replaces the configuration. Any change tears down the drawable
// set; it is rebuilt by the following updates.
func (r *RenderTerrain) SetConfig(cfg style.TerrainConfig) {
	if cfg == r.config {
		return
	}
	r.log.Info("terrain config changed",
		zap.String("source", cfg.SourceID()),
		zap.Float32("exaggeration", cfg.Exaggeration()))
	r.Invalidate()
	if cfg.SourceID() != r.config.SourceID() {
		r.source = nil
	}
	r.applyConfig(cfg)
}

// OnTerrainChanged implements style.Observer.
func (r *RenderTerrain) OnTerrainChanged(cfg style.TerrainConfig) { r.SetConfig(cfg) }

func (r *RenderTerrain) applyConfig(cfg style.TerrainConfig) {
	r.config = cfg
	switch {
	case !r.Enabled():
		r.state = StateUninitialized
	case r.source != nil:
		r.state = StateSourceResolved
	default:
		r.state = StateConfigured
	}
}

// Invalidate deactivates and discards the layer group together with every
// drawable and DEM texture. The next update rebuilds from scratch.
func (r *RenderTerrain) Invalidate() {
	if r.group != nil {
		r.group.SetEnabled(false)
		r.group.Clear()
		r.group = nil
	}
	for id, t := range r.tracked {
		t.dem.Release()
		delete(r.tracked, id)
	}
	if r.state == StateActive {
		r.state = StateSourceResolved
	}
}

// Release frees every GPU resource, including the shared mesh buffers.
func (r *RenderTerrain) Release() {
	r.Invalidate()
	if r.vertices != nil {
		r.vertices.Release()
		r.vertices = nil
	}
	if r.indices != nil {
		r.indices.Release()
		r.indices = nil
	}
	r.meshCtx = nil
}

// Mesh returns the shared grid, generating it on first use.
func (r *RenderTerrain) Mesh() (*Mesh, error) {
	if r.mesh == nil {
		mesh, err := GenerateMesh(r.gridSize, LayoutPositionTexCoord)
		if err != nil {
			return nil, err
		}
		r.mesh = mesh
		r.log.Info("terrain mesh generated",
			zap.Int("vertices", mesh.VertexCount()),
			zap.Int("indices", mesh.IndexCount()))
	}
	return r.mesh, nil
}

// meshBuffers uploads the shared mesh once per context.
func (r *RenderTerrain) meshBuffers(ctx gfx.Context) error {
	if r.vertices != nil && r.meshCtx == ctx {
		return nil
	}
	mesh, err := r.Mesh()
	if err != nil {
		return err
	}
	vb, err := ctx.CreateVertexBuffer(mesh.VertexBytes())
	if err != nil {
		return fmt.Errorf("mesh vertices: %w", err)
	}
	ib, err := ctx.CreateIndexBuffer(mesh.IndexBytes())
	if err != nil {
		vb.Release()
		return fmt.Errorf("mesh indices: %w", err)
	}
	if r.vertices != nil {
		// New context: drawables built on the old buffers are stale.
		r.Release()
	}
	r.vertices, r.indices, r.meshCtx = vb, ib, ctx
	return nil
}

// Update resolves the DEM source and creates drawables for tiles that
// became ready. Tiles that are not loaded or have no render target yet are
// retried on the next call.
func (r *RenderTerrain) Update(params UpdateParameters) {
	if !r.Enabled() {
		return
	}

	if r.source == nil {
		if params.Sources == nil {
			return
		}
		src, ok := params.Sources.RenderSource(r.config.SourceID())
		if !ok {
			r.log.Debug("dem source not found", zap.String("source", r.config.SourceID()))
			return
		}
		r.source = src
		r.state = StateSourceResolved
		r.log.Info("dem source resolved", zap.String("source", src.ID()))
	}

	if r.group == nil {
		r.group = gfx.NewLayerGroup(r.layerIndex, LayerName)
	}

	if params.Context == nil || params.RenderTargets == nil {
		return
	}
	if err := r.meshBuffers(params.Context); err != nil {
		r.log.Warn("terrain mesh unavailable", zap.Error(err))
		return
	}

	for _, t := range r.source.Tiles() {
		if tracked, ok := r.tracked[t.ID]; ok {
			r.refreshTarget(t.ID, tracked, params.RenderTargets)
			continue
		}
		if !t.Ready() {
			continue
		}
		rt, targetID, ok := params.RenderTargets.AncestorOrDescendantID(t.ID)
		if !ok {
			continue
		}
		if err := r.addTile(params.Context, t, rt, targetID); err != nil {
			r.log.Warn("terrain tile skipped", zap.Stringer("tile", t.ID), zap.Error(err))
		}
	}

	if len(r.tracked) > 0 {
		r.state = StateActive
	}
}

func (r *RenderTerrain) addTile(ctx gfx.Context, t DEMTile, rt gfx.RenderTarget, targetID tile.ID) error {
	demTex, err := ctx.CreateTexture(gfx.TextureDesc{
		Width:   t.Data.Width,
		Height:  t.Data.Height,
		Channel: gfx.ChannelUnsignedByte,
		Filter:  gfx.FilterLinear,
		Wrap:    gfx.WrapClamp,
	}, t.Data.MapboxPixels())
	if err != nil {
		return fmt.Errorf("dem texture: %w", err)
	}

	id := t.ID
	d, err := ctx.CreateDrawable(gfx.DrawableDesc{
		Name:       "terrain " + id.String(),
		Shader:     ShaderName,
		TileID:     &id,
		Vertices:   r.vertices,
		Attributes: r.mesh.Attributes(),
		Stride:     r.mesh.Stride(),
		Indices:    r.indices,
		IndexCount: r.mesh.IndexCount(),
		Textures: map[int]gfx.Texture{
			DEMTextureSlot: demTex,
			MapTextureSlot: rt.Texture(),
		},
	})
	if err != nil {
		demTex.Release()
		return fmt.Errorf("drawable: %w", err)
	}
	d.UniformBuffers().CreateOrUpdate(TilePropsUBOIndex, TilePropsUBO{DEMScale: 1}.Bytes())

	r.group.AddDrawable(d)
	r.tracked[id] = &trackedTile{drawable: d, dem: demTex, target: rt, targetID: targetID}
	r.log.Debug("terrain drawable created",
		zap.Stringer("tile", id),
		zap.Stringer("target", targetID))
	return nil
}

// refreshTarget rebinds the colour texture when the best render target
// for id changed, and hides the drawable while none exists.
func (r *RenderTerrain) refreshTarget(id tile.ID, t *trackedTile, targets RenderTargets) {
	rt, targetID, ok := targets.AncestorOrDescendantID(id)
	if !ok {
		t.drawable.SetEnabled(false)
		return
	}
	if rt != t.target || targetID != t.targetID {
		t.drawable.SetTexture(MapTextureSlot, rt.Texture())
		t.target, t.targetID = rt, targetID
		r.log.Debug("terrain render target rebound",
			zap.Stringer("tile", id),
			zap.Stringer("target", targetID))
	}
	t.drawable.SetEnabled(true)
}
