// Package viewer wires DEM sources, render targets and the terrain layer
// into a frame loop.
package viewer

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Faultbox/relief/internal/config"
	"github.com/Faultbox/relief/internal/gfx"
	"github.com/Faultbox/relief/internal/logger"
	"github.com/Faultbox/relief/internal/source"
	"github.com/Faultbox/relief/internal/style"
	"github.com/Faultbox/relief/internal/terrain"
	"github.com/Faultbox/relief/internal/texpool"
	"github.com/Faultbox/relief/internal/transform"
	"github.com/Faultbox/relief/pkg/dem"
	"github.com/Faultbox/relief/pkg/tile"
)

// FrameStats summarizes one frame.
type FrameStats struct {
	Tracked  int // Tiles with a terrain drawable
	Targets  int // Render targets in the pool
	Uploaded int
	Drawn    int
}

// Scene owns everything a frame needs apart from the window: sources,
// render targets, the terrain style and layer, and the view transform.
// It works with any gfx backend.
type Scene struct {
	ctx     gfx.Context
	sources *source.Registry
	targets *texpool.Pool
	style   *style.Terrain
	watcher *style.Watcher
	terrain *terrain.RenderTerrain
	tweaker *terrain.LayerTweaker
	view    *transform.State

	// Placeholder fills render targets with a checker colour so the
	// drape is visible without a map renderer.
	Placeholder bool

	log *zap.Logger
}

// NewScene opens every configured source and builds the terrain layer
// for cfg.
func NewScene(ctx gfx.Context, cfg *config.Config) (*Scene, error) {
	s := &Scene{
		ctx:         ctx,
		sources:     source.NewRegistry(),
		targets:     texpool.New(ctx, cfg.Render.TileSize),
		Placeholder: true,
		log:         logger.Named("viewer"),
	}

	for _, sc := range cfg.Sources {
		if err := s.addSource(sc); err != nil {
			s.sources.Close()
			return nil, err
		}
	}

	s.terrain = terrain.New(cfg.Style())
	s.terrain.SetMeshGridSize(cfg.Render.MeshGrid)
	s.tweaker = terrain.NewLayerTweaker(s.terrain)
	s.style = style.NewTerrain(cfg.Style())
	s.style.SetObserver(s.terrain)

	v := cfg.Viewer
	s.view = transform.NewState(v.Width, v.Height, v.Zoom, v.CenterX, v.CenterY)

	s.log.Info("scene created",
		zap.Strings("sources", s.sources.IDs()),
		zap.String("terrain_source", cfg.Terrain.Source),
		zap.Float32("exaggeration", cfg.Terrain.Exaggeration))
	return s, nil
}

func (s *Scene) addSource(sc config.SourceConfig) error {
	enc, err := dem.ParseEncoding(sc.Encoding)
	if err != nil {
		return fmt.Errorf("source %s: %w", sc.ID, err)
	}
	store, err := source.OpenStore(sc.Path)
	if err != nil {
		return fmt.Errorf("source %s: %w", sc.ID, err)
	}
	if err := s.sources.Add(source.New(sc.ID, store, enc, sc.Workers)); err != nil {
		store.Close()
		return err
	}
	return nil
}

// Load decodes every source and returns when all of them are done.
func (s *Scene) Load(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, id := range s.sources.IDs() {
		src, _ := s.sources.Get(id)
		g.Go(func() error { return src.Load(ctx) })
	}
	return g.Wait()
}

// Start loads the sources in the background. Tiles show up in later
// frames as they finish decoding.
func (s *Scene) Start(ctx context.Context) {
	go func() {
		if err := s.Load(ctx); err != nil && !errors.Is(err, context.Canceled) {
			s.log.Warn("loading sources", zap.Error(err))
		}
	}()
}

// WatchStyle applies the terrain style in path and reloads it whenever the
// file changes.
func (s *Scene) WatchStyle(path string) error {
	cfg, err := style.LoadStyle(path)
	if err != nil {
		return err
	}
	s.style.Replace(cfg)

	w, err := style.NewWatcher(path, s.style)
	if err != nil {
		return fmt.Errorf("watching %s: %w", path, err)
	}
	s.watcher = w
	return nil
}

// Style returns the style-side terrain holder. Changes made through it
// reach the terrain layer.
func (s *Scene) Style() *style.Terrain { return s.style }

// Terrain returns the terrain layer.
func (s *Scene) Terrain() *terrain.RenderTerrain { return s.terrain }

// Targets returns the render target pool.
func (s *Scene) Targets() *texpool.Pool { return s.targets }

// Sources returns the source registry.
func (s *Scene) Sources() *source.Registry { return s.sources }

// View returns the view transform.
func (s *Scene) View() *transform.State { return s.view }

// Frame runs one frame: style reloads, render targets for newly loaded
// tiles, the terrain update, parameter sync, then upload and draw.
func (s *Scene) Frame() FrameStats {
	if s.watcher != nil {
		s.watcher.Poll()
	}
	if s.Placeholder {
		s.ensureTargets()
	}

	s.terrain.Update(terrain.UpdateParameters{
		Context:       s.ctx,
		Sources:       s.sources,
		RenderTargets: s.targets,
	})

	stats := FrameStats{
		Tracked: s.terrain.TrackedCount(),
		Targets: s.targets.Len(),
	}
	group := s.terrain.LayerGroup()
	if group == nil {
		return stats
	}
	s.tweaker.Execute(group, terrain.PaintParameters{Transform: s.view})
	stats.Uploaded = group.Upload()
	stats.Drawn = group.Render()
	return stats
}

// ensureTargets gives every ready tile of the terrain source a render
// target of its own.
func (s *Scene) ensureTargets() {
	src, ok := s.sources.RenderSource(s.terrain.SourceID())
	if !ok {
		return
	}
	for _, t := range src.Tiles() {
		if !t.Ready() {
			continue
		}
		if _, ok := s.targets.RenderTarget(t.ID); ok {
			continue
		}
		rt, err := s.targets.CreateRenderTarget(t.ID)
		if err != nil {
			s.log.Warn("render target", zap.Stringer("tile", t.ID), zap.Error(err))
			continue
		}
		if f, ok := rt.(gfx.Filler); ok {
			r, g, b := checker(t.ID)
			f.Fill(r, g, b, 255)
		}
	}
}

// checker returns a colour that alternates between neighbouring tiles and
// shifts with zoom.
func checker(id tile.ID) (r, g, b uint8) {
	palette := [...][3]uint8{
		{0xd8, 0xc9, 0x9b},
		{0x8f, 0xb3, 0x8a},
		{0xb5, 0x8d, 0x6b},
		{0x9c, 0xb8, 0xc9},
	}
	i := (int(id.X+id.Y)&1 + int(id.Z)*2) % len(palette)
	c := palette[i]
	return c[0], c[1], c[2]
}

// Close releases GPU resources and closes the sources.
func (s *Scene) Close() error {
	var errs []error
	if s.watcher != nil {
		errs = append(errs, s.watcher.Close())
	}
	s.style.SetObserver(nil)
	s.terrain.Release()
	s.targets.Clear()
	errs = append(errs, s.sources.Close())
	return errors.Join(errs...)
}
