// Package source loads DEM tiles for the terrain renderer. Tiles are
// decoded on background goroutines; the rendering thread only sees
// consistent snapshots.
package source

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Faultbox/relief/internal/logger"
	"github.com/Faultbox/relief/internal/terrain"
	"github.com/Faultbox/relief/pkg/dem"
	"github.com/Faultbox/relief/pkg/tile"
)

// DefaultWorkers bounds concurrent tile decodes.
const DefaultWorkers = 4

type entry struct {
	data *dem.Data
	err  error
}

// Source is a raster-dem source backed by a Store.
type Source struct {
	id       string
	store    Store
	encoding dem.Encoding
	workers  int
	log      *zap.Logger

	mu    sync.Mutex
	tiles map[tile.ID]*entry
}

// New creates a source named id reading from store.
func New(id string, store Store, enc dem.Encoding, workers int) *Source {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	return &Source{
		id:       id,
		store:    store,
		encoding: enc,
		workers:  workers,
		log:      logger.Named("source").With(zap.String("source", id)),
		tiles:    make(map[tile.ID]*entry),
	}
}

// ID implements terrain.DEMSource.
func (s *Source) ID() string { return s.id }

// Encoding returns the raster encoding of the tiles.
func (s *Source) Encoding() dem.Encoding { return s.encoding }

// Load lists the store and decodes every tile. Tiles become visible as
// pending as soon as they are listed. A tile that fails to decode stays
// unloaded and is logged; only listing and cancellation errors are
// returned.
func (s *Source) Load(ctx context.Context) error {
	ids, err := s.store.List(ctx)
	if err != nil {
		return fmt.Errorf("source %s: %w", s.id, err)
	}

	s.mu.Lock()
	for _, id := range ids {
		if _, ok := s.tiles[id]; !ok {
			s.tiles[id] = &entry{}
		}
	}
	s.mu.Unlock()

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for _, id := range ids {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			s.loadTile(ctx, id)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("source %s: %w", s.id, err)
	}

	s.log.Info("dem tiles loaded", zap.Int("tiles", len(ids)), zap.Int("failed", s.failed()))
	return nil
}

// LoadTile decodes a single tile, registering it first if needed.
func (s *Source) LoadTile(ctx context.Context, id tile.ID) error {
	s.mu.Lock()
	if _, ok := s.tiles[id]; !ok {
		s.tiles[id] = &entry{}
	}
	s.mu.Unlock()
	return s.loadTile(ctx, id)
}

func (s *Source) loadTile(ctx context.Context, id tile.ID) error {
	raw, err := s.store.Read(ctx, id)
	var data *dem.Data
	if err == nil {
		data, err = dem.DecodeBytes(raw, s.encoding)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.tiles[id]
	e.data, e.err = data, err
	if err != nil {
		s.log.Warn("dem tile failed", zap.Stringer("tile", id), zap.Error(err))
	}
	return err
}

// Start runs Load in the background. The returned channel receives its
// result and is then closed.
func (s *Source) Start(ctx context.Context) <-chan error {
	done := make(chan error, 1)
	go func() {
		defer close(done)
		done <- s.Load(ctx)
	}()
	return done
}

// Tiles implements terrain.DEMSource. The result is sorted by zoom, then
// y, then x.
func (s *Source) Tiles() []terrain.DEMTile {
	s.mu.Lock()
	out := make([]terrain.DEMTile, 0, len(s.tiles))
	for id, e := range s.tiles {
		out = append(out, terrain.DEMTile{ID: id, Data: e.data, Loaded: e.data != nil})
	}
	s.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].ID, out[j].ID
		if a.Z != b.Z {
			return a.Z < b.Z
		}
		if a.Y != b.Y {
			return a.Y < b.Y
		}
		return a.X < b.X
	})
	return out
}

// Tile implements terrain.DEMSource.
func (s *Source) Tile(id tile.ID) (terrain.DEMTile, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.tiles[id]
	if !ok {
		return terrain.DEMTile{}, false
	}
	return terrain.DEMTile{ID: id, Data: e.data, Loaded: e.data != nil}, true
}

// Err returns the decode error recorded for id.
func (s *Source) Err(id tile.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.tiles[id]; ok {
		return e.err
	}
	return nil
}

// Loaded returns the number of decoded tiles.
func (s *Source) Loaded() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, e := range s.tiles {
		if e.data != nil {
			n++
		}
	}
	return n
}

func (s *Source) failed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, e := range s.tiles {
		if e.err != nil {
			n++
		}
	}
	return n
}

// Close closes the underlying store.
func (s *Source) Close() error { return s.store.Close() }

// Registry holds sources by id.
type Registry struct {
	mu      sync.RWMutex
	sources map[string]*Source
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{sources: make(map[string]*Source)}
}

// Add registers src. Ids must be unique.
func (r *Registry) Add(src *Source) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sources[src.ID()]; ok {
		return fmt.Errorf("source %q already registered", src.ID())
	}
	r.sources[src.ID()] = src
	return nil
}

// Get returns the source registered as id.
func (r *Registry) Get(id string) (*Source, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sources[id]
	return s, ok
}

// RenderSource implements terrain.Sources.
func (r *Registry) RenderSource(id string) (terrain.DEMSource, bool) {
	s, ok := r.Get(id)
	if !ok {
		return nil, false
	}
	return s, true
}

// IDs returns the registered ids in sorted order.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.sources))
	for id := range r.sources {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Close closes every source.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	var errs []error
	for id, s := range r.sources {
		if err := s.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", id, err))
		}
		delete(r.sources, id)
	}
	return errors.Join(errs...)
}
