// Package texpool keeps the off-screen color render targets that map
// content is drawn into, keyed by tile.
package texpool

import (
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/Faultbox/relief/internal/gfx"
	"github.com/Faultbox/relief/internal/logger"
	"github.com/Faultbox/relief/pkg/tile"
)

// DefaultTileSize is the edge length of a render target in pixels.
const DefaultTileSize = 512

// Pool maps tile ids to render targets. It owns every target it hands out;
// callers must not release them. Not safe for concurrent use.
type Pool struct {
	ctx      gfx.Context
	tileSize int
	targets  map[tile.ID]gfx.RenderTarget
	log      *zap.Logger
}

// New creates an empty pool allocating tileSize x tileSize targets.
func New(ctx gfx.Context, tileSize int) *Pool {
	if tileSize <= 0 {
		tileSize = DefaultTileSize
	}
	return &Pool{
		ctx:      ctx,
		tileSize: tileSize,
		targets:  make(map[tile.ID]gfx.RenderTarget),
		log:      logger.Named("texpool"),
	}
}

// TileSize returns the render target edge length.
func (p *Pool) TileSize() int { return p.tileSize }

// CreateRenderTarget allocates a target for id, replacing any existing one.
func (p *Pool) CreateRenderTarget(id tile.ID) (gfx.RenderTarget, error) {
	rt, err := p.ctx.CreateRenderTarget(p.tileSize, p.tileSize, gfx.ChannelUnsignedByte)
	if err != nil {
		return nil, fmt.Errorf("render target %s: %w", id, err)
	}
	if old, ok := p.targets[id]; ok {
		old.Release()
	}
	p.targets[id] = rt
	p.log.Debug("render target created", zap.Stringer("tile", id))
	return rt, nil
}

// RenderTarget returns the target registered for exactly id.
func (p *Pool) RenderTarget(id tile.ID) (gfx.RenderTarget, bool) {
	rt, ok := p.targets[id]
	return rt, ok
}

// AncestorOrDescendant returns the target registered for id, one of its
// ancestors or one of its descendants. The finest (highest zoom) candidate
// wins.
func (p *Pool) AncestorOrDescendant(id tile.ID) (gfx.RenderTarget, bool) {
	rt, _, ok := p.AncestorOrDescendantID(id)
	return rt, ok
}

// AncestorOrDescendantID is AncestorOrDescendant that also returns the
// tile the matched target belongs to.
func (p *Pool) AncestorOrDescendantID(id tile.ID) (gfx.RenderTarget, tile.ID, bool) {
	var (
		best    gfx.RenderTarget
		bestID  tile.ID
		matched bool
	)
	for key, rt := range p.targets {
		if !tile.Related(id, key) {
			continue
		}
		// Map order is random; break zoom ties on coordinates so the
		// result is stable across calls.
		if !matched || key.Z > bestID.Z || (key.Z == bestID.Z && less(key, bestID)) {
			best, bestID, matched = rt, key, true
		}
	}
	return best, bestID, matched
}

// Remove releases and forgets the target for id.
func (p *Pool) Remove(id tile.ID) bool {
	rt, ok := p.targets[id]
	if !ok {
		return false
	}
	rt.Release()
	delete(p.targets, id)
	return true
}

// Clear releases every target.
func (p *Pool) Clear() {
	for id, rt := range p.targets {
		rt.Release()
		delete(p.targets, id)
	}
}

// Len returns the number of registered targets.
func (p *Pool) Len() int { return len(p.targets) }

// IDs returns the registered tile ids sorted by zoom, then y, then x.
func (p *Pool) IDs() []tile.ID {
	ids := make([]tile.ID, 0, len(p.targets))
	for id := range p.targets {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return less(ids[i], ids[j]) })
	return ids
}

func less(a, b tile.ID) bool {
	if a.Z != b.Z {
		return a.Z < b.Z
	}
	if a.Y != b.Y {
		return a.Y < b.Y
	}
	return a.X < b.X
}
