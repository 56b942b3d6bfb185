package gfx

import (
	"go.uber.org/zap"

	"github.com/Faultbox/relief/internal/logger"
)

// LayerGroup is a logical rendering group: an ordered, append-only set of
// drawables sharing group-level parameter blocks.
type LayerGroup struct {
	name      string
	index     int
	enabled   bool
	drawables []Drawable
	uniforms  *UniformBufferArray
	log       *zap.Logger
}

// NewLayerGroup creates an enabled, empty group.
func NewLayerGroup(index int, name string) *LayerGroup {
	return &LayerGroup{
		name:     name,
		index:    index,
		enabled:  true,
		uniforms: NewUniformBufferArray(),
		log:      logger.Named("gfx").With(zap.String("group", name)),
	}
}

// Name returns the group name.
func (g *LayerGroup) Name() string { return g.name }

// Index returns the group's layer index.
func (g *LayerGroup) Index() int { return g.index }

// Enabled reports whether the group participates in upload and render.
func (g *LayerGroup) Enabled() bool { return g.enabled }

// SetEnabled activates or deactivates the group.
func (g *LayerGroup) SetEnabled(enabled bool) { g.enabled = enabled }

// UniformBuffers returns the group-level parameter blocks.
func (g *LayerGroup) UniformBuffers() *UniformBufferArray { return g.uniforms }

// AddDrawable appends d.
func (g *LayerGroup) AddDrawable(d Drawable) {
	g.drawables = append(g.drawables, d)
}

// DrawableCount returns the number of drawables.
func (g *LayerGroup) DrawableCount() int { return len(g.drawables) }

// Empty reports whether the group has no drawables.
func (g *LayerGroup) Empty() bool { return len(g.drawables) == 0 }

// Visit calls fn for every drawable in insertion order.
func (g *LayerGroup) Visit(fn func(Drawable)) {
	for _, d := range g.drawables {
		fn(d)
	}
}

// Clear releases and removes every drawable.
func (g *LayerGroup) Clear() {
	for _, d := range g.drawables {
		d.Release()
	}
	g.drawables = nil
}

// Upload uploads every enabled drawable. It returns the number uploaded.
func (g *LayerGroup) Upload() int {
	if !g.enabled {
		return 0
	}
	uploaded := 0
	for _, d := range g.drawables {
		if !d.Enabled() {
			continue
		}
		if err := d.Upload(); err != nil {
			g.log.Warn("drawable upload failed", zap.String("drawable", d.Name()), zap.Error(err))
			continue
		}
		uploaded++
	}
	return uploaded
}

// Render draws every enabled drawable and returns the number drawn. A
// disabled or empty group draws nothing.
func (g *LayerGroup) Render() int {
	if !g.enabled || len(g.drawables) == 0 {
		return 0
	}
	drawn := 0
	for _, d := range g.drawables {
		if !d.Enabled() {
			continue
		}
		if err := d.Draw(g.uniforms); err != nil {
			g.log.Warn("drawable draw failed", zap.String("drawable", d.Name()), zap.Error(err))
			continue
		}
		drawn++
	}
	return drawn
}
