// Package headless is a CPU-side gfx backend. It keeps every resource in
// host memory and records uploads and draws, which makes it usable for
// tests and for running the terrain pipeline without a GPU.
package headless

import (
	"fmt"

	"github.com/Faultbox/relief/internal/gfx"
	"github.com/Faultbox/relief/pkg/tile"
)

// Stats counts live resources and submitted work.
type Stats struct {
	Textures      int
	RenderTargets int
	Buffers       int
	Drawables     int
	Uploads       int
	Draws         int
}

// Context implements gfx.Context in host memory.
type Context struct {
	stats Stats
}

// New returns an empty context.
func New() *Context {
	return &Context{}
}

// Stats returns a copy of the current counters.
func (c *Context) Stats() Stats {
	return c.stats
}

// Texture is a host-memory texture.
type Texture struct {
	ctx      *Context
	Desc     gfx.TextureDesc
	Pixels   []byte
	released bool
}

// Size implements gfx.Texture.
func (t *Texture) Size() (int, int) { return t.Desc.Width, t.Desc.Height }

// Released reports whether Release has been called.
func (t *Texture) Released() bool { return t.released }

// Release implements gfx.Texture.
func (t *Texture) Release() {
	if t.released {
		return
	}
	t.released = true
	t.ctx.stats.Textures--
}

// CreateTexture implements gfx.Context.
func (c *Context) CreateTexture(desc gfx.TextureDesc, pixels []byte) (gfx.Texture, error) {
	if desc.Width <= 0 || desc.Height <= 0 {
		return nil, fmt.Errorf("headless: invalid texture size %dx%d", desc.Width, desc.Height)
	}
	if pixels != nil && len(pixels) != desc.Width*desc.Height*4 {
		return nil, fmt.Errorf("headless: texture wants %d bytes, got %d", desc.Width*desc.Height*4, len(pixels))
	}
	data := make([]byte, desc.Width*desc.Height*4)
	copy(data, pixels)
	c.stats.Textures++
	return &Texture{ctx: c, Desc: desc, Pixels: data}, nil
}

// RenderTarget is a host-memory render target.
type RenderTarget struct {
	ctx      *Context
	color    *Texture
	released bool
}

// Texture implements gfx.RenderTarget.
func (r *RenderTarget) Texture() gfx.Texture { return r.color }

// Size implements gfx.RenderTarget.
func (r *RenderTarget) Size() (int, int) { return r.color.Size() }

// Fill implements gfx.Filler.
func (r *RenderTarget) Fill(red, green, blue, alpha uint8) {
	px := r.color.Pixels
	for i := 0; i < len(px); i += 4 {
		px[i], px[i+1], px[i+2], px[i+3] = red, green, blue, alpha
	}
}

// Released reports whether Release has been called.
func (r *RenderTarget) Released() bool { return r.released }

// Release implements gfx.RenderTarget.
func (r *RenderTarget) Release() {
	if r.released {
		return
	}
	r.released = true
	r.color.Release()
	r.ctx.stats.RenderTargets--
}

// CreateRenderTarget implements gfx.Context.
func (c *Context) CreateRenderTarget(width, height int, channel gfx.ChannelType) (gfx.RenderTarget, error) {
	tex, err := c.CreateTexture(gfx.TextureDesc{Width: width, Height: height, Channel: channel}, nil)
	if err != nil {
		return nil, fmt.Errorf("headless: render target: %w", err)
	}
	c.stats.RenderTargets++
	return &RenderTarget{ctx: c, color: tex.(*Texture)}, nil
}

// Buffer is a host-memory vertex or index buffer.
type Buffer struct {
	ctx      *Context
	Data     []byte
	released bool
}

// Len implements gfx.Buffer.
func (b *Buffer) Len() int { return len(b.Data) }

// Release implements gfx.Buffer.
func (b *Buffer) Release() {
	if b.released {
		return
	}
	b.released = true
	b.ctx.stats.Buffers--
}

func (c *Context) createBuffer(data []byte) (gfx.Buffer, error) {
	if len(data) == 0 {
		return nil, gfx.ErrEmptyData
	}
	c.stats.Buffers++
	return &Buffer{ctx: c, Data: append([]byte(nil), data...)}, nil
}

// CreateVertexBuffer implements gfx.Context.
func (c *Context) CreateVertexBuffer(data []byte) (gfx.Buffer, error) {
	return c.createBuffer(data)
}

// CreateIndexBuffer implements gfx.Context.
func (c *Context) CreateIndexBuffer(data []byte) (gfx.Buffer, error) {
	return c.createBuffer(data)
}

// Drawable records what the GPU would have been asked to do.
type Drawable struct {
	ctx      *Context
	desc     gfx.DrawableDesc
	textures map[int]gfx.Texture
	uniforms *gfx.UniformBufferArray
	enabled  bool
	released bool

	Uploads int
	Draws   int
	// LastGroup is the group-level block set seen by the latest Draw.
	LastGroup *gfx.UniformBufferArray
}

// CreateDrawable implements gfx.Context.
func (c *Context) CreateDrawable(desc gfx.DrawableDesc) (gfx.Drawable, error) {
	if desc.Vertices == nil || desc.Indices == nil {
		return nil, fmt.Errorf("headless: drawable %q needs vertex and index buffers", desc.Name)
	}
	textures := make(map[int]gfx.Texture, len(desc.Textures))
	for slot, tex := range desc.Textures {
		textures[slot] = tex
	}
	c.stats.Drawables++
	return &Drawable{
		ctx:      c,
		desc:     desc,
		textures: textures,
		uniforms: gfx.NewUniformBufferArray(),
		enabled:  true,
	}, nil
}

// Desc returns the build description.
func (d *Drawable) Desc() gfx.DrawableDesc { return d.desc }

// Name implements gfx.Drawable.
func (d *Drawable) Name() string { return d.desc.Name }

// TileID implements gfx.Drawable.
func (d *Drawable) TileID() (tile.ID, bool) {
	if d.desc.TileID == nil {
		return tile.ID{}, false
	}
	return *d.desc.TileID, true
}

// UniformBuffers implements gfx.Drawable.
func (d *Drawable) UniformBuffers() *gfx.UniformBufferArray { return d.uniforms }

// SetTexture implements gfx.Drawable.
func (d *Drawable) SetTexture(slot int, tex gfx.Texture) { d.textures[slot] = tex }

// Texture implements gfx.Drawable.
func (d *Drawable) Texture(slot int) gfx.Texture { return d.textures[slot] }

// Enabled implements gfx.Drawable.
func (d *Drawable) Enabled() bool { return d.enabled }

// SetEnabled implements gfx.Drawable.
func (d *Drawable) SetEnabled(enabled bool) { d.enabled = enabled }

// Upload implements gfx.Drawable.
func (d *Drawable) Upload() error {
	if d.released {
		return fmt.Errorf("headless: upload of released drawable %q", d.desc.Name)
	}
	d.Uploads++
	d.ctx.stats.Uploads++
	return nil
}

// Draw implements gfx.Drawable.
func (d *Drawable) Draw(group *gfx.UniformBufferArray) error {
	if d.released {
		return fmt.Errorf("headless: draw of released drawable %q", d.desc.Name)
	}
	d.Draws++
	d.LastGroup = group
	d.ctx.stats.Draws++
	return nil
}

// Released reports whether Release has been called.
func (d *Drawable) Released() bool { return d.released }

// Release implements gfx.Drawable. Textures are owned by the caller and
// are not released here.
func (d *Drawable) Release() {
	if d.released {
		return
	}
	d.released = true
	d.ctx.stats.Drawables--
}
