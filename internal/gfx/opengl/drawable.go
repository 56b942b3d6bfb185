package opengl

import (
	"fmt"
	"sort"

	"github.com/go-gl/gl/v4.1-core/gl"

	"github.com/Faultbox/relief/internal/gfx"
	"github.com/Faultbox/relief/pkg/tile"
)

// Drawable draws indexed triangles with one program.
type Drawable struct {
	ctx      *Context
	prog     *program
	desc     gfx.DrawableDesc
	vertices *Buffer
	indices  *Buffer
	vao      uint32
	textures map[int]gfx.Texture
	uniforms *gfx.UniformBufferArray
	enabled  bool
}

func newDrawable(ctx *Context, prog *program, desc gfx.DrawableDesc, vb, ib *Buffer) *Drawable {
	textures := make(map[int]gfx.Texture, len(desc.Textures))
	for slot, tex := range desc.Textures {
		textures[slot] = tex
	}
	return &Drawable{
		ctx:      ctx,
		prog:     prog,
		desc:     desc,
		vertices: vb,
		indices:  ib,
		textures: textures,
		uniforms: gfx.NewUniformBufferArray(),
		enabled:  true,
	}
}

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

// Upload builds the vertex array object on first call.
func (d *Drawable) Upload() error {
	if d.vao != 0 {
		return nil
	}
	if d.vertices.id == 0 || d.indices.id == 0 {
		return fmt.Errorf("drawable %q: buffers released", d.desc.Name)
	}

	gl.GenVertexArrays(1, &d.vao)
	gl.BindVertexArray(d.vao)
	gl.BindBuffer(gl.ARRAY_BUFFER, d.vertices.id)
	for _, attr := range d.desc.Attributes {
		loc := uint32(attr.Location)
		switch attr.Type {
		case gfx.AttributeShort:
			gl.VertexAttribPointerWithOffset(loc, int32(attr.Components), gl.SHORT, false, int32(d.desc.Stride), uintptr(attr.Offset))
		default:
			gl.VertexAttribPointerWithOffset(loc, int32(attr.Components), gl.FLOAT, false, int32(d.desc.Stride), uintptr(attr.Offset))
		}
		gl.EnableVertexAttribArray(loc)
	}
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, d.indices.id)
	gl.BindVertexArray(0)
	return nil
}

// Draw implements gfx.Drawable.
func (d *Drawable) Draw(group *gfx.UniformBufferArray) error {
	if d.vao == 0 {
		if err := d.Upload(); err != nil {
			return err
		}
	}

	gl.UseProgram(d.prog.id)
	if group != nil {
		d.ctx.bindBlocks(group)
	}
	d.ctx.bindBlocks(d.uniforms)

	slots := make([]int, 0, len(d.textures))
	for slot := range d.textures {
		slots = append(slots, slot)
	}
	sort.Ints(slots)
	for _, slot := range slots {
		tex, ok := d.textures[slot].(*Texture)
		if !ok || tex.id == 0 {
			return fmt.Errorf("drawable %q: texture slot %d unusable", d.desc.Name, slot)
		}
		gl.ActiveTexture(gl.TEXTURE0 + uint32(slot))
		gl.BindTexture(gl.TEXTURE_2D, tex.id)
		if loc, ok := d.prog.samplers[slot]; ok && loc >= 0 {
			gl.Uniform1i(loc, int32(slot))
		}
	}

	gl.BindVertexArray(d.vao)
	gl.DrawElementsWithOffset(gl.TRIANGLES, int32(d.desc.IndexCount), gl.UNSIGNED_SHORT, 0)
	gl.BindVertexArray(0)
	return nil
}

// Release deletes the vertex array and parameter block buffers. Shared
// buffers and textures belong to their creators.
func (d *Drawable) Release() {
	if d.vao != 0 {
		gl.DeleteVertexArrays(1, &d.vao)
		d.vao = 0
	}
	d.ctx.releaseBlocks(d.uniforms)
}
