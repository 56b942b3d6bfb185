package opengl

import (
	"fmt"
	"unsafe"

	"github.com/go-gl/gl/v4.1-core/gl"

	"github.com/Faultbox/relief/internal/gfx"
)

// Texture is a 2D RGBA texture.
type Texture struct {
	id     uint32
	width  int32
	height int32
}

// ID returns the OpenGL texture name.
func (t *Texture) ID() uint32 { return t.id }

// Size implements gfx.Texture.
func (t *Texture) Size() (int, int) { return int(t.width), int(t.height) }

// Release implements gfx.Texture.
func (t *Texture) Release() {
	if t.id != 0 {
		gl.DeleteTextures(1, &t.id)
		t.id = 0
	}
}

func internalFormat(ch gfx.ChannelType) (internal int32, xtype uint32) {
	if ch == gfx.ChannelHalfFloat {
		return gl.RGBA16F, gl.HALF_FLOAT
	}
	return gl.RGBA8, gl.UNSIGNED_BYTE
}

func newTexture(desc gfx.TextureDesc, pixels []byte) (*Texture, error) {
	if desc.Width <= 0 || desc.Height <= 0 {
		return nil, fmt.Errorf("invalid texture size %dx%d", desc.Width, desc.Height)
	}
	if pixels != nil && desc.Channel == gfx.ChannelUnsignedByte && len(pixels) != desc.Width*desc.Height*4 {
		return nil, fmt.Errorf("texture wants %d bytes, got %d", desc.Width*desc.Height*4, len(pixels))
	}

	t := &Texture{width: int32(desc.Width), height: int32(desc.Height)}
	gl.GenTextures(1, &t.id)
	gl.BindTexture(gl.TEXTURE_2D, t.id)

	internal, xtype := internalFormat(desc.Channel)
	var ptr unsafe.Pointer
	if len(pixels) > 0 {
		ptr = gl.Ptr(pixels)
	}
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
	gl.TexImage2D(gl.TEXTURE_2D, 0, internal, t.width, t.height, 0, gl.RGBA, xtype, ptr)

	filter := int32(gl.LINEAR)
	if desc.Filter == gfx.FilterNearest {
		filter = gl.NEAREST
	}
	wrap := int32(gl.CLAMP_TO_EDGE)
	if desc.Wrap == gfx.WrapRepeat {
		wrap = gl.REPEAT
	}
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, filter)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, filter)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, wrap)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, wrap)
	gl.BindTexture(gl.TEXTURE_2D, 0)

	return t, nil
}

// RenderTarget is an off-screen framebuffer with a sampleable color
// texture and a depth renderbuffer.
type RenderTarget struct {
	fbo      uint32
	color    *Texture
	depthRBO uint32
}

func newRenderTarget(width, height int, ch gfx.ChannelType) (*RenderTarget, error) {
	color, err := newTexture(gfx.TextureDesc{Width: width, Height: height, Channel: ch}, nil)
	if err != nil {
		return nil, err
	}
	rt := &RenderTarget{color: color}

	gl.GenFramebuffers(1, &rt.fbo)
	gl.BindFramebuffer(gl.FRAMEBUFFER, rt.fbo)
	gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.COLOR_ATTACHMENT0, gl.TEXTURE_2D, color.id, 0)

	gl.GenRenderbuffers(1, &rt.depthRBO)
	gl.BindRenderbuffer(gl.RENDERBUFFER, rt.depthRBO)
	gl.RenderbufferStorage(gl.RENDERBUFFER, gl.DEPTH_COMPONENT24, int32(width), int32(height))
	gl.FramebufferRenderbuffer(gl.FRAMEBUFFER, gl.DEPTH_ATTACHMENT, gl.RENDERBUFFER, rt.depthRBO)

	status := gl.CheckFramebufferStatus(gl.FRAMEBUFFER)
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	if status != gl.FRAMEBUFFER_COMPLETE {
		rt.Release()
		return nil, fmt.Errorf("framebuffer incomplete: 0x%x", status)
	}
	return rt, nil
}

// Texture implements gfx.RenderTarget.
func (rt *RenderTarget) Texture() gfx.Texture { return rt.color }

// Size implements gfx.RenderTarget.
func (rt *RenderTarget) Size() (int, int) { return rt.color.Size() }

// BindWithViewport binds the target and sets the viewport. The returned
// function restores the previous framebuffer and viewport.
func (rt *RenderTarget) BindWithViewport() func() {
	var prevFBO int32
	var prevViewport [4]int32
	gl.GetIntegerv(gl.FRAMEBUFFER_BINDING, &prevFBO)
	gl.GetIntegerv(gl.VIEWPORT, &prevViewport[0])

	gl.BindFramebuffer(gl.FRAMEBUFFER, rt.fbo)
	gl.Viewport(0, 0, rt.color.width, rt.color.height)

	return func() {
		gl.BindFramebuffer(gl.FRAMEBUFFER, uint32(prevFBO))
		gl.Viewport(prevViewport[0], prevViewport[1], prevViewport[2], prevViewport[3])
	}
}

// Fill implements gfx.Filler.
func (rt *RenderTarget) Fill(r, g, b, a uint8) {
	restore := rt.BindWithViewport()
	gl.ClearColor(float32(r)/255, float32(g)/255, float32(b)/255, float32(a)/255)
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
	restore()
}

// Release implements gfx.RenderTarget.
func (rt *RenderTarget) Release() {
	if rt.fbo != 0 {
		gl.DeleteFramebuffers(1, &rt.fbo)
		rt.fbo = 0
	}
	rt.color.Release()
	if rt.depthRBO != 0 {
		gl.DeleteRenderbuffers(1, &rt.depthRBO)
		rt.depthRBO = 0
	}
}

// Buffer is a vertex or index buffer object.
type Buffer struct {
	id     uint32
	target uint32
	size   int
}

func newBuffer(target uint32, data []byte) (*Buffer, error) {
	if len(data) == 0 {
		return nil, gfx.ErrEmptyData
	}
	b := &Buffer{target: target, size: len(data)}
	gl.GenBuffers(1, &b.id)
	gl.BindBuffer(target, b.id)
	gl.BufferData(target, len(data), gl.Ptr(data), gl.STATIC_DRAW)
	gl.BindBuffer(target, 0)
	return b, nil
}

// Len implements gfx.Buffer.
func (b *Buffer) Len() int { return b.size }

// Release implements gfx.Buffer.
func (b *Buffer) Release() {
	if b.id != 0 {
		gl.DeleteBuffers(1, &b.id)
		b.id = 0
	}
}
