// Package opengl implements the gfx contracts on OpenGL 4.1 core.
// Every call must happen on the thread owning the GL context.
package opengl

import (
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"
	"go.uber.org/zap"

	"github.com/Faultbox/relief/internal/gfx"
	"github.com/Faultbox/relief/internal/logger"
)

// Context creates GL resources and tracks the uniform buffer objects
// backing parameter blocks.
type Context struct {
	programs map[string]*program
	blocks   map[*gfx.UniformBufferArray]map[int]*uniformBlock
}

// uniformBlock is the GL buffer mirroring one parameter block slot.
type uniformBlock struct {
	id      uint32
	size    int
	version uint64
}

// New initializes OpenGL function pointers and default state.
// Must be called AFTER the OpenGL context is created.
func New() (*Context, error) {
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}

	logger.Info("OpenGL initialized",
		zap.String("version", gl.GoStr(gl.GetString(gl.VERSION))),
		zap.String("renderer", gl.GoStr(gl.GetString(gl.RENDERER))),
	)

	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(gl.LESS)
	gl.ClearColor(0.1, 0.1, 0.15, 1.0)

	return &Context{
		programs: make(map[string]*program),
		blocks:   make(map[*gfx.UniformBufferArray]map[int]*uniformBlock),
	}, nil
}

// Close deletes programs and parameter block buffers.
func (c *Context) Close() {
	for name, p := range c.programs {
		gl.DeleteProgram(p.id)
		delete(c.programs, name)
	}
	for arr := range c.blocks {
		c.releaseBlocks(arr)
	}
}

// BeginFrame clears the default framebuffer and sets the viewport.
func (c *Context) BeginFrame(width, height int) {
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	gl.Viewport(0, 0, int32(width), int32(height))
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
}

// CreateTexture implements gfx.Context.
func (c *Context) CreateTexture(desc gfx.TextureDesc, pixels []byte) (gfx.Texture, error) {
	t, err := newTexture(desc, pixels)
	if err != nil {
		return nil, fmt.Errorf("creating texture: %w", err)
	}
	return t, nil
}

// CreateRenderTarget implements gfx.Context.
func (c *Context) CreateRenderTarget(width, height int, channel gfx.ChannelType) (gfx.RenderTarget, error) {
	rt, err := newRenderTarget(width, height, channel)
	if err != nil {
		return nil, fmt.Errorf("creating render target: %w", err)
	}
	return rt, nil
}

// CreateVertexBuffer implements gfx.Context.
func (c *Context) CreateVertexBuffer(data []byte) (gfx.Buffer, error) {
	b, err := newBuffer(gl.ARRAY_BUFFER, data)
	if err != nil {
		return nil, err
	}
	return b, nil
}

// CreateIndexBuffer implements gfx.Context.
func (c *Context) CreateIndexBuffer(data []byte) (gfx.Buffer, error) {
	b, err := newBuffer(gl.ELEMENT_ARRAY_BUFFER, data)
	if err != nil {
		return nil, err
	}
	return b, nil
}

// CreateDrawable implements gfx.Context. The shader named by desc must
// have been created with CreateProgram.
func (c *Context) CreateDrawable(desc gfx.DrawableDesc) (gfx.Drawable, error) {
	prog, ok := c.programs[desc.Shader]
	if !ok {
		return nil, fmt.Errorf("drawable %q: unknown program %q", desc.Name, desc.Shader)
	}
	vb, ok := desc.Vertices.(*Buffer)
	if !ok {
		return nil, fmt.Errorf("drawable %q: vertex buffer from another backend", desc.Name)
	}
	ib, ok := desc.Indices.(*Buffer)
	if !ok {
		return nil, fmt.Errorf("drawable %q: index buffer from another backend", desc.Name)
	}
	return newDrawable(c, prog, desc, vb, ib), nil
}

// bindBlocks uploads changed slots of arr and binds them to their
// binding points.
func (c *Context) bindBlocks(arr *gfx.UniformBufferArray) {
	slots, ok := c.blocks[arr]
	if !ok {
		slots = make(map[int]*uniformBlock)
		c.blocks[arr] = slots
	}
	arr.Visit(func(id int, data []byte) {
		if len(data) == 0 {
			return
		}
		b, ok := slots[id]
		if !ok {
			b = &uniformBlock{}
			gl.GenBuffers(1, &b.id)
			slots[id] = b
		}
		if v := arr.Version(id); v != b.version || b.size != len(data) {
			gl.BindBuffer(gl.UNIFORM_BUFFER, b.id)
			if b.size != len(data) {
				gl.BufferData(gl.UNIFORM_BUFFER, len(data), gl.Ptr(data), gl.DYNAMIC_DRAW)
				b.size = len(data)
			} else {
				gl.BufferSubData(gl.UNIFORM_BUFFER, 0, len(data), gl.Ptr(data))
			}
			b.version = v
		}
		gl.BindBufferBase(gl.UNIFORM_BUFFER, uint32(id), b.id)
	})
}

func (c *Context) releaseBlocks(arr *gfx.UniformBufferArray) {
	for _, b := range c.blocks[arr] {
		gl.DeleteBuffers(1, &b.id)
	}
	delete(c.blocks, arr)
}

// ReadFramebuffer reads the default framebuffer as RGBA, bottom row first.
func (c *Context) ReadFramebuffer(width, height int) []byte {
	pixels := make([]byte, width*height*4)
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	gl.ReadPixels(0, 0, int32(width), int32(height), gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(pixels))
	return pixels
}
