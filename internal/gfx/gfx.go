// Package gfx defines the backend-agnostic rendering contracts the terrain
// core builds against. Concrete backends (OpenGL, headless) implement
// Context; the core never branches on backend type.
package gfx

import (
	"errors"

	"github.com/Faultbox/relief/pkg/tile"
)

// ErrEmptyData is returned when a buffer or texture is created from no bytes.
var ErrEmptyData = errors.New("gfx: empty data")

// Filter selects texture minification/magnification filtering.
type Filter int

const (
	FilterLinear Filter = iota
	FilterNearest
)

// Wrap selects texture addressing outside [0, 1].
type Wrap int

const (
	WrapClamp Wrap = iota
	WrapRepeat
)

// ChannelType is the per-channel storage type of a texture.
type ChannelType int

const (
	ChannelUnsignedByte ChannelType = iota
	ChannelHalfFloat
)

// TextureDesc describes a 2D RGBA texture.
type TextureDesc struct {
	Width   int
	Height  int
	Channel ChannelType
	Filter  Filter
	Wrap    Wrap
}

// Texture is a GPU-resident image.
type Texture interface {
	Size() (width, height int)
	Release()
}

// RenderTarget is an off-screen color target whose texture can be sampled
// by later draws.
type RenderTarget interface {
	Texture() Texture
	Size() (width, height int)
	Release()
}

// Buffer is an uploaded vertex or index buffer.
type Buffer interface {
	Len() int
	Release()
}

// AttributeType is the component type of a vertex attribute.
type AttributeType int

const (
	AttributeShort AttributeType = iota
	AttributeFloat
)

// VertexAttribute describes one attribute inside an interleaved vertex.
type VertexAttribute struct {
	Name       string
	Location   int
	Components int
	Type       AttributeType
	Offset     int
}

// DrawableDesc is the build instruction for a drawable. It only carries
// backend-neutral data: buffers, layout, texture bindings and a tile key.
type DrawableDesc struct {
	Name       string
	Shader     string
	TileID     *tile.ID
	Vertices   Buffer
	Attributes []VertexAttribute
	Stride     int
	Indices    Buffer
	IndexCount int
	Textures   map[int]Texture
}

// Drawable is a self-contained renderable unit.
type Drawable interface {
	Name() string
	// TileID returns the tile this drawable belongs to, if any.
	TileID() (tile.ID, bool)
	UniformBuffers() *UniformBufferArray
	SetTexture(slot int, tex Texture)
	Texture(slot int) Texture
	Enabled() bool
	SetEnabled(bool)
	Upload() error
	// Draw issues the draw using group-level parameter blocks plus the
	// drawable's own.
	Draw(group *UniformBufferArray) error
	Release()
}

// Context creates backend resources.
type Context interface {
	CreateTexture(desc TextureDesc, pixels []byte) (Texture, error)
	CreateRenderTarget(width, height int, channel ChannelType) (RenderTarget, error)
	CreateVertexBuffer(data []byte) (Buffer, error)
	CreateIndexBuffer(data []byte) (Buffer, error)
	CreateDrawable(desc DrawableDesc) (Drawable, error)
}

// ProgramDesc is the source of a shader program together with the
// parameter block and sampler names bound to each numeric slot.
type ProgramDesc struct {
	Name     string
	Vertex   string
	Fragment string
	Blocks   map[int]string
	Samplers map[int]string
}

// Filler is implemented by render targets that can be cleared to a
// solid colour from the host.
type Filler interface {
	Fill(r, g, b, a uint8)
}
