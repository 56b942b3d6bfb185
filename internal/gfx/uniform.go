package gfx

import "sort"

// UniformBufferArray holds parameter blocks keyed by a fixed numeric slot
// id. Data is copied on write so callers may reuse their buffers.
type UniformBufferArray struct {
	blocks  map[int][]byte
	version map[int]uint64
}

// NewUniformBufferArray returns an empty array.
func NewUniformBufferArray() *UniformBufferArray {
	return &UniformBufferArray{
		blocks:  make(map[int][]byte),
		version: make(map[int]uint64),
	}
}

// CreateOrUpdate stores data in slot id, reusing the slot's storage when
// the size is unchanged.
func (u *UniformBufferArray) CreateOrUpdate(id int, data []byte) {
	buf, ok := u.blocks[id]
	if !ok || len(buf) != len(data) {
		buf = make([]byte, len(data))
		u.blocks[id] = buf
	}
	copy(buf, data)
	u.version[id]++
}

// Get returns the block in slot id.
func (u *UniformBufferArray) Get(id int) ([]byte, bool) {
	b, ok := u.blocks[id]
	return b, ok
}

// Version counts the writes to slot id.
func (u *UniformBufferArray) Version(id int) uint64 {
	return u.version[id]
}

// Len returns the number of populated slots.
func (u *UniformBufferArray) Len() int {
	return len(u.blocks)
}

// Visit calls fn for each slot in ascending id order.
func (u *UniformBufferArray) Visit(fn func(id int, data []byte)) {
	ids := make([]int, 0, len(u.blocks))
	for id := range u.blocks {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		fn(id, u.blocks[id])
	}
}
