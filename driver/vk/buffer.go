// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package vk

import (
	vk "github.com/vulkan-go/vulkan"

	"github.com/gviegas/vkcore/refc"
)

// Buffer is a reference-counted VkBuffer.
type Buffer struct {
	d    Device
	ref  refc.Cell
	buf  vk.Buffer
	mem  vk.DeviceMemory // Optional.
	size int64
	vis  bool
	sync syncTable
}

// NewBuffer wraps buf, which must be a live handle created
// from the device that d represents.
// If mem is not nil, it is the memory bound to buf and it
// is freed together with the buffer.
// The returned Buffer holds one reference owned by the
// caller.
func NewBuffer(d Device, buf vk.Buffer, mem vk.DeviceMemory, size int64, visible bool) *Buffer {
	if buf == nil {
		violation("NewBuffer: nil buffer handle")
	}
	b := &Buffer{
		d:    d,
		buf:  buf,
		mem:  mem,
		size: size,
		vis:  visible,
		sync: newSyncTable(1, 1, vk.ImageLayoutUndefined),
	}
	b.ref.Init(b.destroy)
	return b
}

// Handle returns the VkBuffer.
func (b *Buffer) Handle() vk.Buffer { return b.buf }

// Visible returns whether the buffer is host visible.
func (b *Buffer) Visible() bool { return b.vis }

// Cap returns the capacity of the buffer in bytes.
func (b *Buffer) Cap() int64 { return b.size }

// Ref returns the buffer's reference count cell.
func (b *Buffer) Ref() *refc.Cell { return &b.ref }

// Dispose gives up the caller's reference.
func (b *Buffer) Dispose() { b.ref.DecrementDispose() }

// State returns the synchronization state of the buffer.
func (b *Buffer) State() SyncState { return *b.sync.state(Subresource{}) }

func (b *Buffer) syncState(sub Subresource) *SyncState { return b.sync.state(sub) }

// Buffers are never transitioned.
func (b *Buffer) layouts() bool { return false }

// destroy releases the native handles.
func (b *Buffer) destroy() {
	b.d.DestroyBuffer(b.buf)
	if b.mem != nil {
		b.d.FreeMemory(b.mem)
	}
	b.buf = nil
	b.mem = nil
}
