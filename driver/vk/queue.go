// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package vk

import (
	vk "github.com/vulkan-go/vulkan"

	"github.com/gviegas/vkcore/driver"
)

// Syncable is a resource whose accesses are synchronized
// with barriers.
// It is implemented by *Buffer and *Image.
type Syncable interface {
	driver.Resource
	syncState(sub Subresource) *SyncState
	layouts() bool
}

// queued is a barrier waiting for the next checkpoint.
// It holds a reference to its resource.
type queued struct {
	r      Syncable
	b      Barrier
	layer  int
	layers int
	level  int
	levels int
}

// SyncQueue accumulates the barriers required by accesses
// recorded into a single command buffer.
// Since barriers cannot be recorded within a render pass,
// EmitQueued must be called before starting one.
// A SyncQueue is not safe for concurrent use. The same holds
// for the states of the resources passed to it.
type SyncQueue struct {
	d       Device
	pending []queued
}

// NewSyncQueue creates a queue that records barriers
// through d.
func NewSyncQueue(d Device) *SyncQueue { return &SyncQueue{d: d} }

// SyncResource updates the state of sub to account for req.
// If a barrier is needed, it is queued and returned.
func (q *SyncQueue) SyncResource(r Syncable, sub Subresource, req SyncRequest) (Barrier, bool) {
	b, ok := r.syncState(sub).Resolve(req, r.layouts())
	if ok {
		r.Ref().Increment()
		q.pending = append(q.pending, queued{
			r:      r,
			b:      b,
			layer:  sub.Layer,
			layers: 1,
			level:  sub.Level,
			levels: 1,
		})
	}
	return b, ok
}

// SyncBuffer calls q.SyncResource for the only subresource
// of b.
func (q *SyncQueue) SyncBuffer(b *Buffer, req SyncRequest) (Barrier, bool) {
	return q.SyncResource(b, Subresource{}, req)
}

// SyncImageRange calls q.SyncResource for every subresource
// in the given range of im.
// It returns the number of barriers queued.
func (q *SyncQueue) SyncImageRange(im *Image, layer, layers, level, levels int, req SyncRequest) (n int) {
	for lv := level; lv < level+levels; lv++ {
		for ly := layer; ly < layer+layers; ly++ {
			if _, ok := q.SyncResource(im, Subresource{ly, lv}, req); ok {
				n++
			}
		}
	}
	return
}

// SyncView calls q.SyncImageRange for the subresources that
// v covers.
func (q *SyncQueue) SyncView(v *ImageView, req SyncRequest) int {
	layer, layers, level, levels := v.Range()
	return q.SyncImageRange(v.im, layer, layers, level, levels, req)
}

// Pending returns the number of barriers queued since the
// last checkpoint.
func (q *SyncQueue) Pending() int { return len(q.pending) }

// coalesce merges adjacent barriers of the same resource
// that have identical masks and layouts and that cover
// contiguous layers (first) or levels (then).
// No subresource may appear twice in pending.
func coalesce(pending []queued) []queued {
	merge := func(in []queued, byLayer bool) []queued {
		out := make([]queued, 0, len(in))
		for _, x := range in {
			if n := len(out); n > 0 {
				p := &out[n-1]
				if p.r == x.r && p.b == x.b {
					switch {
					case byLayer && p.level == x.level && p.levels == x.levels && p.layer+p.layers == x.layer:
						p.layers += x.layers
						continue
					case !byLayer && p.layer == x.layer && p.layers == x.layers && p.level+p.levels == x.level:
						p.levels += x.levels
						continue
					}
				}
			}
			out = append(out, x)
		}
		return out
	}
	return merge(merge(pending, true), false)
}

// EmitQueued records every queued barrier into cb and then
// gives up the references that the queue holds.
// Barriers are grouped in generations: the n-th barrier
// queued for a given subresource goes in the n-th pipeline
// barrier command, so that repeated transitions of the same
// subresource execute in order. In the common case there is
// a single generation.
// It does nothing if no barrier is queued.
func (q *SyncQueue) EmitQueued(cb vk.CommandBuffer) {
	if len(q.pending) == 0 {
		return
	}
	for _, gen := range generations(q.pending) {
		q.emit(cb, coalesce(gen))
	}
	q.release()
}

// generations splits pending so that no subresource appears
// twice in the same group. The order of barriers within a
// group is preserved.
func generations(pending []queued) [][]queued {
	type key struct {
		r   Syncable
		sub Subresource
	}
	seen := make(map[key]int, len(pending))
	var gens [][]queued
	for _, x := range pending {
		k := key{x.r, Subresource{x.layer, x.level}}
		g := seen[k]
		seen[k] = g + 1
		if g == len(gens) {
			gens = append(gens, nil)
		}
		gens[g] = append(gens[g], x)
	}
	if len(gens) > 1 {
		driver.Logger().Debug("barriers split", "generations", len(gens), "barriers", len(pending))
	}
	return gens
}

// emit records the barriers of a single generation as one
// pipeline barrier command.
// Images that do not track layouts are synchronized with a
// global memory barrier, since an image memory barrier
// cannot have UNDEFINED or PREINITIALIZED as new layout.
func (q *SyncQueue) emit(cb vk.CommandBuffer, gen []queued) {
	var (
		src, dst vk.PipelineStageFlags
		mem      []vk.MemoryBarrier
		bufs     []vk.BufferMemoryBarrier
		imgs     []vk.ImageMemoryBarrier
	)
	for _, x := range gen {
		src |= x.b.SrcStage
		dst |= x.b.DstStage
		switch r := x.r.(type) {
		case *Buffer:
			bufs = append(bufs, vk.BufferMemoryBarrier{
				SType:               vk.StructureTypeBufferMemoryBarrier,
				SrcAccessMask:       x.b.SrcAccess,
				DstAccessMask:       x.b.DstAccess,
				SrcQueueFamilyIndex: vk.QueueFamilyIgnored,
				DstQueueFamilyIndex: vk.QueueFamilyIgnored,
				Buffer:              r.buf,
				Offset:              0,
				Size:                vk.DeviceSize(vk.WholeSize),
			})
		case *Image:
			if !r.layouts() {
				if len(mem) == 0 {
					mem = append(mem, vk.MemoryBarrier{SType: vk.StructureTypeMemoryBarrier})
				}
				mem[0].SrcAccessMask |= x.b.SrcAccess
				mem[0].DstAccessMask |= x.b.DstAccess
				break
			}
			imgs = append(imgs, vk.ImageMemoryBarrier{
				SType:               vk.StructureTypeImageMemoryBarrier,
				SrcAccessMask:       x.b.SrcAccess,
				DstAccessMask:       x.b.DstAccess,
				OldLayout:           x.b.OldLayout,
				NewLayout:           x.b.NewLayout,
				SrcQueueFamilyIndex: vk.QueueFamilyIgnored,
				DstQueueFamilyIndex: vk.QueueFamilyIgnored,
				Image:               r.img,
				SubresourceRange: vk.ImageSubresourceRange{
					AspectMask:     r.desc.Aspect,
					BaseMipLevel:   uint32(x.level),
					LevelCount:     uint32(x.levels),
					BaseArrayLayer: uint32(x.layer),
					LayerCount:     uint32(x.layers),
				},
			})
		default:
			violation("EmitQueued: unexpected resource type %T", x.r)
		}
	}
	if src == 0 {
		src = vk.PipelineStageFlags(vk.PipelineStageTopOfPipeBit)
	}
	if dst == 0 {
		dst = vk.PipelineStageFlags(vk.PipelineStageBottomOfPipeBit)
	}
	q.d.PipelineBarrier(cb, src, dst, mem, bufs, imgs)
}

// Discard drops every queued barrier without recording it.
// The states of the resources are not rolled back.
func (q *SyncQueue) Discard() { q.release() }

func (q *SyncQueue) release() {
	for i := range q.pending {
		q.pending[i].r.Ref().Decrement()
		q.pending[i].r = nil
	}
	q.pending = q.pending[:0]
}
