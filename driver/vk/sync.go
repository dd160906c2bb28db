// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package vk

import (
	vk "github.com/vulkan-go/vulkan"
)

// Subresource identifies one mip level of one array layer
// of an image. Buffers have a single subresource, {0, 0}.
type Subresource struct {
	Layer int
	Level int
}

// Access is a pair of access and pipeline stage masks.
type Access struct {
	Access vk.AccessFlags
	Stage  vk.PipelineStageFlags
}

// IsZero reports whether a has neither access nor stage bits.
func (a Access) IsZero() bool { return a.Access == 0 && a.Stage == 0 }

// Union returns the bitwise union of a and b.
func (a Access) Union(b Access) Access {
	return Access{a.Access | b.Access, a.Stage | b.Stage}
}

// writeAccess are the access bits that modify memory.
const writeAccess = vk.AccessFlags(vk.AccessShaderWriteBit |
	vk.AccessColorAttachmentWriteBit |
	vk.AccessDepthStencilAttachmentWriteBit |
	vk.AccessTransferWriteBit |
	vk.AccessHostWriteBit |
	vk.AccessMemoryWriteBit)

// isWrite returns whether acc contains write-class access.
func isWrite(acc vk.AccessFlags) bool { return acc&writeAccess != 0 }

// SyncState is the synchronization state of a single
// subresource.
type SyncState struct {
	// LastWriter is the most recent write-class access.
	// It is zero if nothing has written the subresource
	// since it was created (or since a read-only layout
	// transition, in which case only Stage is set).
	LastWriter Access

	// Readers accumulates every read since LastWriter.
	Readers Access

	// Seen has one bit per pipeline stage that has been
	// made to wait on LastWriter. The bits are those of
	// VkPipelineStageFlagBits.
	Seen vk.PipelineStageFlags

	// Layout is the current image layout. It is only
	// meaningful for images that track layouts.
	Layout vk.ImageLayout
}

// SyncRequest describes an access that is about to happen.
type SyncRequest struct {
	Access vk.AccessFlags
	Stage  vk.PipelineStageFlags
	// Layout is ignored for buffers and staging images.
	Layout vk.ImageLayout
}

// Barrier is the dependency that must be recorded before an
// access may proceed.
type Barrier struct {
	SrcAccess vk.AccessFlags
	DstAccess vk.AccessFlags
	SrcStage  vk.PipelineStageFlags
	DstStage  vk.PipelineStageFlags
	OldLayout vk.ImageLayout
	NewLayout vk.ImageLayout
}

// Resolve updates s to account for req and returns the
// barrier that must precede it, if any.
// When layouts is false, req.Layout is ignored and s.Layout
// never changes, so the barrier keeps the resource in
// whatever layout it was created with.
func (s *SyncState) Resolve(req SyncRequest, layouts bool) (b Barrier, ok bool) {
	dst := Access{req.Access, req.Stage}
	write := isWrite(req.Access)

	switch {
	case layouts && req.Layout != s.Layout:
		src := s.LastWriter.Union(s.Readers)
		b = Barrier{
			SrcAccess: src.Access,
			DstAccess: dst.Access,
			SrcStage:  src.Stage,
			DstStage:  dst.Stage,
			OldLayout: s.Layout,
			NewLayout: req.Layout,
		}
		s.Layout = req.Layout
		if write {
			s.LastWriter = dst
			s.Readers = Access{}
			s.Seen = 0
		} else {
			// The transition itself writes the image,
			// and only req.Stage waits for it.
			s.LastWriter = Access{Stage: dst.Stage}
			s.Readers = dst
			s.Seen = dst.Stage
		}
		return b, true

	case write:
		src := s.LastWriter.Union(s.Readers)
		if !src.IsZero() {
			b = Barrier{
				SrcAccess: src.Access,
				DstAccess: dst.Access,
				SrcStage:  src.Stage,
				DstStage:  dst.Stage,
			}
			ok = true
		}
		s.LastWriter = dst
		s.Readers = Access{}
		s.Seen = 0

	default:
		if !s.LastWriter.IsZero() && dst.Stage&^s.Seen != 0 {
			b = Barrier{
				SrcAccess: s.LastWriter.Access,
				DstAccess: dst.Access,
				SrcStage:  s.LastWriter.Stage,
				DstStage:  dst.Stage,
			}
			ok = true
			s.Seen |= dst.Stage
		}
		s.Readers = s.Readers.Union(dst)
	}

	b.OldLayout = s.Layout
	b.NewLayout = s.Layout
	return
}

// syncTable holds the states of every subresource of a
// resource. Its size is fixed at creation.
type syncTable struct {
	states []SyncState
	layers int
	levels int
}

// newSyncTable creates a table for layers*levels
// subresources, all in the given initial layout.
func newSyncTable(layers, levels int, initial vk.ImageLayout) syncTable {
	if layers < 1 || levels < 1 {
		violation("invalid subresource count (%d layers, %d levels)", layers, levels)
	}
	s := make([]SyncState, layers*levels)
	for i := range s {
		s[i].Layout = initial
	}
	return syncTable{
		states: s,
		layers: layers,
		levels: levels,
	}
}

// state returns the state of sub.
// Subresources out of range are a contract violation.
func (t *syncTable) state(sub Subresource) *SyncState {
	if sub.Layer < 0 || sub.Layer >= t.layers || sub.Level < 0 || sub.Level >= t.levels {
		violation("untracked subresource %+v (%d layers, %d levels)", sub, t.layers, t.levels)
	}
	return &t.states[sub.Level*t.layers+sub.Layer]
}
