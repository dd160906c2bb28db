// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package vk

import (
	"github.com/gogpu/gputypes"
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"

	"github.com/gviegas/vkcore/refc"
)

// DescKind is the kind of a descriptor, as far as pool
// capacity is concerned.
type DescKind int

// Descriptor kinds.
const (
	DUniform DescKind = iota
	DUniformDynamic
	DSampledImage
	DSampler
	DStorage
	DStorageDynamic
	DStorageImage

	descKindN
)

// Type returns the VkDescriptorType of k.
func (k DescKind) Type() vk.DescriptorType {
	switch k {
	case DUniform:
		return vk.DescriptorTypeUniformBuffer
	case DUniformDynamic:
		return vk.DescriptorTypeUniformBufferDynamic
	case DSampledImage:
		return vk.DescriptorTypeSampledImage
	case DSampler:
		return vk.DescriptorTypeSampler
	case DStorage:
		return vk.DescriptorTypeStorageBuffer
	case DStorageDynamic:
		return vk.DescriptorTypeStorageBufferDynamic
	case DStorageImage:
		return vk.DescriptorTypeStorageImage
	}
	violation("undefined DescKind %d", int(k))
	return 0
}

func (k DescKind) String() string {
	switch k {
	case DUniform:
		return "uniform"
	case DUniformDynamic:
		return "uniform (dynamic)"
	case DSampledImage:
		return "sampled image"
	case DSampler:
		return "sampler"
	case DStorage:
		return "storage"
	case DStorageDynamic:
		return "storage (dynamic)"
	case DStorageImage:
		return "storage image"
	}
	return "invalid"
}

// kindOf returns the DescKind of typ.
func kindOf(typ vk.DescriptorType) (DescKind, bool) {
	for k := range descKindN {
		if k.Type() == typ {
			return k, true
		}
	}
	return 0, false
}

// DescCounts is the number of descriptors of each kind that
// a descriptor set layout requires.
type DescCounts [descKindN]int

// fits reports whether every count in c is at most the
// corresponding count in rem.
func (c *DescCounts) fits(rem *DescCounts) bool {
	for i := range c {
		if c[i] > rem[i] {
			return false
		}
	}
	return true
}

func (c *DescCounts) add(other *DescCounts) {
	for i := range c {
		c[i] += other[i]
	}
}

func (c *DescCounts) sub(other *DescCounts) {
	for i := range c {
		c[i] -= other[i]
	}
}

// Total returns the sum of all counts.
func (c *DescCounts) Total() (n int) {
	for _, x := range c {
		n += x
	}
	return
}

// CountsOf computes the counts of a descriptor set layout
// from its bindings.
// Descriptor types other than the ones that DescKind
// enumerates are rejected.
func CountsOf(bindings []vk.DescriptorSetLayoutBinding) (c DescCounts, err error) {
	for i := range bindings {
		k, ok := kindOf(bindings[i].DescriptorType)
		if !ok {
			err = errors.Errorf("vk: binding %d: unsupported descriptor type %d", bindings[i].Binding, bindings[i].DescriptorType)
			return DescCounts{}, err
		}
		c[k] += int(bindings[i].DescriptorCount)
	}
	return
}

// CountsFromEntries computes descriptor counts from a
// portable bind group layout description.
// Entries that describe none of the supported bindings are
// ignored.
func CountsFromEntries(entries []gputypes.BindGroupLayoutEntry) (c DescCounts) {
	for i := range entries {
		e := &entries[i]
		switch {
		case e.Buffer != nil:
			dyn := e.Buffer.HasDynamicOffset
			switch e.Buffer.Type {
			case gputypes.BufferBindingTypeUniform:
				if dyn {
					c[DUniformDynamic]++
				} else {
					c[DUniform]++
				}
			case gputypes.BufferBindingTypeStorage, gputypes.BufferBindingTypeReadOnlyStorage:
				if dyn {
					c[DStorageDynamic]++
				} else {
					c[DStorage]++
				}
			}
		case e.Texture != nil:
			c[DSampledImage]++
		case e.StorageTexture != nil:
			c[DStorageImage]++
		case e.Sampler != nil:
			c[DSampler]++
		}
	}
	return
}

// DescSetLayout is a reference-counted VkDescriptorSetLayout.
// It records the descriptor counts of the layout, which is
// what the allocator needs to reserve pool capacity.
type DescSetLayout struct {
	d      Device
	ref    refc.Cell
	layout vk.DescriptorSetLayout
	counts DescCounts
}

// NewDescSetLayout wraps layout, whose bindings require
// counts descriptors.
// The returned DescSetLayout holds one reference owned by
// the caller.
func NewDescSetLayout(d Device, layout vk.DescriptorSetLayout, counts DescCounts) *DescSetLayout {
	if layout == nil {
		violation("NewDescSetLayout: nil descriptor set layout handle")
	}
	l := &DescSetLayout{
		d:      d,
		layout: layout,
		counts: counts,
	}
	l.ref.Init(l.destroy)
	return l
}

// Handle returns the VkDescriptorSetLayout.
func (l *DescSetLayout) Handle() vk.DescriptorSetLayout { return l.layout }

// Counts returns the descriptor counts of the layout.
func (l *DescSetLayout) Counts() DescCounts { return l.counts }

// Ref returns the layout's reference count cell.
func (l *DescSetLayout) Ref() *refc.Cell { return &l.ref }

// Dispose gives up the caller's reference.
func (l *DescSetLayout) Dispose() { l.ref.DecrementDispose() }

func (l *DescSetLayout) destroy() {
	l.d.DestroyDescriptorSetLayout(l.layout)
	l.layout = nil
}

// DescSet is a reference-counted descriptor set.
// It holds a reference to its layout and returns its
// capacity to the allocator when released.
type DescSet struct {
	ref    refc.Cell
	a      *DescAllocator
	layout *DescSetLayout
	tok    DescToken
}

// NewDescSet allocates a descriptor set of the given layout
// from a.
// The returned DescSet holds one reference owned by the
// caller.
func NewDescSet(a *DescAllocator, layout *DescSetLayout) (*DescSet, error) {
	tok, err := a.Allocate(layout.counts, layout.layout)
	if err != nil {
		return nil, err
	}
	layout.ref.Increment()
	s := &DescSet{
		a:      a,
		layout: layout,
		tok:    tok,
	}
	s.ref.Init(s.destroy)
	return s, nil
}

// Handle returns the VkDescriptorSet.
func (s *DescSet) Handle() vk.DescriptorSet { return s.tok.Set }

// Token returns the allocation token of the set.
func (s *DescSet) Token() DescToken { return s.tok }

// Layout returns the layout of the set.
func (s *DescSet) Layout() *DescSetLayout { return s.layout }

// Ref returns the set's reference count cell.
func (s *DescSet) Ref() *refc.Cell { return &s.ref }

// Dispose gives up the caller's reference.
func (s *DescSet) Dispose() { s.ref.DecrementDispose() }

func (s *DescSet) destroy() {
	if err := s.a.Free(s.tok, s.layout.counts); err != nil {
		fatal(err, "vk: releasing descriptor set")
	}
	s.tok = DescToken{}
	s.layout.Dispose()
}
