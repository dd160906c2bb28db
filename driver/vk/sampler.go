// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package vk

import (
	vk "github.com/vulkan-go/vulkan"

	"github.com/gviegas/vkcore/refc"
)

// Sampler is a reference-counted VkSampler.
type Sampler struct {
	d    Device
	ref  refc.Cell
	splr vk.Sampler
}

// NewSampler wraps splr.
// The returned Sampler holds one reference owned by the
// caller.
func NewSampler(d Device, splr vk.Sampler) *Sampler {
	if splr == nil {
		violation("NewSampler: nil sampler handle")
	}
	s := &Sampler{
		d:    d,
		splr: splr,
	}
	s.ref.Init(s.destroy)
	return s
}

// Handle returns the VkSampler.
func (s *Sampler) Handle() vk.Sampler { return s.splr }

// Ref returns the sampler's reference count cell.
func (s *Sampler) Ref() *refc.Cell { return &s.ref }

// Dispose gives up the caller's reference.
func (s *Sampler) Dispose() { s.ref.DecrementDispose() }

func (s *Sampler) destroy() {
	s.d.DestroySampler(s.splr)
	s.splr = nil
}
