// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package vk

import (
	vk "github.com/vulkan-go/vulkan"

	"github.com/gviegas/vkcore/refc"
)

// PipelineLayout is a reference-counted VkPipelineLayout.
// It holds a reference to every descriptor set layout it
// was created with.
type PipelineLayout struct {
	d      Device
	ref    refc.Cell
	layout vk.PipelineLayout
	sets   []*DescSetLayout
}

// NewPipelineLayout wraps layout, which must have been
// created from sets (in order).
// The returned PipelineLayout holds one reference owned by
// the caller.
func NewPipelineLayout(d Device, layout vk.PipelineLayout, sets []*DescSetLayout) *PipelineLayout {
	if layout == nil {
		violation("NewPipelineLayout: nil pipeline layout handle")
	}
	for _, s := range sets {
		s.ref.Increment()
	}
	l := &PipelineLayout{
		d:      d,
		layout: layout,
		sets:   append([]*DescSetLayout(nil), sets...),
	}
	l.ref.Init(l.destroy)
	return l
}

// Handle returns the VkPipelineLayout.
func (l *PipelineLayout) Handle() vk.PipelineLayout { return l.layout }

// SetLayout returns the descriptor set layout bound to the
// given set number.
func (l *PipelineLayout) SetLayout(set int) *DescSetLayout { return l.sets[set] }

// SetCount returns the number of descriptor set layouts.
func (l *PipelineLayout) SetCount() int { return len(l.sets) }

// Ref returns the layout's reference count cell.
func (l *PipelineLayout) Ref() *refc.Cell { return &l.ref }

// Dispose gives up the caller's reference.
func (l *PipelineLayout) Dispose() { l.ref.DecrementDispose() }

func (l *PipelineLayout) destroy() {
	l.d.DestroyPipelineLayout(l.layout)
	l.layout = nil
	for _, s := range l.sets {
		s.Dispose()
	}
	l.sets = nil
}

// Pipeline is a reference-counted VkPipeline.
// It holds a reference to its layout and to the shader
// modules it was built from.
type Pipeline struct {
	d      Device
	ref    refc.Cell
	pl     vk.Pipeline
	bp     vk.PipelineBindPoint
	layout *PipelineLayout
	mods   []*ShaderModule
}

// NewPipeline wraps pl, which must have been created with
// layout and mods.
// bp is either VK_PIPELINE_BIND_POINT_GRAPHICS or
// VK_PIPELINE_BIND_POINT_COMPUTE.
// The returned Pipeline holds one reference owned by the
// caller.
func NewPipeline(d Device, pl vk.Pipeline, bp vk.PipelineBindPoint, layout *PipelineLayout, mods []*ShaderModule) *Pipeline {
	if pl == nil {
		violation("NewPipeline: nil pipeline handle")
	}
	if layout == nil {
		violation("NewPipeline: nil pipeline layout")
	}
	layout.ref.Increment()
	for _, m := range mods {
		m.ref.Increment()
	}
	p := &Pipeline{
		d:      d,
		pl:     pl,
		bp:     bp,
		layout: layout,
		mods:   append([]*ShaderModule(nil), mods...),
	}
	p.ref.Init(p.destroy)
	return p
}

// Handle returns the VkPipeline.
func (p *Pipeline) Handle() vk.Pipeline { return p.pl }

// BindPoint returns the pipeline bind point.
func (p *Pipeline) BindPoint() vk.PipelineBindPoint { return p.bp }

// Layout returns the pipeline layout.
func (p *Pipeline) Layout() *PipelineLayout { return p.layout }

// Ref returns the pipeline's reference count cell.
func (p *Pipeline) Ref() *refc.Cell { return &p.ref }

// Dispose gives up the caller's reference.
func (p *Pipeline) Dispose() { p.ref.DecrementDispose() }

func (p *Pipeline) destroy() {
	p.d.DestroyPipeline(p.pl)
	p.pl = nil
	for _, m := range p.mods {
		m.Dispose()
	}
	p.mods = nil
	p.layout.Dispose()
}
