// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package vk

import (
	vk "github.com/vulkan-go/vulkan"

	"github.com/gviegas/vkcore/refc"
)

// ShaderModule is a reference-counted VkShaderModule.
// Pipelines keep a reference to the modules they were built
// from.
type ShaderModule struct {
	d   Device
	ref refc.Cell
	mod vk.ShaderModule
}

// NewShaderModule wraps mod.
// The returned ShaderModule holds one reference owned by
// the caller.
func NewShaderModule(d Device, mod vk.ShaderModule) *ShaderModule {
	if mod == nil {
		violation("NewShaderModule: nil shader module handle")
	}
	c := &ShaderModule{
		d:   d,
		mod: mod,
	}
	c.ref.Init(c.destroy)
	return c
}

// Handle returns the VkShaderModule.
func (c *ShaderModule) Handle() vk.ShaderModule { return c.mod }

// Ref returns the module's reference count cell.
func (c *ShaderModule) Ref() *refc.Cell { return &c.ref }

// Dispose gives up the caller's reference.
func (c *ShaderModule) Dispose() { c.ref.DecrementDispose() }

func (c *ShaderModule) destroy() {
	c.d.DestroyShaderModule(c.mod)
	c.mod = nil
}
