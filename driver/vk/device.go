// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package vk

import (
	vk "github.com/vulkan-go/vulkan"
)

// Device is the set of native calls that the core needs.
// Device creation and capability negotiation happen
// elsewhere; the core is handed a live device and only
// allocates, frees and destroys through it.
//
// Methods that create or allocate report failures as
// *ResultError. Destroy methods cannot fail.
type Device interface {
	// CreateDescriptorPool creates a descriptor pool.
	CreateDescriptorPool(info *vk.DescriptorPoolCreateInfo) (vk.DescriptorPool, error)

	// DestroyDescriptorPool destroys a descriptor pool and
	// every set allocated from it.
	DestroyDescriptorPool(pool vk.DescriptorPool)

	// AllocateDescriptorSet allocates a single descriptor set.
	AllocateDescriptorSet(pool vk.DescriptorPool, layout vk.DescriptorSetLayout) (vk.DescriptorSet, error)

	// FreeDescriptorSet returns a descriptor set to its pool.
	FreeDescriptorSet(pool vk.DescriptorPool, set vk.DescriptorSet) error

	// PipelineBarrier records a pipeline barrier in cb.
	PipelineBarrier(cb vk.CommandBuffer, src, dst vk.PipelineStageFlags, mem []vk.MemoryBarrier, buf []vk.BufferMemoryBarrier, img []vk.ImageMemoryBarrier)

	DestroyBuffer(buf vk.Buffer)
	DestroyImage(img vk.Image)
	DestroyImageView(view vk.ImageView)
	DestroySampler(splr vk.Sampler)
	DestroyShaderModule(mod vk.ShaderModule)
	DestroyPipeline(pl vk.Pipeline)
	DestroyPipelineLayout(layout vk.PipelineLayout)
	DestroyDescriptorSetLayout(layout vk.DescriptorSetLayout)
	FreeMemory(mem vk.DeviceMemory)
}

// nativeDevice implements Device using a VkDevice.
type nativeDevice struct {
	dev vk.Device
}

// NewDevice returns a Device that issues calls on dev.
// The vulkan-go procedures must have been initialized for
// the instance that owns dev.
func NewDevice(dev vk.Device) Device { return &nativeDevice{dev} }

func (d *nativeDevice) CreateDescriptorPool(info *vk.DescriptorPoolCreateInfo) (vk.DescriptorPool, error) {
	var pool vk.DescriptorPool
	err := checkResult(vk.CreateDescriptorPool(d.dev, info, nil, &pool), "create descriptor pool")
	if err != nil {
		return nil, err
	}
	return pool, nil
}

func (d *nativeDevice) DestroyDescriptorPool(pool vk.DescriptorPool) {
	vk.DestroyDescriptorPool(d.dev, pool, nil)
}

func (d *nativeDevice) AllocateDescriptorSet(pool vk.DescriptorPool, layout vk.DescriptorSetLayout) (vk.DescriptorSet, error) {
	info := vk.DescriptorSetAllocateInfo{
		SType:              vk.StructureTypeDescriptorSetAllocateInfo,
		DescriptorPool:     pool,
		DescriptorSetCount: 1,
		PSetLayouts:        []vk.DescriptorSetLayout{layout},
	}
	var set vk.DescriptorSet
	err := checkResult(vk.AllocateDescriptorSets(d.dev, &info, &set), "allocate descriptor set")
	if err != nil {
		return nil, err
	}
	return set, nil
}

func (d *nativeDevice) FreeDescriptorSet(pool vk.DescriptorPool, set vk.DescriptorSet) error {
	return checkResult(vk.FreeDescriptorSets(d.dev, pool, 1, &set), "free descriptor set")
}

func (d *nativeDevice) PipelineBarrier(cb vk.CommandBuffer, src, dst vk.PipelineStageFlags, mem []vk.MemoryBarrier, buf []vk.BufferMemoryBarrier, img []vk.ImageMemoryBarrier) {
	vk.CmdPipelineBarrier(cb, src, dst, 0,
		uint32(len(mem)), mem,
		uint32(len(buf)), buf,
		uint32(len(img)), img)
}

func (d *nativeDevice) DestroyBuffer(buf vk.Buffer) { vk.DestroyBuffer(d.dev, buf, nil) }

func (d *nativeDevice) DestroyImage(img vk.Image) { vk.DestroyImage(d.dev, img, nil) }

func (d *nativeDevice) DestroyImageView(view vk.ImageView) { vk.DestroyImageView(d.dev, view, nil) }

func (d *nativeDevice) DestroySampler(splr vk.Sampler) { vk.DestroySampler(d.dev, splr, nil) }

func (d *nativeDevice) DestroyShaderModule(mod vk.ShaderModule) {
	vk.DestroyShaderModule(d.dev, mod, nil)
}

func (d *nativeDevice) DestroyPipeline(pl vk.Pipeline) { vk.DestroyPipeline(d.dev, pl, nil) }

func (d *nativeDevice) DestroyPipelineLayout(layout vk.PipelineLayout) {
	vk.DestroyPipelineLayout(d.dev, layout, nil)
}

func (d *nativeDevice) DestroyDescriptorSetLayout(layout vk.DescriptorSetLayout) {
	vk.DestroyDescriptorSetLayout(d.dev, layout, nil)
}

func (d *nativeDevice) FreeMemory(mem vk.DeviceMemory) { vk.FreeMemory(d.dev, mem, nil) }
