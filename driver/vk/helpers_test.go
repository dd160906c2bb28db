// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package vk

import (
	"errors"
	"sync"
	"unsafe"

	vk "github.com/vulkan-go/vulkan"
)

// Helpers for testing.

// isError checks multiple errors for equality.
func isError(e error, targets ...error) bool {
	for _, x := range targets {
		if errors.Is(e, x) {
			return true
		}
	}
	return false
}

// mustPanic calls f and reports whether it panicked.
func mustPanic(f func()) (panicked bool) {
	defer func() { panicked = recover() != nil }()
	f()
	return
}

// ptr returns a distinct pointer suitable for fabricating
// native handles.
func ptr() unsafe.Pointer { return unsafe.Pointer(new(uint64)) }

func newBufferHandle() vk.Buffer { return vk.Buffer(ptr()) }
func newImageHandle() vk.Image { return vk.Image(ptr()) }
func newViewHandle() vk.ImageView { return vk.ImageView(ptr()) }
func newMemoryHandle() vk.DeviceMemory { return vk.DeviceMemory(ptr()) }
func newSamplerHandle() vk.Sampler { return vk.Sampler(ptr()) }
func newShaderHandle() vk.ShaderModule { return vk.ShaderModule(ptr()) }
func newPipelineHandle() vk.Pipeline { return vk.Pipeline(ptr()) }
func newPipelineLayoutHandle() vk.PipelineLayout { return vk.PipelineLayout(ptr()) }
func newSetLayoutHandle() vk.DescriptorSetLayout { return vk.DescriptorSetLayout(ptr()) }
func newCmdBufferHandle() vk.CommandBuffer { return vk.CommandBuffer(ptr()) }

// barrierCall records one call to Device.PipelineBarrier.
type barrierCall struct {
	cb       vk.CommandBuffer
	src, dst vk.PipelineStageFlags
	mem      []vk.MemoryBarrier
	buf      []vk.BufferMemoryBarrier
	img      []vk.ImageMemoryBarrier
}

// fakeDevice is a Device that records every call.
// Its zero value is ready for use.
type fakeDevice struct {
	mu sync.Mutex

	// ops has the name of every call, in order.
	ops []string
	// destroyed counts how many times each handle was
	// destroyed (or freed).
	destroyed map[unsafe.Pointer]int

	pools     []vk.DescriptorPool
	poolInfos []vk.DescriptorPoolCreateInfo
	sets      map[vk.DescriptorSet]vk.DescriptorPool
	barriers  []barrierCall

	// Failure injection.
	createPoolErr error
	freeErr       error
	// allocErr, if not nil, is called before a set is
	// allocated from the pool at index idx of pools.
	allocErr func(idx int) error
}

func (d *fakeDevice) record(op string, h unsafe.Pointer) {
	d.ops = append(d.ops, op)
	if h != nil {
		if d.destroyed == nil {
			d.destroyed = make(map[unsafe.Pointer]int)
		}
		d.destroyed[h]++
	}
}

// count returns how many times op was called.
func (d *fakeDevice) count(op string) (n int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, x := range d.ops {
		if x == op {
			n++
		}
	}
	return
}

// times returns how many times h was destroyed.
func (d *fakeDevice) times(h unsafe.Pointer) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.destroyed[h]
}

// liveSets returns the number of sets allocated and not
// yet freed.
func (d *fakeDevice) liveSets() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.sets)
}

func (d *fakeDevice) CreateDescriptorPool(info *vk.DescriptorPoolCreateInfo) (vk.DescriptorPool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("CreateDescriptorPool", nil)
	if d.createPoolErr != nil {
		return nil, d.createPoolErr
	}
	pool := vk.DescriptorPool(ptr())
	d.pools = append(d.pools, pool)
	d.poolInfos = append(d.poolInfos, *info)
	return pool, nil
}

func (d *fakeDevice) DestroyDescriptorPool(pool vk.DescriptorPool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("DestroyDescriptorPool", unsafe.Pointer(pool))
	for s, p := range d.sets {
		if p == pool {
			delete(d.sets, s)
		}
	}
}

func (d *fakeDevice) AllocateDescriptorSet(pool vk.DescriptorPool, layout vk.DescriptorSetLayout) (vk.DescriptorSet, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("AllocateDescriptorSet", nil)
	if d.allocErr != nil {
		for i, p := range d.pools {
			if p == pool {
				if err := d.allocErr(i); err != nil {
					return nil, err
				}
				break
			}
		}
	}
	set := vk.DescriptorSet(ptr())
	if d.sets == nil {
		d.sets = make(map[vk.DescriptorSet]vk.DescriptorPool)
	}
	d.sets[set] = pool
	return set, nil
}

func (d *fakeDevice) FreeDescriptorSet(pool vk.DescriptorPool, set vk.DescriptorSet) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("FreeDescriptorSet", nil)
	if d.freeErr != nil {
		return d.freeErr
	}
	if d.sets[set] != pool {
		panic("fakeDevice: freeing a set that was not allocated from this pool")
	}
	delete(d.sets, set)
	return nil
}

func (d *fakeDevice) PipelineBarrier(cb vk.CommandBuffer, src, dst vk.PipelineStageFlags, mem []vk.MemoryBarrier, buf []vk.BufferMemoryBarrier, img []vk.ImageMemoryBarrier) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("PipelineBarrier", nil)
	d.barriers = append(d.barriers, barrierCall{cb, src, dst, mem, buf, img})
}

func (d *fakeDevice) DestroyBuffer(buf vk.Buffer) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("DestroyBuffer", unsafe.Pointer(buf))
}

func (d *fakeDevice) DestroyImage(img vk.Image) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("DestroyImage", unsafe.Pointer(img))
}

func (d *fakeDevice) DestroyImageView(view vk.ImageView) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("DestroyImageView", unsafe.Pointer(view))
}

func (d *fakeDevice) DestroySampler(splr vk.Sampler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("DestroySampler", unsafe.Pointer(splr))
}

func (d *fakeDevice) DestroyShaderModule(mod vk.ShaderModule) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("DestroyShaderModule", unsafe.Pointer(mod))
}

func (d *fakeDevice) DestroyPipeline(pl vk.Pipeline) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("DestroyPipeline", unsafe.Pointer(pl))
}

func (d *fakeDevice) DestroyPipelineLayout(layout vk.PipelineLayout) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("DestroyPipelineLayout", unsafe.Pointer(layout))
}

func (d *fakeDevice) DestroyDescriptorSetLayout(layout vk.DescriptorSetLayout) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("DestroyDescriptorSetLayout", unsafe.Pointer(layout))
}

func (d *fakeDevice) FreeMemory(mem vk.DeviceMemory) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("FreeMemory", unsafe.Pointer(mem))
}
