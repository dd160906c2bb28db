// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package vk

import (
	vk "github.com/vulkan-go/vulkan"

	"github.com/gviegas/vkcore/refc"
)

// ImageDesc describes the parts of an image that matter
// for synchronization and lifetime.
type ImageDesc struct {
	Levels int
	// Layers is the number of array layers. For cube images
	// it is the number of cubes, each of which has six
	// layers.
	Layers int
	Cube   bool
	// Aspect defaults to VK_IMAGE_ASPECT_COLOR_BIT.
	Aspect vk.ImageAspectFlags
	// Staging images are host visible and are never
	// transitioned: they stay in Initial for their whole
	// lifetime.
	Staging bool
	// External images (e.g., swapchain images) are owned
	// by someone else. Releasing them does not destroy the
	// native handle.
	External bool
	Initial  vk.ImageLayout
}

// Image is a reference-counted VkImage.
type Image struct {
	d    Device
	ref  refc.Cell
	img  vk.Image
	mem  vk.DeviceMemory // Optional.
	desc ImageDesc
	sync syncTable
}

// NewImage wraps img, which must be a live handle created
// from the device that d represents.
// If mem is not nil, it is the memory bound to img and it
// is freed together with the image.
// The returned Image holds one reference owned by the
// caller.
func NewImage(d Device, img vk.Image, mem vk.DeviceMemory, desc ImageDesc) *Image {
	if img == nil {
		violation("NewImage: nil image handle")
	}
	if desc.Aspect == 0 {
		desc.Aspect = vk.ImageAspectFlags(vk.ImageAspectColorBit)
	}
	layers := desc.Layers
	if desc.Cube {
		layers *= 6
	}
	im := &Image{
		d:    d,
		img:  img,
		mem:  mem,
		desc: desc,
		sync: newSyncTable(layers, desc.Levels, desc.Initial),
	}
	im.ref.Init(im.destroy)
	return im
}

// Handle returns the VkImage.
func (im *Image) Handle() vk.Image { return im.img }

// Desc returns the image description.
func (im *Image) Desc() ImageDesc { return im.desc }

// Layers returns the number of layers that can be
// synchronized independently. For cube images this is six
// times ImageDesc.Layers.
func (im *Image) Layers() int { return im.sync.layers }

// Levels returns the number of mip levels.
func (im *Image) Levels() int { return im.sync.levels }

// Layout returns the current layout of sub.
func (im *Image) Layout(sub Subresource) vk.ImageLayout { return im.sync.state(sub).Layout }

// State returns the synchronization state of sub.
func (im *Image) State(sub Subresource) SyncState { return *im.sync.state(sub) }

// Ref returns the image's reference count cell.
func (im *Image) Ref() *refc.Cell { return &im.ref }

// Dispose gives up the caller's reference.
func (im *Image) Dispose() { im.ref.DecrementDispose() }

func (im *Image) syncState(sub Subresource) *SyncState { return im.sync.state(sub) }

func (im *Image) layouts() bool { return !im.desc.Staging }

// destroy releases the native handles.
func (im *Image) destroy() {
	if !im.desc.External {
		im.d.DestroyImage(im.img)
	}
	if im.mem != nil {
		im.d.FreeMemory(im.mem)
	}
	im.img = nil
	im.mem = nil
}

// ImageView is a reference-counted VkImageView.
// A view holds a reference to its image, so the image
// outlives every view created from it.
type ImageView struct {
	ref    refc.Cell
	im     *Image
	view   vk.ImageView
	layer  int
	layers int
	level  int
	levels int
}

// NewImageView wraps view, which must have been created for
// im with the given subresource range. It adds a reference
// to im that is given up when the view is released.
// The returned ImageView holds one reference owned by the
// caller.
func NewImageView(im *Image, view vk.ImageView, layer, layers, level, levels int) *ImageView {
	if view == nil {
		violation("NewImageView: nil view handle")
	}
	if layer < 0 || layers < 1 || layer+layers > im.Layers() || level < 0 || levels < 1 || level+levels > im.Levels() {
		violation("NewImageView: range [%d, %d)x[%d, %d) out of bounds", layer, layer+layers, level, level+levels)
	}
	im.ref.Increment()
	v := &ImageView{
		im:     im,
		view:   view,
		layer:  layer,
		layers: layers,
		level:  level,
		levels: levels,
	}
	v.ref.Init(v.destroy)
	return v
}

// Handle returns the VkImageView.
func (v *ImageView) Handle() vk.ImageView { return v.view }

// Image returns the image from which the view was created.
func (v *ImageView) Image() *Image { return v.im }

// Range returns the subresource range of the view.
func (v *ImageView) Range() (layer, layers, level, levels int) {
	return v.layer, v.layers, v.level, v.levels
}

// Ref returns the view's reference count cell.
func (v *ImageView) Ref() *refc.Cell { return &v.ref }

// Dispose gives up the caller's reference.
func (v *ImageView) Dispose() { v.ref.DecrementDispose() }

// destroy destroys the view and then gives up its image.
func (v *ImageView) destroy() {
	v.im.d.DestroyImageView(v.view)
	v.view = nil
	v.im.Dispose()
}
