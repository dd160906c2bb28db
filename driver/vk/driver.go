// Copyright 2022 Gustavo C. Viegas. All rights reserved.

// Package vk implements the resource lifetime and
// synchronization core of the Vulkan backend.
//
// The package does not create devices. It is handed a live
// VkDevice (through Device) and tracks, for every buffer and
// image, the accesses that require barriers. It also manages
// the lifetime of native handles through reference counting
// and allocates descriptor sets from a growable list of
// descriptor pools.
package vk

import (
	"sync"

	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
	"go.uber.org/atomic"

	"github.com/gviegas/vkcore/driver"
)

const driverName = "vulkan"

func init() {
	driver.Register(vulkanDriver{})
}

// vulkanDriver implements driver.Driver.
type vulkanDriver struct{}

func (vulkanDriver) Name() string { return driverName }

func (vulkanDriver) Usable() bool { return Usable() }

// Variables used by Usable.
var (
	usableOnce sync.Once
	usable     bool
	probeErr   error
	probed     atomic.Bool

	// probe is replaced in tests.
	probe = probeInstance
)

// Usable reports whether Vulkan can be used in this system.
// The first call loads the Vulkan library, creates a
// temporary instance and checks that at least one physical
// device is exposed. The result is cached for the lifetime
// of the process.
func Usable() bool {
	usableOnce.Do(func() {
		probeErr = probe()
		usable = probeErr == nil
		probed.Store(true)
		if usable {
			driver.Logger().Info("vulkan usable")
		} else {
			driver.Logger().Info("vulkan not usable", "err", probeErr)
		}
	})
	return usable
}

// ProbeError returns the reason why Usable returned false.
// It returns nil if Usable has not been called or if it
// returned true.
func ProbeError() error {
	if !probed.Load() {
		return nil
	}
	return probeErr
}

// probeInstance creates and destroys a throwaway instance.
func probeInstance() error {
	if err := vk.SetDefaultGetInstanceProcAddr(); err != nil {
		return errors.Wrap(driver.ErrNotInstalled, err.Error())
	}
	if err := vk.Init(); err != nil {
		return errors.Wrap(driver.ErrNotInstalled, err.Error())
	}
	appInfo := vk.ApplicationInfo{
		SType:      vk.StructureTypeApplicationInfo,
		ApiVersion: vk.MakeVersion(1, 0, 0),
	}
	info := vk.InstanceCreateInfo{
		SType:            vk.StructureTypeInstanceCreateInfo,
		PApplicationInfo: &appInfo,
	}
	var inst vk.Instance
	if err := checkResult(vk.CreateInstance(&info, nil, &inst), "create instance"); err != nil {
		return err
	}
	defer vk.DestroyInstance(inst, nil)
	if err := vk.InitInstance(inst); err != nil {
		return errors.Wrap(err, "vk: init instance")
	}
	var n uint32
	if err := checkResult(vk.EnumeratePhysicalDevices(inst, &n, nil), "enumerate physical devices"); err != nil {
		return err
	}
	// The instance may expose no devices at all.
	if n == 0 {
		return driver.ErrNoDevice
	}
	return nil
}
