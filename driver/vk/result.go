// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package vk

import (
	"fmt"

	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"

	"github.com/gviegas/vkcore/driver"
)

// Result codes introduced by Vulkan 1.1 and 1.2 that can
// be returned from the calls made here.
const (
	resultInvalidExternalHandle vk.Result = -1000072003
	resultFragmentation         vk.Result = -1000161000
)

// ResultError is the error produced when a native call fails.
// It carries the VkResult so that callers may inspect it.
type ResultError struct {
	Op   string
	Code vk.Result
}

func (e *ResultError) Error() string {
	return fmt.Sprintf("vk: %s: %s (%d)", e.Op, resultName(e.Code), int32(e.Code))
}

// Unwrap returns the driver error that classifies e, if any.
// Out of memory conditions unwrap to driver.ErrNoHostMemory
// or driver.ErrNoDeviceMemory and a lost device unwraps to
// driver.ErrFatal. Other failures do not unwrap.
func (e *ResultError) Unwrap() error {
	switch e.Code {
	case vk.ErrorOutOfHostMemory:
		return driver.ErrNoHostMemory
	case vk.ErrorOutOfDeviceMemory:
		return driver.ErrNoDeviceMemory
	case vk.ErrorDeviceLost:
		return driver.ErrFatal
	}
	return nil
}

// checkResult returns an error derived from a VkResult value.
// If such value does not indicate an error, it returns nil instead.
func checkResult(res vk.Result, op string) error {
	if res >= 0 {
		// Not an error: VK_ERROR_* values are all negative.
		return nil
	}
	return &ResultError{Op: op, Code: res}
}

// isPoolExhausted reports whether err indicates that a
// descriptor pool cannot satisfy an allocation.
// Such failures are handled by moving to another pool.
func isPoolExhausted(err error) bool {
	var re *ResultError
	if !errors.As(err, &re) {
		return false
	}
	return re.Code == vk.ErrorOutOfPoolMemory || re.Code == vk.ErrorFragmentedPool
}

// resultName returns a short description of res.
func resultName(res vk.Result) string {
	switch res {
	case vk.ErrorOutOfHostMemory:
		return "out of host memory"
	case vk.ErrorOutOfDeviceMemory:
		return "out of device memory"
	case vk.ErrorInitializationFailed:
		return "initialization failed"
	case vk.ErrorDeviceLost:
		return "device lost"
	case vk.ErrorMemoryMapFailed:
		return "memory map failed"
	case vk.ErrorLayerNotPresent:
		return "layer not present"
	case vk.ErrorExtensionNotPresent:
		return "extension not present"
	case vk.ErrorFeatureNotPresent:
		return "feature not present"
	case vk.ErrorIncompatibleDriver:
		return "incompatible driver"
	case vk.ErrorTooManyObjects:
		return "too many objects"
	case vk.ErrorFormatNotSupported:
		return "format not supported"
	case vk.ErrorFragmentedPool:
		return "fragmented pool"
	case vk.ErrorOutOfPoolMemory:
		return "out of pool memory"
	case resultInvalidExternalHandle:
		return "invalid external handle"
	case resultFragmentation:
		return "fragmentation"
	}
	return "unknown error"
}

// fatal promotes err to an unrecoverable failure.
// It is used where a native call fails while a resource is
// being released, since such resource cannot be left in an
// indeterminate state.
func fatal(err error, format string, args ...any) {
	err = errors.Wrapf(fatalError{err}, format, args...)
	driver.Logger().Error("fatal", "err", err)
	panic(err)
}

// fatalError wraps a release failure so that both the cause
// and driver.ErrFatal are in its chain.
type fatalError struct{ cause error }

func (e fatalError) Error() string {
	if e.cause == nil {
		return driver.ErrFatal.Error()
	}
	return driver.ErrFatal.Error() + ": " + e.cause.Error()
}

func (e fatalError) Is(target error) bool { return target == driver.ErrFatal }

func (e fatalError) Unwrap() error { return e.cause }

// violation reports a broken contract (i.e., a programming
// error in the caller) and panics.
func violation(format string, args ...any) {
	err := errors.Errorf("vk: "+format, args...)
	driver.Logger().Error("contract violation", "err", err)
	panic(err)
}
