// Copyright 2022 Gustavo C. Viegas. All rights reserved.

// Package driver defines the API-neutral pieces shared by GPU
// backends: the error taxonomy, the reference-counted resource
// capability and backend registration.
package driver

import (
	"sync"

	"github.com/pkg/errors"
)

// Driver is the interface that a GPU backend registers to
// advertise itself.
type Driver interface {
	// Name returns the name of the driver.
	Name() string

	// Usable reports whether the backend can run on this
	// system. Implementations compute the answer once and
	// cache it for the lifetime of the process.
	Usable() bool
}

// ErrNotInstalled means that a platform-specific library
// required for the driver to work is not present in the
// system.
var ErrNotInstalled = errors.New("driver: missing required library")

// ErrNoDevice means that no suitable device could be
// found.
var ErrNoDevice = errors.New("driver: no suitable device found")

// ErrNoHostMemory means that host memory could not be
// allocated.
var ErrNoHostMemory = errors.New("driver: out of host memory")

// ErrNoDeviceMemory means that device memory could not
// be allocated.
var ErrNoDeviceMemory = errors.New("driver: out of device memory")

// ErrFatal means that the driver is in an unrecoverable
// state. It is never retried: the operation that produced
// it must be abandoned together with every resource that
// it touched.
var ErrFatal = errors.New("driver: fatal error")

// IsOutOfMemory reports whether err is caused by host or
// device memory exhaustion. Callers may free caches and try
// again at a higher level.
func IsOutOfMemory(err error) bool {
	return errors.Is(err, ErrNoHostMemory) || errors.Is(err, ErrNoDeviceMemory)
}

// Drivers returns the registered Drivers.
func Drivers() []Driver {
	mu.Lock()
	defer mu.Unlock()
	drv := make([]Driver, len(drivers))
	copy(drv, drivers)
	return drv
}

// Register registers a Driver.
// Driver implementations are expected to call Register
// exactly once, from an init function.
// If a driver with the same name has already been
// registered, it will be replaced by drv.
func Register(drv Driver) {
	mu.Lock()
	defer mu.Unlock()
	for i := range drivers {
		if drivers[i].Name() == drv.Name() {
			drivers[i] = drv
			Logger().Warn("driver replaced", "name", drv.Name())
			return
		}
	}
	drivers = append(drivers, drv)
	Logger().Debug("driver registered", "name", drv.Name())
}

// Variables used for driver registration.
var (
	mu      sync.Mutex
	drivers = make([]Driver, 0, 1)
)
