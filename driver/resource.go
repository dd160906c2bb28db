// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package driver

import (
	"github.com/gviegas/vkcore/refc"
)

// Resource is the interface implemented by GPU objects whose
// native handle is released through reference counting.
// Buffers, images, views, samplers, pipelines and descriptor
// sets implement it independently of one another.
//
// The native handle is released exactly once, when the last
// holder gives up its reference.
type Resource interface {
	Ref() *refc.Cell
}

// Retain adds a reference to r on behalf of a new holder.
// It panics if r has already been released.
func Retain(r Resource) { r.Ref().Increment() }

// Dispose gives up a reference to r.
func Dispose(r Resource) { r.Ref().DecrementDispose() }

// IsDisposed reports whether r has been released.
func IsDisposed(r Resource) bool { return r.Ref().IsDisposed() }
