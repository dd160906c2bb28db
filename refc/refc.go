// Copyright 2022 Gustavo C. Viegas. All rights reserved.

// Package refc implements reference counting for resources
// whose lifetime cannot be left to the garbage collector
// (e.g., GPU handles).
package refc

import (
	"go.uber.org/atomic"
)

// Contract violations. These are programming errors, so
// Cell methods panic with one of these values instead of
// returning them.
var (
	errNotLive   = contractError("refc: cell not initialized")
	errDisposed  = contractError("refc: increment after release")
	errUnderflow = contractError("refc: decrement past zero")
)

type contractError string

func (e contractError) Error() string { return string(e) }

// Cell is a shared reference counter that calls a release
// function exactly once, when the count drops to zero.
// A Cell must not be copied after Init.
type Cell struct {
	n       atomic.Int64
	live    atomic.Bool
	done    atomic.Bool
	release func()
}

// New creates a live Cell holding one reference.
func New(release func()) *Cell {
	c := new(Cell)
	c.Init(release)
	return c
}

// Init makes c live with a count of one. The reference is
// owned by the caller, which is expected to eventually call
// DecrementDispose.
// release may be nil.
func (c *Cell) Init(release func()) {
	c.release = release
	c.done.Store(false)
	c.n.Store(1)
	c.live.Store(true)
}

// Increment adds a reference.
// It panics if c has already been released.
func (c *Cell) Increment() {
	if !c.live.Load() {
		panic(errNotLive)
	}
	if !c.TryIncrement() {
		panic(errDisposed)
	}
}

// TryIncrement adds a reference unless c has already been
// released, in which case it returns false.
func (c *Cell) TryIncrement() bool {
	for {
		n := c.n.Load()
		if n <= 0 {
			return false
		}
		if c.n.CompareAndSwap(n, n+1) {
			return true
		}
	}
}

// Decrement removes a reference.
// The goroutine that moves the count from one to zero calls
// the release function before returning. It panics if the
// count is already zero.
func (c *Cell) Decrement() {
	if !c.live.Load() {
		panic(errNotLive)
	}
	switch n := c.n.Dec(); {
	case n > 0:
	case n == 0:
		if !c.done.CompareAndSwap(false, true) {
			panic(errUnderflow)
		}
		if c.release != nil {
			c.release()
			c.release = nil
		}
	default:
		// Restore the count so that subsequent checks
		// keep failing the same way.
		c.n.Inc()
		panic(errUnderflow)
	}
}

// DecrementDispose is the same as Decrement.
// Owners call it to give up the reference they hold.
func (c *Cell) DecrementDispose() { c.Decrement() }

// IsDisposed reports whether the release function has run
// (or is running).
func (c *Cell) IsDisposed() bool { return c.done.Load() }

// Count returns the current number of references.
func (c *Cell) Count() int64 { return c.n.Load() }

// IsContractViolation reports whether v, a value recovered
// from a panic, was raised by a Cell method.
func IsContractViolation(v any) bool {
	_, ok := v.(contractError)
	return ok
}
