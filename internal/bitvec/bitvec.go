// Copyright 2023 Gustavo C. Viegas. All rights reserved.

// Package bitvec defines a fixed-length bit vector used to
// track slot occupancy (e.g., the live descriptor sets of a
// descriptor pool).
package bitvec

import "math/bits"

const nbit = 64

// V is a bit vector of fixed length.
// A set bit denotes an occupied slot.
type V struct {
	s   []uint64
	n   int
	rem int
}

// New creates a vector of n unset bits.
func New(n int) *V {
	if n < 0 {
		n = 0
	}
	return &V{
		s:   make([]uint64, (n+nbit-1)/nbit),
		n:   n,
		rem: n,
	}
}

// Len returns the number of bits in the vector.
func (v *V) Len() int { return v.n }

// Rem returns the number of unset bits in the vector.
func (v *V) Rem() int { return v.rem }

func (v *V) check(index int) {
	if index < 0 || index >= v.n {
		panic("bitvec: index out of range")
	}
}

// Set sets a given bit.
func (v *V) Set(index int) {
	v.check(index)
	b := uint64(1) << (index % nbit)
	if w := &v.s[index/nbit]; *w&b == 0 {
		*w |= b
		v.rem--
	}
}

// Unset unsets a given bit.
func (v *V) Unset(index int) {
	v.check(index)
	b := uint64(1) << (index % nbit)
	if w := &v.s[index/nbit]; *w&b != 0 {
		*w &^= b
		v.rem++
	}
}

// IsSet checks whether a given bit is set.
// Indices out of range are never set.
func (v *V) IsSet(index int) bool {
	if index < 0 || index >= v.n {
		return false
	}
	return v.s[index/nbit]&(1<<(index%nbit)) != 0
}

// Search locates the lowest unset bit.
// It fails only when v.Rem() == 0.
func (v *V) Search() (index int, ok bool) {
	if v.rem == 0 {
		return
	}
	for i, x := range v.s {
		if x == ^uint64(0) {
			continue
		}
		index = i*nbit + bits.TrailingZeros64(^x)
		if index < v.n {
			ok = true
		}
		return
	}
	return
}
