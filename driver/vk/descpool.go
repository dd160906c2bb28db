// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package vk

import (
	"sync"

	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"

	"github.com/gviegas/vkcore/driver"
	"github.com/gviegas/vkcore/internal/bitvec"
)

// Capacity of every descriptor pool.
const (
	PoolMaxSets = 1000
	PoolKindCap = 100
)

// ErrCountsTooLarge means that a layout requires more
// descriptors of some kind than a single pool can hold.
var ErrCountsTooLarge = errors.New("vk: descriptor counts exceed pool capacity")

// poolCap is the per-kind capacity of a fresh pool.
var poolCap = func() (c DescCounts) {
	for i := range c {
		c[i] = PoolKindCap
	}
	return
}()

// DescToken identifies an allocated descriptor set and the
// pool it came from.
type DescToken struct {
	Set  vk.DescriptorSet
	Pool vk.DescriptorPool
	idx  int
	slot int
}

// PoolStats describes the occupancy of one pool.
type PoolStats struct {
	Pool vk.DescriptorPool
	Live int
	Rem  DescCounts
}

// descPool is one fixed-capacity descriptor pool.
type descPool struct {
	pool vk.DescriptorPool
	rem  DescCounts
	live *bitvec.V
	sets []vk.DescriptorSet
}

func (p *descPool) alloc(d Device, idx int, counts *DescCounts, layout vk.DescriptorSetLayout) (DescToken, error) {
	slot, ok := p.live.Search()
	if !ok {
		violation("descriptor pool %d: no free slot", idx)
	}
	set, err := d.AllocateDescriptorSet(p.pool, layout)
	if err != nil {
		return DescToken{}, err
	}
	p.live.Set(slot)
	p.sets[slot] = set
	p.rem.sub(counts)
	return DescToken{
		Set:  set,
		Pool: p.pool,
		idx:  idx,
		slot: slot,
	}, nil
}

// DescAllocator hands out descriptor sets from a growable
// list of descriptor pools.
// It is safe for concurrent use.
type DescAllocator struct {
	mu    sync.Mutex
	d     Device
	pools []*descPool
}

// NewDescAllocator creates an allocator that issues native
// calls through d. Pools are created on demand.
func NewDescAllocator(d Device) *DescAllocator { return &DescAllocator{d: d} }

// newPool creates a fresh pool.
// The caller must hold a.mu.
func (a *DescAllocator) newPool() (*descPool, error) {
	var sizes [descKindN]vk.DescriptorPoolSize
	for i := range sizes {
		sizes[i] = vk.DescriptorPoolSize{
			Type:            DescKind(i).Type(),
			DescriptorCount: PoolKindCap,
		}
	}
	info := vk.DescriptorPoolCreateInfo{
		SType:         vk.StructureTypeDescriptorPoolCreateInfo,
		Flags:         vk.DescriptorPoolCreateFlags(vk.DescriptorPoolCreateFreeDescriptorSetBit),
		MaxSets:       PoolMaxSets,
		PoolSizeCount: uint32(len(sizes)),
		PPoolSizes:    sizes[:],
	}
	pool, err := a.d.CreateDescriptorPool(&info)
	if err != nil {
		return nil, err
	}
	return &descPool{
		pool: pool,
		rem:  poolCap,
		live: bitvec.New(PoolMaxSets),
		sets: make([]vk.DescriptorSet, PoolMaxSets),
	}, nil
}

// Allocate allocates a descriptor set of the given layout,
// which requires counts descriptors.
// Pools are tried in creation order and the first one with
// enough capacity is used. A new pool is created when none
// of the existing ones can serve the request.
func (a *DescAllocator) Allocate(counts DescCounts, layout vk.DescriptorSetLayout) (DescToken, error) {
	for _, c := range counts {
		if c < 0 {
			return DescToken{}, errors.Errorf("vk: negative descriptor count in %v", counts)
		}
	}
	if !counts.fits(&poolCap) {
		return DescToken{}, errors.Wrapf(ErrCountsTooLarge, "counts %v", counts)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	for i, p := range a.pools {
		if p.live.Rem() == 0 || !counts.fits(&p.rem) {
			continue
		}
		tok, err := p.alloc(a.d, i, &counts, layout)
		switch {
		case err == nil:
			return tok, nil
		case isPoolExhausted(err):
			driver.Logger().Debug("descriptor pool exhausted", "pool", i, "err", err)
		default:
			return DescToken{}, err
		}
	}

	p, err := a.newPool()
	if err != nil {
		return DescToken{}, err
	}
	i := len(a.pools)
	a.pools = append(a.pools, p)
	driver.Logger().Info("descriptor pool created", "pool", i, "pools", len(a.pools))
	tok, err := p.alloc(a.d, i, &counts, layout)
	if err != nil {
		if isPoolExhausted(err) {
			violation("fresh descriptor pool %d cannot hold %v: %v", i, counts, err)
		}
		return DescToken{}, err
	}
	return tok, nil
}

// Free returns the descriptor set identified by tok to its
// pool. counts must be the value given to Allocate.
// If the native call fails, the error is returned and no
// capacity is credited.
func (a *DescAllocator) Free(tok DescToken, counts DescCounts) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	p := a.lookup(tok)
	if p == nil {
		violation("Free: unknown descriptor pool %v", tok.Pool)
	}
	if !p.live.IsSet(tok.slot) || p.sets[tok.slot] != tok.Set {
		violation("Free: descriptor set %v is not live in pool %d", tok.Set, tok.idx)
	}
	rem := p.rem
	rem.add(&counts)
	if !rem.fits(&poolCap) {
		violation("Free: counts %v were not allocated from pool %d", counts, tok.idx)
	}
	if err := a.d.FreeDescriptorSet(p.pool, tok.Set); err != nil {
		return err
	}
	p.live.Unset(tok.slot)
	p.sets[tok.slot] = nil
	p.rem = rem
	return nil
}

// liveSets returns the number of sets allocated from p and
// not yet freed.
func (p *descPool) liveSets() int { return p.live.Len() - p.live.Rem() }

// lookup returns the pool that tok refers to, or nil.
// The caller must hold a.mu.
func (a *DescAllocator) lookup(tok DescToken) *descPool {
	if tok.Pool == nil || tok.idx < 0 || tok.idx >= len(a.pools) {
		return nil
	}
	if p := a.pools[tok.idx]; p.pool == tok.Pool {
		return p
	}
	return nil
}

// DestroyAll destroys every pool, and thus every descriptor
// set allocated from a. Tokens issued before the call must
// not be freed afterwards.
// The allocator remains usable.
func (a *DescAllocator) DestroyAll() {
	a.mu.Lock()
	defer a.mu.Unlock()

	var live, descs int
	for _, p := range a.pools {
		live += p.liveSets()
		used := poolCap
		used.sub(&p.rem)
		descs += used.Total()
		a.d.DestroyDescriptorPool(p.pool)
	}
	if len(a.pools) > 0 {
		driver.Logger().Info("descriptor pools destroyed", "pools", len(a.pools), "live", live, "descriptors", descs)
	}
	a.pools = nil
}

// Stats returns the occupancy of every pool, in creation
// order.
func (a *DescAllocator) Stats() []PoolStats {
	a.mu.Lock()
	defer a.mu.Unlock()

	s := make([]PoolStats, len(a.pools))
	for i, p := range a.pools {
		s[i] = PoolStats{
			Pool: p.pool,
			Live: p.liveSets(),
			Rem:  p.rem,
		}
	}
	return s
}
