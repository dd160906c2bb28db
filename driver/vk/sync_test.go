// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package vk

import (
	"testing"

	vk "github.com/vulkan-go/vulkan"
)

// Masks used by the tests below.
var (
	aShaderRead  = vk.AccessFlags(vk.AccessShaderReadBit)
	aShaderWrite = vk.AccessFlags(vk.AccessShaderWriteBit)
	aColorWrite  = vk.AccessFlags(vk.AccessColorAttachmentWriteBit)
	aXferRead    = vk.AccessFlags(vk.AccessTransferReadBit)
	aXferWrite   = vk.AccessFlags(vk.AccessTransferWriteBit)

	sCompute  = vk.PipelineStageFlags(vk.PipelineStageComputeShaderBit)
	sFragment = vk.PipelineStageFlags(vk.PipelineStageFragmentShaderBit)
	sVertex   = vk.PipelineStageFlags(vk.PipelineStageVertexShaderBit)
	sColor    = vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit)
	sXfer     = vk.PipelineStageFlags(vk.PipelineStageTransferBit)
)

func TestIsWrite(t *testing.T) {
	for _, x := range [...]struct {
		acc  vk.AccessFlags
		want bool
	}{
		{0, false},
		{aShaderRead, false},
		{aXferRead | aShaderRead, false},
		{aShaderWrite, true},
		{aColorWrite, true},
		{aShaderRead | aXferWrite, true},
		{vk.AccessFlags(vk.AccessHostWriteBit), true},
		{vk.AccessFlags(vk.AccessMemoryReadBit), false},
	} {
		if have := isWrite(x.acc); have != x.want {
			t.Fatalf("isWrite(%#x):\nhave %t\nwant %t", x.acc, have, x.want)
		}
	}
}

func TestResolveComputeToFragment(t *testing.T) {
	s := SyncState{LastWriter: Access{aShaderWrite, sCompute}}
	req := SyncRequest{Access: aShaderRead, Stage: sFragment}

	b, ok := s.Resolve(req, false)
	if !ok {
		t.Fatal("SyncState.Resolve: first read:\nhave false\nwant true")
	}
	want := Barrier{
		SrcAccess: aShaderWrite,
		DstAccess: aShaderRead,
		SrcStage:  sCompute,
		DstStage:  sFragment,
	}
	if b != want {
		t.Fatalf("SyncState.Resolve: barrier:\nhave %+v\nwant %+v", b, want)
	}
	if s.Seen&sFragment == 0 {
		t.Fatalf("SyncState.Resolve: Seen:\nhave %#x\nwant %#x set", s.Seen, sFragment)
	}
	if s.Readers != (Access{aShaderRead, sFragment}) {
		t.Fatalf("SyncState.Resolve: Readers:\nhave %+v\nwant %+v", s.Readers, Access{aShaderRead, sFragment})
	}

	prev := s
	if b, ok := s.Resolve(req, false); ok {
		t.Fatalf("SyncState.Resolve: second read:\nhave %+v, true\nwant _, false", b)
	}
	if s != prev {
		t.Fatalf("SyncState.Resolve: second read changed state:\nhave %+v\nwant %+v", s, prev)
	}

	// A read from another stage still needs to wait.
	b, ok = s.Resolve(SyncRequest{Access: aShaderRead, Stage: sVertex}, false)
	if !ok || b.SrcStage != sCompute || b.DstStage != sVertex {
		t.Fatalf("SyncState.Resolve: vertex read:\nhave %+v, %t\nwant compute->vertex, true", b, ok)
	}
	if s.LastWriter != (Access{aShaderWrite, sCompute}) {
		t.Fatalf("SyncState.Resolve: readers must not overwrite LastWriter:\nhave %+v", s.LastWriter)
	}
}

func TestResolveUntouchedRead(t *testing.T) {
	var s SyncState
	if b, ok := s.Resolve(SyncRequest{Access: aShaderRead, Stage: sFragment}, false); ok {
		t.Fatalf("SyncState.Resolve: read of untouched state:\nhave %+v, true\nwant _, false", b)
	}
	if s.Readers.IsZero() {
		t.Fatal("SyncState.Resolve: Readers:\nhave zero\nwant non-zero")
	}
}

func TestResolveWriteAfterWrite(t *testing.T) {
	var s SyncState
	req := SyncRequest{Access: aShaderWrite, Stage: sCompute}
	if b, ok := s.Resolve(req, false); ok {
		t.Fatalf("SyncState.Resolve: first write:\nhave %+v, true\nwant _, false", b)
	}
	for i := range 3 {
		b, ok := s.Resolve(req, false)
		if !ok {
			t.Fatalf("SyncState.Resolve: write #%d:\nhave false\nwant true", i+2)
		}
		want := Barrier{aShaderWrite, aShaderWrite, sCompute, sCompute, 0, 0}
		if b != want {
			t.Fatalf("SyncState.Resolve: write #%d:\nhave %+v\nwant %+v", i+2, b, want)
		}
	}
}

func TestResolveWriteAfterRead(t *testing.T) {
	s := SyncState{LastWriter: Access{aXferWrite, sXfer}}
	s.Resolve(SyncRequest{Access: aShaderRead, Stage: sFragment}, false)
	s.Resolve(SyncRequest{Access: aShaderRead, Stage: sVertex}, false)

	b, ok := s.Resolve(SyncRequest{Access: aShaderWrite, Stage: sCompute}, false)
	if !ok {
		t.Fatal("SyncState.Resolve: write after read:\nhave false\nwant true")
	}
	if want := aXferWrite | aShaderRead; b.SrcAccess != want {
		t.Fatalf("SyncState.Resolve: SrcAccess:\nhave %#x\nwant %#x", b.SrcAccess, want)
	}
	if want := sXfer | sFragment | sVertex; b.SrcStage != want {
		t.Fatalf("SyncState.Resolve: SrcStage:\nhave %#x\nwant %#x", b.SrcStage, want)
	}
	want := SyncState{LastWriter: Access{aShaderWrite, sCompute}}
	if s != want {
		t.Fatalf("SyncState.Resolve: state:\nhave %+v\nwant %+v", s, want)
	}
}

func TestResolveLayout(t *testing.T) {
	s := SyncState{Layout: vk.ImageLayoutUndefined}
	req := SyncRequest{
		Access: aXferWrite,
		Stage:  sXfer,
		Layout: vk.ImageLayoutTransferDstOptimal,
	}
	b, ok := s.Resolve(req, true)
	if !ok {
		t.Fatal("SyncState.Resolve: layout change:\nhave false\nwant true")
	}
	if b.OldLayout != vk.ImageLayoutUndefined || b.NewLayout != vk.ImageLayoutTransferDstOptimal {
		t.Fatalf("SyncState.Resolve: layouts:\nhave %d -> %d\nwant %d -> %d", b.OldLayout, b.NewLayout, vk.ImageLayoutUndefined, vk.ImageLayoutTransferDstOptimal)
	}
	if s.Layout != vk.ImageLayoutTransferDstOptimal {
		t.Fatalf("SyncState.Resolve: Layout:\nhave %d\nwant %d", s.Layout, vk.ImageLayoutTransferDstOptimal)
	}

	// Read into a new layout with masks that need no
	// barrier otherwise.
	rd := SyncRequest{
		Access: aShaderRead,
		Stage:  sFragment,
		Layout: vk.ImageLayoutShaderReadOnlyOptimal,
	}
	b, ok = s.Resolve(rd, true)
	if !ok {
		t.Fatal("SyncState.Resolve: read with layout change:\nhave false\nwant true")
	}
	if b.SrcAccess != aXferWrite || b.SrcStage != sXfer || b.DstStage != sFragment {
		t.Fatalf("SyncState.Resolve: barrier:\nhave %+v\nwant transfer write -> fragment read", b)
	}
	if b, ok := s.Resolve(rd, true); ok {
		t.Fatalf("SyncState.Resolve: repeated read:\nhave %+v, true\nwant _, false", b)
	}

	// Same masks, different layout.
	rd.Layout = vk.ImageLayoutGeneral
	if _, ok := s.Resolve(rd, true); !ok {
		t.Fatal("SyncState.Resolve: layout change with same masks:\nhave false\nwant true")
	}
	// A read after the transition from another stage waits
	// for the transition.
	b, ok = s.Resolve(SyncRequest{Access: aShaderRead, Stage: sCompute, Layout: vk.ImageLayoutGeneral}, true)
	if !ok || b.SrcStage != sFragment || b.SrcAccess != 0 {
		t.Fatalf("SyncState.Resolve: read after transition:\nhave %+v, %t\nwant fragment(no access) -> compute, true", b, ok)
	}
}

func TestResolveNoLayouts(t *testing.T) {
	s := SyncState{Layout: vk.ImageLayoutPreinitialized}
	req := SyncRequest{
		Access: aXferWrite,
		Stage:  sXfer,
		Layout: vk.ImageLayoutTransferDstOptimal,
	}
	if b, ok := s.Resolve(req, false); ok {
		t.Fatalf("SyncState.Resolve: first write:\nhave %+v, true\nwant _, false", b)
	}
	if s.Layout != vk.ImageLayoutPreinitialized {
		t.Fatalf("SyncState.Resolve: Layout:\nhave %d\nwant %d", s.Layout, vk.ImageLayoutPreinitialized)
	}
	b, ok := s.Resolve(SyncRequest{Access: aXferRead, Stage: sXfer, Layout: vk.ImageLayoutGeneral}, false)
	if !ok {
		t.Fatal("SyncState.Resolve: read after write:\nhave false\nwant true")
	}
	if b.OldLayout != vk.ImageLayoutPreinitialized || b.NewLayout != vk.ImageLayoutPreinitialized {
		t.Fatalf("SyncState.Resolve: layouts:\nhave %d -> %d\nwant %[3]d -> %[3]d", b.OldLayout, b.NewLayout, vk.ImageLayoutPreinitialized)
	}
}

func TestSyncTable(t *testing.T) {
	tb := newSyncTable(3, 2, vk.ImageLayoutUndefined)
	if n := len(tb.states); n != 6 {
		t.Fatalf("newSyncTable: len(states):\nhave %d\nwant 6", n)
	}
	for lv := range 2 {
		for ly := range 3 {
			if have, want := tb.state(Subresource{ly, lv}), &tb.states[lv*3+ly]; have != want {
				t.Fatalf("syncTable.state(%d, %d):\nhave %p\nwant %p", ly, lv, have, want)
			}
		}
	}
	for _, sub := range [...]Subresource{{3, 0}, {0, 2}, {-1, 0}, {0, -1}} {
		if !mustPanic(func() { tb.state(sub) }) {
			t.Fatalf("syncTable.state(%+v): expected a panic", sub)
		}
	}
	if !mustPanic(func() { newSyncTable(0, 1, 0) }) {
		t.Fatal("newSyncTable(0, 1): expected a panic")
	}
}
