// Package mm brings up the kernel's view of memory: a bump-style heap over a
// reserved region and a three-level page table hierarchy that identity maps
// the first IdentityMapSize bytes of physical memory using huge pages. The
// same mapping is mirrored into the upper half of the address space so kernel
// code is reachable under either addressing convention.
//
// The bootloader hands control to the kernel with a provisional identity
// mapping already active, so table frames allocated from the heap can be
// written through their physical addresses.
package mm

import (
	"unsafe"

	"helios/kernel"
	"helios/kernel/cpu"
	"helios/kernel/kfmt"
)

// tableEntry encodes a physical address plus flag bits in the format shared
// by all three table levels.
type tableEntry uintptr

func (e tableEntry) hasFlags(flags uintptr) bool {
	return uintptr(e)&flags == flags
}

func (e tableEntry) addr() uintptr {
	return uintptr(e) & entryAddrMask
}

func makeEntry(physAddr uintptr, flags uintptr) tableEntry {
	return tableEntry((physAddr & entryAddrMask) | flags)
}

// table overlays a 4 KiB page table frame.
type table [tableEntryCount]tableEntry

func tableAt(addr uintptr) *table {
	return (*table)(unsafe.Pointer(addr))
}

var (
	// switchPDTFn is swapped by tests which must not touch CR3.
	switchPDTFn = cpu.SwitchPDT

	// pdtRoot holds the physical address of the top-level directory once
	// Init has built the hierarchy.
	pdtRoot uintptr

	// ErrNotMapped is returned by Translate for addresses outside the
	// identity-mapped region.
	ErrNotMapped = &kernel.Error{Module: "mm", Message: "virtual address is not mapped"}

	errHeapTooSmall = &kernel.Error{Module: "mm", Message: "heap region cannot hold the page table hierarchy"}
)

// Init reserves the kernel heap at heapBase, constructs the identity mapping
// and loads its root into the paging-control register. It must run before
// any other subsystem; everything else allocates from the heap it sets up.
func Init(heapBase uintptr) *kernel.Error {
	kernelHeap.init(heapBase, KernelHeapSize)

	if err := setupIdentityMap(); err != nil {
		return err
	}

	switchPDTFn(pdtRoot)

	kfmt.Printf("[mm] identity mapped %d MB, heap %d KB at 0x%x\n",
		uint64(IdentityMapSize>>20), uint64(KernelHeapSize>>10), heapBase)
	return nil
}

// PDTRoot returns the physical address of the active top-level directory.
func PDTRoot() uintptr {
	return pdtRoot
}

// allocTable carves a zeroed page table frame out of the kernel heap.
func allocTable() (uintptr, *kernel.Error) {
	addr, err := kernelHeap.alloc(tableSize, tableSize)
	if err != nil {
		return 0, errHeapTooSmall
	}

	kernel.Memset(addr, 0, tableSize)
	return addr, nil
}

// setupIdentityMap builds top directory -> middle directory -> leaf
// directories of huge pages covering [0, IdentityMapSize), then mirrors the
// middle directory into the last top-level slot.
func setupIdentityMap() *kernel.Error {
	topAddr, err := allocTable()
	if err != nil {
		return err
	}

	midAddr, err := allocTable()
	if err != nil {
		return err
	}

	var (
		top = tableAt(topAddr)
		mid = tableAt(midAddr)
	)

	leafCount := int(uintptr(IdentityMapSize) >> 30)
	for leaf := 0; leaf < leafCount; leaf++ {
		leafAddr, err := allocTable()
		if err != nil {
			return err
		}

		pd := tableAt(leafAddr)
		for i := 0; i < tableEntryCount; i++ {
			phys := uintptr(leaf)<<30 | uintptr(i)<<PageShift
			pd[i] = makeEntry(phys, entryPresent|entryWritable|entryHuge)
		}

		mid[leaf] = makeEntry(leafAddr, entryPresent|entryWritable)
	}

	top[0] = makeEntry(midAddr, entryPresent|entryWritable)

	// The mirror slot points at the same middle directory, so the upper
	// half view shares every mapping with the low view by construction.
	top[upperHalfSlot] = top[0]

	pdtRoot = topAddr
	return nil
}

// Translate performs a software page walk for virtAddr and returns the
// physical address it maps to.
func Translate(virtAddr uintptr) (uintptr, *kernel.Error) {
	if pdtRoot == 0 {
		return 0, ErrNotMapped
	}

	topIndex := (virtAddr >> 39) & (tableEntryCount - 1)
	midIndex := (virtAddr >> 30) & (tableEntryCount - 1)
	leafIndex := (virtAddr >> PageShift) & (tableEntryCount - 1)

	topEntry := tableAt(pdtRoot)[topIndex]
	if !topEntry.hasFlags(entryPresent) {
		return 0, ErrNotMapped
	}

	midEntry := tableAt(topEntry.addr())[midIndex]
	if !midEntry.hasFlags(entryPresent) {
		return 0, ErrNotMapped
	}

	leafEntry := tableAt(midEntry.addr())[leafIndex]
	if !leafEntry.hasFlags(entryPresent | entryHuge) {
		return 0, ErrNotMapped
	}

	offset := virtAddr & (uintptr(PageSize) - 1)
	return leafEntry.addr() + offset, nil
}
