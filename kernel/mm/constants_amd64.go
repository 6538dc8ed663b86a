package mm

import "helios/kernel/mem"

const (
	// PageShift is the number of address bits covered by a huge page.
	PageShift = 21

	// PageSize is the size of a leaf page. The kernel maps everything
	// with huge pages to keep the table hierarchy at three levels.
	PageSize = mem.Size(1) << PageShift

	// tableEntryCount is the number of 8-byte entries in one page table.
	tableEntryCount = 512

	// tableSize is the byte size of one page table.
	tableSize = tableEntryCount * 8

	// IdentityMapSize is the amount of physical memory that Init identity
	// maps with huge pages.
	IdentityMapSize = 2 * mem.Gb

	// KernelHeapSize is the size of the region reserved for the kernel
	// bump heap.
	KernelHeapSize = 2 * mem.Mb

	// upperHalfSlot is the top-level table slot that mirrors the identity
	// mapping into the upper half of the address space. Both
	// 0x0000000000000000 and UpperHalfBase resolve to the same frames.
	upperHalfSlot = 511

	// UpperHalfBase is the first virtual address covered by upperHalfSlot.
	UpperHalfBase = uintptr(0xffffff8000000000)
)

// Page table entry flag bits.
const (
	entryPresent  = uintptr(1) << 0
	entryWritable = uintptr(1) << 1
	entryHuge     = uintptr(1) << 7

	// entryAddrMask extracts the physical address bits from an entry.
	entryAddrMask = uintptr(0x000ffffffffff000)
)
