package mm

import (
	"helios/kernel"
	"helios/kernel/mem"
)

var (
	// ErrOutOfHeap is returned when a heap allocation request cannot be
	// satisfied from the remaining reserved region.
	ErrOutOfHeap = &kernel.Error{Module: "mm", Message: "kernel heap exhausted"}

	errBadAlign = &kernel.Error{Module: "mm", Message: "allocation alignment must be a non-zero power of 2"}

	// kernelHeap is the singleton heap serving all kernel-side dynamic
	// allocations: page tables, process stacks and IPC payload storage.
	kernelHeap heap
)

// heap is a bump allocator over a fixed reserved region. There is no free
// operation; allocations live for the lifetime of the kernel.
type heap struct {
	start uintptr
	next  uintptr
	end   uintptr
}

func (h *heap) init(base uintptr, size mem.Size) {
	h.start = base
	h.next = base
	h.end = base + uintptr(size)
}

// alloc carves size bytes aligned to align out of the region. The returned
// memory is not zeroed; callers that need a clean region must scrub it.
func (h *heap) alloc(size uintptr, align uintptr) (uintptr, *kernel.Error) {
	if align == 0 || align&(align-1) != 0 {
		return 0, errBadAlign
	}

	addr := (h.next + align - 1) &^ (align - 1)
	if addr+size > h.end || addr+size < addr {
		return 0, ErrOutOfHeap
	}

	h.next = addr + size
	return addr, nil
}

// used reports the number of bytes consumed so far, padding included.
func (h *heap) used() mem.Size {
	return mem.Size(h.next - h.start)
}

// HeapAlloc carves size bytes with the requested alignment out of the kernel
// heap. There is no corresponding free; the heap only grows.
func HeapAlloc(size uintptr, align uintptr) (uintptr, *kernel.Error) {
	return kernelHeap.alloc(size, align)
}

// HeapUsed returns the number of heap bytes consumed so far.
func HeapUsed() mem.Size {
	return kernelHeap.used()
}
