// Package bootinfo captures the handoff value supplied by the pre-kernel
// loader. The kernel core stores it untouched; decoding the display geometry
// is offered only as a convenience for diagnostics, and the raw pointer is
// what gets forwarded to the display server.
package bootinfo

import "unsafe"

// Framebuffer mirrors the loader's display descriptor layout. The field
// order is ABI; it must match what the loader hands over.
type Framebuffer struct {
	BaseAddress  uint64
	Width        uint32
	Height       uint32
	Pitch        uint32
	PixelFormat  uint32
	RedMask      uint32
	GreenMask    uint32
	BlueMask     uint32
	ReservedMask uint32
}

var infoData uintptr

// SetInfoPtr stores the address of the loader-provided boot information.
// It must be called before the rest of the kernel is initialized.
func SetInfoPtr(ptr uintptr) {
	infoData = ptr
}

// InfoPtr returns the stored handoff address unmodified. A zero value means
// the loader provided no boot information.
func InfoPtr() uintptr {
	return infoData
}

// FramebufferInfo overlays the handoff region with the display descriptor.
// It returns false when no boot information was handed over.
func FramebufferInfo() (*Framebuffer, bool) {
	if infoData == 0 {
		return nil, false
	}

	return (*Framebuffer)(unsafe.Pointer(infoData)), true
}
