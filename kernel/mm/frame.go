package mm

// Frame describes a physical huge-page index.
type Frame uintptr

// Address returns the physical memory address where this Frame begins.
func (f Frame) Address() uintptr {
	return uintptr(f) << PageShift
}

// FrameFromAddress returns the Frame containing physAddr. Addresses that are
// not page aligned are rounded down to the frame that contains them.
func FrameFromAddress(physAddr uintptr) Frame {
	return Frame(physAddr >> PageShift)
}

// Page describes a virtual huge-page index.
type Page uintptr

// Address returns the virtual memory address where this Page begins.
func (p Page) Address() uintptr {
	return uintptr(p) << PageShift
}

// PageFromAddress returns the Page containing virtAddr. Addresses that are
// not page aligned are rounded down to the page that contains them.
func PageFromAddress(virtAddr uintptr) Page {
	return Page(virtAddr >> PageShift)
}
