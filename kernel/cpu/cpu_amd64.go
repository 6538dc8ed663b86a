// Package cpu exposes the small set of amd64 primitives that cannot be
// expressed in Go: interrupt-flag manipulation, privileged register access,
// port I/O and the instructions that install the IDT and page tables. All
// functions are implemented in cpu_amd64.s; callers that need to run inside
// tests are expected to alias them through package-level function variables
// so the hardware access can be mocked.
package cpu

// RFlagsIF is the interrupt-enable bit inside RFLAGS.
const RFlagsIF = uint64(1) << 9

// EnableInterrupts sets the interrupt flag, allowing maskable external
// interrupts to be delivered.
func EnableInterrupts()

// DisableInterrupts clears the interrupt flag.
func DisableInterrupts()

// FlagsRegister returns the current contents of RFLAGS.
func FlagsRegister() uint64

// Halt disables interrupts and stops instruction execution. It never returns.
func Halt()

// Idle waits for the next external interrupt with interrupts enabled. It is
// the body of the kernel idle loop.
func Idle()

// SwitchPDT loads the physical address of a top-level page directory into
// CR3, activating the mapping and flushing the TLB.
func SwitchPDT(pdtPhysAddr uintptr)

// ActivePDT returns the physical address of the currently active top-level
// page directory.
func ActivePDT() uintptr

// ReadCR2 returns the value stored in the CR2 register. After a page fault
// CR2 holds the faulting address.
func ReadCR2() uint64

// FlushTLBEntry flushes the TLB entry for a particular virtual address.
func FlushTLBEntry(virtAddr uintptr)

// LoadIDT loads the interrupt descriptor table whose 10-byte descriptor
// (limit and base) is located at descriptorAddr.
func LoadIDT(descriptorAddr uintptr)

// PortWriteByte writes a uint8 value to the requested port.
func PortWriteByte(port uint16, val uint8)

// PortReadByte reads a uint8 value from the requested port.
func PortReadByte(port uint16) uint8
