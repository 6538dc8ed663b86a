package irq

import (
	"helios/kernel"
	"helios/kernel/kfmt"
)

// InterruptNumber describes an entry in the interrupt descriptor table.
type InterruptNumber uint8

const (
	// DivideByZero is raised when the divisor operand of a DIV or IDIV
	// instruction is zero.
	DivideByZero = InterruptNumber(0)

	// Debug is raised when a debug condition (e.g. a hardware breakpoint)
	// is detected.
	Debug = InterruptNumber(1)

	// Breakpoint is raised when the CPU executes an INT3 instruction.
	Breakpoint = InterruptNumber(3)

	// Overflow is raised when the CPU executes an INTO instruction while
	// the overflow flag is set.
	Overflow = InterruptNumber(4)

	// InvalidOpcode is raised when the CPU fails to decode an instruction.
	InvalidOpcode = InterruptNumber(6)

	// DoubleFault is raised when an exception occurs while the CPU is
	// already servicing a prior exception.
	DoubleFault = InterruptNumber(8)

	// GPFException is raised on protection violations such as segment
	// limit overruns or privileged instructions in user mode.
	GPFException = InterruptNumber(13)

	// PageFaultException is raised when a memory access fails the page
	// table permission checks. The faulting address is left in CR2.
	PageFaultException = InterruptNumber(14)

	// irqBase is the vector where the remapped PIC lines begin.
	irqBase = InterruptNumber(32)

	// TimerIRQ fires on each tick of the programmable interval timer.
	TimerIRQ = irqBase + 0

	// KeyboardIRQ fires when the PS/2 keyboard controller has a scancode
	// available.
	KeyboardIRQ = irqBase + 1

	// SyscallGate is the software interrupt vector used for system calls.
	// Its gate descriptor allows invocation from ring 3.
	SyscallGate = InterruptNumber(0x80)

	numVectors = 256
)

// InterruptHandler is invoked to service an interrupt. Handlers may mutate
// the supplied register snapshot; the mutations take effect when the entry
// stub returns to the interrupted context.
type InterruptHandler func(regs *Registers)

var (
	errHandlerTableSealed = &kernel.Error{Module: "irq", Message: "handler table is sealed"}

	handlers [numVectors]InterruptHandler
	sealed   bool

	// scancodeSink receives raw scancodes read off the keyboard
	// controller data port. Installed via SetScancodeSink.
	scancodeSink func(code uint8)

	// ticks counts timer interrupts since boot.
	ticks uint64
)

// HandleInterrupt registers handler for the given interrupt number, replacing
// any existing handler. It fails once Seal has been called.
func HandleInterrupt(num InterruptNumber, handler InterruptHandler) *kernel.Error {
	if sealed {
		return errHandlerTableSealed
	}

	handlers[num] = handler
	return nil
}

// Seal freezes the handler table. Registration attempts after sealing are
// rejected so a misbehaving component cannot re-route interrupt delivery once
// the kernel is up.
func Seal() {
	sealed = true
}

// SetScancodeSink installs the consumer for raw keyboard scancodes. Passing
// nil discards further scancodes.
func SetScancodeSink(sink func(code uint8)) {
	scancodeSink = sink
}

// TickCount returns the number of timer interrupts serviced since boot.
func TickCount() uint64 {
	return ticks
}

// dispatchInterrupt is invoked by the interrupt entry stubs with a pointer to
// the captured register snapshot. It routes the interrupt to its registered
// handler and acknowledges the PIC for hardware-originated vectors.
//
//go:nosplit
func dispatchInterrupt(regs *Registers) {
	num := InterruptNumber(regs.Vector)

	// Hardware lines are acknowledged before the handler runs: the timer
	// handler can switch contexts and abandon this frame, and an EOI that
	// never goes out silences the controller for good. Interrupts stay
	// masked until the interrupted context is resumed, so the early EOI
	// cannot cause reentry.
	if num >= irqBase && num < irqBase+16 {
		ackIRQ(num)
	}

	if handler := handlers[num]; handler != nil {
		handler(regs)
	} else {
		kfmt.Printf("irq: unhandled interrupt %d; ignoring\n", uint64(num))
	}
}

func timerHandler(regs *Registers) {
	ticks++

	if tickConsumer != nil {
		tickConsumer(regs)
	}
}

// tickConsumer is invoked on each timer interrupt after the tick counter is
// advanced. The scheduler installs itself here during boot.
var tickConsumer InterruptHandler

// SetTickConsumer installs the function that receives timer interrupts.
func SetTickConsumer(h InterruptHandler) {
	tickConsumer = h
}

func keyboardHandler(_ *Registers) {
	code := portReadByteFn(kbdDataPort)

	if scancodeSink != nil {
		scancodeSink(code)
	}
}
