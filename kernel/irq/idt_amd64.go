package irq

import (
	"unsafe"

	"helios/kernel/cpu"
	"helios/kernel/kfmt"
)

const (
	idtEntries = numVectors

	// kernelCS is the selector of the kernel code segment in the GDT.
	kernelCS = 0x08

	// gateInterrupt is the type/attribute byte of a present 64-bit
	// interrupt gate with DPL 0.
	gateInterrupt = 0x8e
)

// gateEntry is a 16-byte IDT gate descriptor.
type gateEntry struct {
	low  uint64
	high uint64
}

var (
	idt [idtEntries]gateEntry

	// idtDesc is the packed 10-byte operand loaded by LIDT: a 16-bit
	// limit followed immediately by the 64-bit table base. A struct would
	// pad the base to offset 8, so the fields are poked in by hand.
	idtDesc [10]byte

	loadIDTFn = cpu.LoadIDT
)

// setGate encodes an interrupt gate for the handler whose entry stub is
// located at offset. dpl selects the lowest privilege level allowed to invoke
// the gate via a software interrupt.
func setGate(num InterruptNumber, offset uintptr, dpl uint8) {
	attr := uint64(gateInterrupt | dpl<<5)

	idt[num].low = uint64(offset)&0xffff |
		uint64(kernelCS)<<16 |
		attr<<40 |
		(uint64(offset)>>16&0xffff)<<48
	idt[num].high = uint64(offset) >> 32
}

// stubAddress extracts the entry point address of an assembly trampoline. The
// Go compiler represents a function value as a pointer to a word that holds
// the code address.
func stubAddress(f func()) uintptr {
	return **(**uintptr)(unsafe.Pointer(&f))
}

// Init programs the interrupt descriptor table, remaps the PIC so hardware
// lines do not collide with CPU exception vectors, starts the interval timer
// and wires the built-in timer and keyboard handlers.
func Init() {
	buildIDT()

	*(*uint16)(unsafe.Pointer(&idtDesc[0])) = uint16(unsafe.Sizeof(idt) - 1)
	*(*uintptr)(unsafe.Pointer(&idtDesc[2])) = uintptr(unsafe.Pointer(&idt[0]))
	loadIDTFn(uintptr(unsafe.Pointer(&idtDesc[0])))

	remapPIC()
	startTimer(timerFrequency)

	handlers[TimerIRQ] = timerHandler
	handlers[KeyboardIRQ] = keyboardHandler

	kfmt.Printf("[irq] IDT loaded; PIC remapped to %x/%x; timer at %d Hz\n",
		uint64(picMasterBase), uint64(picSlaveBase), uint64(timerFrequency))
}

func buildIDT() {
	for i := 0; i < idtEntries; i++ {
		setGate(InterruptNumber(i), stubAddress(stubDefault), 0)
	}

	setGate(DivideByZero, stubAddress(stubDivideByZero), 0)
	setGate(Debug, stubAddress(stubDebug), 0)
	setGate(Breakpoint, stubAddress(stubBreakpoint), 0)
	setGate(Overflow, stubAddress(stubOverflow), 0)
	setGate(InvalidOpcode, stubAddress(stubInvalidOpcode), 0)
	setGate(DoubleFault, stubAddress(stubDoubleFault), 0)
	setGate(GPFException, stubAddress(stubGPF), 0)
	setGate(PageFaultException, stubAddress(stubPageFault), 0)
	setGate(TimerIRQ, stubAddress(stubTimer), 0)
	setGate(KeyboardIRQ, stubAddress(stubKeyboard), 0)

	// The syscall gate must be reachable from ring 3.
	setGate(SyscallGate, stubAddress(stubSyscall), 3)
}

// The entry stubs are implemented in entry_amd64.s. Each pushes its vector
// number (and a zero error code for vectors where the CPU does not supply
// one), captures the register file and calls dispatchInterrupt.
func stubDefault()
func stubDivideByZero()
func stubDebug()
func stubBreakpoint()
func stubOverflow()
func stubInvalidOpcode()
func stubDoubleFault()
func stubGPF()
func stubPageFault()
func stubTimer()
func stubKeyboard()
func stubSyscall()
