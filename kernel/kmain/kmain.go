package kmain

import (
	"io"

	"helios/device"
	"helios/device/serial"
	"helios/kernel"
	"helios/kernel/cpu"
	"helios/kernel/hal/bootinfo"
	"helios/kernel/irq"
	"helios/kernel/kfmt"
	"helios/kernel/mem"
	"helios/kernel/mm"
	"helios/kernel/proc"
	"helios/kernel/sync"
	"helios/kernel/syscall"
)

// initStackSize is the stack carved out of the kernel heap for the first
// process.
const initStackSize = 16 * mem.Kb

var (
	errInitProcess = &kernel.Error{Module: "kmain", Message: "could not create the init process"}
)

// Kmain is the only Go symbol visible to the rt0 initialization code. The
// loader hands over the address of its boot information block, the base of
// the region reserved for the kernel heap, and the entry point of the first
// process image it placed in memory (zero when it loaded none).
//
// Kmain does not return; once the kernel is initialized it parks the boot
// thread in the idle loop and all further work happens in interrupt handlers
// and scheduled processes.
//
//go:noinline
func Kmain(bootInfoPtr, heapBase, initEntry uintptr) {
	bootinfo.SetInfoPtr(bootInfoPtr)

	// Bring up the serial console first so boot output (including the
	// kfmt early buffer contents) streams out as it happens.
	console := serial.Probe()

	var err *kernel.Error
	if err = initDriver(console, console); err != nil {
		kernel.Panic(err)
	}
	kfmt.SetOutputSink(console)

	if err = mm.Init(heapBase); err != nil {
		kernel.Panic(err)
	}

	irq.Init()

	// Arm the kernel locks with real interrupt masking now that the
	// vector table is in place.
	sync.SetInterruptControl(cpu.DisableInterrupts, cpu.EnableInterrupts, cpu.FlagsRegister)

	if err = proc.Init(); err != nil {
		kernel.Panic(err)
	} else if err = syscall.Init(); err != nil {
		kernel.Panic(err)
	}

	irq.Seal()

	if initEntry != 0 {
		if err = startInitProcess(initEntry); err != nil {
			kernel.Panic(err)
		}
	} else {
		kfmt.Printf("[kmain] no init process supplied; idling\n")
	}

	cpu.EnableInterrupts()
	for {
		cpu.Idle()
	}
}

// initDriver initializes a device driver, tagging any output it produces
// with the driver name.
func initDriver(drv device.Driver, sink io.Writer) *kernel.Error {
	w := &kfmt.PrefixWriter{
		Sink:   sink,
		Prefix: []byte("[" + drv.DriverName() + "] "),
	}

	return drv.DriverInit(w)
}

// startInitProcess carves a stack out of the kernel heap and enqueues the
// first process. The scheduler picks it up on the next timer tick.
func startInitProcess(entry uintptr) *kernel.Error {
	stackBase, err := mm.HeapAlloc(uintptr(initStackSize), 16)
	if err != nil {
		return err
	}

	pid, ok := proc.Create(entry, stackBase, initStackSize)
	if !ok {
		return errInitProcess
	}

	if !proc.Enqueue(pid) {
		return errInitProcess
	}

	kfmt.Printf("[kmain] init process created with pid %d\n", uint64(pid))
	return nil
}
