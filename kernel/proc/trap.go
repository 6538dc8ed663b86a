package proc

import (
	"helios/kernel"
	"helios/kernel/cpu"
	"helios/kernel/irq"
	"helios/kernel/kfmt"
)

var (
	errDoubleFault = &kernel.Error{Module: "proc", Message: "double fault"}

	readCR2Fn = cpu.ReadCR2
)

// Init registers the CPU exception handlers and hooks the scheduler into the
// timer interrupt. Faults terminate the process that raised them and hand the
// CPU to the next runnable process; only a double fault takes the machine
// down. It must run before irq.Seal.
func Init() *kernel.Error {
	faults := []irq.InterruptNumber{
		irq.DivideByZero,
		irq.Debug,
		irq.Breakpoint,
		irq.Overflow,
		irq.InvalidOpcode,
		irq.GPFException,
	}

	for _, num := range faults {
		if err := irq.HandleInterrupt(num, faultHandler); err != nil {
			return err
		}
	}

	if err := irq.HandleInterrupt(irq.PageFaultException, pageFaultHandler); err != nil {
		return err
	}

	if err := irq.HandleInterrupt(irq.DoubleFault, doubleFaultHandler); err != nil {
		return err
	}

	irq.SetTickConsumer(func(*irq.Registers) { Tick() })
	return nil
}

// faultHandler services recoverable CPU exceptions: the faulting process is
// terminated and scheduling resumes with the remaining processes.
func faultHandler(regs *irq.Registers) {
	kfmt.Printf("[proc] fault: vector %d, code %x\n", regs.Vector, regs.Code)
	regs.DumpTo(kfmt.OutputSink())

	terminateCurrent()
}

func pageFaultHandler(regs *irq.Registers) {
	kfmt.Printf("[proc] page fault: address %x, code %x, rip %x\n",
		readCR2Fn(), regs.Code, regs.RIP)
	regs.DumpTo(kfmt.OutputSink())

	terminateCurrent()
}

func doubleFaultHandler(regs *irq.Registers) {
	regs.DumpTo(kfmt.OutputSink())
	kernel.Panic(errDoubleFault)
}

// terminateCurrent kills the Running process (if any) and schedules the next
// one. When the fault interrupted the boot/idle thread there is nothing to
// terminate and the fault is only logged.
func terminateCurrent() {
	pid, ok := CurrentPid()
	if !ok {
		kfmt.Printf("[proc] fault outside any process; ignoring\n")
		return
	}

	kfmt.Printf("[proc] terminating pid %d\n", uint64(pid))
	Terminate(pid)
	Schedule()
}
