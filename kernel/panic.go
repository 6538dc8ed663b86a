package kernel

import (
	"helios/kernel/cpu"
	"helios/kernel/kfmt"
)

var (
	// cpuHaltFn is swapped by tests which must not stop the host CPU.
	cpuHaltFn = cpu.Halt

	errRuntimePanic = &Error{Module: "rt0", Message: "runtime-raised panic"}
)

// Panic prints the supplied error to the diagnostic sink and permanently
// halts the CPU. It is reserved for the unrecoverable error class: a double
// fault or a failure while bringing up one of the boot-critical subsystems.
func Panic(e interface{}) {
	var err *Error

	switch t := e.(type) {
	case *Error:
		err = t
	case string:
		errRuntimePanic.Message = t
		err = errRuntimePanic
	default:
		errRuntimePanic.Message = "unknown cause"
		err = errRuntimePanic
	}

	kfmt.Printf("\n-----------------------------------\n")
	kfmt.Printf("[%s] unrecoverable error: %s\n", err.Module, err.Message)
	kfmt.Printf("*** kernel halted ***")

	cpuHaltFn()
}
