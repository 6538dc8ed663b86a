// Package syscall implements the int 0x80 entry from user code: a fixed-table
// dispatcher with user-pointer validation and per-kind call statistics.
package syscall

import (
	"io"
	"unsafe"

	"helios/kernel"
	"helios/kernel/ipc"
	"helios/kernel/irq"
	"helios/kernel/kfmt"
	"helios/kernel/proc"
	"helios/kernel/sync"
)

// Syscall numbers. This mapping is frozen; userland libraries depend on it.
// New calls may be appended but existing numbers must never change.
const (
	SysExit = iota
	SysWrite
	SysRead
	SysSend
	SysReceive
	SysYield
	SysGetPid

	numSyscalls
)

// Sentinel is the all-ones failure value returned to user code. No richer
// error channel exists on this ABI.
const Sentinel = ^uint64(0)

const (
	// userSpaceEnd is the first address past the canonical lower half.
	// User-supplied pointer ranges must end at or below it.
	userSpaceEnd = uint64(0x0000800000000000)

	// maxTransfer bounds the length argument of write/read.
	maxTransfer = uint64(1 << 20)
)

// Stats is a snapshot of the dispatcher counters.
type Stats struct {
	Exit    uint64
	Write   uint64
	Read    uint64
	Send    uint64
	Receive uint64
	Yield   uint64
	GetPid  uint64
	Unknown uint64
	Total   uint64
}

var (
	mu    sync.IrqLock
	stats Stats

	// consoleSink receives the bytes written to fds 1 and 2. When nil the
	// active kfmt sink is used.
	consoleSink io.Writer

	currentPidFn = proc.CurrentPid
	terminateFn  = proc.Terminate
	scheduleFn   = proc.Schedule
	yieldFn      = proc.Yield
	ipcSendFn    = ipc.Send
	ipcReceiveFn = ipc.ReceiveFor
)

// SetConsoleSink directs user write output to w instead of the kfmt sink.
func SetConsoleSink(w io.Writer) {
	consoleSink = w
}

// Init binds the dispatcher to the syscall gate. It must run before irq.Seal.
func Init() *kernel.Error {
	return irq.HandleInterrupt(irq.SyscallGate, Dispatch)
}

// Dispatch services one system call. The calling convention mirrors the
// hardware gate: number in RAX, arguments in RDI/RSI/RDX, result written back
// to RAX.
func Dispatch(regs *irq.Registers) {
	num := regs.RAX
	arg1, arg2, arg3 := regs.RDI, regs.RSI, regs.RDX

	mu.Acquire()
	stats.Total++
	mu.Release()

	var ret uint64
	switch num {
	case SysExit:
		ret = sysExit(arg1)
	case SysWrite:
		ret = sysWrite(arg1, arg2, arg3)
	case SysRead:
		ret = sysRead(arg1, arg2, arg3)
	case SysSend:
		ret = sysSend(arg1, arg2, arg3)
	case SysReceive:
		ret = sysReceive(arg1, arg2, arg3)
	case SysYield:
		ret = sysYield()
	case SysGetPid:
		ret = sysGetPid()
	default:
		count(&stats.Unknown)
		kfmt.Printf("[syscall] unknown syscall %d\n", num)
		ret = Sentinel
	}

	regs.RAX = ret
}

// DispatcherStats returns a snapshot of the call counters.
func DispatcherStats() Stats {
	mu.Acquire()
	s := stats
	mu.Release()

	return s
}

func count(c *uint64) {
	mu.Acquire()
	*c++
	mu.Release()
}

// validUserRange reports whether [ptr, ptr+size) is a plausible user-owned
// range: non-nil, no overflow, fully inside the canonical lower half. Raw
// user pointers are never dereferenced without passing this check.
func validUserRange(ptr, size uint64) bool {
	if ptr == 0 {
		return false
	}

	end := ptr + size
	if end < ptr {
		return false
	}

	return end <= userSpaceEnd
}

func userSlice(ptr, size uint64) []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(uintptr(ptr))), size)
}

func sysExit(code uint64) uint64 {
	count(&stats.Exit)

	pid, ok := currentPidFn()
	if !ok {
		return Sentinel
	}

	kfmt.Printf("[syscall] pid %d exiting with code %x\n", uint64(pid), code)
	terminateFn(pid)
	scheduleFn()
	return 0
}

func sysWrite(fd, bufPtr, length uint64) uint64 {
	count(&stats.Write)

	if fd > 2 {
		return Sentinel
	}

	if length == 0 || length > maxTransfer || !validUserRange(bufPtr, length) {
		return Sentinel
	}

	w := consoleSink
	if w == nil {
		w = kfmt.OutputSink()
	}

	// A nil writer targets the kfmt early buffer.
	kfmt.Fprintf(w, "%s", userSlice(bufPtr, length))

	return length
}

func sysRead(fd, bufPtr, length uint64) uint64 {
	count(&stats.Read)

	if fd > 2 {
		return Sentinel
	}

	if length == 0 || length > maxTransfer || !validUserRange(bufPtr, length) {
		return Sentinel
	}

	// No input path exists in this core; reads drain nothing.
	return 0
}

func sysSend(target, msgType, dataPtr uint64) uint64 {
	count(&stats.Send)

	pid, ok := currentPidFn()
	if !ok {
		return Sentinel
	}

	var payload []byte
	if dataPtr != 0 {
		if !validUserRange(dataPtr, ipc.MaxPayload) {
			return Sentinel
		}
		payload = userSlice(dataPtr, ipc.MaxPayload)
	}

	if !ipcSendFn(ipc.EndpointID(pid), ipc.EndpointID(target), ipc.MessageType(msgType), payload) {
		return Sentinel
	}

	return 0
}

func sysReceive(bufPtr, size, senderPtr uint64) uint64 {
	count(&stats.Receive)

	if size == 0 || !validUserRange(bufPtr, size) {
		return Sentinel
	}

	if senderPtr != 0 && !validUserRange(senderPtr, 8) {
		return Sentinel
	}

	pid, ok := currentPidFn()
	if !ok {
		return Sentinel
	}

	msg, ok := ipcReceiveFn(ipc.EndpointID(pid))
	if !ok {
		// Non-blocking poll: no message pending reads as zero bytes.
		return 0
	}

	n := uint64(msg.Len)
	if n > size {
		n = size
	}
	copy(userSlice(bufPtr, n), msg.Data()[:n])

	if senderPtr != 0 {
		*(*uint64)(unsafe.Pointer(uintptr(senderPtr))) = uint64(msg.From)
	}

	return n
}

func sysYield() uint64 {
	count(&stats.Yield)

	yieldFn()
	return 0
}

func sysGetPid() uint64 {
	count(&stats.GetPid)

	pid, ok := currentPidFn()
	if !ok {
		return 0
	}

	return uint64(pid)
}
