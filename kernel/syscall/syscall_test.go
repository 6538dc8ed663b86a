package syscall

import (
	"bytes"
	"runtime"
	"testing"
	"unsafe"

	"helios/kernel/ipc"
	"helios/kernel/irq"
	"helios/kernel/proc"
)

// heapPin holds test buffers whose raw addresses round-trip through uint64
// syscall arguments; storing them here keeps them heap-allocated.
var heapPin interface{}

func restoreHooks() {
	stats = Stats{}
	consoleSink = nil
	currentPidFn = proc.CurrentPid
	terminateFn = proc.Terminate
	scheduleFn = proc.Schedule
	yieldFn = proc.Yield
	ipcSendFn = ipc.Send
	ipcReceiveFn = ipc.ReceiveFor
}

func doSyscall(num, arg1, arg2, arg3 uint64) uint64 {
	regs := &irq.Registers{
		Vector: uint64(irq.SyscallGate),
		RAX:    num,
		RDI:    arg1,
		RSI:    arg2,
		RDX:    arg3,
	}
	Dispatch(regs)
	return regs.RAX
}

func TestSyscallNumbering(t *testing.T) {
	specs := []struct {
		num int
		exp int
	}{
		{SysExit, 0},
		{SysWrite, 1},
		{SysRead, 2},
		{SysSend, 3},
		{SysReceive, 4},
		{SysYield, 5},
		{SysGetPid, 6},
	}

	for _, spec := range specs {
		if spec.num != spec.exp {
			t.Errorf("expected syscall number %d; got %d", spec.exp, spec.num)
		}
	}
}

func TestUnknownSyscall(t *testing.T) {
	defer restoreHooks()
	restoreHooks()

	if ret := doSyscall(99, 0, 0, 0); ret != Sentinel {
		t.Errorf("expected sentinel; got %x", ret)
	}

	s := DispatcherStats()
	if s.Unknown != 1 || s.Total != 1 {
		t.Errorf("expected unknown=1 total=1; got %+v", s)
	}
}

func TestValidUserRange(t *testing.T) {
	specs := []struct {
		ptr  uint64
		size uint64
		exp  bool
	}{
		{0, 16, false},
		{0x1000, 16, true},
		{^uint64(0), 16, false},
		{userSpaceEnd - 16, 16, true},
		{userSpaceEnd - 15, 16, false},
		{0xffff800000000000, 16, false},
	}

	for specIndex, spec := range specs {
		if got := validUserRange(spec.ptr, spec.size); got != spec.exp {
			t.Errorf("[spec %d] expected validUserRange(%x, %d) to return %t; got %t",
				specIndex, spec.ptr, spec.size, spec.exp, got)
		}
	}
}

func TestWriteRoundTrip(t *testing.T) {
	defer restoreHooks()
	restoreHooks()

	var out bytes.Buffer
	SetConsoleSink(&out)

	payload := []byte("hello from ring 3")
	ptr := uint64(uintptr(unsafe.Pointer(&payload[0])))

	ret := doSyscall(SysWrite, 1, ptr, uint64(len(payload)))
	if ret != uint64(len(payload)) {
		t.Fatalf("expected write to return %d; got %x", len(payload), ret)
	}

	if out.String() != string(payload) {
		t.Errorf("expected sink to capture %q; got %q", payload, out.String())
	}

	if s := DispatcherStats(); s.Write != 1 {
		t.Errorf("expected write counter 1; got %+v", s)
	}

	runtime.KeepAlive(payload)
}

func TestWriteValidation(t *testing.T) {
	defer restoreHooks()
	restoreHooks()

	var out bytes.Buffer
	SetConsoleSink(&out)

	specs := []struct {
		fd     uint64
		ptr    uint64
		length uint64
	}{
		{3, 0x1000, 16},               // bad fd
		{1, 0, 16},                    // nil pointer
		{1, 0x1000, 0},                // zero length
		{1, 0x1000, maxTransfer + 1},  // oversized transfer
		{1, ^uint64(0), 16},           // overflowing range
		{1, userSpaceEnd - 8, 16},     // crosses into kernel space
		{1, 0xffff800000000000, 16},   // upper-half pointer
	}

	for specIndex, spec := range specs {
		if ret := doSyscall(SysWrite, spec.fd, spec.ptr, spec.length); ret != Sentinel {
			t.Errorf("[spec %d] expected sentinel; got %x", specIndex, ret)
		}
	}

	if out.Len() != 0 {
		t.Errorf("expected no bytes written; got %q", out.String())
	}
}

func TestReadReturnsZero(t *testing.T) {
	defer restoreHooks()
	restoreHooks()

	buf := make([]byte, 16)
	ptr := uint64(uintptr(unsafe.Pointer(&buf[0])))

	if ret := doSyscall(SysRead, 0, ptr, uint64(len(buf))); ret != 0 {
		t.Errorf("expected read to return 0; got %x", ret)
	}

	if ret := doSyscall(SysRead, 5, ptr, uint64(len(buf))); ret != Sentinel {
		t.Errorf("expected read on a bad fd to fail; got %x", ret)
	}

	runtime.KeepAlive(buf)
}

func TestExit(t *testing.T) {
	defer restoreHooks()
	restoreHooks()

	var terminated proc.Pid
	scheduled := false

	currentPidFn = func() (proc.Pid, bool) { return 7, true }
	terminateFn = func(pid proc.Pid) { terminated = pid }
	scheduleFn = func() { scheduled = true }

	if ret := doSyscall(SysExit, 0, 0, 0); ret != 0 {
		t.Errorf("expected exit to return 0; got %x", ret)
	}

	if terminated != 7 || !scheduled {
		t.Errorf("expected pid 7 terminated and rescheduled; got %d, %t", terminated, scheduled)
	}
}

func TestExitOutsideProcess(t *testing.T) {
	defer restoreHooks()
	restoreHooks()

	currentPidFn = func() (proc.Pid, bool) { return proc.InvalidPid, false }
	terminateFn = func(proc.Pid) { t.Error("unexpected terminate") }

	if ret := doSyscall(SysExit, 0, 0, 0); ret != Sentinel {
		t.Errorf("expected sentinel; got %x", ret)
	}
}

func TestYield(t *testing.T) {
	defer restoreHooks()
	restoreHooks()

	yielded := false
	yieldFn = func() { yielded = true }

	if ret := doSyscall(SysYield, 0, 0, 0); ret != 0 {
		t.Errorf("expected yield to return 0; got %x", ret)
	}

	if !yielded {
		t.Error("expected the scheduler to be invoked")
	}
}

func TestGetPid(t *testing.T) {
	defer restoreHooks()
	restoreHooks()

	currentPidFn = func() (proc.Pid, bool) { return 12, true }
	if ret := doSyscall(SysGetPid, 0, 0, 0); ret != 12 {
		t.Errorf("expected pid 12; got %x", ret)
	}

	currentPidFn = func() (proc.Pid, bool) { return proc.InvalidPid, false }
	if ret := doSyscall(SysGetPid, 0, 0, 0); ret != 0 {
		t.Errorf("expected 0 outside a process; got %x", ret)
	}
}

func TestSend(t *testing.T) {
	defer restoreHooks()
	restoreHooks()

	currentPidFn = func() (proc.Pid, bool) { return 3, true }

	var gotFrom, gotTo ipc.EndpointID
	var gotType ipc.MessageType
	var gotPayload []byte
	ipcSendFn = func(from, to ipc.EndpointID, msgType ipc.MessageType, payload []byte) bool {
		gotFrom, gotTo, gotType = from, to, msgType
		gotPayload = payload
		return true
	}

	data := make([]byte, ipc.MaxPayload)
	data[0] = 0xaa
	ptr := uint64(uintptr(unsafe.Pointer(&data[0])))

	if ret := doSyscall(SysSend, 0x105, uint64(ipc.MsgFileSystem), ptr); ret != 0 {
		t.Fatalf("expected send to return 0; got %x", ret)
	}

	if gotFrom != 3 || gotTo != 0x105 || gotType != ipc.MsgFileSystem {
		t.Errorf("unexpected send header: from=%d to=%d type=%x", gotFrom, gotTo, gotType)
	}

	if len(gotPayload) != ipc.MaxPayload || gotPayload[0] != 0xaa {
		t.Errorf("unexpected payload: len=%d", len(gotPayload))
	}

	// A full bus queue surfaces as the sentinel.
	ipcSendFn = func(ipc.EndpointID, ipc.EndpointID, ipc.MessageType, []byte) bool { return false }
	if ret := doSyscall(SysSend, 0x105, uint64(ipc.MsgFileSystem), 0); ret != Sentinel {
		t.Errorf("expected sentinel on a full queue; got %x", ret)
	}

	runtime.KeepAlive(data)
}

func TestReceive(t *testing.T) {
	defer restoreHooks()
	restoreHooks()

	currentPidFn = func() (proc.Pid, bool) { return 3, true }

	msg := ipc.Message{From: 0x105, To: 3, Type: ipc.MsgFileSystem, Len: 4}
	copy(msg.Payload[:], "pong")
	ipcReceiveFn = func(id ipc.EndpointID) (ipc.Message, bool) {
		if id != 3 {
			t.Errorf("expected receive for endpoint 3; got %d", id)
		}
		return msg, true
	}

	// Heap allocations keep the addresses stable across the uint64
	// round-trip; the garbage collector cannot see through the raw
	// argument values.
	buf := make([]byte, 16)
	sender := new(uint64)
	bufPtr := uint64(uintptr(unsafe.Pointer(&buf[0])))
	senderPtr := uint64(uintptr(unsafe.Pointer(sender)))

	ret := doSyscall(SysReceive, bufPtr, uint64(len(buf)), senderPtr)
	if ret != 4 {
		t.Fatalf("expected 4 bytes; got %x", ret)
	}

	if string(buf[:4]) != "pong" {
		t.Errorf("expected payload %q; got %q", "pong", buf[:4])
	}

	if *sender != 0x105 {
		t.Errorf("expected sender 105; got %x", *sender)
	}

	// Nothing pending reads as zero bytes, not failure.
	ipcReceiveFn = func(ipc.EndpointID) (ipc.Message, bool) { return ipc.Message{}, false }
	if ret := doSyscall(SysReceive, bufPtr, uint64(len(buf)), 0); ret != 0 {
		t.Errorf("expected 0 with no message pending; got %x", ret)
	}

	runtime.KeepAlive(buf)
	runtime.KeepAlive(sender)
}

func TestReceiveTruncatesToBuffer(t *testing.T) {
	defer restoreHooks()
	restoreHooks()

	currentPidFn = func() (proc.Pid, bool) { return 3, true }

	msg := ipc.Message{From: 0x105, To: 3, Len: 32}
	for i := 0; i < 32; i++ {
		msg.Payload[i] = byte(i)
	}
	ipcReceiveFn = func(ipc.EndpointID) (ipc.Message, bool) { return msg, true }

	// Parking the slice in a package-level variable forces it onto the
	// heap so its address stays stable across the uint64 round-trip; a
	// stack-allocated buffer can move when the stack grows mid-dispatch.
	buf := make([]byte, 8)
	heapPin = buf
	bufPtr := uint64(uintptr(unsafe.Pointer(&buf[0])))

	if ret := doSyscall(SysReceive, bufPtr, uint64(len(buf)), 0); ret != 8 {
		t.Fatalf("expected 8 bytes copied; got %x", ret)
	}

	for i := 0; i < 8; i++ {
		if buf[i] != byte(i) {
			t.Fatalf("byte %d: expected %d; got %d", i, i, buf[i])
		}
	}

	runtime.KeepAlive(buf)
}

func TestStatsAccumulate(t *testing.T) {
	defer restoreHooks()
	restoreHooks()

	currentPidFn = func() (proc.Pid, bool) { return 1, true }
	yieldFn = func() {}

	doSyscall(SysYield, 0, 0, 0)
	doSyscall(SysYield, 0, 0, 0)
	doSyscall(SysGetPid, 0, 0, 0)
	doSyscall(99, 0, 0, 0)

	s := DispatcherStats()
	if s.Yield != 2 || s.GetPid != 1 || s.Unknown != 1 || s.Total != 4 {
		t.Errorf("unexpected stats: %+v", s)
	}
}
