package proc

import (
	"helios/kernel/mem"
	"helios/kernel/sync"
)

// maxProcesses is the fixed capacity of the process table.
const maxProcesses = 64

// Pid is the identity of a process, equal to its process table slot.
type Pid uint32

// InvalidPid is returned by lookups that match no process.
const InvalidPid = Pid(0xffffffff)

// State describes where a process is in its lifecycle.
type State uint8

const (
	StateReady State = iota
	StateRunning
	StateBlocked
	// StateTerminated is absorbing; a terminated process is never
	// scheduled again and its table slot is not reclaimed.
	StateTerminated
)

// String implements fmt.Stringer for State.
func (s State) String() string {
	switch s {
	case StateReady:
		return "ready"
	case StateRunning:
		return "running"
	case StateBlocked:
		return "blocked"
	case StateTerminated:
		return "terminated"
	}
	return "unknown"
}

// process is a process table entry.
type process struct {
	id        Pid
	state     State
	ctx       Context
	stackBase uintptr
	stackSize mem.Size

	// priority is carried for future schedulers; round-robin ignores it.
	priority uint8

	// timeSlice counts down the remaining ticks of the current quantum.
	timeSlice uint32
}

// Info is a diagnostic snapshot of one process table entry.
type Info struct {
	Pid      Pid
	State    State
	Priority uint8
}

var (
	// mu guards the process table, the ready queue and the scheduler
	// state. It is armed with real interrupt masking during boot; until
	// then it degrades to a plain spinlock so host tests can use it.
	mu sync.IrqLock

	procTable [maxProcesses]process
	procCount int

	// currentPid identifies the Running process, or InvalidPid when the
	// CPU is executing the boot/idle thread.
	currentPid = InvalidPid

	// idleCtx captures the boot thread's state when the scheduler first
	// switches away from it.
	idleCtx Context
)

// Create allocates a process table slot, builds the initial context for a
// process that will begin execution at entry on the given stack, and marks it
// Ready. The initial context has all general registers cleared, the stack
// pointer at the 16-byte aligned top of the stack region and interrupts
// enabled. It returns false when all 64 slots are occupied.
func Create(entry, stackBase uintptr, stackSize mem.Size) (Pid, bool) {
	mu.Acquire()

	if procCount == maxProcesses {
		mu.Release()
		return 0, false
	}

	pid := Pid(procCount)
	procCount++

	p := &procTable[pid]
	p.id = pid
	p.state = StateReady
	p.stackBase = stackBase
	p.stackSize = stackSize
	p.priority = 0
	p.ctx = Context{
		RIP:    uint64(entry),
		RSP:    uint64((stackBase + uintptr(stackSize)) &^ 0xf),
		RFlags: rflagsDefault,
	}

	mu.Release()
	return pid, true
}

// Terminate marks pid Terminated and removes it from the ready queue. The
// transition is absorbing. Terminating an unknown or already terminated pid
// is a no-op.
func Terminate(pid Pid) {
	mu.Acquire()

	if int(pid) < procCount {
		procTable[pid].state = StateTerminated
		dequeuePid(pid)

		if currentPid == pid {
			currentPid = InvalidPid
		}
	}

	mu.Release()
}

// Block transitions pid out of the runnable set until Unblock is called.
func Block(pid Pid) {
	mu.Acquire()

	if int(pid) < procCount && procTable[pid].state != StateTerminated {
		procTable[pid].state = StateBlocked
		dequeuePid(pid)

		if currentPid == pid {
			currentPid = InvalidPid
		}
	}

	mu.Release()
}

// Unblock makes a Blocked process schedulable again.
func Unblock(pid Pid) {
	mu.Acquire()

	if int(pid) < procCount && procTable[pid].state == StateBlocked {
		procTable[pid].state = StateReady
		enqueuePid(pid)
	}

	mu.Release()
}

// CurrentPid returns the identity of the Running process. The boolean is
// false while the boot/idle thread is executing.
func CurrentPid() (Pid, bool) {
	mu.Acquire()
	pid := currentPid
	mu.Release()

	return pid, pid != InvalidPid
}

// Processes copies a diagnostic snapshot of the occupied process table slots
// into dst and returns the number of entries written.
func Processes(dst []Info) int {
	mu.Acquire()

	n := procCount
	if n > len(dst) {
		n = len(dst)
	}

	for i := 0; i < n; i++ {
		dst[i] = Info{
			Pid:      procTable[i].id,
			State:    procTable[i].state,
			Priority: procTable[i].priority,
		}
	}

	mu.Release()
	return n
}
