package proc

// quantum is the number of timer ticks a process runs before it is
// preempted.
const quantum = 10

// Stats is a snapshot of the scheduler counters.
type Stats struct {
	// ContextSwitches counts invocations of the switch primitive.
	ContextSwitches uint64

	// Ticks counts timer ticks processed by the scheduler.
	Ticks uint64
}

var (
	// readyQueue is a fixed-capacity FIFO ring of schedulable pids.
	readyQueue [maxProcesses]Pid
	queueHead  int
	queueLen   int

	stats Stats

	// switchContextFn aliases the assembly switch primitive so tests can
	// intercept it.
	switchContextFn = SwitchContext

	// onIdleThread tracks whether the CPU is executing the boot/idle
	// thread, whose context lives in idleCtx.
	onIdleThread = true

	// deadCtx receives the register state of outgoing contexts that will
	// never be resumed (terminated or blocked callers of Schedule).
	deadCtx Context
)

// Enqueue appends pid to the tail of the ready queue and marks it Ready. It
// returns false if the pid is unknown, Terminated, already queued, or the
// queue is full.
func Enqueue(pid Pid) bool {
	mu.Acquire()
	ok := enqueuePid(pid)
	mu.Release()

	return ok
}

func enqueuePid(pid Pid) bool {
	if int(pid) >= procCount || procTable[pid].state == StateTerminated {
		return false
	}

	if queueLen == maxProcesses {
		return false
	}

	for i := 0; i < queueLen; i++ {
		if readyQueue[(queueHead+i)%maxProcesses] == pid {
			return false
		}
	}

	readyQueue[(queueHead+queueLen)%maxProcesses] = pid
	queueLen++
	procTable[pid].state = StateReady
	return true
}

func dequeueHead() Pid {
	pid := readyQueue[queueHead]
	queueHead = (queueHead + 1) % maxProcesses
	queueLen--
	return pid
}

// dequeuePid removes pid from the queue if present, compacting the ring.
func dequeuePid(pid Pid) {
	for i := 0; i < queueLen; i++ {
		if readyQueue[(queueHead+i)%maxProcesses] != pid {
			continue
		}

		for j := i; j < queueLen-1; j++ {
			readyQueue[(queueHead+j)%maxProcesses] = readyQueue[(queueHead+j+1)%maxProcesses]
		}
		queueLen--
		return
	}
}

// Tick advances the scheduler clock. When the Running process exhausts its
// quantum, or the CPU is idle with work queued, it triggers Schedule.
func Tick() {
	mu.Acquire()

	stats.Ticks++

	resched := false
	if currentPid != InvalidPid {
		p := &procTable[currentPid]
		if p.state == StateRunning {
			// The slice clamps at zero: when a quantum expires with
			// nothing else runnable, Schedule takes no action and a
			// later tick must retry instead of letting the counter
			// wrap around.
			if p.timeSlice > 0 {
				p.timeSlice--
			}
			resched = p.timeSlice == 0
		}
	} else {
		resched = queueLen > 0
	}

	mu.Release()

	if resched {
		Schedule()
	}
}

// Schedule performs one round-robin scheduling decision. With an empty ready
// queue it does nothing when a process is still Running (or the boot thread
// is already idling); if the caller's process is gone, control switches back
// into the boot idle loop so the CPU never resumes a dead context. Otherwise
// the Running process (if still Running) is re-enqueued at the tail, the head
// of the queue becomes Running with a fresh quantum, and the context-switch
// primitive transfers control to it.
func Schedule() {
	mu.Acquire()

	if queueLen == 0 {
		if currentPid != InvalidPid || onIdleThread {
			mu.Release()
			return
		}

		// The caller's process was terminated or blocked and nothing
		// else is runnable. Returning would let the interrupt epilogue
		// resume the dead context, so park in the boot idle loop.
		onIdleThread = true
		stats.ContextSwitches++
		mu.Release()
		switchContextFn(&deadCtx, &idleCtx)
		return
	}

	var outgoing *Context
	if prev := currentPid; prev != InvalidPid {
		p := &procTable[prev]
		if p.state == StateRunning {
			p.state = StateReady
			enqueuePid(prev)
		}
		outgoing = &p.ctx
	} else if onIdleThread {
		outgoing = &idleCtx
		onIdleThread = false
	} else {
		// Departing from a context that was terminated or blocked
		// moments ago; its save area is never resumed.
		outgoing = &deadCtx
	}

	next := dequeueHead()
	p := &procTable[next]
	p.state = StateRunning
	p.timeSlice = quantum
	currentPid = next
	stats.ContextSwitches++

	// The guard must be released before the switch; the incoming process
	// resumes in the middle of its own past SwitchContext call and would
	// otherwise never unlock it.
	mu.Release()
	switchContextFn(outgoing, &p.ctx)
}

// Yield lets the Running process give up the remainder of its quantum.
func Yield() {
	Schedule()
}

// SchedulerStats returns a snapshot of the scheduler counters.
func SchedulerStats() Stats {
	mu.Acquire()
	s := stats
	mu.Release()

	return s
}
