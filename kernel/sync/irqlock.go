package sync

// rflagsIF is the interrupt-enable bit inside RFLAGS. The constant is
// duplicated here instead of importing the cpu package so that this package
// stays free of hardware dependencies.
const rflagsIF = uint64(1) << 9

// interrupt-control hooks shared by every IrqLock. They stay nil until the
// boot code arms them via SetInterruptControl; while nil, an IrqLock degrades
// to a plain spinlock, which is what tests running in user mode rely on.
var (
	disableInterruptsFn func()
	enableInterruptsFn  func()
	flagsRegisterFn     func() uint64
)

// SetInterruptControl wires the CPU interrupt-flag primitives into every
// IrqLock. The boot code calls it once before interrupts are first enabled;
// a future multi-core port replaces these three hooks with real inter-CPU
// locking in this one place.
func SetInterruptControl(disable, enable func(), flags func() uint64) {
	disableInterruptsFn = disable
	enableInterruptsFn = enable
	flagsRegisterFn = flags
}

// IrqLock is the scoped guard protecting the kernel's shared tables. Acquire
// masks maskable interrupts before taking the lock so the critical section
// cannot be interleaved with an interrupt handler touching the same state;
// Release restores the interrupt flag to whatever it was before Acquire.
//
// Acquire/Release pairs must not nest on the same lock and critical sections
// are expected to be short: with interrupts masked, every cycle spent inside
// one delays the timer tick.
type IrqLock struct {
	lock       Spinlock
	savedFlags uint64
}

// Acquire masks interrupts, records their previous state and takes the lock.
func (l *IrqLock) Acquire() {
	var flags uint64
	if flagsRegisterFn != nil {
		flags = flagsRegisterFn()
		disableInterruptsFn()
	}

	l.lock.Acquire()
	l.savedFlags = flags
}

// Release drops the lock and re-enables interrupts if they were enabled when
// Acquire was called.
func (l *IrqLock) Release() {
	flags := l.savedFlags
	l.lock.Release()

	if enableInterruptsFn != nil && flags&rflagsIF != 0 {
		enableInterruptsFn()
	}
}
