package sync

import "testing"

func TestSpinlock(t *testing.T) {
	var l Spinlock

	if !l.TryToAcquire() {
		t.Fatal("expected TryToAcquire to succeed on a free lock")
	}

	if l.TryToAcquire() {
		t.Fatal("expected TryToAcquire to fail on a held lock")
	}

	l.Release()

	// Acquire must succeed without spinning once the lock is free again.
	l.Acquire()
	l.Release()
}

func TestIrqLockRestoresInterruptState(t *testing.T) {
	defer SetInterruptControl(nil, nil, nil)

	var (
		l        IrqLock
		flags    = rflagsIF
		disables int
		enables  int
	)

	SetInterruptControl(
		func() { disables++ },
		func() { enables++ },
		func() uint64 { return flags },
	)

	// Interrupts enabled on entry: Release must re-enable them.
	l.Acquire()
	if disables != 1 {
		t.Fatalf("expected 1 disable call; got %d", disables)
	}
	l.Release()
	if enables != 1 {
		t.Fatalf("expected 1 enable call; got %d", enables)
	}

	// Interrupts already masked on entry: Release must leave them masked.
	flags = 0
	l.Acquire()
	l.Release()
	if enables != 1 {
		t.Fatalf("expected no extra enable call; got %d", enables)
	}
}

func TestIrqLockUnarmed(t *testing.T) {
	// Before SetInterruptControl runs, the guard degrades to a plain
	// spinlock.
	var l IrqLock
	l.Acquire()
	if l.lock.state != 1 {
		t.Fatal("expected the inner spinlock to be held")
	}
	l.Release()
	if l.lock.state != 0 {
		t.Fatal("expected the inner spinlock to be free")
	}
}
