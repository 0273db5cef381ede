package parallel

import (
	"runtime"

	"go.uber.org/atomic"
)

// SpinLock is a busy-waiting mutual exclusion lock for very short critical
// sections such as appending one contact. The zero value is unlocked.
type SpinLock struct {
	locked atomic.Bool
}

// Lock spins until the lock is acquired, yielding the processor between attempts.
func (l *SpinLock) Lock() {
	for !l.locked.CompareAndSwap(false, true) {
		runtime.Gosched()
	}
}

// TryLock acquires the lock if it is free.
func (l *SpinLock) TryLock() bool {
	return l.locked.CompareAndSwap(false, true)
}

// Unlock releases the lock.
func (l *SpinLock) Unlock() {
	l.locked.Store(false)
}
