package session

import "sync/atomic"

// latch lets exactly one of several racing parties act. The zero value is
// ready to use.
type latch struct {
	fired atomic.Bool
}

// Fire reports whether the caller is the first to fire the latch.
func (l *latch) Fire() bool {
	return l.fired.CompareAndSwap(false, true)
}

func (l *latch) Fired() bool {
	return l.fired.Load()
}
