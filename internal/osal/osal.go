// Package osal holds the timing primitives the frame core needs from the
// operating system: a monotonic deadline timer and a polling yield.
package osal

import (
	"runtime"
	"time"
)

// Timer is an absolute deadline captured from the monotonic clock.
type Timer struct {
	deadline time.Time
}

// StartTimer returns a timer expiring timeout from now.
func StartTimer(timeout time.Duration) Timer {
	return Timer{deadline: time.Now().Add(timeout)}
}

// Expired reports whether the deadline has passed.
func (t Timer) Expired() bool {
	return !time.Now().Before(t.deadline)
}

// Remaining returns the time left, never negative.
func (t Timer) Remaining() time.Duration {
	d := time.Until(t.deadline)
	if d < 0 {
		return 0
	}
	return d
}

// Yield gives up the processor between polls.
// A zero interval only reschedules; otherwise the caller sleeps.
func Yield(interval time.Duration) {
	if interval <= 0 {
		runtime.Gosched()
		return
	}
	time.Sleep(interval)
}
