// Package debounce delays a call until input has been quiet for a fixed wait.
package debounce

import (
	"sync"
	"time"
)

// Debouncer runs fn once, wait after the most recent Call, with that call's
// argument. Calls that arrive while one is pending replace it. There is no
// leading-edge invocation and at most one call is ever pending.
type Debouncer[T any] struct {
	wait time.Duration
	fn   func(T)

	mu      sync.Mutex
	timer   *time.Timer
	gen     uint64 // bumped on every Call/Cancel/Flush; a timer only fires for its own gen
	pending bool
	arg     T

	running int // invocations of fn in progress
	idle    *sync.Cond
}

// New returns a Debouncer for fn.
func New[T any](wait time.Duration, fn func(T)) *Debouncer[T] {
	d := &Debouncer[T]{wait: wait, fn: fn}
	d.idle = sync.NewCond(&d.mu)
	return d
}

// Func wraps fn in a Debouncer and returns its Call method.
func Func[T any](fn func(T), wait time.Duration) func(T) {
	return New(wait, fn).Call
}

// Call schedules fn(arg), canceling any pending invocation.
func (d *Debouncer[T]) Call(arg T) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	gen := d.gen
	d.arg = arg
	d.pending = true
	d.timer = time.AfterFunc(d.wait, func() { d.fire(gen) })
}

func (d *Debouncer[T]) fire(gen uint64) {
	d.mu.Lock()
	if gen != d.gen || !d.pending {
		d.mu.Unlock()
		return
	}
	arg := d.take()
	d.running++
	d.mu.Unlock()
	d.invoke(arg)
}

// invoke runs fn and signals waiters once it returns. Caller has counted it in running.
func (d *Debouncer[T]) invoke(arg T) {
	defer func() {
		d.mu.Lock()
		d.running--
		if d.running == 0 {
			d.idle.Broadcast()
		}
		d.mu.Unlock()
	}()
	d.fn(arg)
}

// take clears the pending state and returns its argument. Caller holds mu.
func (d *Debouncer[T]) take() T {
	arg := d.arg
	var zero T
	d.arg = zero
	d.pending = false
	d.timer = nil
	return arg
}

// Cancel drops the pending invocation. It reports whether one was pending.
func (d *Debouncer[T]) Cancel() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.pending {
		return false
	}
	d.timer.Stop()
	d.gen++
	d.take()
	return true
}

// Flush runs the pending invocation now, on the calling goroutine, then waits
// for any invocation already started by the timer. It reports whether fn ran
// or was waited on.
func (d *Debouncer[T]) Flush() bool {
	d.mu.Lock()
	if !d.pending {
		d.mu.Unlock()
		return d.Wait()
	}
	d.timer.Stop()
	d.gen++
	arg := d.take()
	d.running++
	d.mu.Unlock()
	d.invoke(arg)
	d.Wait()
	return true
}

// Wait blocks until no invocation of fn is running. It reports whether it had
// to wait. A pending invocation is not run; use Flush for that.
func (d *Debouncer[T]) Wait() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	waited := false
	for d.running > 0 {
		waited = true
		d.idle.Wait()
	}
	return waited
}

// Pending reports whether an invocation is scheduled.
func (d *Debouncer[T]) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending
}
