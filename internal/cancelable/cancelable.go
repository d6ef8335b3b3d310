package cancelable

import (
	"errors"
	"sync"
	"sync/atomic"
)

// ErrCancelled is returned by Await when the computation was cancelled
// before producing a result.
var ErrCancelled = errors.New("computation cancelled")

// Handle signals cancellation of a wrapped computation. It is safe to use
// from any goroutine and Cancel is idempotent.
type Handle struct {
	// cancelled is the cancellation flag; it transitions at most once
	// from unset to set.
	cancelled atomic.Bool
	// once guards closing the waker channel.
	once sync.Once
	// waker is closed on cancellation to wake a blocked Await.
	waker chan struct{}
}

// Cancel sets the cancellation flag and wakes any blocked Await.
// A second call is a no-op.
func (h *Handle) Cancel() {
	h.cancelled.Store(true)
	h.once.Do(func() {
		close(h.waker)
	})
}

// Cancelled reports whether Cancel has been called.
func (h *Handle) Cancelled() bool {
	return h.cancelled.Load()
}

// result carries the value produced by the wrapped function.
type result[T any] struct {
	value T
	err   error
}

// Computation wraps a blocking function so it can be cancelled from another
// goroutine. The wrapped function keeps running after cancellation; Await
// merely stops waiting for it.
type Computation[T any] struct {
	// done receives the single result of the wrapped function.
	done chan result[T]
	// handle is the cancellation side shared with the caller.
	handle *Handle
}

// New starts fn in its own goroutine and returns the wrapped computation
// together with its cancel handle.
func New[T any](fn func() (T, error)) (*Computation[T], *Handle) {
	h := &Handle{
		waker: make(chan struct{}),
	}
	c := &Computation[T]{
		done:   make(chan result[T], 1),
		handle: h,
	}

	go func() {
		value, err := fn()
		c.done <- result[T]{value: value, err: err}
	}()

	return c, h
}

// Await blocks until the computation produces a result or is cancelled,
// whichever comes first, and must be called at most once. A result that is
// already available wins over a cancellation signal, so cancelling after
// completion has no effect on the outcome.
func (c *Computation[T]) Await() (T, error) {
	// Completed computations are reported as such even if the handle was
	// cancelled in the meantime.
	select {
	case r := <-c.done:
		return r.value, r.err
	default:
	}

	select {
	case r := <-c.done:
		return r.value, r.err
	case <-c.handle.waker:
		// Re-check for a result that raced with the cancellation.
		select {
		case r := <-c.done:
			return r.value, r.err
		default:
		}

		var zero T

		return zero, ErrCancelled
	}
}
