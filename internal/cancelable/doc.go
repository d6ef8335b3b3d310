// Package cancelable makes a blocking computation cancellable from another
// goroutine. New wraps a function and returns a Computation plus a Handle
// sharing one cancellation flag; Await races the function's result against
// the flag, preferring the result when both are available.
//
// Cancellation is cooperative: the wrapped function is not interrupted, the
// caller just stops waiting for it. Callers that need the function itself to
// stop should additionally pass it a context.
package cancelable
