// Package supervisor launches action processes in response to filtered
// events and tracks them until exit. The busy policy decides whether a new
// event may start an action while earlier ones are still running: allow it,
// skip the event, or kill the running actions first.
//
// Actions are tracked by pid. Reuse of a pid between a process's exit and
// its watcher releasing the entry would confuse the tracking; the window is
// tiny and the race is a documented limitation, not handled.
package supervisor
