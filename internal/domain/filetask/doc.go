// Package filetask bounds concurrent archive work per instance.
//
// The Controller owns two counters: in-flight archive tasks per instance and
// in-flight archive tasks across the whole process. TryAcquire admits a task
// when the instance is below the configured ceiling and returns a Token;
// Token.Release gives the slot back and is safe to call more than once.
// Rejection is immediate: there is no queue.
//
// Run starts admitted work in the background and guarantees the token is
// released on every exit path, including panics. The returned Task is the
// only place a background failure is recorded besides the log and metrics.
// Admitted tasks cannot be cancelled.
package filetask
