package reactive

import (
	"errors"
	"fmt"
)

// ErrNoActiveRuntime is reported when a reactive operation runs on a
// goroutine that has no Runtime installed. Install one with Runtime.Run
// (or the scope middleware on servers) before creating or reading nodes.
var ErrNoActiveRuntime = errors.New("reactive: no active runtime")

// ErrUseAfterDispose is reported when a signal, memo, effect, or scope is
// used after it (or an owning scope) was disposed. A write that silently
// vanished would be a far worse surprise, so this is never a no-op.
var ErrUseAfterDispose = errors.New("reactive: use after dispose")

// ErrCyclicDependency is reported when a computation re-enters itself:
// a memo or effect that is already evaluating is read (or scheduled)
// through one of its own transitive dependencies.
var ErrCyclicDependency = errors.New("reactive: cyclic dependency")

// ErrBudgetExceeded is reported when a single flush runs more effects than
// the runtime's effect budget allows. This catches effect→write→effect
// storms, which are cycles through time that the graph-level cycle check
// cannot see. Raise the limit with WithEffectBudget if the workload is
// legitimately that large.
var ErrBudgetExceeded = errors.New("reactive: effect budget exceeded")

// Error is the panic payload for runtime misuse. It wraps one of the
// package sentinels so recovered callers can dispatch with errors.Is.
type Error struct {
	Op   string // operation that failed, e.g. "signal.set"
	Node NodeID // node involved, zero if none
	Err  error  // sentinel cause
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Node == (NodeID{}) {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s: %v (node %v)", e.Op, e.Err, e.Node)
}

// Unwrap returns the sentinel cause for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Err
}

// fail panics with a misuse Error. Every sentinel here marks a programming
// error in calling code, not a transient condition, so it surfaces at the
// call site rather than being returned for retry.
func fail(op string, id NodeID, sentinel error) {
	panic(&Error{Op: op, Node: id, Err: sentinel})
}
