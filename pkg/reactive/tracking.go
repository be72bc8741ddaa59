package reactive

import (
	"sync"

	"github.com/petermattis/goid"
)

// activeRuntimes maps goroutine IDs to their installed Runtime. It is the
// concrete backing of the WithRuntime accessor; callers never touch it
// directly. sync.Map because distinct goroutines (one per server request)
// install and remove entries concurrently; within one goroutine access is
// still strictly sequential.
var activeRuntimes sync.Map

// WithRuntime calls fn with the Runtime installed for the calling
// goroutine. It returns ErrNoActiveRuntime if none is installed, which is
// the documented way to probe for one without panicking.
func WithRuntime(fn func(*Runtime)) error {
	rt, ok := activeRuntimes.Load(goid.Get())
	if !ok {
		return ErrNoActiveRuntime
	}
	fn(rt.(*Runtime))
	return nil
}

// activeRuntime returns the goroutine's installed Runtime or fails.
// Every primitive constructor and package-level helper goes through here.
func activeRuntime(op string) *Runtime {
	rt, ok := activeRuntimes.Load(goid.Get())
	if !ok {
		fail(op, NodeID{}, ErrNoActiveRuntime)
	}
	return rt.(*Runtime)
}

// install makes rt the calling goroutine's runtime and returns a restore
// function. Used by Run, and internally around effect reruns and memo
// recomputation so code re-entering from foreign goroutines (resumed
// futures, event callbacks) still sees the owning runtime.
func (rt *Runtime) install() (restore func()) {
	gid := goid.Get()
	prev, had := activeRuntimes.Load(gid)
	activeRuntimes.Store(gid, rt)
	return func() {
		if had {
			activeRuntimes.Store(gid, prev)
		} else {
			activeRuntimes.Delete(gid)
		}
	}
}

// Run installs rt for the calling goroutine, runs fn, and restores the
// previous installation. All primitive constructors (NewSignal, NewMemo,
// NewEffect, NewScope, Provide) must run under an installed runtime.
func (rt *Runtime) Run(fn func()) {
	if rt.disposed {
		fail("runtime.run", NodeID{}, ErrUseAfterDispose)
	}
	restore := rt.install()
	defer restore()
	fn()
}
