package reactive

// Scope is a handle on a node of the ownership tree, the creation-scope
// hierarchy used for lifecycle and disposal, distinct from the dependency
// graph. A view layer creates one scope per component and disposes it on
// unmount; everything created under it (signals, memos, effects, child
// scopes, context values) goes with it.
type Scope struct {
	rt *Runtime
	id NodeID
}

// NewScope creates a scope owned by the current scope of the goroutine's
// installed runtime.
func NewScope() Scope {
	rt := activeRuntime("scope.new")
	return Scope{rt: rt, id: rt.createNode(kindScope, rt.currentOwner())}
}

// Run executes fn with this scope as the current owner: nodes created
// inside belong to it and are disposed with it.
func (s Scope) Run(fn func()) {
	s.rt.mustNode("scope.run", s.id)
	restore := s.rt.install()
	defer restore()
	s.rt.pushOwner(s.id)
	defer s.rt.popOwner()
	fn()
}

// OnCleanup registers fn to run when this scope is disposed.
func (s Scope) OnCleanup(fn func()) {
	n := s.rt.mustNode("scope.cleanup", s.id)
	n.cleanups = append(n.cleanups, fn)
}

// Dispose tears the scope down in owner-tree postorder: owned nodes first,
// most recently created to oldest, then this scope's own cleanups in
// reverse registration order. Disposing twice is a no-op.
func (s Scope) Dispose() {
	s.rt.disposeNode(s.id)
}

// IsDisposed reports whether the scope has been disposed.
func (s Scope) IsDisposed() bool {
	return s.rt.lookup(s.id) == nil
}

// ID returns the scope's node ID.
func (s Scope) ID() NodeID {
	return s.id
}
