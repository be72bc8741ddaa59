package reactive

// Effect is an eagerly-run side-effecting subscriber. The body runs once,
// synchronously, at creation (there is no deferred mount phase) and
// reruns whenever any signal or memo it read during its last run changes.
//
// Rerun protocol: cleanups registered during the previous run fire in
// reverse registration order, nodes created during the previous run are
// disposed, the dependency set is rebuilt fresh, then the body executes.
// Resources acquired in one run therefore never leak into the next.
type Effect struct {
	rt *Runtime
	id NodeID
}

// NewEffect allocates an effect owned by the current scope and runs fn
// immediately, tracking dependencies exactly as any other computation.
func NewEffect(fn func()) *Effect {
	rt := activeRuntime("effect.new")
	id := rt.createNode(kindEffect, rt.currentOwner())
	rt.nodes[id.index].run = fn
	e := &Effect{rt: rt, id: id}
	rt.runEffectInitial(id)
	return e
}

// Dispose runs pending cleanups, removes the effect from every
// dependency's dependents set, and marks it inert. Disposing twice is a
// no-op.
func (e *Effect) Dispose() {
	e.rt.disposeNode(e.id)
}

// IsDisposed reports whether the effect has been disposed, directly or
// through an owning scope.
func (e *Effect) IsDisposed() bool {
	return e.rt.lookup(e.id) == nil
}

// ID returns the effect's node ID.
func (e *Effect) ID() NodeID {
	return e.id
}

// OnCleanup registers fn to run before the next rerun of the computation
// currently executing, or at its final disposal, whichever comes first.
// Outside any computation it registers on the current scope and runs at
// that scope's disposal. Cleanups run in reverse registration order.
func OnCleanup(fn func()) {
	rt := activeRuntime("cleanup.register")
	id, ok := rt.currentObserver()
	if !ok {
		id = rt.currentOwner()
	}
	n := rt.mustNode("cleanup.register", id)
	n.cleanups = append(n.cleanups, fn)
}
