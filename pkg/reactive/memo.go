package reactive

// Memo is a derived, cached reactive cell. Writes to its inputs only mark
// it dirty; the computation reruns lazily on the next read, at most once
// per flush cycle even under diamond fan-in. Reading a memo behaves like
// reading a signal: the memo itself becomes a dependency of the outer
// computation.
type Memo[T any] struct {
	rt      *Runtime
	id      NodeID
	compute func() T

	// equal overrides the cached-value change check. nil means
	// defaultEquals.
	equal func(T, T) bool
}

// NewMemo allocates a memo cell marked dirty. compute does not run here;
// a memo that is created but never read never computes.
func NewMemo[T any](compute func() T) *Memo[T] {
	rt := activeRuntime("memo.new")
	id := rt.createNode(kindMemo, rt.currentOwner())
	rt.nodes[id.index].state = stateDirty
	return &Memo[T]{rt: rt, id: id, compute: compute}
}

// Get returns the memo's value, recomputing first if a dependency changed
// since the last read. After ensuring freshness it registers the memo as a
// dependency of the computation currently evaluating, if any.
func (m *Memo[T]) Get() T {
	n := m.rt.mustNode("memo.get", m.id)
	if n.state == stateRunning {
		fail("memo.get", m.id, ErrCyclicDependency)
	}
	if n.state == stateDirty {
		m.recompute(n)
		// The computation may have disposed the memo.
		n = m.rt.mustNode("memo.get", m.id)
	}
	m.rt.registerDependency(m.id)
	return n.value.(T)
}

// Peek returns the memo's value without registering a dependency. It still
// recomputes when dirty.
func (m *Memo[T]) Peek() T {
	n := m.rt.mustNode("memo.peek", m.id)
	if n.state == stateRunning {
		fail("memo.peek", m.id, ErrCyclicDependency)
	}
	if n.state == stateDirty {
		m.recompute(n)
		n = m.rt.mustNode("memo.peek", m.id)
	}
	return n.value.(T)
}

// WithEquals configures a custom equality function and returns the memo.
func (m *Memo[T]) WithEquals(fn func(T, T) bool) *Memo[T] {
	m.equal = fn
	return m
}

// ID returns the memo's node ID.
func (m *Memo[T]) ID() NodeID {
	return m.id
}

// recompute runs the computation with a fresh dependency set: cleanups and
// nodes from the previous run are released, then the body executes as both
// observer and owner. An equal result keeps the cached value so chains of
// memos do not cascade recomputed-but-unchanged values.
func (m *Memo[T]) recompute(n *node) {
	rt := m.rt

	rt.runCleanups(n)
	rt.disposeChildren(n)
	rt.clearDependencies(m.id)

	restore := rt.install()
	n.state = stateRunning
	rt.pushObserver(m.id)
	rt.pushOwner(m.id)

	completed := false
	defer func() {
		rt.popOwner()
		rt.popObserver()
		// The computation may have disposed this memo; its slot can already
		// back a new node, which must keep its own state.
		if n.gen == m.id.gen && !n.disposed {
			if completed {
				n.state = stateClean
			} else {
				// compute panicked; stay dirty so a later read retries.
				n.state = stateDirty
			}
		}
		restore()
	}()

	value := m.compute()
	completed = true
	rt.metrics.memoRecomputed()

	if n.gen != m.id.gen || n.disposed {
		return
	}
	if n.hasValue && m.equals(n.value.(T), value) {
		return
	}
	n.value = value
	n.hasValue = true
}

func (m *Memo[T]) equals(a, b T) bool {
	if m.equal != nil {
		return m.equal(a, b)
	}
	return defaultEquals(a, b)
}
