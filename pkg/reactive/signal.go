package reactive

// Signal is a reactive leaf cell holding a value of type T. Reading it
// during a tracked computation (a memo computation or an effect body)
// registers a dependency edge automatically; there is no explicit
// subscribe call. Writes propagate to dependents through the runtime,
// gated on equality.
//
// Values are returned by copy. For pointer, slice, and map types the copy
// shares backing storage with the cell; treat such values as read-only or
// replace them wholesale through Set.
type Signal[T any] struct {
	rt *Runtime
	id NodeID

	// equal overrides the default change check. nil means defaultEquals.
	equal func(T, T) bool
}

// NewSignal allocates a signal cell owned by the current scope of the
// goroutine's installed runtime. It panics with ErrNoActiveRuntime when
// called outside Runtime.Run.
func NewSignal[T any](initial T) *Signal[T] {
	rt := activeRuntime("signal.new")
	id := rt.createNode(kindSignal, rt.currentOwner())
	n := rt.nodes[id.index]
	n.value = initial
	n.hasValue = true
	return &Signal[T]{rt: rt, id: id}
}

// Get returns the current value and registers it as a dependency of the
// computation currently evaluating, if any. Beyond that registration a
// read has no effect on the graph.
func (s *Signal[T]) Get() T {
	n := s.rt.mustNode("signal.get", s.id)
	s.rt.registerDependency(s.id)
	return n.value.(T)
}

// Peek returns the current value without registering a dependency.
func (s *Signal[T]) Peek() T {
	n := s.rt.mustNode("signal.peek", s.id)
	return n.value.(T)
}

// Set stores a new value and propagates to dependents. When the new value
// equals the current one nothing propagates: the equality gate is what
// stops redundant write cascades before they start, not an optimization.
// Outside a batch, pending effects flush before Set returns.
func (s *Signal[T]) Set(value T) {
	n := s.rt.mustNode("signal.set", s.id)
	if s.equals(n.value.(T), value) {
		return
	}
	n.value = value
	s.rt.metrics.signalWrote()
	s.rt.markDirtyAndPropagate(s.id)
}

// Update applies fn to the current value and stores the result with the
// same equality-gated propagation as Set.
func (s *Signal[T]) Update(fn func(T) T) {
	n := s.rt.mustNode("signal.update", s.id)
	cur := n.value.(T)
	next := fn(cur)
	if s.equals(cur, next) {
		return
	}
	n.value = next
	s.rt.metrics.signalWrote()
	s.rt.markDirtyAndPropagate(s.id)
}

// WithEquals configures a custom equality function and returns the signal.
// Useful where reflect.DeepEqual is too expensive or has the wrong
// semantics for T.
func (s *Signal[T]) WithEquals(fn func(T, T) bool) *Signal[T] {
	s.equal = fn
	return s
}

// ID returns the signal's node ID.
func (s *Signal[T]) ID() NodeID {
	return s.id
}

func (s *Signal[T]) equals(a, b T) bool {
	if s.equal != nil {
		return s.equal(a, b)
	}
	return defaultEquals(a, b)
}
