package reactive

import "sync/atomic"

// contextKeySeq hands out process-unique keys for context slots. Contexts
// may be created at package init on any goroutine, hence atomic.
var contextKeySeq atomic.Uint64

// Context is a typed, statically-identified slot for scoped value lookup
// along the ownership tree. It is not a value store itself: Provide
// associates a value with the current owner, and Use finds the nearest
// providing ancestor. The lookup is lexical over the owner chain and
// deliberately independent of the dependency graph: reading a context
// never creates a dependency edge.
type Context[T any] struct {
	key uint64
}

// NewContext creates a context slot. Typically assigned to a package-level
// variable shared by providers and consumers.
func NewContext[T any]() Context[T] {
	return Context[T]{key: contextKeySeq.Add(1)}
}

// Provide associates value with the current owner node. It is visible to
// Use calls made within that owner's descendants only, and shadows any
// value provided by an ancestor.
func (c Context[T]) Provide(value T) {
	rt := activeRuntime("context.provide")
	n := rt.mustNode("context.provide", rt.currentOwner())
	if n.ctx == nil {
		n.ctx = make(map[uint64]any)
	}
	n.ctx[c.key] = value
}

// Use walks the owner chain from the current scope upward and returns the
// nearest provided value. The second result is false when no ancestor
// provided one, an expected outcome rather than an error.
func (c Context[T]) Use() (T, bool) {
	rt := activeRuntime("context.use")
	for id := rt.currentOwner(); ; {
		n := rt.lookup(id)
		if n == nil {
			break
		}
		if v, ok := n.ctx[c.key]; ok {
			return v.(T), true
		}
		id = n.owner
	}
	var zero T
	return zero, false
}

// Remove clears the association on the current owner only. Values provided
// by ancestors remain visible.
func (c Context[T]) Remove() {
	rt := activeRuntime("context.remove")
	n := rt.mustNode("context.remove", rt.currentOwner())
	delete(n.ctx, c.key)
}
