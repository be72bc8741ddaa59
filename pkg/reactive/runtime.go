package reactive

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Runtime owns every reactive node within one logical reactive scope:
// one per server-rendered request, one per client page. It holds the node
// arena, the observer stack that makes dependency tracking implicit, and
// the pending-effect queue the scheduler flushes after writes.
//
// The model is single-threaded cooperative: all entry points run to
// completion synchronously on the calling goroutine and nothing suspends
// mid-computation, so the runtime takes no locks. Concurrent callers must
// each use their own Runtime (see the scope package for the per-request
// pattern).
type Runtime struct {
	// nodes is the arena. Slot 0 is the root scope. Slots are pointers so
	// node addresses stay stable while user callbacks grow the arena.
	nodes []*node

	// free holds recycled slot indices. A disposed slot's generation is
	// bumped at disposal, so outstanding NodeIDs into it go stale.
	free []uint32

	// observers is the stack of currently evaluating nodes. The zero
	// NodeID is an untracked-region marker: reads underneath it create no
	// dependency edges.
	observers []NodeID

	// owners is the stack of creation scopes. The top owns nodes created
	// now. Never empty; the bottom is the root scope.
	owners []NodeID

	// pending is the FIFO queue of effects to run, with enqueued as its
	// membership set so a diamond enqueues an effect only once per pass.
	pending  []NodeID
	enqueued map[NodeID]struct{}

	batchDepth int
	flushing   bool

	// effectBudget caps effect runs within one flush.
	effectBudget int
	flushRuns    int

	logger  *slog.Logger
	metrics *Metrics
	tracer  trace.Tracer

	disposed bool
}

// defaultEffectBudget bounds effect runs per flush. Large enough for any
// real UI pass, small enough to trip before an effect storm melts the tab.
const defaultEffectBudget = 100_000

// NewRuntime creates an empty runtime with a root scope. The caller is
// responsible for calling Dispose when the logical scope ends (response
// produced, page unloaded) so every node is torn down.
func NewRuntime(opts ...Option) *Runtime {
	rt := &Runtime{
		enqueued:     make(map[NodeID]struct{}),
		effectBudget: defaultEffectBudget,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(rt)
	}

	// Root scope occupies slot 0. Generations start at 1 so the zero
	// NodeID never resolves.
	rt.nodes = append(rt.nodes, &node{gen: 1, kind: kindScope})
	rt.owners = append(rt.owners, NodeID{index: 0, gen: 1})
	rt.metrics.nodeCreated()
	return rt
}

// Root returns the root scope. Nodes created outside any narrower scope
// are owned by it and live until the runtime is disposed.
func (rt *Runtime) Root() Scope {
	return Scope{rt: rt, id: rt.owners[0]}
}

// Dispose tears the runtime down: every node is disposed in owner-tree
// postorder (children before parents, cleanups in reverse registration
// order). Any further use of the runtime or its nodes fails with
// ErrUseAfterDispose.
func (rt *Runtime) Dispose() {
	if rt.disposed {
		return
	}
	restore := rt.install()
	defer restore()
	rt.disposeNode(rt.owners[0])
	rt.disposed = true
	rt.pending = nil
	rt.enqueued = nil
}

// =============================================================================
// Arena
// =============================================================================

// createNode allocates an arena slot (recycling a disposed one when
// available) under the given owner and returns its generation-tagged ID.
func (rt *Runtime) createNode(kind nodeKind, owner NodeID) NodeID {
	if rt.disposed {
		fail("runtime.create", NodeID{}, ErrUseAfterDispose)
	}

	var id NodeID
	if n := len(rt.free); n > 0 {
		idx := rt.free[n-1]
		rt.free = rt.free[:n-1]
		slot := rt.nodes[idx]
		slot.disposed = false
		slot.kind = kind
		id = NodeID{index: idx, gen: slot.gen}
	} else {
		rt.nodes = append(rt.nodes, &node{gen: 1, kind: kind})
		id = NodeID{index: uint32(len(rt.nodes) - 1), gen: 1}
	}

	rt.nodes[id.index].owner = owner
	if own := rt.lookup(owner); own != nil {
		own.children = append(own.children, id)
	}
	rt.metrics.nodeCreated()
	return id
}

// lookup resolves an ID to its node, or nil if the ID is stale or the node
// is disposed. Every dependency-edge traversal goes through here; the
// generation check is what makes slot recycling safe.
func (rt *Runtime) lookup(id NodeID) *node {
	if id.gen == 0 || int(id.index) >= len(rt.nodes) {
		return nil
	}
	n := rt.nodes[id.index]
	if n.gen != id.gen || n.disposed {
		return nil
	}
	return n
}

// mustNode resolves an ID or fails with ErrUseAfterDispose.
func (rt *Runtime) mustNode(op string, id NodeID) *node {
	n := rt.lookup(id)
	if n == nil {
		fail(op, id, ErrUseAfterDispose)
	}
	return n
}

// =============================================================================
// Observer and owner stacks
// =============================================================================

func (rt *Runtime) pushObserver(id NodeID) {
	rt.observers = append(rt.observers, id)
}

func (rt *Runtime) popObserver() {
	rt.observers = rt.observers[:len(rt.observers)-1]
}

// currentObserver returns the node currently evaluating, or false when
// evaluating outside any tracked computation (including inside an
// Untracked region). A read with no observer creates no dependency edge;
// that is the escape hatch for untracked reads.
func (rt *Runtime) currentObserver() (NodeID, bool) {
	if len(rt.observers) == 0 {
		return NodeID{}, false
	}
	top := rt.observers[len(rt.observers)-1]
	if top == (NodeID{}) {
		return NodeID{}, false
	}
	return top, true
}

func (rt *Runtime) pushOwner(id NodeID) {
	rt.owners = append(rt.owners, id)
}

func (rt *Runtime) popOwner() {
	rt.owners = rt.owners[:len(rt.owners)-1]
}

// currentOwner returns the scope that owns nodes created now. The root
// scope is always at the bottom of the stack.
func (rt *Runtime) currentOwner() NodeID {
	return rt.owners[len(rt.owners)-1]
}

// =============================================================================
// Dependency graph
// =============================================================================

// registerDependency records that the current observer read source, adding
// the edge both ways. Called by every signal and memo read; whether the
// access is tracked is decided here, not by the caller.
func (rt *Runtime) registerDependency(source NodeID) {
	obs, ok := rt.currentObserver()
	if !ok || obs == source {
		return
	}
	on := rt.lookup(obs)
	sn := rt.lookup(source)
	if on == nil || sn == nil {
		return
	}
	if !containsID(on.deps, source) {
		on.deps = append(on.deps, source)
	}
	if !containsID(sn.dependents, obs) {
		sn.dependents = append(sn.dependents, obs)
	}
}

// clearDependencies removes every edge from id's last run, in both
// directions. Each run rebuilds the set from what it actually reads, which
// is what auto-unsubscribes a computation from branches it no longer takes.
func (rt *Runtime) clearDependencies(id NodeID) {
	n := rt.lookup(id)
	if n == nil {
		return
	}
	deps := n.deps
	n.deps = nil
	for _, dep := range deps {
		if dn := rt.lookup(dep); dn != nil {
			dn.dependents = removeID(dn.dependents, id)
		}
	}
}

// markDirtyAndPropagate walks dependents breadth-first from source.
// Memos are dirtied lazily (recomputation waits for the next read),
// effects are enqueued exactly once, and the walk continues outward through
// memos so their own dependents learn that a transitive input changed.
// Outside a batch the pending queue is flushed before returning.
func (rt *Runtime) markDirtyAndPropagate(source NodeID) {
	queue := []NodeID{source}
	visited := map[NodeID]struct{}{source: {}}

	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		n := rt.lookup(id)
		if n == nil {
			continue
		}
		for _, dep := range n.dependents {
			if _, seen := visited[dep]; seen {
				continue
			}
			visited[dep] = struct{}{}
			dn := rt.lookup(dep)
			if dn == nil {
				continue
			}
			switch dn.kind {
			case kindMemo:
				if dn.state == stateClean {
					dn.state = stateDirty
				}
				queue = append(queue, dep)
			case kindEffect:
				rt.enqueueEffect(dep)
			default:
				queue = append(queue, dep)
			}
		}
	}

	if rt.batchDepth == 0 {
		rt.flush()
	}
}

// enqueueEffect appends an effect to the pending queue unless it is
// already queued. Deduplication is what keeps an effect under a diamond to
// one run per write-pass.
func (rt *Runtime) enqueueEffect(id NodeID) {
	if _, ok := rt.enqueued[id]; ok {
		return
	}
	rt.enqueued[id] = struct{}{}
	rt.pending = append(rt.pending, id)
}

// =============================================================================
// Scheduler
// =============================================================================

// flush drains the pending-effect queue in enqueue order. Effects that
// write signals during their run enqueue further work, which the same
// flush drains; the effect budget is the backstop against storms.
// Re-entrant flushes (a write inside an effect body) fold into the
// outer drain loop.
func (rt *Runtime) flush() {
	if rt.flushing || len(rt.pending) == 0 {
		return
	}
	rt.flushing = true
	rt.flushRuns = 0
	start := time.Now()

	var span trace.Span
	if rt.tracer != nil {
		_, span = rt.tracer.Start(context.Background(), "reactive.flush",
			trace.WithAttributes(attribute.Int("reactive.pending", len(rt.pending))))
	}

	defer func() {
		rt.flushing = false
		rt.metrics.flushDone(time.Since(start))
		if span != nil {
			span.SetAttributes(attribute.Int("reactive.effect_runs", rt.flushRuns))
			span.End()
		}
	}()

	for len(rt.pending) > 0 {
		id := rt.pending[0]
		rt.pending = rt.pending[1:]
		delete(rt.enqueued, id)

		rt.flushRuns++
		if rt.flushRuns > rt.effectBudget {
			rt.logger.Error("reactive: effect budget exceeded, aborting flush",
				slog.Int("budget", rt.effectBudget))
			fail("runtime.flush", id, ErrBudgetExceeded)
		}
		rt.runEffect(id)
	}
}

// runEffectInitial performs an effect's synchronous creation run. Writes
// made by the body are queued rather than flushed mid-run (the body is
// still evaluating, so a nested flush would re-enter it as a false cycle)
// and drain immediately afterwards, batch permitting.
func (rt *Runtime) runEffectInitial(id NodeID) {
	wasFlushing := rt.flushing
	rt.flushing = true
	defer func() {
		rt.flushing = wasFlushing
		if !wasFlushing && rt.batchDepth == 0 {
			rt.flush()
		}
	}()
	rt.runEffect(id)
}

// runEffect executes one effect with cleanup-then-rerun semantics: previous
// cleanups fire in reverse order, nodes created during the previous run are
// disposed, the dependency set is rebuilt fresh, then the body runs as both
// observer and owner.
func (rt *Runtime) runEffect(id NodeID) {
	n := rt.lookup(id)
	if n == nil || n.run == nil {
		// Disposed between enqueue and run.
		return
	}
	if n.state == stateRunning {
		fail("effect.run", id, ErrCyclicDependency)
	}

	rt.runCleanups(n)
	if n.disposed {
		// A cleanup disposed this effect's scope.
		return
	}
	rt.disposeChildren(n)
	rt.clearDependencies(id)

	restore := rt.install()
	n.state = stateRunning
	rt.pushObserver(id)
	rt.pushOwner(id)

	defer func() {
		rt.popOwner()
		rt.popObserver()
		// The body may have disposed this effect; its slot can already back
		// a new node, which must keep its own state.
		if n.gen == id.gen && !n.disposed {
			n.state = stateClean
		}
		restore()
	}()

	n.run()
	rt.metrics.effectRan()
}

// runCleanups invokes the node's cleanup stack in reverse registration
// order and clears it.
func (rt *Runtime) runCleanups(n *node) {
	cleanups := n.cleanups
	n.cleanups = nil
	for i := len(cleanups) - 1; i >= 0; i-- {
		cleanups[i]()
	}
}

// =============================================================================
// Batching
// =============================================================================

// Batch runs fn with writes coalesced: dirtiness propagates immediately so
// the graph is fully consistent, but no effect runs until the outermost
// batch ends. Nested batches never cause partial flushes. This is the
// glitch-free guarantee: effects observe post-batch state only.
func (rt *Runtime) Batch(fn func()) {
	var span trace.Span
	if rt.tracer != nil && rt.batchDepth == 0 {
		_, span = rt.tracer.Start(context.Background(), "reactive.batch")
	}

	rt.batchDepth++
	defer func() {
		rt.batchDepth--
		if rt.batchDepth == 0 {
			rt.flush()
		}
		if span != nil {
			span.End()
		}
	}()

	fn()
}

// Untracked runs fn with dependency tracking suspended: reads inside
// create no edges for the computation currently evaluating.
func (rt *Runtime) Untracked(fn func()) {
	rt.pushObserver(NodeID{})
	defer rt.popObserver()
	fn()
}

// =============================================================================
// Disposal
// =============================================================================

// disposeChildren disposes every node owned by n, most recent first.
func (rt *Runtime) disposeChildren(n *node) {
	children := n.children
	n.children = nil
	for i := len(children) - 1; i >= 0; i-- {
		rt.disposeNode(children[i])
	}
}

// disposeNode makes a node inert: children go first (postorder), then the
// cleanup stack in reverse order, then every dependency edge in both
// directions. The slot's generation is bumped and the index recycled, so
// any outstanding NodeID into it is detectably stale.
func (rt *Runtime) disposeNode(id NodeID) {
	n := rt.lookup(id)
	if n == nil {
		return
	}
	n.disposed = true

	rt.disposeChildren(n)
	rt.runCleanups(n)

	for _, dep := range n.deps {
		if dn := rt.lookup(dep); dn != nil {
			dn.dependents = removeID(dn.dependents, id)
		}
	}
	for _, dep := range n.dependents {
		if dn := rt.lookup(dep); dn != nil {
			dn.deps = removeID(dn.deps, id)
		}
	}

	if own := rt.lookup(n.owner); own != nil {
		own.children = removeID(own.children, id)
	}

	delete(rt.enqueued, id)
	n.reset()
	n.gen++
	rt.free = append(rt.free, id.index)
	rt.metrics.nodeDisposed()
}
