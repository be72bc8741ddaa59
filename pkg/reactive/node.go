package reactive

import "fmt"

// NodeID is a stable, generation-tagged handle into the runtime's node
// arena. Disposed slots are recycled; the generation tag detects handles
// that outlive their node. The zero NodeID is never valid.
type NodeID struct {
	index uint32
	gen   uint32
}

// String renders the ID for error messages and debug logs.
func (id NodeID) String() string {
	return fmt.Sprintf("%d.%d", id.index, id.gen)
}

// nodeKind tags the variant a node slot currently holds.
type nodeKind uint8

const (
	kindScope nodeKind = iota + 1
	kindSignal
	kindMemo
	kindEffect
)

func (k nodeKind) String() string {
	switch k {
	case kindScope:
		return "scope"
	case kindSignal:
		return "signal"
	case kindMemo:
		return "memo"
	case kindEffect:
		return "effect"
	default:
		return "unknown"
	}
}

// nodeState is the per-node evaluation state. Encountering a running node
// again on the observer stack is a cycle, not silent infinite recursion.
type nodeState uint8

const (
	stateClean nodeState = iota
	stateDirty
	stateRunning
)

// node is the single physical representation backing every signal, memo,
// effect, and scope. The arena keeps nodes homogeneous; all graph edges are
// plain NodeID sets, so there is no ownership cycle to break. Only the
// owner tree implies ownership, and it is acyclic by construction.
type node struct {
	gen      uint32
	kind     nodeKind
	state    nodeState
	disposed bool

	// value is the type-erased cell content (signals and memos). The typed
	// facade checks the dynamic type on access. hasValue distinguishes a
	// never-computed memo from one that computed a nil-like value.
	value    any
	hasValue bool

	// run is the effect body. nil for every other kind.
	run func()

	// deps is the exact set of nodes read during the most recent run.
	// Rebuilt from scratch on every run; stale edges from a previous run
	// that branched differently are pruned before each rerun.
	deps []NodeID

	// dependents is the reverse relation, used for outward propagation.
	dependents []NodeID

	// owner and children form the disposal tree. A node's owner is fixed
	// at creation and never repointed.
	owner    NodeID
	children []NodeID

	// cleanups run in reverse registration order on rerun and disposal.
	cleanups []func()

	// ctx holds context values provided on this node, keyed by context key.
	// Lazily allocated; most nodes never provide a context.
	ctx map[uint64]any
}

// reset clears slot contents when the node is disposed so the arena does
// not pin dead closures and values.
func (n *node) reset() {
	n.kind = 0
	n.state = stateClean
	n.value = nil
	n.hasValue = false
	n.run = nil
	n.deps = nil
	n.dependents = nil
	n.owner = NodeID{}
	n.children = nil
	n.cleanups = nil
	n.ctx = nil
}

// containsID reports whether ids holds id.
func containsID(ids []NodeID, id NodeID) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

// removeID deletes id from ids, preserving order for deterministic
// propagation and effect scheduling.
func removeID(ids []NodeID, id NodeID) []NodeID {
	for i, v := range ids {
		if v == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}
