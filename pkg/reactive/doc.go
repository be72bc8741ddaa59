// Package reactive implements the fine-grained reactive runtime underlying
// the Pulse UI layer: signals, lazily-cached memos, eagerly-run effects,
// and scoped context lookup, all backed by a single generation-tagged node
// arena per Runtime.
//
// Propagation is glitch-free and diamond-safe: a write marks dependent
// memos dirty (recomputed lazily on the next read) and enqueues dependent
// effects deduplicated, so an effect downstream of several changed inputs
// runs exactly once per write-pass and observes fully-updated state.
//
// The scheduling model is single-threaded cooperative. One Runtime is
// active per logical reactive scope (one per server-rendered request, one
// per client page), installed for the calling goroutine by Runtime.Run and
// reachable through WithRuntime. Nothing here locks; concurrency is
// achieved by giving each concurrent unit its own Runtime (see the scope
// package for the HTTP middleware that does this per request).
package reactive
