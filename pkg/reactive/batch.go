package reactive

// Batch coalesces signal writes on the goroutine's installed runtime: all
// dirtiness propagates as the writes happen, but effects run once, after
// the outermost batch ends, observing fully-consistent post-batch state.
//
//	reactive.Batch(func() {
//	    first.Set("Ada")
//	    last.Set("Lovelace")
//	})
//	// subscribers run once, seeing both writes
func Batch(fn func()) {
	activeRuntime("batch").Batch(fn)
}

// Untracked runs fn with dependency tracking suspended on the goroutine's
// installed runtime. Signal and memo reads inside fn create no dependency
// edges for the computation currently evaluating.
func Untracked(fn func()) {
	activeRuntime("untracked").Untracked(fn)
}
