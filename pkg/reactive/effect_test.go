package reactive

import (
	"testing"
)

func TestEffectRunsImmediately(t *testing.T) {
	withRuntime(t, func(rt *Runtime) {
		ran := false
		NewEffect(func() {
			ran = true
		})
		if !ran {
			t.Error("effect did not run synchronously at creation")
		}
	})
}

func TestEffectRerunsOnChange(t *testing.T) {
	withRuntime(t, func(rt *Runtime) {
		count := NewSignal(0)
		var observed []int
		NewEffect(func() {
			observed = append(observed, count.Get())
		})

		count.Set(1)
		count.Set(2)

		want := []int{0, 1, 2}
		if len(observed) != len(want) {
			t.Fatalf("observed %v, want %v", observed, want)
		}
		for i := range want {
			if observed[i] != want[i] {
				t.Fatalf("observed %v, want %v", observed, want)
			}
		}
	})
}

func TestEffectCleanupOrder(t *testing.T) {
	withRuntime(t, func(rt *Runtime) {
		count := NewSignal(0)
		var order []string
		NewEffect(func() {
			_ = count.Get()
			OnCleanup(func() { order = append(order, "f1") })
			OnCleanup(func() { order = append(order, "f2") })
			OnCleanup(func() { order = append(order, "f3") })
			order = append(order, "body")
		})

		order = nil
		count.Set(1)

		// Cleanups fire in reverse registration order, before the new body.
		want := []string{"f3", "f2", "f1", "body"}
		if len(order) != len(want) {
			t.Fatalf("order = %v, want %v", order, want)
		}
		for i := range want {
			if order[i] != want[i] {
				t.Fatalf("order = %v, want %v", order, want)
			}
		}
	})
}

func TestEffectCleanupRunsOnDispose(t *testing.T) {
	withRuntime(t, func(rt *Runtime) {
		cleaned := 0
		e := NewEffect(func() {
			OnCleanup(func() { cleaned++ })
		})

		e.Dispose()
		if cleaned != 1 {
			t.Errorf("expected 1 cleanup on dispose, got %d", cleaned)
		}
		// Idempotent.
		e.Dispose()
		if cleaned != 1 {
			t.Errorf("double dispose reran cleanup, got %d", cleaned)
		}
		if !e.IsDisposed() {
			t.Error("effect not marked disposed")
		}
	})
}

func TestEffectDisposeStopsReruns(t *testing.T) {
	withRuntime(t, func(rt *Runtime) {
		count := NewSignal(0)
		runs := 0
		e := NewEffect(func() {
			_ = count.Get()
			runs++
		})

		e.Dispose()
		count.Set(1)
		if runs != 1 {
			t.Errorf("disposed effect reran, runs = %d", runs)
		}
	})
}

func TestEffectDynamicDependencies(t *testing.T) {
	withRuntime(t, func(rt *Runtime) {
		useFirst := NewSignal(true)
		first := NewSignal("a")
		second := NewSignal("b")

		runs := 0
		NewEffect(func() {
			runs++
			if useFirst.Get() {
				_ = first.Get()
			} else {
				_ = second.Get()
			}
		})

		useFirst.Set(false) // now tracking second only
		runsBefore := runs

		first.Set("changed")
		if runs != runsBefore {
			t.Errorf("write to abandoned branch reran effect (%d -> %d)", runsBefore, runs)
		}

		second.Set("changed")
		if runs != runsBefore+1 {
			t.Errorf("write to live branch did not rerun effect, runs = %d", runs)
		}
	})
}

func TestEffectRerunDisposesOwnedNodes(t *testing.T) {
	withRuntime(t, func(rt *Runtime) {
		parent := NewSignal(0)
		inner := NewSignal(0)
		innerRuns := 0

		NewEffect(func() {
			_ = parent.Get()
			NewEffect(func() {
				_ = inner.Get()
				innerRuns++
			})
		})
		if innerRuns != 1 {
			t.Fatalf("nested effect runs = %d, want 1", innerRuns)
		}

		parent.Set(1) // rerun disposes the previous nested effect
		if innerRuns != 2 {
			t.Fatalf("nested effect runs after parent rerun = %d, want 2", innerRuns)
		}

		inner.Set(1) // only the latest nested effect may respond
		if innerRuns != 3 {
			t.Errorf("stale nested effect still alive, inner runs = %d, want 3", innerRuns)
		}
	})
}

func TestEffectWritingOwnDependencyTripsBudget(t *testing.T) {
	rt := NewRuntime(WithEffectBudget(64))
	t.Cleanup(rt.Dispose)

	rt.Run(func() {
		count := NewSignal(0)
		mustPanicWith(t, ErrBudgetExceeded, func() {
			NewEffect(func() {
				count.Set(count.Get() + 1)
			})
		})
	})
}

func TestEffectSelfDisposeKeepsRecycledSlotIntact(t *testing.T) {
	withRuntime(t, func(rt *Runtime) {
		trigger := NewSignal(0)
		var e *Effect
		var m *Memo[int]

		// Run-once-then-stop pattern: the rerun disposes the effect itself,
		// then allocates a memo that recycles the freed slot. The memo must
		// stay dirty until its first read.
		e = NewEffect(func() {
			if trigger.Get() == 0 {
				return
			}
			e.Dispose()
			m = NewMemo(func() int { return 42 })
		})

		trigger.Set(1)

		if !e.IsDisposed() {
			t.Fatal("effect not disposed by its own rerun")
		}
		if got := m.Get(); got != 42 {
			t.Errorf("memo in recycled slot = %d, want 42", got)
		}

		trigger.Set(2)
		if got := m.Get(); got != 42 {
			t.Errorf("memo corrupted after further writes, got %d", got)
		}
	})
}

func TestOnCleanupOutsideComputationTargetsScope(t *testing.T) {
	withRuntime(t, func(rt *Runtime) {
		cleaned := false
		scope := NewScope()
		scope.Run(func() {
			OnCleanup(func() { cleaned = true })
		})

		if cleaned {
			t.Fatal("cleanup ran before scope disposal")
		}
		scope.Dispose()
		if !cleaned {
			t.Error("scope disposal did not run cleanup")
		}
	})
}
