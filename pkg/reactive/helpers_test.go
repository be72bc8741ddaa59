package reactive

import (
	"errors"
	"testing"
)

// withRuntime runs fn inside a fresh runtime installed for the test
// goroutine and disposes it afterwards.
func withRuntime(t *testing.T, fn func(rt *Runtime)) {
	t.Helper()
	rt := NewRuntime()
	t.Cleanup(rt.Dispose)
	rt.Run(func() {
		fn(rt)
	})
}

// mustPanicWith asserts that fn panics with an error wrapping sentinel.
func mustPanicWith(t *testing.T, sentinel error, fn func()) {
	t.Helper()
	defer func() {
		r := recover()
		if r == nil {
			t.Fatalf("expected panic wrapping %v, got none", sentinel)
		}
		err, ok := r.(error)
		if !ok {
			t.Fatalf("panic value %v (%T) is not an error", r, r)
		}
		if !errors.Is(err, sentinel) {
			t.Fatalf("panic = %v, want %v", err, sentinel)
		}
	}()
	fn()
}
