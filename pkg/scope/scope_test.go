package scope

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pulse-ui/pulse/pkg/reactive"
)

func TestMiddlewareInstallsRuntime(t *testing.T) {
	handler := Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		err := reactive.WithRuntime(func(rt *reactive.Runtime) {
			count := reactive.NewSignal(0)
			double := reactive.NewMemo(func() int { return count.Get() * 2 })
			count.Set(21)
			assert.Equal(t, 42, double.Get())
		})
		require.NoError(t, err)
		w.WriteHeader(http.StatusNoContent)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusNoContent, rec.Code)
}

func TestMiddlewareDisposesAfterResponse(t *testing.T) {
	disposed := false
	handler := Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reactive.OnCleanup(func() { disposed = true })
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.True(t, disposed, "root cleanup should run once the response is produced")
}

func TestMiddlewareIsolatesRequests(t *testing.T) {
	var runtimes []*reactive.Runtime
	handler := Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rt, ok := RuntimeFrom(r.Context())
		require.True(t, ok)
		runtimes = append(runtimes, rt)
	}))

	for i := 0; i < 3; i++ {
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	}

	require.Len(t, runtimes, 3)
	assert.NotSame(t, runtimes[0], runtimes[1])
	assert.NotSame(t, runtimes[1], runtimes[2])
}

func TestMiddlewareRuntimeOptions(t *testing.T) {
	handler := Middleware(
		WithRuntimeOptions(reactive.WithEffectBudget(1)),
	)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			err, ok := recover().(error)
			require.True(t, ok)
			assert.ErrorIs(t, err, reactive.ErrBudgetExceeded)
		}()
		a := reactive.NewSignal(0)
		b := reactive.NewSignal(0)
		reactive.NewEffect(func() { _ = a.Get() })
		reactive.NewEffect(func() { _ = b.Get() })
		reactive.Batch(func() {
			a.Set(1)
			b.Set(1)
		})
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
}

func TestRuntimeFromAbsent(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	_, ok := RuntimeFrom(req.Context())
	assert.False(t, ok)
}

func TestRuntimeFromCrossGoroutine(t *testing.T) {
	handler := Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rt, ok := RuntimeFrom(r.Context())
		require.True(t, ok)

		count := reactive.NewSignal(0)
		seen := 0
		reactive.NewEffect(func() { seen = count.Get() })

		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			rt.Run(func() { count.Set(7) })
		}()
		wg.Wait()

		assert.Equal(t, 7, seen)
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
}

func TestRouterAppliesMiddleware(t *testing.T) {
	r := Router()
	r.Get("/status", func(w http.ResponseWriter, req *http.Request) {
		sig := reactive.NewSignal("ok")
		w.Write([]byte(sig.Get()))
	})

	srv := httptest.NewServer(r)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/status")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
