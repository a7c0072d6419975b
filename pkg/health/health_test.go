package health

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type probeBody struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func passing(_ context.Context) error { return nil }

func failing(msg string) CheckFunc {
	return func(_ context.Context) error { return errors.New(msg) }
}

func probe(t *testing.T, endpoint http.HandlerFunc) (int, probeBody) {
	t.Helper()
	w := httptest.NewRecorder()
	endpoint(w, httptest.NewRequest(http.MethodGet, "/", nil))

	var body probeBody
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	return w.Code, body
}

func TestLiveEndpoint(t *testing.T) {
	t.Run("all passing", func(t *testing.T) {
		h := New()
		h.AddLivenessCheck("one", time.Second, passing)
		h.AddLivenessCheck("two", time.Second, passing)

		code, body := probe(t, h.LiveEndpoint)
		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, "ok", body.Status)
	})

	t.Run("no checks registered", func(t *testing.T) {
		code, body := probe(t, New().LiveEndpoint)
		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, "ok", body.Status)
	})

	t.Run("failing past threshold", func(t *testing.T) {
		h := New()
		h.AddLivenessCheck("db", time.Second, failing("connection refused"))

		ctx := context.Background()
		for range failureThreshold {
			h.liveness[0].run(ctx)
		}

		code, body := probe(t, h.LiveEndpoint)
		assert.Equal(t, http.StatusServiceUnavailable, code)
		assert.Equal(t, "unhealthy", body.Status)
		assert.Equal(t, "connection refused", body.Checks["db"])
	})

	t.Run("failing below threshold stays healthy", func(t *testing.T) {
		h := New()
		h.AddLivenessCheck("flaky", time.Second, failing("temporary"))

		ctx := context.Background()
		for range failureThreshold - 1 {
			h.liveness[0].run(ctx)
		}

		code, _ := probe(t, h.LiveEndpoint)
		assert.Equal(t, http.StatusOK, code)
	})
}

func TestReadyEndpoint(t *testing.T) {
	t.Run("ready and passing", func(t *testing.T) {
		h := New()
		h.AddReadinessCheck("postgres", time.Second, passing)
		h.SetReady(true)

		code, body := probe(t, h.ReadyEndpoint)
		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, "ok", body.Status)
	})

	t.Run("not ready until SetReady", func(t *testing.T) {
		h := New()
		h.AddReadinessCheck("postgres", time.Second, passing)

		code, body := probe(t, h.ReadyEndpoint)
		assert.Equal(t, http.StatusServiceUnavailable, code)
		assert.Contains(t, body.Checks, "_readiness")
	})

	t.Run("draining after SetReady false", func(t *testing.T) {
		h := New()
		h.SetReady(true)
		code, _ := probe(t, h.ReadyEndpoint)
		require.Equal(t, http.StatusOK, code)

		h.SetReady(false)
		code, _ = probe(t, h.ReadyEndpoint)
		assert.Equal(t, http.StatusServiceUnavailable, code)
	})

	t.Run("one failing check among many", func(t *testing.T) {
		h := New()
		h.AddReadinessCheck("postgres", time.Second, passing)
		h.AddReadinessCheck("broker", time.Second, failing("broker down"))
		h.SetReady(true)

		ctx := context.Background()
		for range failureThreshold {
			h.readiness[1].run(ctx)
		}

		code, body := probe(t, h.ReadyEndpoint)
		assert.Equal(t, http.StatusServiceUnavailable, code)
		assert.Contains(t, body.Checks, "broker")
		assert.NotContains(t, body.Checks, "postgres")
	})
}

func TestIsReady(t *testing.T) {
	h := New()
	h.AddReadinessCheck("postgres", time.Second, passing)

	assert.False(t, h.IsReady())
	h.SetReady(true)
	assert.True(t, h.IsReady())
	h.SetReady(false)
	assert.False(t, h.IsReady())
}

func TestCheckRecovery(t *testing.T) {
	down := true
	h := New()
	h.AddLivenessCheck("flaky", time.Second, func(_ context.Context) error {
		if down {
			return errors.New("down")
		}
		return nil
	})
	c := h.liveness[0]
	ctx := context.Background()

	for range failureThreshold {
		c.run(ctx)
	}
	require.False(t, c.healthy.Load())

	// A single success recovers the check.
	down = false
	c.run(ctx)
	assert.True(t, c.healthy.Load())
}

func TestStopIsIdempotent(t *testing.T) {
	h := New()
	h.AddLivenessCheck("goroutines", time.Second, passing)
	h.Start(context.Background(), 100*time.Millisecond)

	time.Sleep(50 * time.Millisecond)
	h.Stop()
	h.Stop()
}

func TestConcurrentAccess(t *testing.T) {
	h := New()
	h.AddLivenessCheck("alpha", time.Second, failing("err"))
	h.AddReadinessCheck("beta", time.Second, passing)
	h.SetReady(true)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h.Start(ctx, 10*time.Millisecond)

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				h.IsReady()
				probe(t, h.LiveEndpoint)
				probe(t, h.ReadyEndpoint)
			}
		}()
	}
	wg.Wait()
	h.Stop()
}

func TestGoroutineCountCheck(t *testing.T) {
	assert.NoError(t, GoroutineCountCheck(100000)(context.Background()))

	err := GoroutineCountCheck(0)(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exceeds threshold")
}

func TestGCMaxPauseCheck(t *testing.T) {
	assert.NoError(t, GCMaxPauseCheck(time.Hour)(context.Background()))
}
