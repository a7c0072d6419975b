package httpmiddleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func hit(handler http.Handler, remoteAddr string, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = remoteAddr
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w
}

func TestRateLimit(t *testing.T) {
	t.Run("under limit", func(t *testing.T) {
		handler := RateLimit(RateLimitConfig{Max: 5, Window: time.Minute})(okHandler())

		for i := range 5 {
			w := hit(handler, "192.168.1.1:12345", nil)
			assert.Equal(t, http.StatusOK, w.Code, "request %d should pass", i+1)
			assert.Equal(t, "5", w.Header().Get("X-RateLimit-Limit"))
			assert.NotEmpty(t, w.Header().Get("X-RateLimit-Reset"))
		}
	})

	t.Run("over limit", func(t *testing.T) {
		handler := RateLimit(RateLimitConfig{Max: 2, Window: time.Minute})(okHandler())

		for range 2 {
			require.Equal(t, http.StatusOK, hit(handler, "10.0.0.1:9999", nil).Code)
		}
		w := hit(handler, "10.0.0.1:9999", nil)

		assert.Equal(t, http.StatusTooManyRequests, w.Code)
		assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
		assert.NotEmpty(t, w.Header().Get("Retry-After"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
		assert.Equal(t, "rate limit exceeded", body["message"])
	})

	t.Run("keys are independent", func(t *testing.T) {
		handler := RateLimit(RateLimitConfig{Max: 1, Window: time.Minute})(okHandler())

		assert.Equal(t, http.StatusOK, hit(handler, "10.0.0.1:1234", nil).Code)
		assert.Equal(t, http.StatusOK, hit(handler, "10.0.0.2:1234", nil).Code)
		// Port changes do not change the key.
		assert.Equal(t, http.StatusTooManyRequests, hit(handler, "10.0.0.1:5678", nil).Code)
	})

	t.Run("forwarded address wins over remote address", func(t *testing.T) {
		handler := RateLimit(RateLimitConfig{Max: 1, Window: time.Minute})(okHandler())
		xff := map[string]string{"X-Forwarded-For": "203.0.113.50, 70.41.3.18"}

		assert.Equal(t, http.StatusOK, hit(handler, "192.168.1.1:4444", xff).Code)
		assert.Equal(t, http.StatusTooManyRequests, hit(handler, "192.168.1.2:5555", xff).Code)
	})

	t.Run("custom key func", func(t *testing.T) {
		handler := RateLimit(RateLimitConfig{
			Max:    1,
			Window: time.Minute,
			KeyFunc: func(r *http.Request) string {
				return r.Header.Get("X-Client")
			},
		})(okHandler())

		assert.Equal(t, http.StatusOK, hit(handler, "1.1.1.1:1", map[string]string{"X-Client": "a"}).Code)
		assert.Equal(t, http.StatusTooManyRequests, hit(handler, "2.2.2.2:2", map[string]string{"X-Client": "a"}).Code)
		assert.Equal(t, http.StatusOK, hit(handler, "1.1.1.1:1", map[string]string{"X-Client": "b"}).Code)
	})
}

func TestRateLimit_WindowReset(t *testing.T) {
	rl := newRateLimiter(RateLimitConfig{Max: 1, Window: time.Minute})
	now := time.Now()

	_, _, ok := rl.take("k", now)
	require.True(t, ok)
	_, _, ok = rl.take("k", now.Add(time.Second))
	require.False(t, ok)

	// A fresh window admits the key again.
	_, _, ok = rl.take("k", now.Add(time.Minute+time.Second))
	assert.True(t, ok)
}
