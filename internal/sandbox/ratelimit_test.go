package sandbox

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiter_InProcessWindow(t *testing.T) {
	clock := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(nil, 2, time.Minute)
	rl.now = func() time.Time { return clock }

	h := rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	call := func(addr string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/items", nil)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	rec := call("10.0.0.1:5000")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "2", rec.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "1", rec.Header().Get("X-RateLimit-Remaining"))

	rec = call("10.0.0.1:5001")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))

	rec = call("10.0.0.1:5002")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	// Other clients keep their own window
	assert.Equal(t, http.StatusNoContent, call("10.0.0.2:5000").Code)

	clock = clock.Add(time.Minute + time.Second)
	assert.Equal(t, http.StatusNoContent, call("10.0.0.1:5003").Code)
}
