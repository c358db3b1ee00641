package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestClient_Observe(t *testing.T) {
	m := NewClient(prometheus.NewRegistry())

	m.Observe("GET", "items", "ok", 20*time.Millisecond)
	m.Observe("GET", "items", "ok", 10*time.Millisecond)
	m.Observe("POST", "orders", "failure", time.Millisecond)
	m.CacheHit("items")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.requestCounter.WithLabelValues("GET", "items", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requestCounter.WithLabelValues("POST", "orders", "failure")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.cacheHits.WithLabelValues("items")))
}

func TestClient_NilIsNoop(t *testing.T) {
	var m *Client
	assert.NotPanics(t, func() {
		m.Observe("GET", "items", "ok", time.Millisecond)
		m.CacheHit("items")
	})
}

func TestServer_MiddlewareUsesRouteTemplate(t *testing.T) {
	m := NewServer(prometheus.NewRegistry())
	router := mux.NewRouter()
	router.Use(m.Middleware)
	router.HandleFunc("/items/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}).Methods("GET")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/items/42", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requestCounter.WithLabelValues("GET", "/items/{id}", "404")))
}
