package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
)

// Client records outgoing API calls
type Client struct {
	requestCounter *prometheus.CounterVec
	requestLatency *prometheus.HistogramVec
	cacheHits      *prometheus.CounterVec
}

// NewClient creates and registers client metrics on reg
func NewClient(reg prometheus.Registerer) *Client {
	requestCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_client_requests_total",
			Help: "Total number of API requests issued by the storefront client",
		},
		[]string{"method", "resource", "outcome"},
	)

	requestLatency := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "storefront_client_request_duration_seconds",
			Help:    "Duration of storefront API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "resource"},
	)

	cacheHits := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_client_cache_hits_total",
			Help: "Number of API reads served from the query cache",
		},
		[]string{"resource"},
	)

	reg.MustRegister(requestCounter, requestLatency, cacheHits)

	return &Client{
		requestCounter: requestCounter,
		requestLatency: requestLatency,
		cacheHits:      cacheHits,
	}
}

// Observe records one finished request. outcome is "ok", "failure" or
// "transport".
func (m *Client) Observe(method, resource, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.requestLatency.WithLabelValues(method, resource).Observe(d.Seconds())
	m.requestCounter.WithLabelValues(method, resource, outcome).Inc()
}

// CacheHit records a read served from cache
func (m *Client) CacheHit(resource string) {
	if m == nil {
		return
	}
	m.cacheHits.WithLabelValues(resource).Inc()
}

// Server records sandbox HTTP traffic
type Server struct {
	requestCounter *prometheus.CounterVec
	requestLatency *prometheus.HistogramVec
}

// NewServer creates and registers server metrics on reg
func NewServer(reg prometheus.Registerer) *Server {
	requestCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_sandbox_requests_total",
			Help: "Total number of requests to the sandbox backend",
		},
		[]string{"method", "endpoint", "status"},
	)

	requestLatency := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "storefront_sandbox_request_duration_seconds",
			Help:    "Duration of sandbox requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	reg.MustRegister(requestCounter, requestLatency)

	return &Server{requestCounter: requestCounter, requestLatency: requestLatency}
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Middleware wraps handlers with Prometheus metrics, labelled by route template
func (m *Server) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		endpoint := r.URL.Path
		if route := mux.CurrentRoute(r); route != nil {
			if tpl, err := route.GetPathTemplate(); err == nil {
				endpoint = tpl
			}
		}

		m.requestLatency.WithLabelValues(r.Method, endpoint).Observe(time.Since(start).Seconds())
		m.requestCounter.WithLabelValues(r.Method, endpoint, strconv.Itoa(rw.statusCode)).Inc()
	})
}
