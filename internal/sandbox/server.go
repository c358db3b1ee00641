package sandbox

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"github.com/tair/storefront/internal/api"
	"github.com/tair/storefront/pkg/metrics"
)

// ServiceName identifies the sandbox in health checks and traces
const ServiceName = "storefront-sandbox"

// ServerConfig assembles the HTTP stack around a Handler
type ServerConfig struct {
	CORSOrigins   []string
	EnableLogging bool
	EnableTracing bool
	Metrics       *metrics.Server
	Gatherer      prometheus.Gatherer
	RateLimiter   *RateLimiter
}

// NewServer builds the router with middlewares, health and metrics
// endpoints, wrapped in CORS.
func NewServer(h *Handler, cfg ServerConfig) http.Handler {
	router := mux.NewRouter()

	RegisterMiddlewares(router, MiddlewareConfig{
		EnableLogging: cfg.EnableLogging,
		EnableTracing: cfg.EnableTracing,
		Metrics:       cfg.Metrics,
		RateLimiter:   cfg.RateLimiter,
	})

	h.RegisterRoutes(router)
	router.HandleFunc("/health", h.HealthCheck).Methods("GET")

	if cfg.Gatherer != nil {
		router.Handle("/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	}

	origins := cfg.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	c := cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})
	return c.Handler(router)
}

// HealthCheck handles GET /health
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, api.HealthOutput{OK: true, Service: ServiceName, Status: "healthy"})
}
