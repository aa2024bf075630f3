// Package httptransport is the thin HTTP layer. Handlers decode, delegate to
// the domain services and encode; business rules stay out of this package.
package httptransport

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"factgate/internal/platform/metrics"
	"factgate/pkg/platform/middleware/auth"
	"factgate/pkg/platform/middleware/metadata"
	"factgate/pkg/platform/middleware/requestid"
	"factgate/pkg/platform/middleware/requesttime"
)

// Registrar mounts a handler's routes on a router.
type Registrar interface {
	Register(r chi.Router)
}

// RouterConfig carries everything the router needs to assemble the
// middleware chain and the endpoints.
type RouterConfig struct {
	Logger      *slog.Logger
	Metrics     *metrics.Metrics
	Validator   auth.TokenValidator
	Revocations auth.RevocationChecker
	Snapshots   auth.SnapshotSource
	Handlers    []Registrar
}

// NewRouter wires the public endpoints. Everything under /v1 requires a
// bearer token; health and metrics stay open.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(requestid.Middleware)
	r.Use(requesttime.Middleware)
	r.Use(metadata.ClientMetadata)
	r.Use(chimiddleware.Timeout(30 * time.Second))
	r.Use(observe(cfg.Metrics))

	r.Get("/healthz", handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/v1", func(v1 chi.Router) {
		v1.Use(auth.RequireAuth(cfg.Validator, cfg.Revocations, cfg.Snapshots, cfg.Logger))
		for _, h := range cfg.Handlers {
			h.Register(v1)
		}
	})

	return r
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

// observe records request latency and in-flight count per route.
func observe(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			release := m.TrackInFlight()
			defer release()

			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			route := chi.RouteContext(r.Context()).RoutePattern()
			m.ObserveRequest(r.Method, route, strconv.Itoa(ww.Status()), start)
		})
	}
}
