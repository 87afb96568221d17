// Package httptransport assembles the HTTP surface: every domain handler
// registers its own sub-router, and the operational endpoints live here.
package httptransport

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"trustbase/pkg/platform/httputil"
)

// Registrar is implemented by every domain handler.
type Registrar interface {
	Register(r chi.Router)
}

// HealthChecker reports the liveness of one dependency.
type HealthChecker func() error

// NewRouter mounts all domain handlers plus /healthz and /metrics. The
// transparency ledger and assistant routes are public; everything else is
// guarded by each handler's own auth middleware.
func NewRouter(handlers []Registrar, health map[string]HealthChecker) http.Handler {
	r := chi.NewRouter()

	for _, handler := range handlers {
		handler.Register(r)
	}

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		status := http.StatusOK
		checks := make(map[string]string, len(health))
		for name, check := range health {
			if err := check(); err != nil {
				status = http.StatusServiceUnavailable
				checks[name] = err.Error()
				continue
			}
			checks[name] = "ok"
		}
		httputil.WriteJSON(w, status, map[string]any{
			"status": http.StatusText(status),
			"checks": checks,
		})
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	return r
}
