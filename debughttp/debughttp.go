// Package debughttp exposes a runtime's scheduler statistics over HTTP,
// for the ad hoc "curl the debug port" workflow operators reach for before
// wiring up a real metrics pipeline.
package debughttp

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/tcard/mcoro"
)

// NewRouter returns a chi.Router serving rt's statistics at GET /stats and
// a trivial liveness check at GET /healthz.
func NewRouter(rt *mcoro.Runtime) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	r.Get("/stats", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(rt.Stats())
	})

	return r
}
