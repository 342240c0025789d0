// Package admin exposes an optional status API for the gateway.
package admin

import (
	"encoding/json"
	"net/http"
	"slices"

	"github.com/go-chi/chi/v5"

	"gosuda.org/gateway/gateway/route"
)

// NewHandler returns the admin HTTP handler: liveness plus the configured
// route list. The table is immutable after startup, so the handlers need
// no synchronization.
func NewHandler(table *route.Table) http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Get("/routes", func(w http.ResponseWriter, _ *http.Request) {
		hosts := table.Hosts()
		slices.Sort(hosts)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"count":  len(hosts),
			"routes": hosts,
		})
	})

	return r
}
