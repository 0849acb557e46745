// Package listener serves the health endpoint that probes target.
package listener

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/hazz-dev/echoprobe/internal/httplog"
)

// Router returns the listener's routes. GET /api/health echoes the state
// query parameter as plain text, or an empty body when it is absent.
func Router(logger *slog.Logger) chi.Router {
	if logger == nil {
		logger = slog.Default()
	}
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(httplog.RequestLogger(logger))

	r.Get("/api/health", handleHealth)
	return r
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, r.URL.Query().Get("state"))
}
