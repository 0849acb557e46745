package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/hazz-dev/echoprobe/internal/dashboard"
	"github.com/hazz-dev/echoprobe/internal/history"
	"github.com/hazz-dev/echoprobe/internal/httplog"
	"github.com/hazz-dev/echoprobe/internal/resultlog"
)

// HistoryStore defines the read access the dashboard needs.
type HistoryStore interface {
	LoadAll(ctx context.Context) ([]resultlog.Entry, error)
}

// Server holds the chi router and its dependencies.
type Server struct {
	store  HistoryStore
	page   *dashboard.Page
	router chi.Router
	logger *slog.Logger
}

// New creates a new Server and registers all routes.
func New(store HistoryStore, page *dashboard.Page, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if page == nil {
		page = dashboard.New()
	}
	s := &Server{
		store:  store,
		page:   page,
		router: chi.NewRouter(),
		logger: logger,
	}
	s.registerRoutes()
	return s
}

// Router returns the chi router (for mounting or testing).
func (s *Server) Router() chi.Router {
	return s.router
}

func (s *Server) registerRoutes() {
	r := s.router
	r.Use(middleware.Recoverer)
	r.Use(httplog.RequestLogger(s.logger))

	r.Get("/", s.handleDashboard)
	r.Get("/healthz", s.handleHealthz)
	r.Handle("/assets/*", http.StripPrefix("/assets", dashboard.Assets()))

	r.Group(func(r chi.Router) {
		r.Use(cors.AllowAll().Handler)
		r.Get("/api/history", s.handleHistory)
	})
}

// --- Response helpers ---

type envelope struct {
	Data  interface{} `json:"data"`
	Error string      `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(envelope{Data: data})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(envelope{Error: msg})
}

// --- Handlers ---

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func (s *Server) loadView(ctx context.Context) (history.View, error) {
	entries, err := s.store.LoadAll(ctx)
	if err != nil {
		return history.View{}, err
	}
	return history.Reconcile(entries), nil
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	view, err := s.loadView(r.Context())
	if err != nil {
		s.logger.Error("loading result log", "error", err)
		http.Error(w, "result log unavailable", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.page.Render(w, view); err != nil {
		s.logger.Error("rendering dashboard", "error", err)
	}
}

type historyResponse struct {
	ShowTable bool          `json:"show_table"`
	Rows      []history.Row `json:"rows"`
	Total     int           `json:"total"`
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	const maxLimit = 1000

	limit := 50
	offset := 0

	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid limit parameter")
			return
		}
		if n > maxLimit {
			n = maxLimit
		}
		limit = n
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid offset parameter")
			return
		}
		offset = n
	}

	view, err := s.loadView(r.Context())
	if err != nil {
		s.logger.Error("loading result log", "error", err)
		writeError(w, http.StatusInternalServerError, "result log unavailable")
		return
	}

	total := len(view.Rows)
	start := min(offset, total)
	end := min(start+limit, total)

	writeJSON(w, http.StatusOK, historyResponse{
		ShowTable: view.ShowTable,
		Rows:      view.Rows[start:end],
		Total:     total,
	})
}
