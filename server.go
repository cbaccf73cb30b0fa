package main

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ServerConfig holds configuration for the web server
type ServerConfig struct {
	Addr string
	App  *App
}

// NewRouter builds the HTTP routes for app.
func NewRouter(app *App) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(120 * time.Second))

	// Web handlers (HTMX HTML responses)
	webHandler := NewWebHandler(app)
	r.Get("/", webHandler.ChatPage)
	r.Post("/ask", webHandler.Ask)

	// API handlers (JSON responses)
	apiHandler := &APIHandler{App: app}
	r.Route("/api", func(r chi.Router) {
		r.Post("/ask", apiHandler.Ask)
		r.Get("/schema", apiHandler.Schema)
		r.Get("/students", apiHandler.Search)
		r.Get("/students/{roll}", apiHandler.GetStudent)
		r.Get("/summary", apiHandler.Summary)
		r.Get("/classes", apiHandler.Classes)
	})

	r.Handle("/metrics", promhttp.HandlerFor(app.registry, promhttp.HandlerOpts{}))

	return r
}

// StartServer initializes and starts the HTTP server
func StartServer(config ServerConfig) error {
	r := NewRouter(config.App)

	if logger != nil {
		logger.Info("Starting server", "addr", config.Addr)
	}
	return http.ListenAndServe(config.Addr, r)
}
