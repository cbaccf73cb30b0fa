package main

import (
	"embed"
	"html/template"
	"net/http"
	"strings"
)

//go:embed templates/*.html templates/partials/*.html
var templateFS embed.FS

// WebHandler handles HTMX HTML requests
type WebHandler struct {
	App       *App
	templates *template.Template
}

// NewWebHandler creates a new WebHandler with parsed templates
func NewWebHandler(app *App) *WebHandler {
	tmpl := template.Must(template.ParseFS(templateFS, "templates/*.html", "templates/partials/*.html"))
	return &WebHandler{
		App:       app,
		templates: tmpl,
	}
}

// ChatPage renders the main chat page
func (h *WebHandler) ChatPage(w http.ResponseWriter, r *http.Request) {
	data := map[string]interface{}{
		"Title":        "attendq",
		"Schema":       h.App.Schema(),
		"LLMAvailable": h.App.LLMAvailable(),
	}

	if err := h.templates.ExecuteTemplate(w, "index.html", data); err != nil {
		logRequestError(r, "Template error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

// Ask answers a question and returns the answer partial
func (h *WebHandler) Ask(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	question := strings.TrimSpace(r.FormValue("question"))
	if question == "" {
		http.Error(w, "Question is required", http.StatusBadRequest)
		return
	}

	state := h.App.Ask(r.Context(), question)

	data := map[string]interface{}{
		"State": state,
		"OK":    state.Result.OK(),
	}

	if err := h.templates.ExecuteTemplate(w, "answer.html", data); err != nil {
		logRequestError(r, "Template error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}
