package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// APIHandler handles JSON API requests
type APIHandler struct {
	App *App
}

type askRequest struct {
	Question string `json:"question"`
}

// Ask runs a question through the pipeline. Failed answers are still 200:
// the failure is part of the returned state.
func (h *APIHandler) Ask(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]string{
			"error": "Invalid JSON body",
		})
		return
	}

	question := strings.TrimSpace(req.Question)
	if question == "" {
		respondJSON(w, http.StatusBadRequest, map[string]string{
			"error": "question is required",
		})
		return
	}

	state := h.App.Ask(r.Context(), question)
	respondJSON(w, http.StatusOK, state)
}

// Schema returns the register summary
func (h *APIHandler) Schema(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.App.Schema())
}

// Search handles API student search requests
func (h *APIHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")

	limit := maxResults
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			respondJSON(w, http.StatusBadRequest, map[string]string{
				"error": "limit must be a positive integer",
			})
			return
		}
		limit = n
	}

	students, err := h.App.db.SearchStudents(query, limit)
	if err != nil {
		logRequestError(r, "Student search failed", err)
		respondJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "Search failed",
		})
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"students": students,
		"count":    len(students),
		"query":    query,
	})
}

// GetStudent handles API requests for a single student
func (h *APIHandler) GetStudent(w http.ResponseWriter, r *http.Request) {
	roll := chi.URLParam(r, "roll")

	student, err := h.App.db.GetStudent(roll)
	if err != nil {
		if errors.Is(err, ErrStudentNotFound) {
			respondJSON(w, http.StatusNotFound, map[string]string{
				"error": "Student not found",
			})
			return
		}
		logRequestError(r, "Database error", err)
		respondJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "Internal server error",
		})
		return
	}

	respondJSON(w, http.StatusOK, student)
}

// Summary returns present and absent counts per class date
func (h *APIHandler) Summary(w http.ResponseWriter, r *http.Request) {
	days, err := h.App.db.DailySummary()
	if err != nil {
		logRequestError(r, "Daily summary failed", err)
		respondJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "Internal server error",
		})
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"days":  days,
		"count": len(days),
	})
}

// Classes lists the classes in the register and the one in scope
func (h *APIHandler) Classes(w http.ResponseWriter, r *http.Request) {
	classes, err := h.App.Classes()
	if err != nil {
		logRequestError(r, "Class listing failed", err)
		respondJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "Internal server error",
		})
		return
	}
	if classes == nil {
		classes = []string{}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"classes":  classes,
		"selected": h.App.Class(),
		"count":    len(classes),
	})
}

// respondJSON is a helper function to send JSON responses
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil && logger != nil {
		logger.Error("JSON encoding error", "error", err)
	}
}

func logRequestError(r *http.Request, msg string, err error) {
	if logger != nil {
		logger.Error(msg, "error", err, "path", r.URL.Path, "request_id", middleware.GetReqID(r.Context()))
	}
}
