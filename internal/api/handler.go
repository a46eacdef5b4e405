// Package api provides HTTP handlers for the simulation API.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/abelikov/skillsim/internal/catalog"
	"github.com/abelikov/skillsim/internal/llm"
	"github.com/abelikov/skillsim/internal/sim"
)

// maxRequestBodySize is the maximum allowed request body size (1MB).
const maxRequestBodySize = 1 << 20

// Handler serves the simulation endpoints.
type Handler struct {
	ctrl *sim.Controller
}

// NewHandler creates a new Handler.
func NewHandler(ctrl *sim.Controller) *Handler {
	return &Handler{ctrl: ctrl}
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

// decode reads a size-limited JSON request body into v.
func decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		Error(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

// respondError maps controller errors to HTTP responses. Validation and
// not-found conditions become 400s; upstream auth and rate-limit failures
// keep their status; everything else is a 500 with the fallback message.
func respondError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, catalog.ErrNotFound):
		Error(w, http.StatusBadRequest, "Invalid personality selected")
	case errors.Is(err, sim.ErrSessionNotStarted):
		Error(w, http.StatusBadRequest, "Simulation not started")
	case errors.Is(err, sim.ErrInvalidInput):
		Error(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, sim.ErrNoData):
		Error(w, http.StatusBadRequest, "No simulation data to evaluate")
	default:
		var apiErr *llm.APIError
		if errors.As(err, &apiErr) {
			switch apiErr.StatusCode {
			case http.StatusUnauthorized:
				slog.Error("Upstream rejected API key", "error", err)
				Error(w, http.StatusUnauthorized, "Invalid API key")
				return
			case http.StatusTooManyRequests:
				slog.Error("Upstream rate limit exceeded", "error", err)
				Error(w, http.StatusTooManyRequests, "Rate limit exceeded")
				return
			}
		}
		slog.Error(fallback, "error", err)
		Error(w, http.StatusInternalServerError, fallback)
	}
}
