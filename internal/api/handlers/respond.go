package handlers

import (
	"encoding/json"
	"net/http"
	"sort"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/sidrstudio/atlas/internal/api/dto"
	"github.com/sidrstudio/atlas/internal/apperror"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeData wraps the payload in the {"data": ...} success envelope.
func writeData(w http.ResponseWriter, status int, v any) {
	writeJSON(w, status, dto.Response{Data: v})
}

// writeError renders any error as the structured envelope; errors outside
// the apperror taxonomy become a 500.
func writeError(w http.ResponseWriter, err error) {
	appErr := apperror.From(err)
	writeJSON(w, appErr.StatusCode, dto.ErrorResponse{
		StatusCode:  appErr.StatusCode,
		Message:     appErr.Message,
		Description: appErr.Description,
	})
}

func writeBadRequest(w http.ResponseWriter, description string) {
	writeError(w, apperror.BadRequest("Invalid request body", description))
}

// writeValidationErrors flattens field errors into one description line,
// sorted for stable output.
func writeValidationErrors(w http.ResponseWriter, errs map[string]string) {
	parts := make([]string, 0, len(errs))
	for field, msg := range errs {
		parts = append(parts, field+": "+msg)
	}
	sort.Strings(parts)
	writeError(w, apperror.BadRequest("Validation failed", strings.Join(parts, "; ")))
}

func decodeJSON(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}

// uuidParam parses the {id}-style URL parameter, returning uuid.Nil on a
// malformed value. Callers treat Nil as not-found, matching the behavior
// of looking up a nonexistent row.
func uuidParam(r *http.Request, name string) uuid.UUID {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return uuid.Nil
	}
	return id
}
