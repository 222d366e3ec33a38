// Package web holds the HTTP plumbing shared by the REST handlers:
// JSON responses, the error body, path and query parameter parsing, and middleware.
package web

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/google/uuid"
)

// CountHeader carries the number of items in a list response body.
const CountHeader = "count"

// ErrorResponse is the body of every error response.
type ErrorResponse struct {
	StatusCode int    `json:"status_code"`
	Message    string `json:"message"`
}

// ValidationErrorResponse is returned when a request body fails validation.
type ValidationErrorResponse struct {
	ErrorResponse
	ValidationErrors map[string]string `json:"validation_errors"`
}

func RespondJSON(w http.ResponseWriter, logger *slog.Logger, status int, payload any) {
	if payload == nil {
		w.WriteHeader(status)
		return
	}

	response, err := json.Marshal(payload)
	if err != nil {
		logger.Error("Error encoding response to JSON", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(response)
}

// RespondList writes a JSON array and sets the count header to its length.
func RespondList[T any](w http.ResponseWriter, logger *slog.Logger, items []T) {
	if items == nil {
		items = []T{}
	}
	w.Header().Set(CountHeader, strconv.Itoa(len(items)))
	RespondJSON(w, logger, http.StatusOK, items)
}

func RespondError(w http.ResponseWriter, logger *slog.Logger, status int, message string) {
	RespondJSON(w, logger, status, ErrorResponse{StatusCode: status, Message: message})
}

// RespondValidationError writes a 400 response listing the failed rule per field.
func RespondValidationError(w http.ResponseWriter, logger *slog.Logger, fields map[string]string) {
	RespondJSON(w, logger, http.StatusBadRequest, ValidationErrorResponse{
		ErrorResponse:    ErrorResponse{StatusCode: http.StatusBadRequest, Message: "Validation failed"},
		ValidationErrors: fields,
	})
}

// ParseID extracts and validates the ID from the request path. Returns the ID and a boolean indicating success.
func ParseID(w http.ResponseWriter, r *http.Request, logger *slog.Logger) (uuid.UUID, bool) {
	pathValueID := r.PathValue("id")
	id, err := uuid.Parse(pathValueID)
	if err != nil {
		RespondError(w, logger, http.StatusBadRequest, fmt.Sprintf("Invalid ID: %s", pathValueID))
		return uuid.UUID{}, false
	}
	return id, true
}
