package mockapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sadopc/staffdesk/internal/validator"
)

type Response struct {
	Success bool         `json:"success"`
	Message string       `json:"message,omitempty"`
	Data    any          `json:"data,omitempty"`
	Error   *ErrorDetail `json:"error,omitempty"`
}

type ErrorDetail struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		fallback := Response{
			Success: false,
			Error: &ErrorDetail{
				Code:    "ENCODING_ERROR",
				Message: "Failed to encode response",
			},
		}
		_ = json.NewEncoder(w).Encode(fallback)
	}
}

func success(w http.ResponseWriter, message string, data any) {
	writeJSON(w, http.StatusOK, Response{Success: true, Message: message, Data: data})
}

func created(w http.ResponseWriter, message string, data any) {
	writeJSON(w, http.StatusCreated, Response{Success: true, Message: message, Data: data})
}

func failure(w http.ResponseWriter, status int, code, message string, details map[string]string) {
	writeJSON(w, status, Response{
		Success: false,
		Message: message,
		Error:   &ErrorDetail{Code: code, Message: message, Details: details},
	})
}

func badRequest(w http.ResponseWriter, message string) {
	failure(w, http.StatusBadRequest, "BAD_REQUEST", message, nil)
}

func unauthorized(w http.ResponseWriter, message string) {
	failure(w, http.StatusUnauthorized, "UNAUTHORIZED", message, nil)
}

func forbidden(w http.ResponseWriter, message string) {
	failure(w, http.StatusForbidden, "FORBIDDEN", message, nil)
}

// handleError maps store errors to HTTP responses.
func handleError(w http.ResponseWriter, err error) {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		failure(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", validationErrs.First(), validationErrs.ToMap())
		return
	}

	switch {
	case errors.Is(err, ErrInvalidCredentials):
		unauthorized(w, "Invalid email or password")
	case errors.Is(err, ErrNotFound):
		failure(w, http.StatusNotFound, "NOT_FOUND", err.Error(), nil)
	case errors.Is(err, ErrNotPending):
		failure(w, http.StatusConflict, "CONFLICT", "Only pending requests can be changed", nil)
	case errors.Is(err, ErrScheduleExists):
		failure(w, http.StatusConflict, "CONFLICT", "A schedule already exists for this week", nil)
	default:
		failure(w, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "An unexpected error occurred", nil)
	}
}

func decode(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}
