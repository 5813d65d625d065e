// Package response writes the JSON envelope shared by every HTTP handler
// and maps the apperror taxonomy onto status codes.
package response

import (
	"errors"
	"net/http"

	"github.com/fekuna/omnipos-catalog-sync/internal/apperror"
	"github.com/go-chi/render"
)

type APIResponse[T any] struct {
	Success bool      `json:"success"`
	Data    T         `json:"data,omitempty"`
	Error   *APIError `json:"error,omitempty"`
	// Degraded is set when the write committed but the search index could
	// not be updated.
	Degraded bool `json:"degraded,omitempty"`
}

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func JSON[T any](w http.ResponseWriter, r *http.Request, status int, data T) {
	render.Status(r, status)
	render.JSON(w, r, APIResponse[T]{Success: true, Data: data})
}

// Result writes data with a 200, or the error mapping when data is nil. A
// transient error next to a non-nil result is reported as degraded.
func Result[T any](w http.ResponseWriter, r *http.Request, data *T, err error) {
	if err != nil && (data == nil || !apperror.IsTransient(err)) {
		Error(w, r, err)
		return
	}
	render.Status(r, http.StatusOK)
	render.JSON(w, r, APIResponse[*T]{Success: true, Data: data, Degraded: err != nil})
}

func Error(w http.ResponseWriter, r *http.Request, err error) {
	status, code := Status(err)
	render.Status(r, status)
	render.JSON(w, r, APIResponse[any]{
		Success: false,
		Error:   &APIError{Code: code, Message: err.Error()},
	})
}

func BadRequest(w http.ResponseWriter, r *http.Request, msg string) {
	render.Status(r, http.StatusBadRequest)
	render.JSON(w, r, APIResponse[any]{
		Success: false,
		Error:   &APIError{Code: "BAD_REQUEST", Message: msg},
	})
}

func Status(err error) (int, string) {
	switch {
	case errors.Is(err, apperror.ErrNotFound):
		return http.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, apperror.ErrValidationConflict):
		return http.StatusConflict, "VALIDATION_CONFLICT"
	case errors.Is(err, apperror.ErrSyncInProgress):
		return http.StatusConflict, "SYNC_IN_PROGRESS"
	case errors.Is(err, apperror.ErrCategoryCycle):
		return http.StatusUnprocessableEntity, "CATEGORY_CYCLE"
	case errors.Is(err, apperror.ErrTransientIO):
		return http.StatusBadGateway, "UPSTREAM_UNAVAILABLE"
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR"
	}
}
