package handlers

import (
	"delivery-manifest-service/internal/domain"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("encode failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	writeJSON(w, r, status, map[string]string{"error": msg})
}

// Map a service error onto an HTTP status. Server-side failures are logged
// and reported without detail; a failed import names its route.
func writeServiceError(w http.ResponseWriter, r *http.Request, op string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		zap.L().Error(op+" failed",
			zap.String("req_id", middleware.GetReqID(r.Context())),
			zap.Error(err),
		)
	}

	var importErr *domain.ImportError
	switch {
	case errors.As(err, &importErr):
		writeError(w, r, status, importErr.Summary())
	case status >= http.StatusInternalServerError && status != http.StatusGatewayTimeout:
		writeError(w, r, status, "internal server error")
	default:
		writeError(w, r, status, err.Error())
	}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrEmptyDocument),
		errors.Is(err, domain.ErrNoDeliveriesRecognized):
		return http.StatusUnprocessableEntity
	// An elapsed budget also matches ErrTransactionFailure; check it first.
	case errors.Is(err, domain.ErrBudgetExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, domain.ErrInvalidImport),
		errors.Is(err, domain.ErrUnknownLayout):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidTransition):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
