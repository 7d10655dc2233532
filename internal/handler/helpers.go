package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/boddenberg/moneta-ledger/internal/domain"

	"go.uber.org/zap"
)

// ============================================================
// Shared helper functions
// ============================================================

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// maxBodyBytes caps request bodies; ledger payloads are small.
const maxBodyBytes = 1 << 20

// decodeJSON reads a JSON request body into dst, writing a 400 on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// orEmpty keeps list responses as JSON arrays rather than null.
func orEmpty[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}

// handleServiceError maps domain errors to HTTP responses. Client errors
// are logged at debug, storage failures at error.
func handleServiceError(w http.ResponseWriter, err error, logger *zap.Logger) {
	status, msg := statusFor(err)
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", zap.Int("status", status), zap.Error(err))
	} else {
		logger.Debug("request rejected", zap.Int("status", status), zap.String("error", err.Error()))
	}
	writeError(w, status, msg)
}

func statusFor(err error) (int, string) {
	var (
		notFound    *domain.ErrNotFound
		validation  *domain.ErrValidation
		conflict    *domain.ErrConflict
		circuitOpen *domain.ErrCircuitOpen
		external    *domain.ErrExternalService
	)
	switch {
	case errors.As(err, &notFound):
		return http.StatusNotFound, notFound.Error()
	case errors.As(err, &validation):
		return http.StatusBadRequest, validation.Error()
	case errors.As(err, &conflict):
		return http.StatusConflict, conflict.Error()
	case errors.As(err, &circuitOpen):
		return http.StatusServiceUnavailable, circuitOpen.Error()
	case errors.As(err, &external):
		return http.StatusBadGateway, "storage unavailable: " + external.Service
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}
