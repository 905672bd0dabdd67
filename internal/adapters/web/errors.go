package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"invoice-marshal/internal/app"
	"invoice-marshal/internal/core"

	"github.com/rs/zerolog/log"
)

type errorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	RequestID string `json:"request_id,omitempty"`
}

// writeError writes a structured JSON error response.
func writeError(w http.ResponseWriter, r *http.Request, message, code string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorResponse{
		Error:     message,
		Code:      code,
		RequestID: requestIDFromContext(r.Context()),
	})
}

// writeJSON writes a JSON response with status 200.
func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// writeJSONStatus writes a JSON response with an explicit status code.
func writeJSONStatus(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeDomainError maps the domain error taxonomy onto HTTP statuses:
//
//	ValidationError        → 400
//	NotFoundError          → 404 (includes ownership mismatches)
//	InsufficientStockError → 409
//	MalformedPayloadError  → 422
//
// Anything else is a 500 with the detail kept out of the response body.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		verr  *core.ValidationError
		nf    *core.NotFoundError
		stock *core.InsufficientStockError
		mal   *core.MalformedPayloadError
	)
	switch {
	case errors.As(err, &verr):
		writeError(w, r, verr.Error(), "VALIDATION_FAILED", http.StatusBadRequest)
	case errors.As(err, &nf):
		writeError(w, r, nf.Error(), "NOT_FOUND", http.StatusNotFound)
	case errors.As(err, &stock):
		writeError(w, r, stock.Error(), "INSUFFICIENT_STOCK", http.StatusConflict)
	case errors.As(err, &mal):
		writeError(w, r, mal.Error(), "MALFORMED_PAYLOAD", http.StatusUnprocessableEntity)
	case errors.Is(err, app.ErrInvalidCredentials):
		writeError(w, r, err.Error(), "UNAUTHORIZED", http.StatusUnauthorized)
	default:
		log.Error().Err(err).Str("path", r.URL.Path).Msg("internal error")
		writeError(w, r, "internal server error", "INTERNAL_ERROR", http.StatusInternalServerError)
	}
}
