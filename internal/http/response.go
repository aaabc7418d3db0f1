package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/nutricoach/nutricoach/internal/domain"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"
)

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		zlog.Error().Err(err).Msg("failed to encode response")
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}

// handleError maps domain errors onto HTTP statuses. Server-side failures
// are logged with the cause and reported with a generic message.
func handleError(w http.ResponseWriter, r *http.Request, err error) {
	log := zerolog.Ctx(r.Context())

	switch {
	case errors.Is(err, domain.ErrValidation):
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, domain.ErrNotFound):
		respondError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, domain.ErrUpstream):
		log.Error().Err(err).Msg("upstream failure")
		respondError(w, http.StatusInternalServerError, "upstream_error", "upstream service unavailable")
	case errors.Is(err, domain.ErrStorage):
		log.Error().Err(err).Msg("storage failure")
		respondError(w, http.StatusInternalServerError, "storage_error", "internal server error")
	case errors.Is(err, context.DeadlineExceeded):
		log.Error().Err(err).Msg("request timed out")
		respondError(w, http.StatusGatewayTimeout, "timeout", "request timed out")
	default:
		log.Error().Err(err).Msg("request failed")
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

// pathID parses a positive integer URL parameter.
func pathID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
