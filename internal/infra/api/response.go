package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"course-settlement/internal/domain"
	"course-settlement/internal/infra/logging"
)

type envelope struct {
	Success bool       `json:"success"`
	Data    any        `json:"data,omitempty"`
	Error   *errorBody `json:"error,omitempty"`
}

type errorBody struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Kind      string `json:"kind"`
	Retryable bool   `json:"retryable,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(envelope{Success: true, Data: data})
}

// StatusFor maps an error onto the HTTP status of the failure envelope.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrMalformedBody):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrRateLimited):
		return http.StatusTooManyRequests
	}
	switch domain.KindOf(err) {
	case domain.KindValidation:
		return http.StatusUnprocessableEntity
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindAuthorization:
		return http.StatusForbidden
	case domain.KindStateConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func WriteError(w http.ResponseWriter, r *http.Request, err error, logger *zerolog.Logger) {
	WriteErrorStatus(w, r, StatusFor(err), err, logger)
}

// WriteErrorStatus writes the failure envelope with an explicit status.
// Internal details never leave the process.
func WriteErrorStatus(w http.ResponseWriter, r *http.Request, status int, err error, logger *zerolog.Logger) {
	body := &errorBody{Code: "INTERNAL", Message: "internal error", Kind: string(domain.KindInternal)}
	if de, ok := domain.AsError(err); ok && de.Kind != domain.KindInternal {
		body = &errorBody{Code: de.Code, Message: de.Msg, Kind: string(de.Kind), Retryable: de.Retryable()}
	}
	if status >= 500 {
		l := logging.With(r.Context(), logger)
		l.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(envelope{Success: false, Error: body})
}
