package gateway

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mcdev12/scorekeeper/go/internal/scorelog"
	"github.com/mcdev12/scorekeeper/go/internal/timer"
	"github.com/rs/zerolog/log"
)

type errorResponse struct {
	Error string `json:"error"`
}

// statusFor maps domain errors onto HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, scorelog.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, scorelog.ErrNotFound), errors.Is(err, timer.ErrUnknownTimer):
		return http.StatusNotFound
	case errors.Is(err, scorelog.ErrEmptyLog), errors.Is(err, scorelog.ErrSubmitInProgress):
		return http.StatusConflict
	case errors.Is(err, scorelog.ErrTransport):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.Error().Err(err).Msg("request failed")
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}

// decode reads a JSON body into v, replying 400 itself when the body is malformed
func decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body: " + err.Error()})
		return false
	}
	return true
}
