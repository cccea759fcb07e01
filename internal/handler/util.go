package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/villa-concierge/concierge-platform/internal/apperr"
	"github.com/villa-concierge/concierge-platform/pkg/logger"
)

// msgUnavailable replaces upstream error detail in responses.
const msgUnavailable = "Servizio temporaneamente non disponibile. Riprovi tra qualche minuto."

var errBadBody = apperr.Validation("invalid request body")

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{
		"error": message,
	})
}

// writeAppError translates err into a status and a client-safe message.
func writeAppError(w http.ResponseWriter, log *logger.Logger, err error) {
	status := apperr.HTTPStatus(err)
	message := apperr.MessageOf(err)
	switch apperr.KindOf(err) {
	case apperr.KindUpstream:
		log.Warn("upstream unavailable", zap.Error(err))
		message = msgUnavailable
	case apperr.KindInternal:
		log.Error("request failed", zap.Error(err))
	}
	writeError(w, status, message)
}

// decodeJSON reads the request body into v. An empty body is accepted when
// optional is set.
func decodeJSON(r *http.Request, v interface{}, optional bool) error {
	if r.Body == nil {
		if optional {
			return nil
		}
		return errBadBody
	}
	err := json.NewDecoder(r.Body).Decode(v)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, io.EOF) && optional:
		return nil
	default:
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return apperr.Validation("request body too large")
		}
		return errBadBody
	}
}

type successResponse struct {
	Success bool `json:"success"`
}
