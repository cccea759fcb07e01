package middleware

import (
	"encoding/json"
	"net/http"
	"regexp"
	"unicode/utf8"

	"github.com/villa-concierge/concierge-platform/internal/apperr"
)

const (
	// MaxMessageLength bounds a single chat message, in runes.
	MaxMessageLength = 4000
	// MaxBodyBytes bounds request bodies.
	MaxBodyBytes = 64 << 10
)

var (
	sessionIDRe = regexp.MustCompile(`^[A-Za-z0-9_.:-]{1,128}$`)
	objectIDRe  = regexp.MustCompile(`^[0-9a-fA-F]{24}$`)
)

// ValidateMessageContent validates chat message content. Emptiness is
// checked by the chat service, which owns the guest-facing wording.
func ValidateMessageContent(content string) error {
	if !utf8.ValidString(content) {
		return apperr.Validation("message must be valid UTF-8")
	}
	if utf8.RuneCountInString(content) > MaxMessageLength {
		return apperr.Validation("message is too long")
	}
	return nil
}

// ValidateSessionID validates a client supplied session id. Empty ids are
// allowed; the server generates one.
func ValidateSessionID(id string) error {
	if id == "" || sessionIDRe.MatchString(id) {
		return nil
	}
	return apperr.Validation("invalid session ID format")
}

// ValidateBookingID validates a booking id, a hex ObjectID.
func ValidateBookingID(id string) error {
	if !objectIDRe.MatchString(id) {
		return apperr.Validation("invalid booking ID format")
	}
	return nil
}

// LimitBody caps request body size.
func LimitBody(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Body != nil {
			r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
		}
		next.ServeHTTP(w, r)
	})
}

type errorBody struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(apperr.HTTPStatus(err))
	_ = json.NewEncoder(w).Encode(errorBody{Error: apperr.MessageOf(err)})
}
