package handler

import (
	"crypto/subtle"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/villa-concierge/concierge-platform/internal/apperr"
	"github.com/villa-concierge/concierge-platform/internal/middleware"
	"github.com/villa-concierge/concierge-platform/internal/model"
	"github.com/villa-concierge/concierge-platform/internal/service"
	"github.com/villa-concierge/concierge-platform/pkg/logger"
)

const (
	stateCookie       = "oauth_state"
	stateCookieMaxAge = 600
)

var errBadState = apperr.E(apperr.KindAuth, "invalid oauth state")

// AuthHandler handles account and token endpoints.
type AuthHandler struct {
	auth   *service.AuthService
	logger *logger.Logger
	// secure marks the OAuth state cookie Secure.
	secure bool
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(auth *service.AuthService, secureCookies bool, log *logger.Logger) *AuthHandler {
	return &AuthHandler{
		auth:   auth,
		logger: log.Named("auth_handler"),
		secure: secureCookies,
	}
}

// Register handles POST /api/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req model.RegisterRequest
	if err := decodeJSON(r, &req, false); err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	pair, err := h.auth.Register(r.Context(), req)
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, pair)
}

// Login handles POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if err := decodeJSON(r, &req, false); err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	pair, err := h.auth.Login(r.Context(), req)
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, pair)
}

// Refresh handles POST /api/auth/refresh
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req model.RefreshRequest
	if err := decodeJSON(r, &req, false); err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	pair, err := h.auth.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, pair)
}

// Logout handles POST /api/auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	var req model.RefreshRequest
	if err := decodeJSON(r, &req, false); err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	if err := h.auth.Logout(r.Context(), req.RefreshToken); err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, successResponse{Success: true})
}

// Me handles GET /api/auth/me. It requires a valid access token.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetClaims(r.Context())
	if claims == nil {
		writeAppError(w, h.logger, apperr.E(apperr.KindAuth, "authentication required"))
		return
	}
	user, err := h.auth.Me(r.Context(), claims.Subject)
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// OAuthStart handles GET /api/auth/oauth/{provider}. It redirects to the
// provider's consent page and remembers the state in a short-lived cookie.
func (h *AuthHandler) OAuthStart(w http.ResponseWriter, r *http.Request) {
	state := uuid.NewString()
	url, err := h.auth.OAuthURL(chi.URLParam(r, "provider"), state)
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	http.SetCookie(w, h.stateCookie(state, stateCookieMaxAge))
	http.Redirect(w, r, url, http.StatusFound)
}

// OAuthCallback handles GET /api/auth/oauth/{provider}/callback
func (h *AuthHandler) OAuthCallback(w http.ResponseWriter, r *http.Request) {
	provider := chi.URLParam(r, "provider")
	q := r.URL.Query()

	cookie, err := r.Cookie(stateCookie)
	if err != nil || cookie.Value == "" ||
		subtle.ConstantTimeCompare([]byte(cookie.Value), []byte(q.Get("state"))) != 1 {
		writeAppError(w, h.logger, errBadState)
		return
	}
	http.SetCookie(w, h.stateCookie("", -1))

	if reason := q.Get("error"); reason != "" {
		h.logger.Info("oauth sign-in declined", zap.String("provider", provider), zap.String("reason", reason))
		writeAppError(w, h.logger, apperr.E(apperr.KindAuth, "sign-in was cancelled"))
		return
	}

	pair, err := h.auth.OAuthCallback(r.Context(), provider, q.Get("code"))
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, pair)
}

func (h *AuthHandler) stateCookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     stateCookie,
		Value:    value,
		Path:     "/api/auth/oauth",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	}
}
