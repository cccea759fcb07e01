// Package handler provides HTTP handlers for the API.
package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/villa-concierge/concierge-platform/internal/connmgr"
	"github.com/villa-concierge/concierge-platform/internal/middleware"
	"github.com/villa-concierge/concierge-platform/internal/service"
	"github.com/villa-concierge/concierge-platform/pkg/logger"
)

// Deps are the services the router serves.
type Deps struct {
	Chat     *service.ChatService
	Bookings *service.BookingService
	Auth     *service.AuthService
	Manager  *connmgr.Manager
	Logger   *logger.Logger

	AllowedOrigins []string
	SecureCookies  bool

	// RateLimitRequests per RateLimitWindow for each user or IP on /api.
	// Zero disables the limit.
	RateLimitRequests int
	RateLimitWindow   time.Duration
}

// NewRouter builds the HTTP routes.
func NewRouter(d Deps) http.Handler {
	log := d.Logger
	if log == nil {
		log = logger.NewNop()
	}

	health := NewHealthHandler(d.Manager, d.Chat.LLMAvailable)
	chat := NewChatHandler(d.Chat, log)
	bookings := NewBookingHandler(d.Bookings, log)
	auth := NewAuthHandler(d.Auth, d.SecureCookies, log)

	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging(log))
	r.Use(middleware.SecurityHeaders)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS(d.AllowedOrigins))

	// Health endpoints (no auth required)
	r.Get("/health", health.Health)
	r.Get("/ready", health.Ready)

	// Metrics endpoint
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.LimitBody)
		r.Use(middleware.Authenticate(d.Auth))
		if d.RateLimitRequests > 0 {
			r.Use(middleware.RateLimit(d.RateLimitRequests, d.RateLimitWindow))
		}

		r.Route("/chat", func(r chi.Router) {
			r.Post("/message", chat.Message)
			r.Post("/init", chat.Init)
			r.Post("/clear-history", chat.ClearHistory)
			r.Get("/history/{sessionId}", chat.History)
		})

		r.Route("/bookings", func(r chi.Router) {
			r.Get("/", bookings.List)
			r.Post("/", bookings.Create)
			r.Post("/check-availability", bookings.CheckAvailability)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", bookings.Get)
				r.Patch("/status", bookings.UpdateStatus)
				r.Patch("/special-requests", bookings.UpdateSpecialRequests)
			})
		})

		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", auth.Register)
			r.Post("/login", auth.Login)
			r.Post("/refresh", auth.Refresh)
			r.Post("/logout", auth.Logout)
			r.With(middleware.RequireToken).Get("/me", auth.Me)
			r.Get("/oauth/{provider}", auth.OAuthStart)
			r.Get("/oauth/{provider}/callback", auth.OAuthCallback)
		})
	})

	return r
}
