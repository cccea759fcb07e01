package handler

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/villa-concierge/concierge-platform/internal/apperr"
	"github.com/villa-concierge/concierge-platform/internal/middleware"
	"github.com/villa-concierge/concierge-platform/internal/model"
	"github.com/villa-concierge/concierge-platform/internal/service"
	"github.com/villa-concierge/concierge-platform/pkg/logger"
)

var errLoginRequired = apperr.E(apperr.KindAuth, "user id is required")

// BookingHandler handles room booking endpoints. Every route acts on behalf
// of a user, taken from the access token, the X-User-Id header or the
// request body, in that order.
type BookingHandler struct {
	bookings *service.BookingService
	logger   *logger.Logger
}

// NewBookingHandler creates a new booking handler.
func NewBookingHandler(bookings *service.BookingService, log *logger.Logger) *BookingHandler {
	return &BookingHandler{
		bookings: bookings,
		logger:   log.Named("booking_handler"),
	}
}

func actingUser(r *http.Request, fromBody string) (string, error) {
	if id := middleware.GetUserID(r.Context()); id != "" {
		return id, nil
	}
	if id := strings.TrimSpace(fromBody); id != "" {
		return id, nil
	}
	return "", errLoginRequired
}

func bookingID(r *http.Request) (string, error) {
	id := chi.URLParam(r, "id")
	if err := middleware.ValidateBookingID(id); err != nil {
		return "", err
	}
	return id, nil
}

// List handles GET /api/bookings
func (h *BookingHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, err := actingUser(r, "")
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	bookings, err := h.bookings.GetByUser(r.Context(), userID)
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, bookings)
}

// Get handles GET /api/bookings/{id}
func (h *BookingHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, err := actingUser(r, "")
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	id, err := bookingID(r)
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	booking, err := h.bookings.GetByID(r.Context(), id, userID)
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, booking)
}

// Create handles POST /api/bookings
func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.CreateBookingRequest
	if err := decodeJSON(r, &req, false); err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	userID, err := actingUser(r, req.UserID)
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	booking, err := h.bookings.Create(r.Context(), userID, req)
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, booking)
}

// UpdateStatus handles PATCH /api/bookings/{id}/status
func (h *BookingHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req model.UpdateStatusRequest
	if err := decodeJSON(r, &req, false); err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	userID, err := actingUser(r, req.UserID)
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	id, err := bookingID(r)
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	booking, err := h.bookings.UpdateStatus(r.Context(), id, userID, req.Status)
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, booking)
}

// UpdateSpecialRequests handles PATCH /api/bookings/{id}/special-requests
func (h *BookingHandler) UpdateSpecialRequests(w http.ResponseWriter, r *http.Request) {
	var req model.UpdateSpecialRequestsRequest
	if err := decodeJSON(r, &req, false); err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	userID, err := actingUser(r, req.UserID)
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	id, err := bookingID(r)
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	booking, err := h.bookings.UpdateSpecialRequests(r.Context(), id, userID, req.SpecialRequests)
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, booking)
}

// CheckAvailability handles POST /api/bookings/check-availability
func (h *BookingHandler) CheckAvailability(w http.ResponseWriter, r *http.Request) {
	var req model.AvailabilityRequest
	if err := decodeJSON(r, &req, false); err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	if _, err := actingUser(r, req.UserID); err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	availability, err := h.bookings.CheckAvailability(r.Context(), req.CheckIn, req.CheckOut, req.RoomType)
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, availability)
}
