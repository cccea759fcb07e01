// Package service provides business logic for the concierge platform.
package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/villa-concierge/concierge-platform/internal/apperr"
	"github.com/villa-concierge/concierge-platform/internal/model"
	natsclient "github.com/villa-concierge/concierge-platform/internal/nats"
	"github.com/villa-concierge/concierge-platform/internal/store"
	"github.com/villa-concierge/concierge-platform/pkg/logger"
	"github.com/villa-concierge/concierge-platform/pkg/metrics"
)

const (
	maxSpecialRequests = 1000
	publishTimeout     = 2 * time.Second
)

var (
	errUserRequired   = apperr.E(apperr.KindAuth, "user id is required")
	errBookingMissing = apperr.E(apperr.KindNotFoundOrForbidden, "booking not found")
)

// BookingService handles booking operations. Every booking is scoped to
// the user that owns it.
type BookingService struct {
	bookings store.Repository[model.Booking]
	events   natsclient.Publisher
	logger   *logger.Logger
	now      func() time.Time
}

// NewBookingService creates a new booking service. events may be nil.
func NewBookingService(bookings store.Repository[model.Booking], events natsclient.Publisher, log *logger.Logger) *BookingService {
	if events == nil {
		events = natsclient.NopPublisher{}
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &BookingService{
		bookings: bookings,
		events:   events,
		logger:   log.Named("booking"),
		now:      time.Now,
	}
}

// ParseDate accepts YYYY-MM-DD or RFC3339 and returns the time in UTC.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	return time.Time{}, apperr.Validation(fmt.Sprintf("invalid date %q, expected YYYY-MM-DD", s))
}

func parseStay(checkIn, checkOut string) (time.Time, time.Time, error) {
	in, err := ParseDate(checkIn)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	out, err := ParseDate(checkOut)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if !out.After(in) {
		return time.Time{}, time.Time{}, apperr.Validation("check-out must be after check-in")
	}
	return in, out, nil
}

func parseRoomType(s string) (model.RoomType, error) {
	for _, t := range model.RoomTypes {
		if strings.EqualFold(string(t), strings.TrimSpace(s)) {
			return t, nil
		}
	}
	return "", apperr.Validation(fmt.Sprintf("unknown room type %q", s))
}

// CheckAvailability reports whether roomType is free for [checkIn, checkOut)
// and lists the non-cancelled bookings that overlap it.
func (s *BookingService) CheckAvailability(ctx context.Context, checkIn, checkOut, roomType string) (*model.Availability, error) {
	in, out, err := parseStay(checkIn, checkOut)
	if err != nil {
		return nil, err
	}
	rt, err := parseRoomType(roomType)
	if err != nil {
		return nil, err
	}

	conflicts, err := s.conflicts(ctx, rt, in, out)
	if err != nil {
		metrics.RecordBooking("check_availability", "error")
		return nil, fmt.Errorf("check availability: %w", err)
	}
	metrics.RecordBooking("check_availability", "ok")
	return &model.Availability{Available: len(conflicts) == 0, Conflicts: conflicts}, nil
}

func (s *BookingService) conflicts(ctx context.Context, rt model.RoomType, in, out time.Time) ([]model.Booking, error) {
	return s.bookings.Find(ctx, store.Where(
		store.Eq("roomType", rt),
		store.Ne("status", model.StatusCancelled),
		store.Lt("checkIn", out),
		store.Gt("checkOut", in),
	))
}

// Create validates and stores a new booking for userID. Nothing is stored
// when validation fails or the room is already taken. The availability check
// and the insert are not atomic.
func (s *BookingService) Create(ctx context.Context, userID string, req model.CreateBookingRequest) (*model.Booking, error) {
	if userID == "" {
		return nil, errUserRequired
	}
	guest := strings.TrimSpace(req.GuestName)
	if guest == "" {
		return nil, apperr.Validation("guest name is required")
	}
	in, out, err := parseStay(req.CheckIn, req.CheckOut)
	if err != nil {
		return nil, err
	}
	rt, err := parseRoomType(string(req.RoomType))
	if err != nil {
		return nil, err
	}
	if req.NumberOfGuests < 1 || req.NumberOfGuests > rt.MaxGuests() {
		return nil, apperr.Validation(fmt.Sprintf("number of guests must be between 1 and %d for a %s room", rt.MaxGuests(), rt))
	}
	if len(req.SpecialRequests) > maxSpecialRequests {
		return nil, apperr.Validation("special requests are too long")
	}

	conflicts, err := s.conflicts(ctx, rt, in, out)
	if err != nil {
		metrics.RecordBooking("create", "error")
		return nil, fmt.Errorf("create booking: %w", err)
	}
	if len(conflicts) > 0 {
		metrics.RecordBooking("create", "conflict")
		return nil, apperr.E(apperr.KindConflict, "room not available for the selected dates")
	}

	now := s.now().UTC().Truncate(time.Millisecond)
	b := model.Booking{
		ID:              primitive.NewObjectID().Hex(),
		GuestName:       guest,
		UserID:          userID,
		CheckIn:         in,
		CheckOut:        out,
		NumberOfGuests:  req.NumberOfGuests,
		RoomType:        rt,
		Status:          model.StatusPending,
		SpecialRequests: strings.TrimSpace(req.SpecialRequests),
		TotalPrice:      req.TotalPrice,
		PaymentStatus:   model.PaymentPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if b.TotalPrice <= 0 {
		b.TotalPrice = float64(b.Nights()) * rt.NightlyRate()
	}

	if err := s.bookings.Insert(ctx, b); err != nil {
		metrics.RecordBooking("create", "error")
		return nil, fmt.Errorf("create booking: %w", err)
	}
	metrics.RecordBooking("create", "ok")
	s.logger.Info("booking created",
		zap.String("booking_id", b.ID),
		zap.String("user_id", userID),
		zap.String("room_type", string(rt)),
	)
	s.publish(ctx, model.EventBookingCreated, b, map[string]any{
		"roomType":   rt,
		"checkIn":    b.CheckIn.Format(time.DateOnly),
		"checkOut":   b.CheckOut.Format(time.DateOnly),
		"totalPrice": b.TotalPrice,
	})
	return &b, nil
}

// GetByUser lists the bookings owned by userID.
func (s *BookingService) GetByUser(ctx context.Context, userID string) ([]model.Booking, error) {
	if userID == "" {
		return nil, errUserRequired
	}
	bookings, err := s.bookings.Find(ctx, store.Where(store.Eq("userId", userID)))
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	return bookings, nil
}

// GetByID returns the booking with id if userID owns it. A booking that
// exists but belongs to someone else is reported as not found.
func (s *BookingService) GetByID(ctx context.Context, id, userID string) (*model.Booking, error) {
	if userID == "" {
		return nil, errUserRequired
	}
	b, err := s.bookings.FindOne(ctx, owned(id, userID))
	if err != nil {
		if apperr.KindOf(err) == apperr.KindNotFoundOrForbidden {
			return nil, errBookingMissing
		}
		return nil, fmt.Errorf("get booking: %w", err)
	}
	return &b, nil
}

// UpdateStatus moves a booking to status. Values outside the four booking
// statuses fail with apperr.ErrInvalidStatus and leave the booking untouched.
func (s *BookingService) UpdateStatus(ctx context.Context, id, userID, status string) (*model.Booking, error) {
	next := model.BookingStatus(status)
	if !next.Valid() {
		metrics.RecordBooking("update_status", "invalid")
		return nil, apperr.ErrInvalidStatus
	}
	b, err := s.GetByID(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	prev := b.Status
	b.Status = next
	if next == model.StatusCancelled && b.PaymentStatus == model.PaymentPaid {
		b.PaymentStatus = model.PaymentRefunded
	}
	b.UpdatedAt = s.now().UTC().Truncate(time.Millisecond)

	if err := s.bookings.Update(ctx, owned(id, userID), *b); err != nil {
		metrics.RecordBooking("update_status", "error")
		return nil, fmt.Errorf("update booking status: %w", err)
	}
	metrics.RecordBooking("update_status", "ok")
	s.publish(ctx, model.EventBookingStatusChanged, *b, map[string]any{
		"from": prev,
		"to":   next,
	})
	return b, nil
}

// UpdateSpecialRequests replaces the special requests of a booking.
func (s *BookingService) UpdateSpecialRequests(ctx context.Context, id, userID, text string) (*model.Booking, error) {
	text = strings.TrimSpace(text)
	if len(text) > maxSpecialRequests {
		return nil, apperr.Validation("special requests are too long")
	}
	b, err := s.GetByID(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	b.SpecialRequests = text
	b.UpdatedAt = s.now().UTC().Truncate(time.Millisecond)
	if err := s.bookings.Update(ctx, owned(id, userID), *b); err != nil {
		metrics.RecordBooking("update_special_requests", "error")
		return nil, fmt.Errorf("update special requests: %w", err)
	}
	metrics.RecordBooking("update_special_requests", "ok")
	s.publish(ctx, model.EventBookingUpdated, *b, map[string]any{"specialRequests": text})
	return b, nil
}

func owned(id, userID string) store.Query {
	return store.Where(store.Eq("_id", id), store.Eq("userId", userID))
}

// publish emits a booking event. Failures are logged; the booking change
// has already been stored.
func (s *BookingService) publish(ctx context.Context, t model.EventType, b model.Booking, data map[string]any) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	event := &model.Event{
		ID:        uuid.NewString(),
		Type:      t,
		UserID:    b.UserID,
		BookingID: b.ID,
		Data:      data,
		CreatedAt: s.now().UTC(),
	}
	if err := s.events.Publish(ctx, event); err != nil {
		s.logger.Warn("failed to publish booking event",
			zap.String("event_type", string(t)),
			zap.String("booking_id", b.ID),
			zap.Error(err),
		)
	}
}
