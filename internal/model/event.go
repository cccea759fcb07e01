package model

import (
	"time"
)

// EventType represents the type of a domain event published to the bus.
type EventType string

const (
	EventBookingCreated       EventType = "booking.created"
	EventBookingStatusChanged EventType = "booking.status_changed"
	EventBookingUpdated       EventType = "booking.updated"
	EventChatTurn             EventType = "chat.turn"
)

// Event is a domain event. Subject routing is derived from Type.
type Event struct {
	ID        string         `json:"id"`
	Type      EventType      `json:"type"`
	UserID    string         `json:"user_id,omitempty"`
	SessionID string         `json:"session_id,omitempty"`
	BookingID string         `json:"booking_id,omitempty"`
	Data      map[string]any `json:"data,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}
