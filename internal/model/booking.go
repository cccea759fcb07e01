package model

import (
	"time"
)

// RoomType is the bookable room category.
type RoomType string

const (
	RoomStandard RoomType = "Standard"
	RoomDeluxe   RoomType = "Deluxe"
	RoomSuite    RoomType = "Suite"
	RoomVilla    RoomType = "Villa"
)

// RoomTypes lists the room types in display order.
var RoomTypes = []RoomType{RoomStandard, RoomDeluxe, RoomSuite, RoomVilla}

// Valid reports whether t is a known room type.
func (t RoomType) Valid() bool {
	switch t {
	case RoomStandard, RoomDeluxe, RoomSuite, RoomVilla:
		return true
	}
	return false
}

// NightlyRate is the list price per night in euro.
func (t RoomType) NightlyRate() float64 {
	switch t {
	case RoomStandard:
		return 120
	case RoomDeluxe:
		return 180
	case RoomSuite:
		return 250
	case RoomVilla:
		return 400
	}
	return 0
}

// MaxGuests is the occupancy limit of the room type.
func (t RoomType) MaxGuests() int {
	switch t {
	case RoomStandard:
		return 2
	case RoomDeluxe:
		return 3
	case RoomSuite:
		return 4
	case RoomVilla:
		return 8
	}
	return 0
}

// BookingStatus is the lifecycle state of a booking.
type BookingStatus string

const (
	StatusPending   BookingStatus = "Pending"
	StatusConfirmed BookingStatus = "Confirmed"
	StatusCancelled BookingStatus = "Cancelled"
	StatusCompleted BookingStatus = "Completed"
)

// Valid reports whether s is one of the four booking statuses.
func (s BookingStatus) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCancelled, StatusCompleted:
		return true
	}
	return false
}

// PaymentStatus is the payment state of a booking.
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "Pending"
	PaymentPaid     PaymentStatus = "Paid"
	PaymentRefunded PaymentStatus = "Refunded"
)

// Booking is a room reservation owned by a user. CheckOut is always after CheckIn.
type Booking struct {
	ID              string        `json:"id" bson:"_id"`
	GuestName       string        `json:"guestName" bson:"guestName"`
	UserID          string        `json:"userId" bson:"userId"`
	CheckIn         time.Time     `json:"checkIn" bson:"checkIn"`
	CheckOut        time.Time     `json:"checkOut" bson:"checkOut"`
	NumberOfGuests  int           `json:"numberOfGuests" bson:"numberOfGuests"`
	RoomType        RoomType      `json:"roomType" bson:"roomType"`
	Status          BookingStatus `json:"status" bson:"status"`
	SpecialRequests string        `json:"specialRequests" bson:"specialRequests"`
	TotalPrice      float64       `json:"totalPrice" bson:"totalPrice"`
	PaymentStatus   PaymentStatus `json:"paymentStatus" bson:"paymentStatus"`
	CreatedAt       time.Time     `json:"createdAt" bson:"createdAt"`
	UpdatedAt       time.Time     `json:"updatedAt" bson:"updatedAt"`
}

// Nights is the number of nights between check-in and check-out.
func (b Booking) Nights() int {
	return int(b.CheckOut.Sub(b.CheckIn).Hours() / 24)
}

// Overlaps applies the half-open interval test against [checkIn, checkOut).
func (b Booking) Overlaps(checkIn, checkOut time.Time) bool {
	return b.CheckIn.Before(checkOut) && b.CheckOut.After(checkIn)
}

// DocID implements store.Document.
func (b Booking) DocID() string {
	return b.ID
}

// FieldValue implements store.Document using the bson field names.
func (b Booking) FieldValue(name string) (any, bool) {
	switch name {
	case "_id":
		return b.ID, true
	case "guestName":
		return b.GuestName, true
	case "userId":
		return b.UserID, true
	case "checkIn":
		return b.CheckIn, true
	case "checkOut":
		return b.CheckOut, true
	case "numberOfGuests":
		return b.NumberOfGuests, true
	case "roomType":
		return string(b.RoomType), true
	case "status":
		return string(b.Status), true
	case "paymentStatus":
		return string(b.PaymentStatus), true
	case "createdAt":
		return b.CreatedAt, true
	case "updatedAt":
		return b.UpdatedAt, true
	}
	return nil, false
}

// CreateBookingRequest is the body of POST /api/bookings.
type CreateBookingRequest struct {
	GuestName       string   `json:"guestName"`
	UserID          string   `json:"userId,omitempty"`
	CheckIn         string   `json:"checkIn"`
	CheckOut        string   `json:"checkOut"`
	NumberOfGuests  int      `json:"numberOfGuests"`
	RoomType        RoomType `json:"roomType"`
	SpecialRequests string   `json:"specialRequests,omitempty"`
	TotalPrice      float64  `json:"totalPrice,omitempty"`
}

// UpdateStatusRequest is the body of PATCH /api/bookings/{id}/status.
type UpdateStatusRequest struct {
	Status string `json:"status"`
	UserID string `json:"userId,omitempty"`
}

// UpdateSpecialRequestsRequest is the body of PATCH /api/bookings/{id}/special-requests.
type UpdateSpecialRequestsRequest struct {
	SpecialRequests string `json:"specialRequests"`
	UserID          string `json:"userId,omitempty"`
}

// AvailabilityRequest is the body of POST /api/bookings/check-availability.
type AvailabilityRequest struct {
	CheckIn  string `json:"checkIn"`
	CheckOut string `json:"checkOut"`
	RoomType string `json:"roomType"`
	UserID   string `json:"userId,omitempty"`
}

// Availability is the result of an availability check.
type Availability struct {
	Available bool      `json:"available"`
	Conflicts []Booking `json:"conflicts"`
}
