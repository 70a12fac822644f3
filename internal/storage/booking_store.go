package storage

import (
	"context"
	"time"
)

// EventType is a bookable meeting kind owned by a user.
type EventType struct {
	ID     int64  `json:"id"`
	UserID int64  `json:"userId"`
	Title  string `json:"title"`
	Slug   string `json:"slug"`
	// Length is the meeting duration in minutes.
	Length int `json:"length"`
	// EventName is an optional custom booking title with {ATTENDEE} and {HOST} variables.
	EventName string    `json:"eventName,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// EventTypeStore persists event types.
type EventTypeStore interface {
	CreateEventType(ctx context.Context, et *EventType) error
	GetEventType(ctx context.Context, id int64) (*EventType, error)
	ListEventTypes(ctx context.Context, userID int64) ([]*EventType, error)
}

// BookingStatus defines the lifecycle state of a booking.
type BookingStatus string

// Booking status constants.
const (
	BookingStatusAccepted  BookingStatus = "accepted"
	BookingStatusCancelled BookingStatus = "cancelled"
)

// Attendee is a guest on a booking.
type Attendee struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	TimeZone string `json:"timeZone"`
	Locale   string `json:"locale,omitempty"`
}

// Booking is a scheduled meeting between a user and its attendees.
type Booking struct {
	UID             string        `json:"uid"`
	UserID          int64         `json:"userId"`
	EventTypeID     int64         `json:"eventTypeId"`
	Title           string        `json:"title"`
	Description     string        `json:"description"`
	AdditionalNotes string        `json:"additionalNotes,omitempty"`
	StartTime       time.Time     `json:"startTime"`
	EndTime         time.Time     `json:"endTime"`
	Attendees       []Attendee    `json:"attendees"`
	Location        string        `json:"location,omitempty"`
	Status          BookingStatus `json:"status"`
	CreatedAt       time.Time     `json:"createdAt"`
	UpdatedAt       time.Time     `json:"updatedAt"`
}

// BookingStore persists bookings.
type BookingStore interface {
	CreateBooking(ctx context.Context, b *Booking) error
	GetBooking(ctx context.Context, uid string) (*Booking, error)
	// UpdateBooking overwrites the mutable fields (times, status, notes) of b.
	UpdateBooking(ctx context.Context, b *Booking) error
}
