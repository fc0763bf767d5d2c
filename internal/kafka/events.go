package kafka

import (
	"time"

	"github.com/Domenick1991/resortbooking/internal/domain"
)

const (
	EventBookingCreated   = "booking_created"
	EventBookingConfirmed = "booking_confirmed"
	EventBookingCancelled = "booking_cancelled"
	EventBookingExpired   = "booking_expired"
)

type BookingEvent struct {
	Type          string    `json:"type"`
	EventID       string    `json:"event_id"`
	BookingID     int64     `json:"booking_id"`
	RoomID        string    `json:"room_id"`
	RoomName      string    `json:"room_name"`
	CheckIn       string    `json:"check_in"`
	CheckOut      string    `json:"check_out"`
	Guests        int       `json:"guests"`
	State         string    `json:"state"`
	PaymentStatus string    `json:"payment_status"`
	PayNow        float64   `json:"pay_now"`
	Email         string    `json:"email"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// NotificationMessage asks the worker to deliver one notification template.
// Force bypasses the sent-once check.
type NotificationMessage struct {
	Kind        domain.NotificationKind `json:"kind"`
	BookingID   int64                   `json:"booking_id"`
	Force       bool                    `json:"force"`
	Booking     domain.Booking          `json:"booking"`
	RequestedAt time.Time               `json:"requested_at"`
}
