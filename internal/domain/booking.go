package domain

import "time"

type BookingState string

const (
	BookingStateHeld      BookingState = "held"
	BookingStateConfirmed BookingState = "confirmed"
	BookingStateCancelled BookingState = "cancelled"
)

// CanTransition reports whether the lifecycle allows moving from s to next.
func (s BookingState) CanTransition(next BookingState) bool {
	switch s {
	case BookingStateHeld:
		return next == BookingStateConfirmed || next == BookingStateCancelled
	case BookingStateConfirmed:
		return next == BookingStateCancelled
	}
	return false
}

type DisplayStatus string

const (
	DisplayPending   DisplayStatus = "pending"
	DisplayPublish   DisplayStatus = "publish"
	DisplayCompleted DisplayStatus = "completed"
	DisplayTrash     DisplayStatus = "trash"
)

type PaymentMode string

const (
	PaymentModeDeposit PaymentMode = "deposit"
	PaymentModeFull    PaymentMode = "full"
)

type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "pending_payment"
	PaymentStatusPaid    PaymentStatus = "paid"
)

// Booking meta keys.
const (
	MetaRoomImage = "room_image"
	MetaGuestTier = "guest_tier"
	MetaRequestID = "request_id"
)

type LineItem struct {
	RoomID   string `json:"room_id"`
	RoomName string `json:"room_name,omitempty"`
}

type Customer struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// Booking is one attempted reservation. Room fields are a snapshot taken at
// booking time, not a reference into the registry.
type Booking struct {
	ID            int64             `json:"id"`
	RoomID        string            `json:"room_id"`
	RoomName      string            `json:"room_name"`
	CheckIn       time.Time         `json:"check_in"`
	CheckOut      time.Time         `json:"check_out"`
	Nights        int               `json:"nights"`
	Guests        int               `json:"guests"`
	RoomsNeeded   int               `json:"rooms_needed"`
	LineItems     []LineItem        `json:"line_items,omitempty"`
	PaymentMode   PaymentMode       `json:"payment_mode"`
	Total         float64           `json:"total"`
	PayNow        float64           `json:"pay_now"`
	Balance       float64           `json:"balance"`
	Discount      float64           `json:"discount"`
	Customer      Customer          `json:"customer"`
	IDDocument    string            `json:"id_document,omitempty"`
	PaymentStatus PaymentStatus     `json:"payment_status"`
	State         BookingState      `json:"state"`
	OrderRef      string            `json:"order_ref,omitempty"`
	NotifyError   string            `json:"notify_error,omitempty"`
	NotifyErrorAt *time.Time        `json:"notify_error_at,omitempty"`
	Meta          map[string]string `json:"meta,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

// DisplayStatus classifies the booking for reporting. It depends on the
// current date and is never persisted.
func (b Booking) DisplayStatus(now time.Time) DisplayStatus {
	switch b.State {
	case BookingStateHeld:
		return DisplayPending
	case BookingStateConfirmed:
		if MidnightUTC(b.CheckOut).Before(MidnightUTC(now)) {
			return DisplayCompleted
		}
		return DisplayPublish
	default:
		return DisplayTrash
	}
}

// RoomRefs lists one room identifier per unit the booking consumes.
func (b Booking) RoomRefs() []string {
	if len(b.LineItems) > 0 {
		refs := make([]string, 0, len(b.LineItems))
		for _, li := range b.LineItems {
			if li.RoomID != "" {
				refs = append(refs, li.RoomID)
			} else if li.RoomName != "" {
				refs = append(refs, li.RoomName)
			}
		}
		return refs
	}
	if b.RoomID == "" {
		return nil
	}
	n := b.RoomsNeeded
	if n <= 0 {
		n = 1
	}
	refs := make([]string, n)
	for i := range refs {
		refs[i] = b.RoomID
	}
	return refs
}

// Overlaps uses the open-interval test: adjacent ranges do not overlap.
func (b Booking) Overlaps(checkIn, checkOut time.Time) bool {
	return b.CheckIn.Before(checkOut) && b.CheckOut.After(checkIn)
}
