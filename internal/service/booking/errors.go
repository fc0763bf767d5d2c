package booking

import "errors"

var (
	ErrValidation            = errors.New("validation failed")
	ErrNoLongerAvailable     = errors.New("room no longer available")
	ErrRoomBusy              = errors.New("room is being booked by another guest")
	ErrUpload                = errors.New("identity document upload failed")
	ErrCheckoutUnavailable   = errors.New("checkout unavailable")
	ErrInvalidTransition     = errors.New("invalid booking state transition")
	ErrBookingCompleted      = errors.New("completed bookings cannot be cancelled")
	ErrBookingNotFound       = errors.New("booking not found")
	ErrNotificationsDisabled = errors.New("notifications are not configured")
	ErrUnknownNotification   = errors.New("unknown notification kind")
)

// NoticeNoLongerAvailable is shown to the guest when a checkout is rejected.
const NoticeNoLongerAvailable = "Sorry, the selected room is no longer available for these dates. Please choose again."
