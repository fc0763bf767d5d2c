package domain

type NotificationKind string

const (
	NotifyBookingConfirmed NotificationKind = "booking_confirmed"
	NotifyBookingCancelled NotificationKind = "booking_cancelled"
	NotifyBookingExpired   NotificationKind = "booking_expired"
)

func (k NotificationKind) Valid() bool {
	switch k {
	case NotifyBookingConfirmed, NotifyBookingCancelled, NotifyBookingExpired:
		return true
	}
	return false
}
