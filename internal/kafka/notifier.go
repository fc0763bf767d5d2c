package kafka

import (
	"context"
	"strconv"
	"time"

	"github.com/Domenick1991/resortbooking/internal/domain"
)

type Publisher interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

// Notifier queues notification requests on the notifications topic. Delivery
// happens in the worker.
type Notifier struct {
	producer Publisher
	topic    string
}

func NewNotifier(producer Publisher, topic string) *Notifier {
	return &Notifier{producer: producer, topic: topic}
}

func (n *Notifier) Notify(ctx context.Context, booking domain.Booking, kind domain.NotificationKind, force bool) error {
	msg := NotificationMessage{
		Kind:        kind,
		BookingID:   booking.ID,
		Force:       force,
		Booking:     booking,
		RequestedAt: time.Now().UTC(),
	}
	return n.producer.Publish(ctx, n.topic, strconv.FormatInt(booking.ID, 10), msg)
}
