package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Domenick1991/resortbooking/internal/domain"
	"github.com/Domenick1991/resortbooking/internal/kafka"
	kafkaGo "github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
)

const sentMarkerTTL = 30 * 24 * time.Hour

type Sender interface {
	Send(ctx context.Context, msg kafka.NotificationMessage) error
}

type SentMarker interface {
	MarkNotificationSent(ctx context.Context, bookingID int64, kind string, ttl time.Duration) (bool, error)
}

type ErrorRecorder interface {
	RecordNotificationError(ctx context.Context, id int64, message string, at time.Time) error
}

// LogSender stands in for the SMS/email gateway and only logs deliveries.
type LogSender struct {
	logger *logrus.Logger
}

func NewLogSender(logger *logrus.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(ctx context.Context, msg kafka.NotificationMessage) error {
	s.logger.WithFields(logrus.Fields{
		"booking_id": msg.BookingID,
		"kind":       msg.Kind,
		"email":      msg.Booking.Customer.Email,
		"phone":      msg.Booking.Customer.Phone,
		"room":       msg.Booking.RoomName,
		"check_in":   domain.FormatDate(msg.Booking.CheckIn),
		"force":      msg.Force,
	}).Info("notification sent")
	return nil
}

// Handler delivers notification messages from the notifications topic.
// Delivery failures are stored on the booking and never stop the consumer.
type Handler struct {
	sender   Sender
	marker   SentMarker
	recorder ErrorRecorder
	logger   *logrus.Logger
	now      func() time.Time
}

func NewHandler(sender Sender, marker SentMarker, recorder ErrorRecorder, logger *logrus.Logger) *Handler {
	return &Handler{sender: sender, marker: marker, recorder: recorder, logger: logger, now: time.Now}
}

func (h *Handler) Handle(ctx context.Context, message kafkaGo.Message) error {
	var msg kafka.NotificationMessage
	if err := json.Unmarshal(message.Value, &msg); err != nil {
		h.logger.WithError(err).WithField("offset", message.Offset).Warn("decode notification message")
		return nil
	}
	log := h.logger.WithFields(logrus.Fields{"booking_id": msg.BookingID, "kind": msg.Kind})

	if !msg.Force && h.marker != nil {
		first, err := h.marker.MarkNotificationSent(ctx, msg.BookingID, string(msg.Kind), sentMarkerTTL)
		if err != nil {
			log.WithError(err).Warn("notification dedupe unavailable, sending anyway")
		} else if !first {
			log.Debug("notification already sent")
			return nil
		}
	}

	if err := h.sender.Send(ctx, msg); err != nil {
		log.WithError(err).Warn("notification delivery failed")
		if recErr := h.recorder.RecordNotificationError(ctx, msg.BookingID, err.Error(), h.now()); recErr != nil {
			log.WithError(recErr).Error("record notification error failed")
		}
	}
	return nil
}
