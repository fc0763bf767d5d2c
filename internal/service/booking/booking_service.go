package booking

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/Domenick1991/resortbooking/internal/domain"
	"github.com/Domenick1991/resortbooking/internal/kafka"
	"github.com/Domenick1991/resortbooking/internal/repository"
	"github.com/Domenick1991/resortbooking/internal/service/availability"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type BookingUseCase interface {
	CreateBooking(ctx context.Context, input CreateBookingInput) (*CreateBookingResult, error)
	ConfirmBooking(ctx context.Context, id int64, orderRef string) (*domain.Booking, error)
	CancelBooking(ctx context.Context, id int64) (*domain.Booking, error)
	ExpireBooking(ctx context.Context, id int64) (bool, error)
	ExpirePendingBookings(ctx context.Context) ([]domain.Booking, error)
	HardCheck(ctx context.Context, id int64) error
	HardCheckSession(ctx context.Context, sessionID string) error
	RetryNotification(ctx context.Context, id int64, kind domain.NotificationKind) error
	GetBooking(ctx context.Context, id int64) (*BookingView, error)
}

type Availability interface {
	GetAvailable(ctx context.Context, q availability.Query) ([]domain.RoomAvailability, error)
}

type Checkout interface {
	StartCheckout(ctx context.Context, sessionID string, booking domain.Booking) (string, string, error)
	BookingIDs(ctx context.Context, sessionID string) ([]int64, error)
	Clear(ctx context.Context, sessionID string) error
}

type Scheduler interface {
	ScheduleOnce(ctx context.Context, bookingID int64, at time.Time) (bool, error)
	Cancel(ctx context.Context, bookingID int64) error
}

type Notifier interface {
	Notify(ctx context.Context, booking domain.Booking, kind domain.NotificationKind, force bool) error
}

type Uploader interface {
	UploadIDDocument(ctx context.Context, filename string, file io.Reader) (string, error)
}

type Locker interface {
	AcquireRoomLock(ctx context.Context, roomID string, checkIn, checkOut time.Time, ttl time.Duration) (bool, error)
	ReleaseRoomLock(ctx context.Context, roomID string, checkIn, checkOut time.Time) error
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

type BookingService struct {
	bookings     repository.BookingRepository
	engine       Availability
	checkout     Checkout
	scheduler    Scheduler
	notifier     Notifier
	uploader     Uploader
	locker       Locker
	producer     Producer
	bookingTopic string
	holdTTL      time.Duration
	lockTTL      time.Duration
	discountRate float64
	now          func() time.Time
	logger       *logrus.Logger
}

type Document struct {
	Filename string
	Content  io.Reader
}

type CreateBookingInput struct {
	RoomID      string             `json:"room_id" validate:"required"`
	CheckIn     string             `json:"check_in" validate:"required,datetime=2006-01-02"`
	CheckOut    string             `json:"check_out" validate:"required,datetime=2006-01-02"`
	Guests      int                `json:"guests" validate:"required,min=1"`
	PaymentMode domain.PaymentMode `json:"payment_mode" validate:"required,oneof=deposit full"`
	Name        string             `json:"name" validate:"required"`
	Email       string             `json:"email" validate:"required,email"`
	Phone       string             `json:"phone" validate:"required"`
	SessionID   string             `json:"-"`
	Document    *Document          `json:"-"`
}

type CreateBookingResult struct {
	Booking     *domain.Booking `json:"booking"`
	SessionID   string          `json:"session_id"`
	RedirectURL string          `json:"redirect_url"`
}

// BookingView is a booking together with its date-dependent display status.
type BookingView struct {
	domain.Booking
	Status domain.DisplayStatus `json:"status"`
}

type BookingServiceOption func(*BookingService)

func WithScheduler(scheduler Scheduler) BookingServiceOption {
	return func(s *BookingService) {
		s.scheduler = scheduler
	}
}

func WithNotifier(notifier Notifier) BookingServiceOption {
	return func(s *BookingService) {
		s.notifier = notifier
	}
}

func WithUploader(uploader Uploader) BookingServiceOption {
	return func(s *BookingService) {
		s.uploader = uploader
	}
}

func WithRoomLock(locker Locker, ttl time.Duration) BookingServiceOption {
	return func(s *BookingService) {
		s.locker = locker
		s.lockTTL = ttl
	}
}

func WithEvents(producer Producer, topic string) BookingServiceOption {
	return func(s *BookingService) {
		s.producer = producer
		s.bookingTopic = topic
	}
}

func WithHoldTTL(ttl time.Duration) BookingServiceOption {
	return func(s *BookingService) {
		s.holdTTL = ttl
	}
}

func WithFullPaymentDiscount(rate float64) BookingServiceOption {
	return func(s *BookingService) {
		s.discountRate = rate
	}
}

func WithClock(now func() time.Time) BookingServiceOption {
	return func(s *BookingService) {
		s.now = now
	}
}

func NewBookingService(
	bookings repository.BookingRepository,
	engine Availability,
	checkout Checkout,
	logger *logrus.Logger,
	opts ...BookingServiceOption,
) *BookingService {
	service := &BookingService{
		bookings:     bookings,
		engine:       engine,
		checkout:     checkout,
		logger:       logger,
		holdTTL:      10 * time.Minute,
		lockTTL:      5 * time.Second,
		discountRate: DefaultFullPaymentDiscount,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

func (s *BookingService) CreateBooking(ctx context.Context, input CreateBookingInput) (*CreateBookingResult, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}
	checkIn, err := domain.ParseDate(input.CheckIn)
	if err != nil {
		return nil, fmt.Errorf("%w: check_in %v", ErrValidation, err)
	}
	checkOut, err := domain.ParseDate(input.CheckOut)
	if err != nil {
		return nil, fmt.Errorf("%w: check_out %v", ErrValidation, err)
	}
	nights := domain.Nights(checkIn, checkOut)
	if nights <= 0 {
		return nil, fmt.Errorf("%w: check_out must be after check_in", ErrValidation)
	}

	if s.locker != nil {
		ok, err := s.locker.AcquireRoomLock(ctx, input.RoomID, checkIn, checkOut, s.lockTTL)
		if err != nil {
			return nil, fmt.Errorf("acquire room lock: %w", err)
		}
		if !ok {
			return nil, ErrRoomBusy
		}
		defer func() {
			if err := s.locker.ReleaseRoomLock(ctx, input.RoomID, checkIn, checkOut); err != nil {
				s.logger.WithError(err).WithField("room_id", input.RoomID).Warn("release room lock failed")
			}
		}()
	}

	rooms, err := s.engine.GetAvailable(ctx, availability.Query{CheckIn: checkIn, CheckOut: checkOut})
	if err != nil {
		return nil, fmt.Errorf("check availability: %w", err)
	}
	room, ok := findRoom(rooms, input.RoomID)
	if !ok || !room.IsAvailable {
		return nil, ErrNoLongerAvailable
	}
	roomsNeeded := RoomsNeeded(input.Guests, room.Capacity)
	if room.UnitsLeft < roomsNeeded {
		return nil, ErrNoLongerAvailable
	}
	if !acceptsGuests(room, input.Guests) {
		return nil, fmt.Errorf("%w: room does not accept %s bookings", ErrValidation, domain.GuestTierFor(input.Guests))
	}

	var documentURL string
	if input.Document != nil && s.uploader != nil {
		documentURL, err = s.uploader.UploadIDDocument(ctx, input.Document.Filename, input.Document.Content)
		if err != nil {
			s.logger.WithError(err).WithField("room_id", input.RoomID).Warn("identity document upload failed")
			return nil, fmt.Errorf("%w: %v", ErrUpload, err)
		}
	}

	quote := PriceStay(room.PricePerNight, room.Deposit, nights, input.Guests, input.PaymentMode, s.discountRate)
	lineItems := make([]domain.LineItem, roomsNeeded)
	for i := range lineItems {
		lineItems[i] = domain.LineItem{RoomID: room.RoomID, RoomName: room.RoomName}
	}
	meta := map[string]string{
		domain.MetaGuestTier: string(domain.GuestTierFor(input.Guests)),
		domain.MetaRequestID: uuid.NewString(),
	}
	if len(room.Images) > 0 {
		meta[domain.MetaRoomImage] = room.Images[0]
	}

	booking := &domain.Booking{
		RoomID:        room.RoomID,
		RoomName:      room.RoomName,
		CheckIn:       checkIn,
		CheckOut:      checkOut,
		Nights:        nights,
		Guests:        input.Guests,
		RoomsNeeded:   roomsNeeded,
		LineItems:     lineItems,
		PaymentMode:   input.PaymentMode,
		Total:         quote.Total,
		PayNow:        quote.PayNow,
		Balance:       quote.Balance,
		Discount:      quote.Discount,
		Customer:      domain.Customer{Name: input.Name, Email: input.Email, Phone: input.Phone},
		IDDocument:    documentURL,
		PaymentStatus: domain.PaymentStatusPending,
		State:         domain.BookingStateHeld,
		Meta:          meta,
	}
	if err := s.bookings.Create(ctx, booking); err != nil {
		return nil, fmt.Errorf("store booking: %w", err)
	}

	sessionID, redirectURL, err := s.checkout.StartCheckout(ctx, input.SessionID, *booking)
	if err != nil {
		s.rollback(ctx, booking.ID, "")
		return nil, fmt.Errorf("%w: %v", ErrCheckoutUnavailable, err)
	}

	if s.scheduler != nil {
		if _, err := s.scheduler.ScheduleOnce(ctx, booking.ID, s.now().Add(s.holdTTL)); err != nil {
			s.rollback(ctx, booking.ID, sessionID)
			return nil, fmt.Errorf("%w: %v", ErrCheckoutUnavailable, err)
		}
	}

	s.logger.WithFields(logrus.Fields{
		"booking_id": booking.ID,
		"room_id":    booking.RoomID,
		"check_in":   input.CheckIn,
		"check_out":  input.CheckOut,
		"pay_now":    booking.PayNow,
	}).Info("booking held")
	s.publish(ctx, kafka.EventBookingCreated, booking)

	return &CreateBookingResult{Booking: booking, SessionID: sessionID, RedirectURL: redirectURL}, nil
}

// rollback removes a held booking whose checkout hand-off failed.
func (s *BookingService) rollback(ctx context.Context, id int64, sessionID string) {
	if err := s.bookings.Delete(ctx, id); err != nil {
		s.logger.WithError(err).WithField("booking_id", id).Error("rollback of held booking failed")
	}
	if sessionID != "" {
		if err := s.checkout.Clear(ctx, sessionID); err != nil {
			s.logger.WithError(err).WithField("session_id", sessionID).Warn("clear checkout session failed")
		}
	}
}

func (s *BookingService) ConfirmBooking(ctx context.Context, id int64, orderRef string) (*domain.Booking, error) {
	current, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.State != domain.BookingStateHeld {
		return s.confirmSettled(ctx, current, orderRef)
	}

	updated, err := s.bookings.TransitionState(ctx, id, domain.BookingStateHeld, domain.BookingStateConfirmed, domain.PaymentStatusPaid, orderRef)
	if errors.Is(err, repository.ErrStateChanged) {
		// expiry or another confirmation got there first
		current, err = s.get(ctx, id)
		if err != nil {
			return nil, err
		}
		return s.confirmSettled(ctx, current, orderRef)
	}
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, err
	}
	s.cancelExpiry(ctx, id)

	s.logger.WithFields(logrus.Fields{"booking_id": id, "order_ref": orderRef}).Info("booking confirmed")
	s.publish(ctx, kafka.EventBookingConfirmed, updated)
	s.notify(ctx, updated, domain.NotifyBookingConfirmed)
	return updated, nil
}

// confirmSettled handles a payment report for a booking that has left Held.
func (s *BookingService) confirmSettled(ctx context.Context, current *domain.Booking, orderRef string) (*domain.Booking, error) {
	if current.State != domain.BookingStateConfirmed {
		return nil, ErrInvalidTransition
	}
	if orderRef == "" || orderRef == current.OrderRef {
		return current, nil
	}
	return s.bookings.SetOrderRef(ctx, current.ID, orderRef)
}

// CancelBooking is the administrator cancel. Past stays are refused.
func (s *BookingService) CancelBooking(ctx context.Context, id int64) (*domain.Booking, error) {
	for attempt := 0; attempt < 2; attempt++ {
		current, err := s.get(ctx, id)
		if err != nil {
			return nil, err
		}
		if current.State == domain.BookingStateCancelled {
			return current, nil
		}
		if current.DisplayStatus(s.now()) == domain.DisplayCompleted {
			return nil, ErrBookingCompleted
		}

		updated, err := s.cancel(ctx, current, kafka.EventBookingCancelled, domain.NotifyBookingCancelled)
		if errors.Is(err, repository.ErrStateChanged) {
			continue
		}
		return updated, err
	}
	return nil, ErrInvalidTransition
}

// ExpireBooking is the hold timer callback. It only acts on held bookings,
// so a payment that lands just before the timer wins.
func (s *BookingService) ExpireBooking(ctx context.Context, id int64) (bool, error) {
	current, err := s.get(ctx, id)
	if errors.Is(err, ErrBookingNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if current.State != domain.BookingStateHeld {
		return false, nil
	}

	_, err = s.cancel(ctx, current, kafka.EventBookingExpired, domain.NotifyBookingExpired)
	if errors.Is(err, repository.ErrStateChanged) || errors.Is(err, repository.ErrNotFound) {
		s.logger.WithField("booking_id", id).Info("hold settled before expiry")
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// ExpirePendingBookings cancels holds older than the hold TTL whose timer
// entry was lost.
func (s *BookingService) ExpirePendingBookings(ctx context.Context) ([]domain.Booking, error) {
	deadline := s.now().Add(-s.holdTTL)
	held, err := s.bookings.ListHeldCreatedBefore(ctx, deadline)
	if err != nil {
		return nil, err
	}

	expired := make([]domain.Booking, 0, len(held))
	for i := range held {
		updated, err := s.cancel(ctx, &held[i], kafka.EventBookingExpired, domain.NotifyBookingExpired)
		if errors.Is(err, repository.ErrStateChanged) || errors.Is(err, repository.ErrNotFound) {
			continue
		}
		if err != nil {
			s.logger.WithError(err).WithField("booking_id", held[i].ID).Error("expire booking failed")
			continue
		}
		expired = append(expired, *updated)
	}
	return expired, nil
}

// cancel moves current to Cancelled only if it is still in the state it was
// read in; otherwise repository.ErrStateChanged is returned.
func (s *BookingService) cancel(ctx context.Context, current *domain.Booking, event string, kind domain.NotificationKind) (*domain.Booking, error) {
	if !current.State.CanTransition(domain.BookingStateCancelled) {
		return nil, ErrInvalidTransition
	}
	updated, err := s.bookings.TransitionState(ctx, current.ID, current.State, domain.BookingStateCancelled, "", "")
	if err != nil {
		return nil, err
	}
	s.cancelExpiry(ctx, current.ID)

	s.logger.WithFields(logrus.Fields{"booking_id": current.ID, "event": event}).Info("booking cancelled")
	s.publish(ctx, event, updated)
	s.notify(ctx, updated, kind)
	return updated, nil
}

// HardCheck re-validates a booking right before its order is finalised. The
// booking's own hold is not counted against it.
func (s *BookingService) HardCheck(ctx context.Context, id int64) error {
	b, err := s.get(ctx, id)
	if err != nil {
		return err
	}
	if b.State == domain.BookingStateCancelled {
		return fmt.Errorf("%w: %s", ErrNoLongerAvailable, NoticeNoLongerAvailable)
	}

	rooms, err := s.engine.GetAvailable(ctx, availability.Query{
		CheckIn:           b.CheckIn,
		CheckOut:          b.CheckOut,
		Room:              b.RoomID,
		ExcludeBookingIDs: []int64{b.ID},
	})
	if err != nil {
		return fmt.Errorf("check availability: %w", err)
	}
	room, ok := findRoom(rooms, b.RoomID)
	if !ok || room.UnitsLeft < RoomsNeeded(b.Guests, room.Capacity) {
		s.logger.WithFields(logrus.Fields{"booking_id": id, "room_id": b.RoomID}).Warn("checkout rejected, room no longer available")
		return fmt.Errorf("%w: %s", ErrNoLongerAvailable, NoticeNoLongerAvailable)
	}
	return nil
}

func (s *BookingService) HardCheckSession(ctx context.Context, sessionID string) error {
	ids, err := s.checkout.BookingIDs(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCheckoutUnavailable, err)
	}
	for _, id := range ids {
		if err := s.HardCheck(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

// RetryNotification re-sends a template even if it was delivered before.
func (s *BookingService) RetryNotification(ctx context.Context, id int64, kind domain.NotificationKind) error {
	if s.notifier == nil {
		return ErrNotificationsDisabled
	}
	if !kind.Valid() {
		return fmt.Errorf("%w: %s", ErrUnknownNotification, kind)
	}
	b, err := s.get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.notifier.Notify(ctx, *b, kind, true); err != nil {
		s.recordNotificationError(ctx, id, err)
		return err
	}
	return nil
}

func (s *BookingService) GetBooking(ctx context.Context, id int64) (*BookingView, error) {
	b, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	return &BookingView{Booking: *b, Status: b.DisplayStatus(s.now())}, nil
}

func (s *BookingService) get(ctx context.Context, id int64) (*domain.Booking, error) {
	b, err := s.bookings.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrBookingNotFound
	}
	return b, err
}

func (s *BookingService) cancelExpiry(ctx context.Context, id int64) {
	if s.scheduler == nil {
		return
	}
	if err := s.scheduler.Cancel(ctx, id); err != nil {
		s.logger.WithError(err).WithField("booking_id", id).Warn("cancel expiry timer failed")
	}
}

// notify never fails the caller; delivery problems are stored on the booking.
func (s *BookingService) notify(ctx context.Context, b *domain.Booking, kind domain.NotificationKind) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Notify(ctx, *b, kind, false); err != nil {
		s.recordNotificationError(ctx, b.ID, err)
	}
}

func (s *BookingService) recordNotificationError(ctx context.Context, id int64, cause error) {
	s.logger.WithError(cause).WithField("booking_id", id).Warn("notification failed")
	if err := s.bookings.RecordNotificationError(ctx, id, cause.Error(), s.now()); err != nil {
		s.logger.WithError(err).WithField("booking_id", id).Error("record notification error failed")
	}
}

func (s *BookingService) publish(ctx context.Context, eventType string, booking *domain.Booking) {
	if s.producer == nil || s.bookingTopic == "" {
		return
	}
	event := kafka.BookingEvent{
		Type:          eventType,
		EventID:       uuid.NewString(),
		BookingID:     booking.ID,
		RoomID:        booking.RoomID,
		RoomName:      booking.RoomName,
		CheckIn:       domain.FormatDate(booking.CheckIn),
		CheckOut:      domain.FormatDate(booking.CheckOut),
		Guests:        booking.Guests,
		State:         string(booking.State),
		PaymentStatus: string(booking.PaymentStatus),
		PayNow:        booking.PayNow,
		Email:         booking.Customer.Email,
		OccurredAt:    s.now().UTC(),
	}
	if err := s.producer.Publish(ctx, s.bookingTopic, strconv.FormatInt(booking.ID, 10), event); err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{"booking_id": booking.ID, "event": eventType}).Warn("failed to publish booking event")
	}
}

func findRoom(rooms []domain.RoomAvailability, roomID string) (domain.RoomAvailability, bool) {
	for _, r := range rooms {
		if r.RoomID == roomID {
			return r, true
		}
	}
	return domain.RoomAvailability{}, false
}

func acceptsGuests(room domain.RoomAvailability, guests int) bool {
	tier := domain.GuestTierFor(guests)
	if len(room.GuestTypes) == 0 {
		return true
	}
	for _, g := range room.GuestTypes {
		if g == tier {
			return true
		}
	}
	return false
}

var _ BookingUseCase = (*BookingService)(nil)
