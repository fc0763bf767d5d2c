package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Domenick1991/resortbooking/internal/domain"
	"gorm.io/gorm"
)

type bookingModel struct {
	ID            int64      `gorm:"column:id;primaryKey;autoIncrement"`
	RoomID        string     `gorm:"column:room_id;not null"`
	RoomName      string     `gorm:"column:room_name"`
	CheckIn       string     `gorm:"column:check_in;index:idx_bookings_range"`
	CheckOut      string     `gorm:"column:check_out;index:idx_bookings_range"`
	Nights        int        `gorm:"column:nights"`
	Guests        int        `gorm:"column:guests"`
	RoomsNeeded   int        `gorm:"column:rooms_needed"`
	LineItems     string     `gorm:"column:line_items"`
	PaymentMode   string     `gorm:"column:payment_mode"`
	Total         float64    `gorm:"column:total"`
	PayNow        float64    `gorm:"column:pay_now"`
	Balance       float64    `gorm:"column:balance"`
	Discount      float64    `gorm:"column:discount"`
	CustomerName  string     `gorm:"column:customer_name"`
	CustomerEmail string     `gorm:"column:customer_email"`
	CustomerPhone string     `gorm:"column:customer_phone"`
	IDDocument    string     `gorm:"column:id_document"`
	PaymentStatus string     `gorm:"column:payment_status"`
	State         string     `gorm:"column:state;index"`
	OrderRef      string     `gorm:"column:order_ref"`
	NotifyError   string     `gorm:"column:notify_error"`
	NotifyErrorAt *time.Time `gorm:"column:notify_error_at"`
	Meta          string     `gorm:"column:meta"`
	CreatedAt     time.Time  `gorm:"column:created_at"`
	UpdatedAt     time.Time  `gorm:"column:updated_at"`
}

func (bookingModel) TableName() string { return "bookings" }

func toDomainBooking(m bookingModel) (domain.Booking, error) {
	var lineItems []domain.LineItem
	if m.LineItems != "" {
		if err := json.Unmarshal([]byte(m.LineItems), &lineItems); err != nil {
			return domain.Booking{}, fmt.Errorf("booking %d: decode line_items: %w", m.ID, err)
		}
	}
	var meta map[string]string
	if m.Meta != "" {
		if err := json.Unmarshal([]byte(m.Meta), &meta); err != nil {
			return domain.Booking{}, fmt.Errorf("booking %d: decode meta: %w", m.ID, err)
		}
	}
	checkIn, err := domain.ParseDate(m.CheckIn)
	if err != nil {
		return domain.Booking{}, fmt.Errorf("booking %d: check_in: %w", m.ID, err)
	}
	checkOut, err := domain.ParseDate(m.CheckOut)
	if err != nil {
		return domain.Booking{}, fmt.Errorf("booking %d: check_out: %w", m.ID, err)
	}

	return domain.Booking{
		ID:            m.ID,
		RoomID:        m.RoomID,
		RoomName:      m.RoomName,
		CheckIn:       checkIn,
		CheckOut:      checkOut,
		Nights:        m.Nights,
		Guests:        m.Guests,
		RoomsNeeded:   m.RoomsNeeded,
		LineItems:     lineItems,
		PaymentMode:   domain.PaymentMode(m.PaymentMode),
		Total:         m.Total,
		PayNow:        m.PayNow,
		Balance:       m.Balance,
		Discount:      m.Discount,
		Customer:      domain.Customer{Name: m.CustomerName, Email: m.CustomerEmail, Phone: m.CustomerPhone},
		IDDocument:    m.IDDocument,
		PaymentStatus: domain.PaymentStatus(m.PaymentStatus),
		State:         domain.BookingState(m.State),
		OrderRef:      m.OrderRef,
		NotifyError:   m.NotifyError,
		NotifyErrorAt: m.NotifyErrorAt,
		Meta:          meta,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}, nil
}

func toBookingModel(b *domain.Booking) bookingModel {
	lineItems, _ := json.Marshal(b.LineItems)
	meta, _ := json.Marshal(b.Meta)

	return bookingModel{
		ID:            b.ID,
		RoomID:        b.RoomID,
		RoomName:      b.RoomName,
		CheckIn:       domain.FormatDate(b.CheckIn),
		CheckOut:      domain.FormatDate(b.CheckOut),
		Nights:        b.Nights,
		Guests:        b.Guests,
		RoomsNeeded:   b.RoomsNeeded,
		LineItems:     string(lineItems),
		PaymentMode:   string(b.PaymentMode),
		Total:         b.Total,
		PayNow:        b.PayNow,
		Balance:       b.Balance,
		Discount:      b.Discount,
		CustomerName:  b.Customer.Name,
		CustomerEmail: b.Customer.Email,
		CustomerPhone: b.Customer.Phone,
		IDDocument:    b.IDDocument,
		PaymentStatus: string(b.PaymentStatus),
		State:         string(b.State),
		OrderRef:      b.OrderRef,
		NotifyError:   b.NotifyError,
		NotifyErrorAt: b.NotifyErrorAt,
		Meta:          string(meta),
	}
}

// GormBookingRepository stores bookings through gorm. Dates are kept as
// YYYY-MM-DD text so range comparisons behave the same on sqlite and postgres.
type GormBookingRepository struct {
	db *gorm.DB
}

func NewGormBookingRepository(db *gorm.DB) BookingRepository {
	return &GormBookingRepository{db: db}
}

func (r *GormBookingRepository) Create(ctx context.Context, booking *domain.Booking) error {
	m := toBookingModel(booking)
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return err
	}
	booking.ID = m.ID
	booking.CreatedAt = m.CreatedAt
	booking.UpdatedAt = m.UpdatedAt
	return nil
}

func (r *GormBookingRepository) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	var m bookingModel
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	b, err := toDomainBooking(m)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *GormBookingRepository) Delete(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Delete(&bookingModel{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *GormBookingRepository) update(ctx context.Context, id int64, updates map[string]any) (*domain.Booking, error) {
	updates["updated_at"] = time.Now().UTC()
	res := r.db.WithContext(ctx).Model(&bookingModel{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return r.GetByID(ctx, id)
}

func (r *GormBookingRepository) TransitionState(ctx context.Context, id int64, from, to domain.BookingState, payment domain.PaymentStatus, orderRef string) (*domain.Booking, error) {
	updates := map[string]any{
		"state":      string(to),
		"updated_at": time.Now().UTC(),
	}
	if payment != "" {
		updates["payment_status"] = string(payment)
	}
	if orderRef != "" {
		updates["order_ref"] = orderRef
	}

	res := r.db.WithContext(ctx).Model(&bookingModel{}).
		Where("id = ? AND state = ?", id, string(from)).
		Updates(updates)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return nil, err
		}
		return nil, ErrStateChanged
	}
	return r.GetByID(ctx, id)
}

func (r *GormBookingRepository) SetOrderRef(ctx context.Context, id int64, orderRef string) (*domain.Booking, error) {
	return r.update(ctx, id, map[string]any{"order_ref": orderRef})
}

func (r *GormBookingRepository) RecordNotificationError(ctx context.Context, id int64, message string, at time.Time) error {
	_, err := r.update(ctx, id, map[string]any{"notify_error": message, "notify_error_at": at.UTC()})
	return err
}

func (r *GormBookingRepository) list(ctx context.Context, query string, args ...any) ([]domain.Booking, error) {
	var models []bookingModel
	q := r.db.WithContext(ctx).Order("id")
	if query != "" {
		q = q.Where(query, args...)
	}
	if err := q.Find(&models).Error; err != nil {
		return nil, err
	}

	bookings := make([]domain.Booking, 0, len(models))
	for _, m := range models {
		b, err := toDomainBooking(m)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, b)
	}
	return bookings, nil
}

func (r *GormBookingRepository) ListActiveOverlapping(ctx context.Context, checkIn, checkOut time.Time) ([]domain.Booking, error) {
	return r.list(ctx, "state <> ? AND check_in < ? AND check_out > ?",
		string(domain.BookingStateCancelled), domain.FormatDate(checkOut), domain.FormatDate(checkIn))
}

func (r *GormBookingRepository) ListHeldCreatedBefore(ctx context.Context, deadline time.Time) ([]domain.Booking, error) {
	return r.list(ctx, "state = ? AND created_at <= ?", string(domain.BookingStateHeld), deadline.UTC())
}

func (r *GormBookingRepository) ListAll(ctx context.Context) ([]domain.Booking, error) {
	return r.list(ctx, "")
}

var _ BookingRepository = (*GormBookingRepository)(nil)
