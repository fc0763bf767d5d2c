package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Domenick1991/resortbooking/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound = errors.New("record not found")
	// ErrStateChanged means the row exists but was no longer in the expected
	// state when a transition was attempted.
	ErrStateChanged = errors.New("booking state changed concurrently")
)

type BookingRepository interface {
	Create(ctx context.Context, booking *domain.Booking) error
	GetByID(ctx context.Context, id int64) (*domain.Booking, error)
	Delete(ctx context.Context, id int64) error
	// TransitionState moves the booking from state from to state to in a single
	// conditional write. Empty payment or orderRef keep the stored values.
	TransitionState(ctx context.Context, id int64, from, to domain.BookingState, payment domain.PaymentStatus, orderRef string) (*domain.Booking, error)
	SetOrderRef(ctx context.Context, id int64, orderRef string) (*domain.Booking, error)
	RecordNotificationError(ctx context.Context, id int64, message string, at time.Time) error
	ListActiveOverlapping(ctx context.Context, checkIn, checkOut time.Time) ([]domain.Booking, error)
	ListHeldCreatedBefore(ctx context.Context, deadline time.Time) ([]domain.Booking, error)
	ListAll(ctx context.Context) ([]domain.Booking, error)
}

type PGBookingRepository struct {
	db *pgxpool.Pool
}

func NewBookingRepository(db *pgxpool.Pool) BookingRepository {
	return &PGBookingRepository{db: db}
}

const bookingColumns = `id, room_id, room_name, check_in, check_out, nights, guests, rooms_needed, line_items,
	payment_mode, total, pay_now, balance, discount, customer_name, customer_email, customer_phone,
	id_document, payment_status, state, order_ref, notify_error, notify_error_at, meta, created_at, updated_at`

func scanBooking(row pgx.Row) (*domain.Booking, error) {
	var b domain.Booking
	var lineItems []domain.LineItem
	var meta map[string]string
	if err := row.Scan(&b.ID, &b.RoomID, &b.RoomName, &b.CheckIn, &b.CheckOut, &b.Nights, &b.Guests, &b.RoomsNeeded, &lineItems,
		&b.PaymentMode, &b.Total, &b.PayNow, &b.Balance, &b.Discount, &b.Customer.Name, &b.Customer.Email, &b.Customer.Phone,
		&b.IDDocument, &b.PaymentStatus, &b.State, &b.OrderRef, &b.NotifyError, &b.NotifyErrorAt, &meta, &b.CreatedAt, &b.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	b.LineItems = lineItems
	b.Meta = meta
	return &b, nil
}

func collectBookings(rows pgx.Rows) ([]domain.Booking, error) {
	defer rows.Close()

	bookings := make([]domain.Booking, 0)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, *b)
	}
	return bookings, rows.Err()
}

func (r *PGBookingRepository) Create(ctx context.Context, booking *domain.Booking) error {
	lineItems := booking.LineItems
	if lineItems == nil {
		lineItems = []domain.LineItem{}
	}
	meta := booking.Meta
	if meta == nil {
		meta = map[string]string{}
	}

	return r.db.QueryRow(ctx, `INSERT INTO bookings (room_id, room_name, check_in, check_out, nights, guests, rooms_needed, line_items,
		payment_mode, total, pay_now, balance, discount, customer_name, customer_email, customer_phone,
		id_document, payment_status, state, meta)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
		RETURNING id, created_at, updated_at`,
		booking.RoomID, booking.RoomName, booking.CheckIn, booking.CheckOut, booking.Nights, booking.Guests, booking.RoomsNeeded, lineItems,
		booking.PaymentMode, booking.Total, booking.PayNow, booking.Balance, booking.Discount,
		booking.Customer.Name, booking.Customer.Email, booking.Customer.Phone,
		booking.IDDocument, booking.PaymentStatus, booking.State, meta).
		Scan(&booking.ID, &booking.CreatedAt, &booking.UpdatedAt)
}

func (r *PGBookingRepository) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	return scanBooking(r.db.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id=$1`, id))
}

func (r *PGBookingRepository) Delete(ctx context.Context, id int64) error {
	cmd, err := r.db.Exec(ctx, `DELETE FROM bookings WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PGBookingRepository) TransitionState(ctx context.Context, id int64, from, to domain.BookingState, payment domain.PaymentStatus, orderRef string) (*domain.Booking, error) {
	b, err := scanBooking(r.db.QueryRow(ctx, `UPDATE bookings
		SET state=$1, payment_status=COALESCE(NULLIF($2, ''), payment_status), order_ref=COALESCE(NULLIF($3, ''), order_ref), updated_at=now()
		WHERE id=$4 AND state=$5
		RETURNING `+bookingColumns, string(to), string(payment), orderRef, id, string(from)))
	if errors.Is(err, ErrNotFound) {
		return nil, r.missingOrChanged(ctx, id)
	}
	return b, err
}

func (r *PGBookingRepository) missingOrChanged(ctx context.Context, id int64) error {
	var exists bool
	if err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM bookings WHERE id=$1)`, id).Scan(&exists); err != nil {
		return err
	}
	if exists {
		return ErrStateChanged
	}
	return ErrNotFound
}

func (r *PGBookingRepository) SetOrderRef(ctx context.Context, id int64, orderRef string) (*domain.Booking, error) {
	return scanBooking(r.db.QueryRow(ctx, `UPDATE bookings SET order_ref=$1, updated_at=now() WHERE id=$2 RETURNING `+bookingColumns, orderRef, id))
}

func (r *PGBookingRepository) RecordNotificationError(ctx context.Context, id int64, message string, at time.Time) error {
	cmd, err := r.db.Exec(ctx, `UPDATE bookings SET notify_error=$1, notify_error_at=$2, updated_at=now() WHERE id=$3`, message, at, id)
	if err != nil {
		return fmt.Errorf("record notification error: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PGBookingRepository) ListActiveOverlapping(ctx context.Context, checkIn, checkOut time.Time) ([]domain.Booking, error) {
	rows, err := r.db.Query(ctx, `SELECT `+bookingColumns+` FROM bookings
		WHERE state <> $1 AND check_in < $2 AND check_out > $3`,
		domain.BookingStateCancelled, checkOut, checkIn)
	if err != nil {
		return nil, err
	}
	return collectBookings(rows)
}

func (r *PGBookingRepository) ListHeldCreatedBefore(ctx context.Context, deadline time.Time) ([]domain.Booking, error) {
	rows, err := r.db.Query(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE state=$1 AND created_at <= $2 ORDER BY id`,
		domain.BookingStateHeld, deadline)
	if err != nil {
		return nil, err
	}
	return collectBookings(rows)
}

func (r *PGBookingRepository) ListAll(ctx context.Context) ([]domain.Booking, error) {
	rows, err := r.db.Query(ctx, `SELECT `+bookingColumns+` FROM bookings ORDER BY id`)
	if err != nil {
		return nil, err
	}
	return collectBookings(rows)
}

var _ BookingRepository = (*PGBookingRepository)(nil)
