package repository

import (
	"context"
	"testing"
	"time"

	"github.com/Domenick1991/resortbooking/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := domain.ParseDate(s)
	require.NoError(t, err)
	return d
}

func newGormRepos(t *testing.T) (BookingRepository, SettingsStore) {
	t.Helper()
	db, err := OpenGorm(":memory:")
	require.NoError(t, err, "Failed to open sqlite database")
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return NewGormBookingRepository(db), NewGormSettingsStore(db)
}

func heldBooking(t *testing.T, roomID, in, out string) *domain.Booking {
	return &domain.Booking{
		RoomID:        roomID,
		RoomName:      "Room " + roomID,
		CheckIn:       date(t, in),
		CheckOut:      date(t, out),
		Nights:        domain.Nights(date(t, in), date(t, out)),
		Guests:        2,
		RoomsNeeded:   1,
		LineItems:     []domain.LineItem{{RoomID: roomID}},
		PaymentMode:   domain.PaymentModeDeposit,
		Total:         10000,
		PayNow:        1000,
		Balance:       9000,
		Customer:      domain.Customer{Name: "Ann", Email: "ann@example.com", Phone: "+100"},
		PaymentStatus: domain.PaymentStatusPending,
		State:         domain.BookingStateHeld,
		Meta:          map[string]string{"room_image": "https://img/1.jpg"},
	}
}

func TestGormBookingRepository_CreateAndGet(t *testing.T) {
	repo, _ := newGormRepos(t)
	ctx := context.Background()

	b := heldBooking(t, "r1", "2024-03-01", "2024-03-05")
	require.NoError(t, repo.Create(ctx, b))
	assert.NotZero(t, b.ID)

	got, err := repo.GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, "r1", got.RoomID)
	assert.Equal(t, date(t, "2024-03-01"), got.CheckIn)
	assert.Equal(t, date(t, "2024-03-05"), got.CheckOut)
	assert.Equal(t, 4, got.Nights)
	assert.Equal(t, []domain.LineItem{{RoomID: "r1"}}, got.LineItems)
	assert.Equal(t, "ann@example.com", got.Customer.Email)
	assert.Equal(t, "https://img/1.jpg", got.Meta["room_image"])
	assert.Equal(t, domain.BookingStateHeld, got.State)
}

func TestGormBookingRepository_GetMissing(t *testing.T) {
	repo, _ := newGormRepos(t)

	_, err := repo.GetByID(context.Background(), 42)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, repo.Delete(context.Background(), 42), ErrNotFound)
}

func TestGormBookingRepository_ListActiveOverlapping(t *testing.T) {
	repo, _ := newGormRepos(t)
	ctx := context.Background()

	overlapping := heldBooking(t, "r1", "2024-03-01", "2024-03-05")
	require.NoError(t, repo.Create(ctx, overlapping))

	cancelled := heldBooking(t, "r1", "2024-03-02", "2024-03-06")
	require.NoError(t, repo.Create(ctx, cancelled))
	_, err := repo.TransitionState(ctx, cancelled.ID, domain.BookingStateHeld, domain.BookingStateCancelled, "", "")
	require.NoError(t, err)

	later := heldBooking(t, "r2", "2024-03-05", "2024-03-08")
	require.NoError(t, repo.Create(ctx, later))

	got, err := repo.ListActiveOverlapping(ctx, date(t, "2024-03-04"), date(t, "2024-03-05"))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, overlapping.ID, got[0].ID)

	got, err = repo.ListActiveOverlapping(ctx, date(t, "2024-03-05"), date(t, "2024-03-10"))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, later.ID, got[0].ID)
}

func TestGormBookingRepository_TransitionStateKeepsOrderRef(t *testing.T) {
	repo, _ := newGormRepos(t)
	ctx := context.Background()

	b := heldBooking(t, "r1", "2024-03-01", "2024-03-05")
	require.NoError(t, repo.Create(ctx, b))

	confirmed, err := repo.TransitionState(ctx, b.ID, domain.BookingStateHeld, domain.BookingStateConfirmed, domain.PaymentStatusPaid, "order-1")
	require.NoError(t, err)
	assert.Equal(t, domain.BookingStateConfirmed, confirmed.State)
	assert.Equal(t, domain.PaymentStatusPaid, confirmed.PaymentStatus)
	assert.Equal(t, "order-1", confirmed.OrderRef)

	cancelled, err := repo.TransitionState(ctx, b.ID, domain.BookingStateConfirmed, domain.BookingStateCancelled, "", "")
	require.NoError(t, err)
	assert.Equal(t, "order-1", cancelled.OrderRef)
	assert.Equal(t, domain.PaymentStatusPaid, cancelled.PaymentStatus)

	restamped, err := repo.SetOrderRef(ctx, b.ID, "order-2")
	require.NoError(t, err)
	assert.Equal(t, "order-2", restamped.OrderRef)
}

func TestGormBookingRepository_TransitionStateRequiresExpectedState(t *testing.T) {
	repo, _ := newGormRepos(t)
	ctx := context.Background()

	b := heldBooking(t, "r1", "2024-03-01", "2024-03-05")
	require.NoError(t, repo.Create(ctx, b))
	_, err := repo.TransitionState(ctx, b.ID, domain.BookingStateHeld, domain.BookingStateConfirmed, domain.PaymentStatusPaid, "order-1")
	require.NoError(t, err)

	// a stale Held -> Cancelled write must not touch the confirmed row
	_, err = repo.TransitionState(ctx, b.ID, domain.BookingStateHeld, domain.BookingStateCancelled, "", "")
	assert.ErrorIs(t, err, ErrStateChanged)

	got, err := repo.GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.BookingStateConfirmed, got.State)
	assert.Equal(t, domain.PaymentStatusPaid, got.PaymentStatus)
	assert.Equal(t, "order-1", got.OrderRef)

	_, err = repo.TransitionState(ctx, 999, domain.BookingStateHeld, domain.BookingStateCancelled, "", "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGormBookingRepository_CorruptRowIsReported(t *testing.T) {
	db, err := OpenGorm(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	repo := NewGormBookingRepository(db)
	ctx := context.Background()

	b := heldBooking(t, "r1", "2024-03-01", "2024-03-05")
	require.NoError(t, repo.Create(ctx, b))
	require.NoError(t, db.Model(&bookingModel{}).Where("id = ?", b.ID).Update("check_in", "not-a-date").Error)

	_, err = repo.GetByID(ctx, b.ID)
	assert.ErrorContains(t, err, "check_in")

	_, err = repo.ListAll(ctx)
	assert.Error(t, err)
}

func TestGormBookingRepository_RecordNotificationError(t *testing.T) {
	repo, _ := newGormRepos(t)
	ctx := context.Background()

	b := heldBooking(t, "r1", "2024-03-01", "2024-03-05")
	require.NoError(t, repo.Create(ctx, b))

	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, repo.RecordNotificationError(ctx, b.ID, "gateway timeout", at))

	got, err := repo.GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, "gateway timeout", got.NotifyError)
	require.NotNil(t, got.NotifyErrorAt)
	assert.True(t, at.Equal(*got.NotifyErrorAt))
}

func TestGormBookingRepository_ListHeldCreatedBefore(t *testing.T) {
	repo, _ := newGormRepos(t)
	ctx := context.Background()

	held := heldBooking(t, "r1", "2024-03-01", "2024-03-05")
	require.NoError(t, repo.Create(ctx, held))
	confirmed := heldBooking(t, "r1", "2024-03-01", "2024-03-05")
	require.NoError(t, repo.Create(ctx, confirmed))
	_, err := repo.TransitionState(ctx, confirmed.ID, domain.BookingStateHeld, domain.BookingStateConfirmed, domain.PaymentStatusPaid, "o")
	require.NoError(t, err)

	got, err := repo.ListHeldCreatedBefore(ctx, time.Now().Add(time.Minute))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, held.ID, got[0].ID)

	got, err = repo.ListHeldCreatedBefore(ctx, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestGormBookingRepository_Delete(t *testing.T) {
	repo, _ := newGormRepos(t)
	ctx := context.Background()

	b := heldBooking(t, "r1", "2024-03-01", "2024-03-05")
	require.NoError(t, repo.Create(ctx, b))
	require.NoError(t, repo.Delete(ctx, b.ID))

	all, err := repo.ListAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestGormSettingsStore_GetSet(t *testing.T) {
	_, store := newGormRepos(t)
	ctx := context.Background()

	_, found, err := store.Get(ctx, "rooms")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, store.Set(ctx, "rooms", []byte(`[{"id":"r1"}]`)))
	require.NoError(t, store.Set(ctx, "rooms", []byte(`[{"id":"r2"}]`)))

	value, found, err := store.Get(ctx, "rooms")
	require.NoError(t, err)
	assert.True(t, found)
	assert.JSONEq(t, `[{"id":"r2"}]`, string(value))
}
