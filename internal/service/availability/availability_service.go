package availability

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/Domenick1991/resortbooking/internal/domain"
	"github.com/sirupsen/logrus"
)

type AvailabilityUseCase interface {
	GetAvailable(ctx context.Context, q Query) ([]domain.RoomAvailability, error)
}

type RegistryReader interface {
	Rooms(ctx context.Context) ([]domain.Room, error)
	Groups(ctx context.Context) ([]domain.Group, error)
}

type BookingReader interface {
	ListActiveOverlapping(ctx context.Context, checkIn, checkOut time.Time) ([]domain.Booking, error)
}

// Query selects rooms for a stay. Group takes precedence over Room.
// ExcludeBookingIDs keeps the listed bookings out of the occupancy tally.
type Query struct {
	CheckIn           time.Time
	CheckOut          time.Time
	Group             string
	Room              string
	ExcludeBookingIDs []int64
}

// Engine computes availability from the registry and the booking store. It
// holds no state of its own and is safe for concurrent use.
type Engine struct {
	registry RegistryReader
	bookings BookingReader
	logger   *logrus.Logger
}

func NewEngine(registry RegistryReader, bookings BookingReader, logger *logrus.Logger) *Engine {
	return &Engine{registry: registry, bookings: bookings, logger: logger}
}

func (e *Engine) GetAvailable(ctx context.Context, q Query) ([]domain.RoomAvailability, error) {
	result := make([]domain.RoomAvailability, 0)

	checkIn, checkOut := domain.MidnightUTC(q.CheckIn), domain.MidnightUTC(q.CheckOut)
	nights := domain.Nights(checkIn, checkOut)
	if nights <= 0 {
		return result, nil
	}

	rooms, err := e.registry.Rooms(ctx)
	if err != nil {
		return nil, fmt.Errorf("load rooms: %w", err)
	}

	switch {
	case strings.TrimSpace(q.Group) != "":
		groups, err := e.registry.Groups(ctx)
		if err != nil {
			return nil, fmt.Errorf("load groups: %w", err)
		}
		rooms = filterByGroup(rooms, groups, q.Group)
	case strings.TrimSpace(q.Room) != "":
		rooms = filterByRoom(rooms, q.Room)
	}
	if len(rooms) == 0 {
		return result, nil
	}

	bookings, err := e.bookings.ListActiveOverlapping(ctx, checkIn, checkOut)
	if err != nil {
		return nil, fmt.Errorf("load bookings: %w", err)
	}
	tally := occupancy(bookings, checkIn, checkOut, q.ExcludeBookingIDs)

	for _, room := range rooms {
		booked := 0
		for ref, n := range tally {
			if room.Matches(ref) {
				booked += n
			}
		}
		result = append(result, buildAvailability(room, booked, nights))
	}

	e.logger.WithFields(logrus.Fields{
		"check_in":  domain.FormatDate(checkIn),
		"check_out": domain.FormatDate(checkOut),
		"group":     q.Group,
		"room":      q.Room,
		"rooms":     len(result),
	}).Debug("availability computed")
	return result, nil
}

// occupancy counts consumed units per raw room reference. Cancelled and
// non-overlapping bookings are skipped even if the store returned them.
func occupancy(bookings []domain.Booking, checkIn, checkOut time.Time, exclude []int64) map[string]int {
	skip := make(map[int64]struct{}, len(exclude))
	for _, id := range exclude {
		skip[id] = struct{}{}
	}

	tally := make(map[string]int)
	for _, b := range bookings {
		if _, ok := skip[b.ID]; ok {
			continue
		}
		if b.State == domain.BookingStateCancelled || !b.Overlaps(checkIn, checkOut) {
			continue
		}
		for _, ref := range b.RoomRefs() {
			tally[ref]++
		}
	}
	return tally
}

func buildAvailability(room domain.Room, booked, nights int) domain.RoomAvailability {
	left := room.Stock - booked
	if left < 0 {
		left = 0
	}
	price := room.PricePerNight()
	total := domain.RoundMoney(price * float64(nights))
	id := room.ID
	if id == "" {
		id = room.Code
	}

	return domain.RoomAvailability{
		RoomID:        id,
		RoomName:      room.Name,
		Images:        room.Images,
		UnitsLeft:     left,
		IsAvailable:   left > 0,
		Capacity:      room.EffectiveCapacity(),
		PriceSingle:   room.TierPrice(domain.GuestSingle),
		PriceCouple:   room.TierPrice(domain.GuestCouple),
		PriceGroup:    room.TierPrice(domain.GuestGroup),
		PricePerNight: price,
		Deposit:       room.Deposit,
		GuestTypes:    room.EffectiveGuestTypes(),
		Nights:        nights,
		Total:         total,
		Balance:       domain.RoundMoney(math.Max(0, total-room.Deposit)),
	}
}

func filterByRoom(rooms []domain.Room, value string) []domain.Room {
	out := make([]domain.Room, 0, len(rooms))
	for _, room := range rooms {
		if room.Matches(value) {
			out = append(out, room)
		}
	}
	return out
}

var _ AvailabilityUseCase = (*Engine)(nil)
