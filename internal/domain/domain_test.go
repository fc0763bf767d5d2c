package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := ParseDate(s)
	require.NoError(t, err)
	return d
}

func TestNights(t *testing.T) {
	testCases := []struct {
		name     string
		in, out  string
		expected int
	}{
		{"two nights", "2024-01-10", "2024-01-12", 2},
		{"same day", "2024-01-10", "2024-01-10", 0},
		{"reversed is clamped", "2024-01-12", "2024-01-10", 0},
		{"across month", "2024-02-28", "2024-03-02", 3},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, Nights(mustDate(t, tc.in), mustDate(t, tc.out)))
		})
	}
}

func TestNights_TimezoneInvariant(t *testing.T) {
	loc := time.FixedZone("UTC+11", 11*3600)
	in := time.Date(2024, 1, 10, 23, 30, 0, 0, loc)
	out := time.Date(2024, 1, 12, 0, 15, 0, 0, loc)

	assert.Equal(t, 2, Nights(in, out))
	assert.Equal(t, Nights(in, out), Nights(in, out))
}

func TestRoomMatches_TriKey(t *testing.T) {
	room := Room{ID: "r1", Code: "deluxe-1", Name: "Deluxe 1"}

	for _, v := range []string{"r1", "deluxe-1", "Deluxe 1", "deluxe 1", " DELUXE 1 ", "deluxe_1"} {
		assert.True(t, room.Matches(v), "expected %q to match", v)
	}
	assert.False(t, room.Matches("deluxe-2"))
	assert.False(t, room.Matches(""))
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "deluxe-1", Slugify("Deluxe 1"))
	assert.Equal(t, "sea-view-suite", Slugify("  Sea View -- Suite! "))
	assert.Equal(t, "room_2", Slugify("room_2"))
	assert.Equal(t, "", Slugify("!!!"))
}

func TestRoom_UnmarshalLegacyShapes(t *testing.T) {
	payload := `{
		"id": 7,
		"name": "Garden Hut",
		"price": "4500",
		"stock": "3",
		"deposit": 1000,
		"images": "https://a/1.jpg, https://a/2.jpg,",
		"guest_types": "single,Couple",
		"group": "garden"
	}`

	var r Room
	require.NoError(t, json.Unmarshal([]byte(payload), &r))

	assert.Equal(t, "7", r.ID)
	assert.Equal(t, 4500.0, r.LegacyPrice)
	assert.Equal(t, 4500.0, r.PricePerNight())
	assert.Equal(t, 3, r.Stock)
	assert.Equal(t, []string{"https://a/1.jpg", "https://a/2.jpg"}, r.Images)
	assert.Equal(t, []GuestType{GuestSingle, GuestCouple}, r.GuestTypes)
	assert.Equal(t, "garden", r.LegacyGroup)
	assert.Equal(t, DefaultCapacity, r.EffectiveCapacity())
}

func TestRoom_TierPriceFallback(t *testing.T) {
	r := Room{PriceSingle: 5000, PriceCouple: 8000}

	assert.Equal(t, 5000.0, r.TierPrice(GuestSingle))
	assert.Equal(t, 8000.0, r.TierPrice(GuestCouple))
	assert.Equal(t, 5000.0, r.TierPrice(GuestGroup))
}

func TestGroup_UnmarshalCommaRooms(t *testing.T) {
	var g Group
	require.NoError(t, json.Unmarshal([]byte(`{"name":"VIP","rooms":"r1, r2","advance_extra":"500"}`), &g))

	assert.Equal(t, []string{"r1", "r2"}, g.Rooms)
	assert.Equal(t, 500.0, g.AdvanceExtra)
}

func TestDecodeRows_NotAList(t *testing.T) {
	assert.Empty(t, DecodeRows([]byte(`{"id":"r1"}`)))
	assert.Empty(t, DecodeRows([]byte(`"rooms"`)))
	assert.Len(t, DecodeRows([]byte(`[{"id":"r1"},{"id":"r2"}]`)), 2)
}

func TestBooking_DisplayStatus(t *testing.T) {
	now := mustDate(t, "2024-03-10")

	testCases := []struct {
		name     string
		state    BookingState
		checkOut string
		expected DisplayStatus
	}{
		{"held", BookingStateHeld, "2024-03-12", DisplayPending},
		{"confirmed future", BookingStateConfirmed, "2024-03-12", DisplayPublish},
		{"confirmed checkout today", BookingStateConfirmed, "2024-03-10", DisplayPublish},
		{"confirmed past", BookingStateConfirmed, "2024-03-09", DisplayCompleted},
		{"cancelled", BookingStateCancelled, "2024-03-12", DisplayTrash},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			b := Booking{State: tc.state, CheckOut: mustDate(t, tc.checkOut)}
			assert.Equal(t, tc.expected, b.DisplayStatus(now))
		})
	}
}

func TestBookingState_CanTransition(t *testing.T) {
	assert.True(t, BookingStateHeld.CanTransition(BookingStateConfirmed))
	assert.True(t, BookingStateHeld.CanTransition(BookingStateCancelled))
	assert.True(t, BookingStateConfirmed.CanTransition(BookingStateCancelled))
	assert.False(t, BookingStateConfirmed.CanTransition(BookingStateHeld))
	assert.False(t, BookingStateCancelled.CanTransition(BookingStateConfirmed))
	assert.False(t, BookingStateCancelled.CanTransition(BookingStateHeld))
}

func TestBooking_RoomRefs(t *testing.T) {
	legacy := Booking{RoomID: "r1", RoomsNeeded: 2}
	assert.Equal(t, []string{"r1", "r1"}, legacy.RoomRefs())

	single := Booking{RoomID: "r1"}
	assert.Equal(t, []string{"r1"}, single.RoomRefs())

	multi := Booking{RoomID: "r1", RoomsNeeded: 5, LineItems: []LineItem{{RoomID: "r1"}, {RoomID: "r2"}}}
	assert.Equal(t, []string{"r1", "r2"}, multi.RoomRefs())
}

func TestBooking_Overlaps(t *testing.T) {
	b := Booking{CheckIn: mustDate(t, "2024-03-01"), CheckOut: mustDate(t, "2024-03-05")}

	assert.True(t, b.Overlaps(mustDate(t, "2024-03-04"), mustDate(t, "2024-03-10")))
	assert.False(t, b.Overlaps(mustDate(t, "2024-03-05"), mustDate(t, "2024-03-10")))
	assert.False(t, b.Overlaps(mustDate(t, "2024-02-25"), mustDate(t, "2024-03-01")))
}
