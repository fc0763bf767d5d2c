package registry

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/Domenick1991/resortbooking/internal/domain"
	"github.com/Domenick1991/resortbooking/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type memoryStore struct {
	values map[string][]byte
	err    error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{values: make(map[string][]byte)}
}

func (s *memoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	if s.err != nil {
		return nil, false, s.err
	}
	v, ok := s.values[key]
	return v, ok, nil
}

func (s *memoryStore) Set(_ context.Context, key string, value []byte) error {
	if s.err != nil {
		return s.err
	}
	s.values[key] = append([]byte(nil), value...)
	return nil
}

type stubBookings struct {
	bookings []domain.Booking
}

func (s *stubBookings) ListAll(context.Context) ([]domain.Booking, error) {
	return s.bookings, nil
}

type MockCache struct {
	mock.Mock
}

func (m *MockCache) GetSetting(ctx context.Context, key string) ([]byte, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockCache) SetSetting(ctx context.Context, key string, value []byte) error {
	args := m.Called(ctx, key, value)
	return args.Error(0)
}

func (m *MockCache) DeleteSettings(ctx context.Context, keys ...string) error {
	args := m.Called(ctx, keys)
	return args.Error(0)
}

func newTestRegistry(store *memoryStore, bookings ...domain.Booking) *Registry {
	return NewRegistry(store, &stubBookings{bookings: bookings}, logger.Discard())
}

func submitted(payload string) SaveInput {
	return SaveInput{Submitted: true, Payload: json.RawMessage(payload)}
}

func TestRegistry_SaveRooms_NotSubmittedPassesThrough(t *testing.T) {
	store := newMemoryStore()
	store.values[KeyRooms] = []byte(`[{"id":"r1","code":"deluxe","name":"Deluxe","price_single":100,"stock":2,"capacity":4}]`)
	reg := newTestRegistry(store)

	rooms, err := reg.SaveRooms(context.Background(), SaveInput{Payload: json.RawMessage(`[]`)})

	require.NoError(t, err)
	require.Len(t, rooms, 1)
	assert.Equal(t, "r1", rooms[0].ID)
	_, hasBackup := store.values[KeyRoomsBackup]
	assert.False(t, hasBackup)
	assert.JSONEq(t, `[{"id":"r1","code":"deluxe","name":"Deluxe","price_single":100,"stock":2,"capacity":4}]`, string(store.values[KeyRooms]))
}

func TestRegistry_SaveRooms_Sanitizes(t *testing.T) {
	store := newMemoryStore()
	reg := newTestRegistry(store)

	rooms, err := reg.SaveRooms(context.Background(), submitted(`[
		{"name":"Deluxe <b>Room</b>","price":"120","stock":-3,"capacity":9,"images":"a.jpg, b.jpg"},
		{"name":"Deluxe Room","price_single":90,"price_couple":-5,"guest_types":"couple,bogus"},
		{"name":"   ","price_single":50},
		{"id":"deluxe_room","code":"x","name":"Other"}
	]`))

	require.NoError(t, err)
	require.Len(t, rooms, 3)

	first := rooms[0]
	assert.Equal(t, "deluxe-room", first.Code)
	assert.Equal(t, "deluxe_room", first.ID)
	assert.Equal(t, "Deluxe Room", first.Name)
	assert.Equal(t, 120.0, first.PriceSingle)
	assert.Zero(t, first.LegacyPrice)
	assert.Equal(t, 0, first.Stock)
	assert.Equal(t, domain.DefaultCapacity, first.Capacity)
	assert.Equal(t, []string{"a.jpg", "b.jpg"}, first.Images)
	assert.Equal(t, domain.AllGuestTypes, first.GuestTypes)

	second := rooms[1]
	assert.Equal(t, "deluxe-room-1", second.Code)
	assert.Equal(t, "deluxe_room_1", second.ID)
	assert.Zero(t, second.PriceCouple)
	assert.Equal(t, []domain.GuestType{domain.GuestCouple}, second.GuestTypes)

	third := rooms[2]
	assert.Equal(t, "x", third.Code)
	assert.Equal(t, "deluxe_room_2", third.ID)
}

func TestRegistry_SaveRooms_NonListBecomesEmpty(t *testing.T) {
	store := newMemoryStore()
	reg := newTestRegistry(store)

	rooms, err := reg.SaveRooms(context.Background(), submitted(`{"id":"r1"}`))

	require.NoError(t, err)
	assert.Empty(t, rooms)
	assert.JSONEq(t, `[]`, string(store.values[KeyRooms]))
}

func TestRegistry_SaveRooms_BacksUpPreviousValue(t *testing.T) {
	store := newMemoryStore()
	previous := []byte(`[{"id":"old","code":"old","name":"Old"}]`)
	store.values[KeyRooms] = previous
	reg := newTestRegistry(store)

	_, err := reg.SaveRooms(context.Background(), submitted(`[{"name":"New"}]`))
	require.NoError(t, err)
	assert.Equal(t, previous, store.values[KeyRoomsBackup])

	restored, err := reg.RestoreBackup(context.Background())
	require.NoError(t, err)
	assert.True(t, restored)

	rooms, err := reg.Rooms(context.Background())
	require.NoError(t, err)
	require.Len(t, rooms, 1)
	assert.Equal(t, "old", rooms[0].ID)
}

func TestRegistry_SaveRooms_EmptyCurrentNotBackedUp(t *testing.T) {
	store := newMemoryStore()
	store.values[KeyRoomsBackup] = []byte(`[{"id":"keep","name":"Keep"}]`)
	store.values[KeyRooms] = []byte(`[]`)
	reg := newTestRegistry(store)

	_, err := reg.SaveRooms(context.Background(), submitted(`[{"name":"New"}]`))

	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"keep","name":"Keep"}]`, string(store.values[KeyRoomsBackup]))
}

func TestRegistry_RestoreBackup_NoBackup(t *testing.T) {
	reg := newTestRegistry(newMemoryStore())

	restored, err := reg.RestoreBackup(context.Background())

	require.NoError(t, err)
	assert.False(t, restored)
}

func TestRegistry_SaveGroups_DropsRoomsOwnedElsewhere(t *testing.T) {
	store := newMemoryStore()
	store.values[KeyRooms] = []byte(`[
		{"id":"r1","code":"r1","name":"R1","group_owner":"beach"},
		{"id":"r2","code":"r2","name":"R2"}
	]`)
	reg := newTestRegistry(store)

	groups, err := reg.SaveGroups(context.Background(), submitted(`[
		{"name":"Beach","rooms":["r1","r2"]},
		{"name":"Garden","rooms":"r1, r2, r2"},
		{"name":"Beach","rooms":[]},
		{"rooms":["r2"]}
	]`))

	require.NoError(t, err)
	require.Len(t, groups, 3)
	assert.Equal(t, "beach", groups[0].Code)
	assert.Equal(t, []string{"r1", "r2"}, groups[0].Rooms)
	assert.Equal(t, "garden", groups[1].Code)
	assert.Equal(t, []string{"r2"}, groups[1].Rooms)
	assert.Equal(t, "beach-1", groups[2].Code)
}

func TestRegistry_StoreError(t *testing.T) {
	store := newMemoryStore()
	store.err = errors.New("db down")
	reg := newTestRegistry(store)

	_, err := reg.SaveRooms(context.Background(), submitted(`[{"name":"A"}]`))
	assert.Error(t, err)

	_, err = reg.Rooms(context.Background())
	assert.Error(t, err)
}

func TestRegistry_RecoverFromBookings(t *testing.T) {
	in := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	out := in.AddDate(0, 0, 2)
	store := newMemoryStore()
	store.values[KeyRooms] = []byte(`[{"id":"existing","code":"existing","name":"Existing"}]`)

	reg := newTestRegistry(store,
		domain.Booking{ID: 1, RoomID: "lagoon", RoomName: "Lagoon Villa", CheckIn: in, CheckOut: out, Nights: 2, Guests: 1, Total: 200,
			Meta: map[string]string{domain.MetaRoomImage: "https://img/lagoon.jpg"}},
		domain.Booking{ID: 2, RoomID: "lagoon", RoomName: "Lagoon Villa", CheckIn: in, CheckOut: out, Nights: 2, Guests: 2, Total: 480},
		domain.Booking{ID: 3, CheckIn: in, CheckOut: out, Nights: 2, Guests: 3, Total: 0,
			LineItems: []domain.LineItem{{RoomID: "lagoon", RoomName: "Lagoon Villa"}, {RoomID: "lagoon"}, {RoomID: "lagoon"}}},
		domain.Booking{ID: 4, RoomID: "existing", RoomName: "Existing", Nights: 1, Guests: 1, Total: 50},
	)

	report, err := reg.RecoverFromBookings(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 4, report.BookingsScanned)
	assert.Equal(t, []string{"lagoon"}, report.RoomsAdded)
	assert.True(t, report.GroupAdded)

	rooms, err := reg.Rooms(context.Background())
	require.NoError(t, err)
	require.Len(t, rooms, 2)
	lagoon := rooms[1]
	assert.Equal(t, "lagoon", lagoon.ID)
	assert.Equal(t, "Lagoon Villa", lagoon.Name)
	assert.Equal(t, 100.0, lagoon.PriceSingle)
	assert.Equal(t, 120.0, lagoon.PriceCouple)
	assert.Equal(t, 3, lagoon.Stock)
	assert.Equal(t, []string{"https://img/lagoon.jpg"}, lagoon.Images)

	groups, err := reg.Groups(context.Background())
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, RecoveredGroupCode, groups[0].Code)
	assert.Equal(t, []string{"lagoon"}, groups[0].Rooms)

	again, err := reg.RecoverFromBookings(context.Background())
	require.NoError(t, err)
	assert.Empty(t, again.RoomsAdded)
	assert.False(t, again.GroupAdded)
}

func TestRegistry_RecoverFromBookings_MatchesBySlugifiedName(t *testing.T) {
	store := newMemoryStore()
	store.values[KeyRooms] = []byte(`[{"id":"r9","code":"garden-suite","name":"Garden Suite"}]`)
	reg := newTestRegistry(store, domain.Booking{ID: 1, RoomID: "garden_suite_old", RoomName: "garden suite", Nights: 1, Guests: 1, Total: 10})

	report, err := reg.RecoverFromBookings(context.Background())

	require.NoError(t, err)
	assert.Empty(t, report.RoomsAdded)
	assert.False(t, report.GroupAdded)
}

func TestRegistry_CacheReadThroughAndInvalidation(t *testing.T) {
	store := newMemoryStore()
	store.values[KeyRooms] = []byte(`[{"id":"r1","name":"R1"}]`)
	cache := &MockCache{}
	reg := NewRegistry(store, &stubBookings{}, logger.Discard(), WithCache(cache))

	cache.On("GetSetting", mock.Anything, KeyRooms).Return(nil, nil).Once()
	cache.On("SetSetting", mock.Anything, KeyRooms, store.values[KeyRooms]).Return(nil).Once()

	rooms, err := reg.Rooms(context.Background())
	require.NoError(t, err)
	assert.Len(t, rooms, 1)

	cache.On("DeleteSettings", mock.Anything, []string{KeyRooms}).Return(nil).Once()
	_, err = reg.SaveRooms(context.Background(), submitted(`[{"name":"R2"}]`))
	require.NoError(t, err)

	cache.AssertExpectations(t)
}

func TestRegistry_Status(t *testing.T) {
	store := newMemoryStore()
	reg := newTestRegistry(store)

	empty, err := reg.Empty(context.Background())
	require.NoError(t, err)
	assert.True(t, empty)

	store.values[KeyRooms] = []byte(`[{"id":"a","name":"A"}]`)
	store.values[KeyRoomsBackup] = []byte(`[]`)
	status, err := reg.Status(context.Background())
	require.NoError(t, err)
	assert.Equal(t, &Status{Rooms: 1, Groups: 0, Empty: false, HasBackup: true}, status)
}
