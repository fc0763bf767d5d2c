package registry

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Domenick1991/resortbooking/internal/domain"
	"github.com/Domenick1991/resortbooking/internal/repository"
	"github.com/sirupsen/logrus"
)

const (
	KeyRooms        = "resort_rooms"
	KeyGroups       = "resort_groups"
	KeyRoomsBackup  = "resort_rooms_backup"
	KeyGroupsBackup = "resort_groups_backup"
)

type RegistryUseCase interface {
	Rooms(ctx context.Context) ([]domain.Room, error)
	Groups(ctx context.Context) ([]domain.Group, error)
	SaveRooms(ctx context.Context, input SaveInput) ([]domain.Room, error)
	SaveGroups(ctx context.Context, input SaveInput) ([]domain.Group, error)
	RestoreBackup(ctx context.Context) (bool, error)
	RecoverFromBookings(ctx context.Context) (*RecoveryReport, error)
	Empty(ctx context.Context) (bool, error)
	Status(ctx context.Context) (*Status, error)
}

type Cache interface {
	GetSetting(ctx context.Context, key string) ([]byte, error)
	SetSetting(ctx context.Context, key string, value []byte) error
	DeleteSettings(ctx context.Context, keys ...string) error
}

type BookingLister interface {
	ListAll(ctx context.Context) ([]domain.Booking, error)
}

// SaveInput carries a proposed replacement list. Submitted must be set only by
// a real settings save; other callers get the stored value back untouched.
type SaveInput struct {
	Submitted bool
	Payload   json.RawMessage
}

type Status struct {
	Rooms     int  `json:"rooms"`
	Groups    int  `json:"groups"`
	Empty     bool `json:"empty"`
	HasBackup bool `json:"has_backup"`
}

type Registry struct {
	store    repository.SettingsStore
	cache    Cache
	bookings BookingLister
	logger   *logrus.Logger
}

type Option func(*Registry)

func WithCache(cache Cache) Option {
	return func(r *Registry) {
		r.cache = cache
	}
}

func NewRegistry(store repository.SettingsStore, bookings BookingLister, logger *logrus.Logger, opts ...Option) *Registry {
	r := &Registry{
		store:    store,
		bookings: bookings,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Registry) load(ctx context.Context, key string) ([]byte, bool, error) {
	if r.cache != nil {
		if cached, err := r.cache.GetSetting(ctx, key); err == nil && cached != nil {
			return cached, true, nil
		}
	}

	data, found, err := r.store.Get(ctx, key)
	if err != nil {
		return nil, false, fmt.Errorf("load %s: %w", key, err)
	}
	if found && r.cache != nil {
		if err := r.cache.SetSetting(ctx, key, data); err != nil {
			r.logger.WithError(err).WithField("key", key).Warn("registry cache write failed")
		}
	}
	return data, found, nil
}

func (r *Registry) save(ctx context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if err := r.store.Set(ctx, key, data); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	r.invalidate(ctx, key)
	return nil
}

func (r *Registry) invalidate(ctx context.Context, keys ...string) {
	if r.cache == nil {
		return
	}
	if err := r.cache.DeleteSettings(ctx, keys...); err != nil {
		r.logger.WithError(err).WithField("keys", keys).Warn("registry cache invalidation failed")
	}
}

func (r *Registry) Rooms(ctx context.Context) ([]domain.Room, error) {
	data, _, err := r.load(ctx, KeyRooms)
	if err != nil {
		return nil, err
	}
	return decodeRooms(data), nil
}

func (r *Registry) Groups(ctx context.Context) ([]domain.Group, error) {
	data, _, err := r.load(ctx, KeyGroups)
	if err != nil {
		return nil, err
	}
	return decodeGroups(data), nil
}

func decodeRooms(data []byte) []domain.Room {
	rooms := make([]domain.Room, 0)
	for _, row := range domain.DecodeRows(data) {
		var room domain.Room
		if err := json.Unmarshal(row, &room); err != nil {
			continue
		}
		rooms = append(rooms, room)
	}
	return rooms
}

func decodeGroups(data []byte) []domain.Group {
	groups := make([]domain.Group, 0)
	for _, row := range domain.DecodeRows(data) {
		var group domain.Group
		if err := json.Unmarshal(row, &group); err != nil {
			continue
		}
		groups = append(groups, group)
	}
	return groups
}

// backup copies the stored value of key into its backup slot when there is
// something worth keeping. Only the latest snapshot is retained.
func (r *Registry) backup(ctx context.Context, key, backupKey string) error {
	current, found, err := r.store.Get(ctx, key)
	if err != nil {
		return fmt.Errorf("read %s for backup: %w", key, err)
	}
	if !found || len(domain.DecodeRows(current)) == 0 {
		return nil
	}
	if err := r.store.Set(ctx, backupKey, current); err != nil {
		return fmt.Errorf("write %s: %w", backupKey, err)
	}
	return nil
}

func (r *Registry) SaveRooms(ctx context.Context, input SaveInput) ([]domain.Room, error) {
	if !input.Submitted {
		return r.Rooms(ctx)
	}

	rooms := sanitizeRooms(domain.DecodeRows(input.Payload))
	if err := r.backup(ctx, KeyRooms, KeyRoomsBackup); err != nil {
		return nil, err
	}
	if err := r.save(ctx, KeyRooms, rooms); err != nil {
		return nil, err
	}

	r.logger.WithField("rooms", len(rooms)).Info("room registry saved")
	return rooms, nil
}

func (r *Registry) SaveGroups(ctx context.Context, input SaveInput) ([]domain.Group, error) {
	if !input.Submitted {
		return r.Groups(ctx)
	}

	rooms, err := r.Rooms(ctx)
	if err != nil {
		return nil, err
	}
	groups := sanitizeGroups(domain.DecodeRows(input.Payload), rooms)
	if err := r.backup(ctx, KeyGroups, KeyGroupsBackup); err != nil {
		return nil, err
	}
	if err := r.save(ctx, KeyGroups, groups); err != nil {
		return nil, err
	}

	r.logger.WithField("groups", len(groups)).Info("group registry saved")
	return groups, nil
}

func (r *Registry) RestoreBackup(ctx context.Context) (bool, error) {
	restored := false
	for _, pair := range [][2]string{{KeyRoomsBackup, KeyRooms}, {KeyGroupsBackup, KeyGroups}} {
		data, found, err := r.store.Get(ctx, pair[0])
		if err != nil {
			return false, fmt.Errorf("read %s: %w", pair[0], err)
		}
		if !found {
			continue
		}
		if err := r.store.Set(ctx, pair[1], data); err != nil {
			return false, fmt.Errorf("restore %s: %w", pair[1], err)
		}
		restored = true
	}
	r.invalidate(ctx, KeyRooms, KeyGroups)

	if restored {
		r.logger.Info("registry restored from backup")
	}
	return restored, nil
}

// Empty reports a missing room registry, usually a sign the settings were lost.
func (r *Registry) Empty(ctx context.Context) (bool, error) {
	rooms, err := r.Rooms(ctx)
	if err != nil {
		return false, err
	}
	return len(rooms) == 0, nil
}

func (r *Registry) Status(ctx context.Context) (*Status, error) {
	rooms, err := r.Rooms(ctx)
	if err != nil {
		return nil, err
	}
	groups, err := r.Groups(ctx)
	if err != nil {
		return nil, err
	}
	_, hasBackup, err := r.store.Get(ctx, KeyRoomsBackup)
	if err != nil {
		return nil, err
	}
	return &Status{
		Rooms:     len(rooms),
		Groups:    len(groups),
		Empty:     len(rooms) == 0,
		HasBackup: hasBackup,
	}, nil
}

var _ RegistryUseCase = (*Registry)(nil)
